package retry_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"msgcore/internal/domain"
	"msgcore/internal/retry"
)

type publishCall struct {
	exchange, key string
	msg           amqp091.Publishing
}

type fakeConfirm struct {
	acked bool
	err   error
}

func (c fakeConfirm) WaitContext(context.Context) (bool, error) { return c.acked, c.err }

type fakePublisher struct {
	calls   []publishCall
	err     error
	confirm fakeConfirm
}

func (f *fakePublisher) Publish(_ context.Context, exchange, key string, msg amqp091.Publishing) (retry.Confirmation, error) {
	f.calls = append(f.calls, publishCall{exchange: exchange, key: key, msg: msg})
	if f.err != nil {
		return nil, f.err
	}
	return f.confirm, nil
}

var hint = domain.RetryHint{
	ID:                 "7c9e6679-7425-40de-944b-e07fc1f90ae7",
	Key:                domain.MessageKey{RemoteJID: "5511@s.whatsapp.net", ID: "MSG1"},
	Error:              "no session record for 5511.0",
	SessionRecordError: true,
	RetryCount:         1,
}

func TestLogNotifier(t *testing.T) {
	logger, hook := test.NewNullLogger()
	require.NoError(t, retry.LogNotifier{Log: logger}.NotifyRetry(context.Background(), hint))

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, "MSG1", entry.Data["id"])
	assert.Equal(t, true, entry.Data["session_record_error"])
}

func TestAMQPNotifier_Publishes(t *testing.T) {
	pub := &fakePublisher{confirm: fakeConfirm{acked: true}}
	logger, _ := test.NewNullLogger()
	n := retry.NewAMQPNotifier(pub, "msgcore.events", "", logger)

	require.NoError(t, n.NotifyRetry(context.Background(), hint))
	require.Len(t, pub.calls, 1)

	call := pub.calls[0]
	assert.Equal(t, "msgcore.events", call.exchange)
	assert.Equal(t, retry.DefaultRoutingKey, call.key)
	assert.Equal(t, hint.ID, call.msg.MessageId)
	assert.Equal(t, "MSG1", call.msg.CorrelationId)
	assert.Equal(t, "application/json", call.msg.ContentType)
	assert.Equal(t, amqp091.Persistent, call.msg.DeliveryMode)

	var got domain.RetryHint
	require.NoError(t, json.Unmarshal(call.msg.Body, &got))
	assert.Equal(t, hint, got)
	assert.NoError(t, n.Close())
}

func TestAMQPNotifier_PublishError(t *testing.T) {
	boom := errors.New("channel closed")
	n := retry.NewAMQPNotifier(&fakePublisher{err: boom}, "x", "k", nil)
	assert.ErrorIs(t, n.NotifyRetry(context.Background(), hint), boom)
}

func TestAMQPNotifier_NackedByBroker(t *testing.T) {
	n := retry.NewAMQPNotifier(&fakePublisher{confirm: fakeConfirm{acked: false}}, "x", "k", nil)
	err := n.NotifyRetry(context.Background(), hint)
	assert.ErrorIs(t, err, retry.ErrNacked)
	assert.Contains(t, err.Error(), hint.ID)
}

func TestAMQPNotifier_ConfirmNeverArrives(t *testing.T) {
	n := retry.NewAMQPNotifier(&fakePublisher{confirm: fakeConfirm{err: context.DeadlineExceeded}}, "x", "k", nil)
	assert.ErrorIs(t, n.NotifyRetry(context.Background(), hint), context.DeadlineExceeded)
}
