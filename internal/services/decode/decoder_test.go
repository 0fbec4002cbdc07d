package decode_test

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"msgcore/internal/domain"
	"msgcore/internal/domain/mocks"
	"msgcore/internal/domain/types"
	"msgcore/internal/services/decode"
	"msgcore/internal/services/lidmapping"
	"msgcore/internal/services/signal"
	"msgcore/internal/services/signal/signaltest"
	"msgcore/internal/waproto"
)

const (
	alicePN  = "5511@s.whatsapp.net"
	aliceLID = "111@lid"
	group    = "120363@g.us"
)

// countingRepo counts session migrations.
type countingRepo struct {
	domain.SignalRepository
	migrations atomic.Int32
}

func (r *countingRepo) MigrateSession(ctx context.Context, from, to string) (domain.MigrationResult, error) {
	r.migrations.Add(1)
	return r.SignalRepository.MigrateSession(ctx, from, to)
}

type fixture struct {
	alice   *signal.Repository
	bob     *countingRepo
	bobAcc  *signaltest.Account
	decoder *decode.Decoder
	hook    *test.Hook
}

func newFixture(t *testing.T, opts ...decode.Option) *fixture {
	t.Helper()
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	repoFor := func(acc *signaltest.Account) *signal.Repository {
		mapping := lidmapping.New(acc.Keys, nil, lidmapping.WithLogger(logger))
		return signal.New(acc.Keys, acc.Creds, mapping, signal.WithLogger(logger))
	}
	aliceAcc := signaltest.NewAccount(t, 1)
	bobAcc := signaltest.NewAccount(t, 2)
	alice := repoFor(aliceAcc)
	bob := &countingRepo{SignalRepository: repoFor(bobAcc)}
	require.NoError(t, alice.InjectSession(context.Background(), domain.InjectSessionRequest{JID: meID, Session: bobAcc.Bundle}))

	opts = append([]decode.Option{decode.WithLogger(logger)}, opts...)
	return &fixture{
		alice:   alice,
		bob:     bob,
		bobAcc:  bobAcc,
		decoder: decode.NewDecoder(bob, meID, meLID, opts...),
		hook:    hook,
	}
}

// seal encrypts m from alice to bob and returns the enc child.
func (f *fixture) seal(t *testing.T, m *waproto.Message) domain.Node {
	t.Helper()
	pt, err := waproto.EncodeMessage(m)
	require.NoError(t, err)
	res, err := f.alice.EncryptMessage(context.Background(), domain.EncryptRequest{JID: meID, Data: pt})
	require.NoError(t, err)
	return encChild(string(res.Kind), res.Ciphertext)
}

func encChild(kind string, content []byte) domain.Node {
	return domain.Node{Tag: "enc", Attrs: map[string]string{"v": "2", "type": kind}, Content: content}
}

func text(s string) *waproto.Message { return &waproto.Message{Conversation: s} }

func TestDecodeEnvelope_MigratesOnceThenUsesLIDSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Plain PN envelope, no hints.
	msg, err := f.decoder.DecodeEnvelope(ctx, envelope(map[string]string{"id": "M0", "from": alicePN}, f.seal(t, text("zero"))))
	require.NoError(t, err)
	require.False(t, msg.IsStub(), "stub params: %v", msg.StubParameters)
	assert.Equal(t, "zero", msg.Message.Text())
	assert.Zero(t, f.bob.migrations.Load())

	// PN envelope carrying the sender's LID.
	msg, err = f.decoder.DecodeEnvelope(ctx, envelope(map[string]string{
		"id": "M1", "from": alicePN, "sender_lid": aliceLID, "participant_lid": aliceLID,
	}, f.seal(t, text("one"))))
	require.NoError(t, err)
	require.False(t, msg.IsStub(), "stub params: %v", msg.StubParameters)
	assert.Equal(t, "one", msg.Message.Text())
	assert.Equal(t, aliceLID, msg.Key.SenderLID)
	assert.EqualValues(t, 1, f.bob.migrations.Load())

	lid, ok := f.bob.LIDMapping().LIDForPN(alicePN)
	require.True(t, ok)
	assert.Equal(t, aliceLID, lid)
	valid, _, err := f.bob.ValidateSession(ctx, aliceLID)
	require.NoError(t, err)
	assert.True(t, valid)
	valid, _, err = f.bob.ValidateSession(ctx, alicePN)
	require.NoError(t, err)
	assert.True(t, valid, "the PN session is kept")

	// LID-addressed envelope decrypts with the migrated session.
	msg, err = f.decoder.DecodeEnvelope(ctx, envelope(map[string]string{"id": "M2", "from": aliceLID}, f.seal(t, text("two"))))
	require.NoError(t, err)
	require.False(t, msg.IsStub(), "stub params: %v", msg.StubParameters)
	assert.Equal(t, "two", msg.Message.Text())

	// PN-addressed again: the known LID is preferred and nothing migrates.
	msg, err = f.decoder.DecodeEnvelope(ctx, envelope(map[string]string{
		"id": "M3", "from": alicePN, "sender_lid": aliceLID,
	}, f.seal(t, text("three"))))
	require.NoError(t, err)
	require.False(t, msg.IsStub(), "stub params: %v", msg.StubParameters)
	assert.Equal(t, "three", msg.Message.Text())
	assert.EqualValues(t, 1, f.bob.migrations.Load())
}

func TestDecodeEnvelope_FirstContactWithLIDHintMigratesNewSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// The very first message is a pkmsg from the PN, already carrying the LID.
	first := f.seal(t, text("hello"))
	require.Equal(t, string(domain.CiphertextPreKey), first.Attrs["type"])
	msg, err := f.decoder.DecodeEnvelope(ctx, envelope(map[string]string{
		"id": "P1", "from": alicePN, "sender_lid": aliceLID,
	}, first))
	require.NoError(t, err)
	require.False(t, msg.IsStub(), "stub params: %v", msg.StubParameters)
	assert.EqualValues(t, 1, f.bob.migrations.Load())

	valid, reason, err := f.bob.ValidateSession(ctx, aliceLID)
	require.NoError(t, err)
	assert.True(t, valid, reason)

	// Later PN-addressed messages are routed to the LID session.
	for _, id := range []string{"P2", "P3"} {
		msg, err = f.decoder.DecodeEnvelope(ctx, envelope(map[string]string{"id": id, "from": alicePN}, f.seal(t, text(id))))
		require.NoError(t, err)
		require.False(t, msg.IsStub(), "%s stub params: %v", id, msg.StubParameters)
		assert.Equal(t, id, msg.Message.Text())
	}
	assert.EqualValues(t, 1, f.bob.migrations.Load())
}

func TestDecodeEnvelope_FailedDecryptDoesNotLearnMapping(t *testing.T) {
	f := newFixture(t)
	msg, err := f.decoder.DecodeEnvelope(context.Background(), envelope(map[string]string{
		"from": alicePN, "sender_lid": aliceLID,
	}, encChild("msg", []byte{0x33, 0x01, 0x02})))
	require.NoError(t, err)
	assert.True(t, msg.IsStub())
	assert.Zero(t, f.bob.migrations.Load())
	_, ok := f.bob.LIDMapping().LIDForPN(alicePN)
	assert.False(t, ok)
}

func TestDecodeEnvelope_StatusWithOnlyParticipantLIDUsesAuthorSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	msg, err := f.decoder.DecodeEnvelope(ctx, envelope(map[string]string{
		"from": "status@broadcast", "participant_lid": aliceLID,
	}, f.seal(t, text("my status"))))
	require.NoError(t, err)
	require.False(t, msg.IsStub(), "stub params: %v", msg.StubParameters)
	assert.Equal(t, "my status", msg.Message.Text())

	valid, _, err := f.bob.ValidateSession(ctx, aliceLID)
	require.NoError(t, err)
	assert.True(t, valid)
	valid, _, err = f.bob.ValidateSession(ctx, "status@broadcast")
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestDecodeEnvelope_SeedsMappingFromBothHints(t *testing.T) {
	f := newFixture(t)
	_, err := f.decoder.DecodeEnvelope(context.Background(), envelope(map[string]string{
		"from": alicePN, "sender_lid": aliceLID, "sender_pn": alicePN,
	}, f.seal(t, text("hi"))))
	require.NoError(t, err)

	lid, ok := f.bob.LIDMapping().LIDForPN(alicePN)
	require.True(t, ok)
	assert.Equal(t, aliceLID, lid)
}

func TestDecodeEnvelope_NoChildrenIsAbsentStub(t *testing.T) {
	f := newFixture(t)
	msg, err := f.decoder.DecodeEnvelope(context.Background(), envelope(map[string]string{"from": alicePN}))
	require.NoError(t, err)
	assert.Equal(t, types.StubCiphertext, msg.StubType)
	assert.Equal(t, []string{types.StubParamNoMessageFound}, msg.StubParameters)
	assert.Nil(t, msg.Message)
}

func TestDecodeEnvelope_ViewOnceWithoutContentIsNotStub(t *testing.T) {
	f := newFixture(t)
	unavailable := domain.Node{Tag: "unavailable", Attrs: map[string]string{"type": "view_once"}}
	msg, err := f.decoder.DecodeEnvelope(context.Background(), envelope(map[string]string{"from": alicePN}, unavailable))
	require.NoError(t, err)
	assert.False(t, msg.IsStub())
	assert.True(t, msg.Key.IsViewOnce)
}

func TestDecodeEnvelope_UnknownKindStubs(t *testing.T) {
	f := newFixture(t)
	msg, err := f.decoder.DecodeEnvelope(context.Background(), envelope(map[string]string{"from": alicePN},
		encChild("frank", []byte{1, 2, 3})))
	require.NoError(t, err)
	assert.Equal(t, types.StubCiphertext, msg.StubType)
	require.Len(t, msg.StubParameters, 1)
	assert.Contains(t, msg.StubParameters[0], "unknown e2e type")
	assert.False(t, msg.SessionRecordError)

	require.NotNil(t, f.hook.LastEntry())
	assert.Equal(t, logrus.ErrorLevel, f.hook.LastEntry().Level)
}

func TestDecodeEnvelope_NoSessionIsSessionRecordError(t *testing.T) {
	f := newFixture(t)
	msg, err := f.decoder.DecodeEnvelope(context.Background(), envelope(map[string]string{"from": "5599@s.whatsapp.net"},
		encChild("msg", []byte{0x33, 0x01, 0x02})))
	require.NoError(t, err)
	assert.Equal(t, types.StubCiphertext, msg.StubType)
	assert.True(t, msg.SessionRecordError)
}

func TestDecodeEnvelope_PlaintextAndSideChannels(t *testing.T) {
	f := newFixture(t)
	cert := (&waproto.VerifiedNameCertificate{
		Details: (&waproto.VerifiedNameDetails{Serial: 7, VerifiedName: "Acme"}).Marshal(),
	}).Marshal()

	msg, err := f.decoder.DecodeEnvelope(context.Background(), envelope(map[string]string{"from": alicePN},
		domain.Node{Tag: "verified_name", Content: cert},
		domain.Node{Tag: "plaintext", Content: text("in the clear").Marshal()},
	))
	require.NoError(t, err)
	assert.False(t, msg.IsStub())
	assert.Equal(t, "Acme", msg.VerifiedBizName)
	assert.Equal(t, "in the clear", msg.Message.Text())
}

func TestDecodeEnvelope_MergesChildrenAndReadsRetryCount(t *testing.T) {
	f := newFixture(t)
	first := f.seal(t, text("first"))
	second := f.seal(t, &waproto.Message{ExtendedTextMessage: &waproto.ExtendedTextMessage{Text: "second"}})
	second.Attrs["count"] = "2"

	msg, err := f.decoder.DecodeEnvelope(context.Background(), envelope(map[string]string{"from": alicePN}, first, second))
	require.NoError(t, err)
	require.False(t, msg.IsStub(), "stub params: %v", msg.StubParameters)
	assert.Equal(t, "first", msg.Message.Conversation)
	assert.Equal(t, "second", msg.Message.ExtendedTextMessage.Text)
	assert.Equal(t, 2, msg.RetryCount)
}

func TestDecodeEnvelope_UnwrapsDeviceSentMessage(t *testing.T) {
	f := newFixture(t)
	wrapped := &waproto.Message{DeviceSentMessage: &waproto.DeviceSentMessage{
		DestinationJID: "5533@s.whatsapp.net",
		Message:        text("sent elsewhere"),
	}}
	msg, err := f.decoder.DecodeEnvelope(context.Background(), envelope(map[string]string{"from": alicePN}, f.seal(t, wrapped)))
	require.NoError(t, err)
	assert.Equal(t, "sent elsewhere", msg.Message.Text())
	assert.Nil(t, msg.Message.DeviceSentMessage)
}

func TestDecodeEnvelope_GroupWithSenderKeyDistribution(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	body, err := waproto.EncodeMessage(text("hello group"))
	require.NoError(t, err)
	out, err := f.alice.EncryptGroupMessage(ctx, domain.GroupEncryptRequest{Group: group, SelfJID: alicePN, Data: body})
	require.NoError(t, err)

	skdm := f.seal(t, &waproto.Message{SenderKeyDistributionMessage: &waproto.SenderKeyDistributionMessage{
		GroupID:                             group,
		AxolotlSenderKeyDistributionMessage: out.DistributionMessage,
	}})
	node := envelope(map[string]string{"from": group, "participant": alicePN}, skdm, encChild("skmsg", out.Ciphertext))

	msg, err := f.decoder.DecodeEnvelope(ctx, node)
	require.NoError(t, err)
	require.False(t, msg.IsStub(), "stub params: %v", msg.StubParameters)
	assert.Equal(t, "hello group", msg.Message.Text())
	assert.Equal(t, alicePN, msg.Key.Participant)
	assert.Equal(t, group, msg.Key.RemoteJID)
}

func TestDecodeEnvelope_GroupWithoutSenderKeyStubs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	body, err := waproto.EncodeMessage(text("lost"))
	require.NoError(t, err)
	out, err := f.alice.EncryptGroupMessage(ctx, domain.GroupEncryptRequest{Group: group, SelfJID: alicePN, Data: body})
	require.NoError(t, err)

	msg, err := f.decoder.DecodeEnvelope(ctx, envelope(map[string]string{"from": group, "participant": alicePN},
		encChild("skmsg", out.Ciphertext)))
	require.NoError(t, err)
	assert.Equal(t, types.StubCiphertext, msg.StubType)
	assert.False(t, msg.SessionRecordError)
}

func TestDecodeEnvelope_Fatal(t *testing.T) {
	f := newFixture(t)
	msg, err := f.decoder.DecodeEnvelope(context.Background(), envelope(map[string]string{"from": group}))
	assert.Nil(t, msg)
	var fe *decode.FatalDecodeError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, types.NackParsingError, fe.Reason)
	assert.Equal(t, logrus.WarnLevel, f.hook.LastEntry().Level)
}

func TestDecodeEnvelope_RetryNotifier(t *testing.T) {
	ctrl := gomock.NewController(t)
	notifier := mocks.NewMockRetryNotifier(ctrl)
	f := newFixture(t, decode.WithRetryNotifier(notifier))
	ctx := context.Background()

	var got domain.RetryHint
	notifier.EXPECT().NotifyRetry(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, h domain.RetryHint) error {
			got = h
			return nil
		}).Times(1)

	child := encChild("msg", []byte{0x33, 0x01})
	child.Attrs["count"] = "1"
	_, err := f.decoder.DecodeEnvelope(ctx, envelope(map[string]string{"id": "R1", "from": "5599@s.whatsapp.net"}, child))
	require.NoError(t, err)

	assert.NotEmpty(t, got.ID)
	assert.Equal(t, "R1", got.Key.ID)
	assert.True(t, got.SessionRecordError)
	assert.Equal(t, 1, got.RetryCount)
	assert.NotEmpty(t, got.Error)

	// Absent content and successful decrypts are not retried.
	_, err = f.decoder.DecodeEnvelope(ctx, envelope(map[string]string{"from": alicePN}))
	require.NoError(t, err)
	_, err = f.decoder.DecodeEnvelope(ctx, envelope(map[string]string{"from": alicePN}, f.seal(t, text("ok"))))
	require.NoError(t, err)
}

func TestDecodeBatch_KeepsInputOrder(t *testing.T) {
	f := newFixture(t, decode.WithConcurrency(2))

	nodes := []domain.Node{
		envelope(map[string]string{"id": "B0", "from": alicePN}, f.seal(t, text("a"))),
		envelope(map[string]string{"id": "B1", "from": group}),
		envelope(map[string]string{"id": "B2", "from": alicePN}),
		envelope(map[string]string{"id": "B3", "from": "1203@newsletter"},
			domain.Node{Tag: "plaintext", Content: text("news").Marshal()}),
	}
	results := f.decoder.DecodeBatch(context.Background(), nodes)
	require.Len(t, results, len(nodes))

	require.NoError(t, results[0].Err)
	assert.Equal(t, "B0", results[0].Message.Key.ID)
	assert.Equal(t, "a", results[0].Message.Message.Text())

	assert.Nil(t, results[1].Message)
	var fe *decode.FatalDecodeError
	assert.ErrorAs(t, results[1].Err, &fe)

	require.NoError(t, results[2].Err)
	assert.Equal(t, "B2", results[2].Message.Key.ID)
	assert.True(t, results[2].Message.IsStub())

	require.NoError(t, results[3].Err)
	assert.Equal(t, "news", results[3].Message.Message.Text())
}

func TestDecodeBatch_KeepsPerSenderOrderAcrossMigration(t *testing.T) {
	for run := 0; run < 20; run++ {
		f := newFixture(t, decode.WithConcurrency(4))
		nodes := []domain.Node{
			envelope(map[string]string{"id": "S0", "from": alicePN, "sender_lid": aliceLID}, f.seal(t, text("s0"))),
			envelope(map[string]string{"id": "N0", "from": "1203@newsletter"},
				domain.Node{Tag: "plaintext", Content: text("news").Marshal()}),
			envelope(map[string]string{"id": "S1", "from": aliceLID}, f.seal(t, text("s1"))),
			envelope(map[string]string{"id": "S2", "from": alicePN}, f.seal(t, text("s2"))),
		}
		results := f.decoder.DecodeBatch(context.Background(), nodes)
		require.Len(t, results, len(nodes))
		for i, want := range []string{"s0", "news", "s1", "s2"} {
			require.NoError(t, results[i].Err)
			msg := results[i].Message
			require.False(t, msg.IsStub(), "run %d, %s stub params: %v", run, msg.Key.ID, msg.StubParameters)
			assert.Equal(t, want, msg.Message.Text())
		}
		assert.EqualValues(t, 1, f.bob.migrations.Load())
	}
}

func TestIsSessionRecordError(t *testing.T) {
	assert.True(t, decode.IsSessionRecordError(signal.ErrNoSession))
	assert.False(t, decode.IsSessionRecordError(signal.ErrPreKeyNotFound))
	assert.False(t, decode.IsSessionRecordError(assert.AnError))
	assert.False(t, decode.IsSessionRecordError(nil))
}
