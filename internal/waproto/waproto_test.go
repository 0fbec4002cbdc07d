package waproto_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"

	"msgcore/internal/waproto"
)

func TestMessage_RoundTripPreservesUnknown(t *testing.T) {
	// field 25 (some unmodelled message) as opaque bytes
	var unknown []byte
	unknown = protowire.AppendTag(unknown, 25, protowire.BytesType)
	unknown = protowire.AppendBytes(unknown, []byte{0x0a, 0x01, 0x41})

	m := &waproto.Message{
		Conversation: "hello",
		SenderKeyDistributionMessage: &waproto.SenderKeyDistributionMessage{
			GroupID:                             "g@g.us",
			AxolotlSenderKeyDistributionMessage: []byte{1, 2, 3},
		},
		Unknown: unknown,
	}
	got, err := waproto.UnmarshalMessage(m.Marshal())
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Text())
	require.NotNil(t, got.SenderKeyDistributionMessage)
	assert.Equal(t, "g@g.us", got.SenderKeyDistributionMessage.GroupID)
	assert.Equal(t, []byte{1, 2, 3}, got.SenderKeyDistributionMessage.AxolotlSenderKeyDistributionMessage)
	assert.Equal(t, unknown, got.Unknown)
	assert.Equal(t, m.Marshal(), got.Marshal())
}

func TestMessage_DeviceSentUnwrap(t *testing.T) {
	inner := &waproto.Message{ExtendedTextMessage: &waproto.ExtendedTextMessage{Text: "from my phone"}}
	outer := &waproto.Message{DeviceSentMessage: &waproto.DeviceSentMessage{
		DestinationJID: "1@s.whatsapp.net",
		Message:        inner,
	}}
	got, err := waproto.UnmarshalMessage(outer.Marshal())
	require.NoError(t, err)
	assert.Equal(t, "from my phone", got.Unwrap().Text())

	plain := &waproto.Message{Conversation: "x"}
	assert.Same(t, plain, plain.Unwrap())
}

func TestMessage_Merge(t *testing.T) {
	a := &waproto.Message{Conversation: "first"}
	a.Merge(&waproto.Message{
		SenderKeyDistributionMessage: &waproto.SenderKeyDistributionMessage{GroupID: "g@g.us"},
	})
	assert.Equal(t, "first", a.Conversation)
	require.NotNil(t, a.SenderKeyDistributionMessage)

	a.Merge(&waproto.Message{Conversation: "second"})
	assert.Equal(t, "second", a.Conversation)
}

func TestUnmarshalMessage_Invalid(t *testing.T) {
	_, err := waproto.UnmarshalMessage([]byte{0x0a, 0x05, 'a'})
	require.ErrorIs(t, err, waproto.ErrInvalidProtobuf)
}

func TestPadding(t *testing.T) {
	msg := []byte("payload")
	for i := 0; i < 64; i++ {
		padded, err := waproto.PadRandomMax16(msg)
		require.NoError(t, err)
		n := len(padded) - len(msg)
		require.True(t, n >= 1 && n <= 16, "pad length %d", n)
		assert.True(t, bytes.Equal(bytes.Repeat([]byte{byte(n)}, n), padded[len(msg):]))

		out, err := waproto.UnpadRandomMax16(padded)
		require.NoError(t, err)
		assert.Equal(t, msg, out)
	}

	_, err := waproto.UnpadRandomMax16(nil)
	require.ErrorIs(t, err, waproto.ErrEmptyPadded)

	_, err = waproto.UnpadRandomMax16([]byte{1, 9})
	require.Error(t, err)
}

func TestVerifiedName(t *testing.T) {
	details := &waproto.VerifiedNameDetails{Serial: 7, Issuer: "smb:wa", VerifiedName: "Acme Ltd"}
	cert := &waproto.VerifiedNameCertificate{Details: details.Marshal(), Signature: []byte{9}}

	name, err := waproto.VerifiedName(cert.Marshal())
	require.NoError(t, err)
	assert.Equal(t, "Acme Ltd", name)

	d, err := waproto.UnmarshalVerifiedNameDetails(details.Marshal())
	require.NoError(t, err)
	assert.Equal(t, uint64(7), d.Serial)
}
