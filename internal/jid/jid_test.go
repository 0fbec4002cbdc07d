package jid_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"msgcore/internal/jid"
)

func TestEncodeParse_RoundTrip(t *testing.T) {
	cases := []struct {
		user   string
		server string
		device uint16
	}{
		{"5511999999999", jid.ServerPN, 0},
		{"5511999999999", jid.ServerPN, 7},
		{"123456789012345", jid.ServerLID, 0},
		{"123456789012345", jid.ServerLID, 42},
		{"987", jid.ServerHosted, 99},
		{"987", jid.ServerHostedLID, 99},
		{"120363000000000000", jid.ServerGroup, 0},
		{"status", jid.ServerBroadcast, 0},
		{"", jid.ServerPN, 0},
	}
	for _, tc := range cases {
		s := jid.Encode(tc.user, tc.server, tc.device, 0)
		got, ok := jid.Parse(s)
		require.True(t, ok, s)
		assert.Equal(t, tc.user, got.User, s)
		assert.Equal(t, tc.server, got.Server, s)
		assert.Equal(t, tc.device, got.Device, s)
		assert.Equal(t, s, got.String())
	}
}

func TestEncode_Format(t *testing.T) {
	assert.Equal(t, "1@s.whatsapp.net", jid.Encode("1", jid.ServerPN, 0, 0))
	assert.Equal(t, "1:5@s.whatsapp.net", jid.Encode("1", jid.ServerPN, 5, 0))
	assert.Equal(t, "1_2:5@s.whatsapp.net", jid.Encode("1", jid.ServerPN, 5, 2))
}

func TestParse_NoSeparator(t *testing.T) {
	_, ok := jid.Parse("no-at-sign")
	assert.False(t, ok)
}

func TestParse_BadDevice(t *testing.T) {
	_, ok := jid.Parse("1:x@s.whatsapp.net")
	assert.False(t, ok)
}

func TestParse_Domains(t *testing.T) {
	cases := map[string]jid.DomainKind{
		"1@s.whatsapp.net":    jid.DomainWhatsApp,
		"1@lid":               jid.DomainLID,
		"1@hosted":            jid.DomainHosted,
		"1@hosted.lid":        jid.DomainHostedLID,
		"1_1@s.whatsapp.net":  jid.DomainNumeric,
		"1_ab@s.whatsapp.net": jid.DomainWhatsApp,
		"1_5@lid":             jid.DomainLID,
	}
	for in, want := range cases {
		got, ok := jid.Parse(in)
		require.True(t, ok, in)
		assert.Equal(t, want, got.Domain, in)
	}

	num := jid.MustParse("1_128:3@s.whatsapp.net")
	assert.Equal(t, uint8(128), num.Agent)
	assert.Equal(t, uint16(3), num.Device)
}

func TestPredicates(t *testing.T) {
	assert.True(t, jid.IsPNUser("1@s.whatsapp.net"))
	assert.False(t, jid.IsPNUser("1@lid"))
	assert.True(t, jid.IsLIDUser("1:2@lid"))
	assert.False(t, jid.IsLIDUser("1@hosted.lid"))
	assert.True(t, jid.IsHostedLIDUser("1@hosted.lid"))
	assert.True(t, jid.IsHostedPNUser("1@hosted"))
	assert.True(t, jid.IsGroup("1-2@g.us"))
	assert.True(t, jid.IsBroadcast("status@broadcast"))
	assert.True(t, jid.IsBroadcast("123@broadcast"))
	assert.True(t, jid.IsStatusBroadcast("status@broadcast"))
	assert.False(t, jid.IsStatusBroadcast("123@broadcast"))
	assert.True(t, jid.IsNewsletter("1@newsletter"))
	assert.True(t, jid.IsMetaAI("867051314767696@bot"))

	assert.True(t, jid.IsBot("867051314767696@bot"))
	assert.True(t, jid.IsBot("13135550002@c.us"))
	assert.True(t, jid.IsBot("13165550042@c.us"))
	assert.False(t, jid.IsBot("13135550002@s.whatsapp.net"))
	assert.False(t, jid.IsBot("5511999999999@c.us"))
}

func TestKind(t *testing.T) {
	assert.Equal(t, jid.ChatDirect, jid.Kind("1@s.whatsapp.net"))
	assert.Equal(t, jid.ChatDirect, jid.Kind("1:3@lid"))
	assert.Equal(t, jid.ChatGroup, jid.Kind("1@g.us"))
	assert.Equal(t, jid.ChatBroadcast, jid.Kind("status@broadcast"))
	assert.Equal(t, jid.ChatNewsletter, jid.Kind("1@newsletter"))
	assert.Equal(t, jid.ChatUnknown, jid.Kind("1@call"))
	assert.Equal(t, jid.ChatUnknown, jid.Kind(""))
}

func TestSameUser(t *testing.T) {
	assert.True(t, jid.SameUser("1:5@s.whatsapp.net", "1:9@lid"))
	assert.False(t, jid.SameUser("1@s.whatsapp.net", "2@s.whatsapp.net"))
	assert.False(t, jid.SameUser("", ""))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "a@s.whatsapp.net", jid.Normalize("a@c.us"))
	assert.Equal(t, "a@s.whatsapp.net", jid.Normalize("a:5@c.us"))
	assert.Equal(t, "a@lid", jid.Normalize("a:5@lid"))
	assert.Equal(t, "", jid.Normalize("garbage"))
}

func TestTransferDevice(t *testing.T) {
	assert.Equal(t, "9:4@lid", jid.TransferDevice("1:4@s.whatsapp.net", "9@lid"))
	assert.Equal(t, "9@lid", jid.TransferDevice("1@s.whatsapp.net", "9:7@lid"))
	assert.Equal(t, "9:4@lid", jid.TransferDevice("1:4@s.whatsapp.net", "9:7@lid"))
}

func TestToAddress(t *testing.T) {
	addr, err := jid.ToAddress("1:4@s.whatsapp.net")
	require.NoError(t, err)
	assert.Equal(t, "1.4", addr.String())

	addr, err = jid.ToAddress("77@lid")
	require.NoError(t, err)
	assert.Equal(t, "77.0", addr.String())

	_, err = jid.ToAddress("nope")
	require.ErrorIs(t, err, jid.ErrInvalidJID)
}
