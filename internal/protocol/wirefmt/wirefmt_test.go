package wirefmt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"

	"msgcore/internal/protocol/wirefmt"
)

func TestWalk(t *testing.T) {
	var b []byte
	b = wirefmt.AppendVarint(b, 1, 300)
	b = wirefmt.AppendBytes(b, 2, []byte("abc"))
	b = wirefmt.AppendString(b, 3, "")
	b = wirefmt.AppendMessage(b, 4, nil)

	seen := map[protowire.Number][]byte{}
	err := wirefmt.Walk(b, func(num protowire.Number, typ protowire.Type, v []byte, _ []byte) error {
		seen[num] = v
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(300), wirefmt.Varint(seen[1]))
	assert.Equal(t, []byte("abc"), seen[2])
	assert.NotContains(t, seen, protowire.Number(3))
	assert.Contains(t, seen, protowire.Number(4))
}

func TestWalk_Truncated(t *testing.T) {
	err := wirefmt.Walk([]byte{0x12, 0x09, 'x'}, func(protowire.Number, protowire.Type, []byte, []byte) error {
		return nil
	})
	require.ErrorIs(t, err, wirefmt.ErrMalformed)
}
