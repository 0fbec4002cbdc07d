package waproto

import (
	"crypto/rand"
	"errors"
	"fmt"
)

// ErrEmptyPadded is returned when unpadding an empty buffer.
var ErrEmptyPadded = errors.New("unpad: empty input")

// PadRandomMax16 appends 1..16 bytes, each holding the pad length.
func PadRandomMax16(msg []byte) ([]byte, error) {
	var r [1]byte
	if _, err := rand.Read(r[:]); err != nil {
		return nil, err
	}
	n := int(r[0]&0x0f) + 1
	out := make([]byte, len(msg), len(msg)+n)
	copy(out, msg)
	for i := 0; i < n; i++ {
		out = append(out, byte(n))
	}
	return out, nil
}

// UnpadRandomMax16 strips the padding written by PadRandomMax16. Only the
// final byte is inspected.
func UnpadRandomMax16(b []byte) ([]byte, error) {
	if len(b) == 0 {
		return nil, ErrEmptyPadded
	}
	n := int(b[len(b)-1])
	if n > len(b) {
		return nil, fmt.Errorf("unpad: given %d bytes, but pad is %d", len(b), n)
	}
	return b[:len(b)-n], nil
}

// EncodeMessage marshals and pads m for encryption.
func EncodeMessage(m *Message) ([]byte, error) {
	return PadRandomMax16(m.Marshal())
}
