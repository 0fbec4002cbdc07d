package session

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"msgcore/internal/domain"
	"msgcore/internal/protocol/wirefmt"
)

// Message types as reported by Encrypt.
const (
	TypeWhisper = 2
	TypePreKey  = 3
)

const version byte = 3<<4 | 3

var (
	ErrBadVersion = errors.New("session: unsupported message version")
	ErrTruncated  = errors.New("session: truncated message")
)

// WhisperMessage is one ratchet message.
type WhisperMessage struct {
	RatchetKey      domain.X25519Public
	Counter         uint32
	PreviousCounter uint32
	Ciphertext      []byte
}

// Header returns the ratchet header carried by the message.
func (m *WhisperMessage) Header() domain.RatchetHeader {
	return domain.RatchetHeader{
		DiffieHellmanPublicKey: m.RatchetKey.Slice(),
		PreviousChainLength:    m.PreviousCounter,
		MessageIndex:           m.Counter,
	}
}

// Marshal encodes the message with its version byte.
func (m *WhisperMessage) Marshal() []byte {
	b := []byte{version}
	b = wirefmt.AppendBytes(b, 1, m.RatchetKey.Slice())
	b = wirefmt.AppendVarint(b, 2, uint64(m.Counter))
	b = wirefmt.AppendVarint(b, 3, uint64(m.PreviousCounter))
	b = wirefmt.AppendBytes(b, 4, m.Ciphertext)
	return b
}

// ParseWhisperMessage decodes a type 2 message.
func ParseWhisperMessage(b []byte) (*WhisperMessage, error) {
	body, err := stripVersion(b)
	if err != nil {
		return nil, err
	}
	m := &WhisperMessage{}
	var keyErr error
	err = wirefmt.Walk(body, func(num protowire.Number, typ protowire.Type, v []byte, _ []byte) error {
		switch num {
		case 1:
			m.RatchetKey, keyErr = domain.X25519PublicFromBytes(v)
		case 2:
			m.Counter = uint32(wirefmt.Varint(v))
		case 3:
			m.PreviousCounter = uint32(wirefmt.Varint(v))
		case 4:
			m.Ciphertext = wirefmt.Clone(v)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if keyErr != nil {
		return nil, fmt.Errorf("session: ratchet key: %w", keyErr)
	}
	if len(m.Ciphertext) == 0 {
		return nil, ErrTruncated
	}
	return m, nil
}

// PreKeyWhisperMessage starts a session on the responder side.
type PreKeyWhisperMessage struct {
	RegistrationID uint32
	// PreKeyID is 0 when no one-time pre-key was used.
	PreKeyID       uint32
	SignedPreKeyID uint32
	BaseKey        domain.X25519Public
	IdentityKey    domain.X25519Public
	Message        *WhisperMessage
}

// Marshal encodes the message with its version byte.
func (m *PreKeyWhisperMessage) Marshal() []byte {
	b := []byte{version}
	b = wirefmt.AppendVarint(b, 1, uint64(m.PreKeyID))
	b = wirefmt.AppendBytes(b, 2, m.BaseKey.Slice())
	b = wirefmt.AppendBytes(b, 3, m.IdentityKey.Slice())
	b = wirefmt.AppendBytes(b, 4, m.Message.Marshal())
	b = wirefmt.AppendVarint(b, 5, uint64(m.RegistrationID))
	b = wirefmt.AppendVarint(b, 6, uint64(m.SignedPreKeyID))
	return b
}

// ParsePreKeyWhisperMessage decodes a type 3 message.
func ParsePreKeyWhisperMessage(b []byte) (*PreKeyWhisperMessage, error) {
	body, err := stripVersion(b)
	if err != nil {
		return nil, err
	}
	m := &PreKeyWhisperMessage{}
	var inner []byte
	var baseErr, idErr error
	err = wirefmt.Walk(body, func(num protowire.Number, typ protowire.Type, v []byte, _ []byte) error {
		switch num {
		case 1:
			m.PreKeyID = uint32(wirefmt.Varint(v))
		case 2:
			m.BaseKey, baseErr = domain.X25519PublicFromBytes(v)
		case 3:
			m.IdentityKey, idErr = domain.X25519PublicFromBytes(v)
		case 4:
			inner = v
		case 5:
			m.RegistrationID = uint32(wirefmt.Varint(v))
		case 6:
			m.SignedPreKeyID = uint32(wirefmt.Varint(v))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := errors.Join(baseErr, idErr); err != nil {
		return nil, fmt.Errorf("session: pre-key message: %w", err)
	}
	if m.Message, err = ParseWhisperMessage(inner); err != nil {
		return nil, err
	}
	return m, nil
}

func stripVersion(b []byte) ([]byte, error) {
	if len(b) == 0 {
		return nil, ErrTruncated
	}
	if b[0] != version {
		return nil, fmt.Errorf("%w: %#x", ErrBadVersion, b[0])
	}
	return b[1:], nil
}
