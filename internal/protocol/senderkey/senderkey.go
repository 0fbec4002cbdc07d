package senderkey

import (
	"crypto/ed25519"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
	"google.golang.org/protobuf/encoding/protowire"

	"msgcore/internal/crypto"
	"msgcore/internal/domain"
	"msgcore/internal/protocol/wirefmt"
	"msgcore/internal/util/memzero"
)

const (
	// MaxStates bounds the chains kept per record.
	MaxStates = 5
	// MaxForwardJump bounds how far ahead a message iteration may be.
	MaxForwardJump = 2000
	maxSkipped     = 2000

	version byte = 3<<4 | 3
	sigSize      = ed25519.SignatureSize
)

var (
	ErrNoSenderKeyState = errors.New("senderkey: no sender key state")
	ErrDuplicateMessage = errors.New("senderkey: message key already used")
	ErrTooFarAhead      = errors.New("senderkey: iteration too far in the future")
	ErrBadSignature     = errors.New("senderkey: invalid signature")
	ErrBadVersion       = errors.New("senderkey: unsupported message version")
)

// State is one sender chain.
type State struct {
	KeyID       uint32
	Iteration   uint32
	ChainKey    []byte
	SigningPub  domain.Ed25519Public
	SigningPriv *domain.Ed25519Private
	// MessageKeys holds seeds for iterations skipped over.
	MessageKeys map[uint32][]byte
}

// Record is the persisted set of chains for one (group, author).
type Record struct {
	States []*State
}

// IsEmpty reports whether the record has no chain yet.
func (r *Record) IsEmpty() bool { return len(r.States) == 0 }

func (r *Record) state(keyID uint32) *State {
	for _, s := range r.States {
		if s.KeyID == keyID {
			return s
		}
	}
	return nil
}

func (r *Record) addState(s *State) {
	out := []*State{s}
	for _, old := range r.States {
		if old.KeyID != s.KeyID {
			out = append(out, old)
		}
	}
	if len(out) > MaxStates {
		out = out[:MaxStates]
	}
	r.States = out
}

// DistributionMessage hands one chain position to group members.
type DistributionMessage struct {
	KeyID      uint32
	Iteration  uint32
	ChainKey   []byte
	SigningKey domain.Ed25519Public
}

// Marshal encodes the distribution message with its version byte.
func (d *DistributionMessage) Marshal() []byte {
	b := []byte{version}
	b = wirefmt.AppendVarint(b, 1, uint64(d.KeyID))
	b = wirefmt.AppendVarint(b, 2, uint64(d.Iteration))
	b = wirefmt.AppendBytes(b, 3, d.ChainKey)
	b = wirefmt.AppendBytes(b, 4, d.SigningKey.Slice())
	return b
}

// ParseDistributionMessage decodes a distribution message.
func ParseDistributionMessage(b []byte) (*DistributionMessage, error) {
	if len(b) == 0 || b[0] != version {
		return nil, ErrBadVersion
	}
	d := &DistributionMessage{}
	var keyErr error
	err := wirefmt.Walk(b[1:], func(num protowire.Number, _ protowire.Type, v []byte, _ []byte) error {
		switch num {
		case 1:
			d.KeyID = uint32(wirefmt.Varint(v))
		case 2:
			d.Iteration = uint32(wirefmt.Varint(v))
		case 3:
			d.ChainKey = wirefmt.Clone(v)
		case 4:
			d.SigningKey, keyErr = domain.Ed25519PublicFromBytes(v)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if keyErr != nil {
		return nil, fmt.Errorf("senderkey: signing key: %w", keyErr)
	}
	if len(d.ChainKey) != 32 {
		return nil, fmt.Errorf("senderkey: chain key: want 32 bytes, got %d", len(d.ChainKey))
	}
	return d, nil
}

// Create returns a distribution message for the record's current chain,
// creating a fresh chain first when the record is empty.
func Create(r *Record) (*DistributionMessage, error) {
	if r.IsEmpty() {
		s, err := newOwnState()
		if err != nil {
			return nil, err
		}
		r.addState(s)
	}
	s := r.States[0]
	return &DistributionMessage{
		KeyID:      s.KeyID,
		Iteration:  s.Iteration,
		ChainKey:   wirefmt.Clone(s.ChainKey),
		SigningKey: s.SigningPub,
	}, nil
}

// Process installs the chain carried by a distribution message.
func Process(r *Record, d *DistributionMessage) {
	r.addState(&State{
		KeyID:       d.KeyID,
		Iteration:   d.Iteration,
		ChainKey:    wirefmt.Clone(d.ChainKey),
		SigningPub:  d.SigningKey,
		MessageKeys: make(map[uint32][]byte),
	})
}

// Encrypt seals plaintext with the record's own chain and signs the result.
func Encrypt(r *Record, plaintext []byte) ([]byte, error) {
	if r.IsEmpty() || r.States[0].SigningPriv == nil {
		return nil, ErrNoSenderKeyState
	}
	s := r.States[0]
	seed, next := step(s.ChainKey)
	key, nonce := messageKey(seed)
	memzero.Zero(seed)

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	ct := aead.Seal(nil, nonce, plaintext, nil)
	memzero.Zero(key)

	b := []byte{version}
	b = wirefmt.AppendVarint(b, 1, uint64(s.KeyID))
	b = protowire.AppendTag(b, 2, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(s.Iteration))
	b = wirefmt.AppendBytes(b, 3, ct)
	b = append(b, crypto.SignEd25519(*s.SigningPriv, b)...)

	s.ChainKey = next
	s.Iteration++
	return b, nil
}

// Decrypt verifies and opens a group message.
func Decrypt(r *Record, msg []byte) ([]byte, error) {
	if len(msg) < 1+sigSize {
		return nil, fmt.Errorf("senderkey: message too short (%d bytes)", len(msg))
	}
	if msg[0] != version {
		return nil, ErrBadVersion
	}
	body, sig := msg[:len(msg)-sigSize], msg[len(msg)-sigSize:]

	var keyID, iteration uint32
	var ct []byte
	err := wirefmt.Walk(body[1:], func(num protowire.Number, _ protowire.Type, v []byte, _ []byte) error {
		switch num {
		case 1:
			keyID = uint32(wirefmt.Varint(v))
		case 2:
			iteration = uint32(wirefmt.Varint(v))
		case 3:
			ct = v
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s := r.state(keyID)
	if s == nil {
		return nil, fmt.Errorf("%w: key id %d", ErrNoSenderKeyState, keyID)
	}
	if !crypto.VerifyEd25519(s.SigningPub, body, sig) {
		return nil, ErrBadSignature
	}
	seed, err := s.seedFor(iteration)
	if err != nil {
		return nil, err
	}
	key, nonce := messageKey(seed)
	memzero.Zero(seed)
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	pt, err := aead.Open(nil, nonce, ct, nil)
	memzero.Zero(key)
	return pt, err
}

// seedFor returns the message seed for iteration, advancing the chain and
// remembering skipped seeds as needed.
func (s *State) seedFor(iteration uint32) ([]byte, error) {
	if iteration < s.Iteration {
		seed, ok := s.MessageKeys[iteration]
		if !ok {
			return nil, fmt.Errorf("%w: iteration %d, chain at %d", ErrDuplicateMessage, iteration, s.Iteration)
		}
		delete(s.MessageKeys, iteration)
		return seed, nil
	}
	if iteration-s.Iteration > MaxForwardJump {
		return nil, ErrTooFarAhead
	}
	if s.MessageKeys == nil {
		s.MessageKeys = make(map[uint32][]byte)
	}
	for s.Iteration < iteration {
		seed, next := step(s.ChainKey)
		if len(s.MessageKeys) >= maxSkipped {
			for k := range s.MessageKeys {
				delete(s.MessageKeys, k)
				break
			}
		}
		s.MessageKeys[s.Iteration] = seed
		s.ChainKey = next
		s.Iteration++
	}
	seed, next := step(s.ChainKey)
	s.ChainKey = next
	s.Iteration++
	return seed, nil
}

func newOwnState() (*State, error) {
	var id [4]byte
	if _, err := rand.Read(id[:]); err != nil {
		return nil, err
	}
	ck := make([]byte, 32)
	if _, err := rand.Read(ck); err != nil {
		return nil, err
	}
	priv, pub, err := crypto.GenerateEd25519()
	if err != nil {
		return nil, err
	}
	return &State{
		KeyID:       binary.BigEndian.Uint32(id[:]) & 0x7fffffff,
		ChainKey:    ck,
		SigningPub:  pub,
		SigningPriv: &priv,
		MessageKeys: make(map[uint32][]byte),
	}, nil
}

func step(ck []byte) (seed, next []byte) {
	return hmacSum(ck, []byte{0x01}), hmacSum(ck, []byte{0x02})
}

func messageKey(seed []byte) (key, nonce []byte) {
	r := hkdf.New(sha256.New, seed, nil, []byte("msgcore-group"))
	key = make([]byte, chacha20poly1305.KeySize)
	nonce = make([]byte, chacha20poly1305.NonceSize)
	_, _ = io.ReadFull(r, key)
	_, _ = io.ReadFull(r, nonce)
	return
}

func hmacSum(key, data []byte) []byte {
	h := hmac.New(sha256.New, key)
	h.Write(data)
	return h.Sum(nil)
}
