package session

import (
	"bytes"
	"fmt"
	"maps"
	"slices"
	"sort"

	"google.golang.org/protobuf/encoding/protowire"

	"msgcore/internal/domain"
	"msgcore/internal/protocol/wirefmt"
)

// PendingPreKey is kept by the initiator until the responder answers; while
// set, outgoing messages are wrapped as PreKeyWhisperMessage.
type PendingPreKey struct {
	PreKeyID       uint32
	SignedPreKeyID uint32
	BaseKey        domain.X25519Public
}

// MaxPreviousStates bounds the archived sessions kept per record.
const MaxPreviousStates = 40

// Record is the persisted state of one pairwise session: the current state
// in its own fields plus archived states, newest first.
type Record struct {
	LocalIdentity        domain.X25519Public
	RemoteIdentity       domain.X25519Public
	LocalRegistrationID  uint32
	RemoteRegistrationID uint32
	// BaseKey is the initiator's X3DH base key. A repeated pre-key message
	// with the same base key belongs to this session.
	BaseKey domain.X25519Public
	Ratchet domain.RatchetState
	Pending *PendingPreKey

	// Previous holds superseded states. Their own Previous is always empty.
	Previous []*Record
}

// SameBaseKey reports whether the current state was built from base.
func (r *Record) SameBaseKey(base domain.X25519Public) bool {
	return bytes.Equal(r.BaseKey[:], base[:])
}

// SelectBaseKey makes the state built from base current, promoting an
// archived one if needed. It reports false when no state matches.
func (r *Record) SelectBaseKey(base domain.X25519Public) bool {
	if r.SameBaseKey(base) {
		return true
	}
	for i, prev := range r.Previous {
		if prev.SameBaseKey(base) {
			r.promote(i)
			return true
		}
	}
	return false
}

// Supersede archives old's states behind r, which becomes current.
func (r *Record) Supersede(old *Record) {
	if old == nil {
		return
	}
	prev := append([]*Record{old.detached()}, old.Previous...)
	if len(prev) > MaxPreviousStates {
		prev = prev[:MaxPreviousStates]
	}
	r.Previous = prev
}

// promote swaps archived state i with the current one.
func (r *Record) promote(i int) {
	next := *r.Previous[i]
	rest := slices.Delete(slices.Clone(r.Previous), i, i+1)
	next.Supersede(&Record{
		LocalIdentity:        r.LocalIdentity,
		RemoteIdentity:       r.RemoteIdentity,
		LocalRegistrationID:  r.LocalRegistrationID,
		RemoteRegistrationID: r.RemoteRegistrationID,
		BaseKey:              r.BaseKey,
		Ratchet:              r.Ratchet,
		Pending:              r.Pending,
		Previous:             rest,
	})
	*r = next
}

func (r *Record) detached() *Record {
	c := *r
	c.Previous = nil
	return &c
}

func cloneRatchet(st domain.RatchetState) domain.RatchetState {
	c := st
	c.RootKey = bytes.Clone(st.RootKey)
	c.SendChainKey = bytes.Clone(st.SendChainKey)
	c.ReceiveChainKey = bytes.Clone(st.ReceiveChainKey)
	c.SkippedKeys = maps.Clone(st.SkippedKeys)
	for k, v := range c.SkippedKeys {
		c.SkippedKeys[k] = bytes.Clone(v)
	}
	return c
}

// Marshal encodes the record.
func (r *Record) Marshal() []byte {
	var b []byte
	b = wirefmt.AppendBytes(b, 1, r.LocalIdentity.Slice())
	b = wirefmt.AppendBytes(b, 2, r.RemoteIdentity.Slice())
	b = wirefmt.AppendVarint(b, 3, uint64(r.LocalRegistrationID))
	b = wirefmt.AppendVarint(b, 4, uint64(r.RemoteRegistrationID))
	b = wirefmt.AppendBytes(b, 5, r.BaseKey.Slice())
	b = wirefmt.AppendMessage(b, 6, marshalRatchet(&r.Ratchet))
	if r.Pending != nil {
		var p []byte
		p = wirefmt.AppendVarint(p, 1, uint64(r.Pending.PreKeyID))
		p = wirefmt.AppendVarint(p, 2, uint64(r.Pending.SignedPreKeyID))
		p = wirefmt.AppendBytes(p, 3, r.Pending.BaseKey.Slice())
		b = wirefmt.AppendMessage(b, 7, p)
	}
	for _, prev := range r.Previous {
		b = wirefmt.AppendMessage(b, 8, prev.detached().Marshal())
	}
	return b
}

// UnmarshalRecord decodes a record written by Marshal.
func UnmarshalRecord(b []byte) (*Record, error) {
	r := &Record{}
	var errs []error
	key := func(dst *domain.X25519Public, v []byte) {
		k, err := domain.X25519PublicFromBytes(v)
		if err != nil {
			errs = append(errs, err)
			return
		}
		*dst = k
	}
	err := wirefmt.Walk(b, func(num protowire.Number, typ protowire.Type, v []byte, _ []byte) error {
		switch num {
		case 1:
			key(&r.LocalIdentity, v)
		case 2:
			key(&r.RemoteIdentity, v)
		case 3:
			r.LocalRegistrationID = uint32(wirefmt.Varint(v))
		case 4:
			r.RemoteRegistrationID = uint32(wirefmt.Varint(v))
		case 5:
			key(&r.BaseKey, v)
		case 6:
			st, err := unmarshalRatchet(v)
			if err != nil {
				return err
			}
			r.Ratchet = st
		case 7:
			p := &PendingPreKey{}
			err := wirefmt.Walk(v, func(num protowire.Number, _ protowire.Type, v []byte, _ []byte) error {
				switch num {
				case 1:
					p.PreKeyID = uint32(wirefmt.Varint(v))
				case 2:
					p.SignedPreKeyID = uint32(wirefmt.Varint(v))
				case 3:
					key(&p.BaseKey, v)
				}
				return nil
			})
			if err != nil {
				return err
			}
			r.Pending = p
		case 8:
			prev, err := UnmarshalRecord(v)
			if err != nil {
				return err
			}
			r.Previous = append(r.Previous, prev)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("session record: %w", err)
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("session record: %w", errs[0])
	}
	return r, nil
}

func marshalRatchet(st *domain.RatchetState) []byte {
	var b []byte
	b = wirefmt.AppendBytes(b, 1, st.RootKey)
	b = wirefmt.AppendBytes(b, 2, st.DiffieHellmanPrivate.Slice())
	b = wirefmt.AppendBytes(b, 3, st.DiffieHellmanPublic.Slice())
	b = wirefmt.AppendBytes(b, 4, st.PeerDiffieHellmanPublic.Slice())
	b = wirefmt.AppendBytes(b, 5, st.SendChainKey)
	b = wirefmt.AppendBytes(b, 6, st.ReceiveChainKey)
	b = wirefmt.AppendVarint(b, 7, uint64(st.SendMessageIndex))
	b = wirefmt.AppendVarint(b, 8, uint64(st.ReceiveMessageIndex))
	b = wirefmt.AppendVarint(b, 9, uint64(st.PreviousChainLength))

	// Sorted for a deterministic encoding.
	ids := make([]string, 0, len(st.SkippedKeys))
	for id := range st.SkippedKeys {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		var e []byte
		e = wirefmt.AppendBytes(e, 1, []byte(id))
		e = wirefmt.AppendBytes(e, 2, st.SkippedKeys[id])
		b = wirefmt.AppendMessage(b, 10, e)
	}
	return b
}

func unmarshalRatchet(b []byte) (domain.RatchetState, error) {
	st := domain.RatchetState{SkippedKeys: make(map[string][]byte)}
	err := wirefmt.Walk(b, func(num protowire.Number, typ protowire.Type, v []byte, _ []byte) error {
		switch num {
		case 1:
			st.RootKey = wirefmt.Clone(v)
		case 2:
			copy(st.DiffieHellmanPrivate[:], v)
		case 3:
			copy(st.DiffieHellmanPublic[:], v)
		case 4:
			copy(st.PeerDiffieHellmanPublic[:], v)
		case 5:
			st.SendChainKey = wirefmt.Clone(v)
		case 6:
			st.ReceiveChainKey = wirefmt.Clone(v)
		case 7:
			st.SendMessageIndex = uint32(wirefmt.Varint(v))
		case 8:
			st.ReceiveMessageIndex = uint32(wirefmt.Varint(v))
		case 9:
			st.PreviousChainLength = uint32(wirefmt.Varint(v))
		case 10:
			var id string
			var mk []byte
			err := wirefmt.Walk(v, func(num protowire.Number, _ protowire.Type, v []byte, _ []byte) error {
				switch num {
				case 1:
					id = string(v)
				case 2:
					mk = wirefmt.Clone(v)
				}
				return nil
			})
			if err != nil {
				return err
			}
			st.SkippedKeys[id] = mk
		}
		return nil
	})
	return st, err
}
