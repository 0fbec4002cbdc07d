package senderkey

import (
	"fmt"
	"sort"

	"google.golang.org/protobuf/encoding/protowire"

	"msgcore/internal/domain"
	"msgcore/internal/protocol/wirefmt"
)

// Marshal encodes the record directly to protobuf bytes.
func (r *Record) Marshal() []byte {
	var b []byte
	for _, s := range r.States {
		b = wirefmt.AppendMessage(b, 1, s.marshal())
	}
	return b
}

// UnmarshalRecord decodes a record written by Marshal.
func UnmarshalRecord(b []byte) (*Record, error) {
	r := &Record{}
	err := wirefmt.Walk(b, func(num protowire.Number, _ protowire.Type, v []byte, _ []byte) error {
		if num != 1 {
			return nil
		}
		s, err := unmarshalState(v)
		if err != nil {
			return err
		}
		r.States = append(r.States, s)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("sender key record: %w", err)
	}
	return r, nil
}

func (s *State) marshal() []byte {
	var b []byte
	b = wirefmt.AppendVarint(b, 1, uint64(s.KeyID))
	b = wirefmt.AppendVarint(b, 2, uint64(s.Iteration))
	b = wirefmt.AppendBytes(b, 3, s.ChainKey)
	b = wirefmt.AppendBytes(b, 4, s.SigningPub.Slice())
	if s.SigningPriv != nil {
		b = wirefmt.AppendBytes(b, 5, s.SigningPriv.Slice())
	}
	iters := make([]uint32, 0, len(s.MessageKeys))
	for it := range s.MessageKeys {
		iters = append(iters, it)
	}
	sort.Slice(iters, func(i, j int) bool { return iters[i] < iters[j] })
	for _, it := range iters {
		var e []byte
		e = wirefmt.AppendVarint(e, 1, uint64(it))
		e = wirefmt.AppendBytes(e, 2, s.MessageKeys[it])
		b = wirefmt.AppendMessage(b, 6, e)
	}
	return b
}

func unmarshalState(b []byte) (*State, error) {
	s := &State{MessageKeys: make(map[uint32][]byte)}
	var keyErr error
	err := wirefmt.Walk(b, func(num protowire.Number, _ protowire.Type, v []byte, _ []byte) error {
		switch num {
		case 1:
			s.KeyID = uint32(wirefmt.Varint(v))
		case 2:
			s.Iteration = uint32(wirefmt.Varint(v))
		case 3:
			s.ChainKey = wirefmt.Clone(v)
		case 4:
			s.SigningPub, keyErr = domain.Ed25519PublicFromBytes(v)
		case 5:
			var priv domain.Ed25519Private
			if len(v) != len(priv) {
				return fmt.Errorf("signing private: want %d bytes, got %d", len(priv), len(v))
			}
			copy(priv[:], v)
			s.SigningPriv = &priv
		case 6:
			var it uint32
			var seed []byte
			err := wirefmt.Walk(v, func(num protowire.Number, _ protowire.Type, v []byte, _ []byte) error {
				switch num {
				case 1:
					it = uint32(wirefmt.Varint(v))
				case 2:
					seed = wirefmt.Clone(v)
				}
				return nil
			})
			if err != nil {
				return err
			}
			s.MessageKeys[it] = seed
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s, keyErr
}
