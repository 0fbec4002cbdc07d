package session

import (
	"errors"
	"fmt"

	"msgcore/internal/domain"
	"msgcore/internal/protocol/ratchet"
	"msgcore/internal/protocol/x3dh"
)

var (
	// ErrSignedPreKeyMismatch means the message names a signed pre-key we no
	// longer hold.
	ErrSignedPreKeyMismatch = errors.New("session: unknown signed pre-key")
	// ErrUntrustedIdentity means a pre-key message presented a different
	// identity than the session it matched.
	ErrUntrustedIdentity = errors.New("session: identity key changed")
)

// Initiate builds an outgoing session from the peer's bundle. The returned
// record stays pending until the peer replies.
func Initiate(local domain.Credentials, bundle domain.E2ESession) (*Record, error) {
	root, _, baseKey, err := x3dh.InitiatorRoot(local.Identity, bundle)
	if err != nil {
		return nil, err
	}
	st, err := ratchet.InitAsInitiator(root, bundle.SignedPreKey.PublicKey)
	if err != nil {
		return nil, err
	}
	pending := &PendingPreKey{SignedPreKeyID: bundle.SignedPreKey.KeyID, BaseKey: baseKey}
	if bundle.PreKey != nil {
		pending.PreKeyID = bundle.PreKey.KeyID
	}
	return &Record{
		LocalIdentity:        local.Identity.XPub,
		RemoteIdentity:       bundle.IdentityKey,
		LocalRegistrationID:  local.RegistrationID,
		RemoteRegistrationID: bundle.RegistrationID,
		BaseKey:              baseKey,
		Ratchet:              st,
		Pending:              pending,
	}, nil
}

// Respond builds the responder side of a session from an incoming pre-key
// message. opkPriv is the consumed one-time pre-key, nil when none was used.
func Respond(local domain.Credentials, opkPriv *domain.X25519Private, msg *PreKeyWhisperMessage) (*Record, error) {
	if msg.SignedPreKeyID != local.SignedPreKey.KeyID {
		return nil, fmt.Errorf("%w: %d", ErrSignedPreKeyMismatch, msg.SignedPreKeyID)
	}
	root, err := x3dh.ResponderRoot(local.Identity, local.SignedPreKey.Priv, opkPriv, msg.IdentityKey, msg.BaseKey)
	if err != nil {
		return nil, err
	}
	st, err := ratchet.InitAsResponder(root, local.SignedPreKey.Priv, msg.Message.RatchetKey)
	if err != nil {
		return nil, err
	}
	return &Record{
		LocalIdentity:        local.Identity.XPub,
		RemoteIdentity:       msg.IdentityKey,
		LocalRegistrationID:  local.RegistrationID,
		RemoteRegistrationID: msg.RegistrationID,
		BaseKey:              msg.BaseKey,
		Ratchet:              st,
	}, nil
}

// Encrypt seals plaintext and returns the message type (2 or 3) and its
// serialized form.
func Encrypt(rec *Record, plaintext []byte) (int, []byte, error) {
	h, ct, err := ratchet.Encrypt(&rec.Ratchet, rec.associatedData(true), plaintext)
	if err != nil {
		return 0, nil, err
	}
	wm := &WhisperMessage{
		Counter:         h.MessageIndex,
		PreviousCounter: h.PreviousChainLength,
		Ciphertext:      ct,
	}
	copy(wm.RatchetKey[:], h.DiffieHellmanPublicKey)
	if rec.Pending == nil {
		return TypeWhisper, wm.Marshal(), nil
	}
	pk := &PreKeyWhisperMessage{
		RegistrationID: rec.LocalRegistrationID,
		PreKeyID:       rec.Pending.PreKeyID,
		SignedPreKeyID: rec.Pending.SignedPreKeyID,
		BaseKey:        rec.Pending.BaseKey,
		IdentityKey:    rec.LocalIdentity,
		Message:        wm,
	}
	return TypePreKey, pk.Marshal(), nil
}

// Decrypt opens a WhisperMessage with the current state, then with each
// archived one. An archived state that opens it becomes current. A
// successful decrypt clears the pending pre-key: the peer has a session
// with us. rec is unchanged on failure.
func Decrypt(rec *Record, msg *WhisperMessage) ([]byte, error) {
	pt, err := decryptState(rec, msg)
	if err == nil {
		return pt, nil
	}
	for i, prev := range rec.Previous {
		if pt, perr := decryptState(prev, msg); perr == nil {
			rec.promote(i)
			return pt, nil
		}
	}
	return nil, err
}

func decryptState(st *Record, msg *WhisperMessage) ([]byte, error) {
	next := cloneRatchet(st.Ratchet)
	pt, err := ratchet.Decrypt(&next, st.associatedData(false), msg.Header(), msg.Ciphertext)
	if err != nil {
		return nil, err
	}
	st.Ratchet = next
	st.Pending = nil
	return pt, nil
}

// CheckIdentity rejects a pre-key message whose identity differs from the
// record's peer.
func (r *Record) CheckIdentity(msg *PreKeyWhisperMessage) error {
	if r.RemoteIdentity != msg.IdentityKey {
		return ErrUntrustedIdentity
	}
	return nil
}

// associatedData binds both identities, sender first.
func (r *Record) associatedData(sending bool) []byte {
	ad := make([]byte, 0, 64)
	if sending {
		ad = append(ad, r.LocalIdentity[:]...)
		return append(ad, r.RemoteIdentity[:]...)
	}
	ad = append(ad, r.RemoteIdentity[:]...)
	return append(ad, r.LocalIdentity[:]...)
}
