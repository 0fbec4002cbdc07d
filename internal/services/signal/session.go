package signal

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strconv"

	"github.com/sirupsen/logrus"

	"msgcore/internal/domain"
	"msgcore/internal/protocol/session"
)

// DecryptMessage opens a 1:1 ciphertext.
func (r *Repository) DecryptMessage(ctx context.Context, req domain.DecryptRequest) ([]byte, error) {
	addr, err := r.peerAddress(req.JID)
	if err != nil {
		return nil, err
	}
	unlock := r.locks.Lock(addr.String())
	defer unlock()

	switch req.Kind {
	case domain.CiphertextPreKey:
		return r.decryptPreKey(ctx, addr, req.Ciphertext)
	case domain.CiphertextOngoing:
		return r.decryptWhisper(ctx, addr, req.Ciphertext)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownCiphertextKind, req.Kind)
}

func (r *Repository) decryptWhisper(ctx context.Context, addr domain.ProtocolAddress, ct []byte) ([]byte, error) {
	rec, err := r.loadSession(ctx, addr)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("%w for %s", ErrNoSession, addr)
	}
	msg, err := session.ParseWhisperMessage(ct)
	if err != nil {
		return nil, err
	}
	pt, err := session.Decrypt(rec, msg)
	if err != nil {
		return nil, err
	}
	if err := r.storeSession(ctx, addr, rec, nil); err != nil {
		return nil, err
	}
	return pt, nil
}

// decryptPreKey reuses the stored session when the message belongs to it
// (same base key), otherwise answers the X3DH handshake and consumes the
// one-time pre-key.
func (r *Repository) decryptPreKey(ctx context.Context, addr domain.ProtocolAddress, ct []byte) ([]byte, error) {
	msg, err := session.ParsePreKeyWhisperMessage(ct)
	if err != nil {
		return nil, err
	}
	rec, err := r.loadSession(ctx, addr)
	if err != nil {
		return nil, err
	}
	if rec != nil && rec.SelectBaseKey(msg.BaseKey) {
		pt, err := session.Decrypt(rec, msg.Message)
		if err != nil {
			return nil, err
		}
		return pt, r.storeSession(ctx, addr, rec, nil)
	}

	var (
		opk   *domain.OneTimePreKeyPair
		extra domain.KeyData
	)
	if msg.PreKeyID != 0 {
		opk, err = r.loadPreKey(ctx, msg.PreKeyID)
		if err != nil {
			return nil, err
		}
		extra = domain.KeyData{domain.KindPreKey: {strconv.FormatUint(uint64(msg.PreKeyID), 10): nil}}
	}
	var opkPriv *domain.X25519Private
	if opk != nil {
		opkPriv = &opk.Priv
	}
	fresh, err := session.Respond(r.creds, opkPriv, msg)
	if err != nil {
		return nil, err
	}
	pt, err := session.Decrypt(fresh, msg.Message)
	if err != nil {
		return nil, err
	}
	fresh.Supersede(rec)
	if err := r.storeSession(ctx, addr, fresh, extra); err != nil {
		return nil, err
	}
	if err := r.rememberDevice(ctx, addr); err != nil {
		r.log.WithError(err).WithField("address", addr.String()).Warn("signal: device list update failed")
	}
	r.log.WithFields(logrus.Fields{
		"address":    addr.String(),
		"pre_key_id": msg.PreKeyID,
	}).Debug("signal: session established from pre-key message")
	return pt, nil
}

func (r *Repository) loadPreKey(ctx context.Context, id uint32) (*domain.OneTimePreKeyPair, error) {
	key := strconv.FormatUint(uint64(id), 10)
	got, err := r.keys.Get(ctx, domain.KindPreKey, []string{key})
	if err != nil {
		return nil, fmt.Errorf("load pre-key %d: %w", id, err)
	}
	raw, ok := got[key]
	if !ok {
		return nil, fmt.Errorf("%w: pre-key %d", ErrPreKeyNotFound, id)
	}
	var opk domain.OneTimePreKeyPair
	if err := json.Unmarshal(raw, &opk); err != nil {
		return nil, fmt.Errorf("decode pre-key %d: %w", id, err)
	}
	return &opk, nil
}

// EncryptMessage seals data for an existing session. While the peer has not
// answered yet the result is a pre-key message.
func (r *Repository) EncryptMessage(ctx context.Context, req domain.EncryptRequest) (domain.EncryptResult, error) {
	addr, err := r.peerAddress(req.JID)
	if err != nil {
		return domain.EncryptResult{}, err
	}
	unlock := r.locks.Lock(addr.String())
	defer unlock()

	rec, err := r.loadSession(ctx, addr)
	if err != nil {
		return domain.EncryptResult{}, err
	}
	if rec == nil {
		return domain.EncryptResult{}, fmt.Errorf("%w for %s", ErrNoSession, addr)
	}
	typ, ct, err := session.Encrypt(rec, req.Data)
	if err != nil {
		return domain.EncryptResult{}, err
	}
	if err := r.storeSession(ctx, addr, rec, nil); err != nil {
		return domain.EncryptResult{}, err
	}
	kind := domain.CiphertextOngoing
	if typ == session.TypePreKey {
		kind = domain.CiphertextPreKey
	}
	return domain.EncryptResult{Kind: kind, Ciphertext: ct}, nil
}

// InjectSession starts an outgoing session from the peer's bundle. A stored
// session is archived behind it.
func (r *Repository) InjectSession(ctx context.Context, req domain.InjectSessionRequest) error {
	addr, err := r.peerAddress(req.JID)
	if err != nil {
		return err
	}
	unlock := r.locks.Lock(addr.String())
	defer unlock()

	rec, err := session.Initiate(r.creds, req.Session)
	if err != nil {
		return fmt.Errorf("inject session %s: %w", addr, err)
	}
	old, err := r.loadSession(ctx, addr)
	if err != nil {
		return err
	}
	rec.Supersede(old)
	if err := r.storeSession(ctx, addr, rec, nil); err != nil {
		return err
	}
	return r.rememberDevice(ctx, addr)
}

// ValidateSession reports whether a usable session exists for j, and why
// not otherwise.
func (r *Repository) ValidateSession(ctx context.Context, j string) (bool, string, error) {
	addr, err := r.AddressOf(j)
	if err != nil {
		return false, "", err
	}
	id := addr.String()
	got, err := r.keys.Get(ctx, domain.KindSession, []string{id})
	if err != nil {
		return false, "", err
	}
	raw, ok := got[id]
	if !ok {
		return false, "no session", nil
	}
	if _, err := session.UnmarshalRecord(raw); err != nil {
		return false, "corrupt session: " + err.Error(), nil
	}
	return true, "", nil
}

// DeleteSessions removes the sessions of every JID in one write.
func (r *Repository) DeleteSessions(ctx context.Context, jids []string) error {
	if len(jids) == 0 {
		return nil
	}
	writes := make(map[string][]byte, len(jids))
	for _, j := range jids {
		addr, err := r.AddressOf(j)
		if err != nil {
			return err
		}
		writes[addr.String()] = nil
	}
	// Sorted lock order keeps concurrent bulk deletes from deadlocking.
	ids := slices.Sorted(maps.Keys(writes))
	for _, id := range ids {
		unlock := r.locks.Lock(id)
		defer unlock()
		r.migrated.Remove(id)
	}
	if err := r.keys.Set(ctx, domain.KeyData{domain.KindSession: writes}); err != nil {
		return fmt.Errorf("delete sessions: %w", err)
	}
	return nil
}
