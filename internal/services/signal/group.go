package signal

import (
	"context"
	"fmt"

	"msgcore/internal/domain"
	"msgcore/internal/protocol/senderkey"
)

func (r *Repository) senderKeyName(group, author string) (domain.SenderKeyName, error) {
	addr, err := r.AddressOf(author)
	if err != nil {
		return domain.SenderKeyName{}, err
	}
	return domain.SenderKeyName{GroupID: group, Sender: addr}, nil
}

// loadSenderKey returns an empty record when none is stored.
func (r *Repository) loadSenderKey(ctx context.Context, name domain.SenderKeyName) (*senderkey.Record, error) {
	id := name.String()
	got, err := r.keys.Get(ctx, domain.KindSenderKey, []string{id})
	if err != nil {
		return nil, fmt.Errorf("load sender key %s: %w", id, err)
	}
	raw, ok := got[id]
	if !ok {
		return &senderkey.Record{}, nil
	}
	rec, err := senderkey.UnmarshalRecord(raw)
	if err != nil {
		return nil, fmt.Errorf("decode sender key %s: %w", id, err)
	}
	return rec, nil
}

func (r *Repository) storeSenderKey(ctx context.Context, name domain.SenderKeyName, rec *senderkey.Record) error {
	if err := r.keys.Set(ctx, domain.KeyData{domain.KindSenderKey: {name.String(): rec.Marshal()}}); err != nil {
		return fmt.Errorf("store sender key %s: %w", name, err)
	}
	return nil
}

// DecryptGroupMessage opens a sender-key message from author in group.
func (r *Repository) DecryptGroupMessage(ctx context.Context, req domain.GroupDecryptRequest) ([]byte, error) {
	name, err := r.senderKeyName(req.Group, req.AuthorJID)
	if err != nil {
		return nil, err
	}
	unlock := r.locks.Lock(name.String())
	defer unlock()

	rec, err := r.loadSenderKey(ctx, name)
	if err != nil {
		return nil, err
	}
	pt, err := senderkey.Decrypt(rec, req.Msg)
	if err != nil {
		return nil, fmt.Errorf("group decrypt %s: %w", name, err)
	}
	if err := r.storeSenderKey(ctx, name, rec); err != nil {
		return nil, err
	}
	return pt, nil
}

// ProcessSenderKeyDistribution installs the author's chain for a group.
func (r *Repository) ProcessSenderKeyDistribution(ctx context.Context, req domain.SenderKeyDistributionRequest) error {
	if req.GroupID == "" {
		return ErrMissingGroupID
	}
	name, err := r.senderKeyName(req.GroupID, req.AuthorJID)
	if err != nil {
		return err
	}
	dist, err := senderkey.ParseDistributionMessage(req.Payload)
	if err != nil {
		return fmt.Errorf("parse distribution for %s: %w", name, err)
	}
	unlock := r.locks.Lock(name.String())
	defer unlock()

	rec, err := r.loadSenderKey(ctx, name)
	if err != nil {
		return err
	}
	senderkey.Process(rec, dist)
	return r.storeSenderKey(ctx, name, rec)
}

// EncryptGroupMessage seals data with our own chain for group and returns
// the distribution message that lets members without state catch up.
func (r *Repository) EncryptGroupMessage(ctx context.Context, req domain.GroupEncryptRequest) (domain.GroupEncryptResult, error) {
	name, err := r.senderKeyName(req.Group, req.SelfJID)
	if err != nil {
		return domain.GroupEncryptResult{}, err
	}
	unlock := r.locks.Lock(name.String())
	defer unlock()

	rec, err := r.loadSenderKey(ctx, name)
	if err != nil {
		return domain.GroupEncryptResult{}, err
	}
	dist, err := senderkey.Create(rec)
	if err != nil {
		return domain.GroupEncryptResult{}, err
	}
	ct, err := senderkey.Encrypt(rec, req.Data)
	if err != nil {
		return domain.GroupEncryptResult{}, err
	}
	if err := r.storeSenderKey(ctx, name, rec); err != nil {
		return domain.GroupEncryptResult{}, err
	}
	return domain.GroupEncryptResult{Ciphertext: ct, DistributionMessage: dist.Marshal()}, nil
}
