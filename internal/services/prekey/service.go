package prekey

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"strconv"

	"github.com/sirupsen/logrus"

	"msgcore/internal/crypto"
	"msgcore/internal/domain"
)

// ErrInvalidCount is returned when asked for a non-positive number of keys.
var ErrInvalidCount = errors.New("pre-key count must be positive")

// Service manages one-time pre-key pairs and builds the public bundle.
type Service struct {
	creds domain.CredentialsStore
	keys  domain.KeyStore
	log   logrus.FieldLogger
}

func New(creds domain.CredentialsStore, keys domain.KeyStore, log logrus.FieldLogger) *Service {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{creds: creds, keys: keys, log: log}
}

// GeneratePreKeys creates count one-time pairs starting at the credentials'
// next id, stores them and advances the counter.
func (s *Service) GeneratePreKeys(ctx context.Context, passphrase string, count int) ([]domain.PreKey, error) {
	if count <= 0 {
		return nil, ErrInvalidCount
	}
	creds, err := s.creds.LoadCredentials(passphrase)
	if err != nil {
		return nil, err
	}
	if creds.NextPreKeyID == 0 {
		creds.NextPreKeyID = 1
	}

	rows := make(map[string][]byte, count)
	publics := make([]domain.PreKey, 0, count)
	for i := 0; i < count; i++ {
		priv, pub, err := crypto.GenerateX25519()
		if err != nil {
			return nil, err
		}
		pair := domain.OneTimePreKeyPair{KeyID: creds.NextPreKeyID + uint32(i), Priv: priv, Pub: pub}
		raw, err := json.Marshal(pair)
		if err != nil {
			return nil, err
		}
		rows[strconv.FormatUint(uint64(pair.KeyID), 10)] = raw
		publics = append(publics, domain.PreKey{KeyID: pair.KeyID, PublicKey: pub})
	}
	if err := s.keys.Set(ctx, domain.KeyData{domain.KindPreKey: rows}); err != nil {
		return nil, err
	}

	creds.NextPreKeyID += uint32(count)
	if err := s.creds.SaveCredentials(passphrase, creds); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{
		"count":   count,
		"next_id": creds.NextPreKeyID,
	}).Debug("prekey: generated one-time pre-keys")
	return publics, nil
}

// Bundle builds the public bundle from the signed pre-key and the oldest
// unused one-time pre-key. PreKey is nil when none are left.
func (s *Service) Bundle(ctx context.Context, passphrase string) (domain.E2ESession, error) {
	creds, err := s.creds.LoadCredentials(passphrase)
	if err != nil {
		return domain.E2ESession{}, err
	}
	edPub := creds.Identity.EdPub
	b := domain.E2ESession{
		RegistrationID: creds.RegistrationID,
		IdentityKey:    creds.Identity.XPub,
		SigningKey:     &edPub,
		SignedPreKey: domain.SignedPreKey{
			KeyID:     creds.SignedPreKey.KeyID,
			PublicKey: creds.SignedPreKey.Pub,
			Signature: creds.SignedPreKey.Signature,
		},
	}

	pk, err := s.oldestPreKey(ctx, creds.NextPreKeyID)
	if err != nil {
		return domain.E2ESession{}, err
	}
	b.PreKey = pk
	return b, nil
}

func (s *Service) oldestPreKey(ctx context.Context, next uint32) (*domain.PreKey, error) {
	if next <= 1 {
		return nil, nil
	}
	ids := make([]string, 0, next-1)
	for id := uint32(1); id < next; id++ {
		ids = append(ids, strconv.FormatUint(uint64(id), 10))
	}
	got, err := s.keys.Get(ctx, domain.KindPreKey, ids)
	if err != nil {
		return nil, err
	}
	if len(got) == 0 {
		return nil, nil
	}

	present := make([]uint32, 0, len(got))
	for id := range got {
		n, err := strconv.ParseUint(id, 10, 32)
		if err != nil {
			continue
		}
		present = append(present, uint32(n))
	}
	slices.Sort(present)
	if len(present) == 0 {
		return nil, nil
	}

	var pair domain.OneTimePreKeyPair
	if err := json.Unmarshal(got[strconv.FormatUint(uint64(present[0]), 10)], &pair); err != nil {
		return nil, err
	}
	return &domain.PreKey{KeyID: pair.KeyID, PublicKey: pair.Pub}, nil
}

// Compile-time assertion that Service implements domain.PreKeyService.
var _ domain.PreKeyService = (*Service)(nil)
