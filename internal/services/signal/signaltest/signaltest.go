// Package signaltest builds local accounts with published bundles for tests
// that need two ends of a session.
package signaltest

import (
	"context"
	"encoding/json"
	"strconv"
	"testing"

	"msgcore/internal/crypto"
	"msgcore/internal/domain"
	"msgcore/internal/store"
)

// Account is a local account whose signed and one-time pre-keys are already
// in Keys.
type Account struct {
	Creds  domain.Credentials
	Keys   *store.MemoryKeyStore
	Bundle domain.E2ESession
}

// NewAccount creates credentials and one one-time pre-key (id 1).
func NewAccount(t testing.TB, regID uint32) *Account {
	t.Helper()
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("signaltest: %v", err)
		}
	}

	xPriv, xPub, err := crypto.GenerateX25519()
	must(err)
	edPriv, edPub, err := crypto.GenerateEd25519()
	must(err)
	spkPriv, spkPub, err := crypto.GenerateX25519()
	must(err)
	opkPriv, opkPub, err := crypto.GenerateX25519()
	must(err)

	sig := crypto.SignEd25519(edPriv, spkPub[:])
	creds := domain.Credentials{
		RegistrationID: regID,
		Identity:       domain.Identity{XPub: xPub, XPriv: xPriv, EdPub: edPub, EdPriv: edPriv},
		SignedPreKey:   domain.SignedPreKeyPair{KeyID: 1, Priv: spkPriv, Pub: spkPub, Signature: sig},
		NextPreKeyID:   2,
	}
	opk := domain.OneTimePreKeyPair{KeyID: 1, Priv: opkPriv, Pub: opkPub}
	raw, err := json.Marshal(opk)
	must(err)

	keys := store.NewMemoryKeyStore()
	must(keys.Set(context.Background(), domain.KeyData{
		domain.KindPreKey: {strconv.Itoa(int(opk.KeyID)): raw},
	}))

	return &Account{
		Creds: creds,
		Keys:  keys,
		Bundle: domain.E2ESession{
			RegistrationID: regID,
			IdentityKey:    xPub,
			SigningKey:     &edPub,
			SignedPreKey:   domain.SignedPreKey{KeyID: 1, PublicKey: spkPub, Signature: sig},
			PreKey:         &domain.PreKey{KeyID: opk.KeyID, PublicKey: opkPub},
		},
	}
}
