package identity_test

import (
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"msgcore/internal/crypto"
	"msgcore/internal/services/identity"
	"msgcore/internal/store"
)

const passphrase = "Correct-Horse-42!"

func newService(t *testing.T) (*identity.Service, *test.Hook) {
	t.Helper()
	logger, hook := test.NewNullLogger()
	return identity.New(store.NewCredentialsFileStore(t.TempDir()), logger), hook
}

func TestGenerateCredentials(t *testing.T) {
	svc, hook := newService(t)

	creds, fp, err := svc.GenerateCredentials(passphrase)
	require.NoError(t, err)
	assert.Equal(t, crypto.Fingerprint(creds.Identity.XPub.Slice()), fp)
	assert.LessOrEqual(t, creds.RegistrationID, uint32(16383))
	assert.EqualValues(t, 1, creds.SignedPreKey.KeyID)
	assert.EqualValues(t, 1, creds.NextPreKeyID)
	assert.True(t, crypto.VerifyEd25519(creds.Identity.EdPub, creds.SignedPreKey.Pub.Slice(), creds.SignedPreKey.Signature))

	// Only the fingerprint is logged.
	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, fp, entry.Data["fingerprint"])
	assert.NotContains(t, entry.Data, "xpriv")

	loaded, err := svc.LoadCredentials(passphrase)
	require.NoError(t, err)
	assert.Equal(t, creds, loaded)

	got, err := svc.Fingerprint(passphrase)
	require.NoError(t, err)
	assert.Equal(t, fp, got)
}

func TestGenerateCredentials_WeakPassphrase(t *testing.T) {
	svc, _ := newService(t)
	for _, p := range []string{"short1!A", "alllowercase-123", "ALLUPPERCASE-123", "NoDigitsHere!!", "NoSymbols12345"} {
		_, _, err := svc.GenerateCredentials(p)
		assert.ErrorIs(t, err, identity.ErrWeakPassphrase, p)
	}
}

func TestLoadCredentials_WrongPassphrase(t *testing.T) {
	svc, _ := newService(t)
	_, _, err := svc.GenerateCredentials(passphrase)
	require.NoError(t, err)

	_, err = svc.LoadCredentials("Another-Pass-99!")
	assert.ErrorIs(t, err, store.ErrWrongPassphrase)
}

func TestFingerprint_NoCredentials(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.Fingerprint(passphrase)
	assert.ErrorIs(t, err, store.ErrNoCredentials)
}
