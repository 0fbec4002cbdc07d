package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"msgcore/internal/crypto"
	"msgcore/internal/domain"
	"msgcore/internal/domain/types"
)

func TestRequestAliases(t *testing.T) {
	var req domain.DecryptRequest = types.DecryptRequest{JID: "111@lid", Kind: domain.CiphertextOngoing}
	assert.Equal(t, "111@lid", req.JID)

	var _ types.GroupDecryptRequest = domain.GroupDecryptRequest{}
	var _ types.GroupEncryptRequest = domain.GroupEncryptRequest{}
	var _ types.GroupEncryptResult = domain.GroupEncryptResult{}
	var _ types.EncryptRequest = domain.EncryptRequest{}
	var _ types.EncryptResult = domain.EncryptResult{}
	var _ types.InjectSessionRequest = domain.InjectSessionRequest{}
	var _ types.SenderKeyDistributionRequest = domain.SenderKeyDistributionRequest{}
}

func TestKeyConstructors(t *testing.T) {
	_, xPub, err := crypto.GenerateX25519()
	require.NoError(t, err)
	got, err := domain.X25519PublicFromBytes(xPub.Slice())
	require.NoError(t, err)
	assert.Equal(t, xPub, got)

	_, edPub, err := crypto.GenerateEd25519()
	require.NoError(t, err)
	gotEd, err := domain.Ed25519PublicFromBytes(edPub.Slice())
	require.NoError(t, err)
	assert.Equal(t, edPub, gotEd)

	_, err = domain.X25519PublicFromBytes([]byte{1, 2, 3})
	assert.Error(t, err)
}
