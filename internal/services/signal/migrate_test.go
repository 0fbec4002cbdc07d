package signal_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"msgcore/internal/domain"
	"msgcore/internal/domain/mocks"
	"msgcore/internal/services/lidmapping"
	"msgcore/internal/services/signal"
	"msgcore/internal/services/signal/signaltest"
)

func TestMigrate_NoSessionIsNoop(t *testing.T) {
	r := newRepo(t, signaltest.NewAccount(t, 1))
	ctx := context.Background()

	res, err := r.MigrateSession(ctx, alicePN, aliceLID)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Migrated)

	ok, _, err := r.ValidateSession(ctx, aliceLID)
	require.NoError(t, err)
	assert.False(t, ok, "migration must not create a LID session")
}

func TestMigrate_CopiesAndKeepsPN(t *testing.T) {
	alice, bob, _ := handshake(t)
	ctx := context.Background()

	_, err := decrypt(bob, alicePN, encrypt(t, alice, bobPN, "hello"))
	require.NoError(t, err)

	res, err := bob.MigrateSession(ctx, alicePN, aliceLID)
	require.NoError(t, err)
	assert.Equal(t, domain.MigrationResult{Migrated: 1, Total: 1}, res)

	for _, j := range []string{alicePN, aliceLID} {
		ok, _, err := bob.ValidateSession(ctx, j)
		require.NoError(t, err)
		assert.True(t, ok, j)
	}

	// The LID copy is a working session.
	pt, err := decrypt(bob, aliceLID, encrypt(t, alice, bobPN, "via lid"))
	require.NoError(t, err)
	assert.Equal(t, "via lid", string(pt))

	// Repeating is a skip.
	res, err = bob.MigrateSession(ctx, alicePN, aliceLID)
	require.NoError(t, err)
	assert.Equal(t, domain.MigrationResult{Skipped: 1, Total: 1}, res)
}

func TestMigrate_AllKnownDevices(t *testing.T) {
	bobAcc := signaltest.NewAccount(t, 2)
	bob := newRepo(t, bobAcc)
	ctx := context.Background()

	// Two of alice's devices open sessions with bob.
	for _, dev := range []string{alicePN, "5511:3@s.whatsapp.net"} {
		a := newRepo(t, signaltest.NewAccount(t, 1))
		bundle := bobAcc.Bundle
		bundle.PreKey = nil
		require.NoError(t, a.InjectSession(ctx, domain.InjectSessionRequest{JID: bobPN, Session: bundle}))
		_, err := decrypt(bob, dev, encrypt(t, a, bobPN, "hi"))
		require.NoError(t, err)
	}

	res, err := bob.MigrateSession(ctx, alicePN, aliceLID)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Migrated)
	assert.Equal(t, 2, res.Total)

	ok, _, err := bob.ValidateSession(ctx, "111:3@lid")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMigrate_DoesNotOverwriteLIDSession(t *testing.T) {
	aliceAcc := signaltest.NewAccount(t, 1)
	bobAcc := signaltest.NewAccount(t, 2)
	alice, bob := newRepo(t, aliceAcc), newRepo(t, bobAcc)
	ctx := context.Background()

	require.NoError(t, bob.InjectSession(ctx, domain.InjectSessionRequest{JID: aliceLID, Session: aliceAcc.Bundle}))
	require.NoError(t, alice.InjectSession(ctx, domain.InjectSessionRequest{JID: bobPN, Session: bobAcc.Bundle}))
	_, err := decrypt(bob, alicePN, encrypt(t, alice, bobPN, "hi"))
	require.NoError(t, err)

	before, err := bobAcc.Keys.Get(ctx, domain.KindSession, []string{"111.0"})
	require.NoError(t, err)

	res, err := bob.MigrateSession(ctx, alicePN, aliceLID)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Migrated)

	after, err := bobAcc.Keys.Get(ctx, domain.KindSession, []string{"111.0"})
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestMigrate_OtherShapesAreNoops(t *testing.T) {
	r := newRepo(t, signaltest.NewAccount(t, 1))
	ctx := context.Background()

	res, err := r.MigrateSession(ctx, alicePN, bobPN)
	require.NoError(t, err)
	assert.Equal(t, domain.MigrationResult{}, res)

	res, err = r.MigrateSession(ctx, "222@lid", aliceLID)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Migrated)
}

func TestMigrate_PersistFailureIsReturned(t *testing.T) {
	ctrl := gomock.NewController(t)
	keys := mocks.NewMockKeyStore(ctrl)
	acc := signaltest.NewAccount(t, 2)
	r := signal.New(keys, acc.Creds, lidmapping.New(nil, nil))
	ctx := context.Background()

	keys.EXPECT().Get(gomock.Any(), domain.KindDeviceList, gomock.Any()).Return(map[string][]byte{}, nil)
	keys.EXPECT().Get(gomock.Any(), domain.KindSession, gomock.Any()).
		Return(map[string][]byte{"5511.0": []byte("opaque")}, nil)
	keys.EXPECT().Set(gomock.Any(), gomock.Any()).Return(errors.New("disk full"))

	_, err := r.MigrateSession(ctx, alicePN, aliceLID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}
