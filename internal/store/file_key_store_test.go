package store_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"msgcore/internal/domain"
	"msgcore/internal/store"
)

func TestFileKeyStore_PersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	a, err := store.NewFileKeyStore(dir)
	require.NoError(t, err)
	require.NoError(t, a.Set(ctx, domain.KeyData{domain.KindSession: {"1.0": []byte("rec")}}))

	b, err := store.NewFileKeyStore(dir)
	require.NoError(t, err)
	got, err := b.Get(ctx, domain.KindSession, []string{"1.0"})
	require.NoError(t, err)
	assert.Equal(t, []byte("rec"), got["1.0"])
}

func TestFileKeyStore_FilePerKindWithTightPerms(t *testing.T) {
	dir := t.TempDir()
	fs, err := store.NewFileKeyStore(dir)
	require.NoError(t, err)
	require.NoError(t, fs.Set(context.Background(), domain.KeyData{
		domain.KindSession:   {"1.0": []byte("s")},
		domain.KindSenderKey: {"g::1.0": []byte("k")},
	}))

	for _, name := range []string{"session.json", "sender-key.json"} {
		fi, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err, name)
		assert.Equal(t, os.FileMode(0o600), fi.Mode().Perm(), name)
	}

	// No temp files left behind.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}
