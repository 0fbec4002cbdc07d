//go:generate mockgen -destination=../mocks/mocks.go -package=mocks msgcore/internal/domain/interfaces DirectoryResolver,KeyStore,RetryNotifier

package interfaces

import (
	"context"

	domaintypes "msgcore/internal/domain/types"
)

// KeyStore is the durable typed key-value store behind the session
// repository and the mapping store.
type KeyStore interface {
	// Get returns the values present for ids; missing ids are absent from
	// the map.
	Get(ctx context.Context, kind domaintypes.KeyKind, ids []string) (map[string][]byte, error)
	// Set writes a partial dataset. A nil value deletes the id.
	Set(ctx context.Context, data domaintypes.KeyData) error
}

// CredentialsStore persists the local identity, sealed by a passphrase.
type CredentialsStore interface {
	SaveCredentials(passphrase string, creds domaintypes.Credentials) error
	LoadCredentials(passphrase string) (domaintypes.Credentials, error)
}
