package store

import (
	"encoding/json"
	"path/filepath"
	"sync"

	"msgcore/internal/domain"
)

const credentialsFilename = "credentials.json.enc"

// CredentialsFileStore persists the local credentials to disk, encrypted
// under a passphrase.
type CredentialsFileStore struct {
	dir string
	mu  sync.Mutex
}

// NewCredentialsFileStore returns a CredentialsFileStore rooted at dir.
func NewCredentialsFileStore(dir string) *CredentialsFileStore {
	return &CredentialsFileStore{dir: dir}
}

// SaveCredentials writes the encrypted credentials to disk.
func (s *CredentialsFileStore) SaveCredentials(passphrase string, creds domain.Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.Marshal(creds)
	if err != nil {
		return err
	}
	N, r, p := scryptParamsDefault()
	ct, err := encrypt(passphrase, raw, N, r, p)
	if err != nil {
		return err
	}
	return writeFile(filepath.Join(s.dir, credentialsFilename), ct, 0o600)
}

// LoadCredentials reads and decrypts the credentials.
func (s *CredentialsFileStore) LoadCredentials(passphrase string) (domain.Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := readFile(filepath.Join(s.dir, credentialsFilename))
	if err != nil {
		return domain.Credentials{}, err
	}
	if b == nil {
		return domain.Credentials{}, ErrNoCredentials
	}
	pt, err := decrypt(passphrase, b)
	if err != nil {
		return domain.Credentials{}, err
	}
	var creds domain.Credentials
	if err := json.Unmarshal(pt, &creds); err != nil {
		return domain.Credentials{}, err
	}
	return creds, nil
}

// Compile-time assertion that CredentialsFileStore implements domain.CredentialsStore.
var _ domain.CredentialsStore = (*CredentialsFileStore)(nil)
