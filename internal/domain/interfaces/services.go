package interfaces

import (
	"context"

	domaintypes "msgcore/internal/domain/types"
)

// DirectoryResolver looks up the phone numbers behind a batch of LIDs.
// Unknown LIDs are simply absent from the result.
type DirectoryResolver interface {
	ResolveLIDs(ctx context.Context, lids []string) ([]domaintypes.LIDMapping, error)
}

// DirectoryFunc adapts a plain function to DirectoryResolver.
type DirectoryFunc func(ctx context.Context, lids []string) ([]domaintypes.LIDMapping, error)

// ResolveLIDs calls f.
func (f DirectoryFunc) ResolveLIDs(ctx context.Context, lids []string) ([]domaintypes.LIDMapping, error) {
	return f(ctx, lids)
}

// LIDMappingStore is the bidirectional LID<->PN cache.
type LIDMappingStore interface {
	ResolveMany(ctx context.Context, lids []string) []domaintypes.LIDMapping
	ResolveOne(ctx context.Context, lid string) (string, bool)
	StoreMany(ctx context.Context, mappings []domaintypes.LIDMapping)
	// LIDForPN answers from the cache only.
	LIDForPN(pn string) (string, bool)
	// SeedPN stores pn->lid only when no entry exists yet.
	SeedPN(ctx context.Context, pn, lid string)
}

// SignalRepository bridges JIDs to the ratchet primitives. It is the only
// writer of session and sender-key state.
type SignalRepository interface {
	AddressOf(jid string) (domaintypes.ProtocolAddress, error)
	DecryptMessage(ctx context.Context, req domaintypes.DecryptRequest) ([]byte, error)
	EncryptMessage(ctx context.Context, req domaintypes.EncryptRequest) (domaintypes.EncryptResult, error)
	DecryptGroupMessage(ctx context.Context, req domaintypes.GroupDecryptRequest) ([]byte, error)
	ProcessSenderKeyDistribution(ctx context.Context, req domaintypes.SenderKeyDistributionRequest) error
	EncryptGroupMessage(ctx context.Context, req domaintypes.GroupEncryptRequest) (domaintypes.GroupEncryptResult, error)
	InjectSession(ctx context.Context, req domaintypes.InjectSessionRequest) error
	MigrateSession(ctx context.Context, fromJID, toJID string) (domaintypes.MigrationResult, error)
	ValidateSession(ctx context.Context, jid string) (bool, string, error)
	DeleteSessions(ctx context.Context, jids []string) error
	LIDMapping() LIDMappingStore
}

// RetryNotifier hands stubbed decrypts to the external retry subsystem.
type RetryNotifier interface {
	NotifyRetry(ctx context.Context, hint domaintypes.RetryHint) error
}

// IdentityService creates and inspects the local credentials.
type IdentityService interface {
	GenerateCredentials(passphrase string) (domaintypes.Credentials, domaintypes.Fingerprint, error)
	LoadCredentials(passphrase string) (domaintypes.Credentials, error)
	Fingerprint(passphrase string) (domaintypes.Fingerprint, error)
}

// PreKeyService generates one-time pre-keys and assembles the local bundle.
type PreKeyService interface {
	GeneratePreKeys(ctx context.Context, passphrase string, count int) ([]domaintypes.PreKey, error)
	Bundle(ctx context.Context, passphrase string) (domaintypes.E2ESession, error)
}
