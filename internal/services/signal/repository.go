package signal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/sirupsen/logrus"

	"msgcore/internal/domain"
	"msgcore/internal/jid"
	"msgcore/internal/metrics"
	"msgcore/internal/protocol/session"
	"msgcore/internal/util/keyedmutex"
)

var (
	// ErrNoSession is returned when no session exists for an address. The
	// text is matched by retry classification.
	ErrNoSession = errors.New("no session record")
	// ErrPreKeyNotFound is returned when a pre-key message names a one-time
	// pre-key that was consumed or never generated.
	ErrPreKeyNotFound = errors.New("key used already or never filled")
	// ErrUnknownCiphertextKind rejects anything but pkmsg and msg.
	ErrUnknownCiphertextKind = errors.New("unknown ciphertext kind")
	// ErrMissingGroupID rejects a distribution message without a group.
	ErrMissingGroupID = errors.New("sender key distribution without group id")
	// ErrNotPeerJID rejects 1:1 operations on chats that are not a PN or LID
	// user, such as status@broadcast.
	ErrNotPeerJID = errors.New("not a PN or LID user")
)

const (
	migratedCacheSize = 10_000
	migratedCacheTTL  = 7 * 24 * time.Hour
)

// Repository implements domain.SignalRepository.
type Repository struct {
	keys    domain.KeyStore
	creds   domain.Credentials
	mapping domain.LIDMappingStore
	locks   keyedmutex.Mutex
	// migrated remembers PN addresses already copied to their LID.
	migrated *expirable.LRU[string, struct{}]
	log      logrus.FieldLogger
	metrics  *metrics.Metrics
}

// Option configures a Repository.
type Option func(*Repository)

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(r *Repository) {
		if l != nil {
			r.log = l
		}
	}
}

// WithMetrics records migration counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Repository) { r.metrics = m }
}

// New returns a repository for the local account described by creds.
func New(keys domain.KeyStore, creds domain.Credentials, mapping domain.LIDMappingStore, opts ...Option) *Repository {
	r := &Repository{
		keys:     keys,
		creds:    creds,
		mapping:  mapping,
		migrated: expirable.NewLRU[string, struct{}](migratedCacheSize, nil, migratedCacheTTL),
		log:      logrus.StandardLogger(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// AddressOf returns the protocol address of a JID, device 0 when absent.
func (r *Repository) AddressOf(j string) (domain.ProtocolAddress, error) {
	return jid.ToAddress(j)
}

// peerAddress is AddressOf restricted to PN and LID users. 1:1 sessions are
// keyed by it.
func (r *Repository) peerAddress(j string) (domain.ProtocolAddress, error) {
	if !jid.IsAnyPN(j) && !jid.IsAnyLID(j) {
		return domain.ProtocolAddress{}, fmt.Errorf("%w: %q", ErrNotPeerJID, j)
	}
	return r.AddressOf(j)
}

// LIDMapping exposes the mapping store this repository resolves with.
func (r *Repository) LIDMapping() domain.LIDMappingStore { return r.mapping }

// loadSession returns nil, nil when no record is stored.
func (r *Repository) loadSession(ctx context.Context, addr domain.ProtocolAddress) (*session.Record, error) {
	id := addr.String()
	got, err := r.keys.Get(ctx, domain.KindSession, []string{id})
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}
	raw, ok := got[id]
	if !ok {
		return nil, nil
	}
	rec, err := session.UnmarshalRecord(raw)
	if err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return rec, nil
}

func (r *Repository) storeSession(ctx context.Context, addr domain.ProtocolAddress, rec *session.Record, extra domain.KeyData) error {
	data := domain.KeyData{domain.KindSession: {addr.String(): rec.Marshal()}}
	for kind, entries := range extra {
		data[kind] = entries
	}
	if err := r.keys.Set(ctx, data); err != nil {
		return fmt.Errorf("store session %s: %w", addr, err)
	}
	return nil
}

// rememberDevice adds addr's device to the user's device list, which bulk
// migration walks.
func (r *Repository) rememberDevice(ctx context.Context, addr domain.ProtocolAddress) error {
	unlock := r.locks.Lock("devices/" + addr.Name)
	defer unlock()

	devices, err := r.deviceList(ctx, addr.Name)
	if err != nil {
		return err
	}
	d := strconv.FormatUint(uint64(addr.DeviceID), 10)
	if slices.Contains(devices, d) {
		return nil
	}
	raw, err := json.Marshal(append(devices, d))
	if err != nil {
		return err
	}
	return r.keys.Set(ctx, domain.KeyData{domain.KindDeviceList: {addr.Name: raw}})
}

func (r *Repository) deviceList(ctx context.Context, user string) ([]string, error) {
	got, err := r.keys.Get(ctx, domain.KindDeviceList, []string{user})
	if err != nil {
		return nil, fmt.Errorf("load device list %s: %w", user, err)
	}
	raw, ok := got[user]
	if !ok {
		return nil, nil
	}
	var devices []string
	if err := json.Unmarshal(raw, &devices); err != nil {
		return nil, fmt.Errorf("decode device list %s: %w", user, err)
	}
	return devices, nil
}

var _ domain.SignalRepository = (*Repository)(nil)
