package lidmapping

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"msgcore/internal/domain"
	"msgcore/internal/jid"
	"msgcore/internal/metrics"
)

const (
	// DefaultCacheSize bounds the number of user-level cache entries.
	DefaultCacheSize = 10_000
	// DefaultCacheTTL matches the directory's own retention of correlations.
	DefaultCacheTTL = 3 * 24 * time.Hour
	// DefaultDirectoryTimeout bounds one directory round trip.
	DefaultDirectoryTimeout = 5 * time.Second

	// hostedDevice is the device id reserved for hosted accounts.
	hostedDevice = 99

	reverseSuffix = "_reverse"
)

// Store is the LID mapping store. It is safe for concurrent use.
type Store struct {
	cache     *expirable.LRU[string, string]
	keys      domain.KeyStore
	directory domain.DirectoryResolver
	timeout   time.Duration
	log       logrus.FieldLogger
	metrics   *metrics.Metrics
	lookups   singleflight.Group

	size int
	ttl  time.Duration
}

// Option configures a Store.
type Option func(*Store)

// WithCache overrides the cache bounds.
func WithCache(size int, ttl time.Duration) Option {
	return func(s *Store) {
		if size > 0 {
			s.size = size
		}
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithDirectoryTimeout overrides the per-call directory timeout.
func WithDirectoryTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// WithMetrics records cache and directory counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

// New builds a Store. directory may be nil, in which case misses stay
// unresolved.
func New(keys domain.KeyStore, directory domain.DirectoryResolver, opts ...Option) *Store {
	s := &Store{
		keys:      keys,
		directory: directory,
		timeout:   DefaultDirectoryTimeout,
		log:       logrus.StandardLogger(),
		size:      DefaultCacheSize,
		ttl:       DefaultCacheTTL,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.cache = expirable.NewLRU[string, string](s.size, nil, s.ttl)
	return s
}

func lidKey(user string) string { return "lid:" + user }
func pnKey(user string) string  { return "pn:" + user }

// ResolveMany returns the PN for every LID it can resolve. Cache hits are
// answered directly; all misses go to the directory in a single call.
// Directory failures are logged and the affected LIDs are left out.
func (s *Store) ResolveMany(ctx context.Context, lids []string) []domain.LIDMapping {
	out := make([]domain.LIDMapping, 0, len(lids))
	var misses []string
	for _, lid := range lids {
		if !jid.IsAnyLID(lid) {
			s.log.WithField("lid", lid).Debug("lidmapping: skipping non-LID input")
			continue
		}
		if pn, ok := s.cachedPN(lid); ok {
			out = append(out, domain.LIDMapping{LID: lid, PN: pn})
			continue
		}
		misses = append(misses, lid)
	}
	if len(misses) == 0 {
		return out
	}
	return append(out, s.lookup(ctx, misses)...)
}

// ResolveOne returns the PN for lid. Concurrent misses for the same user
// share one directory call.
func (s *Store) ResolveOne(ctx context.Context, lid string) (string, bool) {
	if !jid.IsAnyLID(lid) {
		return "", false
	}
	if pn, ok := s.cachedPN(lid); ok {
		return pn, true
	}
	j, ok := jid.Parse(lid)
	if !ok {
		return "", false
	}
	v, _, _ := s.lookups.Do(j.User, func() (any, error) {
		found := s.lookup(ctx, []string{jid.Encode(j.User, j.Server, 0, 0)})
		if len(found) == 0 {
			return "", nil
		}
		return jid.User(found[0].PN), nil
	})
	pnUser, _ := v.(string)
	if pnUser == "" {
		return "", false
	}
	return pnFor(j, pnUser), true
}

func (s *Store) cachedPN(lid string) (string, bool) {
	j, ok := jid.Parse(lid)
	if !ok {
		return "", false
	}
	pnUser, hit := s.cache.Get(lidKey(j.User))
	s.metrics.ObserveMappingLookup(hit)
	if !hit {
		return "", false
	}
	return pnFor(j, pnUser), true
}

// lookup queries the directory for misses and caches what comes back.
func (s *Store) lookup(ctx context.Context, lids []string) []domain.LIDMapping {
	if s.directory == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	found, err := s.directory.ResolveLIDs(ctx, lids)
	s.metrics.ObserveDirectory(err)
	if err != nil {
		s.log.WithError(err).WithField("count", len(lids)).Warn("lidmapping: directory lookup failed")
		return nil
	}

	byUser := make(map[string]string, len(found))
	valid := make([]domain.LIDMapping, 0, len(found))
	for _, m := range found {
		m, ok := orient(m)
		if !ok {
			continue
		}
		byUser[jid.User(m.LID)] = jid.User(m.PN)
		valid = append(valid, m)
	}
	s.StoreMany(ctx, valid)

	out := make([]domain.LIDMapping, 0, len(lids))
	for _, lid := range lids {
		j, ok := jid.Parse(lid)
		if !ok {
			continue
		}
		if pnUser, ok := byUser[j.User]; ok {
			out = append(out, domain.LIDMapping{LID: lid, PN: pnFor(j, pnUser)})
		}
	}
	return out
}

// StoreMany caches every valid pair and persists the new ones. Swapped pairs
// are accepted. Persistence failures are logged, never returned.
func (s *Store) StoreMany(ctx context.Context, mappings []domain.LIDMapping) {
	writes := map[string][]byte{}
	for _, m := range mappings {
		m, ok := orient(m)
		if !ok {
			s.log.WithFields(logrus.Fields{"lid": m.LID, "pn": m.PN}).Warn("lidmapping: invalid pair")
			continue
		}
		lidUser, pnUser := jid.User(m.LID), jid.User(m.PN)
		if lidUser == "" || pnUser == "" {
			continue
		}
		if existing, ok := s.cache.Peek(pnKey(pnUser)); ok && existing == lidUser {
			continue
		}
		s.cache.Add(pnKey(pnUser), lidUser)
		s.cache.Add(lidKey(lidUser), pnUser)
		writes[pnUser] = []byte(lidUser)
		writes[lidUser+reverseSuffix] = []byte(pnUser)
	}
	if len(writes) == 0 || s.keys == nil {
		return
	}
	if err := s.keys.Set(ctx, domain.KeyData{domain.KindLIDMapping: writes}); err != nil {
		s.log.WithError(err).WithField("count", len(writes)/2).Warn("lidmapping: persist failed")
	}
}

// LIDForPN answers from the cache only. The PN's device is kept; hosted PNs
// map to hosted LIDs.
func (s *Store) LIDForPN(pn string) (string, bool) {
	if !jid.IsAnyPN(pn) {
		return "", false
	}
	j, ok := jid.Parse(pn)
	if !ok {
		return "", false
	}
	lidUser, hit := s.cache.Get(pnKey(j.User))
	s.metrics.ObserveMappingLookup(hit)
	if !hit {
		return "", false
	}
	server := jid.ServerLID
	if j.Domain == jid.DomainHosted || j.Device == hostedDevice {
		server = jid.ServerHostedLID
	}
	return jid.Encode(lidUser, server, j.Device, 0), true
}

// SeedPN stores pn->lid unless the PN already has a mapping.
func (s *Store) SeedPN(ctx context.Context, pn, lid string) {
	if _, ok := s.cache.Peek(pnKey(jid.User(pn))); ok {
		return
	}
	s.StoreMany(ctx, []domain.LIDMapping{{LID: lid, PN: pn}})
}

// Len reports the number of user-level cache entries.
func (s *Store) Len() int { return s.cache.Len() }

// orient returns m with LID and PN on the right sides.
func orient(m domain.LIDMapping) (domain.LIDMapping, bool) {
	switch {
	case jid.IsAnyLID(m.LID) && jid.IsAnyPN(m.PN):
		return m, true
	case jid.IsAnyPN(m.LID) && jid.IsAnyLID(m.PN):
		return domain.LIDMapping{LID: m.PN, PN: m.LID}, true
	}
	return m, false
}

// pnFor builds the device-specific PN for a LID query.
func pnFor(lid jid.JID, pnUser string) string {
	server := jid.ServerPN
	if lid.Domain == jid.DomainHostedLID {
		server = jid.ServerHosted
	}
	return jid.Encode(pnUser, server, lid.Device, 0)
}

var _ domain.LIDMappingStore = (*Store)(nil)
