package app

import (
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"msgcore/internal/directory"
	"msgcore/internal/domain"
	"msgcore/internal/metrics"
	"msgcore/internal/retry"
	"msgcore/internal/services/decode"
	identitysvc "msgcore/internal/services/identity"
	"msgcore/internal/services/lidmapping"
	prekeysvc "msgcore/internal/services/prekey"
	"msgcore/internal/services/signal"
	"msgcore/internal/store"
)

// Wire bundles the stores, services and clients that do not depend on the
// unlocked credentials.
type Wire struct {
	Config      Config
	Log         *logrus.Logger
	Registry    *prometheus.Registry
	Metrics     *metrics.Metrics
	Keys        domain.KeyStore
	Credentials *store.CredentialsFileStore
	Identity    *identitysvc.Service
	PreKeys     *prekeysvc.Service
	Directory   *directory.Client // nil when no directory URL is configured
	Mapping     *lidmapping.Store
	Retry       domain.RetryNotifier
	HTTP        *http.Client

	closers []func() error
}

// NewLogger builds the process logger from cfg.
func NewLogger(cfg Config) (*logrus.Logger, error) {
	log := logrus.New()
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	log.SetLevel(level)
	if cfg.LogFormat == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	return log, nil
}

// NewWire constructs the dependency graph from cfg.
func NewWire(cfg Config) (*Wire, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log, err := NewLogger(cfg)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.Home, 0o700); err != nil {
		return nil, err
	}

	httpClient := cfg.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	w := &Wire{
		Config:      cfg,
		Log:         log,
		Registry:    prometheus.NewRegistry(),
		Credentials: store.NewCredentialsFileStore(cfg.Home),
		HTTP:        httpClient,
	}
	w.Metrics = metrics.New(w.Registry)

	if w.Keys, err = w.openKeyStore(); err != nil {
		return nil, err
	}
	w.Identity = identitysvc.New(w.Credentials, log)
	w.PreKeys = prekeysvc.New(w.Credentials, w.Keys, log)

	var resolver domain.DirectoryResolver
	if cfg.Directory.URL != "" {
		w.Directory = directory.NewClient(cfg.Directory.URL, httpClient)
		resolver = w.Directory
	}
	w.Mapping = lidmapping.New(w.Keys, resolver,
		lidmapping.WithCache(cfg.Mapping.CacheSize, cfg.Mapping.CacheTTL),
		lidmapping.WithDirectoryTimeout(cfg.Directory.Timeout),
		lidmapping.WithLogger(log),
		lidmapping.WithMetrics(w.Metrics),
	)

	if w.Retry, err = w.openRetry(); err != nil {
		_ = w.Close()
		return nil, err
	}
	return w, nil
}

func (w *Wire) openKeyStore() (domain.KeyStore, error) {
	switch w.Config.KeyStore.Backend {
	case BackendMemory:
		return store.NewMemoryKeyStore(), nil
	case BackendFile:
		return store.NewFileKeyStore(w.Config.Home)
	case BackendRedis:
		opts, err := redis.ParseURL(w.Config.KeyStore.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("redis url: %w", err)
		}
		client := redis.NewClient(opts)
		w.closers = append(w.closers, client.Close)
		return store.NewRedisKeyStore(client, store.WithRedisPrefix(w.Config.KeyStore.RedisPrefix)), nil
	}
	return nil, fmt.Errorf("unknown key store backend %q", w.Config.KeyStore.Backend)
}

func (w *Wire) openRetry() (domain.RetryNotifier, error) {
	rc := w.Config.Retry
	if rc.Backend != RetryAMQP {
		return retry.LogNotifier{Log: w.Log}, nil
	}
	n, err := retry.DialAMQP(rc.AMQPURL, rc.Exchange, rc.RoutingKey, w.Log)
	if err != nil {
		return nil, fmt.Errorf("amqp: %w", err)
	}
	w.closers = append(w.closers, n.Close)
	return n, nil
}

// Open unlocks the credentials and builds the session repository and the
// decoder for the account meID / meLID.
func (w *Wire) Open(passphrase, meID, meLID string) (*App, error) {
	creds, err := w.Identity.LoadCredentials(passphrase)
	if err != nil {
		return nil, err
	}
	repo := signal.New(w.Keys, creds, w.Mapping,
		signal.WithLogger(w.Log),
		signal.WithMetrics(w.Metrics),
	)
	dec := decode.NewDecoder(repo, meID, meLID,
		decode.WithRetryNotifier(w.Retry),
		decode.WithLogger(w.Log),
		decode.WithMetrics(w.Metrics),
		decode.WithConcurrency(w.Config.Decode.Concurrency),
	)
	return New(repo, dec, w.Mapping), nil
}

// Close releases network clients.
func (w *Wire) Close() error {
	var errs []error
	for i := len(w.closers) - 1; i >= 0; i-- {
		errs = append(errs, w.closers[i]())
	}
	w.closers = nil
	return errors.Join(errs...)
}
