package decode

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"msgcore/internal/domain"
	"msgcore/internal/domain/types"
	"msgcore/internal/jid"
	"msgcore/internal/metrics"
)

// DefaultConcurrency bounds DecodeBatch.
const DefaultConcurrency = 8

// Decoder decodes envelopes addressed to one local account.
type Decoder struct {
	repo        domain.SignalRepository
	meID        string
	meLID       string
	retry       domain.RetryNotifier
	log         logrus.FieldLogger
	metrics     *metrics.Metrics
	concurrency int
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithRetryNotifier receives a hint for every failed decrypt.
func WithRetryNotifier(n domain.RetryNotifier) Option {
	return func(d *Decoder) { d.retry = n }
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(d *Decoder) {
		if l != nil {
			d.log = l
		}
	}
}

// WithMetrics records decrypt and rejection counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Decoder) { d.metrics = m }
}

// WithConcurrency bounds the number of envelopes DecodeBatch decodes at once.
func WithConcurrency(n int) Option {
	return func(d *Decoder) {
		if n > 0 {
			d.concurrency = n
		}
	}
}

// NewDecoder returns a Decoder for the account meID (PN) / meLID.
func NewDecoder(repo domain.SignalRepository, meID, meLID string, opts ...Option) *Decoder {
	d := &Decoder{
		repo:        repo,
		meID:        meID,
		meLID:       meLID,
		log:         logrus.StandardLogger(),
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// DecodeEnvelope classifies and decrypts one envelope. Only classification
// errors are returned, always as *FatalDecodeError.
func (d *Decoder) DecodeEnvelope(ctx context.Context, node domain.Node) (*domain.WebMessage, error) {
	cls, err := Classify(node, d.meID, d.meLID)
	if err != nil {
		var fe *FatalDecodeError
		if errors.As(err, &fe) {
			d.metrics.ObserveFatal(fe.Reason.String())
		}
		d.log.WithError(err).WithField("from", node.Attr("from")).Warn("decode: rejecting envelope")
		return nil, err
	}

	msg := d.Decrypt(ctx, node, cls)

	// Seeded after decrypting so the hint cannot pre-empt this envelope's
	// session migration.
	if cls.Seed != nil {
		d.repo.LIDMapping().SeedPN(ctx, cls.Seed.PN, cls.Seed.LID)
	}

	if d.retry != nil && msg.IsStub() && !isAbsent(msg) {
		hint := domain.RetryHint{
			ID:                 uuid.NewString(),
			Key:                msg.Key,
			SessionRecordError: msg.SessionRecordError,
			RetryCount:         msg.RetryCount,
		}
		if len(msg.StubParameters) > 0 {
			hint.Error = msg.StubParameters[0]
		}
		if err := d.retry.NotifyRetry(ctx, hint); err != nil {
			d.log.WithError(err).WithField("id", msg.Key.ID).Warn("decode: retry notification failed")
		}
	}
	return msg, nil
}

func isAbsent(msg *domain.WebMessage) bool {
	return len(msg.StubParameters) == 1 && msg.StubParameters[0] == types.StubParamNoMessageFound
}

// Result is the outcome of one envelope in a batch.
type Result struct {
	Message *domain.WebMessage
	Err     error
}

// DecodeBatch decodes nodes concurrently. Results are in input order; a
// rejected envelope does not stop the others. Envelopes that share a sender
// (by PN, LID or a hint linking the two) are decoded one after another in
// input order, so a migration is always seen by that sender's later
// envelopes.
func (d *Decoder) DecodeBatch(ctx context.Context, nodes []domain.Node) []Result {
	results := make([]Result, len(nodes))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.concurrency)
	for _, lane := range d.senderLanes(nodes) {
		g.Go(func() error {
			for _, i := range lane {
				msg, err := d.DecodeEnvelope(gctx, nodes[i])
				results[i] = Result{Message: msg, Err: err}
			}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// senderLanes partitions node indexes so that envelopes with any sender
// identity in common land in the same lane. Each lane is in input order.
func (d *Decoder) senderLanes(nodes []domain.Node) [][]int {
	parent := make([]int, len(nodes))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		if parent[i] != i {
			parent[i] = find(parent[i])
		}
		return parent[i]
	}

	owner := make(map[string]int)
	for i, node := range nodes {
		for _, key := range d.senderKeys(node) {
			j, ok := owner[key]
			if !ok {
				owner[key] = i
				continue
			}
			if a, b := find(i), find(j); a != b {
				parent[max(a, b)] = min(a, b)
			}
		}
	}

	var lanes [][]int
	byRoot := make(map[int]int)
	for i := range nodes {
		root := find(i)
		idx, ok := byRoot[root]
		if !ok {
			idx = len(lanes)
			byRoot[root] = idx
			lanes = append(lanes, nil)
		}
		lanes[idx] = append(lanes[idx], i)
	}
	return lanes
}

// senderKeys lists the user-level PN and LID identities an envelope's sender
// is known by, including the LID already mapped to a PN sender.
func (d *Decoder) senderKeys(node domain.Node) []string {
	attrs, err := types.ParseMessageAttrs(node.Attrs)
	if err != nil {
		return nil
	}
	var keys []string
	for _, j := range []string{attrs.Sender(), attrs.SenderLID, attrs.SenderPN, attrs.ParticipantLID, attrs.ParticipantPN} {
		if !jid.IsAnyPN(j) && !jid.IsAnyLID(j) {
			continue
		}
		keys = append(keys, jid.Normalize(j))
		if lid, ok := d.repo.LIDMapping().LIDForPN(j); ok {
			keys = append(keys, jid.Normalize(lid))
		}
	}
	return keys
}
