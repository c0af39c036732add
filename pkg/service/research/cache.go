package research

import (
	"context"
	"time"

	"github.com/agrilens/agrilens/pkg/domain/interfaces"
	"github.com/agrilens/agrilens/pkg/domain/model"
	"github.com/agrilens/agrilens/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// DefaultMaxAge is the freshness window applied when none is given
const DefaultMaxAge = 7 * 24 * time.Hour

// Cache is the read-through store of research findings. It holds no state
// between calls; freshness is computed at lookup time.
type Cache struct {
	repo  interfaces.FindingRepository
	clock func() time.Time
}

type Option func(*Cache)

// WithClock replaces the time source used for freshness and collection times
func WithClock(clock func() time.Time) Option {
	return func(c *Cache) {
		c.clock = clock
	}
}

func New(repo interfaces.FindingRepository, opts ...Option) *Cache {
	c := &Cache{
		repo:  repo,
		clock: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Lookup returns the findings for topic collected strictly within maxAge of
// now. A non-positive maxAge means DefaultMaxAge. An empty topic matches
// nothing.
func (c *Cache) Lookup(ctx context.Context, topic model.Topic, maxAge time.Duration) ([]*model.Finding, error) {
	if topic.IsZero() {
		return []*model.Finding{}, nil
	}
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}

	since := c.clock().UTC().Add(-maxAge)
	findings, err := c.repo.Lookup(ctx, topic, since)
	if err != nil {
		return nil, model.WrapStorage(err, "failed to lookup research cache", goerr.V(model.TopicKey, topic))
	}
	if findings == nil {
		findings = []*model.Finding{}
	}

	logging.From(ctx).Debug("research cache lookup",
		"topic", topic,
		"since", since,
		"hits", len(findings))
	return findings, nil
}

// Store persists finding under topic unless an identical (topic, source,
// content) finding exists, which is not an error. Topic, ID and CollectedAt
// are assigned on a copy that is returned; the caller's value is not
// modified.
//
// When the insert is a dedup no-op the returned copy still carries this
// call's CollectedAt and Title. Its ID and DedupKey match the persisted row,
// which keeps the first Title and CollectedAt; Lookup returns that row.
func (c *Cache) Store(ctx context.Context, topic model.Topic, finding *model.Finding) (*model.Finding, error) {
	if topic.IsZero() {
		return nil, goerr.New("topic is required", goerr.V(model.SourceKey, finding.Source))
	}

	f := finding.Copy()
	f.Topic = topic
	f.ID = model.NewFindingID(topic, f.Source, f.Content)
	f.CollectedAt = c.clock().UTC().Truncate(time.Microsecond)

	if err := c.repo.Insert(ctx, f); err != nil {
		return nil, model.WrapStorage(err, "failed to store finding",
			goerr.V(model.TopicKey, topic),
			goerr.V(model.SourceKey, f.Source))
	}
	return f, nil
}
