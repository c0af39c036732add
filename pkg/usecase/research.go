package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/agrilens/agrilens/pkg/domain/interfaces"
	"github.com/agrilens/agrilens/pkg/domain/model"
	"github.com/agrilens/agrilens/pkg/service/research"
	"github.com/agrilens/agrilens/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// DefaultFetchTimeout bounds one fetch pass over all sources
const DefaultFetchTimeout = 2 * time.Minute

// ResearchState tells how a research result was produced
type ResearchState string

const (
	// ResearchStateFreshHit means the cache held fresh findings and no
	// source was contacted
	ResearchStateFreshHit ResearchState = "fresh_hit"
	// ResearchStateFetched means sources were fetched and stored
	ResearchStateFetched ResearchState = "fetched"
	// ResearchStateUnresolved means crop or location was missing
	ResearchStateUnresolved ResearchState = "unresolved"
)

// ResearchResult is the outcome of one research request
type ResearchResult struct {
	Topic    model.Topic      `json:"topic"`
	State    ResearchState    `json:"state"`
	Findings []*model.Finding `json:"findings"`
}

// Sources returns the distinct sources of the findings in first-seen order
func (r *ResearchResult) Sources() []string {
	sources := make([]string, 0)
	seen := make(map[string]bool)
	for _, f := range r.Findings {
		if !seen[f.Source] {
			seen[f.Source] = true
			sources = append(sources, f.Source)
		}
	}
	return sources
}

// ResearchUseCase serves research findings from the cache and refreshes it
// from the configured sources when nothing fresh is stored.
type ResearchUseCase struct {
	cache        *research.Cache
	fetcher      interfaces.SourceFetcher
	sources      []*model.Source
	fetchTimeout time.Duration
	maxAge       time.Duration
}

type ResearchOption func(*ResearchUseCase)

// WithResearchFetchTimeout bounds the fetch phase. Non-positive values keep
// DefaultFetchTimeout.
func WithResearchFetchTimeout(d time.Duration) ResearchOption {
	return func(uc *ResearchUseCase) {
		if d > 0 {
			uc.fetchTimeout = d
		}
	}
}

// WithResearchMaxAge sets the freshness window. Non-positive values keep the
// cache default.
func WithResearchMaxAge(d time.Duration) ResearchOption {
	return func(uc *ResearchUseCase) {
		uc.maxAge = d
	}
}

func NewResearchUseCase(cache *research.Cache, fetcher interfaces.SourceFetcher, sources []*model.Source, opts ...ResearchOption) *ResearchUseCase {
	uc := &ResearchUseCase{
		cache:        cache,
		fetcher:      fetcher,
		sources:      sources,
		fetchTimeout: DefaultFetchTimeout,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Sources returns the configured source list
func (uc *ResearchUseCase) Sources() []*model.Source {
	return uc.sources
}

// Research returns findings for crop and location. Fresh cached findings are
// returned without contacting any source. Otherwise every enabled source is
// fetched under the fetch timeout, each snippet is stored, and the fetched
// findings are returned deduplicated in the order they were first seen.
// Findings stored before the timeout stay committed and are returned.
func (uc *ResearchUseCase) Research(ctx context.Context, crop, location string) (*ResearchResult, error) {
	topic := model.NewTopic(crop, location)
	if topic.IsZero() {
		return &ResearchResult{State: ResearchStateUnresolved, Findings: []*model.Finding{}}, nil
	}

	cached, err := uc.cache.Lookup(ctx, topic, uc.maxAge)
	if err != nil {
		return nil, err
	}
	if len(cached) > 0 {
		logging.From(ctx).Info("research served from cache", "topic", topic, "findings", len(cached))
		return &ResearchResult{Topic: topic, State: ResearchStateFreshHit, Findings: cached}, nil
	}

	findings, err := uc.fetchAndStore(ctx, topic, crop, location)
	if err != nil {
		return nil, err
	}

	logging.From(ctx).Info("research fetched", "topic", topic, "findings", len(findings))
	return &ResearchResult{Topic: topic, State: ResearchStateFetched, Findings: findings}, nil
}

func (uc *ResearchUseCase) fetchAndStore(ctx context.Context, topic model.Topic, crop, location string) ([]*model.Finding, error) {
	findings := make([]*model.Finding, 0)
	if uc.fetcher == nil {
		return findings, nil
	}

	bound := make([]*model.Source, 0, len(uc.sources))
	for _, src := range uc.sources {
		if src != nil && src.Enabled {
			bound = append(bound, src.Bind(crop, location))
		}
	}

	fetchCtx, cancel := context.WithTimeout(ctx, uc.fetchTimeout)
	defer cancel()

	seen := make(map[string]bool)
	for doc := range uc.fetcher.Fetch(fetchCtx, bound) {
		for _, snippet := range doc.Snippets {
			if err := ctx.Err(); err != nil {
				return nil, goerr.Wrap(err, "research canceled", goerr.V(model.TopicKey, topic))
			}

			stored, err := uc.cache.Store(ctx, topic, &model.Finding{
				Source:  doc.URL,
				Title:   snippet.Title,
				Content: snippet.Body,
			})
			if err != nil {
				return nil, err
			}

			key := stored.DedupKey()
			if seen[key] {
				continue
			}
			seen[key] = true
			findings = append(findings, stored)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, goerr.Wrap(err, "research canceled", goerr.V(model.TopicKey, topic))
	}
	if errors.Is(fetchCtx.Err(), context.DeadlineExceeded) {
		logging.From(ctx).Warn("fetch deadline reached, returning partial findings",
			"topic", topic,
			"timeout", uc.fetchTimeout,
			"findings", len(findings))
	}
	return findings, nil
}
