package usecase

import (
	"time"

	"github.com/agrilens/agrilens/pkg/domain/interfaces"
	"github.com/agrilens/agrilens/pkg/domain/model"
	"github.com/agrilens/agrilens/pkg/service/advisor"
	"github.com/agrilens/agrilens/pkg/service/metrics"
	"github.com/agrilens/agrilens/pkg/service/research"
)

type UseCases struct {
	repo          interfaces.Repository
	fetcher       interfaces.SourceFetcher
	sources       []*model.Source
	advisor       advisor.Advisor
	fetchTimeout  time.Duration
	maxAge        time.Duration
	researchOpts  []research.Option
	metricsOpts   []metrics.Option
	Research      *ResearchUseCase
	Advise        *AdviseUseCase
	MetricsWindow *metrics.Window
}

type Option func(*UseCases)

func WithFetcher(f interfaces.SourceFetcher) Option {
	return func(uc *UseCases) {
		uc.fetcher = f
	}
}

func WithSources(sources []*model.Source) Option {
	return func(uc *UseCases) {
		uc.sources = sources
	}
}

func WithAdvisor(a advisor.Advisor) Option {
	return func(uc *UseCases) {
		uc.advisor = a
	}
}

func WithFetchTimeout(d time.Duration) Option {
	return func(uc *UseCases) {
		uc.fetchTimeout = d
	}
}

func WithMaxAge(d time.Duration) Option {
	return func(uc *UseCases) {
		uc.maxAge = d
	}
}

func WithResearchOptions(opts ...research.Option) Option {
	return func(uc *UseCases) {
		uc.researchOpts = append(uc.researchOpts, opts...)
	}
}

func WithMetricsOptions(opts ...metrics.Option) Option {
	return func(uc *UseCases) {
		uc.metricsOpts = append(uc.metricsOpts, opts...)
	}
}

func New(repo interfaces.Repository, opts ...Option) *UseCases {
	uc := &UseCases{
		repo: repo,
	}

	for _, opt := range opts {
		opt(uc)
	}

	cache := research.New(repo.Finding(), uc.researchOpts...)
	uc.Research = NewResearchUseCase(cache, uc.fetcher, uc.sources,
		WithResearchFetchTimeout(uc.fetchTimeout),
		WithResearchMaxAge(uc.maxAge),
	)
	uc.MetricsWindow = metrics.New(repo.Record(), uc.metricsOpts...)
	uc.Advise = NewAdviseUseCase(uc.Research, uc.MetricsWindow, uc.advisor)

	return uc
}
