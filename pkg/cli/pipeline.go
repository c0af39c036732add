package cli

import (
	"context"
	"encoding/json"
	"io"

	"github.com/agrilens/agrilens/pkg/cli/config"
	"github.com/agrilens/agrilens/pkg/usecase"
	"github.com/agrilens/agrilens/pkg/utils/logging"
	"github.com/agrilens/agrilens/pkg/utils/safe"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// pipeline groups the configuration shared by every command that runs the
// research and metrics pipeline
type pipeline struct {
	repoCfg    config.Repository
	fetcherCfg config.Fetcher
	cacheCfg   config.Cache
	advisorCfg config.Advisor
}

func (x *pipeline) Flags() []cli.Flag {
	var flags []cli.Flag
	flags = append(flags, x.repoCfg.Flags()...)
	flags = append(flags, x.fetcherCfg.Flags()...)
	flags = append(flags, x.cacheCfg.Flags()...)
	flags = append(flags, x.advisorCfg.Flags()...)
	return flags
}

// build wires repository, fetcher, caches and advisor into use cases. The
// returned function releases every opened resource.
func (x *pipeline) build(ctx context.Context) (*usecase.UseCases, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	logging.Default().Info("Pipeline configuration",
		"repository", x.repoCfg,
		"fetcher", x.fetcherCfg,
		"cache", x.cacheCfg,
		"advisor", x.advisorCfg)

	repo, err := x.repoCfg.Configure(ctx)
	if err != nil {
		return nil, cleanup, goerr.Wrap(err, "failed to initialize repository")
	}
	closers = append(closers, func() { safe.Close(ctx, repo) })

	sources, err := x.fetcherCfg.Sources()
	if err != nil {
		cleanup()
		return nil, func() {}, goerr.Wrap(err, "failed to load sources")
	}

	f, err := x.fetcherCfg.Configure()
	if err != nil {
		cleanup()
		return nil, func() {}, goerr.Wrap(err, "failed to configure fetcher")
	}

	metricsOpts, closeCache, err := x.cacheCfg.Configure(ctx)
	if err != nil {
		cleanup()
		return nil, func() {}, goerr.Wrap(err, "failed to configure metrics cache")
	}
	closers = append(closers, closeCache)

	adv, err := x.advisorCfg.Configure(ctx)
	if err != nil {
		cleanup()
		return nil, func() {}, goerr.Wrap(err, "failed to configure advisor")
	}

	ucOpts := []usecase.Option{
		usecase.WithFetcher(f),
		usecase.WithSources(sources),
		usecase.WithFetchTimeout(x.fetcherCfg.FetchTimeout()),
		usecase.WithMaxAge(x.cacheCfg.MaxAge()),
		usecase.WithMetricsOptions(metricsOpts...),
	}
	if adv != nil {
		ucOpts = append(ucOpts, usecase.WithAdvisor(adv))
	}

	return usecase.New(repo, ucOpts...), cleanup, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return goerr.Wrap(err, "failed to write output")
	}
	return nil
}
