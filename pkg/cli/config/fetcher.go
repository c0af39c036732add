package config

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/agrilens/agrilens/pkg/domain/model"
	"github.com/agrilens/agrilens/pkg/service/fetcher"
	"github.com/agrilens/agrilens/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// Fetcher holds CLI flags for the research source fetcher
type Fetcher struct {
	sourcesFile    string
	delayMin       time.Duration
	delayMax       time.Duration
	requestTimeout time.Duration
	fetchTimeout   time.Duration
	parallelism    int
	userAgent      string
	contentLimit   int
}

// Flags returns CLI flags for fetcher configuration
func (x *Fetcher) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "sources-file",
			Usage:       "Source list file (.toml, .yaml or .yml); built-in extension sites when empty",
			Category:    "Fetcher",
			Sources:     cli.EnvVars("AGRILENS_SOURCES_FILE"),
			Destination: &x.sourcesFile,
		},
		&cli.DurationFlag{
			Name:        "fetch-delay-min",
			Usage:       "Minimum politeness delay before each source request",
			Value:       fetcher.DefaultDelay.Min,
			Category:    "Fetcher",
			Sources:     cli.EnvVars("AGRILENS_FETCH_DELAY_MIN"),
			Destination: &x.delayMin,
		},
		&cli.DurationFlag{
			Name:        "fetch-delay-max",
			Usage:       "Maximum politeness delay before each source request",
			Value:       fetcher.DefaultDelay.Max,
			Category:    "Fetcher",
			Sources:     cli.EnvVars("AGRILENS_FETCH_DELAY_MAX"),
			Destination: &x.delayMax,
		},
		&cli.DurationFlag{
			Name:        "fetch-request-timeout",
			Usage:       "Timeout of a single source request",
			Value:       30 * time.Second,
			Category:    "Fetcher",
			Sources:     cli.EnvVars("AGRILENS_FETCH_REQUEST_TIMEOUT"),
			Destination: &x.requestTimeout,
		},
		&cli.DurationFlag{
			Name:        "fetch-timeout",
			Usage:       "Deadline of one fetch pass over all sources",
			Value:       2 * time.Minute,
			Category:    "Fetcher",
			Sources:     cli.EnvVars("AGRILENS_FETCH_TIMEOUT"),
			Destination: &x.fetchTimeout,
		},
		&cli.IntFlag{
			Name:        "fetch-parallelism",
			Usage:       "Maximum in-flight source requests (1 fetches sequentially)",
			Value:       1,
			Category:    "Fetcher",
			Sources:     cli.EnvVars("AGRILENS_FETCH_PARALLELISM"),
			Destination: &x.parallelism,
		},
		&cli.StringFlag{
			Name:        "user-agent",
			Usage:       "User-Agent header sent to sources",
			Value:       fetcher.DefaultUserAgent,
			Category:    "Fetcher",
			Sources:     cli.EnvVars("AGRILENS_USER_AGENT"),
			Destination: &x.userAgent,
		},
		&cli.IntFlag{
			Name:        "content-limit",
			Usage:       "Maximum runes kept from each snippet body",
			Value:       fetcher.DefaultContentLimit,
			Category:    "Fetcher",
			Sources:     cli.EnvVars("AGRILENS_CONTENT_LIMIT"),
			Destination: &x.contentLimit,
		},
	}
}

func (x Fetcher) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("sources_file", x.sourcesFile),
		slog.Duration("delay_min", x.delayMin),
		slog.Duration("delay_max", x.delayMax),
		slog.Duration("fetch_timeout", x.fetchTimeout),
		slog.Int("parallelism", x.parallelism),
	)
}

// FetchTimeout returns the deadline of one fetch pass
func (x *Fetcher) FetchTimeout() time.Duration {
	return x.fetchTimeout
}

// Sources loads the configured source list, or the built-in defaults when no
// file is set
func (x *Fetcher) Sources() ([]*model.Source, error) {
	if x.sourcesFile == "" {
		return model.DefaultSources(), nil
	}
	sources, err := LoadSources(x.sourcesFile)
	if err != nil {
		return nil, err
	}
	logging.Default().Info("Loaded source list", "path", x.sourcesFile, "count", len(sources))
	return sources, nil
}

// Configure creates the fetcher from the configured flags
func (x *Fetcher) Configure() (*fetcher.Fetcher, error) {
	if x.delayMin < 0 || x.delayMax < x.delayMin {
		return nil, goerr.Wrap(ErrInvalidConfig, "fetch delay range is invalid",
			goerr.V("min", x.delayMin), goerr.V("max", x.delayMax))
	}
	if x.parallelism < 1 {
		return nil, goerr.Wrap(ErrInvalidConfig, "fetch-parallelism must be at least 1",
			goerr.V("parallelism", x.parallelism))
	}

	return fetcher.New(
		fetcher.WithHTTPClient(&http.Client{Timeout: x.requestTimeout}),
		fetcher.WithDelay(fetcher.DelayRange{Min: x.delayMin, Max: x.delayMax}),
		fetcher.WithParallelism(x.parallelism),
		fetcher.WithUserAgent(x.userAgent),
		fetcher.WithContentLimit(x.contentLimit),
	), nil
}
