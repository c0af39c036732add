package config

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/agrilens/agrilens/pkg/domain/model"
	"github.com/agrilens/agrilens/pkg/service/advisor"
	"github.com/agrilens/agrilens/pkg/utils/errutil"
	"github.com/agrilens/agrilens/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// Advisor backends
const (
	AdvisorNone   = "none"
	AdvisorOllama = "ollama"
	AdvisorGemini = "gemini"
)

// Advisor holds CLI flags for the advisory text generator
type Advisor struct {
	backend       string
	ollamaURL     string
	timeout       time.Duration
	modelPrefs    []string
	fallbackModel string
	gemini        Gemini
}

// Flags returns CLI flags for advisor configuration
func (x *Advisor) Flags() []cli.Flag {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "advisor",
			Usage:       "Advisor backend (none, ollama or gemini)",
			Value:       AdvisorNone,
			Category:    "Advisor",
			Sources:     cli.EnvVars("AGRILENS_ADVISOR"),
			Destination: &x.backend,
		},
		&cli.StringFlag{
			Name:        "ollama-url",
			Usage:       "Ollama base URL",
			Value:       advisor.DefaultOllamaURL,
			Category:    "Advisor",
			Sources:     cli.EnvVars("AGRILENS_OLLAMA_URL"),
			Destination: &x.ollamaURL,
		},
		&cli.DurationFlag{
			Name:        "advisor-timeout",
			Usage:       "Timeout of one advisor request",
			Value:       2 * time.Minute,
			Category:    "Advisor",
			Sources:     cli.EnvVars("AGRILENS_ADVISOR_TIMEOUT"),
			Destination: &x.timeout,
		},
		&cli.StringSliceFlag{
			Name:        "ollama-model",
			Usage:       "Preferred Ollama model per advisor task as task=model (repeatable), e.g. price_prediction=gemma",
			Category:    "Advisor",
			Sources:     cli.EnvVars("AGRILENS_OLLAMA_MODELS"),
			Destination: &x.modelPrefs,
		},
		&cli.StringFlag{
			Name:        "fallback-model",
			Usage:       "Ollama model used when a preferred model is not available",
			Value:       advisor.DefaultFallbackModel,
			Category:    "Advisor",
			Sources:     cli.EnvVars("AGRILENS_FALLBACK_MODEL"),
			Destination: &x.fallbackModel,
		},
	}
	return append(flags, x.gemini.Flags()...)
}

func (x Advisor) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("backend", x.backend),
		slog.String("ollama_url", x.ollamaURL),
		slog.String("fallback_model", x.fallbackModel),
	}
	attrs = append(attrs, x.gemini.LogAttrs()...)
	return slog.GroupValue(attrs...)
}

// preferences overlays the task=model flags on the default preferences
func (x *Advisor) preferences() (model.ModelMapping, error) {
	prefs := advisor.DefaultPreferences()
	for _, entry := range x.modelPrefs {
		name, value, ok := strings.Cut(entry, "=")
		if !ok || strings.TrimSpace(value) == "" {
			return nil, goerr.Wrap(ErrInvalidConfig, "ollama-model must be task=model", goerr.V("value", entry))
		}
		task, err := model.ParseAdvisorTask(name)
		if err != nil {
			return nil, goerr.Wrap(ErrInvalidConfig, err.Error(), goerr.V("value", entry))
		}
		prefs[task] = strings.TrimSpace(value)
	}
	return prefs, nil
}

func mappingAttrs(mapping model.ModelMapping, fallback string) []any {
	tasks := make([]string, 0, len(mapping))
	for task := range mapping {
		tasks = append(tasks, string(task))
	}
	sort.Strings(tasks)

	attrs := make([]any, 0, len(tasks)*2)
	for _, task := range tasks {
		attrs = append(attrs, task, mapping.For(model.AdvisorTask(task), fallback))
	}
	return attrs
}

// Configure creates the advisor. The none backend returns nil, which makes
// advisory responses carry empty advice. For Ollama the model mapping is
// negotiated once here; a failed listing falls back for every task.
func (x *Advisor) Configure(ctx context.Context) (advisor.Advisor, error) {
	switch x.backend {
	case AdvisorNone, "":
		logging.Default().Info("Advisor disabled")
		return nil, nil

	case AdvisorOllama:
		prefs, err := x.preferences()
		if err != nil {
			return nil, err
		}

		hc := &http.Client{Timeout: x.timeout}
		client := advisor.NewOllama(x.ollamaURL, advisor.WithHTTPClient(hc))

		mapping, err := advisor.Negotiate(ctx, client, prefs, x.fallbackModel)
		if err != nil {
			errutil.Warn(ctx, err, "failed to list Ollama models, using fallback model")
		}
		logging.Default().Info("Ollama advisor configured",
			append([]any{"url", x.ollamaURL}, mappingAttrs(mapping, x.fallbackModel)...)...)

		return advisor.NewOllama(x.ollamaURL,
			advisor.WithHTTPClient(hc),
			advisor.WithModels(mapping),
			advisor.WithFallbackModel(x.fallbackModel),
		), nil

	case AdvisorGemini:
		client, err := x.gemini.Configure(ctx)
		if err != nil {
			return nil, err
		}
		if client == nil {
			return nil, goerr.Wrap(ErrInvalidConfig, "gemini-project is required when using gemini advisor")
		}
		llm, err := advisor.NewLLM(client)
		if err != nil {
			return nil, err
		}
		logging.Default().LogAttrs(ctx, slog.LevelInfo, "Gemini advisor configured", x.gemini.LogAttrs()...)
		return llm, nil

	default:
		return nil, goerr.Wrap(ErrUnsupportedBackend, "invalid advisor backend", goerr.V(BackendKey, x.backend))
	}
}
