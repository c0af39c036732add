package advisor

import (
	"context"
	"strings"

	"github.com/agrilens/agrilens/pkg/domain/model"
)

// Advisor turns aggregated metrics and research findings into free text
type Advisor interface {
	Advise(ctx context.Context, task model.AdvisorTask, input *model.AdvisoryInput) (string, error)
}

// ModelLister reports the models a backend can serve
type ModelLister interface {
	ListModels(ctx context.Context) ([]string, error)
}

const DefaultFallbackModel = "tinyllama"

// DefaultPreferences are the preferred model per task
func DefaultPreferences() model.ModelMapping {
	return model.ModelMapping{
		model.AdvisorTaskSustainability:           "phi",
		model.AdvisorTaskPestManagement:           "tinyllama",
		model.AdvisorTaskResourceOptimization:     "gemma",
		model.AdvisorTaskTrendAnalysis:            "phi",
		model.AdvisorTaskDemandForecast:           "tinyllama",
		model.AdvisorTaskPricePrediction:          "gemma",
		model.AdvisorTaskSustainabilityEvaluation: "gemma",
	}
}

// Negotiate resolves the model for every preferred task against what lister
// reports. A preferred model that is not listed is replaced by fallback, and
// a failed listing maps every task to fallback. Call it once at startup and
// treat the result as immutable.
func Negotiate(ctx context.Context, lister ModelLister, preferences model.ModelMapping, fallback string) (model.ModelMapping, error) {
	resolved := make(model.ModelMapping, len(preferences))

	available, err := lister.ListModels(ctx)
	if err != nil {
		for task := range preferences {
			resolved[task] = fallback
		}
		return resolved, err
	}

	for task, name := range preferences {
		if hasModel(available, name) {
			resolved[task] = name
		} else {
			resolved[task] = fallback
		}
	}
	return resolved, nil
}

// hasModel matches exact names and untagged names against "name:tag"
func hasModel(available []string, name string) bool {
	for _, a := range available {
		if a == name {
			return true
		}
		if base, _, ok := strings.Cut(a, ":"); ok && base == name && !strings.Contains(name, ":") {
			return true
		}
	}
	return false
}
