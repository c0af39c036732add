package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/agrilens/agrilens/pkg/domain/model"
	"github.com/agrilens/agrilens/pkg/domain/types"
	"github.com/agrilens/agrilens/pkg/service/advisor"
	"github.com/agrilens/agrilens/pkg/service/metrics"
	"github.com/agrilens/agrilens/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// Aggregation windows used for advisory assembly, in days
const (
	FarmingWindowDays = 30
	MarketWindowDays  = 30
	WeatherWindowDays = 7
)

type AdviseUseCase struct {
	research *ResearchUseCase
	window   *metrics.Window
	advisor  advisor.Advisor
}

func NewAdviseUseCase(research *ResearchUseCase, window *metrics.Window, adv advisor.Advisor) *AdviseUseCase {
	return &AdviseUseCase{
		research: research,
		window:   window,
		advisor:  adv,
	}
}

func validateAdvisoryRequest(req *model.AdvisoryRequest) error {
	var missing []string
	if strings.TrimSpace(req.Location) == "" {
		missing = append(missing, "location")
	}
	if strings.TrimSpace(req.Crop) == "" {
		missing = append(missing, "crop")
	}
	if strings.TrimSpace(req.SoilType) == "" {
		missing = append(missing, "soil_type")
	}
	if len(missing) > 0 {
		return goerr.Wrap(ErrInvalidRequest, "missing required fields",
			goerr.V("fields", strings.Join(missing, ",")))
	}
	return nil
}

// Advise gathers research findings and recent metrics for the request and
// asks the advisor for a recommendation. A storage failure aborts before the
// advisor is called.
func (uc *AdviseUseCase) Advise(ctx context.Context, req model.AdvisoryRequest) (*model.AdvisoryResponse, error) {
	if err := validateAdvisoryRequest(&req); err != nil {
		return nil, err
	}

	result, err := uc.research.Research(ctx, req.Crop, req.Location)
	if err != nil {
		return nil, err
	}

	summary, err := uc.window.Compose(ctx,
		metrics.Query{
			RecordType: types.RecordTypeFarming,
			Filter:     model.Filter{CropType: req.Crop},
			WindowDays: FarmingWindowDays,
		},
		metrics.Query{
			RecordType: types.RecordTypeMarket,
			Filter:     model.Filter{Product: req.Crop},
			WindowDays: MarketWindowDays,
		},
		metrics.Query{
			RecordType: types.RecordTypeWeather,
			Filter:     model.Filter{Location: req.Location},
			WindowDays: WeatherWindowDays,
		},
	)
	if err != nil {
		return nil, err
	}

	input := &model.AdvisoryInput{
		Request:  req,
		Summary:  summary,
		Findings: result.Findings,
	}
	sections, err := uc.generateSections(ctx, model.AdvisoryTasks, input)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate advice",
			goerr.V(CropKey, req.Crop),
			goerr.V(LocationKey, req.Location))
	}

	logging.From(ctx).Info("advice assembled",
		"crop", req.Crop,
		"location", req.Location,
		"findings", len(result.Findings),
		"research_state", result.State)

	return &model.AdvisoryResponse{
		Advice:          model.JoinSections(sections),
		Sections:        sections,
		Metrics:         summary.Metrics,
		Labels:          summary.Labels,
		ResearchSources: result.Sources(),
	}, nil
}

// MarketReport summarizes the market window for crop and asks the advisor
// for an analysis of it.
func (uc *AdviseUseCase) MarketReport(ctx context.Context, region, crop string) (*model.MarketReport, error) {
	region = strings.TrimSpace(region)
	crop = strings.TrimSpace(crop)
	if region == "" || crop == "" {
		return nil, goerr.Wrap(ErrInvalidRequest, "region and crop are required",
			goerr.V("region", region),
			goerr.V(CropKey, crop))
	}

	summary, err := uc.window.Aggregate(ctx, types.RecordTypeMarket, model.Filter{Product: crop}, MarketWindowDays)
	if err != nil {
		return nil, err
	}

	input := &model.AdvisoryInput{
		Request: model.AdvisoryRequest{Location: region, Crop: crop},
		Summary: summary,
	}
	sections, err := uc.generateSections(ctx, model.MarketTasks, input)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate market analysis",
			goerr.V("region", region),
			goerr.V(CropKey, crop))
	}

	return &model.MarketReport{
		Region:   region,
		Crop:     crop,
		Analysis: model.JoinSections(sections),
		Sections: sections,
		Metrics:  summary.Metrics,
		Labels:   summary.Labels,
	}, nil
}

// EvaluateSustainability asks the advisor for the environmental impact of
// growing crop on soil, grounded on the recent farming window for the crop.
func (uc *AdviseUseCase) EvaluateSustainability(ctx context.Context, crop, soil string) (*model.SustainabilityReport, error) {
	crop = strings.TrimSpace(crop)
	soil = strings.TrimSpace(soil)
	if crop == "" || soil == "" {
		return nil, goerr.Wrap(ErrInvalidRequest, "crop and soil are required",
			goerr.V(CropKey, crop),
			goerr.V("soil", soil))
	}

	summary, err := uc.window.Aggregate(ctx, types.RecordTypeFarming, model.Filter{CropType: crop}, FarmingWindowDays)
	if err != nil {
		return nil, err
	}

	input := &model.AdvisoryInput{
		Request: model.AdvisoryRequest{Crop: crop, SoilType: soil},
		Summary: summary,
	}
	evaluation, err := uc.generate(ctx, model.AdvisorTaskSustainabilityEvaluation, input)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to evaluate sustainability",
			goerr.V(CropKey, crop),
			goerr.V("soil", soil))
	}

	return &model.SustainabilityReport{
		Crop:       crop,
		SoilType:   soil,
		Evaluation: strings.TrimSpace(evaluation),
		Metrics:    summary.Metrics,
		Labels:     summary.Labels,
	}, nil
}

// generateSections runs tasks in order; the first failure aborts the rest
func (uc *AdviseUseCase) generateSections(ctx context.Context, tasks []model.AdvisorTask, input *model.AdvisoryInput) ([]model.AdviceSection, error) {
	if uc.advisor == nil {
		return nil, nil
	}
	sections := make([]model.AdviceSection, 0, len(tasks))
	for _, task := range tasks {
		text, err := uc.generate(ctx, task, input)
		if err != nil {
			return nil, goerr.Wrap(err, "advisor task failed", goerr.V("task", task))
		}
		sections = append(sections, model.AdviceSection{Task: task, Title: task.Title(), Text: text})
	}
	return sections, nil
}

func (uc *AdviseUseCase) generate(ctx context.Context, task model.AdvisorTask, input *model.AdvisoryInput) (string, error) {
	if uc.advisor == nil {
		return "", nil
	}
	text, err := uc.advisor.Advise(ctx, task, input)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return "", err
		}
		return "", errors.Join(ErrAdvisorFailed, err)
	}
	return text, nil
}
