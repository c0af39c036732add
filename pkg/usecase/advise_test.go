package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/agrilens/agrilens/pkg/domain/model"
	"github.com/agrilens/agrilens/pkg/repository/memory"
	"github.com/agrilens/agrilens/pkg/service/metrics"
	"github.com/agrilens/agrilens/pkg/service/research"
	"github.com/agrilens/agrilens/pkg/usecase"
	"github.com/m-mizutani/gt"
)

type mockAdvisor struct {
	adviseFn func(ctx context.Context, task model.AdvisorTask, input *model.AdvisoryInput) (string, error)
	calls    int
	tasks    []model.AdvisorTask
	input    *model.AdvisoryInput
}

func (m *mockAdvisor) Advise(ctx context.Context, task model.AdvisorTask, input *model.AdvisoryInput) (string, error) {
	m.calls++
	m.tasks = append(m.tasks, task)
	m.input = input
	if m.adviseFn != nil {
		return m.adviseFn(ctx, task, input)
	}
	return "plant early", nil
}

type failingRecordRepo struct{}

func (failingRecordRepo) ListFarmingConditions(ctx context.Context, cropType string, since time.Time) ([]*model.FarmingCondition, error) {
	return nil, errors.New("disk I/O error")
}

func (failingRecordRepo) ListMarketConditions(ctx context.Context, product string, since time.Time) ([]*model.MarketCondition, error) {
	return nil, errors.New("disk I/O error")
}

func (failingRecordRepo) ListWeatherObservations(ctx context.Context, location string, since time.Time) ([]*model.WeatherObservation, error) {
	return nil, errors.New("disk I/O error")
}

func (failingRecordRepo) SaveFarmingConditions(ctx context.Context, records []*model.FarmingCondition) error {
	return errors.New("disk I/O error")
}

func (failingRecordRepo) SaveMarketConditions(ctx context.Context, records []*model.MarketCondition) error {
	return errors.New("disk I/O error")
}

func (failingRecordRepo) SaveWeatherObservations(ctx context.Context, records []*model.WeatherObservation) error {
	return errors.New("disk I/O error")
}

func seedRecords(t *testing.T, repo *memory.Memory) {
	t.Helper()
	ctx := context.Background()
	today := time.Now().UTC()

	gt.NoError(t, repo.Record().SaveFarmingConditions(ctx, []*model.FarmingCondition{
		{FarmID: 1, CropType: "potato", SoilPH: model.Float(6.0), Rainfall: model.Float(100), RecordedOn: today.AddDate(0, 0, -1)},
		{FarmID: 2, CropType: "potato", SoilPH: model.Float(7.0), RecordedOn: today.AddDate(0, 0, -3)},
		{FarmID: 3, CropType: "potato", SoilPH: model.Float(1.0), RecordedOn: today.AddDate(0, 0, -45)},
		{FarmID: 4, CropType: "wheat", SoilPH: model.Float(9.0), RecordedOn: today},
	})).Required()
	gt.NoError(t, repo.Record().SaveMarketConditions(ctx, []*model.MarketCondition{
		{MarketID: 1, Product: "potato", MarketPrice: model.Float(20), SeasonalFactor: "High", ConsumerTrendIndex: model.Float(0.4), RecordedOn: today},
		{MarketID: 2, Product: "potato", MarketPrice: model.Float(30), SeasonalFactor: "High", ConsumerTrendIndex: model.Float(0.6), RecordedOn: today.AddDate(0, 0, -2)},
	})).Required()
	gt.NoError(t, repo.Record().SaveWeatherObservations(ctx, []*model.WeatherObservation{
		{ID: 1, Location: "Haryana", Temperature: model.Float(30), Humidity: model.Float(40), RecordedOn: today.AddDate(0, 0, -1)},
		{ID: 2, Location: "Haryana", Temperature: model.Float(34), Humidity: model.Float(50), RecordedOn: today},
		{ID: 3, Location: "Haryana", Temperature: model.Float(10), RecordedOn: today.AddDate(0, 0, -10)},
	})).Required()
}

func TestAdvisePotatoHaryana(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	seedRecords(t, repo)

	f := &mockFetcher{}
	adv := &mockAdvisor{}
	uc := usecase.New(repo,
		usecase.WithFetcher(f),
		usecase.WithSources(testSources(3)),
		usecase.WithAdvisor(adv),
	)

	resp, err := uc.Advise.Advise(ctx, model.AdvisoryRequest{
		Location: "Haryana",
		Crop:     "potato",
		SoilType: "loamy",
	})
	gt.NoError(t, err).Required()

	gt.Number(t, adv.calls).Equal(3)
	gt.Value(t, adv.tasks).Equal([]model.AdvisorTask{
		model.AdvisorTaskSustainability,
		model.AdvisorTaskPestManagement,
		model.AdvisorTaskResourceOptimization,
	})
	gt.Array(t, resp.Sections).Length(3).Required()
	gt.Value(t, resp.Sections[1].Title).Equal("Pest Management")
	gt.Value(t, resp.Sections[1].Text).Equal("plant early")
	gt.String(t, resp.Advice).HasPrefix("## Sustainable Farming Practices\n\nplant early")
	gt.String(t, resp.Advice).HasSuffix("## Resource Optimization\n\nplant early")
	gt.Array(t, adv.input.Findings).Length(3)
	gt.Value(t, adv.input.Request.SoilType).Equal("loamy")

	gt.Value(t, *resp.Metrics["farming.soil_ph"]).Equal(6.5)
	gt.Value(t, *resp.Metrics["farming.rainfall"]).Equal(100.0)
	gt.Map(t, resp.Metrics).HasKey("farming.crop_yield")
	gt.Value(t, resp.Metrics["farming.crop_yield"]).Nil()
	gt.Value(t, *resp.Metrics["market.market_price"]).Equal(25.0)
	gt.Value(t, *resp.Metrics["market.consumer_trend"]).Equal(0.5)
	gt.Value(t, *resp.Labels["market.trending_season"]).Equal("High")
	gt.Value(t, *resp.Metrics["weather.temperature"]).Equal(32.0)
	gt.Value(t, *resp.Metrics["weather.current_temperature"]).Equal(34.0)
	gt.Value(t, resp.Metrics["weather.wind_speed"]).Nil()

	gt.Value(t, resp.ResearchSources).Equal([]string{
		"https://src1.example/potato/Haryana",
		"https://src2.example/potato/Haryana",
		"https://src3.example/potato/Haryana",
	})

	// second request is served from the research cache
	_, err = uc.Advise.Advise(ctx, model.AdvisoryRequest{Location: "Haryana", Crop: "potato", SoilType: "loamy"})
	gt.NoError(t, err).Required()
	gt.Number(t, f.Calls()).Equal(1)
}

func TestAdviseWithoutData(t *testing.T) {
	uc := usecase.New(memory.New())

	resp, err := uc.Advise.Advise(context.Background(), model.AdvisoryRequest{
		Location: "Nowhere",
		Crop:     "quinoa",
		SoilType: "sandy",
	})
	gt.NoError(t, err).Required()
	gt.Value(t, resp.Advice).Equal("")
	gt.Array(t, resp.Sections).Length(0)
	gt.Value(t, resp.Metrics["farming.soil_ph"]).Nil()
	gt.Value(t, resp.Metrics["weather.current_temperature"]).Nil()
	gt.Array(t, resp.ResearchSources).Length(0)
}

func TestAdviseInvalidRequest(t *testing.T) {
	uc := usecase.New(memory.New())

	for _, req := range []model.AdvisoryRequest{
		{Crop: "potato", SoilType: "loamy"},
		{Location: "Haryana", SoilType: "loamy"},
		{Location: "Haryana", Crop: "potato"},
	} {
		_, err := uc.Advise.Advise(context.Background(), req)
		gt.Error(t, err).Is(usecase.ErrInvalidRequest)
	}
}

func TestAdviseStorageFailureSkipsAdvisor(t *testing.T) {
	adv := &mockAdvisor{}
	researchUC := usecase.NewResearchUseCase(research.New(memory.New().Finding()), &mockFetcher{}, testSources(1))
	uc := usecase.NewAdviseUseCase(researchUC, metrics.New(failingRecordRepo{}), adv)

	_, err := uc.Advise(context.Background(), model.AdvisoryRequest{
		Location: "Haryana",
		Crop:     "potato",
		SoilType: "loamy",
	})
	gt.Error(t, err).Is(model.ErrStorageUnavailable)
	gt.Number(t, adv.calls).Equal(0)
}

func TestAdviseAdvisorFailure(t *testing.T) {
	adv := &mockAdvisor{
		adviseFn: func(ctx context.Context, task model.AdvisorTask, input *model.AdvisoryInput) (string, error) {
			if task == model.AdvisorTaskPestManagement {
				return "", errors.New("model not loaded")
			}
			return "ok", nil
		},
	}
	uc := usecase.New(memory.New(), usecase.WithAdvisor(adv))

	_, err := uc.Advise.Advise(context.Background(), model.AdvisoryRequest{
		Location: "Haryana",
		Crop:     "potato",
		SoilType: "loamy",
	})
	gt.Error(t, err).Is(usecase.ErrAdvisorFailed)
	// resource optimization is not attempted after the failure
	gt.Number(t, adv.calls).Equal(2)
}

func TestMarketReport(t *testing.T) {
	repo := memory.New()
	seedRecords(t, repo)
	adv := &mockAdvisor{
		adviseFn: func(ctx context.Context, task model.AdvisorTask, input *model.AdvisoryInput) (string, error) {
			return "prices are rising", nil
		},
	}
	uc := usecase.New(repo, usecase.WithAdvisor(adv))

	report, err := uc.Advise.MarketReport(context.Background(), "North", "potato")
	gt.NoError(t, err).Required()
	gt.Value(t, report.Region).Equal("North")
	gt.Value(t, adv.tasks).Equal(model.MarketTasks)
	gt.Array(t, report.Sections).Length(3)
	gt.String(t, report.Analysis).HasPrefix("## Market Trends\n\nprices are rising")
	gt.String(t, report.Analysis).Contains("## Demand Forecast")
	gt.String(t, report.Analysis).Contains("## Price Outlook")
	gt.Value(t, *report.Metrics["market.market_price"]).Equal(25.0)
	gt.Value(t, *report.Labels["market.trending_season"]).Equal("High")

	_, err = uc.Advise.MarketReport(context.Background(), "", "potato")
	gt.Error(t, err).Is(usecase.ErrInvalidRequest)
}

func TestEvaluateSustainability(t *testing.T) {
	repo := memory.New()
	seedRecords(t, repo)
	adv := &mockAdvisor{
		adviseFn: func(ctx context.Context, task model.AdvisorTask, input *model.AdvisoryInput) (string, error) {
			return "  Low water footprint on loamy soil.\n", nil
		},
	}
	uc := usecase.New(repo, usecase.WithAdvisor(adv))

	report, err := uc.Advise.EvaluateSustainability(context.Background(), "potato", "loamy")
	gt.NoError(t, err).Required()
	gt.Value(t, report.Crop).Equal("potato")
	gt.Value(t, report.SoilType).Equal("loamy")
	gt.Value(t, report.Evaluation).Equal("Low water footprint on loamy soil.")
	gt.Value(t, adv.tasks).Equal([]model.AdvisorTask{model.AdvisorTaskSustainabilityEvaluation})
	gt.Value(t, adv.input.Request.SoilType).Equal("loamy")
	gt.Value(t, *report.Metrics["farming.soil_ph"]).Equal(6.5)
	gt.Map(t, report.Metrics).NotHasKey("market.market_price")

	t.Run("crop and soil are required", func(t *testing.T) {
		_, err := uc.Advise.EvaluateSustainability(context.Background(), "potato", " ")
		gt.Error(t, err).Is(usecase.ErrInvalidRequest)
		_, err = uc.Advise.EvaluateSustainability(context.Background(), "", "loamy")
		gt.Error(t, err).Is(usecase.ErrInvalidRequest)
	})

	t.Run("storage failure skips the advisor", func(t *testing.T) {
		adv := &mockAdvisor{}
		researchUC := usecase.NewResearchUseCase(research.New(memory.New().Finding()), &mockFetcher{}, testSources(1))
		uc := usecase.NewAdviseUseCase(researchUC, metrics.New(failingRecordRepo{}), adv)

		_, err := uc.EvaluateSustainability(context.Background(), "potato", "loamy")
		gt.Error(t, err).Is(model.ErrStorageUnavailable)
		gt.Number(t, adv.calls).Equal(0)
	})

	t.Run("no advisor configured", func(t *testing.T) {
		uc := usecase.New(repo)
		report, err := uc.Advise.EvaluateSustainability(context.Background(), "potato", "loamy")
		gt.NoError(t, err).Required()
		gt.Value(t, report.Evaluation).Equal("")
	})
}
