package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"iter"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	httpctrl "github.com/agrilens/agrilens/pkg/controller/http"
	"github.com/agrilens/agrilens/pkg/domain/model"
	"github.com/agrilens/agrilens/pkg/domain/types"
	"github.com/agrilens/agrilens/pkg/repository/memory"
	"github.com/agrilens/agrilens/pkg/usecase"
	"github.com/m-mizutani/gt"
)

type stubFetcher struct {
	calls int
}

func (f *stubFetcher) Fetch(ctx context.Context, sources []*model.Source) iter.Seq[*model.RawDocument] {
	f.calls++
	return func(yield func(*model.RawDocument) bool) {
		for _, src := range sources {
			if !yield(&model.RawDocument{
				Source:   src,
				URL:      src.URL,
				Snippets: []model.Snippet{{Title: "Tip", Body: "use mulch"}},
			}) {
				return
			}
		}
	}
}

type stubAdvisor struct {
	err error
}

func (a *stubAdvisor) Advise(ctx context.Context, task model.AdvisorTask, input *model.AdvisoryInput) (string, error) {
	if a.err != nil {
		return "", a.err
	}
	return string(task) + " for " + input.Request.Crop, nil
}

func newServer(t *testing.T, opts ...usecase.Option) (*httpctrl.Server, *memory.Memory) {
	t.Helper()
	repo := memory.New()
	sources := []*model.Source{
		{Name: "ext", Type: types.SourceTypeHTML, URL: "https://ext.example/{crop}", Enabled: true},
	}
	base := []usecase.Option{
		usecase.WithFetcher(&stubFetcher{}),
		usecase.WithSources(sources),
		usecase.WithAdvisor(&stubAdvisor{}),
	}
	return httpctrl.New(usecase.New(repo, append(base, opts...)...)), repo
}

func doRequest(t *testing.T, srv http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	srv, _ := newServer(t)
	w := doRequest(t, srv, http.MethodGet, "/health", "")
	gt.Number(t, w.Code).Equal(http.StatusOK)
	gt.String(t, w.Body.String()).Contains(`"ok"`)
}

func TestAdvice(t *testing.T) {
	srv, repo := newServer(t)
	gt.NoError(t, repo.Record().SaveFarmingConditions(context.Background(), []*model.FarmingCondition{
		{FarmID: 1, CropType: "potato", SoilPH: model.Float(6.5), RecordedOn: time.Now().UTC()},
	})).Required()

	w := doRequest(t, srv, http.MethodPost, "/api/advice",
		`{"location":"Haryana","crop":"potato","soil_type":"loamy"}`)
	gt.Number(t, w.Code).Equal(http.StatusOK).Required()

	var resp model.AdvisoryResponse
	gt.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp)).Required()
	gt.Array(t, resp.Sections).Length(3).Required()
	gt.Value(t, resp.Sections[0].Text).Equal("sustainability for potato")
	gt.String(t, resp.Advice).Contains("## Pest Management\n\npest_management for potato")
	gt.Value(t, *resp.Metrics["farming.soil_ph"]).Equal(6.5)
	gt.Value(t, resp.Metrics["weather.temperature"]).Nil()
	gt.Value(t, resp.ResearchSources).Equal([]string{"https://ext.example/potato"})

	// absent metrics are encoded as null, never zero
	gt.String(t, w.Body.String()).Contains(`"weather.temperature":null`)
}

func TestAdviceErrors(t *testing.T) {
	t.Run("missing field", func(t *testing.T) {
		srv, _ := newServer(t)
		w := doRequest(t, srv, http.MethodPost, "/api/advice", `{"location":"Haryana","crop":"potato"}`)
		gt.Number(t, w.Code).Equal(http.StatusBadRequest)
		gt.String(t, w.Body.String()).Contains("error")
	})

	t.Run("malformed body", func(t *testing.T) {
		srv, _ := newServer(t)
		w := doRequest(t, srv, http.MethodPost, "/api/advice", `{"location":`)
		gt.Number(t, w.Code).Equal(http.StatusBadRequest)
	})

	t.Run("advisor failure", func(t *testing.T) {
		srv, _ := newServer(t, usecase.WithAdvisor(&stubAdvisor{err: errors.New("model unavailable")}))
		w := doRequest(t, srv, http.MethodPost, "/api/advice",
			`{"location":"Haryana","crop":"potato","soil_type":"loamy"}`)
		gt.Number(t, w.Code).Equal(http.StatusBadGateway)
		gt.String(t, w.Body.String()).NotContains("model unavailable")
	})
}

func TestResearch(t *testing.T) {
	srv, _ := newServer(t)

	w := doRequest(t, srv, http.MethodGet, "/api/research?crop=potato&location=Haryana", "")
	gt.Number(t, w.Code).Equal(http.StatusOK).Required()

	var resp struct {
		Topic           string           `json:"topic"`
		State           string           `json:"state"`
		Findings        []*model.Finding `json:"findings"`
		ResearchSources []string         `json:"research_sources"`
	}
	gt.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp)).Required()
	gt.Value(t, resp.Topic).Equal("potato_Haryana")
	gt.Value(t, resp.State).Equal("fetched")
	gt.Array(t, resp.Findings).Length(1)

	w = doRequest(t, srv, http.MethodGet, "/api/research?crop=potato&location=Haryana", "")
	gt.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp)).Required()
	gt.Value(t, resp.State).Equal("fresh_hit")

	w = doRequest(t, srv, http.MethodGet, "/api/research?crop=potato", "")
	gt.Number(t, w.Code).Equal(http.StatusOK)
	gt.String(t, w.Body.String()).Contains(`"findings":[]`)
}

func TestMetrics(t *testing.T) {
	srv, repo := newServer(t)
	gt.NoError(t, repo.Record().SaveWeatherObservations(context.Background(), []*model.WeatherObservation{
		{ID: 1, Location: "Haryana", Temperature: model.Float(20), RecordedOn: time.Now().UTC()},
		{ID: 2, Location: "Haryana", Temperature: model.Float(30), RecordedOn: time.Now().UTC()},
	})).Required()

	w := doRequest(t, srv, http.MethodGet, "/api/metrics?type=weather&location=Haryana&window=7&fields=temperature", "")
	gt.Number(t, w.Code).Equal(http.StatusOK).Required()

	var summary model.Summary
	gt.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary)).Required()
	gt.Value(t, *summary.Metrics["weather.temperature"]).Equal(25.0)
	_, ok := summary.Metrics["weather.humidity"]
	gt.Bool(t, ok).False()

	w = doRequest(t, srv, http.MethodGet, "/api/metrics?type=weather&location=Haryana&window=week", "")
	gt.Number(t, w.Code).Equal(http.StatusBadRequest)
}

func TestMarket(t *testing.T) {
	srv, _ := newServer(t)

	w := doRequest(t, srv, http.MethodPost, "/api/market", `{"region":"North","crop":"potato"}`)
	gt.Number(t, w.Code).Equal(http.StatusOK).Required()

	var report model.MarketReport
	gt.NoError(t, json.Unmarshal(w.Body.Bytes(), &report)).Required()
	gt.String(t, report.Analysis).Contains("## Market Trends\n\ntrend_analysis for potato")
	gt.String(t, report.Analysis).Contains("price_prediction for potato")

	w = doRequest(t, srv, http.MethodPost, "/api/market", `{"crop":"potato"}`)
	gt.Number(t, w.Code).Equal(http.StatusBadRequest)
}

func TestSustainability(t *testing.T) {
	srv, repo := newServer(t)
	gt.NoError(t, repo.Record().SaveFarmingConditions(context.Background(), []*model.FarmingCondition{
		{FarmID: 1, CropType: "rice", SoilPH: model.Float(5.5), RecordedOn: time.Now().UTC()},
	})).Required()

	w := doRequest(t, srv, http.MethodPost, "/api/sustainability", `{"crop":"rice","soil":"clay"}`)
	gt.Number(t, w.Code).Equal(http.StatusOK).Required()

	var report model.SustainabilityReport
	gt.NoError(t, json.Unmarshal(w.Body.Bytes(), &report)).Required()
	gt.Value(t, report.Crop).Equal("rice")
	gt.Value(t, report.SoilType).Equal("clay")
	gt.Value(t, report.Evaluation).Equal("sustainability_evaluation for rice")
	gt.Value(t, *report.Metrics["farming.soil_ph"]).Equal(5.5)

	w = doRequest(t, srv, http.MethodPost, "/api/sustainability", `{"crop":"rice"}`)
	gt.Number(t, w.Code).Equal(http.StatusBadRequest)

	w = doRequest(t, srv, http.MethodPost, "/api/sustainability", `{"crop":`)
	gt.Number(t, w.Code).Equal(http.StatusBadRequest)
}
