package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/agrilens/agrilens/pkg/domain/model"
	"github.com/agrilens/agrilens/pkg/domain/types"
	"github.com/agrilens/agrilens/pkg/usecase"
	"github.com/agrilens/agrilens/pkg/utils/errutil"
	"github.com/agrilens/agrilens/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// defaultMetricsWindow is used when /api/metrics has no window parameter
const defaultMetricsWindow = 30

// maxRequestBody caps JSON request bodies
const maxRequestBody = 1 << 20

// statusOf maps use case errors to HTTP status codes
func statusOf(err error) int {
	switch {
	case errors.Is(err, usecase.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, usecase.ErrAdvisorFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.From(r.Context()).Error("failed to write response", "error", err.Error())
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err := dec.Decode(v); err != nil {
		return goerr.Wrap(errors.Join(usecase.ErrInvalidRequest, err), "failed to decode request body")
	}
	return nil
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, map[string]string{"status": "ok"})
}

func (s *Server) adviceHandler(w http.ResponseWriter, r *http.Request) {
	var req model.AdvisoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		errutil.HandleHTTP(r.Context(), w, err, http.StatusBadRequest)
		return
	}

	resp, err := s.uc.Advise.Advise(r.Context(), req)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, statusOf(err))
		return
	}
	writeJSON(w, r, resp)
}

type researchResponse struct {
	Topic           model.Topic           `json:"topic"`
	State           usecase.ResearchState `json:"state"`
	Findings        []*model.Finding      `json:"findings"`
	ResearchSources []string              `json:"research_sources"`
}

func (s *Server) researchHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	result, err := s.uc.Research.Research(r.Context(), q.Get("crop"), q.Get("location"))
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, statusOf(err))
		return
	}

	writeJSON(w, r, researchResponse{
		Topic:           result.Topic,
		State:           result.State,
		Findings:        result.Findings,
		ResearchSources: result.Sources(),
	})
}

func (s *Server) metricsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	windowDays := defaultMetricsWindow
	if v := q.Get("window"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errutil.HandleHTTP(r.Context(), w,
				goerr.Wrap(usecase.ErrInvalidRequest, "window must be an integer", goerr.V("window", v)),
				http.StatusBadRequest)
			return
		}
		windowDays = n
	}

	var fields []string
	if v := q.Get("fields"); v != "" {
		for _, f := range strings.Split(v, ",") {
			if f = strings.TrimSpace(f); f != "" {
				fields = append(fields, f)
			}
		}
	}

	filter := model.Filter{
		CropType: q.Get("crop"),
		Product:  q.Get("product"),
		Location: q.Get("location"),
	}
	summary, err := s.uc.MetricsWindow.Aggregate(r.Context(), types.RecordType(q.Get("type")), filter, windowDays, fields...)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, statusOf(err))
		return
	}
	writeJSON(w, r, summary)
}

type marketRequest struct {
	Region string `json:"region"`
	Crop   string `json:"crop"`
}

func (s *Server) marketHandler(w http.ResponseWriter, r *http.Request) {
	var req marketRequest
	if err := decodeJSON(w, r, &req); err != nil {
		errutil.HandleHTTP(r.Context(), w, err, http.StatusBadRequest)
		return
	}

	report, err := s.uc.Advise.MarketReport(r.Context(), req.Region, req.Crop)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, statusOf(err))
		return
	}
	writeJSON(w, r, report)
}

type sustainabilityRequest struct {
	Crop string `json:"crop"`
	Soil string `json:"soil"`
}

func (s *Server) sustainabilityHandler(w http.ResponseWriter, r *http.Request) {
	var req sustainabilityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		errutil.HandleHTTP(r.Context(), w, err, http.StatusBadRequest)
		return
	}

	report, err := s.uc.Advise.EvaluateSustainability(r.Context(), req.Crop, req.Soil)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, statusOf(err))
		return
	}
	writeJSON(w, r, report)
}
