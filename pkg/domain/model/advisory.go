package model

import (
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// AdvisoryRequest is the farmer's question as received at the edge
type AdvisoryRequest struct {
	Location          string `json:"location"`
	Crop              string `json:"crop"`
	SoilType          string `json:"soil_type"`
	Season            string `json:"season,omitempty"`
	WaterAvailability string `json:"water_availability,omitempty"`
	PreviousCrop      string `json:"previous_crop,omitempty"`
	PestIssues        string `json:"pest_issues,omitempty"`
}

// AdvisoryInput is everything handed to the advisor collaborator
type AdvisoryInput struct {
	Request  AdvisoryRequest `json:"request"`
	Summary  *Summary        `json:"summary"`
	Findings []*Finding      `json:"findings"`
}

// AdviceSection is the advisor output for one task
type AdviceSection struct {
	Task  AdvisorTask `json:"task"`
	Title string      `json:"title"`
	Text  string      `json:"text"`
}

// AdvisoryResponse is returned to the caller of the advisory operation.
// Advice is the sections joined under their titles.
type AdvisoryResponse struct {
	Advice          string             `json:"advice"`
	Sections        []AdviceSection    `json:"sections,omitempty"`
	Metrics         Metrics            `json:"metrics"`
	Labels          map[string]*string `json:"labels,omitempty"`
	ResearchSources []string           `json:"research_sources"`
}

// MarketReport is the market analysis for a crop in a region
type MarketReport struct {
	Region   string             `json:"region"`
	Crop     string             `json:"crop"`
	Analysis string             `json:"analysis"`
	Sections []AdviceSection    `json:"sections,omitempty"`
	Metrics  Metrics            `json:"metrics"`
	Labels   map[string]*string `json:"labels,omitempty"`
}

// SustainabilityReport is the environmental evaluation of a crop on a soil
type SustainabilityReport struct {
	Crop       string             `json:"crop"`
	SoilType   string             `json:"soil"`
	Evaluation string             `json:"evaluation"`
	Metrics    Metrics            `json:"metrics"`
	Labels     map[string]*string `json:"labels,omitempty"`
}

// AdvisorTask names the kind of text the advisor is asked to produce
type AdvisorTask string

const (
	AdvisorTaskSustainability           AdvisorTask = "sustainability"
	AdvisorTaskPestManagement           AdvisorTask = "pest_management"
	AdvisorTaskResourceOptimization     AdvisorTask = "resource_optimization"
	AdvisorTaskTrendAnalysis            AdvisorTask = "trend_analysis"
	AdvisorTaskDemandForecast           AdvisorTask = "demand_forecast"
	AdvisorTaskPricePrediction          AdvisorTask = "price_prediction"
	AdvisorTaskSustainabilityEvaluation AdvisorTask = "sustainability_evaluation"
)

// Tasks run for one advisory response and one market report, in order
var (
	AdvisoryTasks = []AdvisorTask{
		AdvisorTaskSustainability,
		AdvisorTaskPestManagement,
		AdvisorTaskResourceOptimization,
	}
	MarketTasks = []AdvisorTask{
		AdvisorTaskTrendAnalysis,
		AdvisorTaskDemandForecast,
		AdvisorTaskPricePrediction,
	}
)

var advisorTaskTitles = map[AdvisorTask]string{
	AdvisorTaskSustainability:           "Sustainable Farming Practices",
	AdvisorTaskPestManagement:           "Pest Management",
	AdvisorTaskResourceOptimization:     "Resource Optimization",
	AdvisorTaskTrendAnalysis:            "Market Trends",
	AdvisorTaskDemandForecast:           "Demand Forecast",
	AdvisorTaskPricePrediction:          "Price Outlook",
	AdvisorTaskSustainabilityEvaluation: "Sustainability Evaluation",
}

// Title is the section heading for the task
func (t AdvisorTask) Title() string {
	if title, ok := advisorTaskTitles[t]; ok {
		return title
	}
	return string(t)
}

// ParseAdvisorTask returns the task named s
func ParseAdvisorTask(s string) (AdvisorTask, error) {
	t := AdvisorTask(strings.TrimSpace(s))
	if _, ok := advisorTaskTitles[t]; !ok {
		return "", goerr.New("unknown advisor task", goerr.V("task", s))
	}
	return t, nil
}

// JoinSections renders sections with a heading each. Empty sections are
// omitted; no sections yield the empty string.
func JoinSections(sections []AdviceSection) string {
	parts := make([]string, 0, len(sections))
	for _, s := range sections {
		if strings.TrimSpace(s.Text) == "" {
			continue
		}
		parts = append(parts, "## "+s.Title+"\n\n"+strings.TrimSpace(s.Text))
	}
	return strings.Join(parts, "\n\n")
}

// ModelMapping binds advisor tasks to model names. It is resolved once at
// startup and never changes afterwards.
type ModelMapping map[AdvisorTask]string

// For returns the model for task, or fallback when the task is unmapped
func (m ModelMapping) For(task AdvisorTask, fallback string) string {
	if v, ok := m[task]; ok && v != "" {
		return v
	}
	return fallback
}
