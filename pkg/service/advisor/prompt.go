package advisor

import (
	"fmt"
	"strings"

	"github.com/agrilens/agrilens/pkg/domain/model"
)

const (
	maxPromptFindings     = 3
	maxPromptFindingRunes = 200
)

var systemPrompts = map[model.AdvisorTask]string{
	model.AdvisorTaskSustainability:           "You are a sustainable farming expert specializing in eco-friendly agricultural practices. Provide concise, actionable advice.",
	model.AdvisorTaskPestManagement:           "You are an expert in agricultural pest management and control. Provide concise, actionable advice.",
	model.AdvisorTaskResourceOptimization:     "You are an expert in agricultural resource optimization and efficiency. Provide concise, actionable advice.",
	model.AdvisorTaskTrendAnalysis:            "You are a market trend analyst specializing in agricultural products.",
	model.AdvisorTaskDemandForecast:           "You are a demand forecasting specialist for agricultural products.",
	model.AdvisorTaskPricePrediction:          "You are a price prediction specialist for agricultural products.",
	model.AdvisorTaskSustainabilityEvaluation: "You are a sustainability evaluator for agricultural production.",
}

// SystemPrompt returns the instruction for task
func SystemPrompt(task model.AdvisorTask) string {
	return systemPrompts[task]
}

// UserPrompt renders input for task
func UserPrompt(task model.AdvisorTask, input *model.AdvisoryInput) string {
	switch task {
	case model.AdvisorTaskPestManagement:
		return pestPrompt(input)
	case model.AdvisorTaskResourceOptimization:
		return resourcePrompt(input)
	case model.AdvisorTaskTrendAnalysis:
		return trendPrompt(input)
	case model.AdvisorTaskDemandForecast:
		return demandPrompt(input)
	case model.AdvisorTaskPricePrediction:
		return pricePrompt(input)
	case model.AdvisorTaskSustainabilityEvaluation:
		return evaluationPrompt(input)
	default:
		return sustainabilityPrompt(input)
	}
}

func sustainabilityPrompt(input *model.AdvisoryInput) string {
	req := input.Request
	var b strings.Builder

	fmt.Fprintf(&b, "Provide concise and actionable advice for %s cultivation in %s with %s soil.\n",
		req.Crop, req.Location, req.SoilType)
	writeOptional(&b, "Season", req.Season)
	writeOptional(&b, "Water availability", req.WaterAvailability)
	writeOptional(&b, "Previous crop", req.PreviousCrop)

	b.WriteString("\nCurrent metrics:\n")
	writeMetric(&b, input.Summary, "Sustainability score", "farming.sustainability_score", "")
	writeMetric(&b, input.Summary, "Fertilizer usage", "farming.fertilizer_usage", " kg/ha")
	writeMetric(&b, input.Summary, "Pesticide usage", "farming.pesticide_usage", " kg/ha")
	writeMetric(&b, input.Summary, "Crop yield", "farming.crop_yield", " tons/ha")
	writeMetric(&b, input.Summary, "Current temperature", model.MetricCurrentTemperature, " °C")

	b.WriteString("\nResearch findings:\n")
	b.WriteString(formatFindings(input.Findings))

	b.WriteString(`
Focus on:
1. Sustainable farming practices
2. Soil health improvement
3. Resource optimization
4. Environmental impact reduction

Answer in clear bullet points with specific recommendations.`)
	return b.String()
}

func pestPrompt(input *model.AdvisoryInput) string {
	req := input.Request
	var b strings.Builder

	fmt.Fprintf(&b, "Provide concise pest management advice for %s cultivation.\n", req.Crop)
	pests := req.PestIssues
	if pests == "" {
		pests = "None specified"
	}
	fmt.Fprintf(&b, "Known pest issues: %s\n", pests)
	writeMetric(&b, input.Summary, "Pesticide usage", "farming.pesticide_usage", " kg/ha")

	b.WriteString("\nResearch findings:\n")
	b.WriteString(formatFindings(input.Findings))

	b.WriteString(`
Focus on:
1. Integrated Pest Management (IPM) strategies
2. Natural pest control methods
3. Preventive measures
4. Treatment options

Answer in clear bullet points with specific recommendations.`)
	return b.String()
}

func resourcePrompt(input *model.AdvisoryInput) string {
	req := input.Request
	var b strings.Builder

	fmt.Fprintf(&b, "Provide concise resource optimization advice for %s cultivation in %s.\n", req.Crop, req.Location)
	writeOptional(&b, "Water availability", req.WaterAvailability)

	b.WriteString("\nCurrent metrics:\n")
	writeMetric(&b, input.Summary, "Soil moisture", "farming.soil_moisture", "")
	writeMetric(&b, input.Summary, "Rainfall", "weather.rainfall", " mm")
	writeMetric(&b, input.Summary, "Fertilizer usage", "farming.fertilizer_usage", " kg/ha")
	writeMetric(&b, input.Summary, "Current temperature", model.MetricCurrentTemperature, " °C")

	b.WriteString(`
Focus on:
1. Water conservation techniques
2. Energy efficiency
3. Resource allocation
4. Cost optimization

Answer in clear bullet points with specific recommendations.`)
	return b.String()
}

func trendPrompt(input *model.AdvisoryInput) string {
	req := input.Request
	var b strings.Builder

	fmt.Fprintf(&b, "Analyze the market trends for %s in %s based on the following metrics:\n", req.Crop, req.Location)
	writeMetric(&b, input.Summary, "Average price", "market.market_price", "")
	writeMetric(&b, input.Summary, "Average demand", "market.demand_index", "")
	writeMetric(&b, input.Summary, "Average supply", "market.supply_index", "")
	writeLabel(&b, input.Summary, "Trending season", model.MetricTrendingSeason)

	b.WriteString(`
Provide insights about:
1. Price trends and volatility
2. Supply-demand dynamics
3. Seasonal patterns
4. Market opportunities`)
	return b.String()
}

func demandPrompt(input *model.AdvisoryInput) string {
	req := input.Request
	var b strings.Builder

	fmt.Fprintf(&b, "Forecast demand for %s in %s based on:\n", req.Crop, req.Location)
	writeMetric(&b, input.Summary, "Current demand index", "market.demand_index", "")
	writeMetric(&b, input.Summary, "Consumer trend", model.MetricConsumerTrend, "")
	writeLabel(&b, input.Summary, "Trending season", model.MetricTrendingSeason)

	b.WriteString(`
Provide:
1. Short-term demand forecast
2. Factors affecting demand
3. Risk factors`)
	return b.String()
}

func pricePrompt(input *model.AdvisoryInput) string {
	req := input.Request
	var b strings.Builder

	fmt.Fprintf(&b, "Predict prices for %s in %s based on:\n", req.Crop, req.Location)
	writeMetric(&b, input.Summary, "Current price", "market.market_price", "")
	writeMetric(&b, input.Summary, "Competitor price", "market.competitor_price", "")
	writeMetric(&b, input.Summary, "Weather impact", "market.weather_impact_score", "")

	b.WriteString(`
Provide:
1. Price range prediction
2. Factors affecting price
3. Competitor analysis`)
	return b.String()
}

func evaluationPrompt(input *model.AdvisoryInput) string {
	req := input.Request
	var b strings.Builder

	fmt.Fprintf(&b, "Evaluate growing %s on %s soil.\n", req.Crop, req.SoilType)
	b.WriteString("\nRecent farming metrics:\n")
	writeMetric(&b, input.Summary, "Sustainability score", "farming.sustainability_score", "")
	writeMetric(&b, input.Summary, "Fertilizer usage", "farming.fertilizer_usage", " kg/ha")
	writeMetric(&b, input.Summary, "Pesticide usage", "farming.pesticide_usage", " kg/ha")
	writeMetric(&b, input.Summary, "Crop yield", "farming.crop_yield", " tons/ha")

	b.WriteString(`
Estimate the expected carbon footprint, water usage and environmental impact
of this crop and soil combination, and name the main levers to reduce them.`)
	return b.String()
}

func writeOptional(b *strings.Builder, label, value string) {
	if value != "" {
		fmt.Fprintf(b, "%s: %s\n", label, value)
	}
}

// writeMetric prints N/A for absent values; absence is never rendered as 0
func writeMetric(b *strings.Builder, s *model.Summary, label, name, unit string) {
	if s == nil || s.Metrics[name] == nil {
		fmt.Fprintf(b, "- %s: N/A\n", label)
		return
	}
	fmt.Fprintf(b, "- %s: %.2f%s\n", label, *s.Metrics[name], unit)
}

func writeLabel(b *strings.Builder, s *model.Summary, label, name string) {
	value := "N/A"
	if s != nil {
		if v := s.Labels[name]; v != nil {
			value = *v
		}
	}
	fmt.Fprintf(b, "- %s: %s\n", label, value)
}

func formatFindings(findings []*model.Finding) string {
	if len(findings) == 0 {
		return "No recent research findings available.\n"
	}

	var b strings.Builder
	for i, f := range findings {
		if i >= maxPromptFindings {
			break
		}
		content := []rune(f.Content)
		if len(content) > maxPromptFindingRunes {
			content = append(content[:maxPromptFindingRunes], []rune("...")...)
		}
		fmt.Fprintf(&b, "- %s: %s (%s)\n", f.Title, string(content), f.Source)
	}
	return b.String()
}
