package metrics

import (
	"sort"

	"github.com/agrilens/agrilens/pkg/domain/model"
	"github.com/agrilens/agrilens/pkg/domain/types"
)

// Estimator produces derived metrics from the rows of a window. Every name
// returned by Names must be present in the summary, nil when it cannot be
// estimated.
type Estimator interface {
	Names(rt types.RecordType) []string
	Estimate(rt types.RecordType, records *Records) *model.Summary
}

// DefaultEstimator derives:
//   - market.trending_season: most frequent seasonal factor, ties broken by
//     lexical order
//   - market.consumer_trend: mean consumer trend index clamped to [0, 1]
//   - weather.current_temperature: temperature of the latest observation
type DefaultEstimator struct{}

var _ Estimator = &DefaultEstimator{}

func (x *DefaultEstimator) Names(rt types.RecordType) []string {
	switch rt {
	case types.RecordTypeMarket:
		return []string{model.MetricTrendingSeason, model.MetricConsumerTrend}
	case types.RecordTypeWeather:
		return []string{model.MetricCurrentTemperature}
	default:
		return nil
	}
}

func (x *DefaultEstimator) Estimate(rt types.RecordType, records *Records) *model.Summary {
	summary := model.NewSummary()
	switch rt {
	case types.RecordTypeMarket:
		summary.Labels[model.MetricTrendingSeason] = trendingSeason(records.Market)
		summary.Metrics[model.MetricConsumerTrend] = consumerTrend(records.Market)
	case types.RecordTypeWeather:
		summary.Metrics[model.MetricCurrentTemperature] = currentTemperature(records.Weather)
	}
	return summary
}

func trendingSeason(rows []*model.MarketCondition) *string {
	counts := make(map[string]int)
	for _, r := range rows {
		if r.SeasonalFactor != "" {
			counts[r.SeasonalFactor]++
		}
	}
	if len(counts) == 0 {
		return nil
	}

	seasons := make([]string, 0, len(counts))
	for s := range counts {
		seasons = append(seasons, s)
	}
	sort.Strings(seasons)

	best := seasons[0]
	for _, s := range seasons[1:] {
		if counts[s] > counts[best] {
			best = s
		}
	}
	return &best
}

func consumerTrend(rows []*model.MarketCondition) *float64 {
	fs := make([]fielder, 0, len(rows))
	for _, r := range rows {
		fs = append(fs, r)
	}
	v := meanOf(fs, "consumer_trend_index")
	if v == nil {
		return nil
	}
	clamped := min(max(*v, 0), 1)
	return &clamped
}

func currentTemperature(rows []*model.WeatherObservation) *float64 {
	var latest *model.WeatherObservation
	for _, r := range rows {
		if latest == nil || !r.RecordedOn.Before(latest.RecordedOn) {
			latest = r
		}
	}
	if latest == nil || latest.Temperature == nil {
		return nil
	}
	v := *latest.Temperature
	return &v
}
