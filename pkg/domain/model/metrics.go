package model

import (
	"sort"

	"github.com/agrilens/agrilens/pkg/domain/types"
)

// Metrics maps a type-qualified metric name to its value. A nil value means
// there was no data in the window; it must never be read as zero.
type Metrics map[string]*float64

// Summary is the result of aggregating one or more record windows
type Summary struct {
	Metrics Metrics            `json:"metrics"`
	Labels  map[string]*string `json:"labels,omitempty"`
}

// NewSummary returns an empty summary with initialized maps
func NewSummary() *Summary {
	return &Summary{
		Metrics: Metrics{},
		Labels:  map[string]*string{},
	}
}

// Merge copies every entry of other into s. Names are type-qualified, so
// windows of different record types never overwrite each other.
func (s *Summary) Merge(other *Summary) {
	if other == nil {
		return
	}
	if s.Metrics == nil {
		s.Metrics = Metrics{}
	}
	if s.Labels == nil {
		s.Labels = map[string]*string{}
	}
	for k, v := range other.Metrics {
		s.Metrics[k] = v
	}
	for k, v := range other.Labels {
		s.Labels[k] = v
	}
}

// Names returns the metric names in sorted order
func (m Metrics) Names() []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// MetricName returns the type-qualified name of a field
func MetricName(rt types.RecordType, field string) string {
	return rt.String() + "." + field
}

// Numeric field names per record type, in column order
var (
	FarmingFields = []string{
		"soil_ph",
		"soil_moisture",
		"temperature",
		"rainfall",
		"fertilizer_usage",
		"pesticide_usage",
		"crop_yield",
		"sustainability_score",
	}
	MarketFields = []string{
		"market_price",
		"demand_index",
		"supply_index",
		"competitor_price",
		"economic_indicator",
		"weather_impact_score",
		"consumer_trend_index",
	}
	WeatherFields = []string{
		"temperature",
		"humidity",
		"rainfall",
		"wind_speed",
	}
)

// Derived metric names
const (
	MetricTrendingSeason     = "market.trending_season"
	MetricConsumerTrend      = "market.consumer_trend"
	MetricCurrentTemperature = "weather.current_temperature"
)

// FieldsOf returns the numeric field names of a record type
func FieldsOf(rt types.RecordType) []string {
	switch rt {
	case types.RecordTypeFarming:
		return FarmingFields
	case types.RecordTypeMarket:
		return MarketFields
	case types.RecordTypeWeather:
		return WeatherFields
	default:
		return nil
	}
}

// Field returns the named numeric field of a farming row
func (r *FarmingCondition) Field(name string) (*float64, bool) {
	switch name {
	case "soil_ph":
		return r.SoilPH, true
	case "soil_moisture":
		return r.SoilMoisture, true
	case "temperature":
		return r.Temperature, true
	case "rainfall":
		return r.Rainfall, true
	case "fertilizer_usage":
		return r.FertilizerUsage, true
	case "pesticide_usage":
		return r.PesticideUsage, true
	case "crop_yield":
		return r.CropYield, true
	case "sustainability_score":
		return r.SustainabilityScore, true
	}
	return nil, false
}

// Field returns the named numeric field of a market row
func (r *MarketCondition) Field(name string) (*float64, bool) {
	switch name {
	case "market_price":
		return r.MarketPrice, true
	case "demand_index":
		return r.DemandIndex, true
	case "supply_index":
		return r.SupplyIndex, true
	case "competitor_price":
		return r.CompetitorPrice, true
	case "economic_indicator":
		return r.EconomicIndicator, true
	case "weather_impact_score":
		return r.WeatherImpactScore, true
	case "consumer_trend_index":
		return r.ConsumerTrendIndex, true
	}
	return nil, false
}

// Field returns the named numeric field of a weather row
func (r *WeatherObservation) Field(name string) (*float64, bool) {
	switch name {
	case "temperature":
		return r.Temperature, true
	case "humidity":
		return r.Humidity, true
	case "rainfall":
		return r.Rainfall, true
	case "wind_speed":
		return r.WindSpeed, true
	}
	return nil, false
}
