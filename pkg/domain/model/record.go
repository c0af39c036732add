package model

import (
	"time"

	"github.com/agrilens/agrilens/pkg/domain/types"
)

// DateLayout is the calendar date format used by record tables
const DateLayout = "2006-01-02"

// FarmingCondition is one row of farm telemetry. Nil fields are absent, not zero.
type FarmingCondition struct {
	FarmID              int64     `json:"farm_id" db:"farm_id" firestore:"FarmID"`
	CropType            string    `json:"crop_type" db:"crop_type" firestore:"CropType"`
	SoilPH              *float64  `json:"soil_ph" db:"soil_ph" firestore:"SoilPH"`
	SoilMoisture        *float64  `json:"soil_moisture" db:"soil_moisture" firestore:"SoilMoisture"`
	Temperature         *float64  `json:"temperature" db:"temperature" firestore:"Temperature"`
	Rainfall            *float64  `json:"rainfall" db:"rainfall" firestore:"Rainfall"`
	FertilizerUsage     *float64  `json:"fertilizer_usage" db:"fertilizer_usage" firestore:"FertilizerUsage"`
	PesticideUsage      *float64  `json:"pesticide_usage" db:"pesticide_usage" firestore:"PesticideUsage"`
	CropYield           *float64  `json:"crop_yield" db:"crop_yield" firestore:"CropYield"`
	SustainabilityScore *float64  `json:"sustainability_score" db:"sustainability_score" firestore:"SustainabilityScore"`
	RecordedOn          time.Time `json:"recorded_on" db:"-" firestore:"RecordedOn"`
}

// MarketCondition is one row of market observations for a product
type MarketCondition struct {
	MarketID           int64     `json:"market_id" db:"market_id" firestore:"MarketID"`
	Product            string    `json:"product" db:"product" firestore:"Product"`
	MarketPrice        *float64  `json:"market_price" db:"market_price" firestore:"MarketPrice"`
	DemandIndex        *float64  `json:"demand_index" db:"demand_index" firestore:"DemandIndex"`
	SupplyIndex        *float64  `json:"supply_index" db:"supply_index" firestore:"SupplyIndex"`
	CompetitorPrice    *float64  `json:"competitor_price" db:"competitor_price" firestore:"CompetitorPrice"`
	EconomicIndicator  *float64  `json:"economic_indicator" db:"economic_indicator" firestore:"EconomicIndicator"`
	WeatherImpactScore *float64  `json:"weather_impact_score" db:"weather_impact_score" firestore:"WeatherImpactScore"`
	SeasonalFactor     string    `json:"seasonal_factor" db:"seasonal_factor" firestore:"SeasonalFactor"`
	ConsumerTrendIndex *float64  `json:"consumer_trend_index" db:"consumer_trend_index" firestore:"ConsumerTrendIndex"`
	RecordedOn         time.Time `json:"recorded_on" db:"-" firestore:"RecordedOn"`
}

// WeatherObservation is one daily weather reading for a location
type WeatherObservation struct {
	ID          int64     `json:"id" db:"id" firestore:"ID"`
	Location    string    `json:"location" db:"location" firestore:"Location"`
	Temperature *float64  `json:"temperature" db:"temperature" firestore:"Temperature"`
	Humidity    *float64  `json:"humidity" db:"humidity" firestore:"Humidity"`
	Rainfall    *float64  `json:"rainfall" db:"rainfall" firestore:"Rainfall"`
	WindSpeed   *float64  `json:"wind_speed" db:"wind_speed" firestore:"WindSpeed"`
	Conditions  string    `json:"conditions" db:"conditions" firestore:"Conditions"`
	RecordedOn  time.Time `json:"recorded_on" db:"-" firestore:"RecordedOn"`
}

// Filter selects structured records. Which field is consulted depends on the
// record type; see RequiredFilter.
type Filter struct {
	CropType string `json:"crop_type,omitempty"`
	Product  string `json:"product,omitempty"`
	Location string `json:"location,omitempty"`
}

// Key returns the filter value that scopes the given record type. An empty
// result means the filter cannot be resolved for that type.
func (f Filter) Key(rt types.RecordType) string {
	switch rt {
	case types.RecordTypeFarming:
		return f.CropType
	case types.RecordTypeMarket:
		return f.Product
	case types.RecordTypeWeather:
		return f.Location
	default:
		return ""
	}
}

// StartOfWindow returns the first calendar day (UTC midnight) included in a
// window of windowDays ending at now.
func StartOfWindow(now time.Time, windowDays int) time.Time {
	y, m, d := now.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -windowDays)
}

// Float returns a pointer to v, for building records
func Float(v float64) *float64 {
	return &v
}
