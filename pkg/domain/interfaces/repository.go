package interfaces

import (
	"context"
	"time"

	"github.com/agrilens/agrilens/pkg/domain/model"
)

// Repository bundles the persistence needed by the pipeline
type Repository interface {
	Finding() FindingRepository
	Record() RecordRepository

	// Close releases the underlying storage handle
	Close() error
}

// FindingRepository persists research findings
type FindingRepository interface {
	// Lookup returns findings for topic with CollectedAt strictly after since,
	// ordered by CollectedAt then ID
	Lookup(ctx context.Context, topic model.Topic, since time.Time) ([]*model.Finding, error)

	// Insert stores finding unless one with the same (topic, source, content)
	// already exists, in which case it does nothing and returns nil
	Insert(ctx context.Context, finding *model.Finding) error
}

// RecordRepository reads structured records within a time window. Rows with
// RecordedOn on or after since are returned.
type RecordRepository interface {
	ListFarmingConditions(ctx context.Context, cropType string, since time.Time) ([]*model.FarmingCondition, error)
	ListMarketConditions(ctx context.Context, product string, since time.Time) ([]*model.MarketCondition, error)
	ListWeatherObservations(ctx context.Context, location string, since time.Time) ([]*model.WeatherObservation, error)

	SaveFarmingConditions(ctx context.Context, records []*model.FarmingCondition) error
	SaveMarketConditions(ctx context.Context, records []*model.MarketCondition) error
	SaveWeatherObservations(ctx context.Context, records []*model.WeatherObservation) error
}
