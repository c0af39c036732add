package memory

import (
	"context"
	"sync"
	"time"

	"github.com/agrilens/agrilens/pkg/domain/model"
)

type recordRepository struct {
	mu      sync.RWMutex
	farming []*model.FarmingCondition
	market  []*model.MarketCondition
	weather []*model.WeatherObservation
}

func newRecordRepository() *recordRepository {
	return &recordRepository{}
}

func inWindow(recordedOn, since time.Time) bool {
	return !recordedOn.Before(since)
}

func (r *recordRepository) ListFarmingConditions(ctx context.Context, cropType string, since time.Time) ([]*model.FarmingCondition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*model.FarmingCondition, 0)
	for _, rec := range r.farming {
		if rec.CropType == cropType && inWindow(rec.RecordedOn, since) {
			c := *rec
			result = append(result, &c)
		}
	}
	return result, nil
}

func (r *recordRepository) ListMarketConditions(ctx context.Context, product string, since time.Time) ([]*model.MarketCondition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*model.MarketCondition, 0)
	for _, rec := range r.market {
		if rec.Product == product && inWindow(rec.RecordedOn, since) {
			c := *rec
			result = append(result, &c)
		}
	}
	return result, nil
}

func (r *recordRepository) ListWeatherObservations(ctx context.Context, location string, since time.Time) ([]*model.WeatherObservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*model.WeatherObservation, 0)
	for _, rec := range r.weather {
		if rec.Location == location && inWindow(rec.RecordedOn, since) {
			c := *rec
			result = append(result, &c)
		}
	}
	return result, nil
}

func (r *recordRepository) SaveFarmingConditions(ctx context.Context, records []*model.FarmingCondition) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, rec := range records {
		c := *rec
		c.RecordedOn = truncateDay(c.RecordedOn)
		r.farming = append(r.farming, &c)
	}
	return nil
}

func (r *recordRepository) SaveMarketConditions(ctx context.Context, records []*model.MarketCondition) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, rec := range records {
		c := *rec
		c.RecordedOn = truncateDay(c.RecordedOn)
		r.market = append(r.market, &c)
	}
	return nil
}

func (r *recordRepository) SaveWeatherObservations(ctx context.Context, records []*model.WeatherObservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, rec := range records {
		c := *rec
		c.RecordedOn = truncateDay(c.RecordedOn)
		r.weather = append(r.weather, &c)
	}
	return nil
}

// truncateDay matches the date granularity of the SQL backends
func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
