package rdb

import (
	"context"
	"time"

	"github.com/agrilens/agrilens/pkg/domain/model"
	"github.com/agrilens/agrilens/pkg/domain/types"
	"github.com/agrilens/agrilens/pkg/utils/safe"
	"github.com/jmoiron/sqlx"
	"github.com/m-mizutani/goerr/v2"
)

type recordRepository struct {
	db *sqlx.DB
}

type farmingRow struct {
	model.FarmingCondition
	DateRecorded dbTime `db:"date_recorded"`
}

type marketRow struct {
	model.MarketCondition
	DateRecorded dbTime `db:"date_recorded"`
}

type weatherRow struct {
	model.WeatherObservation
	Date dbTime `db:"date"`
}

const listFarmingSQL = `
SELECT farm_id, COALESCE(crop_type, '') AS crop_type, soil_ph, soil_moisture, temperature, rainfall,
       fertilizer_usage, pesticide_usage, crop_yield, sustainability_score, date_recorded
FROM farming_conditions
WHERE crop_type = ? AND date_recorded >= ?
ORDER BY date_recorded, farm_id`

const listMarketSQL = `
SELECT market_id, COALESCE(product, '') AS product, market_price, demand_index, supply_index,
       competitor_price, economic_indicator, weather_impact_score,
       COALESCE(seasonal_factor, '') AS seasonal_factor, consumer_trend_index, date_recorded
FROM market_conditions
WHERE product = ? AND date_recorded >= ?
ORDER BY date_recorded, market_id`

const listWeatherSQL = `
SELECT id, location, temperature, humidity, rainfall, wind_speed,
       COALESCE(conditions, '') AS conditions, date
FROM weather_forecast
WHERE location = ? AND date >= ?
ORDER BY date, id`

func (r *recordRepository) ListFarmingConditions(ctx context.Context, cropType string, since time.Time) ([]*model.FarmingCondition, error) {
	var rows []farmingRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(listFarmingSQL), cropType, dateArg(since)); err != nil {
		return nil, goerr.Wrap(err, "failed to list farming conditions",
			goerr.V(model.RecordTypeKey, types.RecordTypeFarming), goerr.V("crop_type", cropType))
	}

	result := make([]*model.FarmingCondition, 0, len(rows))
	for i := range rows {
		rec := rows[i].FarmingCondition
		rec.RecordedOn = rows[i].DateRecorded.Time
		result = append(result, &rec)
	}
	return result, nil
}

func (r *recordRepository) ListMarketConditions(ctx context.Context, product string, since time.Time) ([]*model.MarketCondition, error) {
	var rows []marketRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(listMarketSQL), product, dateArg(since)); err != nil {
		return nil, goerr.Wrap(err, "failed to list market conditions",
			goerr.V(model.RecordTypeKey, types.RecordTypeMarket), goerr.V("product", product))
	}

	result := make([]*model.MarketCondition, 0, len(rows))
	for i := range rows {
		rec := rows[i].MarketCondition
		rec.RecordedOn = rows[i].DateRecorded.Time
		result = append(result, &rec)
	}
	return result, nil
}

func (r *recordRepository) ListWeatherObservations(ctx context.Context, location string, since time.Time) ([]*model.WeatherObservation, error) {
	var rows []weatherRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(listWeatherSQL), location, dateArg(since)); err != nil {
		return nil, goerr.Wrap(err, "failed to list weather observations",
			goerr.V(model.RecordTypeKey, types.RecordTypeWeather), goerr.V("location", location))
	}

	result := make([]*model.WeatherObservation, 0, len(rows))
	for i := range rows {
		rec := rows[i].WeatherObservation
		rec.RecordedOn = rows[i].Date.Time
		result = append(result, &rec)
	}
	return result, nil
}

func (r *recordRepository) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return goerr.Wrap(err, "failed to begin transaction")
	}
	committed := false
	defer safe.Rollback(ctx, tx, &committed)

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return goerr.Wrap(err, "failed to commit transaction")
	}
	committed = true
	return nil
}

const insertFarmingSQL = `
INSERT INTO farming_conditions (crop_type, soil_ph, soil_moisture, temperature, rainfall,
    fertilizer_usage, pesticide_usage, crop_yield, sustainability_score, date_recorded)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (r *recordRepository) SaveFarmingConditions(ctx context.Context, records []*model.FarmingCondition) error {
	return r.inTx(ctx, func(tx *sqlx.Tx) error {
		query := tx.Rebind(insertFarmingSQL)
		for _, rec := range records {
			if _, err := tx.ExecContext(ctx, query,
				rec.CropType, rec.SoilPH, rec.SoilMoisture, rec.Temperature, rec.Rainfall,
				rec.FertilizerUsage, rec.PesticideUsage, rec.CropYield, rec.SustainabilityScore,
				dateArg(rec.RecordedOn)); err != nil {
				return goerr.Wrap(err, "failed to insert farming condition", goerr.V("crop_type", rec.CropType))
			}
		}
		return nil
	})
}

const insertMarketSQL = `
INSERT INTO market_conditions (product, market_price, demand_index, supply_index, competitor_price,
    economic_indicator, weather_impact_score, seasonal_factor, consumer_trend_index, date_recorded)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (r *recordRepository) SaveMarketConditions(ctx context.Context, records []*model.MarketCondition) error {
	return r.inTx(ctx, func(tx *sqlx.Tx) error {
		query := tx.Rebind(insertMarketSQL)
		for _, rec := range records {
			if _, err := tx.ExecContext(ctx, query,
				rec.Product, rec.MarketPrice, rec.DemandIndex, rec.SupplyIndex, rec.CompetitorPrice,
				rec.EconomicIndicator, rec.WeatherImpactScore, rec.SeasonalFactor, rec.ConsumerTrendIndex,
				dateArg(rec.RecordedOn)); err != nil {
				return goerr.Wrap(err, "failed to insert market condition", goerr.V("product", rec.Product))
			}
		}
		return nil
	})
}

const insertWeatherSQL = `
INSERT INTO weather_forecast (location, date, temperature, humidity, rainfall, wind_speed, conditions)
VALUES (?, ?, ?, ?, ?, ?, ?)`

func (r *recordRepository) SaveWeatherObservations(ctx context.Context, records []*model.WeatherObservation) error {
	return r.inTx(ctx, func(tx *sqlx.Tx) error {
		query := tx.Rebind(insertWeatherSQL)
		for _, rec := range records {
			if _, err := tx.ExecContext(ctx, query,
				rec.Location, dateArg(rec.RecordedOn), rec.Temperature, rec.Humidity, rec.Rainfall,
				rec.WindSpeed, rec.Conditions); err != nil {
				return goerr.Wrap(err, "failed to insert weather observation", goerr.V("location", rec.Location))
			}
		}
		return nil
	})
}
