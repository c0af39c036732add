package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/agrilens/agrilens/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
)

type recordRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newRecordRepository(client *firestore.Client) *recordRepository {
	return &recordRepository{client: client}
}

func (r *recordRepository) collection(name string) *firestore.CollectionRef {
	return r.client.Collection(CollectionName(r.collectionPrefix, name))
}

// listRecords reads every document of collection where field equals value and
// RecordedOn is on or after since
func listRecords[T any](ctx context.Context, col *firestore.CollectionRef, field, value string, since time.Time) ([]*T, error) {
	iter := col.
		Where(field, "==", value).
		Where("RecordedOn", ">=", since).
		OrderBy("RecordedOn", firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	result := make([]*T, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate records",
				goerr.V("collection", col.ID), goerr.V(field, value))
		}

		var rec T
		if err := doc.DataTo(&rec); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal record", goerr.V("docID", doc.Ref.ID))
		}
		result = append(result, &rec)
	}
	return result, nil
}

func saveRecords[T any](ctx context.Context, client *firestore.Client, col *firestore.CollectionRef, records []*T) error {
	if len(records) == 0 {
		return nil
	}

	bw := client.BulkWriter(ctx)
	jobs := make([]*firestore.BulkWriterJob, 0, len(records))
	for _, rec := range records {
		job, err := bw.Create(col.NewDoc(), rec)
		if err != nil {
			bw.End()
			return goerr.Wrap(err, "failed to enqueue record", goerr.V("collection", col.ID))
		}
		jobs = append(jobs, job)
	}
	bw.End()

	for _, job := range jobs {
		if _, err := job.Results(); err != nil {
			return goerr.Wrap(err, "failed to write record", goerr.V("collection", col.ID))
		}
	}
	return nil
}

func (r *recordRepository) ListFarmingConditions(ctx context.Context, cropType string, since time.Time) ([]*model.FarmingCondition, error) {
	return listRecords[model.FarmingCondition](ctx, r.collection(CollectionFarming), "CropType", cropType, since)
}

func (r *recordRepository) ListMarketConditions(ctx context.Context, product string, since time.Time) ([]*model.MarketCondition, error) {
	return listRecords[model.MarketCondition](ctx, r.collection(CollectionMarket), "Product", product, since)
}

func (r *recordRepository) ListWeatherObservations(ctx context.Context, location string, since time.Time) ([]*model.WeatherObservation, error) {
	return listRecords[model.WeatherObservation](ctx, r.collection(CollectionWeather), "Location", location, since)
}

func (r *recordRepository) SaveFarmingConditions(ctx context.Context, records []*model.FarmingCondition) error {
	docs := make([]*model.FarmingCondition, 0, len(records))
	for _, rec := range records {
		c := *rec
		c.RecordedOn = truncateDay(c.RecordedOn)
		docs = append(docs, &c)
	}
	return saveRecords(ctx, r.client, r.collection(CollectionFarming), docs)
}

func (r *recordRepository) SaveMarketConditions(ctx context.Context, records []*model.MarketCondition) error {
	docs := make([]*model.MarketCondition, 0, len(records))
	for _, rec := range records {
		c := *rec
		c.RecordedOn = truncateDay(c.RecordedOn)
		docs = append(docs, &c)
	}
	return saveRecords(ctx, r.client, r.collection(CollectionMarket), docs)
}

func (r *recordRepository) SaveWeatherObservations(ctx context.Context, records []*model.WeatherObservation) error {
	docs := make([]*model.WeatherObservation, 0, len(records))
	for _, rec := range records {
		c := *rec
		c.RecordedOn = truncateDay(c.RecordedOn)
		docs = append(docs, &c)
	}
	return saveRecords(ctx, r.client, r.collection(CollectionWeather), docs)
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
