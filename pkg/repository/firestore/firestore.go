package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/agrilens/agrilens/pkg/domain/interfaces"
	"github.com/m-mizutani/goerr/v2"
)

// Collection names, before prefixing
const (
	CollectionFindings = "research_findings"
	CollectionFarming  = "farming_conditions"
	CollectionMarket   = "market_conditions"
	CollectionWeather  = "weather_forecast"
)

type Firestore struct {
	client  *firestore.Client
	finding *findingRepository
	record  *recordRepository
}

var _ interfaces.Repository = &Firestore{}

type Option func(*Firestore)

// WithCollectionPrefix prefixes every collection name, for test isolation
func WithCollectionPrefix(prefix string) Option {
	return func(f *Firestore) {
		f.finding.collectionPrefix = prefix
		f.record.collectionPrefix = prefix
	}
}

func New(ctx context.Context, projectID, databaseID string, opts ...Option) (*Firestore, error) {
	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("projectID", projectID),
			goerr.V("databaseID", databaseID))
	}

	f := &Firestore{
		client:  client,
		finding: newFindingRepository(client),
		record:  newRecordRepository(client),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f, nil
}

func (f *Firestore) Finding() interfaces.FindingRepository {
	return f.finding
}

func (f *Firestore) Record() interfaces.RecordRepository {
	return f.record
}

func (f *Firestore) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}

// CollectionName returns name with the optional prefix applied
func CollectionName(prefix, name string) string {
	if prefix != "" {
		return prefix + "_" + name
	}
	return name
}
