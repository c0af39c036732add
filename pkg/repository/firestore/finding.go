package firestore

import (
	"context"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/agrilens/agrilens/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type findingDoc struct {
	ID          string    `firestore:"ID"`
	Topic       string    `firestore:"Topic"`
	Source      string    `firestore:"Source"`
	Title       string    `firestore:"Title"`
	Content     string    `firestore:"Content"`
	CollectedAt time.Time `firestore:"CollectedAt"`
}

func toFindingDoc(f *model.Finding) *findingDoc {
	return &findingDoc{
		ID:          string(f.ID),
		Topic:       string(f.Topic),
		Source:      f.Source,
		Title:       f.Title,
		Content:     f.Content,
		CollectedAt: f.CollectedAt,
	}
}

func (d *findingDoc) toModel() *model.Finding {
	return &model.Finding{
		ID:          model.FindingID(d.ID),
		Topic:       model.Topic(d.Topic),
		Source:      d.Source,
		Title:       d.Title,
		Content:     d.Content,
		CollectedAt: d.CollectedAt.UTC(),
	}
}

type findingRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newFindingRepository(client *firestore.Client) *findingRepository {
	return &findingRepository{client: client}
}

func (r *findingRepository) collection() *firestore.CollectionRef {
	return r.client.Collection(CollectionName(r.collectionPrefix, CollectionFindings))
}

// Insert uses the dedup key as document ID so Create fails with AlreadyExists
// on duplicates, which is reported as success.
func (r *findingRepository) Insert(ctx context.Context, finding *model.Finding) error {
	docRef := r.collection().Doc(finding.DedupKey())
	if _, err := docRef.Create(ctx, toFindingDoc(finding)); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return nil
		}
		return goerr.Wrap(err, "failed to create finding",
			goerr.V(model.TopicKey, finding.Topic),
			goerr.V(model.SourceKey, finding.Source))
	}
	return nil
}

func (r *findingRepository) Lookup(ctx context.Context, topic model.Topic, since time.Time) ([]*model.Finding, error) {
	iter := r.collection().
		Where("Topic", "==", string(topic)).
		Where("CollectedAt", ">", since).
		OrderBy("CollectedAt", firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	findings := make([]*model.Finding, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate findings", goerr.V(model.TopicKey, topic))
		}

		var d findingDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal finding", goerr.V("docID", doc.Ref.ID))
		}
		findings = append(findings, d.toModel())
	}

	sort.SliceStable(findings, func(i, j int) bool {
		if !findings[i].CollectedAt.Equal(findings[j].CollectedAt) {
			return findings[i].CollectedAt.Before(findings[j].CollectedAt)
		}
		return findings[i].ID < findings[j].ID
	})
	return findings, nil
}
