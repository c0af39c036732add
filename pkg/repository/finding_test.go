package repository_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/agrilens/agrilens/pkg/domain/interfaces"
	"github.com/agrilens/agrilens/pkg/domain/model"
	"github.com/m-mizutani/gt"
)

func newFinding(topic model.Topic, source, content string, at time.Time) *model.Finding {
	return &model.Finding{
		ID:          model.NewFindingID(topic, source, content),
		Topic:       topic,
		Source:      source,
		Title:       "Crop rotation",
		Content:     content,
		CollectedAt: at.UTC().Truncate(time.Microsecond),
	}
}

func runFindingRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	t.Run("Insert then Lookup returns the finding", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		topic := model.NewTopic(uniqueTopic("potato"), "Haryana")
		now := time.Now()

		f := newFinding(topic, "https://extension.umn.edu/a", "Rotate potatoes with legumes", now)
		gt.NoError(t, repo.Finding().Insert(ctx, f)).Required()

		got, err := repo.Finding().Lookup(ctx, topic, now.Add(-time.Hour))
		gt.NoError(t, err).Required()
		gt.Array(t, got).Length(1).Required()
		gt.Value(t, got[0].ID).Equal(f.ID)
		gt.Value(t, got[0].Topic).Equal(topic)
		gt.Value(t, got[0].Source).Equal(f.Source)
		gt.Value(t, got[0].Title).Equal(f.Title)
		gt.Value(t, got[0].Content).Equal(f.Content)
		gt.Bool(t, got[0].CollectedAt.Equal(f.CollectedAt)).True()
	})

	t.Run("duplicate Insert is a silent no-op", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		topic := model.NewTopic(uniqueTopic("wheat"), "Punjab")
		now := time.Now()

		first := newFinding(topic, "https://a.example", "mulch", now.Add(-time.Minute))
		second := newFinding(topic, "https://a.example", "mulch", now)
		second.Title = "changed title"

		gt.NoError(t, repo.Finding().Insert(ctx, first)).Required()
		gt.NoError(t, repo.Finding().Insert(ctx, second)).Required()
		gt.NoError(t, repo.Finding().Insert(ctx, first)).Required()

		got, err := repo.Finding().Lookup(ctx, topic, now.Add(-time.Hour))
		gt.NoError(t, err).Required()
		gt.Array(t, got).Length(1).Required()
		gt.Value(t, got[0].Title).Equal(first.Title)
		gt.Bool(t, got[0].CollectedAt.Equal(first.CollectedAt)).True()
	})

	t.Run("concurrent duplicate inserts keep one row", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		topic := model.NewTopic(uniqueTopic("rice"), "Kerala")
		now := time.Now()

		var wg sync.WaitGroup
		errs := make([]error, 8)
		for i := range errs {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				errs[i] = repo.Finding().Insert(ctx, newFinding(topic, "https://a.example", "same", now))
			}(i)
		}
		wg.Wait()
		for _, err := range errs {
			gt.NoError(t, err)
		}

		got, err := repo.Finding().Lookup(ctx, topic, now.Add(-time.Hour))
		gt.NoError(t, err).Required()
		gt.Array(t, got).Length(1)
	})

	t.Run("distinct content, source or topic are separate findings", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		topic := model.NewTopic(uniqueTopic("maize"), "Bihar")
		other := model.NewTopic(uniqueTopic("maize"), "Assam")
		now := time.Now()

		gt.NoError(t, repo.Finding().Insert(ctx, newFinding(topic, "https://a.example", "one", now))).Required()
		gt.NoError(t, repo.Finding().Insert(ctx, newFinding(topic, "https://b.example", "one", now))).Required()
		gt.NoError(t, repo.Finding().Insert(ctx, newFinding(topic, "https://a.example", "two", now))).Required()
		gt.NoError(t, repo.Finding().Insert(ctx, newFinding(other, "https://a.example", "one", now))).Required()

		got, err := repo.Finding().Lookup(ctx, topic, now.Add(-time.Hour))
		gt.NoError(t, err).Required()
		gt.Array(t, got).Length(3)

		got, err = repo.Finding().Lookup(ctx, other, now.Add(-time.Hour))
		gt.NoError(t, err).Required()
		gt.Array(t, got).Length(1)
	})

	t.Run("Lookup excludes findings at or before since", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		topic := model.NewTopic(uniqueTopic("onion"), "Nashik")
		since := time.Now().Add(-24 * time.Hour).UTC().Truncate(time.Microsecond)

		gt.NoError(t, repo.Finding().Insert(ctx, newFinding(topic, "s", "older", since.Add(-time.Second)))).Required()
		gt.NoError(t, repo.Finding().Insert(ctx, newFinding(topic, "s", "boundary", since))).Required()
		gt.NoError(t, repo.Finding().Insert(ctx, newFinding(topic, "s", "newer", since.Add(time.Second)))).Required()

		got, err := repo.Finding().Lookup(ctx, topic, since)
		gt.NoError(t, err).Required()
		gt.Array(t, got).Length(1).Required()
		gt.Value(t, got[0].Content).Equal("newer")
	})

	t.Run("Lookup orders by collection time", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		topic := model.NewTopic(uniqueTopic("cotton"), "Gujarat")
		base := time.Now().Add(-time.Hour)

		gt.NoError(t, repo.Finding().Insert(ctx, newFinding(topic, "s", "third", base.Add(3*time.Minute)))).Required()
		gt.NoError(t, repo.Finding().Insert(ctx, newFinding(topic, "s", "first", base.Add(1*time.Minute)))).Required()
		gt.NoError(t, repo.Finding().Insert(ctx, newFinding(topic, "s", "second", base.Add(2*time.Minute)))).Required()

		got, err := repo.Finding().Lookup(ctx, topic, base)
		gt.NoError(t, err).Required()
		gt.Array(t, got).Length(3).Required()
		gt.Value(t, got[0].Content).Equal("first")
		gt.Value(t, got[1].Content).Equal("second")
		gt.Value(t, got[2].Content).Equal("third")
	})

	t.Run("Lookup of unknown topic returns empty slice", func(t *testing.T) {
		repo := newRepo(t)
		got, err := repo.Finding().Lookup(context.Background(), model.Topic(uniqueTopic("none")), time.Now().Add(-time.Hour))
		gt.NoError(t, err).Required()
		gt.Bool(t, got != nil).True()
		gt.Array(t, got).Length(0)
	})

	t.Run("returned findings are copies", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		topic := model.NewTopic(uniqueTopic("barley"), "Rajasthan")
		now := time.Now()

		gt.NoError(t, repo.Finding().Insert(ctx, newFinding(topic, "s", "content", now))).Required()

		got, err := repo.Finding().Lookup(ctx, topic, now.Add(-time.Hour))
		gt.NoError(t, err).Required()
		got[0].Content = "mutated"

		again, err := repo.Finding().Lookup(ctx, topic, now.Add(-time.Hour))
		gt.NoError(t, err).Required()
		gt.Value(t, again[0].Content).Equal("content")
	})
}

func TestFindingRepository(t *testing.T) {
	for _, f := range allRepositories() {
		t.Run(f.name, func(t *testing.T) {
			runFindingRepositoryTest(t, f.new)
		})
	}
}
