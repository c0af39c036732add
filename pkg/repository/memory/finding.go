package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/agrilens/agrilens/pkg/domain/model"
)

type findingRepository struct {
	mu       sync.RWMutex
	findings map[string]*model.Finding
	byTopic  map[model.Topic][]string
}

func newFindingRepository() *findingRepository {
	return &findingRepository{
		findings: make(map[string]*model.Finding),
		byTopic:  make(map[model.Topic][]string),
	}
}

func (r *findingRepository) Insert(ctx context.Context, finding *model.Finding) error {
	key := finding.DedupKey()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.findings[key]; exists {
		return nil
	}

	r.findings[key] = finding.Copy()
	r.byTopic[finding.Topic] = append(r.byTopic[finding.Topic], key)
	return nil
}

func (r *findingRepository) Lookup(ctx context.Context, topic model.Topic, since time.Time) ([]*model.Finding, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*model.Finding, 0)
	for _, key := range r.byTopic[topic] {
		f := r.findings[key]
		if f.CollectedAt.After(since) {
			result = append(result, f.Copy())
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		if !result[i].CollectedAt.Equal(result[j].CollectedAt) {
			return result[i].CollectedAt.Before(result[j].CollectedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}
