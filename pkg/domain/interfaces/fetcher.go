package interfaces

import (
	"context"
	"iter"

	"github.com/agrilens/agrilens/pkg/domain/model"
)

// SourceFetcher retrieves raw documents from external sources. The returned
// sequence is lazy and can be consumed once.
type SourceFetcher interface {
	Fetch(ctx context.Context, sources []*model.Source) iter.Seq[*model.RawDocument]
}
