package classify

import (
	"context"

	"github.com/kailas-cloud/seqclass/internal/domain/database"
	"github.com/kailas-cloud/seqclass/internal/domain/hit"
	"github.com/kailas-cloud/seqclass/internal/domain/sequence"
)

// Searcher finds hits for one query in one database.
type Searcher interface {
	Search(ctx context.Context, q sequence.Record, db database.Database) ([]hit.Hit, error)
}
