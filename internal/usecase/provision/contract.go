package provision

import (
	"context"

	"github.com/kailas-cloud/seqclass/internal/domain/database"
)

// Builder formats a FASTA file into a local search database.
type Builder interface {
	Build(ctx context.Context, db database.Database) error
	Exists(db database.Database) bool
}

// CachePurger drops cached hits for a database after it is rebuilt.
type CachePurger interface {
	Purge(ctx context.Context, dbName string) (int, error)
}
