package seqclass

import "github.com/kailas-cloud/seqclass/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrInvalidInput     = domain.ErrInvalidInput
	ErrInvalidConfig    = domain.ErrInvalidConfig
	ErrDatabaseNotFound = domain.ErrDatabaseNotFound
	ErrDatabaseBuild    = domain.ErrDatabaseBuild
	ErrSearchFailed     = domain.ErrSearchFailed
)
