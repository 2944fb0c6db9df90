package health

import "context"

// Pinger checks availability of a backing store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ToolChecker checks that the search tools can be executed.
type ToolChecker interface {
	CheckTools(ctx context.Context) error
}
