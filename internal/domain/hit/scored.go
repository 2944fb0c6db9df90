package hit

// ResultSet maps a query identifier to its hits across all databases, in received order.
type ResultSet map[string][]Hit

// Scored pairs a hit with its per-database normalized bit score.
// Rank is 1-based once the hit has been ranked, 0 before.
type Scored struct {
	Hit
	Normalized float64
	Rank       int
}

// Unwrap strips scores from a scored list.
func Unwrap(scored []Scored) []Hit {
	hits := make([]Hit, len(scored))
	for i, s := range scored {
		hits[i] = s.Hit
	}
	return hits
}
