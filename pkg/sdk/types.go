package seqclass

import (
	"github.com/kailas-cloud/seqclass/internal/domain/classification"
	"github.com/kailas-cloud/seqclass/internal/domain/database"
	"github.com/kailas-cloud/seqclass/internal/domain/hit"
	"github.com/kailas-cloud/seqclass/internal/domain/sequence"
)

// Unclassified is the label of a query without an accepted hit.
const Unclassified = classification.Unclassified

// DatabaseType is the molecule type of a database.
type DatabaseType string

// Database type constants.
const (
	Nucleotide DatabaseType = "nucl"
	Protein    DatabaseType = "prot"
)

// Thresholds decide which hits may label a query. Both bounds are inclusive.
type Thresholds struct {
	EValue   float64 // maximum e-value
	Identity float64 // minimum percent identity
}

// DefaultThresholds returns e-value <= 1e-5 and identity >= 70%.
func DefaultThresholds() Thresholds {
	t := classification.DefaultThresholds()
	return Thresholds{EValue: t.EValue, Identity: t.Identity}
}

// Database is a local BLAST database. Path is the index prefix; when empty
// it is derived from FASTA.
type Database struct {
	Name  string
	FASTA string
	Path  string
	Type  DatabaseType
	Title string
}

// Query is one sequence to classify.
type Query struct {
	ID          string
	Description string
	Sequence    string
}

// Hit is one search hit. EValue and Identity are nil when unknown.
type Hit struct {
	Database  string
	SubjectID string
	BitScore  float64
	EValue    *float64
	Identity  *float64
	Label     string
}

// ScoredHit is an accepted hit with its per-database normalized score and
// 1-based rank within its query.
type ScoredHit struct {
	Hit
	Normalized float64
	Rank       int
}

// Classification is the result of classifying a batch of queries.
type Classification struct {
	Predictions  map[string]string      // query id -> label
	Ranked       map[string][]ScoredHit // query id -> accepted hits, best first
	Unclassified int
}

// Evaluation summarizes predictions against ground truth.
type Evaluation struct {
	RunID        string
	Total        int
	Correct      int
	Accuracy     float64
	Unclassified int
	Missing      int
	Confusion    map[string]map[string]int
}

// Float returns a pointer to v, for optional Hit fields.
func Float(v float64) *float64 { return &v }

func (t Thresholds) toDomain() classification.Thresholds {
	return classification.Thresholds{EValue: t.EValue, Identity: t.Identity}
}

func databasesToDomain(dbs []Database) ([]database.Database, error) {
	out := make([]database.Database, len(dbs))
	for i, d := range dbs {
		db, err := database.New(d.Name, d.FASTA, d.Path, database.Type(d.Type), d.Title)
		if err != nil {
			return nil, err //nolint:wrapcheck // domain error
		}
		out[i] = db
	}
	return out, nil
}

func queriesToDomain(queries []Query) []sequence.Record {
	out := make([]sequence.Record, len(queries))
	for i, q := range queries {
		out[i] = sequence.Record{ID: q.ID, Description: q.Description, Seq: []byte(q.Sequence)}
	}
	return out
}

func hitToDomain(h Hit) hit.Hit {
	d := hit.New(h.Database, h.SubjectID, h.BitScore).WithLabel(h.Label)
	if h.EValue != nil {
		d = d.WithEValue(*h.EValue)
	}
	if h.Identity != nil {
		d = d.WithIdentity(*h.Identity)
	}
	return d
}

func hitsToDomain(hits []Hit) []hit.Hit {
	out := make([]hit.Hit, len(hits))
	for i, h := range hits {
		out[i] = hitToDomain(h)
	}
	return out
}

func hitFromDomain(h hit.Hit) Hit {
	out := Hit{
		Database:  h.Database(),
		SubjectID: h.SubjectID(),
		BitScore:  h.BitScore(),
		Label:     h.Label(),
	}
	if v, ok := h.EValue(); ok {
		out.EValue = &v
	}
	if v, ok := h.Identity(); ok {
		out.Identity = &v
	}
	return out
}

func scoredFromDomain(s hit.Scored) ScoredHit {
	return ScoredHit{Hit: hitFromDomain(s.Hit), Normalized: s.Normalized, Rank: s.Rank}
}

func classificationFromDomain(o classification.Outcome) *Classification {
	out := &Classification{
		Predictions:  make(map[string]string, len(o.Predictions)),
		Ranked:       make(map[string][]ScoredHit, len(o.Ranked)),
		Unclassified: o.Unclassified(),
	}
	for q, label := range o.Predictions {
		out.Predictions[q] = label
	}
	for q, ranked := range o.Ranked {
		hits := make([]ScoredHit, len(ranked))
		for i, s := range ranked {
			hits[i] = scoredFromDomain(s)
		}
		out.Ranked[q] = hits
	}
	return out
}
