package classification

import (
	"fmt"
	"sort"

	"github.com/kailas-cloud/seqclass/internal/domain"
	"github.com/kailas-cloud/seqclass/internal/domain/hit"
)

// Unclassified is the label assigned when no hit for a query passes the thresholds.
const Unclassified = "Unclassified"

// Predictions maps every query identifier to exactly one label.
type Predictions map[string]string

// Outcome is the result of classifying a batch.
// Ranked holds, per query, the accepted hits best first (empty when unclassified).
type Outcome struct {
	Predictions Predictions
	Ranked      map[string][]hit.Scored
}

// Unclassified returns the number of queries labelled Unclassified.
func (o Outcome) Unclassified() int {
	n := 0
	for _, label := range o.Predictions {
		if label == Unclassified {
			n++
		}
	}
	return n
}

// ResolveLabel picks the output label for a winning hit:
// its label, else its subject id, else Unclassified.
func ResolveLabel(h hit.Hit) string {
	if h.Label() != "" {
		return h.Label()
	}
	if h.SubjectID() != "" {
		return h.SubjectID()
	}
	return Unclassified
}

// ValidateHits checks every hit of one query, attributing the first failure to query and position.
func ValidateHits(query string, hits []hit.Hit) error {
	for i, h := range hits {
		if err := h.Validate(); err != nil {
			return domain.WithLocation(err, query, i)
		}
	}
	return nil
}

// Validate checks every hit of every query in sorted query order,
// so the reported failure is the same on every run.
func Validate(set hit.ResultSet) error {
	for _, q := range QueryIDs(set) {
		if err := ValidateHits(q, set[q]); err != nil {
			return err
		}
	}
	return nil
}

// QueryIDs returns the query identifiers of set in sorted order.
func QueryIDs(set hit.ResultSet) []string {
	ids := make([]string, 0, len(set))
	for q := range set {
		ids = append(ids, q)
	}
	sort.Strings(ids)
	return ids
}

// SelectBest filters, ranks and returns the best hit of one query.
// ok is false when no hit passes the thresholds.
func SelectBest(hits []hit.Hit, t Thresholds) (best hit.Scored, ok bool, err error) {
	ranked, err := RankAccepted(hits, t)
	if err != nil {
		return hit.Scored{}, false, err
	}
	if len(ranked) == 0 {
		return hit.Scored{}, false, nil
	}
	return ranked[0], true, nil
}

// RankAccepted validates all hits, drops the ones failing t, and ranks the rest.
// Normalization ranges are computed over the accepted hits only.
func RankAccepted(hits []hit.Hit, t Thresholds) ([]hit.Scored, error) {
	if err := ValidateHits("", hits); err != nil {
		return nil, err
	}
	return Rank(Filter(hits, t))
}

// ClassifyQuery resolves the label of one query together with its ranked accepted hits.
func ClassifyQuery(hits []hit.Hit, t Thresholds) (string, []hit.Scored, error) {
	ranked, err := RankAccepted(hits, t)
	if err != nil {
		return "", nil, err
	}
	if len(ranked) == 0 {
		return Unclassified, ranked, nil
	}
	return ResolveLabel(ranked[0].Hit), ranked, nil
}

// Classify labels every query of set. The batch is validated eagerly:
// one malformed hit anywhere aborts the call and no predictions are returned.
func Classify(set hit.ResultSet, t Thresholds) (Outcome, error) {
	if err := t.Validate(); err != nil {
		return Outcome{}, err
	}
	if err := Validate(set); err != nil {
		return Outcome{}, err
	}

	out := Outcome{
		Predictions: make(Predictions, len(set)),
		Ranked:      make(map[string][]hit.Scored, len(set)),
	}
	for q, hits := range set {
		label, ranked, err := ClassifyQuery(hits, t)
		if err != nil {
			return Outcome{}, fmt.Errorf("classify %q: %w", q, err)
		}
		out.Predictions[q] = label
		out.Ranked[q] = ranked
	}
	return out, nil
}
