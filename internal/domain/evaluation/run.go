package evaluation

import "sort"

// Prediction is one query's predicted label next to its expected label.
type Prediction struct {
	QueryID string `json:"query_id"`
	Label   string `json:"label"`
	Truth   string `json:"truth,omitempty"`
}

// Run is a persisted evaluation with its full metrics.
type Run struct {
	RunSummary
	Metrics     Metrics      `json:"metrics"`
	Predictions []Prediction `json:"predictions,omitempty"`
}

// JoinPredictions pairs every predicted or expected query with both labels,
// sorted by query id.
func JoinPredictions(predictions, truth map[string]string) []Prediction {
	seen := make(map[string]struct{}, len(predictions)+len(truth))
	out := make([]Prediction, 0, len(predictions)+len(truth))
	add := func(q string) {
		if _, ok := seen[q]; ok {
			return
		}
		seen[q] = struct{}{}
		out = append(out, Prediction{QueryID: q, Label: predictions[q], Truth: truth[q]})
	}
	for q := range predictions {
		add(q)
	}
	for q := range truth {
		add(q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QueryID < out[j].QueryID })
	return out
}
