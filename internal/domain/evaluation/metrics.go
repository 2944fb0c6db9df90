package evaluation

import (
	"sort"
	"strings"
)

// unclassifiedLabel mirrors classification.Unclassified.
const unclassifiedLabel = "Unclassified"

// Options tune label comparison.
type Options struct {
	IgnoreCase bool
}

// LabelStats holds one-vs-rest counts and scores for a truth label.
type LabelStats struct {
	Label     string  `json:"label"`
	Support   int     `json:"support"`
	TP        int     `json:"tp"`
	FP        int     `json:"fp"`
	FN        int     `json:"fn"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
}

// Metrics summarizes predictions against ground truth.
type Metrics struct {
	Total        int                       `json:"total"`
	Correct      int                       `json:"correct"`
	Accuracy     float64                   `json:"accuracy"`
	Unclassified int                       `json:"unclassified"`
	Missing      int                       `json:"missing"`
	Confusion    map[string]map[string]int `json:"confusion"`
	Labels       []LabelStats              `json:"labels"`
}

// Compute compares predictions with ground truth over the truth key set.
// A query absent from predictions counts as Missing and is scored as Unclassified.
// Predictions for queries without truth are ignored.
func Compute(predictions, truth map[string]string, opts Options) Metrics {
	m := Metrics{Confusion: make(map[string]map[string]int)}

	tp := make(map[string]int)
	fp := make(map[string]int)
	fn := make(map[string]int)
	support := make(map[string]int)

	canon := canonicalLabels(truth, opts)
	for q, want := range truth {
		got, ok := predictions[q]
		if !ok {
			m.Missing++
			got = unclassifiedLabel
		}
		want = canon.of(want)
		got = canon.of(got)

		m.Total++
		support[want]++
		if got == unclassifiedLabel {
			m.Unclassified++
		}

		row, ok := m.Confusion[want]
		if !ok {
			row = make(map[string]int)
			m.Confusion[want] = row
		}
		row[got]++

		if sameLabel(want, got, opts) {
			m.Correct++
			tp[want]++
			continue
		}
		fn[want]++
		if got != unclassifiedLabel {
			fp[got]++
		}
	}

	if m.Total > 0 {
		m.Accuracy = float64(m.Correct) / float64(m.Total)
	}

	m.Labels = make([]LabelStats, 0, len(support))
	for label, n := range support {
		s := LabelStats{Label: label, Support: n, TP: tp[label], FP: fp[label], FN: fn[label]}
		s.Precision = ratio(s.TP, s.TP+s.FP)
		s.Recall = ratio(s.TP, s.TP+s.FN)
		if s.Precision+s.Recall > 0 {
			s.F1 = 2 * s.Precision * s.Recall / (s.Precision + s.Recall)
		}
		m.Labels = append(m.Labels, s)
	}
	sort.Slice(m.Labels, func(i, j int) bool { return m.Labels[i].Label < m.Labels[j].Label })

	return m
}

func sameLabel(a, b string, opts Options) bool {
	if opts.IgnoreCase {
		return strings.EqualFold(a, b)
	}
	return a == b
}

// labelCanon maps case variants of a label onto one spelling so that counts
// and confusion rows are keyed consistently.
type labelCanon map[string]string

// canonicalLabels picks the lexically smallest truth spelling of every label
// when case is ignored. Labels absent from truth are left as given.
func canonicalLabels(truth map[string]string, opts Options) labelCanon {
	if !opts.IgnoreCase {
		return nil
	}
	c := make(labelCanon)
	for _, label := range truth {
		label = strings.TrimSpace(label)
		key := strings.ToLower(label)
		if cur, ok := c[key]; !ok || label < cur {
			c[key] = label
		}
	}
	return c
}

func (c labelCanon) of(label string) string {
	label = strings.TrimSpace(label)
	if c == nil || label == unclassifiedLabel {
		return label
	}
	if canon, ok := c[strings.ToLower(label)]; ok {
		return canon
	}
	return label
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}
