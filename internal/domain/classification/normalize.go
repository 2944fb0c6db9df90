package classification

import (
	"github.com/kailas-cloud/seqclass/internal/domain"
	"github.com/kailas-cloud/seqclass/internal/domain/hit"
)

type scoreRange struct {
	min, max float64
}

// Normalize rescales bit scores to [0,1] per source database with min-max
// normalization, so scores from databases of different size become comparable.
// A database whose hits all share one bit score (including a single hit)
// normalizes to 1.0. Output order matches input order; inputs are not modified.
//
// Hits must belong to one query; callers never pool queries into one call.
func Normalize(hits []hit.Hit) ([]hit.Scored, error) {
	ranges := make(map[string]scoreRange)
	for i, h := range hits {
		if err := h.Validate(); err != nil {
			return nil, domain.WithLocation(err, "", i)
		}
		r, ok := ranges[h.Database()]
		if !ok {
			ranges[h.Database()] = scoreRange{min: h.BitScore(), max: h.BitScore()}
			continue
		}
		r.min = min(r.min, h.BitScore())
		r.max = max(r.max, h.BitScore())
		ranges[h.Database()] = r
	}

	scored := make([]hit.Scored, len(hits))
	for i, h := range hits {
		r := ranges[h.Database()]
		norm := 1.0
		if r.max > r.min {
			norm = (h.BitScore() - r.min) / (r.max - r.min)
		}
		scored[i] = hit.Scored{Hit: h, Normalized: norm}
	}
	return scored, nil
}
