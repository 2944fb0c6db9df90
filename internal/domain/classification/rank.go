package classification

import (
	"sort"

	"github.com/kailas-cloud/seqclass/internal/domain/hit"
)

// Rank normalizes hits of one query and orders them best first.
func Rank(hits []hit.Hit) ([]hit.Scored, error) {
	scored, err := Normalize(hits)
	if err != nil {
		return nil, err
	}
	return RankScored(scored), nil
}

// RankScored orders already-normalized hits best first and assigns 1-based ranks.
// Keys: normalized score desc, e-value asc, identity desc. The sort is stable,
// so complete ties keep their input order and re-ranking a ranked list is a no-op.
// Returns a new slice.
func RankScored(scored []hit.Scored) []hit.Scored {
	out := make([]hit.Scored, len(scored))
	copy(out, scored)

	sort.SliceStable(out, func(i, j int) bool {
		return better(out[i], out[j])
	})

	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

// better reports whether a strictly outranks b.
func better(a, b hit.Scored) bool {
	if a.Normalized != b.Normalized {
		return a.Normalized > b.Normalized
	}
	if ea, eb := a.EffectiveEValue(), b.EffectiveEValue(); ea != eb {
		return ea < eb
	}
	return a.EffectiveIdentity() > b.EffectiveIdentity()
}
