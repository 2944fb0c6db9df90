package evaluation

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Params records the settings a classification run was produced with.
type Params struct {
	EValueThreshold   float64  `json:"e_value_threshold"`
	IdentityThreshold float64  `json:"identity_threshold"`
	Databases         []string `json:"databases"`
	Program           string   `json:"program,omitempty"`
	SearchEValue      float64  `json:"search_evalue,omitempty"`
	WordSize          int      `json:"word_size,omitempty"`
}

// RunSummary is one persisted evaluation run.
type RunSummary struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Params    Params    `json:"params"`
	Total     int       `json:"total"`
	Correct   int       `json:"correct"`
	Accuracy  float64   `json:"accuracy"`
}

// Dimension selects which parameter runs are grouped by.
type Dimension string

// Grouping dimensions.
const (
	ByAll       Dimension = "all"
	ByEValue    Dimension = "evalue"
	ByIdentity  Dimension = "identity"
	ByDatabases Dimension = "databases"
	ByWordSize  Dimension = "word_size"
)

// IsValid reports whether d is a known dimension.
func (d Dimension) IsValid() bool {
	switch d {
	case ByAll, ByEValue, ByIdentity, ByDatabases, ByWordSize:
		return true
	}
	return false
}

// Effect is the aggregated accuracy of runs sharing one setting.
type Effect struct {
	Setting       string  `json:"setting"`
	Runs          int     `json:"runs"`
	MeanAccuracy  float64 `json:"mean_accuracy"`
	BestAccuracy  float64 `json:"best_accuracy"`
	DeltaFromBest float64 `json:"delta_from_best"`
}

// Setting renders the value of dimension d for p.
func (p Params) Setting(d Dimension) string {
	evalue := "evalue=" + strconv.FormatFloat(p.EValueThreshold, 'g', -1, 64)
	identity := "identity=" + strconv.FormatFloat(p.IdentityThreshold, 'g', -1, 64)
	dbs := sortedCopy(p.Databases)
	databases := "databases=" + strings.Join(dbs, ",")
	wordSize := fmt.Sprintf("word_size=%d", p.WordSize)

	switch d {
	case ByEValue:
		return evalue
	case ByIdentity:
		return identity
	case ByDatabases:
		return databases
	case ByWordSize:
		return wordSize
	default:
		return strings.Join([]string{evalue, identity, databases, wordSize}, " ")
	}
}

// CompareRuns groups runs by dimension d and reports accuracy per setting,
// best mean accuracy first. DeltaFromBest is the gap to the best group's mean.
func CompareRuns(runs []RunSummary, d Dimension) []Effect {
	type acc struct {
		sum  float64
		best float64
		n    int
	}
	groups := make(map[string]*acc)
	for _, r := range runs {
		key := r.Params.Setting(d)
		g, ok := groups[key]
		if !ok {
			g = &acc{}
			groups[key] = g
		}
		g.sum += r.Accuracy
		g.n++
		g.best = max(g.best, r.Accuracy)
	}

	effects := make([]Effect, 0, len(groups))
	for setting, g := range groups {
		effects = append(effects, Effect{
			Setting:      setting,
			Runs:         g.n,
			MeanAccuracy: g.sum / float64(g.n),
			BestAccuracy: g.best,
		})
	}
	sort.Slice(effects, func(i, j int) bool {
		if effects[i].MeanAccuracy != effects[j].MeanAccuracy {
			return effects[i].MeanAccuracy > effects[j].MeanAccuracy
		}
		return effects[i].Setting < effects[j].Setting
	})

	if len(effects) > 0 {
		top := effects[0].MeanAccuracy
		for i := range effects {
			effects[i].DeltaFromBest = effects[i].MeanAccuracy - top
		}
	}
	return effects
}

func sortedCopy(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	sort.Strings(out)
	return out
}
