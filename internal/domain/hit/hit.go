package hit

import (
	"math"

	"github.com/kailas-cloud/seqclass/internal/domain"
)

// Defaults applied to optional numeric fields the search tool did not report.
// Both are the worst value for their field so absent data never helps a hit.
const (
	MissingEValue   = 1.0
	MissingIdentity = 0.0
)

// Hit is one search result: a query matched against a subject in one database.
// Values are immutable; With* methods return modified copies.
type Hit struct {
	database    string
	subjectID   string
	bitScore    float64
	eValue      float64
	hasEValue   bool
	identity    float64
	hasIdentity bool
	label       string
}

// New creates a hit with the required fields.
func New(database, subjectID string, bitScore float64) Hit {
	return Hit{database: database, subjectID: subjectID, bitScore: bitScore}
}

// WithEValue returns a copy carrying the given e-value.
func (h Hit) WithEValue(v float64) Hit {
	h.eValue = v
	h.hasEValue = true
	return h
}

// WithIdentity returns a copy carrying the given percent identity.
func (h Hit) WithIdentity(v float64) Hit {
	h.identity = v
	h.hasIdentity = true
	return h
}

// WithLabel returns a copy carrying the given label.
func (h Hit) WithLabel(label string) Hit {
	h.label = label
	return h
}

// Database returns the source database identifier.
func (h Hit) Database() string { return h.database }

// SubjectID returns the matched reference sequence identifier.
func (h Hit) SubjectID() string { return h.subjectID }

// BitScore returns the raw alignment bit score.
func (h Hit) BitScore() float64 { return h.bitScore }

// EValue returns the e-value and whether it was reported.
func (h Hit) EValue() (float64, bool) { return h.eValue, h.hasEValue }

// Identity returns the percent identity and whether it was reported.
func (h Hit) Identity() (float64, bool) { return h.identity, h.hasIdentity }

// Label returns the human-readable category, possibly empty.
func (h Hit) Label() string { return h.label }

// EffectiveEValue returns the e-value, or MissingEValue when absent.
func (h Hit) EffectiveEValue() float64 {
	if !h.hasEValue {
		return MissingEValue
	}
	return h.eValue
}

// EffectiveIdentity returns the identity, or MissingIdentity when absent.
func (h Hit) EffectiveIdentity() float64 {
	if !h.hasIdentity {
		return MissingIdentity
	}
	return h.identity
}

// Validate checks the field contract. Absent optional fields are not errors.
func (h Hit) Validate() error {
	if h.database == "" {
		return domain.NewInvalidInput("database", "required")
	}
	if h.subjectID == "" {
		return domain.NewInvalidInput("subject_id", "required")
	}
	if !isFinite(h.bitScore) {
		return domain.NewInvalidInput("bit_score", "not a finite number")
	}
	if h.hasEValue {
		if !isFinite(h.eValue) {
			return domain.NewInvalidInput("e_value", "not a finite number")
		}
		if h.eValue < 0 {
			return domain.NewInvalidInput("e_value", "negative")
		}
	}
	if h.hasIdentity {
		if !isFinite(h.identity) {
			return domain.NewInvalidInput("identity", "not a finite number")
		}
		if h.identity < 0 || h.identity > 100 {
			return domain.NewInvalidInput("identity", "outside [0, 100]")
		}
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
