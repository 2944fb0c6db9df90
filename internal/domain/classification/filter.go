package classification

import (
	"fmt"

	"github.com/kailas-cloud/seqclass/internal/domain"
	"github.com/kailas-cloud/seqclass/internal/domain/hit"
)

// Default acceptance thresholds.
const (
	DefaultEValueThreshold   = 1e-5
	DefaultIdentityThreshold = 70.0
)

// Thresholds decides which hits may be selected as the answer for a query.
type Thresholds struct {
	EValue   float64 // maximum accepted e-value, inclusive
	Identity float64 // minimum accepted percent identity, inclusive
}

// DefaultThresholds returns e-value <= 1e-5 and identity >= 70%.
func DefaultThresholds() Thresholds {
	return Thresholds{EValue: DefaultEValueThreshold, Identity: DefaultIdentityThreshold}
}

// Validate checks that thresholds are usable.
func (t Thresholds) Validate() error {
	if !(t.EValue > 0) {
		return fmt.Errorf("%w: e-value threshold must be > 0, got %g", domain.ErrInvalidConfig, t.EValue)
	}
	if !(t.Identity >= 0 && t.Identity <= 100) {
		return fmt.Errorf("%w: identity threshold must be in [0, 100], got %g", domain.ErrInvalidConfig, t.Identity)
	}
	return nil
}

// Accepts reports whether h passes both thresholds.
// Absent e-value and identity take their worst values and normally fail.
func (t Thresholds) Accepts(h hit.Hit) bool {
	return h.EffectiveEValue() <= t.EValue && h.EffectiveIdentity() >= t.Identity
}

// Filter returns the accepted hits in their original relative order.
func Filter(hits []hit.Hit, t Thresholds) []hit.Hit {
	out := make([]hit.Hit, 0, len(hits))
	for _, h := range hits {
		if t.Accepts(h) {
			out = append(out, h)
		}
	}
	return out
}
