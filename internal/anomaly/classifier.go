// internal/anomaly/classifier.go
package anomaly

import (
	"fmt"
	"math"
	"sort"

	"siem-anomaly-gateway/internal/data"
)

// DefaultThresholds are the bin cut points the bundled detector's score
// distribution was observed around. Deployments tracking a different
// detector override these in config.
var DefaultThresholds = []float64{310, 311, 312}

// Classifier maps a continuous anomaly score onto a Severity using three
// ascending cut points t1 < t2 < t3:
//
//	[ -inf, t1) Low   [t1, t2) Medium   [t2, t3) High   [t3, +inf] Critical
//
// Bins are half-open: a score exactly on a cut point belongs to the upper
// bucket.
type Classifier struct {
	thresholds []float64
}

// NewClassifier validates the cut points (exactly three, strictly
// ascending) and returns a Classifier. Pass nil for the defaults.
func NewClassifier(thresholds []float64) (*Classifier, error) {
	if thresholds == nil {
		thresholds = DefaultThresholds
	}
	if len(thresholds) != 3 {
		return nil, fmt.Errorf("severity thresholds: want 3 cut points, got %d", len(thresholds))
	}
	if !sort.Float64sAreSorted(thresholds) || thresholds[0] == thresholds[1] || thresholds[1] == thresholds[2] {
		return nil, fmt.Errorf("severity thresholds must be strictly ascending, got %v", thresholds)
	}
	out := make([]float64, len(thresholds))
	copy(out, thresholds)
	return &Classifier{thresholds: out}, nil
}

// Classify is total over all float64 values: +Inf lands in Critical, NaN
// and anything below the first cut point in Low. Pure, no failure mode.
func (c *Classifier) Classify(score float64) data.Severity {
	if math.IsNaN(score) {
		return data.SeverityLow
	}
	switch {
	case score >= c.thresholds[2]:
		return data.SeverityCritical
	case score >= c.thresholds[1]:
		return data.SeverityHigh
	case score >= c.thresholds[0]:
		return data.SeverityMedium
	default:
		return data.SeverityLow
	}
}

// Thresholds returns a copy of the configured cut points.
func (c *Classifier) Thresholds() []float64 {
	out := make([]float64, len(c.thresholds))
	copy(out, c.thresholds)
	return out
}
