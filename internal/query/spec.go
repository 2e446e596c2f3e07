// internal/query/spec.go
package query

import (
	"fmt"
	"strings"
	"time"

	"siem-anomaly-gateway/internal/data"
)

// LabelPredicate selects events by their binary classifier label.
type LabelPredicate string

const (
	LabelAll       LabelPredicate = "all"
	LabelNormal    LabelPredicate = "normal"    // label 0 only
	LabelAnomalous LabelPredicate = "anomalous" // label 1 only
)

// ParseLabel converts a query-string value to a LabelPredicate. Empty means
// no label filtering.
func ParseLabel(s string) (LabelPredicate, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(LabelAll):
		return LabelAll, nil
	case string(LabelNormal), "0":
		return LabelNormal, nil
	case string(LabelAnomalous), "1":
		return LabelAnomalous, nil
	default:
		return "", fmt.Errorf("unknown label predicate %q", s)
	}
}

// Spec is the combined predicate a consumer applies to a snapshot: time
// cutoff, inclusive score range, severity set and label predicate. Build
// one through NewSpec so an invalid combination never reaches the filter.
type Spec struct {
	Cutoff     time.Time // events strictly before this instant are excluded; zero = no cutoff
	MinScore   float64
	MaxScore   float64
	Severities map[data.Severity]bool
	Label      LabelPredicate
}

// NewSpec validates and builds a Spec. severities may be nil/empty to allow
// every level.
func NewSpec(cutoff time.Time, minScore, maxScore float64, severities []data.Severity, label LabelPredicate) (Spec, error) {
	if minScore > maxScore {
		return Spec{}, fmt.Errorf("score range: min %v exceeds max %v", minScore, maxScore)
	}
	switch label {
	case LabelAll, LabelNormal, LabelAnomalous:
	default:
		return Spec{}, fmt.Errorf("unknown label predicate %q", label)
	}
	set := make(map[data.Severity]bool, len(severities))
	for _, s := range severities {
		if !s.Valid() {
			return Spec{}, fmt.Errorf("unknown severity %q", s)
		}
		set[s] = true
	}
	if len(set) == 0 {
		for _, s := range data.Severities() {
			set[s] = true
		}
	}
	return Spec{
		Cutoff:     cutoff,
		MinScore:   minScore,
		MaxScore:   maxScore,
		Severities: set,
		Label:      label,
	}, nil
}

// Range tokens the consumer seam accepts, mirroring the dashboard's
// time-range selector.
const (
	Range15Min = "15m"
	RangeHour  = "1h"
	Range6H    = "6h"
	Range24H   = "24h"
	RangeAll   = "all"
)

// ResolveRange turns a named range token into an absolute cutoff relative
// to now. Two specs built from the same token microseconds apart get
// slightly different cutoffs; that jitter is accepted behavior, which is
// why resolution happens once at spec-construction time and the Spec itself
// only ever carries an absolute instant.
func ResolveRange(token string, now time.Time) (time.Time, error) {
	switch strings.ToLower(strings.TrimSpace(token)) {
	case Range15Min:
		return now.Add(-15 * time.Minute), nil
	case "", RangeHour:
		return now.Add(-time.Hour), nil
	case Range6H:
		return now.Add(-6 * time.Hour), nil
	case Range24H:
		return now.Add(-24 * time.Hour), nil
	case RangeAll:
		return time.Time{}, nil
	default:
		return time.Time{}, fmt.Errorf("unknown time range %q", token)
	}
}

// ParseSeverities splits a comma-separated severity list. Empty input means
// all levels.
func ParseSeverities(s string) ([]data.Severity, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var out []data.Severity
	for _, part := range strings.Split(s, ",") {
		sev := data.Severity(strings.TrimSpace(part))
		if !sev.Valid() {
			return nil, fmt.Errorf("unknown severity %q", part)
		}
		out = append(out, sev)
	}
	return out, nil
}
