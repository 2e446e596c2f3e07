// internal/query/filter.go
package query

import (
	"siem-anomaly-gateway/internal/anomaly"
	"siem-anomaly-gateway/internal/data"
)

// Engine applies filter specs and computes summaries over snapshots. It is
// read-only and safe for concurrent use: filtering never mutates the
// snapshot, so any number of consumer requests may run against the same
// snapshot while a refresh cycle builds the next one.
type Engine struct {
	classifier *anomaly.Classifier
}

func NewEngine(classifier *anomaly.Classifier) *Engine {
	return &Engine{classifier: classifier}
}

// Apply narrows a snapshot to the events matching every predicate in spec
// (time cutoff, inclusive score range, severity membership, label). The
// result preserves the snapshot's descending-timestamp order; an empty
// result is valid, not an error.
func (e *Engine) Apply(snap data.Snapshot, spec Spec) []data.Event {
	out := make([]data.Event, 0, len(snap.Events))
	for _, ev := range snap.Events {
		if !spec.Cutoff.IsZero() && ev.Timestamp.Before(spec.Cutoff) {
			continue
		}
		if ev.Score < spec.MinScore || ev.Score > spec.MaxScore {
			continue
		}
		if !spec.Severities[e.classifier.Classify(ev.Score)] {
			continue
		}
		switch spec.Label {
		case LabelNormal:
			if ev.Anomalous {
				continue
			}
		case LabelAnomalous:
			if !ev.Anomalous {
				continue
			}
		}
		out = append(out, ev)
	}
	return out
}

// Classify exposes the engine's severity mapping so callers annotating
// events for display use the same bins the filter does.
func (e *Engine) Classify(score float64) data.Severity {
	return e.classifier.Classify(score)
}
