// internal/alerting/alerter.go
package alerting

import (
	"time"

	"go.uber.org/zap"

	"siem-anomaly-gateway/internal/anomaly"
	"siem-anomaly-gateway/internal/data"
)

// Broadcaster fans a notification out to connected consumers; the websocket
// hub is the production implementation.
type Broadcaster interface {
	BroadcastAlert(payload interface{})
}

// Notification is the payload pushed to dashboard clients when an event
// crosses into Critical.
type Notification struct {
	Timestamp   time.Time     `json:"timestamp"`
	SampleIndex int           `json:"sample_index"`
	Score       float64       `json:"score"`
	Severity    data.Severity `json:"severity"`
}

// Alerter watches successive snapshots for events newly classified
// Critical and fans notifications out through the websocket hub. Other
// notification channels (email, webhook) would hang off here.
type Alerter struct {
	hub        Broadcaster
	classifier *anomaly.Classifier
	log        *zap.Logger

	// Newest event timestamp already examined. The scheduler calls Process
	// from a single goroutine, so no lock is needed.
	announced time.Time
}

func NewAlerter(hub Broadcaster, classifier *anomaly.Classifier, log *zap.Logger) *Alerter {
	return &Alerter{hub: hub, classifier: classifier, log: log}
}

// Process scans a freshly published snapshot and announces critical events
// not seen in any prior generation. Re-reading the whole log each cycle
// means old criticals reappear every snapshot; the timestamp high-water
// mark keeps them from being re-announced.
func (a *Alerter) Process(snap data.Snapshot) {
	var newest time.Time
	var count int
	// Snapshot order is newest-first; stop at the high-water mark.
	for _, ev := range snap.Events {
		if !ev.Timestamp.After(a.announced) {
			break
		}
		if ev.Timestamp.After(newest) {
			newest = ev.Timestamp
		}
		sev := a.classifier.Classify(ev.Score)
		if sev != data.SeverityCritical {
			continue
		}
		count++
		if a.hub != nil {
			a.hub.BroadcastAlert(Notification{
				Timestamp:   ev.Timestamp,
				SampleIndex: ev.SampleIndex,
				Score:       ev.Score,
				Severity:    sev,
			})
		}
		a.log.Warn("critical anomaly",
			zap.Time("timestamp", ev.Timestamp),
			zap.Int("sample_index", ev.SampleIndex),
			zap.Float64("score", ev.Score),
		)
	}
	if newest.After(a.announced) {
		a.announced = newest
	}
	if count > 0 {
		a.log.Info("critical alerts announced", zap.Int("count", count))
	}
}
