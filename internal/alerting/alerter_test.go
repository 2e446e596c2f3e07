package alerting

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"siem-anomaly-gateway/internal/anomaly"
	"siem-anomaly-gateway/internal/data"
)

type captureBroadcaster struct {
	alerts []Notification
}

func (c *captureBroadcaster) BroadcastAlert(payload interface{}) {
	c.alerts = append(c.alerts, payload.(Notification))
}

func snapAt(gen uint64, events ...data.Event) data.Snapshot {
	return data.Snapshot{Events: events, Generation: gen, LoadedAt: time.Now()}
}

func ev(ts time.Time, idx int, score float64) data.Event {
	return data.Event{Timestamp: ts, SampleIndex: idx, Score: score, Anomalous: true}
}

func TestProcessAnnouncesOnlyCritical(t *testing.T) {
	classifier, err := anomaly.NewClassifier(nil)
	require.NoError(t, err)
	sink := &captureBroadcaster{}
	a := NewAlerter(sink, classifier, zap.NewNop())

	now := time.Now()
	a.Process(snapAt(1,
		ev(now, 2, 312.5), // critical
		ev(now.Add(-time.Second), 1, 311.5),
		ev(now.Add(-2*time.Second), 0, 310.5),
	))

	require.Len(t, sink.alerts, 1)
	assert.Equal(t, 2, sink.alerts[0].SampleIndex)
	assert.Equal(t, data.SeverityCritical, sink.alerts[0].Severity)
}

func TestProcessDoesNotReannounceAcrossGenerations(t *testing.T) {
	classifier, err := anomaly.NewClassifier(nil)
	require.NoError(t, err)
	sink := &captureBroadcaster{}
	a := NewAlerter(sink, classifier, zap.NewNop())

	now := time.Now()
	old := ev(now.Add(-time.Minute), 0, 313)
	a.Process(snapAt(1, old))
	require.Len(t, sink.alerts, 1)

	// The full log is re-read every cycle, so the old critical shows up
	// again plus one new critical.
	fresh := ev(now, 1, 314)
	a.Process(snapAt(2, fresh, old))

	require.Len(t, sink.alerts, 2)
	assert.Equal(t, 1, sink.alerts[1].SampleIndex)
}

func TestProcessWithNilBroadcasterStillAdvances(t *testing.T) {
	classifier, err := anomaly.NewClassifier(nil)
	require.NoError(t, err)
	a := NewAlerter(nil, classifier, zap.NewNop())

	now := time.Now()
	a.Process(snapAt(1, ev(now, 0, 313)))
	// Same event again must be past the high-water mark.
	a.Process(snapAt(2, ev(now, 0, 313)))
	assert.Equal(t, now.Unix(), a.announced.Unix())
}
