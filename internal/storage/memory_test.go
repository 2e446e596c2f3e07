package storage

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"siem-anomaly-gateway/internal/data"
)

func event(ts time.Time, idx int, score float64) data.Event {
	return data.Event{Timestamp: ts, SampleIndex: idx, Score: score, Anomalous: true}
}

func TestEventStoreStartsUnpopulated(t *testing.T) {
	s := NewEventStore()
	snap := s.Snapshot()
	assert.False(t, snap.Populated())
	assert.Zero(t, snap.Generation)
	assert.Empty(t, snap.Events)
}

func TestReplaceAdvancesGeneration(t *testing.T) {
	s := NewEventStore()
	now := time.Now()

	first := s.Replace([]data.Event{event(now, 0, 310)}, now)
	assert.Equal(t, uint64(1), first.Generation)
	assert.True(t, first.Populated())

	second := s.Replace([]data.Event{event(now, 1, 311), event(now, 2, 312)}, now)
	assert.Equal(t, uint64(2), second.Generation)
	assert.Len(t, second.Events, 2)

	// An empty load is still a populated generation, distinct from "never
	// loaded".
	third := s.Replace([]data.Event{}, now)
	assert.Equal(t, uint64(3), third.Generation)
	assert.True(t, third.Populated())
	assert.Empty(t, third.Events)
}

func TestSnapshotIsIsolatedFromLaterReplace(t *testing.T) {
	s := NewEventStore()
	now := time.Now()
	s.Replace([]data.Event{event(now, 0, 310)}, now)

	snap := s.Snapshot()
	s.Replace([]data.Event{event(now, 1, 311), event(now, 2, 312)}, now)

	require.Len(t, snap.Events, 1)
	assert.Equal(t, 0, snap.Events[0].SampleIndex)
	assert.Equal(t, uint64(1), snap.Generation)
}

func TestConcurrentSnapshotsSeeCompleteState(t *testing.T) {
	s := NewEventStore()
	now := time.Now()

	var wg sync.WaitGroup
	stop := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			batch := make([]data.Event, i%10+1)
			for j := range batch {
				batch[j] = event(now, j, 310)
			}
			s.Replace(batch, now)
		}
		close(stop)
	}()

	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				snap := s.Snapshot()
				// Every observed snapshot is a complete batch: its length
				// matches what one Replace call published.
				if snap.Populated() {
					assert.NotEmpty(t, snap.Events)
				}
			}
		}()
	}
	wg.Wait()
}
