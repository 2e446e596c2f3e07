// internal/data/models.go
package data

import "time"

// Event is one scored anomaly record ingested from the detector's alert log.
// Events are immutable once parsed.
type Event struct {
	Timestamp   time.Time `json:"timestamp"`
	SampleIndex int       `json:"sample_index"` // unique within one ingestion batch, not across time
	Score       float64   `json:"score"`
	Anomalous   bool      `json:"anomalous"` // GNN label: false = normal (0), true = anomaly (1)
}

// Severity is the four-level bucket derived from an event's score.
type Severity string

const (
	SeverityLow      Severity = "Low"
	SeverityMedium   Severity = "Medium"
	SeverityHigh     Severity = "High"
	SeverityCritical Severity = "Critical"
)

var severityRank = map[Severity]int{
	SeverityLow:      0,
	SeverityMedium:   1,
	SeverityHigh:     2,
	SeverityCritical: 3,
}

// Rank returns the ordinal position of s, with Low lowest. Unknown values
// rank below Low.
func (s Severity) Rank() int {
	if r, ok := severityRank[s]; ok {
		return r
	}
	return -1
}

// Valid reports whether s is one of the four known severity levels.
func (s Severity) Valid() bool {
	_, ok := severityRank[s]
	return ok
}

// Severities lists all levels in ascending order.
func Severities() []Severity {
	return []Severity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}
}

// Snapshot is an immutable materialization of every known event at one
// ingestion generation, ordered most-recent-first. A new loader cycle
// produces a new Snapshot; nothing mutates an existing one.
type Snapshot struct {
	Events     []Event   `json:"events"`
	Generation uint64    `json:"generation"` // 0 means the store was never populated
	LoadedAt   time.Time `json:"loaded_at"`
}

// Len returns the number of events in the snapshot.
func (s Snapshot) Len() int { return len(s.Events) }

// Populated reports whether this snapshot came from at least one successful
// load. An empty log still produces a populated snapshot; only a store that
// never loaded yields false.
func (s Snapshot) Populated() bool { return s.Generation > 0 }

// MetricsSummary holds the aggregate figures computed over a filtered view.
type MetricsSummary struct {
	TotalCount    int     `json:"total_count"`
	FilteredCount int     `json:"filtered_count"`
	MeanScore     float64 `json:"mean_score"` // 0 when the filtered view is empty
	Latest        *Event  `json:"latest,omitempty"`
}
