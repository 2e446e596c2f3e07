// internal/loader/loader.go
package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"go.uber.org/zap"

	"siem-anomaly-gateway/internal/data"
)

// ErrNotFound reports that the alert log does not exist yet. The scheduler
// treats this as "no data yet", not as a failure.
var ErrNotFound = errors.New("alert log not found")

// Loader reads the detector's alert log in full each cycle and normalizes
// it into typed events. There is no incremental tailing: the log is small
// enough that re-parsing every cycle buys consistency for free.
type Loader struct {
	path string
	log  *zap.Logger
}

func New(path string, log *zap.Logger) *Loader {
	return &Loader{path: path, log: log}
}

// Load reads and parses every record, returning events sorted descending by
// timestamp. A single malformed row fails the whole load with a
// *data.ParseError; the previous good snapshot stays authoritative upstream.
// A missing file returns ErrNotFound; an empty or header-only file returns
// an empty slice.
func (l *Loader) Load() ([]data.Event, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("opening alert log: %w", err)
	}
	defer f.Close()

	return l.parse(f)
}

func (l *Loader) parse(r io.Reader) ([]data.Event, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // row width is validated per field

	header, err := reader.Read()
	if err == io.EOF {
		return []data.Event{}, nil
	}
	if err != nil {
		return nil, &data.ParseError{Line: 1, Reason: err.Error()}
	}
	cols, err := data.NormalizeHeader(header)
	if err != nil {
		return nil, err
	}

	var events []data.Event
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &data.ParseError{Line: line, Reason: err.Error()}
		}
		ev, err := data.ParseRow(record, cols, line)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.After(events[j].Timestamp)
	})

	l.log.Debug("alert log loaded", zap.Int("events", len(events)))
	if events == nil {
		events = []data.Event{}
	}
	return events, nil
}
