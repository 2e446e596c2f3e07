// internal/data/parser.go
package data

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Canonical column names after normalization. The detector writes headers
// with embedded spaces ("Sample Index", "VAE Score") and sometimes stray
// whitespace; NormalizeHeader maps them onto these.
const (
	ColTimestamp   = "Timestamp"
	ColSampleIndex = "Sample_Index"
	ColScore       = "VAE_Score"
	ColLabel       = "GNN_Label"
)

// Timestamp layouts accepted in the alert log, tried in order. The detector
// emits space-separated timestamps with fractional seconds.
var timestampLayouts = []string{
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
}

// ParseError describes a malformed row or header in the alert log. A single
// bad row fails the whole load; silently dropping anomaly records would be
// worse than a visible failure.
type ParseError struct {
	Line   int // 1-based line number in the source, header = 1
	Field  string
	Reason string
}

func (e *ParseError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("alert log line %d: %s", e.Line, e.Reason)
	}
	return fmt.Sprintf("alert log line %d: field %q: %s", e.Line, e.Field, e.Reason)
}

// NormalizeHeader trims each column name and replaces internal spaces with
// underscores, then returns a column→index map. Missing required columns are
// a ParseError on line 1.
func NormalizeHeader(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		clean := strings.ReplaceAll(strings.TrimSpace(name), " ", "_")
		cols[clean] = i
	}
	for _, required := range []string{ColTimestamp, ColSampleIndex, ColScore, ColLabel} {
		if _, ok := cols[required]; !ok {
			return nil, &ParseError{Line: 1, Field: required, Reason: "required column missing"}
		}
	}
	return cols, nil
}

// ParseRow converts one data row into an Event using the column map from
// NormalizeHeader. line is the 1-based source line number for diagnostics.
func ParseRow(record []string, cols map[string]int, line int) (Event, error) {
	field := func(name string) (string, error) {
		idx := cols[name]
		if idx >= len(record) {
			return "", &ParseError{Line: line, Field: name, Reason: "row has too few fields"}
		}
		return strings.TrimSpace(record[idx]), nil
	}

	var ev Event

	raw, err := field(ColTimestamp)
	if err != nil {
		return Event{}, err
	}
	ts, err := parseTimestamp(raw)
	if err != nil {
		return Event{}, &ParseError{Line: line, Field: ColTimestamp, Reason: err.Error()}
	}
	ev.Timestamp = ts

	raw, err = field(ColSampleIndex)
	if err != nil {
		return Event{}, err
	}
	idx, err := strconv.Atoi(raw)
	if err != nil {
		return Event{}, &ParseError{Line: line, Field: ColSampleIndex, Reason: fmt.Sprintf("not an integer: %q", raw)}
	}
	ev.SampleIndex = idx

	raw, err = field(ColScore)
	if err != nil {
		return Event{}, err
	}
	score, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return Event{}, &ParseError{Line: line, Field: ColScore, Reason: fmt.Sprintf("not a number: %q", raw)}
	}
	ev.Score = score

	raw, err = field(ColLabel)
	if err != nil {
		return Event{}, err
	}
	switch raw {
	case "0":
		ev.Anomalous = false
	case "1":
		ev.Anomalous = true
	default:
		return Event{}, &ParseError{Line: line, Field: ColLabel, Reason: fmt.Sprintf("label must be 0 or 1, got %q", raw)}
	}

	return ev, nil
}

func parseTimestamp(raw string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", raw)
}
