// internal/query/aggregate.go
package query

import "siem-anomaly-gateway/internal/data"

// Summarize computes the dashboard metrics over a filtered view. The mean
// is explicitly 0 on an empty view (not NaN) so downstream display stays
// simple, and the latest record is the filtered view's first element since
// filtering preserves descending-timestamp order.
func Summarize(snap data.Snapshot, filtered []data.Event) data.MetricsSummary {
	summary := data.MetricsSummary{
		TotalCount:    len(snap.Events),
		FilteredCount: len(filtered),
	}
	if len(filtered) == 0 {
		return summary
	}

	var sum float64
	for _, ev := range filtered {
		sum += ev.Score
	}
	summary.MeanScore = sum / float64(len(filtered))

	latest := filtered[0]
	summary.Latest = &latest
	return summary
}
