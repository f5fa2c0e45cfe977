// Package dataset loads, validates, derives and caches the access-log
// dataset behind the dashboard.
package dataset

import (
	"time"

	"salesinsight/internal/catalog"
	"salesinsight/internal/sessions"
	"salesinsight/internal/weblog"
)

// Source tells how a snapshot's events were obtained.
type Source string

const (
	// SourceGenerated means no dataset file existed.
	SourceGenerated Source = "generated"
	// SourceLoaded means the dataset file was valid and loaded.
	SourceLoaded Source = "loaded"
	// SourceRegenerated means the file was invalid, or regeneration was
	// requested, and it was replaced with synthetic data.
	SourceRegenerated Source = "regenerated"
)

// NoticeInvalid is shown when an invalid dataset was replaced.
const NoticeInvalid = "CSV missing required columns. Generating new data."

// Snapshot is the immutable derived dataset of one load. Callers must not
// modify Records or Sessions.
type Snapshot struct {
	ID       string
	LoadedAt time.Time
	Source   Source
	// Notice is a user-facing message about the load, empty when nothing
	// unusual happened.
	Notice string
	Path   string

	Records     []weblog.Record
	Sessions    []sessions.Summary
	DroppedRows int
}

// MaxSessionDuration returns the longest session duration in minutes.
func (s *Snapshot) MaxSessionDuration() float64 {
	longest := 0.0
	for _, r := range s.Records {
		if r.SessionDuration > longest {
			longest = r.SessionDuration
		}
	}
	return longest
}

// DurationBounds returns the bounds of the session-duration filter control:
// 0 and the whole-minute maximum plus one.
func (s *Snapshot) DurationBounds() (lo, hi int) {
	return 0, int(s.MaxSessionDuration()) + 1
}

// Derive turns raw events into records: request type, hour, ISO week and
// product from the catalog, then session id and session aggregates. Records
// come out ordered by address, then time.
func Derive(events []weblog.Event, cat *catalog.Catalog, gap time.Duration) ([]weblog.Record, []sessions.Summary) {
	joined, summaries := sessions.Build(events, gap)

	records := make([]weblog.Record, len(joined))
	for i, j := range joined {
		rt := cat.RequestType(j.Event.Page)
		_, week := j.Event.Timestamp.ISOWeek()
		records[i] = weblog.Record{
			Event:           j.Event,
			RequestType:     rt,
			Hour:            j.Event.Timestamp.Hour(),
			Week:            week,
			ProductName:     cat.Product(rt),
			SessionID:       j.SessionID,
			PagesPerSession: j.PagesPerSession,
			SessionDuration: j.DurationMinutes,
		}
	}
	return records, summaries
}
