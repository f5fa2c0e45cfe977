package sessions

import (
	"time"

	"salesinsight/internal/weblog"
)

// Summary holds the aggregates of one session.
type Summary struct {
	SessionID       string
	IPAddress       string
	Seq             int
	Start           time.Time
	End             time.Time
	Events          int
	DistinctPages   int
	DurationMinutes float64
}

// Joined is an assignment with its session's aggregates attached.
type Joined struct {
	Assignment
	PagesPerSession int
	DurationMinutes float64
}

// Summarize computes one Summary per session id, in order of first
// appearance in as.
func Summarize(as []Assignment) []Summary {
	index := make(map[string]int)
	pages := make(map[string]map[string]struct{})
	var out []Summary

	for _, a := range as {
		i, ok := index[a.SessionID]
		if !ok {
			i = len(out)
			index[a.SessionID] = i
			pages[a.SessionID] = make(map[string]struct{})
			out = append(out, Summary{
				SessionID: a.SessionID,
				IPAddress: a.Event.IPAddress,
				Seq:       a.Seq,
				Start:     a.Event.Timestamp,
				End:       a.Event.Timestamp,
			})
		}
		s := &out[i]
		s.Events++
		if a.Event.Timestamp.Before(s.Start) {
			s.Start = a.Event.Timestamp
		}
		if a.Event.Timestamp.After(s.End) {
			s.End = a.Event.Timestamp
		}
		pages[a.SessionID][a.Event.Page] = struct{}{}
	}

	for i := range out {
		out[i].DistinctPages = len(pages[out[i].SessionID])
		out[i].DurationMinutes = out[i].End.Sub(out[i].Start).Minutes()
	}
	return out
}

// Join attaches each assignment's session aggregates. The result has exactly
// one row per assignment, in the same order.
func Join(as []Assignment, summaries []Summary) []Joined {
	byID := make(map[string]*Summary, len(summaries))
	for i := range summaries {
		byID[summaries[i].SessionID] = &summaries[i]
	}

	out := make([]Joined, len(as))
	for i, a := range as {
		out[i].Assignment = a
		if s, ok := byID[a.SessionID]; ok {
			out[i].PagesPerSession = s.DistinctPages
			out[i].DurationMinutes = s.DurationMinutes
		}
	}
	return out
}

// Build segments events and joins the session aggregates in one pass.
func Build(events []weblog.Event, gap time.Duration) ([]Joined, []Summary) {
	as := Segment(events, gap)
	summaries := Summarize(as)
	return Join(as, summaries), summaries
}
