// Package sessions reconstructs visitor sessions from access-log events and
// computes per-session aggregates.
package sessions

import (
	"sort"
	"strconv"
	"time"

	"salesinsight/internal/weblog"
)

// DefaultGap is the inactivity threshold that ends a session.
const DefaultGap = 30 * time.Minute

// Assignment is an event tagged with the session it belongs to.
type Assignment struct {
	Event     weblog.Event
	Seq       int // per-address session counter, starting at 0
	SessionID string
}

// ID builds the globally unique session id for an address and counter.
func ID(ip string, seq int) string {
	return ip + "_" + strconv.Itoa(seq)
}

// Segment groups events by source address, orders each group by time and
// splits it into sessions. A new session starts only when the gap to the
// previous event of the same address is strictly greater than gap. The
// first event of an address always opens session 0.
//
// The result is ordered by address, then timestamp; events with equal
// timestamps keep their input order. The input slice is not modified.
// A non-positive gap means DefaultGap.
func Segment(events []weblog.Event, gap time.Duration) []Assignment {
	if gap <= 0 {
		gap = DefaultGap
	}

	sorted := make([]weblog.Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].IPAddress != sorted[j].IPAddress {
			return sorted[i].IPAddress < sorted[j].IPAddress
		}
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	out := make([]Assignment, 0, len(sorted))
	seq := 0
	for i, ev := range sorted {
		switch {
		case i == 0 || ev.IPAddress != sorted[i-1].IPAddress:
			seq = 0
		case ev.Timestamp.Sub(sorted[i-1].Timestamp) > gap:
			seq++
		}
		out = append(out, Assignment{
			Event:     ev,
			Seq:       seq,
			SessionID: ID(ev.IPAddress, seq),
		})
	}
	return out
}
