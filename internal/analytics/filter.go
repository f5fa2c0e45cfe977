// Package analytics filters derived records and computes the dashboard's
// KPIs, chart series and descriptive statistics.
package analytics

import (
	"salesinsight/internal/catalog"
	"salesinsight/internal/weblog"
)

// Range is an inclusive numeric interval.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether Min <= v <= Max.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Filter is a conjunction of inclusion predicates. An empty categorical
// selection means every valid catalog value for that field, not "nothing".
// A nil Duration places no restriction on session duration.
type Filter struct {
	Countries    []string
	RequestTypes []string
	JobTypes     []string
	Hours        []int
	Products     []string
	Duration     *Range
}

// IsZero reports whether no predicate was selected.
func (f Filter) IsZero() bool {
	return len(f.Countries) == 0 && len(f.RequestTypes) == 0 && len(f.JobTypes) == 0 &&
		len(f.Hours) == 0 && len(f.Products) == 0 && f.Duration == nil
}

func stringSet(selected, valid []string) map[string]struct{} {
	if len(selected) == 0 {
		selected = valid
	}
	set := make(map[string]struct{}, len(selected))
	for _, s := range selected {
		set[s] = struct{}{}
	}
	return set
}

func allHours() []int {
	hours := make([]int, 24)
	for i := range hours {
		hours[i] = i
	}
	return hours
}

// Apply returns the records that satisfy every predicate of f, in input
// order. The input slice is not modified.
func Apply(records []weblog.Record, f Filter, cat *catalog.Catalog) []weblog.Record {
	countries := stringSet(f.Countries, cat.Countries())
	types := stringSet(f.RequestTypes, cat.RequestTypes())
	jobs := stringSet(f.JobTypes, cat.JobTypesWithNone())
	products := stringSet(f.Products, cat.Products())

	selectedHours := f.Hours
	if len(selectedHours) == 0 {
		selectedHours = allHours()
	}
	hours := make(map[int]struct{}, len(selectedHours))
	for _, h := range selectedHours {
		hours[h] = struct{}{}
	}

	out := make([]weblog.Record, 0, len(records))
	for _, r := range records {
		if _, ok := countries[r.Country]; !ok {
			continue
		}
		if _, ok := types[r.RequestType]; !ok {
			continue
		}
		if _, ok := jobs[r.JobType]; !ok {
			continue
		}
		if _, ok := hours[r.Hour]; !ok {
			continue
		}
		if _, ok := products[r.ProductName]; !ok {
			continue
		}
		if f.Duration != nil && !f.Duration.Contains(r.SessionDuration) {
			continue
		}
		out = append(out, r)
	}
	return out
}
