package analytics

import (
	"sort"

	"salesinsight/internal/catalog"
	"salesinsight/internal/weblog"
)

// Count is one bar or pie slice.
type Count struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// HourCount is the number of requests in one hour of the day.
type HourCount struct {
	Hour  int `json:"hour"`
	Count int `json:"count"`
}

// HeatCell is one country × request type cell.
type HeatCell struct {
	Country     string `json:"country"`
	RequestType string `json:"request_type"`
	Count       int    `json:"count"`
}

// PagesDuration is the mean session duration of rows with a given number
// of distinct pages per session.
type PagesDuration struct {
	PagesPerSession int     `json:"pages_per_session"`
	AvgDuration     float64 `json:"avg_session_duration"`
}

// Bin is one histogram bucket covering [From, To). The last bin also
// includes To.
type Bin struct {
	From  float64 `json:"from"`
	To    float64 `json:"to"`
	Count int     `json:"count"`
}

// valueCounts counts labels and orders them by count descending, then label.
func valueCounts(records []weblog.Record, label func(weblog.Record) (string, bool)) []Count {
	counts := make(map[string]int)
	for _, r := range records {
		if l, ok := label(r); ok {
			counts[l]++
		}
	}
	out := make([]Count, 0, len(counts))
	for l, n := range counts {
		out = append(out, Count{Label: l, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	return out
}

// RequestsByCountry counts requests per country.
func RequestsByCountry(records []weblog.Record) []Count {
	return valueCounts(records, func(r weblog.Record) (string, bool) { return r.Country, true })
}

// RequestTypeDistribution counts requests per request type.
func RequestTypeDistribution(records []weblog.Record) []Count {
	return valueCounts(records, func(r weblog.Record) (string, bool) { return r.RequestType, true })
}

// JobTypesRequested counts requests per job type, excluding NoJob.
func JobTypesRequested(records []weblog.Record) []Count {
	return valueCounts(records, func(r weblog.Record) (string, bool) {
		return r.JobType, r.JobType != catalog.NoJob
	})
}

// RequestsByHour counts requests per hour of day, for hours that occur.
func RequestsByHour(records []weblog.Record) []HourCount {
	var counts [24]int
	for _, r := range records {
		if r.Hour >= 0 && r.Hour < 24 {
			counts[r.Hour]++
		}
	}
	var out []HourCount
	for h, n := range counts {
		if n > 0 {
			out = append(out, HourCount{Hour: h, Count: n})
		}
	}
	return out
}

// CountryRequestHeatmap counts requests per (country, request type) pair,
// ordered by country then request type.
func CountryRequestHeatmap(records []weblog.Record) []HeatCell {
	type key struct{ country, requestType string }
	counts := make(map[key]int)
	for _, r := range records {
		counts[key{r.Country, r.RequestType}]++
	}
	out := make([]HeatCell, 0, len(counts))
	for k, n := range counts {
		out = append(out, HeatCell{Country: k.country, RequestType: k.requestType, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Country != out[j].Country {
			return out[i].Country < out[j].Country
		}
		return out[i].RequestType < out[j].RequestType
	})
	return out
}

// ProductEngagement counts distinct source addresses per product, ordered
// by product name.
func ProductEngagement(records []weblog.Record) []Count {
	users := make(map[string]map[string]struct{})
	for _, r := range records {
		set, ok := users[r.ProductName]
		if !ok {
			set = make(map[string]struct{})
			users[r.ProductName] = set
		}
		set[r.IPAddress] = struct{}{}
	}
	out := make([]Count, 0, len(users))
	for p, set := range users {
		out = append(out, Count{Label: p, Count: len(set)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}

// PagesVsDuration averages session duration over rows grouped by pages per
// session, ordered by pages per session.
func PagesVsDuration(records []weblog.Record) []PagesDuration {
	sums := make(map[int]float64)
	counts := make(map[int]int)
	for _, r := range records {
		sums[r.PagesPerSession] += r.SessionDuration
		counts[r.PagesPerSession]++
	}
	out := make([]PagesDuration, 0, len(counts))
	for p, n := range counts {
		out = append(out, PagesDuration{PagesPerSession: p, AvgDuration: sums[p] / float64(n)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PagesPerSession < out[j].PagesPerSession })
	return out
}

// DurationHistogram buckets session durations into bins equal-width bins
// spanning [0, longest duration]. When every duration is 0 a single bin
// [0, 1) is returned. An empty input returns nil.
func DurationHistogram(records []weblog.Record, bins int) []Bin {
	if len(records) == 0 {
		return nil
	}
	if bins <= 0 {
		bins = 20
	}
	longest := 0.0
	for _, r := range records {
		if r.SessionDuration > longest {
			longest = r.SessionDuration
		}
	}
	if longest == 0 {
		return []Bin{{From: 0, To: 1, Count: len(records)}}
	}

	width := longest / float64(bins)
	out := make([]Bin, bins)
	for i := range out {
		out[i].From = float64(i) * width
		out[i].To = float64(i+1) * width
	}
	out[bins-1].To = longest
	for _, r := range records {
		i := int(r.SessionDuration / width)
		if i >= bins {
			i = bins - 1
		}
		if i < 0 {
			i = 0
		}
		out[i].Count++
	}
	return out
}
