package analytics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"salesinsight/internal/weblog"
)

// Stats are the descriptive statistics of the EDA view. A nil field means the
// value is undefined for the data, e.g. the standard deviation of a single
// group.
type Stats struct {
	MeanRequestsPerCountry   *float64 `json:"mean_requests_per_country"`
	StdRequestsPerCountry    *float64 `json:"std_requests_per_country"`
	MedianRequestsPerCountry *float64 `json:"median_requests_per_country"`
	MeanRequestsPerJobType   *float64 `json:"mean_requests_per_job_type"`
	StdRequestsPerJobType    *float64 `json:"std_requests_per_job_type"`
	// PagesDurationCorrelation is Pearson's r of pages per session against
	// session duration over all rows.
	PagesDurationCorrelation *float64 `json:"pages_duration_correlation"`
}

// Describe computes Stats over records. ok is false for an empty set.
//
// Standard deviations are sample deviations (n-1). When no record has a job
// type the job-type mean and deviation are 0.
func Describe(records []weblog.Record) (s Stats, ok bool) {
	if len(records) == 0 {
		return Stats{}, false
	}

	perCountry := make(map[string]int)
	for _, r := range records {
		perCountry[r.Country]++
	}
	countries := countValues(perCountry)
	s.MeanRequestsPerCountry = defined(stat.Mean(countries, nil))
	s.StdRequestsPerCountry = defined(stat.StdDev(countries, nil))
	s.MedianRequestsPerCountry = defined(median(countries))

	jobs := countValues(jobTypeCounts(records))
	if len(jobs) == 0 {
		s.MeanRequestsPerJobType = defined(0)
		s.StdRequestsPerJobType = defined(0)
	} else {
		s.MeanRequestsPerJobType = defined(stat.Mean(jobs, nil))
		s.StdRequestsPerJobType = defined(stat.StdDev(jobs, nil))
	}

	pages := make([]float64, len(records))
	durations := make([]float64, len(records))
	for i, r := range records {
		pages[i] = float64(r.PagesPerSession)
		durations[i] = r.SessionDuration
	}
	if len(records) > 1 {
		s.PagesDurationCorrelation = defined(stat.Correlation(pages, durations, nil))
	}
	return s, true
}

func countValues(counts map[string]int) []float64 {
	out := make([]float64, 0, len(counts))
	for _, n := range counts {
		out = append(out, float64(n))
	}
	sort.Float64s(out)
	return out
}

// median of sorted xs, averaging the two middle values for even lengths.
func median(xs []float64) float64 {
	n := len(xs)
	if n == 0 {
		return math.NaN()
	}
	if n%2 == 1 {
		return xs[n/2]
	}
	return (xs[n/2-1] + xs[n/2]) / 2
}

func defined(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
