// Package synth generates simulated access-log events.
package synth

import (
	"time"

	"github.com/brianvoe/gofakeit/v7"

	"salesinsight/internal/catalog"
	"salesinsight/internal/weblog"
)

// Generator produces n synthetic events.
type Generator interface {
	Generate(n int) []weblog.Event
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(n int) []weblog.Event

// Generate calls f(n).
func (f GeneratorFunc) Generate(n int) []weblog.Event { return f(n) }

// Options controls the shape of generated data.
type Options struct {
	Start time.Time
	Span  time.Duration
	// Seed makes output reproducible. 0 picks a random seed on every
	// Generate call.
	Seed uint64
}

// Synthesizer draws events uniformly from a catalog's pages, countries,
// job types and status codes.
type Synthesizer struct {
	cat  *catalog.Catalog
	opts Options
}

// New returns a Synthesizer over cat.
func New(cat *catalog.Catalog, opts Options) *Synthesizer {
	if opts.Span <= 0 {
		opts.Span = 90 * 24 * time.Hour
	}
	return &Synthesizer{cat: cat, opts: opts}
}

// Generate returns n events. With a non-zero seed, equal calls return equal
// events.
func (s *Synthesizer) Generate(n int) []weblog.Event {
	if n <= 0 {
		return nil
	}
	f := gofakeit.New(s.opts.Seed)

	start := s.opts.Start.UTC()
	end := start.Add(s.opts.Span)
	pages := s.cat.Pages()
	countries := s.cat.Countries()
	jobs := s.cat.JobTypes()
	codes := s.cat.StatusCodes()

	events := make([]weblog.Event, 0, n)
	for i := 0; i < n; i++ {
		page := f.RandomString(pages)
		job := catalog.NoJob
		if s.cat.IsRequestPage(page) {
			job = f.RandomString(jobs)
		}
		events = append(events, weblog.Event{
			Timestamp:  f.DateRange(start, end).UTC().Truncate(time.Second),
			IPAddress:  f.IPv4Address(),
			Method:     "GET",
			Page:       page,
			StatusCode: f.RandomInt(codes),
			Country:    f.RandomString(countries),
			JobType:    job,
		})
	}
	return events
}
