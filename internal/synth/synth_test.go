package synth

import (
	"net"
	"reflect"
	"testing"
	"time"

	"salesinsight/internal/catalog"
	"salesinsight/internal/weblog"
)

var start = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func TestGenerateShape(t *testing.T) {
	cat := catalog.Default()
	s := New(cat, Options{Start: start, Span: 90 * 24 * time.Hour, Seed: 1})
	events := s.Generate(500)
	if len(events) != 500 {
		t.Fatalf("len = %d, want 500", len(events))
	}

	pages := toSet(cat.Pages())
	countries := toSet(cat.Countries())
	jobs := toSet(cat.JobTypes())
	end := start.Add(90 * 24 * time.Hour)

	for i, e := range events {
		if e.Timestamp.Before(start) || e.Timestamp.After(end) {
			t.Errorf("event %d timestamp %v outside range", i, e.Timestamp)
		}
		if e.Timestamp.Nanosecond() != 0 {
			t.Errorf("event %d timestamp has sub-second part", i)
		}
		if net.ParseIP(e.IPAddress).To4() == nil {
			t.Errorf("event %d ip %q is not IPv4", i, e.IPAddress)
		}
		if e.Method != "GET" {
			t.Errorf("event %d method %q", i, e.Method)
		}
		if !pages[e.Page] || !countries[e.Country] {
			t.Errorf("event %d page/country %q/%q not in catalog", i, e.Page, e.Country)
		}
		switch e.StatusCode {
		case 200, 304, 404:
		default:
			t.Errorf("event %d status %d", i, e.StatusCode)
		}
		if cat.IsRequestPage(e.Page) {
			if !jobs[e.JobType] {
				t.Errorf("event %d on request page has job %q", i, e.JobType)
			}
		} else if e.JobType != catalog.NoJob {
			t.Errorf("event %d on filler page has job %q, want None", i, e.JobType)
		}
	}
}

func TestGenerateSeedIsDeterministic(t *testing.T) {
	cat := catalog.Default()
	a := New(cat, Options{Start: start, Seed: 99}).Generate(50)
	b := New(cat, Options{Start: start, Seed: 99}).Generate(50)
	if !reflect.DeepEqual(a, b) {
		t.Error("same seed produced different events")
	}
	c := New(cat, Options{Start: start, Seed: 100}).Generate(50)
	if reflect.DeepEqual(a, c) {
		t.Error("different seeds produced identical events")
	}
}

func TestGenerateNonPositive(t *testing.T) {
	if got := New(catalog.Default(), Options{Seed: 1}).Generate(0); len(got) != 0 {
		t.Errorf("Generate(0) = %d events", len(got))
	}
}

func TestGeneratorFunc(t *testing.T) {
	var g Generator = GeneratorFunc(func(n int) []weblog.Event {
		return make([]weblog.Event, n)
	})
	if len(g.Generate(3)) != 3 {
		t.Error("GeneratorFunc did not forward n")
	}
}

func toSet(xs []string) map[string]bool {
	m := make(map[string]bool, len(xs))
	for _, x := range xs {
		m[x] = true
	}
	return m
}
