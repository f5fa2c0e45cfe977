package dataset

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"salesinsight/internal/catalog"
	"salesinsight/internal/synth"
	"salesinsight/internal/weblog"
)

const validCSV = `timestamp,ip_address,method,page,status_code,country,job_type
2025-01-01 09:00:00,10.0.0.1,GET,/scheduledemo.php,200,US,Consulting
2025-01-01 09:20:00,10.0.0.1,GET,/index.html,304,US,None
2025-01-01 10:30:00,10.0.0.1,GET,/prototype.php,200,US,AI Integration
2025-01-02 08:00:00,10.0.0.2,GET,/event.php,404,FR,Custom Development
`

func newLoader(t *testing.T, path string, generated *int) *Loader {
	t.Helper()
	cat := catalog.Default()
	gen := synth.New(cat, synth.Options{Start: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), Seed: 5})
	return &Loader{
		Path:    path,
		Catalog: cat,
		Generator: synth.GeneratorFunc(func(n int) []weblog.Event {
			if generated != nil {
				*generated++
			}
			return gen.Generate(n)
		}),
		Records: 40,
		Gap:     30 * time.Minute,
	}
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestReadEventsValid(t *testing.T) {
	events, dropped, err := ReadEvents(strings.NewReader(validCSV))
	if err != nil {
		t.Fatalf("ReadEvents: %v", err)
	}
	if dropped != 0 || len(events) != 4 {
		t.Fatalf("got %d events, %d dropped; want 4, 0", len(events), dropped)
	}
	e := events[3]
	if e.IPAddress != "10.0.0.2" || e.Page != "/event.php" || e.StatusCode != 404 || e.Country != "FR" {
		t.Errorf("unexpected event %+v", e)
	}
	if !e.Timestamp.Equal(time.Date(2025, 1, 2, 8, 0, 0, 0, time.UTC)) {
		t.Errorf("timestamp = %v", e.Timestamp)
	}
}

func TestReadEventsMissingColumns(t *testing.T) {
	_, _, err := ReadEvents(strings.NewReader("timestamp,ip_address,page\n2025-01-01 09:00:00,1.1.1.1,/x\n"))
	if !errors.Is(err, ErrMissingColumns) {
		t.Fatalf("err = %v, want ErrMissingColumns", err)
	}
	for _, col := range []string{"status_code", "country", "job_type"} {
		if !strings.Contains(err.Error(), col) {
			t.Errorf("error %q does not name %s", err, col)
		}
	}
}

func TestReadEventsMethodOptional(t *testing.T) {
	body := "timestamp,ip_address,page,status_code,country,job_type,request_type\n" +
		"2025-01-01 09:00:00,1.1.1.1,/index.html,200,US,None,Scheduled Demo\n"
	events, _, err := ReadEvents(strings.NewReader(body))
	if err != nil {
		t.Fatalf("ReadEvents: %v", err)
	}
	if events[0].Method != "GET" {
		t.Errorf("method = %q, want GET default", events[0].Method)
	}
}

func TestReadEventsDropsBadTimestamps(t *testing.T) {
	body := "timestamp,ip_address,method,page,status_code,country,job_type\n" +
		"not-a-time,1.1.1.1,GET,/x,200,US,None\n" +
		"2025-01-01T09:00:00Z,1.1.1.1,GET,/x,200,US,None\n" +
		",1.1.1.1,GET,/x,200,US,None\n"
	events, dropped, err := ReadEvents(strings.NewReader(body))
	if err != nil {
		t.Fatalf("ReadEvents: %v", err)
	}
	if len(events) != 1 || dropped != 2 {
		t.Errorf("got %d events, %d dropped; want 1, 2", len(events), dropped)
	}
}

func TestReadEventsEmptyAndMalformed(t *testing.T) {
	if _, _, err := ReadEvents(strings.NewReader("")); !errors.Is(err, ErrMissingColumns) {
		t.Errorf("empty input: err = %v, want ErrMissingColumns", err)
	}
	bad := "timestamp,ip_address,page,status_code,country,job_type\n\"unterminated,1,2,3,4,5\n"
	if _, _, err := ReadEvents(strings.NewReader(bad)); !errors.Is(err, ErrMalformed) {
		t.Errorf("bad quoting: err = %v, want ErrMalformed", err)
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	for _, name := range []string{"logs.csv", "logs.csv.gz"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			in, _, err := ReadEvents(strings.NewReader(validCSV))
			if err != nil {
				t.Fatal(err)
			}
			if err := WriteFile(path, in); err != nil {
				t.Fatalf("WriteFile: %v", err)
			}
			out, dropped, err := ReadFile(path)
			if err != nil {
				t.Fatalf("ReadFile: %v", err)
			}
			if dropped != 0 || len(out) != len(in) {
				t.Fatalf("got %d events, want %d", len(out), len(in))
			}
			for i := range in {
				if in[i] != out[i] {
					t.Errorf("event %d: got %+v, want %+v", i, out[i], in[i])
				}
			}
		})
	}
}

func TestWriteRecordsHeader(t *testing.T) {
	var buf bytes.Buffer
	rec := weblog.Record{
		Event:           weblog.Event{Timestamp: time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC), IPAddress: "1.1.1.1", Method: "GET", Page: "/x", StatusCode: 200, Country: "US", JobType: "None"},
		RequestType:     catalog.Other,
		Hour:            9,
		Week:            1,
		ProductName:     "General Product",
		SessionID:       "1.1.1.1_0",
		PagesPerSession: 1,
		SessionDuration: 12.5,
	}
	if err := WriteRecords(&buf, []weblog.Record{rec}); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if !strings.HasSuffix(lines[0], "session_id,pages_per_session,session_duration") {
		t.Errorf("header = %q", lines[0])
	}
	if lines[1] != "2025-01-01 09:00:00,1.1.1.1,GET,/x,200,US,None,Other,9,1,General Product,1.1.1.1_0,1,12.5" {
		t.Errorf("row = %q", lines[1])
	}
}

func TestDerive(t *testing.T) {
	events, _, err := ReadEvents(strings.NewReader(validCSV))
	if err != nil {
		t.Fatal(err)
	}
	records, summaries := Derive(events, catalog.Default(), 30*time.Minute)
	if len(records) != len(events) {
		t.Fatalf("records = %d, want %d", len(records), len(events))
	}
	if len(summaries) != 3 {
		t.Fatalf("sessions = %d, want 3", len(summaries))
	}

	first := records[0]
	if first.RequestType != catalog.ScheduledDemo || first.ProductName != "Demo Product" {
		t.Errorf("first record type/product = %q/%q", first.RequestType, first.ProductName)
	}
	if first.Hour != 9 || first.Week != 1 {
		t.Errorf("hour/week = %d/%d, want 9/1", first.Hour, first.Week)
	}
	if first.SessionID != "10.0.0.1_0" || first.PagesPerSession != 2 || first.SessionDuration != 20 {
		t.Errorf("session fields = %s/%d/%v", first.SessionID, first.PagesPerSession, first.SessionDuration)
	}
	if records[1].RequestType != catalog.Other || records[1].ProductName != "General Product" {
		t.Errorf("filler page type/product = %q/%q", records[1].RequestType, records[1].ProductName)
	}
	if records[2].SessionID != "10.0.0.1_1" || records[2].SessionDuration != 0 {
		t.Errorf("third record session = %s/%v", records[2].SessionID, records[2].SessionDuration)
	}
}

func TestLoaderStates(t *testing.T) {
	t.Run("no file generates", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "logs.csv")
		var generated int
		snap, err := newLoader(t, path, &generated).Load()
		if err != nil {
			t.Fatal(err)
		}
		if snap.Source != SourceGenerated || snap.Notice != "" || generated != 1 {
			t.Errorf("source=%s notice=%q generated=%d", snap.Source, snap.Notice, generated)
		}
		if len(snap.Records) != 40 {
			t.Errorf("records = %d, want 40", len(snap.Records))
		}
		if _, err := os.Stat(path); err != nil {
			t.Errorf("dataset not written: %v", err)
		}
	})

	t.Run("valid file loads", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "logs.csv")
		writeFile(t, path, validCSV)
		var generated int
		snap, err := newLoader(t, path, &generated).Load()
		if err != nil {
			t.Fatal(err)
		}
		if snap.Source != SourceLoaded || generated != 0 || len(snap.Records) != 4 {
			t.Errorf("source=%s generated=%d records=%d", snap.Source, generated, len(snap.Records))
		}
		if snap.ID == "" || snap.Path != path {
			t.Errorf("id=%q path=%q", snap.ID, snap.Path)
		}
	})

	t.Run("invalid file regenerates", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "logs.csv")
		writeFile(t, path, "timestamp,ip_address\n2025-01-01 09:00:00,1.1.1.1\n")
		var generated int
		snap, err := newLoader(t, path, &generated).Load()
		if err != nil {
			t.Fatal(err)
		}
		if snap.Source != SourceRegenerated || snap.Notice != NoticeInvalid || generated != 1 {
			t.Errorf("source=%s notice=%q generated=%d", snap.Source, snap.Notice, generated)
		}

		// The rewritten file is valid on the next load.
		snap, err = newLoader(t, path, &generated).Load()
		if err != nil {
			t.Fatal(err)
		}
		if snap.Source != SourceLoaded || generated != 1 || len(snap.Records) != 40 {
			t.Errorf("reload: source=%s generated=%d records=%d", snap.Source, generated, len(snap.Records))
		}
	})

	t.Run("unreadable path errors", func(t *testing.T) {
		dir := t.TempDir()
		snap, err := newLoader(t, dir, nil).Load()
		if err == nil {
			t.Fatalf("expected error loading a directory, got snapshot %+v", snap)
		}
	})
}

func TestDroppedRowsReported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs.csv")
	writeFile(t, path, validCSV+"garbage,10.0.0.9,GET,/x,200,US,None\n")
	snap, err := newLoader(t, path, nil).Load()
	if err != nil {
		t.Fatal(err)
	}
	if snap.DroppedRows != 1 || len(snap.Records) != 4 {
		t.Errorf("dropped=%d records=%d, want 1, 4", snap.DroppedRows, len(snap.Records))
	}
}

func TestDurationBounds(t *testing.T) {
	snap := &Snapshot{Records: []weblog.Record{{SessionDuration: 0}, {SessionDuration: 27.5}}}
	lo, hi := snap.DurationBounds()
	if lo != 0 || hi != 28 {
		t.Errorf("DurationBounds() = %d, %d; want 0, 28", lo, hi)
	}
	if _, hi := (&Snapshot{}).DurationBounds(); hi != 1 {
		t.Errorf("empty snapshot upper bound = %d, want 1", hi)
	}
}

func TestCacheReusesSnapshotUntilFileChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs.csv")
	writeFile(t, path, validCSV)
	c := NewCache(newLoader(t, path, nil))

	var observed []*Snapshot
	c.OnLoad(func(s *Snapshot) { observed = append(observed, s) })

	a, err := c.Get()
	if err != nil {
		t.Fatal(err)
	}
	b, err := c.Get()
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Error("unchanged file produced a new snapshot")
	}
	if len(observed) != 1 {
		t.Fatalf("observers called %d times, want 1", len(observed))
	}

	writeFile(t, path, validCSV+"2025-01-03 12:00:00,10.0.0.3,GET,/event.php,200,DE,Consulting\n")
	future := time.Now().Add(time.Hour)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatal(err)
	}
	d, err := c.Get()
	if err != nil {
		t.Fatal(err)
	}
	if d == a || len(d.Records) != 5 {
		t.Errorf("changed file: same=%v records=%d", d == a, len(d.Records))
	}

	c.Invalidate()
	e, err := c.Get()
	if err != nil {
		t.Fatal(err)
	}
	if e == d {
		t.Error("Invalidate did not force a reload")
	}
	if len(observed) != 3 {
		t.Errorf("observers called %d times, want 3", len(observed))
	}
}

func TestCacheGeneratedFileIsNotReloaded(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs.csv")
	var generated int
	c := NewCache(newLoader(t, path, &generated))

	a, err := c.Get()
	if err != nil {
		t.Fatal(err)
	}
	b, err := c.Get()
	if err != nil {
		t.Fatal(err)
	}
	if a != b || generated != 1 {
		t.Errorf("same=%v generated=%d, want true, 1", a == b, generated)
	}
}

func TestCacheRegenerate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs.csv")
	writeFile(t, path, validCSV)
	var generated int
	c := NewCache(newLoader(t, path, &generated))

	if _, err := c.Get(); err != nil {
		t.Fatal(err)
	}
	snap, err := c.Regenerate()
	if err != nil {
		t.Fatal(err)
	}
	if snap.Source != SourceRegenerated || generated != 1 || len(snap.Records) != 40 {
		t.Errorf("source=%s generated=%d records=%d", snap.Source, generated, len(snap.Records))
	}
	again, err := c.Get()
	if err != nil {
		t.Fatal(err)
	}
	if again != snap {
		t.Error("Get after Regenerate did not return the regenerated snapshot")
	}
}
