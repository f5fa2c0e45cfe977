package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"

	"salesinsight/internal/weblog"
)

var (
	// ErrMissingColumns reports a dataset whose header lacks required columns.
	ErrMissingColumns = errors.New("dataset missing required columns")
	// ErrMalformed reports a dataset that cannot be parsed as CSV.
	ErrMalformed = errors.New("dataset is not valid CSV")
)

// persistedColumns is the header written to disk. Derived fields are not
// persisted.
var persistedColumns = []string{"timestamp", "ip_address", "method", "page", "status_code", "country", "job_type"}

// requiredColumns must be present for a file to load. method is optional.
var requiredColumns = []string{"timestamp", "ip_address", "page", "status_code", "country", "job_type"}

// RequiredColumns lists the columns a persisted dataset must carry.
func RequiredColumns() []string {
	return append([]string(nil), requiredColumns...)
}

var timestampLayouts = []string{
	weblog.TimeLayout,
	"2006-01-02 15:04:05.999999999",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

func parseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// ReadEvents parses a CSV dataset. Extra columns are ignored. Rows whose
// timestamp does not parse are skipped and counted in dropped.
func ReadEvents(r io.Reader) (events []weblog.Event, dropped int, err error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, 0, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(requiredColumns, ", "))
	}
	if err != nil {
		return nil, 0, classify(err)
	}

	idx := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, dup := idx[name]; !dup {
			idx[name] = i
		}
	}
	var missing []string
	for _, col := range requiredColumns {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, 0, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	field := func(row []string, col string) string {
		i, ok := idx[col]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, classify(err)
		}

		ts, ok := parseTimestamp(field(row, "timestamp"))
		if !ok {
			dropped++
			continue
		}
		status, _ := strconv.Atoi(strings.TrimSpace(field(row, "status_code")))
		method := field(row, "method")
		if method == "" {
			method = "GET"
		}
		events = append(events, weblog.Event{
			Timestamp:  ts,
			IPAddress:  field(row, "ip_address"),
			Method:     method,
			Page:       field(row, "page"),
			StatusCode: status,
			Country:    field(row, "country"),
			JobType:    field(row, "job_type"),
		})
	}
	return events, dropped, nil
}

// classify maps CSV syntax and gzip stream errors to ErrMalformed and passes
// other I/O errors through unchanged.
func classify(err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) || errors.Is(err, gzip.ErrChecksum) || errors.Is(err, gzip.ErrHeader) {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return err
}

// WriteEvents writes events with the persisted header.
func WriteEvents(w io.Writer, events []weblog.Event) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(persistedColumns); err != nil {
		return err
	}
	row := make([]string, len(persistedColumns))
	for _, e := range events {
		row[0] = e.Timestamp.UTC().Format(weblog.TimeLayout)
		row[1] = e.IPAddress
		row[2] = e.Method
		row[3] = e.Page
		row[4] = strconv.Itoa(e.StatusCode)
		row[5] = e.Country
		row[6] = e.JobType
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// recordColumns is the header of an export: persisted plus derived fields.
var recordColumns = append(append([]string(nil), persistedColumns...),
	"request_type", "hour", "week", "product_name", "session_id", "pages_per_session", "session_duration")

// WriteRecords writes derived records, including the derived columns.
func WriteRecords(w io.Writer, records []weblog.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(recordColumns); err != nil {
		return err
	}
	row := make([]string, len(recordColumns))
	for _, r := range records {
		row[0] = r.Timestamp.UTC().Format(weblog.TimeLayout)
		row[1] = r.IPAddress
		row[2] = r.Method
		row[3] = r.Page
		row[4] = strconv.Itoa(r.StatusCode)
		row[5] = r.Country
		row[6] = r.JobType
		row[7] = r.RequestType
		row[8] = strconv.Itoa(r.Hour)
		row[9] = strconv.Itoa(r.Week)
		row[10] = r.ProductName
		row[11] = r.SessionID
		row[12] = strconv.Itoa(r.PagesPerSession)
		row[13] = strconv.FormatFloat(r.SessionDuration, 'f', -1, 64)
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func isGzip(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".gz")
}

// ReadFile reads the dataset at path. A missing file yields an error
// matching fs.ErrNotExist.
func ReadFile(path string) ([]weblog.Event, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	var r io.Reader = f
	if isGzip(path) {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		defer gz.Close()
		r = gz
	}
	return ReadEvents(r)
}

// WriteFile replaces the dataset at path with events. The data is written to
// a temporary file in the same directory and renamed into place.
func WriteFile(path string, events []weblog.Event) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if isGzip(path) {
		gz := gzip.NewWriter(tmp)
		if err := WriteEvents(gz, events); err != nil {
			tmp.Close()
			return err
		}
		if err := gz.Close(); err != nil {
			tmp.Close()
			return err
		}
	} else if err := WriteEvents(tmp, events); err != nil {
		tmp.Close()
		return err
	}

	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
