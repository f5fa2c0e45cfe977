package handlers

import (
	"bytes"
	"sort"
	"strconv"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/rs/zerolog/log"
	"github.com/valyala/fasthttp"

	"salesinsight/internal/analytics"
	"salesinsight/internal/catalog"
	"salesinsight/internal/config"
	"salesinsight/internal/dataset"
	"salesinsight/internal/weblog"
)

const (
	defaultRecordsLimit = 50
	maxRecordsLimit     = 500
)

type filterOptions struct {
	Countries    []string `json:"countries"`
	RequestTypes []string `json:"request_types"`
	JobTypes     []string `json:"job_types"`
	Hours        []int    `json:"hours"`
	Products     []string `json:"products"`
	DurationMin  int      `json:"duration_min"`
	DurationMax  int      `json:"duration_max"`
}

func newFilterOptions(cat *catalog.Catalog, snap *dataset.Snapshot) filterOptions {
	hours := make([]int, 24)
	for h := range hours {
		hours[h] = h
	}
	lo, hi := snap.DurationBounds()
	return filterOptions{
		Countries:    cat.Countries(),
		RequestTypes: cat.RequestTypes(),
		JobTypes:     cat.JobTypesWithNone(),
		Hours:        hours,
		Products:     cat.Products(),
		DurationMin:  lo,
		DurationMax:  hi,
	}
}

// Filters lists the values each filter accepts and the duration bounds of
// the current snapshot.
func Filters(cat *catalog.Catalog) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		snap, ok := MustSnapshot(ctx)
		if !ok {
			return
		}
		jsonResponse(ctx, newFilterOptions(cat, snap))
	}
}

// KPIs serves the headline metrics of the filtered records.
func KPIs(cat *catalog.Catalog) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		_, records, ok := filtered(ctx, cat)
		if !ok {
			return
		}
		jsonResponse(ctx, analytics.ComputeKPIs(records, cat))
	}
}

type chartFunc func(records []weblog.Record, cfg *config.Config) any

var charts = map[string]chartFunc{
	"requests-by-country": func(r []weblog.Record, _ *config.Config) any { return analytics.RequestsByCountry(r) },
	"request-types":       func(r []weblog.Record, _ *config.Config) any { return analytics.RequestTypeDistribution(r) },
	"job-types":           func(r []weblog.Record, _ *config.Config) any { return analytics.JobTypesRequested(r) },
	"requests-by-hour": func(r []weblog.Record, _ *config.Config) any {
		if hours := analytics.RequestsByHour(r); hours != nil {
			return hours
		}
		return []analytics.HourCount{}
	},
	"country-heatmap":     func(r []weblog.Record, _ *config.Config) any { return analytics.CountryRequestHeatmap(r) },
	"product-engagement":  func(r []weblog.Record, _ *config.Config) any { return analytics.ProductEngagement(r) },
	"pages-vs-duration":   func(r []weblog.Record, _ *config.Config) any { return analytics.PagesVsDuration(r) },
	"duration-histogram": func(r []weblog.Record, cfg *config.Config) any {
		if bins := analytics.DurationHistogram(r, cfg.HistogramBins); bins != nil {
			return bins
		}
		return []analytics.Bin{}
	},
}

// ChartNames lists the chart series served under /v1/charts/{chart}.
func ChartNames() []string {
	names := make([]string, 0, len(charts))
	for name := range charts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Chart serves one chart series, selected by the {chart} route parameter.
func Chart(cfg *config.Config, cat *catalog.Catalog) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		name, _ := ctx.UserValue("chart").(string)
		fn, known := charts[name]
		if !known {
			errResponse(ctx, fasthttp.StatusNotFound, "unknown chart")
			return
		}
		_, records, ok := filtered(ctx, cat)
		if !ok {
			return
		}
		jsonResponse(ctx, map[string]any{
			"chart": name,
			"rows":  len(records),
			"data":  fn(records, cfg),
		})
	}
}

// Records serves a page of the filtered rows.
func Records(cat *catalog.Catalog) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		limit, err := intArg(ctx.QueryArgs(), "limit", defaultRecordsLimit)
		if err != nil || limit <= 0 || limit > maxRecordsLimit {
			errResponse(ctx, fasthttp.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		offset, err := intArg(ctx.QueryArgs(), "offset", 0)
		if err != nil || offset < 0 {
			errResponse(ctx, fasthttp.StatusBadRequest, "offset must be a non-negative integer")
			return
		}
		_, records, ok := filtered(ctx, cat)
		if !ok {
			return
		}

		page := []weblog.Record{}
		if offset < len(records) {
			end := offset + limit
			if end > len(records) {
				end = len(records)
			}
			page = records[offset:end]
		}
		jsonResponse(ctx, map[string]any{
			"total":   len(records),
			"limit":   limit,
			"offset":  offset,
			"records": page,
		})
	}
}

func intArg(args *fasthttp.Args, key string, def int) (int, error) {
	v := string(args.Peek(key))
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}

// Stats serves the descriptive statistics of the filtered rows.
func Stats(cat *catalog.Catalog) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		_, records, ok := filtered(ctx, cat)
		if !ok {
			return
		}
		s, nonEmpty := analytics.Describe(records)
		jsonResponse(ctx, map[string]any{
			"rows":  len(records),
			"empty": !nonEmpty,
			"stats": s,
		})
	}
}

type snapshotInfo struct {
	ID          string    `json:"id"`
	LoadedAt    time.Time `json:"loaded_at"`
	Source      string    `json:"source"`
	Notice      string    `json:"notice,omitempty"`
	Path        string    `json:"path"`
	Records     int       `json:"records"`
	Sessions    int       `json:"sessions"`
	DroppedRows int       `json:"dropped_rows"`
}

func newSnapshotInfo(snap *dataset.Snapshot) snapshotInfo {
	return snapshotInfo{
		ID:          snap.ID,
		LoadedAt:    snap.LoadedAt,
		Source:      string(snap.Source),
		Notice:      snap.Notice,
		Path:        snap.Path,
		Records:     len(snap.Records),
		Sessions:    len(snap.Sessions),
		DroppedRows: snap.DroppedRows,
	}
}

// SnapshotInfo serves metadata about the current snapshot.
func SnapshotInfo() fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		snap, ok := MustSnapshot(ctx)
		if !ok {
			return
		}
		jsonResponse(ctx, newSnapshotInfo(snap))
	}
}

// Regenerator replaces the dataset with fresh synthetic data.
type Regenerator interface {
	Regenerate() (*dataset.Snapshot, error)
}

// Regenerate forces a fresh synthetic dataset. Form posts with redirect=1
// are sent back to the dashboard.
func Regenerate(r Regenerator) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		snap, err := r.Regenerate()
		if err != nil {
			log.Error().Err(err).Msg("regenerate dataset")
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to regenerate dataset")
			return
		}
		log.Info().Str("snapshot", snap.ID).Int("records", len(snap.Records)).Msg("dataset regenerated")

		if string(ctx.PostArgs().Peek("redirect")) == "1" || string(ctx.QueryArgs().Peek("redirect")) == "1" {
			ctx.Redirect("/", fasthttp.StatusSeeOther)
			return
		}
		jsonResponse(ctx, newSnapshotInfo(snap))
	}
}

// Export downloads the filtered rows, derived columns included, as CSV.
// gzip=1 compresses the download.
func Export(cat *catalog.Catalog) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		_, records, ok := filtered(ctx, cat)
		if !ok {
			return
		}

		var buf bytes.Buffer
		compress := string(ctx.QueryArgs().Peek("gzip")) == "1"
		var err error
		if compress {
			zw := gzip.NewWriter(&buf)
			if err = dataset.WriteRecords(zw, records); err == nil {
				err = zw.Close()
			}
		} else {
			err = dataset.WriteRecords(&buf, records)
		}
		if err != nil {
			log.Error().Err(err).Msg("export records")
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to export records")
			return
		}

		if compress {
			ctx.SetContentType("application/gzip")
			ctx.Response.Header.Set("Content-Disposition", `attachment; filename="web_logs.csv.gz"`)
		} else {
			ctx.SetContentType("text/csv; charset=utf-8")
			ctx.Response.Header.Set("Content-Disposition", `attachment; filename="web_logs.csv"`)
		}
		ctx.SetBody(buf.Bytes())
	}
}
