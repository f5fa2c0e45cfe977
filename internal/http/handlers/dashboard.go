package handlers

import (
	"bytes"
	"html/template"
	"strconv"

	"github.com/rs/zerolog/log"
	"github.com/valyala/fasthttp"

	"salesinsight/internal/analytics"
	"salesinsight/internal/catalog"
	"salesinsight/internal/config"
	"salesinsight/internal/dataset"
	"salesinsight/internal/weblog"
	ui "salesinsight/web"
)

type LayoutData struct {
	Title        string
	ActiveTab    string
	PageTemplate string
	ServiceName  string

	Snapshot snapshotInfo
	Notice   string

	Countries    []Option
	RequestTypes []Option
	JobTypes     []Option
	Hours        []Option
	Products     []Option
	DurationLo   int
	DurationHi   int
	DurationMin  string
	DurationMax  string

	// Query is the encoded filter query string, reused by chart requests,
	// tab links and the export link.
	Query template.URL

	Rows       int
	KPIs       []KPIView
	Stats      []StatView
	HasStats   bool
	Table      []TableRow
	TableLimit int
	Charts     []string
}

// Option is one choice of a multi-select filter.
type Option struct {
	Value    string
	Label    string
	Selected bool
}

type KPIView struct {
	Label string
	Value string
}

type StatView struct {
	Label string
	Value string
}

type TableRow struct {
	Timestamp       string
	IPAddress       string
	Method          string
	Page            string
	StatusCode      int
	Country         string
	JobType         string
	RequestType     string
	ProductName     string
	SessionID       string
	PagesPerSession int
	SessionDuration string
}

func options(values, selected []string) []Option {
	chosen := make(map[string]bool, len(selected))
	for _, v := range selected {
		chosen[v] = true
	}
	out := make([]Option, len(values))
	for i, v := range values {
		out[i] = Option{Value: v, Label: v, Selected: chosen[v]}
	}
	return out
}

func hourOptions(selected []int) []Option {
	chosen := make(map[int]bool, len(selected))
	for _, h := range selected {
		chosen[h] = true
	}
	out := make([]Option, 24)
	for h := range out {
		out[h] = Option{Value: strconv.Itoa(h), Label: strconv.Itoa(h), Selected: chosen[h]}
	}
	return out
}

func kpiViews(k analytics.KPIs) []KPIView {
	return []KPIView{
		{Label: "Conversion Rate", Value: FormatPercent(k.ConversionRate)},
		{Label: "Total Revenue", Value: FormatMoney(k.TotalRevenue)},
		{Label: "Total Profit", Value: FormatMoney(k.TotalProfit)},
		{Label: "Average Call Target", Value: FormatDecimal(k.AverageTarget)},
	}
}

func statViews(s analytics.Stats) []StatView {
	return []StatView{
		{Label: "Mean requests per country", Value: FormatStat(s.MeanRequestsPerCountry)},
		{Label: "Std. dev. of requests per country", Value: FormatStat(s.StdRequestsPerCountry)},
		{Label: "Median requests per country", Value: FormatStat(s.MedianRequestsPerCountry)},
		{Label: "Mean requests per job type", Value: FormatStat(s.MeanRequestsPerJobType)},
		{Label: "Std. dev. of requests per job type", Value: FormatStat(s.StdRequestsPerJobType)},
		{Label: "Correlation of pages per session and session duration", Value: FormatStat(s.PagesDurationCorrelation)},
	}
}

func tableRows(records []weblog.Record, limit int) []TableRow {
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	out := make([]TableRow, len(records))
	for i, r := range records {
		out[i] = TableRow{
			Timestamp:       FormatEventDateTime(r.Timestamp),
			IPAddress:       r.IPAddress,
			Method:          r.Method,
			Page:            r.Page,
			StatusCode:      r.StatusCode,
			Country:         r.Country,
			JobType:         r.JobType,
			RequestType:     r.RequestType,
			ProductName:     r.ProductName,
			SessionID:       r.SessionID,
			PagesPerSession: r.PagesPerSession,
			SessionDuration: FormatDecimal(r.SessionDuration),
		}
	}
	return out
}

func getLayoutData(cfg *config.Config, cat *catalog.Catalog, snap *dataset.Snapshot, f analytics.Filter, activeTab string) LayoutData {
	lo, hi := snap.DurationBounds()
	data := LayoutData{
		Title:        "Sales Insight Dashboard",
		ActiveTab:    activeTab,
		PageTemplate: "dashboard",
		ServiceName:  cfg.ServiceName,
		Snapshot:     newSnapshotInfo(snap),
		Notice:       snap.Notice,
		Countries:    options(cat.Countries(), f.Countries),
		RequestTypes: options(cat.RequestTypes(), f.RequestTypes),
		JobTypes:     options(cat.JobTypesWithNone(), f.JobTypes),
		Hours:        hourOptions(f.Hours),
		Products:     options(cat.Products(), f.Products),
		DurationLo:   lo,
		DurationHi:   hi,
		DurationMin:  strconv.Itoa(lo),
		DurationMax:  strconv.Itoa(hi),
		TableLimit:   cfg.TableRows,
		Charts:       ChartNames(),
	}
	if f.Duration != nil {
		data.DurationMin = strconv.FormatFloat(f.Duration.Min, 'f', -1, 64)
		if f.Duration.Max <= float64(hi) {
			data.DurationMax = strconv.FormatFloat(f.Duration.Max, 'f', -1, 64)
		}
	}
	return data
}

func renderLayout(ctx *fasthttp.RequestCtx, data LayoutData) {
	var buf bytes.Buffer
	if err := ui.Templates().ExecuteTemplate(&buf, "layout", data); err != nil {
		log.Error().Err(err).Str("template", data.PageTemplate).Msg("render")
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		ctx.SetBodyString("render error")
		return
	}
	ctx.SetContentType("text/html; charset=utf-8")
	ctx.SetBody(buf.Bytes())
}

// Dashboard renders the dashboard page with KPIs, statistics and the raw
// table computed server-side for the requested filter.
func Dashboard(cfg *config.Config, cat *catalog.Catalog) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		snap, ok := MustSnapshot(ctx)
		if !ok {
			return
		}
		f, err := parseFilter(ctx.QueryArgs())
		if err != nil {
			errResponse(ctx, fasthttp.StatusBadRequest, err.Error())
			return
		}

		tab := string(ctx.QueryArgs().Peek("tab"))
		switch tab {
		case "overview", "main", "eda":
		default:
			tab = "overview"
		}

		records := analytics.Apply(snap.Records, f, cat)
		data := getLayoutData(cfg, cat, snap, f, tab)
		data.Query = template.URL(filterQuery(ctx.QueryArgs()))
		data.Rows = len(records)
		data.KPIs = kpiViews(analytics.ComputeKPIs(records, cat))
		if s, ok := analytics.Describe(records); ok {
			data.Stats = statViews(s)
			data.HasStats = true
		}
		data.Table = tableRows(records, cfg.TableRows)
		renderLayout(ctx, data)
	}
}

// filterQuery re-encodes only the filter arguments of args.
func filterQuery(args *fasthttp.Args) string {
	var out fasthttp.Args
	for _, key := range []string{"country", "request_type", "job_type", "hour", "product"} {
		for _, v := range multi(args, key) {
			out.Add(key, v)
		}
	}
	for _, key := range []string{"duration_min", "duration_max"} {
		if v := args.Peek(key); len(v) > 0 {
			out.AddBytesV(key, v)
		}
	}
	return out.String()
}
