package handlers

import (
	"bytes"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"github.com/valyala/fasthttp"

	"salesinsight/internal/dataset"
)

var (
	metricsOnce sync.Once

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	datasetLoads    *prometheus.CounterVec
	datasetRecords  prometheus.Gauge
	datasetSessions prometheus.Gauge
	datasetDropped  prometheus.Gauge
)

// InitPrometheusMetrics registers the dashboard's collectors with the
// default registry. Safe to call more than once.
func InitPrometheusMetrics() {
	metricsOnce.Do(func() {
		requestsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "salesinsight",
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests served.",
			},
			[]string{"route", "method", "status"},
		)
		requestDuration = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "salesinsight",
				Name:      "http_request_duration_seconds",
				Help:      "Histogram of HTTP request durations in seconds.",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2},
			},
			[]string{"route"},
		)
		datasetLoads = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "salesinsight",
				Name:      "dataset_loads_total",
				Help:      "Dataset snapshots built, by how the events were obtained.",
			},
			[]string{"source"},
		)
		datasetRecords = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "salesinsight",
			Name:      "dataset_records",
			Help:      "Records in the current snapshot.",
		})
		datasetSessions = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "salesinsight",
			Name:      "dataset_sessions",
			Help:      "Sessions in the current snapshot.",
		})
		datasetDropped = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "salesinsight",
			Name:      "dataset_dropped_rows",
			Help:      "Rows dropped from the dataset file while loading the current snapshot.",
		})
		prometheus.MustRegister(requestsTotal, requestDuration, datasetLoads,
			datasetRecords, datasetSessions, datasetDropped)
	})
}

// ObserveRequest records one served request. No-op before InitPrometheusMetrics.
func ObserveRequest(route, method string, status int, elapsed time.Duration) {
	if requestsTotal == nil {
		return
	}
	requestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	requestDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// ObserveSnapshot updates the dataset gauges. It is meant to be registered
// as a dataset.Cache load observer.
func ObserveSnapshot(snap *dataset.Snapshot) {
	if datasetLoads == nil || snap == nil {
		return
	}
	datasetLoads.WithLabelValues(string(snap.Source)).Inc()
	datasetRecords.Set(float64(len(snap.Records)))
	datasetSessions.Set(float64(len(snap.Sessions)))
	datasetDropped.Set(float64(snap.DroppedRows))
}

// MetricsHandler serves the default registry in the Prometheus text format.
// An optional "prefix" query argument keeps only families whose name starts
// with it.
func MetricsHandler(gatherer prometheus.Gatherer) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		metricFamilies, err := gatherer.Gather()
		if err != nil {
			ctx.SetStatusCode(fasthttp.StatusInternalServerError)
			ctx.SetBodyString("failed to gather metrics")
			return
		}

		prefix := string(ctx.QueryArgs().Peek("prefix"))
		filtered := make([]*dto.MetricFamily, 0, len(metricFamilies))
		for _, mf := range metricFamilies {
			if prefix == "" || strings.HasPrefix(mf.GetName(), prefix) {
				filtered = append(filtered, mf)
			}
		}

		var buf bytes.Buffer
		encoder := expfmt.NewEncoder(&buf, expfmt.FmtText)
		for _, mf := range filtered {
			if err := encoder.Encode(mf); err != nil {
				ctx.SetStatusCode(fasthttp.StatusInternalServerError)
				ctx.SetBodyString("failed to encode metrics")
				return
			}
		}

		ctx.SetContentType(string(expfmt.FmtText))
		ctx.Response.Header.Set("Cache-Control", "no-store")
		ctx.SetBody(buf.Bytes())
	}
}
