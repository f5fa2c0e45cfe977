package main

import (
	"github.com/fasthttp/router"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/valyala/fasthttp"

	"salesinsight/internal/catalog"
	"salesinsight/internal/config"
	"salesinsight/internal/dataset"
	"salesinsight/internal/db"
	"salesinsight/internal/http/handlers"
	appmw "salesinsight/internal/http/middleware"
	"salesinsight/internal/logger"
	"salesinsight/internal/synth"
	ui "salesinsight/web"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger.Init(cfg)

	cat := catalog.Default()
	loader := &dataset.Loader{
		Path:    cfg.DataFile,
		Catalog: cat,
		Generator: synth.New(cat, synth.Options{
			Start: cfg.SynthStart,
			Span:  cfg.SynthSpan(),
			Seed:  cfg.SynthSeed,
		}),
		Records: cfg.SynthRecords,
		Gap:     cfg.SessionGap,
	}
	cache := dataset.NewCache(loader)

	handlers.InitPrometheusMetrics()
	cache.OnLoad(handlers.ObserveSnapshot)

	if cfg.DatabaseURL != "" {
		sqlDB, err := db.Connect(cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect database")
		}
		cache.OnLoad(func(snap *dataset.Snapshot) {
			if err := db.MirrorSnapshot(sqlDB, snap); err != nil {
				log.Error().Err(err).Str("snapshot", snap.ID).Msg("mirror snapshot")
				return
			}
			removed, err := db.PruneSnapshots(sqlDB, snap.ID)
			if err != nil {
				log.Error().Err(err).Str("snapshot", snap.ID).Msg("prune snapshots")
				return
			}
			log.Info().Str("snapshot", snap.ID).Int64("pruned_events", removed).Msg("snapshot mirrored")
		})
	}

	snap, err := cache.Get()
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DataFile).Msg("failed to load dataset")
	}
	log.Info().
		Str("snapshot", snap.ID).
		Str("source", string(snap.Source)).
		Int("records", len(snap.Records)).
		Int("sessions", len(snap.Sessions)).
		Msg("dataset ready")

	r := router.New()
	r.SaveMatchedRoutePath = true

	withSnapshot := appmw.WithSnapshot(cache)
	handler := handlers.RequestLogger(r.Handler)

	r.GET("/healthz", func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(fasthttp.StatusOK)
		ctx.SetBodyString("ok")
	})
	r.GET("/metrics", handlers.MetricsHandler(prometheus.DefaultGatherer))

	r.ServeFS("/static/{filepath:*}", ui.StaticFS())

	r.GET("/", withSnapshot(handlers.Dashboard(cfg, cat)))

	r.GET("/v1/filters", withSnapshot(handlers.Filters(cat)))
	r.GET("/v1/kpis", withSnapshot(handlers.KPIs(cat)))
	r.GET("/v1/charts/{chart}", withSnapshot(handlers.Chart(cfg, cat)))
	r.GET("/v1/records", withSnapshot(handlers.Records(cat)))
	r.GET("/v1/stats", withSnapshot(handlers.Stats(cat)))
	r.GET("/v1/export.csv", withSnapshot(handlers.Export(cat)))
	r.GET("/v1/snapshot", withSnapshot(handlers.SnapshotInfo()))
	r.POST("/v1/snapshot/regenerate", handlers.Regenerate(cache))

	log.Info().Str("addr", cfg.ListenAddr).Msg("salesinsight listening")
	if err := fasthttp.ListenAndServe(cfg.ListenAddr, handler); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}
