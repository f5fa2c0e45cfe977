package middleware

import (
	"github.com/rs/zerolog/log"
	"github.com/valyala/fasthttp"

	"salesinsight/internal/dataset"
	httpctx "salesinsight/internal/http/ctx"
)

// SnapshotSource yields the dataset snapshot a request should read.
type SnapshotSource interface {
	Get() (*dataset.Snapshot, error)
}

// WithSnapshot resolves the current snapshot once per request and stores it
// on the request context. Load failures answer 500.
func WithSnapshot(src SnapshotSource) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			snap, err := src.Get()
			if err != nil {
				log.Error().Err(err).Bytes("path", ctx.Path()).Msg("load dataset")
				ctx.SetStatusCode(fasthttp.StatusInternalServerError)
				ctx.SetBodyString("failed to load dataset")
				return
			}
			httpctx.SetSnapshot(ctx, snap)
			next(ctx)
		}
	}
}
