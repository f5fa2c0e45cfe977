package handlers

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/fasthttp/router"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/valyala/fasthttp"

	"salesinsight/internal/analytics"
	"salesinsight/internal/catalog"
	"salesinsight/internal/dataset"
	httpctx "salesinsight/internal/http/ctx"
	"salesinsight/internal/weblog"
)

// MustSnapshot returns the snapshot stored by the snapshot middleware, or
// sends 500 and returns (nil, false).
func MustSnapshot(ctx *fasthttp.RequestCtx) (*dataset.Snapshot, bool) {
	snap, ok := httpctx.SnapshotFromCtx(ctx)
	if !ok {
		errResponse(ctx, fasthttp.StatusInternalServerError, "failed to load dataset")
		return nil, false
	}
	return snap, true
}

// parseFilter reads the filter query arguments. Repeated arguments select
// several values; empty values are ignored.
func parseFilter(args *fasthttp.Args) (analytics.Filter, error) {
	f := analytics.Filter{
		Countries:    multi(args, "country"),
		RequestTypes: multi(args, "request_type"),
		JobTypes:     multi(args, "job_type"),
		Products:     multi(args, "product"),
	}

	for _, v := range multi(args, "hour") {
		h, err := strconv.Atoi(v)
		if err != nil || h < 0 || h > 23 {
			return analytics.Filter{}, fmt.Errorf("invalid hour %q", v)
		}
		f.Hours = append(f.Hours, h)
	}

	lo, hasLo, err := floatArg(args, "duration_min")
	if err != nil {
		return analytics.Filter{}, err
	}
	hi, hasHi, err := floatArg(args, "duration_max")
	if err != nil {
		return analytics.Filter{}, err
	}
	if hasLo || hasHi {
		if !hasLo {
			lo = 0
		}
		if !hasHi {
			hi = math.Inf(1)
		}
		if lo > hi {
			return analytics.Filter{}, fmt.Errorf("duration_min %v exceeds duration_max %v", lo, hi)
		}
		f.Duration = &analytics.Range{Min: lo, Max: hi}
	}
	return f, nil
}

func multi(args *fasthttp.Args, key string) []string {
	var out []string
	for _, v := range args.PeekMulti(key) {
		if len(v) > 0 {
			out = append(out, string(v))
		}
	}
	return out
}

func floatArg(args *fasthttp.Args, key string) (float64, bool, error) {
	v := string(args.Peek(key))
	if v == "" {
		return 0, false, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) {
		return 0, false, fmt.Errorf("invalid %s %q", key, v)
	}
	return f, true, nil
}

// filtered resolves the snapshot and applies the request's filter. It
// answers the request itself and returns ok=false on failure.
func filtered(ctx *fasthttp.RequestCtx, cat *catalog.Catalog) (*dataset.Snapshot, []weblog.Record, bool) {
	snap, ok := MustSnapshot(ctx)
	if !ok {
		return nil, nil, false
	}
	f, err := parseFilter(ctx.QueryArgs())
	if err != nil {
		errResponse(ctx, fasthttp.StatusBadRequest, err.Error())
		return nil, nil, false
	}
	return snap, analytics.Apply(snap.Records, f, cat), true
}

// RequestLogger returns fasthttp middleware that logs method, path, status,
// duration and records the request metrics under the matched route.
func RequestLogger(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		start := time.Now()
		next(ctx)
		elapsed := time.Since(start)

		route, _ := ctx.UserValue(router.MatchedRoutePathParam).(string)
		if route == "" {
			route = "unmatched"
		}
		status := ctx.Response.StatusCode()
		ObserveRequest(route, string(ctx.Method()), status, elapsed)

		log.Info().
			Bytes("method", ctx.Method()).
			Bytes("path", ctx.Path()).
			Int("status", status).
			Dur("duration", elapsed).
			Str("ip", ctx.RemoteIP().String()).
			Msg("request")
	}
}

func jsonResponse(ctx *fasthttp.RequestCtx, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		errResponse(ctx, fasthttp.StatusInternalServerError, "failed to encode response")
		return
	}
	ctx.SetContentType("application/json")
	ctx.SetBody(body)
}

func errResponse(ctx *fasthttp.RequestCtx, code int, msg string) {
	ctx.SetStatusCode(code)
	ctx.SetBodyString(msg)
}
