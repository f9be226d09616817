package engine

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/declroute/declroute/domain/route"
)

// AccessLog returns a pipeline middleware that logs one line per
// dispatched request.
func AccessLog(logger zerolog.Logger) route.Middleware {
	return func(next route.Wrapped) route.Wrapped {
		return func(ctx context.Context, req *route.Request) route.Response {
			start := time.Now()
			resp := next(ctx, req)
			logger.Info().
				Str("method", req.Method).
				Str("path", req.Path).
				Int("status", resp.Status).
				Dur("duration", time.Since(start)).
				Str("trace_id", req.TraceID).
				Msg("request")
			return resp
		}
	}
}

// CORS returns a pipeline middleware that attaches permissive CORS
// headers to every dispatched response. Origin may be "*" or a specific
// origin.
func CORS(origin string) route.Middleware {
	if origin == "" {
		origin = "*"
	}
	return func(next route.Wrapped) route.Wrapped {
		return func(ctx context.Context, req *route.Request) route.Response {
			resp := next(ctx, req)
			if resp.Headers == nil {
				resp.Headers = make(map[string]string, 3)
			}
			resp.Headers["Access-Control-Allow-Origin"] = origin
			resp.Headers["Access-Control-Allow-Methods"] = "GET, POST, PUT, PATCH, DELETE, OPTIONS"
			resp.Headers["Access-Control-Allow-Headers"] = "Authorization, Content-Type"
			return resp
		}
	}
}
