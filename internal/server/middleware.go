package server

import (
	"cmp"
	"context"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/xid"

	"github.com/pauljones0/commodity-tracker/internal/logx"
	"github.com/pauljones0/commodity-tracker/internal/metrics"
)

const headerNameTraceID = "X-Trace-Id"

type contextKeyTraceID struct{}

func withTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKeyTraceID{}, id)
}

func traceIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(contextKeyTraceID{}).(string)
	return id
}

// TraceID reuses the caller's X-Trace-Id or mints one.
func TraceID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get(headerNameTraceID)

		if traceID == "" {
			traceID = xid.New().String()
		}

		w.Header().Set(headerNameTraceID, traceID)

		next.ServeHTTP(w, r.WithContext(withTraceID(r.Context(), traceID)))
	})
}

// Logger attaches a request-scoped logger derived from base.
func Logger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := logx.WithLogger(r.Context(), base.With(
				slog.String(logx.FieldTraceID, traceIDFromContext(r.Context())),
				logx.Stringer(logx.FieldURL, r.URL),
				slog.String(logx.FieldHTTPMethod, r.Method),
				slog.String(logx.FieldIP, r.RemoteAddr),
			))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		defer func() {
			if rec := recover(); rec != nil {
				logx.FromContext(ctx).Error(
					"panic in handler",
					slog.Any(logx.FieldError, rec),
					slog.String(logx.FieldStack, string(debug.Stack())),
				)

				w.WriteHeader(http.StatusInternalServerError)
			}
		}()

		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.status == 0 {
		s.status = code
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	return s.ResponseWriter.Write(b)
}

// Metrics counts responses by route pattern and logs each one.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}

		next.ServeHTTP(rec, r)

		status := cmp.Or(rec.status, http.StatusOK)
		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		metrics.HTTPRequest(route, status)

		logx.FromContext(r.Context()).Debug(
			"http response",
			slog.String(logx.FieldRoute, route),
			slog.Int(logx.FieldResponseStatus, status),
			slog.Int64(logx.FieldDurationMs, time.Since(start).Milliseconds()),
		)
	})
}
