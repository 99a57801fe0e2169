package supabase

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"time"

	"github.com/rs/xid"

	"github.com/pauljones0/commodity-tracker/internal/logx"
)

const logFieldMaxLen = 4096

// LoggingRoundTripper dumps backend traffic at debug level with
// credentials masked.
type LoggingRoundTripper struct {
	next   http.RoundTripper
	masker logx.SensitiveDataMasker
}

func NewLoggingRoundTripper(next http.RoundTripper) LoggingRoundTripper {
	return LoggingRoundTripper{next: next, masker: logx.NewSensitiveDataMasker()}
}

func (rt LoggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	logger := logx.FromContext(ctx)
	if !logger.Enabled(ctx, slog.LevelDebug) {
		return rt.next.RoundTrip(req)
	}

	requestID := xid.New().String()
	if reqBytes, err := httputil.DumpRequestOut(req, true); err == nil {
		logger.Debug("gateway request",
			slog.String("request-id", requestID),
			slog.String(logx.FieldRequestBody, string(rt.masker.Mask(truncate(reqBytes)))),
		)
	}

	start := time.Now()
	resp, err := rt.next.RoundTrip(req)
	if err != nil {
		return nil, fmt.Errorf("next.RoundTrip: %w", err)
	}

	if respBytes, err := httputil.DumpResponse(resp, true); err == nil {
		logger.Debug("gateway response",
			slog.String("request-id", requestID),
			slog.Int(logx.FieldResponseStatus, resp.StatusCode),
			slog.String("response-body", string(rt.masker.Mask(truncate(respBytes)))),
			slog.Int64(logx.FieldDurationMs, time.Since(start).Milliseconds()),
		)
	}
	return resp, nil
}

func truncate(b []byte) []byte {
	if len(b) > logFieldMaxLen {
		return b[:logFieldMaxLen]
	}
	return b
}
