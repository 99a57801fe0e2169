package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"

	"github.com/pauljones0/commodity-tracker/internal/gateway"
	"github.com/pauljones0/commodity-tracker/internal/logx"
	"github.com/pauljones0/commodity-tracker/internal/views"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals

// errBadRequest marks request bodies and parameters that could not be
// read.
var errBadRequest = errors.New("bad request")

type errorResponse struct {
	Message  string `json:"message"`
	Redirect string `json:"redirect,omitempty"`
	TraceID  string `json:"traceId,omitempty"`
}

// navResponse tells the client where to go next.
type navResponse struct {
	Redirect string `json:"redirect"`
}

func replyJSON(ctx context.Context, w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logx.FromContext(ctx).Error("json.Encode", logx.Error(err))
	}
}

func replyNav(ctx context.Context, w http.ResponseWriter, path string) {
	replyJSON(ctx, w, http.StatusOK, navResponse{Redirect: path})
}

// replyError maps err onto a status code. Remote errors keep their own
// status when it is a client error.
func replyError(ctx context.Context, w http.ResponseWriter, err error) {
	replyErrorNav(ctx, w, err, "")
}

// replyErrorNav is replyError for screens that navigate away on failure.
func replyErrorNav(ctx context.Context, w http.ResponseWriter, err error, nav string) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		logx.FromContext(ctx).Error("request failed", logx.Error(err))
	} else {
		logx.FromContext(ctx).Warn("request rejected", logx.Error(err))
	}

	replyJSON(ctx, w, status, errorResponse{
		Message:  gateway.Message(err),
		Redirect: nav,
		TraceID:  traceIDFromContext(ctx),
	})
}

func statusOf(err error) int {
	var (
		verrs validator.ValidationErrors
		ge    *gateway.Error
	)
	switch {
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.As(err, &verrs):
		return http.StatusUnprocessableEntity
	case errors.Is(err, gateway.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, gateway.ErrNoSession):
		return http.StatusUnauthorized
	case errors.Is(err, views.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, views.ErrBusy), errors.Is(err, views.ErrNoPendingDelete), errors.Is(err, gateway.ErrConflict):
		return http.StatusConflict
	case errors.As(err, &ge) && ge.Status >= 400 && ge.Status < 500:
		return ge.Status
	default:
		return http.StatusInternalServerError
	}
}

func readJSON(r *http.Request, dest any) error {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		return badRequest("json.Decode", err)
	}
	return nil
}

func badRequest(what string, err error) error {
	return fmt.Errorf("%s: %w: %w", what, errBadRequest, err)
}

func errMissing(field string) error {
	return fmt.Errorf("%s is required", field)
}

func errNoAnalysis(dealID string) error {
	return fmt.Errorf("deal %s has no analysis: %w", dealID, gateway.ErrNotFound)
}

// handler adapts an error-returning handler.
func handler(f func(http.ResponseWriter, *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := f(w, r); err != nil {
			replyError(r.Context(), w, err)
		}
	}
}
