package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/dynattr/pkg/domain/model"
	"github.com/secmon-lab/dynattr/pkg/usecase"
	"github.com/secmon-lab/dynattr/pkg/utils/errutil"
	"github.com/secmon-lab/dynattr/pkg/utils/logging"
)

var (
	// errMalformedRequest marks a body or query the server could not decode
	errMalformedRequest = goerr.New("malformed request")
	errEmptyBody        = goerr.New("request body is empty")
)

// writeJSON marshals v as JSON and writes it with the given status code
func writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.From(ctx).Error("failed to write response", "error", err.Error())
	}
}

// decodeJSON decodes the request body into v
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return goerr.Wrap(errEmptyBody, "failed to decode request body")
		}
		return goerr.Wrap(errMalformedRequest, "failed to decode request body", goerr.V("cause", err.Error()))
	}
	return nil
}

// queryBool parses an optional boolean query parameter
func queryBool(r *http.Request, name string) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, goerr.Wrap(errMalformedRequest, "invalid boolean query parameter",
			goerr.V("name", name),
			goerr.V("value", raw))
	}
	return v, nil
}

// queryString returns a pointer to the parameter value, or nil if absent
func queryString(r *http.Request, name string) *string {
	q := r.URL.Query()
	if !q.Has(name) {
		return nil
	}
	v := q.Get(name)
	return &v
}

// handleError maps domain errors to HTTP responses. Definition and value
// problems are answered with 422 and an "errors" object keyed by attribute.
func handleError(ctx context.Context, w http.ResponseWriter, err error) {
	var fieldErrs model.FieldErrors
	switch {
	case errors.As(err, &fieldErrs):
		logging.From(ctx).Info("request rejected", "errors", fieldErrs.Error())
		writeJSON(ctx, w, http.StatusUnprocessableEntity, map[string]any{"errors": fieldErrs})

	case errors.Is(err, model.ErrNotFound):
		errutil.HandleHTTP(ctx, w, err, http.StatusNotFound)

	case errors.Is(err, errMalformedRequest),
		errors.Is(err, errEmptyBody),
		errors.Is(err, usecase.ErrInvalidScope),
		errors.Is(err, model.ErrMissingScope):
		errutil.HandleHTTP(ctx, w, err, http.StatusBadRequest)

	default:
		errutil.HandleHTTP(ctx, w, err, http.StatusInternalServerError)
	}
}
