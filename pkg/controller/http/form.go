package http

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/secmon-lab/dynattr/pkg/domain/model"
	"github.com/secmon-lab/dynattr/pkg/domain/types"
)

type formRequest struct {
	Values model.AttributeValues `json:"values"`
	Stored model.Payload         `json:"stored"`
}

// getForm accepts current values as query parameters, e.g. ?origin=Peru
func (s *Server) getForm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	form, err := s.uc.Form.Form(ctx, formScope(r), queryValues(r.URL.Query()))
	if err != nil {
		handleError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, form)
}

func (s *Server) validateForm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req formRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(ctx, w, err)
		return
	}

	report, err := s.uc.Form.ValidateValues(ctx, formScope(r), req.Values)
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	status := http.StatusOK
	if !report.Valid() {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(ctx, w, status, report)
}

func (s *Server) submitForm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req formRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(ctx, w, err)
		return
	}

	result, err := s.uc.Form.Submit(ctx, formScope(r), req.Values, req.Stored)
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	status := http.StatusOK
	if !result.Valid() {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(ctx, w, status, result)
}

func formScope(r *http.Request) types.Scope {
	return types.Scope(chi.URLParam(r, "scope"))
}

// queryValues turns repeated parameters into lists and single ones into strings
func queryValues(q url.Values) model.AttributeValues {
	if len(q) == 0 {
		return nil
	}
	values := make(model.AttributeValues, len(q))
	for k, vs := range q {
		if len(vs) == 1 {
			values[k] = vs[0]
			continue
		}
		list := make([]any, len(vs))
		for i, v := range vs {
			list[i] = v
		}
		values[k] = list
	}
	return values
}
