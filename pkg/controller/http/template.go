package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/secmon-lab/dynattr/pkg/domain/types"
	"github.com/secmon-lab/dynattr/pkg/usecase"
)

func (s *Server) listTemplates(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	activeOnly, err := queryBool(r, "active")
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	templates, err := s.uc.Template.ListTemplates(ctx, usecase.TemplateFilter{
		Industry:   queryString(r, "industry"),
		ActiveOnly: activeOnly,
	})
	if err != nil {
		handleError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, map[string]any{"templates": templates})
}

func (s *Server) createTemplate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var input usecase.TemplateInput
	if err := decodeJSON(r, &input); err != nil {
		handleError(ctx, w, err)
		return
	}

	result, err := s.uc.Template.CreateTemplate(ctx, input)
	if err != nil {
		handleError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusCreated, result)
}

func (s *Server) getTemplate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	t, err := s.uc.Template.GetTemplate(ctx, templateCode(r))
	if err != nil {
		handleError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, t)
}

func (s *Server) updateTemplate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var input usecase.TemplateInput
	if err := decodeJSON(r, &input); err != nil {
		handleError(ctx, w, err)
		return
	}

	result, err := s.uc.Template.UpdateTemplate(ctx, templateCode(r), input)
	if err != nil {
		handleError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, result)
}

func (s *Server) deleteTemplate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := s.uc.Template.DeleteTemplate(ctx, templateCode(r)); err != nil {
		handleError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type applyRequest struct {
	AppliesTo types.Scope `json:"applies_to"`
}

func (s *Server) applyTemplate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// The body is optional; without it the template's own scope is used
	var req applyRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		handleError(ctx, w, err)
		return
	}

	result, err := s.uc.Template.ApplyTemplate(ctx, templateCode(r), req.AppliesTo)
	if err != nil {
		handleError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusCreated, result)
}

func templateCode(r *http.Request) types.TemplateCode {
	return types.TemplateCode(chi.URLParam(r, "code"))
}
