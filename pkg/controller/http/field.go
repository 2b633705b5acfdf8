package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/secmon-lab/dynattr/pkg/domain/model"
	"github.com/secmon-lab/dynattr/pkg/domain/types"
	"github.com/secmon-lab/dynattr/pkg/usecase"
)

func fieldTypesHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, map[string]any{"fieldTypes": model.FieldTypeCatalog()})
}

func (s *Server) listFields(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	activeOnly, err := queryBool(r, "active")
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	scope := types.Scope(r.URL.Query().Get("applies_to"))
	fields, err := s.uc.Field.ListFields(ctx, scope, usecase.FieldFilter{
		ActiveOnly: activeOnly,
		Group:      queryString(r, "group"),
	})
	if err != nil {
		handleError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, map[string]any{"fields": fields})
}

func (s *Server) listFieldsGrouped(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	scope := types.Scope(r.URL.Query().Get("applies_to"))

	groups, err := s.uc.Field.ListFieldsGrouped(ctx, scope)
	if err != nil {
		handleError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, map[string]any{"groups": groups})
}

func (s *Server) createField(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var input usecase.FieldInput
	if err := decodeJSON(r, &input); err != nil {
		handleError(ctx, w, err)
		return
	}

	result, err := s.uc.Field.CreateField(ctx, input)
	if err != nil {
		handleError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusCreated, result)
}

func (s *Server) getField(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	fd, err := s.uc.Field.GetField(ctx, fieldID(r))
	if err != nil {
		handleError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, fd)
}

func (s *Server) updateField(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var input usecase.FieldInput
	if err := decodeJSON(r, &input); err != nil {
		handleError(ctx, w, err)
		return
	}

	result, err := s.uc.Field.UpdateField(ctx, fieldID(r), input)
	if err != nil {
		handleError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, result)
}

func (s *Server) deleteField(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := s.uc.Field.DeleteField(ctx, fieldID(r)); err != nil {
		handleError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) deactivateField(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	fd, err := s.uc.Field.DeactivateField(ctx, fieldID(r))
	if err != nil {
		handleError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, fd)
}

func fieldID(r *http.Request) types.FieldID {
	return types.FieldID(chi.URLParam(r, "id"))
}
