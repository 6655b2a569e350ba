package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/zauberjournal/journal-api/api/responses"
	"github.com/zauberjournal/journal-api/api/validators"
	"github.com/zauberjournal/journal-api/internal/iconmappings"
	pkgerrors "github.com/zauberjournal/journal-api/pkg/errors"
	"github.com/zauberjournal/journal-api/pkg/iconapi"
	"github.com/zauberjournal/journal-api/pkg/logger"
)

type createIconMappingRequest struct {
	Keyword string `json:"keyword" validate:"required"`
	Emoji   string `json:"emoji" validate:"required"`
}

type updateIconMappingRequest struct {
	Keyword *string `json:"keyword"`
	Emoji   *string `json:"emoji"`
}

type iconMappingListResponse struct {
	Items []iconmappings.MappingDTO `json:"items"`
}

// PublicIconTable serves the keyword to emoji table in the raw
// {"icons": [...]} shape the resolver's client decodes.
func PublicIconTable(svc iconmappings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "icon mappings service unavailable"))
			return
		}

		rows, err := svc.PublicIcons(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payload := iconapi.IconsResponse{Icons: make([]iconapi.Icon, 0, len(rows))}
		for _, row := range rows {
			payload.Icons = append(payload.Icons, iconapi.Icon{Keyword: row.Keyword, Emoji: row.Emoji})
		}
		responses.WriteRaw(w, http.StatusOK, payload)
	}
}

func AdminListIconMappings(svc iconmappings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "icon mappings service unavailable"))
			return
		}

		items, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, iconMappingListResponse{Items: items})
	}
}

func AdminCreateIconMapping(svc iconmappings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "icon mappings service unavailable"))
			return
		}

		var req createIconMappingRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.Create(r.Context(), iconmappings.CreateInput{Keyword: req.Keyword, Emoji: req.Emoji})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

func AdminUpdateIconMapping(svc iconmappings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "icon mappings service unavailable"))
			return
		}

		id, err := mappingIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req updateIconMappingRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.Update(r.Context(), id, iconmappings.UpdateInput{Keyword: req.Keyword, Emoji: req.Emoji})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}

func AdminDeleteIconMapping(svc iconmappings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "icon mappings service unavailable"))
			return
		}

		id, err := mappingIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"deleted": true})
	}
}

func mappingIDParam(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "mappingId"))
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid mapping id").
			WithDetails(map[string]string{"mappingId": "must be a valid uuid"})
	}
	return id, nil
}
