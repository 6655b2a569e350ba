package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/zauberjournal/journal-api/api/responses"
	"github.com/zauberjournal/journal-api/internal/icons"
	pkgerrors "github.com/zauberjournal/journal-api/pkg/errors"
	"github.com/zauberjournal/journal-api/pkg/logger"
)

const maxIconNameLength = 200

// IconResolver is the resolver surface the icon handlers need.
type IconResolver interface {
	Load(ctx context.Context) icons.LoadResult
	Invalidate(ctx context.Context)
	Emoji(name string) (string, bool)
	Loaded() bool
	Status() icons.Status
}

type emojiLookupResponse struct {
	Name  string `json:"name"`
	Emoji string `json:"emoji,omitempty"`
	Found bool   `json:"found"`
}

// LookupEmoji answers ?name= from the cache, loading it first when an
// invalidation or a failed startup load left it empty. A failed load is
// answered as not found.
func LookupEmoji(resolver IconResolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if resolver == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "icon resolver unavailable"))
			return
		}

		name := r.URL.Query().Get("name")
		if len(name) > maxIconNameLength {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "name too long").
				WithDetails(map[string]string{"name": "must be at most 200 bytes"}))
			return
		}

		if strings.TrimSpace(name) != "" && !resolver.Loaded() {
			resolver.Load(r.Context())
		}

		emoji, found := resolver.Emoji(name)
		responses.WriteSuccess(w, emojiLookupResponse{Name: name, Emoji: emoji, Found: found})
	}
}

// IconCacheStatus reports the resolver's loaded/loading flags and size.
func IconCacheStatus(resolver IconResolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if resolver == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "icon resolver unavailable"))
			return
		}
		responses.WriteSuccess(w, resolver.Status())
	}
}

type reloadResponse struct {
	State icons.LoadState   `json:"state"`
	Count int               `json:"count"`
	Kind  icons.FailureKind `json:"kind,omitempty"`
}

// InvalidateIconCache drops the cached table. With ?reload=true it loads
// the table again immediately and reports the outcome.
func InvalidateIconCache(resolver IconResolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if resolver == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "icon resolver unavailable"))
			return
		}

		resolver.Invalidate(r.Context())

		if !strings.EqualFold(strings.TrimSpace(r.URL.Query().Get("reload")), "true") {
			responses.WriteSuccess(w, map[string]bool{"invalidated": true})
			return
		}

		result := resolver.Load(r.Context())
		responses.WriteSuccess(w, reloadResponse{State: result.State, Count: result.Count, Kind: result.Kind})
	}
}
