package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"statuspage/app/internal/models"
)

func slugParam(r *http.Request) string {
	return strings.ToLower(chi.URLParam(r, "slug"))
}

// loadPage resolves the slug and writes the error response when that fails
func loadPage(w http.ResponseWriter, r *http.Request, store PageStore, log *zap.Logger, notFound string) *models.StatusPage {
	slug := slugParam(r)
	page, err := store.StatusPageBySlug(r.Context(), slug)
	if err != nil {
		log.Error("load_status_page_failed", zap.String("slug", slug), zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return nil
	}
	if page == nil {
		writeError(w, http.StatusNotFound, notFound)
		return nil
	}
	return page
}

// HandleStatusPage returns the page config with its public groups
func HandleStatusPage(store PageStore, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := loadPage(w, r, store, log, "Status Page Not Found")
		if page == nil {
			return
		}

		groups, err := store.PublicGroups(r.Context(), page.ID)
		if err != nil {
			log.Error("load_public_groups_failed", zap.Int64("status_page_id", page.ID), zap.Error(err))
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		writeJSON(w, http.StatusOK, models.StatusPageData{
			Config:          *page,
			PublicGroupList: groups,
		})
	}
}

// HandleManifest serves the web app manifest of a page
func HandleManifest(store PageStore, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := loadPage(w, r, store, log, "Not Found")
		if page == nil {
			return
		}
		writeJSON(w, http.StatusOK, models.NewManifest(page))
	}
}
