package main

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/miltonisblurrd/noLuckyDays/internal/content"
	mw "github.com/miltonisblurrd/noLuckyDays/internal/middleware"
)

// PolicyPageHandler renders a policy document with conditional-request
// support.
func PolicyPageHandler(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	page, err := contentStore.Page(slug)
	if err != nil {
		if errors.Is(err, content.ErrNotFound) {
			renderErrorPage(w, r, http.StatusNotFound, "Page not found")
			return
		}
		logger.Error("load policy", zap.String("slug", slug), zap.Error(err))
		renderErrorPage(w, r, http.StatusInternalServerError, msgRetry)
		return
	}

	w.Header().Set("Cache-Control", "public, max-age=600")
	w.Header().Set("ETag", page.ETag)
	if !page.UpdatedAt.IsZero() {
		w.Header().Set("Last-Modified", page.UpdatedAt.UTC().Format(http.TimeFormat))
	}
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == page.ETag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	sess := mw.GetSession(r)
	renderPage(w, r, "policy", struct {
		Title       string
		Description string
		CSRFToken   string
		Page        content.Page
	}{
		Title:       page.Title,
		Description: page.Summary,
		CSRFToken:   sess.CSRFToken,
		Page:        page,
	})
}
