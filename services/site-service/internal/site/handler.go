package site

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/md-rashed-zaman/bizsites/services/site-service/internal/apperr"
	"github.com/md-rashed-zaman/bizsites/services/site-service/internal/model"
	"github.com/md-rashed-zaman/bizsites/services/site-service/internal/slug"
)

type Businesses interface {
	Published(ctx context.Context, slug string) (model.Business, error)
	RecordView(ctx context.Context, id int64)
}

type Handler struct {
	businesses Businesses
	renderer   *Renderer
	deploy     slug.DeploymentConfig
	logger     *slog.Logger
}

func NewHandler(businesses Businesses, renderer *Renderer, deploy slug.DeploymentConfig, logger *slog.Logger) *Handler {
	return &Handler{businesses: businesses, renderer: renderer, deploy: deploy, logger: logger}
}

// ServeSlug renders the site named by the {slug} path parameter.
func (h *Handler) ServeSlug(w http.ResponseWriter, r *http.Request) {
	s := chi.URLParam(r, "slug")
	if !slug.Valid(s) || slug.Reserved(s) {
		http.NotFound(w, r)
		return
	}
	h.render(w, r, s)
}

// Hosts serves GET / on a site subdomain. Every other request, including API
// calls made from the rendered page, falls through to next.
func (h *Handler) Hosts(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, ok := h.deploy.SlugFromHost(r.Host)
		if !ok || r.URL.Path != "/" || (r.Method != http.MethodGet && r.Method != http.MethodHead) {
			next.ServeHTTP(w, r)
			return
		}
		h.render(w, r, s)
	})
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, s string) {
	b, err := h.businesses.Published(r.Context(), s)
	if err != nil {
		if _, ok := apperr.AsNotFound(err); ok {
			http.Error(w, "site not found", http.StatusNotFound)
			return
		}
		h.logger.Error("load site failed", "err", err, "slug", s)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.renderer.Render(w, b); err != nil {
		h.logger.Error("render site failed", "err", err, "slug", s)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	h.businesses.RecordView(r.Context(), b.ID)
}
