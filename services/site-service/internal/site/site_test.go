package site

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/md-rashed-zaman/bizsites/services/site-service/internal/apperr"
	"github.com/md-rashed-zaman/bizsites/services/site-service/internal/model"
	"github.com/md-rashed-zaman/bizsites/services/site-service/internal/schedule"
	"github.com/md-rashed-zaman/bizsites/services/site-service/internal/slug"
)

type fakeBusinesses struct {
	sites map[string]model.Business
	views []int64
}

func (f *fakeBusinesses) Published(_ context.Context, s string) (model.Business, error) {
	b, ok := f.sites[s]
	if !ok || b.Status != model.ApprovalApproved {
		return model.Business{}, apperr.NotFound("business")
	}
	return b, nil
}

func (f *fakeBusinesses) RecordView(_ context.Context, id int64) {
	f.views = append(f.views, id)
}

func newHandler(t *testing.T) (*Handler, *fakeBusinesses) {
	t.Helper()
	renderer, err := NewRenderer()
	require.NoError(t, err)
	renderer.now = func() time.Time { return time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC) }

	biz := &fakeBusinesses{sites: map[string]model.Business{
		"blue-cafe": {
			ID: 42, Name: "Blue Cafe <Bakery>", Slug: "blue-cafe", Phone: "555-0100",
			Status: model.ApprovalApproved,
			BusinessHours: schedule.WeeklyHours{
				"monday": {Open: true, Start: "09:00", End: "17:00"},
			},
		},
		"hidden": {ID: 7, Name: "Hidden", Slug: "hidden", Status: model.ApprovalPending},
	}}
	deploy := slug.DeploymentConfig{BaseDomain: "bizsites.test"}
	return NewHandler(biz, renderer, deploy, slog.New(slog.NewTextHandler(io.Discard, nil))), biz
}

func TestServeSlugRendersApprovedSite(t *testing.T) {
	h, biz := newHandler(t)
	r := chi.NewRouter()
	r.Get("/{slug}", h.ServeSlug)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/blue-cafe", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Blue Cafe &lt;Bakery&gt;")
	assert.Contains(t, body, "09:00 - 17:00")
	assert.Contains(t, body, "Sunday")
	assert.Contains(t, body, "/appointments/business/42/available-slots")
	assert.Equal(t, []int64{42}, biz.views)
}

func TestServeSlugHidesUnapprovedAndReserved(t *testing.T) {
	h, biz := newHandler(t)
	r := chi.NewRouter()
	r.Get("/{slug}", h.ServeSlug)

	for _, path := range []string{"/hidden", "/nobody", "/admin", "/x"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
	}
	assert.Empty(t, biz.views)
}

func TestHostsServesSubdomainRoot(t *testing.T) {
	h, _ := newHandler(t)
	fallthroughCalled := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fallthroughCalled = true
		w.WriteHeader(http.StatusTeapot)
	})
	srv := h.Hosts(next)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Host = "blue-cafe.bizsites.test"
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/html"))
	assert.False(t, fallthroughCalled)

	cases := []struct {
		host, path string
	}{
		{"blue-cafe.bizsites.test", "/appointments/business/42/available-slots"},
		{"bizsites.test", "/"},
		{"www.bizsites.test", "/"},
	}
	for _, tc := range cases {
		fallthroughCalled = false
		req := httptest.NewRequest(http.MethodGet, tc.path, nil)
		req.Host = tc.host
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusTeapot, rec.Code, tc.host+tc.path)
		assert.True(t, fallthroughCalled)
	}
}

func TestHostsUnknownSubdomainIsNotFound(t *testing.T) {
	h, _ := newHandler(t)
	srv := h.Hosts(http.NotFoundHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Host = "hidden.bizsites.test"
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
