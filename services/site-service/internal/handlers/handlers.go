// Package handlers is the JSON HTTP surface of the site-service.
package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/md-rashed-zaman/bizsites/libs/auth"
	"github.com/md-rashed-zaman/bizsites/libs/httpx"
	"github.com/md-rashed-zaman/bizsites/services/site-service/internal/account"
	"github.com/md-rashed-zaman/bizsites/services/site-service/internal/apperr"
	"github.com/md-rashed-zaman/bizsites/services/site-service/internal/booking"
	"github.com/md-rashed-zaman/bizsites/services/site-service/internal/business"
	"github.com/md-rashed-zaman/bizsites/services/site-service/internal/model"
	"github.com/md-rashed-zaman/bizsites/services/site-service/internal/slug"
)

type Businesses interface {
	CheckSlug(ctx context.Context, raw string) (slug.Availability, error)
	Create(ctx context.Context, ownerID int64, in business.CreateInput) (model.Business, error)
	Get(ctx context.Context, id int64) (model.Business, error)
	ListMine(ctx context.Context, actor model.Actor) ([]model.Business, error)
	Update(ctx context.Context, actor model.Actor, id int64, p model.BusinessProfile) (model.Business, error)
	ListByStatus(ctx context.Context, raw string) ([]model.Business, error)
	SetStatus(ctx context.Context, id int64, raw string) (model.Business, error)
	Delete(ctx context.Context, id int64) error
}

type Bookings interface {
	AvailableSlots(ctx context.Context, businessID int64, rawDate string) (booking.SlotListing, error)
	Book(ctx context.Context, req booking.BookingRequest) (model.Appointment, error)
	UpdateStatus(ctx context.Context, actor model.Actor, id int64, rawStatus string) (model.Appointment, error)
	Get(ctx context.Context, actor model.Actor, id int64) (model.Appointment, error)
	List(ctx context.Context, actor model.Actor, businessID int64, rawDate, rawStatus string) ([]model.Appointment, error)
}

type Accounts interface {
	Register(ctx context.Context, in account.RegisterInput) (account.Session, error)
	Login(ctx context.Context, email, password string) (account.Session, error)
	Me(ctx context.Context, userID int64) (model.User, error)
}

// Options wires cross-cutting concerns into the router. Nil limiters disable
// rate limiting for that route; a nil Site disables /{slug} pages.
type Options struct {
	Verifier      auth.Verifier
	CheckLimiter  httpx.Limiter
	BookLimiter   httpx.Limiter
	LimitFailOpen bool
	Site          http.HandlerFunc
}

type Handler struct {
	businesses Businesses
	bookings   Bookings
	accounts   Accounts
	logger     *slog.Logger
}

func New(businesses Businesses, bookings Bookings, accounts Accounts, logger *slog.Logger) *Handler {
	return &Handler{businesses: businesses, bookings: bookings, accounts: accounts, logger: logger}
}

// Routes builds the API router. Probes and /metrics are mounted by the caller.
func (h *Handler) Routes(opts Options) chi.Router {
	r := chi.NewRouter()
	authed := auth.RequireAuth(opts.Verifier)
	admin := auth.RequireRole(auth.RoleAdmin)
	checkLimit := h.limit(opts.CheckLimiter, "check", opts.LimitFailOpen)
	bookLimit := h.limit(opts.BookLimiter, "book", opts.LimitFailOpen)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.With(authed).Get("/me", h.Me)
	})

	r.Route("/business", func(r chi.Router) {
		r.With(checkLimit).Get("/check-subdomain", h.CheckSubdomain)
		r.With(authed).Post("/create", h.CreateBusiness)
		r.With(authed).Get("/mine", h.MyBusinesses)
		r.Get("/{businessId}", h.GetBusiness)
		r.With(authed).Put("/{businessId}", h.UpdateBusiness)
	})

	r.Route("/appointments", func(r chi.Router) {
		r.Get("/business/{businessId}/available-slots", h.AvailableSlots)
		r.With(bookLimit).Post("/business/{businessId}", h.Book)
		r.With(authed).Get("/business/{businessId}", h.ListAppointments)
		r.With(authed).Get("/{appointmentId}", h.GetAppointment)
		r.With(authed).Patch("/{appointmentId}/status", h.UpdateAppointmentStatus)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(authed, admin)
		r.Get("/businesses", h.ListBusinessesByStatus)
		r.Patch("/business/{businessId}/status", h.SetBusinessStatus)
		r.Delete("/business/{businessId}", h.DeleteBusiness)
	})

	if opts.Site != nil {
		r.Get("/{slug}", opts.Site)
	}
	return r
}

func (h *Handler) limit(l httpx.Limiter, prefix string, failOpen bool) func(http.Handler) http.Handler {
	if l == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return httpx.RateLimit(l, prefix, h.logger, failOpen)
}

var validate = validator.New()

// decode reads a JSON body into dst and runs its validate tags.
func decode(r *http.Request, dst any) error {
	if err := httpx.DecodeJSON(r, dst); err != nil {
		return apperr.Validation("", err.Error())
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return apperr.Validation(lowerFirst(fe.Field()), ruleMessage(fe))
		}
		return apperr.Validation("", err.Error())
	}
	return nil
}

func ruleMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	default:
		return "is invalid"
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation(name, "must be a positive integer")
	}
	return id, nil
}

// actor builds the caller identity from verified claims.
func actor(r *http.Request) (model.Actor, error) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		return model.Actor{}, apperr.Unauthorized("unauthenticated")
	}
	id, err := claims.UserID()
	if err != nil {
		return model.Actor{}, apperr.Unauthorized("invalid token subject")
	}
	return model.Actor{UserID: id, Admin: claims.IsAdmin()}, nil
}

// writeError maps the apperr taxonomy onto HTTP statuses. Unknown errors are
// logged and reported as a generic 500.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if ve, ok := apperr.AsValidation(err); ok {
		if len(ve.Suggestions) > 0 {
			httpx.WriteJSON(w, http.StatusBadRequest, map[string]any{"error": ve.Error(), "suggestions": ve.Suggestions})
			return
		}
		httpx.WriteError(w, http.StatusBadRequest, ve.Error())
		return
	}
	if nf, ok := apperr.AsNotFound(err); ok {
		httpx.WriteError(w, http.StatusNotFound, nf.Error())
		return
	}
	if c, ok := apperr.AsConflict(err); ok {
		httpx.WriteError(w, http.StatusBadRequest, c.Error())
		return
	}
	if u, ok := apperr.AsUnauthorized(err); ok {
		httpx.WriteError(w, http.StatusUnauthorized, u.Error())
		return
	}
	if f, ok := apperr.AsForbidden(err); ok {
		httpx.WriteError(w, http.StatusForbidden, f.Error())
		return
	}
	h.logger.Error("request failed",
		"err", err,
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", httpx.RequestIDFromContext(r.Context()),
	)
	httpx.WriteError(w, http.StatusInternalServerError, "internal server error")
}
