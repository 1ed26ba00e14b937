// Package business manages business records: creation with slug allocation,
// owner edits and the admin approval workflow that gates public microsites.
package business

import (
	"context"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/md-rashed-zaman/bizsites/libs/db"
	"github.com/md-rashed-zaman/bizsites/services/site-service/internal/apperr"
	"github.com/md-rashed-zaman/bizsites/services/site-service/internal/metrics"
	"github.com/md-rashed-zaman/bizsites/services/site-service/internal/model"
	"github.com/md-rashed-zaman/bizsites/services/site-service/internal/schedule"
	"github.com/md-rashed-zaman/bizsites/services/site-service/internal/slug"
	"github.com/md-rashed-zaman/bizsites/services/site-service/internal/storage"
)

const (
	maxInsertAttempts = 3
	listLimit         = 200
)

var validate = validator.New()

type Store interface {
	slug.Checker
	Insert(ctx context.Context, b *model.Business) error
	Get(ctx context.Context, id int64) (model.Business, error)
	GetBySlug(ctx context.Context, slug string) (model.Business, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]model.Business, error)
	ListByStatus(ctx context.Context, status model.ApprovalStatus, limit int) ([]model.Business, error)
	UpdateProfile(ctx context.Context, id int64, p model.BusinessProfile) (model.Business, error)
	SetStatus(ctx context.Context, id int64, status model.ApprovalStatus) (model.Business, error)
	Delete(ctx context.Context, id int64) error
	IncrementViews(ctx context.Context, id int64) error
}

type Service struct {
	store     Store
	allocator *slug.Allocator
	logger    *slog.Logger
}

func New(store Store, deploy slug.DeploymentConfig, logger *slog.Logger) *Service {
	return &Service{
		store:     store,
		allocator: slug.NewAllocator(store, deploy),
		logger:    logger,
	}
}

func (s *Service) Deployment() slug.DeploymentConfig {
	return s.allocator.Deployment()
}

// CheckSlug reports whether raw is a free, well-formed slug.
func (s *Service) CheckSlug(ctx context.Context, raw string) (slug.Availability, error) {
	res, err := s.allocator.Check(ctx, raw)
	if err != nil {
		if _, ok := apperr.AsValidation(err); ok {
			metrics.SlugChecks.WithLabelValues("invalid").Inc()
			return slug.Availability{}, err
		}
		return slug.Availability{}, apperr.Storage("check slug", err)
	}
	if res.Available {
		metrics.SlugChecks.WithLabelValues("available").Inc()
	} else {
		metrics.SlugChecks.WithLabelValues("taken").Inc()
	}
	return res, nil
}

type CreateInput struct {
	Name          string
	PreferredSlug string
	Profile       model.BusinessProfile
}

// Create validates the profile, allocates a slug and inserts the business as
// pending approval. A slug lost to a concurrent insert triggers a fresh
// allocation, up to three attempts.
func (s *Service) Create(ctx context.Context, ownerID int64, in CreateInput) (model.Business, error) {
	in.Profile.Name = in.Name
	profile, err := cleanProfile(in.Profile)
	if err != nil {
		return model.Business{}, err
	}

	for attempt := 1; attempt <= maxInsertAttempts; attempt++ {
		alloc, err := s.allocator.Allocate(ctx, profile.Name, in.PreferredSlug)
		if err != nil {
			return model.Business{}, apperr.Storage("allocate slug", err)
		}

		b := model.Business{
			OwnerID:         ownerID,
			Name:            profile.Name,
			Slug:            alloc.Slug,
			SubdomainURL:    alloc.SubdomainURL,
			SubdirectoryURL: alloc.SubdirectoryURL,
			Description:     profile.Description,
			Phone:           profile.Phone,
			Email:           profile.Email,
			Address:         profile.Address,
			BusinessHours:   profile.BusinessHours,
			Status:          model.ApprovalPending,
		}
		err = s.store.Insert(ctx, &b)
		if err == nil {
			source := "derived"
			if in.PreferredSlug != "" && b.Slug == slug.Normalize(in.PreferredSlug) {
				source = "preferred"
			}
			metrics.SlugAllocations.WithLabelValues(source).Inc()
			s.logger.Info("business created", "business_id", b.ID, "slug", b.Slug, "owner_id", ownerID)
			return b, nil
		}
		if db.IsUniqueViolation(err) && db.ConstraintName(err) == storage.ConstraintSlug {
			s.logger.Warn("slug taken between check and insert, retrying", "slug", alloc.Slug, "attempt", attempt)
			continue
		}
		return model.Business{}, apperr.Storage("insert business", err)
	}
	return model.Business{}, apperr.Conflict("business", "slug already taken, please choose another")
}

func (s *Service) Get(ctx context.Context, id int64) (model.Business, error) {
	b, err := s.store.Get(ctx, id)
	if err != nil {
		return model.Business{}, translate("get business", err)
	}
	return b, nil
}

// Published returns the approved business behind slug. Unapproved and
// unknown slugs are both not found.
func (s *Service) Published(ctx context.Context, slugValue string) (model.Business, error) {
	b, err := s.store.GetBySlug(ctx, slugValue)
	if err != nil {
		return model.Business{}, translate("get business by slug", err)
	}
	if b.Status != model.ApprovalApproved {
		return model.Business{}, apperr.NotFound("business")
	}
	return b, nil
}

func (s *Service) ListMine(ctx context.Context, actor model.Actor) ([]model.Business, error) {
	out, err := s.store.ListByOwner(ctx, actor.UserID)
	if err != nil {
		return nil, apperr.Storage("list businesses", err)
	}
	return out, nil
}

// Update replaces the editable profile. Slug and id never change.
func (s *Service) Update(ctx context.Context, actor model.Actor, id int64, p model.BusinessProfile) (model.Business, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return model.Business{}, err
	}
	if !actor.CanManage(current) {
		return model.Business{}, apperr.Forbidden("not allowed to edit this business")
	}
	p, err = cleanProfile(p)
	if err != nil {
		return model.Business{}, err
	}
	b, err := s.store.UpdateProfile(ctx, id, p)
	if err != nil {
		return model.Business{}, translate("update business", err)
	}
	return b, nil
}

func (s *Service) ListByStatus(ctx context.Context, raw string) ([]model.Business, error) {
	status := model.ApprovalStatus(strings.ToLower(strings.TrimSpace(raw)))
	if status == "" {
		status = model.ApprovalPending
	}
	if !status.Valid() {
		return nil, apperr.Validation("status", "must be one of pending, approved, rejected")
	}
	out, err := s.store.ListByStatus(ctx, status, listLimit)
	if err != nil {
		return nil, apperr.Storage("list businesses by status", err)
	}
	return out, nil
}

func (s *Service) SetStatus(ctx context.Context, id int64, raw string) (model.Business, error) {
	status := model.ApprovalStatus(strings.ToLower(strings.TrimSpace(raw)))
	if !status.Valid() {
		return model.Business{}, apperr.Validation("status", "must be one of pending, approved, rejected")
	}
	b, err := s.store.SetStatus(ctx, id, status)
	if err != nil {
		return model.Business{}, translate("set business status", err)
	}
	s.logger.Info("business status changed", "business_id", id, "status", status)
	return b, nil
}

// Delete removes the business and, by cascade, its appointments.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return translate("delete business", err)
	}
	s.logger.Info("business deleted", "business_id", id)
	return nil
}

// RecordView bumps the microsite view counter. Failures are logged only.
func (s *Service) RecordView(ctx context.Context, id int64) {
	metrics.SiteViews.Inc()
	if err := s.store.IncrementViews(ctx, id); err != nil {
		s.logger.Warn("view counter not updated", "err", err, "business_id", id)
	}
}

func cleanProfile(p model.BusinessProfile) (model.BusinessProfile, error) {
	p.Name = strings.TrimSpace(p.Name)
	p.Description = strings.TrimSpace(p.Description)
	p.Phone = strings.TrimSpace(p.Phone)
	p.Email = strings.TrimSpace(p.Email)
	p.Address = strings.TrimSpace(p.Address)

	if p.Name == "" {
		return p, apperr.Validation("businessName", "is required")
	}
	if len(p.Name) > 120 {
		return p, apperr.Validation("businessName", "must be at most 120 characters")
	}
	if p.Email != "" {
		if err := validate.Var(p.Email, "email"); err != nil {
			return p, apperr.Validation("email", "must be a valid email address")
		}
	}
	if p.BusinessHours == nil {
		p.BusinessHours = schedule.WeeklyHours{}
	}
	if err := p.BusinessHours.Validate(); err != nil {
		return p, apperr.Validation("businessHours", err.Error())
	}
	return p, nil
}

func translate(op string, err error) error {
	if db.IsNotFound(err) {
		return apperr.NotFound("business")
	}
	return apperr.Storage(op, err)
}
