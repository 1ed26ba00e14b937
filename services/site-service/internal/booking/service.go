// Package booking implements appointment scheduling for a business: slot
// listing, booking admission and status transitions.
package booking

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/md-rashed-zaman/bizsites/libs/db"
	"github.com/md-rashed-zaman/bizsites/services/site-service/internal/apperr"
	"github.com/md-rashed-zaman/bizsites/services/site-service/internal/metrics"
	"github.com/md-rashed-zaman/bizsites/services/site-service/internal/model"
	"github.com/md-rashed-zaman/bizsites/services/site-service/internal/schedule"
	"github.com/md-rashed-zaman/bizsites/services/site-service/internal/storage"
)

const slotTakenMessage = "This time slot is no longer available"

var validate = validator.New()

type Store interface {
	Create(ctx context.Context, appt *model.Appointment, admit func(booked []string) error) error
	ActiveTimes(ctx context.Context, businessID int64, date time.Time) ([]string, error)
	Get(ctx context.Context, id int64) (model.Appointment, error)
	UpdateStatus(ctx context.Context, id int64, decide func(current model.Appointment) (model.AppointmentStatus, error)) (model.Appointment, error)
	ListByBusiness(ctx context.Context, businessID int64, f storage.AppointmentFilter) ([]model.Appointment, error)
}

type Businesses interface {
	Get(ctx context.Context, id int64) (model.Business, error)
}

type Notifier interface {
	AppointmentBooked(ctx context.Context, b model.Business, a model.Appointment) error
	StatusChanged(ctx context.Context, a model.Appointment, from model.AppointmentStatus) error
}

type Service struct {
	store      Store
	businesses Businesses
	notifier   Notifier
	logger     *slog.Logger
	loc        *time.Location
	now        func() time.Time
}

// New returns a Service. loc is the wall-clock zone business hours and
// appointment times are expressed in; nil means UTC.
func New(store Store, businesses Businesses, notifier Notifier, logger *slog.Logger, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		store:      store,
		businesses: businesses,
		notifier:   notifier,
		logger:     logger,
		loc:        loc,
		now:        time.Now,
	}
}

type SlotListing struct {
	Slots   []string
	Message string
}

// AvailableSlots lists bookable "HH:MM" start times for the business on
// rawDate (YYYY-MM-DD). A closed day yields an empty list and a message.
func (s *Service) AvailableSlots(ctx context.Context, businessID int64, rawDate string) (SlotListing, error) {
	if strings.TrimSpace(rawDate) == "" {
		return SlotListing{}, apperr.Validation("date", "is required")
	}
	date, err := schedule.ParseDate(strings.TrimSpace(rawDate), s.loc)
	if err != nil {
		return SlotListing{}, apperr.Validation("date", err.Error())
	}

	b, err := s.business(ctx, businessID)
	if err != nil {
		return SlotListing{}, err
	}
	booked, err := s.store.ActiveTimes(ctx, businessID, date)
	if err != nil {
		return SlotListing{}, apperr.Storage("list active times", err)
	}

	slots, open, err := schedule.DaySlots(date, b.BusinessHours, booked, s.now().In(s.loc))
	if err != nil {
		return SlotListing{}, apperr.Storage("compute slots", err)
	}
	metrics.SlotQueries.Inc()
	if !open {
		return SlotListing{Slots: []string{}, Message: fmt.Sprintf("Business is closed on %s", date.Weekday())}, nil
	}
	return SlotListing{Slots: slots}, nil
}

type BookingRequest struct {
	BusinessID      int64
	CustomerName    string
	CustomerEmail   string
	CustomerPhone   string
	AppointmentDate string
	AppointmentTime string
	Service         string
	Notes           string
}

// Book admits a new pending appointment. Checks run in order: required
// fields, future date and time, business exists, slot free. The slot check
// and insert share one transaction that serializes bookings per business.
func (s *Service) Book(ctx context.Context, req BookingRequest) (model.Appointment, error) {
	appt, at, err := s.admissible(req)
	if err != nil {
		metrics.Bookings.WithLabelValues("rejected").Inc()
		return model.Appointment{}, err
	}

	b, err := s.business(ctx, req.BusinessID)
	if err != nil {
		metrics.Bookings.WithLabelValues("rejected").Inc()
		return model.Appointment{}, err
	}

	err = s.store.Create(ctx, &appt, func(booked []string) error {
		busy, err := schedule.BusyTimes(appt.AppointmentDate, booked)
		if err != nil {
			return err
		}
		if schedule.Conflicts(at, busy, schedule.ProximityWindow) {
			return apperr.Conflict("appointment", slotTakenMessage)
		}
		return nil
	})
	if err != nil {
		if _, ok := apperr.AsConflict(err); !ok {
			err = s.translate("create appointment", "business", err)
		}
		if _, ok := apperr.AsConflict(err); ok {
			metrics.Bookings.WithLabelValues("conflict").Inc()
		} else {
			metrics.Bookings.WithLabelValues("rejected").Inc()
		}
		return model.Appointment{}, err
	}
	metrics.Bookings.WithLabelValues("created").Inc()

	s.notifyBooked(ctx, b, appt)
	return appt, nil
}

func (s *Service) admissible(req BookingRequest) (model.Appointment, time.Time, error) {
	req.CustomerName = strings.TrimSpace(req.CustomerName)
	req.CustomerPhone = strings.TrimSpace(req.CustomerPhone)
	req.CustomerEmail = strings.TrimSpace(req.CustomerEmail)
	req.AppointmentDate = strings.TrimSpace(req.AppointmentDate)
	req.AppointmentTime = strings.TrimSpace(req.AppointmentTime)

	switch {
	case req.CustomerName == "":
		return model.Appointment{}, time.Time{}, apperr.Validation("customerName", "is required")
	case req.CustomerPhone == "":
		return model.Appointment{}, time.Time{}, apperr.Validation("customerPhone", "is required")
	case req.AppointmentDate == "":
		return model.Appointment{}, time.Time{}, apperr.Validation("appointmentDate", "is required")
	case req.AppointmentTime == "":
		return model.Appointment{}, time.Time{}, apperr.Validation("appointmentTime", "is required")
	}
	if req.CustomerEmail != "" {
		if err := validate.Var(req.CustomerEmail, "email"); err != nil {
			return model.Appointment{}, time.Time{}, apperr.Validation("customerEmail", "must be a valid email address")
		}
	}

	date, err := schedule.ParseDate(req.AppointmentDate, s.loc)
	if err != nil {
		return model.Appointment{}, time.Time{}, apperr.Validation("appointmentDate", err.Error())
	}
	clock, err := normalizeClock(req.AppointmentTime)
	if err != nil {
		return model.Appointment{}, time.Time{}, apperr.Validation("appointmentTime", err.Error())
	}
	at, err := schedule.At(date, clock)
	if err != nil {
		return model.Appointment{}, time.Time{}, apperr.Validation("appointmentTime", err.Error())
	}
	if !at.After(s.now()) {
		return model.Appointment{}, time.Time{}, apperr.Validation("appointmentTime", "appointment must be in the future")
	}

	return model.Appointment{
		BusinessID:      req.BusinessID,
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		CustomerPhone:   req.CustomerPhone,
		AppointmentDate: date,
		AppointmentTime: clock,
		Service:         strings.TrimSpace(req.Service),
		Notes:           strings.TrimSpace(req.Notes),
		Status:          model.StatusPending,
	}, at, nil
}

// normalizeClock accepts "HH:MM" or "HH:MM:SS" and returns "HH:MM".
func normalizeClock(raw string) (string, error) {
	if len(raw) == len("15:04:05") && raw[5] == ':' {
		raw = raw[:5]
	}
	m, err := schedule.ParseClock(raw)
	if err != nil {
		return "", err
	}
	return schedule.FormatClock(m), nil
}

func (s *Service) notifyBooked(ctx context.Context, b model.Business, a model.Appointment) {
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.notifier.AppointmentBooked(nctx, b, a); err != nil {
		s.logger.Warn("booking confirmation not queued",
			"err", err,
			"appointment_id", a.ID,
			"business_id", a.BusinessID,
		)
	}
}

// UpdateStatus moves an appointment along pending → confirmed → completed,
// or to cancelled from pending or confirmed. Setting the current status again
// is a no-op.
func (s *Service) UpdateStatus(ctx context.Context, actor model.Actor, id int64, rawStatus string) (model.Appointment, error) {
	next := model.AppointmentStatus(strings.ToLower(strings.TrimSpace(rawStatus)))
	if !next.Valid() {
		return model.Appointment{}, apperr.Validation("status", "must be one of pending, confirmed, cancelled, completed")
	}
	if _, err := s.authorized(ctx, actor, id); err != nil {
		return model.Appointment{}, err
	}

	var from model.AppointmentStatus
	updated, err := s.store.UpdateStatus(ctx, id, func(current model.Appointment) (model.AppointmentStatus, error) {
		from = current.Status
		if current.Status == next {
			return next, nil
		}
		if !current.Status.CanTransitionTo(next) {
			return "", apperr.Validation("status", fmt.Sprintf("cannot change status from %s to %s", current.Status, next))
		}
		return next, nil
	})
	if err != nil {
		if _, ok := apperr.AsValidation(err); ok {
			return model.Appointment{}, err
		}
		return model.Appointment{}, s.translate("update appointment status", "appointment", err)
	}

	if from != updated.Status {
		metrics.StatusTransitions.WithLabelValues(string(updated.Status)).Inc()
		nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := s.notifier.StatusChanged(nctx, updated, from); err != nil {
			s.logger.Warn("status change event not queued", "err", err, "appointment_id", updated.ID)
		}
	}
	return updated, nil
}

// Get returns one appointment the actor may manage.
func (s *Service) Get(ctx context.Context, actor model.Actor, id int64) (model.Appointment, error) {
	return s.authorized(ctx, actor, id)
}

// List returns a business's appointments, optionally filtered by date
// (YYYY-MM-DD) and status.
func (s *Service) List(ctx context.Context, actor model.Actor, businessID int64, rawDate, rawStatus string) ([]model.Appointment, error) {
	b, err := s.business(ctx, businessID)
	if err != nil {
		return nil, err
	}
	if !actor.CanManage(b) {
		return nil, apperr.Forbidden("not allowed to view appointments of this business")
	}

	var f storage.AppointmentFilter
	if rawDate = strings.TrimSpace(rawDate); rawDate != "" {
		d, err := schedule.ParseDate(rawDate, s.loc)
		if err != nil {
			return nil, apperr.Validation("date", err.Error())
		}
		f.Date = &d
	}
	if rawStatus = strings.TrimSpace(rawStatus); rawStatus != "" {
		f.Status = model.AppointmentStatus(strings.ToLower(rawStatus))
		if !f.Status.Valid() {
			return nil, apperr.Validation("status", "must be one of pending, confirmed, cancelled, completed")
		}
	}

	out, err := s.store.ListByBusiness(ctx, businessID, f)
	if err != nil {
		return nil, apperr.Storage("list appointments", err)
	}
	return out, nil
}

func (s *Service) authorized(ctx context.Context, actor model.Actor, id int64) (model.Appointment, error) {
	a, err := s.store.Get(ctx, id)
	if err != nil {
		return model.Appointment{}, s.translate("get appointment", "appointment", err)
	}
	b, err := s.business(ctx, a.BusinessID)
	if err != nil {
		return model.Appointment{}, err
	}
	if !actor.CanManage(b) {
		return model.Appointment{}, apperr.Forbidden("not allowed to manage this appointment")
	}
	return a, nil
}

func (s *Service) business(ctx context.Context, id int64) (model.Business, error) {
	b, err := s.businesses.Get(ctx, id)
	if err != nil {
		return model.Business{}, s.translate("get business", "business", err)
	}
	return b, nil
}

// translate maps storage errors onto the domain taxonomy. A unique violation
// on the active-slot index means a concurrent booking won the slot; a foreign
// key violation means the business was deleted underneath us.
func (s *Service) translate(op, resource string, err error) error {
	switch {
	case db.IsNotFound(err):
		return apperr.NotFound(resource)
	case db.IsForeignKeyViolation(err):
		return apperr.NotFound("business")
	case db.IsUniqueViolation(err) && db.ConstraintName(err) == storage.ConstraintActiveSlot:
		return apperr.Conflict("appointment", slotTakenMessage)
	default:
		return apperr.Storage(op, err)
	}
}
