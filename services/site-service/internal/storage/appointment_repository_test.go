package storage

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/md-rashed-zaman/bizsites/libs/db"
	"github.com/md-rashed-zaman/bizsites/services/site-service/internal/model"
	"github.com/md-rashed-zaman/bizsites/services/site-service/internal/schedule"
)

// These tests need a disposable Postgres database:
//
//	BIZSITES_TEST_DATABASE_URL=postgres://... go test ./services/site-service/internal/storage
func openTestPool(t *testing.T) *db.Pool {
	t.Helper()
	url := os.Getenv("BIZSITES_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("BIZSITES_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := db.Open(ctx, url, db.Options{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(pool.Close)
	if err := pool.ApplySchema(ctx, Schema); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	return pool
}

func seedBusiness(t *testing.T, pool *db.Pool) model.Business {
	t.Helper()
	ctx := context.Background()
	suffix := time.Now().UnixNano()

	u := model.User{Email: fmt.Sprintf("owner-%d@example.com", suffix), PasswordHash: "x", Role: "owner"}
	if err := NewUserRepository(pool).Create(ctx, &u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	b := model.Business{
		OwnerID:         u.ID,
		Name:            "Race Cafe",
		Slug:            fmt.Sprintf("race-cafe-%d", suffix),
		SubdomainURL:    "https://x",
		SubdirectoryURL: "https://y",
		BusinessHours:   schedule.WeeklyHours{"monday": {Open: true, Start: "09:00", End: "17:00"}},
		Status:          model.ApprovalPending,
	}
	if err := NewBusinessRepository(pool).Insert(ctx, &b); err != nil {
		t.Fatalf("create business: %v", err)
	}
	return b
}

func appointmentAt(businessID int64, clock string) *model.Appointment {
	return &model.Appointment{
		BusinessID:      businessID,
		CustomerName:    "Ana",
		CustomerPhone:   "555-0100",
		AppointmentDate: time.Date(2030, 1, 7, 0, 0, 0, 0, time.UTC),
		AppointmentTime: clock,
		Status:          model.StatusPending,
	}
}

func TestActiveSlotUniqueIndex(t *testing.T) {
	pool := openTestPool(t)
	b := seedBusiness(t, pool)
	repo := NewAppointmentRepository(pool)
	ctx := context.Background()
	allow := func([]string) error { return nil }

	first := appointmentAt(b.ID, "10:00")
	if err := repo.Create(ctx, first, allow); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	err := repo.Create(ctx, appointmentAt(b.ID, "10:00"), allow)
	if !db.IsUniqueViolation(err) || db.ConstraintName(err) != ConstraintActiveSlot {
		t.Fatalf("expected active slot violation, got %v", err)
	}

	if _, err := repo.UpdateStatus(ctx, first.ID, func(model.Appointment) (model.AppointmentStatus, error) {
		return model.StatusCancelled, nil
	}); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if err := repo.Create(ctx, appointmentAt(b.ID, "10:00"), allow); err != nil {
		t.Fatalf("cancelled slot should be reusable: %v", err)
	}
}

func TestConcurrentCreateSerializes(t *testing.T) {
	pool := openTestPool(t)
	b := seedBusiness(t, pool)
	repo := NewAppointmentRepository(pool)

	// Different but clashing times: only the business lock, not the unique
	// index, can keep these apart.
	clocks := []string{"10:00", "10:15", "10:30", "09:45", "10:00", "09:30"}
	errDenied := fmt.Errorf("denied")

	var wg sync.WaitGroup
	errs := make(chan error, len(clocks))
	for _, c := range clocks {
		wg.Add(1)
		go func(clock string) {
			defer wg.Done()
			errs <- repo.Create(context.Background(), appointmentAt(b.ID, clock), func(booked []string) error {
				if len(booked) > 0 {
					return errDenied
				}
				return nil
			})
		}(c)
	}
	wg.Wait()
	close(errs)

	created := 0
	for err := range errs {
		if err == nil {
			created++
		}
	}
	if created != 1 {
		t.Fatalf("expected exactly one admitted booking, got %d", created)
	}

	times, err := repo.ActiveTimes(context.Background(), b.ID, time.Date(2030, 1, 7, 0, 0, 0, 0, time.UTC))
	if err != nil || len(times) != 1 {
		t.Fatalf("unexpected active times %v (%v)", times, err)
	}
}

func TestDeleteBusinessCascades(t *testing.T) {
	pool := openTestPool(t)
	b := seedBusiness(t, pool)
	appts := NewAppointmentRepository(pool)
	ctx := context.Background()

	a := appointmentAt(b.ID, "11:00")
	if err := appts.Create(ctx, a, func([]string) error { return nil }); err != nil {
		t.Fatal(err)
	}
	if err := NewBusinessRepository(pool).Delete(ctx, b.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := appts.Get(ctx, a.ID); !db.IsNotFound(err) {
		t.Fatalf("expected appointment to be removed, got %v", err)
	}
	if err := NewBusinessRepository(pool).Delete(ctx, b.ID); !db.IsNotFound(err) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}
