// Package storage persists delivery attempts of the notification-service.
package storage

import (
	"context"
	_ "embed"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/bizsites/libs/db"
)

//go:embed schema.sql
var Schema string

const (
	StatusSent   = "sent"
	StatusFailed = "failed"
)

type Notification struct {
	EventID       string
	AppointmentID int64
	BusinessID    int64
	Kind          string
	Channel       string
	Recipient     string
	Provider      string
	Status        string
	ErrorReason   string
	Payload       any
}

type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert records one delivery attempt and returns its id.
func (r *Repository) Insert(ctx context.Context, n Notification) (string, error) {
	payload, err := json.Marshal(n.Payload)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	_, err = r.pool.Exec(ctx, `
		INSERT INTO notifications (id, event_id, appointment_id, business_id, kind, channel, recipient, provider, status, error_reason, payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, id, n.EventID, n.AppointmentID, n.BusinessID, n.Kind, n.Channel, n.Recipient, n.Provider, n.Status, n.ErrorReason, payload)
	if err != nil {
		return "", err
	}
	return id, nil
}
