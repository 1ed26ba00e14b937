package notify

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/md-rashed-zaman/bizsites/services/site-service/internal/model"
	"github.com/md-rashed-zaman/bizsites/services/site-service/internal/outbox"
	"github.com/md-rashed-zaman/bizsites/services/site-service/internal/storage"
)

type captureWriter struct {
	events []outbox.Event
}

func (c *captureWriter) Insert(_ context.Context, _ storage.Querier, evt outbox.Event) (string, error) {
	c.events = append(c.events, evt)
	return "evt", nil
}

func TestAppointmentBookedPayload(t *testing.T) {
	w := &captureWriter{}
	n := NewOutboxNotifier(w)

	b := model.Business{ID: 3, Name: "Cafe Blue", SubdomainURL: "https://cafe-blue.bizsites.app"}
	a := model.Appointment{
		ID:              11,
		BusinessID:      3,
		CustomerName:    "Ana",
		CustomerEmail:   "ana@example.com",
		CustomerPhone:   "555-0100",
		AppointmentDate: time.Date(2030, 1, 7, 0, 0, 0, 0, time.UTC),
		AppointmentTime: "10:00",
	}
	if err := n.AppointmentBooked(context.Background(), b, a); err != nil {
		t.Fatalf("AppointmentBooked failed: %v", err)
	}
	if len(w.events) != 1 {
		t.Fatalf("expected one event, got %d", len(w.events))
	}
	evt := w.events[0]
	if evt.EventType != outbox.TopicAppointmentBooked || evt.AggregateID != "11" {
		t.Fatalf("unexpected envelope %+v", evt)
	}

	var got AppointmentBooked
	if err := json.Unmarshal(evt.Payload, &got); err != nil {
		t.Fatalf("payload not json: %v", err)
	}
	if got.AppointmentDate != "2030-01-07" || got.CustomerEmail != "ana@example.com" || got.BusinessName != "Cafe Blue" {
		t.Fatalf("unexpected payload %+v", got)
	}
}

func TestStatusChangedPayload(t *testing.T) {
	w := &captureWriter{}
	n := NewOutboxNotifier(w)

	a := model.Appointment{
		ID:              11,
		BusinessID:      3,
		CustomerName:    "Ana",
		CustomerEmail:   "ana@example.com",
		AppointmentDate: time.Date(2030, 1, 7, 0, 0, 0, 0, time.UTC),
		AppointmentTime: "10:00",
		Status:          model.StatusCancelled,
	}
	if err := n.StatusChanged(context.Background(), a, model.StatusConfirmed); err != nil {
		t.Fatal(err)
	}
	evt := w.events[0]
	if evt.EventType != outbox.TopicAppointmentStatus {
		t.Fatalf("event type = %q", evt.EventType)
	}
	var got StatusChanged
	if err := json.Unmarshal(evt.Payload, &got); err != nil {
		t.Fatal(err)
	}
	if got.From != "confirmed" || got.To != "cancelled" || got.CustomerEmail != "ana@example.com" || got.AppointmentDate != "2030-01-07" {
		t.Fatalf("unexpected payload %+v", got)
	}
}
