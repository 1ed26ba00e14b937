// Package notify turns booking events into outbox rows that the publisher
// relays to the notification-service.
package notify

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/md-rashed-zaman/bizsites/services/site-service/internal/model"
	"github.com/md-rashed-zaman/bizsites/services/site-service/internal/outbox"
	"github.com/md-rashed-zaman/bizsites/services/site-service/internal/schedule"
	"github.com/md-rashed-zaman/bizsites/services/site-service/internal/storage"
)

// AppointmentBooked is the payload of appointment.booked.v1. The
// notification-service decodes the same shape.
type AppointmentBooked struct {
	AppointmentID   int64  `json:"appointmentId"`
	BusinessID      int64  `json:"businessId"`
	BusinessName    string `json:"businessName"`
	BusinessPhone   string `json:"businessPhone,omitempty"`
	BusinessAddress string `json:"businessAddress,omitempty"`
	SiteURL         string `json:"siteUrl,omitempty"`
	CustomerName    string `json:"customerName"`
	CustomerEmail   string `json:"customerEmail"`
	CustomerPhone   string `json:"customerPhone"`
	AppointmentDate string `json:"appointmentDate"`
	AppointmentTime string `json:"appointmentTime"`
	Service         string `json:"service,omitempty"`
}

// StatusChanged is the payload of appointment.status_changed.v1.
type StatusChanged struct {
	AppointmentID   int64  `json:"appointmentId"`
	BusinessID      int64  `json:"businessId"`
	From            string `json:"from"`
	To              string `json:"to"`
	CustomerName    string `json:"customerName"`
	CustomerEmail   string `json:"customerEmail,omitempty"`
	AppointmentDate string `json:"appointmentDate"`
	AppointmentTime string `json:"appointmentTime"`
}

type eventWriter interface {
	Insert(ctx context.Context, q storage.Querier, evt outbox.Event) (string, error)
}

// OutboxNotifier records notification intents in the outbox.
type OutboxNotifier struct {
	events eventWriter
}

func NewOutboxNotifier(events eventWriter) *OutboxNotifier {
	return &OutboxNotifier{events: events}
}

func (n *OutboxNotifier) AppointmentBooked(ctx context.Context, b model.Business, a model.Appointment) error {
	payload, err := json.Marshal(AppointmentBooked{
		AppointmentID:   a.ID,
		BusinessID:      b.ID,
		BusinessName:    b.Name,
		BusinessPhone:   b.Phone,
		BusinessAddress: b.Address,
		SiteURL:         b.SubdomainURL,
		CustomerName:    a.CustomerName,
		CustomerEmail:   a.CustomerEmail,
		CustomerPhone:   a.CustomerPhone,
		AppointmentDate: schedule.FormatDate(a.AppointmentDate),
		AppointmentTime: a.AppointmentTime,
		Service:         a.Service,
	})
	if err != nil {
		return err
	}
	_, err = n.events.Insert(ctx, nil, outbox.Event{
		AggregateType: "appointment",
		AggregateID:   strconv.FormatInt(a.ID, 10),
		EventType:     outbox.TopicAppointmentBooked,
		Payload:       payload,
	})
	return err
}

func (n *OutboxNotifier) StatusChanged(ctx context.Context, a model.Appointment, from model.AppointmentStatus) error {
	payload, err := json.Marshal(StatusChanged{
		AppointmentID:   a.ID,
		BusinessID:      a.BusinessID,
		From:            string(from),
		To:              string(a.Status),
		CustomerName:    a.CustomerName,
		CustomerEmail:   a.CustomerEmail,
		AppointmentDate: schedule.FormatDate(a.AppointmentDate),
		AppointmentTime: a.AppointmentTime,
	})
	if err != nil {
		return err
	}
	_, err = n.events.Insert(ctx, nil, outbox.Event{
		AggregateType: "appointment",
		AggregateID:   strconv.FormatInt(a.ID, 10),
		EventType:     outbox.TopicAppointmentStatus,
		Payload:       payload,
	})
	return err
}
