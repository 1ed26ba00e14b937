// Package dispatch turns appointment events into customer messages: email
// when the customer left an address, SMS otherwise. Every attempt is recorded.
package dispatch

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"text/template"

	"github.com/md-rashed-zaman/bizsites/libs/kafkax"
	"github.com/md-rashed-zaman/bizsites/services/notification-service/internal/email"
	"github.com/md-rashed-zaman/bizsites/services/notification-service/internal/sms"
	"github.com/md-rashed-zaman/bizsites/services/notification-service/internal/storage"
	"github.com/segmentio/kafka-go"
)

//go:embed templates/*.txt
var templateFS embed.FS

const (
	KindBooked = "booking_received"
	KindStatus = "status_changed"
)

// AppointmentBooked mirrors the appointment.booked.v1 payload.
type AppointmentBooked struct {
	AppointmentID   int64  `json:"appointmentId"`
	BusinessID      int64  `json:"businessId"`
	BusinessName    string `json:"businessName"`
	BusinessPhone   string `json:"businessPhone"`
	BusinessAddress string `json:"businessAddress"`
	SiteURL         string `json:"siteUrl"`
	CustomerName    string `json:"customerName"`
	CustomerEmail   string `json:"customerEmail"`
	CustomerPhone   string `json:"customerPhone"`
	AppointmentDate string `json:"appointmentDate"`
	AppointmentTime string `json:"appointmentTime"`
	Service         string `json:"service"`
}

// StatusChanged mirrors the appointment.status_changed.v1 payload.
type StatusChanged struct {
	AppointmentID   int64  `json:"appointmentId"`
	BusinessID      int64  `json:"businessId"`
	From            string `json:"from"`
	To              string `json:"to"`
	CustomerName    string `json:"customerName"`
	CustomerEmail   string `json:"customerEmail"`
	AppointmentDate string `json:"appointmentDate"`
	AppointmentTime string `json:"appointmentTime"`
}

type Recorder interface {
	Insert(ctx context.Context, n storage.Notification) (string, error)
}

type Dispatcher struct {
	email   email.Sender
	sms     sms.Sender
	records Recorder
	tmpl    *template.Template
	logger  *slog.Logger
}

func New(emailSender email.Sender, smsSender sms.Sender, records Recorder, logger *slog.Logger) (*Dispatcher, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.txt")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Dispatcher{email: emailSender, sms: smsSender, records: records, tmpl: tmpl, logger: logger}, nil
}

// Handle processes one event. Malformed payloads and unknown topics are
// logged and acknowledged; only a failure to record the attempt is returned,
// so the consumer retries.
func (d *Dispatcher) Handle(ctx context.Context, msg kafka.Message) error {
	eventID := kafkax.ExtractEventMeta(msg).EventID
	if eventID == "" {
		eventID = fmt.Sprintf("%s/%d/%d", msg.Topic, msg.Partition, msg.Offset)
	}

	switch msg.Topic {
	case kafkax.TopicAppointmentBooked:
		var p AppointmentBooked
		if err := json.Unmarshal(msg.Value, &p); err != nil || p.AppointmentID == 0 {
			d.logger.Error("invalid booked payload", "err", err, "event_id", eventID)
			return nil
		}
		return d.booked(ctx, eventID, p)
	case kafkax.TopicAppointmentStatus:
		var p StatusChanged
		if err := json.Unmarshal(msg.Value, &p); err != nil || p.AppointmentID == 0 {
			d.logger.Error("invalid status payload", "err", err, "event_id", eventID)
			return nil
		}
		return d.statusChanged(ctx, eventID, p)
	default:
		d.logger.Warn("unhandled topic", "topic", msg.Topic, "event_id", eventID)
		return nil
	}
}

func (d *Dispatcher) booked(ctx context.Context, eventID string, p AppointmentBooked) error {
	n := storage.Notification{
		EventID:       eventID,
		AppointmentID: p.AppointmentID,
		BusinessID:    p.BusinessID,
		Kind:          KindBooked,
		Payload:       p,
	}
	switch {
	case p.CustomerEmail != "":
		subject, body, err := d.render("subject", "body", p)
		if err != nil {
			return err
		}
		return d.sendEmail(ctx, n, p.CustomerEmail, subject, body)
	case p.CustomerPhone != "":
		text := fmt.Sprintf("%s: booking received for %s at %s. We will confirm shortly.",
			p.BusinessName, p.AppointmentDate, p.AppointmentTime)
		return d.sendSMS(ctx, n, p.CustomerPhone, text)
	default:
		d.logger.Info("booking has no contact, nothing to send", "appointment_id", p.AppointmentID)
		return nil
	}
}

func (d *Dispatcher) statusChanged(ctx context.Context, eventID string, p StatusChanged) error {
	if p.CustomerEmail == "" || (p.To != "confirmed" && p.To != "cancelled") {
		return nil
	}
	subject, body, err := d.render("status_subject", "status_body", p)
	if err != nil {
		return err
	}
	n := storage.Notification{
		EventID:       eventID,
		AppointmentID: p.AppointmentID,
		BusinessID:    p.BusinessID,
		Kind:          KindStatus,
		Payload:       p,
	}
	return d.sendEmail(ctx, n, p.CustomerEmail, subject, body)
}

func (d *Dispatcher) render(subjectTmpl, bodyTmpl string, data any) (string, string, error) {
	var subject, body bytes.Buffer
	if err := d.tmpl.ExecuteTemplate(&subject, subjectTmpl, data); err != nil {
		return "", "", fmt.Errorf("render %s: %w", subjectTmpl, err)
	}
	if err := d.tmpl.ExecuteTemplate(&body, bodyTmpl, data); err != nil {
		return "", "", fmt.Errorf("render %s: %w", bodyTmpl, err)
	}
	return strings.TrimSpace(subject.String()), body.String(), nil
}

func (d *Dispatcher) sendEmail(ctx context.Context, n storage.Notification, to, subject, body string) error {
	n.Channel, n.Recipient, n.Provider = "email", to, "smtp"
	n.Status = storage.StatusSent
	if err := d.email.Send(to, subject, body); err != nil {
		n.Status, n.ErrorReason = storage.StatusFailed, err.Error()
		d.logger.Error("email send failed", "err", err, "appointment_id", n.AppointmentID)
	}
	return d.record(ctx, n)
}

func (d *Dispatcher) sendSMS(ctx context.Context, n storage.Notification, to, text string) error {
	n.Channel, n.Recipient, n.Provider = "sms", to, d.sms.ProviderID()
	n.Status = storage.StatusSent
	msg := sms.Message{To: to, Body: text, Reference: fmt.Sprintf("appointment-%d", n.AppointmentID)}
	if err := d.sms.Send(ctx, msg); err != nil {
		n.Status, n.ErrorReason = storage.StatusFailed, err.Error()
		d.logger.Error("sms send failed", "err", err, "appointment_id", n.AppointmentID)
	}
	return d.record(ctx, n)
}

func (d *Dispatcher) record(ctx context.Context, n storage.Notification) error {
	if _, err := d.records.Insert(ctx, n); err != nil {
		return fmt.Errorf("record notification: %w", err)
	}
	d.logger.Info("notification processed",
		"appointment_id", n.AppointmentID,
		"kind", n.Kind,
		"channel", n.Channel,
		"status", n.Status,
	)
	return nil
}
