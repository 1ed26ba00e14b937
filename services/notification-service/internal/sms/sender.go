// Package sms delivers booking confirmations as text messages through an
// HTTP gateway, for customers who left a phone number but no email.
package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

var ErrInvalidNumber = errors.New("invalid phone number")

// Message is one outgoing text. Reference ties it back to the appointment
// on the gateway side.
type Message struct {
	To        string
	Body      string
	Reference string
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
	ProviderID() string
}

type Config struct {
	Provider     string        `koanf:"provider" validate:"oneof=noop webhook"`
	WebhookURL   string        `koanf:"webhook_url" validate:"required_if=Provider webhook"`
	WebhookToken string        `koanf:"webhook_token"`
	SenderID     string        `koanf:"sender_id" validate:"max=11"`
	Timeout      time.Duration `koanf:"timeout"`
}

// New returns the sender selected by cfg.Provider.
func New(cfg Config) Sender {
	if strings.EqualFold(cfg.Provider, "webhook") {
		return NewWebhookSender(cfg)
	}
	return NoopSender{}
}

// NormalizeNumber strips the punctuation people type into phone fields and
// keeps a leading +. Fewer than 7 digits is rejected.
func NormalizeNumber(raw string) (string, error) {
	var b strings.Builder
	for i, r := range strings.TrimSpace(raw) {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '.' || r == '(' || r == ')':
		default:
			return "", fmt.Errorf("%w: %q", ErrInvalidNumber, raw)
		}
	}
	n := b.String()
	if len(strings.TrimPrefix(n, "+")) < 7 {
		return "", fmt.Errorf("%w: %q", ErrInvalidNumber, raw)
	}
	return n, nil
}

type WebhookSender struct {
	url    string
	token  string
	sender string
	http   *http.Client
}

func NewWebhookSender(cfg Config) *WebhookSender {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &WebhookSender{
		url:    strings.TrimSpace(cfg.WebhookURL),
		token:  strings.TrimSpace(cfg.WebhookToken),
		sender: strings.TrimSpace(cfg.SenderID),
		http:   &http.Client{Timeout: timeout},
	}
}

func (s *WebhookSender) ProviderID() string {
	return "sms-webhook"
}

type webhookPayload struct {
	To        string `json:"to"`
	From      string `json:"from,omitempty"`
	Body      string `json:"body"`
	Reference string `json:"reference,omitempty"`
}

func (s *WebhookSender) Send(ctx context.Context, msg Message) error {
	if s.url == "" {
		return errors.New("sms webhook url not configured")
	}
	to, err := NormalizeNumber(msg.To)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(webhookPayload{To: to, From: s.sender, Body: msg.Body, Reference: msg.Reference})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("sms webhook: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sms webhook returned %d", resp.StatusCode)
	}
	return nil
}

// NoopSender validates the number and drops the message. It keeps the
// pipeline observable in environments without a gateway.
type NoopSender struct{}

func (NoopSender) ProviderID() string {
	return "sms-noop"
}

func (NoopSender) Send(_ context.Context, msg Message) error {
	_, err := NormalizeNumber(msg.To)
	return err
}
