// Package email delivers plain-text mail over SMTP.
package email

import (
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Sender interface {
	Send(to string, subject string, body string) error
}

type SMTPConfig struct {
	Host     string `koanf:"host" validate:"required"`
	Port     int    `koanf:"port" validate:"gt=0,lte=65535"`
	From     string `koanf:"from" validate:"required,email"`
	FromName string `koanf:"from_name"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
}

// SMTPSender sends through a relay. Without a username it talks to the relay
// unauthenticated, which suits Mailpit in development.
type SMTPSender struct {
	addr string
	from string
	name string
	auth smtp.Auth
	now  func() time.Time
}

func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	host := strings.TrimSpace(cfg.Host)
	s := &SMTPSender{
		addr: net.JoinHostPort(host, fmt.Sprint(cfg.Port)),
		from: strings.TrimSpace(cfg.From),
		name: strings.TrimSpace(cfg.FromName),
		now:  time.Now,
	}
	if cfg.Username != "" {
		s.auth = smtp.PlainAuth("", cfg.Username, cfg.Password, host)
	}
	return s
}

func (s *SMTPSender) Send(to string, subject string, body string) error {
	msg := buildMessage(s.fromHeader(), to, subject, body, s.now(), s.from)
	return smtp.SendMail(s.addr, s.auth, s.from, []string{to}, []byte(msg))
}

func (s *SMTPSender) fromHeader() string {
	if s.name == "" {
		return s.from
	}
	return fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", s.name), s.from)
}

func buildMessage(from, to, subject, body string, date time.Time, envelopeFrom string) string {
	domain := "localhost"
	if at := strings.LastIndex(envelopeFrom, "@"); at >= 0 {
		domain = envelopeFrom[at+1:]
	}
	body = strings.ReplaceAll(strings.ReplaceAll(body, "\r\n", "\n"), "\n", "\r\n")
	return fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nDate: %s\r\nMessage-ID: <%s@%s>\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n",
		from,
		to,
		mime.QEncoding.Encode("utf-8", subject),
		date.Format(time.RFC1123Z),
		uuid.NewString(),
		domain,
		body,
	)
}
