package email

import (
	"strings"
	"testing"
	"time"
)

func TestBuildMessage(t *testing.T) {
	date := time.Date(2030, 1, 7, 9, 30, 0, 0, time.UTC)
	msg := buildMessage("Blue Cafe <no-reply@bizsites.test>", "ana@example.com", "Booking confirmed", "line one\nline two", date, "no-reply@bizsites.test")

	head, body, ok := strings.Cut(msg, "\r\n\r\n")
	if !ok {
		t.Fatal("missing header/body separator")
	}
	for _, want := range []string{
		"From: Blue Cafe <no-reply@bizsites.test>",
		"To: ana@example.com",
		"Subject: Booking confirmed",
		"Date: Mon, 07 Jan 2030 09:30:00 +0000",
		"@bizsites.test>",
		"Content-Type: text/plain; charset=utf-8",
	} {
		if !strings.Contains(head, want) {
			t.Fatalf("headers missing %q:\n%s", want, head)
		}
	}
	if body != "line one\r\nline two\r\n" {
		t.Fatalf("body = %q", body)
	}
}

func TestBuildMessageEncodesNonASCIISubject(t *testing.T) {
	msg := buildMessage("a@b.test", "c@d.test", "Café booking", "hi", time.Now(), "a@b.test")
	if !strings.Contains(msg, "Subject: =?utf-8?q?") {
		t.Fatalf("subject not encoded:\n%s", msg)
	}
}

func TestFromHeader(t *testing.T) {
	s := NewSMTPSender(SMTPConfig{Host: "mailpit", Port: 1025, From: "no-reply@bizsites.test", FromName: "Bizsites"})
	if got := s.fromHeader(); got != "Bizsites <no-reply@bizsites.test>" {
		t.Fatalf("from = %q", got)
	}
	if s.addr != "mailpit:1025" || s.auth != nil {
		t.Fatalf("unexpected sender %+v", s)
	}
}
