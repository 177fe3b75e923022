package main

import (
	"strings"
	"testing"
	"time"

	"github.com/md-rashed-zaman/eventcoordinator/services/notification-service/internal/storage"
)

func TestComposeCreated(t *testing.T) {
	n := eventNotice{
		Title:       "Planning session",
		Location:    "Room 4",
		Description: "Bring proposals.",
	}
	start := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	end := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)

	subject, body := composeCreated("Chess Club", n, start, end)
	if subject != "New event: Planning session" {
		t.Fatalf("unexpected subject: %q", subject)
	}
	for _, want := range []string{"Chess Club", "Monday, Jan 05, 2026", "09:00", "10:00", "Room 4", "Bring proposals."} {
		if !strings.Contains(body, want) {
			t.Fatalf("body missing %q: %q", want, body)
		}
	}
}

func TestComposeDeleted(t *testing.T) {
	n := eventNotice{Title: "Planning session"}
	start := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)

	subject, body := composeDeleted("Chess Club", n, start)
	if subject != "Event cancelled: Planning session" {
		t.Fatalf("unexpected subject: %q", subject)
	}
	if !strings.Contains(body, "Monday, Jan 05, 2026") || !strings.Contains(body, "cancelled") {
		t.Fatalf("unexpected body: %q", body)
	}
}

func TestContactFor(t *testing.T) {
	rec := storage.Recipient{
		Email:          "alice@example.com",
		PhoneNumber:    "+15550001111",
		WhatsAppNumber: "+15550002222",
	}
	if got := contactFor("email", rec); got != "alice@example.com" {
		t.Fatalf("email contact: %q", got)
	}
	if got := contactFor("sms", rec); got != "+15550001111" {
		t.Fatalf("sms contact: %q", got)
	}
	if got := contactFor("whatsapp", rec); got != "+15550002222" {
		t.Fatalf("whatsapp contact: %q", got)
	}
	rec.WhatsAppNumber = ""
	if got := contactFor("whatsapp", rec); got != "+15550001111" {
		t.Fatalf("whatsapp should fall back to phone: %q", got)
	}
	if got := contactFor("email", storage.Recipient{}); got != "" {
		t.Fatalf("missing contact should be empty: %q", got)
	}
}
