package handlers

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestHandler() *EventHandler {
	// Validation rejects these requests before any storage access.
	return NewEventHandler(nil, nil, slog.Default())
}

func TestCreateRejectsMissingOrganization(t *testing.T) {
	h := newTestHandler()
	r := httptest.NewRequest("POST", "/api/v1/events", strings.NewReader(`{}`))
	w := httptest.NewRecorder()
	h.Create(w, r)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestCreateRejectsBadTimes(t *testing.T) {
	h := newTestHandler()
	cases := []struct {
		name string
		body string
	}{
		{"missing title", `{"start_time":"2026-01-05T09:00:00Z","end_time":"2026-01-05T10:00:00Z"}`},
		{"bad start", `{"title":"standup","start_time":"tomorrow","end_time":"2026-01-05T10:00:00Z"}`},
		{"bad end", `{"title":"standup","start_time":"2026-01-05T09:00:00Z","end_time":"later"}`},
		{"end equals start", `{"title":"standup","start_time":"2026-01-05T09:00:00Z","end_time":"2026-01-05T09:00:00Z"}`},
		{"end before start", `{"title":"standup","start_time":"2026-01-05T10:00:00Z","end_time":"2026-01-05T09:00:00Z"}`},
		{"not json", `nope`},
	}
	for _, tc := range cases {
		r := httptest.NewRequest("POST", "/api/v1/events", strings.NewReader(tc.body))
		r.Header.Set("X-Organization-Id", "org-1")
		w := httptest.NewRecorder()
		h.Create(w, r)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", tc.name, w.Code)
		}
	}
}

func TestDeleteRequiresID(t *testing.T) {
	h := newTestHandler()
	r := httptest.NewRequest("DELETE", "/api/v1/events", nil)
	r.Header.Set("X-Organization-Id", "org-1")
	w := httptest.NewRecorder()
	h.Delete(w, r)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}
