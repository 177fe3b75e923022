package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRespondRejectsMissingOrganization(t *testing.T) {
	h := newTestHandler()
	r := httptest.NewRequest("POST", "/api/v1/events/responses", strings.NewReader(`{}`))
	w := httptest.NewRecorder()
	h.Respond(w, r)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestRespondRejectsBadPayload(t *testing.T) {
	h := newTestHandler()
	cases := []struct {
		name string
		body string
	}{
		{"not json", `nope`},
		{"missing event_id", `{"response":"yes"}`},
		{"missing response", `{"event_id":"ev-1"}`},
		{"unknown response", `{"event_id":"ev-1","response":"perhaps"}`},
	}
	for _, tc := range cases {
		r := httptest.NewRequest("POST", "/api/v1/events/responses", strings.NewReader(tc.body))
		r.Header.Set("X-Organization-Id", "org-1")
		w := httptest.NewRecorder()
		h.Respond(w, r)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", tc.name, w.Code)
		}
	}
}

func TestRespondRequiresIdentity(t *testing.T) {
	h := newTestHandler()
	r := httptest.NewRequest("POST", "/api/v1/events/responses", strings.NewReader(`{"event_id":"ev-1","response":"maybe"}`))
	r.Header.Set("X-Organization-Id", "org-1")
	w := httptest.NewRecorder()
	h.Respond(w, r)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestRespondAnonymousRequiresManageToken(t *testing.T) {
	h := newTestHandler()
	r := httptest.NewRequest("POST", "/api/v1/events/responses", strings.NewReader(`{"event_id":"ev-1","response":"no"}`))
	r.Header.Set("X-Organization-Id", "org-1")
	r.Header.Set("X-Anonymous-Id", "f6f1b1a0-3c1c-4d43-9a51-0a4f2f6f3f10")
	w := httptest.NewRecorder()
	h.Respond(w, r)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}
