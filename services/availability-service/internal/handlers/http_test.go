package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/md-rashed-zaman/eventcoordinator/libs/schedule"
	"github.com/md-rashed-zaman/eventcoordinator/services/availability-service/internal/storage"
)

type fakeRuleStore struct {
	replaceCalls   int
	organizationID string
	owner          schedule.Subscriber
	replaced       []schedule.Rule
	stored         []storage.StoredRule
}

func (f *fakeRuleStore) ReplaceForOwner(_ context.Context, organizationID string, owner schedule.Subscriber, rules []schedule.Rule) error {
	f.replaceCalls++
	f.organizationID = organizationID
	f.owner = owner
	f.replaced = rules
	return nil
}

func (f *fakeRuleStore) ListForOwner(context.Context, string, schedule.Subscriber) ([]storage.StoredRule, error) {
	return f.stored, nil
}

func (f *fakeRuleStore) ListByOrganization(context.Context, string) ([]schedule.Rule, error) {
	return nil, nil
}

func put(body string) *http.Request {
	r := httptest.NewRequest("PUT", "/api/v1/availability", strings.NewReader(body))
	r.Header.Set("X-Organization-Id", "org-1")
	r.Header.Set("X-User-Id", "user-1")
	return r
}

func TestUpdateAvailabilityEmptyListClears(t *testing.T) {
	store := &fakeRuleStore{}
	h := New(nil, nil, store, slog.Default())

	w := httptest.NewRecorder()
	h.UpdateAvailability(w, put(`{"rules": []}`))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if store.replaceCalls != 1 {
		t.Fatalf("expected one replace call, got %d", store.replaceCalls)
	}
	if len(store.replaced) != 0 {
		t.Fatalf("expected all rules cleared, got %d", len(store.replaced))
	}
	if store.organizationID != "org-1" {
		t.Fatalf("unexpected organization: %q", store.organizationID)
	}
	if store.owner != schedule.RegisteredUser("user-1") {
		t.Fatalf("unexpected owner: %v", store.owner)
	}

	var resp struct {
		RulesStored int `json:"rules_stored"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.RulesStored != 0 {
		t.Fatalf("expected rules_stored 0, got %d", resp.RulesStored)
	}
}

func TestUpdateAvailabilityStoresParsedRules(t *testing.T) {
	store := &fakeRuleStore{}
	h := New(nil, nil, store, slog.Default())

	body := `{"rules": [{"recurrence_type": "weekly", "day_of_week": 0, "time_slots": [{"start": "09:00", "end": "10:00"}], "confidence": "maybe"}]}`
	w := httptest.NewRecorder()
	h.UpdateAvailability(w, put(body))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if len(store.replaced) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(store.replaced))
	}
	rule := store.replaced[0]
	if rule.Owner != schedule.RegisteredUser("user-1") {
		t.Fatalf("unexpected owner: %v", rule.Owner)
	}
	if rule.Confidence != schedule.Maybe {
		t.Fatalf("unexpected confidence: %v", rule.Confidence)
	}
	if len(rule.Slots) != 1 || rule.Slots[0] != (schedule.Slot{Start: 540, End: 600}) {
		t.Fatalf("unexpected slots: %v", rule.Slots)
	}
}

func TestUpdateAvailabilityRejectsInvalidRules(t *testing.T) {
	store := &fakeRuleStore{}
	h := New(nil, nil, store, slog.Default())

	body := `{"rules": [{"recurrence_type": "weekly", "day_of_week": 0, "time_slots": [{"start": "10:00", "end": "09:00"}]}]}`
	w := httptest.NewRecorder()
	h.UpdateAvailability(w, put(body))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if store.replaceCalls != 0 {
		t.Fatalf("rejected payload must not reach storage, got %d calls", store.replaceCalls)
	}
}

func TestGetAvailabilityReturnsEmptyList(t *testing.T) {
	store := &fakeRuleStore{}
	h := New(nil, nil, store, slog.Default())

	r := httptest.NewRequest("GET", "/api/v1/availability", nil)
	r.Header.Set("X-Organization-Id", "org-1")
	r.Header.Set("X-User-Id", "user-1")
	w := httptest.NewRecorder()
	h.GetAvailability(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"rules":[]`) {
		t.Fatalf("expected empty rules list, got %s", w.Body.String())
	}
}
