package handlers

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/md-rashed-zaman/eventcoordinator/libs/schedule"
	"github.com/md-rashed-zaman/eventcoordinator/services/availability-service/internal/storage"
)

func TestRangeParamsExplicit(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/v1/analytics?start=2026-01-05&end=2026-01-11&limit=3", nil)
	from, to, limit, err := rangeParams(r)
	if err != nil {
		t.Fatalf("rangeParams failed: %v", err)
	}
	if !from.Equal(time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected from: %v", from)
	}
	if !to.Equal(time.Date(2026, 1, 11, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected to: %v", to)
	}
	if limit != 3 {
		t.Fatalf("unexpected limit: %d", limit)
	}
}

func TestRangeParamsDefaults(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/v1/analytics", nil)
	from, to, limit, err := rangeParams(r)
	if err != nil {
		t.Fatalf("rangeParams failed: %v", err)
	}
	if got := int(to.Sub(from).Hours()/24) + 1; got != defaultRangeDays {
		t.Fatalf("default range should span %d days, got %d", defaultRangeDays, got)
	}
	if limit != defaultSlotLimit {
		t.Fatalf("unexpected default limit: %d", limit)
	}
}

func TestRangeParamsRejectsBadInput(t *testing.T) {
	for _, target := range []string{
		"/x?start=05-01-2026",
		"/x?start=2026-01-10&end=2026-01-05",
		"/x?start=2026-01-01&end=2026-12-31",
		"/x?limit=0",
		"/x?limit=500",
		"/x?limit=ten",
	} {
		r := httptest.NewRequest("GET", target, nil)
		if _, _, _, err := rangeParams(r); err == nil {
			t.Fatalf("%s: expected error", target)
		}
	}
}

func TestParseWindow(t *testing.T) {
	slot, err := parseWindow("09:00-10:30")
	if err != nil {
		t.Fatalf("parseWindow failed: %v", err)
	}
	if slot.Start != 540 || slot.End != 630 {
		t.Fatalf("unexpected slot: %+v", slot)
	}
	for _, bad := range []string{"", "09:00", "10:00-09:00", "9am-10am"} {
		if _, err := parseWindow(bad); err == nil {
			t.Fatalf("%q: expected error", bad)
		}
	}
}

func TestCoveringSubscribersRequiresFullCoverage(t *testing.T) {
	monday := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	alice := schedule.RegisteredUser("alice")
	bob := schedule.RegisteredUser("bob")
	orgRules := []schedule.Rule{
		{Owner: alice, Recurrence: schedule.Weekly(time.Monday), Slots: []schedule.Slot{{Start: 540, End: 720}}},
		{Owner: bob, Recurrence: schedule.Weekly(time.Monday), Slots: []schedule.Slot{{Start: 600, End: 720}}, Confidence: schedule.Maybe},
	}

	sure, maybe := coveringSubscribers(orgRules, monday, schedule.Slot{Start: 540, End: 600})
	if len(sure) != 1 || sure[0].Key() != alice.Key() {
		t.Fatalf("unexpected sure set: %v", sure)
	}
	if len(maybe) != 0 {
		t.Fatalf("partial coverage should not count: %v", maybe)
	}

	sure, maybe = coveringSubscribers(orgRules, monday, schedule.Slot{Start: 600, End: 660})
	if len(sure) != 1 || len(maybe) != 1 {
		t.Fatalf("expected one sure and one maybe, got %v / %v", sure, maybe)
	}
}

func TestCoveringSubscribersPrefersSure(t *testing.T) {
	monday := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	alice := schedule.RegisteredUser("alice")
	orgRules := []schedule.Rule{
		{Owner: alice, Recurrence: schedule.Weekly(time.Monday), Slots: []schedule.Slot{{Start: 540, End: 720}}, Confidence: schedule.Maybe},
		{Owner: alice, Recurrence: schedule.Weekly(time.Monday), Slots: []schedule.Slot{{Start: 540, End: 720}}, Confidence: schedule.Sure},
	}

	sure, maybe := coveringSubscribers(orgRules, monday, schedule.Slot{Start: 600, End: 660})
	if len(sure) != 1 || len(maybe) != 0 {
		t.Fatalf("subscriber with sure and maybe rules should count once as sure: %v / %v", sure, maybe)
	}
}

func TestCoveringSubscribersIgnoresOtherDays(t *testing.T) {
	tuesday := time.Date(2026, 1, 6, 0, 0, 0, 0, time.UTC)
	orgRules := []schedule.Rule{
		{Owner: schedule.RegisteredUser("alice"), Recurrence: schedule.Weekly(time.Monday), Slots: []schedule.Slot{{Start: 540, End: 720}}},
	}
	sure, maybe := coveringSubscribers(orgRules, tuesday, schedule.Slot{Start: 600, End: 660})
	if len(sure) != 0 || len(maybe) != 0 {
		t.Fatalf("rule on another weekday should not count: %v / %v", sure, maybe)
	}
}

func TestSubscriberJSONFallsBackToKey(t *testing.T) {
	identities := map[string]storage.Identity{
		schedule.RegisteredUser("alice").Key(): {Name: "Alice", Email: "alice@example.com"},
	}

	m := subscriberJSON(schedule.RegisteredUser("alice"), identities)
	if m.Name != "Alice" || m.Email != "alice@example.com" {
		t.Fatalf("unexpected member: %+v", m)
	}

	m = subscriberJSON(schedule.AnonymousSubscriber("ghost"), identities)
	if m.Key == "" || m.Name != "" {
		t.Fatalf("unknown subscriber should keep key only: %+v", m)
	}
}
