package rules

import (
	"testing"
	"time"

	"github.com/md-rashed-zaman/eventcoordinator/libs/schedule"
)

func intp(n int) *int { return &n }

func TestParseWeeklyRule(t *testing.T) {
	owner := schedule.RegisteredUser("u1")
	parsed, err := Parse(owner, []RulePayload{{
		RecurrenceType: "weekly",
		DayOfWeek:      intp(1),
		TimeSlots:      []SlotPayload{{Start: "09:00", End: "11:00"}},
	}})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(parsed) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(parsed))
	}
	r := parsed[0]
	if wd, ok := r.Recurrence.Weekday(); !ok || wd != time.Monday {
		t.Fatalf("unexpected recurrence: %+v", r.Recurrence)
	}
	if r.Confidence != schedule.Sure {
		t.Fatalf("confidence should default to sure, got %q", r.Confidence)
	}
	if len(r.Slots) != 1 || r.Slots[0].Start != 540 || r.Slots[0].End != 660 {
		t.Fatalf("unexpected slots: %v", r.Slots)
	}
}

func TestParseEmptyPayloadClearsAvailability(t *testing.T) {
	parsed, err := Parse(schedule.RegisteredUser("u1"), nil)
	if err != nil {
		t.Fatalf("empty payload should be valid: %v", err)
	}
	if len(parsed) != 0 {
		t.Fatalf("expected no rules, got %d", len(parsed))
	}
}

func TestParseEmptySlotListIsValid(t *testing.T) {
	parsed, err := Parse(schedule.AnonymousSubscriber("a1"), []RulePayload{{
		RecurrenceType: "weekly",
		DayOfWeek:      intp(3),
	}})
	if err != nil {
		t.Fatalf("rule without slots should be valid: %v", err)
	}
	if len(parsed[0].Slots) != 0 {
		t.Fatalf("expected no slots, got %v", parsed[0].Slots)
	}
}

func TestParseRejectsBadInput(t *testing.T) {
	owner := schedule.RegisteredUser("u1")
	cases := []struct {
		name string
		item RulePayload
	}{
		{"missing day_of_week", RulePayload{RecurrenceType: "weekly"}},
		{"day_of_week out of range", RulePayload{RecurrenceType: "weekly", DayOfWeek: intp(7)}},
		{"missing day_of_month", RulePayload{RecurrenceType: "monthly"}},
		{"day_of_month zero", RulePayload{RecurrenceType: "monthly", DayOfMonth: intp(0)}},
		{"missing specific_date", RulePayload{RecurrenceType: "specific_date"}},
		{"bad specific_date", RulePayload{RecurrenceType: "specific_date", SpecificDate: "05.01.2026"}},
		{"unknown recurrence", RulePayload{RecurrenceType: "daily"}},
		{"bad clock text", RulePayload{RecurrenceType: "weekly", DayOfWeek: intp(1), TimeSlots: []SlotPayload{{Start: "9am", End: "11:00"}}}},
		{"inverted slot", RulePayload{RecurrenceType: "weekly", DayOfWeek: intp(1), TimeSlots: []SlotPayload{{Start: "11:00", End: "09:00"}}}},
		{"bad confidence", RulePayload{RecurrenceType: "weekly", DayOfWeek: intp(1), Confidence: "certain"}},
	}
	for _, tc := range cases {
		if _, err := Parse(owner, []RulePayload{tc.item}); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
}

func TestParseRejectsMissingOwner(t *testing.T) {
	if _, err := Parse(schedule.Subscriber{}, nil); err == nil {
		t.Fatal("zero owner should be rejected")
	}
}
