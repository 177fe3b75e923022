package eligibility

import (
	"errors"
	"testing"
	"time"

	"github.com/md-rashed-zaman/eventcoordinator/libs/schedule"
)

// 2026-01-05 is a Monday.
func mondayEvent(startHour, endHour int) schedule.Event {
	return schedule.Event{
		Start: time.Date(2026, 1, 5, startHour, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 1, 5, endHour, 0, 0, 0, time.UTC),
	}
}

func mondayRules() []schedule.Rule {
	return []schedule.Rule{{
		Owner:      schedule.RegisteredUser("alice"),
		Recurrence: schedule.Weekly(time.Monday),
		Slots:      []schedule.Slot{{Start: 540, End: 720}},
	}}
}

func TestForCreationPreferenceAll(t *testing.T) {
	d := ForCreation("all", nil, nil, mondayEvent(9, 10))
	if !d.Notify || d.Reason != ReasonPreferenceAll {
		t.Fatalf("unexpected decision: %+v", d)
	}
}

func TestForCreationMatching(t *testing.T) {
	d := ForCreation("matching", mondayRules(), nil, mondayEvent(9, 10))
	if !d.Notify || d.Reason != ReasonMatch {
		t.Fatalf("overlapping event should notify: %+v", d)
	}

	d = ForCreation("matching", mondayRules(), nil, mondayEvent(14, 15))
	if d.Notify || d.Reason != ReasonNoMatch {
		t.Fatalf("non-overlapping event should skip: %+v", d)
	}
}

func TestForCreationFallsBackWhenRulesUnavailable(t *testing.T) {
	d := ForCreation("matching", nil, errors.New("db down"), mondayEvent(9, 10))
	if !d.Notify || d.Reason != ReasonRulesUnavailable {
		t.Fatalf("rule load failure should fall back to notify: %+v", d)
	}
}

func TestForCreationNoRulesMeansNoMatch(t *testing.T) {
	d := ForCreation("matching", nil, nil, mondayEvent(9, 10))
	if d.Notify {
		t.Fatalf("subscriber with no rules should not match: %+v", d)
	}
}

func TestForDeletionAlwaysNotifies(t *testing.T) {
	d := ForDeletion()
	if !d.Notify || d.Reason != ReasonCancelled {
		t.Fatalf("unexpected decision: %+v", d)
	}
}
