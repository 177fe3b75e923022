package schedule

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestWeeklyExpand(t *testing.T) {
	r := Weekly(time.Monday)
	dates := r.Expand(date(2026, time.January, 1), date(2026, time.January, 31))
	if len(dates) != 4 {
		t.Fatalf("expected 4 Mondays in Jan 2026, got %d", len(dates))
	}
	want := []int{5, 12, 19, 26}
	for i, d := range dates {
		if d.Day() != want[i] {
			t.Fatalf("expected day %d, got %d", want[i], d.Day())
		}
		if d.Weekday() != time.Monday {
			t.Fatalf("expected Monday, got %s", d.Weekday())
		}
	}
}

func TestMonthlyExpandNoClamping(t *testing.T) {
	r := Monthly(31)
	dates := r.Expand(date(2026, time.January, 1), date(2026, time.April, 30))
	// Jan 31 and Mar 31 exist; February and April never reach day 31.
	if len(dates) != 2 {
		t.Fatalf("expected 2 dates, got %d", len(dates))
	}
	if dates[0].Month() != time.January || dates[1].Month() != time.March {
		t.Fatalf("unexpected months: %v", dates)
	}
}

func TestSpecificDateExpand(t *testing.T) {
	target := date(2026, time.February, 14)
	r := OnDate(target)

	dates := r.Expand(date(2026, time.February, 1), date(2026, time.February, 28))
	if len(dates) != 1 || !dates[0].Equal(target) {
		t.Fatalf("expected exactly the target date, got %v", dates)
	}

	// Out of range is an empty result, not a failure.
	if dates := r.Expand(date(2026, time.March, 1), date(2026, time.March, 31)); len(dates) != 0 {
		t.Fatalf("expected no dates, got %v", dates)
	}
}

func TestExpandInvertedRange(t *testing.T) {
	r := Weekly(time.Monday)
	if dates := r.Expand(date(2026, time.January, 31), date(2026, time.January, 1)); len(dates) != 0 {
		t.Fatalf("expected no dates for inverted range, got %v", dates)
	}
}

func TestAppliesOnIgnoresTimeOfDay(t *testing.T) {
	r := OnDate(date(2026, time.February, 14))
	at := time.Date(2026, time.February, 14, 18, 30, 0, 0, time.UTC)
	if !r.AppliesOn(at) {
		t.Fatal("AppliesOn should truncate to the calendar date")
	}
}
