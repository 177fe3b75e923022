package schedule

import (
	"reflect"
	"testing"
	"time"
)

func TestDecomposeOverlappingSubscribers(t *testing.T) {
	a := RegisteredUser("a")
	b := AnonymousSubscriber("b")
	rules := []Rule{
		{Owner: a, Recurrence: Weekly(time.Monday), Slots: []Slot{{Start: 540, End: 720}}, Confidence: Sure},  // 09:00-12:00
		{Owner: b, Recurrence: Weekly(time.Monday), Slots: []Slot{{Start: 600, End: 840}}, Confidence: Maybe}, // 10:00-14:00
	}

	// Range contains exactly one Monday.
	windows := Decompose(rules, date(2026, time.January, 5), date(2026, time.January, 5))
	if len(windows) != 3 {
		t.Fatalf("expected 3 atomic intervals, got %d: %v", len(windows), windows)
	}

	checkWindow := func(w Window, start, end int, sure, maybe []Subscriber) {
		t.Helper()
		if w.Slot.Start != start || w.Slot.End != end {
			t.Fatalf("expected %s-%s, got %s", FormatClock(start), FormatClock(end), w.Slot)
		}
		if !reflect.DeepEqual(w.Sure, sure) {
			t.Fatalf("window %s: unexpected sure list %v", w.Slot, w.Sure)
		}
		if !reflect.DeepEqual(w.Maybe, maybe) {
			t.Fatalf("window %s: unexpected maybe list %v", w.Slot, w.Maybe)
		}
	}

	checkWindow(windows[0], 540, 600, []Subscriber{a}, nil)
	checkWindow(windows[1], 600, 720, []Subscriber{a}, []Subscriber{b})
	checkWindow(windows[2], 720, 840, nil, []Subscriber{b})
}

func TestDecomposeDeduplicatesSubscriber(t *testing.T) {
	a := RegisteredUser("a")
	rules := []Rule{
		{Owner: a, Recurrence: Weekly(time.Monday), Slots: []Slot{{Start: 540, End: 660}}},
		{Owner: a, Recurrence: OnDate(date(2026, time.January, 5)), Slots: []Slot{{Start: 540, End: 660}}},
	}

	windows := Decompose(rules, date(2026, time.January, 5), date(2026, time.January, 5))
	if len(windows) != 1 {
		t.Fatalf("expected 1 window, got %d", len(windows))
	}
	if len(windows[0].Sure) != 1 {
		t.Fatalf("subscriber credited more than once: %v", windows[0].Sure)
	}
}

func TestDecomposeMaximality(t *testing.T) {
	// Two identical slots from different subscribers produce one window,
	// not a split; adjacent windows always differ in coverage.
	rules := []Rule{
		{Owner: RegisteredUser("a"), Recurrence: Weekly(time.Monday), Slots: []Slot{{Start: 540, End: 660}}},
		{Owner: RegisteredUser("b"), Recurrence: Weekly(time.Monday), Slots: []Slot{{Start: 540, End: 660}}},
	}
	windows := Decompose(rules, date(2026, time.January, 5), date(2026, time.January, 5))
	if len(windows) != 1 {
		t.Fatalf("expected 1 maximal window, got %d", len(windows))
	}
	if len(windows[0].Sure) != 2 {
		t.Fatalf("expected both subscribers credited, got %v", windows[0].Sure)
	}
}

func TestDecomposeKeepsContiguousSlotsSeparate(t *testing.T) {
	// One subscriber declaring back-to-back slots contributes a boundary at
	// the join, so the sweep emits two adjacent windows with identical
	// coverage. The split is harmless for ranking and matches how declared
	// edges always become interval boundaries.
	rules := []Rule{
		{Owner: RegisteredUser("a"), Recurrence: Weekly(time.Monday), Slots: []Slot{
			{Start: 540, End: 600},
			{Start: 600, End: 660},
		}},
	}
	windows := Decompose(rules, date(2026, time.January, 5), date(2026, time.January, 5))
	if len(windows) != 2 {
		t.Fatalf("expected 2 windows split at the declared edge, got %d: %v", len(windows), windows)
	}
	if windows[0].Slot != (Slot{Start: 540, End: 600}) || windows[1].Slot != (Slot{Start: 600, End: 660}) {
		t.Fatalf("unexpected window bounds: %v, %v", windows[0].Slot, windows[1].Slot)
	}
	for _, w := range windows {
		if len(w.Sure) != 1 || w.Sure[0].ID() != "a" {
			t.Fatalf("window %s: unexpected coverage %v", w.Slot, w.Sure)
		}
	}
}

func TestDecomposeSkipsInvalidSlots(t *testing.T) {
	rules := []Rule{
		{Owner: RegisteredUser("a"), Recurrence: Weekly(time.Monday), Slots: []Slot{{Start: 660, End: 540}}},
		{Owner: RegisteredUser("b"), Recurrence: Weekly(time.Monday), Slots: []Slot{{Start: 540, End: 660}}},
	}
	windows := Decompose(rules, date(2026, time.January, 5), date(2026, time.January, 5))
	if len(windows) != 1 {
		t.Fatalf("expected the bad slot to be skipped, got %d windows", len(windows))
	}
	if len(windows[0].Sure) != 1 || windows[0].Sure[0].ID() != "b" {
		t.Fatalf("unexpected coverage: %v", windows[0].Sure)
	}
}

func TestDecomposeEmptyInputs(t *testing.T) {
	if w := Decompose(nil, date(2026, time.January, 1), date(2026, time.January, 31)); len(w) != 0 {
		t.Fatalf("expected no windows for no rules, got %v", w)
	}
	rules := []Rule{{Owner: RegisteredUser("a"), Recurrence: Weekly(time.Monday), Slots: []Slot{{Start: 540, End: 660}}}}
	if w := Decompose(rules, date(2026, time.January, 31), date(2026, time.January, 1)); len(w) != 0 {
		t.Fatalf("expected no windows for inverted range, got %v", w)
	}
}

func TestDecomposeDeterministic(t *testing.T) {
	rules := []Rule{
		{Owner: RegisteredUser("a"), Recurrence: Weekly(time.Monday), Slots: []Slot{{Start: 540, End: 720}}},
		{Owner: AnonymousSubscriber("b"), Recurrence: Weekly(time.Wednesday), Slots: []Slot{{Start: 600, End: 840}}, Confidence: Maybe},
		{Owner: RegisteredUser("c"), Recurrence: Monthly(7), Slots: []Slot{{Start: 480, End: 570}}},
	}
	first := Decompose(rules, date(2026, time.January, 1), date(2026, time.January, 31))
	second := Decompose(rules, date(2026, time.January, 1), date(2026, time.January, 31))
	if !reflect.DeepEqual(first, second) {
		t.Fatal("decomposition must be deterministic")
	}
	for i := 1; i < len(first); i++ {
		prev, cur := first[i-1], first[i]
		if cur.Date.Before(prev.Date) {
			t.Fatal("windows out of date order")
		}
		if cur.Date.Equal(prev.Date) && cur.Slot.Start < prev.Slot.Start {
			t.Fatal("windows out of time order")
		}
	}
}
