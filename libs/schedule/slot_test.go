package schedule

import "testing"

func TestParseClock(t *testing.T) {
	m, err := ParseClock("09:30")
	if err != nil {
		t.Fatalf("ParseClock failed: %v", err)
	}
	if m != 570 {
		t.Fatalf("expected 570, got %d", m)
	}

	for _, bad := range []string{"", "9:30", "24:00", "09:60", "ab:cd", "09-30"} {
		if _, err := ParseClock(bad); err == nil {
			t.Fatalf("ParseClock(%q) should fail", bad)
		}
	}
}

func TestParseSlot(t *testing.T) {
	s, err := ParseSlot("09:00", "11:00")
	if err != nil {
		t.Fatalf("ParseSlot failed: %v", err)
	}
	if s.Start != 540 || s.End != 660 {
		t.Fatalf("unexpected slot %+v", s)
	}
	if s.String() != "09:00-11:00" {
		t.Fatalf("unexpected string %q", s.String())
	}

	if _, err := ParseSlot("11:00", "09:00"); err == nil {
		t.Fatal("inverted slot should fail")
	}
	if _, err := ParseSlot("09:00", "09:00"); err == nil {
		t.Fatal("zero-length slot should fail")
	}
}

func TestSlotCovers(t *testing.T) {
	outer := Slot{Start: 540, End: 720}
	if !outer.Covers(Slot{Start: 540, End: 720}) {
		t.Fatal("slot should cover itself")
	}
	if !outer.Covers(Slot{Start: 600, End: 660}) {
		t.Fatal("slot should cover inner interval")
	}
	if outer.Covers(Slot{Start: 600, End: 780}) {
		t.Fatal("slot should not cover interval extending past its end")
	}
}

func TestSlotOverlaps(t *testing.T) {
	a := Slot{Start: 540, End: 660}
	if !a.Overlaps(Slot{Start: 600, End: 720}) {
		t.Fatal("intersecting slots should overlap")
	}
	// Touching endpoints do not overlap: intervals are half-open.
	if a.Overlaps(Slot{Start: 660, End: 690}) {
		t.Fatal("touching slots should not overlap")
	}
	if a.Overlaps(Slot{Start: 480, End: 540}) {
		t.Fatal("touching slots should not overlap")
	}
	if a.Overlaps(Slot{Start: 600, End: 600}) {
		t.Fatal("degenerate slot should overlap nothing")
	}
	if (Slot{Start: 600, End: 600}).Overlaps(a) {
		t.Fatal("degenerate receiver should overlap nothing")
	}
}
