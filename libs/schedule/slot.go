package schedule

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const minutesPerDay = 24 * 60

// Slot is a half-open time-of-day interval [Start, End) in minutes since
// midnight. Times never cross midnight; End is at most 24:00.
type Slot struct {
	Start int
	End   int
}

var errBadClock = errors.New("time must be HH:MM")

// ParseClock parses "HH:MM" into minutes since midnight.
func ParseClock(s string) (int, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || len(hh) != 2 || len(mm) != 2 {
		return 0, fmt.Errorf("%q: %w", s, errBadClock)
	}
	h, err := strconv.Atoi(hh)
	if err != nil {
		return 0, fmt.Errorf("%q: %w", s, errBadClock)
	}
	m, err := strconv.Atoi(mm)
	if err != nil {
		return 0, fmt.Errorf("%q: %w", s, errBadClock)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("%q: %w", s, errBadClock)
	}
	return h*60 + m, nil
}

// ParseSlot parses a "HH:MM" pair into a Slot. Malformed text or
// start >= end is a data-integrity error; callers at the write boundary
// reject it, callers at the read boundary skip the slot.
func ParseSlot(start, end string) (Slot, error) {
	s, err := ParseClock(start)
	if err != nil {
		return Slot{}, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return Slot{}, err
	}
	if s >= e {
		return Slot{}, fmt.Errorf("slot %s-%s: start must be before end", start, end)
	}
	return Slot{Start: s, End: e}, nil
}

func (s Slot) Valid() bool {
	return s.Start >= 0 && s.End <= minutesPerDay && s.Start < s.End
}

// Covers reports whether s fully contains inner.
func (s Slot) Covers(inner Slot) bool {
	return s.Start <= inner.Start && s.End >= inner.End
}

// Overlaps reports strict half-open overlap: touching endpoints do not
// overlap, and degenerate intervals overlap nothing.
func (s Slot) Overlaps(o Slot) bool {
	return s.Start < s.End && o.Start < o.End && s.Start < o.End && o.Start < s.End
}

// String renders the slot as "HH:MM-HH:MM".
func (s Slot) String() string {
	return FormatClock(s.Start) + "-" + FormatClock(s.End)
}

// FormatClock renders minutes since midnight as "HH:MM".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
