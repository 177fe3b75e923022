package schedule

import "time"

// Rule is one availability declaration by a subscriber for an organization:
// a recurrence, an ordered list of time slots and a confidence. An empty
// slot list is a valid state meaning "no availability" (used to clear
// declared hours); such a rule never contributes to matches.
type Rule struct {
	Owner      Subscriber
	Recurrence Recurrence
	Slots      []Slot
	Confidence Confidence
}

// Event is a proposed happening with naive local timestamps, half-open
// [Start, End).
type Event struct {
	Start time.Time
	End   time.Time
}

// Matches reports whether any of the subscriber's rules covers the event:
// the rule's recurrence must fall on the event's start date and the event's
// time-of-day span must strictly overlap at least one slot. Zero rules or
// all-empty slot lists mean false. Pure and allocation-free; it is called
// once per (subscriber, event) by notification eligibility.
func Matches(rules []Rule, ev Event) bool {
	if !ev.End.After(ev.Start) {
		return false
	}
	span := Slot{Start: minuteOfDay(ev.Start), End: minuteOfDay(ev.End)}
	if span.Start >= span.End {
		// Degenerate or midnight-crossing time-of-day span; strict overlap
		// can never credit it.
		return false
	}
	date := DateOf(ev.Start)
	for _, r := range rules {
		if !r.Recurrence.AppliesOn(date) {
			continue
		}
		for _, s := range r.Slots {
			if s.Valid() && s.Overlaps(span) {
				return true
			}
		}
	}
	return false
}
