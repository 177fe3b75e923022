package schedule

import "time"

// Report is the full availability analytics for one organization over a
// date window: ranked candidate slots, the deduplicated weekly summary and
// the number of distinct subscribers contributing availability in range.
type Report struct {
	Slots            []CandidateSlot
	Weekly           map[time.Weekday]WeeklyBucket
	TotalSubscribers int
}

// Analytics runs the whole pipeline over a snapshot of rules. It is a pure
// function of (rules, date range, limit); no data ends up mutated and no
// empty state is an error: with no rules, no slots or an inverted range it
// returns empty collections and a zero count.
func Analytics(rules []Rule, from, to time.Time, limit int) Report {
	windows := Decompose(rules, from, to)
	return Report{
		Slots:            Rank(windows, limit),
		Weekly:           WeeklySummary(rules),
		TotalSubscribers: countContributors(rules, from, to),
	}
}

// countContributors counts distinct subscribers owning at least one rule
// with a usable slot that applies somewhere in the range.
func countContributors(rules []Rule, from, to time.Time) int {
	from, to = DateOf(from), DateOf(to)
	if to.Before(from) {
		return 0
	}
	keys := map[string]struct{}{}
	for _, r := range rules {
		if r.Owner.IsZero() || !hasValidSlot(r.Slots) {
			continue
		}
		if len(r.Recurrence.Expand(from, to)) == 0 {
			continue
		}
		keys[r.Owner.Key()] = struct{}{}
	}
	return len(keys)
}
