package schedule

import (
	"sort"
	"time"
)

// Window is one atomic interval on one date together with the subscribers
// whose declared slots fully cover it. Within a window the covering set is
// constant; adjacent windows on the same date differ in coverage.
type Window struct {
	Date  time.Time
	Slot  Slot
	Sure  []Subscriber
	Maybe []Subscriber
}

func (w Window) Empty() bool {
	return len(w.Sure) == 0 && len(w.Maybe) == 0
}

type ownedSlot struct {
	owner      Subscriber
	slot       Slot
	confidence Confidence
}

// Decompose computes, for every date in [from, to], the finest-grained
// partition of the day induced by all applicable slot edges, and credits
// each atomic interval with the subscribers whose slots contain it
// entirely. Each subscriber is credited at most once per interval even
// when several rules or slots cover it. Intervals nobody covers are
// dropped. The result is ordered by date, then interval start, so equal
// inputs always produce equal output.
//
// Invalid slots (start >= end or out of day range) are skipped; the read
// boundary is responsible for warning about them. One bad record never
// aborts the whole decomposition.
func Decompose(rules []Rule, from, to time.Time) []Window {
	from, to = DateOf(from), DateOf(to)
	if to.Before(from) {
		return nil
	}

	byDate := map[time.Time][]ownedSlot{}
	for _, r := range rules {
		if r.Owner.IsZero() || len(r.Slots) == 0 {
			continue
		}
		conf := r.Confidence
		if conf == "" {
			conf = Sure
		}
		for _, date := range r.Recurrence.Expand(from, to) {
			for _, s := range r.Slots {
				if !s.Valid() {
					continue
				}
				byDate[date] = append(byDate[date], ownedSlot{owner: r.Owner, slot: s, confidence: conf})
			}
		}
	}

	dates := make([]time.Time, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	var windows []Window
	for _, date := range dates {
		windows = append(windows, sweepDate(date, byDate[date])...)
	}
	return windows
}

// sweepDate runs the boundary sweep for a single date: collect every slot
// edge, walk consecutive boundary pairs and test full containment for each.
func sweepDate(date time.Time, slots []ownedSlot) []Window {
	edges := map[int]struct{}{}
	for _, os := range slots {
		edges[os.slot.Start] = struct{}{}
		edges[os.slot.End] = struct{}{}
	}
	boundaries := make([]int, 0, len(edges))
	for b := range edges {
		boundaries = append(boundaries, b)
	}
	sort.Ints(boundaries)

	var windows []Window
	for i := 0; i+1 < len(boundaries); i++ {
		atomic := Slot{Start: boundaries[i], End: boundaries[i+1]}
		w := Window{Date: date, Slot: atomic}
		seen := map[string]struct{}{}
		for _, os := range slots {
			if !os.slot.Covers(atomic) {
				continue
			}
			key := os.owner.Key()
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			if os.confidence == Maybe {
				w.Maybe = append(w.Maybe, os.owner)
			} else {
				w.Sure = append(w.Sure, os.owner)
			}
		}
		if !w.Empty() {
			windows = append(windows, w)
		}
	}
	return windows
}
