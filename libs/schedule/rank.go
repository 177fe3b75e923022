package schedule

import (
	"sort"
	"time"
)

// CandidateSlot is a ranked (date, atomic interval) pair suggested as a
// good time to schedule an event. Derived and ephemeral; recomputed on
// every query.
type CandidateSlot struct {
	Date       time.Time
	Slot       Slot
	Weekday    string
	Display    string
	Score      int
	SureCount  int
	MaybeCount int
	Sure       []Subscriber
	Maybe      []Subscriber
}

// ScoreFunc turns sure/maybe counts into a ranking score. Implementations
// must be monotonically increasing in both arguments.
type ScoreFunc func(sure, maybe int) int

// WeightedScore is the default scoring: a definite subscriber counts double
// a tentative one.
func WeightedScore(sure, maybe int) int {
	return 2*sure + maybe
}

// Rank orders decomposed windows by WeightedScore, best first, and keeps at
// most limit entries.
func Rank(windows []Window, limit int) []CandidateSlot {
	return RankBy(windows, limit, WeightedScore)
}

// RankBy ranks with a caller-supplied score. Ties are broken by earliest
// date, then earliest start, so the ordering is deterministic. limit <= 0
// yields an empty result rather than an error.
func RankBy(windows []Window, limit int, score ScoreFunc) []CandidateSlot {
	if limit <= 0 || len(windows) == 0 {
		return nil
	}
	if score == nil {
		score = WeightedScore
	}

	slots := make([]CandidateSlot, 0, len(windows))
	for _, w := range windows {
		if w.Empty() {
			continue
		}
		slots = append(slots, CandidateSlot{
			Date:       w.Date,
			Slot:       w.Slot,
			Weekday:    w.Date.Weekday().String(),
			Display:    displayString(w),
			Score:      score(len(w.Sure), len(w.Maybe)),
			SureCount:  len(w.Sure),
			MaybeCount: len(w.Maybe),
			Sure:       w.Sure,
			Maybe:      w.Maybe,
		})
	}

	sort.Slice(slots, func(i, j int) bool {
		if slots[i].Score != slots[j].Score {
			return slots[i].Score > slots[j].Score
		}
		if !slots[i].Date.Equal(slots[j].Date) {
			return slots[i].Date.Before(slots[j].Date)
		}
		return slots[i].Slot.Start < slots[j].Slot.Start
	})

	if len(slots) > limit {
		slots = slots[:limit]
	}
	return slots
}

func displayString(w Window) string {
	return w.Date.Weekday().String() + ", " + w.Date.Format("Jan 02, 2006") + " at " + w.Slot.String()
}
