package schedule

import "time"

// WeeklyMember is one distinct subscriber counted in a weekday bucket.
type WeeklyMember struct {
	Subscriber Subscriber
	Confidence Confidence
}

// WeeklyBucket aggregates the distinct subscribers with weekly availability
// on one weekday, regardless of hours.
type WeeklyBucket struct {
	SureCount  int
	MaybeCount int
	Members    []WeeklyMember
}

// WeeklySummary answers "which weekdays are broadly good" independent of any
// date window. Only Weekly recurrences participate; Monthly and
// specific-date rules are deliberately out of scope here. Subscribers are
// deduplicated by identity per weekday (the first rule encountered decides
// the confidence), and all seven weekdays are present in the result.
func WeeklySummary(rules []Rule) map[time.Weekday]WeeklyBucket {
	summary := make(map[time.Weekday]WeeklyBucket, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		summary[d] = WeeklyBucket{}
	}

	seen := map[time.Weekday]map[string]struct{}{}
	for _, r := range rules {
		weekday, ok := r.Recurrence.Weekday()
		if !ok || r.Owner.IsZero() {
			continue
		}
		if !hasValidSlot(r.Slots) {
			continue
		}
		if seen[weekday] == nil {
			seen[weekday] = map[string]struct{}{}
		}
		key := r.Owner.Key()
		if _, dup := seen[weekday][key]; dup {
			continue
		}
		seen[weekday][key] = struct{}{}

		conf := r.Confidence
		if conf == "" {
			conf = Sure
		}
		bucket := summary[weekday]
		bucket.Members = append(bucket.Members, WeeklyMember{Subscriber: r.Owner, Confidence: conf})
		if conf == Maybe {
			bucket.MaybeCount++
		} else {
			bucket.SureCount++
		}
		summary[weekday] = bucket
	}
	return summary
}

func hasValidSlot(slots []Slot) bool {
	for _, s := range slots {
		if s.Valid() {
			return true
		}
	}
	return false
}
