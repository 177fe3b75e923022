package eligibility

import (
	"github.com/md-rashed-zaman/eventcoordinator/libs/schedule"
)

// Decision says whether a subscriber should be notified and why, so the
// outcome can be logged either way.
type Decision struct {
	Notify bool
	Reason string
}

const (
	ReasonPreferenceAll    = "preference_all"
	ReasonMatch            = "availability_match"
	ReasonNoMatch          = "no_availability_match"
	ReasonRulesUnavailable = "rules_unavailable"
	ReasonCancelled        = "event_cancelled"
)

// ForCreation decides whether to tell a subscriber about a new event. With
// preference "matching" the subscriber is notified only when their declared
// availability overlaps the event; if their rules could not be loaded the
// notification is sent anyway, since missing a relevant event is worse than
// one extra message.
func ForCreation(preference string, rules []schedule.Rule, rulesErr error, ev schedule.Event) Decision {
	if preference != "matching" {
		return Decision{Notify: true, Reason: ReasonPreferenceAll}
	}
	if rulesErr != nil {
		return Decision{Notify: true, Reason: ReasonRulesUnavailable}
	}
	if schedule.Matches(rules, ev) {
		return Decision{Notify: true, Reason: ReasonMatch}
	}
	return Decision{Notify: false, Reason: ReasonNoMatch}
}

// ForDeletion always notifies: a cancellation is relevant to everyone who
// could have planned around the event, regardless of preference.
func ForDeletion() Decision {
	return Decision{Notify: true, Reason: ReasonCancelled}
}
