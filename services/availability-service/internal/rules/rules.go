package rules

import (
	"errors"
	"fmt"
	"time"

	"github.com/md-rashed-zaman/eventcoordinator/libs/schedule"
)

// SlotPayload is one declared time slot as submitted over the API.
type SlotPayload struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// RulePayload is one availability rule as submitted over the API. The
// recurrence fields mirror the stored shape: exactly the field matching
// recurrence_type must be present.
type RulePayload struct {
	RecurrenceType string        `json:"recurrence_type"`
	DayOfWeek      *int          `json:"day_of_week,omitempty"`
	DayOfMonth     *int          `json:"day_of_month,omitempty"`
	SpecificDate   string        `json:"specific_date,omitempty"`
	TimeSlots      []SlotPayload `json:"time_slots"`
	Confidence     string        `json:"confidence,omitempty"`
}

var ErrInvalidRule = errors.New("invalid availability rule")

// Parse validates submitted rules and converts them into engine rules for
// the given owner. This is the write boundary: malformed clock text,
// inverted slots, bad recurrence fields all reject the whole submission so
// the engine can assume clean input. An empty payload is valid and means
// "clear availability".
func Parse(owner schedule.Subscriber, items []RulePayload) ([]schedule.Rule, error) {
	if owner.IsZero() {
		return nil, fmt.Errorf("%w: missing owner", ErrInvalidRule)
	}

	parsed := make([]schedule.Rule, 0, len(items))
	for i, item := range items {
		recurrence, err := parseRecurrence(item)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}

		slots := make([]schedule.Slot, 0, len(item.TimeSlots))
		for _, sp := range item.TimeSlots {
			slot, err := schedule.ParseSlot(sp.Start, sp.End)
			if err != nil {
				return nil, fmt.Errorf("rule %d: %w: %v", i, ErrInvalidRule, err)
			}
			slots = append(slots, slot)
		}

		confidence, err := parseConfidence(item.Confidence)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}

		parsed = append(parsed, schedule.Rule{
			Owner:      owner,
			Recurrence: recurrence,
			Slots:      slots,
			Confidence: confidence,
		})
	}
	return parsed, nil
}

func parseRecurrence(item RulePayload) (schedule.Recurrence, error) {
	switch schedule.RecurrenceKind(item.RecurrenceType) {
	case schedule.RecurWeekly:
		if item.DayOfWeek == nil || *item.DayOfWeek < 0 || *item.DayOfWeek > 6 {
			return schedule.Recurrence{}, fmt.Errorf("%w: weekly rule requires day_of_week 0..6", ErrInvalidRule)
		}
		return schedule.Weekly(time.Weekday(*item.DayOfWeek)), nil
	case schedule.RecurMonthly:
		if item.DayOfMonth == nil || *item.DayOfMonth < 1 || *item.DayOfMonth > 31 {
			return schedule.Recurrence{}, fmt.Errorf("%w: monthly rule requires day_of_month 1..31", ErrInvalidRule)
		}
		return schedule.Monthly(*item.DayOfMonth), nil
	case schedule.RecurOnDate:
		d, err := time.Parse("2006-01-02", item.SpecificDate)
		if err != nil {
			return schedule.Recurrence{}, fmt.Errorf("%w: specific_date must be YYYY-MM-DD", ErrInvalidRule)
		}
		return schedule.OnDate(d), nil
	default:
		return schedule.Recurrence{}, fmt.Errorf("%w: unknown recurrence_type %q", ErrInvalidRule, item.RecurrenceType)
	}
}

func parseConfidence(s string) (schedule.Confidence, error) {
	switch schedule.Confidence(s) {
	case schedule.Sure, schedule.Maybe:
		return schedule.Confidence(s), nil
	case "":
		return schedule.Sure, nil
	default:
		return "", fmt.Errorf("%w: confidence must be sure or maybe", ErrInvalidRule)
	}
}
