package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/md-rashed-zaman/eventcoordinator/libs/db"
	"github.com/md-rashed-zaman/eventcoordinator/libs/schedule"
)

type RuleRepository struct {
	pool   *db.Pool
	logger *slog.Logger
}

func NewRuleRepository(pool *db.Pool, logger *slog.Logger) *RuleRepository {
	return &RuleRepository{pool: pool, logger: logger}
}

type slotJSON struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type ruleRow struct {
	UserID         *string
	AnonymousID    *string
	RecurrenceType string
	DayOfWeek      *int
	DayOfMonth     *int
	SpecificDate   *time.Time
	TimeSlots      []byte
	Confidence     string
}

// ReplaceForOwner swaps an owner's rule set atomically: delete everything,
// insert the new set, commit. An empty set clears the owner's availability.
func (r *RuleRepository) ReplaceForOwner(ctx context.Context, organizationID string, owner schedule.Subscriber, rules []schedule.Rule) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	userID, anonymousID := ownerColumns(owner)
	_, err = tx.Exec(ctx, `
		DELETE FROM availability_rules
		WHERE organization_id = $1
			AND user_id IS NOT DISTINCT FROM $2
			AND anonymous_id IS NOT DISTINCT FROM $3
	`, organizationID, userID, anonymousID)
	if err != nil {
		return err
	}

	for _, rule := range rules {
		slots := make([]slotJSON, 0, len(rule.Slots))
		for _, s := range rule.Slots {
			slots = append(slots, slotJSON{
				Start: schedule.FormatClock(s.Start),
				End:   schedule.FormatClock(s.End),
			})
		}
		encoded, err := json.Marshal(slots)
		if err != nil {
			return err
		}

		var dayOfWeek, dayOfMonth *int
		var specificDate *time.Time
		switch rule.Recurrence.Kind() {
		case schedule.RecurWeekly:
			wd, _ := rule.Recurrence.Weekday()
			n := int(wd)
			dayOfWeek = &n
		case schedule.RecurMonthly:
			n, _ := rule.Recurrence.DayOfMonth()
			dayOfMonth = &n
		case schedule.RecurOnDate:
			d, _ := rule.Recurrence.Date()
			specificDate = &d
		default:
			return fmt.Errorf("rule has no recurrence")
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO availability_rules
				(organization_id, user_id, anonymous_id, recurrence_type,
				 day_of_week, day_of_month, specific_date, time_slots, confidence)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, organizationID, userID, anonymousID, string(rule.Recurrence.Kind()),
			dayOfWeek, dayOfMonth, specificDate, encoded, string(rule.Confidence))
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// ListByOrganization loads every stored rule of an organization as engine
// rules. Rows written by the current write path are always well formed; a
// slot that nevertheless fails to parse is skipped with a warning rather
// than poisoning the whole read.
func (r *RuleRepository) ListByOrganization(ctx context.Context, organizationID string) ([]schedule.Rule, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT user_id, anonymous_id::text, recurrence_type,
			day_of_week, day_of_month, specific_date, time_slots, confidence
		FROM availability_rules
		WHERE organization_id = $1
		ORDER BY created_at ASC, id ASC
	`, organizationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []schedule.Rule
	for rows.Next() {
		var row ruleRow
		if err := rows.Scan(
			&row.UserID,
			&row.AnonymousID,
			&row.RecurrenceType,
			&row.DayOfWeek,
			&row.DayOfMonth,
			&row.SpecificDate,
			&row.TimeSlots,
			&row.Confidence,
		); err != nil {
			return nil, err
		}
		rule, err := r.toRule(row)
		if err != nil {
			r.logger.Warn("skipping unreadable availability rule",
				"organization_id", organizationID, "error", err)
			continue
		}
		out = append(out, rule)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

// ListForOwner returns one owner's stored rules as API payloads, for the
// availability read endpoint.
func (r *RuleRepository) ListForOwner(ctx context.Context, organizationID string, owner schedule.Subscriber) ([]StoredRule, error) {
	userID, anonymousID := ownerColumns(owner)
	rows, err := r.pool.Query(ctx, `
		SELECT recurrence_type, day_of_week, day_of_month, specific_date, time_slots, confidence
		FROM availability_rules
		WHERE organization_id = $1
			AND user_id IS NOT DISTINCT FROM $2
			AND anonymous_id IS NOT DISTINCT FROM $3
		ORDER BY created_at ASC, id ASC
	`, organizationID, userID, anonymousID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StoredRule
	for rows.Next() {
		var row ruleRow
		if err := rows.Scan(
			&row.RecurrenceType,
			&row.DayOfWeek,
			&row.DayOfMonth,
			&row.SpecificDate,
			&row.TimeSlots,
			&row.Confidence,
		); err != nil {
			return nil, err
		}
		sr := StoredRule{
			RecurrenceType: row.RecurrenceType,
			DayOfWeek:      row.DayOfWeek,
			DayOfMonth:     row.DayOfMonth,
			Confidence:     row.Confidence,
		}
		if row.SpecificDate != nil {
			sr.SpecificDate = row.SpecificDate.Format("2006-01-02")
		}
		var slots []slotJSON
		if err := json.Unmarshal(row.TimeSlots, &slots); err != nil {
			r.logger.Warn("skipping unreadable time_slots",
				"organization_id", organizationID, "error", err)
		}
		for _, s := range slots {
			sr.TimeSlots = append(sr.TimeSlots, StoredSlot{Start: s.Start, End: s.End})
		}
		out = append(out, sr)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

// StoredRule is the read-side shape of one availability rule.
type StoredRule struct {
	RecurrenceType string       `json:"recurrence_type"`
	DayOfWeek      *int         `json:"day_of_week,omitempty"`
	DayOfMonth     *int         `json:"day_of_month,omitempty"`
	SpecificDate   string       `json:"specific_date,omitempty"`
	TimeSlots      []StoredSlot `json:"time_slots"`
	Confidence     string       `json:"confidence"`
}

type StoredSlot struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

func (r *RuleRepository) toRule(row ruleRow) (schedule.Rule, error) {
	var owner schedule.Subscriber
	switch {
	case row.UserID != nil:
		owner = schedule.RegisteredUser(*row.UserID)
	case row.AnonymousID != nil:
		owner = schedule.AnonymousSubscriber(*row.AnonymousID)
	default:
		return schedule.Rule{}, fmt.Errorf("rule row has no owner")
	}

	var recurrence schedule.Recurrence
	switch schedule.RecurrenceKind(row.RecurrenceType) {
	case schedule.RecurWeekly:
		if row.DayOfWeek == nil {
			return schedule.Rule{}, fmt.Errorf("weekly rule missing day_of_week")
		}
		recurrence = schedule.Weekly(time.Weekday(*row.DayOfWeek))
	case schedule.RecurMonthly:
		if row.DayOfMonth == nil {
			return schedule.Rule{}, fmt.Errorf("monthly rule missing day_of_month")
		}
		recurrence = schedule.Monthly(*row.DayOfMonth)
	case schedule.RecurOnDate:
		if row.SpecificDate == nil {
			return schedule.Rule{}, fmt.Errorf("specific_date rule missing date")
		}
		recurrence = schedule.OnDate(*row.SpecificDate)
	default:
		return schedule.Rule{}, fmt.Errorf("unknown recurrence_type %q", row.RecurrenceType)
	}

	var raw []slotJSON
	if err := json.Unmarshal(row.TimeSlots, &raw); err != nil {
		return schedule.Rule{}, fmt.Errorf("decode time_slots: %w", err)
	}
	slots := make([]schedule.Slot, 0, len(raw))
	for _, s := range raw {
		slot, err := schedule.ParseSlot(s.Start, s.End)
		if err != nil {
			r.logger.Warn("skipping unparsable time slot",
				"start", s.Start, "end", s.End, "error", err)
			continue
		}
		slots = append(slots, slot)
	}

	return schedule.Rule{
		Owner:      owner,
		Recurrence: recurrence,
		Slots:      slots,
		Confidence: schedule.Confidence(row.Confidence),
	}, nil
}

func ownerColumns(owner schedule.Subscriber) (userID, anonymousID *string) {
	id := owner.ID()
	if owner.Registered() {
		return &id, nil
	}
	return nil, &id
}
