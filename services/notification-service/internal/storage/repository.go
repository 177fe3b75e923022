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

// Recipient is one subscriber with everything needed to notify them: the
// engine identity for matching, contact details and their preference.
type Recipient struct {
	Subscriber     schedule.Subscriber
	Name           string
	Email          string
	PhoneNumber    string
	WhatsAppNumber string
	Preference     string
}

type Organization struct {
	ID                  string
	Name                string
	NotificationChannel string
}

type LogEntry struct {
	EventID        string
	OrganizationID string
	Subscriber     schedule.Subscriber
	Channel        string
	Recipient      string
	Status         string
	ErrorMessage   string
}

type Repository struct {
	pool   *db.Pool
	logger *slog.Logger
}

func NewRepository(pool *db.Pool, logger *slog.Logger) *Repository {
	return &Repository{pool: pool, logger: logger}
}

func (r *Repository) GetOrganization(ctx context.Context, id string) (Organization, error) {
	var org Organization
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, name, notification_channel
		FROM organizations
		WHERE id = $1
	`, id).Scan(&org.ID, &org.Name, &org.NotificationChannel)
	return org, err
}

func (r *Repository) ListRecipients(ctx context.Context, organizationID string) ([]Recipient, error) {
	var out []Recipient

	rows, err := r.pool.Query(ctx, `
		SELECT user_id, user_name, user_email, phone_number, whatsapp_number, notification_preference
		FROM subscriptions
		WHERE organization_id = $1
	`, organizationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var userID string
		var rec Recipient
		if err := rows.Scan(&userID, &rec.Name, &rec.Email, &rec.PhoneNumber, &rec.WhatsAppNumber, &rec.Preference); err != nil {
			return nil, err
		}
		rec.Subscriber = schedule.RegisteredUser(userID)
		out = append(out, rec)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}

	anonRows, err := r.pool.Query(ctx, `
		SELECT id::text, name, email, phone_number, whatsapp_number, notification_preference
		FROM anonymous_subscriptions
		WHERE organization_id = $1
	`, organizationID)
	if err != nil {
		return nil, err
	}
	defer anonRows.Close()
	for anonRows.Next() {
		var id string
		var rec Recipient
		if err := anonRows.Scan(&id, &rec.Name, &rec.Email, &rec.PhoneNumber, &rec.WhatsAppNumber, &rec.Preference); err != nil {
			return nil, err
		}
		rec.Subscriber = schedule.AnonymousSubscriber(id)
		out = append(out, rec)
	}
	if anonRows.Err() != nil {
		return nil, anonRows.Err()
	}
	return out, nil
}

// RulesForOwner loads one subscriber's availability rules as engine rules,
// for preference-based matching. Unreadable rows are skipped with a warning.
func (r *Repository) RulesForOwner(ctx context.Context, organizationID string, owner schedule.Subscriber) ([]schedule.Rule, error) {
	userID, anonymousID := ownerColumns(owner)
	rows, err := r.pool.Query(ctx, `
		SELECT recurrence_type, day_of_week, day_of_month, specific_date, time_slots, confidence
		FROM availability_rules
		WHERE organization_id = $1
			AND user_id IS NOT DISTINCT FROM $2
			AND anonymous_id IS NOT DISTINCT FROM $3
	`, organizationID, userID, anonymousID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []schedule.Rule
	for rows.Next() {
		var recurrenceType, confidence string
		var dayOfWeek, dayOfMonth *int
		var specificDate *time.Time
		var rawSlots []byte
		if err := rows.Scan(&recurrenceType, &dayOfWeek, &dayOfMonth, &specificDate, &rawSlots, &confidence); err != nil {
			return nil, err
		}
		rule, err := buildRule(owner, recurrenceType, dayOfWeek, dayOfMonth, specificDate, rawSlots, confidence)
		if err != nil {
			r.logger.Warn("skipping unreadable availability rule",
				"organization_id", organizationID, "subscriber", owner.Key(), "error", err)
			continue
		}
		out = append(out, rule)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (r *Repository) InsertLog(ctx context.Context, entry LogEntry) error {
	userID, anonymousID := ownerColumns(entry.Subscriber)
	_, err := r.pool.Exec(ctx, `
		INSERT INTO notification_log
			(event_id, organization_id, user_id, anonymous_id, channel, recipient, status, error_message)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, entry.EventID, entry.OrganizationID, userID, anonymousID,
		entry.Channel, entry.Recipient, entry.Status, entry.ErrorMessage)
	return err
}

func buildRule(owner schedule.Subscriber, recurrenceType string, dayOfWeek, dayOfMonth *int, specificDate *time.Time, rawSlots []byte, confidence string) (schedule.Rule, error) {
	var recurrence schedule.Recurrence
	switch schedule.RecurrenceKind(recurrenceType) {
	case schedule.RecurWeekly:
		if dayOfWeek == nil {
			return schedule.Rule{}, fmt.Errorf("weekly rule missing day_of_week")
		}
		recurrence = schedule.Weekly(time.Weekday(*dayOfWeek))
	case schedule.RecurMonthly:
		if dayOfMonth == nil {
			return schedule.Rule{}, fmt.Errorf("monthly rule missing day_of_month")
		}
		recurrence = schedule.Monthly(*dayOfMonth)
	case schedule.RecurOnDate:
		if specificDate == nil {
			return schedule.Rule{}, fmt.Errorf("specific_date rule missing date")
		}
		recurrence = schedule.OnDate(*specificDate)
	default:
		return schedule.Rule{}, fmt.Errorf("unknown recurrence_type %q", recurrenceType)
	}

	var raw []struct {
		Start string `json:"start"`
		End   string `json:"end"`
	}
	if err := json.Unmarshal(rawSlots, &raw); err != nil {
		return schedule.Rule{}, fmt.Errorf("decode time_slots: %w", err)
	}
	slots := make([]schedule.Slot, 0, len(raw))
	for _, s := range raw {
		slot, err := schedule.ParseSlot(s.Start, s.End)
		if err != nil {
			continue
		}
		slots = append(slots, slot)
	}

	return schedule.Rule{
		Owner:      owner,
		Recurrence: recurrence,
		Slots:      slots,
		Confidence: schedule.Confidence(confidence),
	}, nil
}

func ownerColumns(owner schedule.Subscriber) (userID, anonymousID *string) {
	id := owner.ID()
	if owner.Registered() {
		return &id, nil
	}
	return nil, &id
}
