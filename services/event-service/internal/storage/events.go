package storage

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/eventcoordinator/libs/db"
)

type Event struct {
	ID               string
	OrganizationID   string
	Title            string
	Description      string
	Location         string
	StartTime        time.Time
	EndTime          time.Time
	NotifyOnCreation bool
	NotifyOnDeletion bool
	IsActive         bool
	CreatedAt        time.Time
}

type EventRepository struct {
	pool *db.Pool
}

func NewEventRepository(pool *db.Pool) *EventRepository {
	return &EventRepository{pool: pool}
}

func (r *EventRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

func (r *EventRepository) Create(ctx context.Context, tx pgx.Tx, ev Event) (Event, error) {
	err := tx.QueryRow(ctx, `
		INSERT INTO events
			(organization_id, title, description, location, start_time, end_time,
			 notify_on_creation, notify_on_deletion)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id::text, is_active, created_at
	`, ev.OrganizationID, ev.Title, ev.Description, ev.Location, ev.StartTime, ev.EndTime,
		ev.NotifyOnCreation, ev.NotifyOnDeletion).Scan(&ev.ID, &ev.IsActive, &ev.CreatedAt)
	return ev, err
}

// Deactivate soft-deletes an event and returns the row as it was, so the
// caller can build the deletion notice from the same transaction.
func (r *EventRepository) Deactivate(ctx context.Context, tx pgx.Tx, organizationID, eventID string) (Event, error) {
	var ev Event
	err := tx.QueryRow(ctx, `
		UPDATE events
		SET is_active = false
		WHERE id = $1 AND organization_id = $2 AND is_active = true
		RETURNING id::text, organization_id::text, title, description, location,
			start_time, end_time, notify_on_creation, notify_on_deletion, is_active, created_at
	`, eventID, organizationID).Scan(
		&ev.ID,
		&ev.OrganizationID,
		&ev.Title,
		&ev.Description,
		&ev.Location,
		&ev.StartTime,
		&ev.EndTime,
		&ev.NotifyOnCreation,
		&ev.NotifyOnDeletion,
		&ev.IsActive,
		&ev.CreatedAt,
	)
	return ev, err
}

func (r *EventRepository) ListByOrganization(ctx context.Context, organizationID string, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, organization_id::text, title, description, location,
			start_time, end_time, notify_on_creation, notify_on_deletion, is_active, created_at
		FROM events
		WHERE organization_id = $1 AND is_active = true
		ORDER BY start_time ASC
		LIMIT $2
	`, organizationID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var ev Event
		if err := rows.Scan(
			&ev.ID,
			&ev.OrganizationID,
			&ev.Title,
			&ev.Description,
			&ev.Location,
			&ev.StartTime,
			&ev.EndTime,
			&ev.NotifyOnCreation,
			&ev.NotifyOnDeletion,
			&ev.IsActive,
			&ev.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
