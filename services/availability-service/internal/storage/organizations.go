package storage

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/md-rashed-zaman/eventcoordinator/libs/db"
)

type Organization struct {
	ID                  string
	Name                string
	Description         string
	Website             string
	NotificationChannel string
	CreatedAt           time.Time
}

type OrganizationRepository struct {
	pool *db.Pool
}

func NewOrganizationRepository(pool *db.Pool) *OrganizationRepository {
	return &OrganizationRepository{pool: pool}
}

func (r *OrganizationRepository) Create(ctx context.Context, name, description, website, channel string) (Organization, error) {
	var org Organization
	err := r.pool.QueryRow(ctx, `
		INSERT INTO organizations (name, description, website, notification_channel)
		VALUES ($1, $2, $3, $4)
		RETURNING id::text, name, description, website, notification_channel, created_at
	`, name, description, website, channel).Scan(
		&org.ID,
		&org.Name,
		&org.Description,
		&org.Website,
		&org.NotificationChannel,
		&org.CreatedAt,
	)
	return org, err
}

func (r *OrganizationRepository) Get(ctx context.Context, id string) (Organization, error) {
	var org Organization
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, name, description, website, notification_channel, created_at
		FROM organizations
		WHERE id = $1
	`, id).Scan(
		&org.ID,
		&org.Name,
		&org.Description,
		&org.Website,
		&org.NotificationChannel,
		&org.CreatedAt,
	)
	return org, err
}

func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

func IsDuplicate(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
