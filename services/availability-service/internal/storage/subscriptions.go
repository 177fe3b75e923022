package storage

import (
	"context"
	"time"

	"github.com/md-rashed-zaman/eventcoordinator/libs/db"
	"github.com/md-rashed-zaman/eventcoordinator/libs/schedule"
)

type Subscription struct {
	ID                     string
	OrganizationID         string
	UserID                 string
	UserName               string
	UserEmail              string
	PhoneNumber            string
	WhatsAppNumber         string
	NotificationPreference string
	CreatedAt              time.Time
}

type AnonymousSubscription struct {
	ID                     string
	OrganizationID         string
	Name                   string
	Email                  string
	PhoneNumber            string
	WhatsAppNumber         string
	NotificationPreference string
	ManageTokenHash        string
	CreatedAt              time.Time
}

// Identity is the display record for one subscriber, used when analytics
// responses want names instead of opaque subscriber keys.
type Identity struct {
	Name  string
	Email string
	Kind  string
}

type SubscriptionRepository struct {
	pool *db.Pool
}

func NewSubscriptionRepository(pool *db.Pool) *SubscriptionRepository {
	return &SubscriptionRepository{pool: pool}
}

func (r *SubscriptionRepository) Create(ctx context.Context, sub Subscription) (Subscription, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO subscriptions
			(organization_id, user_id, user_name, user_email, phone_number, whatsapp_number, notification_preference)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id::text, created_at
	`, sub.OrganizationID, sub.UserID, sub.UserName, sub.UserEmail, sub.PhoneNumber,
		sub.WhatsAppNumber, sub.NotificationPreference).Scan(&sub.ID, &sub.CreatedAt)
	return sub, err
}

func (r *SubscriptionRepository) CreateAnonymous(ctx context.Context, sub AnonymousSubscription) (AnonymousSubscription, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO anonymous_subscriptions
			(organization_id, name, email, phone_number, whatsapp_number, notification_preference, manage_token_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id::text, created_at
	`, sub.OrganizationID, sub.Name, sub.Email, sub.PhoneNumber, sub.WhatsAppNumber,
		sub.NotificationPreference, sub.ManageTokenHash).Scan(&sub.ID, &sub.CreatedAt)
	return sub, err
}

func (r *SubscriptionRepository) GetAnonymous(ctx context.Context, organizationID, anonymousID string) (AnonymousSubscription, error) {
	var sub AnonymousSubscription
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, organization_id::text, name, email, phone_number, whatsapp_number,
			notification_preference, manage_token_hash, created_at
		FROM anonymous_subscriptions
		WHERE organization_id = $1 AND id = $2
	`, organizationID, anonymousID).Scan(
		&sub.ID,
		&sub.OrganizationID,
		&sub.Name,
		&sub.Email,
		&sub.PhoneNumber,
		&sub.WhatsAppNumber,
		&sub.NotificationPreference,
		&sub.ManageTokenHash,
		&sub.CreatedAt,
	)
	return sub, err
}

func (r *SubscriptionRepository) GetRegistered(ctx context.Context, organizationID, userID string) (Subscription, error) {
	var sub Subscription
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, organization_id::text, user_id, user_name, user_email, phone_number,
			whatsapp_number, notification_preference, created_at
		FROM subscriptions
		WHERE organization_id = $1 AND user_id = $2
	`, organizationID, userID).Scan(
		&sub.ID,
		&sub.OrganizationID,
		&sub.UserID,
		&sub.UserName,
		&sub.UserEmail,
		&sub.PhoneNumber,
		&sub.WhatsAppNumber,
		&sub.NotificationPreference,
		&sub.CreatedAt,
	)
	return sub, err
}

// ResolveIdentities returns display identities for every subscriber of an
// organization, keyed by the engine subscriber key.
func (r *SubscriptionRepository) ResolveIdentities(ctx context.Context, organizationID string) (map[string]Identity, error) {
	out := make(map[string]Identity)

	rows, err := r.pool.Query(ctx, `
		SELECT user_id, user_name, user_email
		FROM subscriptions
		WHERE organization_id = $1
	`, organizationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var userID, name, email string
		if err := rows.Scan(&userID, &name, &email); err != nil {
			return nil, err
		}
		out[schedule.RegisteredUser(userID).Key()] = Identity{Name: name, Email: email, Kind: "registered"}
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}

	anonRows, err := r.pool.Query(ctx, `
		SELECT id::text, name, email
		FROM anonymous_subscriptions
		WHERE organization_id = $1
	`, organizationID)
	if err != nil {
		return nil, err
	}
	defer anonRows.Close()
	for anonRows.Next() {
		var id, name, email string
		if err := anonRows.Scan(&id, &name, &email); err != nil {
			return nil, err
		}
		out[schedule.AnonymousSubscriber(id).Key()] = Identity{Name: name, Email: email, Kind: "anonymous"}
	}
	if anonRows.Err() != nil {
		return nil, anonRows.Err()
	}
	return out, nil
}
