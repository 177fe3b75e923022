package storage

import (
	"context"
)

// ResponseStats aggregates the yes/no/maybe answers for one event.
type ResponseStats struct {
	Yes   int `json:"yes"`
	No    int `json:"no"`
	Maybe int `json:"maybe"`
	Total int `json:"total"`
}

// ActiveEventExists reports whether the organization has an active event
// with the given id, so responses to deleted or foreign events 404.
func (r *EventRepository) ActiveEventExists(ctx context.Context, organizationID, eventID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM events
			WHERE id = $1 AND organization_id = $2 AND is_active = true
		)
	`, eventID, organizationID).Scan(&exists)
	return exists, err
}

// IsSubscriber reports whether the user holds a subscription with the
// organization; only subscribers may respond to its events.
func (r *EventRepository) IsSubscriber(ctx context.Context, organizationID, userID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM subscriptions
			WHERE organization_id = $1 AND user_id = $2
		)
	`, organizationID, userID).Scan(&exists)
	return exists, err
}

// AnonymousTokenHash returns the stored manage-token hash for an anonymous
// subscriber of the organization.
func (r *EventRepository) AnonymousTokenHash(ctx context.Context, organizationID, anonymousID string) (string, error) {
	var hash string
	err := r.pool.QueryRow(ctx, `
		SELECT manage_token_hash
		FROM anonymous_subscriptions
		WHERE organization_id = $1 AND id = $2
	`, organizationID, anonymousID).Scan(&hash)
	return hash, err
}

// SaveResponse records or replaces one subscriber's answer to an event.
// Exactly one of userID / anonymousID must be non-empty.
func (r *EventRepository) SaveResponse(ctx context.Context, eventID, userID, anonymousID, response string) error {
	if userID != "" {
		_, err := r.pool.Exec(ctx, `
			INSERT INTO event_responses (event_id, user_id, response)
			VALUES ($1, $2, $3)
			ON CONFLICT (event_id, user_id) WHERE user_id IS NOT NULL
			DO UPDATE SET response = EXCLUDED.response, responded_at = now()
		`, eventID, userID, response)
		return err
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO event_responses (event_id, anonymous_id, response)
		VALUES ($1, $2, $3)
		ON CONFLICT (event_id, anonymous_id) WHERE anonymous_id IS NOT NULL
		DO UPDATE SET response = EXCLUDED.response, responded_at = now()
	`, eventID, anonymousID, response)
	return err
}

func (r *EventRepository) ResponseStats(ctx context.Context, eventID string) (ResponseStats, error) {
	var stats ResponseStats
	err := r.pool.QueryRow(ctx, `
		SELECT
			count(*) FILTER (WHERE response = 'yes'),
			count(*) FILTER (WHERE response = 'no'),
			count(*) FILTER (WHERE response = 'maybe'),
			count(*)
		FROM event_responses
		WHERE event_id = $1
	`, eventID).Scan(&stats.Yes, &stats.No, &stats.Maybe, &stats.Total)
	return stats, err
}

// ResponseStatsForEvents returns stats keyed by event id for a list page;
// events without responses are simply absent from the map.
func (r *EventRepository) ResponseStatsForEvents(ctx context.Context, eventIDs []string) (map[string]ResponseStats, error) {
	out := make(map[string]ResponseStats)
	if len(eventIDs) == 0 {
		return out, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT event_id::text,
			count(*) FILTER (WHERE response = 'yes'),
			count(*) FILTER (WHERE response = 'no'),
			count(*) FILTER (WHERE response = 'maybe'),
			count(*)
		FROM event_responses
		WHERE event_id = ANY($1)
		GROUP BY event_id
	`, eventIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var stats ResponseStats
		if err := rows.Scan(&id, &stats.Yes, &stats.No, &stats.Maybe, &stats.Total); err != nil {
			return nil, err
		}
		out[id] = stats
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}
