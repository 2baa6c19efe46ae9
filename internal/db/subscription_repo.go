package db

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"meteo/internal/types"
)

// SubscriptionRepository persists the set of cities that receive the daily
// notification. A city is enabled exactly when its row exists.
type SubscriptionRepository struct {
	db DBTX
}

// NewSubscriptionRepository creates a SubscriptionRepository.
func NewSubscriptionRepository(db DBTX) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

// Toggle flips membership of sub.City in one statement and returns the new
// state. When enabling, sub's coordinates and NextRunAt are stored.
func (r *SubscriptionRepository) Toggle(ctx context.Context, sub types.NotificationSubscription) (bool, error) {
	city := strings.TrimSpace(sub.City)
	if city == "" {
		return false, types.NewAppError(types.ErrCodeValidationInvalidCity, "city name is required", nil)
	}

	var inserted string
	err := r.db.QueryRow(ctx,
		`WITH removed AS (
		   DELETE FROM notification_subscriptions WHERE city = $1 RETURNING city
		 )
		 INSERT INTO notification_subscriptions (city, latitude, longitude, next_run_at)
		 SELECT $1, $2, $3, $4
		 WHERE NOT EXISTS (SELECT 1 FROM removed)
		 ON CONFLICT (city) DO NOTHING
		 RETURNING city`,
		city, sub.Latitude, sub.Longitude, sub.NextRunAt,
	).Scan(&inserted)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, types.NewAppError(types.ErrCodeInternalDB, "failed to toggle notifications", err)
	}
	return true, nil
}

// IsEnabled reports whether city receives the daily notification.
func (r *SubscriptionRepository) IsEnabled(ctx context.Context, city string) (bool, error) {
	var one int
	err := r.db.QueryRow(ctx,
		`SELECT 1 FROM notification_subscriptions WHERE city = $1`,
		strings.TrimSpace(city),
	).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, types.NewAppError(types.ErrCodeInternalDB, "failed to read notification state", err)
	}
	return true, nil
}

// ListDue returns up to limit subscriptions whose next run is at or before
// now, oldest first.
func (r *SubscriptionRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]types.NotificationSubscription, error) {
	rows, err := r.db.Query(ctx,
		`SELECT city, latitude, longitude, next_run_at, created_at
		 FROM notification_subscriptions
		 WHERE next_run_at <= $1
		 ORDER BY next_run_at ASC, city ASC
		 LIMIT $2`,
		now, limit,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to list due subscriptions", err)
	}
	defer rows.Close()

	var subs []types.NotificationSubscription
	for rows.Next() {
		var s types.NotificationSubscription
		if err := rows.Scan(&s.City, &s.Latitude, &s.Longitude, &s.NextRunAt, &s.CreatedAt); err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan subscription", err)
		}
		subs = append(subs, s)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "error iterating subscriptions", err)
	}
	return subs, nil
}

// UpdateNextRun reschedules city. It returns not_found_subscription when the
// city was disabled in the meantime.
func (r *SubscriptionRepository) UpdateNextRun(ctx context.Context, city string, next time.Time) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE notification_subscriptions SET next_run_at = $2 WHERE city = $1`,
		city, next,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to reschedule subscription", err)
	}
	if tag.RowsAffected() == 0 {
		return types.NewAppError(types.ErrCodeNotFoundSubscription, "subscription not found", nil)
	}
	return nil
}
