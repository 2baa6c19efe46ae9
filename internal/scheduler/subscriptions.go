package scheduler

import (
	"context"
	"strings"

	"meteo/internal/types"
)

// SubscriptionToggler is the persistence behind the notification switch.
type SubscriptionToggler interface {
	Toggle(ctx context.Context, sub types.NotificationSubscription) (bool, error)
	IsEnabled(ctx context.Context, city string) (bool, error)
}

// Subscriptions switches the daily notification on and off per city.
type Subscriptions struct {
	store        SubscriptionToggler
	deliveryTime string
	timezone     string
	clock        types.Clock
}

// NewSubscriptions creates the service. A nil clock uses the system time.
func NewSubscriptions(store SubscriptionToggler, deliveryTime, timezone string, clock types.Clock) *Subscriptions {
	if clock == nil {
		clock = types.RealClock{}
	}
	return &Subscriptions{
		store:        store,
		deliveryTime: deliveryTime,
		timezone:     timezone,
		clock:        clock,
	}
}

// Toggle flips the subscription of city and returns whether it is now
// enabled. Enabling schedules the next delivery right away.
func (s *Subscriptions) Toggle(ctx context.Context, city string, lat, lon float64) (bool, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return false, types.NewAppError(types.ErrCodeValidationInvalidCity, "city is required", nil)
	}

	next, err := CalculateNextRun(s.clock.Now(), s.deliveryTime, s.timezone)
	if err != nil {
		return false, err
	}

	return s.store.Toggle(ctx, types.NotificationSubscription{
		City:      city,
		Latitude:  lat,
		Longitude: lon,
		NextRunAt: next,
	})
}

// IsEnabled reports whether city receives the daily notification.
func (s *Subscriptions) IsEnabled(ctx context.Context, city string) (bool, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return false, types.NewAppError(types.ErrCodeValidationInvalidCity, "city is required", nil)
	}
	return s.store.IsEnabled(ctx, city)
}
