// Package scheduler delivers the daily weather notification to every
// subscribed city. Subscriptions carry their own next_run_at; a runner invoked
// on a short interval (Lambda schedule or local cron) picks up the ones that
// are due, notifies them and moves next_run_at to the following day.
package scheduler

import (
	"fmt"
	"time"
	// Lambda images ship without a zone database.
	_ "time/tzdata"

	"meteo/internal/types"
)

// DefaultDeliveryTime is the local time of day the notification is sent.
const DefaultDeliveryTime = "15:30"

// DefaultTimezone is used when no timezone is configured.
const DefaultTimezone = "Europe/Paris"

// CalculateNextRun returns the next occurrence of deliveryTime ("HH:MM") in tz
// strictly after now, in UTC. Empty arguments fall back to the defaults.
//
// time.Date normalizes wall clocks that fall inside a DST gap, so the result
// is always a real instant in tz.
func CalculateNextRun(now time.Time, deliveryTime, tz string) (time.Time, error) {
	if tz == "" {
		tz = DefaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timezone %q: %w", tz, err)
	}

	if deliveryTime == "" {
		deliveryTime = DefaultDeliveryTime
	}
	hour, minute, err := parseTimeOfDay(deliveryTime)
	if err != nil {
		return time.Time{}, types.NewAppError(types.ErrCodeValidationInvalidTime,
			fmt.Sprintf("invalid delivery time %q", deliveryTime), err)
	}

	return computeNextDayAtTime(now.In(loc), hour, minute, loc).UTC(), nil
}

// ValidateSchedule reports whether deliveryTime and tz would be accepted by
// CalculateNextRun.
func ValidateSchedule(deliveryTime, tz string) error {
	_, err := CalculateNextRun(time.Now(), deliveryTime, tz)
	return err
}

// computeNextDayAtTime returns today at hour:minute in loc when that is still
// ahead of now, otherwise the same wall time tomorrow.
func computeNextDayAtTime(now time.Time, hour, minute int, loc *time.Location) time.Time {
	today := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, loc)
	if today.After(now) {
		return today
	}
	return time.Date(now.Year(), now.Month(), now.Day()+1, hour, minute, 0, 0, loc)
}

// parseTimeOfDay parses exactly "HH:MM" in 24h notation.
func parseTimeOfDay(s string) (int, int, error) {
	if len(s) != 5 || s[2] != ':' || !isDigits(s[:2]) || !isDigits(s[3:]) {
		return 0, 0, fmt.Errorf("expected format HH:MM, got %q", s)
	}
	hour := int(s[0]-'0')*10 + int(s[1]-'0')
	minute := int(s[3]-'0')*10 + int(s[4]-'0')
	if hour > 23 {
		return 0, 0, fmt.Errorf("hour %d out of range [0,23]", hour)
	}
	if minute > 59 {
		return 0, 0, fmt.Errorf("minute %d out of range [0,59]", minute)
	}
	return hour, minute, nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
