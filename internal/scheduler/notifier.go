package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"meteo/internal/advisory"
	"meteo/internal/forecasts"
	"meteo/internal/notifications"
	"meteo/internal/types"
)

// NotifyBatchLimit is the number of due subscriptions read per query.
const NotifyBatchLimit = 50

// DefaultRetryDelay is how long a failed city waits before it is due again.
const DefaultRetryDelay = 15 * time.Minute

// SubscriptionStore is the persistence the runner needs.
type SubscriptionStore interface {
	// ListDue returns subscriptions with next_run_at <= now, oldest first.
	ListDue(ctx context.Context, now time.Time, limit int) ([]types.NotificationSubscription, error)
	UpdateNextRun(ctx context.Context, city string, next time.Time) error
}

// WeatherReader returns live current conditions.
type WeatherReader interface {
	Current(ctx context.Context, loc types.Location) (*types.CurrentWeather, error)
}

// AdviceProvider produces clothing advice. *advisory.Advisor satisfies it.
type AdviceProvider interface {
	Advise(ctx context.Context, city string, s types.WeatherSnapshot) advisory.Advice
}

// RunRecorder receives the number of cities notified by a run.
type RunRecorder interface {
	RecordRun(ctx context.Context, notified int)
}

// NotifierConfig holds the delivery schedule.
type NotifierConfig struct {
	DeliveryTime string
	Timezone     string
	BatchLimit   int
	// RetryDelay defers a failed city, capped at its next daily run.
	RetryDelay time.Duration
	Recorder   RunRecorder
}

// DailyNotifier sends the daily notification to every due subscription.
type DailyNotifier struct {
	store     SubscriptionStore
	weather   WeatherReader
	advisor   AdviceProvider
	presenter notifications.Presenter
	cfg       NotifierConfig
	logger    *slog.Logger
}

// NewDailyNotifier validates the schedule and creates a runner.
func NewDailyNotifier(
	store SubscriptionStore,
	weather WeatherReader,
	advisor AdviceProvider,
	presenter notifications.Presenter,
	cfg NotifierConfig,
	logger *slog.Logger,
) (*DailyNotifier, error) {
	if err := ValidateSchedule(cfg.DeliveryTime, cfg.Timezone); err != nil {
		return nil, err
	}
	if cfg.BatchLimit <= 0 {
		cfg.BatchLimit = NotifyBatchLimit
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DailyNotifier{
		store:     store,
		weather:   weather,
		advisor:   advisor,
		presenter: presenter,
		cfg:       cfg,
		logger:    logger,
	}, nil
}

// outcome of one subscription.
type outcome int

const (
	outcomeFailed outcome = iota
	outcomeNotified
	// outcomeSkipped: nothing was sent but the subscription moved to its next
	// run, e.g. the city no longer exists upstream.
	outcomeSkipped
	// outcomeDeferred: delivery failed and the subscription was pushed back
	// by the retry delay.
	outcomeDeferred
)

// TriggerDue notifies every subscription due at now and returns how many
// notifications were delivered.
//
// A failing city is logged and deferred by RetryDelay, so it leaves the due
// set and cannot hold back the cities queued behind it. The loop stops on a
// short batch, or on a batch where nothing moved, which only happens when the
// store also rejects the deferrals.
func (d *DailyNotifier) TriggerDue(ctx context.Context, now time.Time) (int, error) {
	notified := 0

	for {
		subs, err := d.store.ListDue(ctx, now, d.cfg.BatchLimit)
		if err != nil {
			return notified, fmt.Errorf("listing due subscriptions: %w", err)
		}
		if len(subs) == 0 {
			break
		}

		d.logger.InfoContext(ctx, "processing notification batch",
			"batch_size", len(subs),
			"notified_so_far", notified,
		)

		progressed := 0
		for _, sub := range subs {
			if ctx.Err() != nil {
				return notified, ctx.Err()
			}
			switch d.process(ctx, sub, now) {
			case outcomeNotified:
				notified++
				progressed++
			case outcomeSkipped, outcomeDeferred:
				progressed++
			}
		}

		if len(subs) < d.cfg.BatchLimit {
			break
		}
		if progressed == 0 {
			d.logger.WarnContext(ctx, "no progress in notification batch, stopping",
				"batch_size", len(subs),
			)
			break
		}
	}

	if d.cfg.Recorder != nil {
		d.cfg.Recorder.RecordRun(ctx, notified)
	}
	d.logger.InfoContext(ctx, "notification run complete", "notified", notified)
	return notified, nil
}

func (d *DailyNotifier) process(ctx context.Context, sub types.NotificationSubscription, now time.Time) outcome {
	log := d.logger.With("city", sub.City)

	cw, err := d.weather.Current(ctx, sub.Location())
	if err != nil {
		if code, _ := types.CodeOf(err); code == types.ErrCodeNotFoundCity {
			log.WarnContext(ctx, "city unknown to weather provider, skipping today", "error", err)
			if d.reschedule(ctx, log, sub.City, now) {
				return outcomeSkipped
			}
			return outcomeFailed
		}
		log.ErrorContext(ctx, "weather fetch failed", "error", err)
		return d.deferRetry(ctx, log, sub.City, now)
	}

	snap := forecasts.SnapshotFrom(cw)
	adv := d.advisor.Advise(ctx, sub.City, snap)
	n := notifications.Compose(sub.City, snap, adv, now)
	n.IconURL = cw.PrimaryCondition().IconURL()

	if err := d.presenter.Present(ctx, n); err != nil {
		log.ErrorContext(ctx, "notification delivery failed",
			"presenter", d.presenter.Name(),
			"error", err,
		)
		return d.deferRetry(ctx, log, sub.City, now)
	}

	// Delivered: a failed reschedule only risks a duplicate on the next run.
	d.reschedule(ctx, log, sub.City, now)
	return outcomeNotified
}

// deferRetry moves a failed city to now+RetryDelay, or to its next daily run
// when that comes first.
func (d *DailyNotifier) deferRetry(ctx context.Context, log *slog.Logger, city string, now time.Time) outcome {
	retryAt := now.Add(d.cfg.RetryDelay)
	if next, err := CalculateNextRun(now, d.cfg.DeliveryTime, d.cfg.Timezone); err == nil && next.Before(retryAt) {
		retryAt = next
	}

	if err := d.store.UpdateNextRun(ctx, city, retryAt); err != nil {
		if code, _ := types.CodeOf(err); code == types.ErrCodeNotFoundSubscription {
			return outcomeSkipped
		}
		log.ErrorContext(ctx, "failed to defer retry", "error", err)
		return outcomeFailed
	}
	log.InfoContext(ctx, "notification retry scheduled", "retry_at", retryAt.Format(time.RFC3339))
	return outcomeDeferred
}

func (d *DailyNotifier) reschedule(ctx context.Context, log *slog.Logger, city string, now time.Time) bool {
	next, err := CalculateNextRun(now, d.cfg.DeliveryTime, d.cfg.Timezone)
	if err != nil {
		log.ErrorContext(ctx, "next run calculation failed", "error", err)
		return false
	}

	if err := d.store.UpdateNextRun(ctx, city, next); err != nil {
		if code, _ := types.CodeOf(err); code == types.ErrCodeNotFoundSubscription {
			log.InfoContext(ctx, "subscription disabled during run")
			return true
		}
		log.ErrorContext(ctx, "failed to update next run", "error", err)
		return false
	}

	log.InfoContext(ctx, "next notification scheduled", "next_run_at", next.Format(time.RFC3339))
	return true
}
