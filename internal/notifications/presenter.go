package notifications

import (
	"context"
	"log/slog"
	"time"

	"meteo/internal/types"
)

// Presenter delivers a composed notification to its audience.
type Presenter interface {
	Present(ctx context.Context, n types.Notification) error
	// Name identifies the presenter in logs and metrics.
	Name() string
}

// LogPresenter writes notifications to the structured log. It is the
// presenter used when no queue or webhook is configured.
type LogPresenter struct {
	logger *slog.Logger
}

// NewLogPresenter creates a LogPresenter.
func NewLogPresenter(logger *slog.Logger) *LogPresenter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogPresenter{logger: logger}
}

func (p *LogPresenter) Name() string { return "log" }

func (p *LogPresenter) Present(ctx context.Context, n types.Notification) error {
	p.logger.InfoContext(ctx, "daily notification",
		"notification_id", n.ID,
		"city", n.City,
		"title", n.Title,
		"body", n.Body,
		"advice_source", string(n.AdviceSource),
		"outdoor", n.Outdoor,
	)
	return nil
}

// DeliveryResult is the outcome dimension of a delivery metric.
type DeliveryResult string

const (
	DeliverySuccess DeliveryResult = "success"
	DeliveryFailed  DeliveryResult = "failed"
)

// DeliveryRecorder receives delivery outcomes.
type DeliveryRecorder interface {
	RecordDelivery(ctx context.Context, presenter string, result DeliveryResult)
	RecordLatency(ctx context.Context, presenter string, d time.Duration)
}

// instrumented wraps a Presenter with delivery metrics.
type instrumented struct {
	next    Presenter
	metrics DeliveryRecorder
	clock   types.Clock
}

// Instrument returns p reporting every delivery to m. A nil m returns p.
func Instrument(p Presenter, m DeliveryRecorder, clock types.Clock) Presenter {
	if m == nil {
		return p
	}
	if clock == nil {
		clock = types.RealClock{}
	}
	return &instrumented{next: p, metrics: m, clock: clock}
}

func (i *instrumented) Name() string { return i.next.Name() }

func (i *instrumented) Present(ctx context.Context, n types.Notification) error {
	start := i.clock.Now()
	err := i.next.Present(ctx, n)
	i.metrics.RecordLatency(ctx, i.next.Name(), i.clock.Now().Sub(start))

	result := DeliverySuccess
	if err != nil {
		result = DeliveryFailed
	}
	i.metrics.RecordDelivery(ctx, i.next.Name(), result)
	return err
}
