// Package main runs the daily weather notification.
//
// Inside AWS Lambda it serves one invocation per scheduled event. Elsewhere
// it runs a cron loop on NOTIFY_SCHEDULE. Every run delivers the cities whose
// next run is due and reschedules them for the following day.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robfig/cron/v3"

	"meteo/internal/advisory"
	"meteo/internal/config"
	"meteo/internal/db"
	"meteo/internal/external"
	"meteo/internal/forecasts"
	"meteo/internal/notifications"
	"meteo/internal/notifications/webhook"
	"meteo/internal/scheduler"
	"meteo/internal/security"
	"meteo/internal/types"
)

// RunResult is the Lambda response.
type RunResult struct {
	Notified int       `json:"notified"`
	RanAt    time.Time `json:"ran_at"`
}

// runner is the part of DailyNotifier the entrypoints drive.
type runner interface {
	TriggerDue(ctx context.Context, now time.Time) (int, error)
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig(config.NewFileProvider(os.Getenv("SECRETS_DIR")))
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := newLogger(cfg.LogLevel).With("service", cfg.Service, "component", "notifier")
	slog.SetDefault(logger)
	logger.Info("notifier initializing",
		"environment", cfg.Environment,
		"version", cfg.Build.Version,
		"presenter", cfg.Notification.Presenter,
		"delivery_time", cfg.Notification.DeliveryTime,
		"timezone", cfg.Notification.Timezone,
	)

	ctx := context.Background()

	pool, err := newPool(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()

	if cfg.Database.ApplySchema {
		if err := db.EnsureSchema(ctx, pool); err != nil {
			return fmt.Errorf("applying schema: %w", err)
		}
	}

	var awsCfg aws.Config
	if cfg.Notification.Presenter == config.PresenterSQS || cfg.Observability.CloudWatch {
		awsCfg, err = awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
		if err != nil {
			return fmt.Errorf("loading AWS config: %w", err)
		}
	}

	var cw *notifications.CloudWatchMetrics
	if cfg.Observability.CloudWatch {
		client := cloudwatch.NewFromConfig(awsCfg, func(o *cloudwatch.Options) {
			if cfg.AWS.EndpointURL != "" {
				o.BaseEndpoint = aws.String(cfg.AWS.EndpointURL)
			}
		})
		cw = notifications.NewCloudWatchMetrics(client, cfg.Observability.MetricNamespace, logger)
	}

	guard := security.NewGuard(security.WithAllowPrivate(cfg.Notification.WebhookAllowPrivate))
	if cfg.Notification.Presenter == config.PresenterWebhook {
		if err := guard.ValidateURL(ctx, cfg.Notification.WebhookURL); err != nil {
			return fmt.Errorf("webhook destination rejected: %w", err)
		}
	}

	presenter, err := newPresenter(cfg, awsCfg, guard, logger)
	if err != nil {
		return err
	}

	weatherClient := external.NewOpenWeatherClient(external.NewHTTPClient(cfg.Weather.Timeout), external.OpenWeatherConfig{
		APIKey:  cfg.Weather.APIKey,
		BaseURL: cfg.Weather.BaseURL,
		Units:   cfg.Weather.Units,
		Lang:    cfg.Weather.Lang,
		Logger:  logger,
	})

	var advisorOpts []advisory.AdvisorOption
	notifierCfg := scheduler.NotifierConfig{
		DeliveryTime: cfg.Notification.DeliveryTime,
		Timezone:     cfg.Notification.Timezone,
		BatchLimit:   cfg.Notification.BatchLimit,
		RetryDelay:   cfg.Notification.RetryDelay,
	}
	if cw != nil {
		presenter = notifications.Instrument(presenter, cw, types.RealClock{})
		advisorOpts = append(advisorOpts, advisory.WithRecorder(cw))
		notifierCfg.Recorder = cw
	}

	notifier, err := scheduler.NewDailyNotifier(
		db.NewSubscriptionRepository(pool),
		forecasts.NewService(weatherClient, logger),
		advisory.NewAdvisor(newRemoteAdvisor(cfg.Advisor), logger, advisorOpts...),
		presenter,
		notifierCfg,
		logger,
	)
	if err != nil {
		return fmt.Errorf("creating notifier: %w", err)
	}

	if isLambdaEnvironment() {
		logger.Info("notifier initialized, starting Lambda handler")
		lambda.Start(newHandler(notifier, types.RealClock{}, logger))
		return nil
	}
	return runCron(notifier, cfg.Notification.Schedule, logger)
}

// newHandler adapts a runner to a Lambda handler. The event payload (an
// EventBridge schedule) carries nothing the run needs.
func newHandler(n runner, clock types.Clock, logger *slog.Logger) func(ctx context.Context) (RunResult, error) {
	return func(ctx context.Context) (RunResult, error) {
		now := clock.Now().UTC()
		count, err := n.TriggerDue(ctx, now)
		if err != nil {
			logger.ErrorContext(ctx, "notification run failed", "error", err, "notified", count)
			return RunResult{Notified: count, RanAt: now}, err
		}
		return RunResult{Notified: count, RanAt: now}, nil
	}
}

// runCron runs the notifier on schedule until SIGINT or SIGTERM. Runs never
// overlap: a run still in progress makes the next tick skip.
func runCron(n runner, schedule string, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(schedule, func() {
		count, err := n.TriggerDue(ctx, time.Now().UTC())
		if err != nil {
			logger.ErrorContext(ctx, "notification run failed", "error", err, "notified", count)
		}
	}); err != nil {
		return fmt.Errorf("invalid NOTIFY_SCHEDULE %q: %w", schedule, err)
	}

	logger.Info("notifier cron started", "schedule", schedule)
	c.Start()
	<-ctx.Done()

	logger.Info("shutdown signal received, waiting for the current run")
	<-c.Stop().Done()
	logger.Info("notifier stopped cleanly")
	return nil
}

// newPresenter builds the delivery channel named by NOTIFY_PRESENTER.
func newPresenter(cfg *config.Config, awsCfg aws.Config, guard *security.Guard, logger *slog.Logger) (notifications.Presenter, error) {
	switch cfg.Notification.Presenter {
	case config.PresenterSQS:
		client := sqs.NewFromConfig(awsCfg, func(o *sqs.Options) {
			if cfg.AWS.EndpointURL != "" {
				o.BaseEndpoint = aws.String(cfg.AWS.EndpointURL)
			}
		})
		return notifications.NewSQSPresenter(client, cfg.Notification.QueueURL, logger), nil
	case config.PresenterWebhook:
		base := external.NewBaseClient(
			guard.HTTPClient(cfg.Notification.WebhookTimeout, 3),
			"webhook",
			external.DefaultRetryPolicy(),
			"Meteo-Webhook/1.0",
		)
		return webhook.NewPresenter(base, webhook.Config{
			URL:      cfg.Notification.WebhookURL,
			Platform: webhook.Platform(cfg.Notification.WebhookPlatform),
			Secret:   cfg.Notification.WebhookSecret,
			Logger:   logger,
		}), nil
	case config.PresenterLog, "":
		return notifications.NewLogPresenter(logger), nil
	default:
		return nil, fmt.Errorf("unknown presenter %q", cfg.Notification.Presenter)
	}
}

func newRemoteAdvisor(cfg config.AdvisorConfig) advisory.RemoteClient {
	if !cfg.Enabled {
		return nil
	}
	return external.NewMistralClient(external.NewHTTPClient(cfg.Timeout), external.MistralConfig{
		APIKey:      cfg.APIKey,
		BaseURL:     cfg.BaseURL,
		Model:       cfg.Model,
		MaxTokens:   cfg.MaxTokens,
		Temperature: &cfg.Temperature,
	})
}

func newPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	pc, err := pgxpool.ParseConfig(cfg.URL.Unmask())
	if err != nil {
		return nil, fmt.Errorf("parsing database URL: %w", err)
	}
	// One invocation at a time; a small pool is enough.
	pc.MaxConns = min(cfg.MaxConns, 4)
	pc.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("creating database pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return pool, nil
}

func isLambdaEnvironment() bool {
	_, hasRuntimeAPI := os.LookupEnv("AWS_LAMBDA_RUNTIME_API")
	return hasRuntimeAPI
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
