package notifications

import (
	"context"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"meteo/internal/advisory"
	"meteo/internal/types"
)

// CloudWatchClient abstracts PutMetricData for testability.
type CloudWatchClient interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

var (
	_ DeliveryRecorder  = (*CloudWatchMetrics)(nil)
	_ advisory.Recorder = (*CloudWatchMetrics)(nil)
)

// CloudWatchMetrics emits notification and advice metrics:
//   - DeliveryAttempt {Presenter, Result}
//   - DeliveryLatency {Presenter}, milliseconds
//   - AdviceGenerated {Source, Result}, where Result is "fallback" or "ok"
//   - NotificationRun, count of cities notified per run
//
// Publishing failures are logged and never returned.
type CloudWatchMetrics struct {
	client    CloudWatchClient
	namespace string
	logger    *slog.Logger
}

// NewCloudWatchMetrics creates a publisher. An empty namespace uses
// types.MetricNamespace.
func NewCloudWatchMetrics(client CloudWatchClient, namespace string, logger *slog.Logger) *CloudWatchMetrics {
	if namespace == "" {
		namespace = types.MetricNamespace
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CloudWatchMetrics{
		client:    client,
		namespace: namespace,
		logger:    logger,
	}
}

func (m *CloudWatchMetrics) RecordDelivery(ctx context.Context, presenter string, result DeliveryResult) {
	m.put(ctx, cwtypes.MetricDatum{
		MetricName: aws.String(types.MetricDeliveryAttempt),
		Value:      aws.Float64(1),
		Unit:       cwtypes.StandardUnitCount,
		Dimensions: []cwtypes.Dimension{
			dim(types.DimPresenter, presenter),
			dim(types.DimResult, string(result)),
		},
	})
}

func (m *CloudWatchMetrics) RecordLatency(ctx context.Context, presenter string, d time.Duration) {
	m.put(ctx, cwtypes.MetricDatum{
		MetricName: aws.String(types.MetricDeliveryLatency),
		Value:      aws.Float64(float64(d.Milliseconds())),
		Unit:       cwtypes.StandardUnitMilliseconds,
		Dimensions: []cwtypes.Dimension{dim(types.DimPresenter, presenter)},
	})
}

func (m *CloudWatchMetrics) RecordAdvice(ctx context.Context, source types.AdviceSource, fallback bool) {
	result := "ok"
	if fallback {
		result = "fallback"
	}
	m.put(ctx, cwtypes.MetricDatum{
		MetricName: aws.String(types.MetricAdviceGenerated),
		Value:      aws.Float64(1),
		Unit:       cwtypes.StandardUnitCount,
		Dimensions: []cwtypes.Dimension{
			dim(types.DimSource, string(source)),
			dim(types.DimResult, result),
		},
	})
}

// RecordRun reports how many cities one scheduler run notified.
func (m *CloudWatchMetrics) RecordRun(ctx context.Context, notified int) {
	m.put(ctx, cwtypes.MetricDatum{
		MetricName: aws.String(types.MetricNotifyRun),
		Value:      aws.Float64(float64(notified)),
		Unit:       cwtypes.StandardUnitCount,
	})
}

func (m *CloudWatchMetrics) put(ctx context.Context, datum cwtypes.MetricDatum) {
	_, err := m.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(m.namespace),
		MetricData: []cwtypes.MetricDatum{datum},
	})
	if err != nil {
		m.logger.ErrorContext(ctx, "failed to put metric",
			"metric", aws.ToString(datum.MetricName),
			"namespace", m.namespace,
			"error", err,
		)
	}
}

func dim(name, value string) cwtypes.Dimension {
	return cwtypes.Dimension{Name: aws.String(name), Value: aws.String(value)}
}
