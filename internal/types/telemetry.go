package types

// Telemetry metric names shared by the CloudWatch and Prometheus collectors.
const (
	// Metric Names
	MetricDeliveryAttempt = "DeliveryAttempt"
	MetricDeliveryLatency = "DeliveryLatency"
	MetricAdviceGenerated = "AdviceGenerated"
	MetricNotifyRun       = "NotificationRun"

	// Dimension Keys
	DimPresenter = "Presenter"
	DimResult    = "Result"
	DimSource    = "Source"

	// Metric Namespace
	MetricNamespace = "Meteo"
)
