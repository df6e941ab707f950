package types

// Telemetry metric names for CloudWatch.
// All components MUST use these constants.
const (
	// Metric Names
	MetricImagesAccepted  = "ImagesAccepted"
	MetricImagesRejected  = "ImagesRejected"
	MetricImagesRemoved   = "ImagesRemoved"
	MetricMetadataUpdated = "MetadataUpdated"
	MetricStoreFailure    = "StoreFailure"
	MetricEmailsSent      = "EmailsSent"
	MetricQueueLag        = "ImageQueueLag"

	// Dimension Keys
	DimMailKind  = "Kind"
	DimResult    = "Result"
	DimAttribute = "Attribute"
	DimOperation = "Operation"

	// Metric Namespace
	MetricNamespace = "PhotoAlbum"
)
