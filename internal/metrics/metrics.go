// Package metrics publishes pipeline counters to CloudWatch.
//
// Metrics emitted (namespace from METRIC_NAMESPACE, default PhotoAlbum):
//   - ImagesAccepted, ImagesRejected, ImagesRemoved: no dims
//   - MetadataUpdated: Dims {Attribute}
//   - StoreFailure: Dims {Operation}
//   - EmailsSent: Dims {Kind, Result}
//   - ImageQueueLag: no dims, milliseconds between enqueue and processing
//
// Publishing failures are logged and never returned: a metric must not fail
// an invocation.
package metrics

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"photoalbum/internal/types"
)

// Result categorizes an email outcome for metrics reporting.
type Result string

const (
	ResultSuccess Result = "success"
	ResultFailed  Result = "failed"
	ResultSkipped Result = "skipped"
)

// Recorder is implemented by CloudWatch and Noop.
type Recorder interface {
	// RecordImage counts one ImagesAccepted, ImagesRejected or ImagesRemoved.
	RecordImage(ctx context.Context, metric string)
	RecordMetadataUpdate(ctx context.Context, attr types.AttributeName)
	RecordStoreFailure(ctx context.Context, operation string)
	RecordEmail(ctx context.Context, kind types.MailKind, result Result)
	RecordQueueLag(ctx context.Context, lag time.Duration)
}

// CloudWatchClient abstracts the CloudWatch PutMetricData operation for testability.
type CloudWatchClient interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

var _ Recorder = (*CloudWatch)(nil)

// CloudWatch emits one PutMetricData call per recorded event.
type CloudWatch struct {
	client    CloudWatchClient
	namespace string
	logger    types.Logger
}

// NewCloudWatch creates a recorder publishing to namespace. An empty
// namespace falls back to types.MetricNamespace.
func NewCloudWatch(client CloudWatchClient, namespace string, logger types.Logger) *CloudWatch {
	if namespace == "" {
		namespace = types.MetricNamespace
	}
	return &CloudWatch{
		client:    client,
		namespace: namespace,
		logger:    logger,
	}
}

func (m *CloudWatch) RecordImage(ctx context.Context, metric string) {
	m.put(ctx, count(metric))
}

func (m *CloudWatch) RecordMetadataUpdate(ctx context.Context, attr types.AttributeName) {
	m.put(ctx, count(types.MetricMetadataUpdated, dim(types.DimAttribute, string(attr))))
}

func (m *CloudWatch) RecordStoreFailure(ctx context.Context, operation string) {
	m.put(ctx, count(types.MetricStoreFailure, dim(types.DimOperation, operation)))
}

// RecordEmail emits EmailsSent with Kind and Result dimensions, e.g.
//
//	Metric: EmailsSent, Dims: {Kind: "rejection", Result: "success"}
func (m *CloudWatch) RecordEmail(ctx context.Context, kind types.MailKind, result Result) {
	m.put(ctx, count(types.MetricEmailsSent,
		dim(types.DimMailKind, string(kind)),
		dim(types.DimResult, string(result)),
	))
}

// RecordQueueLag is recorded in milliseconds for CloudWatch precision.
func (m *CloudWatch) RecordQueueLag(ctx context.Context, lag time.Duration) {
	m.put(ctx, cwtypes.MetricDatum{
		MetricName: aws.String(types.MetricQueueLag),
		Value:      aws.Float64(float64(lag.Milliseconds())),
		Unit:       cwtypes.StandardUnitMilliseconds,
	})
}

func (m *CloudWatch) put(ctx context.Context, datum cwtypes.MetricDatum) {
	input := &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(m.namespace),
		MetricData: []cwtypes.MetricDatum{datum},
	}
	if _, err := m.client.PutMetricData(ctx, input); err != nil {
		m.logger.Error("failed to record metric",
			"error", err.Error(),
			"metric", aws.ToString(datum.MetricName),
		)
	}
}

func count(name string, dims ...cwtypes.Dimension) cwtypes.MetricDatum {
	return cwtypes.MetricDatum{
		MetricName: aws.String(name),
		Value:      aws.Float64(1),
		Unit:       cwtypes.StandardUnitCount,
		Dimensions: dims,
	}
}

func dim(name, value string) cwtypes.Dimension {
	return cwtypes.Dimension{Name: aws.String(name), Value: aws.String(value)}
}

// Noop discards everything. Used when ENABLE_METRICS=false.
type Noop struct{}

var _ Recorder = Noop{}

func (Noop) RecordImage(context.Context, string)                       {}
func (Noop) RecordMetadataUpdate(context.Context, types.AttributeName) {}
func (Noop) RecordStoreFailure(context.Context, string)                {}
func (Noop) RecordEmail(context.Context, types.MailKind, Result)       {}
func (Noop) RecordQueueLag(context.Context, time.Duration)             {}
