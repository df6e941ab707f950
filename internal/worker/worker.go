// Package worker holds the cold-start plumbing shared by the Lambda binaries:
// AWS SDK configuration, the metrics recorder, and the local stdin runner used
// when APP_ENV=local.
package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"

	"photoalbum/internal/config"
	"photoalbum/internal/metrics"
	"photoalbum/internal/types"
)

// ErrNoInput is returned by RunLocal when stdin is empty.
var ErrNoInput = errors.New("no input received on stdin")

// AWSConfig loads the SDK configuration for rt's region. AWS_ENDPOINT_URL
// points every client at LocalStack during local runs.
func AWSConfig(ctx context.Context, rt config.Runtime) (aws.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(rt.ResolvedRegion()),
	}
	if rt.EndpointURL != "" {
		opts = append(opts, awsconfig.WithBaseEndpoint(rt.EndpointURL))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load AWS SDK config: %w", err)
	}
	return cfg, nil
}

// Metrics returns a CloudWatch recorder, or metrics.Noop when ENABLE_METRICS
// is false.
func Metrics(rt config.Runtime, awsCfg aws.Config, logger types.Logger) metrics.Recorder {
	if !rt.Observability.EnableMetrics {
		return metrics.Noop{}
	}
	return metrics.NewCloudWatch(cloudwatch.NewFromConfig(awsCfg), rt.Observability.MetricNamespace, logger)
}

// LogStartup logs the effective envelope of a worker once it is wired.
func LogStartup(logger types.Logger, name string, rt config.Runtime, args ...any) {
	fields := []any{
		"worker", name,
		"environment", rt.Environment,
		"region", rt.ResolvedRegion(),
		"version", rt.Build.Version,
		"commit", rt.Build.Commit,
		"batch_size", rt.Function.BatchSize,
		"max_batching_window", rt.Function.MaxBatchingWindow.String(),
		"timeout", rt.Function.Timeout.String(),
		"memory_size", rt.Function.MemorySize,
		"max_receive_count", rt.Function.MaxReceiveCount,
		"metrics_enabled", rt.Observability.EnableMetrics,
	}
	logger.Info("worker initialized", append(fields, args...)...)
}

// RunLocal decodes one event document from r and invokes handler with it.
func RunLocal[T any](ctx context.Context, r io.Reader, handler func(context.Context, T) error) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return ErrNoInput
	}

	var ev T
	if err := json.Unmarshal(data, &ev); err != nil {
		return fmt.Errorf("parse stdin as event: %w", err)
	}
	return handler(ctx, ev)
}

// Start hands handler to the Lambda runtime. With APP_ENV=local it instead
// runs the handler once on the event read from stdin and returns, which
// allows integration testing without the Lambda runtime emulator:
//
//	echo '{"Records":[...]}' | APP_ENV=local go run ./cmd/image-logger
func Start[T any](rt config.Runtime, logger types.Logger, handler func(context.Context, T) error) {
	if !rt.IsLocal() {
		lambda.Start(handler)
		return
	}

	logger.Info("APP_ENV=local: reading event from stdin")
	if err := RunLocal(context.Background(), os.Stdin, handler); err != nil {
		logger.Error("local invocation failed", "error", err.Error())
		os.Exit(1)
	}
	logger.Info("local invocation completed")
}
