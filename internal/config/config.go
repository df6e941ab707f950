// Package config defines the configuration of the image pipeline workers.
// Configuration is loaded once at process initialization (Lambda cold start)
// and is immutable thereafter.
//
// Values are resolved via a priority chain:
//
//	OS Environment (Highest) -> Dotenv File -> AWS SSM Parameter Store (Lowest)
//
// Each worker loads only the struct it needs (IngestConfig, UpdaterConfig,
// MailerConfig, ConfirmationConfig). Any missing required value or invalid format is returned as
// a *ConfigError and the worker exits before accepting an invocation.
package config

import (
	"time"

	"photoalbum/internal/types"
)

// Runtime holds the settings shared by every worker. It is embedded into the
// per-worker config structs.
type Runtime struct {
	Environment string `envconfig:"APP_ENV" default:"dev" validate:"required,oneof=local dev staging prod"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`

	// Region is the deployment's explicit region. Lambda always sets
	// AWS_REGION, which is used when REGION is empty.
	Region      string `envconfig:"REGION"`
	AWSRegion   string `envconfig:"AWS_REGION" default:"eu-west-1"`
	EndpointURL string `envconfig:"AWS_ENDPOINT_URL"` // LocalStack; empty in prod

	Function      FunctionConfig
	Observability ObservabilityConfig

	// Build Metadata (Injected via ldflags, not Env)
	Build BuildInfo `ignored:"true"`
}

// ResolvedRegion returns REGION when set, otherwise AWS_REGION.
func (r Runtime) ResolvedRegion() string {
	if r.Region != "" {
		return r.Region
	}
	return r.AWSRegion
}

// IsLocal reports whether the worker runs outside Lambda (stdin event mode).
func (r Runtime) IsLocal() bool {
	return r.Environment == localEnv
}

func (r *Runtime) setBuild(b BuildInfo) {
	r.Build = b
}

// FunctionConfig mirrors the deployment parameters of a worker function. They
// are declared on the event source mapping and the function itself; the
// worker reads them to log its effective envelope and to bound its own work.
type FunctionConfig struct {
	BatchSize         int           `envconfig:"BATCH_SIZE" default:"5" validate:"min=1,max=10000"`
	MaxBatchingWindow time.Duration `envconfig:"MAX_BATCHING_WINDOW" default:"5s" validate:"min=0,max=5m"`
	Timeout           time.Duration `envconfig:"FUNCTION_TIMEOUT" default:"3s" validate:"min=1s,max=15m"`
	MemorySize        int           `envconfig:"MEMORY_SIZE" default:"1024" validate:"min=128,max=10240"`
	MaxReceiveCount   int           `envconfig:"MAX_RECEIVE_COUNT" default:"2" validate:"min=1"`
}

// ObservabilityConfig holds telemetry settings.
type ObservabilityConfig struct {
	MetricNamespace string `envconfig:"METRIC_NAMESPACE" default:"PhotoAlbum"`
	EnableMetrics   bool   `envconfig:"ENABLE_METRICS" default:"true"`
}

// IngestConfig configures the image-logger worker (ingestion validator and
// removal handler).
type IngestConfig struct {
	Runtime

	TableName string `envconfig:"TABLE_NAME" validate:"required"`
	DLQURL    string `envconfig:"DLQ_URL" validate:"required,url"`

	// BucketName is required only when VerifyObjectExists is on.
	BucketName         string `envconfig:"BUCKET_NAME" validate:"required_if=VerifyObjectExists true"`
	VerifyObjectExists bool   `envconfig:"VERIFY_OBJECT_EXISTS" default:"false"`

	// Concurrency bounds how many distinct object keys of one batch are
	// processed at once. 1 keeps the batch strictly sequential.
	Concurrency int `envconfig:"INGEST_CONCURRENCY" default:"1" validate:"min=1,max=10"`
}

// UpdaterConfig configures the metadata-updater worker.
type UpdaterConfig struct {
	Runtime

	TableName string `envconfig:"TABLE_NAME" validate:"required"`
}

// MailerConfig configures the rejection mailer and is the common part of
// ConfirmationConfig.
type MailerConfig struct {
	Runtime

	Email EmailConfig
}

// ConfirmationConfig configures the confirmation mailer.
type ConfirmationConfig struct {
	MailerConfig

	// BucketName is used to build s3:// locations when the triggering event
	// does not carry the bucket. Stream records never do.
	BucketName string `envconfig:"BUCKET_NAME" validate:"required"`
}

// EmailConfig holds the SES sender, recipient and region. All three are
// required; a mailer without them never starts. The recipient usually comes
// from SSM (SES_EMAIL_TO_SSM_PARAM) and is kept out of logs.
type EmailConfig struct {
	FromAddress      string             `envconfig:"SES_EMAIL_FROM" validate:"required,email"`
	ToAddress        types.SecretString `envconfig:"SES_EMAIL_TO" validate:"required,email"`
	Region           string             `envconfig:"SES_REGION" validate:"required"`
	FromName         string             `envconfig:"SES_FROM_NAME" default:"The Photo Album"`
	ConfigurationSet string             `envconfig:"SES_CONFIGURATION_SET"`
}

// BuildInfo holds build-time metadata injected via ldflags.
// These values are NOT populated from environment variables.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// ConfigErrorType categorizes configuration loading failures to aid debugging.
type ConfigErrorType string

const (
	// ErrMissingEnv indicates a required environment variable was not found.
	ErrMissingEnv ConfigErrorType = "MISSING_ENV"
	// ErrSSMResolution indicates a failure when fetching secrets from AWS SSM.
	ErrSSMResolution ConfigErrorType = "SSM_FAILURE"
	// ErrValidation indicates the configuration failed struct validation rules.
	ErrValidation ConfigErrorType = "VALIDATION_FAILED"
	// ErrParsing indicates a failure when parsing environment variable values
	// into their target types.
	ErrParsing ConfigErrorType = "PARSING_FAILED"
)
