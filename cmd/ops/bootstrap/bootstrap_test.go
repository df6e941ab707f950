package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photoalbum/internal/config"
)

// mockSSMClient is an in-memory parameter store.
type mockSSMClient struct {
	values map[string]string
	types  map[string]ssmtypes.ParameterType
	getErr error
	putErr error
	puts   int
}

func newMockSSM() *mockSSMClient {
	return &mockSSMClient{values: map[string]string{}, types: map[string]ssmtypes.ParameterType{}}
}

func (m *mockSSMClient) GetParameter(_ context.Context, in *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	path := aws.ToString(in.Name)
	v, ok := m.values[path]
	if !ok {
		return nil, &ssmtypes.ParameterNotFound{Message: aws.String("not found: " + path)}
	}
	return &ssm.GetParameterOutput{Parameter: &ssmtypes.Parameter{Name: in.Name, Value: aws.String(v)}}, nil
}

func (m *mockSSMClient) PutParameter(_ context.Context, in *ssm.PutParameterInput, _ ...func(*ssm.Options)) (*ssm.PutParameterOutput, error) {
	m.puts++
	if m.putErr != nil {
		return nil, m.putErr
	}
	path := aws.ToString(in.Name)
	if _, exists := m.values[path]; exists && !aws.ToBool(in.Overwrite) {
		return nil, &ssmtypes.ParameterAlreadyExists{Message: aws.String(path)}
	}
	m.values[path] = aws.ToString(in.Value)
	m.types[path] = in.Type
	return &ssm.PutParameterOutput{}, nil
}

func testStore(client SSMClient) *ParameterStore {
	return NewParameterStore(client, "dev", slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func testRunner(client SSMClient, input string) (*Runner, *bytes.Buffer) {
	stderr := &bytes.Buffer{}
	return NewRunner(testStore(client), strings.NewReader(input), stderr), stderr
}

func stepByKey(t *testing.T, key string) Step {
	t.Helper()
	for _, s := range BuildInventory() {
		if s.Key == key {
			return s
		}
	}
	t.Fatalf("no inventory step %q", key)
	return Step{}
}

// envconfigTags collects every envconfig tag reachable from v's type.
func envconfigTags(t reflect.Type, into map[string]bool) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if tag := f.Tag.Get("envconfig"); tag != "" {
			into[tag] = true
		}
		if f.Type.Kind() == reflect.Struct {
			envconfigTags(f.Type, into)
		}
	}
}

func TestBuildInventory_EnvVarsAreWorkerSettings(t *testing.T) {
	tags := map[string]bool{}
	envconfigTags(reflect.TypeOf(config.IngestConfig{}), tags)
	envconfigTags(reflect.TypeOf(config.ConfirmationConfig{}), tags)
	envconfigTags(reflect.TypeOf(config.UpdaterConfig{}), tags)

	seen := map[string]bool{}
	for _, step := range BuildInventory() {
		assert.True(t, tags[step.EnvVar], "%s is not read by any worker", step.EnvVar)
		assert.False(t, seen[step.EnvVar], "%s listed twice", step.EnvVar)
		seen[step.EnvVar] = true
	}
}

func TestBuildInventory_OperatorAddressIsSecure(t *testing.T) {
	step := stepByKey(t, "ses/email_to")
	assert.Equal(t, ssmtypes.ParameterTypeSecureString, step.ParamType)
	assert.True(t, step.IsSecret)
}

func TestParameterStore_Path(t *testing.T) {
	assert.Equal(t, "/dev/photoalbum/ses/email_to", testStore(newMockSSM()).Path("ses/email_to"))
}

func TestValidators(t *testing.T) {
	assert.NoError(t, stepByKey(t, "ses/email_from").Validate("album@example.com"))
	assert.Error(t, stepByKey(t, "ses/email_from").Validate("not-an-address"))
	assert.NoError(t, stepByKey(t, "ingest/dlq_url").Validate("https://sqs.eu-west-1.amazonaws.com/123456789012/image-dlq"))
	assert.Error(t, stepByKey(t, "ingest/dlq_url").Validate("image-dlq"))
	assert.NoError(t, validateRegion("us-east-1"))
	assert.NoError(t, validateRegion("ap-southeast-2"))
	assert.Error(t, validateRegion("europe"))
}

func TestProcessStep_NewParameterWritten(t *testing.T) {
	client := newMockSSM()
	r, _ := testRunner(client, "album@example.com\n")

	res, err := r.processStep(context.Background(), stepByKey(t, "ses/email_from"))
	require.NoError(t, err)
	assert.Equal(t, "written", res.Action)
	assert.Equal(t, "album@example.com", client.values["/dev/photoalbum/ses/email_from"])
	assert.Equal(t, ssmtypes.ParameterTypeString, client.types["/dev/photoalbum/ses/email_from"])
}

func TestProcessStep_EmptyInputUsesDefault(t *testing.T) {
	client := newMockSSM()
	r, _ := testRunner(client, "\n")

	_, err := r.processStep(context.Background(), stepByKey(t, "ses/region"))
	require.NoError(t, err)
	assert.Equal(t, "eu-west-1", client.values["/dev/photoalbum/ses/region"])
}

func TestProcessStep_EmptyInputRequiredReprompts(t *testing.T) {
	client := newMockSSM()
	r, stderr := testRunner(client, "\nimage-upload-bucket\n")

	_, err := r.processStep(context.Background(), stepByKey(t, "storage/bucket_name"))
	require.NoError(t, err)
	assert.Equal(t, "image-upload-bucket", client.values["/dev/photoalbum/storage/bucket_name"])
	assert.Contains(t, stderr.String(), "A value is required.")
}

func TestProcessStep_ValidationRetry(t *testing.T) {
	client := newMockSSM()
	r, stderr := testRunner(client, "nope\nalbum@example.com\n")

	_, err := r.processStep(context.Background(), stepByKey(t, "ses/email_from"))
	require.NoError(t, err)
	assert.Contains(t, stderr.String(), "Validation failed")
	assert.Equal(t, 1, client.puts)
}

func TestProcessStep_MaxRetriesExceeded(t *testing.T) {
	client := newMockSSM()
	r, _ := testRunner(client, strings.Repeat("nope\n", maxRetries))

	_, err := r.processStep(context.Background(), stepByKey(t, "ses/email_from"))
	assert.ErrorContains(t, err, "maximum retries")
	assert.Zero(t, client.puts)
}

func TestProcessStep_ExistingParameterSkipped(t *testing.T) {
	client := newMockSSM()
	client.values["/dev/photoalbum/ses/email_from"] = "old@example.com"
	r, _ := testRunner(client, "s\n")

	res, err := r.processStep(context.Background(), stepByKey(t, "ses/email_from"))
	require.NoError(t, err)
	assert.Equal(t, "skipped", res.Action)
	assert.Equal(t, "old@example.com", client.values["/dev/photoalbum/ses/email_from"])
}

func TestProcessStep_ExistingParameterOverwritten(t *testing.T) {
	client := newMockSSM()
	client.values["/dev/photoalbum/ses/email_from"] = "old@example.com"
	r, _ := testRunner(client, "x\no\nnew@example.com\n")

	res, err := r.processStep(context.Background(), stepByKey(t, "ses/email_from"))
	require.NoError(t, err)
	assert.Equal(t, "overwritten", res.Action)
	assert.Equal(t, "new@example.com", client.values["/dev/photoalbum/ses/email_from"])
}

func TestProcessStep_ExistingParameterNoChoice(t *testing.T) {
	client := newMockSSM()
	client.values["/dev/photoalbum/ses/email_from"] = "old@example.com"
	r, _ := testRunner(client, "")

	_, err := r.processStep(context.Background(), stepByKey(t, "ses/email_from"))
	assert.ErrorIs(t, err, errNoChoice)
}

func TestProcessStep_SSMErrors(t *testing.T) {
	client := newMockSSM()
	client.getErr = errors.New("AccessDenied")
	r, _ := testRunner(client, "album@example.com\n")
	_, err := r.processStep(context.Background(), stepByKey(t, "ses/email_from"))
	assert.ErrorContains(t, err, "AccessDenied")

	client = newMockSSM()
	client.putErr = errors.New("ThrottlingException")
	r, _ = testRunner(client, "album@example.com\n")
	_, err = r.processStep(context.Background(), stepByKey(t, "ses/email_from"))
	assert.ErrorContains(t, err, "ThrottlingException")
}

func TestRun_FullInventory(t *testing.T) {
	client := newMockSSM()
	input := strings.Join([]string{
		"",                    // table: default
		"image-upload-bucket", // bucket
		"https://sqs.eu-west-1.amazonaws.com/123456789012/image-dlq",
		"album@example.com",
		"operator@example.com",
		"", // SES region: default
	}, "\n") + "\n"
	r, stderr := testRunner(client, input)

	require.NoError(t, r.Run(context.Background()))

	assert.Len(t, client.values, len(BuildInventory()))
	assert.Equal(t, "ImageTable", client.values["/dev/photoalbum/storage/table_name"])
	assert.Equal(t, ssmtypes.ParameterTypeSecureString, client.types["/dev/photoalbum/ses/email_to"])

	out := stderr.String()
	assert.Contains(t, out, "SES_EMAIL_TO_SSM_PARAM=/dev/photoalbum/ses/email_to")
	assert.Contains(t, out, "DLQ_URL_SSM_PARAM=/dev/photoalbum/ingest/dlq_url")
	assert.NotContains(t, out, "operator@example.com", "secret input is never echoed")
}

func TestFormatEnvLine(t *testing.T) {
	tests := []struct {
		value, want string
	}{
		{"ImageTable", "K=ImageTable\n"},
		{"https://sqs.eu-west-1.amazonaws.com/1/q", "K=https://sqs.eu-west-1.amazonaws.com/1/q\n"},
		{"album@example.com", "K=album@example.com\n"},
		{"", "K=\n"},
		{"The Photo Album", "K='The Photo Album'\n"},
		{"a#b", "K='a#b'\n"},
		{"$HOME", "K='$HOME'\n"},
		{"it's", "K=\"it's\"\n"},
		{"line1\nline2", "K=\"line1\\nline2\"\n"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatEnvLine("K", tt.value), "value %q", tt.value)
	}
}

func TestExportEnvFile(t *testing.T) {
	client := newMockSSM()
	client.values["/dev/photoalbum/storage/table_name"] = "ImageTable"
	client.values["/dev/photoalbum/ses/email_to"] = "operator@example.com"
	client.values["/dev/photoalbum/ses/email_from"] = "The Album <album@example.com>"

	out := filepath.Join(t.TempDir(), ".env")
	stderr := &bytes.Buffer{}
	err := ExportEnvFile(context.Background(), ExportEnvConfig{
		OutputPath: out,
		Params:     testStore(client),
		Inventory:  BuildInventory(),
		Stderr:     stderr,
	})
	require.NoError(t, err)

	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	env, err := godotenv.Read(out)
	require.NoError(t, err)
	assert.Equal(t, "local", env["APP_ENV"])
	assert.Equal(t, "false", env["ENABLE_METRICS"])
	assert.Equal(t, "ImageTable", env["TABLE_NAME"])
	assert.Equal(t, "operator@example.com", env["SES_EMAIL_TO"])
	assert.Equal(t, "The Album <album@example.com>", env["SES_EMAIL_FROM"])
	assert.NotContains(t, env, "DLQ_URL")

	assert.Contains(t, stderr.String(), "DLQ_URL not exported")
	assert.Contains(t, stderr.String(), "Exported 3/6 parameters")
}

func TestExportEnvFile_NothingReadable(t *testing.T) {
	out := filepath.Join(t.TempDir(), ".env")
	err := ExportEnvFile(context.Background(), ExportEnvConfig{
		OutputPath: out,
		Params:     testStore(newMockSSM()),
		Inventory:  BuildInventory(),
		Stderr:     io.Discard,
	})
	assert.Error(t, err)
	assert.NoFileExists(t, out)
}

func TestExportEnvFile_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := ExportEnvFile(ctx, ExportEnvConfig{
		OutputPath: filepath.Join(t.TempDir(), ".env"),
		Params:     testStore(newMockSSM()),
		Inventory:  BuildInventory(),
		Stderr:     io.Discard,
	})
	assert.ErrorIs(t, err, context.Canceled)
}
