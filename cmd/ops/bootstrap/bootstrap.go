package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/go-playground/validator/v10"
	"golang.org/x/term"
)

// Step is one parameter of the bootstrap inventory.
type Step struct {
	Label string
	// Key is the path below /{env}/photoalbum/.
	Key string
	// EnvVar is the worker setting the parameter feeds through
	// <EnvVar>_SSM_PARAM.
	EnvVar    string
	ParamType ssmtypes.ParameterType
	Prompt    string
	// Default is used when the operator enters nothing. Empty means the
	// value is required.
	Default  string
	Validate func(string) error
	// IsSecret masks the input on a terminal.
	IsSecret bool
}

// maxRetries bounds the attempts per step before the run aborts.
const maxRetries = 5

var (
	validate    = validator.New()
	regionRegex = regexp.MustCompile(`^[a-z]{2}(-[a-z]+)+-\d$`)
)

func validateTag(tag string) func(string) error {
	return func(input string) error {
		if err := validate.Var(input, tag); err != nil {
			return fmt.Errorf("must satisfy %q", tag)
		}
		return nil
	}
}

func validateRegion(input string) error {
	if !regionRegex.MatchString(input) {
		return fmt.Errorf("%q is not an AWS region name", input)
	}
	return nil
}

// BuildInventory returns the parameters in prompt order.
func BuildInventory() []Step {
	return []Step{
		{
			Label:     "Image metadata table",
			Key:       "storage/table_name",
			EnvVar:    "TABLE_NAME",
			ParamType: ssmtypes.ParameterTypeString,
			Prompt:    "DynamoDB table holding one item per image:",
			Default:   "ImageTable",
			Validate:  validateTag("min=3,max=255"),
		},
		{
			Label:     "Upload bucket",
			Key:       "storage/bucket_name",
			EnvVar:    "BUCKET_NAME",
			ParamType: ssmtypes.ParameterTypeString,
			Prompt:    "S3 bucket receiving image uploads:",
			Validate:  validateTag("min=3,max=63"),
		},
		{
			Label:     "Dead-letter queue URL",
			Key:       "ingest/dlq_url",
			EnvVar:    "DLQ_URL",
			ParamType: ssmtypes.ParameterTypeString,
			Prompt:    "SQS URL of the dead-letter queue (https://sqs.<region>.amazonaws.com/<account>/<name>):",
			Validate:  validateTag("url"),
		},
		{
			Label:     "Sender address",
			Key:       "ses/email_from",
			EnvVar:    "SES_EMAIL_FROM",
			ParamType: ssmtypes.ParameterTypeString,
			Prompt:    "SES-verified address the mailers send from:",
			Validate:  validateTag("email"),
		},
		{
			Label:     "Operator address",
			Key:       "ses/email_to",
			EnvVar:    "SES_EMAIL_TO",
			ParamType: ssmtypes.ParameterTypeSecureString,
			Prompt:    "Address receiving confirmation and rejection emails:",
			Validate:  validateTag("email"),
			IsSecret:  true,
		},
		{
			Label:     "SES region",
			Key:       "ses/region",
			EnvVar:    "SES_REGION",
			ParamType: ssmtypes.ParameterTypeString,
			Prompt:    "Region of the SES identity:",
			Default:   "eu-west-1",
			Validate:  validateRegion,
		},
	}
}

// Runner drives the interactive bootstrap loop.
type Runner struct {
	Params *ParameterStore
	Stdin  io.Reader
	Stderr io.Writer

	// scanner is shared so buffered input is not lost between prompts.
	scanner   *bufio.Scanner
	inventory []Step
}

// NewRunner creates a Runner over the full inventory.
func NewRunner(params *ParameterStore, stdin io.Reader, stderr io.Writer) *Runner {
	return &Runner{
		Params:    params,
		Stdin:     stdin,
		Stderr:    stderr,
		inventory: BuildInventory(),
	}
}

type stepResult struct {
	Step   Step
	Action string // "written", "skipped", "overwritten"
	Path   string
}

// Run processes every step and prints the _SSM_PARAM bindings to configure
// on the functions.
func (r *Runner) Run(ctx context.Context) error {
	var results []stepResult
	for i, step := range r.inventory {
		fmt.Fprintf(r.Stderr, "\n[%d/%d] %s\n", i+1, len(r.inventory), step.Label)

		res, err := r.processStep(ctx, step)
		if err != nil {
			return fmt.Errorf("step %q failed: %w", step.Label, err)
		}
		results = append(results, res)
	}
	r.printSummary(results)
	return nil
}

func (r *Runner) processStep(ctx context.Context, step Step) (stepResult, error) {
	path := r.Params.Path(step.Key)
	res := stepResult{Step: step, Path: path}

	exists, err := r.Params.Exists(ctx, path)
	if err != nil {
		return res, err
	}
	if exists {
		fmt.Fprintf(r.Stderr, "  Parameter already exists: %s\n", path)
		overwrite, err := r.promptSkipOrOverwrite()
		if err != nil {
			return res, fmt.Errorf("reading skip/overwrite choice: %w", err)
		}
		if !overwrite {
			fmt.Fprintf(r.Stderr, "  Skipped.\n")
			res.Action = "skipped"
			return res, nil
		}
	}

	value, err := r.promptAndValidate(step)
	if err != nil {
		return res, err
	}

	if err := r.Params.Put(ctx, path, value, step.ParamType, exists); err != nil {
		return res, err
	}

	res.Action = "written"
	if exists {
		res.Action = "overwritten"
	}
	fmt.Fprintf(r.Stderr, "  Stored: %s\n", path)
	return res, nil
}

func (r *Runner) promptAndValidate(step Step) (string, error) {
	prompt := step.Prompt
	if step.Default != "" {
		prompt = fmt.Sprintf("%s [%s]", prompt, step.Default)
	}
	fmt.Fprintf(r.Stderr, "\n  %s\n\n", prompt)

	for attempt := 1; attempt <= maxRetries; attempt++ {
		var input string
		var err error
		if step.IsSecret {
			input, err = r.readSecretInput("  > ")
		} else {
			input, err = r.readInput("  > ")
		}
		if err != nil {
			return "", fmt.Errorf("reading input for %s: %w", step.Label, err)
		}

		input = strings.TrimSpace(input)
		if input == "" {
			input = step.Default
		}
		if input == "" {
			fmt.Fprintf(r.Stderr, "  A value is required.\n")
			continue
		}

		if step.Validate != nil {
			if err := step.Validate(input); err != nil {
				fmt.Fprintf(r.Stderr, "  Validation failed: %v\n", err)
				continue
			}
		}
		if step.IsSecret {
			fmt.Fprintf(r.Stderr, "  Received %d chars.\n", len(input))
		}
		return input, nil
	}
	return "", fmt.Errorf("maximum retries (%d) exceeded for %s", maxRetries, step.Label)
}

func (r *Runner) scanLine() (string, error) {
	if r.scanner == nil {
		r.scanner = bufio.NewScanner(r.Stdin)
	}
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return r.scanner.Text(), nil
}

func (r *Runner) readInput(prompt string) (string, error) {
	fmt.Fprint(r.Stderr, prompt)
	return r.scanLine()
}

// readSecretInput disables echo when stdin is a terminal and falls back to a
// plain line read for piped input.
func (r *Runner) readSecretInput(prompt string) (string, error) {
	fmt.Fprint(r.Stderr, prompt)

	if f, ok := r.Stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		secret, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(r.Stderr)
		if err != nil {
			return "", fmt.Errorf("reading secret input: %w", err)
		}
		return string(secret), nil
	}
	return r.scanLine()
}

var errNoChoice = errors.New("no choice entered")

// promptSkipOrOverwrite returns true for overwrite.
func (r *Runner) promptSkipOrOverwrite() (bool, error) {
	for {
		fmt.Fprint(r.Stderr, "  [S]kip or [O]verwrite? ")

		line, err := r.scanLine()
		if errors.Is(err, io.EOF) {
			return false, errNoChoice
		}
		if err != nil {
			return false, err
		}

		switch strings.TrimSpace(strings.ToLower(line)) {
		case "s", "skip":
			return false, nil
		case "o", "overwrite":
			return true, nil
		default:
			fmt.Fprintf(r.Stderr, "  Please enter 'S' to skip or 'O' to overwrite.\n")
		}
	}
}

func (r *Runner) printSummary(results []stepResult) {
	fmt.Fprintf(r.Stderr, "\n============================================================\n")
	fmt.Fprintf(r.Stderr, "  Bootstrap Summary\n")
	fmt.Fprintf(r.Stderr, "============================================================\n")
	for _, res := range results {
		fmt.Fprintf(r.Stderr, "  %-14s %s\n", "["+strings.ToUpper(res.Action)+"]", res.Step.Label)
	}
	fmt.Fprintf(r.Stderr, "------------------------------------------------------------\n")
	fmt.Fprintf(r.Stderr, "  Function environment:\n")
	for _, res := range results {
		fmt.Fprintf(r.Stderr, "    %s_SSM_PARAM=%s\n", res.Step.EnvVar, res.Path)
	}
	fmt.Fprintf(r.Stderr, "============================================================\n\n")
}
