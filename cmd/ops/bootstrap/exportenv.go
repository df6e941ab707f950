package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"time"
)

// localDefaults are written ahead of the exported parameters. They switch
// the workers to stdin mode against LocalStack.
var localDefaults = []struct{ Key, Value string }{
	{"APP_ENV", "local"},
	{"LOG_LEVEL", "debug"},
	{"AWS_ENDPOINT_URL", "http://localhost:4566"},
	{"ENABLE_METRICS", "false"},
}

// ExportEnvConfig configures ExportEnvFile.
type ExportEnvConfig struct {
	OutputPath string
	Params     *ParameterStore
	Inventory  []Step
	Stderr     io.Writer
}

// ExportEnvFile reads every inventory parameter back from SSM and writes a
// .env file readable by godotenv. Missing parameters are reported and left
// out; the export fails only when none could be read. The file is created
// with mode 0600 because it holds the operator address.
func ExportEnvFile(ctx context.Context, cfg ExportEnvConfig) error {
	var b strings.Builder
	fmt.Fprintf(&b, "# Generated by cmd/ops/bootstrap on %s\n", time.Now().UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "# Source: %s\n\n", cfg.Params.Path(""))
	for _, d := range localDefaults {
		b.WriteString(formatEnvLine(d.Key, d.Value))
	}
	b.WriteString("\n")

	exported := 0
	for _, step := range cfg.Inventory {
		if err := ctx.Err(); err != nil {
			return err
		}
		value, err := cfg.Params.Get(ctx, cfg.Params.Path(step.Key))
		if err != nil {
			fmt.Fprintf(cfg.Stderr, "  WARNING: %s not exported: %v\n", step.EnvVar, err)
			continue
		}
		b.WriteString(formatEnvLine(step.EnvVar, value))
		exported++
	}
	if exported == 0 {
		return errors.New("no parameters could be read from SSM")
	}

	if err := os.WriteFile(cfg.OutputPath, []byte(b.String()), 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", cfg.OutputPath, err)
	}
	fmt.Fprintf(cfg.Stderr, "  Exported %d/%d parameters to %s\n", exported, len(cfg.Inventory), cfg.OutputPath)
	return nil
}

var plainEnvValue = regexp.MustCompile(`^[A-Za-z0-9_./:@+,=-]*$`)

// formatEnvLine renders KEY=value, quoting values godotenv would otherwise
// split, expand or truncate.
func formatEnvLine(key, value string) string {
	switch {
	case plainEnvValue.MatchString(value):
		return fmt.Sprintf("%s=%s\n", key, value)
	case !strings.ContainsAny(value, "'\n"):
		// Single quotes disable escape processing and expansion.
		return fmt.Sprintf("%s='%s'\n", key, value)
	default:
		r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, `$`, `\$`)
		return fmt.Sprintf("%s=\"%s\"\n", key, r.Replace(value))
	}
}
