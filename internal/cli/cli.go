package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/reactgrid/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments on top of the defaults taken from
// the environment. It returns a populated Config, a boolean indicating if the
// program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")

	defaults, err := app.ConfigFromEnv()
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	flagSet := flag.NewFlagSet("reactgrid", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
reactgrid - A host for event-driven state-machine modules.

Usage:
  reactgrid [options] [DEPLOYMENT_PATH]

Arguments:
  DEPLOYMENT_PATH
    Path to a single .hcl file or a directory containing .hcl files.

Options:
`)
		flagSet.PrintDefaults()
		fmt.Fprint(output, `
Every option can also be set through its REACTGRID_* environment variable.
`)
	}

	deploymentFlag := flagSet.String("deployment", "", "Path to the deployment file or directory.")
	dFlag := flagSet.String("d", "", "Path to the deployment file or directory (shorthand).")
	logFormatFlag := flagSet.String("log-format", defaults.LogFormat, "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", defaults.LogLevel, "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	workersFlag := flagSet.Int("workers", defaults.WorkerCount, "Number of concurrent delivery workers.")
	timeoutFlag := flagSet.Duration("handler-timeout", defaults.HandlerTimeout, "Time budget for a single handler invocation. 0 is unlimited.")
	httpPortFlag := flagSet.Int("http-port", defaults.HTTPPort, "Port for the HTTP API (health, modules, trigger). 0 is disabled.")
	otelFlag := flagSet.String("otel-endpoint", defaults.OTelEndpoint, "OTLP/HTTP endpoint for traces. Empty disables tracing.")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	path := defaults.DeploymentPath
	switch {
	case *deploymentFlag != "":
		path = *deploymentFlag
	case *dFlag != "":
		path = *dFlag
	case flagSet.NArg() > 0:
		path = flagSet.Arg(0)
	}
	slog.Debug("Deployment path determined.", "path", path)

	if path == "" {
		slog.Debug("No deployment path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	config, err := app.NewConfig(app.Config{
		DeploymentPath: path,
		LogFormat:      *logFormatFlag,
		LogLevel:       *logLevelFlag,
		HTTPPort:       *httpPortFlag,
		WorkerCount:    *workersFlag,
		HandlerTimeout: *timeoutFlag,
		OTelEndpoint:   *otelFlag,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
