package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"slices"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/roach88/keyledger/internal/config"
	"github.com/roach88/keyledger/internal/logger"
	"github.com/roach88/keyledger/internal/metrics"
)

// RootOptions holds global flags and the runtime configuration every
// command shares.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	// DotEnv lists .env files loaded before the environment is read.
	DotEnv []string

	Config   *config.Config
	Registry *prometheus.Registry
	Metrics  metrics.Recorder

	metricsServer *http.Server
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the keyledger CLI.
func NewRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keyledger",
		Short: "keyledger - offline PKI and identity bootstrap",
		Long: `keyledger derives a complete certificate chain, per-person keys, token
plans and message-bus identities from one passphrase, and records every
change as an event in an append-only ledger.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return opts.setup(cmd.ErrOrStderr())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			opts.shutdown()
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewStrengthCommand(opts))
	cmd.AddCommand(NewBootstrapCommand(opts))
	cmd.AddCommand(NewReplayCommand(opts))
	cmd.AddCommand(NewInspectCommand(opts))
	cmd.AddCommand(NewEventsCommand(opts))
	cmd.AddCommand(NewScenarioCommand(opts))
	cmd.AddCommand(NewVerifyCommand(opts))

	return cmd
}

// Execute runs the CLI and returns the process exit code. Errors are
// printed in the selected format.
func Execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	opts := &RootOptions{DotEnv: []string{".env"}}
	cmd := NewRootCommand(opts)
	cmd.SetArgs(args)
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	opts.shutdown()
	if err == nil {
		return ExitSuccess
	}

	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		// cobra flag and argument errors
		err = WrapExitError(ExitCommandError, "invalid invocation", err)
	}
	f := opts.formatter(stdout, stderr)
	_ = f.Error(ErrorCode(err), err.Error(), nil)
	return GetExitCode(err)
}

// setup loads configuration, installs the logger and, when configured,
// starts the metrics listener.
func (o *RootOptions) setup(logOut io.Writer) error {
	if err := config.LoadDotEnv(o.DotEnv...); err != nil {
		return WrapExitError(ExitCommandError, "failed to load .env", err)
	}
	cfg, err := config.Load()
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	o.Config = cfg

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	if o.Verbose {
		level = slog.LevelDebug
	}
	logger.SetupDefault(logOut, level, cfg.LogFormat)

	o.Registry = prometheus.NewRegistry()
	o.Metrics = metrics.NewCollector(o.Registry)

	if cfg.MetricsAddr == "" {
		return nil
	}
	ln, err := net.Listen("tcp", cfg.MetricsAddr)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to start metrics listener", err)
	}
	o.metricsServer = &http.Server{
		Handler:           metrics.SetupMetricsRoute(o.Registry),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := o.metricsServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server failed", "error", err)
		}
	}()
	slog.Info("serving metrics", "addr", ln.Addr().String())
	return nil
}

func (o *RootOptions) shutdown() {
	if o.metricsServer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := o.metricsServer.Shutdown(ctx); err != nil {
		slog.Error("metrics server shutdown", "error", err)
	}
	o.metricsServer = nil
}

func (o *RootOptions) formatter(out, errOut io.Writer) *OutputFormatter {
	return &OutputFormatter{Format: o.Format, Writer: out, ErrWriter: errOut, Verbose: o.Verbose}
}

// dbPath resolves the --db flag against the configured default.
func (o *RootOptions) dbPath(flag string) string {
	if flag != "" || o.Config == nil {
		return flag
	}
	return o.Config.DBPath
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
