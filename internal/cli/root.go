// Package cli implements the sicali command line client.
package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"

	"github.com/noah-isme/sicali-client/internal/app"
	"github.com/noah-isme/sicali-client/pkg/config"
	"github.com/noah-isme/sicali-client/pkg/logger"
)

// AppFactory builds the application for a command invocation.
type AppFactory func(ctx context.Context, opts *RootOptions) (*app.App, error)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "text" | "json" | "yaml"
	Timeout time.Duration
	BaseURL string

	factory AppFactory
	app     *app.App
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json", "yaml"}

// Execute runs the root command with os.Args and returns the process exit code.
func Execute() int {
	cmd, opts := NewRootCommand(nil)
	err := cmd.Execute()
	opts.Close()
	if err != nil {
		var exitErr *ExitError
		if !errors.As(err, &exitErr) {
			// cobra errors: unknown command, bad flags, wrong argument count
			fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
			return ExitCommandError
		}
	}
	return GetExitCode(err)
}

// NewRootCommand creates the root command. A nil factory loads configuration
// from the environment.
func NewRootCommand(factory AppFactory) (*cobra.Command, *RootOptions) {
	if factory == nil {
		factory = DefaultAppFactory
	}
	opts := &RootOptions{factory: factory}

	cmd := &cobra.Command{
		Use:   "sicali",
		Short: "SICALI school management client",
		Long:  "Command line client for the SICALI backend: users, groups, enrollments, attendance and grades.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				msg := fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
				fmt.Fprintln(cmd.ErrOrStderr(), "Error:", msg)
				return NewExitError(ExitCommandError, msg)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json|yaml)")
	cmd.PersistentFlags().DurationVar(&opts.Timeout, "timeout", 0, "request timeout (default from API_TIMEOUT)")
	cmd.PersistentFlags().StringVar(&opts.BaseURL, "base-url", "", "backend base URL (default from API_BASE_URL)")

	cmd.AddCommand(NewLoginCommand(opts))
	cmd.AddCommand(NewLogoutCommand(opts))
	cmd.AddCommand(NewWhoamiCommand(opts))
	cmd.AddCommand(NewCyclesCommand(opts))
	cmd.AddCommand(NewUsersCommand(opts))
	cmd.AddCommand(NewTutorsCommand(opts))
	cmd.AddCommand(NewGroupsCommand(opts))
	cmd.AddCommand(NewSubjectsCommand(opts))
	cmd.AddCommand(NewGroupSubjectsCommand(opts))
	cmd.AddCommand(NewEnrollmentsCommand(opts))
	cmd.AddCommand(NewAttendanceCommand(opts))
	cmd.AddCommand(NewGradesCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))

	return cmd, opts
}

// DefaultAppFactory loads configuration, applies flag overrides and waits for
// the session store.
func DefaultAppFactory(ctx context.Context, opts *RootOptions) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if opts.BaseURL != "" {
		cfg.API.BaseURL = opts.BaseURL
	}
	if opts.Timeout > 0 {
		cfg.API.Timeout = opts.Timeout
	}

	logOpts := []logger.Option{logger.WithOutput("stderr")}
	if !opts.Verbose {
		logOpts = append(logOpts, logger.WithLevel(zapcore.WarnLevel))
	}
	log, err := logger.New(cfg, logOpts...)
	if err != nil {
		return nil, err
	}

	a, err := app.New(cfg, log)
	if err != nil {
		return nil, err
	}
	if err := a.Wait(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// App returns the application, building it on first use.
func (o *RootOptions) App(ctx context.Context) (*app.App, error) {
	if o.app != nil {
		return o.app, nil
	}
	a, err := o.factory(ctx, o)
	if err != nil {
		return nil, err
	}
	o.app = a
	return a, nil
}

// Close releases the application if one was built.
func (o *RootOptions) Close() {
	if o.app != nil {
		_ = o.app.Close()
	}
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// run resolves the application and calls fn with a context bounded by --timeout.
// Errors returned by fn are printed and mapped to exit codes.
func run(cmd *cobra.Command, opts *RootOptions, fn func(ctx context.Context, a *app.App, out *OutputFormatter) error) error {
	out := opts.formatter(cmd)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	a, err := opts.App(ctx)
	if err != nil {
		return out.Error(WrapExitError(ExitCommandError, "failed to initialize", err))
	}
	out.VerboseLog("backend: %s", a.Client.BaseURL())

	if err := fn(ctx, a, out); err != nil {
		return out.Error(err)
	}
	return nil
}

// usageError reports bad arguments with exit code 2.
func usageError(format string, args ...any) error {
	return NewExitError(ExitCommandError, fmt.Sprintf(format, args...))
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, usageError("invalid id %q", raw)
	}
	return id, nil
}

// parseIDs accepts a comma separated list such as "1,2,3".
func parseIDs(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		id, err := parseID(part)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, usageError("at least one id is required")
	}
	return ids, nil
}

// parsePairs splits "k=v,k=v" into id keyed values, preserving order.
func parsePairs(raw string) ([]int64, []string, error) {
	var ids []int64
	var values []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			return nil, nil, usageError("expected id=value, got %q", part)
		}
		id, err := parseID(key)
		if err != nil {
			return nil, nil, err
		}
		ids = append(ids, id)
		values = append(values, strings.TrimSpace(value))
	}
	if len(ids) == 0 {
		return nil, nil, usageError("at least one id=value pair is required")
	}
	return ids, values, nil
}

// optionalScore reads a float flag only when it was set.
func optionalScore(cmd *cobra.Command, name string) (*float64, error) {
	if !cmd.Flags().Changed(name) {
		return nil, nil
	}
	v, err := cmd.Flags().GetFloat64(name)
	if err != nil {
		return nil, usageError("invalid --%s: %v", name, err)
	}
	return &v, nil
}

func today() string {
	return time.Now().Format("2006-01-02")
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
