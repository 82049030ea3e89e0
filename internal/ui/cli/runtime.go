package cli

import (
	coreapp "codeinspector/internal/core/app"
	"codeinspector/internal/core/config"
	"codeinspector/internal/core/ports"
	"codeinspector/internal/engine/rules"
	"codeinspector/internal/shared/observability"
	"codeinspector/internal/shared/version"
	"codeinspector/internal/ui/report"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"
)

// Run executes the command line and returns the process exit code.
func Run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return run(ctx, args, os.Stdout, os.Stderr, coreAppFactory{})
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, factory appFactory) int {
	opts, err := parseOptions(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	if opts.version {
		fmt.Fprintf(stdout, "codeinspector v%s\n", version.Version)
		return exitOK
	}
	if err := validateOptions(opts); err != nil {
		fmt.Fprintln(stderr, err.Error())
		return exitUsage
	}

	cleanupLogs := configureLogging(opts.ui, opts.verbose, stderr)
	defer cleanupLogs()

	cfg, err := loadConfig(opts.configPath, opts.configExplicit)
	if err != nil {
		slog.Error("failed to load config", "path", opts.configPath, "error", err)
		return exitRuntime
	}
	applyOptions(opts, cfg)
	if errs := config.Validate(cfg); len(errs) > 0 {
		for _, err := range errs {
			fmt.Fprintln(stderr, err.Error())
		}
		return exitRuntime
	}

	cwd, err := os.Getwd()
	if err != nil {
		slog.Error("failed to detect working directory", "error", err)
		return exitRuntime
	}
	paths, err := config.ResolvePaths(cfg, cwd)
	if err != nil {
		slog.Error("failed to resolve runtime paths", "error", err)
		return exitRuntime
	}

	if cfg.Observability.EnableTracing {
		shutdown, err := observability.InitTracing(ctx, cfg.Observability.OTLPEndpoint)
		if err != nil {
			slog.Error("failed to initialise tracing", "error", err)
			return exitRuntime
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				slog.Warn("failed to flush traces", "error", err)
			}
		}()
	}

	// Modes that never touch the history database run on a store-less app.
	if opts.remote != "" || opts.compare != "" || opts.syntax {
		cfg.DB.Enabled = false
	}

	app, err := factory.New(cfg)
	if err != nil {
		slog.Error("failed to initialise app", "error", err)
		return exitRuntime
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.Close(closeCtx); err != nil {
			slog.Warn("failed to close app", "error", err)
		}
	}()

	env := &runtimeEnv{
		opts:   opts,
		cfg:    cfg,
		paths:  paths,
		app:    app,
		stdout: stdout,
		stderr: stderr,
	}

	switch {
	case cfg.MCP.Enabled:
		return env.runMCP(ctx)
	case cfg.Server.Enabled:
		return env.runServer(ctx)
	case opts.remote != "":
		return env.runRemote(ctx)
	case opts.compare != "":
		return env.runCompare(ctx)
	case opts.syntax:
		return env.runSyntax(ctx)
	case opts.history:
		return env.runHistory(ctx)
	}
	return env.runScan(ctx)
}

// runtimeEnv carries what every mode needs after startup.
type runtimeEnv struct {
	opts   cliOptions
	cfg    *config.Config
	paths  config.ResolvedPaths
	app    *coreapp.App
	stdout io.Writer
	stderr io.Writer
}

func (e *runtimeEnv) fail(err error) int {
	fmt.Fprintln(e.stderr, err.Error())
	return exitRuntime
}

func (e *runtimeEnv) runScan(ctx context.Context) int {
	engines, err := ports.ParseEngines(e.opts.engine)
	if err != nil {
		return e.fail(err)
	}

	start := time.Now()
	result, err := e.app.AnalysisService().Scan(ctx, ports.ScanRequest{
		Paths:       e.cfg.Scan.Paths,
		Engines:     engines,
		SaveHistory: e.cfg.DB.Enabled,
	})
	if err != nil {
		return e.fail(err)
	}
	slog.Info("scan complete",
		"files", result.Summary.Files,
		"issues", result.Summary.Issues(),
		"duration", time.Since(start))
	for _, warning := range result.Warnings {
		slog.Warn("scan warning", "detail", warning)
	}

	live := e.opts.watch || e.opts.ui
	if !e.opts.ui {
		if err := e.emitReport(result); err != nil {
			return e.fail(err)
		}
	}
	if !live {
		return failGate(result, e.cfg.Security.FailOn)
	}
	return e.runLive(ctx)
}

// emitReport writes the report to output.path or stdout.
func (e *runtimeEnv) emitReport(result ports.Report) error {
	opts := report.Options{ProjectRoot: e.paths.ProjectRoot}
	if e.opts.verbose {
		opts.Verbosity = "detailed"
	}
	if e.paths.OutputPath != "" {
		if err := report.Write(e.paths.OutputPath, e.cfg.Output.Format, result, opts); err != nil {
			return fmt.Errorf("write report %q: %w", e.paths.OutputPath, err)
		}
		slog.Info("report written", "path", e.paths.OutputPath, "format", e.cfg.Output.Format)
		return nil
	}
	data, err := report.Render(e.cfg.Output.Format, result, opts)
	if err != nil {
		return err
	}
	_, err = e.stdout.Write(data)
	return err
}

// failGate returns exitFailGate when result holds an issue at or above
// threshold. An empty threshold disables the gate.
func failGate(result ports.Report, threshold string) int {
	if strings.TrimSpace(threshold) == "" {
		return exitOK
	}
	limit, err := rules.ParseSeverity(threshold)
	if err != nil {
		return exitOK
	}
	highest, found := coreapp.HighestSeverity(result)
	if found && highest.AtLeast(limit) {
		slog.Info("fail-on threshold reached", "threshold", limit.String(), "highest", highest.String())
		return exitFailGate
	}
	return exitOK
}

func loadConfig(path string, explicit bool) (*config.Config, error) {
	cfg, err := config.LoadOrDefault(path, explicit)
	if err != nil {
		return nil, err
	}
	config.ApplyEnvOverrides(cfg)
	return cfg, nil
}

func parseSince(value string) (time.Time, error) {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return time.Time{}, nil
	}

	rfc3339, err := time.Parse(time.RFC3339, raw)
	if err == nil {
		return rfc3339.UTC(), nil
	}

	dateOnly, err := time.Parse("2006-01-02", raw)
	if err == nil {
		return dateOnly.UTC(), nil
	}

	return time.Time{}, fmt.Errorf("-since must be RFC3339 or YYYY-MM-DD, got %q", value)
}

// configureLogging installs the default slog logger. The TUI owns the
// terminal, so UI mode logs to a file under the state directory.
func configureLogging(uiMode, verbose bool, fallback io.Writer) func() {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}

	output := fallback
	closeFn := func() {}
	if uiMode {
		logPath := resolveLogPath()
		if err := os.MkdirAll(filepath.Dir(logPath), 0o700); err != nil {
			fmt.Fprintf(fallback, "warning: failed to create log dir for %s: %v\n", logPath, err)
		} else if fi, err := os.Lstat(logPath); err == nil && (fi.Mode()&os.ModeSymlink) != 0 {
			fmt.Fprintf(fallback, "warning: refusing to write logs to symlink path %s\n", logPath)
		} else {
			f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
			if err == nil {
				output = f
				closeFn = func() { _ = f.Close() }
			} else {
				fmt.Fprintf(fallback, "warning: failed to open log file %s: %v\n", logPath, err)
			}
		}
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{Level: logLevel})))
	return closeFn
}

func resolveLogPath() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "codeinspector", "codeinspector.log")
	}

	home, err := os.UserHomeDir()
	if err == nil && home != "" {
		return filepath.Join(home, ".local", "state", "codeinspector", "codeinspector.log")
	}

	return "codeinspector.log"
}
