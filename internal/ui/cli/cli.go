package cli

import (
	"codeinspector/internal/core/config"
	"codeinspector/internal/core/ports"
	"codeinspector/internal/engine/rules"
	"flag"
	"fmt"
	"io"
	"strings"
)

const (
	exitOK       = 0
	exitRuntime  = 1
	exitUsage    = 2
	exitFailGate = 3
)

type cliOptions struct {
	configPath     string
	configExplicit bool
	once           bool
	ui             bool
	watch          bool
	serve          bool
	mcp            bool
	remote         string
	format         string
	output         string
	engine         string
	compare        string
	syntax         bool
	lang           string
	history        bool
	since          string
	failOn         string
	verbose        bool
	version        bool
	args           []string
}

func parseOptions(args []string, stderr io.Writer) (cliOptions, error) {
	var opts cliOptions
	fs := flag.NewFlagSet("codeinspector", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&opts.configPath, "config", config.DefaultPath, "Path to config file")
	fs.BoolVar(&opts.once, "once", false, "Run a single scan and exit")
	fs.BoolVar(&opts.ui, "ui", false, "Enable terminal UI mode (implies -watch)")
	fs.BoolVar(&opts.watch, "watch", false, "Re-analyse files when they change")
	fs.BoolVar(&opts.serve, "serve", false, "Serve the HTTP API (overrides server.enabled)")
	fs.BoolVar(&opts.mcp, "mcp", false, "Serve MCP tools over stdio (overrides mcp.enabled)")
	fs.StringVar(&opts.remote, "remote", "", "Analyse through a remote codeinspector server at this base URL")
	fs.StringVar(&opts.format, "format", "", "Report format: "+strings.Join(config.OutputFormats, ", "))
	fs.StringVar(&opts.output, "output", "", "Write the report to this path instead of stdout")
	fs.StringVar(&opts.engine, "engine", "all", "Engines to run: all or a comma separated list of structure, metrics, smells, security")
	fs.StringVar(&opts.compare, "compare", "", "Compare the single positional file with this file")
	fs.BoolVar(&opts.syntax, "syntax", false, "Print the tree-sitter node tree of the single positional file")
	fs.StringVar(&opts.lang, "lang", "", "Grammar for -syntax (default: detected from the file extension)")
	fs.BoolVar(&opts.history, "history", false, "Print score trends from the history database for the given files")
	fs.StringVar(&opts.since, "since", "", "Only include history at/after this timestamp (RFC3339 or YYYY-MM-DD)")
	fs.StringVar(&opts.failOn, "fail-on", "", "Exit with status 3 when an issue at or above this severity is found")
	fs.BoolVar(&opts.verbose, "verbose", false, "Enable verbose logging")
	fs.BoolVar(&opts.version, "version", false, "Print version and exit")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, err
	}
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "config" {
			opts.configExplicit = true
		}
	})

	opts.args = fs.Args()
	return opts, nil
}

// validateOptions rejects flag combinations that cannot run together.
func validateOptions(opts cliOptions) error {
	modes := make([]string, 0, 5)
	if opts.mcp {
		modes = append(modes, "-mcp")
	}
	if opts.serve {
		modes = append(modes, "-serve")
	}
	if opts.remote != "" {
		modes = append(modes, "-remote")
	}
	if opts.compare != "" {
		modes = append(modes, "-compare")
	}
	if opts.syntax {
		modes = append(modes, "-syntax")
	}
	if opts.history {
		modes = append(modes, "-history")
	}
	if len(modes) > 1 {
		return fmt.Errorf("%s cannot be combined", strings.Join(modes, ", "))
	}

	live := opts.watch || opts.ui
	if opts.once && live {
		return fmt.Errorf("-once cannot be combined with -watch or -ui")
	}
	if live && len(modes) > 0 {
		return fmt.Errorf("-watch and -ui cannot be combined with %s", modes[0])
	}
	if (opts.mcp || opts.serve) && len(opts.args) > 0 {
		return fmt.Errorf("%s does not accept positional path arguments", modes[0])
	}
	if (opts.compare != "" || opts.syntax) && len(opts.args) != 1 {
		return fmt.Errorf("%s requires exactly one file argument", modes[0])
	}
	if opts.lang != "" && !opts.syntax {
		return fmt.Errorf("-lang requires -syntax")
	}
	if opts.since != "" && !opts.history {
		return fmt.Errorf("-since requires -history")
	}
	if opts.history && len(opts.args) == 0 {
		return fmt.Errorf("-history requires at least one file or directory argument")
	}
	if _, err := ports.ParseEngines(opts.engine); err != nil {
		return err
	}
	if opts.failOn != "" {
		if _, err := rules.ParseSeverity(opts.failOn); err != nil {
			return fmt.Errorf("-fail-on: %w", err)
		}
	}
	if opts.format != "" && !validFormat(opts.format) {
		return fmt.Errorf("-format must be one of: %s", strings.Join(config.OutputFormats, ", "))
	}
	return nil
}

func validFormat(format string) bool {
	format = strings.ToLower(strings.TrimSpace(format))
	for _, f := range config.OutputFormats {
		if f == format {
			return true
		}
	}
	return false
}

// applyOptions layers flags over the loaded configuration.
func applyOptions(opts cliOptions, cfg *config.Config) {
	if len(opts.args) > 0 {
		cfg.Scan.Paths = append([]string(nil), opts.args...)
	}
	if opts.format != "" {
		cfg.Output.Format = strings.ToLower(strings.TrimSpace(opts.format))
	}
	if opts.output != "" {
		cfg.Output.Path = opts.output
	}
	if opts.failOn != "" {
		cfg.Security.FailOn = strings.ToUpper(strings.TrimSpace(opts.failOn))
	}
	if opts.serve {
		cfg.Server.Enabled = true
	}
	if opts.mcp {
		cfg.MCP.Enabled = true
	}
	// An explicit CLI mode wins over server/mcp modes enabled in the file.
	if opts.remote != "" || opts.compare != "" || opts.syntax || opts.history ||
		opts.once || opts.watch || opts.ui {
		cfg.Server.Enabled = false
		cfg.MCP.Enabled = false
	}
	if cfg.MCP.Enabled && cfg.Server.Enabled {
		cfg.Server.Enabled = opts.serve
		cfg.MCP.Enabled = !opts.serve
	}
}
