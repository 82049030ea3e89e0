package cli

import (
	"bytes"
	"codeinspector/internal/core/config"
	"codeinspector/internal/core/ports"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const daoSource = `public class Dao {
    public User find(Statement stmt, String userId) throws Exception {
        ResultSet rs = stmt.executeQuery("SELECT * FROM users WHERE id=" + userId);
        return map(rs);
    }
}
`

const cleanSource = `public class Greeter {
    public String greet(String name) {
        return "Hello " + name;
    }
}
`

func TestParseOptions_Defaults(t *testing.T) {
	opts, err := parseOptions(nil, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultPath, opts.configPath)
	assert.False(t, opts.configExplicit)
	assert.Equal(t, "all", opts.engine)
	assert.Empty(t, opts.args)
}

func TestParseOptions_ExplicitConfigAndArgs(t *testing.T) {
	opts, err := parseOptions([]string{"-config", "x.toml", "-once", "-fail-on", "high", "src", "lib"}, io.Discard)
	require.NoError(t, err)
	assert.True(t, opts.configExplicit)
	assert.True(t, opts.once)
	assert.Equal(t, "high", opts.failOn)
	assert.Equal(t, []string{"src", "lib"}, opts.args)
}

func TestParseOptions_UnknownFlag(t *testing.T) {
	var stderr bytes.Buffer
	_, err := parseOptions([]string{"-nope"}, &stderr)
	require.Error(t, err)
	assert.Contains(t, stderr.String(), "flag provided but not defined")
}

func TestValidateOptions(t *testing.T) {
	tests := []struct {
		name    string
		opts    cliOptions
		wantErr string
	}{
		{name: "plain scan", opts: cliOptions{engine: "all"}},
		{name: "watch with ui", opts: cliOptions{engine: "all", watch: true, ui: true}},
		{name: "serve and mcp", opts: cliOptions{engine: "all", serve: true, mcp: true}, wantErr: "cannot be combined"},
		{name: "once and watch", opts: cliOptions{engine: "all", once: true, watch: true}, wantErr: "-once cannot be combined"},
		{name: "watch and remote", opts: cliOptions{engine: "all", watch: true, remote: "http://x"}, wantErr: "-watch and -ui cannot be combined"},
		{name: "serve with paths", opts: cliOptions{engine: "all", serve: true, args: []string{"src"}}, wantErr: "does not accept positional"},
		{name: "compare needs one file", opts: cliOptions{engine: "all", compare: "b.java"}, wantErr: "exactly one file"},
		{name: "syntax needs one file", opts: cliOptions{engine: "all", syntax: true, args: []string{"a", "b"}}, wantErr: "exactly one file"},
		{name: "lang without syntax", opts: cliOptions{engine: "all", lang: "java"}, wantErr: "-lang requires -syntax"},
		{name: "since without history", opts: cliOptions{engine: "all", since: "2026-01-01"}, wantErr: "-since requires -history"},
		{name: "history needs paths", opts: cliOptions{engine: "all", history: true}, wantErr: "at least one"},
		{name: "bad engine", opts: cliOptions{engine: "style"}, wantErr: "unknown engine"},
		{name: "bad severity", opts: cliOptions{engine: "all", failOn: "urgent"}, wantErr: "-fail-on"},
		{name: "bad format", opts: cliOptions{engine: "all", format: "html"}, wantErr: "-format must be one of"},
		{name: "format is case insensitive", opts: cliOptions{engine: "all", format: "JSON"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateOptions(tt.opts)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestApplyOptions_OverridesConfig(t *testing.T) {
	cfg := config.Default()
	cfg.MCP.Enabled = true

	applyOptions(cliOptions{
		args:   []string{"./src"},
		format: "SARIF",
		output: "out/report.sarif",
		failOn: "medium",
		once:   true,
	}, cfg)

	assert.Equal(t, []string{"./src"}, cfg.Scan.Paths)
	assert.Equal(t, "sarif", cfg.Output.Format)
	assert.Equal(t, "out/report.sarif", cfg.Output.Path)
	assert.Equal(t, "MEDIUM", cfg.Security.FailOn)
	assert.False(t, cfg.MCP.Enabled, "an explicit CLI mode must win over mcp.enabled")
}

func TestApplyOptions_ServeFlagWinsOverConfiguredMCP(t *testing.T) {
	cfg := config.Default()
	cfg.MCP.Enabled = true

	applyOptions(cliOptions{serve: true}, cfg)

	assert.True(t, cfg.Server.Enabled)
	assert.False(t, cfg.MCP.Enabled)
}

func TestParseSince(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		want      time.Time
		wantError bool
	}{
		{name: "empty", input: ""},
		{name: "date", input: "2026-02-13", want: time.Date(2026, 2, 13, 0, 0, 0, 0, time.UTC)},
		{name: "rfc3339", input: "2026-02-13T15:00:00+02:00", want: time.Date(2026, 2, 13, 13, 0, 0, 0, time.UTC)},
		{name: "invalid", input: "13/02/2026", wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseSince(tt.input)
			if tt.wantError {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %v want %v", got, tt.want)
		})
	}
}

func TestResolveLogPath_UsesXDGStateHome(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", "/tmp/state")
	assert.Equal(t, filepath.Join("/tmp/state", "codeinspector", "codeinspector.log"), resolveLogPath())
}

type runFixture struct {
	dir        string
	configPath string
	dao        string
	clean      string
}

func newRunFixture(t *testing.T, dbEnabled bool) runFixture {
	t.Helper()
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	require.NoError(t, os.MkdirAll(src, 0o755))

	f := runFixture{
		dir:        dir,
		configPath: filepath.Join(dir, "codeinspector.toml"),
		dao:        filepath.Join(src, "Dao.java"),
		clean:      filepath.Join(src, "Greeter.java"),
	}
	require.NoError(t, os.WriteFile(f.dao, []byte(daoSource), 0o644))
	require.NoError(t, os.WriteFile(f.clean, []byte(cleanSource), 0o644))

	cfg := "[db]\nenabled = false\n"
	if dbEnabled {
		cfg = "[db]\nenabled = true\npath = " + `"` + filepath.ToSlash(filepath.Join(dir, "history.db")) + `"` + "\n"
	}
	require.NoError(t, os.WriteFile(f.configPath, []byte(cfg), 0o644))
	return f
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr, coreAppFactory{})
	return code, stdout.String(), stderr.String()
}

func TestRun_ExitCodes(t *testing.T) {
	f := newRunFixture(t, false)
	src := filepath.Dir(f.dao)

	code, _, _ := runCLI(t, "-bogus")
	assert.Equal(t, exitUsage, code)

	code, _, _ = runCLI(t, "-once", "-watch")
	assert.Equal(t, exitUsage, code)

	code, out, _ := runCLI(t, "-version")
	assert.Equal(t, exitOK, code)
	assert.True(t, strings.HasPrefix(out, "codeinspector v"))

	code, _, _ = runCLI(t, "-config", filepath.Join(f.dir, "missing.toml"), "-once", src)
	assert.Equal(t, exitRuntime, code)

	code, _, _ = runCLI(t, "-config", f.configPath, "-once", "-fail-on", "high", src)
	assert.Equal(t, exitFailGate, code)

	code, _, _ = runCLI(t, "-config", f.configPath, "-once", "-fail-on", "critical", f.clean)
	assert.Equal(t, exitOK, code)

	code, _, _ = runCLI(t, "-config", f.configPath, "-history", src)
	assert.Equal(t, exitRuntime, code, "history needs a database")
}

func TestRun_ScanWritesJSONReport(t *testing.T) {
	f := newRunFixture(t, false)

	code, out, _ := runCLI(t, "-config", f.configPath, "-once", "-format", "json", filepath.Dir(f.dao))
	require.Equal(t, exitOK, code)

	var report struct {
		Files []struct {
			Path string `json:"path"`
		} `json:"files"`
		Summary struct {
			Files    int `json:"files"`
			Critical int `json:"critical"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 2, report.Summary.Files)
	assert.Equal(t, 2, report.Summary.Critical)
	require.Len(t, report.Files, 2)
}

func TestRun_OutputFlagWritesFile(t *testing.T) {
	f := newRunFixture(t, false)
	target := filepath.Join(f.dir, "reports", "scan.tsv")

	code, out, _ := runCLI(t, "-config", f.configPath, "-once", "-format", "tsv", "-output", target, f.dao)
	require.Equal(t, exitOK, code)
	assert.Empty(t, out)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Dao.java")
}

func TestRun_CompareAndSyntax(t *testing.T) {
	f := newRunFixture(t, false)

	code, out, _ := runCLI(t, "-config", f.configPath, "-format", "text", "-compare", f.clean, f.dao)
	require.Equal(t, exitOK, code)
	assert.Contains(t, out, "Duplicate similarity:")
	assert.Contains(t, out, "Diff similarity:")

	code, out, _ = runCLI(t, "-config", f.configPath, "-format", "text", "-syntax", f.clean)
	require.Equal(t, exitOK, code)
	assert.True(t, strings.HasPrefix(out, "Language: java\n"), out)
	assert.Contains(t, out, "Class (Greeter)")

	code, _, _ = runCLI(t, "-config", f.configPath, "-format", "sarif", "-syntax", f.clean)
	assert.Equal(t, exitRuntime, code)
}

func TestRun_HistoryAfterScans(t *testing.T) {
	f := newRunFixture(t, true)

	for i := 0; i < 2; i++ {
		code, _, _ := runCLI(t, "-config", f.configPath, "-once", "-format", "json", f.dao)
		require.Equal(t, exitOK, code)
	}

	code, out, _ := runCLI(t, "-config", f.configPath, "-history", "-format", "json", f.dao)
	require.Equal(t, exitOK, code)

	var trend struct {
		Path     string `json:"path"`
		RunCount int    `json:"runCount"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &trend))
	assert.Equal(t, f.dao, trend.Path)
	assert.Equal(t, 2, trend.RunCount)
}

func TestFailGate(t *testing.T) {
	critical := ports.Report{Summary: ports.ReportSummary{Critical: 1, HighestSeverity: "CRITICAL"}}
	medium := ports.Report{Summary: ports.ReportSummary{Medium: 2, HighestSeverity: "MEDIUM"}}

	assert.Equal(t, exitOK, failGate(critical, ""))
	assert.Equal(t, exitFailGate, failGate(critical, "HIGH"))
	assert.Equal(t, exitFailGate, failGate(medium, "medium"))
	assert.Equal(t, exitOK, failGate(medium, "HIGH"))
	assert.Equal(t, exitOK, failGate(ports.Report{}, "LOW"))
}
