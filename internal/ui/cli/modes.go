package cli

import (
	"codeinspector/internal/api"
	coreapp "codeinspector/internal/core/app"
	"codeinspector/internal/core/config"
	"codeinspector/internal/core/ports"
	"codeinspector/internal/data/history"
	"codeinspector/internal/engine/compare"
	"codeinspector/internal/engine/syntax"
	mcpruntime "codeinspector/internal/mcp/runtime"
	"codeinspector/internal/mcp/tools"
	"codeinspector/internal/shared/util"
	"codeinspector/internal/ui/report"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

func (e *runtimeEnv) runMCP(ctx context.Context) int {
	srv, err := mcpruntime.New(e.cfg, tools.Deps{
		Service: e.app.AnalysisService(),
		History: e.app.History(),
		Project: e.app.Project(),
	})
	if err != nil {
		return e.fail(fmt.Errorf("build mcp server: %w", err))
	}
	stopObs := e.startObservability(ctx)
	defer stopObs()

	if err := srv.ServeStdio(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("mcp server stopped", "error", err)
		return exitRuntime
	}
	return exitOK
}

func (e *runtimeEnv) runServer(ctx context.Context) int {
	srv, err := api.NewServer(
		e.app.AnalysisService(),
		coreapp.NewHealthService(e.app),
		e.cfg.Server,
		e.cfg.Analysis.MaxSourceBytes,
	)
	if err != nil {
		return e.fail(err)
	}
	if err := srv.ListenAndServe(ctx); err != nil {
		slog.Error("api server stopped", "error", err)
		return exitRuntime
	}
	return exitOK
}

// runRemote reads files locally and sends them to a remote server, then
// reports exactly like a local scan.
func (e *runtimeEnv) runRemote(ctx context.Context) int {
	engines, err := ports.ParseEngines(e.opts.engine)
	if err != nil {
		return e.fail(err)
	}
	client, err := api.NewClient(e.opts.remote, api.ClientOptions{Timeout: e.cfg.Server.RequestTimeout})
	if err != nil {
		return e.fail(err)
	}
	files, err := e.app.ScanDirectories(e.cfg.Scan.Paths)
	if err != nil {
		return e.fail(err)
	}

	result := ports.Report{
		Project:     e.app.Project(),
		GeneratedAt: time.Now().UTC(),
		Engines:     engines.Names(),
		Files:       make([]ports.FileReport, 0, len(files)),
	}
	limit := e.cfg.Analysis.MaxSourceBytes
	for _, path := range files {
		content, err := os.ReadFile(path)
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("read %s: %v", path, err))
			continue
		}
		if limit > 0 && int64(len(content)) > limit {
			result.Warnings = append(result.Warnings, fmt.Sprintf("skip %s: %d bytes exceeds limit of %d", path, len(content), limit))
			continue
		}
		fr, err := client.AnalyzeAll(ctx, path, string(content), engines)
		if err != nil {
			return e.fail(fmt.Errorf("remote analysis of %s: %w", path, err))
		}
		slog.Debug("remote analysis complete", "path", path)
		result.Files = append(result.Files, fr)
	}
	result.SortFiles()
	result.Summary = coreapp.Summarize(result.Files)

	if err := e.emitReport(result); err != nil {
		return e.fail(err)
	}
	return failGate(result, e.cfg.Security.FailOn)
}

func (e *runtimeEnv) runCompare(ctx context.Context) int {
	first, second := e.opts.args[0], e.opts.compare
	code1, err := os.ReadFile(first)
	if err != nil {
		return e.fail(err)
	}
	code2, err := os.ReadFile(second)
	if err != nil {
		return e.fail(err)
	}
	res, err := e.app.AnalysisService().Compare(ctx, string(code1), string(code2))
	if err != nil {
		return e.fail(err)
	}
	return e.emitValue(res, func(w io.Writer) { writeComparison(w, first, second, res) })
}

func (e *runtimeEnv) runSyntax(ctx context.Context) int {
	path := e.opts.args[0]
	code, err := os.ReadFile(path)
	if err != nil {
		return e.fail(err)
	}
	lang := e.opts.lang
	if lang == "" {
		lang = syntax.LanguageForPath(path)
	}
	tree, err := e.app.AnalysisService().ParseSyntax(ctx, lang, string(code))
	if err != nil {
		return e.fail(err)
	}
	return e.emitValue(tree, func(w io.Writer) { writeSyntaxTree(w, tree) })
}

func (e *runtimeEnv) runHistory(ctx context.Context) int {
	store := e.app.History()
	if store == nil {
		return e.fail(fmt.Errorf("-history requires db.enabled=true"))
	}
	since, err := parseSince(e.opts.since)
	if err != nil {
		return e.fail(err)
	}
	files, err := e.app.ScanDirectories(e.cfg.Scan.Paths)
	if err != nil {
		return e.fail(err)
	}

	var trends []history.Trend
	for _, path := range files {
		snapshots, err := store.LoadSnapshots(ctx, e.app.Project(), path, since)
		if err != nil {
			return e.fail(err)
		}
		if len(snapshots) == 0 {
			fmt.Fprintf(e.stderr, "no history for %s\n", path)
			continue
		}
		trend, err := history.BuildTrend(e.app.Project(), path, snapshots)
		if err != nil {
			return e.fail(err)
		}
		trends = append(trends, trend)
	}

	data, err := renderTrends(e.cfg.Output.Format, trends)
	if err != nil {
		return e.fail(err)
	}
	if err := e.write(data); err != nil {
		return e.fail(err)
	}
	return exitOK
}

func renderTrends(format string, trends []history.Trend) ([]byte, error) {
	var out []byte
	switch format {
	case "json":
		if len(trends) == 1 {
			return report.RenderTrendJSON(trends[0])
		}
		if trends == nil {
			trends = []history.Trend{}
		}
		return json.MarshalIndent(trends, "", "  ")
	case "yaml":
		return yaml.Marshal(trends)
	case "tsv":
		for i, trend := range trends {
			if i > 0 {
				out = append(out, '\n')
			}
			out = append(out, "# "+trend.Path+"\n"...)
			tsv, err := report.RenderTrendTSV(trend)
			if err != nil {
				return nil, err
			}
			out = append(out, tsv...)
		}
		return out, nil
	}
	for i, trend := range trends {
		if i > 0 {
			out = append(out, '\n')
		}
		out = append(out, report.RenderTrendText(trend)...)
	}
	return out, nil
}

// emitValue writes v as JSON or YAML when asked, otherwise as text.
func (e *runtimeEnv) emitValue(v any, text func(io.Writer)) int {
	var data []byte
	var err error
	switch e.cfg.Output.Format {
	case "json":
		data, err = json.MarshalIndent(v, "", "  ")
	case "yaml":
		data, err = yaml.Marshal(v)
	case "text":
		var b strings.Builder
		text(&b)
		data = []byte(b.String())
	default:
		err = fmt.Errorf("format %q is not supported here (want text, json or yaml)", e.cfg.Output.Format)
	}
	if err != nil {
		return e.fail(err)
	}
	if err := e.write(data); err != nil {
		return e.fail(err)
	}
	return exitOK
}

func (e *runtimeEnv) write(data []byte) error {
	if e.paths.OutputPath != "" {
		return util.WriteFileWithDirs(e.paths.OutputPath, data, 0o644)
	}
	_, err := e.stdout.Write(data)
	return err
}

func writeComparison(w io.Writer, first, second string, res compare.Result) {
	fmt.Fprintf(w, "Comparing %s with %s\n", first, second)
	fmt.Fprintf(w, "Duplicate similarity: %.2f%%\n", res.DuplicateSimilarity)
	fmt.Fprintf(w, "Diff similarity: %.2f%%\n", res.DiffSimilarity)

	keys := make([]string, 0, len(res.Code1Metrics))
	for k := range res.Code1Metrics {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fmt.Fprintf(w, "\n%-32s %14s %14s\n", "Metric", "First", "Second")
	for _, k := range keys {
		fmt.Fprintf(w, "%-32s %14s %14s\n", k, res.Code1Metrics[k], res.Code2Metrics[k])
	}

	fmt.Fprintf(w, "\nDuplicated lines (%d):\n", len(res.DuplicatedLines))
	for _, line := range res.DuplicatedLines {
		fmt.Fprintf(w, "  %s\n", line)
	}
}

func writeSyntaxTree(w io.Writer, tree syntax.Tree) {
	fmt.Fprintf(w, "Language: %s\n", tree.Language)
	if tree.HasError {
		fmt.Fprintf(w, "Error: %s\n", tree.Error)
	}
	var walk func(n syntax.Node, depth int)
	walk = func(n syntax.Node, depth int) {
		fmt.Fprintf(w, "%s%s [%d:%d-%d:%d]\n", strings.Repeat("  ", depth), n.Type,
			n.StartRow, n.StartColumn, n.EndRow, n.EndColumn)
		for _, child := range n.Children {
			walk(child, depth+1)
		}
	}
	for _, n := range tree.Nodes {
		walk(n, 0)
	}
}

// liveConfigWatcher reloads security rules when the config file changes.
func (e *runtimeEnv) liveConfigWatcher(ctx context.Context) func() {
	path := e.opts.configPath
	if _, err := os.Stat(path); err != nil {
		return func() {}
	}
	w := config.NewWatcher(path, func(next *config.Config) {
		if err := e.app.ReloadRules(next); err != nil {
			slog.Warn("failed to reload rules", "path", path, "error", err)
		}
	})
	if err := w.Start(ctx); err != nil {
		slog.Warn("config watcher unavailable", "path", path, "error", err)
		return func() {}
	}
	return w.Stop
}

func (e *runtimeEnv) runLive(ctx context.Context) int {
	if err := e.app.StartWatcher(e.cfg.Scan.Paths); err != nil {
		return e.fail(fmt.Errorf("start watcher: %w", err))
	}
	stopConfig := e.liveConfigWatcher(ctx)
	defer stopConfig()
	stopObs := e.startObservability(ctx)
	defer stopObs()

	if e.opts.ui {
		if err := runUI(ctx, e.app); err != nil {
			slog.Error("failed to run UI", "error", err)
			return exitRuntime
		}
		return exitOK
	}

	slog.Info("watching for changes", "paths", strings.Join(e.cfg.Scan.Paths, ","))
	<-ctx.Done()
	return exitOK
}

func (e *runtimeEnv) startObservability(ctx context.Context) func() {
	if !e.cfg.Observability.Enabled {
		return func() {}
	}
	sidecar := newMetricsSidecar(coreapp.NewHealthService(e.app))
	if err := sidecar.listen(ctx, fmt.Sprintf(":%d", e.cfg.Observability.Port)); err != nil {
		slog.Warn("metrics sidecar unavailable", "port", e.cfg.Observability.Port, "error", err)
		return func() {}
	}
	return sidecar.shutdown
}
