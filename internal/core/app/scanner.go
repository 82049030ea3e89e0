package app

import (
	"codeinspector/internal/core/errors"
	"codeinspector/internal/core/ports"
	"codeinspector/internal/data/history"
	"codeinspector/internal/engine/rules"
	"codeinspector/internal/shared/observability"
	"codeinspector/internal/shared/util"
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ScanDirectories expands paths into the sorted list of source files that
// pass the extension filter and exclude patterns. Explicit file arguments
// skip the extension filter.
func (a *App) ScanDirectories(paths []string) ([]string, error) {
	excludeDirs, err := util.NewPathMatcher(a.Config.Scan.Exclude.Dirs)
	if err != nil {
		return nil, fmt.Errorf("invalid exclude dir pattern: %w", err)
	}
	excludeFiles, err := util.NewPathMatcher(a.Config.Scan.Exclude.Files)
	if err != nil {
		return nil, fmt.Errorf("invalid exclude file pattern: %w", err)
	}
	extensions := make(map[string]bool, len(a.Config.Scan.Extensions))
	for _, ext := range a.Config.Scan.Extensions {
		extensions[strings.ToLower(ext)] = true
	}

	seen := make(map[string]bool)
	var files []string
	add := func(path string) {
		clean := filepath.Clean(path)
		if !seen[clean] {
			seen[clean] = true
			files = append(files, clean)
		}
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, errors.AddContext(errors.Wrap(err, errors.CodeNotFound, "scan path not found"), errors.CtxPath, root)
		}
		if !info.IsDir() {
			add(root)
			continue
		}
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != root && excludeDirs.Match(path) {
					return filepath.SkipDir
				}
				return nil
			}
			if len(extensions) > 0 && !extensions[strings.ToLower(filepath.Ext(path))] {
				return nil
			}
			if excludeFiles.Match(path) {
				return nil
			}
			add(path)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	sort.Strings(files)
	return files, nil
}

// Scan analyses every file under req.Paths (or scan.paths when empty) and
// optionally stores one history snapshot per file under a fresh run id.
func (a *App) Scan(ctx context.Context, req ports.ScanRequest) (ports.Report, error) {
	roots := req.Paths
	if len(roots) == 0 {
		roots = a.Config.Scan.Paths
	}
	engines := req.Engines
	if engines == nil {
		engines, _ = ports.ParseEngines("all")
	}

	files, err := a.ScanDirectories(roots)
	if err != nil {
		return ports.Report{}, errors.AddContext(err, errors.CtxOperation, "scan_directories")
	}

	report := ports.Report{
		Project:     a.Project(),
		GeneratedAt: a.now(),
		Engines:     engines.Names(),
		Files:       make([]ports.FileReport, 0, len(files)),
	}
	limit := a.Config.Analysis.MaxSourceBytes
	for i, path := range files {
		if err := ctx.Err(); err != nil {
			return ports.Report{}, err
		}
		content, err := os.ReadFile(path)
		if err != nil {
			report.Warnings = append(report.Warnings, fmt.Sprintf("read %s: %v", path, err))
			continue
		}
		if limit > 0 && int64(len(content)) > limit {
			observability.RejectedSourcesTotal.WithLabelValues("too_large").Inc()
			report.Warnings = append(report.Warnings, fmt.Sprintf("skip %s: %d bytes exceeds limit of %d", path, len(content), limit))
			continue
		}
		fr, err := a.analyze(ctx, path, string(content), engines)
		if err != nil {
			return ports.Report{}, errors.AddContext(err, errors.CtxPath, path)
		}
		observability.FilesAnalyzedTotal.Inc()
		report.Files = append(report.Files, fr)
		a.storeResult(fr)

		if i > 0 && i%100 == 0 {
			stats := util.ReadRuntimeStats()
			slog.Debug("scan progress", "files", i, "heap_mb", stats.HeapAllocMB, "goroutines", stats.Goroutines)
		}
	}
	report.Summary = Summarize(report.Files)

	if req.SaveHistory && a.history != nil && len(report.Files) > 0 {
		runID := history.NewRunID()
		saved, err := a.history.SaveRun(ctx, Snapshots(report.Project, runID, report.Files))
		if err != nil {
			observability.HistoryWritesTotal.WithLabelValues("error").Inc()
			report.Warnings = append(report.Warnings, fmt.Sprintf("save history: %v", err))
		} else {
			observability.HistoryWritesTotal.WithLabelValues("ok").Add(float64(len(saved)))
			report.RunID = runID
		}
	}
	return report, nil
}

// Snapshots converts file reports into history rows sharing one run id.
func Snapshots(project, runID string, files []ports.FileReport) []history.Snapshot {
	out := make([]history.Snapshot, 0, len(files))
	for _, f := range files {
		s := f.Scores
		out = append(out, history.Snapshot{
			RunID:           runID,
			Project:         project,
			Path:            f.Path,
			Timestamp:       f.AnalyzedAt,
			LinesOfCode:     s.LinesOfCode,
			Cyclomatic:      s.Cyclomatic,
			Maintainability: s.Maintainability,
			SmellScore:      s.SmellScore,
			RiskScore:       s.RiskScore,
			SecurityScore:   s.SecurityScore,
			QualityScore:    s.QualityScore,
			Critical:        s.Critical,
			High:            s.High,
			Medium:          s.Medium,
			Low:             s.Low,
		})
	}
	return out
}

// Summarize totals issue counts and averages scores over files. Averages
// only include files where the corresponding engine ran.
func Summarize(files []ports.FileReport) ports.ReportSummary {
	var sum ports.ReportSummary
	sum.Files = len(files)

	var mi, smell, risk float64
	var miN, smellN, riskN int
	found := false
	var highest rules.Severity
	for _, f := range files {
		sum.LinesOfCode += f.Scores.LinesOfCode
		sum.Critical += f.Scores.Critical
		sum.High += f.Scores.High
		sum.Medium += f.Scores.Medium
		sum.Low += f.Scores.Low
		if f.Metrics != nil {
			mi += f.Scores.Maintainability
			miN++
		}
		if f.Smells != nil {
			smell += f.Scores.SmellScore
			smellN++
		}
		if f.Security != nil {
			risk += f.Scores.RiskScore
			riskN++
			if sev, ok := f.Security.HighestSeverity(); ok && (!found || sev > highest) {
				highest = sev
				found = true
			}
		}
	}
	sum.AvgMaintainability = average(mi, miN)
	sum.AvgSmellScore = average(smell, smellN)
	sum.AvgRiskScore = average(risk, riskN)
	if found {
		sum.HighestSeverity = highest.String()
	}
	return sum
}

// HighestSeverity returns the most urgent issue severity in report.
func HighestSeverity(report ports.Report) (rules.Severity, bool) {
	if report.Summary.HighestSeverity == "" {
		return rules.Low, false
	}
	sev, err := rules.ParseSeverity(report.Summary.HighestSeverity)
	if err != nil {
		return rules.Low, false
	}
	return sev, true
}

func average(total float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return round2(total / float64(n))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
