package ports

import (
	"codeinspector/internal/data/history"
	"codeinspector/internal/engine/compare"
	"codeinspector/internal/engine/security"
	"codeinspector/internal/engine/smells"
	"codeinspector/internal/engine/structure"
	"codeinspector/internal/engine/syntax"
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Engine names one of the four analysis engines.
type Engine string

const (
	EngineStructure Engine = "structure"
	EngineMetrics   Engine = "metrics"
	EngineSmells    Engine = "smells"
	EngineSecurity  Engine = "security"
)

// AllEngines lists every engine in report order.
var AllEngines = []Engine{EngineStructure, EngineMetrics, EngineSmells, EngineSecurity}

// EngineSet selects which engines a composite analysis runs.
type EngineSet map[Engine]bool

// ParseEngines accepts "all" or a comma separated list of engine names.
func ParseEngines(value string) (EngineSet, error) {
	set := make(EngineSet)
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" || value == "all" {
		for _, e := range AllEngines {
			set[e] = true
		}
		return set, nil
	}
	for _, part := range strings.Split(value, ",") {
		name := Engine(strings.TrimSpace(part))
		if name == "" {
			continue
		}
		known := false
		for _, e := range AllEngines {
			if e == name {
				known = true
				break
			}
		}
		if !known {
			return nil, fmt.Errorf("unknown engine %q (want all, structure, metrics, smells or security)", name)
		}
		set[name] = true
	}
	if len(set) == 0 {
		return nil, fmt.Errorf("no engines selected")
	}
	return set, nil
}

// Names returns the selected engines in report order.
func (s EngineSet) Names() []string {
	out := make([]string, 0, len(s))
	for _, e := range AllEngines {
		if s[e] {
			out = append(out, string(e))
		}
	}
	return out
}

// FileReport holds the output of every selected engine for one source text.
// Engines that were not selected leave their field nil.
type FileReport struct {
	Path       string            `json:"path" yaml:"path"`
	Language   string            `json:"language,omitempty" yaml:"language,omitempty"`
	Bytes      int               `json:"bytes" yaml:"bytes"`
	AnalyzedAt time.Time         `json:"analyzedAt" yaml:"analyzed_at"`
	Structure  *structure.Result `json:"structure,omitempty" yaml:"structure,omitempty"`
	Metrics    map[string]string `json:"metrics,omitempty" yaml:"metrics,omitempty"`
	Smells     *smells.Result    `json:"smells,omitempty" yaml:"smells,omitempty"`
	Security   *security.Result  `json:"security,omitempty" yaml:"security,omitempty"`
	Scores     FileScores        `json:"scores" yaml:"scores"`
}

// FileScores are the headline numbers kept in history and shown in the TUI.
type FileScores struct {
	LinesOfCode     int     `json:"linesOfCode" yaml:"lines_of_code"`
	Cyclomatic      int     `json:"cyclomatic" yaml:"cyclomatic"`
	Maintainability float64 `json:"maintainability" yaml:"maintainability"`
	SmellScore      float64 `json:"smellScore" yaml:"smell_score"`
	RiskScore       float64 `json:"riskScore" yaml:"risk_score"`
	SecurityScore   float64 `json:"securityScore" yaml:"security_score"`
	QualityScore    float64 `json:"qualityScore" yaml:"quality_score"`
	Critical        int     `json:"critical" yaml:"critical"`
	High            int     `json:"high" yaml:"high"`
	Medium          int     `json:"medium" yaml:"medium"`
	Low             int     `json:"low" yaml:"low"`
}

// Issues is the total number of security findings.
func (s FileScores) Issues() int {
	return s.Critical + s.High + s.Medium + s.Low
}

// Report is the composite result of a scan over one or more files.
type Report struct {
	Project     string        `json:"project" yaml:"project"`
	RunID       string        `json:"runId,omitempty" yaml:"run_id,omitempty"`
	GeneratedAt time.Time     `json:"generatedAt" yaml:"generated_at"`
	Engines     []string      `json:"engines" yaml:"engines"`
	Files       []FileReport  `json:"files" yaml:"files"`
	Summary     ReportSummary `json:"summary" yaml:"summary"`
	Warnings    []string      `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

type ReportSummary struct {
	Files              int     `json:"files" yaml:"files"`
	LinesOfCode        int     `json:"linesOfCode" yaml:"lines_of_code"`
	Critical           int     `json:"critical" yaml:"critical"`
	High               int     `json:"high" yaml:"high"`
	Medium             int     `json:"medium" yaml:"medium"`
	Low                int     `json:"low" yaml:"low"`
	AvgMaintainability float64 `json:"avgMaintainability" yaml:"avg_maintainability"`
	AvgSmellScore      float64 `json:"avgSmellScore" yaml:"avg_smell_score"`
	AvgRiskScore       float64 `json:"avgRiskScore" yaml:"avg_risk_score"`
	HighestSeverity    string  `json:"highestSeverity,omitempty" yaml:"highest_severity,omitempty"`
}

// Issues is the total number of security findings across all files.
func (s ReportSummary) Issues() int {
	return s.Critical + s.High + s.Medium + s.Low
}

// SortFiles orders files by path so reports are stable.
func (r *Report) SortFiles() {
	sort.Slice(r.Files, func(i, j int) bool { return r.Files[i].Path < r.Files[j].Path })
}

// ScanRequest defines a scan operation request for driving adapters.
type ScanRequest struct {
	Paths   []string
	Engines EngineSet
	// SaveHistory stores one snapshot per analysed file when a history
	// store is configured.
	SaveHistory bool
}

// AnalysisService is the driving port shared by the CLI, the HTTP API and
// the MCP tools.
type AnalysisService interface {
	AnalyzeStructure(ctx context.Context, code string) (structure.Result, error)
	AnalyzeMetrics(ctx context.Context, code string) (map[string]string, error)
	AnalyzeSmells(ctx context.Context, code string) (smells.Result, error)
	AnalyzeSecurity(ctx context.Context, code string) (security.Result, error)
	AnalyzeAll(ctx context.Context, path, code string, engines EngineSet) (FileReport, error)
	Compare(ctx context.Context, code1, code2 string) (compare.Result, error)
	ParseSyntax(ctx context.Context, language, code string) (syntax.Tree, error)
	Scan(ctx context.Context, req ScanRequest) (Report, error)
}

// HistoryStore abstracts snapshot persistence for trend workflows.
type HistoryStore interface {
	SaveRun(ctx context.Context, snapshots []history.Snapshot) ([]history.Snapshot, error)
	LoadSnapshots(ctx context.Context, project, path string, since time.Time) ([]history.Snapshot, error)
	LatestRun(ctx context.Context, project string) (history.Run, bool, error)
	Trend(ctx context.Context, project, path string) (history.Trend, error)
	Ping(ctx context.Context) error
	Close() error
}

// WriteRequest carries one batch of snapshots to the history writer.
type WriteRequest struct {
	Snapshots  []history.Snapshot
	EnqueuedAt time.Time
}

type EnqueueResult string

const (
	EnqueueAccepted EnqueueResult = "accepted"
	// EnqueueEvicted means the request was queued by discarding the oldest
	// pending one.
	EnqueueEvicted EnqueueResult = "evicted"
	EnqueueDropped EnqueueResult = "dropped"
)

// WriteQueuePort buffers history writes produced by watch-mode re-analysis.
type WriteQueuePort interface {
	Enqueue(req WriteRequest) EnqueueResult
	DequeueBatch(ctx context.Context, maxItems int, wait time.Duration) ([]WriteRequest, error)
	Close() error
}
