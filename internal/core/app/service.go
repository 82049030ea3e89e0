package app

import (
	"codeinspector/internal/core/errors"
	"codeinspector/internal/core/ports"
	"codeinspector/internal/engine/compare"
	"codeinspector/internal/engine/security"
	"codeinspector/internal/engine/smells"
	"codeinspector/internal/engine/structure"
	"codeinspector/internal/engine/syntax"
	"codeinspector/internal/shared/observability"
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type analysisService struct {
	app *App
}

var _ ports.AnalysisService = (*analysisService)(nil)

func NewAnalysisService(app *App) ports.AnalysisService {
	return &analysisService{app: app}
}

func (a *App) AnalysisService() ports.AnalysisService {
	return NewAnalysisService(a)
}

// admit rejects work for a canceled context or a source over the
// configured size limit.
func (s *analysisService) admit(ctx context.Context, engine string, sources ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.app == nil || s.app.Analyzer() == nil {
		return fmt.Errorf("app is required")
	}
	limit := s.app.Config.Analysis.MaxSourceBytes
	for _, src := range sources {
		observability.SourceBytes.Observe(float64(len(src)))
		if limit > 0 && int64(len(src)) > limit {
			observability.RejectedSourcesTotal.WithLabelValues("too_large").Inc()
			err := errors.New(errors.CodeTooLarge, fmt.Sprintf("source is %d bytes, limit is %d", len(src), limit))
			err = errors.AddContext(err, errors.CtxLimit, limit)
			return errors.AddContext(err, errors.CtxEngine, engine)
		}
	}
	return nil
}

func (s *analysisService) span(ctx context.Context, name string, size int) (context.Context, trace.Span) {
	return observability.Tracer.Start(ctx, "analysisService."+name,
		trace.WithAttributes(attribute.Int("source.bytes", size)))
}

func finish(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// timed runs fn and records its duration under the engine label.
func timed(engine ports.Engine, fn func()) {
	start := time.Now()
	fn()
	observability.AnalysisDuration.WithLabelValues(string(engine)).Observe(time.Since(start).Seconds())
}

func (s *analysisService) AnalyzeStructure(ctx context.Context, code string) (res structure.Result, err error) {
	ctx, span := s.span(ctx, "AnalyzeStructure", len(code))
	defer func() { finish(span, err) }()

	if err = s.admit(ctx, string(ports.EngineStructure), code); err != nil {
		return structure.Result{}, err
	}
	timed(ports.EngineStructure, func() { res = s.app.Analyzer().Structure.Parse(code) })
	return res, nil
}

func (s *analysisService) AnalyzeMetrics(ctx context.Context, code string) (res map[string]string, err error) {
	ctx, span := s.span(ctx, "AnalyzeMetrics", len(code))
	defer func() { finish(span, err) }()

	if err = s.admit(ctx, string(ports.EngineMetrics), code); err != nil {
		return nil, err
	}
	timed(ports.EngineMetrics, func() { res = s.app.Analyzer().Metrics.Analyze(code) })
	return res, nil
}

func (s *analysisService) AnalyzeSmells(ctx context.Context, code string) (res smells.Result, err error) {
	ctx, span := s.span(ctx, "AnalyzeSmells", len(code))
	defer func() { finish(span, err) }()

	if err = s.admit(ctx, string(ports.EngineSmells), code); err != nil {
		return smells.Result{}, err
	}
	timed(ports.EngineSmells, func() { res = s.app.Analyzer().Smells.Analyze(code) })
	return res, nil
}

func (s *analysisService) AnalyzeSecurity(ctx context.Context, code string) (res security.Result, err error) {
	ctx, span := s.span(ctx, "AnalyzeSecurity", len(code))
	defer func() { finish(span, err) }()

	if err = s.admit(ctx, string(ports.EngineSecurity), code); err != nil {
		return security.Result{}, err
	}
	timed(ports.EngineSecurity, func() { res = s.app.Analyzer().Security.Analyze(code) })
	recordIssues(res)
	span.SetAttributes(attribute.Int("security.issues", len(res.Issues())))
	return res, nil
}

func recordIssues(res security.Result) {
	for _, issue := range res.Issues() {
		observability.IssuesTotal.WithLabelValues(issue.Severity.String()).Inc()
	}
}

// AnalyzeAll runs the selected engines over one source text. A nil engine
// set runs all four.
func (s *analysisService) AnalyzeAll(ctx context.Context, path, code string, engines ports.EngineSet) (report ports.FileReport, err error) {
	ctx, span := s.span(ctx, "AnalyzeAll", len(code))
	span.SetAttributes(attribute.String("path", path))
	defer func() { finish(span, err) }()

	if err = s.admit(ctx, "all", code); err != nil {
		return ports.FileReport{}, errors.AddContext(err, errors.CtxPath, path)
	}
	return s.app.analyze(ctx, path, code, engines)
}

func (a *App) analyze(ctx context.Context, path, code string, engines ports.EngineSet) (ports.FileReport, error) {
	if engines == nil {
		engines, _ = ports.ParseEngines("all")
	}
	report := ports.FileReport{
		Path:       path,
		Language:   syntax.LanguageForPath(path),
		Bytes:      len(code),
		AnalyzedAt: a.now(),
	}

	analyzer := a.Analyzer()
	for _, engine := range ports.AllEngines {
		if !engines[engine] {
			continue
		}
		if err := ctx.Err(); err != nil {
			return ports.FileReport{}, err
		}
		switch engine {
		case ports.EngineStructure:
			timed(engine, func() {
				res := analyzer.Structure.Parse(code)
				report.Structure = &res
			})
		case ports.EngineMetrics:
			timed(engine, func() {
				summary := analyzer.Metrics.Summarize(code)
				report.Metrics = summary.Format()
				report.Scores.LinesOfCode = summary.LinesOfCode
				report.Scores.Cyclomatic = summary.Cyclomatic
				report.Scores.Maintainability = round2(summary.Maintainability)
			})
		case ports.EngineSmells:
			timed(engine, func() {
				res := analyzer.Smells.Analyze(code)
				report.Smells = &res
				report.Scores.SmellScore = round2(res.OverallScore)
			})
		case ports.EngineSecurity:
			timed(engine, func() {
				res := analyzer.Security.Analyze(code)
				report.Security = &res
			})
			recordIssues(*report.Security)
			applyRiskScores(&report.Scores, report.Security.RiskMetrics)
		}
	}
	return report, nil
}

func applyRiskScores(scores *ports.FileScores, m security.RiskMetrics) {
	scores.RiskScore = round2(m.OverallRiskScore)
	scores.SecurityScore = round2(m.SecurityScore)
	scores.QualityScore = round2(m.CodeQualityScore)
	scores.Critical = m.CriticalIssues
	scores.High = m.HighIssues
	scores.Medium = m.MediumIssues
	scores.Low = m.LowIssues
}

func (s *analysisService) Compare(ctx context.Context, code1, code2 string) (res compare.Result, err error) {
	ctx, span := s.span(ctx, "Compare", len(code1)+len(code2))
	defer func() { finish(span, err) }()

	if err = s.admit(ctx, "compare", code1, code2); err != nil {
		return compare.Result{}, err
	}
	start := time.Now()
	res = s.app.Analyzer().Comparer.Compare(code1, code2)
	observability.AnalysisDuration.WithLabelValues("compare").Observe(time.Since(start).Seconds())
	span.SetAttributes(attribute.Float64("compare.diff_similarity", res.DiffSimilarity))
	return res, nil
}

func (s *analysisService) ParseSyntax(ctx context.Context, language, code string) (tree syntax.Tree, err error) {
	ctx, span := s.span(ctx, "ParseSyntax", len(code))
	span.SetAttributes(attribute.String("language", language))
	defer func() { finish(span, err) }()

	if err = s.admit(ctx, "syntax", code); err != nil {
		return syntax.Tree{}, err
	}
	start := time.Now()
	tree, err = s.app.Analyzer().Syntax.Parse(language, code)
	observability.AnalysisDuration.WithLabelValues("syntax").Observe(time.Since(start).Seconds())
	if err != nil {
		return syntax.Tree{}, err
	}
	return tree, nil
}

func (s *analysisService) Scan(ctx context.Context, req ports.ScanRequest) (report ports.Report, err error) {
	ctx, span := observability.Tracer.Start(ctx, "analysisService.Scan",
		trace.WithAttributes(attribute.Int("scan.roots", len(req.Paths))))
	defer func() { finish(span, err) }()

	if err = ctx.Err(); err != nil {
		return ports.Report{}, err
	}
	if s.app == nil || s.app.Config == nil {
		return ports.Report{}, fmt.Errorf("config is required")
	}
	report, err = s.app.Scan(ctx, req)
	if err != nil {
		return ports.Report{}, errors.AddContext(err, errors.CtxOperation, "scan")
	}
	span.SetAttributes(attribute.Int("scan.files", len(report.Files)))
	return report, nil
}
