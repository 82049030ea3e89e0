// Package security detects vulnerability patterns and rule violations in
// source text and aggregates them into risk scores and a text report.
package security

import (
	"codeinspector/internal/engine/rules"
	"codeinspector/internal/engine/source"
	"math"
	"sort"
)

type Analyzer struct {
	registry *rules.Registry
}

func NewAnalyzer(registry *rules.Registry) *Analyzer {
	return &Analyzer{registry: registry}
}

func (a *Analyzer) Analyze(code string) Result {
	vulnerabilities := make(map[string][]Issue)
	a.matchPatterns(code, vulnerabilities)
	a.applyRules(code, vulnerabilities)

	recommendations := recommend(vulnerabilities)
	metrics := a.riskMetrics(vulnerabilities)

	return Result{
		Vulnerabilities: vulnerabilities,
		Recommendations: recommendations,
		RiskMetrics:     metrics,
		Report:          renderReport(vulnerabilities, recommendations, metrics),
	}
}

func (a *Analyzer) matchPatterns(code string, out map[string][]Issue) {
	for _, p := range a.registry.Patterns() {
		for _, loc := range p.Expr.FindAllStringIndex(code, -1) {
			line := source.LineAt(code, loc[0])
			out[p.Type] = append(out[p.Type], Issue{
				Type:          p.Type,
				Description:   p.Description,
				Severity:      p.Severity,
				Line:          line,
				Snippet:       code[loc[0]:loc[1]],
				Remediation:   p.Remediation,
				Impact:        p.Severity.Impact(),
				SeverityScore: severityScore(p.Severity, line),
			})
		}
	}
}

// applyRules emits one issue per satisfied rule. Rules judge the whole text,
// so the issue carries line 1 and no snippet, and is scored as line 0.
func (a *Analyzer) applyRules(code string, out map[string][]Issue) {
	for _, r := range a.registry.Rules() {
		if !r.Predicate(code) {
			continue
		}
		out[r.Type] = append(out[r.Type], Issue{
			Type:          r.Type,
			Description:   r.Description,
			Severity:      r.Severity,
			Line:          1,
			Snippet:       "",
			Remediation:   r.Remediation,
			Impact:        r.Severity.Impact(),
			SeverityScore: severityScore(r.Severity, 0),
		})
	}
}

// severityScore favours earlier lines within the same tier.
func severityScore(s rules.Severity, line int) float64 {
	return math.Min(100, s.BaseScore()+10/float64(line+1))
}

func sortedTypes(vulnerabilities map[string][]Issue) []string {
	types := make([]string, 0, len(vulnerabilities))
	for typ := range vulnerabilities {
		types = append(types, typ)
	}
	sort.Strings(types)
	return types
}

func clampScore(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}
