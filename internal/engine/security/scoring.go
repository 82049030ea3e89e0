package security

import (
	"codeinspector/internal/engine/rules"
	"fmt"
	"sort"
	"strings"
)

// recommend emits one recommendation per non-empty category, ordered by
// category name.
func recommend(vulnerabilities map[string][]Issue) []Recommendation {
	byCategory := groupByCategory(vulnerabilities)

	names := make([]string, 0, len(byCategory))
	for name := range byCategory {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]Recommendation, 0, len(names))
	for _, name := range names {
		issues := byCategory[name]
		out = append(out, Recommendation{
			Category:       name,
			Description:    fmt.Sprintf("Found %d issues in category: %s", len(issues), name),
			Recommendation: "Review and fix all " + strings.ToLower(name) + " related issues",
			Priority:       highestSeverity(issues),
			RelatedIssues:  distinctTypes(issues),
		})
	}
	return out
}

func groupByCategory(vulnerabilities map[string][]Issue) map[string][]Issue {
	out := make(map[string][]Issue)
	for _, typ := range sortedTypes(vulnerabilities) {
		name := rules.CategoryOf(typ).String()
		out[name] = append(out[name], vulnerabilities[typ]...)
	}
	return out
}

func highestSeverity(issues []Issue) rules.Severity {
	highest := rules.Low
	for _, issue := range issues {
		if issue.Severity > highest {
			highest = issue.Severity
		}
	}
	return highest
}

func distinctTypes(issues []Issue) []string {
	seen := make(map[string]bool)
	var out []string
	for _, issue := range issues {
		if !seen[issue.Type] {
			seen[issue.Type] = true
			out = append(out, issue.Type)
		}
	}
	return out
}

func (a *Analyzer) riskMetrics(vulnerabilities map[string][]Issue) RiskMetrics {
	m := RiskMetrics{CategoryScores: make(map[string]float64)}

	overall := 100.0
	quality := 100.0
	impact := 0.0
	total := 0
	for _, typ := range sortedTypes(vulnerabilities) {
		weight := a.registry.Weight(typ)
		for _, issue := range vulnerabilities[typ] {
			switch issue.Severity {
			case rules.Critical:
				m.CriticalIssues++
			case rules.High:
				m.HighIssues++
			case rules.Medium:
				m.MediumIssues++
			default:
				m.LowIssues++
			}
			overall -= issue.Severity.RiskPenalty()
			if rules.IsQualityIssue(issue.Type) {
				quality -= issue.Severity.RiskPenalty()
			}
			impact += weight.CWE / 100 * issue.Severity.Multiplier() * weight.Exploitability
			total++
		}
	}

	m.OverallRiskScore = clampScore(overall)
	m.CodeQualityScore = clampScore(quality)
	m.SecurityScore = 100
	if total > 0 {
		m.SecurityScore = clampScore(100 - impact/float64(total)*20)
	}

	for name, issues := range groupByCategory(vulnerabilities) {
		m.CategoryScores[name] = a.categoryScore(issues)
	}
	return m
}

// categoryScore blends severity (60%) and exploitability (40%) over every
// issue of one category.
func (a *Analyzer) categoryScore(issues []Issue) float64 {
	if len(issues) == 0 {
		return 100
	}
	impact := 0.0
	for _, issue := range issues {
		impact += issue.Severity.Multiplier()*0.6 + a.registry.Weight(issue.Type).Exploitability*0.4
	}
	return clampScore(100 - impact/float64(len(issues))*20)
}
