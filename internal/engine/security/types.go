package security

import "codeinspector/internal/engine/rules"

// Issue is one finding from a pattern match or a whole-text rule.
type Issue struct {
	Type          string         `json:"type" yaml:"type"`
	Description   string         `json:"description" yaml:"description"`
	Severity      rules.Severity `json:"riskLevel" yaml:"risk_level"`
	Line          int            `json:"lineNumber" yaml:"line_number"`
	Snippet       string         `json:"vulnerableCode" yaml:"vulnerable_code"`
	Remediation   string         `json:"recommendation" yaml:"recommendation"`
	Impact        string         `json:"impact" yaml:"impact"`
	SeverityScore float64        `json:"issueSeverityScore" yaml:"issue_severity_score"`
}

type Recommendation struct {
	Category       string         `json:"category" yaml:"category"`
	Description    string         `json:"description" yaml:"description"`
	Recommendation string         `json:"recommendation" yaml:"recommendation"`
	Priority       rules.Severity `json:"priority" yaml:"priority"`
	RelatedIssues  []string       `json:"relatedIssues" yaml:"related_issues"`
}

type RiskMetrics struct {
	OverallRiskScore float64            `json:"overallRiskScore" yaml:"overall_risk_score"`
	CriticalIssues   int                `json:"criticalIssues" yaml:"critical_issues"`
	HighIssues       int                `json:"highIssues" yaml:"high_issues"`
	MediumIssues     int                `json:"mediumIssues" yaml:"medium_issues"`
	LowIssues        int                `json:"lowIssues" yaml:"low_issues"`
	CodeQualityScore float64            `json:"codeQualityScore" yaml:"code_quality_score"`
	SecurityScore    float64            `json:"securityScore" yaml:"security_score"`
	CategoryScores   map[string]float64 `json:"categoryScores" yaml:"category_scores"`
}

// Count returns the number of issues at severity s.
func (m RiskMetrics) Count(s rules.Severity) int {
	switch s {
	case rules.Critical:
		return m.CriticalIssues
	case rules.High:
		return m.HighIssues
	case rules.Medium:
		return m.MediumIssues
	default:
		return m.LowIssues
	}
}

// Result bundles the output of one security analysis. Vulnerabilities is
// keyed by issue type.
type Result struct {
	Vulnerabilities map[string][]Issue `json:"vulnerabilities" yaml:"vulnerabilities"`
	Recommendations []Recommendation   `json:"recommendations" yaml:"recommendations"`
	RiskMetrics     RiskMetrics        `json:"riskMetrics" yaml:"risk_metrics"`
	Report          string             `json:"securityReport" yaml:"security_report"`
}

// Issues flattens Vulnerabilities in type order.
func (r Result) Issues() []Issue {
	var out []Issue
	for _, typ := range sortedTypes(r.Vulnerabilities) {
		out = append(out, r.Vulnerabilities[typ]...)
	}
	return out
}

// HighestSeverity reports the most urgent severity found, if any.
func (r Result) HighestSeverity() (rules.Severity, bool) {
	found := false
	highest := rules.Low
	for _, issues := range r.Vulnerabilities {
		for _, issue := range issues {
			if !found || issue.Severity > highest {
				highest = issue.Severity
				found = true
			}
		}
	}
	return highest, found
}
