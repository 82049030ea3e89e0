package security

import (
	"fmt"
	"sort"
	"strings"
)

func renderReport(vulnerabilities map[string][]Issue, recommendations []Recommendation, m RiskMetrics) string {
	var b strings.Builder

	b.WriteString("Security Analysis Report\n")
	b.WriteString("======================\n\n")

	b.WriteString("Risk Metrics:\n")
	b.WriteString("--------------\n")
	fmt.Fprintf(&b, "Overall Risk Score: %.2f\n", m.OverallRiskScore)
	fmt.Fprintf(&b, "Security Score: %.2f\n", m.SecurityScore)
	fmt.Fprintf(&b, "Code Quality Score: %.2f\n\n", m.CodeQualityScore)

	b.WriteString("Issue Summary:\n")
	b.WriteString("--------------\n")
	fmt.Fprintf(&b, "Critical Issues: %d\n", m.CriticalIssues)
	fmt.Fprintf(&b, "High Issues: %d\n", m.HighIssues)
	fmt.Fprintf(&b, "Medium Issues: %d\n", m.MediumIssues)
	fmt.Fprintf(&b, "Low Issues: %d\n\n", m.LowIssues)

	b.WriteString("Detailed Vulnerabilities:\n")
	b.WriteString("----------------------\n")
	for _, typ := range sortedTypes(vulnerabilities) {
		fmt.Fprintf(&b, "\n%s:\n", typ)
		for _, issue := range vulnerabilities[typ] {
			fmt.Fprintf(&b, "- Line %d: %s\n", issue.Line, issue.Description)
			fmt.Fprintf(&b, "  Risk Level: %s\n", issue.Severity)
			fmt.Fprintf(&b, "  Code: %s\n", issue.Snippet)
			fmt.Fprintf(&b, "  Recommendation: %s\n", issue.Remediation)
		}
	}

	b.WriteString("\nRecommendations:\n")
	b.WriteString("---------------\n")
	for _, rec := range recommendations {
		fmt.Fprintf(&b, "\nCategory: %s\n", rec.Category)
		fmt.Fprintf(&b, "Priority: %s\n", rec.Priority)
		fmt.Fprintf(&b, "Description: %s\n", rec.Description)
		fmt.Fprintf(&b, "Recommendation: %s\n", rec.Recommendation)
	}

	b.WriteString("\nCategory Scores:\n")
	b.WriteString("---------------\n")
	categories := make([]string, 0, len(m.CategoryScores))
	for name := range m.CategoryScores {
		categories = append(categories, name)
	}
	sort.Strings(categories)
	for _, name := range categories {
		fmt.Fprintf(&b, "%s: %.2f\n", name, m.CategoryScores[name])
	}

	return b.String()
}
