package formats

import (
	"codeinspector/internal/core/ports"
	"fmt"
	"strings"
)

// GenerateTSV writes one row of headline scores per file.
func GenerateTSV(report ports.Report, projectRoot string) string {
	var buf strings.Builder

	buf.WriteString("File\tLOC\tCyclomatic\tMaintainability\tSmellScore\tRiskScore\tSecurityScore\tQualityScore\tCritical\tHigh\tMedium\tLow\n")
	for _, f := range report.Files {
		s := f.Scores
		buf.WriteString(fmt.Sprintf("%s\t%d\t%d\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t%d\t%d\t%d\t%d\n",
			displayPath(projectRoot, f),
			s.LinesOfCode,
			s.Cyclomatic,
			s.Maintainability,
			s.SmellScore,
			s.RiskScore,
			s.SecurityScore,
			s.QualityScore,
			s.Critical,
			s.High,
			s.Medium,
			s.Low,
		))
	}
	return buf.String()
}

// GenerateIssuesTSV writes one row per security issue.
func GenerateIssuesTSV(report ports.Report, projectRoot string) string {
	var buf strings.Builder

	buf.WriteString("File\tLine\tType\tSeverity\tScore\tDescription\n")
	for _, f := range report.Files {
		if f.Security == nil {
			continue
		}
		for _, issue := range f.Security.Issues() {
			buf.WriteString(fmt.Sprintf("%s\t%d\t%s\t%s\t%.2f\t%s\n",
				displayPath(projectRoot, f),
				issue.Line,
				issue.Type,
				issue.Severity,
				issue.SeverityScore,
				issue.Description,
			))
		}
	}
	return buf.String()
}
