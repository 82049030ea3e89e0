package formats

import (
	"codeinspector/internal/core/ports"
	"codeinspector/internal/engine/metrics"
	"codeinspector/internal/shared/util"
	"fmt"
	"strings"
)

// GenerateText renders each file's security report followed by its metric
// and smell tables, then a run summary.
func GenerateText(report ports.Report, projectRoot string) string {
	var b strings.Builder
	for i, f := range report.Files {
		if i > 0 {
			b.WriteString("\n")
		}
		title := "== " + displayPath(projectRoot, f) + " =="
		b.WriteString(title + "\n")

		if f.Structure != nil {
			fmt.Fprintf(&b, "\nStructure:\n----------\nCyclomatic Complexity: %d\n", f.Structure.Complexity)
			for _, detail := range f.Structure.ComplexityDetails {
				fmt.Fprintf(&b, "  %s\n", detail)
			}
			if f.Structure.Error != "" {
				fmt.Fprintf(&b, "Parse Error: %s\n", f.Structure.Error)
			}
		}
		if f.Metrics != nil {
			b.WriteString("\nMetrics:\n--------\n")
			width := 0
			for _, key := range metrics.Keys {
				if len(key) > width {
					width = len(key)
				}
			}
			for _, key := range metrics.Keys {
				if v, ok := f.Metrics[key]; ok {
					fmt.Fprintf(&b, "%-*s  %s\n", width, key, v)
				}
			}
		}
		if f.Smells != nil {
			b.WriteString("\nCode Smells:\n------------\n")
			for _, name := range util.SortedStringKeys(f.Smells.Scores) {
				fmt.Fprintf(&b, "%s: %.2f\n", name, f.Smells.Scores[name])
				for _, detail := range f.Smells.Details[name] {
					fmt.Fprintf(&b, "  - %s\n", detail)
				}
			}
			fmt.Fprintf(&b, "Overall Smell Score: %.2f\n", f.Smells.OverallScore)
		}
		if f.Security != nil {
			b.WriteString("\n")
			b.WriteString(f.Security.Report)
		}
	}

	s := report.Summary
	b.WriteString("\nSummary:\n--------\n")
	fmt.Fprintf(&b, "Files: %d\n", s.Files)
	fmt.Fprintf(&b, "Lines of Code: %d\n", s.LinesOfCode)
	fmt.Fprintf(&b, "Issues: %d (critical %d, high %d, medium %d, low %d)\n", s.Issues(), s.Critical, s.High, s.Medium, s.Low)
	fmt.Fprintf(&b, "Average Maintainability: %.2f\n", s.AvgMaintainability)
	fmt.Fprintf(&b, "Average Smell Score: %.2f\n", s.AvgSmellScore)
	fmt.Fprintf(&b, "Average Risk Score: %.2f\n", s.AvgRiskScore)
	if s.HighestSeverity != "" {
		fmt.Fprintf(&b, "Highest Severity: %s\n", s.HighestSeverity)
	}
	for _, w := range report.Warnings {
		fmt.Fprintf(&b, "Warning: %s\n", w)
	}
	return b.String()
}
