package formats

import (
	"codeinspector/internal/core/ports"
	"codeinspector/internal/engine/metrics"
	"codeinspector/internal/shared/util"
	"fmt"
	"strings"
	"time"
)

type MarkdownReportOptions struct {
	ProjectName         string
	ProjectRoot         string
	Version             string
	GeneratedAt         time.Time
	Verbosity           string
	TableOfContents     bool
	CollapsibleSections bool
}

type MarkdownGenerator struct{}

func NewMarkdownGenerator() *MarkdownGenerator {
	return &MarkdownGenerator{}
}

func (m *MarkdownGenerator) Generate(report ports.Report, opts MarkdownReportOptions) (string, error) {
	if opts.GeneratedAt.IsZero() {
		opts.GeneratedAt = report.GeneratedAt
	}
	if opts.GeneratedAt.IsZero() {
		opts.GeneratedAt = time.Now().UTC()
	}
	verbosity := normalizeReportVerbosity(opts.Verbosity)

	var b strings.Builder
	b.WriteString("---\n")
	b.WriteString("title: Code Inspection Report\n")
	b.WriteString("project: " + nonEmpty(opts.ProjectName, nonEmpty(report.Project, "unknown")) + "\n")
	b.WriteString("generated_at: " + opts.GeneratedAt.UTC().Format(time.RFC3339) + "\n")
	b.WriteString("version: " + nonEmpty(opts.Version, "unknown") + "\n")
	if report.RunID != "" {
		b.WriteString("run_id: " + report.RunID + "\n")
	}
	b.WriteString("---\n\n")

	b.WriteString("# Inspection Report\n\n")
	if opts.TableOfContents {
		b.WriteString("## Table of Contents\n")
		b.WriteString("- [Executive Summary](#executive-summary)\n")
		b.WriteString("- [Files](#files)\n")
		for _, f := range report.Files {
			heading := displayPath(opts.ProjectRoot, f)
			fmt.Fprintf(&b, "  - [%s](#%s)\n", heading, anchor(heading))
		}
		b.WriteString("\n")
	}

	s := report.Summary
	b.WriteString("## Executive Summary\n")
	b.WriteString("| Metric | Value |\n")
	b.WriteString("| --- | --- |\n")
	fmt.Fprintf(&b, "| Files | %d |\n", s.Files)
	fmt.Fprintf(&b, "| Lines of Code | %d |\n", s.LinesOfCode)
	fmt.Fprintf(&b, "| Critical Issues | %d |\n", s.Critical)
	fmt.Fprintf(&b, "| High Issues | %d |\n", s.High)
	fmt.Fprintf(&b, "| Medium Issues | %d |\n", s.Medium)
	fmt.Fprintf(&b, "| Low Issues | %d |\n", s.Low)
	fmt.Fprintf(&b, "| Avg Maintainability | %.2f |\n", s.AvgMaintainability)
	fmt.Fprintf(&b, "| Avg Smell Score | %.2f |\n", s.AvgSmellScore)
	fmt.Fprintf(&b, "| Avg Risk Score | %.2f |\n", s.AvgRiskScore)
	fmt.Fprintf(&b, "| Highest Severity | %s |\n\n", nonEmpty(s.HighestSeverity, "none"))

	b.WriteString("## Files\n")
	if len(report.Files) == 0 {
		b.WriteString("No files analysed.\n\n")
	} else {
		b.WriteString("| File | LOC | MI | Smell | Risk | Issues |\n")
		b.WriteString("| --- | --- | --- | --- | --- | --- |\n")
		for _, f := range report.Files {
			fmt.Fprintf(&b, "| `%s` | %d | %.2f | %.2f | %.2f | %d |\n",
				displayPath(opts.ProjectRoot, f), f.Scores.LinesOfCode, f.Scores.Maintainability,
				f.Scores.SmellScore, f.Scores.RiskScore, f.Scores.Issues())
		}
		b.WriteString("\n")
	}

	for _, f := range report.Files {
		m.writeFile(&b, f, opts, verbosity)
	}

	if len(report.Warnings) > 0 {
		b.WriteString("## Warnings\n")
		for _, w := range report.Warnings {
			b.WriteString("- " + w + "\n")
		}
		b.WriteString("\n")
	}
	return b.String(), nil
}

func (m *MarkdownGenerator) writeFile(b *strings.Builder, f ports.FileReport, opts MarkdownReportOptions, verbosity string) {
	fmt.Fprintf(b, "### %s\n", displayPath(opts.ProjectRoot, f))

	if f.Security != nil {
		issues := f.Security.Issues()
		if len(issues) == 0 {
			b.WriteString("No security issues detected.\n\n")
		} else {
			rows := make([]string, 0, len(issues))
			for _, issue := range issues {
				if verbosity == "summary" {
					rows = append(rows, fmt.Sprintf("| %d | `%s` | %s |\n", issue.Line, issue.Type, issue.Severity))
					continue
				}
				rows = append(rows, fmt.Sprintf("| %d | `%s` | %s | %s | %s |\n",
					issue.Line, issue.Type, issue.Severity, escapeCell(issue.Description), escapeCell(issue.Remediation)))
			}
			header := []string{"| Line | Type | Severity | Description | Recommendation |\n", "| --- | --- | --- | --- | --- |\n"}
			if verbosity == "summary" {
				header = []string{"| Line | Type | Severity |\n", "| --- | --- | --- |\n"}
			}
			m.writeTableWithCollapse(b, "Security issues", opts.CollapsibleSections, len(rows) > 10, header, rows)
		}
	}

	if f.Smells != nil && verbosity != "summary" {
		rows := make([]string, 0, len(f.Smells.Scores))
		for _, name := range util.SortedStringKeys(f.Smells.Scores) {
			detail := strings.Join(f.Smells.Details[name], "; ")
			rows = append(rows, fmt.Sprintf("| %s | %.2f | %s |\n", name, f.Smells.Scores[name], escapeCell(detail)))
		}
		m.writeTableWithCollapse(b, "Code smells", opts.CollapsibleSections, len(rows) > 10,
			[]string{"| Smell | Score | Details |\n", "| --- | --- | --- |\n"}, rows)
	}

	if f.Metrics != nil && verbosity == "detailed" {
		rows := make([]string, 0, len(metrics.Keys))
		for _, key := range metrics.Keys {
			if v, ok := f.Metrics[key]; ok {
				rows = append(rows, fmt.Sprintf("| %s | %s |\n", key, v))
			}
		}
		m.writeTableWithCollapse(b, "Metrics", opts.CollapsibleSections, true,
			[]string{"| Metric | Value |\n", "| --- | --- |\n"}, rows)
	}
}

func (m *MarkdownGenerator) writeTableWithCollapse(
	b *strings.Builder,
	summary string,
	collapsible bool,
	collapse bool,
	header []string,
	rows []string,
) {
	if collapsible && collapse {
		b.WriteString("<details>\n")
		b.WriteString("<summary>")
		b.WriteString(summary)
		b.WriteString("</summary>\n\n")
	}
	for _, line := range header {
		b.WriteString(line)
	}
	for _, line := range rows {
		b.WriteString(line)
	}
	b.WriteString("\n")
	if collapsible && collapse {
		b.WriteString("</details>\n\n")
	}
}

func normalizeReportVerbosity(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "summary":
		return "summary"
	case "detailed":
		return "detailed"
	default:
		return "standard"
	}
}
