package cli

import (
	"codeinspector/internal/core/ports"
	"codeinspector/internal/engine/rules"
	"codeinspector/internal/engine/security"
	"fmt"
	"sort"
	"strings"
)

const (
	maxDetailIssues = 5
	maxDetailSmells = 3
)

func renderHelp(m model) string {
	keys := "Keys: / filter | enter detail pane | s sort | t trend overlay | o open top issue | q quit"
	if m.showDetail || m.showTrend {
		keys = "Keys: / filter | esc close panes | s sort | t trend overlay | o open top issue | q quit"
	}
	return statusStyle.Render(keys)
}

func renderSummary(s ports.ReportSummary) string {
	if s.Issues() == 0 {
		return successStyle.Render("No security issues")
	}
	parts := []string{
		criticalStyle.Render(fmt.Sprintf("%d critical", s.Critical)),
		warningStyle.Render(fmt.Sprintf("%d high", s.High)),
		fmt.Sprintf("%d medium", s.Medium),
		fmt.Sprintf("%d low", s.Low),
	}
	return strings.Join(parts, " | ")
}

func renderDetail(m model) string {
	selected, ok := m.selectedFile()
	if !ok {
		return paneStyle.Render(statusStyle.Render("No files analysed yet."))
	}
	s := selected.Scores
	lines := []string{
		fmt.Sprintf("%s (%s)", selected.Path, selected.Language),
		fmt.Sprintf("  LOC %d | cyclomatic %d | MI %.2f | smell %.2f | risk %.2f | security %.2f",
			s.LinesOfCode, s.Cyclomatic, s.Maintainability, s.SmellScore, s.RiskScore, s.SecurityScore),
	}

	issues := topIssues(selected, maxDetailIssues)
	if len(issues) == 0 {
		lines = append(lines, successStyle.Render("  No security issues"))
	} else {
		lines = append(lines, "  Top issues:")
		for _, issue := range issues {
			label := fmt.Sprintf("    [%s] line %d %s: %s", issue.Severity, issue.Line, issue.Type, issue.Description)
			if issue.Severity == rules.Critical {
				label = criticalStyle.Render(label)
			}
			lines = append(lines, label)
		}
	}

	if smells := weakestSmells(selected, maxDetailSmells); len(smells) > 0 {
		lines = append(lines, "  Weakest smell scores: "+strings.Join(smells, ", "))
	}
	return paneStyle.Render(strings.Join(lines, "\n"))
}

// topIssues orders issues by severity, then severity score, then line.
func topIssues(f ports.FileReport, limit int) []security.Issue {
	if f.Security == nil {
		return nil
	}
	issues := f.Security.Issues()
	sort.SliceStable(issues, func(i, j int) bool {
		a, b := issues[i], issues[j]
		if a.Severity != b.Severity {
			return a.Severity > b.Severity
		}
		if a.SeverityScore != b.SeverityScore {
			return a.SeverityScore > b.SeverityScore
		}
		return a.Line < b.Line
	})
	if len(issues) > limit {
		issues = issues[:limit]
	}
	return issues
}

func weakestSmells(f ports.FileReport, limit int) []string {
	if f.Smells == nil {
		return nil
	}
	type scored struct {
		name  string
		score float64
	}
	var below []scored
	for name, score := range f.Smells.Scores {
		if score < 100 {
			below = append(below, scored{name, score})
		}
	}
	sort.Slice(below, func(i, j int) bool {
		if below[i].score != below[j].score {
			return below[i].score < below[j].score
		}
		return below[i].name < below[j].name
	})
	out := make([]string, 0, limit)
	for i := 0; i < len(below) && i < limit; i++ {
		out = append(out, fmt.Sprintf("%s %.0f", below[i].name, below[i].score))
	}
	return out
}

func renderTrendOverlay(m model) string {
	switch {
	case m.loadTrend == nil:
		return paneStyle.Render(statusStyle.Render("Trend overlay unavailable (enable db.enabled to record history)."))
	case m.trendErr != "":
		return paneStyle.Render(warningStyle.Render("Trend unavailable for " + m.trendPath + ": " + m.trendErr))
	case m.trend == nil:
		return paneStyle.Render(statusStyle.Render("Select a file to load its trend."))
	}
	t := m.trend
	lines := []string{
		"Trend: " + t.Path,
		fmt.Sprintf("  Runs: %d since %s", t.RunCount, t.Since.Format("2006-01-02 15:04")),
		fmt.Sprintf("  Maintainability: %+.2f | Smell: %+.2f | Risk: %+.2f | Issues: %+d",
			t.DeltaMaintainability, t.DeltaSmellScore, t.DeltaRiskScore, t.DeltaIssues),
	}
	if n := len(t.Points); n > 1 {
		last := t.Points[n-1]
		lines = append(lines, fmt.Sprintf("  Last run: MI %+.2f | issues %+d", last.DeltaMaintainability, last.DeltaIssues))
	}
	return paneStyle.Render(strings.Join(lines, "\n"))
}
