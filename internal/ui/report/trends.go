package report

import (
	"codeinspector/internal/data/history"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

func RenderTrendTSV(trend history.Trend) ([]byte, error) {
	var buf strings.Builder

	buf.WriteString("Timestamp\tRunID\tMaintainability\tSmellScore\tRiskScore\tIssues\tDeltaMaintainability\tDeltaSmellScore\tDeltaRiskScore\tDeltaIssues\n")
	for _, point := range trend.Points {
		buf.WriteString(fmt.Sprintf(
			"%s\t%s\t%.2f\t%.2f\t%.2f\t%d\t%.2f\t%.2f\t%.2f\t%d\n",
			point.Timestamp.UTC().Format(time.RFC3339),
			point.RunID,
			point.Maintainability,
			point.SmellScore,
			point.RiskScore,
			point.Issues,
			point.DeltaMaintainability,
			point.DeltaSmellScore,
			point.DeltaRiskScore,
			point.DeltaIssues,
		))
	}

	return []byte(buf.String()), nil
}

func RenderTrendJSON(trend history.Trend) ([]byte, error) {
	return json.MarshalIndent(trend, "", "  ")
}

// RenderTrendText prints the first-to-last deltas followed by one line per
// run.
func RenderTrendText(trend history.Trend) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "Trend for %s (%s)\n", trend.Path, trend.Project)
	fmt.Fprintf(&b, "Runs: %d, %s .. %s\n", trend.RunCount,
		trend.Since.UTC().Format(time.RFC3339), trend.Until.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "Maintainability: %+.2f\n", trend.DeltaMaintainability)
	fmt.Fprintf(&b, "Smell Score: %+.2f\n", trend.DeltaSmellScore)
	fmt.Fprintf(&b, "Risk Score: %+.2f\n", trend.DeltaRiskScore)
	fmt.Fprintf(&b, "Issues: %+d\n", trend.DeltaIssues)
	for _, p := range trend.Points {
		fmt.Fprintf(&b, "  %s  MI %.2f  smell %.2f  risk %.2f  issues %d\n",
			p.Timestamp.UTC().Format(time.RFC3339), p.Maintainability, p.SmellScore, p.RiskScore, p.Issues)
	}
	return []byte(b.String())
}
