package history

import (
	"fmt"
	"math"
)

// BuildTrend turns time-ordered snapshots of one file into per-run deltas.
func BuildTrend(project, path string, snapshots []Snapshot) (Trend, error) {
	if len(snapshots) == 0 {
		return Trend{}, fmt.Errorf("no snapshots available for %q", path)
	}

	points := make([]TrendPoint, 0, len(snapshots))
	for i, current := range snapshots {
		point := TrendPoint{
			RunID:           current.RunID,
			Timestamp:       current.Timestamp,
			Maintainability: current.Maintainability,
			SmellScore:      current.SmellScore,
			RiskScore:       current.RiskScore,
			Issues:          current.Issues(),
		}
		if i > 0 {
			prev := snapshots[i-1]
			point.DeltaMaintainability = round2(current.Maintainability - prev.Maintainability)
			point.DeltaSmellScore = round2(current.SmellScore - prev.SmellScore)
			point.DeltaRiskScore = round2(current.RiskScore - prev.RiskScore)
			point.DeltaIssues = current.Issues() - prev.Issues()
		}
		points = append(points, point)
	}

	first, last := snapshots[0], snapshots[len(snapshots)-1]
	return Trend{
		Project:              project,
		Path:                 path,
		Since:                first.Timestamp,
		Until:                last.Timestamp,
		RunCount:             len(points),
		DeltaMaintainability: round2(last.Maintainability - first.Maintainability),
		DeltaSmellScore:      round2(last.SmellScore - first.SmellScore),
		DeltaRiskScore:       round2(last.RiskScore - first.RiskScore),
		DeltaIssues:          last.Issues() - first.Issues(),
		Points:               points,
	}, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
