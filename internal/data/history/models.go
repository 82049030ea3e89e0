package history

import "time"

// SchemaVersion is the user_version a fully upgraded history database carries.
const SchemaVersion = 2

// Snapshot is the analysis outcome of one file within one run.
type Snapshot struct {
	RunID           string    `json:"runId" yaml:"run_id"`
	Project         string    `json:"project" yaml:"project"`
	Path            string    `json:"path" yaml:"path"`
	Timestamp       time.Time `json:"timestamp" yaml:"timestamp"`
	LinesOfCode     int       `json:"linesOfCode" yaml:"lines_of_code"`
	Cyclomatic      int       `json:"cyclomatic" yaml:"cyclomatic"`
	Maintainability float64   `json:"maintainability" yaml:"maintainability"`
	SmellScore      float64   `json:"smellScore" yaml:"smell_score"`
	RiskScore       float64   `json:"riskScore" yaml:"risk_score"`
	SecurityScore   float64   `json:"securityScore" yaml:"security_score"`
	QualityScore    float64   `json:"qualityScore" yaml:"quality_score"`
	Critical        int       `json:"critical" yaml:"critical"`
	High            int       `json:"high" yaml:"high"`
	Medium          int       `json:"medium" yaml:"medium"`
	Low             int       `json:"low" yaml:"low"`
}

// Issues is the total issue count across severities.
func (s Snapshot) Issues() int {
	return s.Critical + s.High + s.Medium + s.Low
}

// Run groups the snapshots written by one scan.
type Run struct {
	ID        string     `json:"id" yaml:"id"`
	Project   string     `json:"project" yaml:"project"`
	Timestamp time.Time  `json:"timestamp" yaml:"timestamp"`
	Snapshots []Snapshot `json:"snapshots" yaml:"snapshots"`
}

type TrendPoint struct {
	RunID                string    `json:"runId" yaml:"run_id"`
	Timestamp            time.Time `json:"timestamp" yaml:"timestamp"`
	Maintainability      float64   `json:"maintainability" yaml:"maintainability"`
	SmellScore           float64   `json:"smellScore" yaml:"smell_score"`
	RiskScore            float64   `json:"riskScore" yaml:"risk_score"`
	Issues               int       `json:"issues" yaml:"issues"`
	DeltaMaintainability float64   `json:"deltaMaintainability" yaml:"delta_maintainability"`
	DeltaSmellScore      float64   `json:"deltaSmellScore" yaml:"delta_smell_score"`
	DeltaRiskScore       float64   `json:"deltaRiskScore" yaml:"delta_risk_score"`
	DeltaIssues          int       `json:"deltaIssues" yaml:"delta_issues"`
}

// Trend describes how one file's scores moved across runs. The top-level
// deltas compare the last point with the first.
type Trend struct {
	Project              string       `json:"project" yaml:"project"`
	Path                 string       `json:"path" yaml:"path"`
	Since                time.Time    `json:"since" yaml:"since"`
	Until                time.Time    `json:"until" yaml:"until"`
	RunCount             int          `json:"runCount" yaml:"run_count"`
	DeltaMaintainability float64      `json:"deltaMaintainability" yaml:"delta_maintainability"`
	DeltaSmellScore      float64      `json:"deltaSmellScore" yaml:"delta_smell_score"`
	DeltaRiskScore       float64      `json:"deltaRiskScore" yaml:"delta_risk_score"`
	DeltaIssues          int          `json:"deltaIssues" yaml:"delta_issues"`
	Points               []TrendPoint `json:"points" yaml:"points"`
}
