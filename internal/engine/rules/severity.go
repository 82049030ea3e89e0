package rules

import (
	"fmt"
	"strings"
)

// Severity is the closed set of issue tiers. Higher values are more urgent.
type Severity int

const (
	Low Severity = iota
	Medium
	High
	Critical
)

// Severities lists every tier from most to least urgent.
var Severities = []Severity{Critical, High, Medium, Low}

func (s Severity) String() string {
	switch s {
	case Critical:
		return "CRITICAL"
	case High:
		return "HIGH"
	case Medium:
		return "MEDIUM"
	default:
		return "LOW"
	}
}

func ParseSeverity(value string) (Severity, error) {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "CRITICAL":
		return Critical, nil
	case "HIGH":
		return High, nil
	case "MEDIUM":
		return Medium, nil
	case "LOW":
		return Low, nil
	}
	return Low, fmt.Errorf("unknown severity %q", value)
}

func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Severity) UnmarshalText(text []byte) error {
	parsed, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// BaseScore seeds an issue's severity score.
func (s Severity) BaseScore() float64 {
	switch s {
	case Critical:
		return 90
	case High:
		return 70
	case Medium:
		return 40
	default:
		return 20
	}
}

// Multiplier weights a tier in the security and category scores.
func (s Severity) Multiplier() float64 {
	switch s {
	case Critical:
		return 10
	case High:
		return 5
	case Medium:
		return 2
	default:
		return 1
	}
}

// RiskPenalty is deducted once per issue from the overall risk score, and
// from the code quality score for quality-related issues.
func (s Severity) RiskPenalty() float64 {
	switch s {
	case Critical:
		return 25
	case High:
		return 15
	case Medium:
		return 10
	default:
		return 5
	}
}

func (s Severity) Impact() string {
	switch s {
	case Critical:
		return "Critical security vulnerability that must be fixed immediately"
	case High:
		return "High-risk security issue that should be addressed soon"
	case Medium:
		return "Medium-risk issue that should be planned for remediation"
	default:
		return "Low-risk issue that should be considered for future improvements"
	}
}

// AtLeast reports whether s is as urgent as other or more.
func (s Severity) AtLeast(other Severity) bool { return s >= other }
