// Package smells scores source text against eight code smell heuristics.
package smells

import (
	"codeinspector/internal/engine/rules"
	"codeinspector/internal/engine/source"
	"fmt"
	"math"
	"strings"
)

const (
	LongMethods       = "Long Methods"
	LargeClass        = "Large Class"
	DuplicateCode     = "Duplicate Code"
	LongParameterList = "Long Parameter List"
	CyclomaticSmell   = "Cyclomatic Complexity"
	NamingConventions = "Naming Conventions"
	DataClumps        = "Data Clumps"
	SwitchStatements  = "Switch Statements"
)

const (
	maxMethodLines     = 20
	maxMethods         = 10
	minDuplicateLength = 10
	maxParameters      = 3
	minNameLength      = 3
	maxFields          = 5
	maxSwitches        = 2
)

// Names lists the smells in evaluation order.
var Names = []string{
	LongMethods, LargeClass, DuplicateCode, LongParameterList,
	CyclomaticSmell, NamingConventions, DataClumps, SwitchStatements,
}

// Result holds one score and one finding list per smell. Both maps always
// carry every name in Names.
type Result struct {
	Scores       map[string]float64  `json:"smellScores" yaml:"smell_scores"`
	Details      map[string][]string `json:"smellDetails" yaml:"smell_details"`
	OverallScore float64             `json:"overallScore" yaml:"overall_score"`
}

type Analyzer struct {
	patterns rules.SmellPatterns
}

func NewAnalyzer(registry *rules.Registry) *Analyzer {
	return &Analyzer{patterns: registry.Smells()}
}

type check func(code string) (float64, []string)

func (a *Analyzer) Analyze(code string) Result {
	checks := []check{
		a.longMethods,
		a.largeClass,
		a.duplicateCode,
		a.longParameterList,
		a.complexity,
		a.naming,
		a.dataClumps,
		a.switchStatements,
	}

	res := Result{
		Scores:  make(map[string]float64, len(Names)),
		Details: make(map[string][]string, len(Names)),
	}
	sum := 0.0
	for i, run := range checks {
		score, details := run(code)
		if details == nil {
			details = []string{}
		}
		res.Scores[Names[i]] = score
		res.Details[Names[i]] = details
		sum += score
	}
	res.OverallScore = sum / float64(len(checks))
	return res
}

func (a *Analyzer) longMethods(code string) (float64, []string) {
	var details []string
	total, long := 0, 0
	for _, m := range a.patterns.MethodBody.FindAllStringSubmatch(code, -1) {
		total++
		lines := source.SegmentCount(m[1], "\n")
		if lines > maxMethodLines {
			long++
			details = append(details, fmt.Sprintf("Method with %d lines found", lines))
		}
	}
	if total == 0 {
		return 100, details
	}
	return (1 - float64(long)/float64(total)) * 100, details
}

func (a *Analyzer) largeClass(code string) (float64, []string) {
	methods := len(a.patterns.MethodDecl.FindAllStringIndex(code, -1))
	if methods <= maxMethods {
		return 100, nil
	}
	score := math.Max(0, 100-float64((methods-maxMethods)*5))
	return score, []string{fmt.Sprintf("Class has %d methods (recommended: max %d)", methods, maxMethods)}
}

func (a *Analyzer) duplicateCode(code string) (float64, []string) {
	frequency := make(map[string]int)
	var order []string
	for _, line := range strings.Split(code, "\n") {
		line = strings.TrimSpace(line)
		if len([]rune(line)) <= minDuplicateLength {
			continue
		}
		if frequency[line] == 0 {
			order = append(order, line)
		}
		frequency[line]++
	}

	var details []string
	for _, line := range order {
		if n := frequency[line]; n > 1 {
			details = append(details, fmt.Sprintf("Line appears %d times: %s", n, line))
		}
	}
	return math.Max(0, 100-float64(len(details)*10)), details
}

func (a *Analyzer) longParameterList(code string) (float64, []string) {
	var details []string
	for _, m := range a.patterns.ParameterList.FindAllStringSubmatch(code, -1) {
		params := m[1]
		if params == "" {
			continue
		}
		if n := source.SegmentCount(params, ","); n > maxParameters {
			details = append(details, fmt.Sprintf("Method has %d parameters (recommended: max %d)", n, maxParameters))
		}
	}
	return math.Max(0, 100-float64(len(details)*15)), details
}

func (a *Analyzer) complexity(code string) (float64, []string) {
	n := 1 + len(a.patterns.Branch.FindAllStringIndex(code, -1))
	level, score := complexityBand(n)
	if n <= 10 {
		return score, nil
	}
	return score, []string{
		fmt.Sprintf("McCabe Cyclomatic Complexity: %d (%s)", n, level),
		"Risk Levels:",
		"1-10: Simple, well-structured code",
		"11-20: Moderate complexity, moderate risk",
		"21-30: Complex, high risk",
		"30+: Highly complex, very high risk, should be refactored",
		"Recommendation: Consider refactoring to reduce complexity below 10",
	}
}

func complexityBand(n int) (string, float64) {
	switch {
	case n <= 10:
		return "Simple", 100
	case n <= 20:
		return "Moderate", 80 - float64(n-10)*3
	case n <= 30:
		return "Complex", 50 - float64(n-20)*2
	default:
		return "Highly Complex", math.Max(0, 30-float64(n-30))
	}
}

func (a *Analyzer) naming(code string) (float64, []string) {
	var details []string
	total, bad := 0, 0
	for _, m := range a.patterns.Variable.FindAllStringSubmatch(code, -1) {
		total++
		name := m[1]
		if len([]rune(name)) < minNameLength || !a.patterns.LowerCamel.MatchString(name) {
			bad++
			details = append(details, "Poor variable name: "+name)
		}
	}
	if total == 0 {
		return 100, details
	}
	return (1 - float64(bad)/float64(total)) * 100, details
}

func (a *Analyzer) dataClumps(code string) (float64, []string) {
	fields := len(a.patterns.PrivateField.FindAllStringIndex(code, -1))
	if fields <= maxFields {
		return 100, nil
	}
	score := math.Max(0, 100-float64((fields-maxFields)*5))
	return score, []string{fmt.Sprintf("Class has %d fields (possible data clump)", fields)}
}

func (a *Analyzer) switchStatements(code string) (float64, []string) {
	switches := len(a.patterns.Switch.FindAllStringIndex(code, -1))
	var details []string
	if switches > maxSwitches {
		details = append(details, fmt.Sprintf("Found %d switch statements (consider using polymorphism)", switches))
	}
	return math.Max(0, 100-float64(switches*15)), details
}
