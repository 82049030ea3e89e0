// Package metrics computes line-based size, Halstead and maintainability
// measures for a source file.
package metrics

import (
	"codeinspector/internal/engine/source"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

const (
	KeyLinesOfCode     = "Lines of Code"
	KeyMethods         = "Number of Methods"
	KeyClasses         = "Number of Classes"
	KeyLoops           = "Number of Loops"
	KeyComments        = "Number of Comments"
	KeyCyclomatic      = "Cyclomatic Complexity"
	KeyVariables       = "Variable Declarations"
	KeyFunctionCalls   = "Function Calls"
	KeyMaxLineLength   = "Max Line Length"
	KeyEmptyLines      = "Empty Lines"
	KeyHalsteadLength  = "Halstead Program Length"
	KeyHalsteadVocab   = "Halstead Vocabulary"
	KeyHalsteadVolume  = "Halstead Volume"
	KeyHalsteadDiff    = "Halstead Difficulty"
	KeyHalsteadEffort  = "Halstead Effort"
	KeyHalsteadTime    = "Halstead Time"
	KeyHalsteadBugs    = "Halstead Bugs"
	KeyMaintainability = "Maintainability Index"
)

const (
	maxMaintainability   = 100.0
	minMaintainability   = 0.0
	maintainabilityConst = 171.0
)

// Keys lists every metric name in reporting order.
var Keys = []string{
	KeyLinesOfCode, KeyMethods, KeyClasses, KeyLoops, KeyComments,
	KeyCyclomatic, KeyVariables, KeyFunctionCalls, KeyMaxLineLength, KeyEmptyLines,
	KeyHalsteadLength, KeyHalsteadVocab, KeyHalsteadVolume, KeyHalsteadDiff,
	KeyHalsteadEffort, KeyHalsteadTime, KeyHalsteadBugs, KeyMaintainability,
}

var (
	methodLine   = regexp.MustCompile(`\b(public|private|protected)\b.*\(.*\)`)
	classLine    = regexp.MustCompile(`\bclass\b`)
	loopLine     = regexp.MustCompile(`\b(for|while|do)\b`)
	branchLine   = regexp.MustCompile(`\b(if|else|for|while|case|catch)\b`)
	variableLine = regexp.MustCompile(`\b(int|double|String|boolean|char|float|long|short|byte)\b.*;$`)
	callLine     = regexp.MustCompile(`\w+\(.*\);$`)
)

// Summary is the numeric form of one analysis.
type Summary struct {
	LinesOfCode     int
	Methods         int
	Classes         int
	Loops           int
	Comments        int
	Cyclomatic      int
	Variables       int
	FunctionCalls   int
	MaxLineLength   int
	EmptyLines      int
	Halstead        HalsteadCounts
	Maintainability float64
}

type Engine struct{}

func NewEngine() *Engine { return &Engine{} }

// Analyze returns every metric in Keys formatted for display.
func (e *Engine) Analyze(code string) map[string]string {
	return e.Summarize(code).Format()
}

// Summarize computes the metrics without formatting them.
func (e *Engine) Summarize(code string) Summary {
	text := source.NewStripped(code)
	raw := text.Lines()
	trimmed := text.TrimmedLines()

	s := Summary{
		LinesOfCode:   len(raw),
		Methods:       countMatching(trimmed, methodLine),
		Classes:       countMatching(trimmed, classLine),
		Loops:         countMatching(trimmed, loopLine),
		Comments:      countComments(trimmed),
		Cyclomatic:    countMatching(trimmed, branchLine) + 1,
		Variables:     countMatching(trimmed, variableLine),
		FunctionCalls: countMatching(trimmed, callLine),
		MaxLineLength: text.MaxLineLength(),
		Halstead:      countHalstead(raw),
	}
	for i := 0; i < text.Len(); i++ {
		if text.IsBlank(i) {
			s.EmptyLines++
		}
	}
	s.Maintainability = maintainability(s.Halstead.Volume(), s.Cyclomatic, logicalLines(trimmed))
	return s
}

func (s Summary) Format() map[string]string {
	h := s.Halstead
	return map[string]string{
		KeyLinesOfCode:     strconv.Itoa(s.LinesOfCode),
		KeyMethods:         strconv.Itoa(s.Methods),
		KeyClasses:         strconv.Itoa(s.Classes),
		KeyLoops:           strconv.Itoa(s.Loops),
		KeyComments:        strconv.Itoa(s.Comments),
		KeyCyclomatic:      strconv.Itoa(s.Cyclomatic),
		KeyVariables:       strconv.Itoa(s.Variables),
		KeyFunctionCalls:   strconv.Itoa(s.FunctionCalls),
		KeyMaxLineLength:   strconv.Itoa(s.MaxLineLength),
		KeyEmptyLines:      strconv.Itoa(s.EmptyLines),
		KeyHalsteadLength:  twoDecimals(h.Length()),
		KeyHalsteadVocab:   twoDecimals(h.Vocabulary()),
		KeyHalsteadVolume:  twoDecimals(h.Volume()),
		KeyHalsteadDiff:    twoDecimals(h.Difficulty()),
		KeyHalsteadEffort:  twoDecimals(h.Effort()),
		KeyHalsteadTime:    twoDecimals(h.Time()),
		KeyHalsteadBugs:    twoDecimals(h.Bugs()),
		KeyMaintainability: twoDecimals(s.Maintainability),
	}
}

// maintainability clamps 171 - 5.2 ln V - 0.23 CC - 16.2 ln LOC to [0, 100].
// A zero volume or zero LOC drives the logs to -Inf, which clamps to 100.
func maintainability(volume float64, cyclomatic, loc int) float64 {
	if volume <= 0 || loc <= 0 {
		return maxMaintainability
	}
	mi := maintainabilityConst - 5.2*math.Log(volume) - 0.23*float64(cyclomatic) - 16.2*math.Log(float64(loc))
	return math.Max(minMaintainability, math.Min(maxMaintainability, mi))
}

func logicalLines(trimmed []string) int {
	count := 0
	for _, line := range trimmed {
		if line == "" || strings.HasPrefix(line, "//") || strings.HasPrefix(line, "/*") {
			continue
		}
		count++
	}
	return count
}

func countMatching(lines []string, re *regexp.Regexp) int {
	count := 0
	for _, line := range lines {
		if re.MatchString(line) {
			count++
		}
	}
	return count
}

func countComments(trimmed []string) int {
	count := 0
	for _, line := range trimmed {
		if strings.HasPrefix(line, "//") || strings.HasPrefix(line, "/*") || strings.HasPrefix(line, "*") {
			count++
		}
	}
	return count
}

func twoDecimals(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
