package metrics

import (
	"math"
	"regexp"
)

var (
	operatorToken = regexp.MustCompile(`[+\-*/=<>!&|^%]|\b(if|else|while|for|return|new)\b`)
	operandToken  = regexp.MustCompile(`\b[a-zA-Z_]\w*\b|\b\d+\b|"[^"]*"`)
)

// HalsteadCounts holds the four raw counts. Every derived measure is
// computed from them on demand.
type HalsteadCounts struct {
	DistinctOperators int
	DistinctOperands  int
	TotalOperators    int
	TotalOperands     int
}

func countHalstead(lines []string) HalsteadCounts {
	operators := make(map[string]struct{})
	operands := make(map[string]struct{})
	var counts HalsteadCounts

	for _, line := range lines {
		for _, tok := range operatorToken.FindAllString(line, -1) {
			operators[tok] = struct{}{}
			counts.TotalOperators++
		}
		for _, tok := range operandToken.FindAllString(line, -1) {
			operands[tok] = struct{}{}
			counts.TotalOperands++
		}
	}

	counts.DistinctOperators = len(operators)
	counts.DistinctOperands = len(operands)
	return counts
}

func (h HalsteadCounts) Length() float64 {
	return float64(h.TotalOperators + h.TotalOperands)
}

func (h HalsteadCounts) Vocabulary() float64 {
	return float64(h.DistinctOperators + h.DistinctOperands)
}

// Volume is zero for an empty vocabulary.
func (h HalsteadCounts) Volume() float64 {
	vocab := h.Vocabulary()
	if vocab == 0 {
		return 0
	}
	return h.Length() * math.Log2(vocab)
}

// Difficulty is zero when there are no distinct operands.
func (h HalsteadCounts) Difficulty() float64 {
	if h.DistinctOperands == 0 {
		return 0
	}
	return float64(h.DistinctOperators*h.TotalOperands) / (2 * float64(h.DistinctOperands))
}

func (h HalsteadCounts) Effort() float64 { return h.Difficulty() * h.Volume() }

func (h HalsteadCounts) Time() float64 { return h.Effort() / 18 }

func (h HalsteadCounts) Bugs() float64 { return h.Volume() / 3000 }
