// Package compare measures how much two code bodies share, using a
// line-mode diff to find common runs.
package compare

import (
	"codeinspector/internal/engine/metrics"
	"fmt"
	"math"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// MinRun is the shortest common run, in lines, reported as duplicated.
const MinRun = 2

type Result struct {
	Code1Metrics        map[string]string `json:"code1Metrics" yaml:"code1_metrics"`
	Code2Metrics        map[string]string `json:"code2Metrics" yaml:"code2_metrics"`
	DuplicatedLines     []string          `json:"duplicatedLines" yaml:"duplicated_lines"`
	DuplicateSimilarity float64           `json:"CPDsimilarityPercentage" yaml:"duplicate_similarity"`
	DiffSimilarity      float64           `json:"diffSimilarityPercentage" yaml:"diff_similarity"`
	MatchedLines        string            `json:"matchedLines" yaml:"matched_lines"`
}

type Comparer struct {
	metrics *metrics.Engine
}

func NewComparer(engine *metrics.Engine) *Comparer {
	if engine == nil {
		engine = metrics.NewEngine()
	}
	return &Comparer{metrics: engine}
}

func (c *Comparer) Compare(code1, code2 string) Result {
	dmp := diffmatchpatch.New()
	// A zero timeout keeps the diff exact and repeatable.
	dmp.DiffTimeout = 0

	chars1, chars2, lineArray := dmp.DiffLinesToChars(code1, code2)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(chars1, chars2, false), lineArray)

	var duplicated []string
	common, lines1, lines2 := 0, 0, 0
	for _, d := range diffs {
		n := lineCount(d.Text)
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			common += n
			lines1 += n
			lines2 += n
			if n >= MinRun {
				duplicated = append(duplicated, significantLines(d.Text)...)
			}
		case diffmatchpatch.DiffDelete:
			lines1 += n
		case diffmatchpatch.DiffInsert:
			lines2 += n
		}
	}
	if duplicated == nil {
		duplicated = []string{}
	}

	res := Result{
		Code1Metrics:        c.metrics.Analyze(code1),
		Code2Metrics:        c.metrics.Analyze(code2),
		DuplicatedLines:     duplicated,
		DuplicateSimilarity: duplicateSimilarity(code1, code2, duplicated),
	}
	if lines1+lines2 > 0 {
		res.DiffSimilarity = float64(2*common) / float64(lines1+lines2) * 100
	}
	res.MatchedLines = summary(res)
	return res
}

func duplicateSimilarity(code1, code2 string, duplicated []string) float64 {
	total := max(len(significantLines(code1)), len(significantLines(code2)))
	if total == 0 {
		return 0
	}
	unique := make(map[string]struct{}, len(duplicated))
	for _, line := range duplicated {
		unique[line] = struct{}{}
	}
	return math.Min(100, float64(len(unique))*100/float64(total))
}

// significantLines trims each line and drops blanks and lone braces.
func significantLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || line == "{" || line == "}" {
			continue
		}
		out = append(out, line)
	}
	return out
}

func lineCount(text string) int {
	if text == "" {
		return 0
	}
	n := strings.Count(text, "\n")
	if !strings.HasSuffix(text, "\n") {
		n++
	}
	return n
}

func summary(res Result) string {
	var b strings.Builder
	b.WriteString(strings.Join(res.DuplicatedLines, "\n"))
	fmt.Fprintf(&b, "\n\nDiff Report:\n%.2f%% Similarity\n", res.DiffSimilarity)
	return b.String()
}
