// Package structure rebuilds a nested block tree from brace-delimited source
// lines and scores it for complexity.
package structure

import (
	"codeinspector/internal/engine/source"
	"fmt"
	"regexp"
	"strings"
)

const DefaultMaxDepth = 256

var (
	ifOpener     = regexp.MustCompile(`\b(if|else if)\s*\(`)
	loopOpener   = regexp.MustCompile(`\b(while|for)\s*\(`)
	switchOpener = regexp.MustCompile(`\bswitch\s*\(`)
	methodOpener = regexp.MustCompile(`\b(public|private|protected)\s+.*\(.*\)\s*\{$`)
)

// Result is the outcome of one parse. On failure Root is nil, Complexity is
// zero and Error carries the message.
type Result struct {
	Root              *Node    `json:"rootNode" yaml:"root_node"`
	Complexity        int      `json:"complexity" yaml:"complexity"`
	ComplexityDetails []string `json:"complexityDetails" yaml:"complexity_details"`
	Error             string   `json:"error,omitempty" yaml:"error,omitempty"`
}

type Parser struct {
	maxDepth int
}

func NewParser(maxDepth int) *Parser {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Parser{maxDepth: maxDepth}
}

// cursor walks lines pos..end (inclusive) of one block interior.
type cursor struct {
	text source.Text
	pos  int
	end  int
}

func (c *cursor) done() bool { return c.pos > c.end }

// Parse never fails outright; scan errors and panics become Result.Error.
func (p *Parser) Parse(code string) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = Result{Error: fmt.Sprintf("Error: %v", r)}
		}
	}()

	text := source.New(code)
	last := text.Len() - 1
	root := &Node{
		Label:     "root",
		Kind:      Sequence,
		StartLine: 0,
		EndLine:   last,
		Code:      text.Slice(0, last),
	}

	if err := p.parseBlock(&cursor{text: text, pos: 0, end: last}, root, 0); err != nil {
		return Result{Error: "Error: " + err.Error()}
	}

	total := score(root)
	details := make([]string, 0)
	root.Walk(func(n *Node) {
		if n.Complexity > 1 {
			details = append(details, n.detail())
		}
	})

	return Result{Root: root, Complexity: total, ComplexityDetails: details}
}

func (p *Parser) parseBlock(c *cursor, parent *Node, depth int) error {
	for !c.done() {
		start := c.pos
		kind, ok := classify(c.text.Trimmed(start))
		if !ok {
			c.pos++
			continue
		}

		end := blockEnd(c.text, start, c.end)
		node := &Node{
			Label:     label(kind, c.text.Line(start)),
			Kind:      kind,
			StartLine: start,
			EndLine:   end,
			Code:      c.text.Slice(start, end),
		}
		parent.Children = append(parent.Children, node)

		if kind != SwitchCase {
			if depth+1 > p.maxDepth {
				return fmt.Errorf("maximum nesting depth %d exceeded at line %d", p.maxDepth, start+1)
			}
			inner := &cursor{text: c.text, pos: start + 1, end: end - 1}
			if err := p.parseBlock(inner, node, depth+1); err != nil {
				return err
			}
		}
		c.pos = end + 1
	}
	return nil
}

func classify(trimmed string) (Kind, bool) {
	switch {
	case ifOpener.MatchString(trimmed):
		return IfCondition, true
	case loopOpener.MatchString(trimmed):
		return Loop, true
	case switchOpener.MatchString(trimmed):
		return SwitchCase, true
	case methodOpener.MatchString(trimmed):
		return Method, true
	}
	return Sequence, false
}

func label(kind Kind, line string) string {
	switch kind {
	case IfCondition:
		return "If Statement"
	case Loop:
		return "Loop"
	case SwitchCase:
		return "Switch"
	case Method:
		return "Method: " + methodName(line)
	}
	return "root"
}

// blockEnd scans from start for the line where the brace balance returns
// to zero after opening. An unclosed block ends at limit.
func blockEnd(text source.Text, start, limit int) int {
	depth := 0
	opened := false
	for i := start; i <= limit; i++ {
		for _, ch := range text.Line(i) {
			switch ch {
			case '{':
				opened = true
				depth++
			case '}':
				if depth == 0 {
					continue
				}
				depth--
				if depth == 0 && opened {
					return i
				}
			}
		}
	}
	return limit
}

func methodName(line string) string {
	for _, field := range strings.Fields(line) {
		if idx := strings.Index(field, "("); idx >= 0 {
			return field[:idx]
		}
	}
	return "unknown"
}
