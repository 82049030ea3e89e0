package syntax

import (
	domainerrors "codeinspector/internal/core/errors"
	"sync"
	"testing"
)

const javaSample = `class Account {
    void deposit(int amount) {
        String note = "cash";
    }
}
`

func labels(tree Tree) map[string]*Node {
	out := make(map[string]*Node)
	for i := range tree.Nodes {
		tree.Nodes[i].Walk(func(n *Node) {
			if _, seen := out[n.Type]; !seen {
				out[n.Type] = n
			}
		})
	}
	return out
}

func TestParseJava(t *testing.T) {
	tree, err := NewParser().Parse("", javaSample)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if tree.Language != "java" || tree.RootType != "program" || tree.HasError {
		t.Fatalf("unexpected tree header %+v", tree)
	}
	if len(tree.Nodes) != 1 {
		t.Fatalf("expected a single root node, got %d", len(tree.Nodes))
	}

	found := labels(tree)
	for _, want := range []string{
		"Class (Account)",
		"Method (deposit)",
		"formal_parameter (amount)",
		"local_variable_declaration (note)",
		"variable_declarator (String note)",
		"type_identifier (String)",
	} {
		if found[want] == nil {
			t.Fatalf("expected node %q in tree", want)
		}
	}

	class := found["Class (Account)"]
	if class.StartByte != 0 || class.StartRow != 0 || class.StartColumn != 0 || class.EndRow != 4 {
		t.Fatalf("unexpected class span %+v", class)
	}
	method := found["Method (deposit)"]
	if method.StartRow != 1 || method.StartColumn != 4 {
		t.Fatalf("unexpected method position %+v", method)
	}
}

func TestChildrenStayInsideParent(t *testing.T) {
	tree, err := NewParser().Parse("java", javaSample)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	var check func(n *Node)
	check = func(n *Node) {
		for i := range n.Children {
			c := &n.Children[i]
			if c.StartByte < n.StartByte || c.EndByte > n.EndByte {
				t.Fatalf("child %q [%d,%d] escapes parent %q [%d,%d]",
					c.Type, c.StartByte, c.EndByte, n.Type, n.StartByte, n.EndByte)
			}
			check(c)
		}
	}
	check(&tree.Nodes[0])
}

func TestParseOtherGrammars(t *testing.T) {
	cases := map[string]struct {
		code string
		root string
	}{
		"go":     {"package main\nfunc main() {}\n", "source_file"},
		"py":     {"def f():\n    return 1\n", "module"},
		"js":     {"function f() { return 1; }\n", "program"},
		"rust":   {"fn main() {}\n", "source_file"},
		"css":    {"a { color: red; }\n", "stylesheet"},
		"html":   {"<p>hi</p>\n", "document"},
		"ts":     {"let x: number = 1;\n", "program"},
		"tsx":    {"const a = <div />;\n", "program"},
		"golang": {"package x\n", "source_file"},
	}
	p := NewParser()
	for lang, tc := range cases {
		tree, err := p.Parse(lang, tc.code)
		if err != nil {
			t.Fatalf("%s: parse failed: %v", lang, err)
		}
		if tree.RootType != tc.root {
			t.Fatalf("%s: expected root %q, got %q", lang, tc.root, tree.RootType)
		}
	}
}

func TestParseUnsupportedLanguage(t *testing.T) {
	_, err := NewParser().Parse("cobol", "IDENTIFICATION DIVISION.")
	if !domainerrors.IsCode(err, domainerrors.CodeNotSupported) {
		t.Fatalf("expected NOT_SUPPORTED, got %v", err)
	}
}

func TestParseReportsSyntaxErrors(t *testing.T) {
	tree, err := NewParser().Parse("java", "class {")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if !tree.HasError {
		t.Fatal("expected the tree to flag a syntax error")
	}
}

func TestParseConcurrent(t *testing.T) {
	p := NewParser()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				if _, err := p.Parse("java", javaSample); err != nil {
					t.Errorf("parse failed: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	pool, err := p.pool("java")
	if err != nil {
		t.Fatalf("pool lookup failed: %v", err)
	}
	if pool.Leased() != 0 {
		t.Fatalf("expected every parser to be returned, %d still leased", pool.Leased())
	}
}

func TestLanguageResolution(t *testing.T) {
	if got := Canonical(" TS "); got != "typescript" {
		t.Fatalf("Canonical alias: got %q", got)
	}
	if got := Canonical(""); got != DefaultLanguage {
		t.Fatalf("Canonical default: got %q", got)
	}
	cases := map[string]string{
		"src/Main.java": "java",
		"web/app.tsx":   "tsx",
		"lib/mod.rs":    "rust",
		"README":        DefaultLanguage,
	}
	for path, want := range cases {
		if got := LanguageForPath(path); got != want {
			t.Fatalf("LanguageForPath(%q) = %q, want %q", path, got, want)
		}
	}
	if len(Languages()) != 9 {
		t.Fatalf("expected 9 grammars, got %v", Languages())
	}
}
