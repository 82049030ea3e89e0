// Package syntax builds a concrete syntax tree for source text with
// tree-sitter and flattens it into a serialisable node tree.
package syntax

import (
	domainerrors "codeinspector/internal/core/errors"
	"fmt"
	"sync"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

type Node struct {
	Type        string `json:"type" yaml:"type"`
	StartByte   int    `json:"startByte" yaml:"start_byte"`
	EndByte     int    `json:"endByte" yaml:"end_byte"`
	StartRow    int    `json:"startRow" yaml:"start_row"`
	StartColumn int    `json:"startColumn" yaml:"start_column"`
	EndRow      int    `json:"endRow" yaml:"end_row"`
	EndColumn   int    `json:"endColumn" yaml:"end_column"`
	Children    []Node `json:"children" yaml:"children"`
}

// Walk visits n and its descendants in pre-order.
func (n *Node) Walk(fn func(*Node)) {
	fn(n)
	for i := range n.Children {
		n.Children[i].Walk(fn)
	}
}

type Tree struct {
	Language string `json:"language" yaml:"language"`
	RootType string `json:"rootNodeType,omitempty" yaml:"root_node_type,omitempty"`
	Nodes    []Node `json:"nodes" yaml:"nodes"`
	HasError bool   `json:"hasError" yaml:"has_error"`
	Error    string `json:"errorMessage,omitempty" yaml:"error_message,omitempty"`
}

// Parser owns one lazily created ParserPool per grammar.
type Parser struct {
	mu    sync.Mutex
	pools map[string]*ParserPool
}

func NewParser() *Parser {
	return &Parser{pools: make(map[string]*ParserPool)}
}

func (p *Parser) pool(lang string) (*ParserPool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if pool, ok := p.pools[lang]; ok {
		return pool, nil
	}
	g, ok := grammars[lang]
	if !ok {
		err := domainerrors.New(domainerrors.CodeNotSupported, "unsupported language")
		return nil, domainerrors.AddContext(err, domainerrors.CtxLanguage, lang)
	}
	pool := NewParserPool(g.load())
	p.pools[lang] = pool
	return pool, nil
}

// Parse returns the node tree of code in lang. Grammar errors inside the
// text are reported through Tree.HasError, not as an error.
func (p *Parser) Parse(lang, code string) (Tree, error) {
	lang = Canonical(lang)
	pool, err := p.pool(lang)
	if err != nil {
		return Tree{}, err
	}

	sp := pool.Get()
	defer pool.Put(sp)

	src := []byte(code)
	tree := sp.Parse(src, nil)
	if tree == nil {
		return Tree{Language: lang, Nodes: []Node{}, Error: "parser returned no tree"}, nil
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		return Tree{Language: lang, Nodes: []Node{}, Error: "Root node is null"}, nil
	}
	return Tree{
		Language: lang,
		RootType: root.Kind(),
		Nodes:    []Node{convert(root, src)},
		HasError: root.HasError(),
	}, nil
}

func convert(n *sitter.Node, src []byte) Node {
	start, end := n.StartPosition(), n.EndPosition()
	out := Node{
		Type:        label(n, src),
		StartByte:   int(n.StartByte()),
		EndByte:     int(n.EndByte()),
		StartRow:    int(start.Row),
		StartColumn: int(start.Column),
		EndRow:      int(end.Row),
		EndColumn:   int(end.Column),
		Children:    make([]Node, 0, n.ChildCount()),
	}
	for i := uint(0); i < n.ChildCount(); i++ {
		if child := n.Child(i); child != nil {
			out.Children = append(out.Children, convert(child, src))
		}
	}
	return out
}

// label renders the node kind with the declared name when one applies,
// e.g. "Class (Account)" or "variable_declarator (int total)".
func label(n *sitter.Node, src []byte) string {
	kind := n.Kind()
	display := kind
	switch kind {
	case "class_declaration":
		display = "Class"
	case "method_declaration":
		display = "Method"
	}
	if name := declaredName(n, src); name != "" {
		return fmt.Sprintf("%s (%s)", display, name)
	}
	return display
}

func declaredName(n *sitter.Node, src []byte) string {
	switch n.Kind() {
	case "class_declaration", "method_declaration", "constructor_declaration",
		"formal_parameter", "method_invocation":
		return fieldText(n, "name", src)
	case "variable_declaration", "local_variable_declaration", "field_declaration":
		if decl := n.ChildByFieldName("declarator"); decl != nil {
			return fieldText(decl, "name", src)
		}
	case "variable_declarator":
		name := fieldText(n, "name", src)
		if name == "" {
			return ""
		}
		if parent := n.Parent(); parent != nil {
			if typ := fieldText(parent, "type", src); typ != "" {
				return typ + " " + name
			}
		}
		return name
	case "type_identifier", "primitive_type", "import_declaration", "package_declaration":
		return n.Utf8Text(src)
	}
	return ""
}

func fieldText(n *sitter.Node, field string, src []byte) string {
	child := n.ChildByFieldName(field)
	if child == nil {
		return ""
	}
	return child.Utf8Text(src)
}
