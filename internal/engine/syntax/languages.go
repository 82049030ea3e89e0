package syntax

import (
	"path/filepath"
	"sort"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_css "github.com/tree-sitter/tree-sitter-css/bindings/go"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tree_sitter_html "github.com/tree-sitter/tree-sitter-html/bindings/go"
	tree_sitter_java "github.com/tree-sitter/tree-sitter-java/bindings/go"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// DefaultLanguage is used when a request names no language.
const DefaultLanguage = "java"

type grammar struct {
	extensions []string
	load       func() *sitter.Language
}

var grammars = map[string]grammar{
	"css": {[]string{".css"}, func() *sitter.Language {
		return sitter.NewLanguage(tree_sitter_css.Language())
	}},
	"go": {[]string{".go"}, func() *sitter.Language {
		return sitter.NewLanguage(tree_sitter_go.Language())
	}},
	"html": {[]string{".html", ".htm"}, func() *sitter.Language {
		return sitter.NewLanguage(tree_sitter_html.Language())
	}},
	"java": {[]string{".java"}, func() *sitter.Language {
		return sitter.NewLanguage(tree_sitter_java.Language())
	}},
	"javascript": {[]string{".js", ".mjs", ".cjs", ".jsx"}, func() *sitter.Language {
		return sitter.NewLanguage(tree_sitter_javascript.Language())
	}},
	"python": {[]string{".py"}, func() *sitter.Language {
		return sitter.NewLanguage(tree_sitter_python.Language())
	}},
	"rust": {[]string{".rs"}, func() *sitter.Language {
		return sitter.NewLanguage(tree_sitter_rust.Language())
	}},
	"tsx": {[]string{".tsx"}, func() *sitter.Language {
		return sitter.NewLanguage(tree_sitter_typescript.LanguageTSX())
	}},
	"typescript": {[]string{".ts", ".mts", ".cts"}, func() *sitter.Language {
		return sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript())
	}},
}

var aliases = map[string]string{
	"golang": "go",
	"js":     "javascript",
	"py":     "python",
	"rs":     "rust",
	"ts":     "typescript",
}

// Languages lists the supported grammar names in sorted order.
func Languages() []string {
	out := make([]string, 0, len(grammars))
	for name := range grammars {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Canonical resolves aliases and case. Empty input selects DefaultLanguage.
func Canonical(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang == "" {
		return DefaultLanguage
	}
	if name, ok := aliases[lang]; ok {
		return name
	}
	return lang
}

// LanguageForPath picks a grammar from the file extension, falling back to
// DefaultLanguage.
func LanguageForPath(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	for _, name := range Languages() {
		for _, candidate := range grammars[name].extensions {
			if candidate == ext {
				return name
			}
		}
	}
	return DefaultLanguage
}
