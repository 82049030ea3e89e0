package rules

import "regexp"

// SmellPatterns are the compiled expressions behind each smell check.
// All of them run against the full text.
type SmellPatterns struct {
	MethodBody    *regexp.Regexp
	MethodDecl    *regexp.Regexp
	ParameterList *regexp.Regexp
	Branch        *regexp.Regexp
	Variable      *regexp.Regexp
	LowerCamel    *regexp.Regexp
	PrivateField  *regexp.Regexp
	Switch        *regexp.Regexp
}

func compileSmellPatterns() SmellPatterns {
	return SmellPatterns{
		MethodBody:    regexp.MustCompile(`\w+\s+\w+\s*\([^)]*\)\s*\{([^}]*?)\}`),
		MethodDecl:    regexp.MustCompile(`(public|private|protected)\s+\w+\s+\w+\s*\(`),
		ParameterList: regexp.MustCompile(`\w+\s+\w+\s*\((.*?)\)`),
		Branch:        regexp.MustCompile(`if\s*\(|else\s*\{|while\s*\(|for\s*\(|case\s+.*:|catch\s*\(|\|\||&&|\?|throw\s+new`),
		Variable:      regexp.MustCompile(`\b(?:int|String|boolean|double|float)\s+(\w+)\b`),
		LowerCamel:    regexp.MustCompile(`^[a-z][a-zA-Z0-9]*$`),
		PrivateField:  regexp.MustCompile(`private\s+\w+\s+\w+;`),
		Switch:        regexp.MustCompile(`switch\s*\(.*?\)`),
	}
}
