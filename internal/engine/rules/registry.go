// Package rules holds the immutable pattern, rule and weight tables shared
// by the analysis engines. A Registry is built once and never mutated, so
// engines may read it from any number of goroutines.
package rules

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	TypeInjection         = "INJECTION"
	TypeBrokenAuth        = "BROKEN_AUTH"
	TypeSensitiveData     = "SENSITIVE_DATA"
	TypeXXE               = "XXE"
	TypeBrokenAccess      = "BROKEN_ACCESS"
	TypeWeakCrypto        = "WEAK_CRYPTO"
	TypeInsecureRandom    = "INSECURE_RANDOM"
	TypeLogInjection      = "LOG_INJECTION"
	TypeSQLInjection      = "SQL_INJECTION"
	TypeUnsafeLogging     = "UNSAFE_LOGGING"
	TypeNullCheck         = "NULL_CHECK"
	TypeXSS               = "XSS"
	TypeExceptionHandling = "EXCEPTION_HANDLING"
	TypeThreadSafety      = "THREAD_SAFETY"
	TypeResourceLeak      = "RESOURCE_LEAK"
)

// VulnerabilityPattern flags every match of Expr in the full text.
type VulnerabilityPattern struct {
	Type        string
	Expr        *regexp.Regexp
	Severity    Severity
	Description string
	Remediation string
}

// SecurityRule fires once when Predicate holds for the full text.
type SecurityRule struct {
	Type        string
	Predicate   func(code string) bool
	Severity    Severity
	Description string
	Remediation string
}

// Weight scales an issue type in the security and category scores.
type Weight struct {
	CWE            float64
	Exploitability float64
}

// DefaultWeight applies to issue types without a registered weight.
var DefaultWeight = Weight{CWE: 100, Exploitability: 0.5}

// PatternConfig describes an additional vulnerability pattern. A pattern
// whose Type matches a built-in one replaces it.
type PatternConfig struct {
	Type        string
	Regex       string
	Severity    string
	Description string
	Remediation string
}

type Config struct {
	Patterns      []PatternConfig
	DisabledTypes []string
}

type Registry struct {
	patterns []VulnerabilityPattern
	rules    []SecurityRule
	weights  map[string]Weight
	smells   SmellPatterns
}

var builtInPatterns = []PatternConfig{
	{
		Type:        TypeInjection,
		Regex:       `(executeQuery|executeUpdate)\s*\([^?]*\+|jdbc:.*[^?]\+`,
		Severity:    "CRITICAL",
		Description: "SQL/NoSQL Injection vulnerability",
		Remediation: "Use parameterized queries or ORM frameworks",
	},
	{
		Type:        TypeBrokenAuth,
		Regex:       `(MD5|SHA1)\.(digest|hash)|password\s*=\s*"[^"]*"|crypto\.createHash\s*\(\s*['"]md5['"]\)`,
		Severity:    "HIGH",
		Description: "Weak authentication mechanism",
		Remediation: "Use strong hashing algorithms (bcrypt, PBKDF2) and secure session management",
	},
	{
		Type:        TypeSensitiveData,
		Regex:       `(password|secret|key|token|credential)\s*=\s*"[^"]*"|getenv\(['"](?:API_KEY|SECRET)['"]\)`,
		Severity:    "HIGH",
		Description: "Sensitive data exposure",
		Remediation: "Use encryption for sensitive data and secure key management",
	},
	{
		Type:        TypeXXE,
		Regex:       `DocumentBuilder|SAXParser|XMLReader`,
		Severity:    "HIGH",
		Description: "XML External Entity (XXE) vulnerability",
		Remediation: "Disable external entity processing in XML parsers",
	},
	{
		Type:        TypeBrokenAccess,
		Regex:       `@PermitAll|role\s*=\s*"ROLE_ADMIN"|hasRole\(.*\)`,
		Severity:    "HIGH",
		Description: "Broken access control",
		Remediation: "Implement proper authorization checks and role-based access control",
	},
	{
		Type:        TypeWeakCrypto,
		Regex:       `DES|RC2|RC4|Blowfish|ECB|([^S]|^)DES`,
		Severity:    "HIGH",
		Description: "Weak cryptographic algorithm",
		Remediation: "Use strong algorithms like AES-256-GCM",
	},
	{
		Type:        TypeInsecureRandom,
		Regex:       `Math\.random|Random\(\)|java\.util\.Random`,
		Severity:    "MEDIUM",
		Description: "Insecure random number generation",
		Remediation: "Use SecureRandom for cryptographic operations",
	},
	{
		Type:        TypeLogInjection,
		Regex:       `logger\.(info|error|debug)\(.*\+.*\)`,
		Severity:    "MEDIUM",
		Description: "Potential log injection",
		Remediation: "Sanitize log inputs and use proper logging frameworks",
	},
	{
		Type:        TypeSQLInjection,
		Regex:       `(executeQuery|executeUpdate)\s*\([^?]*\+|"SELECT.*WHERE.*\+.*"`,
		Severity:    "CRITICAL",
		Description: "SQL Injection vulnerability detected",
		Remediation: "Use PreparedStatement with parameterized queries instead of string concatenation",
	},
	{
		Type:        TypeUnsafeLogging,
		Regex:       `System\.out\.println\(.*\)|System\.err\.println\(.*\)`,
		Severity:    "MEDIUM",
		Description: "Unsafe logging practice",
		Remediation: "Use a proper logging framework (e.g., SLF4J, Log4j) with appropriate log levels",
	},
	{
		Type:        TypeNullCheck,
		Regex:       `if\s*\([^=]*==\s*null\)|if\s*\([^=]*!=\s*null\)`,
		Severity:    "LOW",
		Description: "Basic null check found",
		Remediation: "Consider using Optional<T> or Objects.requireNonNull() for better null handling",
	},
}

func builtInRules() []SecurityRule {
	return []SecurityRule{
		{
			Type: TypeNullCheck,
			Predicate: func(code string) bool {
				return strings.Contains(code, "null") &&
					!strings.Contains(code, "!= null") &&
					!strings.Contains(code, "== null")
			},
			Severity:    Medium,
			Description: "Missing null checks",
			Remediation: "Add proper null checks to prevent NullPointerException",
		},
		{
			Type: TypeExceptionHandling,
			Predicate: func(code string) bool {
				return strings.Contains(code, "catch") &&
					strings.Contains(code, "Exception") &&
					!strings.Contains(code, "specific")
			},
			Severity:    Medium,
			Description: "Generic exception handling",
			Remediation: "Use specific exception types and proper error handling",
		},
		{
			Type: TypeThreadSafety,
			Predicate: func(code string) bool {
				return strings.Contains(code, "synchronized") || strings.Contains(code, "volatile")
			},
			Severity:    Medium,
			Description: "Potential thread safety issues",
			Remediation: "Ensure proper synchronization in multi-threaded code",
		},
		{
			Type: TypeResourceLeak,
			Predicate: func(code string) bool {
				return strings.Contains(code, "new FileInputStream") || strings.Contains(code, "new Socket")
			},
			Severity:    High,
			Description: "Potential resource leak",
			Remediation: "Use try-with-resources for proper resource management",
		},
	}
}

func builtInWeights() map[string]Weight {
	return map[string]Weight{
		TypeSQLInjection:  {CWE: 100, Exploitability: 1.0},
		TypeXSS:           {CWE: 80, Exploitability: 0.9},
		TypeBrokenAuth:    {CWE: 75, Exploitability: 0.8},
		TypeSensitiveData: {CWE: 70, Exploitability: 0.7},
		TypeUnsafeLogging: {CWE: 30, Exploitability: 0.3},
		TypeNullCheck:     {CWE: 20, Exploitability: 0.2},
	}
}

// NewRegistry compiles the built-in tables plus any configured patterns.
func NewRegistry(cfg Config) (*Registry, error) {
	disabled := make(map[string]bool, len(cfg.DisabledTypes))
	for _, t := range cfg.DisabledTypes {
		disabled[strings.ToUpper(strings.TrimSpace(t))] = true
	}

	merged := make([]PatternConfig, 0, len(builtInPatterns)+len(cfg.Patterns))
	index := make(map[string]int, len(builtInPatterns))
	for _, p := range append(append([]PatternConfig(nil), builtInPatterns...), cfg.Patterns...) {
		p.Type = strings.ToUpper(strings.TrimSpace(p.Type))
		if p.Type == "" {
			return nil, fmt.Errorf("vulnerability pattern %q: type is required", p.Regex)
		}
		if i, ok := index[p.Type]; ok {
			merged[i] = p
			continue
		}
		index[p.Type] = len(merged)
		merged = append(merged, p)
	}

	patterns := make([]VulnerabilityPattern, 0, len(merged))
	for _, p := range merged {
		if disabled[p.Type] {
			continue
		}
		compiled, err := compilePattern(p)
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, compiled)
	}

	rules := make([]SecurityRule, 0, 4)
	for _, r := range builtInRules() {
		if disabled[r.Type] {
			continue
		}
		rules = append(rules, r)
	}

	return &Registry{
		patterns: patterns,
		rules:    rules,
		weights:  builtInWeights(),
		smells:   compileSmellPatterns(),
	}, nil
}

// MustRegistry is NewRegistry for the built-in tables only.
func MustRegistry() *Registry {
	r, err := NewRegistry(Config{})
	if err != nil {
		panic(err)
	}
	return r
}

func compilePattern(p PatternConfig) (VulnerabilityPattern, error) {
	re, err := regexp.Compile(p.Regex)
	if err != nil {
		return VulnerabilityPattern{}, fmt.Errorf("compile vulnerability pattern %q: %w", p.Type, err)
	}
	severity, err := ParseSeverity(p.Severity)
	if err != nil {
		return VulnerabilityPattern{}, fmt.Errorf("vulnerability pattern %q: %w", p.Type, err)
	}
	return VulnerabilityPattern{
		Type:        p.Type,
		Expr:        re,
		Severity:    severity,
		Description: p.Description,
		Remediation: p.Remediation,
	}, nil
}

// Patterns returns the vulnerability patterns in registration order.
func (r *Registry) Patterns() []VulnerabilityPattern {
	return append([]VulnerabilityPattern(nil), r.patterns...)
}

// Rules returns the whole-text rules in registration order.
func (r *Registry) Rules() []SecurityRule {
	return append([]SecurityRule(nil), r.rules...)
}

// Weight is a total lookup. Unregistered types get DefaultWeight.
func (r *Registry) Weight(issueType string) Weight {
	if w, ok := r.weights[issueType]; ok {
		return w
	}
	return DefaultWeight
}

func (r *Registry) Smells() SmellPatterns { return r.smells }

// Types lists the registered pattern and rule types, deduplicated.
func (r *Registry) Types() []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range r.patterns {
		if !seen[p.Type] {
			seen[p.Type] = true
			out = append(out, p.Type)
		}
	}
	for _, rule := range r.rules {
		if !seen[rule.Type] {
			seen[rule.Type] = true
			out = append(out, rule.Type)
		}
	}
	return out
}
