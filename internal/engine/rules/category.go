package rules

import "strings"

// Category buckets issue types for recommendations and category scores.
type Category int

const (
	InputValidation Category = iota
	Authentication
	Cryptography
	GeneralSecurity
)

func (c Category) String() string {
	switch c {
	case InputValidation:
		return "Input Validation"
	case Authentication:
		return "Authentication"
	case Cryptography:
		return "Cryptography"
	default:
		return "General Security"
	}
}

func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// CategoryOf derives the category from substrings of the issue type.
// Checks run in order, so INJECTION wins over AUTH.
func CategoryOf(issueType string) Category {
	switch {
	case strings.Contains(issueType, "INJECTION"):
		return InputValidation
	case strings.Contains(issueType, "AUTH"):
		return Authentication
	case strings.Contains(issueType, "CRYPTO"):
		return Cryptography
	default:
		return GeneralSecurity
	}
}

// IsQualityIssue reports whether an issue type feeds the code quality score.
func IsQualityIssue(issueType string) bool {
	return issueType == TypeNullCheck ||
		issueType == TypeUnsafeLogging ||
		strings.Contains(issueType, "CODE_SMELL")
}
