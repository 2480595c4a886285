package spreadsheet

import (
	"fmt"
	"regexp"
	"strings"
)

// CellNamePattern is the default cell name syntax: one or more letters
// followed by a row number that does not start with zero, e.g. A1, AB12
const CellNamePattern = `^[A-Za-z]+[1-9][0-9]*$`

var cellNameRegexp = regexp.MustCompile(CellNamePattern)

// Identity leaves names unchanged
func Identity(s string) string { return s }

// Upper folds names to upper case
func Upper(s string) string { return strings.ToUpper(s) }

// Lower folds names to lower case
func Lower(s string) string { return strings.ToLower(s) }

// AcceptAll accepts every name
func AcceptAll(string) bool { return true }

// DefaultNameValidator accepts names matching CellNamePattern
func DefaultNameValidator(name string) bool {
	return cellNameRegexp.MatchString(name)
}

// NormalizerByName resolves the configuration spelling of a normalizer:
// "upper", "lower", or "none"/"" for identity
func NormalizerByName(name string) (Normalizer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "none", "identity":
		return Identity, nil
	case "upper":
		return Upper, nil
	case "lower":
		return Lower, nil
	}
	return nil, fmt.Errorf("unknown normalizer %q", name)
}

// NamePolicy is a name validator together with the textual description
// persisted next to a workbook's cells
type NamePolicy struct {
	Description string
	IsValid     Validator
}

// PatternPolicy compiles a regular expression into a name policy. names
// must match both the cell name syntax and the pattern. an empty pattern
// accepts every syntactically valid cell name.
func PatternPolicy(pattern string) (NamePolicy, error) {
	if pattern == "" {
		pattern = ".*"
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return NamePolicy{}, fmt.Errorf("compile name pattern %q: %w", pattern, err)
	}
	return NamePolicy{
		Description: pattern,
		IsValid: func(name string) bool {
			return cellNameRegexp.MatchString(name) && re.MatchString(name)
		},
	}, nil
}

// DefaultNamePolicy accepts every name matching CellNamePattern
func DefaultNamePolicy() NamePolicy {
	return NamePolicy{
		Description: CellNamePattern,
		IsValid:     DefaultNameValidator,
	}
}
