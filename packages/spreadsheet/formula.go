package spreadsheet

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Normalizer maps a variable or cell name to its canonical form, e.g.
// upper-casing. it is applied before validation and graph lookups.
type Normalizer func(string) string

// Validator decides whether a (normalized) name is acceptable
type Validator func(string) bool

// Lookup resolves a variable to its numeric value. ok is false when the
// variable has no numeric value.
type Lookup func(name string) (value float64, ok bool)

// formulaToken is a validated token. number holds the parsed literal for
// TokenNumber tokens.
type formulaToken struct {
	Token
	number float64
}

// Formula is a validated infix expression over non-negative numbers,
// variables, parentheses, and the binary operators + - * /. formulas are
// immutable once constructed and safe to share between cells.
type Formula struct {
	tokens    []formulaToken
	variables []string // sorted, deduplicated, normalized
	text      string   // normalized rendering
}

// ParseFormula parses expr with no normalization and accepts every
// syntactically valid variable
func ParseFormula(expr string) (*Formula, error) {
	return NewFormula(expr, nil, nil)
}

// NewFormula parses and validates expr. each variable is passed through
// normalize (identity when nil); the result must still be valid variable
// syntax and must satisfy isValid (accept-all when nil). any violation is
// reported as an ErrFormulaFormat application error.
func NewFormula(expr string, normalize Normalizer, isValid Validator) (*Formula, error) {
	if normalize == nil {
		normalize = Identity
	}

	var (
		tokens  []formulaToken
		depth   int
		prev    *formulaToken
		seen    = make(map[string]struct{})
		builder strings.Builder
	)

	for tok := range Tokens(expr) {
		ft := formulaToken{Token: tok}

		switch tok.Type {
		case TokenInvalid:
			return nil, formulaFormat(fmt.Sprintf("invalid token %q at position %d", tok.Value, tok.Pos))
		case TokenNumber:
			// literals past the float64 range become ±Inf, like overflowing arithmetic
			n, err := strconv.ParseFloat(tok.Value, 64)
			if err != nil && !errors.Is(err, strconv.ErrRange) {
				return nil, formulaFormat(fmt.Sprintf("invalid number %q at position %d", tok.Value, tok.Pos))
			}
			ft.number = n
		case TokenVariable:
			name := normalize(tok.Value)
			if !isVariableName(name) {
				return nil, formulaFormat(fmt.Sprintf("variable %q normalizes to %q which is not a valid variable", tok.Value, name))
			}
			if isValid != nil && !isValid(name) {
				return nil, formulaFormat(fmt.Sprintf("variable %q is not a valid name", name))
			}
			ft.Value = name
			seen[name] = struct{}{}
		case TokenLeftParen:
			depth++
		case TokenRightParen:
			depth--
			if depth < 0 {
				return nil, formulaFormat(fmt.Sprintf("unexpected closing parenthesis at position %d", tok.Pos))
			}
		}

		if prev == nil {
			if !ft.isOperand() && ft.Type != TokenLeftParen {
				return nil, formulaFormat(fmt.Sprintf("formula cannot start with %q", tok.Value))
			}
		} else if err := checkTransition(prev, &ft); err != nil {
			return nil, err
		}

		tokens = append(tokens, ft)
		prev = &tokens[len(tokens)-1]
		builder.WriteString(ft.Value)
	}

	if len(tokens) == 0 {
		return nil, formulaFormat("formula is empty")
	}
	if depth != 0 {
		return nil, formulaFormat("unbalanced parentheses: missing closing parenthesis")
	}
	if last := tokens[len(tokens)-1]; last.Type == TokenLeftParen || last.Type == TokenOperator {
		return nil, formulaFormat(fmt.Sprintf("formula cannot end with %q", last.Value))
	}

	variables := make([]string, 0, len(seen))
	for name := range seen {
		variables = append(variables, name)
	}
	slices.Sort(variables)

	return &Formula{
		tokens:    tokens,
		variables: variables,
		text:      builder.String(),
	}, nil
}

// checkTransition enforces what may follow prev
func checkTransition(prev, next *formulaToken) error {
	switch {
	case prev.Type == TokenLeftParen || prev.Type == TokenOperator:
		if !next.isOperand() && next.Type != TokenLeftParen {
			return formulaFormat(fmt.Sprintf("expected a number, variable or ( after %q at position %d, got %q", prev.Value, next.Pos, next.Value))
		}
	case prev.isOperand() || prev.Type == TokenRightParen:
		if next.Type != TokenOperator && next.Type != TokenRightParen {
			return formulaFormat(fmt.Sprintf("expected an operator or ) after %q at position %d, got %q", prev.Value, next.Pos, next.Value))
		}
	}
	return nil
}

func (t *formulaToken) isOperand() bool {
	return t.Type == TokenNumber || t.Type == TokenVariable
}

// Variables returns the normalized variable names the formula reads
func (f *Formula) Variables() []string {
	return slices.Clone(f.variables)
}

// String renders the normalized tokens without whitespace
func (f *Formula) String() string {
	return f.text
}

// Equal reports whether both formulas have the same normalized tokens
func (f *Formula) Equal(other *Formula) bool {
	if f == nil || other == nil {
		return f == other
	}
	return f.text == other.text
}

// Evaluate computes the formula with a two-stack evaluator in a single
// left-to-right pass. * and / are applied as soon as their right operand
// is known, + and - are deferred until the next + or -, a closing
// parenthesis, or the end of input. operands keep their written order,
// so 8-2 is 6 and 8/2 is 4.
func (f *Formula) Evaluate(lookup Lookup) (float64, *EvaluationError) {
	values := make([]float64, 0, len(f.tokens))
	operators := make([]string, 0, len(f.tokens))

	top := func() string {
		if len(operators) == 0 {
			return ""
		}
		return operators[len(operators)-1]
	}

	// combine pops the top operator and the two most recent operands
	combine := func() *EvaluationError {
		op := operators[len(operators)-1]
		operators = operators[:len(operators)-1]
		right := values[len(values)-1]
		left := values[len(values)-2]
		values = values[:len(values)-2]

		result, err := apply(op, left, right)
		if err != nil {
			return err
		}
		values = append(values, result)
		return nil
	}

	for _, tok := range f.tokens {
		switch tok.Type {
		case TokenNumber, TokenVariable:
			operand := tok.number
			if tok.Type == TokenVariable {
				v, ok := lookup(tok.Value)
				if !ok {
					return 0, NewEvaluationError(UndefinedVariable, "undefined variable: "+tok.Value)
				}
				operand = v
			}
			values = append(values, operand)
			if op := top(); op == "*" || op == "/" {
				if err := combine(); err != nil {
					return 0, err
				}
			}

		case TokenOperator:
			if tok.Value == "+" || tok.Value == "-" {
				if op := top(); op == "+" || op == "-" {
					if err := combine(); err != nil {
						return 0, err
					}
				}
			}
			operators = append(operators, tok.Value)

		case TokenLeftParen:
			operators = append(operators, "(")

		case TokenRightParen:
			if op := top(); op == "+" || op == "-" {
				if err := combine(); err != nil {
					return 0, err
				}
			}
			// matching (
			operators = operators[:len(operators)-1]
			if op := top(); op == "*" || op == "/" {
				if err := combine(); err != nil {
					return 0, err
				}
			}
		}
	}

	if len(operators) > 0 {
		if err := combine(); err != nil {
			return 0, err
		}
	}
	return values[len(values)-1], nil
}

func apply(op string, left, right float64) (float64, *EvaluationError) {
	switch op {
	case "+":
		return left + right, nil
	case "-":
		return left - right, nil
	case "*":
		return left * right, nil
	default:
		if right == 0 {
			return 0, NewEvaluationError(DivideByZero, "")
		}
		return left / right, nil
	}
}
