package spreadsheet

import "iter"

// TokenType represents different types of tokens in formulas
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenLeftParen
	TokenRightParen
	TokenOperator
	TokenVariable
	TokenNumber
	TokenInvalid
)

func (t TokenType) String() string {
	switch t {
	case TokenEOF:
		return "EOF"
	case TokenLeftParen:
		return "left paren"
	case TokenRightParen:
		return "right paren"
	case TokenOperator:
		return "operator"
	case TokenVariable:
		return "variable"
	case TokenNumber:
		return "number"
	default:
		return "invalid"
	}
}

// character classification constants. slightly easier to read.
const (
	charNull     = 0
	charTab      = '\t'
	charNewline  = '\n'
	charReturn   = '\r'
	charFeed     = '\f'
	charVTab     = '\v'
	charSpace    = ' '
	charLParen   = '('
	charRParen   = ')'
	charAsterisk = '*'
	charPlus     = '+'
	charMinus    = '-'
	charPeriod   = '.'
	charSlash    = '/'
)

// Token represents a lexical token with position information
type Token struct {
	Type  TokenType
	Value string
	Pos   int // rune position in input
}

// Lexer splits formula text into tokens: parentheses, the four binary
// operators, variables (a letter followed by letters and digits), and
// floating point literals. whitespace separates tokens and is never
// returned. runs of characters that start no valid token come back as a
// single TokenInvalid so the grammar check can name them.
type Lexer struct {
	runes []rune // UTF-8 aware representation
	pos   int
}

// NewLexer creates a new lexer for the given formula text (without the
// leading =)
func NewLexer(input string) *Lexer {
	return &Lexer{
		runes: []rune(input),
		pos:   0,
	}
}

// Next returns the next token, or a TokenEOF token once the input is
// exhausted. a lexer is consumed as it goes and cannot be rewound.
func (l *Lexer) Next() Token {
	l.skipWhitespace()

	if l.pos >= len(l.runes) {
		return Token{Type: TokenEOF, Pos: l.pos}
	}

	startPos := l.pos
	ch := l.current()

	switch ch {
	case charLParen:
		l.pos++
		return Token{Type: TokenLeftParen, Value: "(", Pos: startPos}
	case charRParen:
		l.pos++
		return Token{Type: TokenRightParen, Value: ")", Pos: startPos}
	case charPlus, charMinus, charAsterisk, charSlash:
		l.pos++
		return Token{Type: TokenOperator, Value: string(ch), Pos: startPos}
	}

	if l.startsNumber() {
		return l.scanNumber()
	}

	if isLetter(ch) {
		return l.scanVariable()
	}

	return l.scanInvalid()
}

// Tokens returns the token sequence of input as a single-use iterator.
// whitespace is filtered out and EOF is not yielded.
func Tokens(input string) iter.Seq[Token] {
	l := NewLexer(input)
	return func(yield func(Token) bool) {
		for {
			tok := l.Next()
			if tok.Type == TokenEOF {
				return
			}
			if !yield(tok) {
				return
			}
		}
	}
}

// Tokenize collects every token of input
func Tokenize(input string) []Token {
	var tokens []Token
	for tok := range Tokens(input) {
		tokens = append(tokens, tok)
	}
	return tokens
}

// scanNumber reads an integer or decimal literal with an optional
// exponent: 12, 1.5, .5, 5., 2.5e9, 1e-3
func (l *Lexer) scanNumber() Token {
	startPos := l.pos

	for isDigit(l.current()) {
		l.pos++
	}
	if l.current() == charPeriod {
		l.pos++
		for isDigit(l.current()) {
			l.pos++
		}
	}

	// an exponent only counts when digits follow, otherwise "2e" is the
	// number 2 followed by the variable e
	if ch := l.current(); ch == 'e' || ch == 'E' {
		offset := 1
		if sign := l.peek(1); sign == charPlus || sign == charMinus {
			offset = 2
		}
		if isDigit(l.peek(offset)) {
			l.pos += offset
			for isDigit(l.current()) {
				l.pos++
			}
		}
	}

	return Token{Type: TokenNumber, Value: l.substring(startPos, l.pos), Pos: startPos}
}

func (l *Lexer) scanVariable() Token {
	startPos := l.pos
	l.pos++
	for isLetter(l.current()) || isDigit(l.current()) {
		l.pos++
	}
	return Token{Type: TokenVariable, Value: l.substring(startPos, l.pos), Pos: startPos}
}

// scanInvalid consumes characters until something that begins a valid
// token, or whitespace, is reached
func (l *Lexer) scanInvalid() Token {
	startPos := l.pos
	l.pos++
	for l.pos < len(l.runes) {
		ch := l.current()
		if isSpace(ch) || isLetter(ch) || l.startsNumber() {
			break
		}
		if ch == charLParen || ch == charRParen || isOperator(ch) {
			break
		}
		l.pos++
	}
	return Token{Type: TokenInvalid, Value: l.substring(startPos, l.pos), Pos: startPos}
}

// helper methods for character navigation and classification

// substring returns a substring of the original input based on rune positions
func (l *Lexer) substring(start, end int) string {
	if start < 0 || end > len(l.runes) || start > end {
		return ""
	}
	return string(l.runes[start:end])
}

func (l *Lexer) current() rune {
	if l.pos >= len(l.runes) {
		return charNull
	}
	return l.runes[l.pos]
}

func (l *Lexer) peek(offset int) rune {
	pos := l.pos + offset
	if pos >= len(l.runes) || pos < 0 {
		return charNull
	}
	return l.runes[pos]
}

func (l *Lexer) startsNumber() bool {
	ch := l.current()
	return isDigit(ch) || (ch == charPeriod && isDigit(l.peek(1)))
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.runes) && isSpace(l.runes[l.pos]) {
		l.pos++
	}
}

func isSpace(ch rune) bool {
	switch ch {
	case charSpace, charTab, charNewline, charReturn, charFeed, charVTab:
		return true
	}
	return false
}

// isLetter only accepts ASCII letters, variables are [a-zA-Z][a-zA-Z0-9]*
func isLetter(ch rune) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}

func isOperator(ch rune) bool {
	return ch == charPlus || ch == charMinus || ch == charAsterisk || ch == charSlash
}

// isVariableName reports whether s as a whole is valid variable syntax
func isVariableName(s string) bool {
	if s == "" {
		return false
	}
	for i, ch := range s {
		if i == 0 && !isLetter(ch) {
			return false
		}
		if !isLetter(ch) && !isDigit(ch) {
			return false
		}
	}
	return true
}
