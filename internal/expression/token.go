package expression

import (
	"math"
	"strconv"

	"github.com/karupanerura/rpn-expressions/internal/types"
)

type TokenKind int

const (
	InvalidToken TokenKind = iota
	NumberToken
	OperatorToken
)

func (k TokenKind) String() string {
	switch k {
	case NumberToken:
		return "number"
	case OperatorToken:
		return "operator"
	default:
		return "invalid"
	}
}

// Token is a single element of a postfix expression. Source keeps the text
// the client sent so that the stored buffer round-trips unchanged.
type Token struct {
	Kind     TokenKind
	Source   string
	Number   float64
	Operator Operator
}

func (t Token) String() string {
	return t.Source
}

// Classify reports whether s is a number, one of the four operators, or neither.
func Classify(s string) TokenKind {
	if _, ok := symbolOperatorMap[s]; ok {
		return OperatorToken
	}
	if _, ok := parseNumber(s); ok {
		return NumberToken
	}
	return InvalidToken
}

// ParseToken classifies s and returns the decoded token.
func ParseToken(s string) (Token, error) {
	if op, ok := symbolOperatorMap[s]; ok {
		return Token{Kind: OperatorToken, Source: s, Operator: op}, nil
	}
	if n, ok := parseNumber(s); ok {
		return Token{Kind: NumberToken, Source: s, Number: n}, nil
	}
	return Token{}, types.NewError(types.InvalidTokenErrorTag, "%q is neither a number nor one of %v", s, OperatorSymbols())
}

// ParseNumberToken accepts numbers only.
func ParseNumberToken(s string) (Token, error) {
	n, ok := parseNumber(s)
	if !ok {
		return Token{}, types.NewError(types.InvalidTokenErrorTag, "invalid value %q: not a number", s)
	}
	return Token{Kind: NumberToken, Source: s, Number: n}, nil
}

// ParseOperatorToken accepts operators only.
func ParseOperatorToken(s string) (Token, error) {
	op, ok := symbolOperatorMap[s]
	if !ok {
		return Token{}, types.NewError(types.InvalidTokenErrorTag, "invalid operator %q: must be one of %v", s, OperatorSymbols())
	}
	return Token{Kind: OperatorToken, Source: s, Operator: op}, nil
}

// parseNumber is the only place numbers are recognized, so the validator and
// the evaluator never disagree. Non-finite literals are rejected.
func parseNumber(s string) (float64, bool) {
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if math.IsInf(n, 0) || math.IsNaN(n) {
		return 0, false
	}
	return n, true
}
