package expression

import (
	"fmt"
	"strings"

	"github.com/karupanerura/rpn-expressions/internal/types"
)

// Separator follows every token in the stored form of a buffer, the last one
// included.
const Separator = ","

// Buffer is a postfix expression under construction.
type Buffer []Token

// ParseBuffer decodes the stored form. A missing trailing separator is
// tolerated; empty tokens are not.
func ParseBuffer(raw string) (Buffer, error) {
	raw = strings.TrimSuffix(raw, Separator)
	if raw == "" {
		return Buffer{}, nil
	}

	parts := strings.Split(raw, Separator)
	b := make(Buffer, len(parts))
	for i, part := range parts {
		tok, err := ParseToken(part)
		if err != nil {
			return nil, fmt.Errorf("token[%d]: %w", i, err)
		}
		b[i] = tok
	}
	return b, nil
}

// MustParseBuffer is ParseBuffer that panics on error.
func MustParseBuffer(raw string) Buffer {
	b, err := ParseBuffer(raw)
	if err != nil {
		panic(err)
	}
	return b
}

// Append returns a new buffer with tok at the end; b is never modified.
func (b Buffer) Append(tok Token) Buffer {
	if tok.Kind == InvalidToken {
		panic(fmt.Sprintf("append invalid token: %q", tok.Source))
	}

	nb := make(Buffer, len(b), len(b)+1)
	copy(nb, b)
	return append(nb, tok)
}

// Encode returns the stored form, e.g. "3,2,+,".
func (b Buffer) Encode() string {
	var s strings.Builder
	for _, tok := range b {
		s.WriteString(tok.Source)
		s.WriteString(Separator)
	}
	return s.String()
}

// String returns the tokens joined by the separator, e.g. "3,2,+".
func (b Buffer) String() string {
	return strings.TrimSuffix(b.Encode(), Separator)
}

func (b Buffer) validate() error {
	for i, tok := range b {
		if tok.Kind == InvalidToken {
			return fmt.Errorf("token[%d]: %w", i, types.NewError(types.InvalidTokenErrorTag, "%q", tok.Source))
		}
	}
	return nil
}
