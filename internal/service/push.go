package service

import (
	"context"
	"fmt"
	"log"

	"github.com/karupanerura/rpn-expressions/internal/expression"
	"github.com/karupanerura/rpn-expressions/internal/types"
)

// PushValue appends a number to id and returns the updated buffer. A number
// can never underflow the stack, so no trial evaluation is made.
func (s *Service) PushValue(ctx context.Context, id int, value string) (string, error) {
	tok, err := expression.ParseNumberToken(value)
	if err != nil {
		return "", err
	}

	return s.push(ctx, id, tok, nil)
}

// PushOperator appends an operator to id and returns the updated buffer. The
// candidate buffer is evaluated first; on stack underflow nothing is stored.
func (s *Service) PushOperator(ctx context.Context, id int, operator string) (string, error) {
	tok, err := expression.ParseOperatorToken(operator)
	if err != nil {
		return "", err
	}

	return s.push(ctx, id, tok, func(candidate expression.Buffer) error {
		if err := s.evaluator.Check(candidate); err != nil {
			return &types.Error{
				Tag:   types.OperatorNotValidHereErrorTag,
				Err:   fmt.Errorf("the expression cannot receive operator %q at this point: %w", tok.Source, err),
				Extra: map[string]any{"id": id},
			}
		}
		return nil
	})
}

func (s *Service) push(ctx context.Context, id int, tok expression.Token, check func(expression.Buffer) error) (string, error) {
	unlock := s.lock(id)
	defer unlock()

	b, err := s.load(ctx, id)
	if err != nil {
		return "", err
	}

	candidate := b.Append(tok)
	if check != nil {
		if err = check(candidate); err != nil {
			log.Printf("rejected %s %q for expression with ID %d: %v", tok.Kind, tok.Source, id, err)
			return "", err
		}
	}

	if err = s.store.Replace(ctx, id, candidate.Encode()); err != nil {
		return "", err
	}
	log.Printf("pushed %s %q to expression with ID %d", tok.Kind, tok.Source, id)
	return candidate.String(), nil
}
