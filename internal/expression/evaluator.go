package expression

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/k0kubun/pp"
	"github.com/karupanerura/rpn-expressions/internal/types"
)

var ErrStackUnderflow = errors.New("stack underflow")

var evaluatorDebugLog = false

func init() {
	if v, err := strconv.ParseBool(os.Getenv("RPN_EXPRESSIONS_DEBUG")); v && err == nil {
		evaluatorDebugLog = true
	}
}

// Evaluator runs postfix expressions on a fresh stack per call.
//
// By default a buffer that leaves more than one value on the stack is a
// MalformedExpressionError. Lenient evaluation returns the top of the stack
// instead.
type Evaluator struct {
	Lenient bool
	Debug   bool
}

// Evaluate returns the value of b. The empty buffer evaluates to 0.
func (e *Evaluator) Evaluate(b Buffer) (float64, error) {
	stack, err := e.run(b)
	if err != nil {
		return 0, err
	}
	if len(stack) == 0 {
		return 0, nil
	}
	if len(stack) > 1 && !e.Lenient {
		return 0, &types.Error{
			Tag:   types.MalformedExpressionErrorTag,
			Err:   fmt.Errorf("%d values left on the stack after evaluating %q", len(stack), b.String()),
			Extra: map[string]any{"depth": len(stack)},
		}
	}
	return stack[len(stack)-1], nil
}

// Check is the trial evaluation done before committing an append: it fails
// only on stack underflow, so incomplete expressions pass.
func (e *Evaluator) Check(b Buffer) error {
	_, err := e.run(b)
	return err
}

func (e *Evaluator) run(b Buffer) ([]float64, error) {
	if err := b.validate(); err != nil {
		return nil, err
	}

	debug := e.Debug || evaluatorDebugLog
	stack := make([]float64, 0, len(b))
	for i, tok := range b {
		switch tok.Kind {
		case NumberToken:
			stack = append(stack, tok.Number)

		case OperatorToken:
			if len(stack) < 2 {
				return nil, &types.Error{
					Tag:   types.EvaluationUnderflowErrorTag,
					Err:   fmt.Errorf("operator %q at position %d needs 2 operands, have %d: %w", tok.Source, i, len(stack), ErrStackUnderflow),
					Extra: map[string]any{"position": i, "operator": tok.Source},
				}
			}
			y := stack[len(stack)-1]
			x := stack[len(stack)-2]
			stack = stack[:len(stack)-2]
			stack = append(stack, tok.Operator.apply(x, y))
		}

		if debug {
			log.Printf("evaluate token[%d]=%s", i, tok.Source)
			pp.Println(stack)
		}
	}
	return stack, nil
}

// FormatResult renders a value the way it is returned to clients.
func FormatResult(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
