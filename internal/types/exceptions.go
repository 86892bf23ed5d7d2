package types

import (
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"
)

type ErrorTag string

const (
	NotFoundErrorTag             ErrorTag = "NotFoundError"
	AlreadyExistsErrorTag        ErrorTag = "AlreadyExistsError"
	InvalidTokenErrorTag         ErrorTag = "InvalidTokenError"
	OperatorNotValidHereErrorTag ErrorTag = "OperatorNotValidHereError"
	EvaluationUnderflowErrorTag  ErrorTag = "EvaluationUnderflowError"
	MalformedExpressionErrorTag  ErrorTag = "MalformedExpressionError"
)

type Exception interface {
	error
	Exception() any
}

type Error struct {
	Tag   ErrorTag
	Err   error
	Extra map[string]any
}

var _ Exception = (*Error)(nil)

func NewError(tag ErrorTag, format string, args ...any) *Error {
	return &Error{
		Tag: tag,
		Err: fmt.Errorf(format, args...),
	}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Tag)
	}

	var b strings.Builder
	b.WriteString(string(e.Tag))
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Message is the error text without the tag prefix.
func (e *Error) Message() string {
	if e.Err == nil {
		return string(e.Tag)
	}
	return e.Err.Error()
}

func (e *Error) Exception() any {
	tags := []any{e.Tag}
	for err := e.Err; err != nil; err = errors.Unwrap(err) {
		if e, ok := err.(*Error); ok {
			tags = append(tags, e.Tag)
		}
	}

	o := map[string]any{
		"tags":    tags,
		"message": e.Message(),
	}
	if len(e.Extra) != 0 {
		o = lo.Assign(o, e.Extra)
	}
	return o
}

// TagOf returns the tag of the outermost *Error in err's chain.
func TagOf(err error) (ErrorTag, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Tag, true
	}
	return "", false
}

func HasTag(err error, tag ErrorTag) bool {
	for ; err != nil; err = errors.Unwrap(err) {
		if e, ok := err.(*Error); ok && e.Tag == tag {
			return true
		}
	}
	return false
}
