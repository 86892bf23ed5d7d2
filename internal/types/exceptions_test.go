package types_test

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/karupanerura/rpn-expressions/internal/types"
)

func TestErrorException(t *testing.T) {
	t.Parallel()

	inner := types.NewError(types.EvaluationUnderflowErrorTag, "operator %q", "+")
	outer := &types.Error{
		Tag:   types.OperatorNotValidHereErrorTag,
		Err:   fmt.Errorf("push: %w", inner),
		Extra: map[string]any{"id": 1},
	}

	expected := map[string]any{
		"tags":    []any{types.OperatorNotValidHereErrorTag, types.EvaluationUnderflowErrorTag},
		"message": `push: EvaluationUnderflowError: operator "+"`,
		"id":      1,
	}
	if diff := cmp.Diff(expected, outer.Exception()); diff != "" {
		t.Errorf("(-expected, +got)\n%s", diff)
	}
	if got := outer.Error(); got != `OperatorNotValidHereError: push: EvaluationUnderflowError: operator "+"` {
		t.Errorf("unexpected Error(): %s", got)
	}
}

func TestTagOf(t *testing.T) {
	t.Parallel()

	wrapped := fmt.Errorf("context: %w", types.NewError(types.NotFoundErrorTag, "missing"))
	if tag, ok := types.TagOf(wrapped); !ok || tag != types.NotFoundErrorTag {
		t.Errorf("TagOf = %s, %v", tag, ok)
	}
	if !types.HasTag(wrapped, types.NotFoundErrorTag) {
		t.Error("HasTag must see wrapped errors")
	}
	if types.HasTag(wrapped, types.AlreadyExistsErrorTag) {
		t.Error("unexpected tag")
	}
	if _, ok := types.TagOf(fmt.Errorf("plain")); ok {
		t.Error("plain errors have no tag")
	}
}
