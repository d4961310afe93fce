package ogerrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueryErrorWrapping(t *testing.T) {
	cause := errors.New("fst miss")
	qe := NewQueryError(CategoryNotFound, "lookup", "word absent").WithUnderlying(cause)

	assert.True(t, IsNotFound(qe))
	assert.ErrorIs(t, qe, cause)
	assert.Contains(t, qe.Error(), "lookup")
}

func TestAbortPanics(t *testing.T) {
	assert.PanicsWithValue(t, "[corruption] misaligned buffer", func() {
		Abort(CategoryCorruption, "misaligned buffer")
	})
}

func TestBuildErrorFormatting(t *testing.T) {
	err := NewBuildError("jsonl", 42, "out of order lexeme_id", errors.New("expected 7 got 9"))
	assert.Contains(t, err.Error(), "line 42")
	assert.Contains(t, err.Error(), "out of order")
}
