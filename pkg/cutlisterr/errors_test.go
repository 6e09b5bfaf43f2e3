package cutlisterr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessageWithAndWithoutCause(t *testing.T) {
	bare := New(CategoryTaskNotFound, nil, nil)
	assert.Equal(t, "task_not_found", bare.Error())

	wrapped := New(CategoryIO, errors.New("disk full"), nil)
	assert.Equal(t, "io: disk full", wrapped.Error())
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := New(CategoryInternal, cause, nil)
	assert.Same(t, cause, errors.Unwrap(err))
}

func TestErrorIsComparesCategoryOnly(t *testing.T) {
	a := New(CategoryTaskNotFound, errors.New("first"), nil)
	b := New(CategoryTaskNotFound, errors.New("second"), nil)
	c := New(CategoryInvalidInput, nil, nil)

	assert.True(t, errors.Is(a, b))
	assert.False(t, errors.Is(a, c))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(CategoryIO))
	assert.True(t, IsRetryable(CategoryTaskTimeout))
	assert.False(t, IsRetryable(CategoryInvalidInput))
}

func TestIsClientError(t *testing.T) {
	assert.True(t, IsClientError(CategoryInvalidInput))
	assert.True(t, IsClientError(CategoryTaskNotFound))
	assert.False(t, IsClientError(CategoryIO))
}

func TestErrorContextIsPreserved(t *testing.T) {
	err := New(CategoryInvalidInput, nil, map[string]any{"reason": "no panels"})
	assert.Equal(t, "no panels", err.Context["reason"])
}
