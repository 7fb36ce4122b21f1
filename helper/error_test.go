package helper

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

var errCause = errors.New("connection refused")

func TestNewError(t *testing.T) {
	t.Run("Wraps operation and cause", func(t *testing.T) {
		err := NewError("select prices", errCause)
		assert.EqualError(t, err, "select prices: connection refused")
		assert.True(t, errors.Is(err, errCause), "Expected cause to be reachable with errors.Is")
	})

	t.Run("Nested errors keep the chain", func(t *testing.T) {
		err := NewError("retrieve", NewError("scan", errCause))
		assert.EqualError(t, err, "retrieve: scan: connection refused")
		assert.ErrorIs(t, err, errCause)

		var helperErr *Error
		assert.True(t, errors.As(err, &helperErr))
		assert.Equal(t, "retrieve", helperErr.Operation)
	})

	t.Run("Nil cause returns nil", func(t *testing.T) {
		assert.NoError(t, NewError("noop", nil))
	})
}
