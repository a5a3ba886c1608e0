package middlewares_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/medilabo/webapp/middlewares"
)

func TestPanicError(t *testing.T) {
	t.Parallel()

	t.Run("message", func(t *testing.T) {
		t.Parallel()
		require.Equal(t, "panic: boom", (&middlewares.PanicError{Value: "boom"}).Error())
		require.Equal(t, "panic: 42", (&middlewares.PanicError{Value: 42}).Error())
	})

	t.Run("found through wrapping", func(t *testing.T) {
		t.Parallel()
		original := &middlewares.PanicError{Value: "boom", Stack: []byte("stack")}
		pe, ok := middlewares.AsPanicError(fmt.Errorf("render patient: %w", original))
		require.True(t, ok)
		require.Same(t, original, pe)
	})

	t.Run("absent", func(t *testing.T) {
		t.Parallel()
		pe, ok := middlewares.AsPanicError(errors.New("plain"))
		require.False(t, ok)
		require.Nil(t, pe)

		_, ok = middlewares.AsPanicError(nil)
		require.False(t, ok)
	})
}
