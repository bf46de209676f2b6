package listing

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestListErrorMessage(t *testing.T) {
	err := &ListError{Code: ErrTimeout, Message: "no readiness notification"}
	require.Equal(t, "no readiness notification", err.Error())

	err.Path = "/photos"
	require.Equal(t, "no readiness notification: /photos", err.Error())
}

func TestCodeOfUnwraps(t *testing.T) {
	inner := &ListError{Code: ErrCancelled, Message: "wait cancelled"}
	wrapped := fmt.Errorf("listing failed: %w", &ListError{Code: ErrIO, Message: "io", Err: inner})

	// The outermost ListError wins
	code, ok := CodeOf(wrapped)
	require.True(t, ok)
	require.Equal(t, ErrIO, code)

	// Plain errors carry no code
	_, ok = CodeOf(errors.New("boom"))
	require.False(t, ok)
}

func TestErrorCodeString(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want string
	}{
		{ErrQueryFailed, "query failed"},
		{ErrTimeout, "timeout"},
		{ErrCancelled, "cancelled"},
		{ErrIO, "io error"},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, tt.code.String())
	}
}
