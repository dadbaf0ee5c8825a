package identity

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Class
	}{
		{name: "nil", err: nil, want: ClassNone},
		{name: "wrong password", err: NewCredentialError(CodeWrongPassword, ""), want: ClassCredential},
		{name: "wrapped network failure", err: fmt.Errorf("sign in: %w", NewCredentialError(CodeNetworkFailed, "dial")), want: ClassCredential},
		{name: "unknown code", err: NewCredentialError(Code("quota-exceeded"), ""), want: ClassUnavailable},
		{name: "unavailable", err: ErrUnavailable, want: ClassUnavailable},
		{name: "deadline", err: context.DeadlineExceeded, want: ClassUnavailable},
		{name: "opaque", err: errors.New("boom"), want: ClassUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestCredentialErrorMessages(t *testing.T) {
	assert.Equal(t, "Incorrect password. Please try again.", NewCredentialError(CodeWrongPassword, "").Error())
	assert.Equal(t, "Invalid email or password. Please check your credentials.", CodeInvalidCredential.Message())
	assert.Equal(t, "Network error. Please check your internet connection.", CodeNetworkFailed.Message())
	assert.Contains(t, NewCredentialError(Code("odd"), "").Error(), "odd")
	assert.False(t, Code("odd").Known())
	assert.True(t, IsTimeout(fmt.Errorf("call: %w", context.DeadlineExceeded)))
}
