package llmerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsAndTypeOfUnwrapChains(t *testing.T) {
	base := NewErrorWithStatus(ErrorTypeRateLimit, 429, "too many requests")
	wrapped := fmt.Errorf("calling model: %w", base)

	assert.True(t, Is(wrapped, ErrorTypeRateLimit))
	assert.False(t, Is(wrapped, ErrorTypeAuth))
	assert.Equal(t, ErrorTypeRateLimit, TypeOf(wrapped))
	assert.Equal(t, ErrorTypeUnknown, TypeOf(errors.New("plain")))
}

func TestRetryability(t *testing.T) {
	assert.False(t, NewError(ErrorTypeAuth, "bad key").IsRetryable())
	assert.False(t, NewError(ErrorTypeBadPrompt, "malformed").IsRetryable())
	assert.True(t, NewError(ErrorTypeTransient, "eof").IsRetryable())
	assert.True(t, NewError(ErrorTypeRateLimit, "429").IsRetryable())
	assert.True(t, NewError(ErrorTypeUnknown, "???").IsRetryable())
}

func TestErrorStringPrefersMessage(t *testing.T) {
	cause := errors.New("connection reset")

	withMessage := NewErrorWithCause(ErrorTypeTransient, cause, "stream dropped")
	assert.Contains(t, withMessage.Error(), "transient")
	assert.Contains(t, withMessage.Error(), "stream dropped")
	assert.ErrorIs(t, withMessage, cause)

	noMessage := &Error{Type: ErrorTypeAuth, Err: cause}
	assert.Contains(t, noMessage.Error(), "connection reset")

	statusOnly := &Error{Type: ErrorTypeAuth, StatusCode: 401}
	assert.Contains(t, statusOnly.Error(), "401")
}
