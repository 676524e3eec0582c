package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBotError(t *testing.T) {
	cause := errors.New("db down")
	err := Internal("❌ Ошибка", cause).WithContext("chat_id", int64(5))

	assert.Equal(t, "[INTERNAL] ❌ Ошибка: db down", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, int64(5), err.Context["chat_id"])
	assert.Equal(t, "[NOT_FOUND] missing", NotFound("missing").Error())
}

func TestGetErrorCode(t *testing.T) {
	tests := []struct {
		err       error
		code      ErrorCode
		retryable bool
	}{
		{AccessDenied("x"), ErrCodeAccessDenied, false},
		{fmt.Errorf("wrapped: %w", InvalidArgument("x")), ErrCodeInvalidArgument, false},
		{Blocked("x"), ErrCodeBlocked, false},
		{RateLimited("x"), ErrCodeRateLimited, true},
		{errors.New("plain"), ErrCodeInternal, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.code, GetErrorCode(tt.err))
			assert.Equal(t, tt.retryable, IsRetryable(tt.err))
		})
	}
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "❌ Доступ запрещен", UserMessage(AccessDenied("❌ Доступ запрещен"), "fallback"))
	assert.Equal(t, "fallback", UserMessage(errors.New("boom"), "fallback"))
	assert.Equal(t, "fallback", UserMessage(Internal("", nil), "fallback"))
}
