package errors

import (
	"errors"
	"fmt"
)

// ErrorCode classifies a failure the bot reports back to the user.
type ErrorCode string

const (
	// ErrCodeAccessDenied indicates the sender may not use the command.
	ErrCodeAccessDenied ErrorCode = "ACCESS_DENIED"
	// ErrCodeInvalidArgument indicates input the bot could not use.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	// ErrCodeNotFound indicates the referenced user or reminder does not exist.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeRateLimited indicates the chat sent too many updates.
	ErrCodeRateLimited ErrorCode = "RATE_LIMITED"
	// ErrCodeBlocked indicates the sender is blocked.
	ErrCodeBlocked ErrorCode = "BLOCKED"
	// ErrCodeInternal indicates a storage or transport failure.
	ErrCodeInternal ErrorCode = "INTERNAL"
)

// BotError is a failure with a code and the text shown to the user.
type BotError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]any
}

// Error implements the error interface.
func (e *BotError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *BotError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error.
func (e *BotError) WithContext(key string, value any) *BotError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

func AccessDenied(msg string) *BotError {
	return &BotError{Code: ErrCodeAccessDenied, Message: msg}
}

func InvalidArgument(msg string) *BotError {
	return &BotError{Code: ErrCodeInvalidArgument, Message: msg}
}

func NotFound(msg string) *BotError {
	return &BotError{Code: ErrCodeNotFound, Message: msg}
}

func RateLimited(msg string) *BotError {
	return &BotError{Code: ErrCodeRateLimited, Message: msg}
}

func Blocked(msg string) *BotError {
	return &BotError{Code: ErrCodeBlocked, Message: msg}
}

// Internal wraps cause; msg is what the user sees.
func Internal(msg string, cause error) *BotError {
	return &BotError{Code: ErrCodeInternal, Message: msg, Cause: cause}
}

// GetErrorCode extracts the error code from an error. Errors that are
// not a BotError are internal.
func GetErrorCode(err error) ErrorCode {
	var botErr *BotError
	if errors.As(err, &botErr) {
		return botErr.Code
	}
	return ErrCodeInternal
}

// UserMessage returns the text to show for err, or fallback when err
// carries none.
func UserMessage(err error, fallback string) string {
	var botErr *BotError
	if errors.As(err, &botErr) && botErr.Message != "" {
		return botErr.Message
	}
	return fallback
}

// IsRetryable reports whether the user may simply try again.
func IsRetryable(err error) bool {
	switch GetErrorCode(err) {
	case ErrCodeRateLimited, ErrCodeInternal:
		return true
	default:
		return false
	}
}
