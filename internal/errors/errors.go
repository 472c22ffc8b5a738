package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a yougpt error code.
type ErrorCode string

const (
	ErrInvalidRequest        ErrorCode = "INVALID_REQUEST"        // 400
	ErrInvalidURL            ErrorCode = "INVALID_URL"            // 400
	ErrNotFound              ErrorCode = "NOT_FOUND"              // 404
	ErrEmptyTranscript       ErrorCode = "EMPTY_TRANSCRIPT"       // 422
	ErrCancelled             ErrorCode = "CANCELLED"              // 499
	ErrInternal              ErrorCode = "INTERNAL"               // 500
	ErrTranscriptUnavailable ErrorCode = "TRANSCRIPT_UNAVAILABLE" // 502
)

// StatusClientClosedRequest is the non-standard status used for cancelled operations.
const StatusClientClosedRequest = 499

// AppError represents a structured error with code, status, and details.
type AppError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *AppError {
	return &AppError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewInvalidURL creates a 400 error for a link that carries no video identifier.
func NewInvalidURL(rawURL string) *AppError {
	return &AppError{
		Code:    ErrInvalidURL,
		Status:  400,
		Message: "Invalid YouTube URL. Please enter a valid link.",
		Details: map[string]any{"url": rawURL},
	}
}

// NewNotFound creates a 404 error for when a summary cannot be found.
func NewNotFound(identifier string) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("summary not found: %s", identifier),
		Details: map[string]any{"identifier": identifier},
	}
}

// NewEmptyTranscript creates a 422 error when a fetch succeeded but produced no text.
func NewEmptyTranscript(videoID string) *AppError {
	return &AppError{
		Code:    ErrEmptyTranscript,
		Status:  422,
		Message: "Failed to extract transcript. Ensure the video supports captions.",
		Details: map[string]any{"video_id": videoID},
	}
}

// NewTranscriptUnavailable creates a 502 error carrying the raw fetch failure.
func NewTranscriptUnavailable(videoID string, err error) *AppError {
	cause := "unknown error"
	if err != nil {
		cause = err.Error()
	}
	return &AppError{
		Code:    ErrTranscriptUnavailable,
		Status:  502,
		Message: fmt.Sprintf("Error fetching transcript: %s", cause),
		Details: map[string]any{"video_id": videoID},
	}
}

// NewCancelled creates a 499 error for an operation whose context was cancelled.
func NewCancelled(operation string) *AppError {
	return &AppError{
		Code:    ErrCancelled,
		Status:  StatusClientClosedRequest,
		Message: fmt.Sprintf("%s cancelled", operation),
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *AppError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &AppError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is (or wraps) an AppError with the given code.
func Is(err error, code ErrorCode) bool {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// As returns err as an *AppError, converting unknown errors to INTERNAL.
func As(err error) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return NewInternal(err)
}
