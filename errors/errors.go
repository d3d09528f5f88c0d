package errors

import (
	"fmt"
	"net/http"

	stdErrors "errors"
)

// ErrorCode identifies an error class independently of its message.
type ErrorCode string

const (
	ErrorCode_INTERNAL         ErrorCode = "INTERNAL"
	ErrorCode_INVALID_ARGUMENT ErrorCode = "INVALID_ARGUMENT"
	ErrorCode_NOT_FOUND        ErrorCode = "NOT_FOUND"

	// "No grounding" sentinels. These are expected outcomes: callers catch
	// them and substitute a non-RAG fallback instead of surfacing an error.
	ErrorCode_NO_MEETING_EMBEDDINGS      ErrorCode = "NO_MEETING_EMBEDDINGS"
	ErrorCode_NO_RELEVANT_CONTEXT_FOUND  ErrorCode = "NO_RELEVANT_CONTEXT_FOUND"
	ErrorCode_RAG_NOT_READY              ErrorCode = "RAG_NOT_READY"
	ErrorCode_EMBEDDING_SERVICE_FAILED   ErrorCode = "EMBEDDING_SERVICE_FAILED"
	ErrorCode_GENERATION_SERVICE_FAILED  ErrorCode = "GENERATION_SERVICE_FAILED"
	ErrorCode_DB_TRANSACTION_FAILED      ErrorCode = "DB_TRANSACTION_FAILED"
	ErrorCode_QUEUE_ALREADY_PROCESSING   ErrorCode = "QUEUE_ALREADY_PROCESSING"
	ErrorCode_MEETING_NOT_PROCESSED      ErrorCode = "MEETING_NOT_PROCESSED"
	ErrorCode_INVALID_PAYLOAD            ErrorCode = "INVALID_PAYLOAD"
)

// String returns the code as a string.
func (c ErrorCode) String() string {
	return string(c)
}

// AppError là custom error type cho application
type AppError struct {
	Raw      error
	HTTPCode int
	Code     ErrorCode
	Message  string
	Details  map[string]string
}

// Error implements error interface
func (e AppError) Error() string {
	if e.Raw != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code.String(), e.Message, e.Raw)
	}
	return fmt.Sprintf("[%s] %s", e.Code.String(), e.Message)
}

// Unwrap exposes the wrapped error to errors.Is / errors.As.
func (e AppError) Unwrap() error {
	return e.Raw
}

// WithDetail adds a detail to the error
func (e AppError) WithDetail(key, value string) AppError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// IsCode reports whether err is an AppError carrying the given code.
func IsCode(err error, code ErrorCode) bool {
	var appErr AppError
	if stdErrors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// General Errors

func ErrInternal(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_INTERNAL,
		Message:  "Internal server error",
	}
}

func ErrInvalidArgument(message string) AppError {
	return AppError{
		HTTPCode: http.StatusBadRequest,
		Code:     ErrorCode_INVALID_ARGUMENT,
		Message:  message,
	}
}

func ErrNotFound(resource string) AppError {
	return AppError{
		HTTPCode: http.StatusNotFound,
		Code:     ErrorCode_NOT_FOUND,
		Message:  fmt.Sprintf("%s not found", resource),
	}
}

func ErrInvalidPayload() AppError {
	return AppError{
		HTTPCode: http.StatusBadRequest,
		Code:     ErrorCode_INVALID_PAYLOAD,
		Message:  "Invalid payload",
	}
}

// Retrieval sentinels

// ErrNoMeetingEmbeddings signals that a meeting has no embedded chunks yet.
// Callers fall back to a non-RAG context window.
func ErrNoMeetingEmbeddings(meetingID string) AppError {
	return AppError{
		HTTPCode: http.StatusConflict,
		Code:     ErrorCode_NO_MEETING_EMBEDDINGS,
		Message:  "Meeting has no embeddings yet",
	}.WithDetail("meeting_id", meetingID)
}

// ErrNoRelevantContext signals that retrieval found nothing above the
// similarity floor. Callers fall back to a non-RAG context window.
func ErrNoRelevantContext() AppError {
	return AppError{
		HTTPCode: http.StatusNotFound,
		Code:     ErrorCode_NO_RELEVANT_CONTEXT_FOUND,
		Message:  "No relevant context found for query",
	}
}

func ErrRAGNotReady() AppError {
	return AppError{
		HTTPCode: http.StatusServiceUnavailable,
		Code:     ErrorCode_RAG_NOT_READY,
		Message:  "RAG subsystem is not ready",
	}
}

func ErrMeetingNotProcessed(meetingID string) AppError {
	return AppError{
		HTTPCode: http.StatusNotFound,
		Code:     ErrorCode_MEETING_NOT_PROCESSED,
		Message:  "Meeting has not been processed",
	}.WithDetail("meeting_id", meetingID)
}

// External service errors

func ErrEmbeddingFailed(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusBadGateway,
		Code:     ErrorCode_EMBEDDING_SERVICE_FAILED,
		Message:  "Embedding service call failed",
	}
}

func ErrGenerationFailed(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusBadGateway,
		Code:     ErrorCode_GENERATION_SERVICE_FAILED,
		Message:  "Generation service call failed",
	}
}

// Database errors

// ErrDBTransactionFailed wraps a storage-layer failure. This is the one error
// class allowed to propagate as unrecoverable: a half-written chunk set would
// silently corrupt future retrieval.
func ErrDBTransactionFailed(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_DB_TRANSACTION_FAILED,
		Message:  "Database transaction failed",
	}
}

func ErrQueueAlreadyProcessing() AppError {
	return AppError{
		HTTPCode: http.StatusConflict,
		Code:     ErrorCode_QUEUE_ALREADY_PROCESSING,
		Message:  "Embedding queue is already being processed",
	}
}
