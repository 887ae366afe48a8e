package runtime

import (
	"errors"
	"net/http"
)

// Error types carried in TaskError metadata under "type".
const (
	ErrorTypeTransient = "transient"  // safe to retry
	ErrorTypePermanent = "permanent"  // upstream rejected the request
	ErrorTypeUser      = "user_error" // parameters are wrong; fix the input
)

// TaskError wraps task execution errors with metadata:
// retry hints (retryable, retry_after), categorisation (type) and
// upstream details (status_code, body).
type TaskError struct {
	Err      error
	Metadata map[string]any
}

func (e *TaskError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return "task completed with metadata"
}

// Unwrap returns the underlying error for errors.Is and errors.As
func (e *TaskError) Unwrap() error {
	return e.Err
}

func NewTaskError(err error) *TaskError {
	return &TaskError{
		Err:      err,
		Metadata: make(map[string]any),
	}
}

func (e *TaskError) WithMetadata(key string, value any) *TaskError {
	e.Metadata[key] = value
	return e
}

func (e *TaskError) WithMetadataMap(metadata map[string]any) *TaskError {
	for k, v := range metadata {
		e.Metadata[k] = v
	}
	return e
}

func (e *TaskError) WithRetryHint(retryable bool, retryAfter string) *TaskError {
	e.Metadata["retryable"] = retryable
	if retryAfter != "" {
		e.Metadata["retry_after"] = retryAfter
	}
	return e
}

// WithType sets the error type (ErrorTypeTransient, ErrorTypePermanent, ErrorTypeUser)
func (e *TaskError) WithType(errorType string) *TaskError {
	e.Metadata["type"] = errorType
	return e
}

func (e *TaskError) IsRetryable() bool {
	retryable, _ := e.Metadata["retryable"].(bool)
	return retryable
}

func (e *TaskError) GetRetryAfter() string {
	retryAfter, _ := e.Metadata["retry_after"].(string)
	return retryAfter
}

func (e *TaskError) GetType() string {
	errorType, _ := e.Metadata["type"].(string)
	return errorType
}

// HTTPStatus maps an error to the status the node API answers with.
func HTTPStatus(err error) int {
	var taskErr *TaskError
	if !errors.As(err, &taskErr) {
		return http.StatusInternalServerError
	}
	switch taskErr.GetType() {
	case ErrorTypeUser:
		return http.StatusBadRequest
	case ErrorTypeTransient:
		return http.StatusServiceUnavailable
	case ErrorTypePermanent:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
