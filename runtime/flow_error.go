package runtime

import (
	"context"
	"errors"
	"fmt"
)

// FlowErrorType classifies a flow failure.
type FlowErrorType string

const (
	FlowErrorTransient FlowErrorType = "transient"
	FlowErrorPermanent FlowErrorType = "permanent"
	FlowErrorTimeout   FlowErrorType = "timeout"
)

const (
	ErrorCodeRuntimeError     = "RUNTIME_ERROR"
	ErrorCodeTaskFailed       = "TASK_FAILED"
	ErrorCodeInvalidInput     = "INVALID_INPUT"
	ErrorCodeContextCancelled = "CONTEXT_CANCELLED"
	ErrorCodeDeadlineExceeded = "DEADLINE_EXCEEDED"
)

// FlowError is the error a flow run ends with.
type FlowError struct {
	Type    FlowErrorType  `json:"type"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Step    string         `json:"step"`
	Meta    map[string]any `json:"meta,omitempty"`
	cause   error
}

func (e *FlowError) Error() string {
	return fmt.Sprintf("[%s/%s] %s (step: %s)", e.Type, e.Code, e.Message, e.Step)
}

func (e *FlowError) Unwrap() error {
	return e.cause
}

// ToMap converts the error to a map suitable for expression contexts.
func (e *FlowError) ToMap() map[string]any {
	return map[string]any{
		"type":    string(e.Type),
		"code":    e.Code,
		"message": e.Message,
		"step":    e.Step,
	}
}

// NewFlowError classifies err, raised by step, into a FlowError.
// TaskError metadata decides the type; context errors become timeouts.
func NewFlowError(step string, err error) *FlowError {
	var flowErr *FlowError
	if errors.As(err, &flowErr) {
		return flowErr
	}

	fe := &FlowError{
		Type:    FlowErrorPermanent,
		Code:    ErrorCodeRuntimeError,
		Message: err.Error(),
		Step:    step,
		cause:   err,
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		fe.Type = FlowErrorTimeout
		fe.Code = ErrorCodeDeadlineExceeded
		return fe
	case errors.Is(err, context.Canceled):
		fe.Type = FlowErrorTimeout
		fe.Code = ErrorCodeContextCancelled
		return fe
	}

	var taskErr *TaskError
	if errors.As(err, &taskErr) {
		fe.Code = ErrorCodeTaskFailed
		fe.Meta = taskErr.Metadata
		switch taskErr.GetType() {
		case ErrorTypeTransient:
			fe.Type = FlowErrorTransient
		case ErrorTypeUser:
			fe.Code = ErrorCodeInvalidInput
		}
	}

	return fe
}
