package schema

import "fmt"

// Error codes for structured error reporting.
const (
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeExecution         = "EXECUTION_ERROR"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeStepLimit         = "STEP_LIMIT_EXCEEDED"
	ErrCodeUnknownStep       = "UNKNOWN_STEP"
	ErrCodeRefDataNotFound   = "REFDATA_NOT_FOUND"
	ErrCodeRefDataInvalid    = "REFDATA_INVALID"
	ErrCodeRefDataUnreadable = "REFDATA_UNREADABLE"
	ErrCodeQuery             = "QUERY_ERROR"
)

// TriagoError is the structured error type for all triago operations.
type TriagoError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	StepID  string         `json:"step_id,omitempty"`
	Cause   error          `json:"-"`
}

func (e *TriagoError) Error() string {
	if e.StepID != "" {
		return fmt.Sprintf("[%s] step %s: %s", e.Code, e.StepID, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *TriagoError) Unwrap() error {
	return e.Cause
}

// NewError creates a new TriagoError.
func NewError(code, message string) *TriagoError {
	return &TriagoError{Code: code, Message: message}
}

// NewErrorf creates a new TriagoError with a formatted message.
func NewErrorf(code, format string, args ...any) *TriagoError {
	return &TriagoError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithStep attaches a step ID to the error.
func (e *TriagoError) WithStep(stepID string) *TriagoError {
	e.StepID = stepID
	return e
}

// WithCause attaches an underlying cause.
func (e *TriagoError) WithCause(err error) *TriagoError {
	e.Cause = err
	return e
}

// WithDetails attaches key-value details.
func (e *TriagoError) WithDetails(details map[string]any) *TriagoError {
	e.Details = details
	return e
}
