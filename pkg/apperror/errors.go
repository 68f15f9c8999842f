// Package apperror provides coded application errors for the rostering
// service: a code, a severity, optional field and details, and conversion
// to and from gRPC status errors.
package apperror

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrorCode represents a specific application error code.
type ErrorCode string

const (
	// Malformed input
	CodeEmptyPreferences    ErrorCode = "EMPTY_PREFERENCES"
	CodeRaggedPreferences   ErrorCode = "RAGGED_PREFERENCES"
	CodeNonBinaryPreference ErrorCode = "NON_BINARY_PREFERENCE"
	CodeInvalidStaffing     ErrorCode = "INVALID_STAFFING"
	CodeNegativeBound       ErrorCode = "NEGATIVE_BOUND"
	CodeHorizonMismatch     ErrorCode = "HORIZON_MISMATCH"

	// Flow network
	CodeInvalidNode       ErrorCode = "INVALID_NODE"
	CodeInvalidEdge       ErrorCode = "INVALID_EDGE"
	CodeNegativeCapacity  ErrorCode = "NEGATIVE_CAPACITY"
	CodeCapacityOverflow  ErrorCode = "CAPACITY_OVERFLOW"
	CodeSourceEqualsSink  ErrorCode = "SOURCE_EQUALS_SINK"
	CodeFlowViolation     ErrorCode = "FLOW_VIOLATION"
	CodeIterationLimit    ErrorCode = "ITERATION_LIMIT"
	CodeTimeout           ErrorCode = "TIMEOUT"
	CodeCanceled          ErrorCode = "CANCELED"
	CodeInfeasibleInput   ErrorCode = "INFEASIBLE_INPUT"
	CodeInfeasibleFlow    ErrorCode = "INFEASIBLE_FLOW"
	CodeUnsupportedFormat ErrorCode = "UNSUPPORTED_FORMAT"

	// General
	CodeInternal        ErrorCode = "INTERNAL_ERROR"
	CodeNotFound        ErrorCode = "NOT_FOUND"
	CodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	CodeNilInput        ErrorCode = "NIL_INPUT"
	CodeUnavailable     ErrorCode = "UNAVAILABLE"
	CodeUnimplemented   ErrorCode = "UNIMPLEMENTED"
	CodeRateLimited     ErrorCode = "RATE_LIMITED"
	CodeUnauthenticated ErrorCode = "UNAUTHENTICATED"
)

// Severity defines the criticality level of an error.
type Severity int

const (
	// SeverityWarning indicates a non-critical issue.
	SeverityWarning Severity = iota
	// SeverityError indicates a standard error that requires attention.
	SeverityError
	// SeverityCritical indicates a broken invariant inside the service.
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Error is the application error type.
type Error struct {
	Code     ErrorCode      // Code identifies the kind of failure.
	Message  string         // Message is a human-readable description.
	Field    string         // Field names the offending input field, if any.
	Details  map[string]any // Details carries structured context (row, column, value).
	Cause    error          // Cause is the underlying error.
	Severity Severity
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("[%s] %s (field: %s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// GRPCStatus converts the application error into a gRPC status.
func (e *Error) GRPCStatus() *status.Status {
	return status.New(GRPCCode(e.Code), e.Message)
}

// GRPCCode maps an ErrorCode to a gRPC code.
func GRPCCode(code ErrorCode) codes.Code {
	switch code {
	case CodeEmptyPreferences, CodeRaggedPreferences, CodeNonBinaryPreference,
		CodeInvalidStaffing, CodeNegativeBound, CodeHorizonMismatch,
		CodeInvalidNode, CodeInvalidEdge, CodeNegativeCapacity, CodeSourceEqualsSink,
		CodeInvalidArgument, CodeNilInput, CodeUnsupportedFormat:
		return codes.InvalidArgument

	case CodeInfeasibleInput, CodeInfeasibleFlow:
		return codes.FailedPrecondition

	case CodeNotFound:
		return codes.NotFound

	case CodeTimeout, CodeIterationLimit:
		return codes.DeadlineExceeded

	case CodeCanceled:
		return codes.Canceled

	case CodeUnavailable:
		return codes.Unavailable

	case CodeUnimplemented:
		return codes.Unimplemented

	case CodeRateLimited:
		return codes.ResourceExhausted

	case CodeUnauthenticated:
		return codes.Unauthenticated

	case CodeFlowViolation, CodeCapacityOverflow:
		return codes.DataLoss

	default:
		return codes.Internal
	}
}

// New creates an error with SeverityError.
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Details:  make(map[string]any),
		Severity: SeverityError,
	}
}

// Newf is New with a formatted message.
func Newf(code ErrorCode, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

// NewWithField creates an error bound to an input field.
func NewWithField(code ErrorCode, message, field string) *Error {
	e := New(code, message)
	e.Field = field
	return e
}

// NewWarning creates an error with SeverityWarning.
func NewWarning(code ErrorCode, message string) *Error {
	e := New(code, message)
	e.Severity = SeverityWarning
	return e
}

// NewCritical creates an error with SeverityCritical.
func NewCritical(code ErrorCode, message string) *Error {
	e := New(code, message)
	e.Severity = SeverityCritical
	return e
}

// Wrap creates an error that wraps cause.
func Wrap(cause error, code ErrorCode, message string) *Error {
	e := New(code, message)
	e.Cause = cause
	return e
}

// WithDetails adds a key-value pair to the details map.
func (e *Error) WithDetails(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithField sets the offending field.
func (e *Error) WithField(field string) *Error {
	e.Field = field
	return e
}

// WithSeverity sets the severity level.
func (e *Error) WithSeverity(s Severity) *Error {
	e.Severity = s
	return e
}

// Is reports whether err is an *Error with the given code.
func Is(err error, code ErrorCode) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// Code extracts the ErrorCode from err, CodeInternal when err is not an *Error.
func Code(err error) ErrorCode {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

// ToGRPC converts any error into a gRPC status error.
func ToGRPC(err error) error {
	if err == nil {
		return nil
	}

	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.GRPCStatus().Err()
	}

	if _, ok := status.FromError(err); ok {
		return err
	}

	return status.Error(codes.Internal, err.Error())
}

// FromGRPC converts a gRPC error into an *Error.
func FromGRPC(err error) *Error {
	if err == nil {
		return nil
	}

	st, ok := status.FromError(err)
	if !ok {
		return Wrap(err, CodeInternal, err.Error())
	}

	var code ErrorCode
	switch st.Code() {
	case codes.InvalidArgument:
		code = CodeInvalidArgument
	case codes.NotFound:
		code = CodeNotFound
	case codes.DeadlineExceeded:
		code = CodeTimeout
	case codes.Canceled:
		code = CodeCanceled
	case codes.Unavailable:
		code = CodeUnavailable
	case codes.Unimplemented:
		code = CodeUnimplemented
	case codes.FailedPrecondition:
		code = CodeInfeasibleInput
	case codes.DataLoss:
		code = CodeFlowViolation
	case codes.ResourceExhausted:
		code = CodeRateLimited
	case codes.Unauthenticated:
		code = CodeUnauthenticated
	default:
		code = CodeInternal
	}

	return New(code, st.Message())
}

// IsWarning reports whether err is an *Error with SeverityWarning.
func IsWarning(err error) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Severity == SeverityWarning
	}
	return false
}

// IsCritical reports whether err is an *Error with SeverityCritical.
func IsCritical(err error) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Severity == SeverityCritical
	}
	return false
}

// ValidationErrors aggregates the results of several validation checks.
type ValidationErrors struct {
	Errors   []*Error
	Warnings []*Error
}

// NewValidationErrors returns an empty collection.
func NewValidationErrors() *ValidationErrors {
	return &ValidationErrors{
		Errors:   make([]*Error, 0),
		Warnings: make([]*Error, 0),
	}
}

// Add appends err to Errors or Warnings based on its severity.
func (v *ValidationErrors) Add(err *Error) {
	if err.Severity == SeverityWarning {
		v.Warnings = append(v.Warnings, err)
	} else {
		v.Errors = append(v.Errors, err)
	}
}

// AddError appends a new error.
func (v *ValidationErrors) AddError(code ErrorCode, message string) {
	v.Errors = append(v.Errors, New(code, message))
}

// AddWarning appends a new warning.
func (v *ValidationErrors) AddWarning(code ErrorCode, message string) {
	v.Warnings = append(v.Warnings, NewWarning(code, message))
}

// AddErrorWithField appends a new error bound to field.
func (v *ValidationErrors) AddErrorWithField(code ErrorCode, message, field string) {
	v.Errors = append(v.Errors, NewWithField(code, message, field))
}

// HasErrors reports whether any error (non-warning) was collected.
func (v *ValidationErrors) HasErrors() bool {
	return len(v.Errors) > 0
}

// HasWarnings reports whether any warning was collected.
func (v *ValidationErrors) HasWarnings() bool {
	return len(v.Warnings) > 0
}

// IsValid reports whether the collection holds no errors.
func (v *ValidationErrors) IsValid() bool {
	return !v.HasErrors()
}

// Merge appends everything from other.
func (v *ValidationErrors) Merge(other *ValidationErrors) {
	if other == nil {
		return
	}
	v.Errors = append(v.Errors, other.Errors...)
	v.Warnings = append(v.Warnings, other.Warnings...)
}

// ErrorMessages returns the messages of all collected errors.
func (v *ValidationErrors) ErrorMessages() []string {
	messages := make([]string, len(v.Errors))
	for i, err := range v.Errors {
		messages[i] = err.Error()
	}
	return messages
}

// Err folds the collection into a single *Error. The first collected error
// drives the code; the rest are attached under the "violations" detail.
// Returns nil when the collection is valid.
func (v *ValidationErrors) Err() error {
	if !v.HasErrors() {
		return nil
	}
	first := v.Errors[0]
	if len(v.Errors) == 1 {
		return first
	}
	out := &Error{
		Code:     first.Code,
		Message:  fmt.Sprintf("%s (and %d more)", first.Message, len(v.Errors)-1),
		Field:    first.Field,
		Details:  map[string]any{"violations": v.ErrorMessages()},
		Cause:    first,
		Severity: first.Severity,
	}
	return out
}
