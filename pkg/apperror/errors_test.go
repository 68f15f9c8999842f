package apperror

import (
	"errors"
	"fmt"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{
			name:     "without field",
			err:      New(CodeEmptyPreferences, "preference matrix is empty"),
			expected: "[EMPTY_PREFERENCES] preference matrix is empty",
		},
		{
			name:     "with field",
			err:      NewWithField(CodeNegativeBound, "must be non-negative", "min_shifts"),
			expected: "[NEGATIVE_BOUND] must be non-negative (field: min_shifts)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := Wrap(cause, CodeInternal, "wrapped error")

	if unwrapped := err.Unwrap(); unwrapped != cause {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, cause)
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the cause")
	}
}

func TestError_GRPCStatus(t *testing.T) {
	tests := []struct {
		code     ErrorCode
		expected codes.Code
	}{
		{CodeRaggedPreferences, codes.InvalidArgument},
		{CodeNonBinaryPreference, codes.InvalidArgument},
		{CodeNegativeCapacity, codes.InvalidArgument},
		{CodeInfeasibleFlow, codes.FailedPrecondition},
		{CodeTimeout, codes.DeadlineExceeded},
		{CodeCanceled, codes.Canceled},
		{CodeFlowViolation, codes.DataLoss},
		{CodeUnavailable, codes.Unavailable},
		{CodeInternal, codes.Internal},
		{ErrorCode("SOMETHING_ELSE"), codes.Internal},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			st := New(tt.code, "msg").GRPCStatus()
			if st.Code() != tt.expected {
				t.Errorf("GRPCStatus().Code() = %v, want %v", st.Code(), tt.expected)
			}
			if st.Message() != "msg" {
				t.Errorf("GRPCStatus().Message() = %q", st.Message())
			}
		})
	}
}

func TestIsAndCode(t *testing.T) {
	err := fmt.Errorf("building network: %w", New(CodeNegativeCapacity, "capacity -1"))

	if !Is(err, CodeNegativeCapacity) {
		t.Error("Is() should unwrap the chain")
	}
	if Is(err, CodeInvalidNode) {
		t.Error("Is() matched the wrong code")
	}
	if Code(err) != CodeNegativeCapacity {
		t.Errorf("Code() = %v", Code(err))
	}
	if Code(errors.New("plain")) != CodeInternal {
		t.Error("Code() of a plain error should be CodeInternal")
	}
}

func TestToGRPC(t *testing.T) {
	if ToGRPC(nil) != nil {
		t.Fatal("ToGRPC(nil) should be nil")
	}

	st, _ := status.FromError(ToGRPC(New(CodeHorizonMismatch, "want 30 rows")))
	if st.Code() != codes.InvalidArgument {
		t.Errorf("app error: got %v", st.Code())
	}

	original := status.Error(codes.NotFound, "nope")
	if ToGRPC(original) != original {
		t.Error("gRPC errors should pass through")
	}

	st, _ = status.FromError(ToGRPC(errors.New("boom")))
	if st.Code() != codes.Internal {
		t.Errorf("plain error: got %v", st.Code())
	}
}

func TestFromGRPC(t *testing.T) {
	tests := []struct {
		in   codes.Code
		want ErrorCode
	}{
		{codes.InvalidArgument, CodeInvalidArgument},
		{codes.DeadlineExceeded, CodeTimeout},
		{codes.Unavailable, CodeUnavailable},
		{codes.FailedPrecondition, CodeInfeasibleInput},
		{codes.ResourceExhausted, CodeRateLimited},
		{codes.Unauthenticated, CodeUnauthenticated},
		{codes.Unknown, CodeInternal},
	}
	for _, tt := range tests {
		got := FromGRPC(status.Error(tt.in, "x"))
		if got.Code != tt.want {
			t.Errorf("FromGRPC(%v) = %v, want %v", tt.in, got.Code, tt.want)
		}
	}

	if FromGRPC(nil) != nil {
		t.Error("FromGRPC(nil) should be nil")
	}
	if FromGRPC(errors.New("plain")).Code != CodeInternal {
		t.Error("non-status error should map to CodeInternal")
	}
}

func TestSeverity(t *testing.T) {
	if !IsWarning(NewWarning(CodeInvalidArgument, "w")) {
		t.Error("expected warning")
	}
	if !IsCritical(NewCritical(CodeFlowViolation, "c")) {
		t.Error("expected critical")
	}
	if IsWarning(errors.New("plain")) || IsCritical(errors.New("plain")) {
		t.Error("plain errors carry no severity")
	}
	if SeverityCritical.String() != "critical" || Severity(42).String() != "unknown" {
		t.Error("unexpected Severity.String()")
	}
}

func TestWithDetails(t *testing.T) {
	err := New(CodeNonBinaryPreference, "bad").WithDetails("row", 3).WithDetails("col", 1)
	if err.Details["row"] != 3 || err.Details["col"] != 1 {
		t.Errorf("details = %v", err.Details)
	}

	var zero Error
	zero.WithDetails("k", "v")
	if zero.Details["k"] != "v" {
		t.Error("WithDetails should initialise a nil map")
	}
}

func TestValidationErrors(t *testing.T) {
	v := NewValidationErrors()
	if v.Err() != nil {
		t.Fatal("empty collection should produce nil")
	}

	v.AddWarning(CodeInvalidArgument, "just a warning")
	if !v.IsValid() || v.Err() != nil {
		t.Fatal("warnings do not invalidate")
	}

	v.AddErrorWithField(CodeRaggedPreferences, "row 1 has 3 columns, want 2", "preferences")
	single := v.Err()
	if Code(single) != CodeRaggedPreferences {
		t.Errorf("single error code = %v", Code(single))
	}

	other := NewValidationErrors()
	other.AddError(CodeInvalidStaffing, "sysadmins_per_night must be positive")
	v.Merge(other)
	v.Merge(nil)

	err := v.Err()
	var appErr *Error
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if appErr.Code != CodeRaggedPreferences {
		t.Errorf("first error should drive the code, got %v", appErr.Code)
	}
	if got := appErr.Details["violations"].([]string); len(got) != 2 {
		t.Errorf("violations = %v", got)
	}
	if len(v.ErrorMessages()) != 2 || !v.HasWarnings() {
		t.Error("unexpected collection state")
	}
}
