package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestDomainError_Format(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "without_cause",
			err:  NewDomainError(ErrorCodePaymentNotFound, "payment not found"),
			want: "PAYMENT_NOT_FOUND: payment not found",
		},
		{
			name: "with_cause",
			err:  WrapError(ErrorCodeDatabaseError, "update payment", errors.New("deadlock detected")),
			want: "INTERNAL_DATABASE_ERROR: update payment: deadlock detected",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDomainError_IsMatchesByCode(t *testing.T) {
	wrapped := fmt.Errorf("get payment 12: %w", WrapError(ErrorCodePaymentNotFound, "payment not found", errors.New("no rows")))

	if !errors.Is(wrapped, ErrPaymentNotFound) {
		t.Errorf("expected wrapped error to match ErrPaymentNotFound")
	}
	if errors.Is(wrapped, ErrAdminUserNotFound) {
		t.Errorf("did not expect wrapped error to match ErrAdminUserNotFound")
	}
	if !IsNotFoundError(wrapped) {
		t.Errorf("expected IsNotFoundError to be true")
	}
}

func TestErrorClassifiers(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		auth        bool
		validation  bool
		unavailable bool
	}{
		{name: "auth_missing", err: ErrAuthMissing, auth: true},
		{name: "forbidden_role", err: ErrAuthForbiddenRole, auth: true},
		{name: "session_required", err: ErrSessionRequired, auth: true},
		{name: "invalid_role", err: ErrInvalidRole, validation: true},
		{name: "invalid_date", err: ErrInvalidDate, validation: true},
		{name: "custom_range", err: ErrCustomRangeRequired, validation: true},
		{name: "refund_percent", err: ErrInvalidRefundPercent, validation: true},
		{name: "db_unavailable", err: WrapError(ErrorCodeDatabaseUnavailable, "ping", errors.New("refused")), unavailable: true},
		{name: "plain", err: errors.New("boom")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsAuthError(tt.err); got != tt.auth {
				t.Errorf("IsAuthError() = %v, want %v", got, tt.auth)
			}
			if got := IsValidationError(tt.err); got != tt.validation {
				t.Errorf("IsValidationError() = %v, want %v", got, tt.validation)
			}
			if got := IsUnavailableError(tt.err); got != tt.unavailable {
				t.Errorf("IsUnavailableError() = %v, want %v", got, tt.unavailable)
			}
		})
	}
}

func TestDomainError_WithDetail(t *testing.T) {
	err := NewDomainError(ErrorCodeValidationFailed, "bad input").WithDetail("field", "per_page")

	if err.Details["field"] != "per_page" {
		t.Errorf("expected detail field=per_page, got %v", err.Details["field"])
	}
	if GetErrorCode(err) != ErrorCodeValidationFailed {
		t.Errorf("unexpected code %s", GetErrorCode(err))
	}
}
