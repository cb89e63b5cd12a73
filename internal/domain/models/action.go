package models

import (
	"fmt"
	"strings"
)

// Admin actions accepted by the action engine, with their aliases
const (
	ActionHold   = "hold"
	ActionReview = "review"
	ActionReject = "rejected"
	ActionRefund = "refund"
)

// Result messages returned by the action engine
const (
	MessagePaymentOnHold          = "payment_on_hold"
	MessagePaymentDisputed        = "payment_marked_disputed"
	MessagePaymentSettled         = "payment_settled_rejected"
	MessageRefundInitiated        = "refund_initiated"
	MessageUnsupportedProvider    = "unsupported_provider_for_refund"
	MessageNoCaptureID            = "no_capture_id"
	MessageProviderRefundFailed   = "paypal_refund_failed"
	MessageRefundFailed           = "refund_failed"
	MessageRejectedActionFailed   = "rejected_action_failed"
	MessageDBPersistFailed        = "db_persist_failed"
	MessageUnknownAction          = "unknown_action"
	MessagePaymentNotFound        = "payment_not_found"
	unsupportedProviderWarningFmt = "provider_%s_unsupported_for_refund"
)

// UnsupportedProviderWarning returns the audit warning for a provider the
// refund flow cannot call.
func UnsupportedProviderWarning(provider string) string {
	return fmt.Sprintf(unsupportedProviderWarningFmt, provider)
}

// NormalizeAction trims and lowercases an action, defaulting to refund
func NormalizeAction(action string) string {
	action = strings.ToLower(strings.TrimSpace(action))
	if action == "" {
		return ActionRefund
	}
	return action
}

// CanonicalAction maps an action alias to its canonical name. Unknown
// actions are returned unchanged with ok=false.
func CanonicalAction(action string) (string, bool) {
	switch action {
	case "hold", "on_hold":
		return ActionHold, true
	case "review", "dispute", "disputed":
		return ActionReview, true
	case "rejected", "settled", "reject":
		return ActionReject, true
	case "refund":
		return ActionRefund, true
	}
	return action, false
}

// ActionResult is the outcome of an admin action on a payment
type ActionResult struct {
	Success        bool
	Message        string
	Payment        *Payment
	RefundResponse ProviderResponse
	Detail         interface{}
	Secondary      []SecondaryResult
}

// Best-effort side effects reported through SecondaryResult
const (
	EffectAuditAppend   = "audit_append"
	EffectOrderStatus   = "order_status"
	EffectRefundPersist = "refund_persist"
	EffectStatusPersist = "status_persist"
)

// SecondaryResult reports a best-effort write made alongside the primary
// effect of an action. A failed secondary never fails the action.
type SecondaryResult struct {
	Effect string
	Err    error
}

// Failed reports whether the secondary write did not commit
func (r SecondaryResult) Failed() bool {
	return r.Err != nil
}
