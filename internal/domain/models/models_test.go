package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsPrivilegedRole(t *testing.T) {
	tests := []struct {
		role string
		want bool
	}{
		{"CEO", true},
		{"chairman", true},
		{" Cfo ", true},
		{"manager", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			assert.Equal(t, tt.want, IsPrivilegedRole(tt.role))
		})
	}
}

func TestCanonicalAction(t *testing.T) {
	tests := []struct {
		input string
		want  string
		known bool
	}{
		{"hold", ActionHold, true},
		{"on_hold", ActionHold, true},
		{"dispute", ActionReview, true},
		{"disputed", ActionReview, true},
		{"settled", ActionReject, true},
		{"reject", ActionReject, true},
		{"refund", ActionRefund, true},
		{"void", "void", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := CanonicalAction(tt.input)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.known, ok)
		})
	}
}

func TestNormalizeAction(t *testing.T) {
	assert.Equal(t, ActionRefund, NormalizeAction(""))
	assert.Equal(t, ActionRefund, NormalizeAction("   "))
	assert.Equal(t, "hold", NormalizeAction(" HOLD "))
}

func TestPayment_Helpers(t *testing.T) {
	p := &Payment{Provider: " PayPal "}
	assert.True(t, p.IsPayPal())
	assert.Equal(t, DefaultCurrency, p.CurrencyOrDefault())
	assert.NotNil(t, p.Blob())
	assert.Same(t, p.RawResponse, p.Blob())

	assert.Equal(t, "provider_stripe_unsupported_for_refund", UnsupportedProviderWarning("stripe"))
}
