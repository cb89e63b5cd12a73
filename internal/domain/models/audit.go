package models

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Reserved keys inside a payment blob
const (
	BlobKeyAdminActions = "_admin_actions"
	BlobKeyRefunds      = "_refunds"
	BlobKeyUnparsed     = "_unparsed"

	// non-list values found under the log keys are moved here on read
	BlobKeyLegacyAdminActions = "_admin_actions_legacy"
	BlobKeyLegacyRefunds      = "_refunds_legacy"
)

// Actor identifies who performed an admin action
type Actor struct {
	Username string `json:"username"`
	Role     string `json:"role,omitempty"`
}

// AuditActionRecord is one entry of a payment's admin action log
type AuditActionRecord struct {
	Timestamp     time.Time        `json:"timestamp"`
	Actor         Actor            `json:"actor"`
	Action        string           `json:"action"`
	RefundAmount  *decimal.Decimal `json:"refund_amount"`
	RefundPercent *decimal.Decimal `json:"refund_percent"`
	Note          string           `json:"note"`
	Warning       string           `json:"warning,omitempty"`
	Error         string           `json:"error,omitempty"`
	Detail        interface{}      `json:"detail,omitempty"`

	// raw holds entries written by earlier tooling that do not fit the
	// record shape; they are written back untouched.
	raw json.RawMessage
}

// auditActionRecordJSON avoids recursion in the custom (un)marshalers
type auditActionRecordJSON AuditActionRecord

// MarshalJSON writes legacy entries back exactly as they were read
func (r AuditActionRecord) MarshalJSON() ([]byte, error) {
	if len(r.raw) > 0 {
		return r.raw, nil
	}
	return json.Marshal(auditActionRecordJSON(r))
}

// UnmarshalJSON keeps entries that do not decode as opaque raw JSON
func (r *AuditActionRecord) UnmarshalJSON(data []byte) error {
	var decoded auditActionRecordJSON
	if err := json.Unmarshal(data, &decoded); err != nil {
		*r = AuditActionRecord{raw: append(json.RawMessage(nil), data...)}
		return nil
	}
	*r = AuditActionRecord(decoded)
	return nil
}

// IsLegacy reports whether the entry was preserved as opaque JSON
func (r AuditActionRecord) IsLegacy() bool {
	return len(r.raw) > 0
}

// WithError returns a copy of the record tagged with an error and optional detail
func (r AuditActionRecord) WithError(code string, detail interface{}) AuditActionRecord {
	r.Error = code
	r.Detail = detail
	return r
}

// ProviderResponse is the decoded JSON body returned by the payment provider
type ProviderResponse map[string]interface{}

// PaymentBlob is the typed view of a payment's raw_response column.
// Provider payload keys are carried through as-is.
type PaymentBlob struct {
	Fields       map[string]json.RawMessage
	AdminActions []AuditActionRecord
	Refunds      []json.RawMessage
	Unparsed     string
}

// NewPaymentBlob returns an empty blob
func NewPaymentBlob() *PaymentBlob {
	return &PaymentBlob{Fields: make(map[string]json.RawMessage)}
}

// ParsePaymentBlob decodes a stored blob. NULL yields nil. It accepts a JSON
// object or a JSON string that itself encodes an object. Anything else is
// kept under _unparsed so it is never lost on the next write.
func ParsePaymentBlob(data []byte) *PaymentBlob {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	blob := NewPaymentBlob()

	if trimmed[0] == '"' {
		var inner string
		if err := json.Unmarshal(trimmed, &inner); err != nil {
			blob.Unparsed = string(trimmed)
			return blob
		}
		innerTrimmed := bytes.TrimSpace([]byte(inner))
		if len(innerTrimmed) == 0 || innerTrimmed[0] != '{' {
			blob.Unparsed = inner
			return blob
		}
		if !blob.decodeObject(innerTrimmed) {
			blob.Unparsed = inner
		}
		return blob
	}

	if trimmed[0] != '{' || !blob.decodeObject(trimmed) {
		blob.Unparsed = string(trimmed)
	}
	return blob
}

func (b *PaymentBlob) decodeObject(data []byte) bool {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return false
	}

	if raw, ok := fields[BlobKeyAdminActions]; ok {
		delete(fields, BlobKeyAdminActions)
		if err := json.Unmarshal(raw, &b.AdminActions); err != nil {
			b.AdminActions = nil
			fields[BlobKeyLegacyAdminActions] = raw
		}
	}
	if raw, ok := fields[BlobKeyRefunds]; ok {
		delete(fields, BlobKeyRefunds)
		if err := json.Unmarshal(raw, &b.Refunds); err != nil {
			b.Refunds = nil
			fields[BlobKeyLegacyRefunds] = raw
		}
	}
	if raw, ok := fields[BlobKeyUnparsed]; ok {
		var unparsed string
		if err := json.Unmarshal(raw, &unparsed); err == nil {
			b.Unparsed = unparsed
			delete(fields, BlobKeyUnparsed)
		}
	}

	b.Fields = fields
	return true
}

// AppendAction adds a record to the admin action log
func (b *PaymentBlob) AppendAction(record AuditActionRecord) {
	b.AdminActions = append(b.AdminActions, record)
}

// AppendRefund adds a provider refund response to the refund log
func (b *PaymentBlob) AppendRefund(resp ProviderResponse) error {
	encoded, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	b.Refunds = append(b.Refunds, encoded)
	return nil
}

// Clone returns a deep enough copy for a caller to mutate without
// affecting the original slices or field map.
func (b *PaymentBlob) Clone() *PaymentBlob {
	if b == nil {
		return NewPaymentBlob()
	}
	out := &PaymentBlob{
		Fields:   make(map[string]json.RawMessage, len(b.Fields)),
		Unparsed: b.Unparsed,
	}
	for k, v := range b.Fields {
		out.Fields[k] = v
	}
	if b.AdminActions != nil {
		out.AdminActions = append([]AuditActionRecord(nil), b.AdminActions...)
	}
	if b.Refunds != nil {
		out.Refunds = append([]json.RawMessage(nil), b.Refunds...)
	}
	return out
}

// MarshalJSON renders the blob as a single JSON object
func (b *PaymentBlob) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(b.Fields)+3)
	for k, v := range b.Fields {
		out[k] = v
	}
	if b.AdminActions != nil {
		out[BlobKeyAdminActions] = b.AdminActions
	}
	if b.Refunds != nil {
		out[BlobKeyRefunds] = b.Refunds
	}
	if b.Unparsed != "" {
		out[BlobKeyUnparsed] = b.Unparsed
	}
	return json.Marshal(out)
}
