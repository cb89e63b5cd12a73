package paymentsadmin

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/kevin07696/payments-admin/internal/domain"
	"github.com/shopspring/decimal"
)

const maxBodyBytes = 1 << 20

// jsonBody is a leniently decoded request body. A missing or malformed
// body decodes as empty.
type jsonBody map[string]json.RawMessage

func readJSONBody(r *http.Request) jsonBody {
	body := jsonBody{}
	if r.Body == nil {
		return body
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return body
	}
	if err := json.Unmarshal(bytes.TrimSpace(raw), &body); err != nil {
		return jsonBody{}
	}
	return body
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

// has reports whether key is present, even with a null value
func (b jsonBody) has(key string) bool {
	_, ok := b[key]
	return ok
}

// str returns a string field, or "" when absent or not a string
func (b jsonBody) str(key string) string {
	raw, ok := b[key]
	if !ok || isNull(raw) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// firstStr returns the first non-empty string among keys
func (b jsonBody) firstStr(keys ...string) string {
	for _, k := range keys {
		if s := b.str(k); s != "" {
			return s
		}
	}
	return ""
}

// number reads a JSON number or numeric string. Absent, null and empty
// values yield nil.
func (b jsonBody) number(key string, invalid *domain.DomainError) (*decimal.Decimal, error) {
	raw, ok := b[key]
	if !ok || isNull(raw) {
		return nil, nil
	}

	text := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return nil, invalid
		}
		text = strings.TrimSpace(text)
		if text == "" {
			return nil, nil
		}
	}

	d, err := decimal.NewFromString(text)
	if err != nil {
		return nil, invalid
	}
	return &d, nil
}

// paymentID resolves payment_id, paymentId or id. A non-empty second
// return is the error code to report.
func (b jsonBody) paymentID() (int64, string) {
	var raw json.RawMessage
	for _, k := range []string{"payment_id", "paymentId", "id"} {
		if v, ok := b[k]; ok && !isEmptyID(v) {
			raw = v
			break
		}
	}
	if raw == nil {
		return 0, "payment_id required"
	}

	text := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return 0, "invalid_payment_id"
		}
		text = strings.TrimSpace(text)
	}
	id, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return 0, "invalid_payment_id"
	}
	return id, ""
}

func isEmptyID(raw json.RawMessage) bool {
	switch strings.TrimSpace(string(raw)) {
	case "", "null", `""`, "0", "false":
		return true
	}
	return false
}
