// Copyright 2025 Armando Rocha
// SPDX-License-Identifier: Apache-2.0

package ledger

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// fingerprint delimiter; ASCII unit separator never appears in free text
const fpSep = "\x1f"

// IdentityOf returns the record's stable identity verbatim.
func IdentityOf(t Transaction) string { return t.ID }

// FingerprintOf returns the content key used to catch duplicates that slipped
// in under different identities: lower-cased trimmed description, the numeric
// amount and the normalized date. Absent fields coerce to empty string / zero,
// so the computation never fails.
func FingerprintOf(t Transaction) string {
	desc := strings.ToLower(strings.TrimSpace(t.Description))
	amount := strconv.FormatFloat(CoerceAmount(t.Amount), 'f', -1, 64)
	return desc + fpSep + amount + fpSep + NormalizeDate(t.Date)
}

// NormalizeDate converts any date representation a storage boundary can hand
// us into the canonical YYYY-MM-DD string: native time values, RFC3339 strings
// with a time-of-day or zone offset, and already-canonical strings. Values it
// cannot interpret pass through as strings rather than failing.
func NormalizeDate(v any) string {
	switch d := v.(type) {
	case nil:
		return ""
	case time.Time:
		return d.Format("2006-01-02")
	case *time.Time:
		if d == nil {
			return ""
		}
		return d.Format("2006-01-02")
	case string:
		return normalizeDateString(d)
	case []byte:
		return normalizeDateString(string(d))
	default:
		return normalizeDateString(toString(v))
	}
}

func normalizeDateString(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	// Strings carrying a time component keep only the calendar part.
	if i := strings.IndexByte(s, 'T'); i >= 0 {
		s = s[:i]
	}
	if isCanonicalDate(s) {
		return s
	}
	for _, layout := range []string{"2006-01-02 15:04:05", "2006/01/02", "02/01/2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return s
}

func isCanonicalDate(s string) bool {
	if len(s) != 10 || s[4] != '-' || s[7] != '-' {
		return false
	}
	for i, c := range s {
		if i == 4 || i == 7 {
			continue
		}
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// CoerceAmount converts any amount representation to a finite float64.
// Non-numeric, NaN and infinite inputs coerce to 0 rather than propagating
// corruption into the collection.
func CoerceAmount(v any) float64 {
	var f float64
	switch a := v.(type) {
	case nil:
		return 0
	case float64:
		f = a
	case float32:
		f = float64(a)
	case int:
		f = float64(a)
	case int32:
		f = float64(a)
	case int64:
		f = float64(a)
	case json.Number:
		parsed, err := a.Float64()
		if err != nil {
			return 0
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(a), 64)
		if err != nil {
			return 0
		}
		f = parsed
	case []byte:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(string(a)), 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// Normalize returns the record with its date and amount in canonical form.
func Normalize(t Transaction) Transaction {
	t.Date = NormalizeDate(t.Date)
	t.Amount = CoerceAmount(t.Amount)
	return t
}

// LocalID synthesizes a fallback identity for records created while the
// remote store is unreachable. Millisecond timestamps are monotonic strings,
// so fingerprint collisions resolve toward the newer record by string compare.
func LocalID() string {
	return strconv.FormatInt(time.Now().UnixMilli(), 10)
}

func toString(v any) string {
	if s, ok := v.(interface{ String() string }); ok {
		return s.String()
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return strings.Trim(string(b), `"`)
}
