// Package redact masks secret values before they reach logs or the audit trail.
package redact

import "strings"

// Mask replaces every sensitive value.
const Mask = "********"

var sensitive = map[string]struct{}{
	"password":      {},
	"old_password":  {},
	"new_password":  {},
	"token":         {},
	"access_token":  {},
	"hash":          {},
	"password_hash": {},
	"salt":          {},
	"secret":        {},
	"authorization": {},
}

// IsSensitive reports whether values stored under key must never be emitted.
func IsSensitive(key string) bool {
	_, ok := sensitive[strings.ToLower(key)]
	return ok
}

// Map returns a copy of fields with sensitive values masked. Nested maps
// and slices of maps are walked.
func Map(fields map[string]any) map[string]any {
	if fields == nil {
		return nil
	}
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		if IsSensitive(k) {
			out[k] = Mask
			continue
		}
		out[k] = value(v)
	}
	return out
}

func value(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return Map(t)
	case map[string]string:
		m := make(map[string]any, len(t))
		for k, s := range t {
			m[k] = s
		}
		return Map(m)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = value(e)
		}
		return out
	default:
		return v
	}
}
