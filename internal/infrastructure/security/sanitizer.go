package security

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"
)

// Sensitive header names that should be redacted.
var sensitiveHeaders = map[string]bool{
	"authorization":       true,
	"cookie":              true,
	"set-cookie":          true,
	"x-api-key":           true,
	"x-auth-token":        true,
	"proxy-authorization": true,
}

// Substrings of JSON field or query names whose values are redacted.
// Login and user-creation payloads carry "password"; login responses carry "token".
var sensitiveFields = []string{
	"password",
	"contrasena",
	"secret",
	"token",
	"authorization",
	"api_key",
	"apikey",
	"credential",
}

const redactedValue = "[REDACTED]"

// SanitizeHeaders returns a flat copy of headers with sensitive values redacted.
func SanitizeHeaders(headers http.Header) map[string]string {
	sanitized := make(map[string]string, len(headers))
	for key, values := range headers {
		if sensitiveHeaders[strings.ToLower(key)] {
			sanitized[key] = redactedValue
			continue
		}
		sanitized[key] = strings.Join(values, ", ")
	}
	return sanitized
}

// SanitizeBody redacts sensitive fields from a JSON body and always returns valid JSON.
// Non-JSON text is wrapped as {"_raw": ..., "_format": "text"}; binary data is base64 encoded.
// Bodies larger than maxSize are replaced by a truncated preview.
func SanitizeBody(body []byte, maxSize int) json.RawMessage {
	if len(body) == 0 {
		return nil
	}

	if !utf8.Valid(body) {
		return marshalOrNil(map[string]any{
			"_binary": true,
			"_size":   len(body),
			"_base64": base64.StdEncoding.EncodeToString(body),
		})
	}

	var data any
	if err := json.Unmarshal(body, &data); err != nil {
		text := string(body)
		if maxSize > 0 && len(text) > maxSize {
			text = truncateUTF8(text, maxSize)
		}
		return marshalOrNil(map[string]any{
			"_raw":    text,
			"_format": "text",
		})
	}

	sanitized, err := json.Marshal(sanitizeValue(data))
	if err != nil {
		return nil
	}

	// Truncate after redaction so a preview never leaks a secret.
	if maxSize > 0 && len(sanitized) > maxSize {
		return marshalOrNil(map[string]any{
			"_truncated": true,
			"_size":      len(sanitized),
			"_preview":   truncateUTF8(string(sanitized), maxSize),
		})
	}
	return json.RawMessage(sanitized)
}

// SanitizeURL redacts sensitive query parameters from a URL.
func SanitizeURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.RawQuery == "" {
		return rawURL
	}

	query := u.Query()
	changed := false
	for key := range query {
		if isSensitiveField(key) {
			query.Set(key, redactedValue)
			changed = true
		}
	}
	if !changed {
		return rawURL
	}
	u.RawQuery = query.Encode()
	return u.String()
}

func sanitizeValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for key, value := range val {
			if isSensitiveField(key) {
				out[key] = redactedValue
				continue
			}
			out[key] = sanitizeValue(value)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, value := range val {
			out[i] = sanitizeValue(value)
		}
		return out
	default:
		return val
	}
}

func isSensitiveField(name string) bool {
	lower := strings.ToLower(name)
	for _, field := range sensitiveFields {
		if strings.Contains(lower, field) {
			return true
		}
	}
	return false
}

func truncateUTF8(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}

func marshalOrNil(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return json.RawMessage(b)
}
