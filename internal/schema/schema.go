// Package schema provides structural validation for payloads crossing the
// service boundary. The predicates are pure functions over decoded JSON and
// hold no state; they are consumed by the HTTP layer before a payload is
// trusted and are independent of admission control.
package schema

// IsValidSuggestion reports whether obj is a well-formed suggestion: an
// object with a non-empty string "title", a string "body", and an optional
// numeric "confidence" in [0, 1].
func IsValidSuggestion(obj any) bool {
	m, ok := obj.(map[string]any)
	if !ok {
		return false
	}

	title, ok := m["title"].(string)
	if !ok || title == "" {
		return false
	}

	if _, ok := m["body"].(string); !ok {
		return false
	}

	if raw, present := m["confidence"]; present {
		conf, ok := toFloat(raw)
		if !ok || conf < 0 || conf > 1 {
			return false
		}
	}

	return true
}

// IsValidAnalysisResponse reports whether obj is a well-formed analysis
// response: an object with a non-empty string "client_id", a "suggestions"
// array whose every element is a valid suggestion, and an optional string
// "summary".
func IsValidAnalysisResponse(obj any) bool {
	m, ok := obj.(map[string]any)
	if !ok {
		return false
	}

	clientID, ok := m["client_id"].(string)
	if !ok || clientID == "" {
		return false
	}

	suggestions, ok := m["suggestions"].([]any)
	if !ok {
		return false
	}
	for _, s := range suggestions {
		if !IsValidSuggestion(s) {
			return false
		}
	}

	if raw, present := m["summary"]; present {
		if _, ok := raw.(string); !ok {
			return false
		}
	}

	return true
}

// toFloat accepts the numeric types encoding/json may produce.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}
