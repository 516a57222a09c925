package campuspulse

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// PayloadSelector extracts the widget payload from a response body.
//
// Backends that wrap their data, e.g. {"data": {"projects": {...}}}, are
// handled by selecting the inner value before it is parsed. A nil selector
// uses the whole body.
//
// Selectors are called within a panic recovery boundary. A panic is logged
// with a correlation ID and the widget keeps its previous data.
type PayloadSelector func(body []byte) ([]byte, error)

// JSONPathSelector returns a [PayloadSelector] that walks a JSON document
// using dot notation. Object keys are matched exactly; a numeric segment
// indexes into an array.
//
// Example:
//
//	// For response: {"data": {"campuses": [{"users": [...]}]}}
//	selector := campuspulse.JSONPathSelector("data.campuses.0.users")
func JSONPathSelector(path string) PayloadSelector {
	parts := strings.Split(path, ".")

	return func(body []byte) ([]byte, error) {
		current := json.RawMessage(body)
		for i, part := range parts {
			next, err := selectJSONPath(current, part)
			if err != nil {
				return nil, fmt.Errorf("select %q: %w", strings.Join(parts[:i+1], "."), err)
			}
			current = next
		}
		return current, nil
	}
}

// selectJSONPath descends one level into doc.
func selectJSONPath(doc json.RawMessage, part string) (json.RawMessage, error) {
	trimmed := strings.TrimSpace(string(doc))
	if trimmed == "" {
		return nil, errors.New("empty document")
	}

	switch trimmed[0] {
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(doc, &obj); err != nil {
			return nil, err
		}
		v, ok := obj[part]
		if !ok {
			return nil, errors.New("field not found")
		}
		return v, nil
	case '[':
		idx, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("array index %q is not a number", part)
		}
		var arr []json.RawMessage
		if err := json.Unmarshal(doc, &arr); err != nil {
			return nil, err
		}
		if idx < 0 || idx >= len(arr) {
			return nil, fmt.Errorf("array index %d out of range (len %d)", idx, len(arr))
		}
		return arr[idx], nil
	default:
		return nil, errors.New("not an object or array")
	}
}

// applySelector runs sel on body, treating nil as the identity.
func applySelector(sel PayloadSelector, body []byte) ([]byte, error) {
	if sel == nil {
		return body, nil
	}
	return sel(body)
}
