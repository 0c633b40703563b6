// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package smoke

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/PaesslerAG/jsonpath"
)

func checkExists(expr string, doc any) error {
	val, err := jsonpath.Get(expr, doc)
	if err != nil {
		return fmt.Errorf("jsonpath %q: %v", expr, err)
	}
	if isEmpty(val) {
		return fmt.Errorf("jsonpath %q: expected value to exist, got empty", expr)
	}
	return nil
}

func checkEquals(expr, want string, doc any) error {
	val, err := jsonpath.Get(expr, doc)
	if err != nil {
		return fmt.Errorf("jsonpath %q: %v", expr, err)
	}
	got, err := toString(val)
	if err != nil {
		return fmt.Errorf("jsonpath %q: %v", expr, err)
	}
	if got != want {
		return fmt.Errorf("jsonpath %q: expected %q, got %q", expr, want, got)
	}
	return nil
}

func capture(expr string, doc any) (string, error) {
	val, err := jsonpath.Get(expr, doc)
	if err != nil {
		return "", fmt.Errorf("capture %q: %v", expr, err)
	}
	s, err := toString(val)
	if err != nil {
		return "", fmt.Errorf("capture %q: %v", expr, err)
	}
	return s, nil
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	default:
		return false
	}
}

// toString renders a JSONPath result. Single-element lists are unwrapped.
func toString(v any) (string, error) {
	if arr, ok := v.([]any); ok {
		if len(arr) == 1 {
			return toString(arr[0])
		}
		if len(arr) == 0 {
			return "", fmt.Errorf("empty array")
		}
	}
	switch t := v.(type) {
	case nil:
		return "", fmt.Errorf("value is null")
	case string:
		return t, nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(t), nil
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
}
