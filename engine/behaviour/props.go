package behaviour

import (
	"fmt"
	"strconv"
)

func propString(props map[string]any, key, fallback string) string {
	v, ok := props[key]
	if !ok || v == nil {
		return fallback
	}
	switch s := v.(type) {
	case string:
		return s
	default:
		return fmt.Sprint(s)
	}
}

func propFloat(props map[string]any, key string, fallback float64) (float64, error) {
	v, ok := props[key]
	if !ok || v == nil {
		return fallback, nil
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case bool:
		if n {
			return 1, nil
		}
		return 0, nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, fmt.Errorf("property %q: %w", key, err)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("property %q: unsupported type %T", key, v)
	}
}

func propBool(props map[string]any, key string, fallback bool) (bool, error) {
	v, ok := props[key]
	if !ok || v == nil {
		return fallback, nil
	}
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		parsed, err := strconv.ParseBool(b)
		if err != nil {
			return false, fmt.Errorf("property %q: %w", key, err)
		}
		return parsed, nil
	default:
		f, err := propFloat(props, key, 0)
		if err != nil {
			return false, err
		}
		return f != 0, nil
	}
}
