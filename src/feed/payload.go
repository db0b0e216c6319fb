package feed

import (
	"math"
	"strconv"
	"strings"
)

// Tolerant accessors over decoded JSON objects. Numbers may arrive as JSON numbers
// or numeric strings depending on the producer.

// -----------------------------------------------------------------------------

func safeFloat64(data map[string]interface{}, key string) (float64, bool) {
	return toFloat(data[key])
}

// toFloat accepts finite numbers only; "NaN" and "Inf" strings count as absent.
func toFloat(val interface{}) (float64, bool) {
	var f float64
	switch v := val.(type) {
	case float64:
		f = v
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// -----------------------------------------------------------------------------

// firstFloat returns the first of keys that holds a number.
func firstFloat(data map[string]interface{}, keys ...string) (float64, bool) {
	for _, k := range keys {
		if v, ok := safeFloat64(data, k); ok {
			return v, true
		}
	}
	return 0, false
}

// -----------------------------------------------------------------------------

func safeInt64(data map[string]interface{}, key string) int64 {
	v, ok := safeFloat64(data, key)
	if !ok {
		return 0
	}
	return int64(v)
}

// -----------------------------------------------------------------------------

func safeString(data map[string]interface{}, key string) string {
	if val, ok := data[key]; ok {
		if s, ok := val.(string); ok {
			return s
		}
	}
	return ""
}

// -----------------------------------------------------------------------------

func safeMap(data map[string]interface{}, keys ...string) map[string]interface{} {
	for _, k := range keys {
		if m, ok := data[k].(map[string]interface{}); ok {
			return m
		}
	}
	return nil
}

// -----------------------------------------------------------------------------

func ptr(v float64) *float64 { return &v }

// price treats zero as absent; producers send 0 when there is no level.
func price(data map[string]interface{}, keys ...string) *float64 {
	v, ok := firstFloat(data, keys...)
	if !ok || v == 0 {
		return nil
	}
	return ptr(v)
}
