package memdocs

import (
	"math"
	"strconv"
	"strings"
)

// ClampLimit normalizes a raw limit input (string, int, or float64 from a
// decoded JSON parameter bag) into [def, max]. Non-numeric, absent, or
// sub-minimum input falls back to def. Clamping happens in float space so
// an out-of-range value like 1e30 never hits a float-to-int conversion.
func ClampLimit(raw interface{}, def, max int) int {
	var f float64
	switch v := raw.(type) {
	case nil:
		return def
	case int:
		f = float64(v)
	case float64:
		f = v
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return def
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return def
		}
		f = parsed
	default:
		return def
	}
	if math.IsNaN(f) {
		return def
	}
	if f > float64(max) {
		return max
	}
	if f < float64(def) {
		return def
	}
	return int(f)
}
