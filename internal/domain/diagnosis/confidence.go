package diagnosis

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
)

const (
	MinConfidence = 0
	MaxConfidence = 100
)

// ClampConfidence bounds a score to [MinConfidence, MaxConfidence]. NaN becomes 0.
func ClampConfidence(v float64) float64 {
	if math.IsNaN(v) {
		return MinConfidence
	}
	return math.Max(MinConfidence, math.Min(MaxConfidence, v))
}

// CoerceConfidence turns a provider-reported confidence value into a valid
// score. Missing or non-numeric values become 0. The bool reports whether the
// returned score differs from what the provider sent.
func CoerceConfidence(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		c := ClampConfidence(v)
		return c, c != v
	case int:
		c := ClampConfidence(float64(v))
		return c, c != float64(v)
	case json.Number:
		f, ok := parseScore(string(v))
		if !ok {
			return MinConfidence, true
		}
		c := ClampConfidence(f)
		return c, c != f
	case string:
		f, ok := parseScore(strings.TrimSpace(v))
		if !ok {
			return MinConfidence, true
		}
		return ClampConfidence(f), true
	default:
		return MinConfidence, true
	}
}

// parseScore parses a decimal score. Values beyond float64 range parse to
// ±Inf, which ClampConfidence maps to the bounds.
func parseScore(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, false
	}
	return f, true
}
