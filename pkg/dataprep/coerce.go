package dataprep

import (
	"math"
	"strconv"
	"strings"
)

// toNumber coerces a cell to float64. ok is false for text that is not a
// number and for infinities; missing reports a nil or NaN cell.
func toNumber(v any) (f float64, missing, ok bool) {
	switch n := v.(type) {
	case nil:
		return 0, true, true
	case int64:
		return float64(n), false, true
	case int:
		return float64(n), false, true
	case float64:
		if math.IsNaN(n) {
			return 0, true, true
		}
		if math.IsInf(n, 0) {
			return 0, false, false
		}
		return n, false, true
	case bool:
		if n {
			return 1, false, true
		}
		return 0, false, true
	case string:
		s := strings.TrimSpace(n)
		if isMissingText(s) {
			return 0, true, true
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false, false
		}
		return f, false, true
	}
	return 0, false, false
}

// categoryKey renders a cell as the string a fitted vocabulary is keyed by,
// so "0", int64(0) and 0.0 all name the same level.
func categoryKey(v any) (key string, missing bool) {
	switch c := v.(type) {
	case nil:
		return "", true
	case string:
		s := strings.TrimSpace(c)
		if isMissingText(s) {
			return "", true
		}
		return s, false
	case int64:
		return strconv.FormatInt(c, 10), false
	case int:
		return strconv.Itoa(c), false
	case float64:
		if math.IsNaN(c) {
			return "", true
		}
		if c == math.Trunc(c) && math.Abs(c) < 1e15 {
			return strconv.FormatInt(int64(c), 10), false
		}
		return strconv.FormatFloat(c, 'g', -1, 64), false
	case bool:
		return strconv.FormatBool(c), false
	}
	return "", true
}

func isMissingText(s string) bool {
	return s == "" || s == "NA" || s == "NaN" || s == "nan" || s == "null"
}
