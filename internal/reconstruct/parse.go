package reconstruct

import (
	"math"
	"strconv"
	"strings"
)

// cleanNumeric strips grouping separators and padding from a numeric cell.
func cleanNumeric(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return strings.NewReplacer(",", "", " ", "", "\u00a0", "").Replace(s)
}

// ParseInt parses a cell as an integer, returning nil when the cell is empty
// or not a number. Integral decimals such as "520.0" are accepted.
func ParseInt(s string) *int64 {
	s = cleanNumeric(s)
	if s == "" {
		return nil
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return &v
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return nil
	}
	if f >= math.MaxInt64 || f < math.MinInt64 {
		return nil
	}
	v := int64(f)
	return &v
}

// ParseFloat parses a cell as a float, returning nil when the cell is empty
// or not a finite number.
func ParseFloat(s string) *float64 {
	s = cleanNumeric(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// ParseYear extracts a four-digit census year from free text by discarding
// every non-digit character: "1971 (Census)" -> 1971. Numeric cells that
// spreadsheets render as "1961.0" are read as their integral value first.
func ParseYear(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == math.Trunc(f) && f >= 1000 && f <= 9999 {
		return int(f), true
	}

	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) != 4 {
		return 0, false
	}
	y, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return y, true
}

// parseGroupNo parses a group identifier. Only whole numbers qualify.
func parseGroupNo(s string) (int, bool) {
	v := ParseInt(s)
	if v == nil || *v > math.MaxInt32 || *v < math.MinInt32 {
		return 0, false
	}
	return int(*v), true
}
