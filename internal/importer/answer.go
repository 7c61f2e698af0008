package importer

import (
	"strconv"
	"strings"
)

var answerGlyphs = map[string]int{
	"A": 0, "B": 1, "C": 2, "D": 3,
	"①": 0, "②": 1, "③": 2, "④": 3,
	"㉠": 0, "㉡": 1, "㉢": 2, "㉣": 3,
}

// NormalizeAnswer maps a correct-answer cell to a zero-based option index. Letter codes
// (A-D), circled digits (①-④), insertion markers (㉠-㉣) and 1-based digits are accepted.
// ok is false for blank or unrecognized input, in which case the index is 0.
func NormalizeAnswer(raw string) (idx int, ok bool) {
	v := strings.TrimSpace(raw)
	v = strings.Trim(v, "()（）[]. ")
	if v == "" {
		return 0, false
	}
	if i, found := answerGlyphs[strings.ToUpper(v)]; found {
		return i, true
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		n := int(f)
		if float64(n) == f && n >= 1 && n <= 4 {
			return n - 1, true
		}
	}
	return 0, false
}
