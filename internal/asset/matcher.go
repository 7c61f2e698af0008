// Package asset attaches bulk-uploaded option images to the questions they belong to,
// using nothing but the uploaded file names.
package asset

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// Accepted names, tried in order: Q5_Option2, Q5-O2, Q5O2, 5_O2, Q5_2, 5_2, 5-option2.
var filenamePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^q(\d+)[_\- ]?option[_\- ]?(\d+)$`),
	regexp.MustCompile(`(?i)^q?(\d+)[_\- ]?o(\d+)$`),
	regexp.MustCompile(`(?i)^q?(\d+)[_\- ](\d+)$`),
	regexp.MustCompile(`(?i)^(\d+)[_\- ]?option[_\- ]?(\d+)$`),
}

// ParseFilename extracts the question number and 1-based option number encoded in an
// image file name. Directories and the extension are ignored.
func ParseFilename(name string) (question, option int, ok bool) {
	base := filepath.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	base = strings.TrimSuffix(base, filepath.Ext(base))
	for _, re := range filenamePatterns {
		m := re.FindStringSubmatch(base)
		if m == nil {
			continue
		}
		q, err1 := strconv.Atoi(m[1])
		o, err2 := strconv.Atoi(m[2])
		if err1 != nil || err2 != nil {
			return 0, 0, false
		}
		return q, o, true
	}
	return 0, 0, false
}
