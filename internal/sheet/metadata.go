package sheet

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"topikbank/internal/exam"
)

type Metadata struct {
	Round   int            `json:"round"`
	Paper   exam.PaperType `json:"paper_type"`
	Variant string         `json:"variant,omitempty"`
	Title   string         `json:"title"`
	Warning string         `json:"warning,omitempty"`
}

var (
	digitRun     = regexp.MustCompile(`[0-9]+`)
	variantToken = regexp.MustCompile(`(?:^|[^A-Za-z])([AB])(?:[^A-Za-z]|$)`)

	readingKeywords   = []string{"reading", "읽기", "阅读"}
	listeningKeywords = []string{"listening", "듣기", "听力"}
	excludeKeywords   = []string{"readme", "read me", "template", "说明", "模板", "설명", "안내", "양식", "instruction"}
)

// ResolveMetadata derives round, paper type, variant and title from a worksheet name.
func ResolveMetadata(name string) Metadata {
	var md Metadata
	if m := digitRun.FindString(name); m != "" {
		md.Round, _ = strconv.Atoi(m)
	}

	lower := strings.ToLower(name)
	switch {
	case containsAny(lower, readingKeywords):
		md.Paper = exam.PaperReading
	case containsAny(lower, listeningKeywords):
		md.Paper = exam.PaperListening
	}

	if m := variantToken.FindStringSubmatch(name); m != nil {
		md.Variant = m[1]
	}

	if md.Round > 0 && md.Paper.Valid() {
		md.Title = Title(md.Round, md.Paper, md.Variant)
		return md
	}

	missing := make([]string, 0, 2)
	if md.Round <= 0 {
		missing = append(missing, "round")
	}
	if !md.Paper.Valid() {
		missing = append(missing, "paper type")
	}
	md.Warning = fmt.Sprintf("sheet %q: could not determine %s from sheet name", name, strings.Join(missing, " and "))
	return md
}

// Title builds the canonical exam title, e.g. "TOPIK II 제91회 읽기 A형".
func Title(round int, paper exam.PaperType, variant string) string {
	t := fmt.Sprintf("TOPIK II 제%d회 %s", round, paper.Label())
	if variant != "" {
		t += " " + variant + "형"
	}
	return t
}

// IsExcluded reports whether a worksheet is documentation rather than an exam paper.
func IsExcluded(name string) bool {
	return containsAny(strings.ToLower(strings.TrimSpace(name)), excludeKeywords)
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
