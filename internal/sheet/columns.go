package sheet

import (
	"strings"
	"unicode/utf8"
)

// Field is a canonical column of an exam worksheet.
type Field string

const (
	FieldNumber       Field = "number"
	FieldQuestion     Field = "question"
	FieldPassage      Field = "passage"
	FieldInstruction  Field = "instruction"
	FieldContextBox   Field = "context_box"
	FieldOption1      Field = "option1"
	FieldOption2      Field = "option2"
	FieldOption3      Field = "option3"
	FieldOption4      Field = "option4"
	FieldAnswer       Field = "answer"
	FieldScore        Field = "score"
	FieldExplanation  Field = "explanation"
	FieldImage        Field = "image"
	FieldOptionImage1 Field = "option_image1"
	FieldOptionImage2 Field = "option_image2"
	FieldOptionImage3 Field = "option_image3"
	FieldOptionImage4 Field = "option_image4"
	FieldLayout       Field = "layout"
	FieldGroupCount   Field = "group_count"
)

var (
	OptionFields      = [4]Field{FieldOption1, FieldOption2, FieldOption3, FieldOption4}
	OptionImageFields = [4]Field{FieldOptionImage1, FieldOptionImage2, FieldOptionImage3, FieldOptionImage4}
)

// FieldSpec lists the header spellings accepted for a field, most specific first.
type FieldSpec struct {
	Field      Field
	Candidates []string
}

// Candidates shorter than this many runes are matched exactly only ("a", "no", "①").
// Two-rune Hangul/Han candidates such as "정답" stay eligible for substring matching.
const minFuzzyLen = 3

// DefaultFields is ordered so that specific fields claim their columns before generic ones
// (option images before image, options before context box).
var DefaultFields = []FieldSpec{
	{FieldNumber, []string{"번호", "문항 번호", "문항번호", "문제 번호", "题号", "题目编号", "序号", "no", "no.", "number", "question no", "question number", "q"}},
	{FieldOptionImage1, []string{"선택지1 이미지", "선택지① 이미지", "선택지 ① 이미지", "보기① 이미지", "선택지 1 이미지", "选项1图片", "option1 image", "option 1 image", "option_image_1", "optionimage1"}},
	{FieldOptionImage2, []string{"선택지2 이미지", "선택지② 이미지", "선택지 ② 이미지", "보기② 이미지", "선택지 2 이미지", "选项2图片", "option2 image", "option 2 image", "option_image_2", "optionimage2"}},
	{FieldOptionImage3, []string{"선택지3 이미지", "선택지③ 이미지", "선택지 ③ 이미지", "보기③ 이미지", "선택지 3 이미지", "选项3图片", "option3 image", "option 3 image", "option_image_3", "optionimage3"}},
	{FieldOptionImage4, []string{"선택지4 이미지", "선택지④ 이미지", "선택지 ④ 이미지", "보기④ 이미지", "선택지 4 이미지", "选项4图片", "option4 image", "option 4 image", "option_image_4", "optionimage4"}},
	{FieldOption1, []string{"선택지1", "선택지 1", "선택지①", "선택지 ①", "보기1", "보기 1", "보기①", "보기 ①", "选项1", "选项①", "选项a", "option1", "option 1", "option a", "choice1", "choice 1", "a", "①"}},
	{FieldOption2, []string{"선택지2", "선택지 2", "선택지②", "선택지 ②", "보기2", "보기 2", "보기②", "보기 ②", "选项2", "选项②", "选项b", "option2", "option 2", "option b", "choice2", "choice 2", "b", "②"}},
	{FieldOption3, []string{"선택지3", "선택지 3", "선택지③", "선택지 ③", "보기3", "보기 3", "보기③", "보기 ③", "选项3", "选项③", "选项c", "option3", "option 3", "option c", "choice3", "choice 3", "c", "③"}},
	{FieldOption4, []string{"선택지4", "선택지 4", "선택지④", "선택지 ④", "보기4", "보기 4", "보기④", "보기 ④", "选项4", "选项④", "选项d", "option4", "option 4", "option d", "choice4", "choice 4", "d", "④"}},
	{FieldInstruction, []string{"지시문", "문항 지시문", "指示语", "题目要求", "instruction", "instructions", "direction", "directions"}},
	{FieldQuestion, []string{"문제", "질문", "문항", "题目", "问题", "题干", "question", "question text", "stem"}},
	{FieldPassage, []string{"지문", "본문", "대본", "阅读材料", "文章", "原文", "听力原文", "passage", "text", "script", "transcript"}},
	{FieldContextBox, []string{"보기", "보기 박스", "例句", "方框", "插入句", "context box", "contextbox", "context", "box"}},
	{FieldAnswer, []string{"정답", "답", "答案", "正确答案", "answer", "correct answer", "correct", "key"}},
	{FieldScore, []string{"배점", "점수", "分值", "分数", "score", "points", "point"}},
	{FieldExplanation, []string{"해설", "풀이", "解析", "答案解析", "explanation", "analysis", "rationale"}},
	{FieldImage, []string{"이미지", "그림", "图片", "image", "picture", "img"}},
	{FieldLayout, []string{"레이아웃", "布局", "layout"}},
	{FieldGroupCount, []string{"그룹 수", "그룹수", "组数", "题组数量", "group count", "group size", "groupcount"}},
}

// Columns maps fields to zero-based column indices; unresolved fields map to -1.
type Columns map[Field]int

func (c Columns) Index(f Field) int {
	idx, ok := c[f]
	if !ok {
		return -1
	}
	return idx
}

func (c Columns) Has(f Field) bool {
	return c.Index(f) >= 0
}

// Value returns the trimmed cell of row for field f, or "" when the field is unresolved
// or the row is shorter than the header.
func (c Columns) Value(row Row, f Field) string {
	idx := c.Index(f)
	if idx < 0 || idx >= len(row.Cells) {
		return ""
	}
	return strings.TrimSpace(row.Cells[idx])
}

// NormalizeHeader strips byte-order marks and zero-width characters, trims and collapses
// whitespace, and lower-cases the header.
func NormalizeHeader(h string) string {
	h = strings.Map(func(r rune) rune {
		switch r {
		case '\uFEFF', '\u200B', '\u200C', '\u200D':
			return -1
		case '\u00A0', '\u3000':
			return ' '
		}
		return r
	}, h)
	return strings.ToLower(strings.Join(strings.Fields(h), " "))
}

// ResolveColumns matches header cells against each field's candidates. Exact matches on
// the normalized header are tried for every field before any substring matching, and a
// column claimed by one field is never handed to another.
func ResolveColumns(header []string, specs []FieldSpec) Columns {
	normalized := make([]string, len(header))
	raw := make([]string, len(header))
	for i, h := range header {
		normalized[i] = NormalizeHeader(h)
		raw[i] = strings.ToLower(strings.ReplaceAll(h, "\uFEFF", ""))
	}

	cols := make(Columns, len(specs))
	claimed := make(map[int]bool, len(header))
	for _, spec := range specs {
		cols[spec.Field] = -1
	}

	for _, spec := range specs {
		if idx := exactMatch(normalized, claimed, spec.Candidates); idx >= 0 {
			cols[spec.Field] = idx
			claimed[idx] = true
		}
	}
	for _, spec := range specs {
		if cols[spec.Field] >= 0 {
			continue
		}
		if idx := fuzzyMatch(raw, claimed, spec.Candidates); idx >= 0 {
			cols[spec.Field] = idx
			claimed[idx] = true
		}
	}
	return cols
}

func exactMatch(headers []string, claimed map[int]bool, candidates []string) int {
	for _, c := range candidates {
		want := NormalizeHeader(c)
		for i, h := range headers {
			if !claimed[i] && h != "" && h == want {
				return i
			}
		}
	}
	return -1
}

func fuzzyMatch(headers []string, claimed map[int]bool, candidates []string) int {
	for _, c := range candidates {
		want := strings.ToLower(c)
		if !fuzzyEligible(want) {
			continue
		}
		for i, h := range headers {
			if !claimed[i] && strings.Contains(h, want) {
				return i
			}
		}
	}
	return -1
}

func fuzzyEligible(c string) bool {
	n := utf8.RuneCountInString(c)
	if n >= minFuzzyLen {
		return true
	}
	return n == minFuzzyLen-1 && len(c) > n
}
