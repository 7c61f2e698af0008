package importer

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"topikbank/internal/exam"
	"topikbank/internal/format"
	"topikbank/internal/sheet"
)

// Options tunes how rows are interpreted.
type Options struct {
	// StrictAnswers turns an unrecognized correct-answer cell into a row error instead of
	// silently storing option index 0.
	StrictAnswers bool `json:"strict_answers"`
}

// RowError describes a row that could not be turned into a question. It is collected
// per worksheet and never aborts an import.
type RowError struct {
	Sheet   string `json:"sheet"`
	Line    int    `json:"line"`
	Number  int    `json:"number,omitempty"`
	Message string `json:"message"`
}

func (e RowError) Error() string {
	if e.Number > 0 {
		return fmt.Sprintf("%s row %d (question %d): %s", e.Sheet, e.Line, e.Number, e.Message)
	}
	return fmt.Sprintf("%s row %d: %s", e.Sheet, e.Line, e.Message)
}

var firstDigits = regexp.MustCompile(`[0-9]+`)

// parseNumber reads a slot number from cells such as "7", "7.0", "Q7" or "7번".
func parseNumber(raw string) (int, bool) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return 0, false
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		n := int(f)
		if float64(n) != f {
			return 0, false
		}
		return n, true
	}
	m := firstDigits.FindString(v)
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return n, true
}

func parseCount(raw string) int {
	n, ok := parseNumber(raw)
	if !ok || n < 0 {
		return 0
	}
	return n
}

// Mapper turns worksheet rows into questions of one paper.
type Mapper struct {
	Sheet   string
	Paper   exam.PaperType
	Columns sheet.Columns
	Options Options
}

func (m Mapper) rowError(row sheet.Row, number int, format string, args ...any) *RowError {
	return &RowError{
		Sheet:   m.Sheet,
		Line:    row.Line,
		Number:  number,
		Message: fmt.Sprintf(format, args...),
	}
}

// MapRow validates one row against the format entry of its slot. It returns either a
// complete question or a row error, never both.
func (m Mapper) MapRow(row sheet.Row) (exam.Question, *RowError) {
	number, ok := parseNumber(m.Columns.Value(row, sheet.FieldNumber))
	if !ok || number <= 0 {
		return exam.Question{}, m.rowError(row, 0, "missing question number")
	}

	options := make([]string, exam.OptionCount)
	var empty []string
	for i, f := range sheet.OptionFields {
		options[i] = m.Columns.Value(row, f)
		if options[i] == "" {
			empty = append(empty, strconv.Itoa(i+1))
		}
	}
	if len(empty) > 0 {
		return exam.Question{}, m.rowError(row, number, "options incomplete: option %s empty", strings.Join(empty, ", "))
	}

	entry, ok := format.Lookup(number, m.Paper)
	if !ok {
		return exam.Question{}, m.rowError(row, number, "question number must be between 1 and %d", exam.SlotCount)
	}
	if entry.HasFixedOptions() {
		copy(options, entry.FixedOptions)
	}

	questionText := entry.Question
	if supplied := m.Columns.Value(row, sheet.FieldQuestion); entry.NeedsQuestion && supplied != "" {
		questionText = supplied
	}

	rawAnswer := m.Columns.Value(row, sheet.FieldAnswer)
	answer, ok := NormalizeAnswer(rawAnswer)
	if !ok && m.Options.StrictAnswers {
		if rawAnswer == "" {
			return exam.Question{}, m.rowError(row, number, "correct answer missing")
		}
		return exam.Question{}, m.rowError(row, number, "unrecognized correct answer %q", rawAnswer)
	}

	q := exam.Question{
		Number:        number,
		UIType:        string(entry.UIType),
		Instruction:   entry.Instruction,
		Question:      questionText,
		Passage:       m.Columns.Value(row, sheet.FieldPassage),
		ContextBox:    m.Columns.Value(row, sheet.FieldContextBox),
		Options:       options,
		CorrectAnswer: answer,
		Score:         entry.Score,
		Image:         m.Columns.Value(row, sheet.FieldImage),
		Explanation:   m.Columns.Value(row, sheet.FieldExplanation),
		Layout:        m.Columns.Value(row, sheet.FieldLayout),
		GroupCount:    parseCount(m.Columns.Value(row, sheet.FieldGroupCount)),
	}
	if q.GroupCount == 0 && entry.IsGroupStart() && entry.GroupSize > 1 {
		q.GroupCount = entry.GroupSize
	}

	images := make([]string, exam.OptionCount)
	hasImage := false
	for i, f := range sheet.OptionImageFields {
		images[i] = m.Columns.Value(row, f)
		hasImage = hasImage || images[i] != ""
	}
	if hasImage {
		q.OptionImages = images
	}
	return q, nil
}

// ApplyFormat re-derives the format-owned fields of every question from the exam's
// current paper type. A preview mapped with one paper and committed under another would
// otherwise keep the first paper's instructions, scores and fixed options.
func ApplyFormat(e *exam.Exam) {
	if !e.PaperType.Valid() {
		return
	}
	for i := range e.Questions {
		q := &e.Questions[i]
		entry, ok := format.Lookup(q.Number, e.PaperType)
		if !ok {
			continue
		}
		q.UIType = string(entry.UIType)
		q.Instruction = entry.Instruction
		q.Score = entry.Score
		if !entry.NeedsQuestion || q.Question == "" || isFormatQuestion(q.Number, q.Question) {
			q.Question = entry.Question
		}
		if entry.HasFixedOptions() {
			if len(q.Options) < exam.OptionCount {
				q.Options = append(q.Options, make([]string, exam.OptionCount-len(q.Options))...)
			}
			copy(q.Options, entry.FixedOptions)
		}
		if q.GroupCount == 0 && entry.IsGroupStart() && entry.GroupSize > 1 {
			q.GroupCount = entry.GroupSize
		}
	}
}

// isFormatQuestion reports whether text is the canned question of slot number on any paper.
func isFormatQuestion(number int, text string) bool {
	for _, p := range []exam.PaperType{exam.PaperReading, exam.PaperListening} {
		if e, ok := format.Lookup(number, p); ok && !e.NeedsQuestion && e.Question != "" && e.Question == text {
			return true
		}
	}
	return false
}
