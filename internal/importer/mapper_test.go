package importer

import (
	"strings"
	"testing"

	"topikbank/internal/exam"
	"topikbank/internal/format"
	"topikbank/internal/sheet"
)

func newMapper(paper exam.PaperType, opts Options) Mapper {
	return Mapper{
		Sheet:   "제91회 읽기",
		Paper:   paper,
		Columns: sheet.ResolveColumns(ExportHeaders, sheet.DefaultFields),
		Options: opts,
	}
}

func TestMapRowUsesFormatEntry(t *testing.T) {
	m := newMapper(exam.PaperReading, Options{})
	cells := fullRow(1, "③")
	cells[1] = "ignored instruction"

	q, rowErr := m.MapRow(sheet.Row{Line: 2, Cells: cells})
	if rowErr != nil {
		t.Fatalf("unexpected row error: %v", rowErr)
	}
	entry, _ := format.Lookup(1, exam.PaperReading)
	if q.Instruction != entry.Instruction {
		t.Fatalf("expected entry instruction, got %q", q.Instruction)
	}
	if q.UIType != string(format.UIFillBlank) {
		t.Fatalf("unexpected ui type %q", q.UIType)
	}
	if q.Question != "문제 1" {
		t.Fatalf("slot needing a question should keep the supplied text, got %q", q.Question)
	}
	if q.CorrectAnswer != 2 || q.Score != format.DefaultScore {
		t.Fatalf("unexpected answer/score: %d/%d", q.CorrectAnswer, q.Score)
	}
	if len(q.Options) != exam.OptionCount || q.Options[3] != "1-4" {
		t.Fatalf("unexpected options: %v", q.Options)
	}
	if q.OptionImages != nil {
		t.Fatalf("expected no option images, got %v", q.OptionImages)
	}
}

func TestMapRowFixedQuestionText(t *testing.T) {
	m := newMapper(exam.PaperReading, Options{})
	q, rowErr := m.MapRow(sheet.Row{Line: 2, Cells: fullRow(20, "A")})
	if rowErr != nil {
		t.Fatalf("unexpected row error: %v", rowErr)
	}
	entry, _ := format.Lookup(20, exam.PaperReading)
	if q.Question != entry.Question {
		t.Fatalf("expected fixed question %q, got %q", entry.Question, q.Question)
	}
}

func TestMapRowFixedOptions(t *testing.T) {
	tests := []struct {
		paper  exam.PaperType
		number int
		want   []string
	}{
		{paper: exam.PaperReading, number: 39, want: format.InsertionSymbols},
		{paper: exam.PaperReading, number: 46, want: format.InsertionSymbols},
		{paper: exam.PaperListening, number: 2, want: format.NumberSymbols},
	}
	for _, tc := range tests {
		m := newMapper(tc.paper, Options{})
		q, rowErr := m.MapRow(sheet.Row{Line: 2, Cells: fullRow(tc.number, "㉡")})
		if rowErr != nil {
			t.Fatalf("slot %d: unexpected row error: %v", tc.number, rowErr)
		}
		if strings.Join(q.Options, "") != strings.Join(tc.want, "") {
			t.Fatalf("slot %d: expected fixed options %v, got %v", tc.number, tc.want, q.Options)
		}
	}
}

func TestMapRowErrors(t *testing.T) {
	tests := []struct {
		name   string
		cells  []string
		strict bool
		want   string
	}{
		{
			name:  "missing number",
			cells: row(map[string]string{"선택지1": "a", "선택지2": "b", "선택지3": "c", "선택지4": "d"}),
			want:  "missing question number",
		},
		{
			name:  "zero number",
			cells: fullRow(0, "A"),
			want:  "missing question number",
		},
		{
			name:  "out of range",
			cells: fullRow(51, "A"),
			want:  "between 1 and 50",
		},
		{
			name:  "incomplete options",
			cells: row(map[string]string{"번호": "3", "선택지1": "a", "선택지2": "b", "선택지4": "d"}),
			want:  "options incomplete: option 3 empty",
		},
		{
			name:   "strict unrecognized answer",
			cells:  fullRow(5, "Z"),
			strict: true,
			want:   `unrecognized correct answer "Z"`,
		},
		{
			name:   "strict missing answer",
			cells:  fullRow(5, ""),
			strict: true,
			want:   "correct answer missing",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := newMapper(exam.PaperReading, Options{StrictAnswers: tc.strict})
			_, rowErr := m.MapRow(sheet.Row{Line: 7, Cells: tc.cells})
			if rowErr == nil {
				t.Fatal("expected row error")
			}
			if rowErr.Line != 7 || rowErr.Sheet != "제91회 읽기" {
				t.Fatalf("unexpected location: %+v", rowErr)
			}
			if !strings.Contains(rowErr.Message, tc.want) {
				t.Fatalf("expected message containing %q, got %q", tc.want, rowErr.Message)
			}
		})
	}
}

func TestMapRowLenientAnswerDefaultsToFirstOption(t *testing.T) {
	m := newMapper(exam.PaperReading, Options{})
	q, rowErr := m.MapRow(sheet.Row{Line: 2, Cells: fullRow(5, "Z")})
	if rowErr != nil {
		t.Fatalf("unexpected row error: %v", rowErr)
	}
	if q.CorrectAnswer != 0 {
		t.Fatalf("expected index 0, got %d", q.CorrectAnswer)
	}
}

func TestMapRowOptionImagesAndGroupCount(t *testing.T) {
	m := newMapper(exam.PaperListening, Options{})
	cells := fullRow(1, "1")
	cells[13] = "https://cdn.example/q1-1.png"

	q, rowErr := m.MapRow(sheet.Row{Line: 2, Cells: cells})
	if rowErr != nil {
		t.Fatalf("unexpected row error: %v", rowErr)
	}
	if len(q.OptionImages) != exam.OptionCount || q.OptionImages[0] != "https://cdn.example/q1-1.png" || q.OptionImages[1] != "" {
		t.Fatalf("unexpected option images: %v", q.OptionImages)
	}

	rm := newMapper(exam.PaperReading, Options{})
	g, rowErr := rm.MapRow(sheet.Row{Line: 3, Cells: fullRow(48, "A")})
	if rowErr != nil {
		t.Fatalf("unexpected row error: %v", rowErr)
	}
	if g.GroupCount != 3 {
		t.Fatalf("expected group start 48 to default to group count 3, got %d", g.GroupCount)
	}
	member, _ := rm.MapRow(sheet.Row{Line: 4, Cells: fullRow(49, "A")})
	if member.GroupCount != 0 {
		t.Fatalf("group member should not carry a group count, got %d", member.GroupCount)
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in     string
		want   int
		wantOK bool
	}{
		{"7", 7, true},
		{"7.0", 7, true},
		{"Q7", 7, true},
		{"7번", 7, true},
		{"-3", -3, true},
		{"7.5", 0, false},
		{"", 0, false},
		{"abc", 0, false},
	}
	for _, tc := range tests {
		got, ok := parseNumber(tc.in)
		if got != tc.want || ok != tc.wantOK {
			t.Fatalf("parseNumber(%q) = (%d, %v), want (%d, %v)", tc.in, got, ok, tc.want, tc.wantOK)
		}
	}
}

func TestApplyFormatFollowsCurrentPaper(t *testing.T) {
	m := newMapper(exam.PaperReading, Options{})
	q, rowErr := m.MapRow(sheet.Row{Line: 2, Cells: fullRow(1, "③")})
	if rowErr != nil {
		t.Fatalf("unexpected row error: %v", rowErr)
	}

	unchanged := exam.Exam{PaperType: exam.PaperReading, Questions: []exam.Question{q.Clone()}}
	ApplyFormat(&unchanged)
	if unchanged.Questions[0].Question != "문제 1" || unchanged.Questions[0].Options[0] != q.Options[0] {
		t.Fatalf("same paper should keep mapped question, got %+v", unchanged.Questions[0])
	}

	switched := exam.Exam{PaperType: exam.PaperListening, Questions: []exam.Question{q.Clone()}}
	ApplyFormat(&switched)
	got := switched.Questions[0]
	entry, _ := format.Lookup(1, exam.PaperListening)
	if got.Instruction != entry.Instruction || got.UIType != string(format.UIListenPicture) {
		t.Fatalf("expected listening format, got %q / %q", got.UIType, got.Instruction)
	}
	if strings.Join(got.Options, "") != strings.Join(format.NumberSymbols, "") {
		t.Fatalf("expected fixed listening options, got %v", got.Options)
	}
	if got.Question != entry.Question {
		t.Fatalf("slot without a question should take the canned text, got %q", got.Question)
	}
	if got.CorrectAnswer != q.CorrectAnswer {
		t.Fatalf("answer must survive re-formatting: %d", got.CorrectAnswer)
	}
}
