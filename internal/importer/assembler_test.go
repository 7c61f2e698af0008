package importer

import (
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"topikbank/internal/exam"
	"topikbank/internal/sheet"
)

func newTestAssembler(opts Options) *Assembler {
	a := NewAssembler(opts, zap.NewNop())
	a.now = func() time.Time { return time.Date(2025, 10, 19, 0, 0, 0, 0, time.UTC) }
	n := 0
	a.newID = func() string {
		n++
		return "exam-" + string(rune('0'+n))
	}
	return a
}

func TestAssembleWorkbookEndToEnd(t *testing.T) {
	readme := sheet.Sheet{Name: "README", Rows: [][]string{{"이 파일 사용법"}, {"..."}}}
	reading := paperSheet("제91회 읽기 A형", slots(1, 50)...)
	data := xlsxBytes(t, readme, reading)

	batch := newTestAssembler(Options{}).Assemble(readXLSX(t, data))

	if len(batch.Skipped) != 1 || batch.Skipped[0] != "README" {
		t.Fatalf("expected README skipped, got %v", batch.Skipped)
	}
	if len(batch.Rejected) != 0 {
		t.Fatalf("unexpected rejected sheets: %+v", batch.Rejected)
	}
	if len(batch.Exams) != 1 {
		t.Fatalf("expected one exam, got %d", len(batch.Exams))
	}

	res := batch.Exams[0]
	if len(res.Errors) != 0 {
		t.Fatalf("unexpected row errors: %+v", res.Errors)
	}
	e := res.Exam
	if e.Title != "TOPIK II 제91회 읽기 A형" || e.Round != 91 || e.Variant != "A" {
		t.Fatalf("unexpected metadata: %+v", e)
	}
	if e.PaperType != exam.PaperReading || e.TimeLimitMinutes != exam.DefaultReadingMinutes {
		t.Fatalf("unexpected paper/time limit: %s/%d", e.PaperType, e.TimeLimitMinutes)
	}
	if len(e.Questions) != exam.SlotCount {
		t.Fatalf("expected 50 questions, got %d", len(e.Questions))
	}
	for i, q := range e.Questions {
		if q.Number != i+1 {
			t.Fatalf("questions not sorted: index %d holds %d", i, q.Number)
		}
		if q.CorrectAnswer != 1 {
			t.Fatalf("question %d: expected answer index 1, got %d", q.Number, q.CorrectAnswer)
		}
	}
	if strings.Join(e.Questions[38].Options, "") != "㉠㉡㉢㉣" {
		t.Fatalf("slot 39 should carry insertion symbols, got %v", e.Questions[38].Options)
	}
	if batch.QuestionCount() != 50 || batch.ErrorCount() != 0 {
		t.Fatalf("unexpected counts: %d/%d", batch.QuestionCount(), batch.ErrorCount())
	}
}

func TestAssembleCollectsRowErrorsPerSheet(t *testing.T) {
	listening := paperSheet("91회 듣기", 1, 2, 2, 60)
	broken := paperSheet("92회 읽기")
	broken.Rows = append(broken.Rows, row(map[string]string{"번호": "1", "선택지1": "only one"}))

	wb := &sheet.Workbook{Sheets: []sheet.Sheet{listening, broken}}
	batch := newTestAssembler(Options{}).Assemble(wb)

	if len(batch.Exams) != 1 {
		t.Fatalf("expected one exam, got %d", len(batch.Exams))
	}
	res := batch.Exams[0]
	if len(res.Exam.Questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(res.Exam.Questions))
	}
	if len(res.Errors) != 2 {
		t.Fatalf("expected duplicate and out-of-range errors, got %+v", res.Errors)
	}
	if res.Errors[0].Line != 4 || !strings.Contains(res.Errors[0].Message, "duplicate") {
		t.Fatalf("unexpected duplicate error: %+v", res.Errors[0])
	}
	if res.Errors[1].Number != 60 {
		t.Fatalf("unexpected range error: %+v", res.Errors[1])
	}

	if len(batch.Rejected) != 1 || batch.Rejected[0].Sheet != "92회 읽기" {
		t.Fatalf("expected broken sheet rejected, got %+v", batch.Rejected)
	}
	if batch.ErrorCount() != 3 {
		t.Fatalf("expected 3 row errors overall, got %d", batch.ErrorCount())
	}
}

func TestAssembleUnknownPaperDefaultsToReading(t *testing.T) {
	a := newTestAssembler(Options{})
	res, reject := a.AssembleSheet(paperSheet("Sheet1", 1, 2))
	if reject != nil {
		t.Fatalf("unexpected rejection: %+v", reject)
	}
	if res.Exam.PaperType != exam.PaperReading {
		t.Fatalf("expected reading fallback, got %q", res.Exam.PaperType)
	}
	if res.Warning == "" {
		t.Fatal("expected metadata warning")
	}
	if res.Exam.Title != "Sheet1" {
		t.Fatalf("expected sheet name as title, got %q", res.Exam.Title)
	}
}

func TestAssembleRejectsSheetWithoutNumberColumn(t *testing.T) {
	a := newTestAssembler(Options{})
	_, reject := a.AssembleSheet(sheet.Sheet{Name: "91회 읽기", Rows: [][]string{{"foo", "bar"}, {"1", "2"}}})
	if reject == nil || !strings.Contains(reject.Reason, "number column") {
		t.Fatalf("expected rejection for missing number column, got %+v", reject)
	}
}

func TestAssembleNilWorkbook(t *testing.T) {
	batch := newTestAssembler(Options{}).Assemble(nil)
	if len(batch.Exams) != 0 || batch.Skipped == nil || batch.Rejected == nil {
		t.Fatalf("unexpected batch: %+v", batch)
	}
}
