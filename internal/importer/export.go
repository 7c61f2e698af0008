package importer

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"topikbank/internal/exam"
	"topikbank/internal/format"
	"topikbank/internal/sheet"
)

// ExportHeaders are written in this order and resolve back to the same fields on import.
var ExportHeaders = []string{
	"번호", "지시문", "문제", "지문", "보기",
	"선택지1", "선택지2", "선택지3", "선택지4",
	"정답", "배점", "해설", "이미지",
	"선택지1 이미지", "선택지2 이미지", "선택지3 이미지", "선택지4 이미지",
	"레이아웃", "그룹 수",
}

var answerLetters = []string{"A", "B", "C", "D"}

const maxSheetNameLen = 31

// WriteWorkbook writes one worksheet per exam. Re-importing the output yields the same
// questions.
func WriteWorkbook(w io.Writer, exams ...exam.Exam) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	first := f.GetSheetName(0)
	used := map[string]bool{}
	for i, e := range exams {
		name := uniqueSheetName(sheetNameFor(e), used)
		if i == 0 {
			if err := f.SetSheetName(first, name); err != nil {
				return fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("add sheet %q: %w", name, err)
		}
		if err := writeHeader(f, name); err != nil {
			return err
		}
		sorted := e.Clone()
		sorted.SortQuestions()
		for r, q := range sorted.Questions {
			if err := writeRow(f, name, r+2, questionCells(q)); err != nil {
				return err
			}
		}
	}
	if len(exams) == 0 {
		if err := writeHeader(f, first); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write excel: %w", err)
	}
	return nil
}

// WriteTemplate writes a blank paper with every slot's number, instruction and any fixed
// question text or option symbols already filled in.
func WriteTemplate(w io.Writer, paper exam.PaperType, round int) error {
	entries := format.Table(paper)
	if entries == nil {
		return fmt.Errorf("unknown paper type %q", paper)
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	name := "TOPIK II " + paper.Label()
	if round > 0 {
		name = sheet.Title(round, paper, "")
	}
	if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeHeader(f, name); err != nil {
		return err
	}
	for r, e := range entries {
		cells := make([]any, len(ExportHeaders))
		cells[0] = e.Number
		cells[1] = e.Instruction
		cells[2] = e.Question
		for i, o := range e.FixedOptions {
			cells[5+i] = o
		}
		cells[10] = e.Score
		if e.IsGroupStart() && e.GroupSize > 1 {
			cells[18] = e.GroupSize
		}
		if err := writeRow(f, name, r+2, cells); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write excel: %w", err)
	}
	return nil
}

func questionCells(q exam.Question) []any {
	cells := make([]any, len(ExportHeaders))
	cells[0] = q.Number
	cells[1] = q.Instruction
	cells[2] = q.Question
	cells[3] = q.Passage
	cells[4] = q.ContextBox
	for i := 0; i < exam.OptionCount && i < len(q.Options); i++ {
		cells[5+i] = q.Options[i]
	}
	if q.CorrectAnswer >= 0 && q.CorrectAnswer < len(answerLetters) {
		cells[9] = answerLetters[q.CorrectAnswer]
	}
	cells[10] = q.Score
	cells[11] = q.Explanation
	cells[12] = q.Image
	for i := 0; i < exam.OptionCount && i < len(q.OptionImages); i++ {
		cells[13+i] = q.OptionImages[i]
	}
	cells[17] = q.Layout
	if q.GroupCount > 0 {
		cells[18] = q.GroupCount
	}
	return cells
}

func writeHeader(f *excelize.File, name string) error {
	cells := make([]any, len(ExportHeaders))
	for i, h := range ExportHeaders {
		cells[i] = h
	}
	if err := writeRow(f, name, 1, cells); err != nil {
		return err
	}
	_ = f.SetColWidth(name, "A", "A", 8)
	_ = f.SetColWidth(name, "B", "S", 24)
	return nil
}

func writeRow(f *excelize.File, name string, row int, cells []any) error {
	for col, v := range cells {
		if v == nil || v == "" {
			continue
		}
		cell, _ := excelize.CoordinatesToCellName(col+1, row)
		if err := f.SetCellValue(name, cell, v); err != nil {
			return fmt.Errorf("write %s!%s: %w", name, cell, err)
		}
	}
	return nil
}

func sheetNameFor(e exam.Exam) string {
	name := e.Title
	if name == "" && e.Round > 0 && e.PaperType.Valid() {
		name = sheet.Title(e.Round, e.PaperType, e.Variant)
	}
	name = strings.Map(func(r rune) rune {
		switch r {
		case '[', ']', ':', '*', '?', '/', '\\':
			return ' '
		}
		return r
	}, name)
	name = strings.Trim(strings.Join(strings.Fields(name), " "), "'")
	if name == "" {
		name = "Exam"
	}
	return truncateRunes(name, maxSheetNameLen)
}

func uniqueSheetName(name string, used map[string]bool) string {
	candidate := name
	for i := 2; used[strings.ToLower(candidate)]; i++ {
		suffix := fmt.Sprintf(" (%d)", i)
		candidate = truncateRunes(name, maxSheetNameLen-utf8.RuneCountInString(suffix)) + suffix
	}
	used[strings.ToLower(candidate)] = true
	return candidate
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
