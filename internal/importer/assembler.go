package importer

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"topikbank/internal/exam"
	"topikbank/internal/sheet"
)

// SheetResult is the preview of one worksheet: a draft exam plus the rows that were left out.
type SheetResult struct {
	Sheet   string     `json:"sheet"`
	Exam    exam.Exam  `json:"exam"`
	Errors  []RowError `json:"errors"`
	Warning string     `json:"warning,omitempty"`
}

// RejectedSheet is a worksheet that produced no valid question.
type RejectedSheet struct {
	Sheet  string     `json:"sheet"`
	Reason string     `json:"reason"`
	Errors []RowError `json:"errors,omitempty"`
}

// Batch is everything a workbook yielded. Nothing in it has been persisted.
type Batch struct {
	Exams    []SheetResult   `json:"exams"`
	Skipped  []string        `json:"skipped"`
	Rejected []RejectedSheet `json:"rejected"`
}

func (b Batch) QuestionCount() int {
	n := 0
	for _, r := range b.Exams {
		n += len(r.Exam.Questions)
	}
	return n
}

func (b Batch) ErrorCount() int {
	n := 0
	for _, r := range b.Exams {
		n += len(r.Errors)
	}
	for _, r := range b.Rejected {
		n += len(r.Errors)
	}
	return n
}

type Assembler struct {
	opts   Options
	logger *zap.Logger
	now    func() time.Time
	newID  func() string
}

func NewAssembler(opts Options, logger *zap.Logger) *Assembler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assembler{
		opts:   opts,
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Assemble turns every worksheet of wb into a draft exam. Documentation sheets are
// skipped, sheets without a single valid row are rejected, and row errors are collected
// per sheet without aborting the others.
func (a *Assembler) Assemble(wb *sheet.Workbook) Batch {
	batch := Batch{
		Exams:    []SheetResult{},
		Skipped:  []string{},
		Rejected: []RejectedSheet{},
	}
	if wb == nil {
		return batch
	}
	for _, s := range wb.Sheets {
		if sheet.IsExcluded(s.Name) {
			batch.Skipped = append(batch.Skipped, s.Name)
			continue
		}
		res, reject := a.AssembleSheet(s)
		if reject != nil {
			batch.Rejected = append(batch.Rejected, *reject)
			continue
		}
		batch.Exams = append(batch.Exams, res)
	}

	a.logger.Info("workbook assembled",
		zap.Int("exams", len(batch.Exams)),
		zap.Int("skipped", len(batch.Skipped)),
		zap.Int("rejected", len(batch.Rejected)),
		zap.Int("questions", batch.QuestionCount()),
		zap.Int("row_errors", batch.ErrorCount()),
	)
	return batch
}

// AssembleSheet maps one worksheet. Exactly one of the results is meaningful: a
// non-nil RejectedSheet means the sheet yielded no question.
func (a *Assembler) AssembleSheet(s sheet.Sheet) (SheetResult, *RejectedSheet) {
	md := sheet.ResolveMetadata(s.Name)
	paper := md.Paper
	if !paper.Valid() {
		paper = exam.PaperReading
	}

	cols := sheet.ResolveColumns(s.Header(), sheet.DefaultFields)
	if !cols.Has(sheet.FieldNumber) {
		return SheetResult{}, &RejectedSheet{Sheet: s.Name, Reason: "question number column not found"}
	}

	m := Mapper{Sheet: s.Name, Paper: paper, Columns: cols, Options: a.opts}
	questions := make([]exam.Question, 0, exam.SlotCount)
	errs := []RowError{}
	seen := make(map[int]int, exam.SlotCount)
	for _, row := range s.DataRows() {
		q, rowErr := m.MapRow(row)
		if rowErr != nil {
			errs = append(errs, *rowErr)
			continue
		}
		if first, dup := seen[q.Number]; dup {
			errs = append(errs, RowError{
				Sheet:   s.Name,
				Line:    row.Line,
				Number:  q.Number,
				Message: fmt.Sprintf("duplicate question number, first defined on row %d", first),
			})
			continue
		}
		seen[q.Number] = row.Line
		questions = append(questions, q)
	}

	if len(questions) == 0 {
		a.logger.Warn("sheet rejected", zap.String("sheet", s.Name), zap.Int("row_errors", len(errs)))
		return SheetResult{}, &RejectedSheet{Sheet: s.Name, Reason: "no valid questions", Errors: errs}
	}

	title := md.Title
	if title == "" {
		title = s.Name
	}
	now := a.now().UTC()
	e := exam.Exam{
		ID:               a.newID(),
		Title:            title,
		Round:            md.Round,
		PaperType:        paper,
		Variant:          md.Variant,
		TimeLimitMinutes: exam.DefaultTimeLimit(paper),
		Questions:        questions,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	e.SortQuestions()

	if md.Warning != "" {
		a.logger.Warn("sheet metadata incomplete", zap.String("sheet", s.Name), zap.String("warning", md.Warning))
	}
	return SheetResult{Sheet: s.Name, Exam: e, Errors: errs, Warning: md.Warning}, nil
}
