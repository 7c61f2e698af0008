package importer

import (
	"sort"
	"strconv"

	"topikbank/internal/exam"
	"topikbank/internal/format"
	"topikbank/internal/sheet"
)

// Patch carries the fields of one slot to overwrite. A nil field leaves the stored value
// as it is. Images and audio are never part of a patch.
type Patch struct {
	Number        int
	Instruction   *string
	Question      *string
	Passage       *string
	ContextBox    *string
	Options       [exam.OptionCount]*string
	CorrectAnswer *int
	Score         *int
	Explanation   *string
}

func (p Patch) empty() bool {
	for _, o := range p.Options {
		if o != nil {
			return false
		}
	}
	return p.Instruction == nil && p.Question == nil && p.Passage == nil && p.ContextBox == nil &&
		p.CorrectAnswer == nil && p.Score == nil && p.Explanation == nil
}

// Apply returns q with the present fields of p written over it and whether anything
// actually changed. Option patches are skipped when fixedOptions is set.
func (p Patch) Apply(q exam.Question, fixedOptions bool) (exam.Question, bool) {
	out := q.Clone()
	changed := false
	setString := func(dst *string, v *string) {
		if v != nil && *dst != *v {
			*dst = *v
			changed = true
		}
	}
	setInt := func(dst *int, v *int) {
		if v != nil && *dst != *v {
			*dst = *v
			changed = true
		}
	}

	setString(&out.Instruction, p.Instruction)
	setString(&out.Question, p.Question)
	setString(&out.Passage, p.Passage)
	setString(&out.ContextBox, p.ContextBox)
	setString(&out.Explanation, p.Explanation)
	setInt(&out.CorrectAnswer, p.CorrectAnswer)
	setInt(&out.Score, p.Score)

	if !fixedOptions {
		for len(out.Options) < exam.OptionCount {
			out.Options = append(out.Options, "")
		}
		for i, o := range p.Options {
			setString(&out.Options[i], o)
		}
	}
	return out, changed
}

type MergeReport struct {
	Changed        int   `json:"changed"`
	ChangedNumbers []int `json:"changed_numbers"`
	Missing        []int `json:"missing"`
}

// Merge applies patches to a copy of e; e itself is not modified. Patches addressing a slot
// the exam does not have are reported as missing. Applying the same patches twice yields
// the same exam and a zero change count the second time.
func Merge(e exam.Exam, patches []Patch) (exam.Exam, MergeReport) {
	out := e.Clone()
	report := MergeReport{ChangedNumbers: []int{}, Missing: []int{}}
	changed := map[int]bool{}
	missing := map[int]bool{}

	for _, p := range patches {
		idx := out.QuestionIndex(p.Number)
		if idx < 0 {
			if !missing[p.Number] {
				missing[p.Number] = true
				report.Missing = append(report.Missing, p.Number)
			}
			continue
		}
		entry, _ := format.Lookup(p.Number, out.PaperType)
		q, ok := p.Apply(out.Questions[idx], entry.HasFixedOptions())
		if !ok {
			continue
		}
		out.Questions[idx] = q
		changed[p.Number] = true
	}

	for n := range changed {
		report.ChangedNumbers = append(report.ChangedNumbers, n)
	}
	sort.Ints(report.ChangedNumbers)
	sort.Ints(report.Missing)
	report.Changed = len(report.ChangedNumbers)
	return out, report
}

// PatchesFromSheet reads a sparse correction worksheet. Only non-empty cells in resolved
// columns become patch fields; rows with nothing to change are dropped.
func PatchesFromSheet(s sheet.Sheet, opts Options) ([]Patch, []RowError) {
	cols := sheet.ResolveColumns(s.Header(), sheet.DefaultFields)
	if !cols.Has(sheet.FieldNumber) {
		return nil, []RowError{{Sheet: s.Name, Line: 1, Message: "question number column not found"}}
	}

	var (
		patches []Patch
		errs    []RowError
	)
	for _, row := range s.DataRows() {
		fail := func(number int, msg string) {
			errs = append(errs, RowError{Sheet: s.Name, Line: row.Line, Number: number, Message: msg})
		}
		number, ok := parseNumber(cols.Value(row, sheet.FieldNumber))
		if !ok || number <= 0 || number > exam.SlotCount {
			fail(number, "question number must be between 1 and "+strconv.Itoa(exam.SlotCount))
			continue
		}

		cell := func(f sheet.Field) *string {
			v := cols.Value(row, f)
			if v == "" {
				return nil
			}
			return &v
		}
		p := Patch{
			Number:      number,
			Instruction: cell(sheet.FieldInstruction),
			Question:    cell(sheet.FieldQuestion),
			Passage:     cell(sheet.FieldPassage),
			ContextBox:  cell(sheet.FieldContextBox),
			Explanation: cell(sheet.FieldExplanation),
		}
		for i, f := range sheet.OptionFields {
			p.Options[i] = cell(f)
		}

		if raw := cell(sheet.FieldAnswer); raw != nil {
			idx, ok := NormalizeAnswer(*raw)
			if !ok && opts.StrictAnswers {
				fail(number, "unrecognized correct answer "+strconv.Quote(*raw))
				continue
			}
			p.CorrectAnswer = &idx
		}
		if raw := cell(sheet.FieldScore); raw != nil {
			score, ok := parseNumber(*raw)
			if !ok || score < 0 {
				fail(number, "invalid score "+strconv.Quote(*raw))
				continue
			}
			p.Score = &score
		}

		if p.empty() {
			continue
		}
		patches = append(patches, p)
	}
	return patches, errs
}
