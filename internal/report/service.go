// Package report summarises how complete a stored exam is against the official slot format.
package report

import (
	"context"

	"topikbank/internal/exam"
	"topikbank/internal/format"
)

type examLoader interface {
	GetExam(ctx context.Context, id string) (*exam.Exam, error)
}

type Service struct {
	exams examLoader
}

// Gap names one input a slot requires but the stored question lacks.
type Gap struct {
	Number int    `json:"number"`
	Field  string `json:"field"`
}

type ExamSummary struct {
	ExamID             string         `json:"exam_id"`
	Title              string         `json:"title"`
	PaperType          exam.PaperType `json:"paper_type"`
	QuestionCount      int            `json:"question_count"`
	TotalScore         int            `json:"total_score"`
	MissingSlots       []int          `json:"missing_slots"`
	Gaps               []Gap          `json:"gaps"`
	AnswerDistribution [4]int         `json:"answer_distribution"`
	MissingAudio       bool           `json:"missing_audio,omitempty"`
	Complete           bool           `json:"complete"`
}

func NewService(exams examLoader) *Service {
	return &Service{exams: exams}
}

func (s *Service) SummaryByExam(ctx context.Context, examID string) (*ExamSummary, error) {
	e, err := s.exams.GetExam(ctx, examID)
	if err != nil {
		return nil, err
	}
	out := Summarize(*e)
	return &out, nil
}

// Summarize checks every slot of the exam's paper. Slots of an unknown paper are not checked.
func Summarize(e exam.Exam) ExamSummary {
	out := ExamSummary{
		ExamID:        e.ID,
		Title:         e.Title,
		PaperType:     e.PaperType,
		QuestionCount: len(e.Questions),
		MissingSlots:  []int{},
		Gaps:          []Gap{},
	}
	for _, q := range e.Questions {
		out.TotalScore += q.Score
		if q.CorrectAnswer >= 0 && q.CorrectAnswer < len(out.AnswerDistribution) {
			out.AnswerDistribution[q.CorrectAnswer]++
		}
	}

	for _, entry := range format.Table(e.PaperType) {
		i := e.QuestionIndex(entry.Number)
		if i < 0 {
			out.MissingSlots = append(out.MissingSlots, entry.Number)
			continue
		}
		out.Gaps = append(out.Gaps, slotGaps(entry, e.Questions[i])...)
	}

	out.MissingAudio = e.PaperType == exam.PaperListening && e.AudioURL == ""
	out.Complete = len(out.MissingSlots) == 0 && len(out.Gaps) == 0 && !out.MissingAudio
	return out
}

func slotGaps(entry format.Entry, q exam.Question) []Gap {
	var gaps []Gap
	add := func(field string) { gaps = append(gaps, Gap{Number: entry.Number, Field: field}) }

	if entry.NeedsQuestion && q.Question == "" {
		add("question")
	}
	if entry.NeedsPassage && q.Passage == "" {
		add("passage")
	}
	if entry.NeedsContextBox && q.ContextBox == "" {
		add("context_box")
	}
	if entry.NeedsImage && q.Image == "" {
		add("image")
	}
	if entry.NeedsOptionImages {
		for i := 0; i < exam.OptionCount; i++ {
			if i >= len(q.OptionImages) || q.OptionImages[i] == "" {
				add("option_images")
				break
			}
		}
	}
	return gaps
}
