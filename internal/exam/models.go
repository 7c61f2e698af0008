package exam

import (
	"sort"
	"strings"
	"time"
)

// PaperType identifies which 50-slot paper an exam belongs to.
type PaperType string

const (
	PaperUnknown   PaperType = ""
	PaperReading   PaperType = "reading"
	PaperListening PaperType = "listening"
)

// SlotCount is the number of fixed question slots on every paper.
const SlotCount = 50

// OptionCount is the number of answer options on every question.
const OptionCount = 4

const (
	DefaultReadingMinutes   = 70
	DefaultListeningMinutes = 60
)

func ParsePaperType(v string) PaperType {
	switch strings.TrimSpace(strings.ToLower(v)) {
	case "reading", "read", "읽기", "阅读":
		return PaperReading
	case "listening", "listen", "듣기", "听力":
		return PaperListening
	default:
		return PaperUnknown
	}
}

func (p PaperType) Valid() bool {
	return p == PaperReading || p == PaperListening
}

// Label returns the Korean paper name used in synthesized titles.
func (p PaperType) Label() string {
	switch p {
	case PaperReading:
		return "읽기"
	case PaperListening:
		return "듣기"
	default:
		return ""
	}
}

func DefaultTimeLimit(p PaperType) int {
	if p == PaperListening {
		return DefaultListeningMinutes
	}
	return DefaultReadingMinutes
}

type Question struct {
	Number        int      `json:"number"`
	UIType        string   `json:"ui_type,omitempty"`
	Instruction   string   `json:"instruction"`
	Question      string   `json:"question"`
	Passage       string   `json:"passage,omitempty"`
	ContextBox    string   `json:"context_box,omitempty"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correct_answer"`
	Score         int      `json:"score"`
	Image         string   `json:"image,omitempty"`
	OptionImages  []string `json:"option_images,omitempty"`
	Explanation   string   `json:"explanation,omitempty"`
	Layout        string   `json:"layout,omitempty"`
	GroupCount    int      `json:"group_count,omitempty"`
}

type Exam struct {
	ID               string     `json:"id"`
	Title            string     `json:"title"`
	Round            int        `json:"round"`
	PaperType        PaperType  `json:"paper_type"`
	Variant          string     `json:"variant,omitempty"`
	TimeLimitMinutes int        `json:"time_limit_minutes"`
	AudioURL         string     `json:"audio_url,omitempty"`
	IsPaid           bool       `json:"is_paid"`
	Questions        []Question `json:"questions"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

type ExamSummary struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Round            int       `json:"round"`
	PaperType        PaperType `json:"paper_type"`
	Variant          string    `json:"variant,omitempty"`
	TimeLimitMinutes int       `json:"time_limit_minutes"`
	IsPaid           bool      `json:"is_paid"`
	QuestionCount    int       `json:"question_count"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type ExamPage struct {
	Items    []ExamSummary `json:"items"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
	Total    int           `json:"total"`
}

// Clone returns a deep copy; slices are never shared with the receiver.
func (q Question) Clone() Question {
	out := q
	out.Options = append([]string(nil), q.Options...)
	if q.OptionImages != nil {
		out.OptionImages = append([]string(nil), q.OptionImages...)
	}
	return out
}

func (e Exam) Clone() Exam {
	out := e
	if e.Questions != nil {
		out.Questions = make([]Question, len(e.Questions))
		for i, q := range e.Questions {
			out.Questions[i] = q.Clone()
		}
	}
	return out
}

// QuestionIndex returns the index of the question occupying slot n, or -1.
func (e Exam) QuestionIndex(n int) int {
	for i := range e.Questions {
		if e.Questions[i].Number == n {
			return i
		}
	}
	return -1
}

func (e *Exam) SortQuestions() {
	sort.SliceStable(e.Questions, func(i, j int) bool {
		return e.Questions[i].Number < e.Questions[j].Number
	})
}

func (e Exam) Summary() ExamSummary {
	return ExamSummary{
		ID:               e.ID,
		Title:            e.Title,
		Round:            e.Round,
		PaperType:        e.PaperType,
		Variant:          e.Variant,
		TimeLimitMinutes: e.TimeLimitMinutes,
		IsPaid:           e.IsPaid,
		QuestionCount:    len(e.Questions),
		UpdatedAt:        e.UpdatedAt,
	}
}
