package exam

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrExamNotFound = errors.New("exam not found")
	ErrInvalidInput = errors.New("invalid input")
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type Service struct {
	db    *sql.DB
	now   func() time.Time
	newID func() string
}

type CreateExamInput struct {
	Title            string    `json:"title"`
	Round            int       `json:"round"`
	PaperType        PaperType `json:"paper_type"`
	Variant          string    `json:"variant"`
	TimeLimitMinutes int       `json:"time_limit_minutes"`
	AudioURL         string    `json:"audio_url"`
	IsPaid           bool      `json:"is_paid"`
}

// SaveError records one exam of a batch that could not be stored.
type SaveError struct {
	Index  int    `json:"index"`
	ExamID string `json:"exam_id,omitempty"`
	Title  string `json:"title,omitempty"`
	Error  string `json:"error"`
}

type SaveReport struct {
	Saved  int         `json:"saved"`
	Failed int         `json:"failed"`
	IDs    []string    `json:"ids"`
	Errors []SaveError `json:"errors"`
}

func NewService(db *sql.DB) *Service {
	return &Service{
		db:    db,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// Validate checks the invariants every stored exam satisfies.
func Validate(e *Exam) error {
	if e == nil {
		return fmt.Errorf("%w: exam is required", ErrInvalidInput)
	}
	if strings.TrimSpace(e.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if !e.PaperType.Valid() {
		return fmt.Errorf("%w: paper_type must be reading or listening", ErrInvalidInput)
	}
	if e.Round < 0 {
		return fmt.Errorf("%w: round must not be negative", ErrInvalidInput)
	}
	if e.TimeLimitMinutes < 0 {
		return fmt.Errorf("%w: time_limit_minutes must not be negative", ErrInvalidInput)
	}
	seen := make(map[int]bool, len(e.Questions))
	for _, q := range e.Questions {
		if q.Number < 1 || q.Number > SlotCount {
			return fmt.Errorf("%w: question number %d out of range", ErrInvalidInput, q.Number)
		}
		if seen[q.Number] {
			return fmt.Errorf("%w: duplicate question number %d", ErrInvalidInput, q.Number)
		}
		seen[q.Number] = true
		if len(q.Options) != OptionCount {
			return fmt.Errorf("%w: question %d must have %d options", ErrInvalidInput, q.Number, OptionCount)
		}
		if q.CorrectAnswer < 0 || q.CorrectAnswer >= OptionCount {
			return fmt.Errorf("%w: question %d correct_answer out of range", ErrInvalidInput, q.Number)
		}
		if q.OptionImages != nil && len(q.OptionImages) != OptionCount {
			return fmt.Errorf("%w: question %d must have %d option images", ErrInvalidInput, q.Number, OptionCount)
		}
	}
	return nil
}

func (s *Service) CreateExam(ctx context.Context, in CreateExamInput) (*Exam, error) {
	e := &Exam{
		Title:            strings.TrimSpace(in.Title),
		Round:            in.Round,
		PaperType:        in.PaperType,
		Variant:          strings.TrimSpace(in.Variant),
		TimeLimitMinutes: in.TimeLimitMinutes,
		AudioURL:         strings.TrimSpace(in.AudioURL),
		IsPaid:           in.IsPaid,
		Questions:        []Question{},
	}
	if e.TimeLimitMinutes == 0 {
		e.TimeLimitMinutes = DefaultTimeLimit(e.PaperType)
	}
	if err := s.SaveExam(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// SaveExam upserts the whole record. A missing id is generated; created_at of an existing
// row is preserved.
func (s *Service) SaveExam(ctx context.Context, e *Exam) error {
	if err := Validate(e); err != nil {
		return err
	}
	if strings.TrimSpace(e.ID) == "" {
		e.ID = s.newID()
	}
	if e.TimeLimitMinutes == 0 {
		e.TimeLimitMinutes = DefaultTimeLimit(e.PaperType)
	}
	if e.Questions == nil {
		e.Questions = []Question{}
	}
	e.SortQuestions()

	now := s.now().UTC().Truncate(time.Millisecond)
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.UpdatedAt = now

	payload, err := json.Marshal(e.Questions)
	if err != nil {
		return fmt.Errorf("encode questions: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO exams (
			id, title, round_no, paper_type, variant, time_limit_minutes,
			audio_url, is_paid, question_count, questions_json, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			title = excluded.title,
			round_no = excluded.round_no,
			paper_type = excluded.paper_type,
			variant = excluded.variant,
			time_limit_minutes = excluded.time_limit_minutes,
			audio_url = excluded.audio_url,
			is_paid = excluded.is_paid,
			question_count = excluded.question_count,
			questions_json = excluded.questions_json,
			updated_at = excluded.updated_at
	`,
		e.ID, e.Title, e.Round, string(e.PaperType), e.Variant, e.TimeLimitMinutes,
		e.AudioURL, e.IsPaid, len(e.Questions), string(payload),
		e.CreatedAt.UnixMilli(), e.UpdatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("save exam: %w", err)
	}
	return nil
}

// SaveAll stores each exam independently; one failure does not stop the others.
func (s *Service) SaveAll(ctx context.Context, exams []Exam) SaveReport {
	report := SaveReport{IDs: []string{}, Errors: []SaveError{}}
	for i := range exams {
		e := exams[i].Clone()
		if err := s.SaveExam(ctx, &e); err != nil {
			report.Failed++
			report.Errors = append(report.Errors, SaveError{
				Index:  i,
				ExamID: e.ID,
				Title:  e.Title,
				Error:  err.Error(),
			})
			continue
		}
		report.Saved++
		report.IDs = append(report.IDs, e.ID)
	}
	return report
}

func (s *Service) GetExam(ctx context.Context, id string) (*Exam, error) {
	var (
		e         Exam
		paper     string
		payload   string
		createdAt int64
		updatedAt int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, title, round_no, paper_type, variant, time_limit_minutes,
			audio_url, is_paid, questions_json, created_at, updated_at
		FROM exams
		WHERE id = $1
	`, strings.TrimSpace(id)).Scan(
		&e.ID, &e.Title, &e.Round, &paper, &e.Variant, &e.TimeLimitMinutes,
		&e.AudioURL, &e.IsPaid, &payload, &createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrExamNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get exam: %w", err)
	}
	e.PaperType = PaperType(paper)
	e.CreatedAt = time.UnixMilli(createdAt).UTC()
	e.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	if err := json.Unmarshal([]byte(payload), &e.Questions); err != nil {
		return nil, fmt.Errorf("decode questions of exam %s: %w", e.ID, err)
	}
	if e.Questions == nil {
		e.Questions = []Question{}
	}
	return &e, nil
}

func (s *Service) LoadQuestions(ctx context.Context, id string) ([]Question, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT questions_json FROM exams WHERE id = $1`, strings.TrimSpace(id)).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrExamNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	questions := []Question{}
	if err := json.Unmarshal([]byte(payload), &questions); err != nil {
		return nil, fmt.Errorf("decode questions: %w", err)
	}
	return questions, nil
}

// ListExams pages through exam summaries, newest round first.
func (s *Service) ListExams(ctx context.Context, page, pageSize int) (*ExamPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM exams`).Scan(&total); err != nil {
		return nil, fmt.Errorf("count exams: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, round_no, paper_type, variant, time_limit_minutes,
			is_paid, question_count, updated_at
		FROM exams
		ORDER BY round_no DESC, paper_type ASC, variant ASC, updated_at DESC
		LIMIT $1 OFFSET $2
	`, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, fmt.Errorf("list exams: %w", err)
	}
	defer rows.Close()

	items := make([]ExamSummary, 0, pageSize)
	for rows.Next() {
		var (
			it        ExamSummary
			paper     string
			updatedAt int64
		)
		if err := rows.Scan(&it.ID, &it.Title, &it.Round, &paper, &it.Variant, &it.TimeLimitMinutes,
			&it.IsPaid, &it.QuestionCount, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan exam: %w", err)
		}
		it.PaperType = PaperType(paper)
		it.UpdatedAt = time.UnixMilli(updatedAt).UTC()
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate exams: %w", err)
	}
	return &ExamPage{Items: items, Page: page, PageSize: pageSize, Total: total}, nil
}

func (s *Service) DeleteExam(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM exams WHERE id = $1`, strings.TrimSpace(id))
	if err != nil {
		return fmt.Errorf("delete exam: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete exam: %w", err)
	}
	if n == 0 {
		return ErrExamNotFound
	}
	return nil
}
