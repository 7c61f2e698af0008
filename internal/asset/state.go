package asset

import (
	"errors"
	"fmt"
	"sync"

	"topikbank/internal/exam"
)

var (
	ErrUnknownQuestion = errors.New("question not in exam")
	ErrInvalidOption   = errors.New("option out of range")
)

type ActionKind int

const (
	ActionMarkInProgress ActionKind = iota + 1
	ActionClearInProgress
	ActionSetOptionImage
)

// Action is one state transition. Question and Option address a slot; URL is only used by
// ActionSetOptionImage.
type Action struct {
	Kind     ActionKind
	Question int
	Option   int
	URL      string
}

type slot struct {
	question int
	option   int
}

// State owns an exam while images are being attached. Every change goes through Dispatch,
// which applies actions one at a time.
type State struct {
	mu         sync.Mutex
	exam       exam.Exam
	inProgress map[slot]bool
}

func NewState(e exam.Exam) *State {
	return &State{
		exam:       e.Clone(),
		inProgress: make(map[slot]bool),
	}
}

func (s *State) Dispatch(a Action) error {
	if a.Option < 1 || a.Option > exam.OptionCount {
		return fmt.Errorf("%w: %d", ErrInvalidOption, a.Option)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	k := slot{question: a.Question, option: a.Option}
	switch a.Kind {
	case ActionMarkInProgress:
		s.inProgress[k] = true
	case ActionClearInProgress:
		delete(s.inProgress, k)
	case ActionSetOptionImage:
		idx := s.exam.QuestionIndex(a.Question)
		if idx < 0 {
			return fmt.Errorf("%w: %d", ErrUnknownQuestion, a.Question)
		}
		q := s.exam.Questions[idx].Clone()
		if len(q.OptionImages) != exam.OptionCount {
			images := make([]string, exam.OptionCount)
			copy(images, q.OptionImages)
			q.OptionImages = images
		}
		q.OptionImages[a.Option-1] = a.URL
		s.exam.Questions[idx] = q
	default:
		return fmt.Errorf("unknown action %d", a.Kind)
	}
	return nil
}

// Snapshot returns a copy of the current exam.
func (s *State) Snapshot() exam.Exam {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exam.Clone()
}

func (s *State) InProgress(question, option int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inProgress[slot{question: question, option: option}]
}

// Pending is the number of slots currently marked in progress.
func (s *State) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.inProgress)
}
