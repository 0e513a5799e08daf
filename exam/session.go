package exam

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"simulacro-server/models"
)

// Phase is the top-level mode of the application. Exactly one phase is
// active at a time; Configuring is represented by the absence of a session,
// so a live Session is only ever InProgress or ShowingResults.
type Phase int

const (
	PhaseConfiguring Phase = iota
	PhaseInProgress
	PhaseShowingResults
)

func (p Phase) String() string {
	switch p {
	case PhaseConfiguring:
		return "configuring"
	case PhaseInProgress:
		return "in_progress"
	case PhaseShowingResults:
		return "showing_results"
	}
	return "unknown"
}

// FinishReason records what ended a simulacro.
type FinishReason string

const (
	FinishReasonSubmit  FinishReason = "submit"
	FinishReasonTimeout FinishReason = "timeout"
)

// Unanswered marks an answer slot the user never filled.
const Unanswered = ""

var (
	ErrNoQuestions          = errors.New("a simulacro requires at least one question")
	ErrNotInProgress        = errors.New("session is not in progress")
	ErrInvalidQuestionIndex = errors.New("question index out of range")
	ErrInvalidSelection     = errors.New("selection is not one of the question's options")
)

// Session is one timed simulacro attempt. It owns its question snapshot and
// answer slots; the question bank is never touched through a session. The
// mutex covers the race between the countdown goroutine forcing expiry and a
// request mutating answers.
type Session struct {
	id        string
	questions []models.QuestionRecord
	deadline  time.Time
	createdAt time.Time
	note      string

	mu           sync.Mutex
	answers      []string
	phase        Phase
	finishReason FinishReason
	celebration  bool
}

// NewSession starts a simulacro: Configuring -> InProgress. The question set
// must be non-empty; the deadline is now + duration and every answer slot
// starts unanswered.
func NewSession(questions []models.QuestionRecord, durationMinutes int, note string) (*Session, error) {
	return newSessionAt(questions, durationMinutes, note, time.Now)
}

func newSessionAt(questions []models.QuestionRecord, durationMinutes int, note string, now func() time.Time) (*Session, error) {
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}
	if durationMinutes < 1 {
		return nil, fmt.Errorf("duration must be at least 1 minute, got %d", durationMinutes)
	}

	owned := make([]models.QuestionRecord, len(questions))
	copy(owned, questions)
	start := now()
	return &Session{
		id:        uuid.New().String(),
		questions: owned,
		answers:   make([]string, len(owned)),
		deadline:  start.Add(time.Duration(durationMinutes) * time.Minute),
		createdAt: start,
		note:      note,
		phase:     PhaseInProgress,
	}, nil
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Deadline returns the absolute timestamp at which the simulacro expires.
func (s *Session) Deadline() time.Time { return s.deadline }

// CreatedAt returns when the simulacro was started.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// Note returns the warn-and-reduce notice recorded at sampling time, or "".
func (s *Session) Note() string { return s.note }

// Questions returns the owned question snapshot. Callers must treat the
// returned slice as read-only.
func (s *Session) Questions() []models.QuestionRecord { return s.questions }

// Phase returns the session's current phase.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// FinishReason reports what ended the simulacro; "" while still in progress.
func (s *Session) FinishReason() FinishReason {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finishReason
}

// Answers returns a copy of the answer slots, Unanswered for empty ones.
func (s *Session) Answers() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.answers))
	copy(out, s.answers)
	return out
}

// AnsweredCount returns how many slots carry a selection.
func (s *Session) AnsweredCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, a := range s.answers {
		if a != Unanswered {
			n++
		}
	}
	return n
}

// Remaining returns the wall-clock time left before the deadline. Negative
// values mean the deadline has passed.
func (s *Session) Remaining() time.Duration {
	return time.Until(s.deadline)
}

// RecordAnswer overwrites the answer slot for question i: InProgress ->
// InProgress, last selection wins. The selection must be one of that
// question's non-empty options; any mutation outside InProgress is rejected.
func (s *Session) RecordAnswer(i int, selection string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseInProgress {
		return ErrNotInProgress
	}
	if i < 0 || i >= len(s.questions) {
		return fmt.Errorf("%w: %d", ErrInvalidQuestionIndex, i)
	}
	if !s.questions[i].HasOption(selection) {
		return ErrInvalidSelection
	}
	s.answers[i] = selection
	return nil
}

// Finish freezes the simulacro: InProgress -> ShowingResults. Answers stay
// as recorded, unanswered slots remain unanswered. The transition happens at
// most once; Finish reports whether this call performed it, so the submit
// handler and the countdown driver cannot double-fire.
func (s *Session) Finish(reason FinishReason) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseInProgress {
		return false
	}
	s.phase = PhaseShowingResults
	s.finishReason = reason
	s.celebration = true
	return true
}

// ConsumeCelebration reports whether the one-time results flourish should
// fire, and arms it off. It fires exactly once per entry into ShowingResults.
func (s *Session) ConsumeCelebration() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.celebration {
		return false
	}
	s.celebration = false
	return true
}
