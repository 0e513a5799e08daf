package exam

import (
	"context"
	"errors"
	"testing"
	"time"

	"simulacro-server/models"
)

func makeQuestions(n int) []models.QuestionRecord {
	questions := make([]models.QuestionRecord, 0, n)
	for i := 0; i < n; i++ {
		questions = append(questions, models.QuestionRecord{
			ID:            "Q" + string(rune('1'+i)),
			Area:          "Civil",
			Type:          "Teoria",
			Prompt:        "prompt",
			OptionA:       "alpha",
			OptionB:       "beta",
			CorrectOption: "A",
		})
	}
	return questions
}

func TestNewSessionRequiresQuestions(t *testing.T) {
	if _, err := NewSession(nil, 10, ""); !errors.Is(err, ErrNoQuestions) {
		t.Fatalf("expected ErrNoQuestions, got %v", err)
	}
}

func TestNewSessionInitialState(t *testing.T) {
	s, err := NewSession(makeQuestions(3), 10, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Phase() != PhaseInProgress {
		t.Fatalf("new session should be in progress, got %v", s.Phase())
	}
	if s.AnsweredCount() != 0 {
		t.Fatalf("answer slots should start unanswered, got %d", s.AnsweredCount())
	}
	remaining := s.Remaining()
	if remaining <= 9*time.Minute || remaining > 10*time.Minute {
		t.Fatalf("deadline should be ~10 minutes out, remaining %v", remaining)
	}
}

func TestRecordAnswerValidation(t *testing.T) {
	s, _ := NewSession(makeQuestions(2), 10, "")

	if err := s.RecordAnswer(5, "alpha"); !errors.Is(err, ErrInvalidQuestionIndex) {
		t.Fatalf("expected ErrInvalidQuestionIndex, got %v", err)
	}
	if err := s.RecordAnswer(0, "gamma"); !errors.Is(err, ErrInvalidSelection) {
		t.Fatalf("expected ErrInvalidSelection, got %v", err)
	}
	if err := s.RecordAnswer(0, ""); !errors.Is(err, ErrInvalidSelection) {
		t.Fatalf("empty selection must be rejected, got %v", err)
	}
}

func TestRecordAnswerLastSelectionWins(t *testing.T) {
	s, _ := NewSession(makeQuestions(2), 10, "")

	if err := s.RecordAnswer(0, "alpha"); err != nil {
		t.Fatalf("first answer failed: %v", err)
	}
	if err := s.RecordAnswer(0, "beta"); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}
	if got := s.Answers()[0]; got != "beta" {
		t.Fatalf("last selection should win, got %q", got)
	}
	if s.AnsweredCount() != 1 {
		t.Fatalf("one slot answered, got %d", s.AnsweredCount())
	}
}

func TestFinishHappensExactlyOnce(t *testing.T) {
	s, _ := NewSession(makeQuestions(2), 10, "")
	s.RecordAnswer(0, "alpha")

	if !s.Finish(FinishReasonSubmit) {
		t.Fatal("first Finish should perform the transition")
	}
	if s.Finish(FinishReasonTimeout) {
		t.Fatal("second Finish must be a no-op")
	}
	if s.Phase() != PhaseShowingResults {
		t.Fatalf("expected showing_results, got %v", s.Phase())
	}
	if s.FinishReason() != FinishReasonSubmit {
		t.Fatalf("finish reason overwritten by the no-op call: %v", s.FinishReason())
	}
	// Answers are frozen as recorded.
	if err := s.RecordAnswer(1, "beta"); !errors.Is(err, ErrNotInProgress) {
		t.Fatalf("mutation after finish must be rejected, got %v", err)
	}
	if got := s.Answers()[0]; got != "alpha" {
		t.Fatalf("recorded answer lost on finish: %q", got)
	}
}

func TestCountdownForcesExpiry(t *testing.T) {
	// Start the clock in the past so the deadline is already behind now.
	past := func() time.Time { return time.Now().Add(-2 * time.Minute) }
	s, err := newSessionAt(makeQuestions(2), 1, "", past)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s.RecordAnswer(0, "alpha")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		Countdown(ctx, s, 2*time.Millisecond)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("countdown did not stop after forcing expiry")
	}

	if s.Phase() != PhaseShowingResults {
		t.Fatalf("expired session should show results, got %v", s.Phase())
	}
	if s.FinishReason() != FinishReasonTimeout {
		t.Fatalf("expected timeout finish, got %v", s.FinishReason())
	}
	if got := s.Answers()[0]; got != "alpha" {
		t.Fatalf("answers recorded before expiry must survive: %q", got)
	}
}

func TestCountdownStopsOnCancel(t *testing.T) {
	s, _ := NewSession(makeQuestions(1), 10, "")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		Countdown(ctx, s, 2*time.Millisecond)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("countdown did not stop on context cancel")
	}
	if s.Phase() != PhaseInProgress {
		t.Fatalf("cancel must not finish the session, got %v", s.Phase())
	}
}

func TestRegistryResetClearsSession(t *testing.T) {
	registry := NewRegistry(time.Minute)
	s, _ := NewSession(makeQuestions(2), 10, "")
	registry.Add(s)

	got, err := registry.Get(s.ID())
	if err != nil || got != s {
		t.Fatalf("registry lookup failed: %v", err)
	}
	if registry.Count() != 1 {
		t.Fatalf("expected 1 live session, got %d", registry.Count())
	}

	registry.Remove(s.ID())
	if _, err := registry.Get(s.ID()); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("removed session should be gone, got %v", err)
	}
	if registry.Count() != 0 {
		t.Fatalf("expected 0 live sessions, got %d", registry.Count())
	}
}

func TestConsumeCelebrationFiresOnce(t *testing.T) {
	s, _ := NewSession(makeQuestions(1), 10, "")
	if s.ConsumeCelebration() {
		t.Fatal("no celebration before finishing")
	}
	s.Finish(FinishReasonSubmit)
	if !s.ConsumeCelebration() {
		t.Fatal("celebration should fire on first results render")
	}
	if s.ConsumeCelebration() {
		t.Fatal("celebration must fire exactly once")
	}
}
