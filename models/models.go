package models

import (
	"strings"
	"time"
)

// OptionLetters is the fixed set of option slots a question row carries.
var OptionLetters = []string{"A", "B", "C", "D"}

// QuestionRecord represents one row of the question bank.
// All fields are plain strings; missing cells are normalized to "".
type QuestionRecord struct {
	ID            string `json:"id" yaml:"id"`
	Area          string `json:"area" yaml:"area"`
	Type          string `json:"type" yaml:"type"`
	CaseContext   string `json:"case_context,omitempty" yaml:"case_context"`
	Prompt        string `json:"prompt" yaml:"prompt"`
	OptionA       string `json:"option_a,omitempty" yaml:"option_a"`
	OptionB       string `json:"option_b,omitempty" yaml:"option_b"`
	OptionC       string `json:"option_c,omitempty" yaml:"option_c"`
	OptionD       string `json:"option_d,omitempty" yaml:"option_d"`
	CorrectOption string `json:"-" yaml:"correct_option"`
	Explanation   string `json:"-" yaml:"explanation"`
}

// Option returns the option text stored under the given letter.
// Unknown letters resolve to "".
func (q QuestionRecord) Option(letter string) string {
	switch strings.ToUpper(strings.TrimSpace(letter)) {
	case "A":
		return q.OptionA
	case "B":
		return q.OptionB
	case "C":
		return q.OptionC
	case "D":
		return q.OptionD
	}
	return ""
}

// Options returns the non-empty options in A..D order. A record with no
// options is displayable but unanswerable.
func (q QuestionRecord) Options() []string {
	options := make([]string, 0, len(OptionLetters))
	for _, letter := range OptionLetters {
		if text := q.Option(letter); text != "" {
			options = append(options, text)
		}
	}
	return options
}

// CorrectText resolves the stored correct-option letter to the matching
// option text. The letter is trimmed and matched case-insensitively; a letter
// that does not map to a populated option resolves to "", which means no
// answer can ever be judged correct for this record.
func (q QuestionRecord) CorrectText() string {
	return q.Option(q.CorrectOption)
}

// HasOption reports whether the given text is one of the record's non-empty
// options. Used to validate answer selections.
func (q QuestionRecord) HasOption(text string) bool {
	if text == "" {
		return false
	}
	for _, option := range q.Options() {
		if option == text {
			return true
		}
	}
	return false
}

// QuizConfiguration holds the user-chosen simulacro parameters.
type QuizConfiguration struct {
	AreaFilter      string `json:"area_filter" form:"area_filter"`
	TypeFilter      string `json:"type_filter" form:"type_filter"`
	QuestionCount   int    `json:"question_count" form:"question_count" binding:"required,min=1"`
	DurationMinutes int    `json:"duration_minutes" form:"duration_minutes" binding:"required,min=1"`
}

// BankInfo summarizes the loaded question bank for the config page and admin.
type BankInfo struct {
	QuestionCount int       `json:"question_count"`
	Areas         []string  `json:"areas"`
	Types         []string  `json:"types"`
	FetchedAt     time.Time `json:"fetched_at"`
}

// StartSessionRequest for starting a simulacro over the JSON API.
type StartSessionRequest struct {
	AreaFilter      string `json:"area_filter"`
	TypeFilter      string `json:"type_filter"`
	QuestionCount   int    `json:"question_count" binding:"required,min=1"`
	DurationMinutes int    `json:"duration_minutes" binding:"required,min=1"`
}

// SessionQuestion is the answer-key-free view of a question handed to clients
// while a simulacro is in progress.
type SessionQuestion struct {
	Index       int      `json:"index"`
	ID          string   `json:"id"`
	Area        string   `json:"area"`
	Type        string   `json:"type"`
	CaseContext string   `json:"case_context,omitempty"`
	Prompt      string   `json:"prompt"`
	Options     []string `json:"options"`
}

// StartSessionResponse for starting a simulacro.
type StartSessionResponse struct {
	SessionID        string            `json:"session_id"`
	TimeLimitMinutes int               `json:"time_limit_minutes"`
	Deadline         time.Time         `json:"deadline"`
	Questions        []SessionQuestion `json:"questions"`
	Note             string            `json:"note,omitempty"` // warn-and-reduce notice
}

// AnswerRequest for recording an answer.
type AnswerRequest struct {
	QuestionIndex int    `json:"question_index"`
	Selection     string `json:"selection" binding:"required"`
}

// SessionStatusResponse for checking progress.
type SessionStatusResponse struct {
	Phase          string `json:"phase"`
	AnsweredCount  int    `json:"answered_count"`
	RemainingCount int    `json:"remaining_count"`
	TimeRemaining  string `json:"time_remaining"` // formatted as "MM:SS"
}

// DetailedQuestionReport provides per-question results.
type DetailedQuestionReport struct {
	ID            string `json:"id"`
	Prompt        string `json:"prompt"`
	YourAnswer    string `json:"your_answer"`
	CorrectAnswer string `json:"correct_answer"` // "" when the letter resolves to nothing
	Result        string `json:"result"`         // "correct", "incorrect", "skipped"
	Explanation   string `json:"explanation"`
}

// ResultsResponse for a finalized simulacro.
type ResultsResponse struct {
	CorrectCount   int                      `json:"correct_count"`
	Total          int                      `json:"total"`
	Percentage     float64                  `json:"percentage"`
	FinishedBy     string                   `json:"finished_by"` // "submit" or "timeout"
	DetailedReport []DetailedQuestionReport `json:"detailed_report"`
}
