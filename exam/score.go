package exam

import (
	"simulacro-server/models"
)

const (
	ResultCorrect   = "correct"
	ResultIncorrect = "incorrect"
	ResultSkipped   = "skipped"
)

// Score grades a simulacro. A question counts as correct iff the recorded
// answer is exactly equal (case-sensitive) to the option text named by the
// question's trimmed correct-option letter. A letter that resolves to no
// populated option can never be correct, but the question is still reported
// with whatever the correct text resolves to. Pure and idempotent: scoring
// the same finalized session twice yields identical results.
func Score(s *Session) models.ResultsResponse {
	questions := s.Questions()
	answers := s.Answers()

	report := make([]models.DetailedQuestionReport, 0, len(questions))
	correctCount := 0
	for i, q := range questions {
		answer := answers[i]
		correctText := q.CorrectText()

		result := ResultSkipped
		if answer != Unanswered {
			result = ResultIncorrect
			if correctText != "" && answer == correctText {
				result = ResultCorrect
				correctCount++
			}
		}
		report = append(report, models.DetailedQuestionReport{
			ID:            q.ID,
			Prompt:        q.Prompt,
			YourAnswer:    answer,
			CorrectAnswer: correctText,
			Result:        result,
			Explanation:   q.Explanation,
		})
	}

	total := len(questions)
	percentage := 0.0
	if total > 0 { // guard against division by zero on an empty session
		percentage = 100 * float64(correctCount) / float64(total)
	}
	return models.ResultsResponse{
		CorrectCount:   correctCount,
		Total:          total,
		Percentage:     percentage,
		FinishedBy:     string(s.FinishReason()),
		DetailedReport: report,
	}
}
