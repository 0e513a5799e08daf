package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"simulacro-server/bank"
	"simulacro-server/config"
	"simulacro-server/exam"
	"simulacro-server/models"
	"simulacro-server/pkg/logger"
	"simulacro-server/utils"
)

// Home renders exactly the view for the current phase: the configuration
// page when no session exists, the quiz page while in progress, the results
// page once finished. Everything displayed is re-derived from the session
// and the bank on each render.
// GET /
func Home(src bank.Source, registry *exam.Registry, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := sessionFromCookie(c, registry)
		if !ok {
			renderConfigPage(c, src, http.StatusOK, "")
			return
		}

		// The countdown driver owns expiry, but a render that races a late
		// tick still checks the wall clock so an expired simulacro is never
		// shown as in progress.
		if s.Phase() == exam.PhaseInProgress && s.Remaining() <= 0 {
			s.Finish(exam.FinishReasonTimeout)
		}

		switch s.Phase() {
		case exam.PhaseInProgress:
			renderQuizPage(c, s)
		case exam.PhaseShowingResults:
			renderResultsPage(c, s, cfg)
		default:
			renderConfigPage(c, src, http.StatusOK, "")
		}
	}
}

// StartSimulacro creates a session from the submitted configuration:
// Configuring -> InProgress. An empty filtered pool keeps the user on the
// configuration page with a warning; a reduced draw is surfaced on the quiz
// page, never silent.
// POST /start
func StartSimulacro(src bank.Source, registry *exam.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		var qc models.QuizConfiguration
		if err := c.ShouldBind(&qc); err != nil {
			renderConfigPage(c, src, http.StatusBadRequest, "Invalid configuration: check question count and duration.")
			return
		}
		if qc.AreaFilter == "" {
			qc.AreaFilter = bank.FilterAll
		}
		if qc.TypeFilter == "" {
			qc.TypeFilter = bank.FilterAll
		}

		b, err := src.Load(c.Request.Context())
		if err != nil {
			renderLoadError(c, err)
			return
		}

		questions, note, err := bank.FilterAndSample(b, qc.AreaFilter, qc.TypeFilter, qc.QuestionCount)
		if err != nil {
			if errors.Is(err, bank.ErrEmptyPool) {
				renderConfigPage(c, src, http.StatusOK, "No questions match the selected filters. Adjust them and try again.")
				return
			}
			renderConfigPage(c, src, http.StatusBadRequest, err.Error())
			return
		}

		noteText := ""
		if note != nil {
			noteText = note.String()
		}
		s, err := exam.NewSession(questions, qc.DurationMinutes, noteText)
		if err != nil {
			renderConfigPage(c, src, http.StatusBadRequest, err.Error())
			return
		}

		// Starting over an abandoned session discards it.
		if old, ok := sessionFromCookie(c, registry); ok {
			registry.Remove(old.ID())
		}
		registry.Add(s)
		updateActiveSessions(registry)
		setSessionCookie(c, s.ID())
		logger.Log.Info("simulacro started",
			zap.String("session_id", s.ID()),
			zap.String("area", qc.AreaFilter),
			zap.String("type", qc.TypeFilter),
			zap.Int("questions", len(questions)),
			zap.Int("minutes", qc.DurationMinutes))
		c.Redirect(http.StatusSeeOther, "/")
	}
}

// RecordAnswer stores a selection for one question; last selection wins.
// POST /answer
func RecordAnswer(registry *exam.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := sessionFromCookie(c, registry)
		if !ok {
			c.Redirect(http.StatusSeeOther, "/")
			return
		}
		index, err := strconv.Atoi(c.PostForm("question_index"))
		if err != nil {
			c.Redirect(http.StatusSeeOther, "/")
			return
		}
		if err := s.RecordAnswer(index, c.PostForm("selection")); err != nil {
			// A rejected answer (expired session, bad selection) is not
			// fatal: the next render shows the real phase.
			logger.Log.Debug("answer rejected",
				zap.String("session_id", s.ID()),
				zap.Int("question_index", index),
				zap.Error(err))
		}
		c.Redirect(http.StatusSeeOther, "/")
	}
}

// SubmitSimulacro finalizes the session: InProgress -> ShowingResults.
// POST /submit
func SubmitSimulacro(registry *exam.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		if s, ok := sessionFromCookie(c, registry); ok {
			if s.Finish(exam.FinishReasonSubmit) {
				logger.Log.Info("simulacro submitted", zap.String("session_id", s.ID()))
			}
		}
		c.Redirect(http.StatusSeeOther, "/")
	}
}

// RestartSimulacro discards the session entirely: ShowingResults ->
// Configuring. The question bank stays loaded.
// POST /restart
func RestartSimulacro(registry *exam.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		if s, ok := sessionFromCookie(c, registry); ok {
			registry.Remove(s.ID())
			updateActiveSessions(registry)
		}
		clearSessionCookie(c)
		c.Redirect(http.StatusSeeOther, "/")
	}
}

func renderConfigPage(c *gin.Context, src bank.Source, status int, warning string) {
	b, err := src.Load(c.Request.Context())
	if err != nil {
		renderLoadError(c, err)
		return
	}
	c.HTML(status, "config", gin.H{
		"Info":    bankInfo(b),
		"Warning": warning,
	})
}

func renderQuizPage(c *gin.Context, s *exam.Session) {
	c.HTML(http.StatusOK, "quiz", gin.H{
		"SessionID":     s.ID(),
		"Questions":     sessionQuestions(s),
		"Answers":       s.Answers(),
		"Remaining":     exam.FormatRemaining(s.Remaining()),
		"AnsweredCount": s.AnsweredCount(),
		"Total":         len(s.Questions()),
		"Note":          s.Note(),
	})
}

func renderResultsPage(c *gin.Context, s *exam.Session, cfg *config.Config) {
	result := exam.Score(s)
	c.HTML(http.StatusOK, "results", gin.H{
		"Result":    result,
		"Celebrate": s.ConsumeCelebration(),
		"ContactLink": utils.WhatsAppLink(
			cfg.Contact.WhatsAppNumber,
			cfg.Contact.MessageTemplate,
			result.CorrectCount, result.Total, result.Percentage),
	})
}

// renderLoadError halts rendering for this request: no partial UI is shown
// when the question bank cannot be loaded.
func renderLoadError(c *gin.Context, err error) {
	logger.Log.Error("question bank load failed", zap.Error(err))
	c.HTML(http.StatusBadGateway, "error", gin.H{
		"Cause": err.Error(),
	})
}
