package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"simulacro-server/bank"
	"simulacro-server/exam"
	"simulacro-server/models"
	"simulacro-server/pkg/logger"
)

// GetBankInfo summarizes the loaded question bank.
// GET /api/v1/bank
func GetBankInfo(src bank.Source) gin.HandlerFunc {
	return func(c *gin.Context) {
		b, err := src.Load(c.Request.Context())
		if err != nil {
			logger.Log.Error("question bank load failed", zap.Error(err))
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, bankInfo(b))
	}
}

// StartSession initiates a simulacro over the JSON API. Questions are handed
// out without correct letters or explanations.
// POST /api/v1/sessions
func StartSession(src bank.Source, registry *exam.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.StartSessionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if req.AreaFilter == "" {
			req.AreaFilter = bank.FilterAll
		}
		if req.TypeFilter == "" {
			req.TypeFilter = bank.FilterAll
		}

		b, err := src.Load(c.Request.Context())
		if err != nil {
			logger.Log.Error("question bank load failed", zap.Error(err))
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}

		questions, note, err := bank.FilterAndSample(b, req.AreaFilter, req.TypeFilter, req.QuestionCount)
		if err != nil {
			if errors.Is(err, bank.ErrEmptyPool) {
				// Recoverable: the client stays on configuration.
				c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		noteText := ""
		if note != nil {
			noteText = note.String()
		}
		s, err := exam.NewSession(questions, req.DurationMinutes, noteText)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		registry.Add(s)
		updateActiveSessions(registry)
		logger.Log.Info("simulacro started",
			zap.String("session_id", s.ID()),
			zap.Int("questions", len(questions)),
			zap.Int("minutes", req.DurationMinutes))

		c.JSON(http.StatusCreated, models.StartSessionResponse{
			SessionID:        s.ID(),
			TimeLimitMinutes: req.DurationMinutes,
			Deadline:         s.Deadline(),
			Questions:        sessionQuestions(s),
			Note:             noteText,
		})
	}
}

// RecordSessionAnswer stores a selection for one question.
// POST /api/v1/sessions/:session_id/answer
func RecordSessionAnswer(registry *exam.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, err := registry.Get(c.Param("session_id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		var req models.AnswerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := s.RecordAnswer(req.QuestionIndex, req.Selection); err != nil {
			switch {
			case errors.Is(err, exam.ErrNotInProgress):
				c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			default:
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			}
			return
		}
		c.JSON(http.StatusOK, gin.H{"recorded": true})
	}
}

// GetSessionStatus reports progress and the formatted remaining time.
// GET /api/v1/sessions/:session_id/status
func GetSessionStatus(registry *exam.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, err := registry.Get(c.Param("session_id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		answered := s.AnsweredCount()
		c.JSON(http.StatusOK, models.SessionStatusResponse{
			Phase:          s.Phase().String(),
			AnsweredCount:  answered,
			RemainingCount: len(s.Questions()) - answered,
			TimeRemaining:  exam.FormatRemaining(s.Remaining()),
		})
	}
}

// SubmitSession finalizes the simulacro and returns the scored result.
// Submitting an already-finished session just re-scores it; scoring is
// idempotent.
// POST /api/v1/sessions/:session_id/submit
func SubmitSession(registry *exam.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, err := registry.Get(c.Param("session_id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		if s.Finish(exam.FinishReasonSubmit) {
			logger.Log.Info("simulacro submitted", zap.String("session_id", s.ID()))
		}
		c.JSON(http.StatusOK, exam.Score(s))
	}
}

// DeleteSession discards the session: ShowingResults -> Configuring.
// DELETE /api/v1/sessions/:session_id
func DeleteSession(registry *exam.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		registry.Remove(c.Param("session_id"))
		updateActiveSessions(registry)
		c.JSON(http.StatusOK, gin.H{"deleted": true})
	}
}
