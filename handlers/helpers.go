package handlers

import (
	"github.com/gin-gonic/gin"

	"simulacro-server/bank"
	"simulacro-server/exam"
	"simulacro-server/middleware"
	"simulacro-server/models"
)

// SessionCookie carries the session id between requests on the HTML surface.
const SessionCookie = "simulacro_session"

const cookieMaxAge = 12 * 60 * 60 // seconds; long enough for any simulacro

func bankInfo(b *bank.QuestionBank) models.BankInfo {
	return models.BankInfo{
		QuestionCount: b.Len(),
		Areas:         b.Areas(),
		Types:         b.Types(),
		FetchedAt:     b.FetchedAt(),
	}
}

// sessionQuestions strips correct letters and explanations from the owned
// snapshot before it leaves the server while a simulacro is in progress.
func sessionQuestions(s *exam.Session) []models.SessionQuestion {
	questions := s.Questions()
	out := make([]models.SessionQuestion, 0, len(questions))
	for i, q := range questions {
		out = append(out, models.SessionQuestion{
			Index:       i,
			ID:          q.ID,
			Area:        q.Area,
			Type:        q.Type,
			CaseContext: q.CaseContext,
			Prompt:      q.Prompt,
			Options:     q.Options(),
		})
	}
	return out
}

// sessionFromCookie resolves the HTML surface's session, if any.
func sessionFromCookie(c *gin.Context, registry *exam.Registry) (*exam.Session, bool) {
	id, err := c.Cookie(SessionCookie)
	if err != nil || id == "" {
		return nil, false
	}
	s, err := registry.Get(id)
	if err != nil {
		return nil, false
	}
	return s, true
}

func setSessionCookie(c *gin.Context, id string) {
	c.SetCookie(SessionCookie, id, cookieMaxAge, "/", "", false, true)
}

func clearSessionCookie(c *gin.Context) {
	c.SetCookie(SessionCookie, "", -1, "/", "", false, true)
}

func updateActiveSessions(registry *exam.Registry) {
	middleware.ActiveSessions.Set(float64(registry.Count()))
}
