package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"simulacro-server/bank"
	"simulacro-server/exam"
	"simulacro-server/pkg/logger"
)

// AdminDashboard shows bank statistics, cache age and live session count.
// GET /admin/dashboard
func AdminDashboard(src bank.Source, registry *exam.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		b, err := src.Load(c.Request.Context())
		if err != nil {
			c.HTML(http.StatusBadGateway, "admin_dashboard", gin.H{
				"LoadError":      err.Error(),
				"ActiveSessions": registry.Count(),
			})
			return
		}
		c.HTML(http.StatusOK, "admin_dashboard", gin.H{
			"Info":           bankInfo(b),
			"CacheAge":       time.Since(b.FetchedAt()).Round(time.Second).String(),
			"ActiveSessions": registry.Count(),
		})
	}
}

// AdminReloadBank invalidates the cached bank and refetches it immediately.
// POST /admin/reload
func AdminReloadBank(src bank.Source) gin.HandlerFunc {
	return func(c *gin.Context) {
		src.Invalidate()
		b, err := src.Load(c.Request.Context())
		if err != nil {
			logger.Log.Error("admin-triggered bank reload failed", zap.Error(err))
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		actor := c.GetString("user_email")
		logger.Log.Info("question bank reloaded",
			zap.String("actor", actor),
			zap.Int("questions", b.Len()))
		c.JSON(http.StatusOK, bankInfo(b))
	}
}
