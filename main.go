package main

import (
	"context"
	"html/template"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/multitemplate"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"simulacro-server/bank"
	"simulacro-server/config"
	"simulacro-server/exam"
	"simulacro-server/handlers"
	"simulacro-server/middleware"
	"simulacro-server/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}
	logger.InitLogger(cfg.Log.Dir, cfg.Log.Level)
	defer logger.Log.Sync()

	// The question bank source: Google Sheets export in production, a local
	// YAML file when BANK_FILE is set.
	var src bank.Source
	if cfg.BankFile != "" {
		src = bank.NewFileSource(cfg.BankFile)
		logger.Log.Info("using local bank file", zap.String("path", cfg.BankFile))
	} else {
		src = bank.NewLoader(cfg.Sheet.ID, cfg.Sheet.Worksheet, cfg.Sheet.CacheTTL, cfg.Sheet.HTTPTimeout)
	}

	// Warm the cache once at startup. A failure here is not fatal: the first
	// request retries and surfaces the error to the user.
	if _, err := src.Load(context.Background()); err != nil {
		logger.Log.Warn("initial question bank load failed", zap.Error(err))
	}

	registry := exam.NewRegistry(exam.DefaultTickInterval)

	// Set Gin mode
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger())
	middleware.InitMetrics()
	router.Use(middleware.MetricsMiddleware())

	// Load HTML templates for the three phases and the admin UI
	funcMap := template.FuncMap{
		"addOne": func(i int) int { return i + 1 },
	}
	renderer := multitemplate.NewRenderer()
	renderer.AddFromFilesFuncs("config", funcMap, "templates/layout.html", "templates/config.html")
	renderer.AddFromFilesFuncs("quiz", funcMap, "templates/layout.html", "templates/quiz.html")
	renderer.AddFromFilesFuncs("results", funcMap, "templates/layout.html", "templates/results.html")
	renderer.AddFromFilesFuncs("error", funcMap, "templates/layout.html", "templates/error.html")
	renderer.AddFromFilesFuncs("admin_dashboard", funcMap, "templates/layout.html", "templates/admin_dashboard.html")
	router.HTMLRender = renderer

	// HTML surface
	router.GET("/", handlers.Home(src, registry, cfg))
	router.POST("/start", handlers.StartSimulacro(src, registry))
	router.POST("/answer", handlers.RecordAnswer(registry))
	router.POST("/submit", handlers.SubmitSimulacro(registry))
	router.POST("/restart", handlers.RestartSimulacro(registry))
	router.GET("/metrics", middleware.PrometheusHandler())

	// API Routes (version 1)
	apiV1 := router.Group("/api/v1")
	{
		apiV1.GET("/bank", handlers.GetBankInfo(src))
		apiV1.POST("/sessions", handlers.StartSession(src, registry))
		apiV1.POST("/sessions/:session_id/answer", handlers.RecordSessionAnswer(registry))
		apiV1.GET("/sessions/:session_id/status", handlers.GetSessionStatus(registry))
		apiV1.POST("/sessions/:session_id/submit", handlers.SubmitSession(registry))
		apiV1.DELETE("/sessions/:session_id", handlers.DeleteSession(registry))
	}

	// Admin UI Routes
	admin := router.Group("/admin")
	admin.Use(middleware.AuthMiddleware(cfg.Admin.JWTSigningKey, cfg.Admin.Issuer))
	admin.Use(middleware.RoleCheckMiddleware([]string{"admin"}))
	{
		admin.GET("/dashboard", handlers.AdminDashboard(src, registry))
		admin.POST("/reload", handlers.AdminReloadBank(src))
	}

	// Start the server
	srv := &http.Server{
		Addr:    cfg.ServerPort,
		Handler: router,
	}
	// Goroutine to gracefully shut down the server
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logger.Log.Info("shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Fatalf("Server forced to shutdown: %v", err)
		}
	}()
	logger.Log.Info("simulacro server starting", zap.String("addr", cfg.ServerPort))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Server startup error: %v", err)
	}
	logger.Log.Info("server exited gracefully")
}
