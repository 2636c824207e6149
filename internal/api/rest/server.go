package rest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/LARPTech/patient-simulator-sub000/internal/api/websocket"
	"github.com/LARPTech/patient-simulator-sub000/internal/auth"
	"github.com/LARPTech/patient-simulator-sub000/internal/config"
	"github.com/LARPTech/patient-simulator-sub000/internal/monitor"
	"github.com/LARPTech/patient-simulator-sub000/internal/scenario"
)

type Server struct {
	router      *gin.Engine
	logger      *zap.Logger
	server      *http.Server
	wsHub       *websocket.Hub
	authService *auth.AuthService
	runner      *monitor.Runner
	loader      *scenario.Loader
	player      *scenario.Player
	startedAt   time.Time
}

func NewServer(cfg *config.Config, logger *zap.Logger, wsHub *websocket.Hub, authService *auth.AuthService, runner *monitor.Runner, loader *scenario.Loader, player *scenario.Player) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		router:      gin.New(),
		logger:      logger,
		wsHub:       wsHub,
		authService: authService,
		runner:      runner,
		loader:      loader,
		player:      player,
		startedAt:   time.Now(),
	}

	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

func (s *Server) Start() error {
	s.logger.Info("Starting REST API server", zap.String("address", s.server.Addr))
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Fatal("REST server failed", zap.Error(err))
		}
	}()
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down REST API server")
	return s.server.Shutdown(ctx)
}

func (s *Server) setupRoutes() {
	// Middleware
	s.router.Use(gin.Recovery())
	s.router.Use(LoggerMiddleware(s.logger))
	s.router.Use(CORSMiddleware())

	// Public routes (no auth required)
	s.router.GET("/health", s.healthCheck)

	// API v1
	v1 := s.router.Group("/api/v1")
	{
		// ==================== AUTH ====================
		authPublic := v1.Group("/auth")
		{
			authPublic.POST("/login", s.login)
		}

		authProtected := v1.Group("/auth")
		authProtected.Use(s.authService.AuthMiddleware())
		{
			authProtected.GET("/me", s.getCurrentUser)
		}

		// ==================== PATIENT STATE ====================
		patientGroup := v1.Group("/patient")
		patientGroup.Use(s.authService.AuthMiddleware())
		{
			patientGroup.GET("", auth.RequirePermission(auth.PermView), s.getPatientState)
			patientGroup.PUT("", auth.RequirePermission(auth.PermControl), s.setPatientState)
			patientGroup.POST("/reset", auth.RequirePermission(auth.PermControl), s.resetPatient)
		}

		// ==================== SIGNALS ====================
		signals := v1.Group("/signals")
		signals.Use(s.authService.AuthMiddleware())
		{
			signals.GET("", auth.RequirePermission(auth.PermView), s.listSignals)
			signals.GET("/:signal/params", auth.RequirePermission(auth.PermView), s.getSignalParams)
			signals.PATCH("/:signal/params", auth.RequirePermission(auth.PermControl), s.updateSignalParams)
			signals.PUT("/:signal/pattern", auth.RequirePermission(auth.PermControl), s.setSignalPattern)
			signals.GET("/:signal/waveform", auth.RequirePermission(auth.PermView), s.getWaveformSnapshot)
		}

		// ==================== SCENARIOS ====================
		scenarios := v1.Group("/scenarios")
		scenarios.Use(s.authService.AuthMiddleware())
		{
			scenarios.GET("", auth.RequirePermission(auth.PermView), s.listScenarios)
			scenarios.GET("/status", auth.RequirePermission(auth.PermView), s.getScenarioStatus)
			scenarios.POST("/:name/play", auth.RequirePermission(auth.PermControl), s.playScenario)
			scenarios.POST("/stop", auth.RequirePermission(auth.PermControl), s.stopScenario)
		}

		// ==================== SYSTEM ====================
		system := v1.Group("/system")
		system.Use(s.authService.AuthMiddleware())
		system.Use(auth.RequirePermission(auth.PermView))
		{
			system.GET("/status", s.getSystemStatus)
		}

		// ==================== WEBSOCKET (PUBLIC - Auth via first message) ====================
		ws := v1.Group("/ws")
		{
			ws.GET("/live", s.wsLiveConnection)
		}
	}
}

// WebSocket handlers
func (s *Server) wsLiveConnection(c *gin.Context) {
	websocket.ServeWs(s.wsHub, c.Writer, c.Request)
}

// Health check (public)
func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().Unix(),
	})
}
