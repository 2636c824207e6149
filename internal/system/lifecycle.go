package system

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/LARPTech/patient-simulator-sub000/internal/api/rest"
	"github.com/LARPTech/patient-simulator-sub000/internal/api/websocket"
	"github.com/LARPTech/patient-simulator-sub000/internal/auth"
	"github.com/LARPTech/patient-simulator-sub000/internal/config"
	"github.com/LARPTech/patient-simulator-sub000/internal/monitor"
	"github.com/LARPTech/patient-simulator-sub000/internal/scenario"
)

// LifecycleManager wires the simulator together and owns startup and
// graceful shutdown ordering.
type LifecycleManager struct {
	config *config.Config
	logger *zap.Logger

	authService *auth.AuthService
	wsHub       *websocket.Hub
	runner      *monitor.Runner
	loader      *scenario.Loader
	player      *scenario.Player
	restServer  *rest.Server

	stateMu      sync.RWMutex
	currentState SystemState

	shutdownChan chan struct{}
	shutdownOnce sync.Once
}

func NewLifecycleManager(cfg *config.Config, logger *zap.Logger, seed int64) (*LifecycleManager, error) {
	if !cfg.Auth.IsProductionReady() {
		logger.Warn("JWT secret is the development fallback, set it before exposing the API")
	}
	authService := auth.NewAuthService(logger, cfg.Auth.GetJWTSecret(),
		cfg.Auth.AccessTokenTTL, cfg.Auth.OperatorUser, cfg.Auth.OperatorSecretHash)

	wsHub := websocket.NewHub(logger, authService)

	runner, err := monitor.NewRunner(logger, wsHub, cfg.Signals, seed)
	if err != nil {
		return nil, fmt.Errorf("failed to create monitor runner: %w", err)
	}

	loader, err := scenario.NewLoader(cfg.Scenarios.SearchPaths)
	if err != nil {
		return nil, fmt.Errorf("failed to create scenario loader: %w", err)
	}
	player := scenario.NewPlayer(logger, runner, wsHub)

	return &LifecycleManager{
		config:       cfg,
		logger:       logger,
		authService:  authService,
		wsHub:        wsHub,
		runner:       runner,
		loader:       loader,
		player:       player,
		currentState: StateInitializing,
		shutdownChan: make(chan struct{}),
	}, nil
}

// Start brings the system up: hub, push loops, then the API surface.
func (lm *LifecycleManager) Start() error {
	lm.logger.Info("Starting patient simulator")

	go lm.wsHub.Run()

	if err := lm.runner.Start(); err != nil {
		lm.setError(fmt.Errorf("failed to start runner: %w", err))
		return err
	}

	lm.restServer = rest.NewServer(lm.config, lm.logger, lm.wsHub,
		lm.authService, lm.runner, lm.loader, lm.player)
	if err := lm.restServer.Start(); err != nil {
		lm.setError(fmt.Errorf("failed to start REST API: %w", err))
		return err
	}

	lm.setState(StateRunning)

	lm.logger.Info("System started successfully",
		zap.Int("http_port", lm.config.Server.HTTPPort),
		zap.Strings("scenario_paths", lm.config.Scenarios.SearchPaths))

	return nil
}

// Shutdown gracefully shuts down the system
func (lm *LifecycleManager) Shutdown(ctx context.Context) error {
	var shutdownErr error

	lm.shutdownOnce.Do(func() {
		lm.logger.Info("Shutting down system")

		lm.setState(StateStopping)

		shutdownErr = lm.gracefulShutdown(ctx)

		lm.setState(StateStopped)

		close(lm.shutdownChan)
	})

	return shutdownErr
}

func (lm *LifecycleManager) gracefulShutdown(ctx context.Context) error {
	// Scenario playback and sample pushing stop synchronously, they
	// only wait on their own goroutines.
	lm.player.Stop()
	lm.runner.Stop()

	if lm.restServer == nil {
		return nil
	}

	errChan := make(chan error, 1)
	go func() {
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		errChan <- lm.restServer.Shutdown(shutdownCtx)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("rest api shutdown failed: %w", err)
		}
		lm.logger.Info("Graceful shutdown completed")
		return nil
	case <-ctx.Done():
		lm.logger.Warn("Shutdown timeout, forcing stop")
		return fmt.Errorf("shutdown timeout exceeded")
	}
}

// CurrentState returns the lifecycle state.
func (lm *LifecycleManager) CurrentState() SystemState {
	lm.stateMu.RLock()
	defer lm.stateMu.RUnlock()
	return lm.currentState
}

func (lm *LifecycleManager) setState(to SystemState) {
	lm.stateMu.Lock()
	defer lm.stateMu.Unlock()

	if err := ValidateTransition(lm.currentState, to); err != nil {
		lm.logger.Warn("State transition rejected", zap.Error(err))
		return
	}
	lm.currentState = to
}

func (lm *LifecycleManager) setError(err error) {
	lm.stateMu.Lock()
	lm.currentState = StateError
	lm.stateMu.Unlock()

	lm.logger.Error("System entered error state", zap.Error(err))
}
