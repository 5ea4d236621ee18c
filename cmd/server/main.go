package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/surya-murugan-ai/agentOps-sub003/internal/agent"
	"github.com/surya-murugan-ai/agentOps-sub003/internal/aggregator"
	"github.com/surya-murugan-ai/agentOps-sub003/internal/api/middleware"
	"github.com/surya-murugan-ai/agentOps-sub003/internal/api/rest"
	"github.com/surya-murugan-ai/agentOps-sub003/internal/api/websocket"
	"github.com/surya-murugan-ai/agentOps-sub003/internal/audit"
	"github.com/surya-murugan-ai/agentOps-sub003/internal/chat"
	"github.com/surya-murugan-ai/agentOps-sub003/internal/config"
	"github.com/surya-murugan-ai/agentOps-sub003/internal/llm/adapter"
	"github.com/surya-murugan-ai/agentOps-sub003/internal/llm/types"
	"github.com/surya-murugan-ai/agentOps-sub003/internal/models"
	"github.com/surya-murugan-ai/agentOps-sub003/internal/pkg/logger"
	"github.com/surya-murugan-ai/agentOps-sub003/internal/remediation"
	"github.com/surya-murugan-ai/agentOps-sub003/internal/repository"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:      cfg.LogLevel,
		FilePath:   cfg.LogFilePath,
		MaxSizeMB:  100,
		MaxBackups: 10,
		MaxAgeDays: 30,
		Compress:   true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("agentops server starting",
		zap.Int("port", cfg.Port),
		zap.String("database", cfg.DatabasePath),
	)

	// Initialize database
	repo, err := repository.NewSQLiteRepository(cfg.DatabasePath)
	if err != nil {
		log.Fatal("failed to initialize database", zap.Error(err))
	}
	defer repo.Close()

	// Audit recorder: repository plus rotated JSON file
	auditRec := audit.NewRecorder(repo, audit.Config{
		FilePath:   cfg.AuditLogFilePath,
		MaxSizeMB:  100,
		MaxBackups: 10,
		MaxAgeDays: 30,
		Compress:   true,
	}, log)
	defer auditRec.Sync()

	// WebSocket hub for live dashboard updates
	wsHub := websocket.NewHub(ctx, log)
	go wsHub.Run()

	// Agent registry and approval engine
	registry := agent.NewRegistry(repo, auditRec, wsHub,
		cfg.HeartbeatStalenessFactor,
		time.Duration(cfg.DefaultAgentIntervalSec)*time.Second,
		log)
	engine := remediation.NewEngine(repo, auditRec, wsHub, cfg.AutoApproveThreshold, log)

	executor := remediation.NewExecutor(engine, repo, remediation.SimulatedRunner, 30*time.Second, log)
	go executor.Start(ctx)

	// Platform context aggregator
	agg := aggregator.New(repo, registry, aggregator.Config{
		SampleSize:  cfg.SnapshotSampleSize,
		AuditLimit:  cfg.SnapshotAuditLimit,
		ActionLimit: cfg.SnapshotActionLimit,
	}, log)

	// Reasoning provider
	provider, err := adapter.NewProvider(&adapter.Config{
		Provider: adapter.ProviderType(cfg.LLMProvider),
		APIKey:   cfg.LLMAPIKey,
		Model:    cfg.LLMModel,
		BaseURL:  cfg.LLMBaseURL,
	})
	if err != nil {
		log.Fatal("failed to initialize reasoning provider", zap.Error(err))
	}
	tracked := adapter.NewTrackedProvider(cfg.LLMProvider, provider, log)

	// Conversational session manager
	sessions := chat.NewManager(tracked, agg, chat.Config{
		HistoryTurns:    cfg.ChatHistoryTurns,
		MaxSessions:     cfg.ChatSessionMax,
		IdleTimeout:     time.Duration(cfg.ChatSessionIdleSec) * time.Second,
		ProviderTimeout: time.Duration(cfg.ProviderTimeoutSec) * time.Second,
		Settings: types.GenerationSettings{
			Model:       cfg.LLMModel,
			Temperature: 0.2,
			MaxTokens:   1024,
		},
	}, log)

	// Background agent workers
	runner := agent.NewRunner(registry, log)
	interval := time.Duration(cfg.DefaultAgentIntervalSec) * time.Second

	runner.Add(agent.Descriptor{
		Name:   "metric-collector",
		Type:   models.AgentTypeCollector,
		Config: models.AgentConfig{IntervalSeconds: cfg.DefaultAgentIntervalSec},
	}, agent.CollectorTask(repo, interval))

	detectorCfg := models.AgentConfig{IntervalSeconds: cfg.DefaultAgentIntervalSec}
	runner.AddFunc(agent.Descriptor{
		Name:   "anomaly-detector",
		Type:   models.AgentTypeDetector,
		Config: detectorCfg,
	}, func(agentID string) agent.TaskFunc {
		return agent.DetectorTask(repo, agentID, detectorCfg, wsHub)
	})

	runner.Add(agent.Descriptor{
		Name:   "remediation-recommender",
		Type:   models.AgentTypeRecommender,
		Config: models.AgentConfig{IntervalSeconds: cfg.DefaultAgentIntervalSec},
	}, agent.RecommenderTask(repo, engine))

	runner.Add(agent.Descriptor{
		Name:   "trend-predictor",
		Type:   models.AgentTypePredictor,
		Config: models.AgentConfig{IntervalSeconds: 5 * cfg.DefaultAgentIntervalSec},
	}, agent.PredictorTask(repo))

	runner.AddFunc(agent.Descriptor{
		Name:   "compliance-auditor",
		Type:   models.AgentTypeAuditor,
		Config: models.AgentConfig{IntervalSeconds: 10 * cfg.DefaultAgentIntervalSec},
	}, func(agentID string) agent.TaskFunc {
		return agent.AuditorTask(repo, auditRec, agentID)
	})

	if err := runner.Start(ctx); err != nil {
		log.Fatal("failed to start agent workers", zap.Error(err))
	}

	// HTTP router
	router := mux.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.StructuredLog(log))
	router.Use(middleware.Recover(log))

	handler := rest.NewHandler(repo, registry, engine, sessions, agg, tracked, log)
	wsHandler := websocket.NewHandler(ctx, wsHub, log)
	rest.SetupRoutes(router, handler, wsHandler)

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      c.Handler(router),
		ReadTimeout:  time.Duration(cfg.RequestTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.RequestTimeoutSec) * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")

	// Stop background work first so in-flight transitions settle
	cancel()
	runner.Wait()
	wsHub.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownTimeoutSec)*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("server forced to shutdown", zap.Error(err))
	}

	log.Info("server exited")
}
