package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/clinicops/clinic-assistant/internal/api/router"
	"github.com/clinicops/clinic-assistant/internal/chat"
	"github.com/clinicops/clinic-assistant/internal/command"
	appconfig "github.com/clinicops/clinic-assistant/internal/config"
	"github.com/clinicops/clinic-assistant/internal/conversation"
	"github.com/clinicops/clinic-assistant/internal/knowledge"
	"github.com/clinicops/clinic-assistant/internal/observability/metrics"
	"github.com/clinicops/clinic-assistant/internal/schedule"
	"github.com/clinicops/clinic-assistant/pkg/logging"
)

func main() {
	// Local development reads a .env file; deployed environments set real vars.
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting clinic-assistant API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	store, err := schedule.NewStore(cfg.WorkbookPath, logger)
	if err != nil {
		logger.Error("failed to open schedule workbook", "path", cfg.WorkbookPath, "error", err)
		os.Exit(1)
	}

	chatMetrics := metrics.NewChatMetrics(prometheus.DefaultRegisterer)

	var searcher command.KnowledgeSearcher
	if cfg.QdrantURL != "" {
		embedder := knowledge.NewOllamaEmbedder(cfg.OllamaBaseURL, cfg.EmbeddingModel)
		searcher = knowledge.NewQdrantSearcher(cfg.QdrantURL, cfg.QdrantAPIKey, cfg.QdrantCollection, embedder,
			knowledge.WithLogger(logger))
	} else {
		logger.Warn("QDRANT_URL not set, knowledge search disabled")
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	defer redisClient.Close()
	historyStore := conversation.NewHistoryStore(redisClient)

	gemini, err := conversation.NewGeminiLLMClient(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		logger.Error("failed to create gemini client", "error", err)
		os.Exit(1)
	}
	defer gemini.Close()

	executor := command.NewExecutor(store, searcher, command.ExecutorConfig{
		RetrievalK:     cfg.RetrievalK,
		ScoreThreshold: cfg.RAGScoreThreshold,
		Logger:         logger,
		Metrics:        chatMetrics,
	})

	clinicInfo := conversation.ClinicInfo{
		CenterName:     cfg.CenterName,
		CenterPhone:    cfg.CenterPhone,
		CenterLocation: cfg.CenterLocation,
		WeekdayHours:   cfg.WeekdayHours,
		SaturdayHours:  cfg.SaturdayHours,
		SundayHours:    cfg.SundayHours,
		TherapyPhone:   cfg.TherapyPhone,
		TherapyEmail:   cfg.TherapyEmail,
	}

	service := conversation.NewService(gemini, executor, historyStore, conversation.ServiceConfig{
		Model:       cfg.GeminiModel,
		Temperature: float32(cfg.GeminiTemperature),
		MaxTokens:   int32(cfg.GeminiMaxTokens),
		Clinic:      clinicInfo,
		Logger:      logger,
		Metrics:     chatMetrics,
	})

	chatHandler := chat.NewHandler(service, store, clinicInfo, logger)

	r := router.New(&router.Config{
		Logger:             logger,
		ChatHandler:        chatHandler,
		MetricsHandler:     promhttp.Handler(),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}
