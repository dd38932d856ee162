// Soba answers questions in Slack threads. Incoming mentions are planned
// into tasks, executed by web-search and general-answer agents in parallel,
// and synthesized into one reply.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/soba-ai/soba/pkg/agent"
	"github.com/soba-ai/soba/pkg/agent/orchestrator"
	"github.com/soba-ai/soba/pkg/config"
	"github.com/soba-ai/soba/pkg/database"
	"github.com/soba-ai/soba/pkg/llm/openai"
	"github.com/soba-ai/soba/pkg/repository"
	"github.com/soba-ai/soba/pkg/search/google"
	"github.com/soba-ai/soba/pkg/slackbot"
	"github.com/soba-ai/soba/pkg/usecase"
	"github.com/soba-ai/soba/pkg/version"
)

func main() {
	envPath := flag.String("env-file", ".env", "Path to the .env file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	slog.Info("Starting soba", "version", version.Full())

	cfg, err := config.Load(*envPath)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// 1. Database
	dbConfig, err := database.LoadConfigFromEnv()
	if err != nil {
		slog.Error("Failed to load database config", "error", err)
		os.Exit(1)
	}
	dbClient, err := database.NewClient(ctx, dbConfig)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			slog.Error("Error closing database client", "error", err)
		}
	}()
	slog.Info("Connected to PostgreSQL database")

	sessions := repository.NewPostgresChatSessionRepository(dbClient.DB())
	feedbacks := repository.NewPostgresFeedbackRepository(dbClient.DB())

	// 2. LLM and search clients
	llmClient, err := openai.NewFromAPIKey(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAITemperature)
	if err != nil {
		slog.Error("Failed to initialize LLM client", "error", err)
		os.Exit(1)
	}
	searchClient := google.New(cfg.GoogleSearchAPIKey, cfg.GoogleSearchEngineID, logger)

	// 3. Agent services and workflow
	webSearchAgent := orchestrator.NewWebSearchAgent(
		agent.NewQueryGenerator(llmClient),
		agent.NewTaskResultGenerator(llmClient),
		agent.NewEvaluator(llmClient),
		searchClient,
		logger,
	)
	generalAnswerAgent := orchestrator.NewGeneralAnswerAgent(agent.NewGeneralAnswerer(llmClient), logger)

	workflow := orchestrator.NewWorkflow(
		agent.NewPlanner(llmClient),
		agent.NewFinalAnswerer(llmClient),
		[]orchestrator.TaskAgent{webSearchAgent, generalAnswerAgent},
		cfg.MaxConcurrentWorkflows,
		logger,
	)

	// 4. Use cases and Slack endpoint
	answerUseCase := usecase.NewAnswerUseCase(workflow, sessions, logger)
	feedbackUseCase := usecase.NewFeedbackUseCase(feedbacks, logger)

	slackClient := slackbot.NewClient(cfg.SlackBotToken, logger)
	handler := slackbot.NewHandler(
		answerUseCase,
		feedbackUseCase,
		slackClient,
		cfg.SlackSigningSecret,
		cfg.SlackBotUserID,
		logger,
	)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	handler.RegisterRoutes(router)
	router.GET("/health", func(c *gin.Context) {
		status, err := database.Health(c.Request.Context(), dbClient.DB())
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, status)
	})

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
	}

	// 5. Start HTTP server (non-blocking)
	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// 6. Wait for shutdown signal or server error
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	select {
	case sig := <-sigCh:
		slog.Info("Shutdown signal received", "signal", sig)
	case err := <-errCh:
		slog.Error("Server error triggered shutdown", "error", err)
	}

	// 7. Graceful shutdown; in-flight answer turns get a grace period.
	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("Shutdown complete")
}
