package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/clock"
	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/config"
	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/drafts"
	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/evaluation"
	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/handlers"
	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/integrity"
	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/jobs"
	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/llm"
	_ "github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/llm/gemini"
	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/models"
	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/prompts"
	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/questions"
	questionsmongo "github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/questions/mongo"
	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/report"
	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/rounds"
	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/routers"
	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/sandbox"
	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/session"
)

// Helper functions for environment variables
func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// initDatabase initializes the PostgreSQL database connection
func initDatabase() (*gorm.DB, error) {
	host := getEnv("POSTGRES_HOST", "localhost")
	user := getEnv("POSTGRES_USER", "postgres")
	password := getEnv("POSTGRES_PASSWORD", "postgres")
	dbname := getEnv("POSTGRES_DB", "postgres")
	port := getEnv("POSTGRES_PORT", "5432")
	sslmode := getEnv("POSTGRES_SSLMODE", "disable")

	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		host, user, password, dbname, port, sslmode)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(
		&models.Session{},
		&models.Round{},
		&models.Item{},
		&models.EvaluationJob{},
		&models.IntegritySignal{},
		&models.HiringReport{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}

// buildGenerator assembles the item source chain: the Mongo item bank if
// configured, then live LLM generation, then the built-in fallback bank.
func buildGenerator(ctx context.Context, provider llm.Provider, promptManager *prompts.Manager, logger *zap.Logger) questions.Generator {
	sources := make([]questions.Generator, 0, 3)

	if os.Getenv("MONGO_URI") != "" {
		client, err := questionsmongo.NewClient(ctx)
		if err != nil {
			logger.Warn("Item bank unavailable, continuing without it", zap.Error(err))
		} else if bank, err := questionsmongo.NewBank(client); err != nil {
			logger.Warn("Item bank init failed, continuing without it", zap.Error(err))
		} else {
			sources = append(sources, bank)
			logger.Info("Item bank connected")
		}
	}

	sources = append(sources, questions.NewLLMGenerator(provider, promptManager))
	sources = append(sources, questions.NewStatic())
	return questions.NewChain(logger, sources...)
}

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	logger.Info("Configuration loaded",
		zap.String("provider", cfg.Provider),
		zap.Int("eval_workers", cfg.EvalWorkers),
		zap.String("skip_policy", cfg.SkipPolicy))

	// prompt manager
	promptManager, err := prompts.NewManager()
	if err != nil {
		logger.Fatal("Failed to initialize prompt manager", zap.Error(err))
	}

	// AI provider based on configuration
	aiProvider, err := llm.NewProvider(cfg.Provider)
	if err != nil {
		logger.Fatal("Failed to initialize AI provider", zap.Error(err))
	}

	db, err := initDatabase()
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       getEnvInt("REDIS_DB", 0),
	})

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 15*time.Second)
	generator := buildGenerator(startupCtx, aiProvider, promptManager, logger)
	cancelStartup()

	// sandbox runner; coding evaluations fall back to the neutral score
	// when docker is unreachable
	var runner sandbox.Runner
	dockerRunner, err := sandbox.NewDockerRunner(sandbox.Limits{})
	if err != nil {
		logger.Warn("Sandbox unavailable, coding tests will not execute", zap.Error(err))
	} else {
		runner = dockerRunner
	}

	clk := clock.Real()
	grader := evaluation.NewLLMGrader(aiProvider, promptManager, runner, cfg.CodingPassWeight)
	dispatcher := evaluation.NewDispatcher(db, clk, grader, evaluation.Config{
		Workers:      cfg.EvalWorkers,
		MaxAttempts:  cfg.EvalMaxAttempts,
		BackoffBase:  cfg.EvalBackoffBase,
		NeutralScore: cfg.NeutralScore,
		SkipPolicy:   cfg.SkipPolicy,
	}, logger)
	dispatcher.Start()

	roundSvc := rounds.NewService(db, clk, generator, dispatcher, cfg.Rounds, logger)
	recorder := integrity.NewRecorder(db)
	reportStore := report.NewStore(db)
	orchestrator := session.NewOrchestrator(db, roundSvc, recorder, reportStore, cfg, logger)
	draftStore := drafts.NewStore(redisClient, cfg.DraftTTL)

	sessionHandler := handlers.NewSessionHandler(orchestrator, logger)
	endpoints := routers.Handlers{
		Sessions:    sessionHandler,
		Rounds:      handlers.NewRoundHandler(orchestrator, sessionHandler, draftStore, logger),
		Evaluations: handlers.NewEvaluationHandler(orchestrator, sessionHandler, dispatcher, logger),
		Drafts:      handlers.NewDraftHandler(orchestrator, sessionHandler, draftStore, logger),
		Integrity:   handlers.NewIntegrityHandler(sessionHandler, recorder, logger),
		Reports:     handlers.NewReportHandler(sessionHandler, reportStore, logger),
	}
	healthHandler := handlers.NewHealthHandler(db, redisClient, aiProvider)

	// recover jobs orphaned by an unclean shutdown
	if err := dispatcher.RequeueStale(context.Background(), time.Minute); err != nil {
		logger.Error("Failed to requeue stale evaluation jobs", zap.Error(err))
	}

	sweeper := jobs.NewSweeper(orchestrator, dispatcher, jobs.SweeperConfig{
		Schedule: getEnv("SWEEP_SCHEDULE", "@every 15s"),
	}, logger)
	if err := sweeper.Start(); err != nil {
		logger.Fatal("Failed to start sweeper", zap.Error(err))
	}

	router := chi.NewRouter()

	// cors middleware
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{getEnv("CORS_ORIGIN", "http://localhost:5173")},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	router.Use(chimiddleware.RequestID, chimiddleware.RealIP, chimiddleware.Logger, chimiddleware.Recoverer, chimiddleware.Timeout(60*time.Second))

	routers.HealthRoutes(router, healthHandler)
	routers.InterviewRoutes(router, endpoints, getEnv("JWT_SECRET", "dev-secret"))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	serverAddr := ":" + port

	// http server with timeouts
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// starting server in a goroutine
	go func() {
		logger.Info("Interview service starting", zap.String("addr", serverAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	// wait for interrupt signal to gracefully shutdown the server
	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)
	<-shutdownChan

	logger.Info("Interview service shutting down...")

	sweeper.Stop()
	dispatcher.Stop()

	// graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("Interview service exited")
}
