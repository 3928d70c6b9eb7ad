package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"opennotes-gateway/internal/app"
	"opennotes-gateway/internal/config"
	"opennotes-gateway/internal/domain"
	"opennotes-gateway/internal/infra/memory"
	pgstore "opennotes-gateway/internal/infra/postgres"
	redisstore "opennotes-gateway/internal/infra/redis"
	transport "opennotes-gateway/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the gateway.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the gateway server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	// Quiz store: durable JSONB documents when postgres is configured, the
	// in-memory map with seed content otherwise. Everything downstream sees
	// the same interface either way.
	var quizStore app.QuizStore
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		quizStore = pgstore.NewQuizStore(pool)
	} else {
		quizStore = memory.NewQuizStoreWithSeed(seedQuizzes())
	}
	cacheTTL := config.TTLDuration(cfg.Quiz.CacheTTL, 10*time.Minute)
	quizStore = memory.NewQuizCache(quizStore, cacheTTL)

	// Rate windows and auth codes live in redis when available so several
	// warm instances share quota counters and codes; otherwise in process.
	var windowStore app.WindowStore
	var codeStore app.CodeStore
	if redisClient != nil {
		windowStore = redisstore.NewRateStore(redisClient)
		codeStore = redisstore.NewCodeStore(redisClient)
	} else {
		windowStore = memory.NewRateStore()
		codeStore = memory.NewCodeStore()
	}

	window := config.TTLDuration(cfg.RateLimit.Window, time.Minute)
	limiter := app.NewRateLimiter(windowStore, window, cfg.RateLimit.DefaultLimit)

	codeTTL := config.TTLDuration(cfg.Auth.CodeTTL, 5*time.Minute)
	issueOrigins := app.NewOriginPolicy(append(cfg.Origins.IssueAllowlist, cfg.Origins.Frontend...))
	broker := app.NewCodeBroker(codeStore, issueOrigins, cfg.Auth.DesktopSecret, codeTTL)

	callers := app.NewTokenValidator(registeredCallers(cfg))
	authorizer := app.NewAuthorizer(cfg.Auth.AdminToken, cfg.Auth.SessionToken, callers)
	frontendOrigins := app.NewOriginPolicy(cfg.Origins.Frontend)

	upstreamTimeout := config.TTLDuration(cfg.Upstream.Timeout, 10*time.Second)
	proxy := transport.NewUpstreamProxy(cfg.Upstream.BaseURL, cfg.Upstream.APIKey, cfg.Upstream.Origin, upstreamTimeout)

	quizService := app.NewQuizService(quizStore)
	handler := transport.NewHandler(quizService, broker, limiter, authorizer, callers, frontendOrigins, cfg.RateLimit.FrontendLimit, proxy)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      handler.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting gateway on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func registeredCallers(cfg config.Config) []domain.Caller {
	callers := make([]domain.Caller, 0, len(cfg.Callers))
	for _, entry := range cfg.Callers {
		callers = append(callers, domain.Caller{
			ID:          entry.ID,
			Secret:      entry.Secret,
			Active:      entry.IsActive(),
			RateLimit:   entry.RateLimit,
			DisplayName: entry.DisplayName,
			Owner:       entry.Owner,
		})
	}
	return callers
}

// seedQuizzes provides fixed-id starter content for the in-memory backend.
func seedQuizzes() []domain.Quiz {
	answerFalse := false
	return []domain.Quiz{
		{
			ID:            "quiz-getting-started",
			SchemaVersion: 1,
			Title:         "Getting Started",
			Subject:       "General",
			Topic:         "Onboarding",
			Tags:          []string{"sample"},
			Author:        "system",
			CreatedAt:     time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			UpdatedAt:     time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			Questions: []domain.Question{
				{
					ID:             "q1",
					Type:           domain.KindMCQ,
					Question:       "Which route lists stored quizzes?",
					Options:        []string{"/api/quizzes", "/api/health", "/auth/code"},
					CorrectAnswers: []int{0},
					Points:         1,
				},
				{
					ID:            "q2",
					Type:          domain.KindTrueFalse,
					Question:      "Combined quizzes are persisted.",
					CorrectAnswer: &answerFalse,
					Points:        1,
				},
			},
		},
	}
}
