// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"quiz-ai-platform/internal/config"
	"quiz-ai-platform/internal/domain/ports/adapter"
	aiAdapters "quiz-ai-platform/internal/infra/adapters/ai"
	payAdapters "quiz-ai-platform/internal/infra/adapters/payment"
	pg "quiz-ai-platform/internal/infra/db/postgres"
	"quiz-ai-platform/internal/infra/logging"
	"quiz-ai-platform/internal/infra/metrics"
	red "quiz-ai-platform/internal/infra/redis"
	"quiz-ai-platform/internal/infra/sched"
	"quiz-ai-platform/internal/infra/web"
	"quiz-ai-platform/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (bypass some flows)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("developer mode enabled")
	}

	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, int32(cfg.Database.PoolSize))
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()
	txManager := pg.NewTxManager(pool)

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	defer redisClient.Close()
	rateLimiter := red.NewRateLimiter(redisClient)

	// ---- Repositories ----
	userRepo := pg.NewUserRepo(pool)
	planRepo := pg.NewPlanRepoCacheDecorator(pg.NewPlanRepo(pool), redisClient, cfg.Redis.TTL)
	subRepo := pg.NewSubscriptionRepo(pool)
	eventRepo := pg.NewBillingEventRepo(pool)
	chatRepo := pg.NewChatSessionRepo(pool)

	// ---- Billing gateway ----
	var gateway adapter.BillingGateway
	if cfg.Runtime.Dev {
		gateway = payAdapters.NewNoopBillingGateway()
		logger.Warn().Msg("billing gateway: noop")
	} else {
		gateway, err = payAdapters.NewStripeGateway(cfg.Billing.Stripe.SecretKey, cfg.Billing.Stripe.WebhookSecret)
		if err != nil {
			logger.Fatal().Err(err).Msg("stripe gateway")
		}
	}

	// ---- AI adapter ----
	var ai adapter.AIServiceAdapter
	switch {
	case cfg.AI.Provider == "gemini" && cfg.AI.GeminiKey != "":
		ai, err = aiAdapters.NewGeminiAdapter(ctx, cfg.AI.GeminiKey, cfg.AI.DefaultModel)
		if err != nil {
			logger.Fatal().Err(err).Msg("gemini adapter")
		}
	case cfg.AI.OpenAIKey != "":
		ai, err = aiAdapters.NewOpenAIAdapter(cfg.AI.OpenAIKey, cfg.AI.DefaultModel)
		if err != nil {
			logger.Fatal().Err(err).Msg("openai adapter")
		}
	case cfg.Runtime.Dev:
		ai = aiAdapters.NewNoopAIAdapter()
		logger.Warn().Msg("ai adapter: noop")
	default:
		logger.Fatal().Msg("no AI provider configured: set ai.openai_key or ai.gemini_key")
	}

	// ---- Use cases ----
	userUC := usecase.NewUserUseCase(userRepo)
	planUC := usecase.NewPlanUseCase(planRepo)
	subUC := usecase.NewSubscriptionUseCase(subRepo, userRepo, logger)
	webhookUC := usecase.NewWebhookUseCase(planRepo, subRepo, userRepo, eventRepo, txManager, logger)
	billingUC := usecase.NewBillingUseCase(userRepo, planRepo, gateway,
		cfg.Billing.Stripe.SuccessURL, cfg.Billing.Stripe.CancelURL, logger)
	chatUC := usecase.NewChatUseCase(chatRepo, ai, subUC, cfg.Runtime.Dev)

	// ---- HTTP server ----
	auth := web.NewAuthManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	srv := web.NewServer(planUC, userUC, subUC, billingUC, webhookUC, chatUC,
		gateway, auth, rateLimiter, cfg.RateLimit.ChatPerMinute, cfg.Admin.APIKey, logger)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: srv.Router(cfg.Server.RequestTimeout),
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	// ---- Expiry worker ----
	worker := sched.NewExpiryWorker(cfg.Scheduler.ExpiryInterval, subUC, logger)
	go func() { _ = worker.Run(ctx) }()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
}
