package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"

	"summatube/api-gateway/config"
	_ "summatube/api-gateway/docs"
	"summatube/api-gateway/handlers"
	"summatube/api-gateway/internal/aiclient"
	"summatube/api-gateway/internal/auth"
	"summatube/api-gateway/internal/credits"
	"summatube/api-gateway/internal/pipeline"
	"summatube/api-gateway/internal/ratelimit"
	"summatube/api-gateway/internal/transcript"
	"summatube/api-gateway/middleware"
	"summatube/api-gateway/utils"
)

// @title YouTube Summary API
// @version 1.0
// @description Summarizes YouTube videos from their transcripts, gated by per-account credits.
// @BasePath /
func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := config.InitLogger(cfg.Log)

	// Transcript provider
	if cfg.Transcript.APIKey == "" {
		logger.Warn("SUPADATA_API_KEY is not set; transcript requests will fail")
	}
	transcripts := transcript.NewClient(transcript.Config{
		BaseURL: cfg.Transcript.BaseURL,
		APIKey:  cfg.Transcript.APIKey,
		Timeout: cfg.Transcript.Timeout,
	}, nil, logger)

	// Summarizer
	backend, err := aiclient.NewBackend(cfg.Summarizer.Provider, cfg.Summarizer.Model, cfg.Summarizer.BaseURL)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create summarizer backend")
	}
	keys, err := aiclient.NewKeyPool(cfg.Summarizer.APIKeys, cfg.Summarizer.MinInterval)
	if err != nil {
		logger.WithError(err).Warn("No summarizer API keys configured; summaries will fail")
	} else {
		logger.WithFields(logrus.Fields{
			"provider": backend.Name(),
			"keys":     keys.Len(),
		}).Info("Summarizer configured")
	}
	summarizer := aiclient.NewSummarizer(backend, keys, aiclient.NewSummaryCache(cfg.Summarizer.CacheTTL), aiclient.Options{
		MaxTranscriptChars: cfg.Summarizer.MaxTranscriptChars,
		Language:           cfg.Summarizer.Language,
		Timeout:            cfg.Summarizer.Timeout,
	}, logger)
	defer summarizer.Close()

	summaries := pipeline.New(transcripts, summarizer, pipeline.Options{
		Timeout: cfg.Pipeline.Timeout,
		Titles:  cfg.Summarizer.Titles,
		OnTransition: func(videoID string, from, to pipeline.State, err error) {
			logger.WithFields(logrus.Fields{
				"video_id": videoID,
				"from":     from.String(),
				"to":       to.String(),
			}).Debug("Pipeline state change")
		},
	}, logger)

	h := handlers.NewApplicationHandler(summaries, transcripts, logger)

	// Accounts
	if cfg.Supabase.Configured() {
		client, err := config.NewSupabaseClient(cfg.Supabase, logger)
		if err != nil {
			logger.WithError(err).Fatal("Failed to initialize Supabase")
		}
		authService := auth.NewService(client.Auth, logger)
		gate := credits.NewGate(credits.NewSupabaseStore(client), authService, cfg.Credits.MaxAttempts, logger)
		h.WithAccounts(gate, authService, cfg.Credits.Enabled)
	} else {
		logger.Warn("Supabase is not configured; auth endpoints are disabled and summaries are free")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var rateLimit fiber.Handler
	if cfg.RateLimit.Enabled {
		store := ratelimit.NewStore()
		go store.RunSweeper(ctx, cfg.RateLimit.SweepInterval)
		rateLimit = middleware.RateLimit(middleware.RateLimitConfig{
			Max:     cfg.RateLimit.Max,
			Window:  cfg.RateLimit.Window(),
			Storage: store,
		}, logger)
	}

	app := fiber.New(fiber.Config{
		AppName:      "summatube-api-gateway",
		ErrorHandler: utils.ErrorHandler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.AllowOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(middleware.RequestLogger(logger))

	handlers.RegisterRoutes(app, h, rateLimit)

	go func() {
		logger.WithField("addr", cfg.Server.Addr()).Info("Starting API Gateway")
		if err := app.Listen(cfg.Server.Addr()); err != nil {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server...")

	if err := app.ShutdownWithTimeout(cfg.Server.ShutdownTimeout); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}
	logger.Info("Server stopped")
}
