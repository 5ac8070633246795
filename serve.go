package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"jepet/config"
	"jepet/cron"
	"jepet/database"
	"jepet/handlers"
	"jepet/middleware"
	"jepet/routes"
	"jepet/services/clinic"
	"jepet/services/identity"
	ai "jepet/services/intelligence"
	"jepet/services/localcache"
	"jepet/services/payment"
	"jepet/services/session"
	"jepet/services/tasks"
	"jepet/utils"

	firebase "firebase.google.com/go/v4"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const healthInterval = 30 * time.Second

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, the clinic desk and the idle-session janitor",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, utils.GetLogger())
		},
	}
}

func serve(ctx context.Context, logger *zap.Logger) error {
	cfg := config.AppConfig
	loc := config.ClinicLocation()
	memory := cfg.DocumentStore == "memory"

	var app *firebase.App
	if !memory {
		var err error
		if app, err = utils.FirebaseInit(ctx); err != nil {
			return fmt.Errorf("serve: %w", err)
		}
	}

	stores, err := database.Open(ctx, app)
	if err != nil {
		return fmt.Errorf("serve: failed to open document store: %w", err)
	}

	var deps session.Deps
	var redisClients []*redis.Client
	if memory {
		logger.Warn("serve: DOCUMENT_STORE=memory, nothing survives a restart")
		deps = session.MemoryDeps(logger, cfg.CheckoutDelay)
		deps.Profiles, deps.Orders, deps.Appointments = stores.Profiles, stores.Orders, stores.Appointments
	} else {
		backend, err := identity.NewFirebaseBackend(ctx, app, cfg.FirebaseWebAPIKey)
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		cache := utils.GetCacheClient()
		redisClients = append(redisClients, cache)

		queue := tasks.NewAsynqQueue(cron.RedisOpt())
		defer queue.Close()

		deps = session.Deps{
			Identity:     backend,
			Profiles:     stores.Profiles,
			Orders:       stores.Orders,
			Appointments: stores.Appointments,
			Cache:        localcache.NewRedisCache(cache, localcache.DefaultTTL),
			Payments:     payment.NewSimulator(logger, cfg.CheckoutDelay),
			Reminders:    tasks.NewReminderScheduler(queue, cfg.ReminderLead, loc, logger),
			Logger:       logger,
		}
	}
	deps.Location = loc

	registry := session.NewRegistry(deps, cfg.SessionIdleTimeout)
	sweepEvery := cfg.SessionIdleTimeout / 2
	if sweepEvery < time.Minute {
		sweepEvery = time.Minute
	}
	go registry.RunJanitor(ctx, sweepEvery)

	desk := clinic.NewDesk(stores.Appointments, loc, logger)
	if err := desk.Start(cfg.DeskSchedule); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	defer desk.Stop()

	utils.StartHealthMonitor(ctx, healthInterval, redisClients, database.MongoClient)

	aiHandler, closeAI := buildAI(ctx, logger, memory)
	defer closeAI()

	hb := handlers.NewHandlerBundle(
		middleware.DeviceSessionMiddleware(registry),
		middleware.RateLimitMiddleware(cfg.MaxRequestsPerMin),
		handlers.NewSessionHandler(cfg.DeviceTokenTTL, logger),
		handlers.NewAuthHandler(logger),
		handlers.NewStorefrontHandler(logger),
		aiHandler,
	)

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RequestLogger(logger))
	routes.RegisterRoutes(router, hb)

	srv := &http.Server{
		Addr:    "0.0.0.0:" + cfg.AppPort,
		Handler: router,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Sugar().Infof("Starting server on %s...", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("serve: server failed to start: %w", err)
		}
	case <-ctx.Done():
	}
	logger.Info("serve: server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("serve: server forced to shutdown", zap.Error(err))
	}
	if err := registry.CloseAll(shutdownCtx); err != nil {
		logger.Warn("serve: pending writes abandoned", zap.Error(err))
	}
	if err := stores.Close(shutdownCtx); err != nil {
		logger.Warn("serve: failed to close document store", zap.Error(err))
	}
	logger.Info("serve: server stopped gracefully")
	return nil
}

// buildAI wires the AI widget when GEMINI_API_KEY is set. The returned func
// releases the model clients.
func buildAI(ctx context.Context, logger *zap.Logger, memory bool) (*handlers.AIHandler, func()) {
	cfg := config.AppConfig
	if cfg.GeminiAPIKey == "" {
		logger.Warn("buildAI: GEMINI_API_KEY not set, AI widget disabled")
		return nil, func() {}
	}

	advisor, err := ai.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiAdviceModel)
	if err != nil {
		logger.Error("buildAI: advice model unavailable", zap.Error(err))
		return nil, func() {}
	}
	closers := []func() error{advisor.Close}

	editor, err := ai.NewGenAIImageEditor(ctx, cfg.GeminiAPIKey, cfg.GeminiImageModel)
	if err != nil {
		logger.Error("buildAI: image model unavailable", zap.Error(err))
		_ = advisor.Close()
		return nil, func() {}
	}

	var opts ai.Options
	if transcriber, err := ai.NewSpeechTranscriber(ctx, credentialsFile()); err != nil {
		logger.Warn("buildAI: voice questions disabled", zap.Error(err))
	} else {
		opts.Transcriber = transcriber
		closers = append(closers, transcriber.Close)
	}
	if !memory {
		opts.Cache = ai.NewRedisAdviceCache(utils.GetCacheClient(), cfg.AdviceCacheTTL)
	}
	images, err := utils.Cloudinary()
	if err != nil {
		logger.Warn("buildAI: image hosting disabled", zap.Error(err))
	} else if images != nil {
		opts.Images = images
	}

	svc := ai.NewService(advisor, editor, opts, logger)
	return handlers.NewAIHandler(svc, logger), func() {
		for _, c := range closers {
			if err := c(); err != nil {
				logger.Warn("buildAI: failed to close model client", zap.Error(err))
			}
		}
	}
}

func credentialsFile() string {
	path := config.AppConfig.FirebaseCredentialsFile
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}
