package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/reelway/media-server-go/internal/config"
	"github.com/reelway/media-server-go/internal/database"
	"github.com/reelway/media-server-go/internal/handler"
	"github.com/reelway/media-server-go/internal/jobs"
	"github.com/reelway/media-server-go/internal/middleware"
	"github.com/reelway/media-server-go/internal/redis"
	"github.com/reelway/media-server-go/internal/repository"
	"github.com/reelway/media-server-go/internal/service"
	"github.com/reelway/media-server-go/internal/signer"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	setLogLevel(cfg.LogLevel)

	isProduction := os.Getenv("FLY_APP_NAME") != ""
	if err := cfg.Validate(isProduction); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), config.DBPingTimeout)
	if err := db.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ping database")
	}
	cancel()
	log.Info().Msg("database connected")

	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected")

	pairingRepo := repository.NewDevicePairingRepository(db.DB)
	userRepo := repository.NewUserRepository(db.DB)
	videoRepo := repository.NewVideoRepository(db.DB)
	subscriptionRepo := repository.NewSubscriptionRepository(db.DB)

	sessionService := service.NewSessionService(cfg.SessionJWTSecret, cfg.SessionTTL())
	pairingService := service.NewPairingService(pairingRepo, userRepo, sessionService)
	entitlementService := service.NewEntitlementService(subscriptionRepo)
	playbackService := service.NewPlaybackService(
		videoRepo, entitlementService,
		signer.New(cfg.PlaybackSigningKey),
		cfg.MediaOriginURL, cfg.PlaybackTokenTTL(),
	)

	rateLimiter := service.NewRateLimiter(redisClient.Client)

	authMiddleware := middleware.NewAuthMiddleware(sessionService, userRepo)
	userRateLimit := middleware.NewUserRateLimitMiddleware(rateLimiter, config.DefaultRateLimitPerMin)
	pairRateLimit := middleware.NewIPRateLimitMiddleware(rateLimiter, config.PairRequestLimitPerMin, time.Minute, "pair")
	pollRateLimit := middleware.NewIPRateLimitMiddleware(rateLimiter, config.PollLimitPerMin, time.Minute, "poll")
	activateLimiter := middleware.NewActivateRateLimiter()
	bodyLimitMiddleware := middleware.NewBodyLimitMiddleware(0)
	securityHeadersMiddleware := middleware.NewSecurityHeadersMiddleware(isProduction)

	pairingHandler := handler.NewPairingHandler(pairingService)
	playbackHandler := handler.NewPlaybackHandler(playbackService)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))
	r.Use(bodyLimitMiddleware.Handler)
	r.Use(securityHeadersMiddleware.Handler)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"status":    "ok",
			"timestamp": time.Now().UnixMilli(),
		})
	})

	r.Route("/v1/pair", func(r chi.Router) {
		r.With(pairRateLimit.Handler).Post("/", pairingHandler.RequestPair)
		r.With(pollRateLimit.Handler).Post("/poll", pairingHandler.Poll)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.RequireUser)
			r.Use(activateLimiter.Handler)
			r.Post("/activate", pairingHandler.Activate)
		})
	})

	r.Route("/v1/videos", func(r chi.Router) {
		r.Use(authMiddleware.OptionalUser)
		r.Use(userRateLimit.Handler)
		r.Get("/{videoID}/playback-url", playbackHandler.CreatePlaybackURL)
	})

	// Redemption stays unauthenticated and skips the Redis limiter: the
	// signature is the access control, and this path must hold up under
	// every player fetch.
	r.Get("/play/{playbackID}", playbackHandler.Play)

	cleanupJob := jobs.NewCleanupJob(pairingRepo, config.CleanupJobInterval)
	cleanupJob.Start()
	defer cleanupJob.Stop()

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: config.ServerWriteTimeout,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
