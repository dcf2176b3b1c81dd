package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/foundernet/chat-server-go/internal/config"
	"github.com/foundernet/chat-server-go/internal/database"
	"github.com/foundernet/chat-server-go/internal/email"
	"github.com/foundernet/chat-server-go/internal/handler"
	"github.com/foundernet/chat-server-go/internal/middleware"
	"github.com/foundernet/chat-server-go/internal/realtime"
	"github.com/foundernet/chat-server-go/internal/redis"
	"github.com/foundernet/chat-server-go/internal/repository"
	"github.com/foundernet/chat-server-go/internal/service"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	setLogLevel(cfg.LogLevel)

	isProduction := os.Getenv("FLY_APP_NAME") != "" || os.Getenv("APP_ENV") == "production"
	if err := cfg.Validate(isProduction); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	var (
		codeRepo    repository.AuthCodeRepository
		sessionRepo repository.SessionRepository
		messageRepo repository.MessageRepository
		profileRepo repository.ProfileRepository
		dbPing      handler.PingFunc
	)

	if cfg.DatabaseURL != "" {
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

		if cfg.RunMigrations {
			if err := db.Migrate(); err != nil {
				log.Fatal().Err(err).Msg("failed to run migrations")
			}
		}

		codeRepo = repository.NewAuthCodeRepository(db.DB)
		sessionRepo = repository.NewSessionRepository(db.DB)
		messageRepo = repository.NewMessageRepository(db.DB)
		profileRepo = repository.NewProfileRepository(db.DB)
		dbPing = db.Ping
	} else {
		log.Warn().Msg("DATABASE_URL not set, using in-memory store")
		store := repository.NewMemoryStore()
		codeRepo = store.AuthCodes()
		sessionRepo = store.Sessions()
		messageRepo = store.Messages()
		profileRepo = store.Profiles()
	}

	var (
		authLimiter    service.Limiter
		messageLimiter middleware.Checker = middleware.NewRateLimiter()
		redisPing      handler.PingFunc
	)

	if cfg.RedisURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), config.DBPingTimeout)
		redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
		cancel()
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
		log.Info().Msg("redis connected")

		authLimiter = service.NewRateLimiter(redisClient.Client)
		messageLimiter = middleware.NewRedisRateLimiter(redisClient.Client)
		redisPing = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}

	var sender service.CodeSender = service.LogCodeSender{}
	if mailer := email.NewClient(cfg.PostmarkServerToken, cfg.MailFrom); mailer.Configured() {
		sender = mailer
		log.Info().Str("from", cfg.MailFrom).Msg("login codes delivered via postmark")
	}

	registry := realtime.NewRegistry()

	authService := service.NewAuthService(codeRepo, sessionRepo, profileRepo, sender, authLimiter, service.AuthConfig{
		CodeTTL:      cfg.CodeTTL(),
		SessionTTL:   cfg.SessionTTL(),
		DemoMode:     cfg.DemoMode,
		RequestLimit: cfg.CodeRequestLimit,
		VerifyLimit:  cfg.CodeVerifyLimit,
	})
	sessionValidator := service.NewSessionValidator(sessionRepo, cfg.AuthStoreFallback)
	messageService := service.NewMessageService(messageRepo, registry)
	profileService := service.NewProfileService(profileRepo, cfg.InviteCode)

	if cfg.DemoMode {
		log.Warn().Msg("DEMO_MODE enabled: login codes are returned in API responses")
	}

	r := handler.NewRouter(handler.RouterDeps{
		AuthService:      authService,
		SessionValidator: sessionValidator,
		MessageService:   messageService,
		ProfileService:   profileService,
		Registry:         registry,
		MessageLimiter:   messageLimiter,
		MessageRateLimit: cfg.MessageRateLimitPerMin,
		AuthLimiter:      authLimiter,
		DBPing:           dbPing,
		RedisPing:        redisPing,
		IsProduction:     isProduction,
	})

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: 0,
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

	// Hijacked stream connections are not tracked by Shutdown.
	registry.Close()

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
