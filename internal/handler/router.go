package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/foundernet/chat-server-go/internal/config"
	"github.com/foundernet/chat-server-go/internal/middleware"
	"github.com/foundernet/chat-server-go/internal/realtime"
	"github.com/foundernet/chat-server-go/internal/service"
)

type RouterDeps struct {
	AuthService      *service.AuthService
	SessionValidator *service.SessionValidator
	MessageService   *service.MessageService
	ProfileService   *service.ProfileService
	Registry         *realtime.Registry

	// MessageLimiter throttles message posting per identity.
	MessageLimiter   middleware.Checker
	MessageRateLimit int
	// AuthLimiter throttles the public auth endpoints per client address.
	// Nil disables it.
	AuthLimiter service.Limiter

	DBPing       PingFunc
	RedisPing    PingFunc
	IsProduction bool
}

// NewRouter wires middleware and routes. The WebSocket route sits outside
// the request timeout and body limit.
func NewRouter(deps RouterDeps) http.Handler {
	sessionMiddleware := middleware.NewSessionMiddleware(deps.SessionValidator)
	bodyLimitMiddleware := middleware.NewBodyLimitMiddleware(0)
	corsMiddleware := middleware.NewCORSMiddleware(deps.IsProduction)

	protect := []func(http.Handler) http.Handler{sessionMiddleware.Handler}
	if deps.MessageLimiter != nil {
		protect = append(protect, middleware.NewRateLimitMiddleware(deps.MessageLimiter, deps.MessageRateLimit).Handler)
	}

	authHandler := NewAuthHandler(deps.AuthService, deps.ProfileService)
	profileHandler := NewProfileHandler(deps.ProfileService)
	messageHandler := NewMessageHandler(deps.MessageService, protect...)
	streamHandler := NewStreamHandler(deps.Registry, deps.MessageService, deps.SessionValidator)
	healthHandler := NewHealthHandler(deps.DBPing, deps.RedisPing, deps.Registry)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(corsMiddleware.Handler)

	r.Get("/health", healthHandler.ServeHTTP)
	r.Get("/ws/rooms/{roomId}", streamHandler.ServeHTTP)

	r.Route("/api", func(r chi.Router) {
		r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))
		r.Use(bodyLimitMiddleware.Handler)

		r.Route("/auth", func(r chi.Router) {
			if deps.AuthLimiter != nil {
				r.Use(middleware.NewIPRateLimitMiddleware(deps.AuthLimiter, config.AuthIPLimit, config.CodeLimitWindow, "auth").Handler)
			}
			r.Mount("/", authHandler.Routes())
		})

		r.With(sessionMiddleware.Handler).Get("/me", authHandler.Me)

		r.Mount("/profiles", profileHandler.Routes())
		r.Mount("/rooms/{roomId}/messages", messageHandler.Routes())
	})

	return r
}
