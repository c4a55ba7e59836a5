package web

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"quiz-ai-platform/internal/domain/ports/adapter"
	"quiz-ai-platform/internal/infra/logging"
	red "quiz-ai-platform/internal/infra/redis"
	"quiz-ai-platform/internal/usecase"
)

type Server struct {
	planUC    usecase.PlanUseCase
	userUC    usecase.UserUseCase
	subUC     usecase.SubscriptionUseCase
	billingUC usecase.BillingUseCase
	webhookUC usecase.WebhookUseCase
	chatUC    usecase.ChatUseCase
	gateway   adapter.BillingGateway

	auth       *AuthManager
	limiter    *red.RateLimiter
	chatPerMin int
	apiKey     string
	log        *zerolog.Logger
}

func NewServer(
	planUC usecase.PlanUseCase,
	userUC usecase.UserUseCase,
	subUC usecase.SubscriptionUseCase,
	billingUC usecase.BillingUseCase,
	webhookUC usecase.WebhookUseCase,
	chatUC usecase.ChatUseCase,
	gateway adapter.BillingGateway,
	auth *AuthManager,
	limiter *red.RateLimiter,
	chatPerMin int,
	apiKey string,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		planUC:     planUC,
		userUC:     userUC,
		subUC:      subUC,
		billingUC:  billingUC,
		webhookUC:  webhookUC,
		chatUC:     chatUC,
		gateway:    gateway,
		auth:       auth,
		limiter:    limiter,
		chatPerMin: chatPerMin,
		apiKey:     apiKey,
		log:        logger,
	}
}

// Router assembles the full HTTP surface.
func (s *Server) Router(requestTimeout time.Duration) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// Public surface
		r.Post("/auth/register", s.registerHandler())
		r.Get("/plans", s.plansListHandler())
		r.Post("/billing/webhook", s.webhookHandler())

		// User surface (JWT)
		r.Group(func(r chi.Router) {
			r.Use(s.userAuthMiddleware)
			r.Post("/billing/checkout", s.checkoutHandler())
			r.Get("/subscriptions/me", s.currentSubscriptionHandler())
			r.Get("/subscriptions", s.subscriptionsListHandler())
			r.Get("/chat/models", s.chatModelsHandler())
			r.Post("/chat/sessions", s.chatStartHandler())
			r.Post("/chat/sessions/{id}/messages", s.chatMessageHandler())
			r.Post("/chat/sessions/{id}/end", s.chatEndHandler())
		})

		// Admin surface (static API key)
		r.Route("/admin", func(r chi.Router) {
			r.Use(s.adminAuthMiddleware)
			r.Get("/stats", s.statsHandler())
			r.Get("/users", s.usersListHandler())
			r.Get("/users/{id}", s.userGetHandler())
			r.Get("/plans", s.adminPlansListHandler())
			r.Post("/plans", s.planCreateHandler())
			r.Put("/plans/{id}", s.planUpdateHandler())
			r.Delete("/plans/{id}", s.planDeleteHandler())
		})
	})

	return Chain(r,
		TraceID(),
		RequestLog(s.log),
		Recover(s.log),
		Timeout(requestTimeout),
	)
}

// userAuthMiddleware authenticates the user JWT and puts the user id on the
// request context.
func (s *Server) userAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := s.auth.ParseFromRequest(r)
		if err != nil || claims.Subject == "" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		ctx := withUserID(r.Context(), claims.Subject)
		ctx = logging.WithUserID(ctx, claims.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// adminAuthMiddleware provides simple Bearer token authentication for the
// admin API.
func (s *Server) adminAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey == "" {
			s.log.Error().Msg("Admin API key is not configured")
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || strings.ToLower(tokenParts[0]) != "bearer" {
			http.Error(w, "Unauthorized: Malformed token", http.StatusUnauthorized)
			return
		}

		if tokenParts[1] != s.apiKey {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}
