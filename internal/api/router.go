package api

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/sudhir200/expense-tracker-sub001/internal/api/handlers"
	"github.com/sudhir200/expense-tracker-sub001/internal/api/middleware"
	"github.com/sudhir200/expense-tracker-sub001/internal/auth"
	"github.com/sudhir200/expense-tracker-sub001/internal/database/models"
	"github.com/sudhir200/expense-tracker-sub001/internal/family"
	"github.com/sudhir200/expense-tracker-sub001/internal/ledger"
	"github.com/sudhir200/expense-tracker-sub001/internal/users"
	"gorm.io/gorm"
)

type Router struct {
	chi.Router
}

type RouterConfig struct {
	DB             *gorm.DB
	Redis          *redis.Client
	AsynqClient    *asynq.Client // nil when Redis is unavailable
	Logger         *slog.Logger
	JWTService     *auth.JWTService
	AuthService    *auth.Service
	FamilyService  *family.Service
	LedgerService  *ledger.Service
	UserService    *users.Service
	AllowedOrigins []string // CORS allowed origins
	RateLimitReqs  int      // Rate limit requests per window
	RateLimitSecs  int      // Rate limit window in seconds
}

func NewRouter(cfg RouterConfig) *Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))

	if cfg.RateLimitReqs > 0 {
		r.Use(middleware.RateLimit(cfg.RateLimitReqs, cfg.RateLimitSecs))
	}

	allowedOrigins := cfg.AllowedOrigins
	if len(allowedOrigins) == 0 {
		// Default to localhost for development - configure in production
		allowedOrigins = []string{"http://localhost:3000", "http://localhost:8080"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(cfg.DB, cfg.Redis)
	authHandler := handlers.NewAuthHandler(cfg.AuthService, cfg.AsynqClient, cfg.Logger)
	userHandler := handlers.NewUserHandler(cfg.UserService, cfg.AuthService)
	familyHandler := handlers.NewFamilyHandler(cfg.FamilyService)
	ledgerHandler := handlers.NewLedgerHandler(cfg.LedgerService)

	// Health endpoints (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	r.Route("/api/v1", func(r chi.Router) {
		// Public auth endpoints
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/logout", authHandler.Logout)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWTService))

			r.Get("/me", authHandler.Me)
			r.Put("/me", authHandler.UpdateMe)

			// Admin user management
			r.Route("/users", func(r chi.Router) {
				r.Use(middleware.RequireGlobalRole(models.RoleAdmin))
				r.Get("/", userHandler.List)
				r.Post("/", userHandler.Create)
				r.Get("/{id}", userHandler.Get)
				r.Put("/{id}", userHandler.Update)
				r.Delete("/{id}", userHandler.Delete)
			})

			// Families
			r.Route("/families", func(r chi.Router) {
				r.Post("/", familyHandler.Create)
				r.Get("/mine", familyHandler.Mine)
				r.Get("/{id}/members", familyHandler.Members)
				r.Put("/{id}/members/{userID}", familyHandler.UpdateMember)
				r.Delete("/{id}/members/{userID}", familyHandler.RemoveMember)
				r.Post("/{id}/leave", familyHandler.Leave)
				r.Post("/{id}/transfer-head", familyHandler.TransferHead)
				r.Post("/{id}/invites", familyHandler.CreateInvite)
				r.Get("/{id}/invites", familyHandler.ListInvites)
				r.Delete("/{id}/invites/{codeID}", familyHandler.RevokeInvite)
			})
			r.Post("/join", familyHandler.Join)

			// Ledger
			r.Route("/transactions", func(r chi.Router) {
				r.Get("/", ledgerHandler.ListTransactions)
				r.Post("/", ledgerHandler.CreateTransaction)
				r.Get("/{id}", ledgerHandler.GetTransaction)
				r.Put("/{id}", ledgerHandler.UpdateTransaction)
				r.Delete("/{id}", ledgerHandler.DeleteTransaction)
			})
			r.Route("/budgets", func(r chi.Router) {
				r.Get("/", ledgerHandler.ListBudgets)
				r.Post("/", ledgerHandler.CreateBudget)
				r.Put("/{id}", ledgerHandler.UpdateBudget)
				r.Delete("/{id}", ledgerHandler.DeleteBudget)
			})
		})
	})

	return &Router{r}
}
