package server

import (
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"parfumerie/internal/config"
	"parfumerie/internal/mailer"
	custommiddleware "parfumerie/internal/middleware"
	"parfumerie/internal/repository"
	"parfumerie/internal/service"
	"parfumerie/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	db     *sql.DB
	redis  *redis.Client
}

func NewServer(cfg *config.Config, logger *zap.Logger, db *sql.DB, redisClient *redis.Client, sender mailer.Sender) *Server {
	// Create router
	router := chi.NewRouter()

	// Add basic middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(custommiddleware.CORSMiddleware(cfg.Shop.AllowedOrigins, cfg.Server.Env != "production"))
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))

	if redisClient != nil && cfg.Shop.RateLimit > 0 {
		router.Use(custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
			RequestsPerWindow: cfg.Shop.RateLimit,
			Window:            time.Minute,
			KeyPrefix:         "rate_limit",
		}, logger))
	}

	// Health check endpoint
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Initialize repositories
	catalogRepo := repository.NewCatalogRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	paymentMethodRepo := repository.NewPaymentMethodRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)

	// Initialize services
	catalogService := service.NewCatalogService(catalogRepo)
	orderService := service.NewOrderService(
		orderRepo,
		paymentMethodRepo,
		settingsRepo,
		sender,
		cfg.Shop.Name,
		cfg.Shop.SenderEmail,
		logger,
	)

	// Initialize handlers
	catalogHandler := transport.NewCatalogHandler(catalogService, logger)
	orderHandler := transport.NewOrderHandler(orderService, logger)

	// Create auth middleware
	requireAuth := custommiddleware.Authenticate(cfg.Auth.JWTSecret, logger)
	optionalAuth := custommiddleware.OptionalAuthenticate(cfg.Auth.JWTSecret, logger)

	// Register routes
	catalogHandler.RegisterRoutes(router)
	orderHandler.RegisterRoutes(router, optionalAuth, requireAuth)

	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config: cfg,
		logger: logger,
		db:     db,
		redis:  redisClient,
	}

	return server
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	// Close database connection
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
