package server

import (
	"fmt"
	"net/http"
	"time"

	"product-api/internal/config"
	"product-api/internal/database"
	"product-api/internal/discount"
	"product-api/internal/logger"
	custommiddleware "product-api/internal/middleware"
	"product-api/internal/repository"
	"product-api/internal/service"
	"product-api/internal/status"
	"product-api/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/redis/go-redis/v9"
	"github.com/unrolled/secure"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	timing *zap.Logger
	db     database.Service
	redis  *redis.Client
}

// NewServer wires the product API. redisClient may be nil, in which case the status cache lives
// in process and rate limiting is kept per instance.
func NewServer(cfg *config.Config, logger *zap.Logger, db database.Service, redisClient *redis.Client) (*Server, error) {
	timing, err := newTimingLogger(cfg, logger)
	if err != nil {
		return nil, err
	}

	metrics := custommiddleware.NewMetrics()

	// Status names
	var statusCache status.Cache = status.NewMemoryCache()
	if redisClient != nil {
		statusCache = status.NewRedisCache(redisClient)
	}
	statuses := status.NewCachedResolver(statusCache, cfg.StatusCache.TTL, logger)

	// Discount service
	discounts, err := discount.NewClient(cfg.Discount.BaseURL, cfg.Discount.Timeout, logger, metrics.Registerer())
	if err != nil {
		return nil, fmt.Errorf("failed to create discount client: %w", err)
	}

	// Initialize repositories
	productRepo := repository.NewProductRepository(db.DB())

	// Initialize services
	productService := service.NewProductService(productRepo, statuses, discounts)

	// Initialize handlers
	productHandler := transport.NewProductHandler(productService, logger)

	router := chi.NewRouter()

	for _, mw := range custommiddleware.DefaultMiddlewareStack() {
		router.Use(mw)
	}
	router.Use(secureHeaders(cfg).Handler)
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(metrics.Middleware)
	router.Use(custommiddleware.LoggingMiddleware(logger, timing))
	router.Use(custommiddleware.CORSMiddleware(cfg.CORS.AllowedOrigins, cfg.IsDevelopment()))

	// Operational endpoints stay outside the request timeout and rate limit
	router.Get("/health", healthHandler(db))
	router.Method(http.MethodGet, "/metrics", metrics.Handler())

	router.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(cfg.Server.RequestTimeout))
		r.Use(rateLimiter(cfg, redisClient, logger))

		productHandler.RegisterRoutes(r)
	})

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		custommiddleware.RespondWithError(w, http.StatusNotFound, "resource not found")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		custommiddleware.RespondWithError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: cfg.Server.RequestTimeout + 5*time.Second,
		},
		config: cfg,
		logger: logger,
		timing: timing,
		db:     db,
		redis:  redisClient,
	}

	return server, nil
}

func newTimingLogger(cfg *config.Config, base *zap.Logger) (*zap.Logger, error) {
	timing, err := logger.NewTimingLogger(base, cfg.Log.TimingFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open timing log: %w", err)
	}
	return timing, nil
}

func secureHeaders(cfg *config.Config) *secure.Secure {
	return secure.New(secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "no-referrer",
		ContentSecurityPolicy: "default-src 'none'",
		IsDevelopment:         cfg.IsDevelopment(),
	})
}

// rateLimiter shares counters through Redis when it is available
func rateLimiter(cfg *config.Config, redisClient *redis.Client, logger *zap.Logger) func(http.Handler) http.Handler {
	if redisClient != nil {
		return custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
			RequestsPerWindow: cfg.RateLimit.Requests,
			Window:            cfg.RateLimit.Window,
			KeyPrefix:         "product-api:ratelimit",
		}, logger)
	}

	return httprate.Limit(
		cfg.RateLimit.Requests,
		cfg.RateLimit.Window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			custommiddleware.RespondWithError(w, http.StatusTooManyRequests, "rate limit exceeded")
		}),
	)
}

func healthHandler(db database.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		health := db.Health(r.Context())

		if health["status"] != "up" {
			custommiddleware.RespondWithJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
				"status":   "unavailable",
				"database": health,
			})
			return
		}

		custommiddleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
			"status":   "ok",
			"database": health,
		})
	}
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

	if s.timing != s.logger {
		s.timing.Sync()
	}
	s.logger.Sync()
	return nil
}
