// Package server contains the HTTP and WebSocket handlers for the feed API.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"appfeed/internal/bootstrap"
	"appfeed/internal/cache"
	"appfeed/internal/config"
	"appfeed/internal/events"
	"appfeed/internal/featureflags"
	"appfeed/internal/middleware"
	"appfeed/internal/models"
	"appfeed/internal/notifications"
	"appfeed/internal/repository"
	"appfeed/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	replyRepo    repository.ReplyRepository
	featureFlags *featureflags.Manager
	notifier     *notifications.Notifier
	hub          *notifications.Hub
	kafka        *events.KafkaPublisher

	identity     *service.IdentityService
	feeds        *service.FeedService
	interactions *service.InteractionService
}

// NewServer connects to the database and Redis and builds the server.
func NewServer(cfg *config.Config) (*Server, error) {
	db, rdb, err := bootstrap.InitRuntime(cfg)
	if err != nil {
		return nil, err
	}
	return NewServerWithDeps(cfg, db, rdb)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// A nil Redis client disables the author cache and cross-process live events.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	flags := featureflags.NewManager(cfg.FeatureFlags)
	if err := flags.LoadFile(cfg.FeatureFlagsFile); err != nil {
		return nil, err
	}

	users := repository.NewUserRepository(db, cache.NewAuthorCache(redisClient, cfg.AuthorCacheTTL()))
	apps := repository.NewAppRepository(db)
	feeds := repository.NewFeedRepository(db)
	comments := repository.NewCommentRepository(db)
	replies := repository.NewReplyRepository(db)

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("appfeed-api"),
		replyRepo:      replies,
		featureFlags:   flags,
		notifier:       notifications.NewNotifier(redisClient),
		hub:            notifications.NewHub(redisClient),
	}

	publishers := events.Multi{s.notifier.OnlyWatched(s.hub.IsWatched)}
	if brokers := cfg.KafkaBrokerList(); len(brokers) > 0 {
		s.kafka = events.NewKafkaPublisher(brokers, cfg.KafkaTopic)
		publishers = append(publishers, s.kafka)
	}

	enricher := service.NewEnricher(users, flags)
	s.identity = service.NewIdentityService(users, apps)
	s.feeds = service.NewFeedService(feeds, s.identity, enricher, publishers, flags)
	s.interactions = service.NewInteractionService(comments, replies, enricher, publishers, flags)

	return s, nil
}

// Replies exposes the reply store to the maintenance jobs.
func (s *Server) Replies() repository.ReplyRepository { return s.replyRepo }

// Services returns the write paths, for seeding.
func (s *Server) Services() (*service.IdentityService, *service.FeedService, *service.InteractionService) {
	return s.identity, s.feeds, s.interactions
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so rejected requests still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowHeaders: "Origin, Content-Type, Accept, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowMethods: "GET,POST,DELETE,OPTIONS",
		MaxAge:       86400,
	}))

	app.Use(middleware.TracingMiddleware())

	perMinute := s.config.RateLimitPerMinute
	if perMinute <= 0 {
		perMinute = 120
	}
	app.Use(limiter.New(limiter.Config{
		Max:        perMinute,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"errorMessage": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api")
	api.Get("/feature-flags/:appId", s.GetFeatureFlags)

	user := api.Group("/user")
	user.Post("/signUp", middleware.RateLimitWithPolicy(
		s.config.Env, s.redis, 10, 10*time.Minute, middleware.FailLocal, "signup"), s.SignUp)
	user.Post("/signIn", middleware.RateLimitWithPolicy(
		s.config.Env, s.redis, 20, 5*time.Minute, middleware.FailLocal, "signin"), s.SignIn)
	user.Get("/getUsers/:appId", s.GetAllUsers)
	user.Post("/updateLocation", s.UpdateLocation)
	user.Get("/getProfile/:userId/:appId", s.GetProfile)
	user.Post("/updateProfile", s.UpdateProfile)

	writes := middleware.RateLimitWithPolicy(s.config.Env, s.redis, 60, time.Minute, middleware.FailLocal, "feed_write")

	feeds := api.Group("/feeds")
	feeds.Post("/addFeed", writes, s.AddFeed)
	feeds.Get("/getFeeds/:appId", s.GetFeeds)
	feeds.Get("/getMyFeeds/:appId/:userId", s.GetMyFeeds)
	feeds.Post("/likeFeed", writes, s.LikeFeed)
	feeds.Post("/addComment", writes, s.AddComment)
	feeds.Get("/getComments/:appId/:feedId", s.GetComments)
	feeds.Get("/getComments/:appId", s.GetAppComments)
	feeds.Get("/getUsers/:appId", s.GetFeedUsers)
	feeds.Post("/addReply", writes, s.AddReply)
	feeds.Get("/getReplies/:commentId", s.GetReplies)
	feeds.Delete("/deleteFeed", writes, s.DeleteFeed)
	feeds.Get("/ws/:appId", s.FeedWebSocketUpgrade, s.FeedWebSocketHandler())
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck pings the database and, when configured, Redis.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	// Redis only backs the cache and live events; the API still serves without it.
	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// App builds the Fiber app with middleware and routes.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}
	app := fiber.New(fiber.Config{
		AppName: "App Feed API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return c.Status(fe.Code).JSON(models.ErrorResponse{ErrorMessage: fe.Message})
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
			return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

// Start wires the hub to Redis and serves until the listener stops.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	app := s.App()

	if s.redis != nil {
		go func() {
			if err := s.hub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
				middleware.Logger.Error("failed to start hub wiring",
					slog.String("hub", s.hub.Name()), slog.String("error", err.Error()))
			}
		}()
	}

	middleware.Logger.Info("server starting", slog.String("port", s.config.Port))
	if err := app.Listen(":" + s.config.Port); err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if err := s.hub.Shutdown(ctx); err != nil {
		middleware.Logger.Error("error shutting down hub", slog.String("error", err.Error()))
	}

	if s.kafka != nil {
		if err := s.kafka.Close(); err != nil {
			middleware.Logger.Error("error closing kafka writer", slog.String("error", err.Error()))
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
