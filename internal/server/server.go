// Package server contains the HTML pages, the JSON read API and the
// operational endpoints of the blog.
package server

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"ideafoundry/internal/cache"
	"ideafoundry/internal/config"
	"ideafoundry/internal/database"
	"ideafoundry/internal/markdown"
	"ideafoundry/internal/middleware"
	"ideafoundry/internal/repository"
	"ideafoundry/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/template/html/v2"
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
	postService    *service.PostService
}

// NewServer connects to the database and, when configured, Redis, then builds
// a Server around them. A Redis outage at startup disables caching instead of
// failing.
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	redisClient, err := cache.Connect(context.Background(), cfg.RedisURL)
	if err != nil {
		middleware.Logger.Warn("Redis unavailable, running without cache", slog.String("error", err.Error()))
		redisClient = nil
	}

	return NewServerWithDeps(cfg, db, redisClient)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	if db == nil {
		return nil, errors.New("server requires a database handle")
	}

	store := repository.NewStore(db)
	postService := service.NewPostService(store, cache.New(redisClient), markdown.NewRenderer(), service.PostServiceConfig{
		SlugMaxAttempts: cfg.SlugMaxAttempts,
		DefaultAuthor:   cfg.DefaultAuthor,
	})

	return &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("ideafoundry"),
		postService:    postService,
	}, nil
}

// NewApp builds the Fiber app with the view engine, middleware and routes.
func (s *Server) NewApp() (*fiber.App, error) {
	views, err := newViewEngine()
	if err != nil {
		return nil, err
	}

	app := fiber.New(fiber.Config{
		AppName:      "IdeaFoundry",
		Views:        views,
		ViewsLayout:  "layouts/main",
		ErrorHandler: s.errorHandler,
		BodyLimit:    1 * 1024 * 1024,
	})

	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app, nil
}

func newViewEngine() (*html.Engine, error) {
	sub, err := fs.Sub(viewsFS, "views")
	if err != nil {
		return nil, fmt.Errorf("load views: %w", err)
	}
	engine := html.NewFileSystem(http.FS(sub), ".html")
	for name, fn := range templateFuncs {
		engine.AddFunc(name, fn)
	}
	return engine, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:3000,http://127.0.0.1:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowHeaders: "Origin, Content-Type, Accept",
		AllowMethods: "GET,POST,HEAD,OPTIONS",
		MaxAge:       86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions || isOperationalPath(c.Path())
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
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

	app.Get("/", s.Home)
	app.Get("/blog", s.BlogIndex)
	app.Get("/blog/:slug", s.PostPage)
	app.Get("/create", s.CreateForm)
	app.Post("/create", middleware.RateLimit(
		s.redis, s.config.CreatePostRateLimit, time.Minute, "create_post", s.createRateLimited), s.CreateSubmit)

	api := app.Group("/api")
	posts := api.Group("/posts")
	posts.Get("/", s.GetPosts)
	posts.Get("/:slug/related", s.GetRelatedPosts)
	posts.Get("/:slug", s.GetPost)
	api.Get("/categories", s.GetCategories)
	api.Get("/authors", s.GetAuthors)
	api.Get("/sitemap", s.GetSitemap)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck pings the database and, when caching is enabled, Redis.
// Redis being unconfigured does not make the service unready.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "disabled"
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

// Shutdown stops the HTTP server and releases the database and Redis handles.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			middleware.Logger.Error("error closing Redis client", slog.String("error", err.Error()))
		}
	}

	if err := database.Close(s.db); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}
