// internal/api/server.go
package api

import (
	"context"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fiscal-assistant/internal/assistant/cache"
	"fiscal-assistant/internal/assistant/session"
	"fiscal-assistant/internal/common/config"
	"fiscal-assistant/internal/common/logger"
)

type Server struct {
	app    *fiber.App
	cfg    config.ServerConfig
	logger logger.Logger
}

// Dependencies are the collaborators served over HTTP. Cache and Search may be nil.
type Dependencies struct {
	Sessions *session.Manager
	Cache    cache.Cache
	Search   Pinger
	Logger   logger.Logger
}

func New(cfg config.ServerConfig, deps Dependencies) *Server {
	log := deps.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}

	app := fiber.New(fiber.Config{
		AppName:               "fiscal-assistant",
		DisableStartupMessage: true,
		ReadTimeout:           config.GetDuration(cfg.RequestTimeout),
		WriteTimeout:          config.GetDuration(cfg.RequestTimeout),
		ErrorHandler:          ErrorHandler(log),
	})

	origins := cfg.AllowOrigins
	if origins == "" {
		origins = "*"
	}
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:  origins,
		AllowHeaders:  "Origin, Content-Type, Accept, " + HeaderAPIKey + ", " + HeaderSessionID,
		AllowMethods:  "GET, DELETE, OPTIONS",
		ExposeHeaders: HeaderSessionID,
	}))
	app.Use(otelfiber.Middleware())

	NewHealthController(deps.Search).RegisterRoutes(app)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	NewFiscalController(deps.Sessions, deps.Cache, cfg.APIKey, log).RegisterRoutes(app)

	return &Server{app: app, cfg: cfg, logger: log}
}

func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Run() error {
	s.logger.Info("HTTP server listening", map[string]interface{}{"port": s.cfg.Port})
	return s.app.Listen(":" + s.cfg.Port)
}

func (s *Server) Shutdown(ctx context.Context) error {
	timeout := 30 * time.Second
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}
	return s.app.ShutdownWithTimeout(timeout)
}
