package server

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/rp0948566-hue/beacon-safety-hub-01/internal/alert"
	"github.com/rp0948566-hue/beacon-safety-hub-01/internal/auth"
	"github.com/rp0948566-hue/beacon-safety-hub-01/internal/config"
	"github.com/rp0948566-hue/beacon-safety-hub-01/internal/contact"
	"github.com/rp0948566-hue/beacon-safety-hub-01/internal/db"
	"github.com/rp0948566-hue/beacon-safety-hub-01/internal/georisk"
	"github.com/rp0948566-hue/beacon-safety-hub-01/internal/safety"
	"github.com/rp0948566-hue/beacon-safety-hub-01/internal/session"
	"github.com/rp0948566-hue/beacon-safety-hub-01/internal/stream"
)

type Server struct {
	App    *fiber.App
	Cfg    config.Config
	DB     *pgxpool.Pool
	Redis  *redis.Client
	Stream *stream.Hub
}

func NewServer(cfg config.Config, pool *pgxpool.Pool, redisClient *redis.Client) *Server {
	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())

	s := &Server{
		App:    app,
		Cfg:    cfg,
		DB:     pool,
		Redis:  redisClient,
		Stream: stream.NewHub(redisClient),
	}

	registerRoutes(s)
	return s
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	var querier db.Querier
	if s.DB != nil {
		querier = s.DB
	}

	lookup := regionLookup(s.Cfg)
	dispatcher := alert.NewDispatcher(alert.NewProviders(s.Cfg), s.Cfg)
	sharer := stream.NewSharer(s.Stream)
	contacts := contact.NewService(querier)
	pins := auth.NewPINService(querier)
	safetySvc := safety.NewService(querier, lookup, contacts, pins,
		dispatcher, session.NewCaptureLogger(), sharer, s.Cfg)

	jwtMiddleware := auth.JWTMiddleware(s.Cfg.JWTSecret)

	auth.RegisterRoutes(s.App.Group("/auth"), pins, jwtMiddleware)
	contact.RegisterRoutes(s.App.Group("/contacts"), contacts, jwtMiddleware)
	safety.RegisterRoutes(s.App.Group("/safety"), safetySvc, jwtMiddleware)
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream)
}

func regionLookup(cfg config.Config) *georisk.Lookup {
	if cfg.RegionsFile == "" {
		return georisk.NewLookup()
	}
	lookup, err := georisk.NewLookupFromFile(cfg.RegionsFile)
	if err != nil {
		log.Printf("region file %q unusable, using built-in table: %v", cfg.RegionsFile, err)
		return georisk.NewLookup()
	}
	return lookup
}
