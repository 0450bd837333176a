package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/jmoiron/sqlx"
	"github.com/maheshmm7/DriveGaurdAI/database/postgres"
	detectionHandler "github.com/maheshmm7/DriveGaurdAI/internal/api/detection/handler"
	detectionRepository "github.com/maheshmm7/DriveGaurdAI/internal/api/detection/repository"
	detectionService "github.com/maheshmm7/DriveGaurdAI/internal/api/detection/service"
	"github.com/maheshmm7/DriveGaurdAI/internal/drowsiness"
	"github.com/maheshmm7/DriveGaurdAI/internal/middleware"
	"github.com/maheshmm7/DriveGaurdAI/pkg/redis"
	"github.com/maheshmm7/DriveGaurdAI/pkg/s3"
	"github.com/maheshmm7/DriveGaurdAI/pkg/utils"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

type ServerOption func(*Server) error

type Server struct {
	engine      *fiber.App
	db          *sqlx.DB
	log         *logrus.Logger
	middleware  middleware.Middleware
	validator   *validator.Validate
	utils       utils.IUtils
	evaluator   drowsiness.IEvaluator
	handlers    []handler
	redisServer redis.IRedis
	s3Client    s3.ItfS3
}

type handler interface {
	Start(srv fiber.Router)
}

func NewServer(options ...ServerOption) (*Server, error) {
	server := &Server{}

	for _, option := range options {
		if err := option(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if server.engine == nil {
		return nil, fmt.Errorf("fiber app is required")
	}
	if server.log == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if server.evaluator == nil {
		return nil, fmt.Errorf("evaluator is required")
	}
	if server.validator == nil {
		server.validator = NewValidator()
	}
	if server.utils == nil {
		server.utils = utils.New()
	}
	if server.middleware == nil {
		server.middleware = middleware.New(server.log, defaultRateLimit, defaultRateBurst)
	}

	return server, nil
}

const (
	defaultRateLimit = rate.Limit(10)
	defaultRateBurst = 20
)

func WithFiber(fiberApp *fiber.App) ServerOption {
	return func(s *Server) error {
		s.engine = fiberApp
		return nil
	}
}

func WithLogger(logger *logrus.Logger) ServerOption {
	return func(s *Server) error {
		s.log = logger
		return nil
	}
}

func WithValidator(validator *validator.Validate) ServerOption {
	return func(s *Server) error {
		s.validator = validator
		return nil
	}
}

func WithEvaluator(evaluator drowsiness.IEvaluator) ServerOption {
	return func(s *Server) error {
		s.evaluator = evaluator
		return nil
	}
}

// WithDatabase connects when DB_HOST is set. Without it the history
// endpoints answer 503.
func WithDatabase() ServerOption {
	return func(s *Server) error {
		if !postgres.Configured() {
			if s.log != nil {
				s.log.Warn("DB_HOST not set, detection history disabled")
			}
			return nil
		}

		db, err := postgres.New()
		if err != nil {
			if s.log != nil {
				s.log.Errorf("Failed to connect to database: %v", err)
			}
			return fmt.Errorf("failed to create database connection: %w", err)
		}
		s.db = db
		return nil
	}
}

func WithRedisServer() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before redis")
		}
		if !redis.Configured() {
			s.log.Warn("REDIS_ADDRESS not set, verdict publishing disabled")
			return nil
		}
		s.redisServer = redis.New(s.log)
		return nil
	}
}

func WithS3Client() ServerOption {
	return func(s *Server) error {
		if !s3.Configured() {
			if s.log != nil {
				s.log.Warn("AWS_BUCKET_NAME not set, frame archiving disabled")
			}
			return nil
		}

		client, err := s3.New()
		if err != nil {
			if s.log != nil {
				s.log.Errorf("Failed to initialize S3 client: %v", err)
			}
			return fmt.Errorf("failed to create S3 client: %w", err)
		}
		s.s3Client = client
		return nil
	}
}

// WithMiddleware reads RATE_LIMIT (requests per second) and RATE_BURST for
// the detect endpoint.
func WithMiddleware() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before middleware")
		}

		limit := defaultRateLimit
		if v, err := strconv.ParseFloat(os.Getenv("RATE_LIMIT"), 64); err == nil && v > 0 {
			limit = rate.Limit(v)
		}
		burst := defaultRateBurst
		if v, err := strconv.Atoi(os.Getenv("RATE_BURST")); err == nil && v > 0 {
			burst = v
		}

		s.middleware = middleware.New(s.log, limit, burst)
		return nil
	}
}

func WithUtils() ServerOption {
	return func(s *Server) error {
		s.utils = utils.New()
		return nil
	}
}

func (s *Server) RegisterHandler() {
	var detectionRepo detectionRepository.Repository
	if s.db != nil {
		detectionRepo = detectionRepository.New(s.db, s.log)
	}

	detectionServices := detectionService.NewDetectionService(s.log, s.evaluator, detectionRepo, s.redisServer, s.s3Client, s.utils)
	detectionHandlers := detectionHandler.New(s.log, s.validator, s.middleware, detectionServices, s.utils)

	s.handlers = append(s.handlers, detectionHandlers)
}

func (s *Server) Run() error {
	s.setupRoutes()

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "3000"
	}

	return s.engine.Listen(fmt.Sprintf(":%s", port))
}

func (s *Server) setupRoutes() {
	s.engine.Use(s.middleware.NewRequestIDMiddleware())
	s.engine.Use(s.middleware.NewLoggingMiddleware())
	s.engine.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, X-Request-ID",
	}))

	s.setupHealthCheck()

	router := s.engine.Group("/api/v1")
	for _, h := range s.handlers {
		h.Start(router)
	}
}

func (s *Server) Shutdown(timeout time.Duration) error {
	var errs []error

	if err := s.engine.ShutdownWithTimeout(timeout); err != nil {
		errs = append(errs, fmt.Errorf("fiber: %w", err))
	}
	if s.redisServer != nil {
		if err := s.redisServer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("database: %w", err))
		}
	}

	return errors.Join(errs...)
}

func (s *Server) setupHealthCheck() {
	s.engine.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.JSON(fiber.Map{
			"message": "Drowsiness Detection API is running!",
		})
	})
}
