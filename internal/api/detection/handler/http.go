package detectionHandler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	detectionService "github.com/maheshmm7/DriveGaurdAI/internal/api/detection/service"
	"github.com/maheshmm7/DriveGaurdAI/internal/middleware"
	"github.com/maheshmm7/DriveGaurdAI/pkg/utils"
	"github.com/sirupsen/logrus"
)

type DetectionHandler struct {
	log              *logrus.Logger
	validator        *validator.Validate
	middleware       middleware.Middleware
	detectionService detectionService.IDetectionService
	utils            utils.IUtils
}

func New(
	log *logrus.Logger,
	validator *validator.Validate,
	middleware middleware.Middleware,
	ds detectionService.IDetectionService,
	utils utils.IUtils,
) *DetectionHandler {
	return &DetectionHandler{
		detectionService: ds,
		log:              log,
		validator:        validator,
		middleware:       middleware,
		utils:            utils,
	}
}

func (h *DetectionHandler) Start(srv fiber.Router) {
	wsMiddleware := func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}

	srv.Post("/detect", h.middleware.NewRateLimiter, h.DetectDrowsiness)
	srv.Use("/detect/ws", wsMiddleware)
	srv.Get("/detect/ws", websocket.New(h.handleWebSocket))

	srv.Get("/detections", h.GetDetections)
	srv.Get("/detections/:id", h.GetDetectionByID)
}
