package config

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/maheshmm7/DriveGaurdAI/internal/api/detection"
	"github.com/maheshmm7/DriveGaurdAI/pkg/handlerUtil"
	"github.com/sirupsen/logrus"
)

// maxRequestBody leaves room for a 5MB image sent as base64 inside JSON.
const maxRequestBody = 10 * 1024 * 1024

func NewFiber(logger *logrus.Logger) *fiber.App {
	app := fiber.New(
		fiber.Config{
			AppName:           "DriveGuard Drowsiness API",
			BodyLimit:         maxRequestBody,
			StrictRouting:     false,
			CaseSensitive:     true,
			EnablePrintRoutes: logger.IsLevelEnabled(logrus.DebugLevel),
			JSONEncoder:       jsoniter.Marshal,
			JSONDecoder:       jsoniter.Unmarshal,
			ErrorHandler:      newErrorHandler(logger),
		})

	return app
}

// newErrorHandler answers errors raised by Fiber itself (unknown routes,
// oversized bodies, missing upgrades) with the same JSON shape the
// detection handlers use.
func newErrorHandler(logger *logrus.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "An unexpected error occurred"

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			code = fiberErr.Code
			message = fiberErr.Message
		}
		if code == fiber.StatusRequestEntityTooLarge {
			message = detection.ErrImageTooLarge.Error()
		}

		entry := logger.WithFields(logrus.Fields{
			"path":   c.Path(),
			"method": c.Method(),
			"status": code,
			"error":  err.Error(),
		})
		if code >= fiber.StatusInternalServerError {
			entry.Error("Unhandled server error")
		} else {
			entry.Debug("Request rejected by router")
		}

		return c.Status(code).JSON(handlerUtil.ErrorResponse{Error: message})
	}
}
