package handlerUtil

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/maheshmm7/DriveGaurdAI/internal/api/detection"
	"github.com/maheshmm7/DriveGaurdAI/internal/drowsiness"
	"github.com/maheshmm7/DriveGaurdAI/pkg/log"
	"github.com/maheshmm7/DriveGaurdAI/pkg/response"
	utilsPkg "github.com/maheshmm7/DriveGaurdAI/pkg/utils"
	"github.com/sirupsen/logrus"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	TraceID string `json:"trace_id,omitempty"`
}

type ErrorHandler struct {
	logger *logrus.Logger
}

func New(logger *logrus.Logger) *ErrorHandler {
	return &ErrorHandler{
		logger: logger,
	}
}

type domainError struct {
	err     error
	status  int
	message string
	code    string
}

var domainErrors = []domainError{
	{drowsiness.ErrInvalidFrame, fiber.StatusBadRequest, "Invalid image format", "INVALID_IMAGE"},
	{utilsPkg.ErrNoFile, fiber.StatusBadRequest, "No image file provided", "NO_IMAGE"},
	{utilsPkg.ErrNotAnImage, fiber.StatusBadRequest, "Invalid image format", "INVALID_IMAGE"},
	{utilsPkg.ErrFileTooLarge, fiber.StatusRequestEntityTooLarge, "Image too large. Maximum size is 5MB.", "IMAGE_TOO_LARGE"},
}

func (h *ErrorHandler) Handle(c *fiber.Ctx, requestID string, err error, path string, operation string) error {
	var respErr *response.Error
	if errors.As(err, &respErr) && respErr.Code < fiber.StatusInternalServerError {
		h.logger.WithFields(log.Fields{
			"request_id": requestID,
			"error":      err.Error(),
			"code":       respErr.Code,
			"path":       path,
			"operation":  operation,
		}).Warn("Operation failed with error response")
		return c.Status(respErr.Code).JSON(ErrorResponse{Error: respErr.Err.Error()})
	}

	for _, d := range domainErrors {
		if errors.Is(err, d.err) {
			h.logger.WithFields(log.Fields{
				"request_id": requestID,
				"error":      err.Error(),
				"path":       path,
				"operation":  operation,
			}).Warn(d.message)
			return c.Status(d.status).JSON(ErrorResponse{Error: d.message, Code: d.code})
		}
	}

	status := fiber.StatusInternalServerError
	message := "An unexpected error occurred"
	if respErr != nil {
		status = respErr.Code
		message = respErr.Err.Error()
	}
	if errors.Is(err, detection.ErrInternalServerError) {
		message = "Internal server error"
	}

	traceID := log.ErrorWithTraceID(log.Fields{
		log.RequestIDKey: requestID,
		"error":          err.Error(),
		"path":           path,
		"operation":      operation,
	}, "Unexpected error")

	return c.Status(status).JSON(ErrorResponse{
		Error:   message,
		TraceID: traceID,
	})
}

func (h *ErrorHandler) HandleValidationError(c *fiber.Ctx, requestID string, err error, path string) error {
	h.logger.WithFields(log.Fields{
		"request_id": requestID,
		"error":      err.Error(),
		"path":       path,
	}).Warn("Validation failed")

	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
		Error: "Validation failed: " + err.Error(),
		Code:  "VALIDATION_ERROR",
	})
}

func (h *ErrorHandler) HandleRequestTimeout(c *fiber.Ctx) error {
	return c.Status(fiber.StatusRequestTimeout).JSON(ErrorResponse{
		Error: utils.StatusMessage(fiber.StatusRequestTimeout),
	})
}

func (h *ErrorHandler) HandleSuccess(c *fiber.Ctx, statusCode int, data interface{}) error {
	if data == nil {
		return c.SendStatus(statusCode)
	}
	return c.Status(statusCode).JSON(data)
}
