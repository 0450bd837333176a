package detectionHandler

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/maheshmm7/DriveGaurdAI/internal/api/detection"
	"github.com/maheshmm7/DriveGaurdAI/internal/middleware"
	contextPkg "github.com/maheshmm7/DriveGaurdAI/pkg/context"
	"github.com/maheshmm7/DriveGaurdAI/pkg/handlerUtil"
	"github.com/maheshmm7/DriveGaurdAI/pkg/log"
	"github.com/maheshmm7/DriveGaurdAI/pkg/response"
	"github.com/maheshmm7/DriveGaurdAI/pkg/utils"
)

const (
	requestTimeout  = 10 * time.Second
	wsReadTimeout   = 60 * time.Second
	wsWriteTimeout  = 10 * time.Second
	defaultPage     = 1
	defaultPageSize = 20
)

func (h *DetectionHandler) DetectDrowsiness(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), requestTimeout)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	var image []byte
	var source detection.Source

	file, err := ctx.FormFile("image")
	if err == nil {
		h.log.WithFields(log.Fields{
			"request_id": requestID,
			"path":       ctx.Path(),
			"file_name":  file.Filename,
			"file_size":  file.Size,
		}).Debug("Processing file upload")

		image, err = h.utils.ReadImageFile(file)
		if err != nil {
			return errHandler.Handle(ctx, requestID, err, ctx.Path(), "read_image_file")
		}
		source = detection.SourceUpload
	} else if strings.HasPrefix(string(ctx.Request().Header.ContentType()), fiber.MIMEApplicationJSON) {
		h.log.WithFields(log.Fields{
			"request_id": requestID,
			"path":       ctx.Path(),
		}).Debug("Processing JSON request")

		var req detection.DetectRequest
		if err := ctx.BodyParser(&req); err != nil {
			return errHandler.Handle(ctx, requestID, detection.ErrInvalidRequest, ctx.Path(), "parse_request_body")
		}

		if err := h.validator.Struct(req); err != nil {
			return errHandler.Handle(ctx, requestID, detection.ErrNoImage, ctx.Path(), "validate_request")
		}

		image, err = h.utils.DecodeBase64Image(req.ImageBase64)
		if err != nil {
			return errHandler.Handle(ctx, requestID, asImageError(err), ctx.Path(), "decode_base64_image")
		}
		source = detection.SourceBase64
	} else {
		return errHandler.Handle(ctx, requestID, detection.ErrNoImage, ctx.Path(), "read_image")
	}

	resp, err := h.detectionService.DetectDrowsiness(c, image, source)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "detect_drowsiness")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, resp)
	}
}

func (h *DetectionHandler) GetDetections(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), requestTimeout)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	query := detection.HistoryQuery{
		Page:  defaultPage,
		Limit: defaultPageSize,
	}
	if err := ctx.QueryParser(&query); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	if err := h.validator.Struct(query); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	resp, err := h.detectionService.GetDetections(c, query)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "get_detections")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, resp)
	}
}

func (h *DetectionHandler) GetDetectionByID(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), requestTimeout)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	id := ctx.Params("id")
	if id == "" {
		return errHandler.Handle(ctx, requestID, detection.ErrDetectionNotFound, ctx.Path(), "get_detection")
	}

	resp, err := h.detectionService.GetDetectionByID(c, id)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "get_detection")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, resp)
	}
}

// handleWebSocket evaluates one frame per message. Binary messages carry
// encoded image bytes, text messages carry base64. A failed frame is
// answered with an error object and the stream stays open.
func (h *DetectionHandler) handleWebSocket(c *websocket.Conn) {
	requestID, _ := c.Locals(middleware.RequestIDKey).(string)
	logger := h.log.WithField("request_id", requestID)

	logger.Info("Drowsiness WebSocket client connected")
	defer logger.Info("Drowsiness WebSocket client disconnected")

	c.SetPingHandler(func(data string) error {
		if err := c.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(5*time.Second)); err != nil {
			logger.Errorf("Error sending pong: %v", err)
		}
		return nil
	})

	for {
		if err := c.SetReadDeadline(time.Now().Add(wsReadTimeout)); err != nil {
			logger.Errorf("Error setting read deadline: %v", err)
			break
		}

		messageType, message, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Errorf("WebSocket error: %v", err)
			} else {
				logger.Info("WebSocket connection closed")
			}
			break
		}

		var result interface{}
		switch messageType {
		case websocket.BinaryMessage:
			result = h.evaluateFrame(requestID, message)
		case websocket.TextMessage:
			image, err := h.utils.DecodeBase64Image(string(message))
			if err != nil {
				result = wsError(asImageError(err))
				break
			}
			result = h.evaluateFrame(requestID, image)
		default:
			logger.Warnf("Received unexpected message type: %d", messageType)
			continue
		}

		if err := c.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
			logger.Errorf("Error setting write deadline: %v", err)
			break
		}

		if err := c.WriteJSON(result); err != nil {
			logger.Errorf("Error writing JSON response: %v", err)
			break
		}
	}
}

func (h *DetectionHandler) evaluateFrame(requestID string, image []byte) interface{} {
	ctx, cancel := context.WithTimeout(contextPkg.WithRequestID(context.Background(), requestID), requestTimeout)
	defer cancel()

	resp, err := h.detectionService.DetectDrowsiness(ctx, image, detection.SourceWebSocket)
	if err != nil {
		h.log.WithFields(log.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Warn("Error processing frame")
		return wsError(err)
	}
	return resp
}

func wsError(err error) handlerUtil.ErrorResponse {
	var respErr *response.Error
	if errors.As(err, &respErr) && respErr.Code < fiber.StatusInternalServerError {
		return handlerUtil.ErrorResponse{Error: respErr.Err.Error()}
	}
	switch {
	case errors.Is(err, utils.ErrFileTooLarge):
		return handlerUtil.ErrorResponse{Error: detection.ErrImageTooLarge.Error()}
	case errors.Is(err, utils.ErrNotAnImage):
		return handlerUtil.ErrorResponse{Error: detection.ErrInvalidImage.Error()}
	}
	return handlerUtil.ErrorResponse{Error: "An unexpected error occurred"}
}

func asImageError(err error) error {
	if errors.Is(err, utils.ErrFileTooLarge) || errors.Is(err, utils.ErrNotAnImage) {
		return err
	}
	return detection.ErrInvalidImage
}
