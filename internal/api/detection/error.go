package detection

import (
	"github.com/maheshmm7/DriveGaurdAI/pkg/response"
	"net/http"
)

var (
	ErrNoImage             = response.NewError(http.StatusBadRequest, "No image file provided")
	ErrInvalidImage        = response.NewError(http.StatusBadRequest, "Invalid image format")
	ErrInvalidRequest      = response.NewError(http.StatusBadRequest, "Invalid request body")
	ErrImageTooLarge       = response.NewError(http.StatusRequestEntityTooLarge, "Image too large. Maximum size is 5MB.")
	ErrDetectionNotFound   = response.NewError(http.StatusNotFound, "detection not found")
	ErrHistoryDisabled     = response.NewError(http.StatusServiceUnavailable, "detection history is not configured")
	ErrInternalServerError = response.NewError(http.StatusInternalServerError, "internal server error")
)
