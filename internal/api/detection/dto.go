package detection

import "time"

type Source string

const (
	SourceUpload    Source = "upload"
	SourceBase64    Source = "base64"
	SourceWebSocket Source = "websocket"
)

type DetectRequest struct {
	ImageBase64 string `json:"image_base64" validate:"required"`
}

type DrowsinessResponse struct {
	ID        string   `json:"id,omitempty"`
	Status    string   `json:"status"`
	EyeStates []string `json:"eye_states"`
	Faces     int      `json:"faces"`
	ImageURL  string   `json:"image_url,omitempty"`
}

type DetectionRecordResponse struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	EyeStates []string  `json:"eye_states"`
	Faces     int       `json:"faces"`
	Source    string    `json:"source"`
	ImageURL  string    `json:"image_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type HistoryQuery struct {
	Page   int    `query:"page" validate:"min=1"`
	Limit  int    `query:"limit" validate:"min=1,max=100"`
	Status string `query:"status" validate:"omitempty,oneof=Alert Drowsy"`
}

type HistoryResponse struct {
	Detections []DetectionRecordResponse `json:"detections"`
	Total      int                       `json:"total"`
	Page       int                       `json:"page"`
	Limit      int                       `json:"limit"`
}

// VerdictEvent is published for every evaluated frame.
type VerdictEvent struct {
	ID        string    `json:"id"`
	RequestID string    `json:"request_id"`
	Status    string    `json:"status"`
	EyeStates []string  `json:"eye_states"`
	Faces     int       `json:"faces"`
	Source    Source    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}
