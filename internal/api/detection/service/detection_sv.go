package detectionService

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"time"

	"github.com/maheshmm7/DriveGaurdAI/internal/api/detection"
	"github.com/maheshmm7/DriveGaurdAI/internal/drowsiness"
	"github.com/maheshmm7/DriveGaurdAI/internal/entity"
	contextPkg "github.com/maheshmm7/DriveGaurdAI/pkg/context"
	"github.com/sirupsen/logrus"
)

func (s *detectionService) DetectDrowsiness(ctx context.Context, image []byte, source detection.Source) (*detection.DrowsinessResponse, error) {
	requestID := contextPkg.GetRequestID(ctx)

	if len(image) == 0 {
		return nil, detection.ErrNoImage
	}

	frame, err := drowsiness.DecodeFrame(bytes.NewReader(image))
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"source":     source,
			"error":      err.Error(),
		}).Warn("Failed to decode frame")
		return nil, detection.ErrInvalidImage
	}

	start := time.Now()
	verdict, err := s.evaluator.Evaluate(frame)
	if err != nil {
		if errors.Is(err, drowsiness.ErrInvalidFrame) {
			return nil, detection.ErrInvalidImage
		}
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Drowsiness evaluation failed")
		return nil, fmt.Errorf("evaluate frame: %w", err)
	}

	eyeStates := make([]string, 0, len(verdict.EyeStates))
	for _, state := range verdict.EyeStates {
		eyeStates = append(eyeStates, string(state))
	}

	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"source":     source,
		"status":     verdict.Status,
		"eye_states": eyeStates,
		"faces":      len(verdict.Faces),
		"latency_ms": time.Since(start).Milliseconds(),
		"frame_size": fmt.Sprintf("%dx%d", frame.Width(), frame.Height()),
	}).Info("Drowsiness verdict")

	now := time.Now()
	id, err := s.utils.NewULIDFromTimestamp(now)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Warn("Failed to generate detection id")
	}

	resp := &detection.DrowsinessResponse{
		ID:        id,
		Status:    string(verdict.Status),
		EyeStates: eyeStates,
		Faces:     len(verdict.Faces),
	}

	if id == "" {
		return resp, nil
	}

	resp.ImageURL = s.archive(ctx, id, image)
	s.record(ctx, entity.DrowsinessDetection{
		ID:        id,
		Status:    resp.Status,
		EyeStates: eyeStates,
		FaceCount: resp.Faces,
		Source:    string(source),
		ImageURL:  resp.ImageURL,
		RequestID: requestID,
		CreatedAt: now,
	})
	s.publish(ctx, detection.VerdictEvent{
		ID:        id,
		RequestID: requestID,
		Status:    resp.Status,
		EyeStates: eyeStates,
		Faces:     resp.Faces,
		Source:    source,
		CreatedAt: now,
	})

	return resp, nil
}

// archive, record and publish are telemetry. Their failures are logged and
// never change the verdict.
func (s *detectionService) archive(ctx context.Context, id string, image []byte) string {
	if s.s3Client == nil {
		return ""
	}

	contentType := http.DetectContentType(image)
	ext := ".bin"
	if exts, _ := mime.ExtensionsByType(contentType); len(exts) > 0 {
		ext = exts[0]
	}

	url, err := s.s3Client.UploadImage(id+ext, image, contentType)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(ctx),
			"error":      err.Error(),
		}).Warn("Failed to archive frame")
		return ""
	}
	return url
}

func (s *detectionService) record(ctx context.Context, d entity.DrowsinessDetection) {
	if s.detectionRepo == nil {
		return
	}

	repo, err := s.detectionRepo.NewClient(false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": d.RequestID,
			"error":      err.Error(),
		}).Warn("Failed to create repository client")
		return
	}

	if err := repo.Detections.CreateDetection(ctx, d); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id":   d.RequestID,
			"detection_id": d.ID,
			"error":        err.Error(),
		}).Warn("Failed to record detection")
	}
}

func (s *detectionService) publish(ctx context.Context, event detection.VerdictEvent) {
	if s.redis == nil {
		return
	}

	if err := s.redis.PublishVerdict(ctx, event); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": event.RequestID,
			"error":      err.Error(),
		}).Warn("Failed to publish verdict")
	}
}

func (s *detectionService) GetDetections(ctx context.Context, query detection.HistoryQuery) (*detection.HistoryResponse, error) {
	if s.detectionRepo == nil {
		return nil, detection.ErrHistoryDisabled
	}

	repo, err := s.detectionRepo.NewClient(false)
	if err != nil {
		return nil, err
	}

	offset := (query.Page - 1) * query.Limit
	records, total, err := repo.Detections.GetDetections(ctx, query.Status, query.Limit, offset)
	if err != nil {
		return nil, err
	}

	resp := &detection.HistoryResponse{
		Detections: make([]detection.DetectionRecordResponse, 0, len(records)),
		Total:      total,
		Page:       query.Page,
		Limit:      query.Limit,
	}
	for _, record := range records {
		resp.Detections = append(resp.Detections, makeRecordResponse(record))
	}

	return resp, nil
}

func (s *detectionService) GetDetectionByID(ctx context.Context, id string) (*detection.DetectionRecordResponse, error) {
	if s.detectionRepo == nil {
		return nil, detection.ErrHistoryDisabled
	}

	repo, err := s.detectionRepo.NewClient(false)
	if err != nil {
		return nil, err
	}

	record, err := repo.Detections.GetDetectionByID(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := makeRecordResponse(record)
	return &resp, nil
}

func makeRecordResponse(d entity.DrowsinessDetection) detection.DetectionRecordResponse {
	return detection.DetectionRecordResponse{
		ID:        d.ID,
		Status:    d.Status,
		EyeStates: d.EyeStates,
		Faces:     d.FaceCount,
		Source:    d.Source,
		ImageURL:  d.ImageURL,
		CreatedAt: d.CreatedAt,
	}
}
