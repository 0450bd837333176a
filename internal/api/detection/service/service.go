package detectionService

import (
	"context"

	"github.com/maheshmm7/DriveGaurdAI/internal/api/detection"
	detectionRepository "github.com/maheshmm7/DriveGaurdAI/internal/api/detection/repository"
	"github.com/maheshmm7/DriveGaurdAI/internal/drowsiness"
	"github.com/maheshmm7/DriveGaurdAI/pkg/redis"
	"github.com/maheshmm7/DriveGaurdAI/pkg/s3"
	"github.com/maheshmm7/DriveGaurdAI/pkg/utils"
	"github.com/sirupsen/logrus"
)

type IDetectionService interface {
	DetectDrowsiness(ctx context.Context, image []byte, source detection.Source) (*detection.DrowsinessResponse, error)
	GetDetections(ctx context.Context, query detection.HistoryQuery) (*detection.HistoryResponse, error)
	GetDetectionByID(ctx context.Context, id string) (*detection.DetectionRecordResponse, error)
}

type detectionService struct {
	log           *logrus.Logger
	evaluator     drowsiness.IEvaluator
	detectionRepo detectionRepository.Repository
	redis         redis.IRedis
	s3Client      s3.ItfS3
	utils         utils.IUtils
}

// NewDetectionService builds the service. detectionRepo, redisClient and
// s3Client are optional; a nil one turns the matching feature off.
func NewDetectionService(
	log *logrus.Logger,
	evaluator drowsiness.IEvaluator,
	detectionRepo detectionRepository.Repository,
	redisClient redis.IRedis,
	s3Client s3.ItfS3,
	utils utils.IUtils,
) IDetectionService {
	return &detectionService{
		log:           log,
		evaluator:     evaluator,
		detectionRepo: detectionRepo,
		redis:         redisClient,
		s3Client:      s3Client,
		utils:         utils,
	}
}
