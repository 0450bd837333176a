package detectionRepository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/maheshmm7/DriveGaurdAI/internal/api/detection"
	"github.com/maheshmm7/DriveGaurdAI/internal/entity"
	contextPkg "github.com/maheshmm7/DriveGaurdAI/pkg/context"
	"github.com/sirupsen/logrus"
)

type DetectionDB struct {
	ID        sql.NullString `db:"id"`
	Status    sql.NullString `db:"status"`
	EyeStates pq.StringArray `db:"eye_states"`
	FaceCount sql.NullInt64  `db:"face_count"`
	Source    sql.NullString `db:"source"`
	ImageURL  sql.NullString `db:"image_url"`
	RequestID sql.NullString `db:"request_id"`
	CreatedAt time.Time      `db:"created_at"`
}

func (r *detectionsRepository) CreateDetection(ctx context.Context, d entity.DrowsinessDetection) error {
	requestID := contextPkg.GetRequestID(ctx)
	argsKV := map[string]interface{}{
		"id":         d.ID,
		"status":     d.Status,
		"eye_states": pq.StringArray(d.EyeStates),
		"face_count": d.FaceCount,
		"source":     d.Source,
		"image_url":  sql.NullString{String: d.ImageURL, Valid: d.ImageURL != ""},
		"request_id": d.RequestID,
		"created_at": d.CreatedAt,
	}

	query, args, err := sqlx.Named(queryCreateDetection, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to build SQL query for CreateDetection")
		return err
	}
	query = r.q.Rebind(query)

	if _, err := r.q.ExecContext(ctx, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Database error when creating detection")
		return err
	}

	return nil
}

func (r *detectionsRepository) GetDetectionByID(ctx context.Context, id string) (entity.DrowsinessDetection, error) {
	requestID := contextPkg.GetRequestID(ctx)
	var row DetectionDB

	query, args, err := sqlx.Named(queryGetDetectionByID, map[string]interface{}{
		"id": id,
	})
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetDetectionByID named query preparation err")
		return entity.DrowsinessDetection{}, err
	}

	query = r.q.Rebind(query)

	if err := r.q.QueryRowxContext(ctx, query, args...).StructScan(&row); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.log.WithFields(logrus.Fields{
				"request_id":   requestID,
				"detection_id": id,
			}).Warn("GetDetectionByID no rows found")
			return entity.DrowsinessDetection{}, detection.ErrDetectionNotFound
		}
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetDetectionByID execution err")
		return entity.DrowsinessDetection{}, err
	}

	return r.makeDetection(row), nil
}

func (r *detectionsRepository) GetDetections(ctx context.Context, status string, limit, offset int) ([]entity.DrowsinessDetection, int, error) {
	requestID := contextPkg.GetRequestID(ctx)
	var total int

	countQuery, countArgs, err := sqlx.Named(queryCountDetections, map[string]interface{}{
		"status": status,
	})
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("CountDetections named query preparation err")
		return nil, 0, err
	}

	countQuery = r.q.Rebind(countQuery)

	if err := r.q.QueryRowxContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("CountDetections execution err")
		return nil, 0, err
	}

	query, args, err := sqlx.Named(queryGetDetections, map[string]interface{}{
		"status": status,
		"limit":  limit,
		"offset": offset,
	})
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetDetections named query preparation err")
		return nil, 0, err
	}

	query = r.q.Rebind(query)

	var rows []DetectionDB
	if err := r.q.SelectContext(ctx, &rows, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetDetections execution err")
		return nil, 0, err
	}

	detections := make([]entity.DrowsinessDetection, 0, len(rows))
	for _, row := range rows {
		detections = append(detections, r.makeDetection(row))
	}

	return detections, total, nil
}

func (r *detectionsRepository) makeDetection(row DetectionDB) entity.DrowsinessDetection {
	eyeStates := []string(row.EyeStates)
	if eyeStates == nil {
		eyeStates = []string{}
	}

	return entity.DrowsinessDetection{
		ID:        row.ID.String,
		Status:    row.Status.String,
		EyeStates: eyeStates,
		FaceCount: int(row.FaceCount.Int64),
		Source:    row.Source.String,
		ImageURL:  row.ImageURL.String,
		RequestID: row.RequestID.String,
		CreatedAt: row.CreatedAt,
	}
}
