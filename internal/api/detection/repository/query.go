package detectionRepository

const (
	queryCreateDetection = `
		INSERT INTO drowsiness_detections (
			id,
			status,
			eye_states,
			face_count,
			source,
			image_url,
			request_id,
			created_at
		) VALUES (
			:id,
			:status,
			:eye_states,
			:face_count,
			:source,
			:image_url,
			:request_id,
			:created_at
		)
	`

	queryGetDetectionByID = `
		SELECT
			id,
			status,
			eye_states,
			face_count,
			source,
			image_url,
			request_id,
			created_at
		FROM drowsiness_detections
		WHERE id = :id
	`

	queryGetDetections = `
		SELECT
			id,
			status,
			eye_states,
			face_count,
			source,
			image_url,
			request_id,
			created_at
		FROM drowsiness_detections
		WHERE (CAST(:status AS TEXT) = '' OR status = :status)
		ORDER BY created_at DESC
		LIMIT :limit OFFSET :offset
	`

	queryCountDetections = `
		SELECT COUNT(*)
		FROM drowsiness_detections
		WHERE (CAST(:status AS TEXT) = '' OR status = :status)
	`
)
