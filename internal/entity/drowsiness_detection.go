package entity

import "time"

type DrowsinessDetection struct {
	ID        string    `db:"id"`
	Status    string    `db:"status"`
	EyeStates []string  `db:"eye_states"`
	FaceCount int       `db:"face_count"`
	Source    string    `db:"source"`
	ImageURL  string    `db:"image_url"`
	RequestID string    `db:"request_id"`
	CreatedAt time.Time `db:"created_at"`
}
