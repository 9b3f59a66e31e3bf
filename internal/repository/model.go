package repository

import "time"

type Log struct {
	ID         string
	Note       string
	UploadedAt time.Time
	Visible    bool
}

type HeartbeatRow struct {
	Session   string
	StartedAt time.Time
	EndedAt   time.Time
}

type RecordingRow struct {
	ID             int64
	Bucket         string
	Path           string
	SizeBytes      int64
	Duration       time.Duration
	ActiveDuration time.Duration
	EventCount     int
	StartedAt      time.Time
	Width          int
	Height         int
}

type Mark struct {
	ID          int64
	RecordingID int64
	Second      float64
	Note        string
}
