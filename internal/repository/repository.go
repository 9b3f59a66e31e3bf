package repository

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("not found")

type InsertUploadInput struct {
	LogID      string
	Note       string
	Heartbeats []HeartbeatRow
	// Recording IDs are assigned by the store.
	Recordings []RecordingRow
}

type AddMarkInput struct {
	RecordingID int64
	Second      float64
	Note        string
}

type LogRepository interface {
	// InsertUpload writes the log, its heartbeat intervals and its recordings
	// atomically.
	InsertUpload(ctx context.Context, input InsertUploadInput) error
	ListLogs(ctx context.Context) ([]Log, error)
	GetLog(ctx context.Context, id string) (*Log, error)
	UpdateNote(ctx context.Context, id, note string) error
	UpdateVisible(ctx context.Context, id string, visible bool) error
}

type RecordingRepository interface {
	ListHeartbeats(ctx context.Context, logID string) ([]HeartbeatRow, error)
	ListRecordings(ctx context.Context, logID string) ([]RecordingRow, error)
}

type MarkRepository interface {
	// ListMarks returns the marks of every recording in a log.
	ListMarks(ctx context.Context, logID string) ([]Mark, error)
	AddMark(ctx context.Context, input AddMarkInput) (int64, error)
	DeleteMark(ctx context.Context, id int64) error
}

type Repository interface {
	LogRepository
	RecordingRepository
	MarkRepository
}
