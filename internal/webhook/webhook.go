package webhook

import "context"

type RecordingSummary struct {
	Filename        string  `json:"filename"`
	Path            string  `json:"path"`
	DurationSeconds float64 `json:"duration_seconds"`
	EventCount      int     `json:"event_count"`
}

type UploadPayload struct {
	UploadID           string             `json:"upload_id"`
	URL                string             `json:"url"`
	Note               string             `json:"note"`
	Recordings         []RecordingSummary `json:"recordings"`
	HeartbeatIntervals int                `json:"heartbeat_intervals"`
}

type Notifier interface {
	NotifyUpload(ctx context.Context, payload UploadPayload) error
}
