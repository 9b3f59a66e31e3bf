package ingest

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/foxseedlab/replaylog/internal/cast"
	"github.com/foxseedlab/replaylog/internal/metrics"
	"github.com/foxseedlab/replaylog/internal/webhook"
)

const notifyTimeout = 10 * time.Second

type Service struct {
	pipeline    *Pipeline
	coordinator *Coordinator
	notifier    webhook.Notifier
	basePath    string
}

func NewService(pipeline *Pipeline, coordinator *Coordinator, notifier webhook.Notifier, basePath string) *Service {
	return &Service{
		pipeline:    pipeline,
		coordinator: coordinator,
		notifier:    notifier,
		basePath:    basePath,
	}
}

type Receipt struct {
	ID  string
	URL string
}

func (s *Service) ViewURL(id string) string {
	return s.basePath + "/view/" + id
}

func (s *Service) Upload(ctx context.Context, env Envelope) (*Receipt, error) {
	b, err := s.pipeline.Prepare(env)
	if err != nil {
		metrics.RecordUpload(uploadResult(err))
		return nil, err
	}
	if err := s.coordinator.Commit(ctx, b); err != nil {
		metrics.RecordUpload(uploadResult(err))
		return nil, err
	}
	metrics.RecordUpload("ok")

	receipt := &Receipt{ID: b.UploadID, URL: s.ViewURL(b.UploadID)}
	s.notify(ctx, b, receipt)
	return receipt, nil
}

func (s *Service) notify(ctx context.Context, b *Batch, receipt *Receipt) {
	if s.notifier == nil {
		return
	}
	payload := webhook.UploadPayload{
		UploadID:           b.UploadID,
		URL:                receipt.URL,
		Note:               b.Note,
		Recordings:         make([]webhook.RecordingSummary, 0, len(b.Recordings)),
		HeartbeatIntervals: len(b.Intervals),
	}
	for _, rec := range b.Recordings {
		payload.Recordings = append(payload.Recordings, webhook.RecordingSummary{
			Filename:        rec.Filename,
			Path:            rec.Key,
			DurationSeconds: rec.Duration.Seconds(),
			EventCount:      rec.EventCount,
		})
	}
	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()
	if err := s.notifier.NotifyUpload(notifyCtx, payload); err != nil {
		slog.Error("failed to send upload webhook", "error", err, "upload_id", b.UploadID)
	}
}

func uploadResult(err error) string {
	var storageErr *StorageError
	switch {
	case errors.As(err, &storageErr):
		return "storage_error"
	case errors.Is(err, cast.ErrCorruptRecording):
		return "corrupt_recording"
	case errors.Is(err, ErrBadInput):
		return "bad_input"
	default:
		return "error"
	}
}
