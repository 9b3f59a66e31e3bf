package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/foxseedlab/replaylog/internal/metrics"
	"github.com/foxseedlab/replaylog/internal/objectstore"
	"github.com/foxseedlab/replaylog/internal/repository"
	"golang.org/x/sync/errgroup"
)

const (
	StageRecordings = "recordings"
	StageHeartbeats = "heartbeats"
	StageMetadata   = "metadata"
)

// StorageError reports which commit stage failed.
type StorageError struct {
	Stage string
	Err   error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s commit failed: %v", e.Stage, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

type Coordinator struct {
	store       objectstore.Store
	repo        repository.LogRepository
	timeout     time.Duration
	concurrency int
}

func NewCoordinator(store objectstore.Store, repo repository.LogRepository, timeout time.Duration, concurrency int) *Coordinator {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Coordinator{
		store:       store,
		repo:        repo,
		timeout:     timeout,
		concurrency: concurrency,
	}
}

type commitStage struct {
	name string
	run  func(ctx context.Context) error
}

// Commit writes the recordings, the raw heartbeat log and the metadata rows
// concurrently. It returns as soon as any stage fails; the remaining stages
// keep running to completion and nothing already written is removed.
//
// The stages run under a context that ignores the caller's cancellation and
// is bounded only by the commit timeout, which is released once every stage
// has returned.
func (c *Coordinator) Commit(ctx context.Context, b *Batch) error {
	commitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)

	stages := []commitStage{
		{name: StageRecordings, run: func(ctx context.Context) error { return c.putRecordings(ctx, b) }},
		{name: StageHeartbeats, run: func(ctx context.Context) error {
			return c.store.Put(ctx, b.HeartbeatKey, b.HeartbeatLog, objectstore.ContentTypeHeartbeat)
		}},
		{name: StageMetadata, run: func(ctx context.Context) error { return c.repo.InsertUpload(ctx, c.uploadRows(b)) }},
	}

	results := make(chan error, len(stages))
	var g errgroup.Group
	for _, s := range stages {
		g.Go(func() error {
			start := time.Now()
			err := s.run(commitCtx)
			metrics.ObserveCommitStage(s.name, start, err)
			if err != nil {
				err = &StorageError{Stage: s.name, Err: err}
			}
			results <- err
			return err
		})
	}
	go func() {
		if err := g.Wait(); err != nil {
			slog.Warn("upload commit finished with failures", "upload_id", b.UploadID, "error", err)
		}
		cancel()
	}()

	for range stages {
		if err := <-results; err != nil {
			slog.Error("upload commit failed", "upload_id", b.UploadID, "error", err)
			return err
		}
	}
	slog.Info("upload committed", "upload_id", b.UploadID, "recordings", len(b.Recordings), "intervals", len(b.Intervals))
	return nil
}

func (c *Coordinator) putRecordings(ctx context.Context, b *Batch) error {
	var g errgroup.Group
	g.SetLimit(c.concurrency)
	for _, rec := range b.Recordings {
		g.Go(func() error {
			return c.store.Put(ctx, rec.Key, rec.Body, objectstore.ContentTypeCast)
		})
	}
	return g.Wait()
}

func (c *Coordinator) uploadRows(b *Batch) repository.InsertUploadInput {
	input := repository.InsertUploadInput{
		LogID:      b.UploadID,
		Note:       b.Note,
		Heartbeats: make([]repository.HeartbeatRow, 0, len(b.Intervals)),
		Recordings: make([]repository.RecordingRow, 0, len(b.Recordings)),
	}
	for _, itv := range b.Intervals {
		input.Heartbeats = append(input.Heartbeats, repository.HeartbeatRow{
			Session:   itv.Session,
			StartedAt: itv.Start,
			EndedAt:   itv.End,
		})
	}
	bucket := c.store.Bucket()
	for _, rec := range b.Recordings {
		input.Recordings = append(input.Recordings, repository.RecordingRow{
			Bucket:         bucket,
			Path:           rec.Key,
			SizeBytes:      int64(rec.SizeBytes),
			Duration:       rec.Duration,
			ActiveDuration: rec.ActiveDuration,
			EventCount:     rec.EventCount,
			StartedAt:      rec.StartedAt,
			Width:          int(rec.Width),
			Height:         int(rec.Height),
		})
	}
	return input
}
