package ingest

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/foxseedlab/replaylog/internal/cast"
	"github.com/foxseedlab/replaylog/internal/coverage"
	"github.com/foxseedlab/replaylog/internal/metrics"
	"github.com/foxseedlab/replaylog/internal/objectstore"
	"github.com/foxseedlab/replaylog/internal/rawlog"
	"github.com/google/uuid"
)

const maxRecordingIDLength = 255

type Pipeline struct {
	keys objectstore.Keys
	gap  time.Duration
}

func NewPipeline(keys objectstore.Keys, gap time.Duration) *Pipeline {
	return &Pipeline{keys: keys, gap: gap}
}

// Prepare decodes an upload, merges its heartbeats and reconstructs every
// recording. Nothing is written anywhere.
func (p *Pipeline) Prepare(env Envelope) (*Batch, error) {
	id := uuid.New()
	if env.ID != nil {
		id = *env.ID
	}
	uploadID := id.String()

	res, err := decode(env)
	if err != nil {
		return nil, err
	}
	metrics.RecordDecode(string(env.Format), len(res.Pulses), res.Dropped)
	if res.Dropped > 0 {
		slog.Warn("dropped malformed raw log records", "upload_id", uploadID, "dropped", res.Dropped)
	}

	b := &Batch{
		UploadID:     uploadID,
		Note:         env.Note,
		Intervals:    mergePulses(res.Pulses, p.gap),
		HeartbeatKey: p.keys.Heartbeats(uploadID),
		HeartbeatLog: rawlog.RawHeartbeatLog(res.Pulses),
		Pulses:       len(res.Pulses),
		Dropped:      res.Dropped,
	}
	for _, chunk := range res.Chunks {
		if err := validateRecordingID(chunk.RecordingID); err != nil {
			return nil, err
		}
		doc, err := cast.Reconstruct(chunk.RecordingID, chunk.Encoding, chunk.Data)
		if err != nil {
			return nil, err
		}
		metrics.RecordRecording(doc.Truncated)
		if doc.Truncated {
			slog.Warn("recording event stream truncated", "upload_id", uploadID, "recording", chunk.RecordingID, "events", len(doc.Events))
		}
		b.Recordings = append(b.Recordings, Recording{
			Metadata:  doc.Metadata(),
			Key:       p.keys.Recording(uploadID, chunk.RecordingID),
			Body:      doc.Body,
			Truncated: doc.Truncated,
		})
	}
	return b, nil
}

func decode(env Envelope) (*rawlog.Result, error) {
	if len(env.Blob) == 0 {
		if !env.hasLegacy() {
			return nil, fmt.Errorf("%w: upload carries no log", ErrBadInput)
		}
		res, err := rawlog.DecodeLegacy(env.LegacyHeartbeats, env.LegacyCasts)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrBadInput, err)
		}
		return res, nil
	}

	d, err := rawlog.NewDecoder(env.Format)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadInput, err)
	}
	res, err := d.Decode(env.Blob)
	if err != nil {
		if errors.Is(err, rawlog.ErrTruncated) {
			return nil, fmt.Errorf("%w: %w", ErrBadInput, err)
		}
		return nil, err
	}
	return res, nil
}

func mergePulses(pulses []rawlog.HeartbeatPulse, gap time.Duration) []coverage.SessionInterval {
	points := make([]coverage.SessionInterval, 0, len(pulses))
	for _, p := range pulses {
		points = append(points, coverage.SessionInterval{
			Session:  string(p.Session),
			Interval: coverage.Interval{Start: p.Time, End: p.Time},
		})
	}
	return coverage.MergeSessions(points, gap)
}

// validateRecordingID keeps recording ids usable as the last segment of an
// object key.
func validateRecordingID(id string) error {
	switch {
	case id == "", id == ".", id == "..":
		return fmt.Errorf("%w: invalid recording id %q", ErrBadInput, id)
	case len(id) > maxRecordingIDLength:
		return fmt.Errorf("%w: recording id longer than %d bytes", ErrBadInput, maxRecordingIDLength)
	case strings.ContainsAny(id, "/\\\x00"):
		return fmt.Errorf("%w: recording id %q contains a path separator", ErrBadInput, id)
	case objectstore.IsReservedFilename(id):
		return fmt.Errorf("%w: recording id %q is reserved", ErrBadInput, id)
	}
	return nil
}
