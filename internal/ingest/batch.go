package ingest

import (
	"errors"

	"github.com/foxseedlab/replaylog/internal/cast"
	"github.com/foxseedlab/replaylog/internal/coverage"
	"github.com/foxseedlab/replaylog/internal/rawlog"
	"github.com/google/uuid"
)

var ErrBadInput = errors.New("bad upload input")

// Envelope is one upload as received. Blob carries a raw log in one of the
// rawlog variants; when it is empty the legacy fields are used instead.
type Envelope struct {
	ID     *uuid.UUID
	Note   string
	Format rawlog.Variant
	Blob   []byte

	LegacyHeartbeats string
	LegacyCasts      []rawlog.LegacyCast
}

func (e Envelope) hasLegacy() bool {
	return e.LegacyHeartbeats != "" || len(e.LegacyCasts) > 0
}

type Recording struct {
	cast.Metadata
	Key       string
	Body      []byte
	Truncated bool
}

// Batch is everything derived from one upload, ready to be committed.
type Batch struct {
	UploadID     string
	Note         string
	Intervals    []coverage.SessionInterval
	Recordings   []Recording
	HeartbeatKey string
	HeartbeatLog []byte
	Pulses       int
	Dropped      int
}
