// Package rawlog decodes uploaded session logs into heartbeat pulses and
// per-recording cast chunks.
//
// Three wire variants are understood:
//
//   - jsonl: one JSON array per line, ["heartbeat", [[ts, session], ...]] or
//     ["cast", [id, base64(gzip(fragment))]].
//   - tagged: one JSON object per line with a "kind" tag and base64 payloads
//     compressed with gzip or zstd.
//   - binary: uvarint length-prefixed frames with zstd compressed payloads.
//
// Lines in the text variants may start with an ISO-8601 timestamp token,
// which is removed before parsing. A record that cannot be parsed is dropped
// and counted; only a blob whose framing cannot be followed fails as a whole.
package rawlog

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/foxseedlab/replaylog/internal/cast"
	"github.com/goccy/go-json"
)

var (
	ErrTruncated      = errors.New("raw log framing is truncated")
	ErrUnknownVariant = errors.New("unknown raw log variant")
)

// DefaultSession is used when a record carries no session id.
const DefaultSession SessionID = "0"

// SessionID accepts both JSON numbers and strings.
type SessionID string

func (s *SessionID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		if str == "" {
			return errors.New("session id is empty")
		}
		*s = SessionID(str)
		return nil
	}
	n, err := strconv.ParseUint(string(b), 10, 64)
	if err != nil {
		return fmt.Errorf("session id must be an unsigned integer or string: %w", err)
	}
	*s = SessionID(strconv.FormatUint(n, 10))
	return nil
}

type HeartbeatPulse struct {
	Session SessionID
	Time    time.Time
}

type CastChunk struct {
	RecordingID string
	Encoding    cast.Encoding
	Data        []byte
}

// Result holds decoded pulses in record order and one chunk per recording in
// first-seen order, with all fragments of that recording concatenated.
type Result struct {
	Pulses  []HeartbeatPulse
	Chunks  []CastChunk
	Dropped int
}

// Accumulator concatenates fragments per recording id while remembering the
// order in which ids were first seen.
type Accumulator struct {
	index  map[string]int
	chunks []CastChunk
}

func NewAccumulator() *Accumulator {
	return &Accumulator{index: make(map[string]int)}
}

func (a *Accumulator) Append(id string, enc cast.Encoding, fragment []byte) {
	if i, ok := a.index[id]; ok {
		a.chunks[i].Data = append(a.chunks[i].Data, fragment...)
		return
	}
	a.index[id] = len(a.chunks)
	a.chunks = append(a.chunks, CastChunk{
		RecordingID: id,
		Encoding:    enc,
		Data:        append([]byte(nil), fragment...),
	})
}

func (a *Accumulator) Chunks() []CastChunk {
	return a.chunks
}

// minUnixSecond and maxUnixSecond bound accepted heartbeat timestamps to
// years 0000 through 9999.
const (
	minUnixSecond int64 = -62167219200
	maxUnixSecond int64 = 253402300799
)

func unixPulse(session SessionID, ts int64) (HeartbeatPulse, error) {
	if ts < minUnixSecond || ts > maxUnixSecond {
		return HeartbeatPulse{}, fmt.Errorf("heartbeat timestamp %d out of range", ts)
	}
	return HeartbeatPulse{Session: session, Time: time.Unix(ts, 0).UTC()}, nil
}
