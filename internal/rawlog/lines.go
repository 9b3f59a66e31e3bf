package rawlog

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/foxseedlab/replaylog/internal/cast"
	"github.com/goccy/go-json"
)

// record is what a single line contributes: pulses, a cast fragment, or both
// empty for a record that carried nothing.
type record struct {
	pulses      []HeartbeatPulse
	recordingID string
	fragment    []byte
}

type lineParser func(line []byte) (record, error)

// lineDecoder drives the text variants. It never fails as a whole: every
// line stands on its own.
type lineDecoder struct {
	parse lineParser
}

func (d lineDecoder) Decode(blob []byte) (*Result, error) {
	res := &Result{}
	acc := NewAccumulator()
	for _, line := range bytes.Split(StripTimestamps(blob), []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		rec, err := d.parse(line)
		if err != nil {
			res.Dropped++
			continue
		}
		res.Pulses = append(res.Pulses, rec.pulses...)
		if rec.recordingID != "" {
			acc.Append(rec.recordingID, cast.EncodingText, rec.fragment)
		}
	}
	res.Chunks = acc.Chunks()
	return res, nil
}

const (
	kindHeartbeat = "heartbeat"
	kindCast      = "cast"
)

// parseArrayLine handles ["heartbeat", [[ts, session], ...]] and
// ["cast", [id, base64(gzip(fragment))]].
func parseArrayLine(line []byte) (record, error) {
	var envelope []json.RawMessage
	if err := json.Unmarshal(line, &envelope); err != nil {
		return record{}, fmt.Errorf("invalid event: %w", err)
	}
	if len(envelope) != 2 {
		return record{}, fmt.Errorf("event expects [kind, payload], got %d elements", len(envelope))
	}
	var kind string
	if err := json.Unmarshal(envelope[0], &kind); err != nil {
		return record{}, fmt.Errorf("event kind: %w", err)
	}
	payload := envelope[1]

	switch kind {
	case kindHeartbeat:
		var pairs []heartbeatPair
		if err := json.Unmarshal(payload, &pairs); err != nil {
			return record{}, fmt.Errorf("heartbeat payload expects [[timestamp, session], ...]: %w", err)
		}
		pulses, err := pulsesFromPairs(pairs)
		if err != nil {
			return record{}, err
		}
		return record{pulses: pulses}, nil
	case kindCast:
		var parts []string
		if err := json.Unmarshal(payload, &parts); err != nil || len(parts) != 2 {
			return record{}, errors.New("cast payload expects [filename, content]")
		}
		return castRecord(parts[0], CodecGzip, parts[1])
	default:
		return record{}, fmt.Errorf("unknown event type %q", kind)
	}
}

type taggedLine struct {
	Kind    string          `json:"kind"`
	Session *SessionID      `json:"session"`
	ID      string          `json:"id"`
	Codec   string          `json:"codec"`
	Data    *string         `json:"data"`
	Beats   []heartbeatPair `json:"beats"`
}

// parseTaggedLine handles {"kind": ..., "codec": ..., "data": ...} objects.
func parseTaggedLine(line []byte) (record, error) {
	var tl taggedLine
	if err := json.Unmarshal(line, &tl); err != nil {
		return record{}, fmt.Errorf("invalid event: %w", err)
	}
	codec, err := parseCodec(tl.Codec)
	if err != nil {
		return record{}, err
	}

	switch tl.Kind {
	case kindHeartbeat:
		if tl.Data == nil {
			pulses, err := pulsesFromPairs(tl.Beats)
			if err != nil {
				return record{}, err
			}
			return record{pulses: pulses}, nil
		}
		session := DefaultSession
		if tl.Session != nil {
			session = *tl.Session
		}
		packed, err := decodeBase64Compressed(codec, *tl.Data)
		if err != nil {
			return record{}, err
		}
		pulses, err := decodePackedTimestamps(session, packed)
		if err != nil {
			return record{}, err
		}
		return record{pulses: pulses}, nil
	case kindCast:
		if tl.Data == nil {
			return record{}, errors.New("cast event has no data")
		}
		return castRecord(tl.ID, codec, *tl.Data)
	default:
		return record{}, fmt.Errorf("unknown event type %q", tl.Kind)
	}
}

func castRecord(id string, codec Codec, payload string) (record, error) {
	if id == "" {
		return record{}, errors.New("cast event has no recording id")
	}
	fragment, err := decodeBase64Compressed(codec, payload)
	if err != nil {
		return record{}, fmt.Errorf("failed to decompress cast payload: %w", err)
	}
	return record{recordingID: id, fragment: fragment}, nil
}
