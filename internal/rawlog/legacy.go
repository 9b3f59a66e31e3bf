package rawlog

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"strconv"

	"github.com/foxseedlab/replaylog/internal/cast"
)

type LegacyCast struct {
	Filename string
	Content  string
}

// DecodeLegacy accepts the historical upload body: base64 "session ts"
// heartbeat lines plus whole base64 cast files. Undecodable base64 is an
// error because it is the envelope, not a record, that is broken.
func DecodeLegacy(heartbeatB64 string, casts []LegacyCast) (*Result, error) {
	res := &Result{}
	raw, err := base64.StdEncoding.DecodeString(heartbeatB64)
	if err != nil {
		return nil, fmt.Errorf("decode heartbeat base64: %w", err)
	}
	for _, line := range bytes.Split(raw, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		p, err := parseLegacyHeartbeat(line)
		if err != nil {
			res.Dropped++
			continue
		}
		res.Pulses = append(res.Pulses, p)
	}

	acc := NewAccumulator()
	for _, c := range casts {
		content, err := base64.StdEncoding.DecodeString(c.Content)
		if err != nil {
			return nil, fmt.Errorf("decode cast %q base64: %w", c.Filename, err)
		}
		acc.Append(c.Filename, cast.EncodingText, content)
	}
	res.Chunks = acc.Chunks()
	return res, nil
}

func parseLegacyHeartbeat(line []byte) (HeartbeatPulse, error) {
	session, ts, ok := bytes.Cut(line, []byte(" "))
	if !ok {
		return HeartbeatPulse{}, fmt.Errorf("heartbeat line %q expects \"session timestamp\"", line)
	}
	sid, err := strconv.ParseUint(string(session), 10, 64)
	if err != nil {
		return HeartbeatPulse{}, fmt.Errorf("heartbeat session: %w", err)
	}
	unix, err := strconv.ParseInt(string(bytes.TrimSpace(ts)), 10, 64)
	if err != nil {
		return HeartbeatPulse{}, fmt.Errorf("heartbeat timestamp: %w", err)
	}
	return unixPulse(SessionID(strconv.FormatUint(sid, 10)), unix)
}
