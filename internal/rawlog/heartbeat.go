package rawlog

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// decodePackedTimestamps reads a fixed-width array of u32 little-endian unix
// timestamps.
func decodePackedTimestamps(session SessionID, packed []byte) ([]HeartbeatPulse, error) {
	if len(packed)%4 != 0 {
		return nil, fmt.Errorf("packed heartbeat length %d is not a multiple of 4", len(packed))
	}
	out := make([]HeartbeatPulse, 0, len(packed)/4)
	for off := 0; off < len(packed); off += 4 {
		ts := binary.LittleEndian.Uint32(packed[off:])
		p, err := unixPulse(session, int64(ts))
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// heartbeatPair is the [timestamp, session] JSON form.
type heartbeatPair struct {
	ts      int64
	session SessionID
}

func (p *heartbeatPair) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if len(raw) != 2 {
		return fmt.Errorf("heartbeat pair expects [timestamp, session], got %d elements", len(raw))
	}
	if err := json.Unmarshal(raw[0], &p.ts); err != nil {
		return fmt.Errorf("heartbeat timestamp: %w", err)
	}
	return json.Unmarshal(raw[1], &p.session)
}

func pulsesFromPairs(pairs []heartbeatPair) ([]HeartbeatPulse, error) {
	out := make([]HeartbeatPulse, 0, len(pairs))
	for _, pair := range pairs {
		p, err := unixPulse(pair.session, pair.ts)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// RawHeartbeatLog renders pulses as "<session> <unix_ts>" lines in decode
// order. This is the raw heartbeat log stored next to the recordings.
func RawHeartbeatLog(pulses []HeartbeatPulse) []byte {
	var b strings.Builder
	for _, p := range pulses {
		b.WriteString(string(p.Session))
		b.WriteByte(' ')
		b.WriteString(strconv.FormatInt(p.Time.Unix(), 10))
		b.WriteByte('\n')
	}
	return []byte(b.String())
}
