package cast

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"unicode/utf8"
)

var errBinaryTruncated = errors.New("binary event stream truncated")

// parseBinary reads [uvarint header_len][header JSON] followed by event
// records [f32 elapsed][kind][payload]. Records carry no length, so the
// first bad record ends the stream and the events before it are kept; the
// returned flag reports that this happened.
func parseBinary(body []byte) (Header, []Event, bool, error) {
	size, n := binary.Uvarint(body)
	if n <= 0 || size == 0 || size > uint64(len(body)-n) {
		return Header{}, nil, false, errors.New("binary recording has no header")
	}
	header, err := parseHeader(body[n : n+int(size)])
	if err != nil {
		return Header{}, nil, false, err
	}

	var events []Event
	rest := body[n+int(size):]
	for len(rest) > 0 {
		ev, used, err := parseBinaryEvent(rest)
		if err != nil {
			return header, events, true, nil
		}
		events = append(events, ev)
		rest = rest[used:]
	}
	return header, events, false, nil
}

func parseBinaryEvent(b []byte) (Event, int, error) {
	if len(b) < 5 {
		return Event{}, 0, errBinaryTruncated
	}
	sec := float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))
	if math.IsNaN(sec) || math.IsInf(sec, 0) || sec < 0 {
		return Event{}, 0, fmt.Errorf("event time %v out of range", sec)
	}
	ev := Event{Elapsed: secondsToDuration(sec), Kind: Kind(b[4])}
	off := 5
	switch ev.Kind {
	case KindInput, KindOutput:
		size, n := binary.Uvarint(b[off:])
		if n <= 0 || size > uint64(len(b)-off-n) {
			return Event{}, 0, errBinaryTruncated
		}
		off += n
		text := b[off : off+int(size)]
		if !utf8.Valid(text) {
			return Event{}, 0, errors.New("event text is not UTF-8")
		}
		ev.Text = string(text)
		off += int(size)
	case KindResize:
		if len(b) < off+4 {
			return Event{}, 0, errBinaryTruncated
		}
		ev.Rows = binary.LittleEndian.Uint16(b[off:])
		ev.Cols = binary.LittleEndian.Uint16(b[off+2:])
		off += 4
	default:
		return Event{}, 0, fmt.Errorf("unknown event kind %d", b[4])
	}
	return ev, off, nil
}
