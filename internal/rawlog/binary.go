package rawlog

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/foxseedlab/replaylog/internal/cast"
)

const (
	frameHeartbeat byte = 0x01
	frameCast      byte = 0x02
)

// binaryDecoder reads [uvarint length][frame] records. A bad frame is
// skipped using its length prefix; a bad length prefix ends decoding.
type binaryDecoder struct{}

func (binaryDecoder) Decode(blob []byte) (*Result, error) {
	res := &Result{}
	acc := NewAccumulator()
	for off := 0; off < len(blob); {
		size, n := binary.Uvarint(blob[off:])
		if n <= 0 {
			res.Chunks = acc.Chunks()
			return res, fmt.Errorf("%w: unreadable frame length at offset %d", ErrTruncated, off)
		}
		off += n
		if size > uint64(len(blob)-off) {
			res.Chunks = acc.Chunks()
			return res, fmt.Errorf("%w: frame at offset %d needs %d bytes, %d left", ErrTruncated, off-n, size, len(blob)-off)
		}
		frame := blob[off : off+int(size)]
		off += int(size)

		rec, err := parseFrame(frame)
		if err != nil {
			res.Dropped++
			continue
		}
		res.Pulses = append(res.Pulses, rec.pulses...)
		if rec.recordingID != "" {
			acc.Append(rec.recordingID, cast.EncodingBinary, rec.fragment)
		}
	}
	res.Chunks = acc.Chunks()
	return res, nil
}

func parseFrame(frame []byte) (record, error) {
	if len(frame) == 0 {
		return record{}, errors.New("empty frame")
	}
	body := frame[1:]
	switch frame[0] {
	case frameHeartbeat:
		session, n := binary.Uvarint(body)
		if n <= 0 {
			return record{}, errors.New("heartbeat frame has no session")
		}
		packed, err := unzstd(body[n:])
		if err != nil {
			return record{}, err
		}
		pulses, err := decodePackedTimestamps(SessionID(strconv.FormatUint(session, 10)), packed)
		if err != nil {
			return record{}, err
		}
		return record{pulses: pulses}, nil
	case frameCast:
		idLen, n := binary.Uvarint(body)
		if n <= 0 || idLen == 0 || idLen > uint64(len(body)-n) {
			return record{}, errors.New("cast frame has a bad recording id")
		}
		id := body[n : n+int(idLen)]
		if !utf8.Valid(id) {
			return record{}, errors.New("cast frame recording id is not UTF-8")
		}
		fragment, err := unzstd(body[n+int(idLen):])
		if err != nil {
			return record{}, err
		}
		return record{recordingID: string(id), fragment: fragment}, nil
	default:
		return record{}, fmt.Errorf("unknown frame type 0x%02x", frame[0])
	}
}
