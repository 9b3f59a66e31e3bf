package cast

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"
	"time"
)

func binaryFixture(t *testing.T) []byte {
	t.Helper()
	b, err := appendBinary(nil, Header{Width: 80, Height: 24, Timestamp: 1700000000}, []Event{
		{Elapsed: 500 * time.Millisecond, Kind: KindOutput, Text: "$ "},
		{Elapsed: time.Second, Kind: KindInput, Text: "ls\r"},
		{Elapsed: 2 * time.Second, Kind: KindResize, Rows: 40, Cols: 132},
		{Elapsed: 3 * time.Second, Kind: KindOutput, Text: "file\r\n"},
	})
	if err != nil {
		t.Fatalf("failed to encode fixture: %v", err)
	}
	return b
}

func TestReconstructBinary(t *testing.T) {
	doc, err := Reconstruct("b.cast", EncodingBinary, binaryFixture(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Truncated {
		t.Fatal("did not expect truncation")
	}
	meta := doc.Metadata()
	if meta.Width != 132 || meta.Height != 40 {
		t.Fatalf("expected 132x40, got %dx%d", meta.Width, meta.Height)
	}
	if meta.Duration != 3*time.Second || meta.ActiveDuration != 500*time.Millisecond {
		t.Fatalf("unexpected durations: duration=%v active=%v", meta.Duration, meta.ActiveDuration)
	}
	if meta.EventCount != 4 {
		t.Fatalf("expected 4 events, got %d", meta.EventCount)
	}
	if !meta.StartedAt.Equal(time.Unix(1700000000, 0)) {
		t.Fatalf("unexpected started_at: %v", meta.StartedAt)
	}
	want := strings.Join([]string{
		`{"version":3,"width":132,"height":40,"term":{"cols":132,"rows":40},"timestamp":1700000000}`,
		`[0.500000, "o", "$ "]`,
		`[0.500000, "i", "ls\r"]`,
		`[1.000000, "r", "132x40"]`,
		`[1.000000, "o", "file\r\n"]`,
	}, "\n") + "\n"
	if string(doc.Body) != want {
		t.Fatalf("unexpected canonical body:\n%s\nwant:\n%s", doc.Body, want)
	}
}

func TestReconstructBinary_UnknownKindStopsStream(t *testing.T) {
	body := binaryFixture(t)
	body = binary.LittleEndian.AppendUint32(body, 0x40800000) // 4.0
	body = append(body, 7, 1, 2, 3)

	doc, err := Reconstruct("b.cast", EncodingBinary, body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !doc.Truncated {
		t.Fatal("expected truncation flag")
	}
	if len(doc.Events) != 4 {
		t.Fatalf("expected events before the bad record to be kept, got %d", len(doc.Events))
	}
}

func TestReconstructBinary_ShortRecord(t *testing.T) {
	body := append(binaryFixture(t), 0, 0)
	doc, err := Reconstruct("b.cast", EncodingBinary, body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !doc.Truncated || len(doc.Events) != 4 {
		t.Fatalf("expected truncated stream with 4 events, got truncated=%v events=%d", doc.Truncated, len(doc.Events))
	}
}

func TestReconstructBinary_MissingHeader(t *testing.T) {
	cases := map[string][]byte{
		"empty":          nil,
		"zero length":    {0},
		"overrun":        {50, '{'},
		"invalid header": append(binary.AppendUvarint(nil, 3), "abc"...),
	}
	for name, body := range cases {
		if _, err := Reconstruct("b.cast", EncodingBinary, body); !errors.Is(err, ErrCorruptRecording) {
			t.Fatalf("%s: expected ErrCorruptRecording, got %v", name, err)
		}
	}
}

func TestAppendBinaryHelper_RejectsUnknownKind(t *testing.T) {
	if _, err := appendBinary(nil, Header{}, []Event{{Kind: Kind(9)}}); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

// appendBinary encodes a header and events in the binary recording layout.
// Elapsed times are written as absolute float32 seconds.
func appendBinary(dst []byte, h Header, events []Event) ([]byte, error) {
	hdr, err := h.MarshalJSON()
	if err != nil {
		return nil, err
	}
	dst = binary.AppendUvarint(dst, uint64(len(hdr)))
	dst = append(dst, hdr...)
	for _, ev := range events {
		dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(float32(ev.Elapsed.Seconds())))
		dst = append(dst, byte(ev.Kind))
		switch ev.Kind {
		case KindInput, KindOutput:
			dst = binary.AppendUvarint(dst, uint64(len(ev.Text)))
			dst = append(dst, ev.Text...)
		case KindResize:
			dst = binary.LittleEndian.AppendUint16(dst, ev.Rows)
			dst = binary.LittleEndian.AppendUint16(dst, ev.Cols)
		default:
			return nil, fmt.Errorf("unknown event kind %d", ev.Kind)
		}
	}
	return dst, nil
}
