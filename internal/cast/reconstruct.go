package cast

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/goccy/go-json"
)

// Document is a recording rewritten to canonical form. Body is exactly what
// gets stored.
type Document struct {
	Filename string
	Header   Header
	Events   []Event
	Body     []byte
	// Truncated reports that a binary event stream ended in a bad record.
	Truncated bool
}

type Metadata struct {
	Filename       string
	StartedAt      time.Time
	Duration       time.Duration
	ActiveDuration time.Duration
	EventCount     int
	Width          uint16
	Height         uint16
	SizeBytes      int
}

// Reconstruct parses an accumulated recording body, widens the header to the
// largest terminal size observed and re-serializes it canonically.
func Reconstruct(filename string, enc Encoding, body []byte) (*Document, error) {
	var (
		header    Header
		events    []Event
		err       error
		truncated bool
	)
	switch enc {
	case EncodingText:
		header, events, err = parseText(body)
	case EncodingBinary:
		header, events, truncated, err = parseBinary(body)
	default:
		err = fmt.Errorf("unknown encoding %q", enc)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorruptRecording, filename, err)
	}

	monotonic(events)
	header.Width, header.Height = maxSize(header, events)
	header.Version = CanonicalVersion

	out, err := encodeCanonical(header, events)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorruptRecording, filename, err)
	}
	return &Document{
		Filename:  filename,
		Header:    header,
		Events:    events,
		Body:      out,
		Truncated: truncated,
	}, nil
}

func (d *Document) Metadata() Metadata {
	return Metadata{
		Filename:       d.Filename,
		StartedAt:      time.Unix(d.Header.Timestamp, 0).UTC(),
		Duration:       lastOutput(d.Events, 0),
		ActiveDuration: lastOutput(d.Events, 1),
		EventCount:     len(d.Events),
		Width:          d.Header.Width,
		Height:         d.Header.Height,
		SizeBytes:      len(d.Body),
	}
}

// lastOutput returns the elapsed time of the output event that has skip
// later output events after it, or zero if there is none.
//
// With skip 1 this is the active duration: the elapsed time of the
// second-to-last output, i.e. when output last resumed before the final
// pause. It is not total busy time.
func lastOutput(events []Event, skip int) time.Duration {
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Kind != KindOutput {
			continue
		}
		if skip == 0 {
			return events[i].Elapsed
		}
		skip--
	}
	return 0
}

func maxSize(h Header, events []Event) (uint16, uint16) {
	w, ht := h.Width, h.Height
	for _, ev := range events {
		if ev.Kind != KindResize {
			continue
		}
		w = max(w, ev.Cols)
		ht = max(ht, ev.Rows)
	}
	return w, ht
}

// monotonic clamps elapsed times so they never go backwards.
func monotonic(events []Event) {
	var prev time.Duration
	for i := range events {
		if events[i].Elapsed < prev {
			events[i].Elapsed = prev
		}
		prev = events[i].Elapsed
	}
}

func encodeCanonical(h Header, events []Event) ([]byte, error) {
	var b bytes.Buffer
	hdr, err := h.MarshalJSON()
	if err != nil {
		return nil, err
	}
	b.Write(hdr)
	b.WriteByte('\n')

	var prev time.Duration
	for _, ev := range events {
		payload := ev.Text
		if ev.Kind == KindResize {
			payload = strconv.FormatUint(uint64(ev.Cols), 10) + "x" + strconv.FormatUint(uint64(ev.Rows), 10)
		}
		text, err := json.MarshalNoEscape(payload)
		if err != nil {
			return nil, err
		}
		b.WriteByte('[')
		b.WriteString(formatSeconds(ev.Elapsed - prev))
		b.WriteString(`, "`)
		b.WriteString(ev.Kind.Tag())
		b.WriteString(`", `)
		b.Write(text)
		b.WriteString("]\n")
		prev = ev.Elapsed
	}
	return b.Bytes(), nil
}

// formatSeconds renders d with microsecond precision.
func formatSeconds(d time.Duration) string {
	us := d.Microseconds()
	return strconv.FormatInt(us/1_000_000, 10) + "." + fmt.Sprintf("%06d", us%1_000_000)
}
