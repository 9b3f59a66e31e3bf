package cast

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// parseText reads an asciicast body. Event lines that do not parse are
// skipped; the header line must parse.
func parseText(body []byte) (Header, []Event, error) {
	lines := bytes.Split(body, []byte("\n"))
	first := -1
	for i, line := range lines {
		if len(bytes.TrimSpace(line)) > 0 {
			first = i
			break
		}
	}
	if first < 0 {
		return Header{}, nil, errors.New("empty asciinema cast")
	}
	header, err := parseHeader(bytes.TrimSpace(lines[first]))
	if err != nil {
		return Header{}, nil, err
	}

	intervals := header.Version >= CanonicalVersion
	var (
		events  []Event
		elapsed time.Duration
	)
	for _, line := range lines[first+1:] {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		ev, t, err := parseTextEvent(line)
		if err != nil {
			continue
		}
		if intervals {
			elapsed += t
		} else {
			elapsed = t
		}
		ev.Elapsed = elapsed
		events = append(events, ev)
	}
	return header, events, nil
}

func parseTextEvent(line []byte) (Event, time.Duration, error) {
	var tuple []json.RawMessage
	if err := json.Unmarshal(line, &tuple); err != nil {
		return Event{}, 0, err
	}
	if len(tuple) != 3 {
		return Event{}, 0, fmt.Errorf("event expects [time, tag, payload], got %d elements", len(tuple))
	}
	var (
		sec     float64
		tag     string
		payload string
	)
	if err := json.Unmarshal(tuple[0], &sec); err != nil {
		return Event{}, 0, err
	}
	if math.IsNaN(sec) || math.IsInf(sec, 0) || sec < 0 {
		return Event{}, 0, fmt.Errorf("event time %v out of range", sec)
	}
	if err := json.Unmarshal(tuple[1], &tag); err != nil {
		return Event{}, 0, err
	}
	if err := json.Unmarshal(tuple[2], &payload); err != nil {
		return Event{}, 0, err
	}
	kind, ok := kindFromTag(tag)
	if !ok {
		return Event{}, 0, fmt.Errorf("unknown event tag %q", tag)
	}
	ev := Event{Kind: kind}
	if kind == KindResize {
		cols, rows, err := parseSize(payload)
		if err != nil {
			return Event{}, 0, err
		}
		ev.Cols, ev.Rows = cols, rows
	} else {
		ev.Text = payload
	}
	return ev, secondsToDuration(sec), nil
}

// parseSize reads the "{cols}x{rows}" resize payload.
func parseSize(payload string) (uint16, uint16, error) {
	c, r, ok := strings.Cut(payload, "x")
	if !ok {
		return 0, 0, fmt.Errorf("stty size %q wrong", payload)
	}
	cols, err := strconv.ParseUint(c, 10, 16)
	if err != nil {
		return 0, 0, fmt.Errorf("resize cols: %w", err)
	}
	rows, err := strconv.ParseUint(r, 10, 16)
	if err != nil {
		return 0, 0, fmt.Errorf("resize rows: %w", err)
	}
	return uint16(cols), uint16(rows), nil
}

// maxEventSeconds keeps elapsed times well inside time.Duration.
const maxEventSeconds = 1 << 32

func secondsToDuration(sec float64) time.Duration {
	if sec > maxEventSeconds {
		sec = maxEventSeconds
	}
	return time.Duration(math.Round(sec*1e6)) * time.Microsecond
}
