package cast

import (
	"bytes"
	"fmt"
	"slices"
	"strconv"

	"github.com/goccy/go-json"
)

// CanonicalVersion marks documents whose event times are intervals from the
// previous event.
const CanonicalVersion = 3

type Header struct {
	Version   int
	Width     uint16
	Height    uint16
	Timestamp int64
	Env       json.RawMessage
	// Extra keeps unrecognised header keys so they survive re-serialization.
	Extra map[string]json.RawMessage
}

type term struct {
	Cols uint16 `json:"cols"`
	Rows uint16 `json:"rows"`
}

// minUnixSecond and maxUnixSecond keep the start time within years 0000
// through 9999.
const (
	minUnixSecond int64 = -62167219200
	maxUnixSecond int64 = 253402300799
)

var knownHeaderKeys = []string{"version", "width", "height", "term", "timestamp", "env"}

func parseHeader(line []byte) (Header, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(line, &fields); err != nil {
		return Header{}, fmt.Errorf("invalid header JSON: %w", err)
	}
	var h Header
	if err := decodeField(fields, "version", &h.Version); err != nil {
		return Header{}, err
	}
	if err := decodeField(fields, "width", &h.Width); err != nil {
		return Header{}, err
	}
	if err := decodeField(fields, "height", &h.Height); err != nil {
		return Header{}, err
	}
	var t term
	if err := decodeField(fields, "term", &t); err != nil {
		return Header{}, err
	}
	if h.Width == 0 {
		h.Width = t.Cols
	}
	if h.Height == 0 {
		h.Height = t.Rows
	}
	if err := decodeField(fields, "timestamp", &h.Timestamp); err != nil {
		return Header{}, err
	}
	if h.Timestamp < minUnixSecond || h.Timestamp > maxUnixSecond {
		return Header{}, fmt.Errorf("header timestamp %d out of range", h.Timestamp)
	}
	if env, ok := fields["env"]; ok && !bytes.Equal(env, []byte("null")) {
		h.Env = env
	}
	for _, k := range knownHeaderKeys {
		delete(fields, k)
	}
	if len(fields) > 0 {
		h.Extra = fields
	}
	return h, nil
}

func decodeField(fields map[string]json.RawMessage, key string, v any) error {
	raw, ok := fields[key]
	if !ok || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("header field %q: %w", key, err)
	}
	return nil
}

// MarshalJSON writes known keys in a fixed order followed by extra keys in
// lexical order, so equal headers always produce equal bytes.
func (h Header) MarshalJSON() ([]byte, error) {
	var b bytes.Buffer
	b.WriteString(`{"version":`)
	b.WriteString(strconv.Itoa(h.Version))
	b.WriteString(`,"width":`)
	b.WriteString(strconv.FormatUint(uint64(h.Width), 10))
	b.WriteString(`,"height":`)
	b.WriteString(strconv.FormatUint(uint64(h.Height), 10))
	fmt.Fprintf(&b, `,"term":{"cols":%d,"rows":%d}`, h.Width, h.Height)
	b.WriteString(`,"timestamp":`)
	b.WriteString(strconv.FormatInt(h.Timestamp, 10))
	if len(h.Env) > 0 {
		var compact bytes.Buffer
		if err := json.Compact(&compact, h.Env); err != nil {
			return nil, fmt.Errorf("header env: %w", err)
		}
		b.WriteString(`,"env":`)
		b.Write(compact.Bytes())
	}
	keys := make([]string, 0, len(h.Extra))
	for k := range h.Extra {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		var compact bytes.Buffer
		if err := json.Compact(&compact, h.Extra[k]); err != nil {
			return nil, fmt.Errorf("header field %q: %w", k, err)
		}
		b.WriteByte(',')
		b.Write(key)
		b.WriteByte(':')
		b.Write(compact.Bytes())
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}
