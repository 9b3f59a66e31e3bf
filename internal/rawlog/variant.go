package rawlog

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"
	"unicode/utf8"
)

type Variant string

const (
	VariantAuto   Variant = ""
	VariantJSONL  Variant = "jsonl"
	VariantTagged Variant = "tagged"
	VariantBinary Variant = "binary"
)

func ParseVariant(s string) (Variant, error) {
	switch v := Variant(strings.ToLower(strings.TrimSpace(s))); v {
	case VariantAuto, VariantJSONL, VariantTagged, VariantBinary:
		return v, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownVariant, s)
	}
}

type Decoder interface {
	Decode(blob []byte) (*Result, error)
}

// NewDecoder resolves a variant tag to its decoder. VariantAuto sniffs the
// blob on every call.
func NewDecoder(v Variant) (Decoder, error) {
	switch v {
	case VariantAuto:
		return autoDecoder{}, nil
	case VariantJSONL:
		return lineDecoder{parse: parseArrayLine}, nil
	case VariantTagged:
		return lineDecoder{parse: parseTaggedLine}, nil
	case VariantBinary:
		return binaryDecoder{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownVariant, string(v))
	}
}

// DetectVariant guesses the variant. Blobs that are not UTF-8, or that split
// exactly into binary frames, are binary; otherwise the first non-blank byte
// decides.
func DetectVariant(blob []byte) Variant {
	if !utf8.Valid(blob) || isFramed(blob) {
		return VariantBinary
	}
	trimmed := bytes.TrimLeft(blob, " \t\r\n")
	if len(trimmed) == 0 {
		return VariantJSONL
	}
	switch c := trimmed[0]; {
	case c == '[':
		return VariantJSONL
	case c == '{':
		return VariantTagged
	case c >= '0' && c <= '9':
		loc := isoTimestampPrefix.FindIndex(trimmed)
		if loc == nil || loc[0] != 0 {
			return VariantBinary
		}
		if body := trimmed[loc[1]:]; len(body) > 0 && body[0] == '{' {
			return VariantTagged
		}
		return VariantJSONL
	default:
		return VariantBinary
	}
}

type autoDecoder struct{}

func (autoDecoder) Decode(blob []byte) (*Result, error) {
	d, err := NewDecoder(DetectVariant(blob))
	if err != nil {
		return nil, err
	}
	return d.Decode(blob)
}

// isFramed reports whether blob is a non-empty run of length-prefixed frames
// that ends exactly at the last byte, each starting with a known frame type.
func isFramed(blob []byte) bool {
	off := 0
	for off < len(blob) {
		size, n := binary.Uvarint(blob[off:])
		if n <= 0 || size == 0 || size > uint64(len(blob)-off-n) {
			return false
		}
		off += n
		if t := blob[off]; t != frameHeartbeat && t != frameCast {
			return false
		}
		off += int(size)
	}
	return off > 0
}
