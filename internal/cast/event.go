// Package cast rebuilds terminal recordings into one canonical asciicast
// document and derives their replay metadata.
package cast

import (
	"errors"
	"time"
)

var ErrCorruptRecording = errors.New("corrupt recording")

// Encoding is the body format of an accumulated recording.
type Encoding string

const (
	// EncodingText is asciicast lines: a header object, then [time, tag, payload].
	EncodingText Encoding = "text"
	// EncodingBinary is a uvarint-prefixed header followed by packed event records.
	EncodingBinary Encoding = "binary"
)

type Kind byte

const (
	KindInput  Kind = 0
	KindOutput Kind = 1
	KindResize Kind = 2
)

func (k Kind) Tag() string {
	switch k {
	case KindInput:
		return "i"
	case KindOutput:
		return "o"
	case KindResize:
		return "r"
	default:
		return ""
	}
}

func kindFromTag(tag string) (Kind, bool) {
	switch tag {
	case "i":
		return KindInput, true
	case "o":
		return KindOutput, true
	case "r":
		return KindResize, true
	default:
		return 0, false
	}
}

// Event carries its elapsed time from the start of the recording.
type Event struct {
	Elapsed time.Duration
	Kind    Kind
	Text    string
	Rows    uint16
	Cols    uint16
}
