package rawlog

import "regexp"

var isoTimestampPrefix = regexp.MustCompile(`(?m)^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(?:\.\d+)?Z `)

// StripTimestamps removes the ISO-8601 token some clients prepend to every
// line, whatever the payload format. Only a token at the start of a line is
// removed; the same text later in a line belongs to the record.
func StripTimestamps(buf []byte) []byte {
	return isoTimestampPrefix.ReplaceAll(buf, nil)
}
