package objectstore

import (
	"context"
	"errors"
	"io"
	"strings"
)

var ErrNotFound = errors.New("object not found")

const (
	ContentTypeCast      = "application/x-asciicast"
	ContentTypeHeartbeat = "text/plain; charset=utf-8"

	heartbeatFilename = "heartbeats.log"
)

type Store interface {
	// Bucket is the bucket all writes go to.
	Bucket() string
	Put(ctx context.Context, key string, body []byte, contentType string) error
	Get(ctx context.Context, bucket, key string) (io.ReadCloser, error)
}

// Keys lays out objects as {prefix}/{upload_id}/{filename}.
type Keys struct {
	Prefix string
}

func (k Keys) Recording(uploadID, filename string) string {
	return k.join(uploadID, filename)
}

func (k Keys) Heartbeats(uploadID string) string {
	return k.join(uploadID, heartbeatFilename)
}

// IsReservedFilename reports whether a recording filename would collide with
// the raw heartbeat log of the same upload.
func IsReservedFilename(name string) bool {
	return name == heartbeatFilename
}

func (k Keys) join(uploadID, filename string) string {
	prefix := strings.Trim(k.Prefix, "/")
	if prefix == "" {
		return uploadID + "/" + filename
	}
	return prefix + "/" + uploadID + "/" + filename
}
