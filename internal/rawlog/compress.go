package rawlog

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

type Codec string

const (
	CodecGzip Codec = "gzip"
	CodecZstd Codec = "zstd"
)

// maxDecompressedBytes caps a single decompressed payload.
const maxDecompressedBytes = 256 << 20

// zstd.Decoder.DecodeAll is safe for concurrent use.
var zstdDecoder, _ = zstd.NewReader(nil,
	zstd.WithDecoderConcurrency(0),
	zstd.WithDecoderMaxMemory(maxDecompressedBytes),
)

func parseCodec(s string) (Codec, error) {
	switch Codec(strings.ToLower(strings.TrimSpace(s))) {
	case "", CodecGzip:
		return CodecGzip, nil
	case CodecZstd:
		return CodecZstd, nil
	default:
		return "", fmt.Errorf("unsupported codec %q", s)
	}
}

func decompress(codec Codec, data []byte) ([]byte, error) {
	switch codec {
	case CodecGzip:
		return gunzip(data)
	case CodecZstd:
		return unzstd(data)
	default:
		return nil, fmt.Errorf("unsupported codec %q", codec)
	}
}

func gunzip(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open gzip payload: %w", err)
	}
	defer func() {
		_ = r.Close()
	}()
	out, err := io.ReadAll(io.LimitReader(r, maxDecompressedBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read gzip payload: %w", err)
	}
	if len(out) > maxDecompressedBytes {
		return nil, fmt.Errorf("gzip payload exceeds %d bytes", maxDecompressedBytes)
	}
	return out, nil
}

func unzstd(data []byte) ([]byte, error) {
	out, err := zstdDecoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("read zstd payload: %w", err)
	}
	return out, nil
}

func decodeBase64Compressed(codec Codec, payload string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("decode base64 payload: %w", err)
	}
	return decompress(codec, raw)
}
