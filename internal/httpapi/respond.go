package httpapi

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/foxseedlab/replaylog/internal/cast"
	"github.com/foxseedlab/replaylog/internal/ingest"
	"github.com/foxseedlab/replaylog/internal/objectstore"
	"github.com/foxseedlab/replaylog/internal/repository"
	"github.com/goccy/go-json"
)

type errorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to marshal json response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		slog.Warn("failed to write json response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, errorResponse{OK: false, Error: msg})
}

// respondErr maps domain errors to status codes. Server-side failures are
// logged; client errors are only echoed back.
func respondErr(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	}
	respondError(w, status, err.Error())
}

func statusFor(err error) int {
	var maxBytesErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytesErr):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, cast.ErrCorruptRecording), errors.Is(err, ingest.ErrBadInput), errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, objectstore.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

var errBadRequest = errors.New("bad request")

func readBody(w http.ResponseWriter, r *http.Request, maxBytes int64) ([]byte, error) {
	body := http.MaxBytesReader(w, r.Body, maxBytes)
	defer func() {
		_ = body.Close()
	}()
	return io.ReadAll(body)
}

// decodeBody reads a JSON request body limited to maxBytes.
func decodeBody(w http.ResponseWriter, r *http.Request, maxBytes int64, v any) error {
	data, err := readBody(w, r, maxBytes)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %w", errBadRequest, err)
	}
	return nil
}
