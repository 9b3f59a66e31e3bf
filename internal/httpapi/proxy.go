package httpapi

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/foxseedlab/replaylog/internal/objectstore"
	"github.com/go-chi/chi/v5"
)

// ObjectProxy streams a stored object back to the browser player. Only the
// configured bucket is served.
func (h *Handler) ObjectProxy(w http.ResponseWriter, r *http.Request) {
	bucket := chi.URLParam(r, "bucket")
	key := chi.URLParam(r, "*")
	if bucket != h.store.Bucket() || key == "" {
		respondError(w, http.StatusNotFound, "object not found")
		return
	}
	body, err := h.store.Get(r.Context(), bucket, key)
	if err != nil {
		if errors.Is(err, objectstore.ErrNotFound) {
			respondError(w, http.StatusNotFound, "object not found")
			return
		}
		slog.Error("object proxy failed", "bucket", bucket, "key", key, "error", err)
		respondError(w, http.StatusBadGateway, "read error")
		return
	}
	defer func() {
		_ = body.Close()
	}()
	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		slog.Warn("object proxy copy interrupted", "bucket", bucket, "key", key, "error", err)
	}
}
