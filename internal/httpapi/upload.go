package httpapi

import (
	"fmt"
	"mime"
	"net/http"

	"github.com/foxseedlab/replaylog/internal/ingest"
	"github.com/foxseedlab/replaylog/internal/rawlog"
	"github.com/google/uuid"
)

type uploadCast struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

type uploadRequest struct {
	UUID      *uuid.UUID   `json:"uuid"`
	Notes     string       `json:"notes"`
	Format    string       `json:"format"`
	Log       []byte       `json:"log"`
	Heartbeat string       `json:"heartbeat"`
	Casts     []uploadCast `json:"casts"`
}

type uploadResponse struct {
	OK  bool   `json:"ok"`
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Upload accepts either a JSON envelope or, for any other content type, the
// raw log itself with uuid, notes and format passed as query parameters.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	env, err := h.readEnvelope(w, r)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	receipt, err := h.ingest.Upload(r.Context(), env)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, uploadResponse{OK: true, ID: receipt.ID, URL: receipt.URL})
}

func (h *Handler) readEnvelope(w http.ResponseWriter, r *http.Request) (ingest.Envelope, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var req uploadRequest
		if err := decodeBody(w, r, h.maxUploadBytes, &req); err != nil {
			return ingest.Envelope{}, err
		}
		format, err := rawlog.ParseVariant(req.Format)
		if err != nil {
			return ingest.Envelope{}, fmt.Errorf("%w: %w", errBadRequest, err)
		}
		env := ingest.Envelope{
			ID:               req.UUID,
			Note:             req.Notes,
			Format:           format,
			Blob:             req.Log,
			LegacyHeartbeats: req.Heartbeat,
		}
		for _, c := range req.Casts {
			env.LegacyCasts = append(env.LegacyCasts, rawlog.LegacyCast{Filename: c.Filename, Content: c.Content})
		}
		return env, nil
	}

	q := r.URL.Query()
	format, err := rawlog.ParseVariant(q.Get("format"))
	if err != nil {
		return ingest.Envelope{}, fmt.Errorf("%w: %w", errBadRequest, err)
	}
	env := ingest.Envelope{Note: q.Get("notes"), Format: format}
	if raw := q.Get("uuid"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return ingest.Envelope{}, fmt.Errorf("%w: invalid uuid: %w", errBadRequest, err)
		}
		env.ID = &id
	}
	blob, err := readBody(w, r, h.maxUploadBytes)
	if err != nil {
		return ingest.Envelope{}, err
	}
	env.Blob = blob
	return env, nil
}
