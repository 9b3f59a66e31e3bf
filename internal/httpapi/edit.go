package httpapi

import (
	"fmt"
	"math"
	"net/http"

	"github.com/foxseedlab/replaylog/internal/repository"
	"github.com/google/uuid"
)

type addMarkRequest struct {
	CastID int64   `json:"cast_id"`
	Second float64 `json:"second"`
	Note   string  `json:"note"`
}

type addMarkResponse struct {
	OK     bool  `json:"ok"`
	MarkID int64 `json:"mark_id"`
}

type deleteMarkRequest struct {
	MarkID int64 `json:"mark_id"`
}

type noteRequest struct {
	UUID uuid.UUID `json:"uuid"`
	Note string    `json:"note"`
}

type visibleRequest struct {
	UUID    uuid.UUID `json:"uuid"`
	Visible *bool     `json:"visible"`
}

func (h *Handler) AddMark(w http.ResponseWriter, r *http.Request) {
	var req addMarkRequest
	if err := decodeBody(w, r, smallBodyBytes, &req); err != nil {
		respondErr(w, r, err)
		return
	}
	if req.Second < 0 || math.IsNaN(req.Second) || math.IsInf(req.Second, 0) {
		respondErr(w, r, fmt.Errorf("%w: second must be a non-negative number", errBadRequest))
		return
	}
	id, err := h.repo.AddMark(r.Context(), repository.AddMarkInput{
		RecordingID: req.CastID,
		Second:      req.Second,
		Note:        req.Note,
	})
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, addMarkResponse{OK: true, MarkID: id})
}

func (h *Handler) DeleteMark(w http.ResponseWriter, r *http.Request) {
	var req deleteMarkRequest
	if err := decodeBody(w, r, smallBodyBytes, &req); err != nil {
		respondErr(w, r, err)
		return
	}
	if err := h.repo.DeleteMark(r.Context(), req.MarkID); err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, okResponse{OK: true})
}

func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	var req noteRequest
	if err := decodeBody(w, r, smallBodyBytes, &req); err != nil {
		respondErr(w, r, err)
		return
	}
	if err := h.repo.UpdateNote(r.Context(), req.UUID.String(), req.Note); err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, okResponse{OK: true})
}

func (h *Handler) UpdateVisible(w http.ResponseWriter, r *http.Request) {
	var req visibleRequest
	if err := decodeBody(w, r, smallBodyBytes, &req); err != nil {
		respondErr(w, r, err)
		return
	}
	if req.Visible == nil {
		respondErr(w, r, fmt.Errorf("%w: visible is required", errBadRequest))
		return
	}
	if err := h.repo.UpdateVisible(r.Context(), req.UUID.String(), *req.Visible); err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, okResponse{OK: true})
}
