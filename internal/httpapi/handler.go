package httpapi

import (
	"time"

	"github.com/foxseedlab/replaylog/internal/ingest"
	"github.com/foxseedlab/replaylog/internal/objectstore"
	"github.com/foxseedlab/replaylog/internal/repository"
)

// smallBodyBytes bounds the JSON bodies of the edit endpoints.
const smallBodyBytes = 1 << 20

type Handler struct {
	ingest         *ingest.Service
	repo           repository.Repository
	store          objectstore.Store
	basePath       string
	intervalGap    time.Duration
	maxUploadBytes int64
}

type HandlerOptions struct {
	BasePath       string
	IntervalGap    time.Duration
	MaxUploadBytes int64
}

func NewHandler(svc *ingest.Service, repo repository.Repository, store objectstore.Store, opts HandlerOptions) *Handler {
	return &Handler{
		ingest:         svc,
		repo:           repo,
		store:          store,
		basePath:       opts.BasePath,
		intervalGap:    opts.IntervalGap,
		maxUploadBytes: opts.MaxUploadBytes,
	}
}
