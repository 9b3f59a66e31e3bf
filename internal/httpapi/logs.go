package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/foxseedlab/replaylog/internal/coverage"
	"github.com/foxseedlab/replaylog/internal/repository"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	shortActiveDuration = 3 * time.Second
	shortEventCount     = 10
)

type logResponse struct {
	UUID       string    `json:"uuid"`
	Note       string    `json:"note"`
	UploadedAt time.Time `json:"uploaded_at"`
	Visible    bool      `json:"visible"`
}

type listResponse struct {
	OK   bool          `json:"ok"`
	Logs []logResponse `json:"logs"`
}

type heartbeatResponse struct {
	Session   string    `json:"session"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`
}

type markResponse struct {
	ID     int64   `json:"id"`
	Second float64 `json:"second"`
	Note   string  `json:"note"`
}

type castResponse struct {
	ID               int64          `json:"id"`
	Bucket           string         `json:"bucket"`
	Path             string         `json:"path"`
	URL              string         `json:"url"`
	SizeBytes        int64          `json:"size_bytes"`
	DurationMS       int64          `json:"duration_ms"`
	ActiveDurationMS int64          `json:"active_duration_ms"`
	DurationMMSS     string         `json:"duration_mmss"`
	EventCount       int            `json:"event_count"`
	StartedAt        time.Time      `json:"started_at"`
	Width            int            `json:"width"`
	Height           int            `json:"height"`
	IsShort          bool           `json:"is_short"`
	Marks            []markResponse `json:"marks"`
}

type viewResponse struct {
	OK bool `json:"ok"`
	logResponse
	Heartbeats []heartbeatResponse `json:"heartbeats"`
	Casts      []castResponse      `json:"casts"`
}

func toLogResponse(l repository.Log) logResponse {
	return logResponse{UUID: l.ID, Note: l.Note, UploadedAt: l.UploadedAt, Visible: l.Visible}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	logs, err := h.repo.ListLogs(r.Context())
	if err != nil {
		respondErr(w, r, err)
		return
	}
	resp := listResponse{OK: true, Logs: make([]logResponse, 0, len(logs))}
	for _, l := range logs {
		resp.Logs = append(resp.Logs, toLogResponse(l))
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *Handler) View(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondErr(w, r, fmt.Errorf("%w: invalid log id", errBadRequest))
		return
	}
	logID := id.String()

	var (
		l          *repository.Log
		heartbeats []repository.HeartbeatRow
		recordings []repository.RecordingRow
		marks      []repository.Mark
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() (err error) {
		l, err = h.repo.GetLog(ctx, logID)
		return err
	})
	g.Go(func() (err error) {
		heartbeats, err = h.repo.ListHeartbeats(ctx, logID)
		return err
	})
	g.Go(func() (err error) {
		recordings, err = h.repo.ListRecordings(ctx, logID)
		return err
	})
	g.Go(func() (err error) {
		marks, err = h.repo.ListMarks(ctx, logID)
		return err
	})
	if err := g.Wait(); err != nil {
		respondErr(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, viewResponse{
		OK:          true,
		logResponse: toLogResponse(*l),
		Heartbeats:  h.coverage(heartbeats),
		Casts:       h.casts(recordings, marks),
	})
}

// coverage merges stored intervals again with the wider view gap.
func (h *Handler) coverage(rows []repository.HeartbeatRow) []heartbeatResponse {
	in := make([]coverage.SessionInterval, 0, len(rows))
	for _, row := range rows {
		in = append(in, coverage.SessionInterval{
			Session:  row.Session,
			Interval: coverage.Interval{Start: row.StartedAt, End: row.EndedAt},
		})
	}
	merged := coverage.MergeSessions(in, h.intervalGap)
	coverage.SortByStart(merged)

	out := make([]heartbeatResponse, 0, len(merged))
	for _, itv := range merged {
		out = append(out, heartbeatResponse{Session: itv.Session, StartedAt: itv.Start, EndedAt: itv.End})
	}
	return out
}

func (h *Handler) casts(recordings []repository.RecordingRow, marks []repository.Mark) []castResponse {
	byRecording := make(map[int64][]markResponse)
	for _, m := range marks {
		byRecording[m.RecordingID] = append(byRecording[m.RecordingID], markResponse{ID: m.ID, Second: m.Second, Note: m.Note})
	}
	out := make([]castResponse, 0, len(recordings))
	for _, rec := range recordings {
		recMarks := byRecording[rec.ID]
		if recMarks == nil {
			recMarks = []markResponse{}
		}
		out = append(out, castResponse{
			ID:               rec.ID,
			Bucket:           rec.Bucket,
			Path:             rec.Path,
			URL:              h.basePath + "/s3/" + rec.Bucket + "/" + rec.Path,
			SizeBytes:        rec.SizeBytes,
			DurationMS:       rec.Duration.Milliseconds(),
			ActiveDurationMS: rec.ActiveDuration.Milliseconds(),
			DurationMMSS:     durationMMSS(rec.Duration),
			EventCount:       rec.EventCount,
			StartedAt:        rec.StartedAt,
			Width:            rec.Width,
			Height:           rec.Height,
			IsShort:          isShort(rec),
			Marks:            recMarks,
		})
	}
	return out
}

// isShort flags recordings with little activity so they can be collapsed.
func isShort(rec repository.RecordingRow) bool {
	return rec.ActiveDuration < shortActiveDuration && rec.EventCount < shortEventCount
}

func durationMMSS(d time.Duration) string {
	s := int64(d / time.Second)
	return fmt.Sprintf("%dm%02ds", s/60, s%60)
}
