package httpapi

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/foxseedlab/replaylog/internal/ingest"
	"github.com/foxseedlab/replaylog/internal/objectstore"
	"github.com/foxseedlab/replaylog/internal/repository"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
}

func newMemStore() *memStore {
	return &memStore{objects: map[string][]byte{}}
}

func (s *memStore) Bucket() string { return "replay" }

func (s *memStore) Put(_ context.Context, key string, body []byte, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.putErr != nil {
		return s.putErr
	}
	s.objects[key] = append([]byte(nil), body...)
	return nil
}

func (s *memStore) Get(_ context.Context, bucket, key string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	body, ok := s.objects[key]
	if !ok || bucket != s.Bucket() {
		return nil, fmt.Errorf("%w: %s", objectstore.ErrNotFound, key)
	}
	return io.NopCloser(bytes.NewReader(body)), nil
}

type memRepository struct {
	mu         sync.Mutex
	logs       map[string]*repository.Log
	heartbeats map[string][]repository.HeartbeatRow
	recordings map[string][]repository.RecordingRow
	marks      map[int64]repository.Mark
	nextID     int64
}

func newMemRepository() *memRepository {
	return &memRepository{
		logs:       map[string]*repository.Log{},
		heartbeats: map[string][]repository.HeartbeatRow{},
		recordings: map[string][]repository.RecordingRow{},
		marks:      map[int64]repository.Mark{},
	}
}

func (m *memRepository) InsertUpload(_ context.Context, input repository.InsertUploadInput) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.logs[input.LogID]; ok {
		return errors.New("duplicate log id")
	}
	m.logs[input.LogID] = &repository.Log{ID: input.LogID, Note: input.Note, UploadedAt: time.Now(), Visible: true}
	m.heartbeats[input.LogID] = input.Heartbeats
	for _, rec := range input.Recordings {
		m.nextID++
		rec.ID = m.nextID
		m.recordings[input.LogID] = append(m.recordings[input.LogID], rec)
	}
	return nil
}

func (m *memRepository) ListLogs(_ context.Context) ([]repository.Log, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []repository.Log
	for _, l := range m.logs {
		out = append(out, *l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UploadedAt.After(out[j].UploadedAt) })
	return out, nil
}

func (m *memRepository) GetLog(_ context.Context, id string) (*repository.Log, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.logs[id]
	if !ok {
		return nil, fmt.Errorf("log %s: %w", id, repository.ErrNotFound)
	}
	cp := *l
	return &cp, nil
}

func (m *memRepository) UpdateNote(_ context.Context, id, note string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.logs[id]
	if !ok {
		return repository.ErrNotFound
	}
	l.Note = note
	return nil
}

func (m *memRepository) UpdateVisible(_ context.Context, id string, visible bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.logs[id]
	if !ok {
		return repository.ErrNotFound
	}
	l.Visible = visible
	return nil
}

func (m *memRepository) ListHeartbeats(_ context.Context, logID string) ([]repository.HeartbeatRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.heartbeats[logID], nil
}

func (m *memRepository) ListRecordings(_ context.Context, logID string) ([]repository.RecordingRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.recordings[logID], nil
}

func (m *memRepository) ListMarks(_ context.Context, logID string) ([]repository.Mark, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := map[int64]bool{}
	for _, rec := range m.recordings[logID] {
		ids[rec.ID] = true
	}
	var out []repository.Mark
	for _, mk := range m.marks {
		if ids[mk.RecordingID] {
			out = append(out, mk)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Second < out[j].Second })
	return out, nil
}

func (m *memRepository) AddMark(_ context.Context, input repository.AddMarkInput) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	found := false
	for _, recs := range m.recordings {
		for _, rec := range recs {
			found = found || rec.ID == input.RecordingID
		}
	}
	if !found {
		return 0, repository.ErrNotFound
	}
	m.nextID++
	m.marks[m.nextID] = repository.Mark{ID: m.nextID, RecordingID: input.RecordingID, Second: input.Second, Note: input.Note}
	return m.nextID, nil
}

func (m *memRepository) DeleteMark(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.marks[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.marks, id)
	return nil
}

type testServer struct {
	handler http.Handler
	store   *memStore
	repo    *memRepository
}

func newTestServer(t *testing.T, maxUploadBytes int64) *testServer {
	t.Helper()
	store := newMemStore()
	repo := newMemRepository()
	svc := ingest.NewService(
		ingest.NewPipeline(objectstore.Keys{Prefix: "logs"}, 10*time.Second),
		ingest.NewCoordinator(store, repo, time.Second, 4),
		nil,
		"/replay",
	)
	h := NewHandler(svc, repo, store, HandlerOptions{
		BasePath:       "/replay",
		IntervalGap:    30 * time.Second,
		MaxUploadBytes: maxUploadBytes,
	})
	return &testServer{handler: NewRouter(h), store: store, repo: repo}
}

func (s *testServer) do(t *testing.T, method, target, contentType, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func gzipBase64(t *testing.T, s string) string {
	t.Helper()
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	_, err := w.Write([]byte(s))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

const testCast = `{"version": 2, "width": 80, "height": 24, "timestamp": 1700000000}
[1.0, "o", "a"]
[2.0, "o", "b"]
[7.0, "o", "c"]
`

// rawLog has heartbeats at +0, +5, +9 and +35 seconds and one recording.
func rawLog(t *testing.T, recording string) string {
	t.Helper()
	return strings.Join([]string{
		`["heartbeat", [[1700000000, 1], [1700000005, 1], [1700000009, 1], [1700000035, 1]]]`,
		fmt.Sprintf(`["cast", [%q, %q]]`, recording, gzipBase64(t, testCast)),
	}, "\n")
}
