package ingest

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/foxseedlab/replaylog/internal/objectstore"
	"github.com/foxseedlab/replaylog/internal/repository"
	"github.com/foxseedlab/replaylog/internal/webhook"
	"github.com/klauspost/compress/gzip"
)

type mockStore struct {
	mu       sync.Mutex
	objects  map[string][]byte
	failKeys map[string]error
	delay    time.Duration
	inFlight int
	maxSeen  int
}

func newMockStore() *mockStore {
	return &mockStore{objects: map[string][]byte{}, failKeys: map[string]error{}}
}

func (m *mockStore) Bucket() string { return "replay" }

func (m *mockStore) Put(ctx context.Context, key string, body []byte, _ string) error {
	m.mu.Lock()
	m.inFlight++
	m.maxSeen = max(m.maxSeen, m.inFlight)
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		m.inFlight--
		m.mu.Unlock()
	}()

	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.failKeys[key]; ok {
		return err
	}
	m.objects[key] = append([]byte(nil), body...)
	return nil
}

func (m *mockStore) Get(_ context.Context, _, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	body, ok := m.objects[key]
	if !ok {
		return nil, objectstore.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(body)), nil
}

func (m *mockStore) object(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.objects[key]
	return b, ok
}

type mockRepository struct {
	repository.Repository

	mu      sync.Mutex
	inserts []repository.InsertUploadInput
	err     error
	// release, when set, holds InsertUpload until closed.
	release chan struct{}
	// waitForDeadline makes InsertUpload block until its context ends.
	waitForDeadline bool
	ctxErrAtRelease error
	done            chan struct{}
}

func newMockRepository() *mockRepository {
	return &mockRepository{done: make(chan struct{})}
}

func (m *mockRepository) InsertUpload(ctx context.Context, input repository.InsertUploadInput) error {
	defer close(m.done)
	if m.waitForDeadline {
		<-ctx.Done()
		return ctx.Err()
	}
	if m.release != nil {
		<-m.release
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ctxErrAtRelease = ctx.Err()
	if m.err != nil {
		return m.err
	}
	m.inserts = append(m.inserts, input)
	return nil
}

type mockNotifier struct {
	calls []webhook.UploadPayload
	err   error
}

func (m *mockNotifier) NotifyUpload(_ context.Context, payload webhook.UploadPayload) error {
	m.calls = append(m.calls, payload)
	return m.err
}

func gzipBase64(t *testing.T, s string) string {
	t.Helper()
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write([]byte(s)); err != nil {
		t.Fatalf("failed to gzip: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("failed to close gzip writer: %v", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

const testCast = `{"version": 2, "width": 80, "height": 24, "timestamp": 1700000000}
[1.0, "o", "a"]
[2.0, "o", "b"]
[7.0, "o", "c"]
`

// jsonlLog builds a jsonl raw log with one session of heartbeats at the given
// offsets from 1700000000 and one recording split over two lines.
func jsonlLog(t *testing.T, recordingID string, offsets ...int64) []byte {
	t.Helper()
	pairs := make([]string, 0, len(offsets))
	for _, off := range offsets {
		pairs = append(pairs, fmt.Sprintf("[%d, 1]", 1700000000+off))
	}
	half := strings.Index(testCast, "[2.0")
	lines := []string{
		fmt.Sprintf(`["heartbeat", [%s]]`, strings.Join(pairs, ", ")),
		fmt.Sprintf(`["cast", [%q, %q]]`, recordingID, gzipBase64(t, testCast[:half])),
		fmt.Sprintf(`["cast", [%q, %q]]`, recordingID, gzipBase64(t, testCast[half:])),
	}
	return []byte(strings.Join(lines, "\n"))
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

var errStoreDown = errors.New("store is down")
