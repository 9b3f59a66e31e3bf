package objectstore

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/foxseedlab/replaylog/internal/objectstore"
)

type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch r.Method {
	case http.MethodPut:
		body, err := io.ReadAll(r.Body)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.objects[r.URL.Path] = body
		f.types[r.URL.Path] = r.Header.Get("Content-Type")
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		body, ok := f.objects[r.URL.Path]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`)
			return
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write(body)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newTestStore(t *testing.T, fake *fakeS3) *S3Store {
	t.Helper()
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)
	store, err := NewS3Store(context.Background(), S3Config{
		Bucket:    "replay",
		Endpoint:  server.URL,
		AccessKey: "test",
		SecretKey: "test",
	})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	return store
}

func TestNewS3Store_RequiresBucket(t *testing.T) {
	if _, err := NewS3Store(context.Background(), S3Config{}); err == nil {
		t.Fatal("expected error for missing bucket")
	}
}

func TestS3Store_PutAndGet(t *testing.T) {
	fake := newFakeS3()
	store := newTestStore(t, fake)
	if store.Bucket() != "replay" {
		t.Fatalf("unexpected bucket: %s", store.Bucket())
	}

	ctx := context.Background()
	if err := store.Put(ctx, "logs/u-1/a.cast", []byte("hello"), objectstore.ContentTypeCast); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	if got := string(fake.objects["/replay/logs/u-1/a.cast"]); got != "hello" {
		t.Fatalf("unexpected stored body: %q", got)
	}
	if got := fake.types["/replay/logs/u-1/a.cast"]; got != objectstore.ContentTypeCast {
		t.Fatalf("unexpected content type: %q", got)
	}

	rc, err := store.Get(ctx, "replay", "logs/u-1/a.cast")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	defer func() {
		_ = rc.Close()
	}()
	body, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if string(body) != "hello" {
		t.Fatalf("unexpected body: %q", body)
	}
}

func TestS3Store_GetMissingObject(t *testing.T) {
	store := newTestStore(t, newFakeS3())
	_, err := store.Get(context.Background(), "replay", "missing.cast")
	if !errors.Is(err, objectstore.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
