package proxy

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sorarelay/sorarelay/internal/logger"
	"github.com/sorarelay/sorarelay/internal/mediacache"
)

type stubLookup struct {
	urls  map[string]string
	err   error
	calls atomic.Int64
}

func (s *stubLookup) FindUpstreamURL(_ context.Context, id string) (string, bool, error) {
	s.calls.Add(1)
	if s.err != nil {
		return "", false, s.err
	}
	u, ok := s.urls[id]
	return u, ok, nil
}

func TestServeMissThenHit(t *testing.T) {
	var fetches atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches.Add(1)
		w.Header().Set("Content-Type", "video/mp4")
		_, _ = w.Write([]byte("mp4-bytes"))
	}))
	defer srv.Close()

	cache := mediacache.New(mediacache.DefaultMaxEntries, time.Hour)
	lookup := &stubLookup{urls: map[string]string{"vid-1": srv.URL + "/v.mp4"}}
	p := New(cache, lookup, srv.Client(), logger.Nop())

	data, ct, hit, err := p.Serve(context.Background(), "vid-1")
	if err != nil {
		t.Fatalf("Serve() error: %v", err)
	}
	if hit {
		t.Error("first Serve() reported a cache hit")
	}
	if !bytes.Equal(data, []byte("mp4-bytes")) {
		t.Errorf("data = %q", data)
	}
	if ct != "video/mp4" {
		t.Errorf("contentType = %q", ct)
	}

	// Second call must come from the cache with no network or lookup I/O.
	data, _, hit, err = p.Serve(context.Background(), "vid-1")
	if err != nil {
		t.Fatalf("second Serve() error: %v", err)
	}
	if !hit {
		t.Error("second Serve() missed the cache")
	}
	if !bytes.Equal(data, []byte("mp4-bytes")) {
		t.Errorf("cached data = %q", data)
	}
	if n := fetches.Load(); n != 1 {
		t.Errorf("upstream fetches = %d, want 1", n)
	}
	if n := lookup.calls.Load(); n != 1 {
		t.Errorf("lookup calls = %d, want 1", n)
	}
}

func TestServeUnknownID(t *testing.T) {
	cache := mediacache.New(mediacache.DefaultMaxEntries, time.Hour)
	lookup := &stubLookup{urls: map[string]string{}}
	p := New(cache, lookup, http.DefaultClient, logger.Nop())

	_, _, _, err := p.Serve(context.Background(), "vid-nope")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestServeUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cache := mediacache.New(mediacache.DefaultMaxEntries, time.Hour)
	lookup := &stubLookup{urls: map[string]string{"vid-1": srv.URL}}
	p := New(cache, lookup, srv.Client(), logger.Nop())

	_, _, _, err := p.Serve(context.Background(), "vid-1")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("err = %v, want ErrUnavailable", err)
	}
	if cache.Len() != 0 {
		t.Errorf("failed fetch cached %d entries, want 0", cache.Len())
	}
}

func TestServeLookupError(t *testing.T) {
	cache := mediacache.New(mediacache.DefaultMaxEntries, time.Hour)
	lookup := &stubLookup{err: errors.New("redis down")}
	p := New(cache, lookup, http.DefaultClient, logger.Nop())

	_, _, _, err := p.Serve(context.Background(), "vid-1")
	if err == nil {
		t.Fatal("Serve() expected error")
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrUnavailable) {
		t.Errorf("store failure mapped to %v, want a distinct error", err)
	}
}

func TestServeDefaultContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// No Content-Type header at all.
		w.Header()["Content-Type"] = nil
		_, _ = w.Write([]byte("x"))
	}))
	defer srv.Close()

	cache := mediacache.New(mediacache.DefaultMaxEntries, time.Hour)
	lookup := &stubLookup{urls: map[string]string{"vid-1": srv.URL}}
	p := New(cache, lookup, srv.Client(), logger.Nop())

	_, ct, _, err := p.Serve(context.Background(), "vid-1")
	if err != nil {
		t.Fatalf("Serve() error: %v", err)
	}
	if ct != "video/mp4" {
		t.Errorf("contentType = %q, want the video/mp4 default", ct)
	}
}
