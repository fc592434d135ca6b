package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sorarelay/sorarelay/internal/domain"
	"github.com/sorarelay/sorarelay/internal/httpserver/deps"
	"github.com/sorarelay/sorarelay/internal/logger"
	redisstore "github.com/sorarelay/sorarelay/internal/store/redis"
)

const testShareLink = "https://sora.chatgpt.com/p/s_0a1b2c3d4e5f60718293a4b5c6d7e8f9"

type stubResolver struct {
	standardRes  *domain.Result
	standardErr  error
	alternateRes *domain.Result
	alternateErr error

	standardCalls  int
	alternateCalls int
}

func (s *stubResolver) ResolveStandard(_ context.Context, _ string) (*domain.Result, error) {
	s.standardCalls++
	return s.standardRes, s.standardErr
}

func (s *stubResolver) ResolveAlternate(_ context.Context, _ string) (*domain.Result, error) {
	s.alternateCalls++
	return s.alternateRes, s.alternateErr
}

type stubStore struct {
	saveErr    error
	saved      []*redisstore.Record
	increments []domain.Provider
	counts     map[string]int64
}

func (s *stubStore) SaveRecord(_ context.Context, rec *redisstore.Record) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	rec.ID = "rec-123"
	s.saved = append(s.saved, rec)
	return nil
}

func (s *stubStore) IncrementDownloads(_ context.Context, p domain.Provider) error {
	s.increments = append(s.increments, p)
	return nil
}

func (s *stubStore) DownloadCounts(_ context.Context) (map[string]int64, error) {
	return s.counts, nil
}

func newDownloadDeps(res *stubResolver, store *stubStore) deps.Deps {
	return deps.Deps{
		Logger:   logger.Nop(),
		Resolver: res,
		Store:    store,
	}
}

func postDownload(t *testing.T, d deps.Deps, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/download", strings.NewReader(body))
	req.Host = "relay.test"
	rr := httptest.NewRecorder()
	Download(d)(rr, req)
	return rr
}

func TestDownloadSuccess(t *testing.T) {
	res := &stubResolver{
		standardRes: &domain.Result{
			MediaURL: "https://cdn/v.mp4",
			Title:    "T",
			Provider: domain.ProviderPrimary,
		},
	}
	store := &stubStore{}
	rr := postDownload(t, newDownloadDeps(res, store), `{"url":"`+testShareLink+`"}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}

	var resp downloadResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.ID != "rec-123" {
		t.Errorf("ID = %q", resp.ID)
	}
	if resp.VideoURL != "http://relay.test/api/video/rec-123" {
		t.Errorf("VideoURL = %q, want proxy link", resp.VideoURL)
	}
	if resp.DirectURL != "https://cdn/v.mp4" {
		t.Errorf("DirectURL = %q", resp.DirectURL)
	}
	if resp.APIUsed != string(domain.ProviderPrimary) {
		t.Errorf("APIUsed = %q", resp.APIUsed)
	}
	if len(store.saved) != 1 {
		t.Fatalf("saved %d records, want 1", len(store.saved))
	}
	if store.saved[0].Origin != redisstore.OriginWeb {
		t.Errorf("record origin = %q, want web", store.saved[0].Origin)
	}
	if len(store.increments) != 1 || store.increments[0] != domain.ProviderPrimary {
		t.Errorf("increments = %v", store.increments)
	}
}

func TestDownloadPublicBaseURL(t *testing.T) {
	res := &stubResolver{
		standardRes: &domain.Result{MediaURL: "https://cdn/v.mp4", Provider: domain.ProviderPrimary},
	}
	d := newDownloadDeps(res, &stubStore{})
	d.PublicBaseURL = "https://relay.example"

	rr := postDownload(t, d, `{"url":"`+testShareLink+`"}`)

	var resp downloadResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.VideoURL != "https://relay.example/api/video/rec-123" {
		t.Errorf("VideoURL = %q, want configured base", resp.VideoURL)
	}
}

func TestDownloadRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"broken json", `{`},
		{"empty url", `{"url":""}`},
		{"not a share link", `{"url":"https://example.com/watch?v=123"}`},
		{"short id", `{"url":"https://sora.chatgpt.com/p/s_abc123"}`},
		{"non-hex id", `{"url":"https://sora.chatgpt.com/p/s_zzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzz"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := &stubResolver{}
			rr := postDownload(t, newDownloadDeps(res, &stubStore{}), tt.body)
			if rr.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rr.Code)
			}
			if res.standardCalls+res.alternateCalls != 0 {
				t.Error("resolver called for inadmissible input")
			}
		})
	}
}

func TestDownloadWatermarkFlagRoutesToAlternate(t *testing.T) {
	res := &stubResolver{
		alternateRes: &domain.Result{
			MediaURL: "https://dl/clean.mp4",
			Provider: domain.ProviderWatermarkFree,
		},
	}
	rr := postDownload(t, newDownloadDeps(res, &stubStore{}),
		`{"url":"`+testShareLink+`","removeWatermark":true}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if res.alternateCalls != 1 || res.standardCalls != 0 {
		t.Errorf("calls standard/alternate = %d/%d, want 0/1", res.standardCalls, res.alternateCalls)
	}
}

func TestDownloadErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{
			name:       "not found",
			err:        domain.Errorf(domain.KindNotFound, domain.ProviderPrimary, "gone"),
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "forbidden",
			err:        domain.Errorf(domain.KindForbidden, domain.ProviderPrimary, "private"),
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "timeout",
			err:        domain.Errorf(domain.KindTimeout, domain.ProviderPrimary, "slow"),
			wantStatus: http.StatusGatewayTimeout,
		},
		{
			name:       "server error",
			err:        domain.Errorf(domain.KindServerError, domain.ProviderFallback, "boom"),
			wantStatus: http.StatusBadGateway,
		},
		{
			name: "exhausted keeps the inner classification",
			err: domain.NewError(domain.KindExhausted, domain.ProviderFallback,
				domain.Errorf(domain.KindNotFound, domain.ProviderFallback, "gone")),
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := &stubResolver{standardErr: tt.err}
			rr := postDownload(t, newDownloadDeps(res, &stubStore{}), `{"url":"`+testShareLink+`"}`)
			if rr.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
		})
	}
}

func TestDownloadSaveFailureStillAnswers(t *testing.T) {
	res := &stubResolver{
		standardRes: &domain.Result{MediaURL: "https://cdn/v.mp4", Provider: domain.ProviderPrimary},
	}
	store := &stubStore{saveErr: errors.New("redis down")}
	rr := postDownload(t, newDownloadDeps(res, store), `{"url":"`+testShareLink+`"}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 despite save failure", rr.Code)
	}

	var resp downloadResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.ID != "" {
		t.Errorf("ID = %q, want empty when nothing was persisted", resp.ID)
	}
	// Without a record the proxy link would dangle, so the direct URL
	// doubles as the video URL.
	if resp.VideoURL != "https://cdn/v.mp4" {
		t.Errorf("VideoURL = %q, want the direct link", resp.VideoURL)
	}
}
