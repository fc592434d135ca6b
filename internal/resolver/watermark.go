package resolver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sorarelay/sorarelay/internal/domain"
	"github.com/sorarelay/sorarelay/internal/logger"
)

// DefaultWatermarkTimeout bounds each watermark-removal API call.
const DefaultWatermarkTimeout = 30 * time.Second

// Watermark resolves through the logo-removal service. It is never
// part of the standard fallback chain; callers opt into it explicitly.
// The service embeds its own status code in the JSON body, and the
// selected download URL must be routed back through the service's
// proxy endpoint to dodge cross-origin restrictions.
type Watermark struct {
	endpoint  string // POST target, e.g. https://vid7.link/api/sora-download
	proxyBase string // wrap target, e.g. https://dl.vid7.link/api/proxy-download
	referer   string
	client    *http.Client
	log       logger.Logger
}

func NewWatermark(endpoint, proxyBase, referer string, client *http.Client, log logger.Logger) *Watermark {
	if client == nil {
		client = &http.Client{Timeout: DefaultWatermarkTimeout}
	}
	return &Watermark{
		endpoint:  endpoint,
		proxyBase: strings.TrimRight(proxyBase, "/"),
		referer:   referer,
		client:    client,
		log:       log,
	}
}

func (w *Watermark) Name() domain.Provider { return domain.ProviderWatermarkFree }

type watermarkRequest struct {
	ShareLink string `json:"shareLink"`
}

type watermarkResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data struct {
		Title     string `json:"title"`
		Downloads []struct {
			URL string `json:"url"`
		} `json:"downloads"`
	} `json:"data"`
}

func (w *Watermark) Resolve(ctx context.Context, src *domain.Source) (*domain.Result, error) {
	body, err := json.Marshal(watermarkRequest{ShareLink: src.CleanURL()})
	if err != nil {
		return nil, domain.NewError(domain.KindUnknown, domain.ProviderWatermarkFree, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, domain.NewError(domain.KindUnknown, domain.ProviderWatermarkFree, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Referer", w.referer)

	resp, err := doJSON(w.client, req, domain.ProviderWatermarkFree)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		drainAndClose(resp)
		kind := domain.ClassifyStatus(resp.StatusCode)
		return nil, domain.Errorf(kind, domain.ProviderWatermarkFree,
			"API returned HTTP %d", resp.StatusCode)
	}

	var payload watermarkResponse
	err = json.NewDecoder(resp.Body).Decode(&payload)
	drainAndClose(resp)
	if err != nil {
		return nil, domain.NewError(domain.KindMalformed, domain.ProviderWatermarkFree,
			fmt.Errorf("decoding response: %w", err))
	}

	// Application-level failure can hide behind HTTP 200.
	if payload.Code != http.StatusOK {
		return nil, domain.Errorf(domain.KindMalformed, domain.ProviderWatermarkFree,
			"API body code %d (%s)", payload.Code, payload.Msg)
	}
	if len(payload.Data.Downloads) == 0 || payload.Data.Downloads[0].URL == "" {
		return nil, domain.Errorf(domain.KindMalformed, domain.ProviderWatermarkFree,
			"no download URL in response")
	}

	direct := payload.Data.Downloads[0].URL
	proxied := fmt.Sprintf("%s?url=%s&type=video", w.proxyBase, url.QueryEscape(direct))

	w.log.Debug("watermark-free resolved",
		logger.String("video_id", src.VideoID),
		logger.String("direct_url", direct))

	return &domain.Result{
		MediaURL: proxied,
		Title:    domain.NormalizeTitle(payload.Data.Title),
		Provider: domain.ProviderWatermarkFree,
	}, nil
}
