package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/sorarelay/sorarelay/internal/domain"
	"github.com/sorarelay/sorarelay/internal/utils"
)

// browserUserAgent is sent on every upstream call. The extraction
// services refuse obviously non-browser clients.
const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

// Resolver turns a validated Sora source into a direct media URL.
// Each implementation speaks to one third-party provider; failures are
// classified before they cross this boundary.
type Resolver interface {
	Name() domain.Provider
	Resolve(ctx context.Context, src *domain.Source) (*domain.Result, error)
}

// linksPayload is the response shape shared by the primary and fallback
// providers. The mp4 link is the only field resolution depends on.
type linksPayload struct {
	Links struct {
		MP4 string `json:"mp4"`
	} `json:"links"`
	PostInfo struct {
		Title string `json:"title"`
	} `json:"post_info"`
	Title string `json:"title"`
}

// title prefers the post_info title over the top-level one, matching
// how the providers actually populate their payloads.
func (p *linksPayload) title() string {
	if p.PostInfo.Title != "" {
		return p.PostInfo.Title
	}
	return p.Title
}

func decodeLinks(provider domain.Provider, body io.Reader) (*linksPayload, error) {
	var payload linksPayload
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		return nil, domain.NewError(domain.KindMalformed, provider,
			fmt.Errorf("decoding response: %w", err))
	}
	return &payload, nil
}

// doJSON issues req and hands back the response. Transport errors are
// classified; the caller owns status handling and must close the body.
func doJSON(client *http.Client, req *http.Request, provider domain.Provider) (*http.Response, error) {
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		if k := domain.ClassifyTransport(err); k == domain.KindTimeout {
			return nil, domain.NewError(domain.KindTimeout, provider, err)
		}
		return nil, domain.NewError(domain.KindUnknown, provider, err)
	}
	return resp, nil
}

func drainAndClose(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	utils.Close(resp.Body)
}
