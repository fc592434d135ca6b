package domain

import (
	"encoding/json"
	"strings"
)

// Provider identifies which extraction service produced a result.
// Informational metadata only; no behavior may depend on it.
type Provider string

const (
	ProviderPrimary       Provider = "dyysy"
	ProviderFallback      Provider = "soracdn"
	ProviderWatermarkFree Provider = "vid7"
)

// Result is the normalized output of a successful resolution.
// MediaURL is always non-empty; it may itself be a provider-side proxy URL.
type Result struct {
	MediaURL string
	Title    string
	Provider Provider
}

const defaultTitle = "Sora Video"

// NormalizeTitle cleans up a title field returned by upstream. Some
// providers ship the whole post metadata as a JSON string in the title
// slot; in that case the inner "title" key is extracted.
func NormalizeTitle(field string) string {
	if field == "" {
		return defaultTitle
	}
	if strings.HasPrefix(strings.TrimSpace(field), "{") {
		var inner struct {
			Title string `json:"title"`
		}
		if err := json.Unmarshal([]byte(field), &inner); err != nil {
			if len(field) > 100 {
				return field[:100]
			}
			return field
		}
		if inner.Title != "" {
			return inner.Title
		}
		return defaultTitle
	}
	return field
}

// FullDescription renders a title field for display. JSON-as-string
// titles are pretty-printed instead of being truncated.
func FullDescription(field string) string {
	if field == "" {
		return ""
	}
	if strings.HasPrefix(strings.TrimSpace(field), "{") {
		var parsed map[string]any
		if err := json.Unmarshal([]byte(field), &parsed); err == nil {
			if out, err := json.MarshalIndent(parsed, "", "  "); err == nil {
				return string(out)
			}
		}
	}
	return field
}
