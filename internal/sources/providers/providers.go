// Package providers holds the endpoints, headers and timeouts of the
// third-party extraction services. The hosts move from time to time,
// so an optional YAML file can override any of the built-in defaults
// without a rebuild.
package providers

import "time"

// Primary describes the endpoint-discovery based extraction service.
type Primary struct {
	ScriptURL string
	APIBase   string
	Timeout   time.Duration
}

// Fallback describes the secondary extraction service.
type Fallback struct {
	APIBase string
	Origin  string
	Referer string
	Timeout time.Duration
}

// Watermark describes the logo-removal service.
type Watermark struct {
	Endpoint  string
	ProxyBase string
	Referer   string
	Timeout   time.Duration
}

// Config is the full provider wiring handed to the resolvers.
type Config struct {
	Primary   Primary
	Fallback  Fallback
	Watermark Watermark
}

// Defaults returns the provider wiring as the services publish it today.
func Defaults() Config {
	return Config{
		Primary: Primary{
			ScriptURL: "https://dyysy.com/script.js",
			APIBase:   "https://api.dyysy.com",
			Timeout:   25 * time.Second,
		},
		Fallback: Fallback{
			APIBase: "https://api.soracdn.workers.dev",
			Origin:  "https://snapsora.net",
			Referer: "https://snapsora.net/",
			Timeout: 20 * time.Second,
		},
		Watermark: Watermark{
			Endpoint:  "https://vid7.link/api/sora-download",
			ProxyBase: "https://dl.vid7.link/api/proxy-download",
			Referer:   "https://vid7.link/sora-ai-video-downloader",
			Timeout:   30 * time.Second,
		},
	}
}
