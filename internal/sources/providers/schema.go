package providers

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// duration accepts Go duration strings ("25s", "1m30s") in YAML.
type duration time.Duration

func (d *duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = duration(parsed)
	return nil
}

// fileSchema is the top-level structure of the optional providers.yaml.
// Every field is optional; absent values keep their built-in defaults.
type fileSchema struct {
	Primary   primarySchema   `yaml:"primary"`
	Fallback  fallbackSchema  `yaml:"fallback"`
	Watermark watermarkSchema `yaml:"watermark"`
}

type primarySchema struct {
	ScriptURL string   `yaml:"script_url,omitempty"`
	APIBase   string   `yaml:"api_base,omitempty"`
	Timeout   duration `yaml:"timeout,omitempty"`
}

type fallbackSchema struct {
	APIBase string   `yaml:"api_base,omitempty"`
	Origin  string   `yaml:"origin,omitempty"`
	Referer string   `yaml:"referer,omitempty"`
	Timeout duration `yaml:"timeout,omitempty"`
}

type watermarkSchema struct {
	Endpoint  string   `yaml:"endpoint,omitempty"`
	ProxyBase string   `yaml:"proxy_base,omitempty"`
	Referer   string   `yaml:"referer,omitempty"`
	Timeout   duration `yaml:"timeout,omitempty"`
}
