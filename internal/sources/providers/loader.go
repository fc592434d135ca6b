package providers

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Loader reads the optional providers override file.
type Loader struct {
	filePath string
}

func NewLoader(filePath string) *Loader {
	return &Loader{filePath: filePath}
}

// Load returns the provider config. With an empty path the built-in
// defaults are returned as-is; otherwise the file's values are overlaid
// onto the defaults field by field.
func (l *Loader) Load() (Config, error) {
	cfg := Defaults()
	if l.filePath == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read providers file: %w", err)
	}

	var file fileSchema
	if err := yaml.Unmarshal(data, &file); err != nil {
		return Config{}, fmt.Errorf("failed to parse providers yaml: %w", err)
	}

	overlay(&cfg, file)
	return cfg, nil
}

// overlay applies every non-zero file value onto cfg.
func overlay(cfg *Config, file fileSchema) {
	if v := file.Primary.ScriptURL; v != "" {
		cfg.Primary.ScriptURL = v
	}
	if v := file.Primary.APIBase; v != "" {
		cfg.Primary.APIBase = v
	}
	if v := file.Primary.Timeout; v > 0 {
		cfg.Primary.Timeout = time.Duration(v)
	}

	if v := file.Fallback.APIBase; v != "" {
		cfg.Fallback.APIBase = v
	}
	if v := file.Fallback.Origin; v != "" {
		cfg.Fallback.Origin = v
	}
	if v := file.Fallback.Referer; v != "" {
		cfg.Fallback.Referer = v
	}
	if v := file.Fallback.Timeout; v > 0 {
		cfg.Fallback.Timeout = time.Duration(v)
	}

	if v := file.Watermark.Endpoint; v != "" {
		cfg.Watermark.Endpoint = v
	}
	if v := file.Watermark.ProxyBase; v != "" {
		cfg.Watermark.ProxyBase = v
	}
	if v := file.Watermark.Referer; v != "" {
		cfg.Watermark.Referer = v
	}
	if v := file.Watermark.Timeout; v > 0 {
		cfg.Watermark.Timeout = time.Duration(v)
	}
}
