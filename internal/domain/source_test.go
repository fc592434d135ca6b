package domain

import (
	"strings"
	"testing"
)

const testHexID = "0a1b2c3d4e5f60718293a4b5c6d7e8f9"

func TestParseSource(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantID  string
		wantErr bool
	}{
		{
			name:   "p slash s underscore shape",
			raw:    "https://sora.chatgpt.com/p/s_" + testHexID,
			wantID: testHexID,
		},
		{
			name:   "ps shape",
			raw:    "https://sora.chatgpt.com/ps" + testHexID,
			wantID: testHexID,
		},
		{
			name:   "bare s underscore shape",
			raw:    "https://sora.chatgpt.com/s_" + testHexID,
			wantID: testHexID,
		},
		{
			name:   "uppercase hex accepted and lowered",
			raw:    "https://sora.chatgpt.com/p/s_" + strings.ToUpper(testHexID),
			wantID: testHexID,
		},
		{
			name:   "query string ignored by matching",
			raw:    "https://sora.chatgpt.com/p/s_" + testHexID + "?utm_source=share",
			wantID: testHexID,
		},
		{
			name:    "too short hex run",
			raw:     "https://sora.chatgpt.com/p/s_0a1b2c3d4e5f",
			wantErr: true,
		},
		{
			name:    "non-hex characters",
			raw:     "https://sora.chatgpt.com/p/s_" + strings.Repeat("z", 32),
			wantErr: true,
		},
		{
			name:    "empty string",
			raw:     "",
			wantErr: true,
		},
		{
			name:    "unrelated url",
			raw:     "https://example.com/watch?v=abc123",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := ParseSource(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseSource(%q) expected error, got %+v", tt.raw, src)
				}
				if !IsKind(err, KindInvalidSource) {
					t.Errorf("ParseSource(%q) kind = %v, want invalid_source", tt.raw, KindOf(err))
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseSource(%q) unexpected error: %v", tt.raw, err)
			}
			if src.VideoID != tt.wantID {
				t.Errorf("VideoID = %q, want %q", src.VideoID, tt.wantID)
			}
		})
	}
}

func TestCleanURL(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "strips query string",
			raw:  "https://sora.chatgpt.com/p/s_" + testHexID + "?si=xyz&t=1",
			want: "https://sora.chatgpt.com/p/s_" + testHexID,
		},
		{
			name: "no query string unchanged",
			raw:  "https://sora.chatgpt.com/p/s_" + testHexID,
			want: "https://sora.chatgpt.com/p/s_" + testHexID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := ParseSource(tt.raw)
			if err != nil {
				t.Fatalf("ParseSource() error: %v", err)
			}
			if got := src.CleanURL(); got != tt.want {
				t.Errorf("CleanURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidShareLink(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want bool
	}{
		{"full share link", "https://sora.chatgpt.com/p/s_" + testHexID, true},
		{"ps shape with host", "https://sora.chatgpt.com/ps" + testHexID, true},
		{"missing host", "https://example.com/p/s_" + testHexID, false},
		{"bare s_ without host path", "s_" + testHexID, false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidShareLink(tt.raw); got != tt.want {
				t.Errorf("ValidShareLink(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}
