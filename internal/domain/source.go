package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// Sora share links carry a 32-char lowercase hex id behind one of three
// known path shapes. Matching this pattern is the only admission gate
// before any network call is made.
var (
	videoIDPattern   = regexp.MustCompile(`(?i)(?:ps|p/s_|s_)([a-f0-9]{32})`)
	shareLinkPattern = regexp.MustCompile(`(?i)sora\.chatgpt\.com/(?:ps|p/s_)[a-f0-9]{32}`)
)

// Source is a validated Sora share link. Immutable once parsed.
type Source struct {
	Raw     string
	VideoID string
}

// ParseSource validates raw against the share-link pattern and extracts
// the video id. Returns an InvalidSource error on mismatch; no network
// I/O ever happens for input rejected here.
func ParseSource(raw string) (*Source, error) {
	m := videoIDPattern.FindStringSubmatch(raw)
	if m == nil {
		return nil, Errorf(KindInvalidSource, "", "not a recognizable Sora share link")
	}
	return &Source{
		Raw:     raw,
		VideoID: strings.ToLower(m[1]),
	}, nil
}

// ValidShareLink reports whether raw is a full Sora share link including
// the platform host. Stricter than ParseSource; used at the HTTP boundary.
func ValidShareLink(raw string) bool {
	return shareLinkPattern.MatchString(raw)
}

// CleanURL returns the source URL stripped of its query string. Upstream
// providers expect the bare share link, without tracking parameters.
func (s *Source) CleanURL() string {
	if i := strings.IndexByte(s.Raw, '?'); i >= 0 {
		return s.Raw[:i]
	}
	return s.Raw
}

func (s *Source) String() string {
	return fmt.Sprintf("sora:%s", s.VideoID)
}
