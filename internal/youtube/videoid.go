// Package youtube recognises YouTube video links and extracts their IDs.
package youtube

import (
	"net/url"
	"regexp"
	"strings"
)

// VideoIDLength is the length of every YouTube video ID.
const VideoIDLength = 11

var videoIDRE = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// fallbackRE handles input that does not parse as a URL. The host part must
// still name YouTube so that arbitrary text ending in "/v/<11 chars>" is rejected.
var fallbackRE = regexp.MustCompile(`(?i)(?:^|[/.\s])(?:(?:youtube\.com|youtube-nocookie\.com)\b.*?(?:/v/|/embed/|/shorts/|/live/|[?&]v=)|youtu\.be\s*/)([^#&?/\s]*)`)

var youtubeHosts = map[string]bool{
	"youtube.com":          true,
	"m.youtube.com":        true,
	"music.youtube.com":    true,
	"youtube-nocookie.com": true,
}

// ExtractVideoID returns the 11-character video ID referenced by raw, and
// false if raw is not a recognisable YouTube video link.
func ExtractVideoID(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}

	candidate := raw
	if !strings.Contains(candidate, "://") {
		candidate = "https://" + candidate
	}
	if u, err := url.Parse(candidate); err == nil && u.Host != "" {
		return fromURL(u)
	}

	m := fallbackRE.FindStringSubmatch(raw)
	if m == nil || !validID(m[1]) {
		return "", false
	}
	return m[1], true
}

func fromURL(u *url.URL) (string, bool) {
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	segments := strings.Split(strings.Trim(u.EscapedPath(), "/"), "/")

	var id string
	switch {
	case host == "youtu.be":
		id = segments[0]
	case youtubeHosts[host]:
		if v := u.Query().Get("v"); v != "" {
			id = v
			break
		}
		if len(segments) >= 2 {
			switch segments[0] {
			case "embed", "shorts", "v", "live":
				id = segments[1]
			}
		}
	default:
		return "", false
	}

	if !validID(id) {
		return "", false
	}
	return id, true
}

func validID(id string) bool {
	return len(id) == VideoIDLength && videoIDRE.MatchString(id)
}

// IsValidURL reports whether raw is a YouTube video link.
func IsValidURL(raw string) bool {
	_, ok := ExtractVideoID(raw)
	return ok
}

// NormalizeURL rewrites any recognised link into the canonical watch form.
func NormalizeURL(raw string) (string, bool) {
	id, ok := ExtractVideoID(raw)
	if !ok {
		return "", false
	}
	return WatchURL(id), true
}

// WatchURL builds the canonical watch link for a video ID.
func WatchURL(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}
