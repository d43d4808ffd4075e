package youtube

import (
	"net/url"
	"strings"
)

const (
	domainYouTube   = "youtube.com"
	domainShortLink = "youtu.be"
	domainNoCookie  = "youtube-nocookie.com"

	// thumbnailHostSuffix is the image CDN. Its URLs carry a video ID in the
	// path but never point at a playable video.
	thumbnailHostSuffix = "ytimg.com"

	pathWatch           = "watch"
	pathOEmbed          = "/oembed"
	pathAttributionLink = "/attribution_link"

	canonicalOrigin = "https://youtube.com"
)

var validDomains = map[string]struct{}{
	domainYouTube:   {},
	domainShortLink: {},
	domainNoCookie:  {},
}

// videoPaths are path prefixes followed directly by a video ID.
var videoPaths = map[string]struct{}{
	"v":      {},
	"embed":  {},
	"shorts": {},
	"live":   {},
	"e":      {},
}

// baseDomain strips leading mobile and www labels from host.
func baseDomain(host string) string {
	host = strings.ToLower(host)
	for {
		switch {
		case strings.HasPrefix(host, "www."):
			host = strings.TrimPrefix(host, "www.")
		case strings.HasPrefix(host, "m."):
			host = strings.TrimPrefix(host, "m.")
		default:
			return host
		}
	}
}

func isThumbnailHost(host string) bool {
	return strings.HasSuffix(strings.ToLower(host), thumbnailHostSuffix)
}

// pathSegments returns the non-empty segments of p.
func pathSegments(p string) []string {
	parts := strings.Split(p, "/")
	segs := parts[:0]
	for _, part := range parts {
		if part != "" {
			segs = append(segs, part)
		}
	}
	return segs
}

// IsValidURL reports whether raw is a YouTube URL that identifies a single
// video. It never panics; any malformed input is simply not valid.
func IsValidURL(raw string) (valid bool) {
	defer func() {
		if r := recover(); r != nil {
			valid = false
		}
	}()

	if raw == "" {
		return false
	}

	u, err := url.Parse(raw)
	if err != nil {
		return false
	}

	host := u.Hostname()
	if host == "" || isThumbnailHost(host) {
		return false
	}

	base := baseDomain(host)
	if _, ok := validDomains[base]; !ok {
		return false
	}

	if u.Path == "" {
		return false
	}
	segs := pathSegments(u.Path)
	if len(segs) == 0 {
		return false
	}

	// The whole short-link path is the ID.
	if base == domainShortLink {
		return true
	}

	pathType := segs[0]
	if pathType == pathWatch {
		if u.Query().Get("v") != "" {
			return true
		}
		return len(segs) > 1
	}

	if _, ok := videoPaths[pathType]; ok {
		return len(segs) > 1
	}

	return false
}
