package youtube

import (
	"net/url"
	"strings"
)

// ExtractVideoID returns the video ID carried by raw. It understands watch,
// short-link, embed, shorts, live, /v/ and /e/ URLs, thumbnail CDN URLs, and
// unwraps oembed and attribution links. ok is false when no ID can be found.
func ExtractVideoID(raw string) (id string, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			id, ok = "", false
		}
	}()

	if raw == "" {
		return "", false
	}

	// Old share links sometimes glue the query on with & instead of ?.
	normalized := raw
	if !strings.Contains(normalized, "?") {
		normalized = strings.Replace(normalized, "&", "?", 1)
	}

	u, err := url.Parse(normalized)
	if err != nil {
		return "", false
	}

	host := u.Hostname()
	if host == "" {
		return "", false
	}

	segs := pathSegments(u.Path)

	if isThumbnailHost(host) {
		// /vi/<id>/hqdefault.jpg
		if len(segs) < 2 {
			return "", false
		}
		return segs[1], true
	}

	base := baseDomain(host)
	if _, ok := validDomains[base]; !ok {
		return "", false
	}

	query := u.Query()

	if u.Path == pathOEmbed && query.Get("url") != "" {
		return ExtractVideoID(unquote(query.Get("url")))
	}

	if u.Path == pathAttributionLink && query.Get("u") != "" {
		target := query.Get("u")
		if strings.HasPrefix(target, "/") {
			target = canonicalOrigin + target
		}
		target = unquote(target)
		target = strings.ReplaceAll(target, "%3D", "=")
		target = strings.ReplaceAll(target, "%26", "&")
		return ExtractVideoID(target)
	}

	if v := query.Get("v"); v != "" {
		return v, true
	}

	if len(segs) == 0 {
		return "", false
	}
	last := segs[len(segs)-1]

	if base == domainShortLink {
		return last, true
	}

	pathType := segs[0]
	if _, ok := videoPaths[pathType]; ok && len(segs) > 1 {
		return last, true
	}

	if pathType == pathWatch && len(segs) > 1 {
		return last, true
	}

	return "", false
}

// WatchURL builds the canonical watch URL for a video ID.
func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + url.QueryEscape(videoID)
}

// unquote percent-decodes s, leaving it untouched if it is not valid escaping.
func unquote(s string) string {
	decoded, err := url.PathUnescape(s)
	if err != nil {
		return s
	}
	return decoded
}
