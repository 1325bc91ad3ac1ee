package engine

import (
	"fmt"
	"net/url"
	"strings"
)

// Tracking params that never change what a URL points at. Keys with the
// "utm_" prefix are stripped as well.
var trackingParams = map[string]bool{
	"fbclid": true,
	"gclid":  true,
	"yclid":  true,
	"mc_cid": true,
	"mc_eid": true,
}

// NormalizeURL canonicalizes a media URL for duplicate detection; the result
// is a comparison key, not a navigable address. Two URLs that differ only in
// scheme (http folds into https), host case, a default port, tracking params,
// query param order, the fragment, or one trailing slash normalize to the
// same string. Unparseable input returns an error and the caller drops the
// record.
func NormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty url")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("url %q has no scheme or host", raw)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Host)
	switch u.Scheme {
	case "http":
		host = strings.TrimSuffix(host, ":80")
	case "https":
		host = strings.TrimSuffix(host, ":443")
	}
	u.Host = host
	if u.Scheme == "http" {
		u.Scheme = "https"
	}
	u.Fragment = ""
	u.RawFragment = ""

	q := u.Query()
	for key := range q {
		if isTrackingParam(key) {
			delete(q, key)
		}
	}
	u.RawQuery = q.Encode() // Encode sorts params by key

	if u.Path != "/" && strings.HasSuffix(u.Path, "/") {
		u.Path = strings.TrimSuffix(u.Path, "/")
		u.RawPath = ""
	}

	return u.String(), nil
}

func isTrackingParam(key string) bool {
	key = strings.ToLower(key)
	return strings.HasPrefix(key, "utm_") || trackingParams[key]
}
