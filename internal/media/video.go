// Package media rewrites content-storage video URLs into playable ones.
package media

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
)

// Resolver maps raw content-storage URLs onto a fixed playback proxy.
type Resolver struct {
	proxyURL string
}

// NewResolver creates a resolver for the given proxy endpoint.
func NewResolver(proxyURL string) *Resolver {
	return &Resolver{proxyURL: strings.TrimRight(proxyURL, "/")}
}

// PlaybackURL returns the URL a player should use. URLs that already denote a
// streaming manifest pass through unchanged; anything else has its path
// component extracted as the content key and re-issued as a query parameter
// against the proxy endpoint.
func (r *Resolver) PlaybackURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse video url: %w", err)
	}
	if strings.HasSuffix(u.Path, ".m3u8") {
		return raw, nil
	}
	key := strings.TrimPrefix(u.Path, "/")
	resolved := r.proxyURL + "?key=" + url.QueryEscape(key)
	slog.Debug("resolved video url", "source", Redact(raw), "key", key)
	return resolved, nil
}

// Redact masks embedded access tokens so a URL is safe to log.
func Redact(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	for _, p := range []string{"token", "access_token", "sign"} {
		if q.Has(p) {
			q.Set(p, "REDACTED")
		}
	}
	u.RawQuery = q.Encode()
	return u.String()
}
