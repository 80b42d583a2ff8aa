package urlutil

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Normalize returns the canonical form of a monitored endpoint:
// scheme defaults to https when absent, scheme and host are
// lower-cased, the fragment is dropped and trailing path slashes are
// stripped. The result is stable: Normalize(Normalize(s)) == Normalize(s).
func Normalize(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", errors.New("empty url")
	}
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}

	u, err := url.Parse(s)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", errors.New("url has no host")
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.Path = strings.TrimRight(u.Path, "/")

	return u.String(), nil
}

// Host extracts the hostname from a URL string, falling back to the
// input when it does not parse.
func Host(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return raw
	}
	return u.Hostname()
}
