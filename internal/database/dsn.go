package database

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

var localHosts = map[string]bool{
	"localhost": true,
	"127.0.0.1": true,
	"::1":       true,
}

// IsLocalHost reports whether host names the local machine.
func IsLocalHost(host string) bool {
	return localHosts[strings.ToLower(host)]
}

// BuildDSN returns rawURL with an sslmode parameter applied. An sslmode already
// present in the URL wins, then the override, then the host policy: local
// hosts connect without TLS and everything else requires it.
func BuildDSN(rawURL, sslModeOverride string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid DATABASE_URL: %w", err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("DATABASE_URL has no host")
	}

	q := u.Query()
	if q.Get("sslmode") == "" {
		mode := strings.ToLower(strings.TrimSpace(sslModeOverride))
		if mode == "" {
			mode = "require"
			if IsLocalHost(u.Hostname()) {
				mode = "disable"
			}
		}
		q.Set("sslmode", mode)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// RedactedHost returns host:port of rawURL for logging, without credentials.
func RedactedHost(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	if u.Port() == "" {
		return u.Hostname()
	}
	return net.JoinHostPort(u.Hostname(), u.Port())
}
