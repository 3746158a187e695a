package urlhandler

import (
	"net"
	"net/url"
	"strings"
)

var defaultPorts = map[string]string{
	"http":  "80",
	"https": "443",
}

// canonicalHost lowercases the hostname and elides the scheme's default port
func canonicalHost(scheme, hostname, port string) string {
	host := strings.ToLower(hostname)
	if port == "" || defaultPorts[scheme] == port {
		if strings.Contains(host, ":") {
			return "[" + host + "]"
		}
		return host
	}
	return net.JoinHostPort(host, port)
}

// Origin returns scheme://host[:port] with default ports elided
func Origin(u *url.URL) string {
	scheme := strings.ToLower(u.Scheme)
	return scheme + "://" + canonicalHost(scheme, u.Hostname(), u.Port())
}

// OriginOf parses rawURL and returns its origin
func OriginOf(rawURL string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", err
	}
	return Origin(parsed), nil
}

// ValidateURLFormat checks that rawURL is an absolute request URI
func ValidateURLFormat(rawURL string) error {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return &url.Error{Op: "parse", URL: rawURL, Err: errEmptyURL}
	}
	_, err := url.ParseRequestURI(trimmed)
	return err
}
