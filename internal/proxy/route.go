package proxy

import (
	"net/url"
	"strconv"
	"strings"
)

// Route is a parsed subdomain proxy request (spec §4.5 "Subdomain
// routing"): host of the form "<port>-<sandboxId>-<token>.<domain>".
type Route struct {
	Port      int
	SandboxID string
	Token     string
	Domain    string
}

// ParseSubdomainHost splits an inbound Host header into a Route. The
// leading label is split on '-': the first segment is the port (all
// digits), the last segment is the token, and every segment between is
// joined back with '-' to recover the sandbox identity, since
// SandboxIdentity itself may legally contain hyphens (spec §3). ok is
// false for any host that doesn't fit this shape — callers must treat
// that as a malformed subdomain (spec §4.5 step 1).
func ParseSubdomainHost(host string) (Route, bool) {
	host = strings.ToLower(strings.TrimSpace(host))
	if h, _, err := splitHostPort(host); err == nil {
		host = h
	}

	labelAndDomain := strings.SplitN(host, ".", 2)
	if len(labelAndDomain) != 2 {
		return Route{}, false
	}
	label, domain := labelAndDomain[0], labelAndDomain[1]

	parts := strings.Split(label, "-")
	if len(parts) < 3 {
		return Route{}, false
	}

	port, err := strconv.Atoi(parts[0])
	if err != nil {
		return Route{}, false
	}
	token := parts[len(parts)-1]
	sandboxID := strings.Join(parts[1:len(parts)-1], "-")
	if token == "" || sandboxID == "" {
		return Route{}, false
	}

	return Route{Port: port, SandboxID: sandboxID, Token: token, Domain: domain}, true
}

func splitHostPort(host string) (string, string, error) {
	if idx := strings.LastIndex(host, ":"); idx != -1 && !strings.Contains(host[idx:], "]") {
		return host[:idx], host[idx+1:], nil
	}
	return host, "", nil
}

// BuildLoopbackURL constructs "http://127.0.0.1:<port><path>?<query>"
// through net/url, never string interpolation (spec §4.5 "Preview URL
// construction": "URL assembly must go through a structured URL builder,
// never string interpolation" — applied here too, not only to preview
// URLs, per spec §9 design note).
func BuildLoopbackURL(port int, path, rawQuery string) *url.URL {
	return &url.URL{
		Scheme:   "http",
		Host:     "127.0.0.1:" + strconv.Itoa(port),
		Path:     path,
		RawQuery: rawQuery,
	}
}

// BuildPreviewURL constructs the externally-facing preview URL for a
// newly exposed port (spec §4.5 "Preview URL construction"):
// "https://<port>-<sandboxId>.<host>" (or "http://" for loopback hosts).
func BuildPreviewURL(hostName, sandboxID string, port int) *url.URL {
	scheme := "https"
	if isLoopbackHost(hostName) {
		scheme = "http"
	}
	label := strconv.Itoa(port) + "-" + sandboxID
	return &url.URL{
		Scheme: scheme,
		Host:   label + "." + hostName,
	}
}

func isLoopbackHost(host string) bool {
	h, _, err := splitHostPort(host)
	if err != nil {
		h = host
	}
	return h == "localhost" || h == "127.0.0.1" || h == "::1"
}
