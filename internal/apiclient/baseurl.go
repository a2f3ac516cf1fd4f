package apiclient

import "strings"

const (
	loopbackHostnameLocalhost = "localhost"
	loopbackHostnameIPv4      = "127.0.0.1"

	// loopbackAPIBaseURL is where the API lives when the client itself runs on a
	// developer machine; fallbackAPIBaseURL covers every other host.
	loopbackAPIBaseURL = "http://172.27.78.199:8080"
	fallbackAPIBaseURL = "http://localhost:8080"
)

// ResolveBaseURL maps the client's own hostname onto the API address. The
// heuristic is deliberately a two-constant switch: loopback hosts target the
// development API, everything else the fixed fallback. Explicit configuration
// overrides it entirely.
func ResolveBaseURL(clientHostname string) string {
	normalizedHostname := strings.ToLower(strings.TrimSpace(clientHostname))
	if normalizedHostname == loopbackHostnameLocalhost || normalizedHostname == loopbackHostnameIPv4 {
		return loopbackAPIBaseURL
	}
	return fallbackAPIBaseURL
}

func normalizeBaseURL(value string) string {
	trimmed := strings.TrimSpace(value)
	return strings.TrimRight(trimmed, "/")
}

func joinBaseURL(baseURL string, path string) string {
	normalizedBaseURL := normalizeBaseURL(baseURL)
	if normalizedBaseURL == "" {
		return path
	}
	if path == "" {
		return normalizedBaseURL
	}
	if strings.HasPrefix(path, "/") {
		return normalizedBaseURL + path
	}
	return normalizedBaseURL + "/" + path
}
