// server/redirect.go
package server

import (
	"net"
	"net/http"
	"strconv"
	"strings"
)

// redirectHandler sends every plain-HTTP request to the same host and path
// over HTTPS. Hosts and request targets carrying control characters are
// rejected with 400.
func redirectHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqURI := r.URL.RequestURI()
		if !isValidHost(r.Host) || hasControlChars(reqURI, true) {
			http.Error(w, "Bad Request", http.StatusBadRequest)
			return
		}
		http.Redirect(w, r, "https://"+r.Host+reqURI, http.StatusMovedPermanently)
	})
}

// hasControlChars reports ASCII control characters and DEL in s.
func hasControlChars(s string, allowTab bool) bool {
	for _, c := range s {
		if c == '\t' && allowTab {
			continue
		}
		if c < 0x20 || c == 0x7f {
			return true
		}
	}
	return false
}

// isValidHost reports whether a Host header is safe to echo into a
// Location header.
func isValidHost(host string) bool {
	if host == "" || strings.Contains(host, "://") || strings.HasPrefix(host, "/") {
		return false
	}

	hostPart, portStr, err := net.SplitHostPort(host)
	if err != nil {
		// no port
		hostPart = host
	} else if portStr != "" {
		port, perr := strconv.Atoi(portStr)
		if perr != nil || port <= 0 || port > 65535 {
			return false
		}
	}
	if hostPart == "" {
		return false
	}

	if strings.HasPrefix(hostPart, "[") && strings.HasSuffix(hostPart, "]") {
		ip := hostPart[1 : len(hostPart)-1]
		if i := strings.IndexByte(ip, '%'); i != -1 {
			ip = ip[:i]
		}
		if net.ParseIP(ip) == nil {
			return false
		}
	}

	return !hasControlChars(hostPart, false)
}
