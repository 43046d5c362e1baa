package netaccess

import (
	"net/http"
	"strings"
	"sync"
)

// CookieJar stores cookies per host. The stdlib's net/http.Cookie is
// reused for the cookie value itself — nothing in the retrieval pack
// carries a third-party cookie jar, and net/http.Cookie /
// http.ParseSetCookie /http.Cookie.String are what every Go HTTP
// client in the ecosystem already uses for this, so reaching for
// anything else here would be inventing a wheel the stdlib already
// provides well.
type CookieJar struct {
	mu     sync.Mutex
	byHost map[string][]*http.Cookie
}

// NewCookieJar creates an empty jar.
func NewCookieJar() *CookieJar {
	return &CookieJar{byHost: make(map[string][]*http.Cookie)}
}

// Cookies returns the Cookie header value to send for host, or "" if
// the jar holds nothing for it.
func (j *CookieJar) Cookies(host string) string {
	j.mu.Lock()
	defer j.mu.Unlock()

	cookies := j.byHost[host]
	if len(cookies) == 0 {
		return ""
	}

	parts := make([]string, 0, len(cookies))
	for _, c := range cookies {
		parts = append(parts, c.Name+"="+c.Value)
	}
	return strings.Join(parts, "; ")
}

// Store parses a response's Set-Cookie header values and merges them
// into the jar for host, replacing any existing cookie of the same
// name.
func (j *CookieJar) Store(host string, setCookieValues [][]byte) {
	if len(setCookieValues) == 0 {
		return
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	existing := j.byHost[host]
	for _, raw := range setCookieValues {
		c, err := http.ParseSetCookie(string(raw))
		if err != nil || c.Name == "" {
			continue
		}
		existing = replaceOrAppend(existing, c)
	}
	j.byHost[host] = existing
}

func replaceOrAppend(cookies []*http.Cookie, c *http.Cookie) []*http.Cookie {
	for i, existing := range cookies {
		if existing.Name == c.Name {
			cookies[i] = c
			return cookies
		}
	}
	return append(cookies, c)
}
