package cookies

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/publicsuffix"
)

// Jar is an in-memory, indexed cookie store keyed by (domain, path, name).
// Persistence across runs is a non-goal (spec §1); the jar's lifetime is a
// single run, or a single iteration when jar.persist is false (§4.5).
type Jar struct {
	mu      sync.Mutex
	cookies map[string]*Cookie // key: domain|path|name
}

// NewJar creates an empty jar.
func NewJar() *Jar {
	return &Jar{cookies: make(map[string]*Cookie)}
}

func key(domain, path, name string) string {
	return strings.ToLower(domain) + "|" + path + "|" + name
}

// Store ingests one or more Set-Cookie header values observed in a response
// to requestURL. Every value in the slice is stored (spec: "multiple
// Set-Cookie values in one response must all be stored").
func (j *Jar) Store(setCookieHeaders []string, requestURL string) error {
	if len(setCookieHeaders) == 0 {
		return nil
	}
	u, err := url.Parse(requestURL)
	if err != nil {
		return fmt.Errorf("cookies: invalid request url: %w", err)
	}

	h := http.Header{}
	for _, v := range setCookieHeaders {
		h.Add("Set-Cookie", v)
	}
	parsed := (&http.Response{Header: h}).Cookies()

	j.mu.Lock()
	defer j.mu.Unlock()
	now := time.Now()
	for _, hc := range parsed {
		domain := hc.Domain
		if domain == "" {
			domain = u.Hostname()
		}
		domain = strings.TrimPrefix(domain, ".")

		// A bare (non-leading-dot) cookie domain must not be a public
		// suffix; reject rather than silently accepting a supercookie.
		if !strings.HasPrefix(hc.Domain, ".") && hc.Domain != "" {
			if ps, icann := publicsuffix.PublicSuffix(domain); icann && ps == domain {
				continue
			}
		}

		path := hc.Path
		if path == "" {
			path = "/"
		}

		var expires *time.Time
		if !hc.Expires.IsZero() {
			e := hc.Expires
			expires = &e
		}
		var maxAge *int
		if hc.MaxAge != 0 {
			ma := hc.MaxAge
			maxAge = &ma
		}

		sameSite := ""
		switch hc.SameSite {
		case http.SameSiteLaxMode:
			sameSite = "lax"
		case http.SameSiteStrictMode:
			sameSite = "strict"
		case http.SameSiteNoneMode:
			sameSite = "none"
		}

		if maxAge != nil && *maxAge < 0 {
			delete(j.cookies, key(domain, path, hc.Name))
			continue
		}

		j.cookies[key(domain, path, hc.Name)] = &Cookie{
			Name:      hc.Name,
			Value:     hc.Value,
			Domain:    domain,
			Path:      path,
			Expires:   expires,
			MaxAge:    maxAge,
			Secure:    hc.Secure,
			HttpOnly:  hc.HttpOnly,
			SameSite:  sameSite,
			CreatedAt: now,
		}
	}
	return nil
}

// domainMatch implements the leading-dot / exact / *.domain suffix rule.
func domainMatch(cookieDomain, host string) bool {
	host = strings.ToLower(host)
	cookieDomain = strings.ToLower(cookieDomain)
	if host == cookieDomain {
		return true
	}
	return strings.HasSuffix(host, "."+cookieDomain)
}

// pathMatch implements exact-match or "cookie.path followed by /...".
func pathMatch(cookiePath, reqPath string) bool {
	if reqPath == "" {
		reqPath = "/"
	}
	if cookiePath == reqPath {
		return true
	}
	if strings.HasPrefix(reqPath, cookiePath) {
		if strings.HasSuffix(cookiePath, "/") {
			return true
		}
		if len(reqPath) > len(cookiePath) && reqPath[len(cookiePath)] == '/' {
			return true
		}
	}
	return false
}

// matching returns every non-expired cookie applicable to requestURL.
func (j *Jar) matching(requestURL string) ([]*Cookie, error) {
	u, err := url.Parse(requestURL)
	if err != nil {
		return nil, fmt.Errorf("cookies: invalid request url: %w", err)
	}
	secure := u.Scheme == "https"
	now := time.Now()

	j.mu.Lock()
	defer j.mu.Unlock()

	var out []*Cookie
	for _, c := range j.cookies {
		if c.Expired(now) {
			continue
		}
		if !domainMatch(c.Domain, u.Hostname()) {
			continue
		}
		if !pathMatch(c.Path, u.Path) {
			continue
		}
		if c.Secure && !secure {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

// GetCookieHeader builds the Cookie: header value for requestURL, or
// returns ok=false if no cookie applies.
func (j *Jar) GetCookieHeader(requestURL string) (string, bool) {
	matches, err := j.matching(requestURL)
	if err != nil || len(matches) == 0 {
		return "", false
	}
	parts := make([]string, 0, len(matches))
	for _, c := range matches {
		parts = append(parts, c.Name+"="+c.Value)
	}
	return strings.Join(parts, "; "), true
}

// Get returns a cookie's value by name, scanning every stored cookie
// regardless of domain/path (quest.cookies.get is a flat namespace over
// whatever the jar currently holds).
func (j *Jar) Get(name string) (string, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	now := time.Now()
	for _, c := range j.cookies {
		if c.Name == name && !c.Expired(now) {
			return c.Value, true
		}
	}
	return "", false
}

// Has reports whether an unexpired cookie with name exists.
func (j *Jar) Has(name string) bool {
	_, ok := j.Get(name)
	return ok
}

// SetOptions configures quest.cookies.set.
type SetOptions struct {
	Domain   string
	Path     string
	Expires  *time.Time
	MaxAge   *int
	Secure   bool
	HttpOnly bool
	SameSite string
}

// Set stores a cookie directly (as opposed to via a Set-Cookie header).
func (j *Jar) Set(name, value string, opts SetOptions) {
	domain := opts.Domain
	if domain == "" {
		domain = "localhost"
	}
	path := opts.Path
	if path == "" {
		path = "/"
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	j.cookies[key(domain, path, name)] = &Cookie{
		Name:      name,
		Value:     value,
		Domain:    domain,
		Path:      path,
		Expires:   opts.Expires,
		MaxAge:    opts.MaxAge,
		Secure:    opts.Secure,
		HttpOnly:  opts.HttpOnly,
		SameSite:  opts.SameSite,
		CreatedAt: time.Now(),
	}
}

// Remove deletes every stored cookie with the given name.
func (j *Jar) Remove(name string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	for k, c := range j.cookies {
		if c.Name == name {
			delete(j.cookies, k)
		}
	}
}

// Clear empties the jar.
func (j *Jar) Clear() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.cookies = make(map[string]*Cookie)
}

// ToObject returns every unexpired cookie as a flat name->value map.
func (j *Jar) ToObject() map[string]string {
	j.mu.Lock()
	defer j.mu.Unlock()
	now := time.Now()
	result := make(map[string]string)
	for _, c := range j.cookies {
		if !c.Expired(now) {
			result[c.Name] = c.Value
		}
	}
	return result
}
