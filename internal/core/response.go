package core

import (
	"encoding/json"
	"strings"
	"time"
)

// Response is the protocol-opaque response envelope a plugin hands back to
// the runner, stored on history entries and exposed to scripts via quest.response.
type Response struct {
	Status     int
	StatusText string
	// Headers is multi-valued: most protocols can repeat a header name
	// (Set-Cookie being the canonical example).
	Headers map[string][]string
	Body    []byte
	Time    time.Duration
}

// HeaderGet performs a case-insensitive lookup of the first value for key.
func (r *Response) HeaderGet(key string) (string, bool) {
	if r == nil {
		return "", false
	}
	for k, vs := range r.Headers {
		if strings.EqualFold(k, key) && len(vs) > 0 {
			return vs[0], true
		}
	}
	return "", false
}

// HeaderAll performs a case-insensitive lookup of all values for key.
func (r *Response) HeaderAll(key string) []string {
	if r == nil {
		return nil
	}
	for k, vs := range r.Headers {
		if strings.EqualFold(k, key) {
			return vs
		}
	}
	return nil
}

// Text returns the body decoded as UTF-8 text.
func (r *Response) Text() string {
	if r == nil {
		return ""
	}
	return string(r.Body)
}

// JSON parses the body as JSON, returning nil (not an error) if it isn't
// valid JSON -- quest.response.json() surfaces the null sentinel on parse
// failure rather than throwing.
func (r *Response) JSON() any {
	if r == nil || len(r.Body) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(r.Body, &v); err != nil {
		return nil
	}
	return v
}
