// Package cancel implements the run-wide cooperative Cancellation Token
// (spec §4.7/§9): a single {aborted, reason} pair, idempotent to set, with
// derived per-request children that also flip when the parent flips.
package cancel

import "sync"

// Token carries abort state and the first reason it was set for.
type Token struct {
	mu       sync.Mutex
	aborted  bool
	reason   string
	children []*Token
}

// New creates a fresh, non-aborted token.
func New() *Token {
	return &Token{}
}

// Abort sets the token if it isn't already set; repeated calls are no-ops
// and preserve the first reason. Propagates to every derived child.
func (t *Token) Abort(reason string) {
	t.mu.Lock()
	if t.aborted {
		t.mu.Unlock()
		return
	}
	t.aborted = true
	t.reason = reason
	children := append([]*Token(nil), t.children...)
	t.mu.Unlock()

	for _, c := range children {
		c.Abort(reason)
	}
}

// Aborted reports whether the token has been set.
func (t *Token) Aborted() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.aborted
}

// Reason returns the first abort reason, or "" if not aborted.
func (t *Token) Reason() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.reason
}

// Child creates a derived token that is aborted whenever the parent is, and
// which can also be aborted independently without affecting the parent (a
// per-request timeout, say).
func (t *Token) Child() *Token {
	child := New()
	t.mu.Lock()
	already := t.aborted
	reason := t.reason
	if !already {
		t.children = append(t.children, child)
	}
	t.mu.Unlock()
	if already {
		child.Abort(reason)
	}
	return child
}
