package core

import (
	"context"

	"github.com/questapi/quest/internal/cancel"
)

// ProtocolEvent advertises one named event a streaming protocol plugin may
// emit mid-request (e.g. a websocket message), and whether plugin-event
// scripts attached to it may carry test assertions.
type ProtocolEvent struct {
	Name          string
	CanHaveTests  bool
}

// ProtocolPlugin is the port the engine drives to execute a request body.
// Exactly one Execute call happens per request; multi-event protocols may
// additionally invoke the EventSink passed to Execute any number of times
// before returning, each call feeding a plugin-event script.
type ProtocolPlugin interface {
	Name() string
	Version() string
	Protocol() string

	// AuthTypes lists auth types this protocol can carry; StrictAuthList
	// reports whether that list is exhaustive (reject anything else) or
	// advisory only.
	AuthTypes() []string
	StrictAuthList() bool

	// Events lists the named plugin-events this protocol may emit.
	Events() []ProtocolEvent

	// ProtocolAPIProvider optionally returns extra quest.* surface merged
	// into the script's quest object for this protocol. Returns nil if the
	// protocol adds nothing.
	ProtocolAPIProvider(ctx *ExecutionContext) map[string]any

	// Execute runs the request. sink, if non-nil, is invoked once per
	// plugin-event payload emitted before the final response is returned.
	Execute(ctx context.Context, req *RequestInstance, opts RequestOptions, abort *cancel.Token, sink EventSink) (*Response, error)

	// Validate performs protocol-level static validation of a request
	// before the run starts. A plugin with nothing to check returns nil.
	Validate(req *RequestInstance, opts RequestOptions) error
}

// EventSink receives one plugin-event payload during Execute.
type EventSink func(eventName string, payload map[string]any)

// AuthValidation is the result of an auth plugin's pre-run validation.
type AuthValidation struct {
	Valid  bool
	Errors []ValidationError
}

// AuthPlugin applies credentials to a request for one or more auth types.
type AuthPlugin interface {
	Name() string
	Version() string
	AuthTypes() []string
	Protocols() []string
	DataSchema() map[string]string

	Validate(auth *AuthConfig, ctx *ExecutionContext) AuthValidation

	// Apply returns a (possibly new) request with credentials applied. It
	// must not overwrite an existing Authorization header.
	Apply(ctx context.Context, req *RequestInstance, auth *AuthConfig, ec *ExecutionContext) (*RequestInstance, error)
}

// ValueProviderPlugin resolves "provider:kind" variable definitions (e.g.
// vault:file) to a runtime value.
type ValueProviderPlugin interface {
	Name() string
	Provider() string
	Resolve(ctx context.Context, kind string, key string) (string, bool, error)
}

// Registry is the set of plugins injected at runner construction. The core
// never loads plugins at run time; it only dispatches to whatever is
// registered here.
type Registry struct {
	Protocols      map[string]ProtocolPlugin
	Auths          []AuthPlugin
	ValueProviders map[string]ValueProviderPlugin
}

// NewRegistry creates an empty plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		Protocols:      make(map[string]ProtocolPlugin),
		ValueProviders: make(map[string]ValueProviderPlugin),
	}
}

// RegisterProtocol adds a protocol plugin, keyed by its Protocol() id.
func (r *Registry) RegisterProtocol(p ProtocolPlugin) {
	r.Protocols[p.Protocol()] = p
}

// RegisterAuth adds an auth plugin to the resolution list.
func (r *Registry) RegisterAuth(p AuthPlugin) {
	r.Auths = append(r.Auths, p)
}

// RegisterValueProvider adds a value-provider plugin, keyed by its Provider() id.
func (r *Registry) RegisterValueProvider(p ValueProviderPlugin) {
	r.ValueProviders[p.Provider()] = p
}

// ResolveAuth picks the first registered auth plugin whose AuthTypes
// contains authType and whose Protocols contains protocol, per §4.6.
func (r *Registry) ResolveAuth(authType, protocol string) AuthPlugin {
	for _, p := range r.Auths {
		if containsString(p.AuthTypes(), authType) && containsString(p.Protocols(), protocol) {
			return p
		}
	}
	return nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
