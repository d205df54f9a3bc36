package script

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dop251/goja"

	"github.com/questapi/quest/internal/cancel"
	"github.com/questapi/quest/internal/core"
	"github.com/questapi/quest/internal/interpolate"
)

// reservedTopLevelKeys are the quest.* keys a protocol's ProtocolAPIProvider
// may not override (spec §4.2), except request (deep-merged) and response
// (replaced).
var reservedTopLevelKeys = map[string]bool{
	"collection": true, "environment": true, "iteration": true, "global": true,
	"scope": true, "request": true, "response": true, "cookies": true,
	"test": true, "expect": true, "event": true, "sendRequest": true,
	"wait": true, "variables": true, "history": true, "expectMessages": true,
}

// SendRequestFunc performs an ad-hoc request on behalf of quest.sendRequest.
// config is the parsed script-supplied options (spec §4.2: url/method/
// header(s)/body with mode variants).
type SendRequestFunc func(ctx context.Context, config map[string]any) (*core.Response, error)

// Builder assembles the per-script quest object from an ExecutionContext.
type Builder struct {
	SendRequest SendRequestFunc
}

// Build constructs the quest object for one script execution. Test
// recording (__quest_record_test) and quest.test/skip/fail are wired
// separately by the Sandbox; Build only needs to supply the data facades.
func (b *Builder) Build(ctx context.Context, ec *core.ExecutionContext, st ScriptType, rt *goja.Runtime) map[string]any {
	quest := map[string]any{
		"variables":   b.buildVariablesFacade(ec),
		"global":      b.buildVariableSetFacade(ec.GlobalVariables),
		"collection":  b.buildVariableSetFacade(ec.CollectionVariables),
		"environment": b.buildEnvironmentFacade(ec),
		"scope":       b.buildScopeFacade(ec),
		"cookies":     b.buildCookiesFacade(ec),
		"history":     b.buildHistoryFacade(ec),
		"iteration":   b.buildIterationFacade(ec),
		"event":       map[string]any{"name": ec.CurrentEvent},
		"request":     b.buildRequestFacade(ec, st),
		"response":    b.buildResponseFacade(ec),
		"sendRequest": b.buildSendRequest(ctx, ec, rt),
		"wait":        b.buildWait(ctx, rt),
		"expectMessages": func(n int) {
			if st != RequestPre {
				panic(rt.NewGoError(fmt.Errorf("quest.expectMessages is only valid in request-pre")))
			}
			if ec.ProtocolPlugin == nil || len(ec.ProtocolPlugin.Events()) == 0 {
				panic(rt.NewGoError(fmt.Errorf("protocol does not advertise testable events")))
			}
			v := n
			ec.ExpectedMessages = &v
		},
	}

	if ec.ProtocolPlugin != nil {
		if ext := ec.ProtocolPlugin.ProtocolAPIProvider(ec); ext != nil {
			mergeProtocolExtension(quest, ext)
		}
	}

	return quest
}

func mergeProtocolExtension(quest map[string]any, ext map[string]any) {
	for k, v := range ext {
		if !reservedTopLevelKeys[k] {
			quest[k] = v
			continue
		}
		switch k {
		case "request":
			if extReq, ok := v.(map[string]any); ok {
				if base, ok := quest["request"].(map[string]any); ok {
					for rk, rv := range extReq {
						base[rk] = rv
					}
				}
			}
		case "response":
			quest["response"] = v
		}
	}
}

func (b *Builder) buildVariablesFacade(ec *core.ExecutionContext) map[string]any {
	return map[string]any{
		"get": func(key string) any {
			v := ec.Resolver().Resolve(key)
			if !v.IsNull() {
				return v.String()
			}
			if resolved, ok := b.resolveFromValueProvider(ec, key); ok {
				return resolved
			}
			return nil
		},
		"set": func(key, value string) {
			ec.Scope.Set(key, value)
		},
		"has": func(key string) bool {
			return !ec.Resolver().Resolve(key).IsNull()
		},
		"replaceIn": func(template string) string {
			return ec.ReplaceIn(template)
		},
	}
}

// resolveFromValueProvider consults a registered ValueProviderPlugin when
// key has a "provider:kind" entry in the collection's VariableProviders
// (spec §4.6), the fallback quest.variables.get tries once the normal
// precedence chain (§4.1) misses.
func (b *Builder) resolveFromValueProvider(ec *core.ExecutionContext, key string) (string, bool) {
	spec, ok := ec.VariableProviders[key]
	if !ok || ec.ValueProviders == nil {
		return "", false
	}
	providerID, kind, found := strings.Cut(spec, ":")
	if !found {
		return "", false
	}
	provider, ok := ec.ValueProviders[providerID]
	if !ok {
		return "", false
	}
	v, found, err := provider.Resolve(context.Background(), kind, key)
	if err != nil || !found {
		return "", false
	}
	return v, true
}

type variableSetLike interface {
	Get(string) (string, bool)
	Set(string, string)
	Has(string) bool
	Delete(string)
	All() map[string]string
}

func (b *Builder) buildVariableSetFacade(vs variableSetLike) map[string]any {
	return map[string]any{
		"get": func(key string) any {
			if v, ok := vs.Get(key); ok {
				return v
			}
			return nil
		},
		"set":    func(key, value string) { vs.Set(key, value) },
		"has":    func(key string) bool { return vs.Has(key) },
		"remove": func(key string) { vs.Delete(key) },
		"toObject": func() map[string]string {
			return vs.All()
		},
	}
}

func (b *Builder) buildEnvironmentFacade(ec *core.ExecutionContext) map[string]any {
	name := func() string {
		if ec.Environment == nil {
			return ""
		}
		return ec.Environment.Name
	}
	ensure := func() {
		if ec.Environment == nil {
			ec.Environment = &core.Environment{Name: core.DefaultEnvironmentName, Vars: interpolate.NewVariableSet()}
		}
	}
	return map[string]any{
		"name": name(),
		"get": func(key string) any {
			if ec.Environment == nil {
				return nil
			}
			if v, ok := ec.Environment.Vars.Get(key); ok {
				return v
			}
			return nil
		},
		"set": func(key, value string) {
			ensure()
			ec.Environment.Vars.Set(key, value)
		},
		"has": func(key string) bool {
			return ec.Environment != nil && ec.Environment.Vars.Has(key)
		},
		"toObject": func() map[string]string {
			if ec.Environment == nil {
				return map[string]string{}
			}
			return ec.Environment.Vars.All()
		},
	}
}

func (b *Builder) buildScopeFacade(ec *core.ExecutionContext) map[string]any {
	return map[string]any{
		"get": func(key string) any {
			if v, ok := ec.Scope.Get(key); ok {
				return v
			}
			return nil
		},
		"set":    func(key, value string) { ec.Scope.Set(key, value) },
		"has":    func(key string) bool { _, ok := ec.Scope.Get(key); return ok },
		"remove": func(key string) { ec.Scope.Remove(key) },
		"clear":  func() { ec.Scope.Clear() },
		"toObject": func() map[string]string {
			return ec.Scope.ToObject()
		},
	}
}

func (b *Builder) buildCookiesFacade(ec *core.ExecutionContext) map[string]any {
	if ec.CookieJar == nil {
		return map[string]any{}
	}
	jar := ec.CookieJar
	return map[string]any{
		"get": func(name string) any {
			if v, ok := jar.Get(name); ok {
				return v
			}
			return nil
		},
		"has":    func(name string) bool { return jar.Has(name) },
		"remove": func(name string) { jar.Remove(name) },
		"clear":  func() { jar.Clear() },
		"toObject": func() map[string]string {
			return jar.ToObject()
		},
	}
}

func (b *Builder) buildHistoryFacade(ec *core.ExecutionContext) map[string]any {
	if ec.ExecutionHistory == nil {
		return map[string]any{}
	}
	h := ec.ExecutionHistory
	return map[string]any{
		"length": h.Len(),
		"all": func() []core.HistoryEntry {
			return h.Snapshot()
		},
		"filter": func(pattern string) []core.HistoryEntry {
			entries, err := h.Filter(pattern)
			if err != nil {
				return nil
			}
			return entries
		},
	}
}

func (b *Builder) buildIterationFacade(ec *core.ExecutionContext) map[string]any {
	return map[string]any{
		"current": ec.IterationCurrent,
		"count":   ec.IterationCount,
		"data":    ec.IterationData,
	}
}

func (b *Builder) buildRequestFacade(ec *core.ExecutionContext, st ScriptType) map[string]any {
	req := ec.CurrentRequest
	if req == nil {
		return map[string]any{}
	}
	f := map[string]any{
		"method":  req.Method,
		"url":     req.URL,
		"headers": req.Headers,
		"body":    req.Body,
		"setHeader": func(key, value string) {
			req.HeaderSet(key, value)
		},
		"setBody": func(body any) {
			req.Body = body
		},
		"setUrl": func(url string) {
			req.URL = url
		},
		"getHeader": func(key string) any {
			if v, ok := req.HeaderGet(key); ok {
				return v
			}
			return nil
		},
	}
	timeout := map[string]any{
		"set": func(ms int) error {
			if st != RequestPre {
				return fmt.Errorf("quest.request.timeout.set is only valid in request-pre")
			}
			d := time.Duration(ms) * time.Millisecond
			req.Timeout = &d
			return nil
		},
	}
	f["timeout"] = timeout
	return f
}

func (b *Builder) buildResponseFacade(ec *core.ExecutionContext) map[string]any {
	resp := ec.CurrentResponse
	if resp == nil {
		return map[string]any{}
	}
	headers := map[string]any{}
	for k, vs := range resp.Headers {
		if len(vs) == 1 {
			headers[k] = vs[0]
		} else {
			headers[k] = vs
		}
	}
	return map[string]any{
		"status":     resp.Status,
		"statusText": resp.StatusText,
		"headers":    headers,
		"body":       resp.Text(),
		"time":       resp.Time.Milliseconds(),
		"json": func() any {
			return resp.JSON()
		},
		"text": func() string {
			return resp.Text()
		},
		"header": func(key string) any {
			if v, ok := resp.HeaderGet(key); ok {
				return v
			}
			return nil
		},
	}
}

func (b *Builder) buildSendRequest(ctx context.Context, ec *core.ExecutionContext, rt *goja.Runtime) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		if ec.AbortSignal != nil && ec.AbortSignal.Aborted() {
			panic(rt.NewGoError(fmt.Errorf("Request aborted")))
		}
		configVal := call.Argument(0).Export()
		config, _ := configVal.(map[string]any)

		var callback goja.Callable
		if len(call.Arguments) > 1 {
			if c, ok := goja.AssertFunction(call.Argument(1)); ok {
				callback = c
			}
		}

		do := func() (*core.Response, error) {
			if b.SendRequest == nil {
				return nil, fmt.Errorf("sendRequest: no request sender configured")
			}
			return b.SendRequest(ctx, config)
		}

		if callback != nil {
			resp, err := do()
			if err != nil {
				_, _ = callback(goja.Undefined(), rt.ToValue(errFormat(err, ec.AbortSignal)), goja.Null())
			} else {
				_, _ = callback(goja.Undefined(), goja.Null(), rt.ToValue(responseToObject(resp)))
			}
			return goja.Undefined()
		}

		resp, err := do()
		if err != nil {
			panic(rt.NewGoError(fmt.Errorf("%s", errFormat(err, ec.AbortSignal))))
		}
		return rt.ToValue(responseToObject(resp))
	}
}

func (b *Builder) buildWait(ctx context.Context, rt *goja.Runtime) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		ms := call.Argument(0).ToFloat()
		if math.IsNaN(ms) || math.IsInf(ms, 0) || ms < 0 {
			panic(rt.NewGoError(fmt.Errorf("quest.wait requires a finite non-negative number")))
		}
		select {
		case <-time.After(time.Duration(ms) * time.Millisecond):
		case <-ctx.Done():
			panic(rt.NewGoError(fmt.Errorf("Request aborted")))
		}
		return goja.Undefined()
	}
}

func responseToObject(r *core.Response) map[string]any {
	headers := map[string]any{}
	for k, vs := range r.Headers {
		if len(vs) == 1 {
			headers[k] = vs[0]
		} else {
			headers[k] = vs
		}
	}
	return map[string]any{
		"status":     r.Status,
		"statusText": r.StatusText,
		"headers":    headers,
		"body":       r.Text(),
		"time":       r.Time.Milliseconds(),
		"json":       func() any { return r.JSON() },
		"text":       func() string { return r.Text() },
	}
}

// errFormat maps a sendRequest failure to the spec §4.2 abort/failure
// strings: an abort-caused error always reads "Request aborted", even if
// the underlying transport reports its own cancellation wording.
func errFormat(err error, abort *cancel.Token) string {
	if abort != nil && abort.Aborted() {
		return "Request aborted"
	}
	s := err.Error()
	if !strings.HasPrefix(s, "Request") {
		return "Request failed: " + s
	}
	return s
}
