package engine

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/questapi/quest/internal/cancel"
	"github.com/questapi/quest/internal/cookies"
	"github.com/questapi/quest/internal/core"
	"github.com/questapi/quest/internal/eventbus"
	"github.com/questapi/quest/internal/interpolate"
	"github.com/questapi/quest/internal/script"
)

// Runner is the Collection Runner (spec §4.5/§5): it builds the DAG once,
// then drives validation, pre-run hooks, one pass per iteration, and
// post-run hooks, aggregating every script's test results into a RunResult.
//
// Exactly one global lock (scriptMu) serializes every script execution and
// every Scope Chain mutation; only a protocol plugin's Execute call (network
// I/O) runs outside it. That is what makes it safe for the Scheduler to run
// independent DAG nodes on their own goroutines (spec §9).
type Runner struct {
	collection *core.Collection
	registry   *core.Registry
	bus        *eventbus.Bus
	graph      *Graph

	scriptMu sync.Mutex
	sandbox  *script.Sandbox
}

// NewRunner compiles the collection's DAG and returns a Runner ready to
// Validate and Run. bus may be nil, in which case events are simply dropped.
func NewRunner(coll *core.Collection, registry *core.Registry, bus *eventbus.Bus) (*Runner, error) {
	graph, err := Build(coll)
	if err != nil {
		return nil, err
	}
	if bus == nil {
		bus = eventbus.New()
	}
	r := &Runner{collection: coll, registry: registry, bus: bus, graph: graph}
	r.sandbox = script.NewSandbox(r.sendAdHocRequest)
	return r, nil
}

// Validate runs every pre-run check spec §4.5/§8 requires: unresolved
// protocol/auth plugins and the allowParallel+jar.persist combination that
// is rejected outright rather than silently serialized.
func (r *Runner) Validate(opts core.RunOptions) []core.ValidationError {
	var errs []core.ValidationError

	if _, ok := r.registry.Protocols[r.collection.Protocol]; !ok {
		errs = append(errs, core.ValidationError{
			Path:    r.collection.Protocol + ":/",
			Message: fmt.Sprintf("no protocol plugin registered for %q", r.collection.Protocol),
		})
	}

	if opts.AllowParallel && opts.JarPersist {
		errs = append(errs, core.ValidationError{
			Message: "allowParallel and jar.persist cannot both be enabled: concurrent requests would race on a shared cookie jar",
		})
	}

	var walk func(items []*core.Item)
	walk = func(items []*core.Item) {
		for _, it := range items {
			auth := effectiveAuth(it, r.ancestorsOf(it), r.collection)
			if auth.IsConfigured() {
				p := r.registry.ResolveAuth(auth.Type, r.collection.Protocol)
				if p == nil {
					errs = append(errs, core.ValidationError{
						Path:    it.ID,
						Message: fmt.Sprintf("no auth plugin registered for type %q on protocol %q", auth.Type, r.collection.Protocol),
					})
				} else if v := p.Validate(auth, nil); !v.Valid {
					for _, ve := range v.Errors {
						if ve.Path == "" {
							ve.Path = it.ID
						}
						errs = append(errs, ve)
					}
				}
			}
			if it.IsFolder() {
				walk(it.Children)
			}
		}
	}
	walk(r.collection.Items)

	return errs
}

func (r *Runner) ancestorsOf(target *core.Item) []*core.Item {
	var path []*core.Item
	var find func(items []*core.Item, trail []*core.Item) bool
	find = func(items []*core.Item, trail []*core.Item) bool {
		for _, it := range items {
			if it.ID == target.ID {
				path = trail
				return true
			}
			if it.IsFolder() {
				if find(it.Children, append(append([]*core.Item{}, trail...), it)) {
					return true
				}
			}
		}
		return false
	}
	find(r.collection.Items, nil)
	return path
}

// effectiveAuth walks from target up through its ancestors to the
// collection, returning the first configured AuthConfig (spec §4.6:
// "auth is inherited down the tree unless overridden").
func effectiveAuth(target *core.Item, ancestors []*core.Item, coll *core.Collection) *core.AuthConfig {
	if target.Auth.IsConfigured() {
		return target.Auth
	}
	for i := len(ancestors) - 1; i >= 0; i-- {
		if ancestors[i].Auth.IsConfigured() {
			return ancestors[i].Auth
		}
	}
	if coll.Auth.IsConfigured() {
		return coll.Auth
	}
	return &core.AuthConfig{}
}

// abortState bridges the cooperative cancellation Token to a context.Context
// so the Scheduler's ctx.Err() check observes the same abort.
type abortState struct {
	token  *cancel.Token
	cancel context.CancelFunc
}

func (a *abortState) Fire(reason string) {
	a.token.Abort(reason)
	a.cancel()
}

// Run executes the collection once per planned iteration and returns the
// aggregated result. Validation errors short-circuit execution entirely
// (spec §4.5: "when any are present no requests execute").
func (r *Runner) Run(ctx context.Context, opts core.RunOptions) *core.RunResult {
	opts = opts.Normalize()
	result := &core.RunResult{CollectionInfo: r.collection.Info}

	if errs := r.Validate(opts); len(errs) > 0 {
		result.ValidationErrors = errs
		return result
	}

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()
	abort := &abortState{token: cancel.New(), cancel: cancelRun}

	collectionVars := interpolate.NewVariableSet()
	for k, v := range r.collection.Variables {
		collectionVars.Set(k, v)
	}
	globalVars := interpolate.NewVariableSet()
	history := core.NewHistory()
	var jar *cookies.Jar
	if opts.JarPersist {
		jar = cookies.NewJar()
	}
	if opts.Environment == nil {
		name := opts.EnvironmentName
		if name == "" {
			name = core.DefaultEnvironmentName
		}
		opts.Environment = &core.Environment{Name: name, Vars: interpolate.NewVariableSet()}
	}

	r.bus.Emit(eventbus.Event{Kind: eventbus.BeforeRun, Payload: r.collection.Info})

	baseEC := &core.ExecutionContext{
		Protocol:            r.collection.Protocol,
		CollectionInfo:      r.collection.Info,
		CollectionVariables: collectionVars,
		GlobalVariables:     globalVars,
		ExecutionHistory:    history,
		Options:             opts,
		ProtocolPlugin:      r.registry.Protocols[r.collection.Protocol],
		Environment:         opts.Environment,
		ValueProviders:      r.registry.ValueProviders,
		VariableProviders:   r.collection.VariableProviders,
		AbortSignal:         abort.token,
	}

	if r.collection.PreScript != "" {
		r.runPlainScript(runCtx, baseEC, script.CollectionPre, r.collection.PreScript,
			eventbus.BeforeCollectionPreScript, eventbus.AfterCollectionPreScript, "", result)
	}

	plan := PlanIterations(opts, r.collection)
	for iter := 1; iter <= plan.Count; iter++ {
		if runCtx.Err() != nil {
			result.Aborted = true
			result.AbortReason = abort.token.Reason()
			break
		}
		iterJar := jar
		if iterJar == nil {
			iterJar = cookies.NewJar()
		}
		r.runIteration(runCtx, opts, abort, collectionVars, globalVars, history, iterJar, plan, iter, result)

		if opts.Delay > 0 && iter < plan.Count {
			time.Sleep(opts.Delay)
		}
	}

	if r.collection.PostScript != "" {
		r.runPlainScript(runCtx, baseEC, script.CollectionPost, r.collection.PostScript,
			eventbus.BeforeCollectionPostScript, eventbus.AfterCollectionPostScript, "", result)
	}

	if abort.token.Aborted() {
		result.Aborted = true
		result.AbortReason = abort.token.Reason()
	}

	r.bus.Emit(eventbus.Event{Kind: eventbus.AfterRun, Payload: result})
	return result
}

func (r *Runner) runIteration(
	ctx context.Context,
	opts core.RunOptions,
	abort *abortState,
	collectionVars, globalVars *interpolate.VariableSet,
	history *core.History,
	jar *cookies.Jar,
	plan IterationPlan,
	iter int,
	result *core.RunResult,
) {
	r.bus.Emit(eventbus.Event{
		Kind:     eventbus.BeforeIteration,
		Envelope: &eventbus.Envelope{CollectionInfo: r.collection.Info, Iteration: iter},
	})

	rootFrames := interpolate.NewScopeChain(r.collection.Info.ID).Frames()
	var folderFrames sync.Map
	folderFrames.Store("", rootFrames)

	var resultMu sync.Mutex

	filterRe := compileFilter(opts.Filter)

	exec := func(execCtx context.Context, node *Node) error {
		switch node.Kind {
		case NodeFolderPre:
			r.execFolderPre(execCtx, node, &folderFrames, opts, abort, collectionVars, globalVars, history, jar)
		case NodeFolderPost:
			r.execFolderPost(execCtx, node, &folderFrames, opts, abort, collectionVars, globalVars, history, jar)
		case NodeRequest:
			if filterRe != nil && !filterRe.MatchString(node.Path) {
				return nil
			}
			r.execRequest(execCtx, opts, abort, collectionVars, globalVars, history, jar, plan, iter, node, &folderFrames, result, &resultMu)
		}
		return nil
	}

	onSkip := func(node *Node) {}

	sched := NewScheduler(r.graph, opts.MaxConcurrency, opts.AllowParallel)
	sched.Run(ctx, exec, onSkip)

	r.bus.Emit(eventbus.Event{
		Kind:     eventbus.AfterIteration,
		Envelope: &eventbus.Envelope{CollectionInfo: r.collection.Info, Iteration: iter},
	})
}

func (r *Runner) execFolderPre(
	ctx context.Context, node *Node, folderFrames *sync.Map,
	opts core.RunOptions, abort *abortState,
	collectionVars, globalVars *interpolate.VariableSet, history *core.History, jar *cookies.Jar,
) {
	env := &eventbus.Envelope{Path: node.Path, PathType: eventbus.PathFolder, CollectionInfo: r.collection.Info}
	r.bus.Emit(eventbus.Event{Kind: eventbus.BeforeFolder, Envelope: env})

	parentID := ""
	if len(node.Ancestors) > 0 {
		parentID = node.Ancestors[len(node.Ancestors)-1].ID
	}
	parentFrames, _ := folderFrames.Load(parentID)
	frames, _ := parentFrames.([]*interpolate.Frame)
	chain := interpolate.NewScopeChainWithFrames(frames)
	chain.PushFolder(node.FolderID)
	folderFrames.Store(node.FolderID, chain.Frames())

	folder := r.findItem(node.FolderID)
	if folder != nil && folder.FolderPreScript != "" {
		r.bus.Emit(eventbus.Event{Kind: eventbus.BeforeFolderPreScript, Envelope: env})
		ec := r.folderExecutionContext(chain, opts, abort, collectionVars, globalVars, history, jar)
		res, err := r.runGuarded(ctx, ec, script.FolderPre, folder.FolderPreScript, nil, func() bool { return abort.token.Aborted() })
		r.emitScriptOutcome(res, err, env)
		r.bus.Emit(eventbus.Event{Kind: eventbus.AfterFolderPreScript, Envelope: env})
	}
}

func (r *Runner) execFolderPost(
	ctx context.Context, node *Node, folderFrames *sync.Map,
	opts core.RunOptions, abort *abortState,
	collectionVars, globalVars *interpolate.VariableSet, history *core.History, jar *cookies.Jar,
) {
	env := &eventbus.Envelope{Path: node.Path, PathType: eventbus.PathFolder, CollectionInfo: r.collection.Info}
	folder := r.findItem(node.FolderID)
	if folder != nil && folder.FolderPostScript != "" {
		r.bus.Emit(eventbus.Event{Kind: eventbus.BeforeFolderPostScript, Envelope: env})
		frames, _ := folderFrames.Load(node.FolderID)
		chainFrames, _ := frames.([]*interpolate.Frame)
		chain := interpolate.NewScopeChainWithFrames(chainFrames)
		ec := r.folderExecutionContext(chain, opts, abort, collectionVars, globalVars, history, jar)
		res, err := r.runGuarded(ctx, ec, script.FolderPost, folder.FolderPostScript, nil, func() bool { return abort.token.Aborted() })
		r.emitScriptOutcome(res, err, env)
		r.bus.Emit(eventbus.Event{Kind: eventbus.AfterFolderPostScript, Envelope: env})
	}
	r.bus.Emit(eventbus.Event{Kind: eventbus.AfterFolder, Envelope: env})
}

func (r *Runner) folderExecutionContext(
	chain *interpolate.ScopeChain, opts core.RunOptions, abort *abortState,
	collectionVars, globalVars *interpolate.VariableSet, history *core.History, jar *cookies.Jar,
) *core.ExecutionContext {
	return &core.ExecutionContext{
		Protocol:            r.collection.Protocol,
		CollectionInfo:      r.collection.Info,
		CollectionVariables: collectionVars,
		GlobalVariables:     globalVars,
		Scope:               chain,
		ExecutionHistory:    history,
		Options:             opts,
		ProtocolPlugin:      r.registry.Protocols[r.collection.Protocol],
		Environment:         opts.Environment,
		ValueProviders:      r.registry.ValueProviders,
		VariableProviders:   r.collection.VariableProviders,
		CookieJar:           jar,
		AbortSignal:         abort.token,
	}
}

// compileFilter compiles the CLI --filter flag (spec §6: regex on path) to
// a *regexp.Regexp, or nil if no filter is set or it fails to compile (an
// invalid filter is a validation-time concern, not a run-time one here).
func compileFilter(pattern string) *regexp.Regexp {
	if pattern == "" {
		return nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil
	}
	return re
}

func (r *Runner) execRequest(
	ctx context.Context,
	opts core.RunOptions,
	abort *abortState,
	collectionVars, globalVars *interpolate.VariableSet,
	history *core.History,
	jar *cookies.Jar,
	plan IterationPlan,
	iter int,
	node *Node,
	folderFrames *sync.Map,
	result *core.RunResult,
	resultMu *sync.Mutex,
) {
	item := node.Item
	env := &eventbus.Envelope{Path: node.Path, PathType: eventbus.PathRequest, CollectionInfo: r.collection.Info, Iteration: iter}
	r.bus.Emit(eventbus.Event{Kind: eventbus.BeforeItem, Envelope: env})

	frames, _ := folderFrames.Load(node.FolderID)
	ancestorFrames, _ := frames.([]*interpolate.Frame)
	chain := interpolate.NewScopeChainWithFrames(ancestorFrames)
	chain.PushRequest(item.ID)

	ec := &core.ExecutionContext{
		Protocol:            r.collection.Protocol,
		CollectionInfo:      r.collection.Info,
		CollectionVariables: collectionVars,
		GlobalVariables:     globalVars,
		Scope:               chain,
		IterationSource:     plan.Source,
		IterationData:       plan.RowAt(iter),
		IterationCurrent:    iter,
		IterationCount:      plan.Count,
		ExecutionHistory:    history,
		Options:             opts,
		ProtocolPlugin:      r.registry.Protocols[r.collection.Protocol],
		Environment:         opts.Environment,
		ValueProviders:      r.registry.ValueProviders,
		VariableProviders:   r.collection.VariableProviders,
		CookieJar:           jar,
		AbortSignal:         abort.token.Child(),
	}

	if item.Condition != "" {
		include, err := r.runGuardedCondition(ctx, ec, item.Condition)
		if err != nil || !include {
			history.Append(core.HistoryEntry{
				ID: item.ID, Name: item.Name, Path: node.Path, Iteration: iter,
				Timestamp: time.Now(),
			})
			r.bus.Emit(eventbus.Event{Kind: eventbus.AfterItem, Envelope: env})
			return
		}
	}

	req := &core.RequestInstance{
		ID:      item.ID,
		Name:    item.Name,
		Path:    node.Path,
		Method:  item.Data.Method,
		URL:     ec.ReplaceIn(item.Data.URL),
		Headers: interpolateHeaders(ec, item.Data.Headers),
		Body:    interpolateBody(ec, item.Data.Body),
		Raw:     item.Data.Raw,
	}
	if item.Options.Timeout != nil {
		t := *item.Options.Timeout
		req.Timeout = &t
	} else if opts.DefaultTimeout > 0 {
		t := opts.DefaultTimeout
		req.Timeout = &t
	}
	ec.CurrentRequest = req

	var tests []core.TestResult
	sink := func(t core.TestResult) {
		tests = append(tests, t)
		if !t.Passed && !t.Skipped && opts.Bail {
			abort.Fire(fmt.Sprintf("bail: test %q failed at %s", t.Name, node.Path))
		}
	}
	abortCheck := func() bool { return abort.token.Aborted() }

	r.bus.Emit(eventbus.Event{Kind: eventbus.BeforePreScript, Envelope: env})
	ok := true
	for _, anc := range node.Ancestors {
		if ok && anc.PreRequestScript != "" {
			res, err := r.runGuarded(ctx, ec, script.RequestPre, anc.PreRequestScript, sink, abortCheck)
			r.emitScriptOutcome(res, err, env)
			if err != nil || !res.Success {
				ok = false
			}
		}
	}
	if ok && item.PreRequestScript != "" {
		res, err := r.runGuarded(ctx, ec, script.RequestPre, item.PreRequestScript, sink, abortCheck)
		r.emitScriptOutcome(res, err, env)
		if err != nil || !res.Success {
			ok = false
		}
	}
	r.bus.Emit(eventbus.Event{Kind: eventbus.AfterPreScript, Envelope: env})

	var resp *core.Response
	var reqErr error
	if ok && !abort.token.Aborted() {
		auth := effectiveAuth(item, node.Ancestors, r.collection)
		if auth.IsConfigured() {
			if authPlugin := r.registry.ResolveAuth(auth.Type, r.collection.Protocol); authPlugin != nil {
				if newReq, err := authPlugin.Apply(ctx, req, auth, ec); err == nil {
					req = newReq
					ec.CurrentRequest = req
				}
			}
		}
		if jar != nil {
			if hdr, hasCookie := jar.GetCookieHeader(req.URL); hasCookie {
				if _, exists := req.HeaderGet("Cookie"); !exists {
					req.HeaderSet("Cookie", hdr)
				}
			}
		}

		reqCtx := ctx
		var cancelReq context.CancelFunc
		if req.Timeout != nil && *req.Timeout > 0 {
			reqCtx, cancelReq = context.WithTimeout(ctx, *req.Timeout)
			defer cancelReq()
		}

		r.bus.Emit(eventbus.Event{Kind: eventbus.BeforeRequest, Envelope: env})
		start := time.Now()
		sinkEvents := func(name string, payload map[string]any) {
			r.handlePluginEvent(reqCtx, ec, node, name, payload, sink, abortCheck)
		}
		execOpts := item.Options
		execOpts.ExpectedMessages = ec.ExpectedMessages
		resp, reqErr = ec.ProtocolPlugin.Execute(reqCtx, req, execOpts, ec.AbortSignal, sinkEvents)
		duration := time.Since(start)
		if resp != nil {
			resp.Time = duration
		}
		r.bus.Emit(eventbus.Event{Kind: eventbus.AfterRequest, Envelope: env})

		if reqErr == nil && jar != nil {
			if setCookies, hasHeader := resp.Headers["Set-Cookie"]; hasHeader {
				_ = jar.Store(setCookies, req.URL)
			}
		}
	}
	ec.CurrentResponse = resp

	r.bus.Emit(eventbus.Event{Kind: eventbus.BeforePostScript, Envelope: env})
	if ok && reqErr == nil && !abort.token.Aborted() {
		if item.PostRequestScript != "" {
			res, err := r.runGuarded(ctx, ec, script.RequestPost, item.PostRequestScript, sink, abortCheck)
			r.emitScriptOutcome(res, err, env)
		}
		for i := len(node.Ancestors) - 1; i >= 0; i-- {
			anc := node.Ancestors[i]
			if anc.PostRequestScript != "" {
				res, err := r.runGuarded(ctx, ec, script.RequestPost, anc.PostRequestScript, sink, abortCheck)
				r.emitScriptOutcome(res, err, env)
			}
		}
	}
	r.bus.Emit(eventbus.Event{Kind: eventbus.AfterPostScript, Envelope: env})

	history.Append(core.HistoryEntry{
		ID: item.ID, Name: item.Name, Path: node.Path, Iteration: iter,
		Response: resp, Tests: tests, Timestamp: time.Now(),
	})

	var duration time.Duration
	if resp != nil {
		duration = resp.Time
	}
	resultMu.Lock()
	result.AddTestResults(tests)
	result.RequestResults = append(result.RequestResults, core.RequestResult{
		RequestID: item.ID, Path: node.Path, Response: resp, Tests: tests,
		Duration: duration, Error: reqErr,
	})
	resultMu.Unlock()

	r.bus.Emit(eventbus.Event{Kind: eventbus.AfterItem, Envelope: env})
}

// handlePluginEvent runs the plugin-event script bound to a streaming
// protocol event (spec §4.2 quest.expectMessages / ProtocolEvent), if the
// request opted in by calling quest.expectMessages during its pre-script.
func (r *Runner) handlePluginEvent(ctx context.Context, ec *core.ExecutionContext, node *Node, name string, payload map[string]any, sink script.AssertionSink, abortCheck func() bool) {
	if ec.ExpectedMessages == nil {
		return
	}
	var canHaveTests bool
	for _, e := range ec.ProtocolPlugin.Events() {
		if e.Name == name {
			canHaveTests = e.CanHaveTests
			break
		}
	}
	if !canHaveTests {
		return
	}
	ec.CurrentEvent = name
	source, _ := payload["script"].(string)
	if source == "" {
		return
	}
	res, err := r.runGuarded(ctx, ec, script.PluginEvent, source, sink, abortCheck)
	env := &eventbus.Envelope{Path: node.Path, PathType: eventbus.PathRequest, CollectionInfo: r.collection.Info}
	r.emitScriptOutcome(res, err, env)
}

// runGuarded acquires the script mutex, runs source, and releases it: the
// only section of a request's lifecycle that holds the lock while the
// protocol Execute call that precedes/follows it does not (spec §5/§9).
func (r *Runner) runGuarded(ctx context.Context, ec *core.ExecutionContext, st script.ScriptType, source string, sink script.AssertionSink, abortCheck func() bool) (*script.Result, error) {
	r.scriptMu.Lock()
	defer r.scriptMu.Unlock()
	return r.sandbox.Run(ctx, ec, st, source, sink, abortCheck)
}

// runGuardedCondition evaluates an Item's `condition` expression (spec §3)
// under the same script mutex as every other sandboxed execution.
func (r *Runner) runGuardedCondition(ctx context.Context, ec *core.ExecutionContext, expr string) (bool, error) {
	r.scriptMu.Lock()
	defer r.scriptMu.Unlock()
	return r.sandbox.EvalCondition(ctx, ec, expr)
}

func (r *Runner) runPlainScript(ctx context.Context, ec *core.ExecutionContext, st script.ScriptType, source string, before, after eventbus.Kind, path string, result *core.RunResult) {
	env := &eventbus.Envelope{Path: path, PathType: eventbus.PathCollection, CollectionInfo: r.collection.Info}
	r.bus.Emit(eventbus.Event{Kind: before, Envelope: env})
	res, err := r.runGuarded(ctx, ec, st, source, nil, nil)
	if err == nil {
		result.AddTestResults(res.Tests)
	}
	r.emitScriptOutcome(res, err, env)
	r.bus.Emit(eventbus.Event{Kind: after, Envelope: env})
}

func (r *Runner) emitScriptOutcome(res *script.Result, err error, env *eventbus.Envelope) {
	if err != nil {
		r.bus.Emit(eventbus.Event{Kind: eventbus.Exception, Envelope: env, Payload: err.Error()})
		return
	}
	for _, line := range res.ConsoleOutput {
		r.bus.Emit(eventbus.Event{Kind: eventbus.Console, Envelope: env, Payload: line})
	}
	for _, t := range res.Tests {
		r.bus.Emit(eventbus.Event{Kind: eventbus.Assertion, Envelope: env, Payload: t})
	}
	if !res.Success {
		r.bus.Emit(eventbus.Event{Kind: eventbus.Exception, Envelope: env, Payload: res.Error})
	}
}

func (r *Runner) findItem(id string) *core.Item {
	return r.collection.FindItem(id)
}

// sendAdHocRequest services quest.sendRequest: a one-off request described
// entirely by the script, dispatched through the same protocol plugin as
// every declared request, bypassing the DAG and the cookie/auth pipeline.
func (r *Runner) sendAdHocRequest(ctx context.Context, config map[string]any) (*core.Response, error) {
	plugin := r.registry.Protocols[r.collection.Protocol]
	if plugin == nil {
		return nil, fmt.Errorf("engine: no protocol plugin registered for %q", r.collection.Protocol)
	}
	req := &core.RequestInstance{}
	if v, ok := config["url"].(string); ok {
		req.URL = v
	}
	if v, ok := config["method"].(string); ok {
		req.Method = v
	}
	if v, ok := config["headers"].(map[string]any); ok {
		req.Headers = make(map[string]string, len(v))
		for k, hv := range v {
			if s, ok := hv.(string); ok {
				req.Headers[k] = s
			}
		}
	}
	req.Body = config["body"]
	return plugin.Execute(ctx, req, core.RequestOptions{}, cancel.New(), nil)
}

func interpolateHeaders(ec *core.ExecutionContext, headers map[string]string) map[string]string {
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		out[k] = ec.ReplaceIn(v)
	}
	return out
}

func interpolateBody(ec *core.ExecutionContext, body any) any {
	switch v := body.(type) {
	case string:
		return ec.ReplaceIn(v)
	default:
		return v
	}
}
