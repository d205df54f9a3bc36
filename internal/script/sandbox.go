package script

import (
	"context"
	"fmt"

	"github.com/dop251/goja"

	"github.com/questapi/quest/internal/core"
)

// Sandbox executes scripts against a single, reused goja.Runtime (mirroring
// the teacher's SandboxedScope, which refreshes its currier object before
// every Execute rather than paying for a fresh runtime per script). A
// Sandbox is not safe for concurrent use: the engine's Runner shares one
// Sandbox across every script of a run and serializes calls with its
// script mutex.
type Sandbox struct {
	engine           *Engine
	builder          *Builder
	harnessInstalled bool

	currentTests []core.TestResult
	currentSink  AssertionSink
	abortCheck   func() bool
}

// NewSandbox creates a sandbox with the given request sender wired for
// quest.sendRequest.
func NewSandbox(sendRequest SendRequestFunc) *Sandbox {
	return &Sandbox{
		engine:  NewEngine(),
		builder: &Builder{SendRequest: sendRequest},
	}
}

func (sb *Sandbox) installHarness() {
	if sb.harnessInstalled {
		return
	}
	rt := sb.engine.Runtime()
	rt.Set("__quest_record_test", func(name string, passed, skipped bool, errMsg string) {
		tr := core.TestResult{Name: name, Passed: passed, Skipped: skipped, Error: errMsg}
		sb.currentTests = append(sb.currentTests, tr)
		if sb.currentSink != nil {
			sb.currentSink(tr)
		}
	})
	rt.Set("__quest_is_aborted", func() bool {
		if sb.abortCheck == nil {
			return false
		}
		return sb.abortCheck()
	})
	if _, err := sb.engine.RunString(context.Background(), assertionHarness); err != nil {
		panic(fmt.Sprintf("script: failed to install assertion harness: %v", err))
	}
	sb.harnessInstalled = true
}

// Run executes source as a script of the given type against ec, returning
// the script's Result. sink receives each completed test in real time, and
// abortCheck (if non-nil) reports whether the run-wide abort signal is set
// at the moment quest.test() is invoked.
func (sb *Sandbox) Run(ctx context.Context, ec *core.ExecutionContext, st ScriptType, source string, sink AssertionSink, abortCheck func() bool) (*Result, error) {
	sb.currentTests = nil
	sb.currentSink = sink
	sb.abortCheck = abortCheck
	sb.installHarness()

	rt := sb.engine.Runtime()
	quest := sb.builder.Build(ctx, ec, st, rt)
	sb.engine.Set("quest", quest)

	questVal := rt.Get("quest")
	installFn, ok := goja.AssertFunction(rt.Get("__quest_install_test"))
	if !ok {
		return nil, fmt.Errorf("script: assertion harness not installed correctly")
	}
	if _, err := installFn(goja.Undefined(), questVal); err != nil {
		return nil, fmt.Errorf("script: failed to install quest.test: %w", err)
	}

	result := &Result{Success: true}
	_, err := sb.engine.RunString(ctx, source)
	result.ConsoleOutput = sb.engine.ConsoleOutput()
	result.Tests = sb.currentTests
	if err != nil {
		result.Success = false
		result.Error = err.Error()
	}
	return result, nil
}

// EvalCondition runs expr (an Item's `condition` field, spec §3) as a bare
// expression and reports its truthiness. It shares the quest facade a
// request-pre script sees but installs no assertion harness: an Item
// condition cannot call quest.test/skip/fail.
func (sb *Sandbox) EvalCondition(ctx context.Context, ec *core.ExecutionContext, source string) (bool, error) {
	rt := sb.engine.Runtime()
	quest := sb.builder.Build(ctx, ec, Condition, rt)
	sb.engine.Set("quest", quest)

	v, err := sb.engine.RunString(ctx, source)
	if err != nil {
		return false, err
	}
	if v == nil {
		return false, nil
	}
	return v.ToBoolean(), nil
}
