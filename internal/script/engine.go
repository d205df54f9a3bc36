package script

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/dop251/goja"
)

// consoleLevelPrefix maps a console method to the prefix spec §4.2 requires
// ("error/warn/info are prefixed"; log is not).
var consoleLevelPrefix = map[string]string{
	"error": "[ERROR] ",
	"warn":  "[WARN] ",
	"info":  "[INFO] ",
}

// Engine wraps one goja.Runtime: console capture, interrupt-on-cancel, and
// the handful of dangerous globals the teacher strips from every sandbox.
type Engine struct {
	mu      sync.Mutex
	runtime *goja.Runtime
	console []string
}

// NewEngine creates a fresh runtime with console capture wired and the host
// globals removed.
func NewEngine() *Engine {
	e := &Engine{runtime: goja.New()}
	e.runtime.SetFieldNameMapper(goja.TagFieldNameMapper("json", true))
	e.stripHostGlobals()
	e.setupConsole()
	return e
}

func (e *Engine) stripHostGlobals() {
	for _, name := range []string{"require", "process", "global", "__dirname", "__filename", "module", "exports", "Buffer"} {
		e.runtime.Set(name, goja.Undefined())
	}
}

func (e *Engine) setupConsole() {
	console := e.runtime.NewObject()
	register := func(level string) {
		console.Set(level, func(call goja.FunctionCall) goja.Value {
			e.mu.Lock()
			e.console = append(e.console, consoleLevelPrefix[level]+formatConsoleArgs(call.Arguments))
			e.mu.Unlock()
			return goja.Undefined()
		})
	}
	register("log")
	register("info")
	register("warn")
	register("error")
	e.runtime.Set("console", console)
}

// formatConsoleArgs stringifies console.* arguments: strings pass through,
// everything else is JSON-stringified, joined with single spaces.
func formatConsoleArgs(args []goja.Value) string {
	parts := make([]string, len(args))
	for i, arg := range args {
		exported := arg.Export()
		if s, ok := exported.(string); ok {
			parts[i] = s
			continue
		}
		b, err := json.Marshal(exported)
		if err != nil {
			parts[i] = fmt.Sprintf("%v", exported)
			continue
		}
		parts[i] = string(b)
	}
	return strings.Join(parts, " ")
}

// ConsoleOutput drains and returns every captured console line, in call
// order.
func (e *Engine) ConsoleOutput() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := e.console
	e.console = nil
	return out
}

// Runtime exposes the underlying goja runtime for object registration.
func (e *Engine) Runtime() *goja.Runtime {
	return e.runtime
}

// Set registers a global value (object, function, or plain value).
func (e *Engine) Set(name string, value any) {
	e.runtime.Set(name, value)
}

// RunString compiles and executes script, honoring ctx cancellation via
// runtime interruption.
func (e *Engine) RunString(ctx context.Context, script string) (goja.Value, error) {
	e.runtime.ClearInterrupt()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			e.runtime.Interrupt("context cancelled")
		case <-done:
		}
	}()

	program, err := goja.Compile("script", script, false)
	if err != nil {
		return nil, fmt.Errorf("syntax error: %w", err)
	}
	v, err := e.runtime.RunProgram(program)
	if err != nil {
		var interrupted *goja.InterruptedError
		if ie, ok := err.(*goja.InterruptedError); ok {
			interrupted = ie
			return nil, fmt.Errorf("execution interrupted: %v", interrupted.Value())
		}
		return nil, err
	}
	return v, nil
}
