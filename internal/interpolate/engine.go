// Package interpolate implements the Value Resolver and Scope Chain
// (spec §4.1): template interpolation, precedence-ordered variable
// resolution, and the mutable scope-frame stack threaded through request
// execution.
package interpolate

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// BuiltinFunc generates a dynamic value (e.g. {{$uuid}}).
type BuiltinFunc func() string

// variablePattern matches {{ident}} or {{ ident }}; ident is not itself
// scanned for nested {{...}}, so interpolation happens once per occurrence.
var variablePattern = regexp.MustCompile(`\{\{\s*([a-zA-Z_$][a-zA-Z0-9_\-$]*)\s*\}\}`)

// Engine resolves {{name}} placeholders against a flat variable map plus a
// fixed set of dynamic builtins.
type Engine struct {
	mu        sync.RWMutex
	variables map[string]string
	builtins  map[string]BuiltinFunc
}

// NewEngine creates an interpolation engine with the standard builtins.
func NewEngine() *Engine {
	e := &Engine{
		variables: make(map[string]string),
		builtins:  make(map[string]BuiltinFunc),
	}
	e.registerDefaultBuiltins()
	return e
}

func (e *Engine) registerDefaultBuiltins() {
	e.builtins["$uuid"] = func() string { return uuid.New().String() }
	e.builtins["$timestamp"] = func() string { return fmt.Sprintf("%d", time.Now().Unix()) }
	e.builtins["$isoTimestamp"] = func() string { return time.Now().Format(time.RFC3339) }
	e.builtins["$randomInt"] = func() string { return fmt.Sprintf("%d", time.Now().UnixNano()%10000) }
}

// SetVariables replaces the engine's flat variable map.
func (e *Engine) SetVariables(vars map[string]string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.variables = make(map[string]string, len(vars))
	for k, v := range vars {
		e.variables[k] = v
	}
}

// Interpolate replaces every non-nested {{ident}} occurrence in the
// template with its resolved value. Unresolved placeholders are left
// literal; a whitespace-only template is returned unchanged.
func (e *Engine) Interpolate(template string) (string, error) {
	if strings.TrimSpace(template) == "" {
		return template, nil
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	result := variablePattern.ReplaceAllStringFunc(template, func(match string) string {
		sub := variablePattern.FindStringSubmatch(match)
		if len(sub) < 2 {
			return match
		}
		name := sub[1]

		if builtin, ok := e.builtins[name]; ok {
			return builtin()
		}
		if v, ok := e.variables[name]; ok {
			return v
		}
		return match
	})

	return result, nil
}

// InterpolateMap interpolates every value in a string map, preserving keys.
func (e *Engine) InterpolateMap(input map[string]string) (map[string]string, error) {
	result := make(map[string]string, len(input))
	for k, v := range input {
		interpolated, err := e.Interpolate(v)
		if err != nil {
			return nil, err
		}
		result[k] = interpolated
	}
	return result, nil
}
