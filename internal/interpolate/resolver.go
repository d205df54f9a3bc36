package interpolate

// Value is the result of a layered lookup: either a resolved string or the
// null sentinel (IsNull() == true), which is distinct from an empty string.
type Value struct {
	ok string
	present bool
}

// Found wraps a resolved value.
func Found(s string) Value { return Value{ok: s, present: true} }

// Null is the sentinel returned for a miss at every layer.
var Null = Value{}

// IsNull reports whether the lookup missed at every layer.
func (v Value) IsNull() bool { return !v.present }

// String returns the resolved value, or "" if null.
func (v Value) String() string { return v.ok }

// Resolver implements spec §4.1's fixed precedence:
// iteration data row > scope chain (top to bottom) > collection variables >
// environment variables > global variables.
type Resolver struct {
	Iteration  map[string]string
	Scope      *ScopeChain
	Collection *VariableSet
	Environment *VariableSet
	Global     *VariableSet
}

// Resolve performs the layered lookup for a single variable name.
func (r *Resolver) Resolve(name string) Value {
	if r.Iteration != nil {
		if v, ok := r.Iteration[name]; ok {
			return Found(v)
		}
	}
	if r.Scope != nil {
		if v, ok := r.Scope.Get(name); ok {
			return Found(v)
		}
	}
	if r.Collection != nil {
		if v, ok := r.Collection.Get(name); ok {
			return Found(v)
		}
	}
	if r.Environment != nil {
		if v, ok := r.Environment.Get(name); ok {
			return Found(v)
		}
	}
	if r.Global != nil {
		if v, ok := r.Global.Get(name); ok {
			return Found(v)
		}
	}
	return Null
}

// ReplaceIn applies the same "replace every non-nested {{ident}} once"
// template contract as Engine.Interpolate, but resolves each identifier
// through the full layered precedence instead of a flat map.
func (r *Resolver) ReplaceIn(template string) string {
	result, _ := NewEngine().interpolateWithResolver(template, r)
	return result
}

// interpolateWithResolver is a small bridge so Engine's regex/whitespace
// handling is reused without duplicating the matching logic.
func (e *Engine) interpolateWithResolver(template string, r *Resolver) (string, error) {
	if len(template) == 0 {
		return template, nil
	}
	return variablePattern.ReplaceAllStringFunc(template, func(match string) string {
		sub := variablePattern.FindStringSubmatch(match)
		if len(sub) < 2 {
			return match
		}
		name := sub[1]
		if builtin, ok := e.builtins[name]; ok {
			return builtin()
		}
		v := r.Resolve(name)
		if v.IsNull() {
			return match
		}
		return v.String()
	}), nil
}
