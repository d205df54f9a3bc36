// Package valueproviders holds built-in ValueProviderPlugin implementations
// (spec §4.6), following the same small-struct-per-capability shape as
// internal/authplugins.
package valueproviders

import (
	"context"
	"os"

	"github.com/questapi/quest/internal/core"
)

// Env resolves "env:VAR_NAME" variable definitions against the process
// environment, for collections that want secrets injected from outside the
// collection/environment files rather than checked in as literals.
type Env struct{}

// NewEnv creates the "env" value-provider plugin.
func NewEnv() *Env { return &Env{} }

func (e *Env) Name() string     { return "env-value-provider" }
func (e *Env) Provider() string { return "env" }

// Resolve ignores kind beyond using it as the OS environment variable name;
// it returns found=false rather than an error when the variable is unset,
// so the caller falls through to the next layer instead of failing the run.
func (e *Env) Resolve(ctx context.Context, kind string, key string) (string, bool, error) {
	v, ok := os.LookupEnv(kind)
	if !ok {
		return "", false, nil
	}
	return v, true, nil
}

var _ core.ValueProviderPlugin = (*Env)(nil)
