// Package authplugins implements the built-in core.AuthPlugin
// implementations (spec §4.6), one plugin type per auth type, grounded on the
// teacher's AuthConfig.ApplyToHeaders switch (internal/core/auth.go) split
// out into the plugin shape SPEC_FULL.md's Registry expects.
package authplugins

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/questapi/quest/internal/core"
)

func paramString(params map[string]any, key string) string {
	if params == nil {
		return ""
	}
	if v, ok := params[key].(string); ok {
		return v
	}
	return ""
}

// Basic implements HTTP Basic authentication.
type Basic struct{ protocols []string }

// NewBasic creates a basic-auth plugin usable on the given protocols.
func NewBasic(protocols ...string) *Basic {
	if len(protocols) == 0 {
		protocols = []string{"http"}
	}
	return &Basic{protocols: protocols}
}

func (p *Basic) Name() string       { return "basic-auth" }
func (p *Basic) Version() string    { return "1.0.0" }
func (p *Basic) AuthTypes() []string { return []string{"basic"} }
func (p *Basic) Protocols() []string { return p.protocols }

func (p *Basic) DataSchema() map[string]string {
	return map[string]string{"username": "string", "password": "string"}
}

func (p *Basic) Validate(auth *core.AuthConfig, ec *core.ExecutionContext) core.AuthValidation {
	if paramString(auth.Params, "username") == "" {
		return core.AuthValidation{Valid: false, Errors: []core.ValidationError{{Message: "basic auth requires a username"}}}
	}
	return core.AuthValidation{Valid: true}
}

func (p *Basic) Apply(ctx context.Context, req *core.RequestInstance, auth *core.AuthConfig, ec *core.ExecutionContext) (*core.RequestInstance, error) {
	if _, exists := req.HeaderGet("Authorization"); exists {
		return req, nil
	}
	username := paramString(auth.Params, "username")
	password := paramString(auth.Params, "password")
	creds := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
	req.HeaderSet("Authorization", "Basic "+creds)
	return req, nil
}

// Bearer implements bearer token authentication.
type Bearer struct{ protocols []string }

// NewBearer creates a bearer-token auth plugin usable on the given protocols.
func NewBearer(protocols ...string) *Bearer {
	if len(protocols) == 0 {
		protocols = []string{"http"}
	}
	return &Bearer{protocols: protocols}
}

func (p *Bearer) Name() string       { return "bearer-auth" }
func (p *Bearer) Version() string    { return "1.0.0" }
func (p *Bearer) AuthTypes() []string { return []string{"bearer"} }
func (p *Bearer) Protocols() []string { return p.protocols }

func (p *Bearer) DataSchema() map[string]string {
	return map[string]string{"token": "string"}
}

func (p *Bearer) Validate(auth *core.AuthConfig, ec *core.ExecutionContext) core.AuthValidation {
	if paramString(auth.Params, "token") == "" {
		return core.AuthValidation{Valid: false, Errors: []core.ValidationError{{Message: "bearer auth requires a token"}}}
	}
	return core.AuthValidation{Valid: true}
}

func (p *Bearer) Apply(ctx context.Context, req *core.RequestInstance, auth *core.AuthConfig, ec *core.ExecutionContext) (*core.RequestInstance, error) {
	if _, exists := req.HeaderGet("Authorization"); exists {
		return req, nil
	}
	req.HeaderSet("Authorization", "Bearer "+paramString(auth.Params, "token"))
	return req, nil
}

// APIKey implements an API key sent as a header or a query parameter.
type APIKey struct{ protocols []string }

// NewAPIKey creates an API-key auth plugin usable on the given protocols.
func NewAPIKey(protocols ...string) *APIKey {
	if len(protocols) == 0 {
		protocols = []string{"http"}
	}
	return &APIKey{protocols: protocols}
}

func (p *APIKey) Name() string       { return "apikey-auth" }
func (p *APIKey) Version() string    { return "1.0.0" }
func (p *APIKey) AuthTypes() []string { return []string{"apikey"} }
func (p *APIKey) Protocols() []string { return p.protocols }

func (p *APIKey) DataSchema() map[string]string {
	return map[string]string{"key": "string", "value": "string", "in": "header|query"}
}

func (p *APIKey) Validate(auth *core.AuthConfig, ec *core.ExecutionContext) core.AuthValidation {
	var errs []core.ValidationError
	if paramString(auth.Params, "key") == "" {
		errs = append(errs, core.ValidationError{Message: "apikey auth requires a key name"})
	}
	if paramString(auth.Params, "value") == "" {
		errs = append(errs, core.ValidationError{Message: "apikey auth requires a key value"})
	}
	return core.AuthValidation{Valid: len(errs) == 0, Errors: errs}
}

func (p *APIKey) Apply(ctx context.Context, req *core.RequestInstance, auth *core.AuthConfig, ec *core.ExecutionContext) (*core.RequestInstance, error) {
	key := paramString(auth.Params, "key")
	value := paramString(auth.Params, "value")
	in := paramString(auth.Params, "in")
	if in == "query" {
		if req.URL == "" {
			return nil, fmt.Errorf("apikey-auth: request has no URL to append a query parameter to")
		}
		req.URL = appendQueryParam(req.URL, key, value)
		return req, nil
	}
	if _, exists := req.HeaderGet(key); !exists {
		req.HeaderSet(key, value)
	}
	return req, nil
}

func appendQueryParam(rawURL, key, value string) string {
	sep := "?"
	for i := 0; i < len(rawURL); i++ {
		if rawURL[i] == '?' {
			sep = "&"
			break
		}
	}
	return rawURL + sep + key + "=" + value
}
