// Package http implements the HTTP protocol plugin (spec §4.6/DOMAIN STACK),
// generalizing the teacher's protocol/http.Client (internal/protocol/http/
// client.go) from a hand-rolled Requester into a core.ProtocolPlugin driven
// by the engine's Runner.
package http

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/questapi/quest/internal/cancel"
	"github.com/questapi/quest/internal/core"
)

// TLSConfig holds optional TLS/certificate configuration.
type TLSConfig struct {
	CertFile           string
	KeyFile            string
	CAFile             string
	InsecureSkipVerify bool
}

// Config configures the Plugin.
type Config struct {
	Timeout        time.Duration
	FollowRedirect bool
	ProxyURL       string
	TLS            *TLSConfig
}

// Plugin implements core.ProtocolPlugin for plain HTTP/HTTPS requests.
type Plugin struct {
	httpClient *http.Client
	config     Config
}

// Option configures a Plugin at construction.
type Option func(*Plugin)

// WithTimeout sets the default client-wide request timeout.
func WithTimeout(d time.Duration) Option {
	return func(p *Plugin) {
		p.config.Timeout = d
		p.httpClient.Timeout = d
	}
}

// WithProxy routes every request through proxyURL (http://, https://, socks5://).
func WithProxy(proxyURL string) Option {
	return func(p *Plugin) { p.config.ProxyURL = proxyURL }
}

// WithClientCert enables mTLS with the given PEM certificate/key pair.
func WithClientCert(certFile, keyFile string) Option {
	return func(p *Plugin) {
		if p.config.TLS == nil {
			p.config.TLS = &TLSConfig{}
		}
		p.config.TLS.CertFile = certFile
		p.config.TLS.KeyFile = keyFile
	}
}

// WithCACert trusts an additional CA certificate for server verification.
func WithCACert(caFile string) Option {
	return func(p *Plugin) {
		if p.config.TLS == nil {
			p.config.TLS = &TLSConfig{}
		}
		p.config.TLS.CAFile = caFile
	}
}

// WithInsecureSkipVerify disables server certificate verification.
func WithInsecureSkipVerify() Option {
	return func(p *Plugin) {
		if p.config.TLS == nil {
			p.config.TLS = &TLSConfig{}
		}
		p.config.TLS.InsecureSkipVerify = true
	}
}

// New creates an HTTP protocol plugin.
func New(opts ...Option) *Plugin {
	p := &Plugin{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		config:     Config{Timeout: 30 * time.Second, FollowRedirect: true},
	}
	for _, opt := range opts {
		opt(p)
	}
	p.configureTransport()
	return p
}

func (p *Plugin) configureTransport() {
	if p.config.ProxyURL == "" && p.config.TLS == nil {
		return
	}
	transport := &http.Transport{}
	if p.config.ProxyURL != "" {
		if proxyURL, err := url.Parse(p.config.ProxyURL); err == nil {
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}
	if p.config.TLS != nil {
		if tlsConfig := p.buildTLSConfig(); tlsConfig != nil {
			transport.TLSClientConfig = tlsConfig
		}
	}
	p.httpClient.Transport = transport
}

func (p *Plugin) buildTLSConfig() *tls.Config {
	cfg := &tls.Config{}
	if p.config.TLS.InsecureSkipVerify {
		cfg.InsecureSkipVerify = true
	}
	if p.config.TLS.CertFile != "" && p.config.TLS.KeyFile != "" {
		if cert, err := tls.LoadX509KeyPair(p.config.TLS.CertFile, p.config.TLS.KeyFile); err == nil {
			cfg.Certificates = []tls.Certificate{cert}
		}
	}
	if p.config.TLS.CAFile != "" {
		if caCert, err := os.ReadFile(p.config.TLS.CAFile); err == nil {
			pool := x509.NewCertPool()
			if pool.AppendCertsFromPEM(caCert) {
				cfg.RootCAs = pool
			}
		}
	}
	return cfg
}

func (p *Plugin) Name() string    { return "http" }
func (p *Plugin) Version() string { return "1.0.0" }
func (p *Plugin) Protocol() string { return "http" }

func (p *Plugin) AuthTypes() []string  { return []string{"basic", "bearer", "apikey"} }
func (p *Plugin) StrictAuthList() bool { return false }

// Events: plain HTTP is single-shot, there is nothing to stream.
func (p *Plugin) Events() []core.ProtocolEvent { return nil }

func (p *Plugin) ProtocolAPIProvider(ctx *core.ExecutionContext) map[string]any { return nil }

// Validate performs static checks before any request executes: the URL
// must be non-empty and parse as a request URI. The method is not checked
// (Execute treats an empty method as GET).
func (p *Plugin) Validate(req *core.RequestInstance, opts core.RequestOptions) error {
	if req.URL == "" {
		return fmt.Errorf("http: request %q has no URL", req.Name)
	}
	if _, err := url.ParseRequestURI(req.URL); err != nil {
		return fmt.Errorf("http: request %q has an invalid URL: %w", req.Name, err)
	}
	return nil
}

// Execute performs one HTTP round trip. sink is unused: HTTP carries no
// mid-request plugin events.
func (p *Plugin) Execute(ctx context.Context, req *core.RequestInstance, opts core.RequestOptions, abort *cancel.Token, sink core.EventSink) (*core.Response, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	var bodyReader io.Reader
	if req.Body != nil {
		b, err := encodeBody(req.Body)
		if err != nil {
			return nil, fmt.Errorf("http: failed to encode request body: %w", err)
		}
		bodyReader = bytes.NewReader(b)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("http: failed to build request: %w", err)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	httpResp, err := p.httpClient.Do(httpReq)
	if err != nil {
		if abort.Aborted() {
			return nil, fmt.Errorf("http: request aborted: %s", abort.Reason())
		}
		return nil, fmt.Errorf("http: request failed: %w", err)
	}
	defer httpResp.Body.Close()

	bodyBytes, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("http: failed to read response body: %w", err)
	}

	return &core.Response{
		Status:     httpResp.StatusCode,
		StatusText: httpResp.Status,
		Headers:    map[string][]string(httpResp.Header),
		Body:       bodyBytes,
	}, nil
}

// encodeBody turns a script-supplied body value into wire bytes: a string
// passes through verbatim, anything else is JSON-encoded (spec §4.3: "body
// may be a string or a JSON-serializable value").
func encodeBody(body any) ([]byte, error) {
	if s, ok := body.(string); ok {
		return []byte(s), nil
	}
	return json.Marshal(body)
}
