// Package websocket implements the streaming WebSocket protocol plugin
// (spec §4.2 quest.expectMessages / §4.6), generalizing the teacher's
// connection-oriented Client/Connection (internal/protocol/websocket/
// client.go, connection.go) into a single-shot core.ProtocolPlugin.Execute
// call: connect, optionally send the request body as the first frame, then
// collect inbound frames -- each driving a plugin-event script via the
// EventSink -- until the expected count is reached, the peer closes, or the
// request's deadline expires.
package websocket

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	gorilla "github.com/gorilla/websocket"

	"github.com/questapi/quest/internal/cancel"
	"github.com/questapi/quest/internal/core"
)

// EventMessage is the name of the only event this protocol advertises: one
// per inbound frame.
const EventMessage = "message"

// Config configures dial behavior.
type Config struct {
	HandshakeTimeout time.Duration
	TLSInsecure      bool
}

// Plugin implements core.ProtocolPlugin for WebSocket requests.
type Plugin struct {
	config Config
}

// Option configures a Plugin at construction.
type Option func(*Plugin)

// WithHandshakeTimeout overrides the dial handshake timeout.
func WithHandshakeTimeout(d time.Duration) Option {
	return func(p *Plugin) { p.config.HandshakeTimeout = d }
}

// WithInsecureSkipVerify disables TLS certificate verification for wss://.
func WithInsecureSkipVerify() Option {
	return func(p *Plugin) { p.config.TLSInsecure = true }
}

// New creates a WebSocket protocol plugin.
func New(opts ...Option) *Plugin {
	p := &Plugin{config: Config{HandshakeTimeout: 30 * time.Second}}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Plugin) Name() string     { return "websocket" }
func (p *Plugin) Version() string  { return "1.0.0" }
func (p *Plugin) Protocol() string { return "websocket" }

func (p *Plugin) AuthTypes() []string  { return []string{"bearer", "apikey"} }
func (p *Plugin) StrictAuthList() bool { return false }

func (p *Plugin) Events() []core.ProtocolEvent {
	return []core.ProtocolEvent{{Name: EventMessage, CanHaveTests: true}}
}

func (p *Plugin) ProtocolAPIProvider(ctx *core.ExecutionContext) map[string]any { return nil }

func (p *Plugin) Validate(req *core.RequestInstance, opts core.RequestOptions) error {
	if req.URL == "" {
		return fmt.Errorf("websocket: request %q has no URL", req.Name)
	}
	return nil
}

// Execute connects, optionally sends req.Body as the opening frame, then
// reads frames until quest.expectMessages' count is reached (or, if unset,
// a single frame), invoking sink for each with the message and its
// associated plugin-event script pulled from req.Raw["events"][eventName].
func (p *Plugin) Execute(ctx context.Context, req *core.RequestInstance, opts core.RequestOptions, abort *cancel.Token, sink core.EventSink) (*core.Response, error) {
	header := http.Header{}
	for k, v := range req.Headers {
		header.Set(k, v)
	}

	dialer := gorilla.Dialer{HandshakeTimeout: p.config.HandshakeTimeout}
	if p.config.TLSInsecure {
		dialer.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	conn, resp, err := dialer.DialContext(ctx, req.URL, header)
	if err != nil {
		return nil, fmt.Errorf("websocket: dial failed: %w", err)
	}
	defer conn.Close()
	if resp != nil {
		defer resp.Body.Close()
	}

	if req.Body != nil {
		payload, encErr := encodeFrame(req.Body)
		if encErr != nil {
			return nil, fmt.Errorf("websocket: failed to encode opening frame: %w", encErr)
		}
		if err := conn.WriteMessage(gorilla.TextMessage, payload); err != nil {
			return nil, fmt.Errorf("websocket: failed to send opening frame: %w", err)
		}
	}

	expected := 1
	if opts.ExpectedMessages != nil && *opts.ExpectedMessages > 0 {
		expected = *opts.ExpectedMessages
	}
	events, _ := req.Raw["events"].(map[string]string)
	eventScript := events[EventMessage]

	var received []json.RawMessage

	done := make(chan struct{})
	go func() {
		<-ctx.Done()
		conn.Close()
		close(done)
	}()

	for i := 0; i < expected; i++ {
		if abort.Aborted() {
			return nil, fmt.Errorf("websocket: aborted: %s", abort.Reason())
		}
		_, data, readErr := conn.ReadMessage()
		if readErr != nil {
			if i == 0 {
				return nil, fmt.Errorf("websocket: read failed: %w", readErr)
			}
			break
		}
		received = append(received, json.RawMessage(data))
		if sink != nil {
			sink(EventMessage, map[string]any{
				"script":  eventScript,
				"message": string(data),
				"index":   i,
			})
		}
	}

	body, _ := json.Marshal(received)
	return &core.Response{
		Status:     101,
		StatusText: "Switching Protocols",
		Headers:    map[string][]string{},
		Body:       body,
	}, nil
}

func encodeFrame(body any) ([]byte, error) {
	if s, ok := body.(string); ok {
		return []byte(s), nil
	}
	return json.Marshal(body)
}
