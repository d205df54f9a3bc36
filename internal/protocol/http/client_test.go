package http

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/questapi/quest/internal/cancel"
	"github.com/questapi/quest/internal/core"
)

func TestPlugin_ExecuteGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ping", r.URL.Path)
		w.Header().Set("X-Custom", "yes")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	p := New()
	req := &core.RequestInstance{Method: "GET", URL: srv.URL + "/ping"}
	resp, err := p.Execute(context.Background(), req, core.RequestOptions{}, cancel.New(), nil)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.Status)
	assert.Equal(t, `{"ok":true}`, resp.Text())
	v, ok := resp.HeaderGet("X-Custom")
	assert.True(t, ok)
	assert.Equal(t, "yes", v)
}

func TestPlugin_ExecutePostWithJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"name":"alice"}`, string(body))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	p := New()
	req := &core.RequestInstance{
		Method: "POST",
		URL:    srv.URL + "/users",
		Body:   map[string]any{"name": "alice"},
	}
	resp, err := p.Execute(context.Background(), req, core.RequestOptions{}, cancel.New(), nil)
	require.NoError(t, err)
	assert.Equal(t, 201, resp.Status)
}

func TestPlugin_ExecuteDefaultsToGETMethod(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "GET", r.Method)
	}))
	defer srv.Close()

	p := New()
	req := &core.RequestInstance{URL: srv.URL}
	_, err := p.Execute(context.Background(), req, core.RequestOptions{}, cancel.New(), nil)
	require.NoError(t, err)
}

func TestPlugin_ExecuteSendsHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer abc", r.Header.Get("Authorization"))
	}))
	defer srv.Close()

	p := New()
	req := &core.RequestInstance{
		Method:  "GET",
		URL:     srv.URL,
		Headers: map[string]string{"Authorization": "Bearer abc"},
	}
	_, err := p.Execute(context.Background(), req, core.RequestOptions{}, cancel.New(), nil)
	require.NoError(t, err)
}

func TestPlugin_Validate(t *testing.T) {
	p := New()

	assert.Error(t, p.Validate(&core.RequestInstance{Name: "no-url"}, core.RequestOptions{}))
	assert.Error(t, p.Validate(&core.RequestInstance{Name: "bad-url", URL: "://nope"}, core.RequestOptions{}))
	assert.NoError(t, p.Validate(&core.RequestInstance{Name: "ok", URL: "https://example.com"}, core.RequestOptions{}))
}

func TestPlugin_Identity(t *testing.T) {
	p := New()
	assert.Equal(t, "http", p.Protocol())
	assert.ElementsMatch(t, []string{"basic", "bearer", "apikey"}, p.AuthTypes())
	assert.False(t, p.StrictAuthList())
	assert.Nil(t, p.Events())
}
