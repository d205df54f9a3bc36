package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResponse_HeaderGetCaseInsensitive(t *testing.T) {
	r := &Response{Headers: map[string][]string{"Content-Type": {"application/json"}}}

	v, ok := r.HeaderGet("content-type")
	assert.True(t, ok)
	assert.Equal(t, "application/json", v)
}

func TestResponse_HeaderGetMissing(t *testing.T) {
	r := &Response{Headers: map[string][]string{}}
	_, ok := r.HeaderGet("X-Missing")
	assert.False(t, ok)
}

func TestResponse_HeaderGetOnNilResponse(t *testing.T) {
	var r *Response
	_, ok := r.HeaderGet("anything")
	assert.False(t, ok)
}

func TestResponse_HeaderAllReturnsEveryValue(t *testing.T) {
	r := &Response{Headers: map[string][]string{"Set-Cookie": {"a=1", "b=2"}}}
	assert.Equal(t, []string{"a=1", "b=2"}, r.HeaderAll("set-cookie"))
}

func TestResponse_Text(t *testing.T) {
	r := &Response{Body: []byte("hello")}
	assert.Equal(t, "hello", r.Text())
}

func TestResponse_JSONValid(t *testing.T) {
	r := &Response{Body: []byte(`{"ok":true}`)}
	v := r.JSON()
	m, ok := v.(map[string]any)
	assert.True(t, ok)
	assert.Equal(t, true, m["ok"])
}

func TestResponse_JSONInvalidReturnsNil(t *testing.T) {
	r := &Response{Body: []byte("not json")}
	assert.Nil(t, r.JSON())
}

func TestResponse_JSONEmptyBodyReturnsNil(t *testing.T) {
	r := &Response{}
	assert.Nil(t, r.JSON())
}
