package interpolate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVariableSet_SetAndGet(t *testing.T) {
	vs := NewVariableSet()
	vs.Set("token", "abc123")

	v, ok := vs.Get("token")
	assert.True(t, ok)
	assert.Equal(t, "abc123", v)
}

func TestVariableSet_GetMissingReturnsFalse(t *testing.T) {
	vs := NewVariableSet()
	v, ok := vs.Get("missing")
	assert.False(t, ok)
	assert.Empty(t, v)
}

func TestVariableSet_Has(t *testing.T) {
	vs := NewVariableSet()
	assert.False(t, vs.Has("x"))
	vs.Set("x", "1")
	assert.True(t, vs.Has("x"))
}

func TestVariableSet_Delete(t *testing.T) {
	vs := NewVariableSet()
	vs.Set("x", "1")
	vs.Delete("x")
	assert.False(t, vs.Has("x"))
}

func TestVariableSet_AllReturnsDefensiveCopy(t *testing.T) {
	vs := NewVariableSet()
	vs.Set("a", "1")

	snapshot := vs.All()
	snapshot["a"] = "mutated"
	snapshot["b"] = "new"

	v, _ := vs.Get("a")
	assert.Equal(t, "1", v)
	assert.False(t, vs.Has("b"))
}

func TestVariableSet_Clear(t *testing.T) {
	vs := NewVariableSet()
	vs.Set("a", "1")
	vs.Set("b", "2")
	vs.Clear()
	assert.Empty(t, vs.All())
}
