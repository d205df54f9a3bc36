package interpolate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_InterpolateReplacesKnownVariable(t *testing.T) {
	e := NewEngine()
	e.SetVariables(map[string]string{"name": "world"})

	out, err := e.Interpolate("hello {{name}}")
	require.NoError(t, err)
	assert.Equal(t, "hello world", out)
}

func TestEngine_InterpolateLeavesUnknownPlaceholderLiteral(t *testing.T) {
	e := NewEngine()
	out, err := e.Interpolate("hello {{missing}}")
	require.NoError(t, err)
	assert.Equal(t, "hello {{missing}}", out)
}

func TestEngine_InterpolateWhitespaceOnlyPassesThroughUnchanged(t *testing.T) {
	e := NewEngine()
	out, err := e.Interpolate("   ")
	require.NoError(t, err)
	assert.Equal(t, "   ", out)
}

func TestEngine_InterpolateToleratesSpacesInsideBraces(t *testing.T) {
	e := NewEngine()
	e.SetVariables(map[string]string{"id": "42"})
	out, err := e.Interpolate("{{ id }}")
	require.NoError(t, err)
	assert.Equal(t, "42", out)
}

func TestEngine_InterpolateBuiltinUUID(t *testing.T) {
	e := NewEngine()
	out, err := e.Interpolate("{{$uuid}}")
	require.NoError(t, err)
	assert.Len(t, out, 36)
	assert.NotEqual(t, "{{$uuid}}", out)
}

func TestEngine_InterpolateBuiltinTimestamp(t *testing.T) {
	e := NewEngine()
	out, err := e.Interpolate("{{$timestamp}}")
	require.NoError(t, err)
	assert.NotEqual(t, "{{$timestamp}}", out)
	assert.NotEmpty(t, out)
}

func TestEngine_InterpolateDoesNotReInterpolateSubstitutedValue(t *testing.T) {
	e := NewEngine()
	e.SetVariables(map[string]string{"a": "{{b}}", "b": "final"})
	out, err := e.Interpolate("{{a}}")
	require.NoError(t, err)
	assert.Equal(t, "{{b}}", out)
}

func TestEngine_InterpolateMapPreservesKeys(t *testing.T) {
	e := NewEngine()
	e.SetVariables(map[string]string{"host": "example.com"})

	out, err := e.InterpolateMap(map[string]string{
		"Host":   "{{host}}",
		"Accept": "application/json",
	})
	require.NoError(t, err)
	assert.Equal(t, "example.com", out["Host"])
	assert.Equal(t, "application/json", out["Accept"])
}
