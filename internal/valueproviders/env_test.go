package valueproviders

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnv_ResolveFoundVariable(t *testing.T) {
	t.Setenv("QUEST_TEST_TOKEN", "super-secret")

	e := NewEnv()
	v, found, err := e.Resolve(context.Background(), "QUEST_TEST_TOKEN", "api_token")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "super-secret", v)
}

func TestEnv_ResolveMissingVariableReturnsNotFound(t *testing.T) {
	os.Unsetenv("QUEST_TEST_MISSING_VAR")

	e := NewEnv()
	v, found, err := e.Resolve(context.Background(), "QUEST_TEST_MISSING_VAR", "whatever")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, v)
}

func TestEnv_ProviderIdentity(t *testing.T) {
	e := NewEnv()
	assert.Equal(t, "env", e.Provider())
	assert.NotEmpty(t, e.Name())
}
