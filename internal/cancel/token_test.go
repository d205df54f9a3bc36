package cancel

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToken_NewIsNotAborted(t *testing.T) {
	tok := New()
	assert.False(t, tok.Aborted())
	assert.Empty(t, tok.Reason())
}

func TestToken_AbortSetsReason(t *testing.T) {
	tok := New()
	tok.Abort("bail: first test failure")
	assert.True(t, tok.Aborted())
	assert.Equal(t, "bail: first test failure", tok.Reason())
}

func TestToken_AbortIsIdempotentKeepsFirstReason(t *testing.T) {
	tok := New()
	tok.Abort("first")
	tok.Abort("second")
	assert.Equal(t, "first", tok.Reason())
}

func TestToken_ChildAbortsWithParent(t *testing.T) {
	parent := New()
	child := parent.Child()
	require.False(t, child.Aborted())

	parent.Abort("external abort")
	assert.True(t, child.Aborted())
	assert.Equal(t, "external abort", child.Reason())
}

func TestToken_ChildCreatedAfterParentAbortedIsAbortedImmediately(t *testing.T) {
	parent := New()
	parent.Abort("already gone")

	child := parent.Child()
	assert.True(t, child.Aborted())
	assert.Equal(t, "already gone", child.Reason())
}

func TestToken_ChildAbortDoesNotAffectParent(t *testing.T) {
	parent := New()
	child := parent.Child()

	child.Abort("per-request timeout")
	assert.True(t, child.Aborted())
	assert.False(t, parent.Aborted())
}

func TestToken_GrandchildAbortsWithRoot(t *testing.T) {
	root := New()
	mid := root.Child()
	leaf := mid.Child()

	root.Abort("root abort")
	assert.True(t, mid.Aborted())
	assert.True(t, leaf.Aborted())
}

func TestToken_ConcurrentAbortIsSafe(t *testing.T) {
	tok := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			tok.Abort("race")
		}(i)
	}
	wg.Wait()
	assert.True(t, tok.Aborted())
	assert.Equal(t, "race", tok.Reason())
}
