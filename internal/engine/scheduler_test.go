package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/questapi/quest/internal/core"
)

func TestScheduler_RunsEveryNodeInDependencyOrder(t *testing.T) {
	g, err := Build(sampleCollection())
	require.NoError(t, err)

	var mu sync.Mutex
	var order []string
	s := NewScheduler(g, 1, false)
	s.Run(context.Background(), func(ctx context.Context, n *Node) error {
		mu.Lock()
		order = append(order, n.ID)
		mu.Unlock()
		return nil
	}, nil)

	require.Len(t, order, len(g.Order))
	assert.Equal(t, folderPreID("f1"), order[0])
	assert.Equal(t, "r1", order[1])
	assert.Equal(t, "r2", order[2])
	assert.Equal(t, folderPostID("f1"), order[3])
}

func TestScheduler_RespectsConcurrencyBound(t *testing.T) {
	coll := &core.Collection{
		Protocol: "http",
		Items: []*core.Item{
			{Kind: core.ItemRequest, ID: "a", Name: "A"},
			{Kind: core.ItemRequest, ID: "b", Name: "B"},
			{Kind: core.ItemRequest, ID: "c", Name: "C"},
		},
	}
	g, err := Build(coll)
	require.NoError(t, err)

	var active int32
	var maxSeen int32
	s := NewScheduler(g, 2, true)
	s.Run(context.Background(), func(ctx context.Context, n *Node) error {
		n2 := atomic.AddInt32(&active, 1)
		for {
			cur := atomic.LoadInt32(&maxSeen)
			if n2 <= cur || atomic.CompareAndSwapInt32(&maxSeen, cur, n2) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		atomic.AddInt32(&active, -1)
		return nil
	}, nil)

	assert.LessOrEqual(t, int(maxSeen), 2)
	assert.GreaterOrEqual(t, int(maxSeen), 1)
}

func TestScheduler_CancelledContextSkipsNotYetStartedNodes(t *testing.T) {
	g, err := Build(sampleCollection())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var skipped []string
	s := NewScheduler(g, 1, false)
	s.Run(ctx, func(ctx context.Context, n *Node) error {
		return nil
	}, func(n *Node) {
		skipped = append(skipped, n.ID)
	})

	assert.Contains(t, skipped, folderPreID("f1"))
}

func TestScheduler_EmptyGraphReturnsImmediately(t *testing.T) {
	g := &Graph{Nodes: map[string]*Node{}, Order: nil}
	s := NewScheduler(g, 1, false)
	done := make(chan struct{})
	go func() {
		s.Run(context.Background(), func(ctx context.Context, n *Node) error { return nil }, nil)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not return for an empty graph")
	}
}
