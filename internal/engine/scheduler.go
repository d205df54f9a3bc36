package engine

import (
	"context"
	"sync"
)

// ExecFunc runs one DAG node to completion. The scheduler calls it
// concurrently across independent nodes; serializing script execution
// within ExecFunc (the "script mutex", spec §5) is the caller's
// responsibility, not the scheduler's.
type ExecFunc func(ctx context.Context, node *Node) error

// SkipFunc is invoked for a node that will never run because the run was
// aborted before it started (spec §4.7: "not-yet-started nodes: skipped
// entirely; no beforeItem/afterItem emission").
type SkipFunc func(node *Node)

// Scheduler drives a Graph with a bounded worker pool (spec §4.5/§9): a
// plain goroutine-per-active-node pool gated by maxConcurrency, with no
// external scheduler library, grounded in the teacher's sequential
// walkFolder/walkRequests recursion generalized to concurrent dispatch.
type Scheduler struct {
	graph          *Graph
	maxConcurrency int
	alphabetical   bool
}

// NewScheduler creates a scheduler for graph. maxConcurrency must already
// be normalized (0 -> 1) by the caller (core.RunOptions.Normalize does
// this). alphabetical selects the parallel-mode tie-break; false preserves
// strict declaration order (sequential mode).
func NewScheduler(graph *Graph, maxConcurrency int, alphabetical bool) *Scheduler {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	return &Scheduler{graph: graph, maxConcurrency: maxConcurrency, alphabetical: alphabetical}
}

// Run dispatches every node to exec, respecting dependency order and the
// concurrency bound, until the graph is exhausted or ctx is done. Once
// ctx is done, every node that has not started is reported to onSkip
// instead of exec and is treated as complete for dependency purposes, so
// the folder-post node of a folder whose pre node already ran still fires
// (best-effort cleanup, spec §4.7).
func (s *Scheduler) Run(ctx context.Context, exec ExecFunc, onSkip SkipFunc) {
	total := len(s.graph.Order)
	if total == 0 {
		return
	}

	var mu sync.Mutex
	completed := make(map[string]bool, total)
	skipped := make(map[string]bool, total)
	active := make(map[string]bool, total)
	doneCh := make(chan string, total)
	doneCount := 0

	var dispatch func()
	dispatch = func() {
		mu.Lock()
		defer mu.Unlock()

		if ctx.Err() != nil {
			// Folder-post nodes whose folder was already entered still run
			// as best-effort cleanup (spec §4.7); everything else not yet
			// started is skipped outright.
			for _, id := range s.graph.Order {
				if completed[id] || active[id] {
					continue
				}
				node := s.graph.Nodes[id]
				preID := folderPreID(node.FolderID)
				if node.Kind == NodeFolderPost && completed[preID] && !skipped[preID] {
					continue
				}
				completed[id] = true
				skipped[id] = true
				doneCount++
				if onSkip != nil {
					onSkip(node)
				}
			}
			ready := s.graph.Ready(completed, active, s.alphabetical)
			slots := s.maxConcurrency - len(active)
			for i := 0; i < len(ready) && i < slots; i++ {
				node := ready[i]
				if node.Kind != NodeFolderPost {
					continue
				}
				active[node.ID] = true
				go func(n *Node) {
					_ = exec(ctx, n)
					doneCh <- n.ID
				}(node)
			}
			return
		}

		ready := s.graph.Ready(completed, active, s.alphabetical)
		slots := s.maxConcurrency - len(active)
		for i := 0; i < len(ready) && i < slots; i++ {
			node := ready[i]
			active[node.ID] = true
			go func(n *Node) {
				_ = exec(ctx, n)
				doneCh <- n.ID
			}(node)
		}
	}

	dispatch()
	for doneCount < total {
		id := <-doneCh
		mu.Lock()
		delete(active, id)
		if !completed[id] {
			completed[id] = true
			doneCount++
		}
		mu.Unlock()
		dispatch()
	}
}
