package engine

import "github.com/questapi/quest/internal/core"

// IterationPlan is the resolved data source and row count for one run
// (spec §4.5). Source is retained only for diagnostics/beforeRun payloads.
type IterationPlan struct {
	Source string
	Rows   []map[string]string
	Count  int
}

// PlanIterations resolves the iteration source priority (spec §4.5): CLI
// data, then collection testData, then the first folder-level testData
// found in declaration order, then the first request-level testData,
// else plain repetition.
func PlanIterations(opts core.RunOptions, coll *core.Collection) IterationPlan {
	clamp := func(rows []map[string]string) int {
		count := len(rows)
		if opts.Iterations > 0 && opts.Iterations < count {
			count = opts.Iterations
		}
		return count
	}

	if len(opts.CLIData) > 0 {
		return IterationPlan{Source: "cli", Rows: opts.CLIData, Count: clamp(opts.CLIData)}
	}
	if len(coll.TestData) > 0 {
		return IterationPlan{Source: "collection", Rows: coll.TestData, Count: clamp(coll.TestData)}
	}
	if rows, ok := firstTestData(coll.Items, core.ItemFolder); ok {
		return IterationPlan{Source: "folder", Rows: rows, Count: clamp(rows)}
	}
	if rows, ok := firstTestData(coll.Items, core.ItemRequest); ok {
		return IterationPlan{Source: "request", Rows: rows, Count: clamp(rows)}
	}

	count := opts.Iterations
	if count <= 0 {
		count = 1
	}
	return IterationPlan{Source: "none", Count: count}
}

// firstTestData walks the tree depth-first in declaration order looking
// for the first item of the given kind carrying non-empty TestData.
func firstTestData(items []*core.Item, kind core.ItemKind) ([]map[string]string, bool) {
	for _, it := range items {
		if it.Kind == kind && len(it.TestData) > 0 {
			return it.TestData, true
		}
		if it.IsFolder() {
			if rows, ok := firstTestData(it.Children, kind); ok {
				return rows, true
			}
		}
	}
	return nil, false
}

// RowAt returns the iteration data row for iteration index i (1-based), or
// nil if no data source is active.
func (p IterationPlan) RowAt(i int) map[string]string {
	if p.Rows == nil || i < 1 || i > len(p.Rows) {
		return nil
	}
	return p.Rows[i-1]
}
