package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/questapi/quest/internal/core"
)

func TestPlanIterations_Priority(t *testing.T) {
	cliRows := []map[string]string{{"id": "1"}}
	collRows := []map[string]string{{"id": "2"}}
	folderRows := []map[string]string{{"id": "3"}}
	reqRows := []map[string]string{{"id": "4"}}

	t.Run("cli data wins over everything", func(t *testing.T) {
		coll := &core.Collection{TestData: collRows}
		plan := PlanIterations(core.RunOptions{CLIData: cliRows}, coll)
		assert.Equal(t, "cli", plan.Source)
		assert.Equal(t, cliRows, plan.Rows)
	})

	t.Run("collection data wins over folder/request", func(t *testing.T) {
		coll := &core.Collection{
			TestData: collRows,
			Items: []*core.Item{
				{Kind: core.ItemFolder, Children: []*core.Item{
					{Kind: core.ItemRequest, TestData: reqRows},
				}, TestData: folderRows},
			},
		}
		plan := PlanIterations(core.RunOptions{}, coll)
		assert.Equal(t, "collection", plan.Source)
	})

	t.Run("first folder testData found depth-first, declaration order", func(t *testing.T) {
		coll := &core.Collection{
			Items: []*core.Item{
				{Kind: core.ItemFolder, Name: "first", Children: nil},
				{Kind: core.ItemFolder, Name: "second", TestData: folderRows},
			},
		}
		plan := PlanIterations(core.RunOptions{}, coll)
		assert.Equal(t, "folder", plan.Source)
		assert.Equal(t, folderRows, plan.Rows)
	})

	t.Run("falls back to request testData", func(t *testing.T) {
		coll := &core.Collection{
			Items: []*core.Item{
				{Kind: core.ItemRequest, Name: "req", TestData: reqRows},
			},
		}
		plan := PlanIterations(core.RunOptions{}, coll)
		assert.Equal(t, "request", plan.Source)
	})

	t.Run("no data source repeats opts.Iterations times", func(t *testing.T) {
		coll := &core.Collection{}
		plan := PlanIterations(core.RunOptions{Iterations: 3}, coll)
		assert.Equal(t, "none", plan.Source)
		assert.Equal(t, 3, plan.Count)
	})

	t.Run("no data source and no iterations defaults to one", func(t *testing.T) {
		coll := &core.Collection{}
		plan := PlanIterations(core.RunOptions{}, coll)
		assert.Equal(t, 1, plan.Count)
	})

	t.Run("iterations clamps a data source's row count", func(t *testing.T) {
		coll := &core.Collection{TestData: []map[string]string{{"a": "1"}, {"a": "2"}, {"a": "3"}}}
		plan := PlanIterations(core.RunOptions{Iterations: 2}, coll)
		assert.Equal(t, 2, plan.Count)
	})
}

func TestIterationPlan_RowAt(t *testing.T) {
	plan := IterationPlan{Rows: []map[string]string{{"a": "1"}, {"a": "2"}}, Count: 2}
	assert.Equal(t, map[string]string{"a": "1"}, plan.RowAt(1))
	assert.Equal(t, map[string]string{"a": "2"}, plan.RowAt(2))
	assert.Nil(t, plan.RowAt(0))
	assert.Nil(t, plan.RowAt(3))

	empty := IterationPlan{Count: 5}
	assert.Nil(t, empty.RowAt(1))
}
