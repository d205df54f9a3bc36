// Package engine implements the DAG Builder, Scheduler, and Collection
// Runner (spec §4.5/§5): the core new engineering this module contributes
// on top of the teacher, which only ever walked a collection tree
// sequentially (internal/runner/runner.go's walkFolder/walkRequests).
package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/questapi/quest/internal/core"
)

// NodeKind distinguishes a real request node from the folder lifecycle
// pseudo-nodes the DAG builder synthesizes.
type NodeKind string

const (
	NodeRequest    NodeKind = "request"
	NodeFolderPre  NodeKind = "folder-pre"
	NodeFolderPost NodeKind = "folder-post"
)

// Node is one schedulable unit: a request, or a folder's entry/exit pseudo-
// node (spec §4.5: "the folder's folderPreScript pseudo-node").
type Node struct {
	ID        string
	Kind      NodeKind
	Item      *core.Item // nil for folder pseudo-nodes
	FolderID  string     // folder this node belongs to (pseudo-nodes: themselves)
	Path      string
	Name      string
	Ancestors []*core.Item // root -> parent, for the inheritance protocol (§4.3)
	DependsOn []string     // node IDs that must complete before this one starts
}

// Graph is the compiled DAG: nodes plus their declared-order traversal,
// used as the scheduler's tie-break sequence (spec §4.5).
type Graph struct {
	Nodes map[string]*Node
	Order []string
}

func folderPreID(folderID string) string  { return folderID + ":pre" }
func folderPostID(folderID string) string { return folderID + ":post" }

// Build compiles a collection's item tree plus dependsOn edges into a DAG.
// Declaration order is preserved in Graph.Order; cycles are reported as an
// error so the caller can turn them into a ValidationError before any
// execution starts (spec §4.5: "cycles fail validation before any
// execution").
func Build(coll *core.Collection) (*Graph, error) {
	g := &Graph{Nodes: make(map[string]*Node)}

	itemsByID := make(map[string]*core.Item)
	indexItems(coll.Items, itemsByID)

	if err := addLevel(g, coll.Protocol, nil, nil, coll.Items); err != nil {
		return nil, err
	}

	if err := resolveDependsOn(g, coll, itemsByID); err != nil {
		return nil, err
	}

	if err := detectCycle(g); err != nil {
		return nil, err
	}

	return g, nil
}

func indexItems(items []*core.Item, out map[string]*core.Item) {
	for _, it := range items {
		out[it.ID] = it
		if it.IsFolder() {
			indexItems(it.Children, out)
		}
	}
}

// addLevel registers nodes for one slice of sibling items (in declaration
// order), wiring each child's entry/completion to its parent folder's
// pre/post pseudo-nodes.
func addLevel(g *Graph, protocol string, ancestors []*core.Item, parentFolder *core.Item, items []*core.Item) error {
	for _, it := range items {
		path := buildPath(protocol, ancestors, it)

		if it.IsFolder() {
			preNode := &Node{ID: folderPreID(it.ID), Kind: NodeFolderPre, FolderID: it.ID, Path: path, Name: it.Name, Ancestors: ancestors}
			postNode := &Node{ID: folderPostID(it.ID), Kind: NodeFolderPost, FolderID: it.ID, Path: path, Name: it.Name, Ancestors: ancestors}
			if parentFolder != nil {
				preNode.DependsOn = append(preNode.DependsOn, folderPreID(parentFolder.ID))
			}
			g.Nodes[preNode.ID] = preNode
			g.Order = append(g.Order, preNode.ID)

			childAncestors := append(append([]*core.Item{}, ancestors...), it)
			if err := addLevel(g, protocol, childAncestors, it, it.Children); err != nil {
				return err
			}

			for _, child := range it.Children {
				postNode.DependsOn = append(postNode.DependsOn, completionNodeID(child))
			}
			g.Nodes[postNode.ID] = postNode
			g.Order = append(g.Order, postNode.ID)
			continue
		}

		node := &Node{ID: it.ID, Kind: NodeRequest, Item: it, FolderID: folderIDOf(parentFolder), Path: path, Name: it.Name, Ancestors: ancestors}
		if parentFolder != nil {
			node.DependsOn = append(node.DependsOn, folderPreID(parentFolder.ID))
		}
		g.Nodes[node.ID] = node
		g.Order = append(g.Order, node.ID)
	}
	return nil
}

func folderIDOf(folder *core.Item) string {
	if folder == nil {
		return ""
	}
	return folder.ID
}

// completionNodeID is the node whose completion represents an item being
// fully done: a request's own node, or a folder's post pseudo-node.
func completionNodeID(it *core.Item) string {
	if it.IsFolder() {
		return folderPostID(it.ID)
	}
	return it.ID
}

func entryNodeID(it *core.Item) string {
	if it.IsFolder() {
		return folderPreID(it.ID)
	}
	return it.ID
}

func buildPath(protocol string, ancestors []*core.Item, it *core.Item) string {
	var b strings.Builder
	b.WriteString(protocol)
	b.WriteString(":/")
	segments := make([]string, 0, len(ancestors)+1)
	for _, a := range ancestors {
		segments = append(segments, a.Name)
	}
	segments = append(segments, it.Name)
	b.WriteString(strings.Join(segments, "/"))
	return b.String()
}

// resolveDependsOn adds the dependsOn edges declared on folders and
// requests: depending on a folder means depending on its full completion
// (spec §4.5).
func resolveDependsOn(g *Graph, coll *core.Collection, itemsByID map[string]*core.Item) error {
	var walk func(items []*core.Item) error
	walk = func(items []*core.Item) error {
		for _, it := range items {
			for _, depID := range it.DependsOn {
				target, ok := itemsByID[depID]
				if !ok {
					return fmt.Errorf("engine: unresolved dependsOn target %q (from %q)", depID, it.ID)
				}
				entry := g.Nodes[entryNodeID(it)]
				entry.DependsOn = append(entry.DependsOn, completionNodeID(target))
			}
			if it.IsFolder() {
				if err := walk(it.Children); err != nil {
					return err
				}
			}
		}
		return nil
	}
	return walk(coll.Items)
}

// detectCycle runs a three-color DFS over DependsOn edges.
func detectCycle(g *Graph) error {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(g.Nodes))

	var visit func(id string) error
	visit = func(id string) error {
		color[id] = gray
		for _, dep := range g.Nodes[id].DependsOn {
			switch color[dep] {
			case gray:
				return fmt.Errorf("engine: dependency cycle detected involving %q", dep)
			case white:
				if err := visit(dep); err != nil {
					return err
				}
			}
		}
		color[id] = black
		return nil
	}

	for _, id := range g.Order {
		if color[id] == white {
			if err := visit(id); err != nil {
				return err
			}
		}
	}
	return nil
}

// Ready returns every node in g.Order whose dependencies are all in
// completed, that is itself neither completed nor already active, sorted
// by declaration order (sequential / default tie-break) or alphabetically
// by name when alphabetical is true (parallel mode's deterministic
// tie-break, spec §4.5).
func (g *Graph) Ready(completed, active map[string]bool, alphabetical bool) []*Node {
	var ready []*Node
	for _, id := range g.Order {
		if completed[id] || active[id] {
			continue
		}
		n := g.Nodes[id]
		ok := true
		for _, dep := range n.DependsOn {
			if !completed[dep] {
				ok = false
				break
			}
		}
		if ok {
			ready = append(ready, n)
		}
	}
	if alphabetical {
		sort.SliceStable(ready, func(i, j int) bool { return ready[i].Name < ready[j].Name })
	}
	return ready
}
