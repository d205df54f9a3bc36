// Package script implements the Script Sandbox and Quest API Factory
// (spec §4.2): a goja-based JavaScript runtime exposing the "quest" global
// to collection/folder/request scripts, with console capture and a
// chainable "expect" assertion vocabulary.
package script

import "github.com/questapi/quest/internal/core"

// ScriptType names which of the six script slots (plus plugin-event) is
// executing; some quest.* facades are only valid for particular types
// (request.timeout.set and expectMessages are request-pre only).
type ScriptType string

const (
	CollectionPre  ScriptType = "collection-pre"
	CollectionPost ScriptType = "collection-post"
	FolderPre      ScriptType = "folder-pre"
	FolderPost     ScriptType = "folder-post"
	RequestPre     ScriptType = "request-pre"
	RequestPost    ScriptType = "request-post"
	PluginEvent    ScriptType = "plugin-event"

	// Condition is not one of spec.md's six script slots; it's the
	// expression an Item's optional `condition` field carries (spec §3),
	// evaluated against the same quest facade a request-pre script sees,
	// but read-only in intent (request.timeout.set/expectMessages still
	// reject it since it isn't request-pre).
	Condition ScriptType = "condition"
)

// Result is a script execution's outcome (spec §4.2 Contract).
type Result struct {
	Success       bool
	Error         string
	Tests         []core.TestResult
	ConsoleOutput []string
}

// AssertionSink receives each completed test result in real time, in
// script order, as quest.test() resolves it (spec §4.2: "assertions emit
// through the sink as they complete").
type AssertionSink func(core.TestResult)
