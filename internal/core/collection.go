// Package core holds the collection/execution data model: the item tree,
// auth configuration, execution context, and result types shared by the
// scripting, interpolation, cookie, and engine packages.
package core

import "time"

// ItemKind distinguishes the two members of the Item sum type.
type ItemKind string

const (
	ItemRequest ItemKind = "request"
	ItemFolder  ItemKind = "folder"
)

// CollectionInfo is the identity block of a collection.
type CollectionInfo struct {
	ID          string
	Name        string
	Version     string
	Description string
}

// AuthConfig is a protocol/auth-plugin-opaque authentication declaration.
// Type selects the auth plugin; Params carries whatever fields that plugin's
// dataSchema expects (token, username/password, key/value/in, ...).
type AuthConfig struct {
	Type   string
	Params map[string]any
}

// IsConfigured reports whether auth is declared and not explicitly "none".
func (a *AuthConfig) IsConfigured() bool {
	return a != nil && a.Type != "" && a.Type != "none"
}

// RequestOptions carries per-request overrides consulted by the runner.
type RequestOptions struct {
	Timeout *time.Duration
	// ExpectedMessages is populated from the pre-request script's
	// quest.expectMessages(n) call (spec §4.2) just before Execute runs, so
	// streaming protocol plugins know how many inbound frames to collect.
	ExpectedMessages *int
}

// RequestData is the protocol-opaque request payload. URL/Method/Headers/Body
// are the common HTTP-shaped convenience fields; Raw carries anything a
// non-HTTP protocol plugin needs that doesn't fit that shape.
type RequestData struct {
	URL     string
	Method  string
	Headers map[string]string
	Body    any
	Raw     map[string]any
}

// Item is a node in the collection tree: either a Request or a Folder.
//
// PreRequestScript/PostRequestScript double duty: on a Folder they are
// inherited by every descendant request (step 1/6 of the inheritance
// protocol); on a Request they are that request's own pre/post script.
// FolderPreScript/FolderPostScript only apply to folders and run exactly
// once per folder instance, on entry and exit.
type Item struct {
	Kind      ItemKind
	ID        string
	Name      string
	DependsOn []string
	Condition string
	Auth      *AuthConfig

	PreRequestScript  string
	PostRequestScript string

	// TestData is an iteration data source at whatever level this item sits
	// (folder or request); the DAG builder's iteration plan consults it per
	// the priority order in spec.md §4.5.
	TestData []map[string]string

	// Folder-only.
	FolderPreScript  string
	FolderPostScript string
	Children         []*Item

	// Request-only.
	Data    RequestData
	Options RequestOptions
}

// IsFolder reports whether this item is a folder.
func (it *Item) IsFolder() bool { return it.Kind == ItemFolder }

// IsRequest reports whether this item is a request.
func (it *Item) IsRequest() bool { return it.Kind == ItemRequest }

// Collection is the top-level test document: identity, protocol tag, the
// ordered item tree, and collection-scoped variables/scripts/auth.
type Collection struct {
	Info      CollectionInfo
	Protocol  string
	Items     []*Item
	Variables map[string]string
	// VariableProviders maps a variable name to a "provider:kind" string
	// (spec §4.6: Value-provider plugin) for variables whose definition
	// selects a non-default provider instead of a literal value; consulted
	// by quest.variables.get as a fallback when the normal precedence chain
	// misses.
	VariableProviders map[string]string
	TestData          []map[string]string
	PreScript         string
	PostScript        string
	Auth              *AuthConfig
}

// FindItem searches the tree (depth-first) for an item by ID.
func (c *Collection) FindItem(id string) *Item {
	for _, it := range c.Items {
		if found := findItem(it, id); found != nil {
			return found
		}
	}
	return nil
}

func findItem(it *Item, id string) *Item {
	if it.ID == id {
		return it
	}
	for _, child := range it.Children {
		if found := findItem(child, id); found != nil {
			return found
		}
	}
	return nil
}
