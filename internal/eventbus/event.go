// Package eventbus implements the synchronous, ordered typed event stream
// described in spec §4.8/§6: the engine blocks on every subscriber before
// continuing, so delivery order matches emission order.
package eventbus

import "github.com/questapi/quest/internal/core"

// PathType names the kind of item an envelope refers to.
type PathType string

const (
	PathCollection PathType = "collection"
	PathFolder     PathType = "folder"
	PathRequest    PathType = "request"
)

// Envelope is the common metadata on every event except beforeRun/afterRun.
type Envelope struct {
	Path           string
	PathType       PathType
	CollectionInfo core.CollectionInfo
	Iteration      int
}

// Kind names an event type; see spec §6's table.
type Kind string

const (
	BeforeRun               Kind = "beforeRun"
	AfterRun                Kind = "afterRun"
	BeforeIteration         Kind = "beforeIteration"
	AfterIteration          Kind = "afterIteration"
	BeforeFolder            Kind = "beforeFolder"
	AfterFolder             Kind = "afterFolder"
	BeforeFolderPreScript   Kind = "beforeFolderPreScript"
	AfterFolderPreScript    Kind = "afterFolderPreScript"
	BeforeFolderPostScript  Kind = "beforeFolderPostScript"
	AfterFolderPostScript   Kind = "afterFolderPostScript"
	BeforeCollectionPreScript  Kind = "beforeCollectionPreScript"
	AfterCollectionPreScript   Kind = "afterCollectionPreScript"
	BeforeCollectionPostScript Kind = "beforeCollectionPostScript"
	AfterCollectionPostScript Kind = "afterCollectionPostScript"
	BeforeItem      Kind = "beforeItem"
	AfterItem       Kind = "afterItem"
	BeforePreScript Kind = "beforePreScript"
	AfterPreScript  Kind = "afterPreScript"
	BeforeRequest   Kind = "beforeRequest"
	AfterRequest    Kind = "afterRequest"
	BeforePostScript Kind = "beforePostScript"
	AfterPostScript  Kind = "afterPostScript"
	Assertion Kind = "assertion"
	Console   Kind = "console"
	Exception Kind = "exception"
)

// Event is one emitted envelope plus its kind-specific payload.
type Event struct {
	Kind     Kind
	Envelope *Envelope // nil for BeforeRun/AfterRun
	Payload  any
}

// Subscriber receives events synchronously, in emission order.
type Subscriber func(e Event)

// Bus dispatches events to its subscribers synchronously.
type Bus struct {
	subscribers []Subscriber
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{}
}

// Subscribe registers a subscriber. Order of registration is the order
// subscribers are invoked in.
func (b *Bus) Subscribe(s Subscriber) {
	b.subscribers = append(b.subscribers, s)
}

// Emit delivers an event to every subscriber, blocking until each returns,
// before returning itself.
func (b *Bus) Emit(e Event) {
	for _, s := range b.subscribers {
		s(e)
	}
}
