package eventbus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/questapi/quest/internal/core"
)

func TestBus_EmitWithNoSubscribersIsANoop(t *testing.T) {
	b := New()
	assert.NotPanics(t, func() {
		b.Emit(Event{Kind: BeforeRun})
	})
}

func TestBus_DeliversToEverySubscriber(t *testing.T) {
	b := New()
	var a, c []Kind
	b.Subscribe(func(e Event) { a = append(a, e.Kind) })
	b.Subscribe(func(e Event) { c = append(c, e.Kind) })

	b.Emit(Event{Kind: BeforeRun})
	b.Emit(Event{Kind: AfterRun})

	assert.Equal(t, []Kind{BeforeRun, AfterRun}, a)
	assert.Equal(t, []Kind{BeforeRun, AfterRun}, c)
}

func TestBus_DeliveryOrderMatchesSubscriptionOrder(t *testing.T) {
	b := New()
	var order []string
	b.Subscribe(func(e Event) { order = append(order, "first") })
	b.Subscribe(func(e Event) { order = append(order, "second") })
	b.Subscribe(func(e Event) { order = append(order, "third") })

	b.Emit(Event{Kind: Console})

	require.Equal(t, []string{"first", "second", "third"}, order)
}

func TestBus_EmitIsSynchronousBeforeReturning(t *testing.T) {
	b := New()
	done := false
	b.Subscribe(func(e Event) { done = true })
	b.Emit(Event{Kind: Console})
	assert.True(t, done)
}

func TestBus_EnvelopeAndPayloadPassThrough(t *testing.T) {
	b := New()
	var got Event
	b.Subscribe(func(e Event) { got = e })

	env := &Envelope{
		Path:           "folder/request",
		PathType:       PathRequest,
		CollectionInfo: core.CollectionInfo{Name: "sample"},
		Iteration:      2,
	}
	b.Emit(Event{Kind: AfterRequest, Envelope: env, Payload: map[string]any{"status": 200}})

	assert.Equal(t, AfterRequest, got.Kind)
	require.NotNil(t, got.Envelope)
	assert.Equal(t, "folder/request", got.Envelope.Path)
	assert.Equal(t, PathRequest, got.Envelope.PathType)
	assert.Equal(t, 2, got.Envelope.Iteration)
	assert.Equal(t, map[string]any{"status": 200}, got.Payload)
}
