package event

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFireReachesNamedAndWildcard(t *testing.T) {
	bus := NewBus()
	var named, all []Event
	bus.Listen(Topic(KindIntent, "new-sale"), func(e Event) { named = append(named, e) })
	bus.Listen("*", func(e Event) { all = append(all, e) })

	bus.Fire(Event{Type: KindIntent, Name: "new-sale", Register: "main"})
	bus.Fire(Event{Type: KindChange, Name: "products"})

	assert.Len(t, named, 1)
	assert.Equal(t, "main", named[0].Register)
	assert.Len(t, all, 2)
	assert.True(t, bus.Has("intent:new-sale"))
	assert.False(t, bus.Has("intent:about"))
}

func TestFireAsyncAndFlush(t *testing.T) {
	bus := NewBus()
	var n atomic.Int32
	for i := 0; i < 3; i++ {
		bus.Listen(Topic(KindIntent, "backup"), func(Event) { n.Add(1) })
	}
	bus.FireAsync(Event{Type: KindIntent, Name: "backup"})
	bus.Wait()
	assert.Equal(t, int32(3), n.Load())

	bus.Flush()
	bus.Fire(Event{Type: KindIntent, Name: "backup"})
	assert.Equal(t, int32(3), n.Load())
}

func TestChangeDoesNotReachIntentOfSameName(t *testing.T) {
	bus := NewBus()
	var intents, changes int
	bus.Listen(Topic(KindIntent, "products"), func(Event) { intents++ })
	bus.Listen(Topic(KindChange, "products"), func(Event) { changes++ })

	bus.Fire(Event{Type: KindChange, Name: "products"})
	bus.Fire(Event{Type: KindChange, Name: "products"})
	bus.Fire(Event{Type: KindIntent, Name: "products"})

	assert.Equal(t, 1, intents)
	assert.Equal(t, 2, changes)
}
