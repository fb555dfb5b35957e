package scene

import (
	"math/rand"
	"sync"
)

// Background animates a Field from elapsed time and the latest pointer position.
type Background struct {
	field *Field
	bus   *PointerBus

	mu          sync.Mutex
	pointer     Pointer
	transform   Transform
	unsubscribe func()
}

func NewBackground(bus *PointerBus, rng *rand.Rand) *Background {
	return &Background{
		field:     NewField(DefaultPointCount, DefaultSpread, rng),
		bus:       bus,
		transform: FrameAt(0, Pointer{}),
	}
}

// Mount starts listening to pointer moves.
func (b *Background) Mount() {
	// the bus calls listeners under its own lock, so b.mu is never held while calling into it
	unsubscribe := b.bus.Subscribe(b.onPointerMove)

	b.mu.Lock()
	if b.unsubscribe != nil {
		b.mu.Unlock()
		unsubscribe()
		return
	}
	b.unsubscribe = unsubscribe
	b.mu.Unlock()
}

// Unmount stops listening to pointer moves.
func (b *Background) Unmount() {
	b.mu.Lock()
	unsubscribe := b.unsubscribe
	b.unsubscribe = nil
	b.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

func (b *Background) onPointerMove(p Pointer) {
	b.mu.Lock()
	b.pointer = p
	b.mu.Unlock()
}

// Advance renders the frame at elapsed seconds.
func (b *Background) Advance(elapsed float64) Transform {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.transform = FrameAt(elapsed, b.pointer)
	return b.transform
}

func (b *Background) Transform() Transform {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.transform
}

func (b *Background) Field() *Field {
	return b.field
}
