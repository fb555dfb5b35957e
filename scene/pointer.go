package scene

import "sync"

// PointerBus fans pointer moves of one window out to its listeners.
type PointerBus struct {
	mu        sync.RWMutex
	listeners map[int]func(Pointer)
	nextId    int
}

func NewPointerBus() *PointerBus {
	return &PointerBus{
		listeners: make(map[int]func(Pointer)),
	}
}

// Subscribe registers fn and returns the func that removes it.
func (pb *PointerBus) Subscribe(fn func(Pointer)) func() {
	pb.mu.Lock()
	id := pb.nextId
	pb.nextId++
	pb.listeners[id] = fn
	pb.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			pb.mu.Lock()
			delete(pb.listeners, id)
			pb.mu.Unlock()
		})
	}
}

func (pb *PointerBus) Publish(p Pointer) {
	pb.mu.RLock()
	defer pb.mu.RUnlock()

	for _, fn := range pb.listeners {
		fn(p)
	}
}

func (pb *PointerBus) Listeners() int {
	pb.mu.RLock()
	defer pb.mu.RUnlock()
	return len(pb.listeners)
}
