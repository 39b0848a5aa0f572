// Package events delivers engine notifications to registered handlers.
package events

import "sync"

// Bus fans a notification out to every handler registered for it. Handlers
// run synchronously on the emitting goroutine in registration order.
type Bus struct {
	mu              sync.RWMutex
	commandNotFound []func(cmd []string)
}

// NewBus constructs a bus with no handlers.
func NewBus() *Bus {
	return &Bus{}
}

// OnCommandNotFound registers a handler invoked when command resolution
// exhausts every alias, callable and executable candidate while the engine
// runs interactively.
func (b *Bus) OnCommandNotFound(fn func(cmd []string)) {
	if fn == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.commandNotFound = append(b.commandNotFound, fn)
}

// EmitCommandNotFound publishes the failed command to every registered
// handler. The slice must not be mutated by handlers.
func (b *Bus) EmitCommandNotFound(cmd []string) {
	b.mu.RLock()
	handlers := b.commandNotFound
	b.mu.RUnlock()
	for _, fn := range handlers {
		fn(cmd)
	}
}
