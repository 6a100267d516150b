package websocket

import (
	"sync"

	"github.com/yanun0323/logs"
)

// Emitter is an ordered handler registry for one event type. Handlers run
// synchronously in registration order; a panicking handler is recovered and
// logged so the remaining handlers still run.
type Emitter[T any] struct {
	mu       sync.Mutex
	nextID   uint64
	handlers []handlerEntry[T]
}

type handlerEntry[T any] struct {
	id uint64
	fn func(T)
}

// Subscribe registers a handler and returns its cancel func. Cancel is
// idempotent and deregisters exactly this handler.
func (e *Emitter[T]) Subscribe(fn func(T)) (cancel func()) {
	if e == nil || fn == nil {
		return func() {}
	}
	e.mu.Lock()
	e.nextID++
	id := e.nextID
	e.handlers = append(e.handlers, handlerEntry[T]{id: id, fn: fn})
	e.mu.Unlock()

	return func() {
		e.mu.Lock()
		for i, entry := range e.handlers {
			if entry.id == id {
				e.handlers = append(e.handlers[:i], e.handlers[i+1:]...)
				break
			}
		}
		e.mu.Unlock()
	}
}

// Emit invokes every registered handler with v, in registration order.
func (e *Emitter[T]) Emit(v T) {
	if e == nil {
		return
	}
	e.mu.Lock()
	handlers := make([]handlerEntry[T], len(e.handlers))
	copy(handlers, e.handlers)
	e.mu.Unlock()

	for _, entry := range handlers {
		invoke(entry.fn, v)
	}
}

// Reset drops every registered handler.
func (e *Emitter[T]) Reset() {
	if e == nil {
		return
	}
	e.mu.Lock()
	e.handlers = nil
	e.mu.Unlock()
}

// Len returns the number of registered handlers.
func (e *Emitter[T]) Len() int {
	if e == nil {
		return 0
	}
	e.mu.Lock()
	count := len(e.handlers)
	e.mu.Unlock()
	return count
}

func invoke[T any](fn func(T), v T) {
	defer func() {
		if r := recover(); r != nil {
			logs.Errorf("event handler panicked: %+v", r)
		}
	}()
	fn(v)
}
