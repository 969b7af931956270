// Package event implements a type-keyed listener registry and dispatch:
// listeners are registered against an event type and run either "lazy"
// (fire-and-forget, spawned as a goroutine, result discarded) or "blocking"
// (run on the caller's goroutine, awaited, result returned).
//
// Event payload types themselves (ProxyFinishedInitialization,
// PlayerJoinedProxy, ...) live in the proxy package, since they carry
// proxy types (*PlayerConnection, ProxiedServer) this package must not
// depend on. Bus is the process-independent dispatch engine; callers use
// the package-level generic On/Dispatch helpers for type safety.
package event

import (
	"reflect"
	"sync"

	"go.uber.org/zap"
)

// Result is the outcome of a cancellable event. Fire-and-forget events
// (like PlayerLeftProxy) don't use this type at all -- their listeners
// return ok=false from On's handler and the dispatcher never inspects a
// "result".
type Result int

const (
	// Continue lets whatever the event describes proceed normally.
	Continue Result = iota
	// Stop vetoes it; the caller of Dispatch interprets Stop per the
	// specific event (abort connect, drop a frame, refuse a login).
	Stop
)

type entry struct {
	lazy bool
	call func(any) (any, bool)
}

// Bus is an instance-owned registry, not a process-wide static: callers
// hold one Bus per proxy.Instance and thread it through connections and
// listener callbacks.
type Bus struct {
	mu        sync.RWMutex
	listeners map[reflect.Type][]entry
	log       *zap.Logger
}

// NewBus creates an empty event bus. log may be nil (a no-op logger is
// substituted), and is used solely to report a recovered listener panic as
// a warning before continuing dispatch to the remaining listeners.
func NewBus(log *zap.Logger) *Bus {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bus{
		listeners: make(map[reflect.Type][]entry),
		log:       log,
	}
}

func typeKey[E any]() reflect.Type {
	return reflect.TypeOf((*E)(nil)).Elem()
}

// On registers a listener for event type E. lazy=false listeners are run
// synchronously, in registration order, on the dispatching goroutine. lazy
// =true listeners are spawned as independent goroutines and their return
// values are discarded.
//
// fn returns (result, ok): ok=false means "no opinion", matching the
// source's Option<Result> -- Dispatch's "last non-None wins" rule skips
// over ok=false listeners entirely.
func On[E any, R any](b *Bus, lazy bool, fn func(E) (R, bool)) {
	key := typeKey[E]()
	wrapped := func(ev any) (any, bool) {
		r, ok := fn(ev.(E))
		return r, ok
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners[key] = append(b.listeners[key], entry{lazy: lazy, call: wrapped})
}

// Dispatch runs every listener registered for E's type against event.
// Non-lazy listeners run to completion, sequentially, in registration
// order; the last one to return ok=true wins and is what Dispatch returns.
// Lazy listeners are spawned and race with Dispatch's own return -- by the
// time Dispatch returns, they may not have run at all yet.
func Dispatch[E any, R any](b *Bus, event E) (R, bool) {
	key := typeKey[E]()

	b.mu.RLock()
	entries := make([]entry, len(b.listeners[key]))
	copy(entries, b.listeners[key])
	b.mu.RUnlock()

	var result R
	var ok bool
	for _, en := range entries {
		if en.lazy {
			go b.runLazy(en, event)
			continue
		}
		r, rok := b.runBlocking(en, event)
		if rok {
			if typed, castOK := r.(R); castOK {
				result = typed
				ok = true
			}
		}
	}
	return result, ok
}

func (b *Bus) runBlocking(en entry, event any) (result any, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Warn("event listener panicked", zap.Any("panic", r))
			result, ok = nil, false
		}
	}()
	return en.call(event)
}

func (b *Bus) runLazy(en entry, event any) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Warn("lazy event listener panicked", zap.Any("panic", r))
		}
	}()
	en.call(event)
}
