// Package events implements synchronous named-event emitters.
package events

// A Listener handles the arguments of an emitted event.
type Listener func(args ...any)

// A Prototype creates emitters that share one On function.
type Prototype struct {
	// On appends l to the listeners of event and returns e.
	On func(e *Emitter, event string, l Listener) *Emitter
}

// NewPrototype creates a prototype.
func NewPrototype() *Prototype {
	pr := &Prototype{}
	pr.On = func(e *Emitter, event string, l Listener) *Emitter {
		return e.on(event, l)
	}

	return pr
}

// NewEmitter creates an emitter without listeners.
func (pr *Prototype) NewEmitter() *Emitter {
	return &Emitter{
		proto:     pr,
		listeners: make(map[string][]*entry),
	}
}

type entry struct {
	listener Listener
	expired  func() bool
}

func (en *entry) isExpired() bool {
	return en.expired != nil && en.expired()
}

// An Emitter calls listeners when events are emitted.
type Emitter struct {
	proto     *Prototype
	listeners map[string][]*entry
}

// On adds l to the listeners of event through the prototype's On function.
func (e *Emitter) On(event string, l Listener) *Emitter {
	return e.proto.On(e, event, l)
}

// Once adds a listener that is removed after its first call. The listener is
// registered through the prototype's On function.
func (e *Emitter) Once(event string, l Listener) *Emitter {
	fired := false
	e.proto.On(e, event, func(args ...any) {
		if fired {
			return
		}
		fired = true
		l(args...)
	})

	if entries := e.listeners[event]; len(entries) > 0 {
		entries[len(entries)-1].expired = func() bool { return fired }
	}

	return e
}

func (e *Emitter) on(event string, l Listener) *Emitter {
	e.listeners[event] = append(e.listeners[event], &entry{listener: l})
	return e
}

// Emit calls the listeners of event in registration order with args. It
// reports whether the event had listeners.
func (e *Emitter) Emit(event string, args ...any) bool {
	entries := e.listeners[event]
	if len(entries) == 0 {
		return false
	}

	snapshot := append([]*entry(nil), entries...)
	for _, en := range snapshot {
		if en.isExpired() {
			continue
		}

		en.listener(args...)
	}

	e.prune(event)

	return true
}

func (e *Emitter) prune(event string) {
	entries := e.listeners[event]
	kept := entries[:0]

	for _, en := range entries {
		if !en.isExpired() {
			kept = append(kept, en)
		}
	}

	for i := len(kept); i < len(entries); i++ {
		entries[i] = nil
	}

	if len(kept) == 0 {
		delete(e.listeners, event)
		return
	}

	e.listeners[event] = kept
}

// ListenerCount returns the number of listeners of event.
func (e *Emitter) ListenerCount(event string) int {
	n := 0
	for _, en := range e.listeners[event] {
		if !en.isExpired() {
			n++
		}
	}

	return n
}

// RemoveAllListeners removes the listeners of the given events, or of every
// event if none is given.
func (e *Emitter) RemoveAllListeners(events ...string) *Emitter {
	if len(events) == 0 {
		e.listeners = make(map[string][]*entry)
		return e
	}

	for _, event := range events {
		delete(e.listeners, event)
	}

	return e
}
