// Package event is a small synchronous publish/subscribe emitter whose
// events can be cancelled by their handlers.
//
//	var em event.Emitter
//	off := em.On("beforechange", func(e *event.Event) {
//	    e.PreventDefault()
//	})
//	defer off()
//
//	if em.Fire("beforechange", payload).IsDefaultPrevented() {
//	    return
//	}
package event

// Event is handed to every handler of one Fire call.
type Event struct {
	// Type is the name the event was fired under.
	Type string

	// Payload is whatever the firing code attached.
	Payload any

	prevented bool
}

// PreventDefault asks the firing code to skip its default action.
func (e *Event) PreventDefault() {
	e.prevented = true
}

// IsDefaultPrevented reports whether any handler called PreventDefault.
func (e *Event) IsDefaultPrevented() bool {
	return e.prevented
}

// Handler receives fired events.
type Handler func(e *Event)

type subscription struct {
	handler Handler
}

// Emitter dispatches events to handlers registered by name. Handlers run
// synchronously in registration order. The zero value is ready to use.
//
// Emitter is not safe for concurrent use.
type Emitter struct {
	handlers map[string][]*subscription
}

// On registers h for events named name and returns a func that removes it.
// Calling the returned func more than once is harmless.
func (em *Emitter) On(name string, h Handler) (off func()) {
	if h == nil {
		return func() {}
	}
	if em.handlers == nil {
		em.handlers = make(map[string][]*subscription)
	}
	sub := &subscription{handler: h}
	em.handlers[name] = append(em.handlers[name], sub)
	return func() { em.off(name, sub) }
}

func (em *Emitter) off(name string, sub *subscription) {
	subs := em.handlers[name]
	for i, existing := range subs {
		if existing == sub {
			// Keep order: fan-out must stay deterministic.
			next := make([]*subscription, 0, len(subs)-1)
			next = append(next, subs[:i]...)
			next = append(next, subs[i+1:]...)
			if len(next) == 0 {
				delete(em.handlers, name)
			} else {
				em.handlers[name] = next
			}
			return
		}
	}
}

// Fire runs every handler registered for name and returns the event they
// saw. Handlers added or removed while firing take effect on the next Fire.
func (em *Emitter) Fire(name string, payload any) *Event {
	e := &Event{Type: name, Payload: payload}

	// Copy before notifying so handlers may subscribe or unsubscribe.
	subs := em.handlers[name]
	if len(subs) == 0 {
		return e
	}
	snapshot := make([]*subscription, len(subs))
	copy(snapshot, subs)

	for _, sub := range snapshot {
		sub.handler(e)
	}
	return e
}

// Has reports whether any handler is registered for name.
func (em *Emitter) Has(name string) bool {
	return len(em.handlers[name]) > 0
}

// Clear removes every handler.
func (em *Emitter) Clear() {
	em.handlers = nil
}
