// Package events is the permission-aware change-notification fan-out:
// listeners subscribe to a path and receive events for that path and
// everything below it, filtered by what their token may read.
package events

import (
	"sync"

	"github.com/driveauth/driveauth"
)

// Resolver gates delivery. Satisfied by *auth.Service.
type Resolver interface {
	CanRead(bearer, path string) bool
}

// Router keeps the listener registry keyed by normalized path. It is
// owned by a single service instance; there is no package-level state.
type Router struct {
	mu        sync.Mutex
	resolver  Resolver
	listeners map[string][]*Subscription
}

func NewRouter(resolver Resolver) *Router {
	return &Router{
		resolver:  resolver,
		listeners: make(map[string][]*Subscription),
	}
}

// Subscription is a registered listener. Events arrive on the channel
// returned by Events; the channel closes when the subscription is
// cancelled. Cancel is idempotent and must be called when the
// underlying connection goes away, however it goes away.
type Subscription struct {
	router *Router
	path   string
	bearer string
	events chan driveauth.Event
	closed bool
}

// Subscribe registers a listener at path with the given bearer token.
func (r *Router) Subscribe(path, bearer string) *Subscription {
	sub := &Subscription{
		router: r,
		path:   driveauth.ParsePath(path).String(),
		bearer: bearer,
		events: make(chan driveauth.Event, 8),
	}

	r.mu.Lock()
	r.listeners[sub.path] = append(r.listeners[sub.path], sub)
	r.mu.Unlock()

	return sub
}

func (sub *Subscription) Events() <-chan driveauth.Event {
	return sub.events
}

// Cancel deregisters the listener and closes its channel.
func (sub *Subscription) Cancel() {
	r := sub.router
	r.mu.Lock()
	defer r.mu.Unlock()

	if sub.closed {
		return
	}
	sub.closed = true

	subs := r.listeners[sub.path]
	for i, s := range subs {
		if s == sub {
			r.listeners[sub.path] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	if len(r.listeners[sub.path]) == 0 {
		delete(r.listeners, sub.path)
	}

	close(sub.events)
}

// Emit fans the event out to every listener registered at the path or
// any of its ancestors whose token may read the full affected path.
// The read check is on the original path, not the ancestor being
// watched, so a listener never sees an event for something it cannot
// read. Delivery is non-blocking; order across listeners is not
// guaranteed.
func (r *Router) Emit(path string, event driveauth.Event) {
	p := driveauth.ParsePath(path)
	full := p.String()
	event.Path = full

	r.mu.Lock()
	var candidates []*Subscription
	for depth := len(p); depth >= 0; depth-- {
		candidates = append(candidates, r.listeners[p.Ancestor(depth).String()]...)
	}
	r.mu.Unlock()

	for _, sub := range candidates {
		// The permission check may hit the stores, keep it outside the
		// registry lock.
		if !r.resolver.CanRead(sub.bearer, full) {
			continue
		}

		r.mu.Lock()
		if !sub.closed {
			select {
			case sub.events <- event:
			default:
				// Listener is not draining; dropping beats blocking the
				// emitter.
			}
		}
		r.mu.Unlock()
	}
}
