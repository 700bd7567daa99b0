/*
Package session contains the core logic of the session state coordinator.

This file defines the connection registry, which maps a live participant identifier to
its transport handle. User and group records never embed a transport handle; the
registry is the only place the two meet.
*/
package session

import (
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"stamprally/internal/pkg/logx"
)

// Conn is the transport handle bound to a connected participant. Implementations must
// make Enqueue safe to call from any goroutine and must never block the caller.
type Conn interface {
	// Enqueue queues an encoded envelope for delivery. It reports false when the
	// message had to be dropped (peer too slow, queue full).
	Enqueue(env Envelope) bool

	// Kick closes the underlying transport because the session identity was taken
	// over by a newer connection.
	Kick(reason string)
}

// Registry maps participant identifiers to transport handles. It is confined to the
// coordinator's Run goroutine; registry mutation is never concurrent.
type Registry struct {
	conns  map[uuid.UUID]Conn
	logger zerolog.Logger
}

// NewRegistry constructs an empty connection registry.
func NewRegistry() *Registry {
	return &Registry{
		conns:  make(map[uuid.UUID]Conn),
		logger: logx.Logger().With().Str("component", "Registry").Logger(),
	}
}

// Bind associates the identifier with the transport handle.
func (r *Registry) Bind(id uuid.UUID, conn Conn) {
	r.conns[id] = conn
	r.logger.Debug().Str("user_id", id.String()).Int("connections", len(r.conns)).Msg("bound")
}

// Unbind removes the identifier's binding. It reports whether a binding existed so
// callers can decide whether peers need a disconnect notice.
func (r *Registry) Unbind(id uuid.UUID) bool {
	if _, ok := r.conns[id]; !ok {
		return false
	}
	delete(r.conns, id)
	r.logger.Debug().Str("user_id", id.String()).Int("connections", len(r.conns)).Msg("unbound")
	return true
}

// UnbindConn removes the identifier's binding only if it still points at the given
// handle. A stale connection that was replaced by a resume must not evict its successor.
func (r *Registry) UnbindConn(id uuid.UUID, conn Conn) bool {
	current, ok := r.conns[id]
	if !ok || current != conn {
		return false
	}
	delete(r.conns, id)
	return true
}

// Rebind restores a session after reconnection: it moves the transport handle from the
// old identifier's entry onto the new identifier's entry and removes the old entry.
// A stale handle still bound under the new identifier is kicked first.
func (r *Registry) Rebind(oldID, newID uuid.UUID) {
	conn, ok := r.conns[oldID]
	if !ok {
		r.logger.Error().Str("user_id", oldID.String()).Msg("rebind of an unbound identifier")
		return
	}

	if stale, bound := r.conns[newID]; bound {
		r.logger.Warn().
			Str("user_id", newID.String()).
			Msg("identity already connected, replacing the old connection")
		stale.Kick("Session resumed from a new connection.")
	}

	delete(r.conns, oldID)
	r.conns[newID] = conn

	r.logger.Debug().
		Str("old_id", oldID.String()).
		Str("user_id", newID.String()).
		Msg("rebound")
}

// Get returns the transport handle bound to the identifier, if any.
func (r *Registry) Get(id uuid.UUID) (Conn, bool) {
	conn, ok := r.conns[id]
	return conn, ok
}

// Each calls fn for every current binding. Used during shutdown.
func (r *Registry) Each(fn func(id uuid.UUID, conn Conn)) {
	for id, conn := range r.conns {
		fn(id, conn)
	}
}
