package session

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestRegistryBindUnbind(t *testing.T) {
	registry := NewRegistry()
	id := uuid.New()
	conn := &fakeConn{}

	_, ok := registry.Get(id)
	require.False(t, ok)

	registry.Bind(id, conn)
	bound, ok := registry.Get(id)
	require.True(t, ok)
	require.Same(t, conn, bound.(*fakeConn))

	require.True(t, registry.Unbind(id))
	require.False(t, registry.Unbind(id), "second unbind finds nothing")
}

func TestRegistryUnbindConnStaleGuard(t *testing.T) {
	registry := NewRegistry()
	id := uuid.New()
	oldConn := &fakeConn{}
	newConn := &fakeConn{}

	registry.Bind(id, oldConn)
	registry.Bind(id, newConn)

	// The replaced connection's cleanup must not evict its successor.
	require.False(t, registry.UnbindConn(id, oldConn))
	_, ok := registry.Get(id)
	require.True(t, ok)

	require.True(t, registry.UnbindConn(id, newConn))
	_, ok = registry.Get(id)
	require.False(t, ok)
}

func TestRegistryRebind(t *testing.T) {
	t.Run("moves the handle onto the restored identity", func(t *testing.T) {
		registry := NewRegistry()
		freshID := uuid.New()
		restoredID := uuid.New()
		conn := &fakeConn{}

		registry.Bind(freshID, conn)
		registry.Rebind(freshID, restoredID)

		_, ok := registry.Get(freshID)
		require.False(t, ok, "old entry is gone")

		bound, ok := registry.Get(restoredID)
		require.True(t, ok)
		require.Same(t, conn, bound.(*fakeConn))
	})

	t.Run("kicks a lingering connection on the restored identity", func(t *testing.T) {
		registry := NewRegistry()
		freshID := uuid.New()
		restoredID := uuid.New()
		fresh := &fakeConn{}
		stale := &fakeConn{}

		registry.Bind(restoredID, stale)
		registry.Bind(freshID, fresh)
		registry.Rebind(freshID, restoredID)

		require.Len(t, stale.kicked(), 1)
		require.Empty(t, fresh.kicked())

		bound, ok := registry.Get(restoredID)
		require.True(t, ok)
		require.Same(t, fresh, bound.(*fakeConn))
	})

	t.Run("rebind of an unbound identifier is ignored", func(t *testing.T) {
		registry := NewRegistry()
		target := uuid.New()
		existing := &fakeConn{}
		registry.Bind(target, existing)

		registry.Rebind(uuid.New(), target)

		bound, ok := registry.Get(target)
		require.True(t, ok)
		require.Same(t, existing, bound.(*fakeConn), "existing binding survives")
		require.Empty(t, existing.kicked())
	})
}

func TestNotifier(t *testing.T) {
	t.Run("delivers to bound recipients and skips unbound ones", func(t *testing.T) {
		registry := NewRegistry()
		notifier := NewNotifier(registry)

		boundID := uuid.New()
		conn := &fakeConn{}
		registry.Bind(boundID, conn)

		env := NewEvent(TypeJoinGroup, MemberEventPayload{UserID: boundID.String()})
		notifier.Broadcast(map[uuid.UUID]struct{}{
			boundID:    {},
			uuid.New(): {},
		}, &env)

		require.Len(t, conn.received(), 1)
	})

	t.Run("a full queue drops the message without failing the caller", func(t *testing.T) {
		registry := NewRegistry()
		notifier := NewNotifier(registry)

		id := uuid.New()
		conn := &fakeConn{full: true}
		registry.Bind(id, conn)

		env := NewEvent(TypeDisconnect, MemberEventPayload{UserID: id.String()})
		notifier.SendTo(id, &env)

		require.Empty(t, conn.received())
	})
}
