package session

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"stamprally/internal/pkg/errs"
)

const coordinatorTestSecret = "coordinator-test-secret"

// coordinatorFixture runs a coordinator for the duration of the test.
type coordinatorFixture struct {
	store       *Store
	coordinator *Coordinator
}

func newCoordinatorFixture(t *testing.T) *coordinatorFixture {
	t.Helper()

	store := NewStore(testQuestions(10))
	registry := NewRegistry()
	notifier := NewNotifier(registry)
	handlers := NewHandlers(store, notifier, sequentialSampler, testQuestionsPerGame)
	coordinator := NewCoordinator(store, registry, notifier, handlers, coordinatorTestSecret)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go coordinator.Run(ctx)

	return &coordinatorFixture{store: store, coordinator: coordinator}
}

// attach connects a fake conn and returns it with its bound identity and resume token.
func (f *coordinatorFixture) attach(t *testing.T, resumeToken string) (*fakeConn, uuid.UUID, string) {
	t.Helper()

	conn := &fakeConn{}
	id, err := f.coordinator.Attach(context.Background(), conn, resumeToken)
	require.NoError(t, err)

	// Attach is synchronous, so the connect envelope is already queued.
	connects := conn.receivedOfType(TypeConnect)
	require.Len(t, connects, 1)
	connected, ok := connects[0].Data.(ConnectPayload)
	require.True(t, ok)
	require.Equal(t, id.String(), connected.UserID)

	return conn, id, connected.ResumeToken
}

// awaitResponse waits for the first success or error envelope carrying the request id.
func awaitResponse(t *testing.T, conn *fakeConn, requestID uuid.UUID) Envelope {
	t.Helper()

	var found Envelope
	require.Eventually(t, func() bool {
		for _, env := range conn.received() {
			if (env.Type == TypeSuccess || env.Type == TypeError) && env.RequestID == requestID {
				found = env
				return true
			}
		}
		return false
	}, 2*time.Second, 5*time.Millisecond)
	return found
}

func TestCoordinatorAttach(t *testing.T) {
	f := newCoordinatorFixture(t)

	conn, id, token := f.attach(t, "")
	require.NotEqual(t, uuid.Nil, id)
	require.NotEmpty(t, token, "connect carries a resume token")

	// The identity is queryable over the protocol straight away.
	requestID := uuid.New()
	f.coordinator.Inbound(id, []byte(`{"type":"get_user_info","data":{"userId":"`+id.String()+`"},"requestId":"`+requestID.String()+`"}`))

	response := awaitResponse(t, conn, requestID)
	require.Equal(t, TypeSuccess, response.Type)
	user, ok := response.Data.(UserPayload)
	require.True(t, ok)
	require.Equal(t, id.String(), user.UserID)
}

func TestCoordinatorInboundProtocolErrors(t *testing.T) {
	f := newCoordinatorFixture(t)
	conn, id, _ := f.attach(t, "")

	f.coordinator.Inbound(id, []byte(`{broken`))

	var errorEnv Envelope
	require.Eventually(t, func() bool {
		envs := conn.receivedOfType(TypeError)
		if len(envs) == 0 {
			return false
		}
		errorEnv = envs[0]
		return true
	}, 2*time.Second, 5*time.Millisecond)

	errorPayload, ok := errorEnv.Data.(ErrorPayload)
	require.True(t, ok)
	require.Equal(t, errs.ErrInvalidJSON, errorPayload.Code)
	require.NotEqual(t, uuid.Nil, errorEnv.RequestID, "reply carries a fresh correlation id")
}

func TestCoordinatorResume(t *testing.T) {
	t.Run("a valid token restores the identity and kicks the old connection", func(t *testing.T) {
		f := newCoordinatorFixture(t)

		oldConn, id, token := f.attach(t, "")

		newConn, resumedID, newToken := f.attach(t, token)
		require.Equal(t, id, resumedID, "restored identity wins")
		require.NotEmpty(t, newToken)

		require.Len(t, oldConn.kicked(), 1, "lingering connection is kicked on takeover")
		require.Empty(t, newConn.kicked())

		// The restored connection speaks for the original identity.
		requestID := uuid.New()
		f.coordinator.Inbound(resumedID, []byte(`{"type":"get_user_info","data":{"userId":"`+id.String()+`"},"requestId":"`+requestID.String()+`"}`))
		response := awaitResponse(t, newConn, requestID)
		require.Equal(t, TypeSuccess, response.Type)
	})

	t.Run("a garbage token falls back to a fresh identity", func(t *testing.T) {
		f := newCoordinatorFixture(t)

		_, id, _ := f.attach(t, "not-a-token")
		require.NotEqual(t, uuid.Nil, id)
	})

	t.Run("a token naming a forgotten session falls back to a fresh identity", func(t *testing.T) {
		f := newCoordinatorFixture(t)

		// Issue a token against one coordinator, present it to another with an empty store.
		_, _, token := f.attach(t, "")
		other := newCoordinatorFixture(t)

		conn, id, _ := other.attach(t, token)
		require.NotEqual(t, uuid.Nil, id)
		require.Empty(t, conn.kicked())
	})
}

func TestCoordinatorDetach(t *testing.T) {
	f := newCoordinatorFixture(t)

	aliceConn, alice, _ := f.attach(t, "")
	bobConn, bob, _ := f.attach(t, "")

	// Put both in one group over the protocol so the disconnect has an audience.
	createID := uuid.New()
	f.coordinator.Inbound(alice, []byte(`{"type":"set_group_info","data":{"groupName":"rally"},"requestId":"`+createID.String()+`"}`))
	require.Equal(t, TypeSuccess, awaitResponse(t, aliceConn, createID).Type)

	user, ok := f.store.GetUser(alice)
	require.True(t, ok)
	require.NotNil(t, user.GroupID)

	joinID := uuid.New()
	f.coordinator.Inbound(bob, []byte(`{"type":"join_group","data":{"groupId":"`+user.GroupID.String()+`"},"requestId":"`+joinID.String()+`"}`))
	require.Equal(t, TypeSuccess, awaitResponse(t, bobConn, joinID).Type)

	f.coordinator.Detach(bob, bobConn)

	require.Eventually(t, func() bool {
		events := aliceConn.receivedOfType(TypeDisconnect)
		if len(events) != 1 {
			return false
		}
		announced, ok := events[0].Data.(MemberEventPayload)
		return ok && announced.UserID == bob.String()
	}, 2*time.Second, 5*time.Millisecond)

	// The record survives the disconnect so a resume can find it.
	_, ok = f.store.GetUser(bob)
	require.True(t, ok)
}

func TestCoordinatorShutdownKicksConnections(t *testing.T) {
	store := NewStore(testQuestions(10))
	registry := NewRegistry()
	notifier := NewNotifier(registry)
	handlers := NewHandlers(store, notifier, sequentialSampler, testQuestionsPerGame)
	coordinator := NewCoordinator(store, registry, notifier, handlers, coordinatorTestSecret)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		coordinator.Run(ctx)
		close(done)
	}()

	conn := &fakeConn{}
	_, err := coordinator.Attach(context.Background(), conn, "")
	require.NoError(t, err)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("coordinator did not stop")
	}

	require.Len(t, conn.kicked(), 1)
}

func TestCoordinatorStoppedNeverBlocksTransport(t *testing.T) {
	store := NewStore(testQuestions(10))
	registry := NewRegistry()
	notifier := NewNotifier(registry)
	handlers := NewHandlers(store, notifier, sequentialSampler, testQuestionsPerGame)
	coordinator := NewCoordinator(store, registry, notifier, handlers, coordinatorTestSecret)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		coordinator.Run(ctx)
		close(done)
	}()

	conn := &fakeConn{}
	id, err := coordinator.Attach(context.Background(), conn, "")
	require.NoError(t, err)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("coordinator did not stop")
	}

	// Enough calls to overflow both channel buffers; without a drop path the
	// goroutine would hang on a loop nobody drains anymore.
	returned := make(chan struct{})
	go func() {
		for range 32 {
			coordinator.Detach(id, conn)
		}
		for range 128 {
			coordinator.Inbound(id, []byte(`{broken`))
		}
		close(returned)
	}()

	select {
	case <-returned:
	case <-time.After(2 * time.Second):
		t.Fatal("transport calls blocked after shutdown")
	}

	_, err = coordinator.Attach(context.Background(), &fakeConn{}, "")
	require.ErrorIs(t, err, ErrStopped)
}
