package session

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"stamprally/internal/pkg/errs"
)

// fakeConn records everything enqueued on it. Safe for concurrent use so the
// coordinator tests can share it with the run goroutine.
type fakeConn struct {
	mu        sync.Mutex
	envelopes []Envelope
	kicks     []string
	full      bool
}

func (c *fakeConn) Enqueue(env Envelope) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.full {
		return false
	}
	c.envelopes = append(c.envelopes, env)
	return true
}

func (c *fakeConn) Kick(reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.kicks = append(c.kicks, reason)
}

// received returns a copy of everything enqueued so far.
func (c *fakeConn) received() []Envelope {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Envelope(nil), c.envelopes...)
}

// receivedOfType filters the recorded envelopes by message type.
func (c *fakeConn) receivedOfType(t MessageType) []Envelope {
	var matched []Envelope
	for _, env := range c.received() {
		if env.Type == t {
			matched = append(matched, env)
		}
	}
	return matched
}

func (c *fakeConn) kicked() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.kicks...)
}

// sequentialSampler always picks the first count pool indexes, in order.
func sequentialSampler(poolSize, count int) []int {
	if count > poolSize {
		count = poolSize
	}
	indexes := make([]int, count)
	for i := range indexes {
		indexes[i] = i
	}
	return indexes
}

// testQuestions builds a pool of n distinct questions.
func testQuestions(n int) []Question {
	questions := make([]Question, n)
	for i := range questions {
		questions[i] = Question{
			Text:             fmt.Sprintf("question-%d", i),
			CorrectAnswer:    fmt.Sprintf("answer-%d", i),
			IncorrectAnswers: []string{"wrong-a", "wrong-b", "wrong-c"},
		}
	}
	return questions
}

const testQuestionsPerGame = 3

// fixture wires a handler set over a fresh store and a registry of fake connections.
type fixture struct {
	store    *Store
	registry *Registry
	notifier *Notifier
	handlers *Handlers
	conns    map[uuid.UUID]*fakeConn
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := NewStore(testQuestions(10))
	registry := NewRegistry()
	notifier := NewNotifier(registry)

	return &fixture{
		store:    store,
		registry: registry,
		notifier: notifier,
		handlers: NewHandlers(store, notifier, sequentialSampler, testQuestionsPerGame),
		conns:    make(map[uuid.UUID]*fakeConn),
	}
}

// connect simulates an accepted connection: a fresh user record plus a bound fake conn.
func (f *fixture) connect(t *testing.T) uuid.UUID {
	t.Helper()

	id := uuid.New()
	f.store.PutUser(User{ID: id})

	conn := &fakeConn{}
	f.registry.Bind(id, conn)
	f.conns[id] = conn

	return id
}

// createGroup has the admin create a group and returns the new group's id.
func (f *fixture) createGroup(t *testing.T, adminID uuid.UUID, name string) uuid.UUID {
	t.Helper()

	_, customErr := f.handlers.SetGroupInfo(adminID, payload(t, map[string]any{"groupName": name}))
	require.Nil(t, customErr)

	admin, ok := f.store.GetUser(adminID)
	require.True(t, ok)
	require.NotNil(t, admin.GroupID)
	return *admin.GroupID
}

// join has the user join the group through the handler.
func (f *fixture) join(t *testing.T, userID, groupID uuid.UUID) {
	t.Helper()

	_, customErr := f.handlers.JoinGroup(userID, payload(t, map[string]any{"groupId": groupID.String()}))
	require.Nil(t, customErr)
}

// setTeams replaces the group partition through the handler, failing the test on error.
func (f *fixture) setTeams(t *testing.T, adminID uuid.UUID, teams map[int][]uuid.UUID) {
	t.Helper()

	_, customErr := f.handlers.SetTeams(adminID, teamsPayload(t, teams))
	require.Nil(t, customErr)
}

// setReady flips the user's individual readiness through the handler.
func (f *fixture) setReady(t *testing.T, userID uuid.UUID, ready bool) {
	t.Helper()

	_, customErr := f.handlers.SetUserReady(userID, payload(t, map[string]any{"ready": ready}))
	require.Nil(t, customErr)
}

// markGroupReady flips the group readiness flag through the handler.
func (f *fixture) markGroupReady(t *testing.T, adminID uuid.UUID, ready bool) {
	t.Helper()

	_, customErr := f.handlers.SetGroupReady(adminID, payload(t, map[string]any{"ready": ready}))
	require.Nil(t, customErr)
}

// payload marshals the given value into a raw JSON handler payload.
func payload(t *testing.T, v any) json.RawMessage {
	t.Helper()

	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return raw
}

// teamsPayload builds the set_teams request body from a teamID -> members map.
func teamsPayload(t *testing.T, teams map[int][]uuid.UUID) json.RawMessage {
	t.Helper()

	entries := make([]map[string]any, 0, len(teams))
	for teamID, members := range teams {
		ids := make([]string, len(members))
		for i, m := range members {
			ids[i] = m.String()
		}
		entries = append(entries, map[string]any{"teamId": teamID, "teamMembers": ids})
	}
	return payload(t, entries)
}

// requireCode asserts that the handler failed with the given taxonomy code.
func requireCode(t *testing.T, customErr *errs.CustomError, code int) {
	t.Helper()

	require.NotNil(t, customErr)
	require.Equal(t, code, customErr.Code)
}
