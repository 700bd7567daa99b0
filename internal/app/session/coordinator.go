/*
Package session contains the core logic of the session state coordinator.

This file defines the Coordinator, the single goroutine that owns the entity store and
the connection registry. Transport goroutines talk to it exclusively through channels,
so every state transition runs serialized and the store needs no locks.
*/
package session

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"stamprally/internal/pkg/auth/token"
	"stamprally/internal/pkg/errs"
	"stamprally/internal/pkg/logx"
	"stamprally/internal/pkg/randx"
)

type attachRequest struct {
	conn      Conn
	resumedID uuid.UUID
	resume    bool
	reply     chan uuid.UUID
}

type detachRequest struct {
	userID uuid.UUID
	conn   Conn
}

type inboundRequest struct {
	senderID uuid.UUID
	raw      []byte
}

// Coordinator multiplexes every session mutation onto one goroutine.
type Coordinator struct {
	store      *Store
	registry   *Registry
	notifier   *Notifier
	dispatcher *Dispatcher
	secret     string

	attachCh  chan attachRequest
	detachCh  chan detachRequest
	inboundCh chan inboundRequest

	// done is closed when Run returns so transport goroutines never block on a
	// channel nobody drains anymore.
	done chan struct{}

	logger zerolog.Logger
}

// ErrStopped is returned by Attach once the run loop has exited.
var ErrStopped = errors.New("session coordinator is stopped")

// NewCoordinator wires a coordinator over the given store and handler set.
// secret signs the resume tokens handed out on connect.
func NewCoordinator(store *Store, registry *Registry, notifier *Notifier, handlers *Handlers, secret string) *Coordinator {
	return &Coordinator{
		store:      store,
		registry:   registry,
		notifier:   notifier,
		dispatcher: NewDispatcher(handlers),
		secret:     secret,
		attachCh:   make(chan attachRequest),
		detachCh:   make(chan detachRequest, 16),
		inboundCh:  make(chan inboundRequest, 64),
		done:       make(chan struct{}),
		logger:     logx.Logger().With().Str("component", "Coordinator").Logger(),
	}
}

// Run owns the store and registry until ctx is canceled. On shutdown every remaining
// connection is kicked so their pumps unwind.
func (c *Coordinator) Run(ctx context.Context) {
	c.logger.Info().Msg("coordinator started")
	defer close(c.done)

	for {
		select {
		case req := <-c.attachCh:
			req.reply <- c.handleAttach(req)

		case req := <-c.detachCh:
			c.handleDetach(req)

		case req := <-c.inboundCh:
			c.handleInbound(req)

		case <-ctx.Done():
			c.logger.Info().Msg("coordinator stopping, closing remaining connections")
			c.registry.Each(func(id uuid.UUID, conn Conn) {
				conn.Kick("Server is shutting down.")
			})
			return
		}
	}
}

// Attach registers a new connection and returns the identifier the peer is bound to.
// It blocks until the run loop has bound the connection, so the caller may start its
// read loop knowing every inbound frame will find a registered sender. A valid resume
// token restores the previous identity; otherwise a fresh one is minted.
func (c *Coordinator) Attach(ctx context.Context, conn Conn, resumeToken string) (uuid.UUID, error) {
	req := attachRequest{
		conn:  conn,
		reply: make(chan uuid.UUID, 1),
	}

	if resumeToken != "" {
		resumedID, err := token.Parse(resumeToken, c.secret)
		if err != nil {
			// An expired or forged token is not fatal, the peer simply starts over.
			c.logger.Warn().Err(err).Msg("resume token rejected, issuing a fresh identity")
		} else {
			req.resumedID = resumedID
			req.resume = true
		}
	}

	select {
	case c.attachCh <- req:
	case <-c.done:
		return uuid.Nil, ErrStopped
	case <-ctx.Done():
		return uuid.Nil, ctx.Err()
	}

	select {
	case id := <-req.reply:
		return id, nil
	case <-c.done:
		return uuid.Nil, ErrStopped
	case <-ctx.Done():
		return uuid.Nil, ctx.Err()
	}
}

// Detach reports that the connection bound to the identifier is gone.
// After shutdown the report is dropped; there is no state left to clean up.
func (c *Coordinator) Detach(userID uuid.UUID, conn Conn) {
	select {
	case c.detachCh <- detachRequest{userID: userID, conn: conn}:
	case <-c.done:
	}
}

// Inbound hands a raw frame from the identifier's read loop to the run loop.
// After shutdown the frame is dropped.
func (c *Coordinator) Inbound(senderID uuid.UUID, raw []byte) {
	select {
	case c.inboundCh <- inboundRequest{senderID: senderID, raw: raw}:
	case <-c.done:
	}
}

// handleAttach runs on the Run goroutine.
func (c *Coordinator) handleAttach(req attachRequest) uuid.UUID {
	id := randx.NewID()
	c.registry.Bind(id, req.conn)

	resumed := false
	if req.resume {
		if _, known := c.store.GetUser(req.resumedID); known {
			// The restored identity wins: the fresh binding moves onto it and any
			// lingering connection under it is kicked.
			c.registry.Rebind(id, req.resumedID)
			id = req.resumedID
			resumed = true
		} else {
			c.logger.Warn().
				Str("user_id", req.resumedID.String()).
				Msg("resume token names an unknown session, issuing a fresh identity")
		}
	}

	if !resumed {
		c.store.PutUser(User{ID: id})
	}

	signed, err := token.Generate(id, c.secret, token.ResumeExpiration)
	if err != nil {
		// The session works without a resume token, reconnection just won't restore it.
		logx.Error(err, "failed to sign a resume token", "user_id", id.String())
	}

	connected := NewEvent(TypeConnect, ConnectPayload{
		UserID:      id.String(),
		ResumeToken: signed,
	})
	c.notifier.SendTo(id, &connected)

	if resumed {
		c.notifyGroupMates(id, TypeReconnect)
	}

	c.logger.Info().
		Str("user_id", id.String()).
		Bool("resumed", resumed).
		Msg("participant attached")
	return id
}

// handleDetach runs on the Run goroutine.
func (c *Coordinator) handleDetach(req detachRequest) {
	// A connection replaced through a resume must not unbind its successor.
	if !c.registry.UnbindConn(req.userID, req.conn) {
		return
	}

	// The user record survives so a resume token can restore the session later.
	c.notifyGroupMates(req.userID, TypeDisconnect)
	c.logger.Info().Str("user_id", req.userID.String()).Msg("participant detached")
}

// handleInbound runs on the Run goroutine.
func (c *Coordinator) handleInbound(req inboundRequest) {
	msg, customErr := DecodeEnvelope(req.raw)
	if customErr != nil {
		// The frame's own correlation id is unusable, so the reply gets a fresh one.
		reply := NewErrorEnvelope(randx.NewCorrelationID(), customErr)
		c.notifier.SendTo(req.senderID, &reply)
		return
	}

	response := c.dispatcher.Handle(req.senderID, msg)
	c.notifier.SendTo(req.senderID, &response)
}

// notifyGroupMates tells the other members of the user's group that its presence changed.
func (c *Coordinator) notifyGroupMates(userID uuid.UUID, event MessageType) {
	user, ok := c.store.GetUser(userID)
	if !ok || user.GroupID == nil {
		return
	}
	group, ok := c.store.GetGroup(*user.GroupID)
	if !ok {
		logx.Error(errs.NewError(errs.ErrStoreInconsistent), "member points at a missing group",
			"user_id", userID.String(), "group_id", user.GroupID.String())
		return
	}

	env := NewEvent(event, MemberEventPayload{UserID: userID.String()})
	c.notifier.Broadcast(group.MembersExcept(userID), &env)
}
