/*
Package session contains the core logic of the session state coordinator.

This file defines the Client struct, representing an active WebSocket connection. It
manages the connection's lifecycle and its message pumps (ReadPump and WritePump), and
hands every inbound frame to the Coordinator.
*/
package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"stamprally/internal/pkg/logx"
)

const (
	// timeout duration for writing to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time allowed for the server to wait for a Pong message from the client.
	pongWait = 60 * time.Second

	// frequency at which the server sends a Ping message.
	pingPeriod = (pongWait * 9) / 10

	// maximum allowed size (in bytes) of a message sent by the client.
	maxMessageSize = 8192

	// capacity of the per-connection outbound queue.
	sendQueueSize = 256

	// WsCloseCodeSessionKicked is a custom WebSocket Close Code (4000-4999 range)
	// used to signal the client that the session was replaced by a new connection.
	WsCloseCodeSessionKicked = 4001
)

// Client represents an active WebSocket connection. It implements Conn; the send queue
// is never closed, so Enqueue stays safe no matter when the peer goes away.
type Client struct {
	// the coordinator this connection reports to.
	coordinator *Coordinator

	// underlying WebSocket connection object.
	conn *websocket.Conn

	// identifier the coordinator bound this connection to.
	id uuid.UUID

	// a buffered channel used to queue envelopes waiting to be sent to the peer.
	send chan Envelope

	// closed exactly once when the session is taken over or the server stops.
	kicked     chan struct{}
	kickOnce   sync.Once
	kickReason string

	// structured logger with connection context.
	logger zerolog.Logger
}

// Serve attaches the WebSocket connection to the coordinator and runs its pumps.
// It blocks until the connection is gone; the caller's HTTP handler goroutine carries
// the read loop, the write loop gets its own goroutine.
func Serve(ctx context.Context, coordinator *Coordinator, wsConn *websocket.Conn, resumeToken string) error {
	client := &Client{
		coordinator: coordinator,
		conn:        wsConn,
		send:        make(chan Envelope, sendQueueSize),
		kicked:      make(chan struct{}),
		logger:      logx.Logger().With().Str("component", "Client").Logger(),
	}

	id, err := coordinator.Attach(ctx, client, resumeToken)
	if err != nil {
		wsConn.Close()
		return err
	}

	client.id = id
	client.logger = client.logger.With().Str("user_id", id.String()).Logger()

	go client.WritePump()
	client.ReadPump()
	return nil
}

// Enqueue implements Conn. It never blocks: when the queue is full the envelope is
// dropped and the caller is told so.
func (c *Client) Enqueue(env Envelope) bool {
	select {
	case c.send <- env:
		return true
	default:
		return false
	}
}

// Kick implements Conn. The actual close frame is written by WritePump, which owns the
// connection's write side; calling Kick twice is harmless.
func (c *Client) Kick(reason string) {
	c.kickOnce.Do(func() {
		c.kickReason = reason
		close(c.kicked)
	})
}

// ReadPump handles reading messages from the WebSocket connection.
// It handles heartbeats (Pong) and performs cleanup upon connection closure.
func (c *Client) ReadPump() {
	defer c.cleanupOnDisconnect()

	c.conn.SetReadLimit(maxMessageSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, messageBytes, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info().Err(err).Msg("Error reading message (Client close/going away)")
			}
			break
		}

		c.coordinator.Inbound(c.id, messageBytes)
	}
}

// cleanupOnDisconnect handles the necessary cleanup steps when the client's ReadPump terminates.
func (c *Client) cleanupOnDisconnect() {
	c.logger.Info().Msg("Client connection cleanup starting.")

	c.coordinator.Detach(c.id, c)

	// close the connection; this also unwinds WritePump
	if err := c.conn.Close(); err != nil {
		c.logger.Debug().Err(err).Msg("Client connection close error")
	}
}

// WritePump handles writing envelopes from the Client.send queue to the WebSocket connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()

		// ensure the connection is closed on exit
		if err := c.conn.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Client connection close error in WritePump")
		}
	}()

	for {
		select {
		case env := <-c.send:
			if !c.writeQueuedEnvelope(env) {
				return
			}

		case <-ticker.C:
			if !c.writePingMessage() {
				return
			}

		case <-c.kicked:
			c.writeKickMessage()
			return
		}
	}
}

// writeQueuedEnvelope writes one envelope pulled from the send queue to the WebSocket.
// Returns true if the WritePump loop should continue, false if it should terminate.
func (c *Client) writeQueuedEnvelope(env Envelope) bool {
	messageBytes, err := json.Marshal(env)
	if err != nil {
		c.logger.Error().Err(err).Str("msg_type", string(env.Type)).Msg("Error marshaling envelope")
		return true
	}

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline")
		return false
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, messageBytes); err != nil {
		c.logger.Error().Err(err).Msg("Error writing message")
		return false
	}

	return true
}

// writePingMessage sends a periodic WebSocket Ping message to maintain the connection heartbeat.
// Returns false if the WritePump loop should terminate due to write failure.
func (c *Client) writePingMessage() bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline on ping")
		return false
	}

	if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		c.logger.Error().Err(err).Msg("Error writing ping")
		return false
	}

	return true
}

// writeKickMessage sends a custom WebSocket Close Frame (Code 4001) indicating that
// the session was replaced, then lets the pump terminate.
func (c *Client) writeKickMessage() {
	c.logger.Warn().
		Int("close_code", WsCloseCodeSessionKicked).
		Str("reason", c.kickReason).
		Msg("Sending WS Kick message and closing connection.")

	closeMessage := websocket.FormatCloseMessage(WsCloseCodeSessionKicked, c.kickReason)

	c.conn.SetWriteDeadline(time.Now().Add(writeWait))

	if err := c.conn.WriteMessage(websocket.CloseMessage, closeMessage); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to send WS 4001 Close Message.")
	}
}
