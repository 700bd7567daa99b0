/*
Package session contains the core logic of the session state coordinator.

This file defines the Notifier, which delivers a message to one participant or to a
computed set of participants over the connection registry.
*/
package session

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"stamprally/internal/pkg/logx"
)

// Notifier delivers envelopes to connected participants.
type Notifier struct {
	registry *Registry
	logger   zerolog.Logger
}

// NewNotifier constructs a Notifier on top of the given registry.
func NewNotifier(registry *Registry) *Notifier {
	return &Notifier{
		registry: registry,
		logger:   logx.Logger().With().Str("component", "Notifier").Logger(),
	}
}

// SendTo delivers the envelope to a single participant.
// An identifier with no bound transport is not an error: the message is silently
// dropped, since a disconnected peer simply misses the update. A nil envelope is a
// programming fault and must never reach the wire.
func (n *Notifier) SendTo(userID uuid.UUID, env *Envelope) {
	if env == nil {
		logx.Error(fmt.Errorf("attempted to send a nil envelope"), "SendTo called without a message", "user_id", userID.String())
		return
	}

	conn, ok := n.registry.Get(userID)
	if !ok {
		n.logger.Debug().Str("user_id", userID.String()).Msg("recipient not connected, message dropped")
		return
	}

	if !conn.Enqueue(*env) {
		n.logger.Warn().
			Str("user_id", userID.String()).
			Str("msg_type", string(env.Type)).
			Msg("recipient queue full, message dropped")
	}
}

// Broadcast delivers the envelope to every member of the set, sequentially.
// Delivery order is unspecified and one recipient's failure never blocks the others.
func (n *Notifier) Broadcast(userIDs map[uuid.UUID]struct{}, env *Envelope) {
	if env == nil {
		logx.Error(fmt.Errorf("attempted to broadcast a nil envelope"), "Broadcast called without a message")
		return
	}

	for userID := range userIDs {
		n.SendTo(userID, env)
	}
}
