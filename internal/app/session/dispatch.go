/*
Package session contains the core logic of the session state coordinator.

This file defines the message dispatcher: a fixed table mapping each envelope type to
its state-transition handler, resolved once at startup. The dispatcher is the single
seam where unexpected handler failures become protocol-visible errors.
*/
package session

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"stamprally/internal/pkg/errs"
	"stamprally/internal/pkg/logx"
)

// HandlerFunc is the common contract every message handler implements: given the
// sender and the raw payload, produce response data or a taxonomy error.
type HandlerFunc func(senderID uuid.UUID, data json.RawMessage) (any, *errs.CustomError)

// Dispatcher routes an inbound envelope to the handler matching its declared type.
type Dispatcher struct {
	handlers map[MessageType]HandlerFunc
	logger   zerolog.Logger
}

// NewDispatcher builds the dispatch table over the given handler set.
func NewDispatcher(h *Handlers) *Dispatcher {
	return &Dispatcher{
		handlers: map[MessageType]HandlerFunc{
			TypeGetUserInfo:    h.GetUserInfo,
			TypeSetUserInfo:    h.SetUserInfo,
			TypeSetUserReady:   h.SetUserReady,
			TypeGetGroupInfo:   h.GetGroupInfo,
			TypeSetGroupInfo:   h.SetGroupInfo,
			TypeSetGroupReady:  h.SetGroupReady,
			TypeJoinGroup:      h.JoinGroup,
			TypeLeaveGroup:     h.LeaveGroup,
			TypeDeleteGroup:    h.DeleteGroup,
			TypeGetTeams:       h.GetTeams,
			TypeSetTeams:       h.SetTeams,
			TypeStampsStart:    h.StampsStart,
			TypeStampsProgress: h.StampsProgress,
		},
		logger: logx.Logger().With().Str("component", "Dispatcher").Logger(),
	}
}

// Handle routes the inbound message and returns the correlated response envelope.
// Unknown type tags yield an error response. A panic raised by a handler is caught
// here and converted to an error response carrying the same correlation id; handler
// failures never propagate to the transport loop and never crash the session.
func (d *Dispatcher) Handle(senderID uuid.UUID, msg InboundMessage) (response Envelope) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error().
				Str("sender_id", senderID.String()).
				Str("msg_type", string(msg.Type)).
				Any("panic", r).
				Msg("handler panicked")
			response = NewErrorEnvelope(msg.RequestID, errs.NewError(errs.ErrUnknown))
		}
	}()

	handler, ok := d.handlers[msg.Type]
	if !ok {
		d.logger.Warn().
			Str("sender_id", senderID.String()).
			Str("msg_type", string(msg.Type)).
			Msg("no suitable handler found")
		return NewErrorEnvelope(msg.RequestID, errs.NewError(errs.ErrUnknownMessageType))
	}

	d.logger.Debug().
		Str("sender_id", senderID.String()).
		Str("msg_type", string(msg.Type)).
		Msg("dispatching")

	result, customErr := handler(senderID, msg.Data)
	if customErr != nil {
		// Internal errors point at store inconsistencies and are logged loudly;
		// user-facing errors are part of the normal protocol flow.
		if customErr.Internal() {
			d.logger.Error().
				Err(fmt.Errorf("%s", customErr.Message)).
				Str("sender_id", senderID.String()).
				Str("msg_type", string(msg.Type)).
				Int("code", customErr.Code).
				Msg("handler reported an internal error")
		} else {
			d.logger.Warn().
				Str("sender_id", senderID.String()).
				Str("msg_type", string(msg.Type)).
				Int("code", customErr.Code).
				Msg("handler rejected the request")
		}
		return NewErrorEnvelope(msg.RequestID, customErr)
	}

	return NewSuccess(msg.RequestID, result)
}
