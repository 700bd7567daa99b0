/*
Package session contains the core logic of the session state coordinator: the in-memory
entity store, the connection registry, the message dispatcher with its state-transition
handlers, and the notification discipline that keeps every connected participant's view
consistent.

This file defines the message envelope exchanged over the WebSocket channel, the closed
catalog of message types, and the wire payload structures. Field names follow the
protocol agreed with clients (camelCase).
*/
package session

import (
	"encoding/json"

	"github.com/google/uuid"

	"stamprally/internal/pkg/errs"
	"stamprally/internal/pkg/randx"
)

// MessageType is the agreement between the server and a client on possible message types.
type MessageType string

const (
	// User related
	TypeGetUserInfo  MessageType = "get_user_info"
	TypeSetUserInfo  MessageType = "set_user_info"
	TypeSetUserReady MessageType = "set_user_ready"

	// Group related
	TypeGetGroupInfo  MessageType = "get_group_info"
	TypeSetGroupInfo  MessageType = "set_group_info"
	TypeSetGroupReady MessageType = "set_group_ready"
	TypeJoinGroup     MessageType = "join_group"
	TypeLeaveGroup    MessageType = "leave_group"
	TypeDeleteGroup   MessageType = "delete_group"

	// Teams
	TypeGetTeams MessageType = "get_teams"
	TypeSetTeams MessageType = "set_teams"

	// Collecting-stamps mini-game
	TypeStampsStart    MessageType = "collecting_stamps_start"
	TypeStampsProgress MessageType = "collecting_stamps_progress"

	// Responses
	TypeSuccess MessageType = "success"
	TypeError   MessageType = "error"

	// Connection lifecycle events
	TypeConnect    MessageType = "connect"
	TypeDisconnect MessageType = "disconnect"
	TypeReconnect  MessageType = "reconnect"
)

// Envelope is the tagged message wrapper exchanged over the bidirectional channel.
// RequestID is the correlation identifier: responses echo the request's id verbatim,
// server-originated events carry a freshly generated one.
type Envelope struct {
	Type      MessageType `json:"type"`
	Data      any         `json:"data"`
	RequestID uuid.UUID   `json:"requestId"`
}

// InboundMessage is a decoded client envelope whose payload is still raw; the handler
// selected by Type gives it shape.
type InboundMessage struct {
	Type      MessageType
	Data      json.RawMessage
	RequestID uuid.UUID
}

// DecodeEnvelope parses a raw inbound frame into an InboundMessage.
// A frame that is not valid JSON, misses a required envelope field, or carries an
// unparsable correlation id is a protocol error; the caller must answer it with a
// freshly generated correlation id since the original cannot be trusted.
func DecodeEnvelope(raw []byte) (InboundMessage, *errs.CustomError) {
	var wire struct {
		Type      *string         `json:"type"`
		Data      json.RawMessage `json:"data"`
		RequestID *string         `json:"requestId"`
	}

	if err := json.Unmarshal(raw, &wire); err != nil {
		return InboundMessage{}, errs.NewError(errs.ErrInvalidJSON)
	}

	if wire.Type == nil || wire.RequestID == nil {
		return InboundMessage{}, errs.NewError(errs.ErrEnvelopeInvalid)
	}

	requestID, err := uuid.Parse(*wire.RequestID)
	if err != nil {
		return InboundMessage{}, errs.NewError(errs.ErrCorrelationIDInvalid)
	}

	return InboundMessage{
		Type:      MessageType(*wire.Type),
		Data:      wire.Data,
		RequestID: requestID,
	}, nil
}

// NewSuccess builds a success response envelope echoing the request's correlation id.
func NewSuccess(requestID uuid.UUID, data any) Envelope {
	return Envelope{
		Type:      TypeSuccess,
		Data:      data,
		RequestID: requestID,
	}
}

// NewErrorEnvelope builds an error response envelope echoing the request's correlation id.
// Internal errors are masked behind the generic message so the caller is never left
// without a response yet never sees server internals.
func NewErrorEnvelope(requestID uuid.UUID, customErr *errs.CustomError) Envelope {
	if customErr == nil {
		customErr = errs.NewError(errs.ErrUnknown)
	}

	return Envelope{
		Type: TypeError,
		Data: ErrorPayload{
			Code:    customErr.Code,
			Message: customErr.Message,
		},
		RequestID: requestID,
	}
}

// NewEvent builds a server-originated (unsolicited) envelope with a fresh correlation id.
func NewEvent(messageType MessageType, data any) Envelope {
	return Envelope{
		Type:      messageType,
		Data:      data,
		RequestID: randx.NewCorrelationID(),
	}
}

// ErrorPayload is the data carried by an error envelope.
type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// UserPayload is the wire representation of a user record.
// Name, picture, and group id are null until set.
type UserPayload struct {
	UserID   string  `json:"userId"`
	UserName *string `json:"userName"`
	Picture  *string `json:"picture"`
	GroupID  *string `json:"groupId"`
	Ready    bool    `json:"ready"`
}

// GroupPayload is the wire representation of a group record.
type GroupPayload struct {
	GroupID      string   `json:"groupId"`
	GroupName    string   `json:"groupName"`
	GroupAdminID string   `json:"groupAdminId"`
	GroupMembers []string `json:"groupMembers"`
	GroupReady   bool     `json:"groupReady"`
}

// TeamPayload is the wire representation of one team within a group.
type TeamPayload struct {
	TeamID      int      `json:"teamId"`
	TeamMembers []string `json:"teamMembers"`
}

// QuestionPayload is the wire representation of one quiz question.
type QuestionPayload struct {
	Question         string   `json:"question"`
	CorrectAnswer    string   `json:"correctAnswer"`
	IncorrectAnswers []string `json:"incorrectAnswers"`
}

// ConnectPayload is sent to a participant right after its channel is accepted.
// The resume token lets the client restore this identity after a dropped connection.
type ConnectPayload struct {
	UserID      string `json:"userId"`
	ResumeToken string `json:"resumeToken"`
}

// MemberEventPayload carries the affected user id in join/leave/disconnect/reconnect events.
type MemberEventPayload struct {
	UserID string `json:"userId"`
}

// UserReadyEventPayload is broadcast to the rest of the team when a member's readiness changes.
type UserReadyEventPayload struct {
	UserID    string `json:"userId"`
	Ready     bool   `json:"ready"`
	TeamReady bool   `json:"teamReady"`
}

// SetUserReadyResponse is returned to the caller of set_user_ready.
type SetUserReadyResponse struct {
	UserID    string `json:"userId"`
	TeamReady bool   `json:"teamReady"`
}

// SetUserInfoResponse is returned to the caller of set_user_info.
type SetUserInfoResponse struct {
	UserID string `json:"userId"`
}

// QuestionSetPayload carries the assigned question set of a started game.
type QuestionSetPayload struct {
	Questions []QuestionPayload `json:"questions"`
}

// ProgressEventPayload is broadcast to teammates after a progress update.
type ProgressEventPayload struct {
	UserID   string `json:"userId"`
	Progress int    `json:"progress"`
}

// ProgressResponse is returned to the caller of collecting_stamps_progress.
type ProgressResponse struct {
	Progress int `json:"progress"`
}

// Request payload shapes. Pointer fields distinguish "absent" from zero values so
// validation can report missing fields precisely.

type getUserInfoRequest struct {
	UserID string `json:"userId"`
}

type setUserInfoRequest struct {
	UserName *string `json:"userName"`
	Picture  *string `json:"picture"`
}

type setUserReadyRequest struct {
	Ready *bool `json:"ready"`
}

type getGroupInfoRequest struct {
	GroupID string `json:"groupId"`
}

type setGroupInfoRequest struct {
	GroupName *string `json:"groupName"`
}

type setGroupReadyRequest struct {
	Ready *bool `json:"ready"`
}

type joinGroupRequest struct {
	GroupID string `json:"groupId"`
}

type leaveGroupRequest struct {
	UserID string `json:"userId"`
}

type setTeamsEntry struct {
	TeamID      *int     `json:"teamId"`
	TeamMembers []string `json:"teamMembers"`
}

type stampsProgressRequest struct {
	Question  string `json:"question"`
	IsCorrect *bool  `json:"isCorrect"`
}
