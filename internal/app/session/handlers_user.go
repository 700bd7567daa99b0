/*
Package session contains the core logic of the session state coordinator.

User-related message handlers: profile reads, profile updates, and individual readiness.
*/
package session

import (
	"encoding/json"

	"github.com/google/uuid"

	"stamprally/internal/pkg/errs"
	"stamprally/internal/pkg/randx"
)

// GetUserInfo returns the record of the user named in the payload.
func (h *Handlers) GetUserInfo(senderID uuid.UUID, data json.RawMessage) (any, *errs.CustomError) {
	var request getUserInfoRequest
	if err := json.Unmarshal(data, &request); err != nil {
		return nil, errs.NewError(errs.ErrInvalidParams)
	}

	targetID, customErr := randx.ParseID("userId", request.UserID)
	if customErr != nil {
		return nil, customErr
	}

	user, ok := h.store.GetUser(targetID)
	if !ok {
		return nil, errs.NewError(errs.ErrUserNotFound)
	}

	return user.Payload(), nil
}

// SetUserInfo updates the sender's own display name and avatar reference.
// Group mates are notified of the new profile; the sender gets its own id back.
func (h *Handlers) SetUserInfo(senderID uuid.UUID, data json.RawMessage) (any, *errs.CustomError) {
	var request setUserInfoRequest
	if err := json.Unmarshal(data, &request); err != nil {
		return nil, errs.NewError(errs.ErrInvalidParams)
	}

	user, customErr := h.senderUser(senderID)
	if customErr != nil {
		return nil, customErr
	}

	user.Name = request.UserName
	user.Picture = request.Picture
	h.store.PutUser(user)

	if user.GroupID != nil {
		if group, ok := h.store.GetGroup(*user.GroupID); ok {
			event := NewEvent(TypeSetUserInfo, user.Payload())
			h.notifier.Broadcast(group.MembersExcept(senderID), &event)
		}
	}

	return SetUserInfoResponse{UserID: senderID.String()}, nil
}

// SetUserReady toggles the sender's readiness flag. The flag only has meaning when the
// sender's group has teams and the sender sits on exactly one of them. Setting the flag
// to its current value succeeds without broadcasting; an actual change is persisted,
// the derived team readiness is recomputed from fresh store reads, and the rest of the
// team is told about both.
func (h *Handlers) SetUserReady(senderID uuid.UUID, data json.RawMessage) (any, *errs.CustomError) {
	var request setUserReadyRequest
	if err := json.Unmarshal(data, &request); err != nil {
		return nil, errs.NewError(errs.ErrInvalidParams)
	}
	if request.Ready == nil {
		return nil, errs.NewError(errs.ErrMissingField, "ready")
	}

	user, customErr := h.senderUser(senderID)
	if customErr != nil {
		return nil, customErr
	}
	if user.GroupID == nil {
		return nil, errs.NewError(errs.ErrNotGroupMember)
	}

	team, customErr := h.memberTeam(*user.GroupID, senderID)
	if customErr != nil {
		return nil, customErr
	}

	if user.Ready == *request.Ready {
		return SetUserReadyResponse{
			UserID:    senderID.String(),
			TeamReady: h.teamReady(team),
		}, nil
	}

	user.Ready = *request.Ready
	h.store.PutUser(user)

	teamReady := h.teamReady(team)

	event := NewEvent(TypeSetUserReady, UserReadyEventPayload{
		UserID:    senderID.String(),
		Ready:     user.Ready,
		TeamReady: teamReady,
	})
	h.notifier.Broadcast(team.MembersExcept(senderID), &event)

	return SetUserReadyResponse{
		UserID:    senderID.String(),
		TeamReady: teamReady,
	}, nil
}
