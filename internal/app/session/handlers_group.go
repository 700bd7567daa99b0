/*
Package session contains the core logic of the session state coordinator.

Group lifecycle handlers: info reads, creation/update, readiness, joining, leaving, and
deletion. Group state follows a two-state machine: Forming (membership and team edits
allowed) and Ready (edits rejected). The only Ready-to-Forming transition is the admin
explicitly toggling readiness off.
*/
package session

import (
	"encoding/json"

	"github.com/google/uuid"

	"stamprally/internal/pkg/errs"
	"stamprally/internal/pkg/randx"
)

// GetGroupInfo returns the record of the group named in the payload.
func (h *Handlers) GetGroupInfo(senderID uuid.UUID, data json.RawMessage) (any, *errs.CustomError) {
	var request getGroupInfoRequest
	if err := json.Unmarshal(data, &request); err != nil {
		return nil, errs.NewError(errs.ErrInvalidParams)
	}

	groupID, customErr := randx.ParseID("groupId", request.GroupID)
	if customErr != nil {
		return nil, customErr
	}

	group, ok := h.store.GetGroup(groupID)
	if !ok {
		return nil, errs.NewError(errs.ErrGroupNotFound)
	}

	return group.Payload(), nil
}

// SetGroupInfo creates a group when the sender has none, or updates the group's display
// name when the sender is its admin. On creation the sender becomes the immutable admin
// and first member. On update the other members are notified.
func (h *Handlers) SetGroupInfo(senderID uuid.UUID, data json.RawMessage) (any, *errs.CustomError) {
	var request setGroupInfoRequest
	if err := json.Unmarshal(data, &request); err != nil {
		return nil, errs.NewError(errs.ErrInvalidParams)
	}
	if request.GroupName == nil || *request.GroupName == "" {
		return nil, errs.NewError(errs.ErrMissingField, "groupName")
	}

	user, customErr := h.senderUser(senderID)
	if customErr != nil {
		return nil, customErr
	}

	if user.GroupID != nil {
		group, ok := h.store.GetGroup(*user.GroupID)
		if !ok {
			h.logger.Error().
				Str("user_id", senderID.String()).
				Str("group_id", user.GroupID.String()).
				Msg("member of a missing group")
			return nil, errs.NewError(errs.ErrStoreInconsistent)
		}

		if group.AdminID != senderID {
			return nil, errs.NewError(errs.ErrNotGroupAdmin)
		}

		group.Name = *request.GroupName
		h.store.PutGroup(group)

		event := NewEvent(TypeSetGroupInfo, group.Payload())
		h.notifier.Broadcast(group.MembersExcept(senderID), &event)

		return nil, nil
	}

	group := Group{
		ID:      randx.NewID(),
		AdminID: senderID,
		Name:    *request.GroupName,
		Members: map[uuid.UUID]struct{}{senderID: {}},
	}
	h.store.PutGroup(group)

	user.GroupID = &group.ID
	h.store.PutUser(user)

	h.logger.Debug().
		Str("group_id", group.ID.String()).
		Str("admin_id", senderID.String()).
		Msg("group created")

	return nil, nil
}

// SetGroupReady toggles the group readiness flag. Admin-only; marking the group ready
// requires at least one team. Readiness gates membership and team edits and the start
// of the mini-game. The updated group record goes to every member, the caller included.
func (h *Handlers) SetGroupReady(senderID uuid.UUID, data json.RawMessage) (any, *errs.CustomError) {
	var request setGroupReadyRequest
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

	group, customErr := h.senderGroup(user)
	if customErr != nil {
		return nil, customErr
	}

	if group.AdminID != senderID {
		return nil, errs.NewError(errs.ErrNotGroupAdmin)
	}

	if *request.Ready {
		teams, teamsErr := h.store.GroupTeams(group.ID)
		if teamsErr != nil {
			return nil, errs.NewError(errs.ErrStoreInconsistent)
		}
		if len(teams) == 0 {
			return nil, errs.NewError(errs.ErrNoTeamsDefined)
		}
	}

	group.Ready = *request.Ready
	h.store.PutGroup(group)

	event := NewEvent(TypeSetGroupReady, group.Payload())
	h.notifier.Broadcast(group.MembersExcept(senderID), &event)

	return group.Payload(), nil
}

// JoinGroup adds the sender to an existing group. The target group must not be marked
// ready and the sender must not belong to any group. The other members are notified.
func (h *Handlers) JoinGroup(senderID uuid.UUID, data json.RawMessage) (any, *errs.CustomError) {
	var request joinGroupRequest
	if err := json.Unmarshal(data, &request); err != nil {
		return nil, errs.NewError(errs.ErrInvalidParams)
	}

	groupID, customErr := randx.ParseID("groupId", request.GroupID)
	if customErr != nil {
		return nil, customErr
	}

	group, ok := h.store.GetGroup(groupID)
	if !ok {
		return nil, errs.NewError(errs.ErrGroupNotFound)
	}

	user, customErr := h.senderUser(senderID)
	if customErr != nil {
		return nil, customErr
	}

	if user.GroupID != nil {
		return nil, errs.NewError(errs.ErrAlreadyGroupMember)
	}

	if group.Ready {
		return nil, errs.NewError(errs.ErrGroupLocked)
	}

	group.Members[senderID] = struct{}{}
	h.store.PutGroup(group)

	user.GroupID = &groupID
	h.store.PutUser(user)

	event := NewEvent(TypeJoinGroup, MemberEventPayload{UserID: senderID.String()})
	h.notifier.Broadcast(group.MembersExcept(senderID), &event)

	return nil, nil
}

// LeaveGroup removes a member from the sender's group. The sender may remove itself, or
// (if it is the admin) remove a different member; the admin can never remove itself,
// deleting the group being the only admin-exit path. A successful removal invalidates
// the current team partition and clears the group readiness flag, since both described a
// membership that no longer exists.
func (h *Handlers) LeaveGroup(senderID uuid.UUID, data json.RawMessage) (any, *errs.CustomError) {
	var request leaveGroupRequest
	if len(data) > 0 {
		if err := json.Unmarshal(data, &request); err != nil {
			return nil, errs.NewError(errs.ErrInvalidParams)
		}
	}

	targetID := senderID
	if request.UserID != "" {
		parsed, customErr := randx.ParseID("userId", request.UserID)
		if customErr != nil {
			return nil, customErr
		}
		targetID = parsed
	}

	user, customErr := h.senderUser(senderID)
	if customErr != nil {
		return nil, customErr
	}

	group, customErr := h.senderGroup(user)
	if customErr != nil {
		return nil, customErr
	}

	if group.Ready {
		return nil, errs.NewError(errs.ErrGroupLocked)
	}

	if targetID != senderID {
		if group.AdminID != senderID {
			return nil, errs.NewError(errs.ErrNotGroupAdmin)
		}
		if !group.HasMember(targetID) {
			return nil, errs.NewError(errs.ErrNotInYourGroup)
		}
	}

	if targetID == group.AdminID {
		return nil, errs.NewError(errs.ErrAdminCannotLeave)
	}

	delete(group.Members, targetID)
	group.Ready = false
	h.store.PutGroup(group)
	h.store.DeleteGroupTeams(group.ID)

	if target, ok := h.store.GetUser(targetID); ok {
		target.GroupID = nil
		target.Ready = false
		h.store.PutUser(target)
	} else {
		h.logger.Error().
			Str("user_id", targetID.String()).
			Str("group_id", group.ID.String()).
			Msg("departing member has no user record")
	}

	event := NewEvent(TypeLeaveGroup, MemberEventPayload{UserID: targetID.String()})
	h.notifier.Broadcast(group.Members, &event)
	if targetID != senderID {
		// The evicted member is no longer in the group set but still needs to hear it.
		h.notifier.SendTo(targetID, &event)
	}

	return nil, nil
}

// DeleteGroup removes the sender's group entirely. Admin-only. Every other member is
// evicted (group reference cleared) and notified individually before the group record
// and its teams disappear.
func (h *Handlers) DeleteGroup(senderID uuid.UUID, data json.RawMessage) (any, *errs.CustomError) {
	user, customErr := h.senderUser(senderID)
	if customErr != nil {
		return nil, customErr
	}

	group, customErr := h.senderGroup(user)
	if customErr != nil {
		return nil, customErr
	}

	if group.AdminID != senderID {
		return nil, errs.NewError(errs.ErrNotGroupAdmin)
	}

	event := NewEvent(TypeDeleteGroup, nil)
	for memberID := range group.MembersExcept(senderID) {
		h.notifier.SendTo(memberID, &event)

		member, ok := h.store.GetUser(memberID)
		if !ok {
			h.logger.Error().
				Str("user_id", memberID.String()).
				Str("group_id", group.ID.String()).
				Msg("group member has no user record")
			continue
		}
		member.GroupID = nil
		member.Ready = false
		h.store.PutUser(member)
	}

	user.GroupID = nil
	user.Ready = false
	h.store.PutUser(user)

	h.store.DeleteGroup(group.ID)

	h.logger.Debug().
		Str("group_id", group.ID.String()).
		Msg("group deleted, members evicted")

	return nil, nil
}
