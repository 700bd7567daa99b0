/*
Package session contains the core logic of the session state coordinator.

Team partitioning handlers. set_teams is an all-or-nothing replace: either the submitted
list partitions the full group membership into teams, or nothing is persisted.
*/
package session

import (
	"encoding/json"

	"github.com/google/uuid"

	"stamprally/internal/pkg/errs"
)

// GetTeams returns the current team partition of the sender's group. A group with zero
// teams yields an empty list; only a missing group is an error.
func (h *Handlers) GetTeams(senderID uuid.UUID, data json.RawMessage) (any, *errs.CustomError) {
	user, customErr := h.senderUser(senderID)
	if customErr != nil {
		return nil, customErr
	}

	if user.GroupID == nil {
		return nil, errs.NewError(errs.ErrNotGroupMember)
	}

	teams, teamsErr := h.store.GroupTeams(*user.GroupID)
	if teamsErr != nil {
		h.logger.Error().
			Str("user_id", senderID.String()).
			Str("group_id", user.GroupID.String()).
			Msg("member of a missing group")
		return nil, errs.NewError(errs.ErrStoreInconsistent)
	}

	payload := make([]TeamPayload, len(teams))
	for i, team := range teams {
		payload[i] = team.Payload()
	}
	return payload, nil
}

// SetTeams replaces the group's full team partition. Restricted to the admin while the
// group is still forming. Every submitted team must carry a distinct non-empty integer
// id and a non-empty member list of valid identifiers; a member claimed twice, or not in the
// group at all, fails the whole request naming that member; a group member left without
// a team fails it too. Nothing is persisted on failure. On success every newly assigned
// member except the admin receives the new roster.
func (h *Handlers) SetTeams(senderID uuid.UUID, data json.RawMessage) (any, *errs.CustomError) {
	var entries []setTeamsEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, errs.NewError(errs.ErrInvalidParams)
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

	if group.Ready {
		return nil, errs.NewError(errs.ErrGroupLocked)
	}

	// Drain members from the unassigned pool team by team; every claim must come out
	// of the pool exactly once.
	unassigned := make(map[uuid.UUID]struct{}, len(group.Members))
	for memberID := range group.Members {
		unassigned[memberID] = struct{}{}
	}
	assigned := make(map[uuid.UUID]struct{}, len(group.Members))

	// The store keys teams by id within the group, so a repeated id would silently
	// swallow the earlier entry's members.
	seenTeamIDs := make(map[int]struct{}, len(entries))

	teams := make([]Team, 0, len(entries))
	for _, entry := range entries {
		if entry.TeamID == nil || *entry.TeamID == 0 {
			return nil, errs.NewError(errs.ErrMissingField, "teamId")
		}
		if _, ok := seenTeamIDs[*entry.TeamID]; ok {
			return nil, errs.NewError(errs.ErrDuplicateTeamID, *entry.TeamID)
		}
		seenTeamIDs[*entry.TeamID] = struct{}{}
		if len(entry.TeamMembers) == 0 {
			return nil, errs.NewError(errs.ErrMissingField, "teamMembers")
		}

		members := make(map[uuid.UUID]struct{}, len(entry.TeamMembers))
		for _, rawID := range entry.TeamMembers {
			memberID, err := uuid.Parse(rawID)
			if err != nil {
				return nil, errs.NewError(errs.ErrInvalidID, "teamMembers")
			}

			if _, ok := unassigned[memberID]; !ok {
				return nil, errs.NewError(errs.ErrMemberAlreadyAssigned, memberID.String())
			}
			delete(unassigned, memberID)
			assigned[memberID] = struct{}{}
			members[memberID] = struct{}{}
		}

		teams = append(teams, Team{
			ID:      *entry.TeamID,
			GroupID: group.ID,
			Members: members,
		})
	}

	if len(unassigned) > 0 {
		return nil, errs.NewError(errs.ErrMembersUnassigned)
	}

	h.store.ReplaceTeams(group.ID, teams)

	roster := make([]TeamPayload, len(teams))
	for i, team := range teams {
		roster[i] = team.Payload()
	}

	delete(assigned, senderID)
	event := NewEvent(TypeSetTeams, roster)
	h.notifier.Broadcast(assigned, &event)

	return nil, nil
}
