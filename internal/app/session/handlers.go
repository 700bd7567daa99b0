/*
Package session contains the core logic of the session state coordinator.

This file defines the Handlers struct shared by every message handler, plus the lookup
helpers they have in common. Handlers never retain entity references across calls: they
fetch fresh snapshots, mutate local copies, and write them back explicitly.
*/
package session

import (
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"stamprally/internal/pkg/errs"
	"stamprally/internal/pkg/logx"
)

// Handlers holds the state-transition procedures for every message type.
type Handlers struct {
	store    *Store
	notifier *Notifier

	// sampler draws question indexes for game starts; injectable so tests are deterministic.
	sampler          Sampler
	questionsPerGame int

	logger zerolog.Logger
}

// NewHandlers constructs the handler set over the given store and notifier.
func NewHandlers(store *Store, notifier *Notifier, sampler Sampler, questionsPerGame int) *Handlers {
	if sampler == nil {
		sampler = DefaultSampler
	}

	return &Handlers{
		store:            store,
		notifier:         notifier,
		sampler:          sampler,
		questionsPerGame: questionsPerGame,
		logger:           logx.Logger().With().Str("component", "Handlers").Logger(),
	}
}

// senderUser fetches the sender's own user record. A connected sender without a record
// is a store inconsistency, not a user error.
func (h *Handlers) senderUser(senderID uuid.UUID) (User, *errs.CustomError) {
	user, ok := h.store.GetUser(senderID)
	if !ok {
		h.logger.Error().Str("sender_id", senderID.String()).Msg("connected sender has no user record")
		return User{}, errs.NewError(errs.ErrStoreInconsistent)
	}
	return user, nil
}

// senderGroup fetches the group the sender belongs to. A user referencing a missing
// group is a store inconsistency.
func (h *Handlers) senderGroup(user User) (Group, *errs.CustomError) {
	if user.GroupID == nil {
		return Group{}, errs.NewError(errs.ErrNotGroupMember)
	}

	group, ok := h.store.GetGroup(*user.GroupID)
	if !ok {
		h.logger.Error().
			Str("user_id", user.ID.String()).
			Str("group_id", user.GroupID.String()).
			Msg("user references a missing group")
		return Group{}, errs.NewError(errs.ErrStoreInconsistent)
	}
	return group, nil
}

// memberTeam finds the single team within the group that the user is assigned to.
// Zero teams defined is a user-visible conflict; the user appearing on zero or multiple
// teams of a partitioned group is an internal inconsistency.
func (h *Handlers) memberTeam(groupID, userID uuid.UUID) (Team, *errs.CustomError) {
	teams, customErr := h.store.GroupTeams(groupID)
	if customErr != nil {
		h.logger.Error().Str("group_id", groupID.String()).Msg("member's group vanished while listing teams")
		return Team{}, errs.NewError(errs.ErrStoreInconsistent)
	}

	if len(teams) == 0 {
		return Team{}, errs.NewError(errs.ErrNoTeamsDefined)
	}

	var found *Team
	for i := range teams {
		if teams[i].HasMember(userID) {
			if found != nil {
				h.logger.Error().
					Str("user_id", userID.String()).
					Str("group_id", groupID.String()).
					Msg("user assigned to multiple teams")
				return Team{}, errs.NewError(errs.ErrStoreInconsistent)
			}
			found = &teams[i]
		}
	}

	if found == nil {
		h.logger.Error().
			Str("user_id", userID.String()).
			Str("group_id", groupID.String()).
			Msg("user assigned to no team in a partitioned group")
		return Team{}, errs.NewError(errs.ErrStoreInconsistent)
	}

	return *found, nil
}

// teamReady recomputes the derived team readiness: the logical AND of every team
// member's individual flag, fetched fresh from the store rather than cached.
func (h *Handlers) teamReady(team Team) bool {
	for memberID := range team.Members {
		member, ok := h.store.GetUser(memberID)
		if !ok || !member.Ready {
			return false
		}
	}
	return true
}
