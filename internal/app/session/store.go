/*
Package session contains the core logic of the session state coordinator.

This file defines the Store, the authoritative in-memory tables for users, groups,
teams, questions, and per-user game state.

The store enforces a copy-out/copy-in contract: every Get returns an independent
snapshot and every Put stores an independent copy of its argument, so mutating a
snapshot in place never affects stored state. Handlers make state transitions explicit
by writing snapshots back. Combined with the coordinator confining all store access to
its single Run goroutine, this makes every read-decide-write sequence atomic without
locks: no other participant can observe a half-applied transition.
*/
package session

import (
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"stamprally/internal/pkg/errs"
	"stamprally/internal/pkg/logx"
)

// Store holds the authoritative in-memory entity tables.
type Store struct {
	users     map[uuid.UUID]User
	groups    map[uuid.UUID]Group
	teams     map[TeamKey]Team
	games     map[GameKey]GameState
	questions []Question

	logger zerolog.Logger
}

// NewStore constructs a Store seeded with the global question pool.
func NewStore(questions []Question) *Store {
	storeLogger := logx.Logger().With().Str("component", "Store").Logger()

	pool := make([]Question, len(questions))
	for i, q := range questions {
		pool[i] = q.Clone()
	}

	return &Store{
		users:     make(map[uuid.UUID]User),
		groups:    make(map[uuid.UUID]Group),
		teams:     make(map[TeamKey]Team),
		games:     make(map[GameKey]GameState),
		questions: pool,
		logger:    storeLogger,
	}
}

// PutUser adds or updates a user record.
func (s *Store) PutUser(user User) {
	s.logger.Debug().Str("user_id", user.ID.String()).Msg("put user")
	s.users[user.ID] = user.Clone()
}

// GetUser returns a snapshot of the user record, if present.
func (s *Store) GetUser(userID uuid.UUID) (User, bool) {
	user, ok := s.users[userID]
	if !ok {
		s.logger.Debug().Str("user_id", userID.String()).Msg("user not found")
		return User{}, false
	}
	return user.Clone(), true
}

// PutGroup adds or updates a group record.
func (s *Store) PutGroup(group Group) {
	s.logger.Debug().Str("group_id", group.ID.String()).Msg("put group")
	s.groups[group.ID] = group.Clone()
}

// GetGroup returns a snapshot of the group record, if present.
func (s *Store) GetGroup(groupID uuid.UUID) (Group, bool) {
	group, ok := s.groups[groupID]
	if !ok {
		s.logger.Debug().Str("group_id", groupID.String()).Msg("group not found")
		return Group{}, false
	}
	return group.Clone(), true
}

// DeleteGroup removes the group record and cascades to its teams. Leaving the teams
// behind would be a defect: they would reference a group that no longer exists.
func (s *Store) DeleteGroup(groupID uuid.UUID) {
	if _, ok := s.groups[groupID]; !ok {
		s.logger.Error().Str("group_id", groupID.String()).Msg("delete of a missing group")
		return
	}
	delete(s.groups, groupID)
	s.deleteGroupTeams(groupID)
	s.logger.Debug().Str("group_id", groupID.String()).Msg("group deleted")
}

// GroupTeams returns snapshots of every team belonging to the group.
// A missing group is an error distinguishable from a group that exists but has zero
// teams; the latter yields an empty slice.
func (s *Store) GroupTeams(groupID uuid.UUID) ([]Team, *errs.CustomError) {
	if _, ok := s.groups[groupID]; !ok {
		s.logger.Debug().Str("group_id", groupID.String()).Msg("teams requested for a missing group")
		return nil, errs.NewError(errs.ErrGroupNotFound)
	}

	teams := make([]Team, 0)
	for _, team := range s.teams {
		if team.GroupID == groupID {
			teams = append(teams, team.Clone())
		}
	}
	return teams, nil
}

// ReplaceTeams swaps the group's full team partition for the given one.
// Partial updates are not supported; callers validate the whole partition first.
func (s *Store) ReplaceTeams(groupID uuid.UUID, teams []Team) {
	s.deleteGroupTeams(groupID)
	for _, team := range teams {
		s.teams[team.Key()] = team.Clone()
	}
	s.logger.Debug().
		Str("group_id", groupID.String()).
		Int("teams", len(teams)).
		Msg("team partition replaced")
}

// DeleteGroupTeams removes every team of the group. Used when a membership change
// invalidates the current partition.
func (s *Store) DeleteGroupTeams(groupID uuid.UUID) {
	s.deleteGroupTeams(groupID)
}

func (s *Store) deleteGroupTeams(groupID uuid.UUID) {
	for key := range s.teams {
		if key.GroupID == groupID {
			delete(s.teams, key)
		}
	}
}

// PutGame adds or updates a per-user game state.
func (s *Store) PutGame(state GameState) {
	s.logger.Debug().
		Str("user_id", state.UserID.String()).
		Str("game", string(state.Kind)).
		Msg("put game state")
	s.games[state.Key()] = state.Clone()
}

// GetGame returns a snapshot of the user's state for the given game kind, if present.
func (s *Store) GetGame(userID uuid.UUID, kind GameKind) (GameState, bool) {
	state, ok := s.games[GameKey{UserID: userID, Kind: kind}]
	if !ok {
		return GameState{}, false
	}
	return state.Clone(), true
}

// QuestionCount returns the size of the global question pool.
func (s *Store) QuestionCount() int {
	return len(s.questions)
}

// QuestionAt returns a snapshot of the pool question at the given index.
func (s *Store) QuestionAt(index int) Question {
	return s.questions[index].Clone()
}
