/*
Package session contains the core logic of the session state coordinator.

This file defines the entity records held by the store: users, groups, teams, questions,
and per-user game state. Every record knows how to produce an independent copy of itself;
the store relies on that to enforce its snapshot contract.
*/
package session

import "github.com/google/uuid"

// User represents a connected participant. A record is created when the connection is
// accepted and survives for the connection's lifetime; a reconnecting client resumes the
// same record.
type User struct {
	ID      uuid.UUID
	Name    *string
	Picture *string
	GroupID *uuid.UUID
	Ready   bool
}

// Clone returns an independent copy of the user record.
func (u User) Clone() User {
	c := u
	if u.Name != nil {
		name := *u.Name
		c.Name = &name
	}
	if u.Picture != nil {
		picture := *u.Picture
		c.Picture = &picture
	}
	if u.GroupID != nil {
		groupID := *u.GroupID
		c.GroupID = &groupID
	}
	return c
}

// Payload converts the record into its wire representation.
func (u User) Payload() UserPayload {
	p := UserPayload{
		UserID:   u.ID.String(),
		UserName: u.Name,
		Picture:  u.Picture,
		Ready:    u.Ready,
	}
	if u.GroupID != nil {
		groupID := u.GroupID.String()
		p.GroupID = &groupID
	}
	return p
}

// Group represents a set of participants under exactly one admin.
// Invariant: AdminID is always a member.
type Group struct {
	ID      uuid.UUID
	AdminID uuid.UUID
	Name    string
	Members map[uuid.UUID]struct{}
	Ready   bool
}

// Clone returns an independent copy of the group record.
func (g Group) Clone() Group {
	c := g
	c.Members = make(map[uuid.UUID]struct{}, len(g.Members))
	for id := range g.Members {
		c.Members[id] = struct{}{}
	}
	return c
}

// HasMember reports whether the given user belongs to the group.
func (g Group) HasMember(userID uuid.UUID) bool {
	_, ok := g.Members[userID]
	return ok
}

// MembersExcept returns the member set without the given user, for notifying peers.
func (g Group) MembersExcept(userID uuid.UUID) map[uuid.UUID]struct{} {
	rest := make(map[uuid.UUID]struct{}, len(g.Members))
	for id := range g.Members {
		if id != userID {
			rest[id] = struct{}{}
		}
	}
	return rest
}

// Payload converts the record into its wire representation.
func (g Group) Payload() GroupPayload {
	members := make([]string, 0, len(g.Members))
	for id := range g.Members {
		members = append(members, id.String())
	}
	return GroupPayload{
		GroupID:      g.ID.String(),
		GroupName:    g.Name,
		GroupAdminID: g.AdminID.String(),
		GroupMembers: members,
		GroupReady:   g.Ready,
	}
}

// TeamKey is the composite identifier of a team: the owning group plus a small integer id.
type TeamKey struct {
	GroupID uuid.UUID
	TeamID  int
}

// Team represents one cell of a group's team partition.
// Invariant: every member belongs to the owning group.
type Team struct {
	ID      int
	GroupID uuid.UUID
	Members map[uuid.UUID]struct{}
}

// Clone returns an independent copy of the team record.
func (t Team) Clone() Team {
	c := t
	c.Members = make(map[uuid.UUID]struct{}, len(t.Members))
	for id := range t.Members {
		c.Members[id] = struct{}{}
	}
	return c
}

// Key returns the team's composite identifier.
func (t Team) Key() TeamKey {
	return TeamKey{GroupID: t.GroupID, TeamID: t.ID}
}

// HasMember reports whether the given user is on the team.
func (t Team) HasMember(userID uuid.UUID) bool {
	_, ok := t.Members[userID]
	return ok
}

// MembersExcept returns the team's member set without the given user.
func (t Team) MembersExcept(userID uuid.UUID) map[uuid.UUID]struct{} {
	rest := make(map[uuid.UUID]struct{}, len(t.Members))
	for id := range t.Members {
		if id != userID {
			rest[id] = struct{}{}
		}
	}
	return rest
}

// Payload converts the record into its wire representation.
func (t Team) Payload() TeamPayload {
	members := make([]string, 0, len(t.Members))
	for id := range t.Members {
		members = append(members, id.String())
	}
	return TeamPayload{
		TeamID:      t.ID,
		TeamMembers: members,
	}
}

// Question is an immutable quiz question. Identity is the text alone; answers do not
// participate in comparison or hashing.
type Question struct {
	Text             string
	CorrectAnswer    string
	IncorrectAnswers []string
}

// Clone returns an independent copy of the question.
func (q Question) Clone() Question {
	c := q
	c.IncorrectAnswers = append([]string(nil), q.IncorrectAnswers...)
	return c
}

// Payload converts the question into its wire representation.
func (q Question) Payload() QuestionPayload {
	return QuestionPayload{
		Question:         q.Text,
		CorrectAnswer:    q.CorrectAnswer,
		IncorrectAnswers: append([]string(nil), q.IncorrectAnswers...),
	}
}

// GameKind identifies a mini-game. There is one GameState per (user, kind).
type GameKind string

// GameCollectingStamps is the collaborative quiz mini-game.
const GameCollectingStamps GameKind = "collecting_stamps"

// GameKey is the composite identifier of a per-user game state.
type GameKey struct {
	UserID uuid.UUID
	Kind   GameKind
}

// GameState holds a user's assigned question set for one game kind and which of the
// questions have been resolved. It is created once per user per game and never
// re-created while present.
type GameState struct {
	UserID    uuid.UUID
	Kind      GameKind
	Questions []Question

	// Resolved maps question text to the reported correctness flag. A question is
	// recorded at most once; later submissions for the same text do not change it.
	Resolved map[string]bool
}

// Clone returns an independent copy of the game state.
func (s GameState) Clone() GameState {
	c := s
	c.Questions = make([]Question, len(s.Questions))
	for i, q := range s.Questions {
		c.Questions[i] = q.Clone()
	}
	c.Resolved = make(map[string]bool, len(s.Resolved))
	for text, correct := range s.Resolved {
		c.Resolved[text] = correct
	}
	return c
}

// Key returns the game state's composite identifier.
func (s GameState) Key() GameKey {
	return GameKey{UserID: s.UserID, Kind: s.Kind}
}

// Assigned reports whether the given question text is part of the assigned set.
func (s GameState) Assigned(questionText string) bool {
	for _, q := range s.Questions {
		if q.Text == questionText {
			return true
		}
	}
	return false
}

// Progress returns the number of distinct resolved questions.
func (s GameState) Progress() int {
	return len(s.Resolved)
}

// QuestionSetPayload converts the assigned set into its wire representation.
func (s GameState) QuestionSetPayload() QuestionSetPayload {
	questions := make([]QuestionPayload, len(s.Questions))
	for i, q := range s.Questions {
		questions[i] = q.Payload()
	}
	return QuestionSetPayload{Questions: questions}
}
