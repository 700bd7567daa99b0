/*
Package session contains the core logic of the session state coordinator.

Collecting-stamps mini-game handlers. One participant's start request sweeps the whole
team: every member gets an independently drawn question set, teammates by direct
notification and the caller through the response. A single member who already played
blocks the request for the entire team; the guard runs before any state is written so
the sweep stays all-or-nothing.
*/
package session

import (
	"encoding/json"

	"github.com/google/uuid"

	"stamprally/internal/pkg/errs"
)

// StampsStart starts the collecting-stamps game for the caller's whole team.
// Preconditions: the caller's group is marked ready (which implies teams exist), the
// caller sits on exactly one team, every team member is individually ready, and no team
// member has played this game before.
func (h *Handlers) StampsStart(senderID uuid.UUID, data json.RawMessage) (any, *errs.CustomError) {
	user, customErr := h.senderUser(senderID)
	if customErr != nil {
		return nil, customErr
	}

	group, customErr := h.senderGroup(user)
	if customErr != nil {
		return nil, customErr
	}

	if !group.Ready {
		return nil, errs.NewError(errs.ErrGroupNotReady)
	}

	team, customErr := h.memberTeam(group.ID, senderID)
	if customErr != nil {
		return nil, customErr
	}

	// Teammates first, the caller last; the same order the assignments run in.
	order := make([]uuid.UUID, 0, len(team.Members))
	for memberID := range team.Members {
		if memberID != senderID {
			order = append(order, memberID)
		}
	}
	order = append(order, senderID)

	for _, memberID := range order {
		member, ok := h.store.GetUser(memberID)
		if !ok {
			h.logger.Error().
				Str("user_id", memberID.String()).
				Str("group_id", group.ID.String()).
				Msg("team member has no user record")
			return nil, errs.NewError(errs.ErrStoreInconsistent)
		}
		if !member.Ready {
			return nil, errs.NewError(errs.ErrTeammatesNotReady)
		}
		if _, played := h.store.GetGame(memberID, GameCollectingStamps); played {
			return nil, errs.NewError(errs.ErrAlreadyPlayed)
		}
	}

	var callerSet QuestionSetPayload
	for _, memberID := range order {
		state := GameState{
			UserID:    memberID,
			Kind:      GameCollectingStamps,
			Questions: h.drawQuestions(),
			Resolved:  make(map[string]bool),
		}
		h.store.PutGame(state)

		if memberID == senderID {
			callerSet = state.QuestionSetPayload()
			continue
		}

		event := NewEvent(TypeStampsStart, state.QuestionSetPayload())
		h.notifier.SendTo(memberID, &event)
	}

	h.logger.Debug().
		Str("group_id", group.ID.String()).
		Int("team_id", team.ID).
		Int("members", len(order)).
		Msg("collecting-stamps game started for the team")

	return callerSet, nil
}

// drawQuestions samples a fixed-size question set without replacement from the global pool.
func (h *Handlers) drawQuestions() []Question {
	indexes := h.sampler(h.store.QuestionCount(), h.questionsPerGame)

	questions := make([]Question, 0, len(indexes))
	for _, index := range indexes {
		questions = append(questions, h.store.QuestionAt(index))
	}
	return questions
}

// StampsProgress records the outcome of one question for the caller. A question is
// recorded at most once: resubmissions leave the progress counter untouched regardless
// of the correctness flag. The updated counter goes to the caller's teammates and back
// to the caller.
func (h *Handlers) StampsProgress(senderID uuid.UUID, data json.RawMessage) (any, *errs.CustomError) {
	var request stampsProgressRequest
	if err := json.Unmarshal(data, &request); err != nil {
		return nil, errs.NewError(errs.ErrInvalidParams)
	}
	if request.Question == "" {
		return nil, errs.NewError(errs.ErrMissingField, "question")
	}
	if request.IsCorrect == nil {
		return nil, errs.NewError(errs.ErrMissingField, "isCorrect")
	}

	state, ok := h.store.GetGame(senderID, GameCollectingStamps)
	if !ok {
		return nil, errs.NewError(errs.ErrGameNotStarted)
	}

	if !state.Assigned(request.Question) {
		return nil, errs.NewError(errs.ErrQuestionNotAssigned)
	}

	if _, resolved := state.Resolved[request.Question]; !resolved {
		state.Resolved[request.Question] = *request.IsCorrect
		h.store.PutGame(state)
	}

	progress := state.Progress()

	user, customErr := h.senderUser(senderID)
	if customErr != nil {
		return nil, customErr
	}
	if user.GroupID != nil {
		if team, teamErr := h.memberTeam(*user.GroupID, senderID); teamErr == nil {
			event := NewEvent(TypeStampsProgress, ProgressEventPayload{
				UserID:   senderID.String(),
				Progress: progress,
			})
			h.notifier.Broadcast(team.MembersExcept(senderID), &event)
		}
	}

	return ProgressResponse{Progress: progress}, nil
}
