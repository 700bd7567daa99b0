/*
Package errs provides custom error types and application-level error code constants.

This file defines the map from error codes to the CustomError struct, used to standardize
error envelopes and HTTP responses.
*/
package errs

import "net/http"

// errorMap stores the detailed CustomError struct corresponding to every application error code.
// The key is the error code (int), and the value contains the user message and HTTP status code.
var errorMap = map[int]CustomError{
	// 1xxx: Protocol and Validation Errors
	ErrInvalidJSON:          {Code: ErrInvalidJSON, Message: "Message is not valid JSON."},
	ErrEnvelopeInvalid:      {Code: ErrEnvelopeInvalid, Message: "Message envelope is missing a required field."},
	ErrCorrelationIDInvalid: {Code: ErrCorrelationIDInvalid, Message: "requestId is not a valid UUID."},
	ErrMissingField:         {Code: ErrMissingField, Message: "%s is missing."},
	ErrInvalidID:            {Code: ErrInvalidID, Message: "%s is not a valid UUID."},
	ErrInvalidParams:        {Code: ErrInvalidParams, Message: "Invalid request parameters."},
	ErrRateLimitExceeded:    {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},
	ErrUnknownMessageType:   {Code: ErrUnknownMessageType, Message: "Unknown message type."},
	ErrUnsupportedMediaType: {Code: ErrUnsupportedMediaType, Message: "Unsupported request format."},
	ErrExtraContentInBody:   {Code: ErrExtraContentInBody, Message: "Request contains unexpected data."},
	ErrFileSizeTooLarge:     {Code: ErrFileSizeTooLarge, Message: "File is too large."},
	ErrFileTypeInvalid:      {Code: ErrFileTypeInvalid, Message: "File type is not allowed."},
	ErrDuplicateTeamID:      {Code: ErrDuplicateTeamID, Message: "Team %d is listed more than once."},

	// 2xxx: Missing Entity Errors
	ErrUserNotFound:        {Code: ErrUserNotFound, Message: "User not found."},
	ErrGroupNotFound:       {Code: ErrGroupNotFound, Message: "Group not found."},
	ErrGameNotStarted:      {Code: ErrGameNotStarted, Message: "Game has not been started."},
	ErrQuestionNotAssigned: {Code: ErrQuestionNotAssigned, Message: "Question is not part of your assigned set."},

	// 3xxx: Permission Errors
	ErrNotGroupAdmin:      {Code: ErrNotGroupAdmin, Message: "Only the group admin can do that."},
	ErrAdminCannotLeave:   {Code: ErrAdminCannotLeave, Message: "The admin cannot leave the group. Delete it instead."},
	ErrNotInYourGroup:     {Code: ErrNotInYourGroup, Message: "That user is not in your group."},
	ErrResumeTokenInvalid: {Code: ErrResumeTokenInvalid, Message: "Session resume token is invalid or expired.", Status: http.StatusUnauthorized},

	// 4xxx: State-Machine Conflict Errors
	ErrAlreadyGroupMember:    {Code: ErrAlreadyGroupMember, Message: "Already a group member."},
	ErrNotGroupMember:        {Code: ErrNotGroupMember, Message: "Not a group member."},
	ErrGroupLocked:           {Code: ErrGroupLocked, Message: "The group is already marked ready."},
	ErrGroupNotReady:         {Code: ErrGroupNotReady, Message: "The group is not marked ready yet."},
	ErrNoTeamsDefined:        {Code: ErrNoTeamsDefined, Message: "The group has no teams yet."},
	ErrMemberAlreadyAssigned: {Code: ErrMemberAlreadyAssigned, Message: "Member %s is already in another team."},
	ErrMembersUnassigned:     {Code: ErrMembersUnassigned, Message: "Some group members do not have a team."},
	ErrTeammatesNotReady:     {Code: ErrTeammatesNotReady, Message: "Not every teammate is ready."},
	ErrAlreadyPlayed:         {Code: ErrAlreadyPlayed, Message: "A team member has already played this game."},

	// 5xxx: Internal System Errors
	ErrUnknown:           {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
	ErrStoreInconsistent: {Code: ErrStoreInconsistent, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
}
