/*
Package errs provides custom error types and application-level error code constants.

The code ranges encode the coordinator's error taxonomy: 1xxx protocol and validation
errors, 2xxx missing entities, 3xxx permission violations, 4xxx state-machine conflicts,
and 5xxx internal inconsistencies. The range determines how the dispatcher logs an error
and lets clients react to classes of failure without matching on message text.
*/
package errs

// 1xxx: Protocol and Validation Errors
const (
	// ErrInvalidJSON indicates that an inbound frame or request body could not be decoded.
	ErrInvalidJSON = 1001

	// ErrEnvelopeInvalid indicates that a decoded envelope is missing a required field.
	ErrEnvelopeInvalid = 1002

	// ErrCorrelationIDInvalid indicates that the envelope's requestId is not a valid UUID.
	ErrCorrelationIDInvalid = 1003

	// ErrMissingField indicates that a required payload field is absent.
	ErrMissingField = 1004

	// ErrInvalidID indicates that a payload identifier is not a valid UUID.
	ErrInvalidID = 1005

	// ErrInvalidParams indicates that payload validation failed for another reason.
	ErrInvalidParams = 1006

	// ErrRateLimitExceeded indicates that the request rate has exceeded the set limit.
	ErrRateLimitExceeded = 1007

	// ErrUnknownMessageType indicates an envelope type tag with no registered handler.
	ErrUnknownMessageType = 1008

	// ErrUnsupportedMediaType indicates that the request header Content-Type is not supported.
	ErrUnsupportedMediaType = 1009

	// ErrExtraContentInBody indicates that the request body contained extra content after valid JSON data.
	ErrExtraContentInBody = 1010

	// ErrFileSizeTooLarge indicates that an avatar upload exceeded the size limit.
	ErrFileSizeTooLarge = 1011

	// ErrFileTypeInvalid indicates an avatar upload with a disallowed name or MIME type.
	ErrFileTypeInvalid = 1012

	// ErrDuplicateTeamID indicates a set_teams request listing the same team id twice.
	ErrDuplicateTeamID = 1013
)

// 2xxx: Missing Entity Errors
const (
	// ErrUserNotFound indicates that the referenced user does not exist.
	ErrUserNotFound = 2001

	// ErrGroupNotFound indicates that the referenced group does not exist.
	ErrGroupNotFound = 2002

	// ErrGameNotStarted indicates a progress update for a game the user never started.
	ErrGameNotStarted = 2003

	// ErrQuestionNotAssigned indicates a progress update for a question outside the
	// user's assigned set.
	ErrQuestionNotAssigned = 2004
)

// 3xxx: Permission Errors
const (
	// ErrNotGroupAdmin indicates a non-admin attempting an admin-only action.
	ErrNotGroupAdmin = 3001

	// ErrAdminCannotLeave indicates the group admin attempting to leave their own group.
	// Deleting the group is the only admin-exit path.
	ErrAdminCannotLeave = 3002

	// ErrNotInYourGroup indicates an action targeting a user outside the caller's group.
	ErrNotInYourGroup = 3003

	// ErrResumeTokenInvalid indicates an expired or unverifiable session resume token.
	ErrResumeTokenInvalid = 3004
)

// 4xxx: State-Machine Conflict Errors
const (
	// ErrAlreadyGroupMember indicates a user trying to create or join a group while
	// already belonging to one.
	ErrAlreadyGroupMember = 4001

	// ErrNotGroupMember indicates an operation requiring group membership issued by a
	// user with no group.
	ErrNotGroupMember = 4002

	// ErrGroupLocked indicates a membership or team change on a group already marked ready.
	ErrGroupLocked = 4003

	// ErrGroupNotReady indicates a game start on a group whose readiness flag is unset.
	ErrGroupNotReady = 4004

	// ErrNoTeamsDefined indicates an operation requiring a team partition on a group
	// with no teams.
	ErrNoTeamsDefined = 4005

	// ErrMemberAlreadyAssigned indicates a set_teams request claiming a member twice or
	// naming someone outside the group.
	ErrMemberAlreadyAssigned = 4006

	// ErrMembersUnassigned indicates a set_teams request leaving group members without a team.
	ErrMembersUnassigned = 4007

	// ErrTeammatesNotReady indicates a game start while some teammates are not ready.
	ErrTeammatesNotReady = 4008

	// ErrAlreadyPlayed indicates a game start for a team with a member who already has
	// game state.
	ErrAlreadyPlayed = 4009
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified, general server internal error.
	ErrUnknown = 5000

	// ErrStoreInconsistent indicates stored state violating an invariant, such as a
	// user appearing on zero or multiple teams within one group.
	ErrStoreInconsistent = 5001
)
