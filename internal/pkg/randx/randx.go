/*
Package randx provides generation and validation of the unique identifiers used across
the session coordinator.

User ids, group ids, and message correlation ids are all random (version 4) UUIDs, which
keeps collisions vanishingly unlikely without any coordination between generators.
*/
package randx

import (
	"github.com/google/uuid"

	"stamprally/internal/pkg/errs"
)

// NewID generates a random UUID to identify a user, group, or other session entity.
func NewID() uuid.UUID {
	return uuid.New()
}

// NewCorrelationID generates a fresh correlation id for server-originated messages.
// Request/response pairs echo the client's correlation id instead.
func NewCorrelationID() uuid.UUID {
	return uuid.New()
}

// ParseID parses the given string as a UUID. fieldName is used in the error message so
// clients can tell which payload field was rejected.
func ParseID(fieldName, value string) (uuid.UUID, *errs.CustomError) {
	if value == "" {
		return uuid.Nil, errs.NewError(errs.ErrMissingField, fieldName)
	}

	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, errs.NewError(errs.ErrInvalidID, fieldName)
	}

	return id, nil
}
