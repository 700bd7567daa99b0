/*
Package token issues and verifies the signed resume tokens that let a participant
restore its session identity after a dropped connection.

A token names the session (user) id it belongs to; presenting a valid token on the
upgrade endpoint re-homes the new transport handle onto that identity. The token is not
an account credential: identity here is nothing more than session membership.
*/
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"
)

const (
	// ResumeExpiration defines how long a resume token stays valid after it is issued.
	ResumeExpiration = 30 * time.Minute

	// TokenIssuer identifies the issuer of the token.
	TokenIssuer = "StampRally-Server"
)

// ResumeClaims defines the claims carried by a session resume token.
type ResumeClaims struct {
	jwt.StandardClaims

	// SessionID is the user identifier the token holder may resume.
	SessionID string `json:"sessionId"`
}

// Generate creates and signs a resume token for the given session id.
func Generate(sessionID uuid.UUID, secretKey string, duration time.Duration) (string, error) {
	now := time.Now()

	claims := &ResumeClaims{
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: now.Add(duration).Unix(),
			IssuedAt:  now.Unix(),
			Issuer:    TokenIssuer,
		},
		SessionID: sessionID.String(),
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return tok.SignedString([]byte(secretKey))
}

// Parse validates the given token string and returns the session id it names.
func Parse(tokenString string, secretKey string) (uuid.UUID, error) {
	claims := &ResumeClaims{}

	tok, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secretKey), nil
	})

	if err != nil {
		return uuid.Nil, err
	}

	if !tok.Valid {
		return uuid.Nil, errors.New("invalid or expired token")
	}

	sessionID, err := uuid.Parse(claims.SessionID)
	if err != nil {
		return uuid.Nil, errors.New("token carries an invalid session id")
	}

	return sessionID, nil
}
