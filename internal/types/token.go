package types

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/babcheck/babcheck/backend/internal/models"
)

// TokenClaims represents the claims in a session token
type TokenClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
	Name   string `json:"name,omitempty"`
}

// Identity returns the signed-in user carried by the token.
func (c *TokenClaims) Identity() Identity {
	return Identity{UserID: c.UserID, Email: c.Email, Name: c.Name}
}

// Identity is the caller of an authenticated request.
type Identity struct {
	UserID string
	Email  string
	Name   string
}

// StoredName is the name written to records.
func (i Identity) StoredName() string {
	if strings.TrimSpace(i.Name) == "" {
		return models.AnonymousName
	}
	return i.Name
}
