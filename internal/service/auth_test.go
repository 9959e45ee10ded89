package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/babcheck/babcheck/backend/internal/types"
)

func TestValidateTokenValid(t *testing.T) {
	svc := NewTokenService("test-secret")
	token, err := svc.Issue(types.Identity{UserID: "firebase-uid-1", Email: "a@school.kr", Name: "지민"}, time.Hour)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "firebase-uid-1", claims.UserID)
	assert.Equal(t, "a@school.kr", claims.Email)
	assert.Equal(t, types.Identity{UserID: "firebase-uid-1", Email: "a@school.kr", Name: "지민"}, claims.Identity())
}

func TestValidateTokenInvalid(t *testing.T) {
	svc := NewTokenService("test-secret")

	t.Run("garbage", func(t *testing.T) {
		claims, err := svc.ValidateToken("invalid.token")
		assert.Nil(t, claims)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		token, err := NewTokenService("other").Issue(types.Identity{UserID: "u1"}, time.Hour)
		require.NoError(t, err)
		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		claims := &types.TokenClaims{
			RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute))},
			UserID:           "u1",
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
		require.NoError(t, err)
		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing user id", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &types.TokenClaims{}).SignedString([]byte("test-secret"))
		require.NoError(t, err)
		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestIssueRequiresUser(t *testing.T) {
	_, err := NewTokenService("s").Issue(types.Identity{}, 0)
	assert.ErrorIs(t, err, ErrMissingUser)
}
