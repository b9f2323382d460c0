package util

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CleanAfricaNow/civic-service/internal/config"
	"github.com/CleanAfricaNow/civic-service/internal/models"
)

func testManager(t *testing.T) *JWTManager {
	t.Helper()
	m, err := NewJWTManager(config.JWTConfig{SigningKey: "test-secret-key"})
	require.NoError(t, err)
	return m
}

func TestNewJWTManagerRequiresKey(t *testing.T) {
	_, err := NewJWTManager(config.JWTConfig{})
	assert.Error(t, err)
}

func TestIssueAndValidate(t *testing.T) {
	m := testManager(t)
	user := &models.User{ID: uuid.New(), Email: "user@example.com"}
	roles := []models.Role{models.RoleCitizen, models.RoleVolunteer}

	access, refresh, sessionID, err := m.IssueTokens(user, roles)
	require.NoError(t, err)
	assert.NotEmpty(t, sessionID)
	assert.NotEqual(t, access, refresh)

	claims, err := m.ValidateToken(access, AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, user.Email, claims.Email)
	assert.Equal(t, roles, claims.Roles)
	assert.Equal(t, sessionID, claims.SessionID)

	rclaims, err := m.ValidateToken(refresh, RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, sessionID, rclaims.SessionID)
	assert.NotEqual(t, claims.ID, rclaims.ID)
}

func TestValidateRejectsWrongType(t *testing.T) {
	m := testManager(t)
	user := &models.User{ID: uuid.New(), Email: "user@example.com"}

	access, refresh, _, err := m.IssueTokens(user, nil)
	require.NoError(t, err)

	_, err = m.ValidateToken(access, RefreshToken)
	assert.ErrorIs(t, err, ErrWrongType)
	_, err = m.ValidateToken(refresh, AccessToken)
	assert.ErrorIs(t, err, ErrWrongType)
}

func TestValidateRejectsForeignKeyAndGarbage(t *testing.T) {
	m := testManager(t)
	other, err := NewJWTManager(config.JWTConfig{SigningKey: "a-different-secret"})
	require.NoError(t, err)

	user := &models.User{ID: uuid.New(), Email: "user@example.com"}
	access, _, _, err := other.IssueTokens(user, nil)
	require.NoError(t, err)

	_, err = m.ValidateToken(access, AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = m.ValidateToken("not.a.token", AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsExpired(t *testing.T) {
	m, err := NewJWTManager(config.JWTConfig{
		SigningKey:     "test-secret-key",
		AccessDuration: -time.Minute,
	})
	require.NoError(t, err)

	user := &models.User{ID: uuid.New(), Email: "user@example.com"}
	access, _, _, err := m.IssueTokens(user, nil)
	require.NoError(t, err)

	_, err = m.ValidateToken(access, AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
