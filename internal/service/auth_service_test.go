package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CleanAfricaNow/civic-service/internal/config"
	"github.com/CleanAfricaNow/civic-service/internal/models"
	"github.com/CleanAfricaNow/civic-service/internal/telemetry"
)

func newSignupFixture(t *testing.T) (*AuthService, *fakeRoleRepo) {
	t.Helper()
	roles := newFakeRoleRepo()
	users := newFakeUserRepo(roles)
	profiles := newFakeProfileRepo()
	notifier, err := telemetry.NewNotifier(config.NotifierConfig{})
	require.NoError(t, err)
	return NewAuthService(users, roles, profiles, nil, nil, notifier, 0), roles
}

func TestSignUpDefaultsToCitizen(t *testing.T) {
	svc, roles := newSignupFixture(t)

	user, err := svc.SignUp(context.Background(), "ada@example.com", "correcthorse", "Ada", "")
	require.NoError(t, err)

	got, err := roles.GetUserRoles(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, []models.Role{models.RoleCitizen}, got)
}

func TestSignUpWithRequestedRoleEndsWithExactlyThatRole(t *testing.T) {
	svc, roles := newSignupFixture(t)

	user, err := svc.SignUp(context.Background(), "mayor@example.com", "correcthorse", "Mayor", "municipality")
	require.NoError(t, err)

	got, err := roles.GetUserRoles(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, []models.Role{models.RoleMunicipality}, got,
		"final role set must be exactly the requested role, never citizen alongside it")
}

func TestSignUpRoleCorrectionSurvivesLaggedReads(t *testing.T) {
	svc, roles := newSignupFixture(t)
	// The first two role reads miss the freshly installed citizen row.
	roles.delayReads = 2

	user, err := svc.SignUp(context.Background(), "ngo@example.com", "correcthorse", "Org", "ngo")
	require.NoError(t, err)

	got, err := roles.GetUserRoles(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, []models.Role{models.RoleNGO}, got)
}

func TestSignUpValidation(t *testing.T) {
	svc, _ := newSignupFixture(t)
	ctx := context.Background()

	_, err := svc.SignUp(ctx, "not-an-email", "correcthorse", "X", "")
	assert.ErrorIs(t, err, ErrInvalidEmail)

	_, err = svc.SignUp(ctx, "short@example.com", "short", "X", "")
	assert.ErrorIs(t, err, ErrWeakPassword)

	_, err = svc.SignUp(ctx, "role@example.com", "correcthorse", "X", "superuser")
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestSignUpDuplicateEmail(t *testing.T) {
	svc, _ := newSignupFixture(t)
	ctx := context.Background()

	_, err := svc.SignUp(ctx, "dup@example.com", "correcthorse", "First", "")
	require.NoError(t, err)
	_, err = svc.SignUp(ctx, "dup@example.com", "correcthorse", "Second", "")
	assert.Error(t, err)
}
