package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/CleanAfricaNow/civic-service/internal/client"
	"github.com/CleanAfricaNow/civic-service/internal/models"
	"github.com/CleanAfricaNow/civic-service/internal/repository"
	"github.com/CleanAfricaNow/civic-service/internal/telemetry"
	"github.com/CleanAfricaNow/civic-service/internal/util"
	"github.com/CleanAfricaNow/civic-service/internal/util/logger"
)

var (
	ErrInvalidCredentials = errors.New("auth: invalid email or password")
	ErrInvalidEmail       = errors.New("auth: malformed email")
	ErrWeakPassword       = errors.New("auth: password must be at least 8 characters")
	ErrInvalidRole        = errors.New("auth: unknown role")
	ErrRoleNotGranted     = errors.New("auth: requested role could not be granted")
	ErrNameRequired       = errors.New("auth: full name must not be empty")
)

// SessionState is the identity snapshot the guard decides on: who is signed
// in, with which roles and profile. Loading marks a session whose role and
// profile reads have not completed yet.
type SessionState struct {
	Loading bool            `json:"loading"`
	User    *models.User    `json:"user,omitempty"`
	Roles   []models.Role   `json:"roles,omitempty"`
	Profile *models.Profile `json:"profile,omitempty"`
}

// Session is the result of a successful sign-in or refresh.
type Session struct {
	User         *models.User    `json:"user"`
	Roles        []models.Role   `json:"roles"`
	Profile      *models.Profile `json:"profile,omitempty"`
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token,omitempty"`
	SessionID    string          `json:"session_id"`
	ExpiresIn    int             `json:"expires_in"`
	RedirectTo   string          `json:"redirect_to"`
}

const (
	sessionKeyPrefix = "session:"
	revokedKeyPrefix = "revoked:"

	collaboratorTimeout = 5 * time.Second

	// Signup role correction polls for the default role row before
	// swapping it; bounded retries instead of a fixed timer.
	roleSwapAttempts = 5
	roleSwapBackoff  = 100 * time.Millisecond
)

// AuthService owns authentication and the per-session identity snapshot.
// The snapshot lives in Redis keyed by session id; concurrent refreshes are
// idempotent overwrites, later write wins.
type AuthService struct {
	users    repository.UserRepository
	roles    repository.RoleRepository
	profiles repository.ProfileRepository
	jwt      *util.JWTManager
	redis    *client.RedisClient
	notifier *telemetry.Notifier

	snapshotTTL time.Duration
}

func NewAuthService(
	users repository.UserRepository,
	roles repository.RoleRepository,
	profiles repository.ProfileRepository,
	jwt *util.JWTManager,
	redisClient *client.RedisClient,
	notifier *telemetry.Notifier,
	snapshotTTL time.Duration,
) *AuthService {
	if snapshotTTL <= 0 {
		snapshotTTL = 7 * 24 * time.Hour
	}
	return &AuthService{
		users:       users,
		roles:       roles,
		profiles:    profiles,
		jwt:         jwt,
		redis:       redisClient,
		notifier:    notifier,
		snapshotTTL: snapshotTTL,
	}
}

// SignUp creates the account. The repository installs the default citizen
// role with the user row; when a different role was requested the service
// corrects the membership afterwards so the final role set is exactly the
// requested role.
func (s *AuthService) SignUp(ctx context.Context, email, password, fullName, requestedRole string) (*models.User, error) {
	email = util.NormalizeEmail(email)
	if !util.IsValidEmail(email) {
		return nil, ErrInvalidEmail
	}
	if len(password) < 8 {
		return nil, ErrWeakPassword
	}
	if requestedRole != "" && !models.ValidRole(requestedRole) {
		return nil, ErrInvalidRole
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{Email: email, PasswordHash: hash}
	profile := &models.Profile{FullName: fullName}

	cctx, cancel := context.WithTimeout(ctx, collaboratorTimeout)
	defer cancel()
	if err := s.users.CreateUser(cctx, user, profile); err != nil {
		return nil, err
	}

	role := models.Role(requestedRole)
	if requestedRole != "" && role != models.RoleCitizen {
		if err := s.correctSignupRole(ctx, user.ID, role); err != nil {
			return nil, err
		}
	}

	return user, nil
}

// correctSignupRole swaps the default citizen membership for the requested
// role. It polls until the default row is observable, then performs the swap
// in one transaction; the user never ends up with both rows or neither.
func (s *AuthService) correctSignupRole(ctx context.Context, userID uuid.UUID, want models.Role) error {
	var lastErr error
	for attempt := 0; attempt < roleSwapAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(roleSwapBackoff * time.Duration(attempt)):
			}
		}

		cctx, cancel := context.WithTimeout(ctx, collaboratorTimeout)
		roles, err := s.roles.GetUserRoles(cctx, userID)
		cancel()
		if err != nil {
			lastErr = err
			continue
		}

		seen := false
		for _, r := range roles {
			if r == models.RoleCitizen {
				seen = true
				break
			}
			if r == want {
				// Already corrected by a concurrent attempt.
				return nil
			}
		}
		if !seen {
			lastErr = repository.ErrNotFound
			continue
		}

		cctx, cancel = context.WithTimeout(ctx, collaboratorTimeout)
		err = s.roles.SwapRole(cctx, userID, models.RoleCitizen, want)
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err
	}
	logger.Errorf("signup role correction failed for %s: %v", userID, lastErr)
	return fmt.Errorf("%w: %v", ErrRoleNotGranted, lastErr)
}

// SignIn verifies credentials, loads the role and profile snapshot, issues
// tokens and caches the snapshot. Role or profile read failures degrade the
// session (logged and swallowed) instead of failing the sign-in.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*Session, error) {
	email = util.NormalizeEmail(email)
	if !util.IsValidEmail(email) {
		return nil, ErrInvalidEmail
	}

	cctx, cancel := context.WithTimeout(ctx, collaboratorTimeout)
	user, err := s.users.GetByEmail(cctx, email)
	cancel()
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	roles, profile := s.fetchIdentity(ctx, user.ID)

	access, refresh, sessionID, err := s.jwt.IssueTokens(user, roles)
	if err != nil {
		return nil, fmt.Errorf("issue tokens: %w", err)
	}

	state := SessionState{User: user, Roles: roles, Profile: profile}
	s.storeSnapshot(ctx, sessionID, &state)

	return &Session{
		User:         user,
		Roles:        roles,
		Profile:      profile,
		AccessToken:  access,
		RefreshToken: refresh,
		SessionID:    sessionID,
		ExpiresIn:    int(s.jwt.AccessDuration().Seconds()),
		RedirectTo:   RoleBasedRedirect(roles),
	}, nil
}

// fetchIdentity runs the two independent reads behind a session snapshot.
// Failures are logged and swallowed; the caller gets whatever loaded.
func (s *AuthService) fetchIdentity(ctx context.Context, userID uuid.UUID) ([]models.Role, *models.Profile) {
	cctx, cancel := context.WithTimeout(ctx, collaboratorTimeout)
	roles, err := s.roles.GetUserRoles(cctx, userID)
	cancel()
	if err != nil {
		logger.Errorf("fetch roles for %s: %v", userID, err)
		roles = nil
	}

	cctx, cancel = context.WithTimeout(ctx, collaboratorTimeout)
	profile, err := s.profiles.GetByUserID(cctx, userID)
	cancel()
	if err != nil {
		logger.Errorf("fetch profile for %s: %v", userID, err)
		profile = nil
	}

	return roles, profile
}

// Refresh re-validates the refresh token, re-runs the identity reads and
// overwrites the snapshot. Two refreshes racing are harmless; the later
// write wins.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	claims, err := s.jwt.ValidateToken(refreshToken, util.RefreshToken)
	if err != nil {
		return nil, err
	}
	if s.isRevoked(ctx, claims.ID) {
		return nil, util.ErrInvalidToken
	}

	cctx, cancel := context.WithTimeout(ctx, collaboratorTimeout)
	user, err := s.users.GetByID(cctx, claims.UserID)
	cancel()
	if err != nil {
		return nil, err
	}

	roles, profile := s.fetchIdentity(ctx, user.ID)

	access, refresh, sessionID, err := s.jwt.IssueTokens(user, roles)
	if err != nil {
		return nil, fmt.Errorf("issue tokens: %w", err)
	}

	// Revoke the consumed refresh token and retire its snapshot.
	s.revoke(ctx, claims.ID, time.Until(claims.ExpiresAt.Time))
	s.dropSnapshot(ctx, claims.SessionID)

	state := SessionState{User: user, Roles: roles, Profile: profile}
	s.storeSnapshot(ctx, sessionID, &state)

	return &Session{
		User:         user,
		Roles:        roles,
		Profile:      profile,
		AccessToken:  access,
		RefreshToken: refresh,
		SessionID:    sessionID,
		ExpiresIn:    int(s.jwt.AccessDuration().Seconds()),
		RedirectTo:   RoleBasedRedirect(roles),
	}, nil
}

// SignOut clears the session. Local state is dropped unconditionally;
// collaborator failures are logged, never surfaced, and never block the
// sign-out.
func (s *AuthService) SignOut(ctx context.Context, claims *util.SessionClaims) {
	s.revoke(ctx, claims.ID, time.Until(claims.ExpiresAt.Time))
	s.dropSnapshot(ctx, claims.SessionID)
}

// ResetPassword enqueues a reset notification. The response never reveals
// whether the address is registered.
func (s *AuthService) ResetPassword(ctx context.Context, email string) error {
	email = util.NormalizeEmail(email)
	if !util.IsValidEmail(email) {
		return ErrInvalidEmail
	}

	cctx, cancel := context.WithTimeout(ctx, collaboratorTimeout)
	user, err := s.users.GetByEmail(cctx, email)
	cancel()
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			logger.Errorf("reset password lookup: %v", err)
		}
		return nil
	}

	s.notifier.Publish(telemetry.Event{
		Type:   telemetry.EventPasswordReset,
		UserID: &user.ID,
		Email:  user.Email,
	})
	return nil
}

// State resolves the session snapshot for a validated access token. A cache
// miss falls back to the claims themselves (degraded: roles from issue
// time, no profile).
func (s *AuthService) State(ctx context.Context, claims *util.SessionClaims) SessionState {
	raw, err := s.redis.Get(ctx, sessionKeyPrefix+claims.SessionID).Result()
	if err == nil {
		var state SessionState
		if jsonErr := json.Unmarshal([]byte(raw), &state); jsonErr == nil {
			return state
		}
	} else if err != redis.Nil {
		logger.Warnf("session snapshot read: %v", err)
	}

	return SessionState{
		User:  &models.User{ID: claims.UserID, Email: claims.Email},
		Roles: claims.Roles,
	}
}

// UpdateProfile rewrites the caller's profile row and refreshes the cached
// session snapshot so the next State read sees the change.
func (s *AuthService) UpdateProfile(ctx context.Context, claims *util.SessionClaims, fullName string, avatarURL *string, homeCityID *uuid.UUID) (*models.Profile, error) {
	if fullName == "" {
		return nil, ErrNameRequired
	}

	cctx, cancel := context.WithTimeout(ctx, collaboratorTimeout)
	err := s.profiles.UpdateProfile(cctx, claims.UserID, fullName, avatarURL, homeCityID)
	cancel()
	if err != nil {
		return nil, err
	}

	cctx, cancel = context.WithTimeout(ctx, collaboratorTimeout)
	profile, err := s.profiles.GetByUserID(cctx, claims.UserID)
	cancel()
	if err != nil {
		return nil, err
	}

	if claims.SessionID != "" {
		state := s.State(ctx, claims)
		state.Profile = profile
		s.storeSnapshot(ctx, claims.SessionID, &state)
	}
	return profile, nil
}

// IsRevoked reports whether the token id is on the denylist.
func (s *AuthService) IsRevoked(ctx context.Context, tokenID string) bool {
	return s.isRevoked(ctx, tokenID)
}

func (s *AuthService) isRevoked(ctx context.Context, tokenID string) bool {
	n, err := s.redis.Exists(ctx, revokedKeyPrefix+tokenID).Result()
	if err != nil {
		logger.Warnf("revocation check: %v", err)
		return false
	}
	return n > 0
}

func (s *AuthService) revoke(ctx context.Context, tokenID string, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	if err := s.redis.Set(ctx, revokedKeyPrefix+tokenID, "1", ttl).Err(); err != nil {
		logger.Warnf("revoke token %s: %v", tokenID, err)
	}
}

func (s *AuthService) storeSnapshot(ctx context.Context, sessionID string, state *SessionState) {
	raw, err := json.Marshal(state)
	if err != nil {
		logger.Errorf("marshal session snapshot: %v", err)
		return
	}
	if err := s.redis.Set(ctx, sessionKeyPrefix+sessionID, raw, s.snapshotTTL).Err(); err != nil {
		logger.Warnf("store session snapshot: %v", err)
	}
}

func (s *AuthService) dropSnapshot(ctx context.Context, sessionID string) {
	if sessionID == "" {
		return
	}
	if err := s.redis.Del(ctx, sessionKeyPrefix+sessionID).Err(); err != nil {
		logger.Warnf("drop session snapshot: %v", err)
	}
}
