package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/scpnet/authserver/internal/auth"
	"github.com/scpnet/authserver/internal/events"
	"github.com/scpnet/authserver/internal/store"
	"github.com/scpnet/authserver/types"
)

const (
	minUsernameLen = 3
	minPasswordLen = 6
)

// ErrInvalidCredentials covers both unknown usernames and wrong
// passwords; callers cannot tell the two apart.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ValidationError reports a client-correctable problem with one field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// UserRepository defines the persistence operations the auth service
// needs. The implementation owns the username uniqueness guarantee:
// Create must fail with store.ErrConflict on a duplicate even when a
// concurrent registration passed the service's own pre-check.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (types.User, error)
	GetByUsername(ctx context.Context, username string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	List(ctx context.Context) ([]types.User, error)
}

// AuthService orchestrates registration, login and profile lookups.
type AuthService struct {
	repo   UserRepository
	hasher *auth.PasswordHasher
	codec  *auth.TokenCodec
	audit  *events.Recorder
	log    zerolog.Logger
}

func NewAuthService(
	repo UserRepository,
	hasher *auth.PasswordHasher,
	codec *auth.TokenCodec,
	audit *events.Recorder,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		repo:   repo,
		hasher: hasher,
		codec:  codec,
		audit:  audit,
		log:    log,
	}
}

// Register creates a new account. An empty accessLevel yields the
// default tier. Returns *ValidationError for bad input and
// store.ErrConflict when the username is taken.
func (s *AuthService) Register(ctx context.Context, username, password, accessLevel string) (types.User, error) {
	if len(username) < minUsernameLen {
		return types.User{}, &ValidationError{Field: "username", Message: "must be at least 3 characters long"}
	}
	if len(password) < minPasswordLen {
		return types.User{}, &ValidationError{Field: "password", Message: "must be at least 6 characters long"}
	}

	// Early existence check for a friendly fast path; the unique index
	// behind repo.Create is what actually guarantees uniqueness.
	if _, err := s.repo.GetByUsername(ctx, username); err == nil {
		return types.User{}, store.ErrConflict
	} else if !errors.Is(err, store.ErrNotFound) {
		s.log.Error().Err(err).Msg("registration lookup failed")
		return types.User{}, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		s.log.Error().Err(err).Msg("password hashing failed")
		return types.User{}, err
	}

	if strings.TrimSpace(accessLevel) == "" {
		accessLevel = types.AccessLevelDefault
	}

	user, err := s.repo.Create(ctx, types.User{
		Username:     username,
		AccessLevel:  accessLevel,
		PasswordHash: hash,
	})
	if err != nil {
		if !errors.Is(err, store.ErrConflict) {
			s.log.Error().Err(err).Msg("user insert failed")
		}
		return types.User{}, err
	}

	s.audit.Record(ctx, events.UserRegistered, user.ID, user.Username)
	return user, nil
}

// Login verifies credentials and issues a bearer token. Unknown
// usernames and wrong passwords fail identically.
func (s *AuthService) Login(ctx context.Context, username, password string) (types.User, string, error) {
	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.audit.Record(ctx, events.UserLoginDenied, "", username)
			return types.User{}, "", ErrInvalidCredentials
		}
		s.log.Error().Err(err).Msg("login lookup failed")
		return types.User{}, "", err
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		s.audit.Record(ctx, events.UserLoginDenied, "", username)
		return types.User{}, "", ErrInvalidCredentials
	}

	token, err := s.codec.Issue(user)
	if err != nil {
		s.log.Error().Err(err).Msg("token signing failed")
		return types.User{}, "", err
	}

	s.audit.Record(ctx, events.UserLogin, user.ID, user.Username)
	return user, token, nil
}

// Profile fetches the account behind a validly issued token. A missing
// record is an integrity anomaly surfaced as store.ErrNotFound.
func (s *AuthService) Profile(ctx context.Context, userID string) (types.User, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.log.Error().Err(err).Msg("profile lookup failed")
		}
		return types.User{}, err
	}
	return user, nil
}

// ListUsers returns every account, newest first.
func (s *AuthService) ListUsers(ctx context.Context) ([]types.User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("user listing failed")
		return nil, err
	}
	return users, nil
}
