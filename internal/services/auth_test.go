package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/scpnet/authserver/internal/auth"
	"github.com/scpnet/authserver/internal/store"
	"github.com/scpnet/authserver/types"
	"github.com/stretchr/testify/require"
)

// memoryRepo is an in-memory UserRepository with the same atomicity
// contract as the Postgres store: Create is the serialization point.
type memoryRepo struct {
	mu    sync.Mutex
	users map[string]types.User // keyed by username
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{users: make(map[string]types.User)}
}

func (r *memoryRepo) GetByID(_ context.Context, id string) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.ID == id {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *memoryRepo) GetByUsername(_ context.Context, username string) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[username]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (r *memoryRepo) Create(_ context.Context, user types.User) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.users[user.Username]; exists {
		return types.User{}, store.ErrConflict
	}
	user.ID = uuid.NewString()
	user.CreatedAt = time.Now()
	r.users[user.Username] = user
	return user, nil
}

func (r *memoryRepo) List(_ context.Context) ([]types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	users := make([]types.User, 0, len(r.users))
	for _, user := range r.users {
		users = append(users, user)
	}
	return users, nil
}

func newTestService(repo UserRepository, codec *auth.TokenCodec) *AuthService {
	if codec == nil {
		codec = auth.NewTokenCodec("test-secret", time.Hour)
	}
	return NewAuthService(repo, auth.NewPasswordHasher(4), codec, nil, zerolog.Nop())
}

func TestRegisterThenLogin(t *testing.T) {
	t.Parallel()

	codec := auth.NewTokenCodec("test-secret", time.Hour)
	svc := newTestService(newMemoryRepo(), codec)
	ctx := context.Background()

	created, err := svc.Register(ctx, "site_07", "correcthorse", "")
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.Equal(t, types.AccessLevelDefault, created.AccessLevel)

	user, token, err := svc.Login(ctx, "site_07", "correcthorse")
	require.NoError(t, err)
	require.Equal(t, created.ID, user.ID)

	claims, err := codec.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "site_07", claims.Username)
	require.Equal(t, types.AccessLevelDefault, claims.AccessLevel)
}

func TestRegisterValidation(t *testing.T) {
	t.Parallel()

	svc := newTestService(newMemoryRepo(), nil)
	ctx := context.Background()

	tests := []struct {
		name     string
		username string
		password string
		field    string
	}{
		{"short username", "ab", "correcthorse", "username"},
		{"short password", "site_07", "12345", "password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.username, tt.password, "")
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			require.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestRegisterDuplicate(t *testing.T) {
	t.Parallel()

	svc := newTestService(newMemoryRepo(), nil)
	ctx := context.Background()

	_, err := svc.Register(ctx, "site_07", "correcthorse", "")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "site_07", "othersecret", "")
	require.ErrorIs(t, err, store.ErrConflict)
}

func TestRegisterConcurrentSameUsername(t *testing.T) {
	t.Parallel()

	repo := newMemoryRepo()
	svc := newTestService(repo, nil)
	ctx := context.Background()

	const attempts = 8
	results := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Register(ctx, "site_07", "correcthorse", "")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var successes, conflicts int
	for err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, store.ErrConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	require.Equal(t, 1, successes)
	require.Equal(t, attempts-1, conflicts)
	require.Len(t, repo.users, 1)
}

func TestRegisterRequestedAccessLevel(t *testing.T) {
	t.Parallel()

	svc := newTestService(newMemoryRepo(), nil)
	ctx := context.Background()

	council, err := svc.Register(ctx, "overseer", "correcthorse", types.AccessLevelCouncil)
	require.NoError(t, err)
	require.Equal(t, types.AccessLevelCouncil, council.AccessLevel)

	blank, err := svc.Register(ctx, "junior", "correcthorse", "   ")
	require.NoError(t, err)
	require.Equal(t, types.AccessLevelDefault, blank.AccessLevel)
}

func TestLoginFailuresIndistinguishable(t *testing.T) {
	t.Parallel()

	svc := newTestService(newMemoryRepo(), nil)
	ctx := context.Background()

	_, err := svc.Register(ctx, "site_07", "correcthorse", "")
	require.NoError(t, err)

	_, _, wrongPassword := svc.Login(ctx, "site_07", "wrong")
	_, _, unknownUser := svc.Login(ctx, "nobody", "correcthorse")

	require.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
	require.ErrorIs(t, unknownUser, ErrInvalidCredentials)
	require.Equal(t, wrongPassword.Error(), unknownUser.Error())
}

func TestProfile(t *testing.T) {
	t.Parallel()

	svc := newTestService(newMemoryRepo(), nil)
	ctx := context.Background()

	created, err := svc.Register(ctx, "site_07", "correcthorse", "")
	require.NoError(t, err)

	user, err := svc.Profile(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "site_07", user.Username)

	_, err = svc.Profile(ctx, uuid.NewString())
	require.ErrorIs(t, err, store.ErrNotFound)
}
