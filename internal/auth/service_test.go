package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-kasir/internal/common"
)

type stubUsers struct {
	byEmail map[string]User
	byID    map[uuid.UUID]User
}

func (s *stubUsers) GetByEmail(_ context.Context, email string) (User, error) {
	u, ok := s.byEmail[email]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return u, nil
}

func (s *stubUsers) GetByID(_ context.Context, id uuid.UUID) (User, error) {
	u, ok := s.byID[id]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return u, nil
}

func newTestService(t *testing.T, secret string) (*Service, User) {
	t.Helper()
	hash, err := argon2id.CreateHash("s3cret-pass", argon2id.DefaultParams)
	require.NoError(t, err)
	user := User{
		ID:           uuid.New(),
		Name:         "Owner",
		Email:        "owner@example.com",
		PasswordHash: hash,
		Roles:        []string{"admin"},
	}
	svc, err := NewService(Config{
		Users: &stubUsers{
			byEmail: map[string]User{user.Email: user},
			byID:    map[uuid.UUID]User{user.ID: user},
		},
		Secret:         secret,
		AccessTokenTTL: time.Hour,
	})
	require.NoError(t, err)
	return svc, user
}

func TestLoginIssuesVerifiableToken(t *testing.T) {
	svc, user := newTestService(t, "test-secret")

	result, err := svc.Login(context.Background(), "Owner@Example.com", "s3cret-pass")
	require.NoError(t, err)
	require.NotEmpty(t, result.AccessToken)
	require.Equal(t, user.ID, result.User.ID)

	claims, err := svc.ParseAccessToken(result.AccessToken)
	require.NoError(t, err)
	require.Equal(t, user.ID.String(), claims.UserID)
	require.Contains(t, claims.Roles, "admin")
}

func TestLoginRejectsBadPassword(t *testing.T) {
	svc, _ := newTestService(t, "test-secret")

	_, err := svc.Login(context.Background(), "owner@example.com", "wrong")
	require.Error(t, err)
	require.True(t, common.IsAppError(err))

	_, err = svc.Login(context.Background(), "nobody@example.com", "s3cret-pass")
	require.Error(t, err)
}

func TestParseRejectsForeignSignature(t *testing.T) {
	svc, _ := newTestService(t, "test-secret")
	other, _ := newTestService(t, "another-secret")

	result, err := other.Login(context.Background(), "owner@example.com", "s3cret-pass")
	require.NoError(t, err)

	_, err = svc.ParseAccessToken(result.AccessToken)
	require.Error(t, err)
}

func TestParseRejectsExpiredToken(t *testing.T) {
	svc, _ := newTestService(t, "test-secret")
	issued := time.Now().Add(-2 * time.Hour)
	svc.WithNow(func() time.Time { return issued })

	result, err := svc.Login(context.Background(), "owner@example.com", "s3cret-pass")
	require.NoError(t, err)

	svc.WithNow(time.Now)
	_, err = svc.ParseAccessToken(result.AccessToken)
	require.Error(t, err)
}

func TestParseRejectsGarbage(t *testing.T) {
	svc, _ := newTestService(t, "test-secret")

	for _, tok := range []string{"", "not-a-token", "a.b.c"} {
		_, err := svc.ParseAccessToken(tok)
		require.Error(t, err, "token %q", tok)
	}
}

func TestMeReturnsUser(t *testing.T) {
	svc, user := newTestService(t, "test-secret")

	got, err := svc.Me(context.Background(), user.ID.String())
	require.NoError(t, err)
	require.Equal(t, user.Email, got.Email)

	_, err = svc.Me(context.Background(), uuid.NewString())
	require.Error(t, err)
}
