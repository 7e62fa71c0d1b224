package services

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"remarks/auth"
	"remarks/credentials"
	"remarks/domain"
	"remarks/errors"
	"remarks/mocks"
)

func newTestAuthService(t *testing.T) (*mocks.MockIStore, IAuthService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	store := mocks.NewMockIStore(ctrl)
	issuer, err := auth.NewTokenIssuer("test_signing_key", time.Hour)
	require.NoError(t, err)
	return store, NewAuthService(store, issuer, slog.Default())
}

func TestAuthService_Login(t *testing.T) {
	store, svc := newTestAuthService(t)

	t.Run("should authenticate with correct credentials", func(t *testing.T) {
		req := require.New(t)
		password := "Tr0isPetitsChats!"
		hash, err := auth.HashPassword(password)
		req.NoError(err)

		store.EXPECT().
			Lookup("alice").
			Return(credentials.User{Name: "Alice", Password: hash}, nil).
			Times(1)

		token, session, err := svc.Login("alice", password)

		req.NoError(err)
		req.NotEmpty(token)
		req.Equal(domain.Authenticated, session.Status)
		req.Equal("alice", session.Username)
		req.Equal("Alice", session.DisplayName)
	})

	t.Run("should reject a wrong password", func(t *testing.T) {
		req := require.New(t)
		hash, err := auth.HashPassword("the right password")
		req.NoError(err)

		store.EXPECT().
			Lookup("alice").
			Return(credentials.User{Name: "Alice", Password: hash}, nil).
			Times(1)

		token, session, err := svc.Login("alice", "the wrong password")

		req.ErrorIs(err, errors.ErrInvalidCredentials)
		req.Empty(token)
		req.Equal(domain.Rejected, session.Status)
	})

	t.Run("should reject an unknown user with the same error", func(t *testing.T) {
		req := require.New(t)
		store.EXPECT().
			Lookup("nobody").
			Return(credentials.User{}, errors.ErrUnknownUser).
			Times(1)

		_, session, err := svc.Login("nobody", "whatever")

		req.ErrorIs(err, errors.ErrInvalidCredentials)
		req.Equal(domain.Rejected, session.Status)
	})

	t.Run("should reject blank credentials before any lookup", func(t *testing.T) {
		req := require.New(t)
		store.EXPECT().Lookup(gomock.Any()).Times(0)

		_, session, err := svc.Login("", "")

		req.ErrorIs(err, errors.ErrInvalidCredentials)
		req.Equal(domain.Rejected, session.Status)
	})

	t.Run("should let a rejected client retry and succeed", func(t *testing.T) {
		req := require.New(t)
		password := "Tr0isPetitsChats!"
		hash, err := auth.HashPassword(password)
		req.NoError(err)

		store.EXPECT().Lookup("alice").
			Return(credentials.User{Name: "Alice", Password: hash}, nil).
			Times(2)

		_, first, err := svc.Login("alice", "nope")
		req.ErrorIs(err, errors.ErrInvalidCredentials)
		req.Equal(domain.Rejected, first.Status)

		_, second, err := svc.Login("alice", password)
		req.NoError(err)
		req.Equal(domain.Authenticated, second.Status)
	})
}

func TestAuthService_Resume(t *testing.T) {
	store, svc := newTestAuthService(t)

	t.Run("should resume an authenticated session from a valid token", func(t *testing.T) {
		req := require.New(t)
		password := "Tr0isPetitsChats!"
		hash, err := auth.HashPassword(password)
		req.NoError(err)

		store.EXPECT().Lookup("admin").
			Return(credentials.User{Name: "The Administrator", Password: hash}, nil).
			Times(1)

		token, loginSession, err := svc.Login("admin", password)
		req.NoError(err)

		resumed := svc.Resume(string(token))
		req.Equal(domain.Authenticated, resumed.Status)
		req.Equal("admin", resumed.Username)
		req.True(resumed.IsAdmin())
		req.Equal(loginSession.Username, resumed.Username)
	})

	t.Run("should degrade a garbage token to unauthenticated", func(t *testing.T) {
		req := require.New(t)
		session := svc.Resume("malformed.token.here")
		req.Equal(domain.Unauthenticated, session.Status)
		req.Empty(session.Username)
	})

	t.Run("should degrade an expired token to unauthenticated", func(t *testing.T) {
		req := require.New(t)
		expired, err := auth.NewTokenIssuer("test_signing_key", -time.Minute)
		req.NoError(err)
		token, err := expired.Issue("alice", "Alice")
		req.NoError(err)

		session := svc.Resume(token)
		req.Equal(domain.Unauthenticated, session.Status)
	})
}
