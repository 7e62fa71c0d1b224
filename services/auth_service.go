package services

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"remarks/auth"
	"remarks/credentials"
	"remarks/domain"
	"remarks/errors"
)

type IAuthService interface {
	Login(username, password string) (Token, *domain.Session, error)
	Resume(token string) *domain.Session
}

type Token string

// AuthService drives the per-session authentication state machine:
// Unauthenticated -> Authenticated | Rejected, with Rejected retryable.
type AuthService struct {
	store  credentials.IStore
	issuer *auth.TokenIssuer
	log    *slog.Logger
}

func NewAuthService(store credentials.IStore, issuer *auth.TokenIssuer, log *slog.Logger) IAuthService {
	return &AuthService{store: store, issuer: issuer, log: log}
}

// Login runs one authentication attempt for a fresh session. Every failure
// lands the session in Rejected with the same generic error, so usernames
// cannot be enumerated. On success the session is Authenticated and carries
// a signed token to resume from on later requests.
func (s *AuthService) Login(username, password string) (Token, *domain.Session, error) {
	session := domain.NewSession()

	if err := auth.ValidateLogin(auth.LoginRequest{Username: username, Password: password}); err != nil {
		session.Reject()
		return "", session, errors.ErrInvalidCredentials
	}

	user, err := s.store.Lookup(username)
	if err != nil {
		session.Reject()
		return "", session, errors.ErrInvalidCredentials
	}

	match, err := auth.ComparePassword(password, user.Password)
	if err != nil || !match {
		s.log.Debug("Password mismatch", "username", username)
		session.Reject()
		return "", session, errors.ErrInvalidCredentials
	}

	if err := session.Authenticate(username, user.Name); err != nil {
		session.Reject()
		return "", session, errors.ErrInvalidCredentials
	}

	token, err := s.issuer.Issue(username, user.Name)
	if err != nil {
		session.Reject()
		return "", session, fmt.Errorf("%w: %v", errors.ErrTokenGeneration, err)
	}

	s.log.Info("Login succeeded", "username", username)
	return Token(token), session, nil
}

// Resume rebuilds a session from a presented token. A malformed or expired
// token yields a fresh unauthenticated session, never an error: the client
// simply sees the login form again.
func (s *AuthService) Resume(token string) *domain.Session {
	claims, err := s.issuer.Validate(token)
	if err != nil {
		return domain.NewSession()
	}

	session := domain.NewSession()
	if jti, parseErr := uuid.Parse(claims.ID); parseErr == nil {
		session.ID = jti
	}
	if err := session.Authenticate(claims.Username, claims.DisplayName); err != nil {
		return domain.NewSession()
	}
	return session
}
