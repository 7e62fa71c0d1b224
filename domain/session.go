// Package domain contains core concepts of the message board.
// This file defines the Session and its authentication lifecycle.
// No transport, storage, or UI logic should be added here.
package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// AuthStatus is the authentication state of one session.
// A session holds exactly one status at any time.
type AuthStatus int

const (
	Unauthenticated AuthStatus = iota
	Authenticated
	Rejected
)

func (s AuthStatus) String() string {
	switch s {
	case Authenticated:
		return "authenticated"
	case Rejected:
		return "rejected"
	default:
		return "unauthenticated"
	}
}

// Session tracks one client's authentication lifecycle plus the private
// refresh state of its polling loop. Each client gets its own instance,
// passed explicitly to handlers; nothing here is shared between sessions.
type Session struct {
	ID          uuid.UUID
	Username    string
	DisplayName string
	Status      AuthStatus

	// LastRefresh and ClearTrigger drive the render debounce window.
	// They are owned by refresh.Controller and scoped to this session.
	LastRefresh  time.Time
	ClearTrigger bool
}

func NewSession() *Session {
	return &Session{ID: uuid.New()}
}

// Authenticate moves the session to Authenticated. An authenticated session
// must carry a non-empty username.
func (s *Session) Authenticate(username, displayName string) error {
	if username == "" {
		return fmt.Errorf("authenticated session requires a username")
	}
	s.Username = username
	s.DisplayName = displayName
	s.Status = Authenticated
	return nil
}

// Reject records a failed login attempt. Rejected is not absorbing: the
// client may retry with a fresh attempt.
func (s *Session) Reject() {
	s.Username = ""
	s.DisplayName = ""
	s.Status = Rejected
}

// IsAdmin reports whether this session holds the admin identity, i.e. an
// authenticated username that equals "admin" case-insensitively. The naming
// convention lives only behind this predicate so a real role system could
// replace it without touching call sites.
func (s *Session) IsAdmin() bool {
	return s.Status == Authenticated && strings.EqualFold(s.Username, "admin")
}
