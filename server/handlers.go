package server

import (
	"bytes"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"

	"remarks/auth"
	"remarks/domain"
	apperrors "remarks/errors"
)

const incorrectCredentialsMessage = "Username/password is incorrect"
const storeFullMessage = "Database size has exceeded the limit. New messages cannot be added."

type messageView struct {
	ID        int64  `json:"id"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

type postRequest struct {
	Content string `json:"content" form:"content"`
}

// currentSession resolves the session of a request from the cookie, falling
// back to a bearer token for non-browser clients. Anything invalid yields a
// fresh unauthenticated session.
func (s *Server) currentSession(c *fiber.Ctx) *domain.Session {
	token := c.Cookies(s.config.Cookie.Name)
	if token == "" {
		header := c.Get(fiber.HeaderAuthorization)
		if len(header) > 7 && header[:7] == "Bearer " {
			token = header[7:]
		}
	}
	if token == "" {
		return domain.NewSession()
	}
	return s.sessions.resolve(s.auth.Resume(token))
}

// requireSession guards the API group: only authenticated sessions pass.
func (s *Server) requireSession(c *fiber.Ctx) error {
	session := s.currentSession(c)
	if session.Status != domain.Authenticated {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "login required"})
	}
	c.Locals("session", session)
	return c.Next()
}

func sessionFromLocals(c *fiber.Ctx) *domain.Session {
	session, _ := c.Locals("session").(*domain.Session)
	return session
}

type boardPage struct {
	LoggedIn       bool
	DisplayName    string
	IsAdmin        bool
	PollIntervalMs int64
}

func (s *Server) handleIndex(c *fiber.Ctx) error {
	session := s.currentSession(c)

	var buf bytes.Buffer
	err := s.tmpl.Execute(&buf, boardPage{
		LoggedIn:       session.Status == domain.Authenticated,
		DisplayName:    session.DisplayName,
		IsAdmin:        session.IsAdmin(),
		PollIntervalMs: s.config.PollInterval.Milliseconds(),
	})
	if err != nil {
		return fiber.ErrInternalServerError
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Send(buf.Bytes())
}

func (s *Server) handleLogin(c *fiber.Ctx) error {
	var req auth.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "malformed login request"})
	}

	token, session, err := s.auth.Login(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidCredentials) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": incorrectCredentialsMessage})
		}
		s.log.Error("Login failed unexpectedly", "err", err)
		return fiber.ErrInternalServerError
	}

	c.Cookie(&fiber.Cookie{
		Name:     s.config.Cookie.Name,
		Value:    string(token),
		Expires:  time.Now().Add(s.config.Cookie.Expiry()),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	return c.JSON(fiber.Map{
		"username": session.Username,
		"name":     session.DisplayName,
		"admin":    session.IsAdmin(),
	})
}

// handleListMessages serves the polling loop. Inside the debounce window a
// non-forced poll is answered 204 and the client keeps its current view; a
// clear-triggered poll always renders.
func (s *Server) handleListMessages(c *fiber.Ctx) error {
	session := sessionFromLocals(c)

	if !s.refresh.ShouldRender(session) {
		s.monitor.PollSuppressed()
		return c.SendStatus(fiber.StatusNoContent)
	}

	messages, err := s.board.Feed(c.UserContext())
	if err != nil {
		s.log.Error("Listing feed failed", "err", err)
		return fiber.ErrInternalServerError
	}

	s.monitor.FeedRendered()
	views := lo.Map(messages, func(m domain.Message, _ int) messageView {
		return messageView{
			ID:        m.ID,
			Content:   m.Content,
			Timestamp: m.CreatedAt.UTC().Format(time.RFC3339),
		}
	})
	return c.JSON(fiber.Map{"messages": views})
}

func (s *Server) handlePostMessage(c *fiber.Ctx) error {
	session := sessionFromLocals(c)

	var req postRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "malformed message"})
	}

	id, err := s.board.Post(c.UserContext(), session, domain.PostMessageCommand{Content: req.Content})
	switch {
	case errors.Is(err, apperrors.ErrStoreFull):
		// The message is dropped, not queued. The client gets a warning.
		return c.Status(fiber.StatusInsufficientStorage).JSON(fiber.Map{"warning": storeFullMessage})
	case err != nil:
		s.log.Error("Posting message failed", "err", err)
		return fiber.ErrInternalServerError
	}

	s.monitor.MessageAppended()
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": id})
}

func (s *Server) handleClearMessages(c *fiber.Ctx) error {
	session := sessionFromLocals(c)

	err := s.board.Clear(c.UserContext(), domain.ClearFeedCommand{RequestedBy: session})
	switch {
	case errors.Is(err, apperrors.ErrAdminOnly):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "admin only"})
	case err != nil:
		s.log.Error("Clearing feed failed", "err", err)
		return fiber.ErrInternalServerError
	}

	// The admin's own next poll re-renders immediately; other sessions
	// converge within one polling interval.
	s.refresh.TriggerClear(session)
	return c.JSON(fiber.Map{"status": "cleared"})
}

func (s *Server) handleHealthz(c *fiber.Ctx) error {
	return c.JSON(s.monitor.Snapshot())
}
