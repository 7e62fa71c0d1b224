package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"remarks/auth"
	"remarks/credentials"
	"remarks/domain"
	"remarks/observability"
	"remarks/refresh"
	"remarks/repositories"
	"remarks/services"
)

const testAdminPassword = "UnMotDePasseTr0pSûr!"

func newTestServer(t *testing.T, debounce time.Duration) *Server {
	t.Helper()
	req := require.New(t)

	hash, err := auth.HashPassword(testAdminPassword)
	req.NoError(err)

	var creds credentials.Config
	creds.Credentials.Users = map[string]credentials.User{
		"admin": {Name: "The Administrator", Password: hash},
		"alice": {Name: "Alice", Password: hash},
	}
	creds.Cookie = credentials.Cookie{Name: "remarks_session", Key: "test_signing_key", ExpiryDays: 30}

	issuer, err := auth.NewTokenIssuer(creds.Cookie.Key, creds.Cookie.Expiry())
	req.NoError(err)

	repo, err := repositories.NewMessageRepository(
		filepath.Join(t.TempDir(), "chat_messages.sqlite3"), 1024, slog.Default())
	req.NoError(err)
	t.Cleanup(func() { _ = repo.Close() })

	log := slog.Default()
	return New(
		services.NewAuthService(&creds, issuer, log),
		services.NewBoardService(repo, nil, log),
		refresh.NewController(debounce),
		observability.NewMonitor(),
		Config{Cookie: creds.Cookie, PollInterval: 10 * time.Second},
		log,
	)
}

func login(t *testing.T, s *Server, username, password string) *http.Cookie {
	t.Helper()
	req := require.New(t)

	body, _ := json.Marshal(map[string]string{"username": username, "password": password})
	request := httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader(body))
	request.Header.Set("Content-Type", "application/json")

	resp, err := s.app.Test(request)
	req.NoError(err)
	req.Equal(http.StatusOK, resp.StatusCode)

	for _, cookie := range resp.Cookies() {
		if cookie.Name == "remarks_session" {
			return cookie
		}
	}
	t.Fatal("no session cookie issued")
	return nil
}

func doJSON(t *testing.T, s *Server, method, path string, cookie *http.Cookie, payload any) (*http.Response, map[string]any) {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, _ := json.Marshal(payload)
		body = bytes.NewReader(raw)
	}
	request := httptest.NewRequest(method, path, body)
	if payload != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		request.AddCookie(cookie)
	}

	resp, err := s.app.Test(request)
	require.NoError(t, err)

	var decoded map[string]any
	raw, _ := io.ReadAll(resp.Body)
	_ = json.Unmarshal(raw, &decoded)
	return resp, decoded
}

func feedContents(t *testing.T, body map[string]any) []string {
	t.Helper()
	raw, ok := body["messages"].([]any)
	if !ok {
		return nil
	}
	var contents []string
	for _, entry := range raw {
		m := entry.(map[string]any)
		contents = append(contents, m["content"].(string))
	}
	return contents
}

func TestLogin(t *testing.T) {
	s := newTestServer(t, 0)

	t.Run("should issue a cookie for valid credentials", func(t *testing.T) {
		req := require.New(t)
		cookie := login(t, s, "alice", testAdminPassword)
		req.NotEmpty(cookie.Value)
		req.True(cookie.HttpOnly)
	})

	t.Run("should answer 401 with the canonical message on bad credentials", func(t *testing.T) {
		req := require.New(t)
		resp, body := doJSON(t, s, http.MethodPost, "/login", nil,
			map[string]string{"username": "alice", "password": "wrong"})
		req.Equal(http.StatusUnauthorized, resp.StatusCode)
		req.Equal("Username/password is incorrect", body["error"])
	})

	t.Run("should flag the admin identity", func(t *testing.T) {
		req := require.New(t)
		resp, body := doJSON(t, s, http.MethodPost, "/login", nil,
			map[string]string{"username": "admin", "password": testAdminPassword})
		req.Equal(http.StatusOK, resp.StatusCode)
		req.Equal(true, body["admin"])
	})
}

func TestPostAndList(t *testing.T) {
	req := require.New(t)
	s := newTestServer(t, 0)
	cookie := login(t, s, "alice", testAdminPassword)

	resp, _ := doJSON(t, s, http.MethodPost, "/api/messages", cookie, map[string]string{"content": "hello"})
	req.Equal(http.StatusCreated, resp.StatusCode)
	resp, _ = doJSON(t, s, http.MethodPost, "/api/messages", cookie, map[string]string{"content": "world"})
	req.Equal(http.StatusCreated, resp.StatusCode)

	resp, body := doJSON(t, s, http.MethodGet, "/api/messages", cookie, nil)
	req.Equal(http.StatusOK, resp.StatusCode)
	req.Equal([]string{"hello", "world"}, feedContents(t, body))
}

func TestAPIRequiresAuthentication(t *testing.T) {
	req := require.New(t)
	s := newTestServer(t, 0)

	resp, _ := doJSON(t, s, http.MethodGet, "/api/messages", nil, nil)
	req.Equal(http.StatusUnauthorized, resp.StatusCode)

	resp, _ = doJSON(t, s, http.MethodPost, "/api/messages", nil, map[string]string{"content": "nope"})
	req.Equal(http.StatusUnauthorized, resp.StatusCode)

	forged := &http.Cookie{Name: "remarks_session", Value: "forged.token.value"}
	resp, _ = doJSON(t, s, http.MethodGet, "/api/messages", forged, nil)
	req.Equal(http.StatusUnauthorized, resp.StatusCode, "a malformed token degrades to unauthenticated")
}

func TestClearIsAdminGated(t *testing.T) {
	req := require.New(t)
	s := newTestServer(t, 0)
	alice := login(t, s, "alice", testAdminPassword)
	admin := login(t, s, "admin", testAdminPassword)

	resp, _ := doJSON(t, s, http.MethodPost, "/api/messages", alice, map[string]string{"content": "doomed"})
	req.Equal(http.StatusCreated, resp.StatusCode)

	resp, _ = doJSON(t, s, http.MethodPost, "/api/messages/clear", alice, nil)
	req.Equal(http.StatusForbidden, resp.StatusCode)

	resp, body := doJSON(t, s, http.MethodGet, "/api/messages", alice, nil)
	req.Equal(http.StatusOK, resp.StatusCode)
	req.Equal([]string{"doomed"}, feedContents(t, body), "a refused clear changes nothing")

	resp, _ = doJSON(t, s, http.MethodPost, "/api/messages/clear", admin, nil)
	req.Equal(http.StatusOK, resp.StatusCode)

	resp, body = doJSON(t, s, http.MethodGet, "/api/messages", admin, nil)
	req.Equal(http.StatusOK, resp.StatusCode)
	req.Empty(feedContents(t, body))
}

func TestPollingDebounce(t *testing.T) {
	req := require.New(t)
	s := newTestServer(t, 5*time.Second)
	admin := login(t, s, "admin", testAdminPassword)

	// First poll renders, the immediate second one is inside the window.
	resp, _ := doJSON(t, s, http.MethodGet, "/api/messages", admin, nil)
	req.Equal(http.StatusOK, resp.StatusCode)
	resp, _ = doJSON(t, s, http.MethodGet, "/api/messages", admin, nil)
	req.Equal(http.StatusNoContent, resp.StatusCode)

	// A clear-all latches a forced render that bypasses the window.
	resp, _ = doJSON(t, s, http.MethodPost, "/api/messages/clear", admin, nil)
	req.Equal(http.StatusOK, resp.StatusCode)
	resp, _ = doJSON(t, s, http.MethodGet, "/api/messages", admin, nil)
	req.Equal(http.StatusOK, resp.StatusCode)
}

func TestIndexPage(t *testing.T) {
	req := require.New(t)
	s := newTestServer(t, 0)

	request := httptest.NewRequest(http.MethodGet, "/", nil)
	resp, err := s.app.Test(request)
	req.NoError(err)
	req.Equal(http.StatusOK, resp.StatusCode)
	page, _ := io.ReadAll(resp.Body)
	req.Contains(string(page), "Login")

	cookie := login(t, s, "admin", testAdminPassword)
	request = httptest.NewRequest(http.MethodGet, "/", nil)
	request.AddCookie(cookie)
	resp, err = s.app.Test(request)
	req.NoError(err)
	page, _ = io.ReadAll(resp.Body)
	req.Contains(string(page), "The Administrator")
	req.Contains(string(page), "Clear all messages")
}

func TestHealthz(t *testing.T) {
	req := require.New(t)
	s := newTestServer(t, 0)

	resp, body := doJSON(t, s, http.MethodGet, "/healthz", nil, nil)
	req.Equal(http.StatusOK, resp.StatusCode)
	req.Contains(body, "uptime_seconds")
	req.Contains(body, "messages_appended")
}

func TestSessionRegistryIgnoresUnauthenticated(t *testing.T) {
	req := require.New(t)
	registry := newSessionRegistry(time.Nanosecond)

	for i := 0; i < 1000; i++ {
		anonymous := domain.NewSession()
		req.Same(anonymous, registry.resolve(anonymous))
	}
	rejected := domain.NewSession()
	rejected.Reject()
	registry.resolve(rejected)

	registry.mu.Lock()
	retained := len(registry.entries)
	registry.mu.Unlock()
	req.Zero(retained, "only authenticated sessions are worth caching")
}

func TestSessionRegistryPrunesIdleEntries(t *testing.T) {
	req := require.New(t)
	registry := newSessionRegistry(time.Millisecond)

	idle := domain.NewSession()
	req.NoError(idle.Authenticate("alice", "Alice"))
	registry.resolve(idle)

	time.Sleep(5 * time.Millisecond)

	fresh := domain.NewSession()
	req.NoError(fresh.Authenticate("admin", "The Administrator"))
	registry.resolve(fresh)

	registry.mu.Lock()
	_, idleKept := registry.entries[idle.ID]
	_, freshKept := registry.entries[fresh.ID]
	registry.mu.Unlock()
	req.False(idleKept, "an idle entry is evicted once past the TTL")
	req.True(freshKept)
}

func TestSessionRegistryEvictionLeavesRefreshStateAlone(t *testing.T) {
	// Eviction and the poll debounce touch the same session from different
	// goroutines. The registry must confine itself to its own bookkeeping,
	// so running both in parallel is safe.
	req := require.New(t)
	registry := newSessionRegistry(time.Nanosecond)
	controller := refresh.NewController(time.Millisecond)

	session := domain.NewSession()
	req.NoError(session.Authenticate("alice", "Alice"))
	registry.resolve(session)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			controller.ShouldRender(session)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			other := domain.NewSession()
			_ = other.Authenticate("admin", "The Administrator")
			registry.resolve(other)
		}
	}()
	wg.Wait()
}

func TestBearerTokenFallback(t *testing.T) {
	req := require.New(t)
	s := newTestServer(t, 0)
	cookie := login(t, s, "alice", testAdminPassword)

	request := httptest.NewRequest(http.MethodGet, "/api/messages", nil)
	request.Header.Set("Authorization", fmt.Sprintf("Bearer %s", cookie.Value))
	resp, err := s.app.Test(request)
	req.NoError(err)
	req.Equal(http.StatusOK, resp.StatusCode)
}
