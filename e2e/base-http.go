package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"testing"
	"time"

	"github.com/gookit/color"
	"github.com/stretchr/testify/suite"
)

// BaseHTTPSuite drives a running board over its public HTTP surface, with a
// cookie jar so the session cookie behaves as in a browser.
type BaseHTTPSuite struct {
	suite.Suite
	Config Config
	Client *http.Client
}

// SetupSuite loads the environment configuration before running tests
func (s *BaseHTTPSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)

	jar, err := cookiejar.New(nil)
	s.Require().NoError(err)
	s.Client = &http.Client{Jar: jar, Timeout: 15 * time.Second}
}

// Step prints a colorized header so scenario phases stand out in logs.
func (s *BaseHTTPSuite) Step(t *testing.T, name string) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	t.Log(header)
}

func (s *BaseHTTPSuite) PostJSON(path string, payload any) (*http.Response, map[string]any) {
	raw, err := json.Marshal(payload)
	s.Require().NoError(err)

	resp, err := s.Client.Post(s.Config.Addr+path, "application/json", bytes.NewReader(raw))
	s.Require().NoError(err)
	return resp, decode(resp)
}

func (s *BaseHTTPSuite) Get(path string) (*http.Response, map[string]any) {
	resp, err := s.Client.Get(s.Config.Addr + path)
	s.Require().NoError(err)
	return resp, decode(resp)
}

func (s *BaseHTTPSuite) Login(username, password string) {
	resp, body := s.PostJSON("/login", map[string]string{"username": username, "password": password})
	s.Require().Equal(http.StatusOK, resp.StatusCode, "login refused: %v", body)
}

// FeedContents polls until the server leaves the debounce window, then
// returns the feed contents in order.
func (s *BaseHTTPSuite) FeedContents() []string {
	deadline := time.Now().Add(10 * time.Second)
	for {
		resp, body := s.Get("/api/messages")
		if resp.StatusCode == http.StatusOK {
			var contents []string
			if raw, ok := body["messages"].([]any); ok {
				for _, entry := range raw {
					contents = append(contents, entry.(map[string]any)["content"].(string))
				}
			}
			return contents
		}
		s.Require().Equal(http.StatusNoContent, resp.StatusCode)
		s.Require().True(time.Now().Before(deadline), "server kept suppressing renders")
		time.Sleep(time.Second)
	}
}

func decode(resp *http.Response) map[string]any {
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	var body map[string]any
	_ = json.Unmarshal(raw, &body)
	return body
}
