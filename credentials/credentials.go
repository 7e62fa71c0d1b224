//go:generate go run go.uber.org/mock/mockgen -source=credentials.go -destination=../mocks/mock_credential_store.go -package=mocks

// Package credentials loads the external credential configuration: the
// username mapping plus the session-cookie parameters. The file is read once
// at process start and never written back.
package credentials

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"remarks/errors"
)

// User is one entry of the read-only credential mapping.
// Password holds an argon2id hash, never plaintext.
type User struct {
	Name     string `yaml:"name"`
	Password string `yaml:"password"`
}

// Cookie describes how session tokens are issued.
type Cookie struct {
	Name       string `yaml:"name"`
	Key        string `yaml:"key"`
	ExpiryDays int    `yaml:"expiry_days"`
}

type Config struct {
	Credentials struct {
		Users map[string]User `yaml:"users"`
	} `yaml:"credentials"`
	Cookie Cookie `yaml:"cookie"`
}

// IStore answers credential lookups for the auth service.
type IStore interface {
	Lookup(username string) (User, error)
}

// Load reads and validates the credential file.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading credential file: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parsing credential file: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if len(c.Credentials.Users) == 0 {
		return fmt.Errorf("credential file declares no users")
	}
	for username, user := range c.Credentials.Users {
		if user.Password == "" {
			return fmt.Errorf("user %q has no password hash", username)
		}
	}
	if c.Cookie.Name == "" || c.Cookie.Key == "" {
		return fmt.Errorf("cookie name and signing key are required")
	}
	if c.Cookie.ExpiryDays <= 0 {
		return fmt.Errorf("cookie expiry must be positive, got %d days", c.Cookie.ExpiryDays)
	}
	return nil
}

func (c *Config) Lookup(username string) (User, error) {
	user, ok := c.Credentials.Users[username]
	if !ok {
		return User{}, errors.ErrUnknownUser
	}
	return user, nil
}

func (k Cookie) Expiry() time.Duration {
	return time.Duration(k.ExpiryDays) * 24 * time.Hour
}
