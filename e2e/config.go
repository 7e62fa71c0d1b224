package e2e

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// BOARD_ADDR points at a running board, e.g. http://localhost:8080.
	// The suite is skipped when it is empty.
	Addr          string `envconfig:"BOARD_ADDR"`
	AdminUser     string `envconfig:"BOARD_ADMIN_USER" default:"admin"`
	AdminPassword string `envconfig:"BOARD_ADMIN_PASSWORD"`
	// E2E_COLOURS enables colorized output for better log readability
	Colours bool `envconfig:"E2E_COLOURS" default:"true"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
