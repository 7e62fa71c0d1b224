package main

import "time"

type Config struct {
	Host              string        `env:"HOST,default=localhost"`
	Port              int           `env:"PORT,default=8080"`
	DatabasePath      string        `env:"DATABASE_PATH,default=./chat_messages.sqlite3"`
	CredentialsPath   string        `env:"CREDENTIALS_PATH,default=./config.yml"`
	SizeLimitMb       int           `env:"SIZE_LIMIT_MB,default=1024"`
	PollInterval      time.Duration `env:"POLL_INTERVAL,default=10s"`
	DebounceWindow    time.Duration `env:"DEBOUNCE_WINDOW,default=5s"`
	CensoredWordsPath string        `env:"CENSORED_WORDS_PATH"`
	ModerationMask    string        `env:"MODERATION_MASK,default=*"`
	LogLevel          string        `env:"LOG_LEVEL,default=INFO"`
}
