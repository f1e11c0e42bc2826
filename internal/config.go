package internal

import (
	"fmt"
	"strings"
	"time"
)

type Config struct {
	Host string `env:"HOST,required=true"`
	Port int    `env:"PORT,required=true"`

	LogLevel string `env:"LOG_LEVEL,required=true"`

	// PresenceStore selects the registry backing store: "redis" for
	// multi-node deployments, "memory" for a single process.
	PresenceStore string `env:"PRESENCE_STORE,default=redis"`
	RedisAddr     string `env:"REDIS_ADDR,default=localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`

	BadgerFilepath string `env:"BADGER_FILEPATH,required=true"`

	JWTSecret         string        `env:"JWT_SECRET,required=true"`
	AuthTokenDuration time.Duration `env:"AUTH_TOKEN_DURATION,required=true"`

	PushTimeout          time.Duration `env:"PUSH_TIMEOUT,default=5s"`
	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,default=256"`
	LimitMessages        int           `env:"LIMIT_MESSAGES,default=50"`
	ReportInterval       time.Duration `env:"REPORT_INTERVAL,default=30s"`
	StorageGCInterval    time.Duration `env:"STORAGE_GC_INTERVAL,default=10m"`

	// Comma-separated list of words censored in message text. Empty disables
	// moderation.
	CensoredWords string `env:"CENSORED_WORDS"`

	CensoredChar string `env:"CENSORED_CHARACTER,default=*"`
}

// CensoredWordList splits the configured word list, dropping blanks.
func (c Config) CensoredWordList() []string {
	var words []string
	for _, w := range strings.Split(c.CensoredWords, ",") {
		if w = strings.TrimSpace(w); w != "" {
			words = append(words, w)
		}
	}
	return words
}

// CharacterRune enforces a single-rune censor character.
func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf("CENSORED_CHARACTER must be a single character, got %q", str)
	}
	return r[0], nil
}
