package main

import (
	"fmt"
	"strings"
	"time"
)

type Config struct {
	BadgerFilepath       string        `env:"BADGER_FILEPATH,required=true"`
	BlugeFilepath        string        `env:"BLUGE_FILEPATH,required=true"`
	UploadDir            string        `env:"UPLOAD_DIR,default=uploads"`
	LogLevel             string        `env:"LOG_LEVEL,default=INFO"`
	Host                 string        `env:"HOST,default=localhost"`
	Port                 int           `env:"PORT,default=8080"`
	BusKind              string        `env:"BUS_KIND,default=local"`
	RedisAddr            string        `env:"REDIS_ADDR"`
	BusBufferSize        int           `env:"BUS_BUFFER_SIZE,default=1024"`
	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,default=128"`
	SinkTimeout          time.Duration `env:"SINK_TIMEOUT,default=2s"`
	PublishTimeout       time.Duration `env:"PUBLISH_TIMEOUT,default=2s"`
	InflightTimeout      time.Duration `env:"INFLIGHT_TIMEOUT,default=5s"`
	RestartInterval      time.Duration `env:"RESTART_INTERVAL,default=1s"`
	AutoJoin             bool          `env:"AUTO_JOIN,default=true"`
	MaxContentLength     int           `env:"MAX_CONTENT_LENGTH,default=5000"`
	MaxUploadSize        int64         `env:"MAX_UPLOAD_SIZE,default=10485760"`
	DefaultPageSize      int           `env:"DEFAULT_PAGE_SIZE,default=20"`
	MaxPageSize          int           `env:"MAX_PAGE_SIZE,default=100"`
	JWTSecret            string        `env:"JWT_SECRET,required=true"`
	AuthTokenDuration    time.Duration `env:"AUTH_TOKEN_DURATION,default=24h"`
	CensoredWords        string        `env:"CENSORED_WORDS"`
	CensoredDir          string        `env:"CENSORED_DIR"`
	CharReplacement      string        `env:"CHARACTER_REPLACEMENT,default=*"`
}

func (c Config) CharacterRune() (rune, error) {
	r := []rune(c.CharReplacement)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"CHARACTER_REPLACEMENT must be a single character, got %q",
			c.CharReplacement,
		)
	}
	return r[0], nil
}

// InlineCensoredWords splits CENSORED_WORDS on commas.
func (c Config) InlineCensoredWords() []string {
	if strings.TrimSpace(c.CensoredWords) == "" {
		return nil
	}
	return strings.Split(c.CensoredWords, ",")
}

func (c Config) Validate() error {
	switch c.BusKind {
	case "local":
	case "redis":
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required when BUS_KIND is redis")
		}
	default:
		return fmt.Errorf("BUS_KIND must be local or redis, got %q", c.BusKind)
	}
	if len(c.JWTSecret) < 16 {
		return fmt.Errorf("JWT_SECRET must be at least 16 characters long")
	}
	return nil
}
