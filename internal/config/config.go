// Package config loads process configuration from the environment, with an
// optional .env file for local runs.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

type Config struct {
	Addr        string `env:"JOBBOARD_ADDR,default=:8080"`
	PublicURL   string `env:"JOBBOARD_PUBLIC_URL,default=http://localhost:8080"`
	PGDSN       string `env:"JOBBOARD_PG_DSN"`
	AutoMigrate bool   `env:"JOBBOARD_AUTO_MIGRATE,default=true"`
	LogLevel    string `env:"JOBBOARD_LOG_LEVEL,default=info"`

	SessionStore  string `env:"JOBBOARD_SESSION_STORE,default=postgres"`
	RedisAddr     string `env:"JOBBOARD_REDIS_ADDR,default=localhost:6379"`
	RedisPassword string `env:"JOBBOARD_REDIS_PASSWORD"`
	RedisDB       int    `env:"JOBBOARD_REDIS_DB,default=0"`

	SessionSecret      string `env:"JOBBOARD_JWT_SIGNIN"`
	ConfirmationSecret string `env:"JOBBOARD_JWT_VERIFIED_EMAIL"`
	ResetSecret        string `env:"JOBBOARD_JWT_RESET_PASSWORD"`

	MailDriver       string `env:"JOBBOARD_MAIL_DRIVER,default=log"`
	MailHost         string `env:"JOBBOARD_MAIL_HOST"`
	MailPort         int    `env:"JOBBOARD_MAIL_PORT,default=587"`
	MailUsername     string `env:"JOBBOARD_MAIL_USERNAME"`
	MailPassword     string `env:"JOBBOARD_MAIL_PASSWORD"`
	MailFrom         string `env:"JOBBOARD_MAIL_FROM,default=no-reply@jobsearch.app"`
	GmailCredentials string `env:"JOBBOARD_GMAIL_CREDENTIALS"`
	GmailToken       string `env:"JOBBOARD_GMAIL_TOKEN"`

	RateBurst       int     `env:"JOBBOARD_RATE_BURST,default=20"`
	RatePerSec      float64 `env:"JOBBOARD_RATE_PER_SEC,default=10"`
	MaxBodyBytes    int64   `env:"JOBBOARD_MAX_BODY_BYTES,default=1048576"`
	JanitorSchedule string  `env:"JOBBOARD_JANITOR_SCHEDULE,default=@every 15m"`

	ShutdownTimeout time.Duration `env:"JOBBOARD_SHUTDOWN_TIMEOUT,default=10s"`
}

// Load reads envFile when it exists (an empty name means ".env") and decodes
// the environment into a Config. Variables already set in the environment
// win over the file.
func Load(envFile string) (Config, error) {
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load %s: %w", envFile, err)
	}
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return Config{}, fmt.Errorf("decode environment: %w", err)
	}
	return cfg, nil
}

// Validate rejects configurations the server cannot start with.
func (c Config) Validate() error {
	var errs []error
	secrets := map[string]string{
		"JOBBOARD_JWT_SIGNIN":         c.SessionSecret,
		"JOBBOARD_JWT_VERIFIED_EMAIL": c.ConfirmationSecret,
		"JOBBOARD_JWT_RESET_PASSWORD": c.ResetSecret,
	}
	seen := map[string]string{}
	for _, name := range []string{"JOBBOARD_JWT_SIGNIN", "JOBBOARD_JWT_VERIFIED_EMAIL", "JOBBOARD_JWT_RESET_PASSWORD"} {
		v := secrets[name]
		if v == "" {
			errs = append(errs, fmt.Errorf("%s is required", name))
			continue
		}
		if other, ok := seen[v]; ok {
			errs = append(errs, fmt.Errorf("%s must differ from %s", name, other))
		}
		seen[v] = name
	}

	switch c.SessionStore {
	case "postgres":
		if c.PGDSN == "" {
			errs = append(errs, errors.New("JOBBOARD_SESSION_STORE=postgres requires JOBBOARD_PG_DSN"))
		}
	case "redis", "memory":
	default:
		errs = append(errs, fmt.Errorf("unknown session store %q", c.SessionStore))
	}

	switch c.MailDriver {
	case "smtp":
		if c.MailHost == "" {
			errs = append(errs, errors.New("JOBBOARD_MAIL_DRIVER=smtp requires JOBBOARD_MAIL_HOST"))
		}
	case "gmail":
		if c.GmailCredentials == "" || c.GmailToken == "" {
			errs = append(errs, errors.New("JOBBOARD_MAIL_DRIVER=gmail requires JOBBOARD_GMAIL_CREDENTIALS and JOBBOARD_GMAIL_TOKEN"))
		}
	case "log":
	default:
		errs = append(errs, fmt.Errorf("unknown mail driver %q", c.MailDriver))
	}

	if !strings.HasPrefix(c.PublicURL, "http://") && !strings.HasPrefix(c.PublicURL, "https://") {
		errs = append(errs, fmt.Errorf("JOBBOARD_PUBLIC_URL must be an http(s) url, got %q", c.PublicURL))
	}
	if c.RateBurst <= 0 || c.RatePerSec <= 0 {
		errs = append(errs, errors.New("rate limit burst and rate must be positive"))
	}
	if c.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("JOBBOARD_MAX_BODY_BYTES must be positive"))
	}
	return errors.Join(errs...)
}
