// internal/config/config.go
//
// Typed server configuration.
// Values come from the process environment, optionally seeded from a .env
// file. Malformed values fall back to their defaults with a warning so a bad
// deploy variable never stops the server from booting.

package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/its-lightning/tetris/internal/game"
)

type Config struct {
	Port         string
	DatabaseURL  string
	JWTSecret    string
	JWTExpiry    time.Duration
	CookieName   string
	ClientOrigin string
	Production   bool
	LogLevel     zerolog.Level

	AutoRepeatDelay time.Duration
	AutoRepeatRate  time.Duration
	HoldEnabled     bool
	Kicks           game.KickMode
	Frame           time.Duration

	// Solo session eviction.
	SessionIdle  time.Duration
	SessionGrace time.Duration
	SessionSweep time.Duration

	AdminUsername string
	AdminPassword string
}

// Load reads .env (if present) and the environment.
func Load() Config {
	_ = godotenv.Load()
	return FromLookup(os.Getenv)
}

// FromLookup builds a Config from an env-style lookup function.
func FromLookup(getenv func(string) string) Config {
	e := env{get: getenv}

	c := Config{
		Port:         e.str("PORT", "5175"),
		DatabaseURL:  e.str("DATABASE_URL", "./data/tetris.db"),
		JWTSecret:    e.str("JWT_SECRET", "dev_secret_change_me"),
		JWTExpiry:    time.Duration(e.integer("JWT_EXPIRES_DAYS", 14)) * 24 * time.Hour,
		CookieName:   e.str("COOKIE_NAME", "tetris_token"),
		ClientOrigin: e.str("CLIENT_ORIGIN", "http://localhost:5173"),
		Production:   e.str("NODE_ENV", "") == "production",
		LogLevel:     zerolog.InfoLevel,

		AutoRepeatDelay: time.Duration(e.integer("AUTO_REPEAT_DELAY_MS", 170)) * time.Millisecond,
		AutoRepeatRate:  time.Duration(e.integer("AUTO_REPEAT_RATE_MS", 100)) * time.Millisecond,
		HoldEnabled:     e.boolean("HOLD_ENABLED", true),
		Kicks:           game.KickSRS,
		Frame:           time.Duration(e.integer("FRAME_MS", 16)) * time.Millisecond,

		SessionIdle:  time.Duration(e.integer("SESSION_IDLE_MINUTES", 30)) * time.Minute,
		SessionGrace: time.Duration(e.integer("SESSION_GRACE_SECONDS", 60)) * time.Second,
		SessionSweep: time.Duration(e.integer("SESSION_SWEEP_SECONDS", 30)) * time.Second,

		AdminUsername: e.str("ADMIN_USERNAME", ""),
		AdminPassword: e.str("ADMIN_PASSWORD", ""),
	}

	if v := e.str("LOG_LEVEL", "info"); v != "" {
		if lvl, err := zerolog.ParseLevel(v); err == nil {
			c.LogLevel = lvl
		} else {
			log.Warn().Str("LOG_LEVEL", v).Msg("unknown log level, using info")
		}
	}
	if v := e.str("KICK_MODE", "srs"); v != "" {
		if m, ok := game.ParseKickMode(v); ok {
			c.Kicks = m
		} else {
			log.Warn().Str("KICK_MODE", v).Msg("unknown kick mode, using srs")
		}
	}
	return c
}

// GameConfig returns the simulation rules carried by c.
func (c Config) GameConfig() game.Config {
	return game.Config{
		Kicks:           c.Kicks,
		HoldEnabled:     c.HoldEnabled,
		AutoRepeatDelay: c.AutoRepeatDelay,
		AutoRepeatRate:  c.AutoRepeatRate,
	}
}

type env struct {
	get func(string) string
}

func (e env) str(k, def string) string {
	if v := strings.TrimSpace(e.get(k)); v != "" {
		return v
	}
	return def
}

func (e env) integer(k string, def int) int {
	v := strings.TrimSpace(e.get(k))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		log.Warn().Str(k, v).Int("default", def).Msg("invalid integer, using default")
		return def
	}
	return n
}

func (e env) boolean(k string, def bool) bool {
	v := strings.TrimSpace(e.get(k))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Warn().Str(k, v).Bool("default", def).Msg("invalid boolean, using default")
		return def
	}
	return b
}
