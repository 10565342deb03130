// Package config reads the service settings from the environment, after
// loading a .env file when one is present.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type Config struct {
	Port           string
	MongoURI       string
	MongoDB        string
	RedisAddr      string
	JWTSecret      []byte
	LogLevel       logrus.Level
	ToastTTL       time.Duration
	RemoteTimeout  time.Duration
	OTelEnabled    bool
	AllowedOrigins []string
	SecureCookies  bool
}

// Load reads .env (if any) and the environment. Unset values fall back to
// development defaults.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("no .env file found; using system environment")
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv.
func FromEnv(getenv func(string) string) (*Config, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	c := &Config{
		Port:      get("PORT", ":8080"),
		MongoURI:  get("MONGO_URI", ""),
		MongoDB:   get("MONGO_DB", "leviro"),
		RedisAddr: get("REDIS_ADDR", ""),
		JWTSecret: []byte(get("JWT_SECRET", "")),
	}
	if c.Port[0] != ':' {
		c.Port = ":" + c.Port
	}

	var err error
	if c.LogLevel, err = logrus.ParseLevel(get("LOG_LEVEL", "info")); err != nil {
		return nil, errors.Wrap(err, "LOG_LEVEL")
	}
	if c.ToastTTL, err = time.ParseDuration(get("TOAST_TTL", "3s")); err != nil {
		return nil, errors.Wrap(err, "TOAST_TTL")
	}
	if c.RemoteTimeout, err = time.ParseDuration(get("REMOTE_TIMEOUT", "10s")); err != nil {
		return nil, errors.Wrap(err, "REMOTE_TIMEOUT")
	}
	if c.OTelEnabled, err = strconv.ParseBool(get("OTEL_ENABLED", "false")); err != nil {
		return nil, errors.Wrap(err, "OTEL_ENABLED")
	}
	if c.SecureCookies, err = strconv.ParseBool(get("SECURE_COOKIES", "false")); err != nil {
		return nil, errors.Wrap(err, "SECURE_COOKIES")
	}
	for _, o := range strings.Split(get("ALLOWED_ORIGINS", "http://localhost:5173"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			c.AllowedOrigins = append(c.AllowedOrigins, o)
		}
	}

	if len(c.JWTSecret) == 0 {
		logrus.Warn("JWT_SECRET not set; using an insecure development secret")
		c.JWTSecret = []byte("leviro-dev-secret")
	}
	return c, nil
}
