package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config is the process configuration, read from the environment.
type Config struct {
	Port       string `validate:"required,numeric"`
	BackendURL string `validate:"omitempty,url"`
	// AllowedOrigins limits CORS; empty admits any origin.
	AllowedOrigins []string `validate:"dive,required"`
	Log            LogConfig
	Mapbox         MapboxConfig
	DB             DBConfig

	BackendTimeout time.Duration `validate:"gt=0"`
}

type LogConfig struct {
	File   string
	Level  string `validate:"oneof=trace debug info warn warning error fatal panic"`
	Stdout bool
}

type MapboxConfig struct {
	AccessToken string        `validate:"required"`
	BaseURL     string        `validate:"required,url"`
	Profile     string        `validate:"required"`
	Timeout     time.Duration `validate:"gt=0"`
}

// DBConfig is only validated when the local store is in use.
type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
	TimeZone string
}

// DSN builds the postgres connection string.
func (c DBConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		c.Host, c.User, c.Password, c.Name, c.Port, c.SSLMode, c.TimeZone,
	)
}

// UseLocalStore reports whether routes are persisted in the local database
// instead of a remote backend.
func (c Config) UseLocalStore() bool {
	return c.BackendURL == ""
}

var validate = validator.New()

// Load reads .env (if present) and the environment, then validates the result.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found, relying on env vars")
	}

	routerTimeout, err := getDuration("ROUTER_TIMEOUT", 10*time.Second)
	if err != nil {
		return Config{}, err
	}
	backendTimeout, err := getDuration("BACKEND_TIMEOUT", 15*time.Second)
	if err != nil {
		return Config{}, err
	}
	stdout, err := strconv.ParseBool(getEnv("LOG_STDOUT", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("LOG_STDOUT: %w", err)
	}

	cfg := Config{
		Port:           getEnv("PORT", "8080"),
		BackendURL:     getEnv("BACKEND_URL", ""),
		AllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "")),
		Log: LogConfig{
			File:   getEnv("LOG_FILE", "./logs/app.log"),
			Level:  getEnv("LOG_LEVEL", "info"),
			Stdout: stdout,
		},
		Mapbox: MapboxConfig{
			AccessToken: getEnv("MAPBOX_ACCESS_TOKEN", ""),
			BaseURL:     getEnv("MAPBOX_BASE_URL", "https://api.mapbox.com"),
			Profile:     getEnv("MAPBOX_PROFILE", "driving-traffic"),
			Timeout:     routerTimeout,
		},
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "password"),
			Name:     getEnv("DB_NAME", "transit"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			TimeZone: getEnv("DB_TIMEZONE", "UTC"),
		},
		BackendTimeout: backendTimeout,
	}

	if err := validate.Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// getEnv reads an environment variable or returns the provided default
func getEnv(key, defaultValue string) string {
	if v, exists := os.LookupEnv(key); exists {
		return v
	}
	return defaultValue
}

// splitList parses a comma separated env value, skipping blanks.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
