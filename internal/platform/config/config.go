package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	strutil "signup/pkg/platform/strings"
)

// EnvProduction is the APP_ENV value that enables the production guard.
const EnvProduction = "production"

// Config is the full runtime configuration.
type Config struct {
	Server   Server
	Database Database
	Logging  Logging
	Security Security
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr               string
	Environment        string
	CORSAllowedOrigins []string
	RequestTimeout     time.Duration
	ShutdownTimeout    time.Duration
}

// Production reports whether destructive development routes must be refused.
func (s Server) Production() bool {
	return strings.EqualFold(s.Environment, EnvProduction)
}

// Database configures the Postgres store. An empty URL selects the
// in-memory store.
type Database struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Logging configures the slog handler.
type Logging struct {
	Level  slog.Level
	Format string
}

// Security configures credential hashing.
type Security struct {
	BcryptCost int
}

// Load reads an optional .env file and then the environment. Variables
// already set in the environment win over the file.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return FromEnv()
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() (Config, error) {
	var errs []string
	intVar := func(key string, def int) int {
		v, err := intEnv(key, def)
		if err != nil {
			errs = append(errs, err.Error())
		}
		return v
	}
	durVar := func(key string, def time.Duration) time.Duration {
		v, err := durationEnv(key, def)
		if err != nil {
			errs = append(errs, err.Error())
		}
		return v
	}

	level, err := parseLevel(stringEnv("LOG_LEVEL", "info"))
	if err != nil {
		errs = append(errs, err.Error())
	}

	cfg := Config{
		Server: Server{
			Addr:               stringEnv("SIGNUP_ADDR", ":3000"),
			Environment:        stringEnv("APP_ENV", "development"),
			CORSAllowedOrigins: listEnv("CORS_ALLOWED_ORIGINS", []string{"*"}),
			RequestTimeout:     durVar("REQUEST_TIMEOUT", 10*time.Second),
			ShutdownTimeout:    durVar("SHUTDOWN_TIMEOUT", 15*time.Second),
		},
		Database: Database{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    intVar("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    intVar("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: durVar("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Logging: Logging{
			Level:  level,
			Format: strings.ToLower(stringEnv("LOG_FORMAT", "json")),
		},
		Security: Security{
			BcryptCost: intVar("BCRYPT_COST", 10),
		},
	}

	if len(errs) > 0 {
		return Config{}, fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return cfg, nil
}

func stringEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func intEnv(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def, fmt.Errorf("%s: not an integer: %q", key, v)
	}
	return n, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def, fmt.Errorf("%s: not a duration: %q", key, v)
	}
	return d, nil
}

func listEnv(key string, def []string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	if out := strutil.SplitList(v); len(out) > 0 {
		return out
	}
	return def
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return level, nil
}
