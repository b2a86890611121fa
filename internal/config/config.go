package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates all runtime settings required by the client.
type Config struct {
	AppName     string
	Environment string
	API         APIConfig
	Storage     StorageConfig
	Logger      LoggerConfig
	Context     ContextConfig
}

type APIConfig struct {
	// BaseURL points at the API gateway fronting the auth and task services.
	BaseURL        string
	RequestTimeout time.Duration
	// VerifyTimeout bounds the startup auth verification; when it elapses the
	// cached identity wins over server freshness.
	VerifyTimeout time.Duration
	// TokenSkew is subtracted from the access token expiry so renewal happens
	// before the server would reject the token.
	TokenSkew time.Duration
}

type StorageConfig struct {
	// Path locates the BoltDB file holding credentials and the cached user.
	Path string
}

type LoggerConfig struct {
	Level    string
	Encoding string
}

type ContextConfig struct {
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables (optionally .env)
// and applies sane defaults so the client can run in any environment.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{
		AppName:     getString("APP_NAME", "task-client"),
		Environment: getString("APP_ENV", "development"),
		API: APIConfig{
			BaseURL:        getString("API_BASE_URL", "http://localhost:8000"),
			RequestTimeout: getDuration("API_REQUEST_TIMEOUT", 10*time.Second),
			VerifyTimeout:  getDuration("AUTH_VERIFY_TIMEOUT", 5*time.Second),
			TokenSkew:      getDuration("TOKEN_SKEW", 30*time.Second),
		},
		Storage: StorageConfig{
			Path: getString("CREDENTIALS_PATH", defaultStoragePath()),
		},
		Logger: LoggerConfig{
			Level:    getString("LOG_LEVEL", "info"),
			Encoding: getString("LOG_ENCODING", "console"),
		},
		Context: ContextConfig{
			ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT_SECONDS", 15*time.Second),
		},
	}

	return cfg, nil
}

// MustLoad panics if configuration cannot be loaded.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

func defaultStoragePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./credentials.db"
	}
	return filepath.Join(home, ".config", "task-client", "credentials.db")
}

func getString(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
		if seconds, err := strconv.Atoi(val); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}
