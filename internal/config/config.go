package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

const (
	BackendSupabase  = "supabase"
	BackendFirestore = "firestore"
)

type Config struct {
	Supabase Supabase
	Server   Server
	Log      Log

	// DataBackend selects where table reads and writes go. Auth and
	// functions always go to Supabase.
	DataBackend string `env:"DATA_BACKEND" envDefault:"supabase"`
	ProjectID   string `env:"GOOGLE_CLOUD_PROJECT"`

	NotifyDuration time.Duration `env:"NOTIFY_DURATION" envDefault:"4s"`
}

type Supabase struct {
	URL     string `env:"SUPABASE_URL,notEmpty"`
	AnonKey string `env:"SUPABASE_ANON_KEY,notEmpty" json:"-"`

	SessionFile          string        `env:"SESSION_FILE"`
	RequestsPerSecond    float64       `env:"GATEWAY_RPS" envDefault:"10"`
	Burst                int           `env:"GATEWAY_BURST" envDefault:"20"`
	TokenRefreshInterval time.Duration `env:"TOKEN_REFRESH_INTERVAL" envDefault:"30s"`
	TokenRefreshMargin   time.Duration `env:"TOKEN_REFRESH_MARGIN" envDefault:"60s"`
}

type Server struct {
	Port            string        `env:"PORT" envDefault:"8080"`
	MetricsAddr     string        `env:"METRICS_ADDR" envDefault:":9090"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"text"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("env.Parse: %w", err)
	}

	if _, err := url.ParseRequestURI(cfg.Supabase.URL); err != nil {
		return nil, fmt.Errorf("invalid SUPABASE_URL %q: %w", cfg.Supabase.URL, err)
	}

	switch cfg.DataBackend {
	case BackendSupabase:
	case BackendFirestore:
		if cfg.ProjectID == "" {
			return nil, fmt.Errorf("GOOGLE_CLOUD_PROJECT environment variable is required when DATA_BACKEND=%s", BackendFirestore)
		}
	default:
		return nil, fmt.Errorf("invalid DATA_BACKEND %q", cfg.DataBackend)
	}

	if cfg.Supabase.RequestsPerSecond <= 0 {
		return nil, fmt.Errorf("invalid GATEWAY_RPS %v: must be positive", cfg.Supabase.RequestsPerSecond)
	}
	if cfg.Supabase.Burst < 1 {
		slog.Warn("GATEWAY_BURST below 1, using 1", "burst", cfg.Supabase.Burst)
		cfg.Supabase.Burst = 1
	}

	if cfg.Supabase.SessionFile == "" {
		slog.Info("SESSION_FILE not set, sessions will not survive restarts")
	}

	return &cfg, nil
}

// LogLevel maps the configured level name onto slog. Unknown names fall
// back to info.
func (c *Config) LogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}
