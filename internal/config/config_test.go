package config

import (
	"log/slog"
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("SUPABASE_URL", "https://abc.supabase.co")
	t.Setenv("SUPABASE_ANON_KEY", "anon-key")
}

func TestLoad(t *testing.T) {
	setRequired(t)
	t.Setenv("PORT", "9091")
	t.Setenv("NOTIFY_DURATION", "2s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.Supabase.URL != "https://abc.supabase.co" {
		t.Errorf("Expected https://abc.supabase.co, got %s", cfg.Supabase.URL)
	}
	if cfg.Server.Port != "9091" {
		t.Errorf("Expected 9091, got %s", cfg.Server.Port)
	}
	if cfg.NotifyDuration != 2*time.Second {
		t.Errorf("Expected 2s, got %s", cfg.NotifyDuration)
	}
	if cfg.DataBackend != BackendSupabase {
		t.Errorf("Expected default backend supabase, got %s", cfg.DataBackend)
	}
	if cfg.Supabase.TokenRefreshMargin != time.Minute {
		t.Errorf("Expected default refresh margin 1m, got %s", cfg.Supabase.TokenRefreshMargin)
	}
	if cfg.Supabase.RequestsPerSecond != 10 {
		t.Errorf("Expected default rps 10, got %v", cfg.Supabase.RequestsPerSecond)
	}
}

func TestLoad_MissingSupabaseURL(t *testing.T) {
	t.Setenv("SUPABASE_URL", "")
	t.Setenv("SUPABASE_ANON_KEY", "anon-key")

	_, err := Load()
	if err == nil {
		t.Error("Load() should return an error when SUPABASE_URL is not set")
	}
}

func TestLoad_InvalidSupabaseURL(t *testing.T) {
	setRequired(t)
	t.Setenv("SUPABASE_URL", "not a url")

	if _, err := Load(); err == nil {
		t.Error("Load() should reject a malformed SUPABASE_URL")
	}
}

func TestLoad_FirestoreBackend(t *testing.T) {
	setRequired(t)
	t.Setenv("DATA_BACKEND", "firestore")
	t.Setenv("GOOGLE_CLOUD_PROJECT", "")

	if _, err := Load(); err == nil {
		t.Fatal("Load() should require GOOGLE_CLOUD_PROJECT for the firestore backend")
	}

	t.Setenv("GOOGLE_CLOUD_PROJECT", "test-project")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if cfg.ProjectID != "test-project" {
		t.Errorf("Expected test-project, got %s", cfg.ProjectID)
	}
}

func TestLoad_UnknownBackend(t *testing.T) {
	setRequired(t)
	t.Setenv("DATA_BACKEND", "mongo")

	if _, err := Load(); err == nil {
		t.Error("Load() should reject an unknown DATA_BACKEND")
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	setRequired(t)
	t.Setenv("NOTIFY_DURATION", "soon")

	if _, err := Load(); err == nil {
		t.Error("Load() should return an error for an invalid NOTIFY_DURATION")
	}
}

func TestLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
		{"chatty", slog.LevelInfo},
	}
	for _, tt := range tests {
		cfg := &Config{Log: Log{Level: tt.in}}
		if got := cfg.LogLevel(); got != tt.want {
			t.Errorf("LogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
