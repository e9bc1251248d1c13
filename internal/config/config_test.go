package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

var envKeys = []string{
	"GEMINI_API_KEY", "GOOGLE_GEMINI_API_KEY", "GOOGLE_AI_API_KEY", "GEMINI_MODEL",
	"PRTIMES_TOKEN", "PRTIMES_API_TOKEN", "PRTIMES_BASE_URL", "CORS_ORIGINS",
	"PORT", "HOOKSCOPE_PORT", "DEBUG", "HOOKSCOPE_DEBUG", "LOG_LEVEL",
}

func cleanEnv(t *testing.T) {
	t.Helper()
	for _, key := range envKeys {
		t.Setenv(key, "")
	}
	Reset()
	t.Cleanup(Reset)
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cleanEnv(t)

	cfg, err := Load(writeConfig(t, "app:\n  debug: false\n"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.AI.Gemini.Timeout != 60*time.Second || cfg.AI.Gemini.MaxTokens != 4096 || cfg.AI.Gemini.Temperature != 0.2 {
		t.Errorf("Unexpected Gemini defaults: %+v", cfg.AI.Gemini)
	}
	if cfg.Upstream.BaseURL != "https://hackathon.stg-prtimes.net/api" || cfg.Upstream.PageSize != 100 || cfg.Upstream.MaxPages != 20 {
		t.Errorf("Unexpected upstream defaults: %+v", cfg.Upstream)
	}
	if cfg.Grounding.OverfetchFactor != 2 || cfg.Grounding.FetchCeiling != 100 {
		t.Errorf("Unexpected grounding defaults: %+v", cfg.Grounding)
	}
	if cfg.Cache.CompaniesTTL != 5*time.Minute {
		t.Errorf("Unexpected cache TTL: %v", cfg.Cache.CompaniesTTL)
	}
	if cfg.Server.Port != 8000 || !reflect.DeepEqual(cfg.Server.CORS.AllowedOrigins, []string{"*"}) {
		t.Errorf("Unexpected server defaults: %+v", cfg.Server)
	}
	if cfg.HasGemini() || cfg.HasUpstreamToken() {
		t.Error("No credentials should be configured")
	}
	if cfg.Store.Directory != ".hookscope" {
		t.Errorf("Store directory should default to the data dir, got %q", cfg.Store.Directory)
	}
}

func TestLoad_Environment(t *testing.T) {
	cleanEnv(t)
	t.Setenv("GOOGLE_AI_API_KEY", "gemini-key")
	t.Setenv("PRTIMES_TOKEN", "pr-token")
	t.Setenv("PRTIMES_BASE_URL", "http://localhost:9999/api/")
	t.Setenv("CORS_ORIGINS", `["http://a.example", "http://b.example"]`)
	t.Setenv("DEBUG", "true")

	cfg, err := Load(writeConfig(t, "server:\n  port: 9000\n"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.AI.Gemini.APIKey != "gemini-key" || cfg.Upstream.Token != "pr-token" {
		t.Error("Credentials should be read from the environment")
	}
	if cfg.Upstream.BaseURL != "http://localhost:9999/api" {
		t.Errorf("Base URL = %q", cfg.Upstream.BaseURL)
	}
	if len(cfg.Server.CORS.AllowedOrigins) != 2 {
		t.Errorf("Unexpected origins: %v", cfg.Server.CORS.AllowedOrigins)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("Port from config file = %d", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Debug mode should force debug logging, got %s", cfg.Logging.Level)
	}

	redacted := cfg.Redacted()
	for _, v := range redacted {
		if s, ok := v.(string); ok && (strings.Contains(s, "gemini-key") || strings.Contains(s, "pr-token")) {
			t.Errorf("Redacted config leaks a secret: %v", redacted)
		}
	}
}

func TestLoad_Invalid(t *testing.T) {
	cleanEnv(t)

	_, err := Load(writeConfig(t, "upstream:\n  page_size: 0\nlogging:\n  level: loud\n"))
	if err == nil {
		t.Fatal("Expected validation errors")
	}
	for _, want := range []string{"upstream.page_size", "logging level"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Error should mention %q: %v", want, err)
		}
	}
}

func TestLoad_Cached(t *testing.T) {
	cleanEnv(t)

	first, err := Load(writeConfig(t, "app:\n  debug: false\n"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	second, _ := Load("ignored.yaml")
	if first != second {
		t.Error("Load should return the cached configuration")
	}
}

func TestLoad_ErrorIsNotCached(t *testing.T) {
	cleanEnv(t)

	if _, err := Load(writeConfig(t, "logging:\n  format: xml\n")); err == nil {
		t.Fatal("Expected an error for an unknown logging format")
	}
	cfg, err := Load(writeConfig(t, "logging:\n  format: text\n"))
	if err != nil {
		t.Fatalf("Load after a failed load should succeed, got %v", err)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Expected the second file to be read, got format %q", cfg.Logging.Format)
	}
}

func TestParseOrigins(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{"*"}},
		{"http://a, http://b ,", []string{"http://a", "http://b"}},
		{`["http://x"]`, []string{"http://x"}},
		{"[broken", []string{"[broken"}},
	}
	for _, tt := range tests {
		if got := ParseOrigins(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("ParseOrigins(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
