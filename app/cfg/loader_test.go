package cfg

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestGetVersion(t *testing.T) {
	if GetVersion() == "" {
		t.Error("GetVersion should never return empty string")
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("GOOGLE_CREDENTIALS_JSON", `{"type":"service_account"}`)
	t.Setenv("TZ", "")
	os.Unsetenv("TZ")

	cfg, err := Load([]string{})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Mode != ModeRun {
		t.Errorf("Expected mode 'run', got '%s'", cfg.Mode)
	}
	if cfg.FeedSource != SourceSheets || cfg.Store != StoreSheets {
		t.Errorf("Expected sheets feed and store, got '%s' and '%s'", cfg.FeedSource, cfg.Store)
	}
	if cfg.PacingDelay != 3*time.Second {
		t.Errorf("Expected pacing delay 3s, got %s", cfg.PacingDelay)
	}
	if cfg.OracleTimeout != 60*time.Second {
		t.Errorf("Expected oracle timeout 60s, got %s", cfg.OracleTimeout)
	}
	if cfg.OpenAIModel != "gpt-3.5-turbo" {
		t.Errorf("Expected default model, got '%s'", cfg.OpenAIModel)
	}
	if cfg.ContentSelector != ".se-main-container" {
		t.Errorf("Expected default content selector, got '%s'", cfg.ContentSelector)
	}
	if cfg.Location == nil || cfg.Location.String() != "Asia/Seoul" {
		t.Errorf("Expected Asia/Seoul location, got %v", cfg.Location)
	}
}

func TestLoadFlagsOverride(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load([]string{
		"--mode", "serve",
		"--feed-source", "rss",
		"--store", "csv",
		"--pacing-delay", "500ms",
		"--timezone", "UTC",
	})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Mode != ModeServe {
		t.Errorf("Expected mode 'serve', got '%s'", cfg.Mode)
	}
	if cfg.UsesSheets() {
		t.Error("Expected no sheets backend")
	}
	if cfg.PacingDelay != 500*time.Millisecond {
		t.Errorf("Expected pacing delay 500ms, got %s", cfg.PacingDelay)
	}
}

func TestLoadMissingSecrets(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("GOOGLE_CREDENTIALS_JSON", "")
	t.Setenv("GOOGLE_CREDENTIALS_FILE", "")

	_, err := Load([]string{})
	if err == nil {
		t.Fatal("Expected error for missing secrets")
	}

	for _, name := range []string{"OPENAI_API_KEY", "GOOGLE_CREDENTIALS_JSON"} {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("Expected error to mention %s, got: %v", name, err)
		}
	}
}

func TestLoadInvalidChoice(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")

	if _, err := Load([]string{"--store", "postgres"}); err == nil {
		t.Error("Expected error for unknown store")
	}
}

func TestValidateTimezone(t *testing.T) {
	cfg := &Cfg{
		OpenAIAPIKey:  "sk-test",
		FeedSource:    SourceRSS,
		Store:         StoreCSV,
		OracleTimeout: time.Second,
		FetchTimeout:  time.Second,
		Timezone:      "Mars/Olympus",
	}

	if err := cfg.Validate(); err == nil {
		t.Error("Expected error for invalid timezone")
	}
}

func TestGoogleCredentials(t *testing.T) {
	cfg := &Cfg{GoogleCredentialsJSON: `{"inline":true}`}
	data, err := cfg.GoogleCredentials()
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"inline":true}` {
		t.Errorf("Expected inline credentials, got %s", data)
	}

	path := filepath.Join(t.TempDir(), "key.json")
	if err := os.WriteFile(path, []byte(`{"file":true}`), 0600); err != nil {
		t.Fatal(err)
	}

	cfg = &Cfg{GoogleCredentialsFile: path}
	data, err = cfg.GoogleCredentials()
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"file":true}` {
		t.Errorf("Expected file credentials, got %s", data)
	}

	cfg = &Cfg{GoogleCredentialsFile: filepath.Join(t.TempDir(), "missing.json")}
	if _, err := cfg.GoogleCredentials(); err == nil {
		t.Error("Expected error for missing credentials file")
	}
}
