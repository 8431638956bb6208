package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadCreatesPlaceholder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "statusbot.toml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.NotificationsEnabled() {
		t.Error("placeholder config must have notifications disabled")
	}
	if cfg.Trigger != DefaultTrigger {
		t.Errorf("Trigger = %q, want %q", cfg.Trigger, DefaultTrigger)
	}

	if _, err := os.Stat(path); err != nil {
		t.Errorf("placeholder file was not created: %v", err)
	}

	// Loading the created file again round-trips
	again, err := Load(path)
	if err != nil {
		t.Fatalf("Load of created file failed: %v", err)
	}
	if again.URL != "" || again.AuthToken != "" {
		t.Errorf("placeholder values = %+v", again)
	}
}

func TestLoadExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "statusbot.toml")
	content := "url = \"https://chat.example.com/room/1/notification\"\nauth_token = \"abc123\"\ntrigger = \"/status\"\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.URL != "https://chat.example.com/room/1/notification" {
		t.Errorf("URL = %q", cfg.URL)
	}
	if cfg.AuthToken != "abc123" {
		t.Errorf("AuthToken = %q", cfg.AuthToken)
	}
	if cfg.Trigger != "/status" {
		t.Errorf("Trigger = %q", cfg.Trigger)
	}
	if !cfg.NotificationsEnabled() {
		t.Error("notifications should be enabled with a url set")
	}
}

func TestLoadExistingWithoutTriggerUsesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "statusbot.toml")
	if err := os.WriteFile(path, []byte("url = \"https://chat.example.com\"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Trigger != DefaultTrigger {
		t.Errorf("Trigger = %q, want %q", cfg.Trigger, DefaultTrigger)
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("CISTATUS_TEST_KEY", "set")
	if got := GetEnv("CISTATUS_TEST_KEY", "fallback"); got != "set" {
		t.Errorf("GetEnv = %q", got)
	}
	if got := GetEnv("CISTATUS_TEST_MISSING", "fallback"); got != "fallback" {
		t.Errorf("GetEnv = %q", got)
	}
}
