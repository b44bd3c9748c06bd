package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadOverlaysDefaults(t *testing.T) {
	content := `
source_glob = "*.ruby"

[exclude]
dirs = [".git", "coverage"]

[watch]
debounce = "250ms"

[metrics]
addr = ":9123"
`
	path := filepath.Join(t.TempDir(), "constbox.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path, true)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.SourceGlob != "*.ruby" {
		t.Errorf("expected source_glob override, got %s", cfg.SourceGlob)
	}
	if cfg.BoxFile != "box.yml" {
		t.Errorf("expected default box_file, got %s", cfg.BoxFile)
	}
	if len(cfg.Exclude.Dirs) != 2 {
		t.Errorf("unexpected exclude dirs: %v", cfg.Exclude.Dirs)
	}
	if cfg.Watch.Debounce != 250*time.Millisecond {
		t.Errorf("unexpected debounce: %v", cfg.Watch.Debounce)
	}
	if cfg.Metrics.Addr != ":9123" {
		t.Errorf("unexpected metrics addr: %v", cfg.Metrics.Addr)
	}
}

func TestLoadMissingDefaultPath(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "constbox.toml"), false)
	if err != nil {
		t.Fatalf("missing default config should not fail: %v", err)
	}
	if cfg.SourceGlob != "*.rb" {
		t.Errorf("expected defaults, got %s", cfg.SourceGlob)
	}
}

func TestLoadMissingExplicitPath(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "other.toml"), true); err == nil {
		t.Fatal("explicitly requested config file must exist")
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "constbox.toml")
	if err := os.WriteFile(path, []byte("source_glob = \"\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path, true); err == nil {
		t.Fatal("expected validation error for empty source_glob")
	}
}
