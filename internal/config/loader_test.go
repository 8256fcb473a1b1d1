package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoader_LoadAppliesDefaultsWithNoConfigFile(t *testing.T) {
	dir := t.TempDir()
	cwd, _ := os.Getwd()
	t.Cleanup(func() { _ = os.Chdir(cwd) })
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir: %v", err)
	}

	cfg, err := NewLoader().Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Storage.Path != ".conclave/conclave.db" {
		t.Errorf("Storage.Path = %q, want default", cfg.Storage.Path)
	}
	if cfg.Indexing.Parallelism != 4 {
		t.Errorf("Indexing.Parallelism = %d, want 4", cfg.Indexing.Parallelism)
	}
	if cfg.Consensus.DefaultPanelSize != 3 {
		t.Errorf("Consensus.DefaultPanelSize = %d, want 3", cfg.Consensus.DefaultPanelSize)
	}
}

func TestLoader_LoadOverridesDefaultsFromFile(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	yaml := `
storage:
  path: custom.db
retrieval:
  token_budget: 12000
`
	if err := os.WriteFile(configPath, []byte(yaml), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := NewLoader().WithConfigFile(configPath).WithResolvePaths(false).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Storage.Path != "custom.db" {
		t.Errorf("Storage.Path = %q, want custom.db", cfg.Storage.Path)
	}
	if cfg.Retrieval.TokenBudget != 12000 {
		t.Errorf("Retrieval.TokenBudget = %d, want 12000", cfg.Retrieval.TokenBudget)
	}
	// Untouched sections still get their defaults.
	if cfg.Events.BufferSize != 256 {
		t.Errorf("Events.BufferSize = %d, want default 256", cfg.Events.BufferSize)
	}
}

func TestLoader_LoadResolvesRelativeStoragePath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("storage:\n  path: data/conclave.db\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := NewLoader().WithConfigFile(configPath).WithProjectDir(dir).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := filepath.Join(dir, "data/conclave.db")
	if cfg.Storage.Path != want {
		t.Errorf("Storage.Path = %q, want %q", cfg.Storage.Path, want)
	}
}

func TestLoader_LegacyDBPathKeyMigratesToStoragePath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("db_path: legacy.db\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := NewLoader().WithConfigFile(configPath).WithResolvePaths(false).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Storage.Path != "legacy.db" {
		t.Errorf("Storage.Path = %q, want migrated legacy.db", cfg.Storage.Path)
	}
}
