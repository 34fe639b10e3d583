package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type sample struct {
	Name  string `yaml:"name"`
	Count int    `yaml:"count"`
}

func (s *sample) Validate() error {
	if s.Count < 0 {
		return errors.New("count must not be negative")
	}
	return nil
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("SAMPLE_NAME", "dial")
	path := writeFile(t, "name: ${SAMPLE_NAME}\n")

	cfg := sample{Count: 7}
	if err := Load(path, &cfg); err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Name != "dial" {
		t.Errorf("name = %q", cfg.Name)
	}
	if cfg.Count != 7 {
		t.Errorf("count default lost: %d", cfg.Count)
	}
}

func TestLoadRunsValidation(t *testing.T) {
	path := writeFile(t, "count: -1\n")
	err := Load(path, &sample{})
	if err == nil || !strings.Contains(err.Error(), "validation failed") {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if err := Load(filepath.Join(t.TempDir(), "nope.yaml"), &sample{}); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadOptionalMissingFileKeepsDefaults(t *testing.T) {
	cfg := sample{Name: "default"}
	if err := LoadOptional(filepath.Join(t.TempDir(), "nope.yaml"), &cfg); err != nil {
		t.Fatalf("load optional: %v", err)
	}
	if cfg.Name != "default" {
		t.Errorf("name = %q", cfg.Name)
	}

	bad := sample{Count: -5}
	if err := LoadOptional(filepath.Join(t.TempDir(), "nope.yaml"), &bad); err == nil {
		t.Error("defaults should still be validated")
	}
}
