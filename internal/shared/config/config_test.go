package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENV", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("METADATA_STORE", "")
	t.Setenv("JWT_SECRET", "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("expected default port 8080, got %q", cfg.Port)
	}
	if cfg.MetadataStore != MetadataJSONFile {
		t.Fatalf("expected jsonfile metadata store, got %q", cfg.MetadataStore)
	}
	if cfg.LLMTimeout != 60*time.Second {
		t.Fatalf("expected 60s timeout, got %s", cfg.LLMTimeout)
	}
	if cfg.MaxContextChars != 100000 {
		t.Fatalf("expected 100000 context chars, got %d", cfg.MaxContextChars)
	}
	if cfg.JWTSecret == "" {
		t.Fatalf("expected dev jwt secret fallback")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("ENV", "dev")
	t.Setenv("PORT", "9999")
	t.Setenv("LLM_TIMEOUT", "15")
	t.Setenv("MAX_CONTEXT_CHARS", "500")
	t.Setenv("DATABASE_URL", "postgres://localhost/sortir")
	t.Setenv("METADATA_STORE", "")
	t.Setenv("CORS_ALLOW_ORIGINS", "http://a.test, http://b.test ,")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "9999" {
		t.Fatalf("expected port override, got %q", cfg.Port)
	}
	if cfg.LLMTimeout != 15*time.Second {
		t.Fatalf("expected bare seconds to parse, got %s", cfg.LLMTimeout)
	}
	if cfg.MaxContextChars != 500 {
		t.Fatalf("expected 500, got %d", cfg.MaxContextChars)
	}
	if cfg.MetadataStore != MetadataPostgres {
		t.Fatalf("expected postgres when DATABASE_URL set, got %q", cfg.MetadataStore)
	}
	if len(cfg.CORSAllowOrigins) != 2 || cfg.CORSAllowOrigins[1] != "http://b.test" {
		t.Fatalf("unexpected origins: %#v", cfg.CORSAllowOrigins)
	}
}

func TestLoadProductionRequiresJWTSecret(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("METADATA_STORE", "memory")

	if _, err := Load(""); err == nil {
		t.Fatalf("expected error without JWT_SECRET in production")
	}
}

func TestLoadConfigFile(t *testing.T) {
	t.Setenv("ENV", "")
	t.Setenv("PORT", "")
	t.Setenv("METADATA_STORE", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("LLM_MODEL", "")

	path := filepath.Join(t.TempDir(), "sortir.yaml")
	body := "port: \"7070\"\nmetadata_store: memory\nllm_model: local-model\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "7070" || cfg.MetadataStore != MetadataMemory || cfg.LLMModel != "local-model" {
		t.Fatalf("config file values not applied: %+v", cfg)
	}
}
