package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestDefaultValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Validate() on defaults: %v", err)
	}
}

func TestValidateRejectsZeroFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero model timeout", func(c *Config) { c.Model.TimeoutMs = 0 }},
		{"zero history window", func(c *Config) { c.Context.HistoryWindow = 0 }},
		{"zero max tokens", func(c *Config) { c.Context.MaxTotalTokens = 0 }},
		{"zero auto delay", func(c *Config) { c.Trigger.AutoDelayMs = 0 }},
		{"zero cache capacity", func(c *Config) { c.Cache.Capacity = 0 }},
		{"zero prefix bytes", func(c *Config) { c.Cache.PrefixBytes = 0 }},
		{"zero auto ttl", func(c *Config) { c.Cache.TTLAutoMs = 0 }},
		{"zero manual ttl", func(c *Config) { c.Cache.TTLManualMs = 0 }},
		{"zero negative ttl", func(c *Config) { c.Cache.TTLNegMs = 0 }},
		{"zero stderr size", func(c *Config) { c.Diagnosis.MaxStderrSize = 0 }},
		{"zero diagnosis timeout", func(c *Config) { c.Diagnosis.TimeoutMs = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() accepted an invalid config")
			}
		})
	}
}

func TestValidateRejectsBadPriorities(t *testing.T) {
	for _, v := range []int{0, 101, -5} {
		cfg := Default()
		cfg.Context.Priorities.History = v
		if err := cfg.Validate(); err == nil {
			t.Errorf("Validate() accepted priority %d", v)
		}
	}
}

func TestValidateRejectsBadStaleRatio(t *testing.T) {
	for _, v := range []float64{-0.1, 1.5} {
		cfg := Default()
		cfg.Cache.StaleRatio = v
		if err := cfg.Validate(); err == nil {
			t.Errorf("Validate() accepted stale_ratio %v", v)
		}
	}
}

func TestValidateLLMAuth(t *testing.T) {
	t.Run("loopback needs no key", func(t *testing.T) {
		cfg := Default()
		if err := cfg.ValidateLLM(); err != nil {
			t.Errorf("ValidateLLM() = %v", err)
		}
	})

	t.Run("remote without key fails", func(t *testing.T) {
		cfg := Default()
		cfg.Model.Endpoint = "https://api.example.com/v1"
		if err := cfg.ValidateLLM(); err == nil {
			t.Error("ValidateLLM() accepted unauthenticated remote endpoint")
		}
	})

	t.Run("remote with direct key passes", func(t *testing.T) {
		cfg := Default()
		cfg.Model.Endpoint = "https://api.example.com/v1"
		cfg.Model.APIKey = "sk-test"
		if err := cfg.ValidateLLM(); err != nil {
			t.Errorf("ValidateLLM() = %v", err)
		}
	})

	t.Run("remote with env key passes", func(t *testing.T) {
		t.Setenv("NUDGE_TEST_API_KEY", "sk-test")
		cfg := Default()
		cfg.Model.Endpoint = "https://api.example.com/v1"
		cfg.Model.APIKeyEnv = "NUDGE_TEST_API_KEY"
		if err := cfg.ValidateLLM(); err != nil {
			t.Errorf("ValidateLLM() = %v", err)
		}
	})
}

func TestResolveAPIKeyPrecedence(t *testing.T) {
	t.Setenv("NUDGE_TEST_API_KEY", "from-env")
	cfg := Default()
	cfg.Model.APIKey = "direct"
	cfg.Model.APIKeyEnv = "NUDGE_TEST_API_KEY"
	if got := cfg.ResolveAPIKey(); got != "direct" {
		t.Errorf("ResolveAPIKey() = %q, want direct key to win", got)
	}

	cfg.Model.APIKey = ""
	if got := cfg.ResolveAPIKey(); got != "from-env" {
		t.Errorf("ResolveAPIKey() = %q, want env fallback", got)
	}
}

func TestDeepMerge(t *testing.T) {
	base := map[string]any{
		"model": map[string]any{"endpoint": "http://localhost:11434/v1", "timeout_ms": 5000},
		"cache": map[string]any{"capacity": 1024},
	}
	overlay := map[string]any{
		"model": map[string]any{"timeout_ms": 9000},
	}

	merged := deepMerge(base, overlay)
	model := merged["model"].(map[string]any)
	if model["timeout_ms"] != 9000 {
		t.Errorf("timeout_ms = %v, want overlay value", model["timeout_ms"])
	}
	if model["endpoint"] != "http://localhost:11434/v1" {
		t.Errorf("endpoint = %v, want base value preserved", model["endpoint"])
	}
	if merged["cache"].(map[string]any)["capacity"] != 1024 {
		t.Error("untouched mapping should survive the merge")
	}
}

func TestDeepMergeEmptyOverlayIsIdentity(t *testing.T) {
	base := map[string]any{"a": map[string]any{"b": 1}, "c": "x"}
	if got := deepMerge(base, map[string]any{}); !reflect.DeepEqual(got, base) {
		t.Errorf("deepMerge(base, {}) = %v, want %v", got, base)
	}
}

func TestDeepMergeIdempotent(t *testing.T) {
	base := map[string]any{"a": map[string]any{"b": 1, "c": 2}}
	overlay := map[string]any{"a": map[string]any{"b": 9}}

	once := deepMerge(base, overlay)
	twice := deepMerge(once, overlay)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("second merge changed the result: %v vs %v", once, twice)
	}
}

func TestDeepMergeNonMappingReplaces(t *testing.T) {
	base := map[string]any{"patterns": []any{"a", "b"}}
	overlay := map[string]any{"patterns": []any{"c"}}
	got := deepMerge(base, overlay)
	if !reflect.DeepEqual(got["patterns"], []any{"c"}) {
		t.Errorf("sequence should be replaced, got %v", got["patterns"])
	}
}

func TestLoadFromPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := "model:\n  model_name: test-model\n  timeout_ms: 1234\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if cfg.Model.ModelName != "test-model" || cfg.Model.TimeoutMs != 1234 {
		t.Errorf("model = %+v", cfg.Model)
	}
	// Untouched groups keep their defaults.
	if cfg.Cache.Capacity != 1024 {
		t.Errorf("cache.capacity = %d, want default", cfg.Cache.Capacity)
	}
}

func TestLoadFromPathRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("cache:\n  capacity: 0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFromPath(path); err == nil {
		t.Error("LoadFromPath accepted zero cache capacity")
	}
}

func TestIsEmptyDocument(t *testing.T) {
	for _, s := range []string{"", "   \n", "---", "  ---  "} {
		if !isEmptyDocument(s) {
			t.Errorf("isEmptyDocument(%q) = false", s)
		}
	}
	if isEmptyDocument("model: {}") {
		t.Error("non-empty document reported empty")
	}
}
