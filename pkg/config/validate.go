package config

import (
	"fmt"
	"math"
	"os"
	"strings"
)

// Validate rejects configurations the daemon cannot run with.
func (c *Config) Validate() error {
	positives := []struct {
		field string
		value uint64
	}{
		{"model.timeout_ms", c.Model.TimeoutMs},
		{"trigger.auto_delay_ms", c.Trigger.AutoDelayMs},
		{"cache.ttl_auto_ms", c.Cache.TTLAutoMs},
		{"cache.ttl_manual_ms", c.Cache.TTLManualMs},
		{"cache.ttl_negative_ms", c.Cache.TTLNegMs},
		{"diagnosis.timeout_ms", c.Diagnosis.TimeoutMs},
	}
	for _, p := range positives {
		if p.value == 0 {
			return fmt.Errorf("config: %s must be greater than 0", p.field)
		}
	}

	counts := []struct {
		field string
		value int
	}{
		{"context.history_window", c.Context.HistoryWindow},
		{"context.max_total_tokens", c.Context.MaxTotalTokens},
		{"cache.capacity", c.Cache.Capacity},
		{"cache.prefix_bytes", c.Cache.PrefixBytes},
		{"diagnosis.max_stderr_size", c.Diagnosis.MaxStderrSize},
	}
	for _, p := range counts {
		if p.value <= 0 {
			return fmt.Errorf("config: %s must be greater than 0", p.field)
		}
	}

	if math.IsNaN(c.Cache.StaleRatio) || math.IsInf(c.Cache.StaleRatio, 0) ||
		c.Cache.StaleRatio < 0 || c.Cache.StaleRatio > 1 {
		return fmt.Errorf("config: cache.stale_ratio must be between 0.0 and 1.0")
	}

	priorities := []struct {
		field string
		value int
	}{
		{"context.priorities.history", c.Context.Priorities.History},
		{"context.priorities.cwd_listing", c.Context.Priorities.CwdListing},
		{"context.priorities.plugins", c.Context.Priorities.Plugins},
		{"plugins.git.priority", c.Plugins.Git.Priority},
		{"plugins.docker.priority", c.Plugins.Docker.Priority},
		{"plugins.node.priority", c.Plugins.Node.Priority},
		{"plugins.rust.priority", c.Plugins.Rust.Priority},
		{"plugins.python.priority", c.Plugins.Python.Priority},
	}
	for _, p := range priorities {
		if p.value < 1 || p.value > 100 {
			return fmt.Errorf("config: %s must be between 1 and 100", p.field)
		}
	}

	return nil
}

// ValidateLLM checks that the completion endpoint is usable: an endpoint and
// model are configured, and non-loopback endpoints have authentication.
func (c *Config) ValidateLLM() error {
	if c.Model.Endpoint == "" {
		return fmt.Errorf("config: model.endpoint is not set")
	}
	if c.Model.ModelName == "" {
		return fmt.Errorf("config: model.model_name is not set")
	}

	if isLoopback(c.Model.Endpoint) {
		return nil
	}

	if c.Model.APIKey != "" {
		return nil
	}
	if env := c.Model.APIKeyEnv; env != "" {
		if os.Getenv(env) != "" {
			return nil
		}
		return fmt.Errorf("config: api_key_env %q is set but the variable is empty; export it or set model.api_key", env)
	}
	return fmt.Errorf("config: remote endpoint %q requires model.api_key or model.api_key_env", c.Model.Endpoint)
}

// ResolveAPIKey returns the bearer key to send, or empty when none is
// configured. The direct key wins over the environment variable.
func (c *Config) ResolveAPIKey() string {
	if c.Model.APIKey != "" {
		return c.Model.APIKey
	}
	if c.Model.APIKeyEnv != "" {
		return os.Getenv(c.Model.APIKeyEnv)
	}
	return ""
}

func isLoopback(endpoint string) bool {
	return strings.Contains(endpoint, "localhost") ||
		strings.Contains(endpoint, "127.0.0.1") ||
		strings.Contains(endpoint, "0.0.0.0")
}
