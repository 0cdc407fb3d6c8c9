package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/jg-phare/nudge/internal/log"
	"github.com/jg-phare/nudge/pkg/paths"
)

// ConfigEnv overrides the layered load with a single file.
const ConfigEnv = "NUDGE_CONFIG"

// LegacyConfigEnv is honored with a deprecation warning.
const LegacyConfigEnv = "SMARTSHELL_CONFIG"

// Load builds the effective configuration: defaults, then the shipped base
// layer, then the user overlay. NUDGE_CONFIG (or the legacy variable) points
// at a single file loaded without layering.
func Load() (*Config, error) {
	if envName, path, ok := overridePath(); ok {
		log.Info("loading config from environment override",
			zap.String("env", envName), zap.String("path", path))
		return LoadFromPath(path)
	}

	merged, err := toTree(Default())
	if err != nil {
		return nil, fmt.Errorf("config: encode defaults: %w", err)
	}

	for _, layer := range []struct {
		name string
		path string
	}{
		{"base", paths.BaseConfigPath()},
		{"user", paths.UserConfigPath()},
	} {
		tree, err := loadLayer(layer.name, layer.path)
		if err != nil {
			return nil, err
		}
		if tree != nil {
			merged = deepMerge(merged, tree)
			log.Debug("merged config layer",
				zap.String("layer", layer.name), zap.String("path", layer.path))
		}
	}

	cfg, err := fromTree(merged)
	if err != nil {
		return nil, fmt.Errorf("config: decode merged config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log.Info("config loaded",
		zap.String("model", cfg.Model.ModelName),
		zap.String("endpoint", cfg.Model.Endpoint),
		zap.Uint64("timeout_ms", cfg.Model.TimeoutMs))
	return cfg, nil
}

// LoadFromPath reads a single config file with no layering.
func LoadFromPath(path string) (*Config, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	// Unknown keys replace nothing; start from defaults so a partial file
	// still yields a complete config.
	cfg := Default()
	if err := yaml.Unmarshal(contents, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func overridePath() (envName, path string, ok bool) {
	current := os.Getenv(ConfigEnv)
	legacy := os.Getenv(LegacyConfigEnv)

	switch {
	case current != "" && legacy != "":
		log.Warn("both config override variables are set; using the current one",
			zap.String("used", ConfigEnv), zap.String("ignored", LegacyConfigEnv))
		return ConfigEnv, current, true
	case current != "":
		return ConfigEnv, current, true
	case legacy != "":
		log.Warn("config override variable is deprecated",
			zap.String("deprecated", LegacyConfigEnv), zap.String("replacement", ConfigEnv))
		return LegacyConfigEnv, legacy, true
	default:
		return "", "", false
	}
}

// loadLayer parses one optional YAML layer. A missing or intentionally empty
// file is not an error.
func loadLayer(name, path string) (map[string]any, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("config: read %s layer %s: %w", name, path, err)
	}

	if isEmptyDocument(string(contents)) {
		return nil, nil
	}

	var tree map[string]any
	if err := yaml.Unmarshal(contents, &tree); err != nil {
		return nil, fmt.Errorf("config: parse %s layer %s: %w", name, path, err)
	}
	return tree, nil
}

func isEmptyDocument(contents string) bool {
	trimmed := strings.TrimSpace(contents)
	return trimmed == "" || trimmed == "---"
}

// deepMerge overlays b onto a. Mappings merge recursively; any other value
// in b replaces the value in a.
func deepMerge(a, b map[string]any) map[string]any {
	out := make(map[string]any, len(a))
	for k, v := range a {
		out[k] = v
	}
	for k, bv := range b {
		if am, ok := out[k].(map[string]any); ok {
			if bm, ok := bv.(map[string]any); ok {
				out[k] = deepMerge(am, bm)
				continue
			}
		}
		out[k] = bv
	}
	return out
}

func toTree(cfg *Config) (map[string]any, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, err
	}
	return tree, nil
}

func fromTree(tree map[string]any) (*Config, error) {
	data, err := yaml.Marshal(tree)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
