package plugins

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jg-phare/nudge/pkg/config"
)

// NodeContext describes a Node.js project.
type NodeContext struct {
	PackageManager  string   `json:"package_manager"`
	Name            string   `json:"name,omitempty"`
	Version         string   `json:"version,omitempty"`
	NodeVersion     string   `json:"node_version,omitempty"`
	Scripts         []string `json:"scripts,omitempty"`
	Dependencies    []string `json:"dependencies,omitempty"`
	DevDependencies []string `json:"dev_dependencies,omitempty"`
	IsMonorepo      bool     `json:"is_monorepo"`
}

// NodePlugin probes package.json projects.
type NodePlugin struct {
	cfg config.NodePluginConfig
}

// NewNodePlugin builds the node probe.
func NewNodePlugin(cfg config.NodePluginConfig) *NodePlugin {
	return &NodePlugin{cfg: cfg}
}

func (p *NodePlugin) ID() string            { return "node" }
func (p *NodePlugin) DisplayName() string   { return "Node.js" }
func (p *NodePlugin) Timeout() time.Duration { return timeoutOf(p.cfg.TimeoutMs) }
func (p *NodePlugin) Priority() int         { return p.cfg.Priority }

func (p *NodePlugin) Applicable(cwd string) bool {
	_, err := os.Stat(filepath.Join(cwd, "package.json"))
	return err == nil
}

func (p *NodePlugin) Collect(ctx context.Context, cwd string) (*Data, error) {
	raw, err := os.ReadFile(filepath.Join(cwd, "package.json"))
	if err != nil {
		return nil, err
	}

	var pkg struct {
		Name         string            `json:"name"`
		Version      string            `json:"version"`
		Scripts      map[string]string `json:"scripts"`
		Dependencies map[string]string `json:"dependencies"`
		DevDeps      map[string]string `json:"devDependencies"`
		Workspaces   json.RawMessage   `json:"workspaces"`
		Engines      map[string]string `json:"engines"`
	}
	if err := json.Unmarshal(raw, &pkg); err != nil {
		return nil, err
	}

	nc := NodeContext{
		Name:           pkg.Name,
		Version:        pkg.Version,
		PackageManager: detectNodePackageManager(cwd),
		NodeVersion:    detectNodeVersion(cwd, pkg.Engines),
		Scripts:        sortedKeys(pkg.Scripts, 0),
		Dependencies:   sortedKeys(pkg.Dependencies, p.cfg.MaxDependencies),
		DevDependencies: sortedKeys(pkg.DevDeps, p.cfg.MaxDependencies),
		IsMonorepo:     len(pkg.Workspaces) > 0,
	}

	fields, err := fieldsOf(nc)
	if err != nil {
		return nil, err
	}
	return &Data{
		PluginID:    p.ID(),
		DisplayName: p.DisplayName(),
		Fields:      fields,
		Priority:    p.Priority(),
	}, nil
}

func detectNodePackageManager(cwd string) string {
	switch {
	case exists(filepath.Join(cwd, "pnpm-lock.yaml")):
		return "pnpm"
	case exists(filepath.Join(cwd, "yarn.lock")):
		return "yarn"
	case exists(filepath.Join(cwd, "package-lock.json")):
		return "npm"
	default:
		return "unknown"
	}
}

// detectNodeVersion prefers .nvmrc, then .node-version, then engines.node.
func detectNodeVersion(cwd string, engines map[string]string) string {
	for _, name := range []string{".nvmrc", ".node-version"} {
		if raw, err := os.ReadFile(filepath.Join(cwd, name)); err == nil {
			if v := strings.TrimSpace(string(raw)); v != "" {
				return v
			}
		}
	}
	return engines["node"]
}

func sortedKeys(m map[string]string, max int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if max > 0 && len(keys) > max {
		keys = keys[:max]
	}
	return keys
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
