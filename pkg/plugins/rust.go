package plugins

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/jg-phare/nudge/pkg/config"
)

// RustContext describes a Cargo project.
type RustContext struct {
	Name             string   `json:"name,omitempty"`
	Version          string   `json:"version,omitempty"`
	RustVersion      string   `json:"rust_version,omitempty"`
	IsWorkspace      bool     `json:"is_workspace"`
	WorkspaceMembers []string `json:"workspace_members,omitempty"`
	Binaries         []string `json:"binaries,omitempty"`
}

// RustPlugin probes Cargo.toml projects.
type RustPlugin struct {
	cfg config.RustPluginConfig
}

// NewRustPlugin builds the rust probe.
func NewRustPlugin(cfg config.RustPluginConfig) *RustPlugin {
	return &RustPlugin{cfg: cfg}
}

func (p *RustPlugin) ID() string             { return "rust" }
func (p *RustPlugin) DisplayName() string    { return "Rust" }
func (p *RustPlugin) Timeout() time.Duration { return timeoutOf(p.cfg.TimeoutMs) }
func (p *RustPlugin) Priority() int          { return p.cfg.Priority }

func (p *RustPlugin) Applicable(cwd string) bool {
	return exists(filepath.Join(cwd, "Cargo.toml"))
}

func (p *RustPlugin) Collect(ctx context.Context, cwd string) (*Data, error) {
	raw, err := os.ReadFile(filepath.Join(cwd, "Cargo.toml"))
	if err != nil {
		return nil, err
	}

	var manifest struct {
		Package struct {
			Name        string `toml:"name"`
			Version     string `toml:"version"`
			RustVersion string `toml:"rust-version"`
		} `toml:"package"`
		Workspace *struct {
			Members []string `toml:"members"`
		} `toml:"workspace"`
		Bin []struct {
			Name string `toml:"name"`
		} `toml:"bin"`
	}
	if err := toml.Unmarshal(raw, &manifest); err != nil {
		return nil, err
	}

	rc := RustContext{
		Name:        manifest.Package.Name,
		Version:     manifest.Package.Version,
		RustVersion: manifest.Package.RustVersion,
	}
	if manifest.Workspace != nil {
		rc.IsWorkspace = true
		rc.WorkspaceMembers = manifest.Workspace.Members
	}
	for _, bin := range manifest.Bin {
		if bin.Name != "" {
			rc.Binaries = append(rc.Binaries, bin.Name)
		}
	}
	// Default binary when src/main.rs exists and no [[bin]] is declared.
	if len(rc.Binaries) == 0 && rc.Name != "" && exists(filepath.Join(cwd, "src", "main.rs")) {
		rc.Binaries = []string{rc.Name}
	}

	fields, err := fieldsOf(rc)
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
