package plugins

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/jg-phare/nudge/pkg/config"
)

// PythonContext describes a Python project.
type PythonContext struct {
	PackageManager  string   `json:"package_manager"`
	Name            string   `json:"name,omitempty"`
	Version         string   `json:"version,omitempty"`
	PythonVersion   string   `json:"python_version,omitempty"`
	Dependencies    []string `json:"dependencies,omitempty"`
	DevDependencies []string `json:"dev_dependencies,omitempty"`
	Scripts         []string `json:"scripts,omitempty"`
}

// PythonPlugin probes pyproject/requirements projects.
type PythonPlugin struct {
	cfg config.PythonPluginConfig
}

// NewPythonPlugin builds the python probe.
func NewPythonPlugin(cfg config.PythonPluginConfig) *PythonPlugin {
	return &PythonPlugin{cfg: cfg}
}

func (p *PythonPlugin) ID() string             { return "python" }
func (p *PythonPlugin) DisplayName() string    { return "Python" }
func (p *PythonPlugin) Timeout() time.Duration { return timeoutOf(p.cfg.TimeoutMs) }
func (p *PythonPlugin) Priority() int          { return p.cfg.Priority }

func (p *PythonPlugin) Applicable(cwd string) bool {
	return exists(filepath.Join(cwd, "pyproject.toml")) ||
		exists(filepath.Join(cwd, "uv.lock")) ||
		exists(filepath.Join(cwd, "requirements.txt"))
}

func (p *PythonPlugin) Collect(ctx context.Context, cwd string) (*Data, error) {
	pc := PythonContext{PackageManager: detectPythonPackageManager(cwd)}

	if raw, err := os.ReadFile(filepath.Join(cwd, "pyproject.toml")); err == nil {
		parsePyproject(&pc, raw, p.cfg.MaxDependencies)
	}

	if len(pc.Dependencies) == 0 {
		if raw, err := os.ReadFile(filepath.Join(cwd, "requirements.txt")); err == nil {
			pc.Dependencies = parseRequirements(string(raw), p.cfg.MaxDependencies)
		}
	}
	if len(pc.DevDependencies) == 0 {
		for _, name := range []string{"requirements-dev.txt", "requirements_dev.txt", "dev-requirements.txt"} {
			if raw, err := os.ReadFile(filepath.Join(cwd, name)); err == nil {
				pc.DevDependencies = parseRequirements(string(raw), p.cfg.MaxDependencies)
				break
			}
		}
	}

	fields, err := fieldsOf(pc)
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

func detectPythonPackageManager(cwd string) string {
	switch {
	case exists(filepath.Join(cwd, "uv.lock")):
		return "uv"
	case exists(filepath.Join(cwd, "poetry.lock")):
		return "poetry"
	case exists(filepath.Join(cwd, "requirements.txt")):
		return "pip"
	default:
		return "unknown"
	}
}

func parsePyproject(pc *PythonContext, raw []byte, maxDeps int) {
	var manifest struct {
		Project struct {
			Name           string              `toml:"name"`
			Version        string              `toml:"version"`
			RequiresPython string              `toml:"requires-python"`
			Dependencies   []string            `toml:"dependencies"`
			OptionalDeps   map[string][]string `toml:"optional-dependencies"`
			Scripts        map[string]string   `toml:"scripts"`
		} `toml:"project"`
		Tool struct {
			Poetry struct {
				Name         string         `toml:"name"`
				Version      string         `toml:"version"`
				Dependencies map[string]any `toml:"dependencies"`
			} `toml:"poetry"`
		} `toml:"tool"`
	}
	if err := toml.Unmarshal(raw, &manifest); err != nil {
		return
	}

	proj := manifest.Project
	pc.Name = proj.Name
	pc.Version = proj.Version
	pc.PythonVersion = proj.RequiresPython

	for _, dep := range proj.Dependencies {
		pc.Dependencies = append(pc.Dependencies, packageName(dep))
	}
	sort.Strings(pc.Dependencies)
	pc.Dependencies = capList(pc.Dependencies, maxDeps)

	for _, dep := range proj.OptionalDeps["dev"] {
		pc.DevDependencies = append(pc.DevDependencies, packageName(dep))
	}
	sort.Strings(pc.DevDependencies)
	pc.DevDependencies = capList(pc.DevDependencies, maxDeps)

	for name := range proj.Scripts {
		pc.Scripts = append(pc.Scripts, name)
	}
	sort.Strings(pc.Scripts)

	// Poetry layout fills the gaps PEP 621 left.
	poetry := manifest.Tool.Poetry
	if pc.Name == "" {
		pc.Name = poetry.Name
	}
	if pc.Version == "" {
		pc.Version = poetry.Version
	}
	if len(pc.Dependencies) == 0 && len(poetry.Dependencies) > 0 {
		for name := range poetry.Dependencies {
			if name == "python" {
				continue
			}
			pc.Dependencies = append(pc.Dependencies, name)
		}
		sort.Strings(pc.Dependencies)
		pc.Dependencies = capList(pc.Dependencies, maxDeps)
	}
}

// parseRequirements extracts package names from a requirements file,
// skipping comments, options, and includes.
func parseRequirements(contents string, max int) []string {
	var deps []string
	for _, line := range strings.Split(contents, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "-") {
			continue
		}
		deps = append(deps, packageName(line))
	}
	sort.Strings(deps)
	return capList(deps, max)
}

// packageName strips version specifiers and extras from a dependency spec.
func packageName(spec string) string {
	name := strings.TrimSpace(spec)
	if i := strings.IndexAny(name, " <>=!~;["); i >= 0 {
		name = name[:i]
	}
	return name
}

func capList(list []string, max int) []string {
	if max > 0 && len(list) > max {
		return list[:max]
	}
	return list
}
