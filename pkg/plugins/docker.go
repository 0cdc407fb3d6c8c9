package plugins

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/jg-phare/nudge/pkg/config"
)

// composeManifests match the files that mark a directory as a compose
// project. Matching files are read in lexical order of their names.
var composeManifests = []string{
	"docker-compose.{yml,yaml}",
	"compose.{yml,yaml}",
}

// DockerContext describes the docker state of a project directory.
type DockerContext struct {
	HasCompose        bool            `json:"has_compose"`
	ComposeServices   []string        `json:"compose_services,omitempty"`
	RunningContainers []ContainerInfo `json:"running_containers,omitempty"`
	ContainerCount    int             `json:"container_count"`
	RecentImages      []string        `json:"recent_images,omitempty"`
	DaemonAvailable   bool            `json:"daemon_available"`
}

// ContainerInfo is one running container.
type ContainerInfo struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

// DockerPlugin probes Dockerfile/compose projects. External docker commands
// run only when the daemon responds.
type DockerPlugin struct {
	cfg config.DockerPluginConfig
}

// NewDockerPlugin builds the docker probe.
func NewDockerPlugin(cfg config.DockerPluginConfig) *DockerPlugin {
	return &DockerPlugin{cfg: cfg}
}

func (p *DockerPlugin) ID() string             { return "docker" }
func (p *DockerPlugin) DisplayName() string    { return "Docker" }
func (p *DockerPlugin) Timeout() time.Duration { return timeoutOf(p.cfg.TimeoutMs) }
func (p *DockerPlugin) Priority() int          { return p.cfg.Priority }

func (p *DockerPlugin) Applicable(cwd string) bool {
	if exists(filepath.Join(cwd, "Dockerfile")) {
		return true
	}
	return len(composeFiles(cwd)) > 0
}

func (p *DockerPlugin) Collect(ctx context.Context, cwd string) (*Data, error) {
	dc := DockerContext{}

	if p.cfg.IncludeCompose {
		if services := composeServices(cwd); len(services) > 0 {
			dc.HasCompose = true
			dc.ComposeServices = services
		}
	}

	dc.DaemonAvailable = dockerDaemonAvailable(ctx)
	if dc.DaemonAvailable {
		if p.cfg.ShowContainers {
			dc.RunningContainers = runningContainers(ctx, p.cfg.MaxContainers)
			dc.ContainerCount = len(dc.RunningContainers)
		}
		dc.RecentImages = recentImages(ctx, p.cfg.MaxImages)
	}

	fields, err := fieldsOf(dc)
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

// composeFiles returns the compose manifests present in cwd.
func composeFiles(cwd string) []string {
	entries, err := os.ReadDir(cwd)
	if err != nil {
		return nil
	}
	var found []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		for _, pattern := range composeManifests {
			if ok, _ := doublestar.Match(pattern, entry.Name()); ok {
				found = append(found, filepath.Join(cwd, entry.Name()))
				break
			}
		}
	}
	sort.Strings(found)
	return found
}

func composeServices(cwd string) []string {
	for _, path := range composeFiles(cwd) {
		raw, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var compose struct {
			Services map[string]yaml.Node `yaml:"services"`
		}
		if err := yaml.Unmarshal(raw, &compose); err != nil {
			continue
		}
		if len(compose.Services) == 0 {
			continue
		}
		names := make([]string, 0, len(compose.Services))
		for name := range compose.Services {
			names = append(names, name)
		}
		sort.Strings(names)
		return names
	}
	return nil
}

func dockerDaemonAvailable(ctx context.Context) bool {
	cmd := exec.CommandContext(ctx, "docker", "info")
	return cmd.Run() == nil
}

func runningContainers(ctx context.Context, max int) []ContainerInfo {
	cmd := exec.CommandContext(ctx, "docker", "ps", "--format", "{{.ID}}|{{.Names}}|{{.Status}}")
	out, err := cmd.Output()
	if err != nil {
		return nil
	}
	var containers []ContainerInfo
	for _, line := range strings.Split(string(out), "\n") {
		parts := strings.SplitN(strings.TrimSpace(line), "|", 3)
		if len(parts) != 3 {
			continue
		}
		containers = append(containers, ContainerInfo{ID: parts[0], Name: parts[1], Status: parts[2]})
		if max > 0 && len(containers) >= max {
			break
		}
	}
	return containers
}

func recentImages(ctx context.Context, max int) []string {
	cmd := exec.CommandContext(ctx, "docker", "images", "--format", "{{.Repository}}:{{.Tag}}")
	out, err := cmd.Output()
	if err != nil {
		return nil
	}
	var images []string
	for _, line := range strings.Split(string(out), "\n") {
		if line = strings.TrimSpace(line); line == "" || strings.HasPrefix(line, "<none>") {
			continue
		}
		images = append(images, line)
		if max > 0 && len(images) >= max {
			break
		}
	}
	return images
}
