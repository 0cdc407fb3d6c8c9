package context

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jg-phare/nudge/internal/log"
	"github.com/jg-phare/nudge/pkg/config"
	"github.com/jg-phare/nudge/pkg/plugins"
	"github.com/jg-phare/nudge/pkg/protocol"
)

// SoftDeadline is the target for a whole gather pass. Exceeding it only logs
// a warning. Git and the project probes enforce their own hard timeouts; the
// history read and the directory listing run without a timeout.
const SoftDeadline = 50 * time.Millisecond

// Gatherer owns the probe set and fans a request out across all sources.
type Gatherer struct {
	plugins []plugins.Plugin
}

// NewGatherer wires the enabled probes from config.
func NewGatherer(cfg *config.Config) *Gatherer {
	var probes []plugins.Plugin
	if cfg.Plugins.Node.Enabled {
		probes = append(probes, plugins.NewNodePlugin(cfg.Plugins.Node))
	}
	if cfg.Plugins.Rust.Enabled {
		probes = append(probes, plugins.NewRustPlugin(cfg.Plugins.Rust))
	}
	if cfg.Plugins.Python.Enabled {
		probes = append(probes, plugins.NewPythonPlugin(cfg.Plugins.Python))
	}
	if cfg.Plugins.Docker.Enabled {
		probes = append(probes, plugins.NewDockerPlugin(cfg.Plugins.Docker))
	}
	return &Gatherer{plugins: probes}
}

// Gather collects all sources concurrently and returns a Data bounded by
// context.max_total_tokens. Source failures and timeouts degrade to empty
// contributions; Gather itself does not fail.
func (g *Gatherer) Gather(ctx context.Context, req *protocol.CompletionRequest, cfg *config.Config) *Data {
	start := time.Now()
	d := &Data{}

	var mu sync.Mutex
	var wg sync.WaitGroup

	// History and similar commands share one file read.
	wg.Add(1)
	go func() {
		defer wg.Done()
		scanWindow := cfg.Context.HistoryWindow
		if cfg.Context.SimilarCommandsEnabled && cfg.Context.SimilarCommandsWindow > scanWindow {
			scanWindow = cfg.Context.SimilarCommandsWindow
		}
		full := ReadHistory(req.SessionID, scanWindow)

		window := full
		if len(window) > cfg.Context.HistoryWindow {
			window = window[len(window)-cfg.Context.HistoryWindow:]
		}

		var similar []string
		if cfg.Context.SimilarCommandsEnabled {
			prefix := req.Buffer[:req.ClampedCursor()]
			similar = SimilarCommands(full, prefix,
				cfg.Context.SimilarCommandsWindow, cfg.Context.SimilarCommandsMax)
		}

		mu.Lock()
		d.History = window
		d.SimilarCommands = similar
		mu.Unlock()
	}()

	if cfg.Context.IncludeCwdListing {
		wg.Add(1)
		go func() {
			defer wg.Done()
			files := ListFiles(req.Cwd, cfg.Context.MaxFilesInListing)
			mu.Lock()
			d.Files = files
			mu.Unlock()
		}()
	}

	if cfg.Plugins.Git.Enabled && plugins.GitApplicable(req.Cwd) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			gitCtx, cancel := context.WithTimeout(ctx, plugins.GitTimeout)
			defer cancel()
			gc, err := plugins.CollectGit(gitCtx, req.Cwd, cfg.Plugins.Git)
			if err != nil {
				log.Warn("git context dropped", zap.Error(err))
				return
			}
			mu.Lock()
			d.Git = gc
			mu.Unlock()
		}()
	}

	for _, probe := range g.plugins {
		if !probe.Applicable(req.Cwd) {
			continue
		}
		wg.Add(1)
		go func(p plugins.Plugin) {
			defer wg.Done()
			probeCtx, cancel := context.WithTimeout(ctx, p.Timeout())
			defer cancel()
			data, err := p.Collect(probeCtx, req.Cwd)
			if err != nil {
				log.Debug("plugin contributed nothing",
					zap.String("plugin", p.ID()), zap.Error(err))
				return
			}
			mu.Lock()
			if d.Plugins == nil {
				d.Plugins = make(map[string]*plugins.Data)
			}
			d.Plugins[p.ID()] = data
			mu.Unlock()
		}(probe)
	}

	if cfg.Context.IncludeSystemInfo {
		d.System = CollectSystemInfo(req.SessionID)
	}
	if cfg.Context.IncludeExitCode {
		d.LastExitCode = req.LastExitCode
	}

	wg.Wait()

	d.EstimatedTokens = EstimateTokens(d)
	if d.EstimatedTokens > cfg.Context.MaxTotalTokens {
		truncateByPriority(d, cfg.Context.Priorities, cfg.Context.MaxTotalTokens)
	}

	if elapsed := time.Since(start); elapsed > SoftDeadline {
		log.Warn("context gathering exceeded soft deadline",
			zap.Duration("elapsed", elapsed), zap.Duration("target", SoftDeadline))
	}

	return d
}
