package plugins

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jg-phare/nudge/pkg/config"
)

// GitTimeout is the strict budget for the whole git subsystem. On expiry all
// git context is dropped for the request.
const GitTimeout = 50 * time.Millisecond

// GitStatus is the coarse repository state.
type GitStatus string

const (
	GitClean   GitStatus = "clean"
	GitDirty   GitStatus = "dirty"
	GitUnknown GitStatus = "unknown"
)

// GitContext is the git contribution to a completion request. Depth decides
// which fields are populated: light stops at branch and status, standard
// adds staged files and local branches, detailed adds unstaged files.
type GitContext struct {
	Depth         config.GitDepth `json:"depth"`
	Branch        string          `json:"branch,omitempty"`
	LocalBranches []string        `json:"local_branches,omitempty"`
	Status        GitStatus       `json:"status"`
	Staged        []string        `json:"staged,omitempty"`
	Unstaged      []string        `json:"unstaged,omitempty"`
}

// GitApplicable reports whether cwd is inside a git work tree.
func GitApplicable(cwd string) bool {
	if _, err := os.Stat(filepath.Join(cwd, ".git")); err == nil {
		return true
	}
	// Handles worktrees and submodules where .git is elsewhere.
	cmd := exec.Command("git", "rev-parse", "--is-inside-work-tree")
	cmd.Dir = cwd
	return cmd.Run() == nil
}

// CollectGit gathers git context at the configured depth. The caller is
// expected to bound ctx with GitTimeout.
func CollectGit(ctx context.Context, cwd string, cfg config.GitPluginConfig) (*GitContext, error) {
	depth := cfg.Depth
	if depth == "" {
		depth = config.GitStandard
	}

	gc := &GitContext{Depth: depth, Status: GitUnknown}
	gc.Branch = gitBranch(ctx, cwd)
	gc.Status = gitStatus(ctx, cwd)

	if depth == config.GitStandard || depth == config.GitDetailed {
		gc.Staged = gitLines(ctx, cwd, "diff", "--cached", "--name-only")
		gc.LocalBranches = gitLocalBranches(ctx, cwd, cfg.MaxBranches)
		pinCurrentFirst(gc.LocalBranches, gc.Branch)
	}
	if depth == config.GitDetailed {
		gc.Unstaged = gitLines(ctx, cwd, "diff", "--name-only")
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return gc, nil
}

func gitBranch(ctx context.Context, cwd string) string {
	out, err := gitOutput(ctx, cwd, "branch", "--show-current")
	if err != nil {
		return ""
	}
	// Empty output means detached HEAD.
	return strings.TrimSpace(out)
}

func gitStatus(ctx context.Context, cwd string) GitStatus {
	out, err := gitOutput(ctx, cwd, "status", "--porcelain")
	if err != nil {
		return GitUnknown
	}
	if strings.TrimSpace(out) == "" {
		return GitClean
	}
	return GitDirty
}

func gitLines(ctx context.Context, cwd string, args ...string) []string {
	out, err := gitOutput(ctx, cwd, args...)
	if err != nil {
		return nil
	}
	var lines []string
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func gitLocalBranches(ctx context.Context, cwd string, max int) []string {
	branches := gitLines(ctx, cwd, "for-each-ref", "--format=%(refname:short)", "refs/heads")
	sort.Strings(branches)
	if max > 0 && len(branches) > max {
		branches = branches[:max]
	}
	return branches
}

// pinCurrentFirst moves the current branch to the front so completions for
// switch/checkout rank it first.
func pinCurrentFirst(branches []string, current string) {
	if current == "" {
		return
	}
	for i, b := range branches {
		if b == current && i != 0 {
			copy(branches[1:i+1], branches[:i])
			branches[0] = current
			return
		}
	}
}

func gitOutput(ctx context.Context, cwd string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = cwd
	out, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return string(out), nil
}
