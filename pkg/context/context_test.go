package context

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/jg-phare/nudge/pkg/config"
	"github.com/jg-phare/nudge/pkg/plugins"
)

func TestParseZshHistory(t *testing.T) {
	contents := ": 1705123456:0;ls -la\n: 1705123457:2;cd /home\nplain command\n: 1705123458:0;\n"
	entries := parseZshHistory(contents)
	want := []string{"ls -la", "cd /home", "plain command"}
	if !reflect.DeepEqual(entries, want) {
		t.Errorf("parseZshHistory = %v, want %v", entries, want)
	}
}

func TestParsePlainHistorySkipsBashComments(t *testing.T) {
	contents := "#1705123456\nls -la\n\ngit status\n"
	entries := parsePlainHistory(contents, true)
	want := []string{"ls -la", "git status"}
	if !reflect.DeepEqual(entries, want) {
		t.Errorf("parsePlainHistory = %v, want %v", entries, want)
	}
}

func TestDedupeConsecutiveOnly(t *testing.T) {
	entries := []string{"ls", "ls", "cd", "ls", "ls", "ls", "make"}
	got := dedupeConsecutive(entries)
	want := []string{"ls", "cd", "ls", "make"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("dedupeConsecutive = %v, want %v (non-consecutive repeats stay)", got, want)
	}
}

func TestReadHistoryWindowAndDegradation(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("SHELL", "/bin/bash")

	// Missing file degrades to empty.
	if got := ReadHistory("bash-1", 10); len(got) != 0 {
		t.Errorf("ReadHistory on missing file = %v", got)
	}

	body := "one\ntwo\nthree\nfour\nfive\n"
	if err := os.WriteFile(filepath.Join(home, ".bash_history"), []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	got := ReadHistory("bash-1", 3)
	want := []string{"three", "four", "five"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ReadHistory = %v, want last 3 in order", got)
	}
}

func TestReadHistoryZdotdir(t *testing.T) {
	home := t.TempDir()
	zdot := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("ZDOTDIR", zdot)

	body := ": 1:0;git status\n: 2:0;git push\n"
	if err := os.WriteFile(filepath.Join(zdot, ".zsh_history"), []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	got := ReadHistory("zsh-7", 10)
	want := []string{"git status", "git push"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ReadHistory = %v, want %v", got, want)
	}
}

func TestSimilarCommands(t *testing.T) {
	history := []string{
		"git status",
		"git stash pop",
		"ls -la",
		"git stash list",
		"git stash pop",
	}

	got := SimilarCommands(history, "git sta", 0, 5)
	want := []string{"git stash pop", "git stash list", "git status"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SimilarCommands = %v, want newest-first without duplicates %v", got, want)
	}

	if got := SimilarCommands(history, "", 0, 5); got != nil {
		t.Errorf("empty prefix should yield nothing, got %v", got)
	}
	if got := SimilarCommands(history, "git sta", 0, 1); len(got) != 1 {
		t.Errorf("max should cap results, got %v", got)
	}
}

func TestListFilesSortAndFormat(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"zebra.txt", "alpha.rs", "beta.rs", "Makefile", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "src"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".hidden"), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	got := ListFiles(dir, 50)
	want := []string{"src/", "Makefile", "alpha.rs", "beta.rs", "notes.txt", "zebra.txt"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ListFiles = %v, want %v", got, want)
	}
}

func TestListFilesCapAndMissingDir(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.go", "b.go", "c.go"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if got := ListFiles(dir, 2); len(got) != 2 {
		t.Errorf("ListFiles cap = %v", got)
	}
	if got := ListFiles(filepath.Join(dir, "nope"), 10); got != nil {
		t.Errorf("missing dir should degrade to nil, got %v", got)
	}
}

func TestEstimateTokens(t *testing.T) {
	d := &Data{
		History: []string{"git status", "ls"}, // ceil(2*1.3)+ceil(1*1.3) = 3+2 = 5
		Files:   []string{"a.go", "b.go"},     // 2
		Git: &plugins.GitContext{
			Branch:        "main",                     // 5
			Staged:        []string{"x.go", "y.go"},   // 2
			LocalBranches: []string{"main", "dev"},    // 2
		},
	}
	if got := EstimateTokens(d); got != 16 {
		t.Errorf("EstimateTokens = %d, want 16", got)
	}
}

func TestEstimateTokensDeterministic(t *testing.T) {
	d := &Data{
		History: []string{"docker compose up -d"},
		Plugins: map[string]*plugins.Data{
			"node": {Fields: map[string]any{"name": "webapp", "scripts": []any{"build", "dev"}}},
		},
	}
	first := EstimateTokens(d)
	for i := 0; i < 10; i++ {
		if got := EstimateTokens(d); got != first {
			t.Fatalf("estimate varied: %d vs %d", got, first)
		}
	}
}

func TestTruncateByPriority(t *testing.T) {
	mkData := func() *Data {
		history := make([]string, 40)
		for i := range history {
			history[i] = "some longish command with several words here"
		}
		files := make([]string, 50)
		for i := range files {
			files[i] = "file.go"
		}
		return &Data{
			History: history,
			Files:   files,
			Git:     &plugins.GitContext{Branch: "main", Staged: []string{"a", "b"}},
		}
	}

	d := mkData()
	d.EstimatedTokens = EstimateTokens(d)
	priorities := config.PriorityConfig{History: 80, CwdListing: 60, Plugins: 40}

	budget := 200
	truncateByPriority(d, priorities, budget)

	if d.EstimatedTokens > budget {
		t.Errorf("estimate %d still above budget %d", d.EstimatedTokens, budget)
	}
	if !d.Truncated {
		t.Error("Truncated flag not set")
	}
	// Plugins go first at these priorities.
	if d.Git != nil {
		t.Error("git context should be shed before history")
	}
	if len(d.History) == 0 {
		t.Error("history should be shed last and partially survive")
	}
}

func TestTruncateKeepsNewestHistory(t *testing.T) {
	d := &Data{History: []string{"old1", "old2", "new1", "new2"}}
	d.EstimatedTokens = EstimateTokens(d)
	truncateByPriority(d, config.PriorityConfig{History: 10, CwdListing: 20, Plugins: 30}, 4)

	for _, cmd := range d.History {
		if cmd == "old1" || cmd == "old2" {
			t.Errorf("oldest half should be dropped first, still have %v", d.History)
		}
	}
}

func TestTruncateNoopUnderBudget(t *testing.T) {
	d := &Data{History: []string{"ls"}}
	d.EstimatedTokens = EstimateTokens(d)
	truncateByPriority(d, config.Default().Context.Priorities, 100)
	if d.Truncated {
		t.Error("nothing should be shed under budget")
	}
}

func TestDetectShellFallsBackToEnv(t *testing.T) {
	t.Setenv("SHELL", "/usr/bin/zsh")
	if got := detectShell("tty9"); got != shellZsh {
		t.Errorf("detectShell = %v, want zsh from $SHELL", got)
	}
	t.Setenv("SHELL", "/bin/bash")
	if got := detectShell("tty9"); got != shellBash {
		t.Errorf("detectShell = %v, want bash", got)
	}
}
