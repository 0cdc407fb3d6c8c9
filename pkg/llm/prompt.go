package llm

import (
	"fmt"
	"sort"
	"strings"

	nudgectx "github.com/jg-phare/nudge/pkg/context"
	"github.com/jg-phare/nudge/pkg/shellmode"
)

// promptArrayCap bounds list rendering so one plugin cannot flood the prompt.
const promptArrayCap = 10

// BuildUserPrompt assembles the user message deterministically: fixed
// section order, plugins alphabetical by id, every section omitted when its
// source is empty.
func BuildUserPrompt(buffer string, mode shellmode.Mode, d *nudgectx.Data) string {
	var b strings.Builder

	if d.System != (nudgectx.SystemInfo{}) {
		b.WriteString("## System Environment\n")
		fmt.Fprintf(&b, "OS: %s %s\n", d.System.OSType, d.System.OSVersion)
		fmt.Fprintf(&b, "Architecture: %s\n", d.System.Arch)
		fmt.Fprintf(&b, "Shell: %s\n", d.System.ShellType)
		fmt.Fprintf(&b, "User: %s\n\n", d.System.Username)
	}

	if len(d.History) > 0 {
		b.WriteString("## Recent Commands\n")
		for _, cmd := range d.History {
			fmt.Fprintf(&b, "- %s\n", cmd)
		}
		b.WriteString("\n")
	}

	if len(d.SimilarCommands) > 0 {
		b.WriteString("## Similar Commands from History\n")
		b.WriteString("The following commands are similar to what you're typing:\n")
		for _, cmd := range d.SimilarCommands {
			fmt.Fprintf(&b, "- %s\n", cmd)
		}
		b.WriteString("\nConsider these examples, but provide the most appropriate completion based on current context.\n\n")
	}

	if len(d.Files) > 0 {
		b.WriteString("## Current Directory Files\n")
		fmt.Fprintf(&b, "%s\n\n", strings.Join(d.Files, ", "))
	}

	if d.LastExitCode != nil {
		fmt.Fprintf(&b, "## Last Command Exit Code: %d\n\n", *d.LastExitCode)
	}

	if git := d.Git; git != nil {
		b.WriteString("## Git Status\n")
		if git.Branch != "" {
			fmt.Fprintf(&b, "Branch: %s\n", git.Branch)
		}
		fmt.Fprintf(&b, "Status: %s\n", git.Status)
		if len(git.Staged) > 0 {
			fmt.Fprintf(&b, "Staged: %s\n", strings.Join(git.Staged, ", "))
		}
		if len(git.LocalBranches) > 0 {
			fmt.Fprintf(&b, "Branches: %s\n", strings.Join(git.LocalBranches, ", "))
		}
		if len(git.Unstaged) > 0 {
			fmt.Fprintf(&b, "Unstaged: %s\n", strings.Join(git.Unstaged, ", "))
		}
		b.WriteString("\n")
	}

	ids := make([]string, 0, len(d.Plugins))
	for id := range d.Plugins {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		writePluginSection(&b, d.Plugins[id].DisplayName, d.Plugins[id].Fields)
	}

	b.WriteString("## Command to Complete\n")
	fmt.Fprintf(&b, "```\n%s\n```\n", buffer)
	b.WriteString("\nComplete the above command. Return ONLY the completed command.\n")
	b.WriteString(mode.ResponseContract())

	return b.String()
}

func writePluginSection(b *strings.Builder, displayName string, fields map[string]any) {
	fmt.Fprintf(b, "## %s Context\n", displayName)

	keys := make([]string, 0, len(fields))
	for k := range fields {
		if strings.HasPrefix(k, "_") {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		fmt.Fprintf(b, "%s: %s\n", humanizeKey(key), formatValue(fields[key]))
	}
	b.WriteString("\n")
}

// humanizeKey converts snake_case to Title Case.
func humanizeKey(key string) string {
	words := strings.Fields(strings.ReplaceAll(key, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func formatValue(v any) string {
	switch val := v.(type) {
	case bool:
		if val {
			return "Yes"
		}
		return "No"
	case string:
		return val
	case float64:
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%g", val)
	case nil:
		return "None"
	case []any:
		return formatArray(val)
	case map[string]any:
		return "(present)"
	default:
		return fmt.Sprintf("%v", val)
	}
}

func formatArray(arr []any) string {
	if len(arr) == 0 {
		return "None"
	}
	items := make([]string, 0, promptArrayCap)
	for _, v := range arr {
		if len(items) >= promptArrayCap {
			break
		}
		switch val := v.(type) {
		case string:
			items = append(items, val)
		case map[string]any:
			items = append(items, formatObjectItem(val))
		default:
			items = append(items, fmt.Sprintf("%v", val))
		}
	}
	return strings.Join(items, ", ")
}

// formatObjectItem shows a concise view of an object inside an array: up to
// three public fields as key=value.
func formatObjectItem(obj map[string]any) string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		if !strings.HasPrefix(k, "_") {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	if len(keys) > 3 {
		keys = keys[:3]
	}
	if len(keys) == 0 {
		return "(object)"
	}
	fields := make([]string, len(keys))
	for i, k := range keys {
		fields[i] = fmt.Sprintf("%s=%v", k, obj[k])
	}
	return "[" + strings.Join(fields, ", ") + "]"
}
