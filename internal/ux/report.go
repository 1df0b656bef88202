package ux

import (
	"fmt"
	"os"
	"strings"
	"time"

	"chompie/internal/chomp"

	"github.com/charmbracelet/glamour"
)

// ReportInfo describes the run a report belongs to.
type ReportInfo struct {
	RunID      string
	Command    string
	Root       string
	Seed       int64
	Strategies []string
	Err        error
}

// BuildReport renders the run as markdown.
func BuildReport(info ReportInfo, stats *chomp.Stats) string {
	var sb strings.Builder
	sb.WriteString("# Chomp report\n\n")
	fmt.Fprintf(&sb, "- **Command:** `%s`\n", info.Command)
	fmt.Fprintf(&sb, "- **Root:** `%s`\n", info.Root)
	if info.RunID != "" {
		fmt.Fprintf(&sb, "- **Run:** `%s`\n", info.RunID)
	}
	fmt.Fprintf(&sb, "- **Started:** %s\n", stats.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(&sb, "- **Strategies:** %s (seed %d)\n", strings.Join(info.Strategies, ", "), info.Seed)
	switch {
	case info.Err != nil:
		fmt.Fprintf(&sb, "- **Outcome:** stopped: %v\n", info.Err)
	case stats.Fixpoint:
		sb.WriteString("- **Outcome:** fixpoint\n")
	case stats.RoundCapped:
		fmt.Fprintf(&sb, "- **Outcome:** stopped after %d rounds\n", stats.Rounds)
	}

	sb.WriteString("\n## Totals\n\n")
	sb.WriteString("| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(&sb, "| Non-blank lines | %d → %d |\n", stats.InitialNonBlank, stats.FinalNonBlank)
	fmt.Fprintf(&sb, "| Reduction | %.1f%% |\n", stats.ReductionPercent())
	fmt.Fprintf(&sb, "| Attempts | %d |\n", stats.Attempts)
	fmt.Fprintf(&sb, "| Commits | %d |\n", stats.Commits)
	fmt.Fprintf(&sb, "| Skipped | %d |\n", stats.Skipped)
	fmt.Fprintf(&sb, "| Rounds | %d |\n", stats.Rounds)
	fmt.Fprintf(&sb, "| Elapsed | %s |\n", stats.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(&sb, "| Command time | %s |\n", stats.CommandTime.Round(time.Millisecond))

	if len(stats.Strategies) > 0 {
		sb.WriteString("\n## Strategies\n\n")
		sb.WriteString("| Strategy | Attempts | Commits | Skipped | Lines removed |\n|---|---|---|---|---|\n")
		for _, st := range stats.Strategies {
			fmt.Fprintf(&sb, "| %s | %d | %d | %d | %d |\n", st.Name, st.Attempts, st.Commits, st.Skipped, st.Removed)
		}
	}

	if len(stats.Files) > 0 {
		sb.WriteString("\n## Files\n\n")
		sb.WriteString("| File | Lines | Before | After |\n|---|---|---|---|\n")
		for _, f := range stats.Files {
			fmt.Fprintf(&sb, "| `%s` | %d | %d | %d |\n", f.Path, f.Lines, f.InitialNonBlank, f.FinalNonBlank)
		}
	}
	return sb.String()
}

// WriteReport saves markdown to path.
func WriteReport(path, markdown string) error {
	if err := os.WriteFile(path, []byte(markdown), 0644); err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}
	return nil
}

// RenderMarkdown renders markdown for the terminal. styled=false uses the
// plain notty style.
func RenderMarkdown(markdown string, width int, styled bool) (string, error) {
	if width <= 0 {
		width = 80
	}
	style := glamour.WithAutoStyle()
	if !styled {
		style = glamour.WithStandardStyle("notty")
	}
	renderer, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(width))
	if err != nil {
		return "", fmt.Errorf("create markdown renderer: %w", err)
	}
	out, err := renderer.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return out, nil
}
