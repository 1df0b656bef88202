package ux

import (
	"fmt"
	"io"
	"time"

	"chompie/internal/chomp"
)

// WriteSummary prints the end-of-run statistics.
func WriteSummary(w io.Writer, stats *chomp.Stats, styles Styles) {
	row := func(label, value string) {
		fmt.Fprintf(w, "  %s%s\n", styles.Label.Render(label), styles.Value.Render(value))
	}

	fmt.Fprintln(w, styles.Title.Render("chomp summary"))
	row("initial lines", fmt.Sprint(stats.InitialNonBlank))
	row("final lines", fmt.Sprint(stats.FinalNonBlank))
	row("reduction", fmt.Sprintf("%.1f%% (%d lines)", stats.ReductionPercent(), stats.Removed()))
	row("attempts", fmt.Sprint(stats.Attempts))
	row("commits", fmt.Sprint(stats.Commits))
	row("skipped", fmt.Sprint(stats.Skipped))
	row("rounds", fmt.Sprint(stats.Rounds))
	row("elapsed", stats.Elapsed.Round(time.Millisecond).String())
	row("command time", stats.CommandTime.Round(time.Millisecond).String())

	switch {
	case stats.Fixpoint:
		fmt.Fprintln(w, "  "+styles.Success.Render("fixpoint reached"))
	case stats.RoundCapped:
		fmt.Fprintln(w, "  "+styles.Warning.Render(fmt.Sprintf("stopped after %d rounds", stats.Rounds)))
	default:
		fmt.Fprintln(w, "  "+styles.Warning.Render("stopped before fixpoint"))
	}

	if len(stats.Strategies) > 1 {
		fmt.Fprintln(w, styles.Title.Render("by strategy"))
		for _, st := range stats.Strategies {
			fmt.Fprintf(w, "  %s%s\n", styles.Label.Render(st.Name),
				styles.Muted.Render(fmt.Sprintf("%d attempts, %d commits, %d skipped, %d lines", st.Attempts, st.Commits, st.Skipped, st.Removed)))
		}
	}
}
