// internal/adapters/output/table.go
package output

import (
	"fmt"
	"io"
	"text/tabwriter"
)

// OutputTable imprime el reporte como tabla legible.
func OutputTable(out io.Writer, r *Report) error {
	w := tabwriter.NewWriter(out, 2, 4, 2, ' ', 0)

	fmt.Fprintf(w, "\n=== Ingest %s ===\n", r.ID)
	fmt.Fprintf(w, "Duration:\t%s\n", r.Duration)
	fmt.Fprintf(w, "Cancelled:\t%t\n", r.Cancelled)
	fmt.Fprintf(w, "Images:\t%d\n", len(r.DataSources))
	fmt.Fprintf(w, "Files processed:\t%d\n", r.FilesProcessed())
	fmt.Fprintf(w, "Files skipped:\t%d\n\n", r.FilesSkipped)

	fmt.Fprintln(w, "TIER\tSTATE\tTASKS")
	fmt.Fprintln(w, "----\t-----\t-----")
	for _, tier := range []struct {
		name   string
		counts map[string]int
	}{
		{"datasource", r.Tasks.DataSource},
		{"file", r.Tasks.Files},
		{"file module", r.Tasks.FileModules},
	} {
		for _, state := range sortedKeys(tier.counts) {
			fmt.Fprintf(w, "%s\t%s\t%d\n", tier.name, state, tier.counts[state])
		}
	}

	if len(r.Findings) > 0 {
		fmt.Fprintln(w, "\nKIND\tFINDINGS")
		fmt.Fprintln(w, "----\t--------")
		for _, kind := range sortedKeys(r.Findings) {
			fmt.Fprintf(w, "%s\t%d\n", kind, r.Findings[kind])
		}
	} else {
		fmt.Fprintln(w, "\nNo findings.")
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to flush table: %w", err)
	}

	if len(r.Problems) > 0 {
		fmt.Fprintf(out, "\nProblems (%d):\n", len(r.Problems))
		for i, p := range r.Problems {
			fmt.Fprintf(out, "  %d. [%s] %s: %s\n", i+1, p.Severity, p.Module, p.Title)
		}
	}

	fmt.Fprintln(out)
	return nil
}
