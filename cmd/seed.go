package cmd

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"dance-rollcall/db"
	"dance-rollcall/sheets"
)

func newSeedCommand() *cobra.Command {
	var table string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Print sample sheet contents as CSV",
		Long: "Print sample rows for every sheet as CSV so they can be pasted into a new spreadsheet.\n" +
			"Each table starts with a \"# <Sheet>\" line followed by its header row.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeSeedCSV(cmd.OutOrStdout(), table)
		},
	}
	cmd.Flags().StringVar(&table, "table", "", "only print this sheet (e.g. Students)")
	return cmd
}

func writeSeedCSV(out io.Writer, only string) error {
	data := db.SampleData()
	if only != "" {
		if _, ok := sheets.Headers[only]; !ok {
			return fmt.Errorf("unknown sheet %q", only)
		}
	}

	first := true
	for _, name := range db.SeedTables {
		if only != "" && name != only {
			continue
		}
		if only == "" {
			if !first {
				fmt.Fprintln(out)
			}
			fmt.Fprintf(out, "# %s\n", name)
		}
		first = false

		w := csv.NewWriter(out)
		if err := w.Write(sheets.Headers[name]); err != nil {
			return err
		}
		if err := w.WriteAll(data[name]); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
	}
	return nil
}
