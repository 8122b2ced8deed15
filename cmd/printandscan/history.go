package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/printandscan/internal/journal"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent runs from the journal",
	Long: `History reads the SQLite journal written with --journal and lists the
most recent runs, newest first. With --pages it also shows the rotation
applied to every page.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().String("journal", "", "SQLite journal to read (default: the journal key from config)")
	historyCmd.Flags().IntP("limit", "n", journal.DefaultHistory, "maximum number of runs to list")
	historyCmd.Flags().Bool("pages", false, "show per-page rotation angles")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("journal")
	if path == "" {
		path = viper.GetString("journal")
	}
	if path == "" {
		return fmt.Errorf("no journal configured; pass --journal or set journal in the config file")
	}
	limit, _ := cmd.Flags().GetInt("limit")
	showPages, _ := cmd.Flags().GetBool("pages")

	store, err := journal.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.Recent(cmd.Context(), limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no runs recorded")
		return nil
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTARTED\tSTATUS\tBACKEND\tDPI\tPAGES\tSEED\tINPUT\tOUTPUT")
	for _, e := range entries {
		r := e.Report
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%d\t%d\t%s\t%s\n",
			e.ID, r.StartedAt.Local().Format(time.DateTime), r.Status, r.Backend,
			r.DPI, r.PageCount, r.Seed, r.Input, r.Output)
		if r.Error != "" {
			fmt.Fprintf(tw, "\t\terror: %s\n", r.Error)
		}
		if showPages {
			for _, p := range r.Pages {
				fmt.Fprintf(tw, "\t\tpage %s\t%+.4f°\n", p.Ordinal, p.Angle)
			}
		}
	}
	return tw.Flush()
}
