package main

import (
	"fmt"
	"slices"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pdiddy/printandscan/internal/pipeline"
	"github.com/pdiddy/printandscan/internal/toolchain"
	"github.com/pdiddy/printandscan/pkg/types"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "Report which external tools are installed",
	Long: `Tools looks up gs, pdftk, and magick on PATH and shows which backends
can run with what is installed.`,
	Args: cobra.NoArgs,
	RunE: runTools,
}

func init() {
	rootCmd.AddCommand(toolsCmd)
}

func runTools(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	statuses := toolchain.Locate(toolchain.Ghostscript, toolchain.Pdftk, toolchain.Magick)

	found := make(map[string]bool, len(statuses))
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, s := range statuses {
		found[s.Name] = s.Found
		path := s.Path
		if !s.Found {
			path = "not found"
		}
		fmt.Fprintf(tw, "%s\t%s\n", s.Name, path)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(out)
	for _, b := range types.Backends {
		required := pipeline.RequiredTools(b)
		missing := slices.DeleteFunc(slices.Clone(required), func(t string) bool { return found[t] })
		if len(missing) == 0 {
			fmt.Fprintf(out, "backend %s: ready\n", b)
		} else {
			fmt.Fprintf(out, "backend %s: missing %v\n", b, missing)
		}
	}
	return nil
}
