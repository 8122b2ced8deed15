package main

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/printandscan/internal/journal"
	"github.com/pdiddy/printandscan/internal/pipeline"
	"github.com/pdiddy/printandscan/internal/toolchain"
	"github.com/pdiddy/printandscan/pkg/types"
)

// newRunner builds the tool runner a scan uses.
var newRunner = toolchain.NewRunner

// scanConfig resolves the run settings from flags, the config file, and the
// environment. A zero seed is replaced by a random one so the report always
// names the seed that reproduces the run.
func scanConfig(cmd *cobra.Command) types.ScanConfig {
	document, _ := cmd.Flags().GetString("document")
	output, _ := cmd.Flags().GetString("output-fname")

	seed := viper.GetUint64("seed")
	if seed == 0 {
		seed = rand.Uint64()
	}

	return types.ScanConfig{
		Document: document,
		Output:   output,
		DPI:      viper.GetInt("density"),
		Backend:  types.Backend(viper.GetString("backend")),
		Workers:  viper.GetInt("workers"),
		Seed:     seed,
	}
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg := scanConfig(cmd)
	if err := cfg.Validate(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if viper.GetBool("quiet") {
		out = io.Discard
	}

	runner := newRunner()
	tools, err := pipeline.NewToolset(cfg.Backend, runner, cfg.DPI)
	if err != nil {
		return err
	}

	p := &pipeline.Pipeline{Runner: runner, Tools: tools, Out: out}
	report, runErr := p.Run(cmd.Context(), cfg)

	record(cmd.Context(), report, cmd.ErrOrStderr())
	if runErr != nil {
		return runErr
	}

	fmt.Fprintln(out, "Done.")
	return nil
}

// record writes the run report and journal entry when configured. Failures
// are reported as warnings; they never change the outcome of the run.
func record(ctx context.Context, report *types.RunReport, w io.Writer) {
	if path := viper.GetString("report"); path != "" {
		if err := journal.WriteReport(path, report); err != nil {
			fmt.Fprintf(w, "warning: %v\n", err)
		}
	}

	path := viper.GetString("journal")
	if path == "" {
		return
	}
	store, err := journal.Open(path)
	if err != nil {
		fmt.Fprintf(w, "warning: %v\n", err)
		return
	}
	defer store.Close()

	// The run context may already be cancelled; the entry is still written.
	if _, err := store.Record(context.WithoutCancel(ctx), report); err != nil {
		fmt.Fprintf(w, "warning: journal: %v\n", err)
	}
}
