// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the printandscan CLI, which makes a
// PDF look as if it had been printed and scanned back in.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/printandscan/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd runs the print-and-scan pipeline.
var rootCmd = &cobra.Command{
	Use:   "printandscan -d input.pdf -o output.pdf",
	Short: "Make a PDF look printed and scanned",
	Long: `printandscan converts a PDF to RGB, rasterizes every page, applies a
"scanned" effect (a small random rotation, blur, noise, and brightness,
contrast, and saturation shifts), and reassembles the pages into a single
compressed PDF.

Ghostscript is always required. The magick backend (default) also needs
pdftk and ImageMagick; the native backend splits, merges, and distorts
pages in-process.`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runScan,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./printandscan.yaml or ~/.config/printandscan/printandscan.yaml)")

	flags := rootCmd.Flags()
	flags.StringP("document", "d", "", "input PDF document")
	flags.StringP("output-fname", "o", "", "output PDF file name")
	flags.Int("density", types.DefaultDPI, "rasterization density in DPI")
	flags.String("backend", string(types.BackendMagick), "stage implementations: magick or native")
	flags.Int("workers", types.DefaultWorkers, "pages degraded concurrently")
	flags.Uint64("seed", 0, "random seed for rotation and noise (0 picks one)")
	flags.String("journal", "", "SQLite database recording every run")
	flags.String("report", "", "write a YAML run report to this path")
	flags.BoolP("quiet", "q", false, "suppress progress output")

	for _, key := range []string{"density", "backend", "workers", "seed", "journal", "report", "quiet"} {
		_ = viper.BindPFlag(key, flags.Lookup(key))
	}
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("printandscan")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "printandscan"))
		}
	}

	viper.SetEnvPrefix("PRINTANDSCAN")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
