// Package cmd wires the cobra command line for hprof-slurp.
package cmd

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/agourlay/hprof-slurp/internal/slurp"
	"github.com/agourlay/hprof-slurp/internal/slurpconfig"
	"github.com/agourlay/hprof-slurp/internal/slurperrors"
)

var (
	inputFile   string
	top         int
	debug       bool
	listStrings bool
	jsonExport  bool
	configFile  string
)

var rootCmd = &cobra.Command{
	Use:   "hprof-slurp",
	Short: "A fast, streaming analyzer for Java HPROF heap dumps",
	Long: `hprof-slurp reads a binary HPROF heap dump and reports the top
allocated classes and single-largest instances by memory footprint,
along with file-wide record counts and per-thread stack traces.

It streams the file through a bounded, three-stage pipeline instead of
loading it into memory, so it can process dumps far larger than
available RAM.`,
	Example: `  hprof-slurp -i ./heap.hprof
  hprof-slurp -i ./heap.hprof -t 50
  hprof-slurp -i ./heap.hprof --debug --listStrings
  hprof-slurp -i ./heap.hprof --json`,
	RunE: runSlurp,
}

// Execute runs the root command, exiting with status 1 on any error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().StringVarP(&inputFile, "inputFile", "i", "", "HPROF file to analyze (required)")
	rootCmd.Flags().IntVarP(&top, "top", "t", 0, "Number of rows in the allocation tables (unset = use config default)")
	rootCmd.Flags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging")
	rootCmd.Flags().BoolVarP(&listStrings, "listStrings", "l", false, "Print every captured UTF-8 string")
	rootCmd.Flags().BoolVar(&jsonExport, "json", false, "Additionally write a JSON export of the allocation tables")
	rootCmd.Flags().StringVarP(&configFile, "config", "c", "", "Path to a config file (optional)")
	_ = rootCmd.MarkFlagRequired("inputFile")
}

func runSlurp(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(inputFile); os.IsNotExist(err) {
		return slurperrors.InputNotFound(inputFile, err)
	}

	cfg, err := slurpconfig.Load(configFile)
	if err != nil {
		return err
	}

	effectiveTop := cfg.Top
	if cmd.Flags().Changed("top") {
		if top <= 0 {
			return slurperrors.BadArgument("top must be a positive integer")
		}
		effectiveTop = top
	}

	opts := slurp.Options{
		InputFile:   inputFile,
		Top:         effectiveTop,
		Debug:       debug || cfg.Debug,
		ListStrings: listStrings || cfg.ListStrings,
		JSONExport:  jsonExport || cfg.JSONOutput,
		EpochMillis: time.Now().UnixMilli(),
	}

	return slurp.Run(context.Background(), opts, os.Stdout)
}

// BinName returns the base name of the current executable.
func BinName() string {
	return filepath.Base(os.Args[0])
}
