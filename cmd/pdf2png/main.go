// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the pdf2png CLI.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/pdf2png/internal/convert"
	"github.com/pdiddy/pdf2png/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// exitStopped is the exit status when the stop marker halts a run.
const exitStopped = 2

// logger is built from --log-level before any command runs.
var logger = zap.NewNop()

// rootCmd converts PDFs, toggles the stop signal, or spawns workers,
// depending on its flags.
var rootCmd = &cobra.Command{
	Use:   "pdf2png",
	Short: "Batch-convert PDF libraries to PNG page images",
	Long: `pdf2png renders every page of every PDF under an input directory to
300 DPI 24-bit PNG files named <document>_0001.png, <document>_0002.png, ...

A document whose first page image exists in the work or completed directory
is skipped, so runs can be repeated and several workers can share one
library. Workers process files in random order and claim each document
before converting it.

  pdf2png -t
      Toggle the stop marker (~/stop_conv.txt). While it exists, every
      worker stops before its next document.

  pdf2png -i /library -o /work -c /completed
      Convert everything under /library into /work; first pages that are
      no longer under review are moved to /completed.

  pdf2png -i /library -o /work -c /completed --spawn 5
      Start five more workers with the same three paths.

  pdf2png -i /library -o /work -c /completed --spawn-to-cpu-utilization 80
      Start workers one at a time until average CPU use reaches 80%.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := newLogger(viper.GetString("log_level"), os.Stderr)
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
	RunE: runRoot,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./pdf2png.yaml or ~/.config/pdf2png/pdf2png.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("ledger", "", "SQLite ledger recording every document outcome")
	rootCmd.PersistentFlags().String("backend", "", "rasterizer backend: ghostscript, container, or mupdf")

	f := rootCmd.Flags()
	f.BoolP("reverse", "r", false, "process files in reverse")
	f.BoolP("random", "g", true, "process files in random order")
	f.StringP("input-path", "i", "", "input path of PDF files")
	f.StringP("output-work-path", "o", "", "work path to send PNG files to")
	f.StringP("completed-path", "c", "", "completed conversion path; first-page images kept here mark documents as done")
	f.String("stop-marker", "", "stop marker file (default ~/stop_conv.txt)")
	f.Int("spawn", 0, "number of worker processes to spawn")
	f.Int("spawn-to-cpu-utilization", 0, "spawn workers until CPU utilization % is reached")
	f.BoolP("toggle-signal", "t", false, "toggle the start/stop signal")

	for key, flag := range map[string]string{
		"log_level":          "log-level",
		"ledger_path":        "ledger",
		"reverse":            "reverse",
		"random":             "random",
		"input_path":         "input-path",
		"output_work_path":   "output-work-path",
		"completed_path":     "completed-path",
		"rasterizer.backend": "backend",
		"stop_marker":        "stop-marker",
	} {
		fl := rootCmd.PersistentFlags().Lookup(flag)
		if fl == nil {
			fl = f.Lookup(flag)
		}
		_ = viper.BindPFlag(key, fl)
	}
	setDefaults(types.DefaultConfig())
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("pdf2png")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "pdf2png"))
		}
	}

	viper.SetEnvPrefix("PDF2PNG")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	err := rootCmd.Execute()
	_ = logger.Sync()
	switch {
	case err == nil:
	case errors.Is(err, convert.ErrStopped):
		os.Exit(exitStopped)
	default:
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
