// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/pdiddy/pdf2png/pkg/types"
)

// setDefaults registers every config key so file values and PDF2PNG_*
// environment variables are picked up by Unmarshal.
func setDefaults(d types.Config) {
	viper.SetDefault("input_path", d.InputPath)
	viper.SetDefault("output_work_path", d.OutputWorkPath)
	viper.SetDefault("completed_path", d.CompletedPath)
	viper.SetDefault("reverse", d.Reverse)
	viper.SetDefault("random", d.Random)
	viper.SetDefault("stop_marker", d.StopMarker)
	viper.SetDefault("claims", d.Claims)
	viper.SetDefault("ledger_path", d.LedgerPath)
	viper.SetDefault("log_level", d.LogLevel)

	viper.SetDefault("rasterizer.backend", string(d.Rasterizer.Backend))
	viper.SetDefault("rasterizer.binary", d.Rasterizer.Binary)
	viper.SetDefault("rasterizer.device", d.Rasterizer.Device)
	viper.SetDefault("rasterizer.resolution", d.Rasterizer.Resolution)
	viper.SetDefault("rasterizer.image", d.Rasterizer.Image)
	viper.SetDefault("rasterizer.runtime", d.Rasterizer.Runtime)

	viper.SetDefault("fleet.delay", d.Fleet.Delay)
	viper.SetDefault("fleet.sample_window", d.Fleet.SampleWindow)
	viper.SetDefault("fleet.max_instances", d.Fleet.MaxInstances)
	viper.SetDefault("fleet.log_dir", d.Fleet.LogDir)
}

// loadConfig resolves flags, environment, config file, and defaults.
func loadConfig() (types.Config, error) {
	cfg := types.DefaultConfig()
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("reading configuration: %w", err)
	}
	return cfg, nil
}
