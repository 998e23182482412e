package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jgoulah/loadwatch/internal/config"
	"github.com/jgoulah/loadwatch/internal/fetcher"
	"github.com/jgoulah/loadwatch/internal/store"
	"github.com/jgoulah/loadwatch/internal/syncer"
)

var (
	cfgFile string
	dataDir string
)

var rootCmd = &cobra.Command{
	Use:   "loadwatch",
	Short: "Track national electricity load and compare it year over year",
	Long: `Loadwatch is a CLI tool that downloads national electricity-load series
from the energy-charts public API, keeps them up to date in local CSV files,
and derives daily means, 7-day rolling means and year-over-year comparisons.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "series data directory (default is ./data)")
}

// getConfigPath returns the config file path
func getConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.DefaultConfigPath()
}

// loadConfig loads the configuration file
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return nil, err
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	return cfg, nil
}

// openStore opens the series store in the configured data directory
func openStore(cfg *config.Config) (*store.Store, *time.Location, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, nil, err
	}
	st, err := store.New(cfg.GetDataDir(), loc)
	if err != nil {
		return nil, nil, fmt.Errorf("opening series store: %w", err)
	}
	return st, loc, nil
}

// newEngine wires fetcher and store into a sync engine with CLI
// progress output per fetched year
func newEngine(cfg *config.Config, st *store.Store, loc *time.Location) (*syncer.Engine, error) {
	epoch, err := cfg.GetEpochStart()
	if err != nil {
		return nil, err
	}
	f := fetcher.New(cfg.GetBaseURL(), cfg.GetTimeout(), loc)
	f.OnProgress(func(year, done, total int) {
		fmt.Printf("  [%d/%d] Loaded data for %d\n", done, total, year)
	})
	return syncer.New(st, f, epoch), nil
}
