package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jgoulah/loadwatch/internal/series"
	"github.com/jgoulah/loadwatch/internal/server"
)

var serveListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve chart trace sets over HTTP",
	Long: `Starts an HTTP server that hands daily, pivot and year-over-year trace
sets to an external chart frontend as JSON. A country is re-synced lazily, at
most once per cache TTL (default 24h). Prometheus metrics are exposed on
/metrics.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "Listen address (overrides config, default :8600)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if serveListen != "" {
		cfg.Server.Listen = serveListen
	}

	st, loc, err := openStore(cfg)
	if err != nil {
		return err
	}
	engine, err := newEngine(cfg, st, loc)
	if err != nil {
		return err
	}

	agg := series.NewAggregator(st, loc)
	srv := server.New(cfg, st, engine, agg, loc)
	return srv.ListenAndServe()
}
