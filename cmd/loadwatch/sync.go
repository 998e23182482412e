package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync [country|all]",
	Short: "Bring local load series up to date",
	Long: `Fetches the gap between the last stored observation and today from the
energy-charts API, one request per calendar year, and merges the result into
the entity's local CSV file. Years that fail are skipped and reported; the
sync never aborts because of a single bad year.`,
	Args: cobra.ExactArgs(1),
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	fmt.Printf("=== Sync started at %s ===\n", time.Now().Format("2006-01-02 15:04:05 MST"))

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	var codes []string
	if args[0] == "all" {
		for _, e := range cfg.GetEntities() {
			codes = append(codes, e.Code)
		}
	} else {
		ent, ok := cfg.Entity(args[0])
		if !ok {
			return fmt.Errorf("unknown country code: %s (see 'loadwatch list')", args[0])
		}
		codes = append(codes, ent.Code)
	}

	st, loc, err := openStore(cfg)
	if err != nil {
		return err
	}
	engine, err := newEngine(cfg, st, loc)
	if err != nil {
		return err
	}

	ctx := context.Background()
	for _, code := range codes {
		ent, _ := cfg.Entity(code)
		fmt.Printf("Syncing %s (%s)...\n", ent.Name, code)

		merged, report := engine.Sync(ctx, code)

		if report.CorruptRecovered {
			fmt.Printf("⚠ Local file for %s was unreadable, resynced from scratch\n", code)
		}
		if report.Skipped {
			fmt.Printf("✓ %s already current (%d observations)\n", ent.Name, len(merged))
			continue
		}
		for _, y := range report.Failed() {
			fmt.Printf("⚠ %d failed: %v\n", y.Year, y.Err)
		}
		if report.SaveErr != nil {
			fmt.Printf("⚠ Could not persist %s: %v\n", code, report.SaveErr)
			continue
		}
		fmt.Printf("✓ %s: %d new observations, %d total (window %s to %s, report %s)\n",
			ent.Name, report.Added, report.Total,
			report.WindowStart.Format("2006-01-02"), report.WindowEnd.Format("2006-01-02"),
			report.ID)
	}

	return nil
}
