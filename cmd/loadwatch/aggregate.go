package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jgoulah/loadwatch/internal/series"
)

var aggregateSave bool

var aggregateCmd = &cobra.Command{
	Use:   "aggregate",
	Short: "Build the multi-country sum series",
	Long: `Resamples every aggregate-member country to a 1-hour grid and sums the
values per hour. Only already-synced local data is read; countries without
data at an hour contribute absence, not zero.`,
	RunE: runAggregate,
}

func init() {
	aggregateCmd.Flags().BoolVar(&aggregateSave, "save", true, "Persist the sum series under the aggregate code")
	rootCmd.AddCommand(aggregateCmd)
}

func runAggregate(cmd *cobra.Command, args []string) error {
	fmt.Printf("=== Aggregate started at %s ===\n", time.Now().Format("2006-01-02 15:04:05 MST"))

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	st, loc, err := openStore(cfg)
	if err != nil {
		return err
	}

	members := cfg.AggregateMembers()
	if len(members) == 0 {
		return fmt.Errorf("no aggregate members configured")
	}
	fmt.Printf("Summing %s on a 1-hour grid...\n", strings.Join(members, ", "))

	agg := series.NewAggregator(st, loc)
	sum, err := agg.Aggregate(members, nil)
	if err != nil {
		return fmt.Errorf("aggregating: %w", err)
	}
	if len(sum) == 0 {
		fmt.Println("No synced data to aggregate. Run 'loadwatch sync all' first.")
		return nil
	}

	first := sum[0].Time
	last := sum[len(sum)-1].Time
	fmt.Printf("✓ %d hourly values from %s to %s\n",
		len(sum), first.Format("2006-01-02"), last.Format("2006-01-02"))

	if aggregateSave {
		code := cfg.GetAggregateCode()
		if err := st.Save(code, sum); err != nil {
			return fmt.Errorf("saving aggregate series: %w", err)
		}
		fmt.Printf("✓ Stored as %s (%s)\n", code, st.Path(code))
	}

	return nil
}
