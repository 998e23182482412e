package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jgoulah/loadwatch/internal/series"
)

var statsYears int

var statsCmd = &cobra.Command{
	Use:   "stats [country]",
	Short: "Show daily, rolling and year-over-year load statistics",
	Long: `Derives the daily mean, the 7-day rolling mean and the change against the
same weekday one year earlier (364 days) from the locally stored series.
Run 'loadwatch sync' first to bring the data up to date.`,
	Args: cobra.ExactArgs(1),
	RunE: runStats,
}

func init() {
	statsCmd.Flags().IntVar(&statsYears, "years", 0, "Limit the per-year summary to the most recent N years (0 = all)")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ent, ok := cfg.Entity(args[0])
	if !ok {
		return fmt.Errorf("unknown country code: %s (see 'loadwatch list')", args[0])
	}

	st, loc, err := openStore(cfg)
	if err != nil {
		return err
	}

	data, err := st.Load(ent.Code)
	if err != nil {
		return fmt.Errorf("loading series for %s: %w", ent.Code, err)
	}
	if len(data) == 0 {
		fmt.Printf("No load data available for %s. Run 'loadwatch sync %s' first.\n", ent.Name, ent.Code)
		return nil
	}

	processed := series.Process(data, loc)

	fmt.Printf("%s: %s observations, %d days with data\n",
		ent.Name, humanize.Comma(int64(len(data))), len(processed.Daily))

	// Latest smoothed reading, the dashboard's headline metric
	for i := len(processed.Daily) - 1; i >= 0; i-- {
		d := processed.Daily[i]
		if d.Rolling != nil {
			fmt.Printf("7-day mean as of %s: %.2f GW\n", d.Date.Format("02.01.2006"), *d.Rolling)
			break
		}
	}

	if len(processed.YoY) > 0 {
		latest := processed.YoY[len(processed.YoY)-1]
		fmt.Printf("Change vs. one year earlier (%s): %+.2f%%\n",
			latest.Date.Format("02.01.2006"), latest.Percent)
	}

	years := processed.Pivot.Years
	if statsYears > 0 && len(years) > statsYears {
		years = years[len(years)-statsYears:]
	}

	fmt.Println("\nPer-year mean of the smoothed series:")
	for _, year := range years {
		sum := 0.0
		count := 0
		for doy := 1; doy <= 366; doy++ {
			if v, ok := processed.Pivot.Value(doy, year); ok {
				sum += v
				count++
			}
		}
		if count == 0 {
			continue
		}
		fmt.Printf("  %d: %6.2f GW (%d days)\n", year, sum/float64(count), count)
	}

	return nil
}
