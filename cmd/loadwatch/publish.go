package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jgoulah/loadwatch/internal/publisher"
	"github.com/jgoulah/loadwatch/internal/series"
)

var publishStats bool

var publishCmd = &cobra.Command{
	Use:   "publish [country]",
	Short: "Publish the latest 7-day mean to MQTT / Home Assistant",
	Long: `Computes the most recent 7-day rolling mean from the locally stored series
and pushes it to the configured MQTT broker and/or Home Assistant.`,
	Args: cobra.ExactArgs(1),
	RunE: runPublish,
}

func init() {
	publishCmd.Flags().BoolVar(&publishStats, "generate-stats", false, "Also trigger Home Assistant statistics generation")
	rootCmd.AddCommand(publishCmd)
}

func runPublish(cmd *cobra.Command, args []string) error {
	fmt.Printf("=== Publish started at %s ===\n", time.Now().Format("2006-01-02 15:04:05 MST"))

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if !cfg.MQTT.Enabled && !cfg.HomeAssistant.Enabled {
		return fmt.Errorf("neither MQTT nor Home Assistant is enabled in config")
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
	var metric *publisher.Metric
	for i := len(processed.Daily) - 1; i >= 0; i-- {
		d := processed.Daily[i]
		if d.Rolling != nil {
			metric = &publisher.Metric{Entity: ent.Code, Date: d.Date, GW: *d.Rolling}
			break
		}
	}
	if metric == nil {
		fmt.Println("No complete 7-day window yet, nothing to publish.")
		return nil
	}

	pub, err := publisher.New(cfg.MQTT, cfg.GetTopicPrefix(), cfg.HomeAssistant)
	if err != nil {
		return fmt.Errorf("creating publisher: %w", err)
	}
	defer pub.Close()

	fmt.Printf("Publishing %.2f GW (7-day mean as of %s)...\n", metric.GW, metric.Date.Format("2006-01-02"))

	if cfg.MQTT.Enabled {
		if err := pub.PublishMQTT(*metric); err != nil {
			fmt.Printf("⚠ MQTT publish failed: %v\n", err)
		} else {
			fmt.Println("✓ Published to MQTT")
		}
	}

	if cfg.HomeAssistant.Enabled {
		if err := pub.PublishHA(*metric); err != nil {
			fmt.Printf("⚠ Home Assistant publish failed: %v\n", err)
		} else {
			fmt.Println("✓ Published to Home Assistant")
		}

		if publishStats {
			result, err := pub.TriggerStatistics()
			if err != nil {
				fmt.Printf("⚠ Statistics generation failed: %v\n", err)
			} else {
				fmt.Printf("✓ Statistics generated\n")
				if inserted, ok := result["inserted"].(float64); ok {
					fmt.Printf("  - Inserted: %d new statistics records\n", int(inserted))
				}
				if updated, ok := result["updated"].(float64); ok {
					fmt.Printf("  - Updated: %d existing statistics records\n", int(updated))
				}
			}
		}
	}

	return nil
}
