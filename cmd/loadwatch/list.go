package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored load series",
	Long:  `Displays the tracked countries and a summary of their locally stored series.`,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	st, _, err := openStore(cfg)
	if err != nil {
		return err
	}

	fmt.Printf("%-6s %-14s %-12s %-14s %s\n", "Code", "Country", "Records", "Last value", "Synced")
	fmt.Println("-----------------------------------------------------------------")

	for _, ent := range cfg.GetEntities() {
		data, err := st.Load(ent.Code)
		if err != nil {
			fmt.Printf("%-6s %-14s ⚠ unreadable: %v\n", ent.Code, ent.Name, err)
			continue
		}
		if len(data) == 0 {
			fmt.Printf("%-6s %-14s %-12s\n", ent.Code, ent.Name, "none")
			continue
		}

		last := data[len(data)-1]
		synced := "never"
		if mod := st.ModTime(ent.Code); !mod.IsZero() {
			synced = humanize.Time(mod)
		}
		fmt.Printf("%-6s %-14s %-12s %-14s %s\n",
			ent.Code, ent.Name,
			humanize.Comma(int64(len(data))),
			fmt.Sprintf("%.2f GW", last.GW),
			synced)
	}

	return nil
}
