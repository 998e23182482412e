package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/xuri/excelize/v2"

	"github.com/jgoulah/loadwatch/internal/series"
)

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export [country]",
	Short: "Export the year-comparison pivot to an Excel workbook",
	Long: `Writes the day-of-year by year pivot of the 7-day rolling mean to an .xlsx
file, one column per year, for offline inspection.`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportOutput, "output", "", "Output file (default: load_<country>.xlsx)")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	fmt.Printf("=== Export started at %s ===\n", time.Now().Format("2006-01-02 15:04:05 MST"))

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
	pivot := processed.Pivot
	if len(pivot.Years) == 0 {
		fmt.Println("Not enough data for a year comparison yet (the 7-day window needs a full week).")
		return nil
	}

	output := exportOutput
	if output == "" {
		output = fmt.Sprintf("load_%s.xlsx", ent.Code)
	}

	f := excelize.NewFile()
	sheet := "pivot"
	f.SetSheetName("Sheet1", sheet)

	_ = f.SetCellValue(sheet, "A1", "Day of year")
	for col, year := range pivot.Years {
		cell, _ := excelize.CoordinatesToCellName(col+2, 1)
		_ = f.SetCellValue(sheet, cell, year)
	}
	for doy := 1; doy <= 366; doy++ {
		cell, _ := excelize.CoordinatesToCellName(1, doy+1)
		_ = f.SetCellValue(sheet, cell, doy)
		for col, year := range pivot.Years {
			v, ok := pivot.Value(doy, year)
			if !ok {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(col+2, doy+1)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}

	info := "info"
	_, _ = f.NewSheet(info)
	_ = f.SetCellValue(info, "A1", "Country")
	_ = f.SetCellValue(info, "B1", ent.Name)
	_ = f.SetCellValue(info, "A2", "Values")
	_ = f.SetCellValue(info, "B2", "7-day rolling mean of daily load (GW)")
	_ = f.SetCellValue(info, "A3", "Generated")
	_ = f.SetCellValue(info, "B3", time.Now().Format(time.RFC3339))

	if err := f.SaveAs(output); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}

	fmt.Printf("✓ Wrote %s (%d years)\n", output, len(pivot.Years))
	return nil
}
