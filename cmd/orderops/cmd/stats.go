package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/deliverypicker/orderops/internal/config"
)

var statsDays int

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show usage analytics",
	Long:  `Summarize composition and match activity recorded in ClickHouse.`,
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().IntVar(&statsDays, "days", 30, "Look-back window in days")
}

func runStats(cmd *cobra.Command, args []string) error {
	header := color.New(color.FgCyan, color.Bold)

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if !cfg.Analytics.Enabled {
		return fmt.Errorf("analytics is disabled: run 'orderops config set analytics.enabled true'")
	}

	client, err := connectAnalytics(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	summary, err := client.UsageSummary(cmd.Context(), statsDays)
	if err != nil {
		return err
	}

	header.Printf("\n  USAGE - LAST %d DAYS\n", statsDays)
	fmt.Println("  " + strings.Repeat("─", 40))
	fmt.Println()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Metric", "Value"})
	table.SetBorder(false)
	table.SetHeaderColor(
		tablewriter.Colors{tablewriter.Bold, tablewriter.FgCyanColor},
		tablewriter.Colors{tablewriter.Bold, tablewriter.FgCyanColor},
	)
	table.Append([]string{"Compositions", fmt.Sprintf("%d", summary.Compositions)})
	table.Append([]string{"Tiles loaded", fmt.Sprintf("%d", summary.TilesLoaded)})
	table.Append([]string{"Tiles failed", fmt.Sprintf("%d", summary.TilesFailed)})
	table.Append([]string{"Match runs", fmt.Sprintf("%d", summary.Matches)})
	table.Append([]string{"Lines resolved", fmt.Sprintf("%d", summary.Resolved)})
	table.Append([]string{"Lines unresolved", fmt.Sprintf("%d", summary.Unresolved)})
	table.Render()
	fmt.Println()
	return nil
}
