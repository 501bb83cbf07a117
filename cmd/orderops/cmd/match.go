package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/deliverypicker/orderops/internal/config"
	"github.com/deliverypicker/orderops/internal/database/clickhouse"
	"github.com/deliverypicker/orderops/internal/matcher"
	"github.com/deliverypicker/orderops/pkg/models"
)

var (
	matchLinesFile string
	matchJSONOut   string
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Match extracted receipt lines against the catalog",
	Long: `Resolve receipt lines onto catalog products. Lines are matched by
SKU first, then by exact name, then by substring containment. Lines
that resolve to no product are reported as unresolved.`,
	RunE: runMatch,
}

func init() {
	matchCmd.Flags().StringVarP(&matchLinesFile, "lines", "l", "", "JSON file with extracted receipt lines (required)")
	matchCmd.Flags().StringVar(&matchJSONOut, "json-out", "", "Write the resolved selection to a JSON file")
	matchCmd.MarkFlagRequired("lines")
}

func runMatch(cmd *cobra.Command, args []string) error {
	header := color.New(color.FgCyan, color.Bold)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	var lines []models.ExtractedLine
	if err := readJSONFile(matchLinesFile, &lines); err != nil {
		return err
	}

	catalogProducts, err := loadCatalogProducts(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	header.Println("\n  MATCHING RECEIPT LINES")
	fmt.Println("  " + strings.Repeat("─", 40))
	fmt.Println()
	color.Yellow("  %d lines against %d catalog products\n\n", len(lines), len(catalogProducts))

	result, err := matcher.Match(lines, catalogProducts)
	if err != nil {
		return err
	}

	if len(result.Resolved) > 0 {
		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Product", "SKU", "Qty", "Price"})
		table.SetBorder(false)
		table.SetHeaderColor(
			tablewriter.Colors{tablewriter.Bold, tablewriter.FgCyanColor},
			tablewriter.Colors{tablewriter.Bold, tablewriter.FgCyanColor},
			tablewriter.Colors{tablewriter.Bold, tablewriter.FgCyanColor},
			tablewriter.Colors{tablewriter.Bold, tablewriter.FgCyanColor},
		)
		for _, r := range result.Resolved {
			table.Append([]string{
				truncate(r.Product.Name, 40),
				r.Product.SKU,
				fmt.Sprintf("%d", r.Quantity),
				r.Product.Price,
			})
		}
		table.Render()
		fmt.Println()
	}

	if len(result.Unresolved) > 0 {
		color.Red("  Unresolved lines:")
		for _, u := range result.Unresolved {
			label := u.Name
			if u.SKU != "" {
				label = fmt.Sprintf("%s (%s)", u.Name, u.SKU)
			}
			color.Red("    - %s x%d", label, u.Quantity)
		}
		fmt.Println()
	}

	color.Green("  ✓ %d resolved, %d unresolved\n", len(result.Resolved), len(result.Unresolved))
	fmt.Println()

	if matchJSONOut != "" {
		if err := writeSelection(matchJSONOut, result.Resolved); err != nil {
			return err
		}
		fmt.Printf("  Selection written to %s\n\n", matchJSONOut)
	}

	recordMatchEvent(cmd, cfg, len(lines), result)
	return nil
}

// writeSelection saves resolved lines as a compose-ready product selection.
func writeSelection(path string, resolved []matcher.ResolvedLine) error {
	selection := make([]models.ProductRef, 0, len(resolved))
	for _, r := range resolved {
		p := r.Product
		p.Quantity = r.Quantity
		selection = append(selection, p)
	}
	return writeJSONFile(path, selection)
}

func recordMatchEvent(cmd *cobra.Command, cfg *config.Config, lines int, result *matcher.Result) {
	client, err := connectAnalytics(cmd.Context(), cfg)
	if err != nil {
		color.Yellow("  analytics unavailable: %v\n", err)
		return
	}
	if client == nil {
		return
	}
	defer client.Close()

	event := clickhouse.MatchEvent{
		Lines:      uint32(lines),
		Resolved:   uint32(len(result.Resolved)),
		Unresolved: uint32(len(result.Unresolved)),
	}
	if err := client.RecordMatch(cmd.Context(), event); err != nil {
		color.Yellow("  failed to record analytics event: %v\n", err)
	}
}
