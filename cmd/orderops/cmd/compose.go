package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/deliverypicker/orderops/internal/compositor"
	"github.com/deliverypicker/orderops/internal/config"
	"github.com/deliverypicker/orderops/internal/database/clickhouse"
	"github.com/deliverypicker/orderops/internal/images"
	"github.com/deliverypicker/orderops/pkg/models"
)

var (
	composeSelection string
	composeIDs       string
	composeOutput    string
	composeRelay     string
)

var composeCmd = &cobra.Command{
	Use:   "compose",
	Short: "Compose an order image from selected products",
	Long: `Lay out the selected products on a grid and render a shareable
order image. The selection comes from a JSON file (--selection) or from
catalog IDs (--ids).`,
	RunE: runCompose,
}

func init() {
	composeCmd.Flags().StringVarP(&composeSelection, "selection", "s", "", "JSON file with the selected products")
	composeCmd.Flags().StringVarP(&composeIDs, "ids", "i", "", "Comma-separated catalog product IDs")
	composeCmd.Flags().StringVarP(&composeOutput, "output", "o", "", "Output PNG path (default output/order-<timestamp>.png)")
	composeCmd.Flags().StringVar(&composeRelay, "relay", "", "Relay endpoint override for cross-origin image fetches")
}

func runCompose(cmd *cobra.Command, args []string) error {
	header := color.New(color.FgCyan, color.Bold)
	success := color.New(color.FgGreen)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	products, err := resolveSelection(cmd, cfg)
	if err != nil {
		return err
	}

	header.Println("\n  COMPOSING ORDER IMAGE")
	fmt.Println("  " + strings.Repeat("─", 40))
	fmt.Println()

	if len(products) == 0 {
		color.Yellow("  No products selected. Nothing to compose.")
		fmt.Println()
		return nil
	}

	color.Yellow("  Loading %d product images...\n\n", len(products))

	comp, err := compositor.New(newLoader(cfg, composeRelay))
	if err != nil {
		return err
	}

	bar := progressbar.NewOptions(len(products),
		progressbar.OptionSetDescription("  Loading images"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        color.GreenString("█"),
			SaucerHead:    color.GreenString("█"),
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionShowCount(),
	)

	tileErrs := make([]error, len(products))
	comp.Progress = func(index int, err error) {
		tileErrs[index] = err
		_ = bar.Add(1)
	}

	artifact, err := comp.Compose(cmd.Context(), products)
	fmt.Println()
	fmt.Println()
	if err != nil {
		return err
	}

	outPath := composeOutput
	if outPath == "" {
		if err := os.MkdirAll(cfg.Output.Dir, 0755); err != nil {
			return err
		}
		outPath = filepath.Join(cfg.Output.Dir, fmt.Sprintf("order-%d.png", time.Now().UnixMilli()))
	}
	if err := os.WriteFile(outPath, artifact.PNG, 0644); err != nil {
		return fmt.Errorf("failed to write order image: %w", err)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"#", "Product", "SKU", "Status"})
	table.SetBorder(false)
	table.SetHeaderColor(
		tablewriter.Colors{tablewriter.Bold, tablewriter.FgCyanColor},
		tablewriter.Colors{tablewriter.Bold, tablewriter.FgCyanColor},
		tablewriter.Colors{tablewriter.Bold, tablewriter.FgCyanColor},
		tablewriter.Colors{tablewriter.Bold, tablewriter.FgCyanColor},
	)

	for i, p := range products {
		status := color.GreenString("loaded")
		if tileErrs[i] != nil {
			status = color.RedString("failed")
		}
		table.Append([]string{fmt.Sprintf("%d", i+1), truncate(p.Name, 30), p.SKU, status})
	}
	table.Render()
	fmt.Println()

	success.Printf("  ✓ Composed %dx%d image (%s): %s\n",
		artifact.Width, artifact.Height, images.FormatSize(artifact.Size()), outPath)
	if artifact.Failed > 0 {
		color.Yellow("  %d of %d images loaded; %d tiles skipped\n",
			artifact.Loaded, len(products), artifact.Failed)
	}
	fmt.Println()

	recordCompositionEvent(cmd, cfg, len(products), artifact)
	return nil
}

// resolveSelection builds the product list from --selection or --ids.
func resolveSelection(cmd *cobra.Command, cfg *config.Config) ([]models.ProductRef, error) {
	switch {
	case composeSelection != "" && composeIDs != "":
		return nil, fmt.Errorf("use either --selection or --ids, not both")
	case composeSelection != "":
		var products []models.ProductRef
		if err := readJSONFile(composeSelection, &products); err != nil {
			return nil, err
		}
		return products, nil
	case composeIDs != "":
		catalogProducts, err := loadCatalogProducts(cmd.Context(), cfg)
		if err != nil {
			return nil, err
		}
		byID := make(map[string]models.ProductRef, len(catalogProducts))
		for _, p := range catalogProducts {
			byID[p.ID] = p
		}
		var products []models.ProductRef
		for _, id := range splitIDs(composeIDs) {
			p, ok := byID[id]
			if !ok {
				return nil, fmt.Errorf("unknown catalog product: %s", id)
			}
			products = append(products, p)
		}
		return products, nil
	default:
		return nil, fmt.Errorf("a selection is required: pass --selection or --ids")
	}
}

// recordCompositionEvent ships the run to analytics when enabled. Failures
// are reported as warnings, never as command errors.
func recordCompositionEvent(cmd *cobra.Command, cfg *config.Config, items int, artifact *models.Artifact) {
	client, err := connectAnalytics(cmd.Context(), cfg)
	if err != nil {
		color.Yellow("  analytics unavailable: %v\n", err)
		return
	}
	if client == nil {
		return
	}
	defer client.Close()

	event := clickhouse.CompositionEvent{
		Items:  uint32(items),
		Loaded: uint32(artifact.Loaded),
		Failed: uint32(artifact.Failed),
		Bytes:  uint64(artifact.Size()),
	}
	if err := client.RecordComposition(cmd.Context(), event); err != nil {
		color.Yellow("  failed to record analytics event: %v\n", err)
	}
}
