package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/deliverypicker/orderops/internal/catalog"
	"github.com/deliverypicker/orderops/internal/config"
	"github.com/deliverypicker/orderops/internal/database/postgres"
	"github.com/deliverypicker/orderops/pkg/models"
)

var (
	catalogAdmin bool

	addName     string
	addImage    string
	addPrice    string
	addSKU      string
	addQuantity int

	bulkPriceIDs   string
	bulkPriceValue string
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage the product catalog",
	Long: `Inspect and modify the product catalog behind the storefront grid.
Mutations require the --admin flag.`,
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalog products in display order",
	RunE:  runCatalogList,
}

var catalogAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a product to the catalog",
	RunE:  runCatalogAdd,
}

var catalogDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Remove a product from the catalog",
	Args:  cobra.ExactArgs(1),
	RunE:  runCatalogDelete,
}

var catalogImportCmd = &cobra.Command{
	Use:   "import <csv-file>",
	Short: "Import products from a CSV export",
	Long: `Import products from a CSV file. The header row is matched
case-insensitively for Name, Image, Price, SKU and Quantity columns;
rows missing a name or image are skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: runCatalogImport,
}

var catalogBulkPriceCmd = &cobra.Command{
	Use:   "bulk-price",
	Short: "Set one price on several products at once",
	RunE:  runCatalogBulkPrice,
}

var catalogHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the catalog change history",
	RunE:  runCatalogHistory,
}

func init() {
	catalogCmd.PersistentFlags().BoolVar(&catalogAdmin, "admin", false, "Allow catalog mutations")

	catalogAddCmd.Flags().StringVar(&addName, "name", "", "Product name (required)")
	catalogAddCmd.Flags().StringVar(&addImage, "image", "", "Product image URL or path (required)")
	catalogAddCmd.Flags().StringVar(&addPrice, "price", "", "Display price, e.g. \"$4.99\"")
	catalogAddCmd.Flags().StringVar(&addSKU, "sku", "", "Stock keeping unit")
	catalogAddCmd.Flags().IntVar(&addQuantity, "quantity", 0, "Default quantity when selected")
	catalogAddCmd.MarkFlagRequired("name")
	catalogAddCmd.MarkFlagRequired("image")

	catalogBulkPriceCmd.Flags().StringVar(&bulkPriceIDs, "ids", "", "Comma-separated product IDs (required)")
	catalogBulkPriceCmd.Flags().StringVar(&bulkPriceValue, "price", "", "New display price (required)")
	catalogBulkPriceCmd.MarkFlagRequired("ids")
	catalogBulkPriceCmd.MarkFlagRequired("price")

	catalogCmd.AddCommand(catalogListCmd)
	catalogCmd.AddCommand(catalogAddCmd)
	catalogCmd.AddCommand(catalogDeleteCmd)
	catalogCmd.AddCommand(catalogImportCmd)
	catalogCmd.AddCommand(catalogBulkPriceCmd)
	catalogCmd.AddCommand(catalogHistoryCmd)
}

func runCatalogList(cmd *cobra.Command, args []string) error {
	header := color.New(color.FgCyan, color.Bold)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	products, err := loadCatalogProducts(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	header.Println("\n  PRODUCT CATALOG")
	fmt.Println("  " + strings.Repeat("─", 40))
	fmt.Println()

	if len(products) == 0 {
		color.Yellow("  Catalog is empty. Use 'orderops catalog import' to load products.")
		fmt.Println()
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "Name", "SKU", "Price", "Qty"})
	table.SetBorder(false)
	table.SetHeaderColor(
		tablewriter.Colors{tablewriter.Bold, tablewriter.FgCyanColor},
		tablewriter.Colors{tablewriter.Bold, tablewriter.FgCyanColor},
		tablewriter.Colors{tablewriter.Bold, tablewriter.FgCyanColor},
		tablewriter.Colors{tablewriter.Bold, tablewriter.FgCyanColor},
		tablewriter.Colors{tablewriter.Bold, tablewriter.FgCyanColor},
	)
	for _, p := range products {
		qty := ""
		if p.Quantity > 0 {
			qty = fmt.Sprintf("%d", p.Quantity)
		}
		table.Append([]string{truncate(p.ID, 12), truncate(p.Name, 40), p.SKU, p.Price, qty})
	}
	table.Render()
	fmt.Println()
	color.Green("  %d products\n", len(products))
	fmt.Println()
	return nil
}

func runCatalogAdd(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	product := models.ProductRef{
		Name:     addName,
		Image:    addImage,
		Price:    addPrice,
		SKU:      addSKU,
		Quantity: addQuantity,
	}

	if cfg.Database.UseDB {
		if !catalogAdmin {
			return catalog.ErrNotPermitted
		}
		client, err := connectPostgres(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer client.Close()
		if err := postgres.NewCatalogRepo(client).Create(cmd.Context(), &product); err != nil {
			return err
		}
	} else {
		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		product, err = store.Add(product, catalogAdmin)
		if err != nil {
			return err
		}
	}

	color.Green("✓ Added %s (%s)", product.Name, product.ID)
	return nil
}

func runCatalogDelete(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if cfg.Database.UseDB {
		if !catalogAdmin {
			return catalog.ErrNotPermitted
		}
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid product ID: %w", err)
		}
		client, err := connectPostgres(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer client.Close()
		if err := postgres.NewCatalogRepo(client).Delete(cmd.Context(), id); err != nil {
			return err
		}
	} else {
		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		if err := store.Delete(args[0], catalogAdmin); err != nil {
			return err
		}
	}

	color.Green("✓ Deleted %s", args[0])
	return nil
}

func runCatalogImport(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	products, err := catalog.ParseCSV(args[0])
	if err != nil {
		return err
	}
	if len(products) == 0 {
		color.Yellow("No importable rows found in %s", args[0])
		return nil
	}

	var imported int
	if cfg.Database.UseDB {
		if !catalogAdmin {
			return catalog.ErrNotPermitted
		}
		client, err := connectPostgres(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer client.Close()
		imported, err = postgres.NewCatalogRepo(client).BulkInsert(cmd.Context(), products)
		if err != nil {
			return err
		}
	} else {
		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		imported, err = store.Import(products, args[0], catalogAdmin)
		if err != nil {
			return err
		}
	}

	color.Green("✓ Imported %d products from %s", imported, args[0])
	return nil
}

func runCatalogBulkPrice(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ids := splitIDs(bulkPriceIDs)
	if len(ids) == 0 {
		return fmt.Errorf("no product IDs given")
	}

	var updated int
	if cfg.Database.UseDB {
		if !catalogAdmin {
			return catalog.ErrNotPermitted
		}
		client, err := connectPostgres(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer client.Close()

		repo := postgres.NewCatalogRepo(client)
		for _, raw := range ids {
			id, err := uuid.Parse(raw)
			if err != nil {
				return fmt.Errorf("invalid product ID %q: %w", raw, err)
			}
			product, err := repo.GetByID(cmd.Context(), id)
			if err != nil {
				return err
			}
			product.Price = bulkPriceValue
			if err := repo.Update(cmd.Context(), product); err != nil {
				return err
			}
			updated++
		}
	} else {
		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		updated, err = store.BulkSetPrice(ids, bulkPriceValue, catalogAdmin)
		if err != nil {
			return err
		}
	}

	color.Green("✓ Updated price on %d products", updated)
	return nil
}

func runCatalogHistory(cmd *cobra.Command, args []string) error {
	header := color.New(color.FgCyan, color.Bold)

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.Database.UseDB {
		return fmt.Errorf("change history is only kept by the JSON catalog store")
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}

	entries := store.History()

	header.Println("\n  CATALOG HISTORY")
	fmt.Println("  " + strings.Repeat("─", 40))
	fmt.Println()

	if len(entries) == 0 {
		color.Yellow("  No recorded changes.")
		fmt.Println()
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Time", "Action", "Count", "Details"})
	table.SetBorder(false)
	for _, e := range entries {
		table.Append([]string{
			e.Timestamp.Format("2006-01-02 15:04"),
			e.Action,
			fmt.Sprintf("%d", e.Count),
			truncate(e.Details, 40),
		})
	}
	table.Render()
	fmt.Println()
	return nil
}
