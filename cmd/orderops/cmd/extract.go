package cmd

import (
	"encoding/base64"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/deliverypicker/orderops/internal/config"
	"github.com/deliverypicker/orderops/internal/extract"
)

var extractJSONOut string

var extractCmd = &cobra.Command{
	Use:   "extract <receipt-image>",
	Short: "Extract order lines from a receipt image",
	Long: `Send a receipt photo to the AI gateway and extract the product
lines it lists. The result can be saved as JSON and fed to the match
command.`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().StringVar(&extractJSONOut, "json-out", "", "Write extracted lines to a JSON file")
}

func runExtract(cmd *cobra.Command, args []string) error {
	header := color.New(color.FgCyan, color.Bold)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	apiKey := os.Getenv(cfg.Extract.APIKeyEnv)
	if apiKey == "" {
		return fmt.Errorf("AI gateway key not set: export %s", cfg.Extract.APIKeyEnv)
	}

	dataURI, err := imageToDataURI(args[0])
	if err != nil {
		return err
	}

	header.Println("\n  EXTRACTING RECEIPT LINES")
	fmt.Println("  " + strings.Repeat("─", 40))
	fmt.Println()
	color.Yellow("  Sending %s to %s...\n\n", filepath.Base(args[0]), cfg.Extract.Model)

	extractor := extract.NewExtractor(cfg.Extract.Endpoint, apiKey, cfg.Extract.Model)
	lines, err := extractor.Extract(cmd.Context(), dataURI)
	if err != nil {
		return err
	}

	if len(lines) == 0 {
		color.Yellow("  No product lines found on the receipt.")
		fmt.Println()
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Name", "SKU", "Qty"})
	table.SetBorder(false)
	table.SetHeaderColor(
		tablewriter.Colors{tablewriter.Bold, tablewriter.FgCyanColor},
		tablewriter.Colors{tablewriter.Bold, tablewriter.FgCyanColor},
		tablewriter.Colors{tablewriter.Bold, tablewriter.FgCyanColor},
	)
	for _, line := range lines {
		table.Append([]string{truncate(line.Name, 40), line.SKU, fmt.Sprintf("%d", line.Quantity)})
	}
	table.Render()
	fmt.Println()
	color.Green("  ✓ Extracted %d lines\n", len(lines))
	fmt.Println()

	if extractJSONOut != "" {
		if err := writeJSONFile(extractJSONOut, lines); err != nil {
			return err
		}
		fmt.Printf("  Lines written to %s\n\n", extractJSONOut)
	}
	return nil
}

// imageToDataURI reads a local image file and encodes it as a data URI.
func imageToDataURI(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read receipt image: %w", err)
	}

	contentType := mime.TypeByExtension(filepath.Ext(path))
	if !strings.HasPrefix(contentType, "image/") {
		contentType = "image/jpeg"
	}
	return fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(data)), nil
}
