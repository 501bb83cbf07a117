package catalog

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/deliverypicker/orderops/pkg/models"
)

// ParseCSV reads a product CSV export. Expected header columns: Name,
// Image, and optionally Price, SKU, Quantity (case-insensitive). Rows
// without a name or image are skipped. IDs are assigned on import.
func ParseCSV(path string) ([]models.ProductRef, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.LazyQuotes = true // Tolerate sloppy storefront exports

	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	if len(records) < 2 {
		return []models.ProductRef{}, nil
	}

	header := records[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	nameIdx := findColumn(header, "Name")
	imageIdx := findColumn(header, "Image")
	priceIdx := findColumn(header, "Price")
	skuIdx := findColumn(header, "SKU")
	quantityIdx := findColumn(header, "Quantity")

	if nameIdx < 0 || imageIdx < 0 {
		return nil, fmt.Errorf("CSV must have Name and Image columns")
	}

	var products []models.ProductRef
	for _, row := range records[1:] {
		name := field(row, nameIdx)
		image := field(row, imageIdx)
		if name == "" || image == "" {
			continue
		}

		p := models.ProductRef{
			Name:  name,
			Image: image,
			Price: field(row, priceIdx),
			SKU:   field(row, skuIdx),
		}
		if q := field(row, quantityIdx); q != "" {
			if n, err := strconv.Atoi(q); err == nil && n > 0 {
				p.Quantity = n
			}
		}
		products = append(products, p)
	}

	return products, nil
}

func field(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func findColumn(header []string, name string) int {
	for i, col := range header {
		if strings.EqualFold(strings.TrimSpace(col), name) {
			return i
		}
	}
	return -1
}
