package matcher

import (
	"fmt"
	"strings"

	"github.com/deliverypicker/orderops/pkg/models"
)

// ResolvedLine pairs one extracted receipt line with the catalog product it
// resolved to. Quantity is copied verbatim from the line.
type ResolvedLine struct {
	Product  models.ProductRef `json:"product"`
	Quantity int               `json:"quantity"`
}

// Result partitions extracted lines into resolved matches and unresolved
// leftovers. Unresolved lines keep their original name and SKU for
// user-facing reporting.
type Result struct {
	Resolved   []ResolvedLine         `json:"resolved"`
	Unresolved []models.ExtractedLine `json:"unresolved"`
}

// Match resolves AI-extracted receipt lines against the catalog. For each
// line, in strict priority order, first hit wins:
//
//  1. SKU exact match (case-insensitive), skipping catalog entries without
//     a SKU; first in catalog order on duplicates.
//  2. Exact name match (case-insensitive, trimmed).
//  3. Substring match in either direction: the catalog name contains the
//     line name, or the line name contains the catalog name. Bidirectional
//     on purpose - it covers both abbreviated OCR output and catalog names
//     that are fragments of the fuller printed name.
//
// "No match" is a normal outcome reported via Unresolved, never an error.
// The catalog is read, never mutated, and products are only copied from it.
func Match(lines []models.ExtractedLine, catalog []models.ProductRef) (*Result, error) {
	for i, line := range lines {
		if line.Quantity < 0 {
			return nil, fmt.Errorf("line %d (%q): quantity must not be negative", i, line.Name)
		}
	}

	result := &Result{
		Resolved:   []ResolvedLine{},
		Unresolved: []models.ExtractedLine{},
	}

	for _, line := range lines {
		product, ok := resolve(line, catalog)
		if !ok {
			result.Unresolved = append(result.Unresolved, line)
			continue
		}
		result.Resolved = append(result.Resolved, ResolvedLine{
			Product:  product,
			Quantity: line.Quantity,
		})
	}

	return result, nil
}

func resolve(line models.ExtractedLine, catalog []models.ProductRef) (models.ProductRef, bool) {
	if sku := strings.TrimSpace(line.SKU); sku != "" {
		for _, p := range catalog {
			if p.SKU != "" && strings.EqualFold(p.SKU, sku) {
				return p, true
			}
		}
	}

	name := strings.ToLower(strings.TrimSpace(line.Name))
	if name == "" {
		return models.ProductRef{}, false
	}

	for _, p := range catalog {
		if strings.ToLower(strings.TrimSpace(p.Name)) == name {
			return p, true
		}
	}

	for _, p := range catalog {
		catalogName := strings.ToLower(strings.TrimSpace(p.Name))
		if catalogName == "" {
			continue
		}
		if strings.Contains(catalogName, name) || strings.Contains(name, catalogName) {
			return p, true
		}
	}

	return models.ProductRef{}, false
}
