package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deliverypicker/orderops/pkg/models"
)

func testCatalog() []models.ProductRef {
	return []models.ProductRef{
		{ID: "1", Name: "Golden Legacy", SKU: "GL-001", Image: "golden.jpg", Price: "$12.00"},
		{ID: "2", Name: "Apple Juice 1L", SKU: "AJ-100", Image: "juice.jpg", Price: "$3.50"},
		{ID: "3", Name: "Sparkling Water", SKU: "", Image: "water.jpg", Price: "$1.20"},
		{ID: "4", Name: "Dark Chocolate Bar", SKU: "DC-777", Image: "choc.jpg", Price: "$4.99"},
	}
}

func TestMatchBySKU(t *testing.T) {
	result, err := Match([]models.ExtractedLine{
		{SKU: "aj-100", Name: "totally wrong name", Quantity: 3},
	}, testCatalog())
	require.NoError(t, err)

	require.Len(t, result.Resolved, 1)
	assert.Equal(t, "2", result.Resolved[0].Product.ID)
	assert.Equal(t, 3, result.Resolved[0].Quantity)
	assert.Empty(t, result.Unresolved)
}

func TestMatchSKUBeatsName(t *testing.T) {
	// The line name exactly matches one product but the SKU points at
	// another. SKU wins.
	result, err := Match([]models.ExtractedLine{
		{SKU: "DC-777", Name: "Golden Legacy", Quantity: 1},
	}, testCatalog())
	require.NoError(t, err)

	require.Len(t, result.Resolved, 1)
	assert.Equal(t, "4", result.Resolved[0].Product.ID)
}

func TestMatchSkipsEmptySKUEntries(t *testing.T) {
	// A line with an empty SKU must not match the catalog entry whose SKU
	// is also empty; it falls through to name matching.
	result, err := Match([]models.ExtractedLine{
		{SKU: "", Name: "Sparkling Water", Quantity: 2},
	}, testCatalog())
	require.NoError(t, err)

	require.Len(t, result.Resolved, 1)
	assert.Equal(t, "3", result.Resolved[0].Product.ID)
}

func TestMatchByExactNameCaseInsensitive(t *testing.T) {
	result, err := Match([]models.ExtractedLine{
		{Name: "  dark chocolate bar  ", Quantity: 1},
	}, testCatalog())
	require.NoError(t, err)

	require.Len(t, result.Resolved, 1)
	assert.Equal(t, "4", result.Resolved[0].Product.ID)
}

func TestMatchBySubstringBothDirections(t *testing.T) {
	// Line name is a fragment of the catalog name.
	result, err := Match([]models.ExtractedLine{
		{Name: "golden", Quantity: 1},
	}, testCatalog())
	require.NoError(t, err)
	require.Len(t, result.Resolved, 1)
	assert.Equal(t, "1", result.Resolved[0].Product.ID)

	// Catalog name is a fragment of the (fuller) printed line name.
	result, err = Match([]models.ExtractedLine{
		{Name: "Golden Legacy Premium Edition 500g", Quantity: 1},
	}, testCatalog())
	require.NoError(t, err)
	require.Len(t, result.Resolved, 1)
	assert.Equal(t, "1", result.Resolved[0].Product.ID)
}

func TestMatchExactNameBeatsSubstring(t *testing.T) {
	catalog := []models.ProductRef{
		{ID: "long", Name: "Apple Juice 1L Family Pack"},
		{ID: "exact", Name: "Apple Juice 1L"},
	}
	result, err := Match([]models.ExtractedLine{
		{Name: "apple juice 1l", Quantity: 1},
	}, catalog)
	require.NoError(t, err)

	require.Len(t, result.Resolved, 1)
	assert.Equal(t, "exact", result.Resolved[0].Product.ID)
}

func TestMatchFirstInCatalogOrderWins(t *testing.T) {
	catalog := []models.ProductRef{
		{ID: "a", Name: "Oat Milk Barista"},
		{ID: "b", Name: "Oat Milk Original"},
	}
	result, err := Match([]models.ExtractedLine{
		{Name: "oat milk", Quantity: 1},
	}, catalog)
	require.NoError(t, err)

	require.Len(t, result.Resolved, 1)
	assert.Equal(t, "a", result.Resolved[0].Product.ID)
}

func TestMatchUnresolvedPreserved(t *testing.T) {
	line := models.ExtractedLine{SKU: "ZZ-999", Name: "Mystery Item", Quantity: 7}
	result, err := Match([]models.ExtractedLine{line}, testCatalog())
	require.NoError(t, err)

	assert.Empty(t, result.Resolved)
	require.Len(t, result.Unresolved, 1)
	assert.Equal(t, line, result.Unresolved[0])
}

func TestMatchEmptyNameAfterSKUMiss(t *testing.T) {
	result, err := Match([]models.ExtractedLine{
		{SKU: "ZZ-999", Name: "   ", Quantity: 1},
	}, testCatalog())
	require.NoError(t, err)

	assert.Empty(t, result.Resolved)
	assert.Len(t, result.Unresolved, 1)
}

func TestMatchNegativeQuantityRejected(t *testing.T) {
	_, err := Match([]models.ExtractedLine{
		{Name: "Golden Legacy", Quantity: -1},
	}, testCatalog())
	assert.Error(t, err)
}

func TestMatchZeroQuantityCopiedVerbatim(t *testing.T) {
	result, err := Match([]models.ExtractedLine{
		{Name: "Golden Legacy", Quantity: 0},
	}, testCatalog())
	require.NoError(t, err)

	require.Len(t, result.Resolved, 1)
	assert.Equal(t, 0, result.Resolved[0].Quantity)
}

func TestMatchEmptyInputs(t *testing.T) {
	result, err := Match(nil, testCatalog())
	require.NoError(t, err)
	assert.NotNil(t, result.Resolved)
	assert.NotNil(t, result.Unresolved)
	assert.Empty(t, result.Resolved)

	result, err = Match([]models.ExtractedLine{{Name: "anything", Quantity: 1}}, nil)
	require.NoError(t, err)
	assert.Empty(t, result.Resolved)
	assert.Len(t, result.Unresolved, 1)
}

func TestMatchDoesNotMutateCatalog(t *testing.T) {
	catalog := testCatalog()
	original := testCatalog()

	_, err := Match([]models.ExtractedLine{
		{Name: "Golden Legacy", Quantity: 5},
		{SKU: "AJ-100", Quantity: 2},
	}, catalog)
	require.NoError(t, err)
	assert.Equal(t, original, catalog)
}

func TestMatchMixedReceipt(t *testing.T) {
	result, err := Match([]models.ExtractedLine{
		{SKU: "GL-001", Name: "Golden Leg.", Quantity: 2},
		{Name: "sparkling", Quantity: 6},
		{Name: "Unknown Widget", Quantity: 1},
	}, testCatalog())
	require.NoError(t, err)

	require.Len(t, result.Resolved, 2)
	assert.Equal(t, "1", result.Resolved[0].Product.ID)
	assert.Equal(t, 2, result.Resolved[0].Quantity)
	assert.Equal(t, "3", result.Resolved[1].Product.ID)
	assert.Equal(t, 6, result.Resolved[1].Quantity)

	require.Len(t, result.Unresolved, 1)
	assert.Equal(t, "Unknown Widget", result.Unresolved[0].Name)
}
