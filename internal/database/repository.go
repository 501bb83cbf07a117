package database

import (
	"context"

	"github.com/google/uuid"

	"github.com/deliverypicker/orderops/pkg/models"
)

// CatalogRepository defines data access for the product catalog. List
// returns products in insertion order, which is also the matcher's
// tie-break order.
type CatalogRepository interface {
	Create(ctx context.Context, product *models.ProductRef) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.ProductRef, error)
	GetBySKU(ctx context.Context, sku string) (*models.ProductRef, error)
	Update(ctx context.Context, product *models.ProductRef) error
	Delete(ctx context.Context, id uuid.UUID) error

	List(ctx context.Context) ([]models.ProductRef, error)
	BulkInsert(ctx context.Context, products []models.ProductRef) (int, error)
	Count(ctx context.Context) (int64, error)
}
