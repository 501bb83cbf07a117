package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/deliverypicker/orderops/pkg/models"
)

// CatalogRepo implements the CatalogRepository interface for PostgreSQL.
type CatalogRepo struct {
	client *Client
}

// NewCatalogRepo creates a new PostgreSQL catalog repository.
func NewCatalogRepo(client *Client) *CatalogRepo {
	return &CatalogRepo{client: client}
}

// Create inserts a new product.
func (r *CatalogRepo) Create(ctx context.Context, product *models.ProductRef) error {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}

	query := `
		INSERT INTO products (id, sku, name, image, price, quantity, position)
		VALUES ($1, $2, $3, $4, $5, $6,
			(SELECT COALESCE(MAX(position), 0) + 1 FROM products))
	`

	_, err := r.client.pool.Exec(ctx, query,
		product.ID, nullable(product.SKU), product.Name, product.Image,
		nullable(product.Price), nullableInt(product.Quantity),
	)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// GetByID retrieves a product by its UUID.
func (r *CatalogRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.ProductRef, error) {
	return r.getByField(ctx, "id", id.String())
}

// GetBySKU retrieves a product by its SKU.
func (r *CatalogRepo) GetBySKU(ctx context.Context, sku string) (*models.ProductRef, error) {
	return r.getByField(ctx, "sku", sku)
}

func (r *CatalogRepo) getByField(ctx context.Context, field, value string) (*models.ProductRef, error) {
	query := fmt.Sprintf(`
		SELECT id, sku, name, image, price, quantity
		FROM products
		WHERE %s = $1
		ORDER BY position
		LIMIT 1
	`, field)

	row := r.client.pool.QueryRow(ctx, query, value)
	product, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("product not found: %s=%s", field, value)
		}
		return nil, err
	}
	return product, nil
}

// Update replaces the stored fields of a product.
func (r *CatalogRepo) Update(ctx context.Context, product *models.ProductRef) error {
	query := `
		UPDATE products
		SET sku = $2, name = $3, image = $4, price = $5, quantity = $6, updated_at = now()
		WHERE id = $1
	`

	tag, err := r.client.pool.Exec(ctx, query,
		product.ID, nullable(product.SKU), product.Name, product.Image,
		nullable(product.Price), nullableInt(product.Quantity),
	)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("product not found: %s", product.ID)
	}
	return nil
}

// Delete removes a product.
func (r *CatalogRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.client.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("product not found: %s", id)
	}
	return nil
}

// List returns all products in insertion order.
func (r *CatalogRepo) List(ctx context.Context) ([]models.ProductRef, error) {
	query := `
		SELECT id, sku, name, image, price, quantity
		FROM products
		ORDER BY position
	`

	rows, err := r.client.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	var products []models.ProductRef
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

// BulkInsert inserts products in one transaction, preserving slice order.
func (r *CatalogRepo) BulkInsert(ctx context.Context, products []models.ProductRef) (int, error) {
	tx, err := r.client.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO products (id, sku, name, image, price, quantity, position)
		VALUES ($1, $2, $3, $4, $5, $6,
			(SELECT COALESCE(MAX(position), 0) + 1 FROM products))
	`

	count := 0
	for i := range products {
		p := &products[i]
		if p.ID == "" {
			p.ID = uuid.New().String()
		}
		_, err := tx.Exec(ctx, query,
			p.ID, nullable(p.SKU), p.Name, p.Image,
			nullable(p.Price), nullableInt(p.Quantity),
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert product %s: %w", p.Name, err)
		}
		count++
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}
	return count, nil
}

// Count returns the number of products.
func (r *CatalogRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.client.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return count, nil
}

func scanProduct(row pgx.Row) (*models.ProductRef, error) {
	var p models.ProductRef
	var sku, price *string
	var quantity *int

	if err := row.Scan(&p.ID, &sku, &p.Name, &p.Image, &price, &quantity); err != nil {
		return nil, err
	}

	if sku != nil {
		p.SKU = *sku
	}
	if price != nil {
		p.Price = *price
	}
	if quantity != nil {
		p.Quantity = *quantity
	}
	return &p, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nullableInt(n int) *int {
	if n <= 0 {
		return nil
	}
	return &n
}
