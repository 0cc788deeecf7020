package catalog

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DirectBackend is the last-resort backend: an unfiltered bulk read of the
// product table, with filtering, sorting and pagination applied in-process.
// It is slow but depends on nothing except the origin database.
type DirectBackend struct {
	db *pgxpool.Pool
}

// NewDirectBackend creates the direct database adapter.
func NewDirectBackend(db *pgxpool.Pool) *DirectBackend {
	return &DirectBackend{db: db}
}

func (b *DirectBackend) Name() string { return "direct_db" }

// Search bulk-fetches every active product, then filters and sorts locally.
// Facets are derived from the filtered set before pagination.
func (b *DirectBackend) Search(ctx context.Context, q Query) (*Result, error) {
	rows, err := b.db.Query(ctx, `
		SELECT id, title, handle, subtitle, description, thumbnail, images,
		       price_ht, currency, in_stock, total_inventory, brand,
		       category_handles, tags, created_at
		FROM products
		WHERE status = 'published'
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var all []Product
	for rows.Next() {
		var (
			p        Product
			subtitle, description, thumbnail, brand *string
			amount   float64
			currency string
		)
		if err := rows.Scan(
			&p.ID, &p.Title, &p.Handle, &subtitle, &description, &thumbnail,
			&p.Images, &amount, &currency, &p.InStock, &p.TotalInventory,
			&brand, &p.Categories, &p.Tags, &p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		if subtitle != nil {
			p.Subtitle = *subtitle
		}
		if description != nil {
			p.Description = *description
		}
		if thumbnail != nil {
			p.Thumbnail = *thumbnail
		}
		if brand != nil {
			p.Brand = *brand
		}
		p.Price = NewMoney(amount, currency)
		all = append(all, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	filtered := filterProducts(all, q)
	sortProducts(filtered, q.Sort)
	facets := buildFacets(filtered)
	page := paginate(filtered, q.Limit, q.Offset)

	return &Result{Products: page, Total: len(filtered), Facets: facets}, nil
}
