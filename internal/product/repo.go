package product

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates no product row matched the lookup.
var ErrNotFound = errors.New("product: not found")

// ErrDuplicateSKU indicates a unique constraint violation on the SKU column.
var ErrDuplicateSKU = errors.New("product: sku already exists")

// ErrInsufficientStock is returned when an adjustment would drive stock
// negative and the store does not permit negative stock.
var ErrInsufficientStock = errors.New("product: insufficient stock")

const productColumns = `id, sku, barcode, name, category, stock,
	mrp, tax_pct, margin_pct, purchase_margin_pct,
	cost_price, cost_price_base, cost_gst,
	selling_price, selling_price_base, selling_gst,
	created_at, updated_at`

// Repo persists products in PostgreSQL.
type Repo struct {
	Pool *pgxpool.Pool
}

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(
		&p.ID, &p.SKU, &p.Barcode, &p.Name, &p.Category, &p.Stock,
		&p.MRP, &p.TaxPct, &p.MarginPct, &p.PurchaseMarginPct,
		&p.CostPrice, &p.CostPriceBase, &p.CostGST,
		&p.SellingPrice, &p.SellingPriceBase, &p.SellingGST,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	return p, err
}

// Insert stores a new product and returns it with generated fields populated.
func (r Repo) Insert(ctx context.Context, p Product) (Product, error) {
	row := r.Pool.QueryRow(ctx, `
		INSERT INTO products (sku, barcode, name, category, stock,
			mrp, tax_pct, margin_pct, purchase_margin_pct,
			cost_price, cost_price_base, cost_gst,
			selling_price, selling_price_base, selling_gst)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		RETURNING `+productColumns,
		p.SKU, p.Barcode, p.Name, p.Category, p.Stock,
		p.MRP, p.TaxPct, p.MarginPct, p.PurchaseMarginPct,
		p.CostPrice, p.CostPriceBase, p.CostGST,
		p.SellingPrice, p.SellingPriceBase, p.SellingGST,
	)
	created, err := scanProduct(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Product{}, ErrDuplicateSKU
		}
		return Product{}, fmt.Errorf("insert product: %w", err)
	}
	return created, nil
}

// Update persists mutable attributes and the full pricing block. The pricing
// columns are always written together so a record is never half updated.
func (r Repo) Update(ctx context.Context, p Product) (Product, error) {
	row := r.Pool.QueryRow(ctx, `
		UPDATE products SET
			barcode = $2, name = $3, category = $4,
			mrp = $5, tax_pct = $6, margin_pct = $7, purchase_margin_pct = $8,
			cost_price = $9, cost_price_base = $10, cost_gst = $11,
			selling_price = $12, selling_price_base = $13, selling_gst = $14,
			updated_at = now()
		WHERE id = $1
		RETURNING `+productColumns,
		p.ID, p.Barcode, p.Name, p.Category,
		p.MRP, p.TaxPct, p.MarginPct, p.PurchaseMarginPct,
		p.CostPrice, p.CostPriceBase, p.CostGST,
		p.SellingPrice, p.SellingPriceBase, p.SellingGST,
	)
	updated, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Product{}, err
		}
		return Product{}, fmt.Errorf("update product: %w", err)
	}
	return updated, nil
}

// GetByID fetches a single product.
func (r Repo) GetByID(ctx context.Context, id uuid.UUID) (Product, error) {
	row := r.Pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	return scanProduct(row)
}

// GetByCode resolves a scanned barcode or a typed SKU to a product.
func (r Repo) GetByCode(ctx context.Context, code string) (Product, error) {
	row := r.Pool.QueryRow(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE barcode = $1 OR sku = $1
		LIMIT 1`, code)
	return scanProduct(row)
}

// ListFilter narrows keyset listing.
type ListFilter struct {
	Category string
	Search   string
	LastKey  string
	Limit    int
}

// List returns up to Limit+1 products ordered by SKU after LastKey; the
// extra row lets the caller compute hasMore without a count query.
func (r Repo) List(ctx context.Context, f ListFilter) ([]Product, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.Pool.Query(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE sku > $1
		  AND ($2 = '' OR category = $2)
		  AND ($3 = '' OR name ILIKE '%' || $3 || '%' OR sku ILIKE $3 || '%')
		ORDER BY sku
		LIMIT $4`,
		f.LastKey, f.Category, f.Search, limit+1)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()
	return collectProducts(rows)
}

// ListByCategory returns every product in a category, used by bulk updates.
func (r Repo) ListByCategory(ctx context.Context, category string) ([]Product, error) {
	rows, err := r.Pool.Query(ctx, `
		SELECT `+productColumns+` FROM products WHERE category = $1 ORDER BY sku`, category)
	if err != nil {
		return nil, fmt.Errorf("list products by category: %w", err)
	}
	defer rows.Close()
	return collectProducts(rows)
}

// ListByIDs returns the products matching the given identifiers.
func (r Repo) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]Product, error) {
	rows, err := r.Pool.Query(ctx, `
		SELECT `+productColumns+` FROM products WHERE id = ANY($1) ORDER BY sku`, ids)
	if err != nil {
		return nil, fmt.Errorf("list products by ids: %w", err)
	}
	defer rows.Close()
	return collectProducts(rows)
}

// AdjustStock changes stock by delta. When allowNegative is false the update
// is guarded so concurrent sales cannot oversell.
func (r Repo) AdjustStock(ctx context.Context, id uuid.UUID, delta int, allowNegative bool) (int, error) {
	var stock int
	var err error
	if allowNegative {
		err = r.Pool.QueryRow(ctx, `
			UPDATE products SET stock = stock + $2, updated_at = now()
			WHERE id = $1 RETURNING stock`, id, delta).Scan(&stock)
	} else {
		err = r.Pool.QueryRow(ctx, `
			UPDATE products SET stock = stock + $2, updated_at = now()
			WHERE id = $1 AND stock + $2 >= 0 RETURNING stock`, id, delta).Scan(&stock)
	}
	if errors.Is(err, pgx.ErrNoRows) {
		if _, getErr := r.GetByID(ctx, id); errors.Is(getErr, ErrNotFound) {
			return 0, ErrNotFound
		}
		return 0, ErrInsufficientStock
	}
	if err != nil {
		return 0, fmt.Errorf("adjust stock: %w", err)
	}
	return stock, nil
}

// UpdatePricingBatch writes recalculated pricing blocks for many products in
// one transaction. Either all rows move or none do.
func (r Repo) UpdatePricingBatch(ctx context.Context, updates []Product) error {
	tx, err := r.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	for _, p := range updates {
		tag, err := tx.Exec(ctx, `
			UPDATE products SET
				mrp = $2, tax_pct = $3, margin_pct = $4, purchase_margin_pct = $5,
				cost_price = $6, cost_price_base = $7, cost_gst = $8,
				selling_price = $9, selling_price_base = $10, selling_gst = $11,
				updated_at = now()
			WHERE id = $1`,
			p.ID, p.MRP, p.TaxPct, p.MarginPct, p.PurchaseMarginPct,
			p.CostPrice, p.CostPriceBase, p.CostGST,
			p.SellingPrice, p.SellingPriceBase, p.SellingGST)
		if err != nil {
			return fmt.Errorf("update pricing for %s: %w", p.ID, err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("update pricing for %s: %w", p.ID, ErrNotFound)
		}
	}
	return tx.Commit(ctx)
}

func collectProducts(rows pgx.Rows) ([]Product, error) {
	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
