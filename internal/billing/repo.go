package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates the requested bill does not exist.
var ErrNotFound = errors.New("billing: bill not found")

// ErrInsufficientStock indicates a line would drive a product's stock
// negative while the store policy forbids it.
var ErrInsufficientStock = errors.New("billing: insufficient stock")

// Repo persists bills against PostgreSQL.
type Repo struct {
	Pool *pgxpool.Pool
}

const billColumns = `id, bill_no, kind, customer_name, customer_phone, gstin,
	overall_discount_pct, discount_mode, subtotal, discount_amount,
	grand_total, tax_amount, created_at`

func scanBill(row pgx.Row) (Bill, error) {
	var b Bill
	err := row.Scan(&b.ID, &b.Number, &b.Kind, &b.CustomerName, &b.CustomerPhone,
		&b.GSTIN, &b.OverallDiscountPct, &b.DiscountMode, &b.Subtotal,
		&b.DiscountAmount, &b.GrandTotal, &b.TaxAmount, &b.CreatedAt)
	return b, err
}

// Create writes the bill, its items, and the stock decrements in one
// transaction. Any guard failure rolls back the whole sale.
func (r *Repo) Create(ctx context.Context, b Bill, allowNegativeStock bool) (Bill, error) {
	tx, err := r.Pool.Begin(ctx)
	if err != nil {
		return Bill{}, fmt.Errorf("begin bill tx: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		INSERT INTO bills (id, kind, customer_name, customer_phone, gstin,
			overall_discount_pct, discount_mode, subtotal, discount_amount,
			grand_total, tax_amount)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING `+billColumns,
		uuid.New(), b.Kind, b.CustomerName, b.CustomerPhone, b.GSTIN,
		b.OverallDiscountPct, b.DiscountMode, b.Subtotal, b.DiscountAmount,
		b.GrandTotal, b.TaxAmount)
	created, err := scanBill(row)
	if err != nil {
		return Bill{}, fmt.Errorf("insert bill: %w", err)
	}

	for _, it := range b.Items {
		it.ID = uuid.New()
		it.BillID = created.ID
		if _, err := tx.Exec(ctx, `
			INSERT INTO bill_items (id, bill_id, product_id, sku, name, price,
				qty, discount_pct, tax_pct, unit_price, unit_tax, line_total)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
			it.ID, it.BillID, it.ProductID, it.SKU, it.Name, it.Price,
			it.Qty, it.DiscountPct, it.TaxPct, it.UnitPrice, it.UnitTax,
			it.LineTotal); err != nil {
			return Bill{}, fmt.Errorf("insert bill item: %w", err)
		}

		tag, err := tx.Exec(ctx, `
			UPDATE products SET stock = stock - $2, updated_at = now()
			WHERE id = $1 AND (stock - $2 >= 0 OR $3)`,
			it.ProductID, it.Qty, allowNegativeStock)
		if err != nil {
			return Bill{}, fmt.Errorf("decrement stock: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return Bill{}, fmt.Errorf("product %s: %w", it.SKU, ErrInsufficientStock)
		}
		created.Items = append(created.Items, it)
	}

	if err := tx.Commit(ctx); err != nil {
		return Bill{}, fmt.Errorf("commit bill tx: %w", err)
	}
	return created, nil
}

// GetByID fetches one bill with its items.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (Bill, error) {
	b, err := scanBill(r.Pool.QueryRow(ctx,
		`SELECT `+billColumns+` FROM bills WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Bill{}, ErrNotFound
	}
	if err != nil {
		return Bill{}, fmt.Errorf("get bill: %w", err)
	}

	rows, err := r.Pool.Query(ctx, `
		SELECT id, bill_id, product_id, sku, name, price, qty, discount_pct,
			tax_pct, unit_price, unit_tax, line_total
		FROM bill_items WHERE bill_id = $1 ORDER BY sku`, id)
	if err != nil {
		return Bill{}, fmt.Errorf("get bill items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var it BillItem
		if err := rows.Scan(&it.ID, &it.BillID, &it.ProductID, &it.SKU,
			&it.Name, &it.Price, &it.Qty, &it.DiscountPct, &it.TaxPct,
			&it.UnitPrice, &it.UnitTax, &it.LineTotal); err != nil {
			return Bill{}, fmt.Errorf("scan bill item: %w", err)
		}
		b.Items = append(b.Items, it)
	}
	return b, rows.Err()
}

// ListFilter narrows the bill listing. LastNo is the keyset cursor over the
// descending bill number.
type ListFilter struct {
	Kind   string
	LastNo int64
	Limit  int
}

// List returns up to Limit+1 bills, newest first. The caller trims the
// overflow row into the has-more flag.
func (r *Repo) List(ctx context.Context, f ListFilter) ([]Bill, error) {
	q := `SELECT ` + billColumns + ` FROM bills WHERE 1=1`
	args := []any{}
	n := 0
	if f.LastNo > 0 {
		n++
		q += fmt.Sprintf(" AND bill_no < $%d", n)
		args = append(args, f.LastNo)
	}
	if f.Kind != "" {
		n++
		q += fmt.Sprintf(" AND kind = $%d", n)
		args = append(args, f.Kind)
	}
	n++
	q += fmt.Sprintf(" ORDER BY bill_no DESC LIMIT $%d", n)
	args = append(args, f.Limit+1)

	rows, err := r.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list bills: %w", err)
	}
	defer rows.Close()

	var out []Bill
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bill: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
