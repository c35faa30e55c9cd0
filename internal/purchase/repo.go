package purchase

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/noah-isme/backend-kasir/internal/product"
)

// ErrNotFound indicates the requested purchase bill does not exist.
var ErrNotFound = errors.New("purchase: bill not found")

// Repo persists purchase bills against PostgreSQL.
type Repo struct {
	Pool *pgxpool.Pool
}

const billColumns = `id, supplier, invoice_no, invoice_date, subtotal,
	tax_amount, grand_total, created_at`

func scanBill(row pgx.Row) (Bill, error) {
	var b Bill
	err := row.Scan(&b.ID, &b.Supplier, &b.InvoiceNo, &b.InvoiceDate,
		&b.Subtotal, &b.TaxAmount, &b.GrandTotal, &b.CreatedAt)
	return b, err
}

// Create writes the bill, its items, the stock increments, and the cost-side
// pricing refresh in one transaction.
func (r Repo) Create(ctx context.Context, b Bill, repriced []product.Product) (Bill, error) {
	tx, err := r.Pool.Begin(ctx)
	if err != nil {
		return Bill{}, fmt.Errorf("begin purchase tx: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		INSERT INTO purchase_bills (id, supplier, invoice_no, invoice_date,
			subtotal, tax_amount, grand_total)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING `+billColumns,
		uuid.New(), b.Supplier, b.InvoiceNo, b.InvoiceDate,
		b.Subtotal, b.TaxAmount, b.GrandTotal)
	created, err := scanBill(row)
	if err != nil {
		return Bill{}, fmt.Errorf("insert purchase bill: %w", err)
	}

	for _, it := range b.Items {
		it.ID = uuid.New()
		it.BillID = created.ID
		if _, err := tx.Exec(ctx, `
			INSERT INTO purchase_items (id, bill_id, product_id, code, name,
				qty, unit_cost, tax_pct, tax_amount, line_total, matched)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
			it.ID, it.BillID, it.ProductID, it.Code, it.Name, it.Qty,
			it.UnitCost, it.TaxPct, it.TaxAmount, it.LineTotal, it.Matched); err != nil {
			return Bill{}, fmt.Errorf("insert purchase item: %w", err)
		}
		if it.Matched && it.ProductID != nil {
			if _, err := tx.Exec(ctx, `
				UPDATE products SET stock = stock + $2, updated_at = now()
				WHERE id = $1`, *it.ProductID, it.Qty); err != nil {
				return Bill{}, fmt.Errorf("increment stock: %w", err)
			}
		}
		created.Items = append(created.Items, it)
	}

	for _, p := range repriced {
		if _, err := tx.Exec(ctx, `
			UPDATE products SET
				purchase_margin_pct = $2,
				cost_price = $3, cost_price_base = $4, cost_gst = $5,
				updated_at = now()
			WHERE id = $1`,
			p.ID, p.PurchaseMarginPct, p.CostPrice, p.CostPriceBase, p.CostGST); err != nil {
			return Bill{}, fmt.Errorf("refresh cost pricing: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Bill{}, fmt.Errorf("commit purchase tx: %w", err)
	}
	return created, nil
}

// GetByID fetches one purchase bill with its items.
func (r Repo) GetByID(ctx context.Context, id uuid.UUID) (Bill, error) {
	b, err := scanBill(r.Pool.QueryRow(ctx,
		`SELECT `+billColumns+` FROM purchase_bills WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Bill{}, ErrNotFound
	}
	if err != nil {
		return Bill{}, fmt.Errorf("get purchase bill: %w", err)
	}

	rows, err := r.Pool.Query(ctx, `
		SELECT id, bill_id, product_id, code, name, qty, unit_cost, tax_pct,
			tax_amount, line_total, matched
		FROM purchase_items WHERE bill_id = $1 ORDER BY code`, id)
	if err != nil {
		return Bill{}, fmt.Errorf("get purchase items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.BillID, &it.ProductID, &it.Code,
			&it.Name, &it.Qty, &it.UnitCost, &it.TaxPct, &it.TaxAmount,
			&it.LineTotal, &it.Matched); err != nil {
			return Bill{}, fmt.Errorf("scan purchase item: %w", err)
		}
		b.Items = append(b.Items, it)
	}
	return b, rows.Err()
}
