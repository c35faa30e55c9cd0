package purchase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-kasir/internal/common"
	"github.com/noah-isme/backend-kasir/internal/obs"
	"github.com/noah-isme/backend-kasir/internal/pricing"
	"github.com/noah-isme/backend-kasir/internal/product"
)

type store interface {
	Create(ctx context.Context, b Bill, repriced []product.Product) (Bill, error)
	GetByID(ctx context.Context, id uuid.UUID) (Bill, error)
}

type catalog interface {
	GetByCode(ctx context.Context, code string) (product.Product, error)
}

// Service ingests structured purchase invoices.
type Service struct {
	store   store
	catalog catalog
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Store   store
	Catalog catalog
}

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Store == nil {
		return nil, errors.New("purchase: store is required")
	}
	if cfg.Catalog == nil {
		return nil, errors.New("purchase: catalog is required")
	}
	return &Service{store: cfg.Store, catalog: cfg.Catalog}, nil
}

// ItemInput is one structured invoice line. Code is the supplier's printed
// sku or barcode used to match the catalog.
type ItemInput struct {
	Code     string          `json:"code" validate:"required,max=64"`
	Name     string          `json:"name" validate:"required,max=200"`
	Qty      int             `json:"qty" validate:"required,gte=1"`
	UnitCost decimal.Decimal `json:"unitCost"`
	TaxPct   decimal.Decimal `json:"taxPercentage"`
}

// CreateInput is the post-OCR invoice payload.
type CreateInput struct {
	Supplier    string      `json:"supplier" validate:"required,max=200"`
	InvoiceNo   string      `json:"invoiceNo" validate:"required,max=64"`
	InvoiceDate time.Time   `json:"invoiceDate"`
	Items       []ItemInput `json:"items" validate:"required,min=1,dive"`
}

// Create records the invoice, moves stock for matched lines, and refreshes
// each matched product's cost-side pricing from the actual purchase cost.
func (s *Service) Create(ctx context.Context, in CreateInput) (Bill, error) {
	bill := Bill{
		Supplier:    in.Supplier,
		InvoiceNo:   in.InvoiceNo,
		InvoiceDate: in.InvoiceDate,
	}
	if bill.InvoiceDate.IsZero() {
		bill.InvoiceDate = time.Now()
	}

	var repriced []product.Product
	subtotal := decimal.Zero
	taxTotal := decimal.Zero
	for i, line := range in.Items {
		split, err := pricing.Decompose(line.UnitCost, line.TaxPct)
		if err != nil {
			return Bill{}, common.BadRequest(fmt.Sprintf("items[%d]", i), "invalid line", err)
		}
		qty := decimal.NewFromInt(int64(line.Qty))
		item := Item{
			Code:      line.Code,
			Name:      line.Name,
			Qty:       line.Qty,
			UnitCost:  line.UnitCost,
			TaxPct:    line.TaxPct,
			TaxAmount: split.Tax.Mul(qty).Round(2),
			LineTotal: line.UnitCost.Mul(qty).Round(2),
		}

		p, err := s.catalog.GetByCode(ctx, line.Code)
		switch {
		case err == nil:
			item.ProductID = &p.ID
			item.Matched = true
			if updated, ok := repriceFromCost(p, line.UnitCost); ok {
				repriced = append(repriced, updated)
			}
		case errors.Is(err, product.ErrNotFound):
			// Left unmatched for manual review; no stock movement.
		default:
			return Bill{}, err
		}

		bill.Items = append(bill.Items, item)
		subtotal = subtotal.Add(item.LineTotal)
		taxTotal = taxTotal.Add(item.TaxAmount)
	}
	bill.Subtotal = subtotal.Round(2)
	bill.TaxAmount = taxTotal.Round(2)
	bill.GrandTotal = bill.Subtotal

	created, err := s.store.Create(ctx, bill, repriced)
	if err != nil {
		return Bill{}, err
	}
	obs.CountPurchaseBill()
	return created, nil
}

// repriceFromCost folds the actual unit cost back into the product's
// purchase margin and rederives the cost side. A product without an MRP,
// or a cost at or above the MRP, is left untouched.
func repriceFromCost(p product.Product, unitCost decimal.Decimal) (product.Product, bool) {
	if p.MRP == nil || p.MRP.IsZero() || unitCost.GreaterThanOrEqual(*p.MRP) {
		return product.Product{}, false
	}
	margin := decimal.NewFromInt(1).
		Sub(unitCost.Div(*p.MRP)).
		Mul(decimal.NewFromInt(100)).
		Round(2)
	rec, err := pricing.Recalculate(p.PricingRecord(), pricing.FieldPurchaseMargin, pricing.OpSet, margin)
	if err != nil {
		return product.Product{}, false
	}
	p.ApplyPricing(rec)
	return p, true
}

// Get fetches one purchase bill with its items.
func (s *Service) Get(ctx context.Context, id string) (Bill, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return Bill{}, common.BadRequest("id", "invalid purchase bill id", err)
	}
	b, err := s.store.GetByID(ctx, uid)
	if errors.Is(err, ErrNotFound) {
		return Bill{}, common.NotFound("purchase bill not found", err)
	}
	return b, err
}
