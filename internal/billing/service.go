package billing

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-kasir/internal/common"
	"github.com/noah-isme/backend-kasir/internal/obs"
	"github.com/noah-isme/backend-kasir/internal/pricing"
	"github.com/noah-isme/backend-kasir/internal/product"
)

type store interface {
	Create(ctx context.Context, b Bill, allowNegativeStock bool) (Bill, error)
	GetByID(ctx context.Context, id uuid.UUID) (Bill, error)
	List(ctx context.Context, f ListFilter) ([]Bill, error)
}

type catalog interface {
	GetByID(ctx context.Context, id uuid.UUID) (product.Product, error)
}

// Service turns checkout payloads into persisted bills.
type Service struct {
	store              store
	catalog            catalog
	allowNegativeStock bool
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Store              store
	Catalog            catalog
	AllowNegativeStock bool
}

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Store == nil {
		return nil, errors.New("billing: store is required")
	}
	if cfg.Catalog == nil {
		return nil, errors.New("billing: catalog is required")
	}
	return &Service{
		store:              cfg.Store,
		catalog:            cfg.Catalog,
		allowNegativeStock: cfg.AllowNegativeStock,
	}, nil
}

// ItemInput is one checkout line. Price and tax default to the product's
// MRP and tax rate; either can be overridden per line.
type ItemInput struct {
	ProductID   string           `json:"productId" validate:"required,uuid"`
	Qty         int              `json:"qty" validate:"required,gte=1"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	DiscountPct decimal.Decimal  `json:"discountPercentage"`
	TaxPct      *decimal.Decimal `json:"taxPercentage,omitempty"`
}

// CreateInput is the checkout payload.
type CreateInput struct {
	Kind               string          `json:"kind" validate:"required,oneof=B2C B2B"`
	CustomerName       string          `json:"customerName" validate:"max=200"`
	CustomerPhone      string          `json:"customerPhone" validate:"max=20"`
	GSTIN              *string         `json:"gstin,omitempty" validate:"omitempty,len=15"`
	OverallDiscountPct decimal.Decimal `json:"overallDiscountPercentage"`
	DiscountMode       string          `json:"discountMode" validate:"omitempty,oneof=CASH TRADE"`
	OverallTaxPct      decimal.Decimal `json:"overallTaxPercentage"`
	Items              []ItemInput     `json:"items" validate:"required,min=1,dive"`
}

// Create prices every line, applies the overall discount, decrements stock,
// and persists the bill atomically.
func (s *Service) Create(ctx context.Context, in CreateInput) (Bill, error) {
	if in.Kind == KindB2B && (in.GSTIN == nil || *in.GSTIN == "") {
		return Bill{}, common.BadRequest("gstin", "gstin is required for B2B bills", nil)
	}
	mode := pricing.DiscountMode(in.DiscountMode)
	if mode == "" {
		mode = pricing.DiscountCash
	}

	bill := Bill{
		Kind:               in.Kind,
		CustomerName:       in.CustomerName,
		CustomerPhone:      in.CustomerPhone,
		GSTIN:              in.GSTIN,
		OverallDiscountPct: pricing.ClampPercent(in.OverallDiscountPct),
		DiscountMode:       string(mode),
	}

	lineInputs := make([]pricing.LineInput, 0, len(in.Items))
	taxTotal := decimal.Zero
	for i, item := range in.Items {
		pid, err := uuid.Parse(item.ProductID)
		if err != nil {
			return Bill{}, common.BadRequest(fmt.Sprintf("items[%d].productId", i), "invalid product id", err)
		}
		p, err := s.catalog.GetByID(ctx, pid)
		if errors.Is(err, product.ErrNotFound) {
			return Bill{}, common.NotFound(fmt.Sprintf("product in items[%d] not found", i), err)
		}
		if err != nil {
			return Bill{}, err
		}

		price := item.Price
		if price == nil {
			price = p.MRP
		}
		if price == nil {
			return Bill{}, common.BadRequest(fmt.Sprintf("items[%d].price", i),
				"product has no price; a line price is required", nil)
		}
		taxPct := p.TaxPct
		if item.TaxPct != nil {
			taxPct = *item.TaxPct
		}

		line, err := pricing.LineTotal(*price, item.Qty, item.DiscountPct, taxPct)
		if err != nil {
			return Bill{}, common.BadRequest(fmt.Sprintf("items[%d]", i), "invalid line", err)
		}
		bill.Items = append(bill.Items, BillItem{
			ProductID:   pid,
			SKU:         p.SKU,
			Name:        p.Name,
			Price:       *price,
			Qty:         item.Qty,
			DiscountPct: pricing.ClampPercent(item.DiscountPct),
			TaxPct:      taxPct,
			UnitPrice:   line.UnitPrice,
			UnitTax:     line.UnitTax,
			LineTotal:   line.Subtotal,
		})
		lineInputs = append(lineInputs, pricing.LineInput{
			Price:       *price,
			Qty:         item.Qty,
			DiscountPct: item.DiscountPct,
			TaxPct:      taxPct,
		})
		taxTotal = taxTotal.Add(line.UnitTax.Mul(decimal.NewFromInt(int64(item.Qty))))
	}

	totals, err := pricing.BillTotals(lineInputs, bill.OverallDiscountPct, mode, in.OverallTaxPct)
	if err != nil {
		return Bill{}, common.BadRequest("overallDiscountPercentage", "invalid overall discount", err)
	}
	bill.Subtotal = totals.Subtotal
	bill.DiscountAmount = totals.DiscountAmount
	bill.GrandTotal = totals.GrandTotal
	bill.TaxAmount = taxTotal.Round(2)

	created, err := s.store.Create(ctx, bill, s.allowNegativeStock)
	if errors.Is(err, ErrInsufficientStock) {
		return Bill{}, common.Conflict("insufficient stock for one or more items", err)
	}
	if err != nil {
		return Bill{}, err
	}
	obs.CountBill(created.Kind)
	return created, nil
}

// Get fetches one bill with its items.
func (s *Service) Get(ctx context.Context, id string) (Bill, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return Bill{}, common.BadRequest("id", "invalid bill id", err)
	}
	b, err := s.store.GetByID(ctx, uid)
	if errors.Is(err, ErrNotFound) {
		return Bill{}, common.NotFound("bill not found", err)
	}
	return b, err
}

// ListParams captures filters for the cursor-paginated bill listing.
type ListParams struct {
	Kind   string
	Cursor common.Cursor
}

// ListResult pairs the page with its pagination metadata.
type ListResult struct {
	Items []Bill
	Meta  common.PageMeta
}

// List returns one keyset page of bills, newest first.
func (s *Service) List(ctx context.Context, params ListParams) (ListResult, error) {
	limit := params.Cursor.Limit
	if limit <= 0 {
		limit = common.DefaultPageSize
	}
	var lastNo int64
	if params.Cursor.LastKey != "" {
		n, err := strconv.ParseInt(params.Cursor.LastKey, 10, 64)
		if err != nil {
			return ListResult{}, common.BadRequest("lastKey", "invalid cursor", err)
		}
		lastNo = n
	}

	rows, err := s.store.List(ctx, ListFilter{Kind: params.Kind, LastNo: lastNo, Limit: limit})
	if err != nil {
		return ListResult{}, fmt.Errorf("list bills: %w", err)
	}
	result := ListResult{Items: rows, Meta: common.PageMeta{Limit: limit}}
	if len(rows) > limit {
		result.Items = rows[:limit]
		result.Meta.HasMore = true
	}
	if n := len(result.Items); n > 0 {
		result.Meta.LastKey = strconv.FormatInt(result.Items[n-1].Number, 10)
	}
	return result, nil
}
