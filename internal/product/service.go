package product

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-kasir/internal/common"
	"github.com/noah-isme/backend-kasir/internal/obs"
	"github.com/noah-isme/backend-kasir/internal/pricing"
)

type store interface {
	Insert(ctx context.Context, p Product) (Product, error)
	Update(ctx context.Context, p Product) (Product, error)
	GetByID(ctx context.Context, id uuid.UUID) (Product, error)
	GetByCode(ctx context.Context, code string) (Product, error)
	List(ctx context.Context, f ListFilter) ([]Product, error)
	AdjustStock(ctx context.Context, id uuid.UUID, delta int, allowNegative bool) (int, error)
}

// Service orchestrates catalog reads, pricing derivation, and caching.
type Service struct {
	store              store
	cache              *Cache
	allowNegativeStock bool
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Store              store
	Cache              *Cache
	AllowNegativeStock bool
}

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Store == nil {
		return nil, errors.New("product: store is required")
	}
	return &Service{
		store:              cfg.Store,
		cache:              cfg.Cache,
		allowNegativeStock: cfg.AllowNegativeStock,
	}, nil
}

// CreateInput is the quick-add payload: identity plus the pricing inputs.
// Derived price fields are never accepted from the client.
type CreateInput struct {
	SKU               string           `json:"sku" validate:"required,max=64"`
	Barcode           *string          `json:"barcode,omitempty" validate:"omitempty,max=64"`
	Name              string           `json:"name" validate:"required,max=200"`
	Category          string           `json:"category" validate:"required,max=100"`
	Stock             int              `json:"stock" validate:"gte=0"`
	MRP               *decimal.Decimal `json:"mrp,omitempty"`
	TaxPct            decimal.Decimal  `json:"taxPercentage"`
	MarginPct         decimal.Decimal  `json:"marginPercentage"`
	PurchaseMarginPct decimal.Decimal  `json:"purchaseMarginPercentage"`
}

// UpdateInput carries the editable product attributes. Nil fields are left
// untouched; any pricing input triggers full re-derivation.
type UpdateInput struct {
	Barcode           *string          `json:"barcode,omitempty"`
	Name              *string          `json:"name,omitempty" validate:"omitempty,max=200"`
	Category          *string          `json:"category,omitempty" validate:"omitempty,max=100"`
	MRP               *decimal.Decimal `json:"mrp,omitempty"`
	TaxPct            *decimal.Decimal `json:"taxPercentage,omitempty"`
	MarginPct         *decimal.Decimal `json:"marginPercentage,omitempty"`
	PurchaseMarginPct *decimal.Decimal `json:"purchaseMarginPercentage,omitempty"`
}

// ListParams captures filters for the cursor-paginated listing.
type ListParams struct {
	Category string
	Search   string
	Cursor   common.Cursor
}

// ListResult pairs the page with its pagination metadata.
type ListResult struct {
	Items []Product
	Meta  common.PageMeta
}

// List returns one keyset page of products. The unfiltered first page is
// served from Redis when available.
func (s *Service) List(ctx context.Context, params ListParams) (ListResult, error) {
	cacheable := params.Category == "" && params.Search == "" &&
		params.Cursor.LastKey == "" && params.Cursor.Limit == common.DefaultPageSize
	if cacheable {
		var cached ListResult
		if ok, err := s.cache.GetJSON(ctx, firstPageKey, &cached); err == nil && ok {
			return cached, nil
		}
	}

	limit := params.Cursor.Limit
	if limit <= 0 {
		limit = common.DefaultPageSize
	}
	rows, err := s.store.List(ctx, ListFilter{
		Category: params.Category,
		Search:   params.Search,
		LastKey:  params.Cursor.LastKey,
		Limit:    limit,
	})
	if err != nil {
		return ListResult{}, fmt.Errorf("list products: %w", err)
	}

	result := ListResult{Items: rows, Meta: common.PageMeta{Limit: limit}}
	if len(rows) > limit {
		result.Items = rows[:limit]
		result.Meta.HasMore = true
	}
	if n := len(result.Items); n > 0 {
		result.Meta.LastKey = result.Items[n-1].SKU
	}
	if cacheable {
		_ = s.cache.SetJSON(ctx, firstPageKey, result)
	}
	return result, nil
}

// Get fetches one product by identifier.
func (s *Service) Get(ctx context.Context, id string) (Product, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return Product{}, common.BadRequest("id", "invalid product id", err)
	}
	p, err := s.store.GetByID(ctx, uid)
	if errors.Is(err, ErrNotFound) {
		return Product{}, common.NotFound("product not found", err)
	}
	return p, err
}

// Lookup resolves a scanned barcode or SKU. This backs the scanner flow, so
// a miss is a clean 404 the client can turn into a quick-add prompt.
func (s *Service) Lookup(ctx context.Context, code string) (Product, error) {
	if code == "" {
		return Product{}, common.BadRequest("code", "code is required", nil)
	}
	p, err := s.store.GetByCode(ctx, code)
	if errors.Is(err, ErrNotFound) {
		return Product{}, common.NotFound("no product with that barcode or sku", err)
	}
	return p, err
}

// QuickAdd creates a product, deriving the full pricing block from MRP, the
// margins, and the tax rate. A product without an MRP gets a zeroed block.
func (s *Service) QuickAdd(ctx context.Context, in CreateInput) (Product, error) {
	p := Product{
		SKU:               in.SKU,
		Barcode:           in.Barcode,
		Name:              in.Name,
		Category:          in.Category,
		Stock:             in.Stock,
		TaxPct:            in.TaxPct,
		MarginPct:         pricing.ClampPercent(in.MarginPct),
		PurchaseMarginPct: pricing.ClampPercent(in.PurchaseMarginPct),
	}
	if in.TaxPct.IsNegative() {
		return Product{}, common.BadRequest("taxPercentage", "tax percentage must not be negative", nil)
	}
	if in.MRP != nil {
		rec, err := pricing.Recalculate(p.PricingRecord(), pricing.FieldMRP, pricing.OpSet, *in.MRP)
		if err != nil {
			return Product{}, common.BadRequest("mrp", "invalid mrp", err)
		}
		p.ApplyPricing(rec)
	}
	created, err := s.store.Insert(ctx, p)
	if errors.Is(err, ErrDuplicateSKU) {
		return Product{}, common.Conflict("a product with that sku already exists", err)
	}
	if err != nil {
		return Product{}, err
	}
	s.cache.Invalidate(ctx)
	return created, nil
}

// Edit updates attributes and re-derives pricing when any pricing input moved.
func (s *Service) Edit(ctx context.Context, id string, in UpdateInput) (Product, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return Product{}, err
	}
	if in.Barcode != nil {
		current.Barcode = in.Barcode
	}
	if in.Name != nil {
		current.Name = *in.Name
	}
	if in.Category != nil {
		current.Category = *in.Category
	}

	repriced := false
	if in.TaxPct != nil {
		if in.TaxPct.IsNegative() {
			return Product{}, common.BadRequest("taxPercentage", "tax percentage must not be negative", nil)
		}
		current.TaxPct = *in.TaxPct
		repriced = true
	}
	if in.MarginPct != nil {
		current.MarginPct = pricing.ClampPercent(*in.MarginPct)
		repriced = true
	}
	if in.PurchaseMarginPct != nil {
		current.PurchaseMarginPct = pricing.ClampPercent(*in.PurchaseMarginPct)
		repriced = true
	}
	if in.MRP != nil {
		current.MRP = in.MRP
		repriced = true
	}
	if repriced && current.MRP != nil {
		rec, err := pricing.Recalculate(current.PricingRecord(), pricing.FieldMRP, pricing.OpSet, *current.MRP)
		if err != nil {
			return Product{}, common.BadRequest("mrp", "invalid pricing inputs", err)
		}
		current.ApplyPricing(rec)
	}

	updated, err := s.store.Update(ctx, current)
	if errors.Is(err, ErrNotFound) {
		return Product{}, common.NotFound("product not found", err)
	}
	if err != nil {
		return Product{}, err
	}
	s.cache.Invalidate(ctx)
	return updated, nil
}

// AdjustStock moves stock by delta, holding the configured negative-stock policy.
func (s *Service) AdjustStock(ctx context.Context, id string, delta int) (int, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return 0, common.BadRequest("id", "invalid product id", err)
	}
	stock, err := s.store.AdjustStock(ctx, uid, delta, s.allowNegativeStock)
	if errors.Is(err, ErrNotFound) {
		return 0, common.NotFound("product not found", err)
	}
	if errors.Is(err, ErrInsufficientStock) {
		return 0, common.Conflict("insufficient stock", err)
	}
	if err != nil {
		return 0, err
	}
	direction := "in"
	if delta < 0 {
		direction = "out"
	}
	obs.CountStockMove(direction)
	s.cache.Invalidate(ctx)
	return stock, nil
}
