package product

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-kasir/internal/pricing"
)

// Product is the catalog record with its full pricing block. All price
// fields are tax-inclusive unless suffixed Base; the GST fields carry the
// tax contained in the corresponding inclusive price.
type Product struct {
	ID       uuid.UUID `json:"id"`
	SKU      string    `json:"sku"`
	Barcode  *string   `json:"barcode,omitempty"`
	Name     string    `json:"name"`
	Category string    `json:"category"`
	Stock    int       `json:"stock"`

	MRP               *decimal.Decimal `json:"mrp,omitempty"`
	TaxPct            decimal.Decimal  `json:"taxPercentage"`
	MarginPct         decimal.Decimal  `json:"marginPercentage"`
	PurchaseMarginPct decimal.Decimal  `json:"purchaseMarginPercentage"`

	CostPrice     decimal.Decimal `json:"costPrice"`
	CostPriceBase decimal.Decimal `json:"costPriceBase"`
	CostGST       decimal.Decimal `json:"costGST"`

	SellingPrice     decimal.Decimal `json:"sellingPrice"`
	SellingPriceBase decimal.Decimal `json:"sellingPriceBase"`
	SellingGST       decimal.Decimal `json:"sellingGST"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PricingRecord projects the product onto the pricing engine's record type.
func (p Product) PricingRecord() pricing.Record {
	return pricing.Record{
		MRP:               p.MRP,
		TaxPct:            p.TaxPct,
		MarginPct:         p.MarginPct,
		PurchaseMarginPct: p.PurchaseMarginPct,
		CostPrice:         p.CostPrice,
		CostPriceBase:     p.CostPriceBase,
		CostGST:           p.CostGST,
		SellingPrice:      p.SellingPrice,
		SellingPriceBase:  p.SellingPriceBase,
		SellingGST:        p.SellingGST,
	}
}

// ApplyPricing copies a recalculated record back onto the product.
func (p *Product) ApplyPricing(rec pricing.Record) {
	p.MRP = rec.MRP
	p.TaxPct = rec.TaxPct
	p.MarginPct = rec.MarginPct
	p.PurchaseMarginPct = rec.PurchaseMarginPct
	p.CostPrice = rec.CostPrice
	p.CostPriceBase = rec.CostPriceBase
	p.CostGST = rec.CostGST
	p.SellingPrice = rec.SellingPrice
	p.SellingPriceBase = rec.SellingPriceBase
	p.SellingGST = rec.SellingGST
}
