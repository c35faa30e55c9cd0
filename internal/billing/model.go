package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Bill kinds. B2B bills carry the customer's GSTIN and are the ones a
// buyer can claim input credit against.
const (
	KindB2C = "B2C"
	KindB2B = "B2B"
)

// Bill is a finalized sale. Items snapshot the product identity and the
// unit arithmetic at sale time so later catalog edits never rewrite history.
type Bill struct {
	ID                 uuid.UUID       `json:"id"`
	Number             int64           `json:"billNo"`
	Kind               string          `json:"kind"`
	CustomerName       string          `json:"customerName,omitempty"`
	CustomerPhone      string          `json:"customerPhone,omitempty"`
	GSTIN              *string         `json:"gstin,omitempty"`
	OverallDiscountPct decimal.Decimal `json:"overallDiscountPercentage"`
	DiscountMode       string          `json:"discountMode,omitempty"`
	Subtotal           decimal.Decimal `json:"subtotal"`
	DiscountAmount     decimal.Decimal `json:"discountAmount"`
	GrandTotal         decimal.Decimal `json:"grandTotal"`
	TaxAmount          decimal.Decimal `json:"taxAmount"`
	CreatedAt          time.Time       `json:"createdAt"`

	Items []BillItem `json:"items,omitempty"`
}

// BillItem is one line of a bill with both its inputs and the derived
// per-unit values.
type BillItem struct {
	ID          uuid.UUID       `json:"id"`
	BillID      uuid.UUID       `json:"-"`
	ProductID   uuid.UUID       `json:"productId"`
	SKU         string          `json:"sku"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Qty         int             `json:"qty"`
	DiscountPct decimal.Decimal `json:"discountPercentage"`
	TaxPct      decimal.Decimal `json:"taxPercentage"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	UnitTax     decimal.Decimal `json:"unitTax"`
	LineTotal   decimal.Decimal `json:"lineTotal"`
}
