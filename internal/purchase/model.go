package purchase

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Bill is a supplier purchase invoice after the client has turned the
// scanned document into structured lines.
type Bill struct {
	ID          uuid.UUID       `json:"id"`
	Supplier    string          `json:"supplier"`
	InvoiceNo   string          `json:"invoiceNo"`
	InvoiceDate time.Time       `json:"invoiceDate"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	TaxAmount   decimal.Decimal `json:"taxAmount"`
	GrandTotal  decimal.Decimal `json:"grandTotal"`
	CreatedAt   time.Time       `json:"createdAt"`

	Items []Item `json:"items,omitempty"`
}

// Item is one invoice line. Matched lines point at a catalog product and
// have moved stock; unmatched lines are kept for manual review.
type Item struct {
	ID        uuid.UUID       `json:"id"`
	BillID    uuid.UUID       `json:"-"`
	ProductID *uuid.UUID      `json:"productId,omitempty"`
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	Qty       int             `json:"qty"`
	UnitCost  decimal.Decimal `json:"unitCost"`
	TaxPct    decimal.Decimal `json:"taxPercentage"`
	TaxAmount decimal.Decimal `json:"taxAmount"`
	LineTotal decimal.Decimal `json:"lineTotal"`
	Matched   bool            `json:"matched"`
}
