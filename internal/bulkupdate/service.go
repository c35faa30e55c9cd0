package bulkupdate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-kasir/internal/common"
	"github.com/noah-isme/backend-kasir/internal/lock"
	"github.com/noah-isme/backend-kasir/internal/obs"
	"github.com/noah-isme/backend-kasir/internal/pricing"
	"github.com/noah-isme/backend-kasir/internal/product"
)

type catalog interface {
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]product.Product, error)
	ListByCategory(ctx context.Context, category string) ([]product.Product, error)
	UpdatePricingBatch(ctx context.Context, updates []product.Product) error
}

type enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Service computes and applies bulk price changes. Preview and commit run
// the same recalculation, so a commit applies exactly what was shown.
type Service struct {
	catalog        catalog
	cache          *product.Cache
	queue          enqueuer
	locker         lock.Locker
	lockTTL        time.Duration
	asyncThreshold int
}

// ServiceConfig groups Service dependencies. Queue may be nil; commits are
// then always applied synchronously.
type ServiceConfig struct {
	Catalog        catalog
	Cache          *product.Cache
	Queue          enqueuer
	Locker         lock.Locker
	LockTTL        time.Duration
	AsyncThreshold int
}

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Catalog == nil {
		return nil, errors.New("bulkupdate: catalog is required")
	}
	threshold := cfg.AsyncThreshold
	if threshold <= 0 {
		threshold = 200
	}
	return &Service{
		catalog:        cfg.Catalog,
		cache:          cfg.Cache,
		queue:          cfg.Queue,
		locker:         cfg.Locker,
		lockTTL:        cfg.LockTTL,
		asyncThreshold: threshold,
	}, nil
}

// Selection names the products a bulk change targets: an explicit id list
// or a whole category, never both.
type Selection struct {
	IDs      []string `json:"ids,omitempty" validate:"omitempty,dive,uuid"`
	Category string   `json:"category,omitempty" validate:"omitempty,max=100"`
}

// Input is the shared preview/commit payload.
type Input struct {
	Selection Selection       `json:"selection"`
	Field     string          `json:"field" validate:"required,oneof=mrp marginPercentage purchaseMarginPercentage taxPercentage"`
	Op        string          `json:"op" validate:"required,oneof=increase decrease set"`
	Value     decimal.Decimal `json:"value"`
}

// Snapshot is one product's pricing block as exposed in preview rows.
type Snapshot struct {
	MRP               *decimal.Decimal `json:"mrp,omitempty"`
	TaxPct            decimal.Decimal  `json:"taxPercentage"`
	MarginPct         decimal.Decimal  `json:"marginPercentage"`
	PurchaseMarginPct decimal.Decimal  `json:"purchaseMarginPercentage"`
	CostPrice         decimal.Decimal  `json:"costPrice"`
	CostPriceBase     decimal.Decimal  `json:"costPriceWithoutGST"`
	CostGST           decimal.Decimal  `json:"costGSTAmount"`
	SellingPrice      decimal.Decimal  `json:"sellingPrice"`
	SellingPriceBase  decimal.Decimal  `json:"sellingPriceWithoutGST"`
	SellingGST        decimal.Decimal  `json:"sellingGSTAmount"`
}

func snapshot(rec pricing.Record) Snapshot {
	return Snapshot{
		MRP:               rec.MRP,
		TaxPct:            rec.TaxPct,
		MarginPct:         rec.MarginPct,
		PurchaseMarginPct: rec.PurchaseMarginPct,
		CostPrice:         rec.CostPrice,
		CostPriceBase:     rec.CostPriceBase,
		CostGST:           rec.CostGST,
		SellingPrice:      rec.SellingPrice,
		SellingPriceBase:  rec.SellingPriceBase,
		SellingGST:        rec.SellingGST,
	}
}

// PreviewRow pairs a product's current and recalculated pricing.
type PreviewRow struct {
	ProductID uuid.UUID `json:"productId"`
	SKU       string    `json:"sku"`
	Name      string    `json:"name"`
	Old       Snapshot  `json:"old"`
	New       Snapshot  `json:"new"`
}

// Exclusion names a product the change cannot apply to and why.
type Exclusion struct {
	ProductID uuid.UUID `json:"productId"`
	SKU       string    `json:"sku"`
	Reason    string    `json:"reason"`
}

// PreviewResult is the dry-run outcome.
type PreviewResult struct {
	Rows     []PreviewRow `json:"rows"`
	Excluded []Exclusion  `json:"excluded,omitempty"`
}

// CommitResult reports how a commit was executed.
type CommitResult struct {
	Mode     string      `json:"mode"` // applied or queued
	Applied  int         `json:"applied"`
	Excluded []Exclusion `json:"excluded,omitempty"`
	TaskID   string      `json:"taskId,omitempty"`
}

func (s *Service) resolve(ctx context.Context, sel Selection) ([]product.Product, error) {
	hasIDs := len(sel.IDs) > 0
	hasCategory := sel.Category != ""
	if hasIDs == hasCategory {
		return nil, common.BadRequest("selection", "exactly one of ids or category is required", nil)
	}
	if hasCategory {
		return s.catalog.ListByCategory(ctx, sel.Category)
	}
	ids := make([]uuid.UUID, 0, len(sel.IDs))
	for i, raw := range sel.IDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, common.BadRequest(fmt.Sprintf("selection.ids[%d]", i), "invalid product id", err)
		}
		ids = append(ids, id)
	}
	return s.catalog.ListByIDs(ctx, ids)
}

// compute runs the recalculation over the selection. Products the change
// cannot apply to (scaling an absent MRP) are excluded, not failed.
func (s *Service) compute(products []product.Product, in Input) ([]PreviewRow, []product.Product, []Exclusion, error) {
	var (
		rows     []PreviewRow
		updated  []product.Product
		excluded []Exclusion
	)
	for _, p := range products {
		old := p.PricingRecord()
		next, err := pricing.Recalculate(old, pricing.Field(in.Field), pricing.Op(in.Op), in.Value)
		if errors.Is(err, pricing.ErrMissingBase) {
			excluded = append(excluded, Exclusion{ProductID: p.ID, SKU: p.SKU, Reason: "no value to scale"})
			continue
		}
		if err != nil {
			return nil, nil, nil, common.BadRequest("value", "recalculation failed", err)
		}
		rows = append(rows, PreviewRow{
			ProductID: p.ID,
			SKU:       p.SKU,
			Name:      p.Name,
			Old:       snapshot(old),
			New:       snapshot(next),
		})
		p.ApplyPricing(next)
		updated = append(updated, p)
	}
	return rows, updated, excluded, nil
}

// Preview computes the change without persisting anything.
func (s *Service) Preview(ctx context.Context, in Input) (PreviewResult, error) {
	products, err := s.resolve(ctx, in.Selection)
	if err != nil {
		return PreviewResult{}, err
	}
	rows, _, excluded, err := s.compute(products, in)
	if err != nil {
		return PreviewResult{}, err
	}
	obs.CountBulkPreview()
	return PreviewResult{Rows: rows, Excluded: excluded}, nil
}

// Commit applies the change. Large selections are handed to the worker
// queue; everything else is written in one transaction under the bulk lock.
func (s *Service) Commit(ctx context.Context, in Input) (CommitResult, error) {
	products, err := s.resolve(ctx, in.Selection)
	if err != nil {
		return CommitResult{}, err
	}

	if s.queue != nil && len(products) >= s.asyncThreshold {
		task, err := NewApplyTask(in)
		if err != nil {
			return CommitResult{}, fmt.Errorf("build bulk task: %w", err)
		}
		opts := []asynq.Option{asynq.MaxRetry(3)}
		if s.lockTTL > 0 {
			opts = append(opts, asynq.Unique(s.lockTTL))
		}
		info, err := s.queue.EnqueueContext(ctx, task, opts...)
		if err != nil {
			return CommitResult{}, fmt.Errorf("enqueue bulk task: %w", err)
		}
		obs.CountBulkCommit("queued")
		return CommitResult{Mode: "queued", TaskID: info.ID}, nil
	}

	return s.applyProducts(ctx, products, in)
}

// apply is the worker-side entry point: resolve and write, never re-enqueue.
func (s *Service) apply(ctx context.Context, in Input) (CommitResult, error) {
	products, err := s.resolve(ctx, in.Selection)
	if err != nil {
		return CommitResult{}, err
	}
	return s.applyProducts(ctx, products, in)
}

func (s *Service) applyProducts(ctx context.Context, products []product.Product, in Input) (CommitResult, error) {
	result := CommitResult{Mode: "applied"}
	run := func(ctx context.Context) error {
		_, updated, excluded, err := s.compute(products, in)
		if err != nil {
			return err
		}
		if err := s.catalog.UpdatePricingBatch(ctx, updated); err != nil {
			return fmt.Errorf("apply bulk update: %w", err)
		}
		result.Applied = len(updated)
		result.Excluded = excluded
		return nil
	}
	var err error
	if s.locker.R != nil {
		err = s.locker.WithLock(ctx, lockKey(in.Selection), s.lockTTL, run)
	} else {
		err = run(ctx)
	}
	if err != nil {
		return CommitResult{}, err
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
	obs.CountBulkCommit("applied")
	return result, nil
}

func lockKey(sel Selection) string {
	if sel.Category != "" {
		return "bulk:commit:category:" + sel.Category
	}
	return "bulk:commit:ids"
}
