package service

import (
	"context"
	"fmt"
	"time"

	"stocktake-service/internal/models"
	"stocktake-service/internal/util"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SnapshotStore provides the count snapshot and the catalog to match
// against.
type SnapshotStore interface {
	GetStockSnapshot(ctx context.Context) ([]models.StockLine, error)
	GetAllProducts(ctx context.Context) ([]models.Product, error)
}

// NameMatcher associates a counted item name with a catalog entry.
type NameMatcher interface {
	BestMatch(inputName string, catalog []models.Product) (*models.Product, bool)
}

// Reconciler resolves a matched product to its effective price.
type Reconciler interface {
	Reconcile(ctx context.Context, product *models.Product) (decimal.Decimal, error)
}

// LedgerBuilder turns a stock-count snapshot into a priced ledger.
type LedgerBuilder struct {
	store      SnapshotStore
	matcher    NameMatcher
	reconciler Reconciler
	logger     *zap.Logger
}

// NewLedgerBuilder creates a new ledger builder
func NewLedgerBuilder(st SnapshotStore, matcher NameMatcher, reconciler Reconciler) *LedgerBuilder {
	return &LedgerBuilder{
		store:      st,
		matcher:    matcher,
		reconciler: reconciler,
		logger:     util.GetLogger(),
	}
}

// BuildLedger walks the snapshot in order, matches each counted item
// against the full catalog, reconciles the matched entry's price and
// emits one priced line per match. Items without a single shared name
// token produce no line but are surfaced on Unmatched instead of being
// dropped. Aggregates are exact column sums of the emitted lines.
func (b *LedgerBuilder) BuildLedger(ctx context.Context) (*models.Ledger, error) {
	ctx, span := util.StartSpan(ctx, "LedgerBuilder.BuildLedger")
	defer span.End()

	snapshot, err := b.store.GetStockSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load stock snapshot: %w", err)
	}

	catalog, err := b.store.GetAllProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	ledger := &models.Ledger{
		StartRow: models.LedgerStartRow,
		LastRow:  models.LedgerStartRow - 1,
	}

	row := models.LedgerStartRow
	for _, line := range snapshot {
		matchStart := time.Now()
		product, ok := b.matcher.BestMatch(line.Name, catalog)
		util.MatchLatency.Observe(time.Since(matchStart).Seconds())

		if !ok {
			b.logger.Warn("No catalog match for counted item",
				zap.String("name", line.Name),
				zap.Int("quantity", line.Quantity))
			util.LedgerUnmatchedTotal.Inc()
			ledger.Unmatched = append(ledger.Unmatched, models.UnmatchedItem{
				Name:     line.Name,
				Quantity: line.Quantity,
				Reason:   "no catalog entry shares a name token",
			})
			continue
		}

		price, err := b.reconciler.Reconcile(ctx, product)
		if err != nil {
			return nil, fmt.Errorf("failed to price %q: %w", line.Name, err)
		}

		total := price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		ledger.Lines = append(ledger.Lines, models.LedgerLine{
			Name:      line.Name,
			Quantity:  line.Quantity,
			UnitPrice: price,
			LineTotal: total,
			Row:       row,
		})

		ledger.TotalQuantity += line.Quantity
		ledger.TotalUnitPrice = ledger.TotalUnitPrice.Add(price)
		ledger.TotalLineTotal = ledger.TotalLineTotal.Add(total)
		ledger.LastRow = row
		row++

		util.LedgerLinesTotal.Inc()
	}

	b.logger.Info("Ledger assembled",
		zap.Int("lines", len(ledger.Lines)),
		zap.Int("unmatched", len(ledger.Unmatched)))

	return ledger, nil
}
