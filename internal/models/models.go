package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// LedgerStartRow is the first worksheet row a ledger line may occupy.
// Rows 1-4 belong to the template header area.
const LedgerStartRow = 5

// Product is a locally known product. Price holds the last authoritative
// price seen for it and stays unset until the first successful reconcile.
type Product struct {
	ID        int64               `db:"id" json:"id"`
	ScanCode  string              `db:"scan_code" json:"scan_code"`
	Name      string              `db:"name" json:"name"`
	Price     decimal.NullDecimal `db:"price" json:"price"`
	CreatedAt time.Time           `db:"created_at" json:"created_at"`
}

// StoredPrice returns the cached price, or zero when never reconciled.
func (p *Product) StoredPrice() decimal.Decimal {
	if p.Price.Valid {
		return p.Price.Decimal
	}
	return decimal.Zero
}

// StockCount tracks the counted quantity for a product. Quantity only
// grows through additive updates; there is no decrement path.
type StockCount struct {
	ProductID int64     `db:"product_id" json:"product_id"`
	Quantity  int       `db:"quantity" json:"quantity"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// StockLine is one row of a stock-count snapshot (products joined with
// their counts, in stable query order).
type StockLine struct {
	ProductID int64  `db:"id" json:"product_id"`
	Name      string `db:"name" json:"name"`
	Quantity  int    `db:"quantity" json:"quantity"`
}

// InventoryRow is the full inventory listing shape.
type InventoryRow struct {
	ProductID int64  `db:"id" json:"product_id"`
	Name      string `db:"name" json:"name"`
	ScanCode  string `db:"scan_code" json:"scan_code"`
	Quantity  int    `db:"quantity" json:"quantity"`
}

// PriceChange is one recorded price drift for a product.
type PriceChange struct {
	ID        int64               `db:"id" json:"id"`
	ProductID int64               `db:"product_id" json:"product_id"`
	OldPrice  decimal.NullDecimal `db:"old_price" json:"old_price"`
	NewPrice  decimal.Decimal     `db:"new_price" json:"new_price"`
	ChangedAt time.Time           `db:"changed_at" json:"changed_at"`
}

// MatchCandidate pairs a catalog entry with its token-overlap score
// against an input name. Computed per reconciliation run, never stored.
type MatchCandidate struct {
	Product *Product
	Score   int
}

// LedgerLine is one priced report row. LineTotal is always
// Quantity x UnitPrice; the worksheet carries it as a formula cell so
// downstream edits recompute it.
type LedgerLine struct {
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
	Row       int             `json:"row"`
}

// TotalFormula returns the derived-cell formula for the line total.
func (l LedgerLine) TotalFormula() string {
	return fmt.Sprintf("=D%d*E%d", l.Row, l.Row)
}

// UnmatchedItem is a counted item that produced no priced line because
// no catalog entry shared a single name token with it.
type UnmatchedItem struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Reason   string `json:"reason"`
}

// Ledger is the assembled stocktake report: priced lines in snapshot
// order, the anomalies that could not be priced, and exact column sums.
type Ledger struct {
	Lines     []LedgerLine    `json:"lines"`
	Unmatched []UnmatchedItem `json:"unmatched"`

	TotalQuantity  int             `json:"total_quantity"`
	TotalUnitPrice decimal.Decimal `json:"total_unit_price"`
	TotalLineTotal decimal.Decimal `json:"total_line_total"`

	StartRow int `json:"start_row"`
	LastRow  int `json:"last_row"`
}

// SumFormula returns the aggregate formula for one numeric column over
// the exact row range occupied by the emitted lines.
func (l *Ledger) SumFormula(column string) string {
	return fmt.Sprintf("=SUM(%s%d:%s%d)", column, l.StartRow, column, l.LastRow)
}
