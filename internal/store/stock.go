package store

import (
	"context"
	"fmt"

	"stocktake-service/internal/models"

	"github.com/shopspring/decimal"
)

// AddOrSetQuantity adds delta to a product's counted quantity, creating
// the row on first touch. Quantities only ever grow through this path.
func (s *Store) AddOrSetQuantity(ctx context.Context, productID int64, delta int) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO stock_counts (product_id, quantity)
		VALUES ($1, $2)
		ON CONFLICT (product_id)
		DO UPDATE SET quantity = stock_counts.quantity + EXCLUDED.quantity, updated_at = NOW()`,
		productID, delta)
	if err != nil {
		return fmt.Errorf("failed to add quantity: %w", err)
	}
	return nil
}

// GetStockCount retrieves the counted quantity for a product
func (s *Store) GetStockCount(ctx context.Context, productID int64) (*models.StockCount, error) {
	var sc models.StockCount
	err := s.db.GetContext(ctx, &sc,
		"SELECT * FROM stock_counts WHERE product_id = $1", productID)
	if err != nil {
		return nil, err
	}
	return &sc, nil
}

// GetStockSnapshot retrieves the count snapshot used for report
// generation. Row order is the stable join order, which fixes the
// ledger's row order.
func (s *Store) GetStockSnapshot(ctx context.Context) ([]models.StockLine, error) {
	var lines []models.StockLine
	err := s.db.SelectContext(ctx, &lines, `
		SELECT products.id, products.name, stock_counts.quantity
		FROM products
		INNER JOIN stock_counts ON products.id = stock_counts.product_id
		ORDER BY products.id`)
	return lines, err
}

// GetInventory retrieves the full inventory listing
func (s *Store) GetInventory(ctx context.Context) ([]models.InventoryRow, error) {
	var rows []models.InventoryRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT products.id, products.name, products.scan_code, stock_counts.quantity
		FROM products
		INNER JOIN stock_counts ON products.id = stock_counts.product_id
		ORDER BY products.id`)
	return rows, err
}

// RecordPriceChange appends one price drift to the audit history
func (s *Store) RecordPriceChange(ctx context.Context, productID int64, oldPrice decimal.NullDecimal, newPrice decimal.Decimal) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO price_changes (product_id, old_price, new_price) VALUES ($1, $2, $3)",
		productID, oldPrice, newPrice)
	return err
}

// GetPriceChanges retrieves the drift history for a product, newest first
func (s *Store) GetPriceChanges(ctx context.Context, productID int64) ([]models.PriceChange, error) {
	var changes []models.PriceChange
	err := s.db.SelectContext(ctx, &changes,
		"SELECT * FROM price_changes WHERE product_id = $1 ORDER BY changed_at DESC", productID)
	return changes, err
}

// IsEventProcessed checks if an event has been processed
func (s *Store) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM processed_events WHERE event_id = $1)", eventID)
	return exists, err
}

// MarkEventProcessed marks an event as processed
func (s *Store) MarkEventProcessed(ctx context.Context, eventID, eventType string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO processed_events (event_id, event_type) VALUES ($1, $2) ON CONFLICT (event_id) DO NOTHING",
		eventID, eventType)
	return err
}
