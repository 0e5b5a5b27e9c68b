package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"stocktake-service/internal/models"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

type Store struct {
	db *sqlx.DB
}

// NewStore creates a new database store
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// GetDB returns the underlying database connection
func (s *Store) GetDB() *sqlx.DB {
	return s.db
}

// GetAllProducts retrieves the full local catalog in stable order
func (s *Store) GetAllProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := s.db.SelectContext(ctx, &products, "SELECT * FROM products ORDER BY id")
	return products, err
}

// GetProductByID retrieves a product by ID
func (s *Store) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	err := s.db.GetContext(ctx, &product, "SELECT * FROM products WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("product %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// GetProductByScanCode retrieves a product by its scan code
func (s *Store) GetProductByScanCode(ctx context.Context, code string) (*models.Product, error) {
	var product models.Product
	err := s.db.GetContext(ctx, &product, "SELECT * FROM products WHERE scan_code = $1", code)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("scan code %s: %w", code, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// InsertProduct registers a newly scanned product. Price stays unset
// until the first reconcile.
func (s *Store) InsertProduct(ctx context.Context, scanCode, name string) (*models.Product, error) {
	product := &models.Product{ScanCode: scanCode, Name: name}
	query := `
		INSERT INTO products (scan_code, name)
		VALUES ($1, $2)
		RETURNING id, created_at`

	if err := s.db.GetContext(ctx, product, query, scanCode, name); err != nil {
		return nil, fmt.Errorf("failed to insert product: %w", err)
	}
	return product, nil
}

// UpdateProductPrice unconditionally sets the cached price
func (s *Store) UpdateProductPrice(ctx context.Context, id int64, price decimal.Decimal) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE products SET price = $1 WHERE id = $2", price, id)
	return err
}

// UpdateProductPriceCAS sets the cached price only when it still holds
// the expected previous value. Returns false when a concurrent reconcile
// won the write.
func (s *Store) UpdateProductPriceCAS(ctx context.Context, id int64, price decimal.Decimal, expected decimal.NullDecimal) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE products SET price = $1 WHERE id = $2 AND price IS NOT DISTINCT FROM $3",
		price, id, expected)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
