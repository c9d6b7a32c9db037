package mappings

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/cleared-dev/budgetbook/internal/model"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps mappings in an embedded SQLite database. Rows are read
// back in insertion order.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteStore opens (and migrates) the database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One connection keeps writes ordered and avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

// Append inserts m as the newest mapping.
func (s *SQLiteStore) Append(ctx context.Context, m model.CategoryMapping) error {
	if err := Validate(m); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO category_mappings (merchant_fragment, category, subcategory) VALUES (?, ?, ?)`,
		m.MerchantFragment, m.Category, m.SubCategory)
	if err != nil {
		return fmt.Errorf("insert mapping: %w", err)
	}
	return nil
}

// LoadAll returns every mapping in insertion order.
func (s *SQLiteStore) LoadAll(ctx context.Context) ([]model.CategoryMapping, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT merchant_fragment, category, subcategory FROM category_mappings ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query mappings: %w", err)
	}
	defer rows.Close()

	var ms []model.CategoryMapping
	for rows.Next() {
		var m model.CategoryMapping
		if err := rows.Scan(&m.MerchantFragment, &m.Category, &m.SubCategory); err != nil {
			return nil, fmt.Errorf("scan mapping: %w", err)
		}
		ms = append(ms, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate mappings: %w", err)
	}
	return ms, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
