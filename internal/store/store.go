// Package store reads and writes rows of the remote PRODUCT_EMBEDDINGS
// table through an already-established connection handle. It owns no
// connection lifecycle; the handler that acquired the handle closes it.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/smartretail/hanaproxy/internal/config"
)

// Product is one row of the PRODUCT_EMBEDDINGS table as exposed over HTTP.
// The VECTOR column is a placeholder and never leaves the database.
type Product struct {
	ID          int64  `json:"product_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Store executes statements against one schema of the backing database.
type Store struct {
	db     *sql.DB
	schema string
	driver config.Driver
}

// New creates a Store bound to the given connection handle.
func New(db *sql.DB, schema string, driver config.Driver) *Store {
	return &Store{db: db, schema: schema, driver: driver}
}

// table returns the fully qualified, quoted table name. ANSI double-quote
// identifier quoting; MySQL backends need ANSI_QUOTES enabled.
func (s *Store) table() string {
	return fmt.Sprintf("%q.%q", s.schema, "PRODUCT_EMBEDDINGS")
}

// placeholder returns the bind marker for the n-th parameter (1-based);
// pgx uses positional markers, hdb and mysql use '?'.
func (s *Store) placeholder(n int) string {
	if s.driver == config.DriverPostgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// List returns all products in table order.
func (s *Store) List(ctx context.Context) ([]Product, error) {
	query := fmt.Sprintf("SELECT PRODUCT_ID, NAME, DESCRIPTION FROM %s", s.table())
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("select products: %w", err)
	}
	defer func() { _ = rows.Close() }()

	products := []Product{}
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description); err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}
	return products, nil
}

// Insert assigns the next PRODUCT_ID as current-max + 1 and inserts the row
// with an empty VECTOR placeholder. MAX and INSERT run in one transaction so
// concurrent inserts serialize instead of assigning duplicate ids.
func (s *Store) Insert(ctx context.Context, name, description string) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin insert transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var maxID sql.NullInt64
	query := fmt.Sprintf("SELECT MAX(PRODUCT_ID) FROM %s", s.table())
	if err := tx.QueryRowContext(ctx, query).Scan(&maxID); err != nil {
		return 0, fmt.Errorf("select max product id: %w", err)
	}

	newID := maxID.Int64 + 1
	insert := fmt.Sprintf(
		"INSERT INTO %s (PRODUCT_ID, NAME, DESCRIPTION, VECTOR) VALUES (%s, %s, %s, %s)",
		s.table(),
		s.placeholder(1), s.placeholder(2), s.placeholder(3), s.placeholder(4),
	)
	if _, err := tx.ExecContext(ctx, insert, newID, name, description, []byte{}); err != nil {
		return 0, fmt.Errorf("insert product: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit insert: %w", err)
	}
	return newID, nil
}
