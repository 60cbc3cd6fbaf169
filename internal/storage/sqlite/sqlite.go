// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/mmynk/billed/internal/models"
	"github.com/mmynk/billed/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const billColumns = `id, email, type, name, amount, date, vat, pct, commentary,
	file_url, file_name, status, created_at, committed_at`

// CreateBill persists a new bill to the database.
func (s *SQLiteStore) CreateBill(ctx context.Context, bill *models.Bill) error {
	if bill.ID == "" {
		bill.ID = uuid.New().String()
	}
	if bill.CreatedAt == 0 {
		bill.CreatedAt = time.Now().Unix()
	}
	if bill.Status == "" {
		bill.Status = models.StatusPending
	}
	if bill.Pct == 0 {
		bill.Pct = models.DefaultPct
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO bills (`+billColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		bill.ID, bill.Email, bill.Type, bill.Name, bill.Amount, bill.Date, bill.VAT, bill.Pct,
		nullString(bill.Commentary), bill.FileURL, bill.FileName, string(bill.Status),
		bill.CreatedAt, bill.CommittedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert bill: %w", err)
	}

	return nil
}

// GetBill retrieves a bill by ID.
func (s *SQLiteStore) GetBill(ctx context.Context, billID string) (*models.Bill, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+billColumns+` FROM bills WHERE id = ?`,
		billID,
	)

	bill, err := scanBill(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("bill %s: %w", billID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bill: %w", err)
	}

	return bill, nil
}

// UpdateBill replaces every mutable column of an existing bill.
func (s *SQLiteStore) UpdateBill(ctx context.Context, bill *models.Bill) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE bills SET email = ?, type = ?, name = ?, amount = ?, date = ?, vat = ?, pct = ?,
		 commentary = ?, file_url = ?, file_name = ?, status = ?, committed_at = ?
		 WHERE id = ?`,
		bill.Email, bill.Type, bill.Name, bill.Amount, bill.Date, bill.VAT, bill.Pct,
		nullString(bill.Commentary), bill.FileURL, bill.FileName, string(bill.Status),
		bill.CommittedAt, bill.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update bill: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check updated rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("bill %s: %w", bill.ID, storage.ErrNotFound)
	}

	return nil
}

// ListBills retrieves the committed bills, most recent expense date first.
func (s *SQLiteStore) ListBills(ctx context.Context, email string) ([]*models.Bill, error) {
	query := `SELECT ` + billColumns + ` FROM bills WHERE committed_at > 0`
	var args []interface{}
	if email != "" {
		query += ` AND email = ?`
		args = append(args, email)
	}
	query += ` ORDER BY date DESC, committed_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bills: %w", err)
	}
	defer rows.Close()

	var bills []*models.Bill
	for rows.Next() {
		bill, err := scanBill(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bill: %w", err)
		}
		bills = append(bills, bill)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bills: %w", err)
	}

	return bills, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanBill(row scanner) (*models.Bill, error) {
	bill := &models.Bill{}
	var commentary sql.NullString
	var status string

	err := row.Scan(&bill.ID, &bill.Email, &bill.Type, &bill.Name, &bill.Amount, &bill.Date,
		&bill.VAT, &bill.Pct, &commentary, &bill.FileURL, &bill.FileName, &status,
		&bill.CreatedAt, &bill.CommittedAt)
	if err != nil {
		return nil, err
	}

	bill.Status = models.Status(status)
	if commentary.Valid {
		bill.Commentary = commentary.String
	}
	return bill, nil
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
