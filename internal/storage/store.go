// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/billed/internal/models"
)

// ErrNotFound is returned when a bill or user does not exist.
var ErrNotFound = errors.New("record not found")

// Store defines the interface for bill and user storage operations.
// This abstraction allows swapping storage backends (SQLite, bbolt)
// without changing the service layer.
type Store interface {
	// CreateBill persists a new bill.
	// The bill.ID and bill.CreatedAt fields are populated by the store when empty.
	CreateBill(ctx context.Context, bill *models.Bill) error

	// GetBill retrieves a bill by its ID. Returns ErrNotFound if missing.
	GetBill(ctx context.Context, billID string) (*models.Bill, error)

	// UpdateBill replaces an existing bill. Returns ErrNotFound if missing.
	UpdateBill(ctx context.Context, bill *models.Bill) error

	// ListBills returns the committed bills owned by email, or all committed
	// bills when email is empty. Drafts are never listed.
	ListBills(ctx context.Context, email string) ([]*models.Bill, error)

	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByEmail returns ErrNotFound when no user has that email.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByID returns ErrNotFound when no user has that ID.
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// Close releases any resources held by the store.
	Close() error
}
