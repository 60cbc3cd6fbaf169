// Package bolt provides a bbolt-backed implementation of the storage.Store
// interface. Records are stored as JSON values keyed by ID.
package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/mmynk/billed/internal/models"
	"github.com/mmynk/billed/internal/storage"
)

var _ storage.Store = (*Store)(nil)

// Bucket names.
var (
	bucketBills        = []byte("bills")
	bucketUsers        = []byte("users")
	bucketUsersByEmail = []byte("users_by_email")
)

// Store implements storage.Store on top of a bbolt database file.
type Store struct {
	db *bolt.DB
}

// New opens (or creates) the database at dbPath and initializes buckets.
func New(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := bolt.Open(dbPath, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketBills, bucketUsers, bucketUsersByEmail} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateBill stores a new bill.
func (s *Store) CreateBill(ctx context.Context, bill *models.Bill) error {
	if err := ctx.Err(); err != nil {
		return err
	}
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

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketBills)
		if b.Get([]byte(bill.ID)) != nil {
			return fmt.Errorf("bill %s already exists", bill.ID)
		}
		return putJSON(b, bill.ID, bill)
	})
}

// GetBill retrieves a bill by ID.
func (s *Store) GetBill(ctx context.Context, billID string) (*models.Bill, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var bill models.Bill
	err := s.db.View(func(tx *bolt.Tx) error {
		return getJSON(tx.Bucket(bucketBills), billID, &bill)
	})
	if err != nil {
		return nil, fmt.Errorf("bill %s: %w", billID, err)
	}
	return &bill, nil
}

// UpdateBill replaces an existing bill.
func (s *Store) UpdateBill(ctx context.Context, bill *models.Bill) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketBills)
		if b.Get([]byte(bill.ID)) == nil {
			return fmt.Errorf("bill %s: %w", bill.ID, storage.ErrNotFound)
		}
		return putJSON(b, bill.ID, bill)
	})
}

// ListBills returns committed bills, most recent expense date first.
func (s *Store) ListBills(ctx context.Context, email string) ([]*models.Bill, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var bills []*models.Bill
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketBills).ForEach(func(_, v []byte) error {
			var bill models.Bill
			if err := json.Unmarshal(v, &bill); err != nil {
				return fmt.Errorf("failed to unmarshal bill: %w", err)
			}
			if bill.IsDraft() || (email != "" && bill.Email != email) {
				return nil
			}
			bills = append(bills, &bill)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list bills: %w", err)
	}

	sort.SliceStable(bills, func(i, j int) bool {
		if bills[i].Date != bills[j].Date {
			return bills[i].Date > bills[j].Date
		}
		return bills[i].CommittedAt > bills[j].CommittedAt
	})
	return bills, nil
}

// CreateUser stores a user and indexes it by email.
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		idx := tx.Bucket(bucketUsersByEmail)
		if idx.Get([]byte(user.Email)) != nil {
			return fmt.Errorf("failed to create user: email %s already used", user.Email)
		}
		if err := putJSON(tx.Bucket(bucketUsers), user.ID, user); err != nil {
			return err
		}
		return idx.Put([]byte(user.Email), []byte(user.ID))
	})
}

// GetUserByEmail resolves the email index then loads the user.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var user models.User
	err := s.db.View(func(tx *bolt.Tx) error {
		id := tx.Bucket(bucketUsersByEmail).Get([]byte(email))
		if id == nil {
			return storage.ErrNotFound
		}
		return getJSON(tx.Bucket(bucketUsers), string(id), &user)
	})
	if err != nil {
		return nil, fmt.Errorf("user %s: %w", email, err)
	}
	return &user, nil
}

// GetUserByID retrieves a user by ID.
func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var user models.User
	err := s.db.View(func(tx *bolt.Tx) error {
		return getJSON(tx.Bucket(bucketUsers), id, &user)
	})
	if err != nil {
		return nil, fmt.Errorf("user %s: %w", id, err)
	}
	return &user, nil
}

func putJSON(b *bolt.Bucket, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	return b.Put([]byte(key), data)
}

func getJSON(b *bolt.Bucket, key string, value interface{}) error {
	data := b.Get([]byte(key))
	if data == nil {
		return storage.ErrNotFound
	}
	return json.Unmarshal(data, value)
}
