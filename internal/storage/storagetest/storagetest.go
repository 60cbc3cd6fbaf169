// Package storagetest holds the behaviour every storage.Store backend must share.
package storagetest

import (
	"context"
	"errors"
	"testing"

	"github.com/mmynk/billed/internal/models"
	"github.com/mmynk/billed/internal/storage"
)

// Run exercises store against the storage.Store contract.
func Run(t *testing.T, store storage.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("CreateBill generates ID, timestamp and defaults", func(t *testing.T) {
		draft := &models.Bill{
			Email:    "employee@test.tld",
			FileURL:  "https://localhost:3456/images/test.jpg",
			FileName: "test.jpg",
		}
		if err := store.CreateBill(ctx, draft); err != nil {
			t.Fatalf("CreateBill failed: %v", err)
		}
		if draft.ID == "" {
			t.Error("expected bill ID to be generated")
		}
		if draft.CreatedAt == 0 {
			t.Error("expected CreatedAt to be set")
		}
		if draft.Status != models.StatusPending {
			t.Errorf("Status = %q, want pending", draft.Status)
		}
		if draft.Pct != models.DefaultPct {
			t.Errorf("Pct = %d, want %d", draft.Pct, models.DefaultPct)
		}
	})

	t.Run("GetBill round trip", func(t *testing.T) {
		original := &models.Bill{
			Email:      "employee@test.tld",
			Type:       "Transports",
			Name:       "Vol Paris Tokyo",
			Amount:     400,
			Date:       "2023-04-04",
			VAT:        80,
			Pct:        20,
			Commentary: "Voyage professionnel",
			FileURL:    "https://localhost:3456/images/tokyo.jpg",
			FileName:   "tokyo.jpg",
			Status:     models.StatusPending,
		}
		if err := store.CreateBill(ctx, original); err != nil {
			t.Fatalf("CreateBill failed: %v", err)
		}

		got, err := store.GetBill(ctx, original.ID)
		if err != nil {
			t.Fatalf("GetBill failed: %v", err)
		}
		if *got != *original {
			t.Errorf("GetBill = %+v, want %+v", got, original)
		}
	})

	t.Run("GetBill returns ErrNotFound", func(t *testing.T) {
		_, err := store.GetBill(ctx, "nonexistent-id")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("UpdateBill commits a draft", func(t *testing.T) {
		draft := &models.Bill{Email: "commit@test.tld", FileURL: "https://x/a.png", FileName: "a.png"}
		if err := store.CreateBill(ctx, draft); err != nil {
			t.Fatalf("CreateBill failed: %v", err)
		}

		draft.Name = "Hotel"
		draft.Date = "2022-12-01"
		draft.Amount = 120
		draft.CommittedAt = 1700000000
		if err := store.UpdateBill(ctx, draft); err != nil {
			t.Fatalf("UpdateBill failed: %v", err)
		}

		got, err := store.GetBill(ctx, draft.ID)
		if err != nil {
			t.Fatalf("GetBill failed: %v", err)
		}
		if got.Name != "Hotel" || got.CommittedAt != 1700000000 || got.IsDraft() {
			t.Errorf("updated bill = %+v", got)
		}
	})

	t.Run("UpdateBill returns ErrNotFound", func(t *testing.T) {
		err := store.UpdateBill(ctx, &models.Bill{ID: "missing"})
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("ListBills skips drafts and filters by owner", func(t *testing.T) {
		owner := "list@test.tld"
		for _, b := range []*models.Bill{
			{Email: owner, Date: "2022-12-01", FileURL: "u1", FileName: "1.jpg", CommittedAt: 1},
			{Email: owner, Date: "2023-01-10", FileURL: "u2", FileName: "2.jpg", CommittedAt: 2},
			{Email: owner, FileURL: "u3", FileName: "3.jpg"},
			{Email: "other@test.tld", Date: "2021-05-05", FileURL: "u4", FileName: "4.jpg", CommittedAt: 3},
		} {
			if err := store.CreateBill(ctx, b); err != nil {
				t.Fatalf("CreateBill failed: %v", err)
			}
		}

		bills, err := store.ListBills(ctx, owner)
		if err != nil {
			t.Fatalf("ListBills failed: %v", err)
		}
		if len(bills) != 2 {
			t.Fatalf("expected 2 committed bills, got %d", len(bills))
		}
		if bills[0].Date != "2023-01-10" || bills[1].Date != "2022-12-01" {
			t.Errorf("unexpected order: %s, %s", bills[0].Date, bills[1].Date)
		}

		all, err := store.ListBills(ctx, "")
		if err != nil {
			t.Fatalf("ListBills(all) failed: %v", err)
		}
		for _, b := range all {
			if b.IsDraft() {
				t.Errorf("draft %s listed", b.ID)
			}
		}
		if len(all) < 3 {
			t.Errorf("expected at least 3 committed bills, got %d", len(all))
		}
	})

	t.Run("users", func(t *testing.T) {
		user := models.NewUser("user@test.tld", "User", models.UserTypeEmployee, "hash")
		if err := store.CreateUser(ctx, user); err != nil {
			t.Fatalf("CreateUser failed: %v", err)
		}

		byEmail, err := store.GetUserByEmail(ctx, "user@test.tld")
		if err != nil {
			t.Fatalf("GetUserByEmail failed: %v", err)
		}
		if *byEmail != *user {
			t.Errorf("GetUserByEmail = %+v, want %+v", byEmail, user)
		}

		byID, err := store.GetUserByID(ctx, user.ID)
		if err != nil {
			t.Fatalf("GetUserByID failed: %v", err)
		}
		if byID.Email != user.Email || byID.Type != models.UserTypeEmployee {
			t.Errorf("GetUserByID = %+v", byID)
		}

		if _, err := store.GetUserByEmail(ctx, "ghost@test.tld"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}
