package controller

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/mmynk/billed/internal/models"
	"github.com/mmynk/billed/internal/routes"
)

var quiet = WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

func TestFetchAndRenderSortsByDateDesc(t *testing.T) {
	store := &fakeStore{bills: []models.Bill{
		{ID: "a", Date: "2022-12-01", Status: models.StatusPending},
		{ID: "b", Date: "2021-05-05", Status: models.StatusRefused},
		{ID: "c", Date: "2023-01-10", Status: models.StatusAccepted},
	}}
	view := &fakeView{}

	bills, err := NewBillsController(store, view, (&recorder{}).navigate, quiet).FetchAndRender(context.Background())
	if err != nil {
		t.Fatalf("FetchAndRender failed: %v", err)
	}

	want := []string{"2023-01-10", "2022-12-01", "2021-05-05"}
	if len(bills) != len(want) {
		t.Fatalf("got %d bills, want %d", len(bills), len(want))
	}
	for i, d := range want {
		if bills[i].Date != d {
			t.Errorf("bills[%d].Date = %q, want %q", i, bills[i].Date, d)
		}
	}
	if len(view.rendered) != 3 {
		t.Errorf("view rendered %d bills", len(view.rendered))
	}
}

func TestFetchAndRenderLabels(t *testing.T) {
	store := &fakeStore{bills: []models.Bill{
		{ID: "a", Date: "2004-04-04", Status: models.StatusAccepted},
		{ID: "b", Date: "not-a-date", Status: models.StatusPending},
	}}

	bills, err := NewBillsController(store, &fakeView{}, (&recorder{}).navigate, quiet).FetchAndRender(context.Background())
	if err != nil {
		t.Fatalf("FetchAndRender failed: %v", err)
	}

	byID := map[string]DisplayBill{}
	for _, b := range bills {
		byID[b.ID] = b
	}
	if got := byID["a"].StatusLabel; got != "Accepté" {
		t.Errorf("StatusLabel = %q, want Accepté", got)
	}
	if got := byID["a"].DateLabel; got != "4 Avr. 04" {
		t.Errorf("DateLabel = %q, want 4 Avr. 04", got)
	}
	if got := byID["b"].DateLabel; got != "not-a-date" {
		t.Errorf("corrupted date should fall back to raw value, got %q", got)
	}
	if got := byID["b"].StatusLabel; got != "En attente" {
		t.Errorf("StatusLabel = %q, want En attente", got)
	}
}

func TestFetchAndRenderStoreError(t *testing.T) {
	storeErr := errors.New("Erreur 404")
	view := &fakeView{}

	_, err := NewBillsController(&fakeStore{listErr: storeErr}, view, (&recorder{}).navigate, quiet).FetchAndRender(context.Background())
	if !errors.Is(err, storeErr) {
		t.Fatalf("err = %v, want %v", err, storeErr)
	}
	if len(view.errs) != 1 || !errors.Is(view.errs[0], storeErr) {
		t.Errorf("view errors = %v", view.errs)
	}
	if view.rendered != nil {
		t.Error("nothing should be rendered on failure")
	}
}

func TestFetchAndRenderWithoutStore(t *testing.T) {
	view := &fakeView{}
	bills, err := NewBillsController(nil, view, (&recorder{}).navigate).FetchAndRender(context.Background())
	if err != nil {
		t.Fatalf("FetchAndRender failed: %v", err)
	}
	if len(bills) != 0 || view.rendered == nil {
		t.Errorf("expected an empty rendered list, got %v", bills)
	}
}

func TestSortByDateDescIsStable(t *testing.T) {
	bills := []DisplayBill{
		{Bill: models.Bill{ID: "1", Date: "2022-01-01"}},
		{Bill: models.Bill{ID: "2", Date: "2023-01-01"}},
		{Bill: models.Bill{ID: "3", Date: "2022-01-01"}},
	}
	SortByDateDesc(bills)

	got := []string{bills[0].ID, bills[1].ID, bills[2].ID}
	want := []string{"2", "1", "3"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestOnClickPreviewIcon(t *testing.T) {
	view := &fakeView{}
	c := NewBillsController(&fakeStore{}, view, (&recorder{}).navigate)

	if err := c.OnClickPreviewIcon(Attrs{ReceiptURLAttribute: "https://localhost/receipts/1.jpg"}); err != nil {
		t.Fatalf("OnClickPreviewIcon failed: %v", err)
	}
	if view.receipt != "https://localhost/receipts/1.jpg" {
		t.Errorf("receipt = %q", view.receipt)
	}

	if err := c.OnClickPreviewIcon(Attrs{}); !errors.Is(err, ErrMissingReceiptURL) {
		t.Errorf("err = %v, want ErrMissingReceiptURL", err)
	}
}

func TestOnClickNewBill(t *testing.T) {
	rec := &recorder{}
	NewBillsController(&fakeStore{}, &fakeView{}, rec.navigate).OnClickNewBill()

	if len(rec.routes) != 1 || rec.routes[0] != routes.NewBill {
		t.Errorf("routes = %v, want [%s]", rec.routes, routes.NewBill)
	}
}
