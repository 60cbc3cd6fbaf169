package controller

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/mmynk/billed/internal/format"
	"github.com/mmynk/billed/internal/models"
	"github.com/mmynk/billed/internal/routes"
)

// ReceiptURLAttribute holds the receipt URL on a preview icon.
const ReceiptURLAttribute = "data-bill-url"

// DisplayBill is a bill with its labels resolved for display.
type DisplayBill struct {
	models.Bill
	StatusLabel string
	DateLabel   string
}

// Bills drives the bills list page.
type Bills struct {
	store    Store
	view     BillsView
	navigate Navigator
	logger   *slog.Logger
}

// NewBillsController creates the bills list controller. A nil store yields an
// empty list.
func NewBillsController(store Store, view BillsView, navigate Navigator, opts ...Option) *Bills {
	o := buildOptions(opts)
	return &Bills{store: store, view: view, navigate: navigate, logger: o.logger}
}

// FetchAndRender lists the bills, sorts them most recent first and renders them.
func (c *Bills) FetchAndRender(ctx context.Context) ([]DisplayBill, error) {
	if c.store == nil {
		bills := []DisplayBill{}
		c.view.RenderBills(bills)
		return bills, nil
	}

	raw, err := c.store.Bills().List(ctx)
	if err != nil {
		c.view.RenderError(err)
		return nil, fmt.Errorf("failed to fetch bills: %w", err)
	}

	bills := make([]DisplayBill, 0, len(raw))
	for _, b := range raw {
		bills = append(bills, c.display(b))
	}
	SortByDateDesc(bills)

	c.view.RenderBills(bills)
	return bills, nil
}

func (c *Bills) display(b models.Bill) DisplayBill {
	d := DisplayBill{Bill: b, StatusLabel: format.Status(b.Status), DateLabel: b.Date}
	label, err := format.Date(b.Date)
	if err != nil {
		c.logger.Warn("Corrupted bill date, showing raw value", "bill_id", b.ID, "date", b.Date, "error", err)
		return d
	}
	d.DateLabel = label
	return d
}

// SortByDateDesc orders bills by ISO date, most recent first. Bills sharing a
// date keep their relative order.
func SortByDateDesc(bills []DisplayBill) {
	sort.SliceStable(bills, func(i, j int) bool {
		return bills[i].Date > bills[j].Date
	})
}

// OnClickPreviewIcon shows the receipt referenced by the clicked icon.
func (c *Bills) OnClickPreviewIcon(icon Element) error {
	url, ok := icon.Attribute(ReceiptURLAttribute)
	if !ok || url == "" {
		c.view.RenderError(ErrMissingReceiptURL)
		return ErrMissingReceiptURL
	}
	c.view.ShowReceipt(url)
	return nil
}

// OnClickNewBill opens the new-bill form.
func (c *Bills) OnClickNewBill() {
	c.navigate(routes.NewBill)
}
