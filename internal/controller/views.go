// Package controller holds the page logic of the expense-report front: the
// bills list and the new-bill form. Controllers talk to the remote store, a
// view model and a navigator, all passed in as interfaces.
package controller

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/mmynk/billed/internal/models"
	"github.com/mmynk/billed/internal/routes"
)

var (
	ErrInvalidExtension  = errors.New("receipt must be a .jpg, .jpeg or .png file")
	ErrUploadRequired    = errors.New("receipt upload has not completed")
	ErrInvalidTransition = errors.New("action not allowed in the current form state")
	ErrInvalidForm       = errors.New("invalid bill form")
	ErrMissingReceiptURL = errors.New("preview icon has no receipt url")
)

// Store is the remote bill store.
type Store interface {
	Bills() BillResource
}

// BillResource is the bill entity of the store. Every call may fail.
type BillResource interface {
	List(ctx context.Context) ([]models.Bill, error)
	Create(ctx context.Context, upload models.ReceiptUpload) (*models.UploadResult, error)
	Update(ctx context.Context, update models.BillUpdate) (*models.Bill, error)
}

// BillsView is what the bills list controller renders into.
type BillsView interface {
	RenderBills(bills []DisplayBill)
	RenderError(err error)

	// ShowReceipt opens the receipt modal on the image at url.
	ShowReceipt(url string)
}

// NewBillView is what the new-bill controller renders into.
type NewBillView interface {
	Alert(message string)

	// ResetFileInput clears the file chooser.
	ResetFileInput()

	RenderError(err error)
}

// Element is a rendered element the user interacted with.
type Element interface {
	Attribute(name string) (string, bool)
}

// Attrs is an Element backed by a map of attributes.
type Attrs map[string]string

func (a Attrs) Attribute(name string) (string, bool) {
	v, ok := a[name]
	return v, ok
}

// Navigator moves the user to another page.
type Navigator func(routes.Route)

type options struct {
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a controller.
type Option func(*options)

// WithLogger sets the logger used for warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithClock sets the clock used for commit timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func buildOptions(opts []Option) options {
	o := options{logger: slog.Default(), now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
