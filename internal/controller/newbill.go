package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mmynk/billed/internal/models"
	"github.com/mmynk/billed/internal/receipt"
	"github.com/mmynk/billed/internal/routes"
)

// State is the progress of a new-bill form.
type State int

const (
	StateIdle State = iota
	StateFileValidated
	StateFileUploading
	StateFileUploaded
	StateSubmitting
	StateSubmitted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFileValidated:
		return "file_validated"
	case StateFileUploading:
		return "file_uploading"
	case StateFileUploaded:
		return "file_uploaded"
	case StateSubmitting:
		return "submitting"
	case StateSubmitted:
		return "submitted"
	}
	return "State(" + strconv.Itoa(int(s)) + ")"
}

// FileSelection is the file picked in the receipt input.
type FileSelection struct {
	// Path is the value reported by the input, e.g. `C:\fakepath\test.jpg`.
	Path string
	Data []byte
}

// BillForm holds the raw values of the new-bill form fields.
type BillForm struct {
	Type       string
	Name       string
	Date       string
	Amount     string
	VAT        string
	Pct        string
	Commentary string
}

// Bill parses the form into a bill. Pct defaults to 20 and VAT may be empty.
func (f BillForm) Bill() (models.Bill, error) {
	b := models.Bill{
		Type:       strings.TrimSpace(f.Type),
		Name:       strings.TrimSpace(f.Name),
		Date:       strings.TrimSpace(f.Date),
		Commentary: strings.TrimSpace(f.Commentary),
		Pct:        models.DefaultPct,
	}

	if _, err := time.Parse(time.DateOnly, b.Date); err != nil {
		return models.Bill{}, fmt.Errorf("%w: date %q is not YYYY-MM-DD", ErrInvalidForm, f.Date)
	}

	amount, err := strconv.ParseFloat(strings.TrimSpace(f.Amount), 64)
	if err != nil || amount < 0 {
		return models.Bill{}, fmt.Errorf("%w: amount %q", ErrInvalidForm, f.Amount)
	}
	b.Amount = amount

	if v := strings.TrimSpace(f.VAT); v != "" {
		vat, err := strconv.ParseFloat(v, 64)
		if err != nil || vat < 0 {
			return models.Bill{}, fmt.Errorf("%w: vat %q", ErrInvalidForm, f.VAT)
		}
		b.VAT = vat
	}

	if p := strings.TrimSpace(f.Pct); p != "" {
		pct, err := strconv.Atoi(p)
		if err != nil || pct < 0 || pct > 100 {
			return models.Bill{}, fmt.Errorf("%w: pct %q", ErrInvalidForm, f.Pct)
		}
		b.Pct = pct
	}

	return b, nil
}

// NewBill drives the new-bill form: it uploads the receipt as soon as it is
// selected, then submits the bill built from the form and the upload.
// It is safe for concurrent use.
type NewBill struct {
	store    Store
	view     NewBillView
	navigate Navigator
	session  models.Session
	logger   *slog.Logger
	now      func() time.Time

	mu       sync.Mutex
	state    State
	upload   *models.UploadResult
	fileName string
}

// NewBillController creates the controller of one new-bill form.
func NewBillController(store Store, view NewBillView, navigate Navigator, session models.Session, opts ...Option) *NewBill {
	o := buildOptions(opts)
	return &NewBill{
		store:    store,
		view:     view,
		navigate: navigate,
		session:  session,
		logger:   o.logger,
		now:      o.now,
	}
}

// State returns the current form state.
func (c *NewBill) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Upload returns the completed upload, or nil before one succeeded.
func (c *NewBill) Upload() *models.UploadResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.upload == nil {
		return nil
	}
	u := *c.upload
	return &u
}

func (c *NewBill) setState(s State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = s
}

// FileName returns the name of the uploaded receipt.
func (c *NewBill) FileName() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fileName
}

// OnFileSelected validates the selected receipt and uploads it.
func (c *NewBill) OnFileSelected(ctx context.Context, sel FileSelection) error {
	name := receipt.BaseName(sel.Path)

	c.mu.Lock()
	if c.state != StateIdle && c.state != StateFileUploaded {
		state := c.state
		c.mu.Unlock()
		return fmt.Errorf("%w: select file while %s", ErrInvalidTransition, state)
	}
	if !receipt.Allowed(name) {
		c.mu.Unlock()
		c.view.Alert(receipt.InvalidExtensionMessage)
		c.view.ResetFileInput()
		return fmt.Errorf("%w: %q", ErrInvalidExtension, name)
	}
	prev := c.state
	c.state = StateFileValidated
	c.mu.Unlock()

	c.setState(StateFileUploading)
	result, err := c.store.Bills().Create(ctx, models.ReceiptUpload{
		File:  models.ReceiptFile{Name: name, ContentType: receipt.ContentType(name), Data: sel.Data},
		Email: c.session.Email,
	})
	if err == nil && (result == nil || result.FileURL == "" || result.Key == "") {
		err = errors.New("store returned an incomplete upload result")
	}

	c.mu.Lock()
	if err != nil {
		c.state = prev
		c.mu.Unlock()
		c.view.RenderError(err)
		return fmt.Errorf("failed to upload receipt: %w", err)
	}
	c.state = StateFileUploaded
	c.upload = result
	c.fileName = name
	c.mu.Unlock()

	c.logger.Debug("Receipt uploaded", "key", result.Key, "file_name", name)
	return nil
}

// OnSubmit builds the bill from the form and the uploaded receipt, commits it
// and navigates back to the bills list.
func (c *NewBill) OnSubmit(ctx context.Context, form BillForm) error {
	c.mu.Lock()
	switch c.state {
	case StateFileUploaded:
	case StateIdle, StateFileValidated, StateFileUploading:
		c.mu.Unlock()
		c.view.RenderError(ErrUploadRequired)
		return ErrUploadRequired
	default:
		state := c.state
		c.mu.Unlock()
		return fmt.Errorf("%w: submit while %s", ErrInvalidTransition, state)
	}

	bill, err := form.Bill()
	if err != nil {
		c.mu.Unlock()
		c.view.RenderError(err)
		return err
	}
	bill.Email = c.session.Email
	bill.FileURL = c.upload.FileURL
	bill.FileName = c.fileName
	bill.Status = models.StatusPending
	bill.CommittedAt = c.now().Unix()
	key := c.upload.Key
	c.state = StateSubmitting
	c.mu.Unlock()

	_, err = c.store.Bills().Update(ctx, models.BillUpdate{BillID: key, Data: bill})

	c.mu.Lock()
	if err != nil {
		c.state = StateFileUploaded
		c.mu.Unlock()
		c.view.RenderError(err)
		return fmt.Errorf("failed to submit bill: %w", err)
	}
	c.state = StateSubmitted
	c.mu.Unlock()

	c.navigate(routes.Bills)
	return nil
}
