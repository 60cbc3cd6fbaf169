package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"connectrpc.com/connect"
	"github.com/google/uuid"
	"github.com/mmynk/billed/internal/auth"
	"github.com/mmynk/billed/internal/blob"
	"github.com/mmynk/billed/internal/metrics"
	"github.com/mmynk/billed/internal/middleware"
	"github.com/mmynk/billed/internal/models"
	"github.com/mmynk/billed/internal/receipt"
	"github.com/mmynk/billed/internal/rpc"
	"github.com/mmynk/billed/internal/storage"
)

// DefaultMaxReceiptBytes caps receipt uploads when no limit is configured.
const DefaultMaxReceiptBytes = 10 << 20

var (
	ErrReceiptTooLarge = errors.New("receipt exceeds the maximum size")
	ErrEmptyReceipt    = errors.New("receipt is empty")
	ErrBillCommitted   = errors.New("bill was already processed")
)

// BillService implements the BillService RPC interface.
type BillService struct {
	store    storage.Store
	receipts blob.Store
	maxBytes int64
	logger   *slog.Logger
	now      func() time.Time
}

// NewBillService creates a new BillService with the given storage backends.
func NewBillService(store storage.Store, receipts blob.Store, maxBytes int64, logger *slog.Logger) *BillService {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxReceiptBytes
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BillService{
		store:    store,
		receipts: receipts,
		maxBytes: maxBytes,
		logger:   logger,
		now:      time.Now,
	}
}

var _ rpc.BillServiceHandler = (*BillService)(nil)

func sessionFrom(ctx context.Context) (models.Session, error) {
	s, ok := middleware.GetSession(ctx)
	if !ok {
		return models.Session{}, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}
	return s, nil
}

// ListBills returns the caller's committed bills, or every committed bill for admins.
func (s *BillService) ListBills(ctx context.Context, req *connect.Request[rpc.ListBillsRequest]) (*connect.Response[rpc.ListBillsResponse], error) {
	session, err := sessionFrom(ctx)
	if err != nil {
		return nil, err
	}

	owner := session.Email
	if session.IsAdmin() {
		owner = ""
	}

	bills, err := s.store.ListBills(ctx, owner)
	if err != nil {
		s.logger.Error("Failed to list bills", "email", session.Email, "error", err)
		return nil, connect.NewError(connect.CodeInternal, fmt.Errorf("failed to list bills: %w", err))
	}

	resp := &rpc.ListBillsResponse{Bills: make([]models.Bill, 0, len(bills))}
	for _, b := range bills {
		resp.Bills = append(resp.Bills, *b)
	}
	return connect.NewResponse(resp), nil
}

// CreateBill stores the receipt and opens a draft bill pointing at it.
func (s *BillService) CreateBill(ctx context.Context, req *connect.Request[rpc.CreateBillRequest]) (*connect.Response[rpc.CreateBillResponse], error) {
	session, err := sessionFrom(ctx)
	if err != nil {
		return nil, err
	}

	file := req.Msg.File
	name := receipt.BaseName(file.Name)
	if !receipt.Allowed(name) {
		metrics.ReceiptUploads.WithLabelValues("rejected").Inc()
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New(receipt.InvalidExtensionMessage))
	}
	if len(file.Data) == 0 {
		metrics.ReceiptUploads.WithLabelValues("rejected").Inc()
		return nil, connect.NewError(connect.CodeInvalidArgument, ErrEmptyReceipt)
	}
	if int64(len(file.Data)) > s.maxBytes {
		metrics.ReceiptUploads.WithLabelValues("rejected").Inc()
		return nil, connect.NewError(connect.CodeResourceExhausted,
			fmt.Errorf("%w: %d > %d bytes", ErrReceiptTooLarge, len(file.Data), s.maxBytes))
	}

	// The draft is always owned by the caller; the email in the message is informational.
	if req.Msg.Email != "" && !strings.EqualFold(req.Msg.Email, session.Email) {
		s.logger.Warn("Upload email differs from session", "session_email", session.Email, "email", req.Msg.Email)
	}

	id := uuid.New().String()
	key := id + receipt.Extension(name)
	fileURL, err := s.receipts.Put(ctx, key, receipt.ContentType(name), file.Data)
	if err != nil {
		metrics.ReceiptUploads.WithLabelValues("error").Inc()
		s.logger.Error("Failed to store receipt", "key", key, "error", err)
		return nil, connect.NewError(connect.CodeInternal, fmt.Errorf("failed to store receipt: %w", err))
	}

	draft := &models.Bill{
		ID:        id,
		Email:     session.Email,
		FileURL:   fileURL,
		FileName:  name,
		Status:    models.StatusPending,
		CreatedAt: s.now().Unix(),
	}
	if err := s.store.CreateBill(ctx, draft); err != nil {
		metrics.ReceiptUploads.WithLabelValues("error").Inc()
		s.logger.Error("Failed to create draft bill", "key", key, "error", err)
		return nil, connect.NewError(connect.CodeInternal, fmt.Errorf("failed to create bill: %w", err))
	}

	metrics.ReceiptUploads.WithLabelValues("ok").Inc()
	metrics.ReceiptBytes.Observe(float64(len(file.Data)))
	s.logger.Info("Receipt uploaded", "bill_id", id, "email", session.Email, "file_name", name, "bytes", len(file.Data))

	return connect.NewResponse(&rpc.CreateBillResponse{FileURL: fileURL, Key: id}), nil
}

// UpdateBill completes a draft with the form fields and commits it.
func (s *BillService) UpdateBill(ctx context.Context, req *connect.Request[rpc.UpdateBillRequest]) (*connect.Response[rpc.UpdateBillResponse], error) {
	session, err := sessionFrom(ctx)
	if err != nil {
		return nil, err
	}

	if req.Msg.BillID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("bill_id is required"))
	}
	if err := validateBillData(req.Msg.Data); err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	bill, err := s.store.GetBill(ctx, req.Msg.BillID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, connect.NewError(connect.CodeNotFound, err)
		}
		return nil, connect.NewError(connect.CodeInternal, fmt.Errorf("failed to get bill: %w", err))
	}
	if bill.Email != session.Email {
		return nil, connect.NewError(connect.CodePermissionDenied, fmt.Errorf("bill %s belongs to another user", bill.ID))
	}
	if !bill.IsDraft() && bill.Status != models.StatusPending {
		return nil, connect.NewError(connect.CodeFailedPrecondition, ErrBillCommitted)
	}

	data := req.Msg.Data
	bill.Type = data.Type
	bill.Name = data.Name
	bill.Amount = data.Amount
	bill.Date = data.Date
	bill.VAT = data.VAT
	bill.Pct = data.Pct
	bill.Commentary = data.Commentary
	bill.Status = models.StatusPending
	if data.CommittedAt > 0 {
		bill.CommittedAt = data.CommittedAt
	} else {
		bill.CommittedAt = s.now().Unix()
	}

	if err := s.store.UpdateBill(ctx, bill); err != nil {
		s.logger.Error("Failed to update bill", "bill_id", bill.ID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, fmt.Errorf("failed to update bill: %w", err))
	}

	metrics.BillsSubmitted.Inc()
	s.logger.Info("Bill submitted", "bill_id", bill.ID, "email", session.Email, "amount", bill.Amount)

	return connect.NewResponse(&rpc.UpdateBillResponse{Bill: *bill}), nil
}

func validateBillData(b models.Bill) error {
	if _, err := time.Parse(time.DateOnly, b.Date); err != nil {
		return fmt.Errorf("date must be YYYY-MM-DD: %q", b.Date)
	}
	if b.Amount < 0 {
		return errors.New("amount must not be negative")
	}
	if b.VAT < 0 {
		return errors.New("vat must not be negative")
	}
	if b.Pct < 0 || b.Pct > 100 {
		return fmt.Errorf("pct must be between 0 and 100, got %d", b.Pct)
	}
	return nil
}
