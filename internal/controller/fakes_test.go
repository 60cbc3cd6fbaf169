package controller

import (
	"context"
	"sync"

	"github.com/mmynk/billed/internal/models"
	"github.com/mmynk/billed/internal/routes"
)

type fakeStore struct {
	mu sync.Mutex

	bills     []models.Bill
	listErr   error
	createErr error
	updateErr error
	result    *models.UploadResult

	// block, when set, holds Create until it is closed.
	block chan struct{}

	creates []models.ReceiptUpload
	updates []models.BillUpdate
}

func (s *fakeStore) Bills() BillResource { return s }

func (s *fakeStore) List(ctx context.Context) ([]models.Bill, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return append([]models.Bill(nil), s.bills...), nil
}

func (s *fakeStore) Create(ctx context.Context, upload models.ReceiptUpload) (*models.UploadResult, error) {
	s.mu.Lock()
	s.creates = append(s.creates, upload)
	block := s.block
	s.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.createErr != nil {
		return nil, s.createErr
	}
	if s.result != nil {
		return s.result, nil
	}
	return &models.UploadResult{FileURL: "https://localhost:3456/images/test.jpg", Key: "1234"}, nil
}

func (s *fakeStore) Update(ctx context.Context, update models.BillUpdate) (*models.Bill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates = append(s.updates, update)
	if s.updateErr != nil {
		return nil, s.updateErr
	}
	b := update.Data
	b.ID = update.BillID
	return &b, nil
}

type fakeView struct {
	rendered   []DisplayBill
	errs       []error
	receipt    string
	alerts     []string
	fileResets int
}

func (v *fakeView) RenderBills(bills []DisplayBill) { v.rendered = bills }
func (v *fakeView) RenderError(err error)           { v.errs = append(v.errs, err) }
func (v *fakeView) ShowReceipt(url string)          { v.receipt = url }
func (v *fakeView) Alert(message string)            { v.alerts = append(v.alerts, message) }
func (v *fakeView) ResetFileInput()                 { v.fileResets++ }

type recorder struct {
	routes []routes.Route
}

func (r *recorder) navigate(route routes.Route) { r.routes = append(r.routes, route) }
