// Package client is the remote bill store used by the controllers. It talks to
// the Connect API served by cmd/server.
package client

import (
	"context"
	"fmt"
	"net/http"

	"connectrpc.com/connect"
	"github.com/mmynk/billed/internal/models"
	"github.com/mmynk/billed/internal/rpc"
)

// Client is the entry point of the remote store. It is unauthenticated until
// scoped to a session with WithSession.
type Client struct {
	bills *rpc.BillServiceClient
	auth  *rpc.AuthServiceClient
	token string
}

// New creates a client for the API at baseURL. A nil httpClient uses
// http.DefaultClient.
func New(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		bills: rpc.NewBillServiceClient(httpClient, baseURL, opts...),
		auth:  rpc.NewAuthServiceClient(httpClient, baseURL, opts...),
	}
}

// WithSession returns a copy of the client sending the session's bearer token.
func (c *Client) WithSession(s models.Session) *Client {
	cp := *c
	cp.token = s.Token
	return &cp
}

// Bills returns the bill resource.
func (c *Client) Bills() *BillResource {
	return &BillResource{client: c}
}

func authorize[T any](c *Client, msg *T) *connect.Request[T] {
	req := connect.NewRequest(msg)
	if c.token != "" {
		req.Header().Set("Authorization", "Bearer "+c.token)
	}
	return req
}

// Login exchanges credentials for a session carrying a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (models.Session, error) {
	resp, err := c.auth.Login(ctx, connect.NewRequest(&rpc.LoginRequest{Email: email, Password: password}))
	if err != nil {
		return models.Session{}, fmt.Errorf("failed to log in: %w", err)
	}
	return models.Session{Type: resp.Msg.User.Type, Email: resp.Msg.User.Email, Token: resp.Msg.Token}, nil
}

// Register creates an account and returns its session.
func (c *Client) Register(ctx context.Context, email, displayName, password string, userType models.UserType) (models.Session, error) {
	resp, err := c.auth.Register(ctx, connect.NewRequest(&rpc.RegisterRequest{
		Email:       email,
		DisplayName: displayName,
		Password:    password,
		Type:        userType,
	}))
	if err != nil {
		return models.Session{}, fmt.Errorf("failed to register: %w", err)
	}
	return models.Session{Type: resp.Msg.User.Type, Email: resp.Msg.User.Email, Token: resp.Msg.Token}, nil
}

// BillResource exposes the bill operations of the store.
type BillResource struct {
	client *Client
}

// List returns the bills visible to the session.
func (r *BillResource) List(ctx context.Context) ([]models.Bill, error) {
	resp, err := r.client.bills.ListBills(ctx, authorize(r.client, &rpc.ListBillsRequest{}))
	if err != nil {
		return nil, fmt.Errorf("failed to list bills: %w", err)
	}
	return resp.Msg.Bills, nil
}

// Create uploads a receipt and returns where it was stored.
func (r *BillResource) Create(ctx context.Context, upload models.ReceiptUpload) (*models.UploadResult, error) {
	resp, err := r.client.bills.CreateBill(ctx, authorize(r.client, &rpc.CreateBillRequest{
		File:  upload.File,
		Email: upload.Email,
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to upload receipt: %w", err)
	}
	return &models.UploadResult{FileURL: resp.Msg.FileURL, Key: resp.Msg.Key}, nil
}

// Update commits the bill identified by the update's BillID.
func (r *BillResource) Update(ctx context.Context, update models.BillUpdate) (*models.Bill, error) {
	resp, err := r.client.bills.UpdateBill(ctx, authorize(r.client, &rpc.UpdateBillRequest{
		BillID: update.BillID,
		Data:   update.Data,
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to update bill: %w", err)
	}
	bill := resp.Msg.Bill
	return &bill, nil
}
