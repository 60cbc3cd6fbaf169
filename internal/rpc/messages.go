package rpc

import "github.com/mmynk/billed/internal/models"

type ListBillsRequest struct{}

type ListBillsResponse struct {
	Bills []models.Bill `json:"bills"`
}

// CreateBillRequest uploads a receipt and opens a draft bill.
type CreateBillRequest struct {
	File  models.ReceiptFile `json:"file"`
	Email string             `json:"email"`
}

type CreateBillResponse struct {
	FileURL string `json:"fileUrl"`
	Key     string `json:"key"`
}

// UpdateBillRequest completes the draft identified by BillID.
type UpdateBillRequest struct {
	BillID string      `json:"billId"`
	Data   models.Bill `json:"data"`
}

type UpdateBillResponse struct {
	Bill models.Bill `json:"bill"`
}

type User struct {
	ID          string          `json:"id"`
	Email       string          `json:"email"`
	DisplayName string          `json:"displayName"`
	Type        models.UserType `json:"type"`
	CreatedAt   int64           `json:"createdAt,omitempty"`
}

type RegisterRequest struct {
	Email       string          `json:"email"`
	DisplayName string          `json:"displayName"`
	Password    string          `json:"password"`
	Type        models.UserType `json:"type"`
}

type RegisterResponse struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

type GetCurrentUserRequest struct{}

type GetCurrentUserResponse struct {
	User User `json:"user"`
}
