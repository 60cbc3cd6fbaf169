package models

// Status is the approval state of a bill.
type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRefused  Status = "refused"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRefused:
		return true
	}
	return false
}

// DefaultPct is the VAT rate applied when the form leaves it empty.
const DefaultPct = 20

// Bill is an expense bill submitted by an employee.
type Bill struct {
	// ID is the unique identifier of the bill (UUID format). It is the key
	// returned by the receipt upload.
	ID string `json:"id"`

	// Email is the owner's email address.
	Email string `json:"email"`

	// Type is the expense category (e.g. "Transports", "Restaurants et bars").
	Type string `json:"type"`

	// Name is the free-text expense name.
	Name string `json:"name"`

	Amount float64 `json:"amount"`

	// Date is the expense date as an ISO calendar date ("2006-01-02").
	Date string `json:"date"`

	// VAT is the VAT amount. Zero when not provided.
	VAT float64 `json:"vat,omitempty"`

	// Pct is the VAT rate in percent.
	Pct int `json:"pct"`

	Commentary string `json:"commentary,omitempty"`

	FileURL  string `json:"fileUrl"`
	FileName string `json:"fileName"`

	Status Status `json:"status"`

	// CreatedAt is the Unix timestamp of the draft creation (receipt upload).
	CreatedAt int64 `json:"createdAt"`

	// CommittedAt is the Unix timestamp of the form submission.
	// Zero while the bill is still a draft.
	CommittedAt int64 `json:"committedAt,omitempty"`
}

// IsDraft reports whether the bill was uploaded but never submitted.
func (b *Bill) IsDraft() bool {
	return b.CommittedAt == 0
}

// ReceiptFile is a receipt attachment as selected by the user.
type ReceiptFile struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Data        []byte `json:"data"`
}

// ReceiptUpload is the payload of the store's create call.
type ReceiptUpload struct {
	File  ReceiptFile `json:"file"`
	Email string      `json:"email"`
}

// UploadResult is what the store returns for a successful receipt upload.
type UploadResult struct {
	FileURL string `json:"fileUrl"`

	// Key identifies the draft bill created by the upload.
	Key string `json:"key"`
}

// BillUpdate is the payload of the store's update call.
type BillUpdate struct {
	BillID string `json:"billId"`
	Data   Bill   `json:"data"`
}
