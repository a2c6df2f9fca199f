package service

import (
	"github.com/GeorgePPP/bill-splitter/internal/models"
	"github.com/GeorgePPP/bill-splitter/internal/receipt"
)

// ReconciliationFailure is returned in-band when a receipt does not
// reconcile, so the caller can show the guess in a correction form.
type ReconciliationFailure struct {
	Kind        string              `json:"kind"`
	Message     string              `json:"message"`
	UserMessage string              `json:"user_message"`
	Diagnostics receipt.Diagnostics `json:"diagnostics"`
	Unvalidated *models.RawReceipt  `json:"unvalidated,omitempty"`
}

func newReconciliationFailure(err *receipt.ReconciliationError) *ReconciliationFailure {
	return &ReconciliationFailure{
		Kind:        err.Kind(),
		Message:     err.Error(),
		UserMessage: err.UserMessage(),
		Diagnostics: err.Diagnostics,
		Unvalidated: err.Unvalidated,
	}
}

type ExtractReceiptRequest struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Image       []byte `json:"image"`
}

type ExtractReceiptResponse struct {
	ReceiptID string                   `json:"receipt_id"`
	RawText   string                   `json:"raw_text"`
	Extracted *models.RawReceipt       `json:"extracted"`
	Validated *models.ValidatedReceipt `json:"validated,omitempty"`
	Failure   *ReconciliationFailure   `json:"failure,omitempty"`
}

// ReconcileReceiptRequest carries a caller-corrected receipt. When ReceiptID
// is set the stored receipt is updated with the outcome.
type ReconcileReceiptRequest struct {
	ReceiptID string             `json:"receipt_id,omitempty"`
	Receipt   *models.RawReceipt `json:"receipt"`
}

type ReconcileReceiptResponse struct {
	Validated *models.ValidatedReceipt `json:"validated,omitempty"`
	Failure   *ReconciliationFailure   `json:"failure,omitempty"`
}

type GetReceiptRequest struct {
	ID string `json:"id"`
}

type GetReceiptResponse struct {
	Receipt *models.Receipt `json:"receipt"`
}

type DeleteReceiptRequest struct {
	ID string `json:"id"`
}

type DeleteReceiptResponse struct{}

type ListReceiptsRequest struct{}

type ListReceiptsResponse struct {
	Receipts []*models.Receipt `json:"receipts"`
}

type NormalizeItemsRequest struct {
	Items []models.ReceiptItem `json:"items"`
}

type NormalizeItemsResponse struct {
	Items      []models.ReceiptItem  `json:"items"`
	Mismatches []models.ItemMismatch `json:"mismatches,omitempty"`
}

// CalculateSplitRequest splits a receipt among participants.
// The receipt comes from ReceiptID when set, otherwise from Receipt.
// Item indexes refer to the reconciled receipt's unit items.
type CalculateSplitRequest struct {
	ReceiptID    string                   `json:"receipt_id,omitempty"`
	Receipt      *models.RawReceipt       `json:"receipt,omitempty"`
	Participants []models.Participant     `json:"participants"`
	Assignments  []models.ItemAssignment  `json:"assignments"`
	Modes        models.DistributionModes `json:"modes"`

	// PayerID is optional; when set the response carries settle-up edges.
	PayerID string `json:"payer_id,omitempty"`
}

type CalculateSplitResponse struct {
	Receipt     *models.ValidatedReceipt `json:"receipt"`
	Result      *models.SplitResult      `json:"result"`
	Settlements []models.DebtEdge        `json:"settlements,omitempty"`
}

type CreateSplitRequest struct {
	CalculateSplitRequest
	Title string `json:"title,omitempty"`
}

type CreateSplitResponse struct {
	Split       *models.SplitRecord `json:"split"`
	Settlements []models.DebtEdge   `json:"settlements,omitempty"`
}

type GetSplitRequest struct {
	ID string `json:"id"`
}

type GetSplitResponse struct {
	Split       *models.SplitRecord `json:"split"`
	Settlements []models.DebtEdge   `json:"settlements,omitempty"`
}

type ListSplitsRequest struct {
	ReceiptID string `json:"receipt_id,omitempty"`
}

type ListSplitsResponse struct {
	Splits []*models.SplitRecord `json:"splits"`
}

type DeleteSplitRequest struct {
	ID string `json:"id"`
}

type DeleteSplitResponse struct{}

type CreateSessionRequest struct{}

type SessionResponse struct {
	Session *models.Session `json:"session"`
}

type GetSessionRequest struct {
	Token string `json:"token"`
}

// UpdateSessionRequest replaces only the fields that are set.
type UpdateSessionRequest struct {
	Token           string                   `json:"token"`
	CurrentStep     *int                     `json:"current_step,omitempty"`
	Participants    *[]models.Participant    `json:"participants,omitempty"`
	ReceiptID       *string                  `json:"receipt_id,omitempty"`
	ItemAssignments *[]models.ItemAssignment `json:"item_assignments,omitempty"`
	SplitResult     *models.SplitResult      `json:"split_result,omitempty"`
}

type DeleteSessionRequest struct {
	Token string `json:"token"`
}

type DeleteSessionResponse struct{}
