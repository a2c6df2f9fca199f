// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/GeorgePPP/bill-splitter/internal/models"
)

// ErrNotFound is returned when a record does not exist. Expired sessions are
// reported as not found.
var ErrNotFound = errors.New("not found")

// ReceiptStore persists uploaded receipts.
type ReceiptStore interface {
	// CreateReceipt persists a new receipt.
	// The receipt.ID and timestamps will be populated by the store.
	CreateReceipt(ctx context.Context, receipt *models.Receipt) error

	GetReceipt(ctx context.Context, id string) (*models.Receipt, error)

	// UpdateReceipt replaces the extracted and validated data of a receipt.
	UpdateReceipt(ctx context.Context, receipt *models.Receipt) error

	// DeleteReceipt removes a receipt. Splits made from it are kept and
	// lose their receipt reference.
	DeleteReceipt(ctx context.Context, id string) error

	// ListReceipts returns receipts, newest first.
	ListReceipts(ctx context.Context) ([]*models.Receipt, error)
}

// SplitStore persists split calculations.
type SplitStore interface {
	// CreateSplit persists a split with its request and result.
	// The split.ID, Title and CreatedAt fields will be populated when empty.
	CreateSplit(ctx context.Context, split *models.SplitRecord) error

	GetSplit(ctx context.Context, id string) (*models.SplitRecord, error)

	// ListSplits returns splits, newest first. A non-empty receiptID
	// restricts the list to splits of that receipt.
	ListSplits(ctx context.Context, receiptID string) ([]*models.SplitRecord, error)

	DeleteSplit(ctx context.Context, id string) error
}

// SessionStore persists short-lived guest sessions.
type SessionStore interface {
	// CreateSession persists a new session.
	// The session.Token will be populated when empty.
	CreateSession(ctx context.Context, session *models.Session) error

	// GetSession returns a live session. An expired session is deleted and
	// reported as ErrNotFound.
	GetSession(ctx context.Context, token string) (*models.Session, error)

	// UpdateSession replaces the state and expiry of a live session.
	UpdateSession(ctx context.Context, session *models.Session) error

	DeleteSession(ctx context.Context, token string) error

	// DeleteExpiredSessions removes every expired session and returns how
	// many were removed.
	DeleteExpiredSessions(ctx context.Context) (int64, error)
}

// Store defines the interface for all storage operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
type Store interface {
	ReceiptStore
	SplitStore
	SessionStore

	// Close releases any resources held by the store.
	Close() error
}
