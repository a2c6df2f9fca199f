package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/GeorgePPP/bill-splitter/internal/models"
)

const receiptColumns = "id, filename, raw_text, extracted, validated, created_at, updated_at"

// CreateReceipt persists a new receipt to the database.
func (s *SQLiteStore) CreateReceipt(ctx context.Context, receipt *models.Receipt) error {
	if receipt.ID == "" {
		receipt.ID = uuid.New().String()
	}
	now := s.now().Unix()
	if receipt.CreatedAt == 0 {
		receipt.CreatedAt = now
	}
	receipt.UpdatedAt = now

	extracted, err := toJSON(receipt.Extracted)
	if err != nil {
		return fmt.Errorf("failed to encode extracted receipt: %w", err)
	}
	validated, err := toJSON(receipt.Validated)
	if err != nil {
		return fmt.Errorf("failed to encode validated receipt: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO receipts ("+receiptColumns+") VALUES (?, ?, ?, ?, ?, ?, ?)",
		receipt.ID, receipt.Filename, receipt.RawText, extracted, validated, receipt.CreatedAt, receipt.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert receipt: %w", err)
	}
	return nil
}

// GetReceipt retrieves a receipt by ID.
func (s *SQLiteStore) GetReceipt(ctx context.Context, id string) (*models.Receipt, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+receiptColumns+" FROM receipts WHERE id = ?", id)
	receipt, err := scanReceipt(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("receipt", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get receipt: %w", err)
	}
	return receipt, nil
}

// UpdateReceipt replaces the extracted and validated data of a receipt.
func (s *SQLiteStore) UpdateReceipt(ctx context.Context, receipt *models.Receipt) error {
	extracted, err := toJSON(receipt.Extracted)
	if err != nil {
		return fmt.Errorf("failed to encode extracted receipt: %w", err)
	}
	validated, err := toJSON(receipt.Validated)
	if err != nil {
		return fmt.Errorf("failed to encode validated receipt: %w", err)
	}

	receipt.UpdatedAt = s.now().Unix()
	res, err := s.db.ExecContext(ctx,
		"UPDATE receipts SET extracted = ?, validated = ?, updated_at = ? WHERE id = ?",
		extracted, validated, receipt.UpdatedAt, receipt.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update receipt: %w", err)
	}
	return checkAffected(res, "receipt", receipt.ID)
}

// DeleteReceipt removes a receipt.
func (s *SQLiteStore) DeleteReceipt(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM receipts WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete receipt: %w", err)
	}
	return checkAffected(res, "receipt", id)
}

// ListReceipts returns all receipts, newest first.
func (s *SQLiteStore) ListReceipts(ctx context.Context) ([]*models.Receipt, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+receiptColumns+" FROM receipts ORDER BY created_at DESC, rowid DESC",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list receipts: %w", err)
	}
	defer rows.Close()

	var receipts []*models.Receipt
	for rows.Next() {
		receipt, err := scanReceipt(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan receipt: %w", err)
		}
		receipts = append(receipts, receipt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate receipts: %w", err)
	}
	return receipts, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReceipt(row rowScanner) (*models.Receipt, error) {
	var (
		r         models.Receipt
		extracted sql.NullString
		validated sql.NullString
	)
	if err := row.Scan(&r.ID, &r.Filename, &r.RawText, &extracted, &validated, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	if extracted.Valid {
		r.Extracted = &models.RawReceipt{}
		if err := fromJSON(extracted, r.Extracted); err != nil {
			return nil, fmt.Errorf("failed to decode extracted receipt: %w", err)
		}
	}
	if validated.Valid {
		r.Validated = &models.ValidatedReceipt{}
		if err := fromJSON(validated, r.Validated); err != nil {
			return nil, fmt.Errorf("failed to decode validated receipt: %w", err)
		}
	}
	return &r, nil
}
