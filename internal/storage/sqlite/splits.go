package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/GeorgePPP/bill-splitter/internal/models"
)

const splitColumns = "id, receipt_id, title, payer_id, tax_mode, service_charge_mode, discount_mode, receipt, result, created_at"

// CreateSplit persists a split with its participants and assignments.
func (s *SQLiteStore) CreateSplit(ctx context.Context, split *models.SplitRecord) error {
	if split.Receipt == nil || split.Result == nil {
		return fmt.Errorf("split must carry a receipt and a result")
	}

	// Generate IDs if not set
	if split.ID == "" {
		split.ID = uuid.New().String()
	}
	if split.CreatedAt == 0 {
		split.CreatedAt = s.now().Unix()
	}
	if split.Title == "" {
		split.Title = generateTitle(split.Participants, s.now())
	}

	receiptJSON, err := toJSON(split.Receipt)
	if err != nil {
		return fmt.Errorf("failed to encode receipt: %w", err)
	}
	resultJSON, err := toJSON(split.Result)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Insert split
	_, err = tx.ExecContext(ctx,
		"INSERT INTO splits ("+splitColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		split.ID, nullString(split.ReceiptID), split.Title, nullString(split.PayerID),
		string(split.Modes.Tax), string(split.Modes.ServiceCharge), string(split.Modes.Discount),
		receiptJSON, resultJSON, split.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert split: %w", err)
	}

	// Insert participants
	for i, p := range split.Participants {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO split_participants (split_id, position, participant_id, name) VALUES (?, ?, ?, ?)",
			split.ID, i, p.ID, p.Name,
		)
		if err != nil {
			return fmt.Errorf("failed to insert participant: %w", err)
		}
	}

	// Insert item assignments
	for seq, a := range split.Assignments {
		for pos, pid := range a.ParticipantIDs {
			var share decimal.NullDecimal
			if w, ok := a.Shares[pid]; ok {
				share = decimal.NewNullDecimal(w)
			}
			_, err = tx.ExecContext(ctx,
				"INSERT INTO split_assignments (split_id, seq, position, item_index, participant_id, share) VALUES (?, ?, ?, ?, ?, ?)",
				split.ID, seq, pos, a.ItemIndex, pid, share,
			)
			if err != nil {
				return fmt.Errorf("failed to insert item assignment: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetSplit retrieves a split by ID, including participants and assignments.
func (s *SQLiteStore) GetSplit(ctx context.Context, id string) (*models.SplitRecord, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+splitColumns+" FROM splits WHERE id = ?", id)
	split, err := scanSplit(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("split", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get split: %w", err)
	}

	if err := s.loadSplitDetails(ctx, split); err != nil {
		return nil, err
	}
	return split, nil
}

// ListSplits returns splits, newest first.
func (s *SQLiteStore) ListSplits(ctx context.Context, receiptID string) ([]*models.SplitRecord, error) {
	query := "SELECT " + splitColumns + " FROM splits"
	var args []any
	if receiptID != "" {
		query += " WHERE receipt_id = ?"
		args = append(args, receiptID)
	}
	query += " ORDER BY created_at DESC, rowid DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list splits: %w", err)
	}

	var splits []*models.SplitRecord
	for rows.Next() {
		split, err := scanSplit(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan split: %w", err)
		}
		splits = append(splits, split)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate splits: %w", err)
	}

	for _, split := range splits {
		if err := s.loadSplitDetails(ctx, split); err != nil {
			return nil, err
		}
	}
	return splits, nil
}

// DeleteSplit removes a split and, by cascade, its participants and assignments.
func (s *SQLiteStore) DeleteSplit(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM splits WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete split: %w", err)
	}
	return checkAffected(res, "split", id)
}

func scanSplit(row rowScanner) (*models.SplitRecord, error) {
	var (
		split                     models.SplitRecord
		receiptID, payerID        sql.NullString
		taxMode, svcMode, dscMode string
		receiptJSON, resultJSON   sql.NullString
	)
	err := row.Scan(&split.ID, &receiptID, &split.Title, &payerID,
		&taxMode, &svcMode, &dscMode, &receiptJSON, &resultJSON, &split.CreatedAt)
	if err != nil {
		return nil, err
	}

	split.ReceiptID = receiptID.String
	split.PayerID = payerID.String
	split.Modes = models.DistributionModes{
		Tax:           models.DistributionMode(taxMode),
		ServiceCharge: models.DistributionMode(svcMode),
		Discount:      models.DistributionMode(dscMode),
	}

	split.Receipt = &models.ValidatedReceipt{}
	if err := fromJSON(receiptJSON, split.Receipt); err != nil {
		return nil, fmt.Errorf("failed to decode receipt: %w", err)
	}
	split.Result = &models.SplitResult{}
	if err := fromJSON(resultJSON, split.Result); err != nil {
		return nil, fmt.Errorf("failed to decode result: %w", err)
	}
	return &split, nil
}

func (s *SQLiteStore) loadSplitDetails(ctx context.Context, split *models.SplitRecord) error {
	// Get participants
	rows, err := s.db.QueryContext(ctx,
		"SELECT participant_id, name FROM split_participants WHERE split_id = ? ORDER BY position",
		split.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to get participants: %w", err)
	}
	defer rows.Close()

	split.Participants = []models.Participant{}
	for rows.Next() {
		var p models.Participant
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return fmt.Errorf("failed to scan participant: %w", err)
		}
		split.Participants = append(split.Participants, p)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate participants: %w", err)
	}

	// Get assignments
	assignRows, err := s.db.QueryContext(ctx,
		"SELECT seq, item_index, participant_id, share FROM split_assignments WHERE split_id = ? ORDER BY seq, position",
		split.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to get item assignments: %w", err)
	}
	defer assignRows.Close()

	split.Assignments = []models.ItemAssignment{}
	lastSeq := -1
	for assignRows.Next() {
		var (
			seq, itemIndex int
			pid            string
			share          decimal.NullDecimal
		)
		if err := assignRows.Scan(&seq, &itemIndex, &pid, &share); err != nil {
			return fmt.Errorf("failed to scan assignment: %w", err)
		}
		if seq != lastSeq {
			split.Assignments = append(split.Assignments, models.ItemAssignment{ItemIndex: itemIndex})
			lastSeq = seq
		}
		a := &split.Assignments[len(split.Assignments)-1]
		a.ParticipantIDs = append(a.ParticipantIDs, pid)
		if share.Valid {
			if a.Shares == nil {
				a.Shares = make(map[string]decimal.Decimal)
			}
			a.Shares[pid] = share.Decimal
		}
	}
	if err := assignRows.Err(); err != nil {
		return fmt.Errorf("failed to iterate assignments: %w", err)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// generateTitle creates an auto-generated title from participants.
func generateTitle(participants []models.Participant, now time.Time) string {
	names := make([]string, 0, len(participants))
	for _, p := range participants {
		names = append(names, p.Name)
	}
	if len(names) == 0 {
		return fmt.Sprintf("Bill - %s", now.Format("Jan 2, 2006"))
	}
	if len(names) <= 3 {
		return fmt.Sprintf("Split with %s", strings.Join(names, ", "))
	}
	return fmt.Sprintf("Split with %s and %d others",
		strings.Join(names[:2], ", "),
		len(names)-2,
	)
}
