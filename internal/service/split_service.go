package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"connectrpc.com/connect"

	"github.com/GeorgePPP/bill-splitter/internal/calculator"
	"github.com/GeorgePPP/bill-splitter/internal/metrics"
	"github.com/GeorgePPP/bill-splitter/internal/models"
	"github.com/GeorgePPP/bill-splitter/internal/storage"
)

// SplitService implements the Connect SplitService
type SplitService struct {
	receipts storage.ReceiptStore
	splits   storage.SplitStore
	metrics  *metrics.Metrics
}

// NewSplitService creates a new SplitService with the given storage backend.
func NewSplitService(receipts storage.ReceiptStore, splits storage.SplitStore, m *metrics.Metrics) *SplitService {
	return &SplitService{receipts: receipts, splits: splits, metrics: m}
}

// validatePayerID checks if the payer is one of the participants.
func validatePayerID(payerID string, participants []models.Participant) error {
	if payerID == "" {
		return nil // Optional field
	}
	if slices.ContainsFunc(participants, func(p models.Participant) bool { return p.ID == payerID }) {
		return nil
	}
	return fmt.Errorf("%w: payer_id %q must be one of the participants", calculator.ErrUnknownPayer, payerID)
}

// validateModes fills in defaults and rejects unknown distribution modes.
func validateModes(modes models.DistributionModes) (models.DistributionModes, error) {
	var err error
	if modes.Tax, err = models.ParseDistributionMode(string(modes.Tax)); err != nil {
		return modes, fmt.Errorf("%w: tax: %v", errInvalidMode, err)
	}
	if modes.ServiceCharge, err = models.ParseDistributionMode(string(modes.ServiceCharge)); err != nil {
		return modes, fmt.Errorf("%w: service_charge: %v", errInvalidMode, err)
	}
	if modes.Discount, err = models.ParseDistributionMode(string(modes.Discount)); err != nil {
		return modes, fmt.Errorf("%w: discount: %v", errInvalidMode, err)
	}
	return modes, nil
}

// resolveReceipt returns the validated receipt a split request refers to.
func (s *SplitService) resolveReceipt(ctx context.Context, req *CalculateSplitRequest) (*models.ValidatedReceipt, error) {
	if req.ReceiptID != "" {
		record, err := s.receipts.GetReceipt(ctx, req.ReceiptID)
		if err != nil {
			return nil, err
		}
		if record.Validated != nil {
			return record.Validated, nil
		}
		return reconcile(s.metrics, record.Extracted)
	}
	if req.Receipt == nil {
		return nil, errMissingReceipt
	}
	return reconcile(s.metrics, req.Receipt)
}

type calculation struct {
	receipt     *models.ValidatedReceipt
	modes       models.DistributionModes
	result      *models.SplitResult
	settlements []models.DebtEdge
}

func (s *SplitService) calculate(ctx context.Context, req *CalculateSplitRequest) (*calculation, error) {
	if err := validatePayerID(req.PayerID, req.Participants); err != nil {
		return nil, err
	}
	modes, err := validateModes(req.Modes)
	if err != nil {
		return nil, err
	}

	validated, err := s.resolveReceipt(ctx, req)
	if err != nil {
		return nil, err
	}

	for i, a := range req.Assignments {
		slog.Debug("Processing assignment",
			"index", i+1,
			"item_index", a.ItemIndex,
			"participants", a.ParticipantIDs,
		)
	}

	result, err := calculator.Allocate(validated, req.Participants, req.Assignments, modes)
	if err != nil {
		return nil, err
	}
	s.metrics.SplitWarnings("assignment", len(result.Warnings))
	if result.ValidationWarning != "" {
		s.metrics.SplitWarnings("total_drift", 1)
		slog.Warn("Split total drifted from receipt total", "warning", result.ValidationWarning)
	}

	for _, p := range result.People {
		slog.Debug("Person split",
			"participant_id", p.ParticipantID,
			"subtotal", p.Subtotal,
			"tax", p.TaxShare,
			"service_charge", p.ServiceChargeShare,
			"discount", p.DiscountShare,
			"total", p.Total,
			"items_count", len(p.Items),
		)
	}

	calc := &calculation{receipt: validated, modes: modes, result: result}
	if req.PayerID != "" {
		calc.settlements, err = calculator.SettleUp(result, req.PayerID)
		if err != nil {
			return nil, err
		}
	}
	return calc, nil
}

// CalculateSplit handles bill split calculation without persisting it.
func (s *SplitService) CalculateSplit(ctx context.Context, req *connect.Request[CalculateSplitRequest]) (*connect.Response[CalculateSplitResponse], error) {
	calc, err := s.calculate(ctx, req.Msg)
	if err != nil {
		return nil, toConnectError("CalculateSplit", err)
	}

	return connect.NewResponse(&CalculateSplitResponse{
		Receipt:     calc.receipt,
		Result:      calc.result,
		Settlements: calc.settlements,
	}), nil
}

// CreateSplit calculates a split and persists it to storage.
func (s *SplitService) CreateSplit(ctx context.Context, req *connect.Request[CreateSplitRequest]) (*connect.Response[CreateSplitResponse], error) {
	calc, err := s.calculate(ctx, &req.Msg.CalculateSplitRequest)
	if err != nil {
		return nil, toConnectError("CreateSplit", err)
	}

	split := &models.SplitRecord{
		ReceiptID:    req.Msg.ReceiptID,
		Title:        req.Msg.Title,
		Participants: req.Msg.Participants,
		Assignments:  persistedAssignments(req.Msg.Assignments),
		Modes:        calc.modes,
		PayerID:      req.Msg.PayerID,
		Receipt:      calc.receipt,
		Result:       calc.result,
	}

	// Save to storage (generates ID, Title and CreatedAt)
	if err := s.splits.CreateSplit(ctx, split); err != nil {
		return nil, toConnectError("CreateSplit", err)
	}

	slog.Info("Split created",
		"split_id", split.ID,
		"receipt_id", split.ReceiptID,
		"participants", len(split.Participants),
		"split_sum", calc.result.Totals.SplitSum,
	)
	return connect.NewResponse(&CreateSplitResponse{
		Split:       split,
		Settlements: calc.settlements,
	}), nil
}

// GetSplit retrieves a split by ID. Settlements are recomputed from the payer.
func (s *SplitService) GetSplit(ctx context.Context, req *connect.Request[GetSplitRequest]) (*connect.Response[GetSplitResponse], error) {
	if req.Msg.ID == "" {
		return nil, toConnectError("GetSplit", errMissingID)
	}
	split, err := s.splits.GetSplit(ctx, req.Msg.ID)
	if err != nil {
		return nil, toConnectError("GetSplit", err)
	}

	resp := &GetSplitResponse{Split: split}
	if split.PayerID != "" {
		resp.Settlements, err = calculator.SettleUp(split.Result, split.PayerID)
		if err != nil {
			return nil, toConnectError("GetSplit", err)
		}
	}
	return connect.NewResponse(resp), nil
}

// ListSplits returns stored splits, optionally for one receipt.
func (s *SplitService) ListSplits(ctx context.Context, req *connect.Request[ListSplitsRequest]) (*connect.Response[ListSplitsResponse], error) {
	splits, err := s.splits.ListSplits(ctx, req.Msg.ReceiptID)
	if err != nil {
		return nil, toConnectError("ListSplits", err)
	}
	if splits == nil {
		splits = []*models.SplitRecord{}
	}
	return connect.NewResponse(&ListSplitsResponse{Splits: splits}), nil
}

// DeleteSplit removes a stored split.
func (s *SplitService) DeleteSplit(ctx context.Context, req *connect.Request[DeleteSplitRequest]) (*connect.Response[DeleteSplitResponse], error) {
	if req.Msg.ID == "" {
		return nil, toConnectError("DeleteSplit", errMissingID)
	}
	if err := s.splits.DeleteSplit(ctx, req.Msg.ID); err != nil {
		return nil, toConnectError("DeleteSplit", err)
	}
	slog.Info("Split deleted", "split_id", req.Msg.ID)
	return connect.NewResponse(&DeleteSplitResponse{}), nil
}

// persistedAssignments drops assignments with nobody on them; they carry
// nothing the stored result does not already report.
func persistedAssignments(assignments []models.ItemAssignment) []models.ItemAssignment {
	out := make([]models.ItemAssignment, 0, len(assignments))
	for _, a := range assignments {
		if len(a.ParticipantIDs) > 0 {
			out = append(out, a)
		}
	}
	return out
}
