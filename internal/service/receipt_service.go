package service

import (
	"context"
	"errors"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/GeorgePPP/bill-splitter/internal/extract"
	"github.com/GeorgePPP/bill-splitter/internal/metrics"
	"github.com/GeorgePPP/bill-splitter/internal/models"
	"github.com/GeorgePPP/bill-splitter/internal/receipt"
	"github.com/GeorgePPP/bill-splitter/internal/storage"
)

// ReceiptService implements the Connect ReceiptService
type ReceiptService struct {
	store         storage.ReceiptStore
	pipeline      *extract.Pipeline
	maxUploadSize int64
	metrics       *metrics.Metrics
}

// NewReceiptService creates a new ReceiptService. A nil pipeline disables
// ExtractReceipt; every other operation still works.
func NewReceiptService(store storage.ReceiptStore, pipeline *extract.Pipeline, maxUploadSize int64, m *metrics.Metrics) *ReceiptService {
	return &ReceiptService{
		store:         store,
		pipeline:      pipeline,
		maxUploadSize: maxUploadSize,
		metrics:       m,
	}
}

// ExtractReceipt reads an uploaded image, extracts a receipt guess and
// reconciles it. The receipt is stored whether or not it reconciles.
func (s *ReceiptService) ExtractReceipt(ctx context.Context, req *connect.Request[ExtractReceiptRequest]) (*connect.Response[ExtractReceiptResponse], error) {
	image := req.Msg.Image
	contentType := extract.ContentType(req.Msg.ContentType, image)
	if err := extract.ValidateUpload(contentType, int64(len(image)), s.maxUploadSize); err != nil {
		s.metrics.ExtractionFailure(extract.Stage(err))
		return nil, toConnectError("ExtractReceipt", err)
	}
	if s.pipeline == nil {
		return nil, toConnectError("ExtractReceipt", ErrExtractionNotAvailable)
	}

	slog.Debug("Extracting receipt",
		"filename", req.Msg.Filename,
		"content_type", contentType,
		"size_bytes", len(image),
	)
	extracted, err := s.pipeline.Run(ctx, image)
	if err != nil {
		s.metrics.ExtractionFailure(extract.Stage(err))
		return nil, toConnectError("ExtractReceipt", err)
	}

	validated, failure, err := reconcileInBand(s.metrics, extracted.Receipt)
	if err != nil {
		return nil, toConnectError("ExtractReceipt", err)
	}

	filename := req.Msg.Filename
	if filename == "" {
		filename = "receipt"
	}
	record := &models.Receipt{
		Filename:  filename,
		RawText:   extracted.RawText,
		Extracted: extracted.Receipt,
		Validated: validated,
	}
	if err := s.store.CreateReceipt(ctx, record); err != nil {
		return nil, toConnectError("ExtractReceipt", err)
	}

	return connect.NewResponse(&ExtractReceiptResponse{
		ReceiptID: record.ID,
		RawText:   record.RawText,
		Extracted: extracted.Receipt,
		Validated: validated,
		Failure:   failure,
	}), nil
}

// ReconcileReceipt reconciles a caller-corrected receipt.
func (s *ReceiptService) ReconcileReceipt(ctx context.Context, req *connect.Request[ReconcileReceiptRequest]) (*connect.Response[ReconcileReceiptResponse], error) {
	if req.Msg.Receipt == nil {
		return nil, toConnectError("ReconcileReceipt", errMissingReceipt)
	}

	validated, failure, err := reconcileInBand(s.metrics, req.Msg.Receipt)
	if err != nil {
		return nil, toConnectError("ReconcileReceipt", err)
	}

	if req.Msg.ReceiptID != "" {
		record, err := s.store.GetReceipt(ctx, req.Msg.ReceiptID)
		if err != nil {
			return nil, toConnectError("ReconcileReceipt", err)
		}
		record.Extracted = req.Msg.Receipt
		record.Validated = validated
		if err := s.store.UpdateReceipt(ctx, record); err != nil {
			return nil, toConnectError("ReconcileReceipt", err)
		}
	}

	return connect.NewResponse(&ReconcileReceiptResponse{
		Validated: validated,
		Failure:   failure,
	}), nil
}

// GetReceipt retrieves a stored receipt by ID.
func (s *ReceiptService) GetReceipt(ctx context.Context, req *connect.Request[GetReceiptRequest]) (*connect.Response[GetReceiptResponse], error) {
	if req.Msg.ID == "" {
		return nil, toConnectError("GetReceipt", errMissingID)
	}
	record, err := s.store.GetReceipt(ctx, req.Msg.ID)
	if err != nil {
		return nil, toConnectError("GetReceipt", err)
	}
	return connect.NewResponse(&GetReceiptResponse{Receipt: record}), nil
}

// DeleteReceipt removes a stored receipt. Its splits are kept.
func (s *ReceiptService) DeleteReceipt(ctx context.Context, req *connect.Request[DeleteReceiptRequest]) (*connect.Response[DeleteReceiptResponse], error) {
	if req.Msg.ID == "" {
		return nil, toConnectError("DeleteReceipt", errMissingID)
	}
	if err := s.store.DeleteReceipt(ctx, req.Msg.ID); err != nil {
		return nil, toConnectError("DeleteReceipt", err)
	}
	slog.Info("Receipt deleted", "receipt_id", req.Msg.ID)
	return connect.NewResponse(&DeleteReceiptResponse{}), nil
}

// ListReceipts returns stored receipts, newest first.
func (s *ReceiptService) ListReceipts(ctx context.Context, req *connect.Request[ListReceiptsRequest]) (*connect.Response[ListReceiptsResponse], error) {
	records, err := s.store.ListReceipts(ctx)
	if err != nil {
		return nil, toConnectError("ListReceipts", err)
	}
	if records == nil {
		records = []*models.Receipt{}
	}
	return connect.NewResponse(&ListReceiptsResponse{Receipts: records}), nil
}

// NormalizeItems expands items into unit quantities.
func (s *ReceiptService) NormalizeItems(ctx context.Context, req *connect.Request[NormalizeItemsRequest]) (*connect.Response[NormalizeItemsResponse], error) {
	return connect.NewResponse(&NormalizeItemsResponse{
		Items:      receipt.Normalize(req.Msg.Items),
		Mismatches: receipt.ItemMismatches(req.Msg.Items),
	}), nil
}

// reconcile reconciles raw and counts the outcome.
func reconcile(m *metrics.Metrics, raw *models.RawReceipt) (*models.ValidatedReceipt, error) {
	validated, err := receipt.ReconcileRaw(raw)
	if err != nil {
		var rerr *receipt.ReconciliationError
		if errors.As(err, &rerr) {
			m.Reconciliation(rerr.Kind())
			slog.Info("Receipt did not reconcile", "kind", rerr.Kind(), "error", rerr)
		}
		return nil, err
	}

	m.Reconciliation(string(validated.Scenario))
	slog.Info("Receipt reconciled",
		"scenario", validated.Scenario,
		"items", len(validated.Items),
		"subtotal", validated.Subtotal,
		"grand_total", validated.GrandTotal,
		"item_mismatches", len(validated.ItemMismatches),
	)
	return validated, nil
}

// reconcileInBand is reconcile with the failure turned into a response value.
func reconcileInBand(m *metrics.Metrics, raw *models.RawReceipt) (*models.ValidatedReceipt, *ReconciliationFailure, error) {
	validated, err := reconcile(m, raw)
	if err != nil {
		var rerr *receipt.ReconciliationError
		if errors.As(err, &rerr) {
			return nil, newReconciliationFailure(rerr), nil
		}
		return nil, nil, err
	}
	return validated, nil, nil
}
