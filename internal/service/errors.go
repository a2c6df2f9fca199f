package service

import (
	"errors"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/GeorgePPP/bill-splitter/internal/calculator"
	"github.com/GeorgePPP/bill-splitter/internal/extract"
	"github.com/GeorgePPP/bill-splitter/internal/receipt"
	"github.com/GeorgePPP/bill-splitter/internal/storage"
)

var (
	ErrSessionExpired         = errors.New("session not found or expired")
	ErrExtractionNotAvailable = errors.New("receipt extraction is not configured")
	errMissingID              = errors.New("id is required")
	errMissingReceipt         = errors.New("a receipt or receipt_id is required")
	errInvalidMode            = errors.New("invalid distribution mode")
)

// toConnectError logs err and maps it to a Connect error code.
func toConnectError(op string, err error) error {
	var rerr *receipt.ReconciliationError
	code := connect.CodeInternal
	switch {
	case errors.As(err, &rerr):
		code = connect.CodeFailedPrecondition
	case errors.Is(err, storage.ErrNotFound):
		code = connect.CodeNotFound
	case errors.Is(err, calculator.ErrNoParticipants),
		errors.Is(err, calculator.ErrNoReceipt),
		errors.Is(err, calculator.ErrUnknownPayer),
		errors.Is(err, extract.ErrUnsupportedType),
		errors.Is(err, extract.ErrFileTooLarge),
		errors.Is(err, extract.ErrEmptyFile),
		errors.Is(err, errMissingID),
		errors.Is(err, errMissingReceipt),
		errors.Is(err, errInvalidMode):
		code = connect.CodeInvalidArgument
	case errors.Is(err, ErrExtractionNotAvailable):
		code = connect.CodeUnavailable
	case extract.Stage(err) != "":
		code = connect.CodeUnavailable
	}

	if code == connect.CodeInternal {
		slog.Error(op+" failed", "error", err)
	} else {
		slog.Warn(op+" failed", "code", code, "error", err)
	}
	return connect.NewError(code, err)
}
