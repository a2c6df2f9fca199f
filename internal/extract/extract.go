// Package extract turns a receipt image into an unvalidated receipt guess.
//
// Extraction runs in two stages: a TextExtractor reads the image into raw
// text (OCR) and a ReceiptExtractor turns that text into a structured
// models.RawReceipt (LLM). Neither stage is trusted; the guess must be
// reconciled before it is split.
package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/GeorgePPP/bill-splitter/internal/models"
)

// Stage names used in StageError and metrics labels.
const (
	StageUpload = "upload"
	StageOCR    = "ocr"
	StageLLM    = "llm"
	StageDecode = "decode"
)

var (
	ErrNoText            = errors.New("no text found in image")
	ErrMalformedResponse = errors.New("extractor returned malformed receipt data")
)

// TextExtractor reads the text out of a receipt image.
type TextExtractor interface {
	ExtractText(ctx context.Context, image []byte) (string, error)
}

// ReceiptExtractor turns raw receipt text into a structured guess.
type ReceiptExtractor interface {
	ExtractReceipt(ctx context.Context, rawText string) (*models.RawReceipt, error)
}

// StageError records which extraction stage failed.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Stage returns the failed stage of err, or "" when err is not a StageError.
func Stage(err error) string {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}

// Result is the output of a pipeline run.
type Result struct {
	RawText string
	Receipt *models.RawReceipt
}

// Pipeline chains OCR and LLM extraction.
type Pipeline struct {
	ocr TextExtractor
	llm ReceiptExtractor
}

func NewPipeline(ocr TextExtractor, llm ReceiptExtractor) *Pipeline {
	return &Pipeline{ocr: ocr, llm: llm}
}

// Run extracts a receipt guess from image bytes.
func (p *Pipeline) Run(ctx context.Context, image []byte) (*Result, error) {
	start := time.Now()

	text, err := p.ocr.ExtractText(ctx, image)
	if err != nil {
		slog.Error("OCR failed", "error", err, "size_bytes", len(image))
		return nil, &StageError{Stage: StageOCR, Err: err}
	}
	text = strings.TrimSpace(text)
	if text == "" {
		slog.Warn("OCR returned no text", "size_bytes", len(image))
		return nil, &StageError{Stage: StageOCR, Err: ErrNoText}
	}
	slog.Debug("OCR complete", "chars", len(text), "duration_ms", time.Since(start).Milliseconds())

	receipt, err := p.RunText(ctx, text)
	if err != nil {
		return nil, err
	}

	slog.Info("Receipt extracted",
		"items", len(receipt.Items),
		"charges", len(receipt.TaxesOrCharges),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return &Result{RawText: text, Receipt: receipt}, nil
}

// RunText extracts a receipt guess from text that was already read.
func (p *Pipeline) RunText(ctx context.Context, text string) (*models.RawReceipt, error) {
	receipt, err := p.llm.ExtractReceipt(ctx, text)
	if err != nil {
		slog.Error("Receipt extraction failed", "error", err)
		stage := StageLLM
		if errors.Is(err, ErrMalformedResponse) {
			stage = StageDecode
		}
		return nil, &StageError{Stage: stage, Err: err}
	}
	return receipt, nil
}
