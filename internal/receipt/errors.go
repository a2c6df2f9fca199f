package receipt

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/GeorgePPP/bill-splitter/internal/models"
)

var (
	ErrMissingGrandTotal       = errors.New("grand total is missing or invalid")
	ErrItemsSubtotalMismatch   = errors.New("items total does not match stated subtotal")
	ErrGrandTotalMismatch      = errors.New("subtotal plus charges does not match grand total")
	ErrItemsGrandTotalMismatch = errors.New("items total does not match grand total")
	ErrAmbiguousTotals         = errors.New("items total matches neither tax-inclusive nor tax-exclusive totals")
)

var kindCodes = map[error]string{
	ErrMissingGrandTotal:       "missing_grand_total",
	ErrItemsSubtotalMismatch:   "items_subtotal_mismatch",
	ErrGrandTotalMismatch:      "grand_total_mismatch",
	ErrItemsGrandTotalMismatch: "items_grand_total_mismatch",
	ErrAmbiguousTotals:         "ambiguous_totals",
}

var userMessages = map[error]string{
	ErrMissingGrandTotal:       "We couldn't find the total amount on this receipt. Please enter it.",
	ErrItemsSubtotalMismatch:   "The items don't add up to the subtotal on the receipt.",
	ErrGrandTotalMismatch:      "The subtotal plus taxes and charges doesn't match the receipt total.",
	ErrItemsGrandTotalMismatch: "The items don't add up to the receipt total.",
	ErrAmbiguousTotals:         "The items don't add up to the total, with or without the taxes and charges.",
}

// Diagnostics carries the sums computed while reconciling, so a caller can
// show where the numbers disagree.
type Diagnostics struct {
	ItemsTotal     decimal.Decimal `json:"items_total"`
	StatedSubtotal decimal.Decimal `json:"stated_subtotal"`
	ChargesTotal   decimal.Decimal `json:"charges_total"`
	GrandTotal     decimal.Decimal `json:"grand_total"`

	// CalculatedSubtotal is grand total minus charges.
	CalculatedSubtotal decimal.Decimal `json:"calculated_subtotal"`

	// InclusiveDifference is |items - grand total|.
	InclusiveDifference decimal.Decimal `json:"inclusive_difference"`

	// ExclusiveDifference is |items - (grand total - charges)|, or
	// |items - stated subtotal| when a subtotal was stated.
	ExclusiveDifference decimal.Decimal `json:"exclusive_difference"`

	// GrandTotalDifference is |stated subtotal + charges - grand total|.
	GrandTotalDifference decimal.Decimal `json:"grand_total_difference"`

	ItemMismatches []models.ItemMismatch `json:"item_mismatches,omitempty"`
}

// ReconciliationError reports a receipt whose numbers could not be reconciled.
// It unwraps to one of the Err* sentinels.
type ReconciliationError struct {
	Err         error
	Diagnostics Diagnostics

	// Unvalidated is the guess that failed, when the failure came from
	// ReconcileRaw. A caller can render it in a correction form.
	Unvalidated *models.RawReceipt
}

func (e *ReconciliationError) Error() string {
	d := e.Diagnostics
	switch e.Err {
	case ErrMissingGrandTotal:
		return fmt.Sprintf("%v (got %s)", e.Err, d.GrandTotal.StringFixed(2))
	case ErrItemsSubtotalMismatch:
		return fmt.Sprintf("%v: items %s, subtotal %s, difference %s (%d item mismatches)",
			e.Err, d.ItemsTotal.StringFixed(2), d.StatedSubtotal.StringFixed(2),
			d.ExclusiveDifference.StringFixed(2), len(d.ItemMismatches))
	case ErrGrandTotalMismatch:
		return fmt.Sprintf("%v: expected %s (subtotal %s + charges %s), receipt shows %s, difference %s",
			e.Err, d.StatedSubtotal.Add(d.ChargesTotal).StringFixed(2), d.StatedSubtotal.StringFixed(2),
			d.ChargesTotal.StringFixed(2), d.GrandTotal.StringFixed(2), d.GrandTotalDifference.StringFixed(2))
	case ErrItemsGrandTotalMismatch:
		return fmt.Sprintf("%v: items %s, grand total %s, no charges present, difference %s",
			e.Err, d.ItemsTotal.StringFixed(2), d.GrandTotal.StringFixed(2), d.InclusiveDifference.StringFixed(2))
	case ErrAmbiguousTotals:
		return fmt.Sprintf("%v: items %s; tax-inclusive expects %s (difference %s); tax-exclusive expects %s (difference %s)",
			e.Err, d.ItemsTotal.StringFixed(2),
			d.GrandTotal.StringFixed(2), d.InclusiveDifference.StringFixed(2),
			d.CalculatedSubtotal.StringFixed(2), d.ExclusiveDifference.StringFixed(2))
	}
	return e.Err.Error()
}

func (e *ReconciliationError) Unwrap() error {
	return e.Err
}

// Kind returns a stable snake_case code for the failure.
func (e *ReconciliationError) Kind() string {
	if code, ok := kindCodes[e.Err]; ok {
		return code
	}
	return "unknown"
}

// UserMessage returns a short, non-technical explanation of the failure.
func (e *ReconciliationError) UserMessage() string {
	if msg, ok := userMessages[e.Err]; ok {
		return msg
	}
	return "The receipt totals don't add up."
}
