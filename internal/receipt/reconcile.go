package receipt

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/GeorgePPP/bill-splitter/internal/models"
)

// Tolerance is the largest difference, in currency units, at which two
// amounts on a receipt are still considered equal.
var Tolerance = decimal.New(5, -2)

var hundred = decimal.NewFromInt(100)

// Reconcile decides which tax scenario a receipt follows and checks that its
// items, subtotal, charges and grand total agree within Tolerance.
// A zero subtotal means the receipt does not state one.
//
// On failure the returned error is a *ReconciliationError.
func Reconcile(items []models.ReceiptItem, subtotal decimal.Decimal, charges []models.ChargeLine, grandTotal decimal.Decimal) (*models.ValidatedReceipt, error) {
	return reconcile(items, subtotal, charges, grandTotal, ItemMismatches(items))
}

// ReconcileRaw reconciles an extracted guess. Items are normalized to unit
// quantities first; item mismatches are reported against the items as
// printed. A failure carries raw as the unvalidated guess.
func ReconcileRaw(raw *models.RawReceipt) (*models.ValidatedReceipt, error) {
	if raw == nil {
		return nil, &ReconciliationError{Err: ErrMissingGrandTotal}
	}
	mismatches := ItemMismatches(raw.Items)
	validated, err := reconcile(Normalize(raw.Items), raw.Subtotal, raw.TaxesOrCharges, raw.GrandTotal, mismatches)
	if err != nil {
		var rerr *ReconciliationError
		if errors.As(err, &rerr) {
			rerr.Unvalidated = raw
		}
		return nil, err
	}
	return validated, nil
}

// ItemMismatches returns the items whose total differs from quantity × unit
// price by more than Tolerance.
func ItemMismatches(items []models.ReceiptItem) []models.ItemMismatch {
	var out []models.ItemMismatch
	for i, item := range items {
		expected := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		diff := item.TotalPrice.Sub(expected).Abs()
		if diff.GreaterThan(Tolerance) {
			out = append(out, models.ItemMismatch{
				Index:      i,
				Name:       item.Name,
				Quantity:   item.Quantity,
				UnitPrice:  item.UnitPrice,
				Provided:   item.TotalPrice,
				Calculated: expected.Round(2),
				Difference: diff.Round(2),
			})
		}
	}
	return out
}

func reconcile(items []models.ReceiptItem, subtotal decimal.Decimal, charges []models.ChargeLine, grandTotal decimal.Decimal, mismatches []models.ItemMismatch) (*models.ValidatedReceipt, error) {
	itemsTotal := Sum(items)
	chargesTotal := decimal.Zero
	for _, c := range charges {
		chargesTotal = chargesTotal.Add(c.Amount)
	}

	diag := Diagnostics{
		ItemsTotal:         itemsTotal,
		StatedSubtotal:     subtotal,
		ChargesTotal:       chargesTotal,
		GrandTotal:         grandTotal,
		CalculatedSubtotal: grandTotal.Sub(chargesTotal),
		ItemMismatches:     mismatches,
	}
	fail := func(err error) error {
		return &ReconciliationError{Err: err, Diagnostics: diag}
	}

	if !grandTotal.IsPositive() {
		return nil, fail(ErrMissingGrandTotal)
	}

	var (
		scenario models.TaxScenario
		resolved decimal.Decimal
	)

	switch {
	case subtotal.GreaterThan(Tolerance):
		diag.ExclusiveDifference = itemsTotal.Sub(subtotal).Abs()
		diag.GrandTotalDifference = subtotal.Add(chargesTotal).Sub(grandTotal).Abs()
		if diag.ExclusiveDifference.GreaterThan(Tolerance) {
			return nil, fail(ErrItemsSubtotalMismatch)
		}
		if diag.GrandTotalDifference.GreaterThan(Tolerance) {
			return nil, fail(ErrGrandTotalMismatch)
		}
		scenario, resolved = models.TaxExclusive, subtotal

	case chargesTotal.IsZero():
		diag.InclusiveDifference = itemsTotal.Sub(grandTotal).Abs()
		if diag.InclusiveDifference.GreaterThan(Tolerance) {
			return nil, fail(ErrItemsGrandTotalMismatch)
		}
		scenario, resolved = models.NoTaxes, grandTotal

	default:
		calculated := diag.CalculatedSubtotal
		diag.InclusiveDifference = itemsTotal.Sub(grandTotal).Abs()
		diag.ExclusiveDifference = itemsTotal.Sub(calculated).Abs()

		inclusive := diag.InclusiveDifference.LessThanOrEqual(Tolerance)
		exclusive := !calculated.IsNegative() && diag.ExclusiveDifference.LessThanOrEqual(Tolerance)
		switch {
		case inclusive:
			scenario, resolved = models.TaxInclusive, grandTotal
		case exclusive:
			scenario, resolved = models.TaxExclusive, calculated
		default:
			return nil, fail(ErrAmbiguousTotals)
		}
	}

	base := resolved
	if scenario == models.TaxInclusive {
		base = resolved.Sub(chargesTotal)
	}

	return &models.ValidatedReceipt{
		Items:          append([]models.ReceiptItem(nil), items...),
		Subtotal:       resolved,
		StatedSubtotal: subtotal,
		Charges:        annotatePercent(charges, base),
		GrandTotal:     grandTotal,
		Scenario:       scenario,
		ItemsTotal:     itemsTotal,
		ChargesTotal:   chargesTotal,
		ItemMismatches: mismatches,
	}, nil
}

// annotatePercent returns a copy of charges with Percent set relative to base.
func annotatePercent(charges []models.ChargeLine, base decimal.Decimal) []models.ChargeLine {
	out := make([]models.ChargeLine, len(charges))
	for i, c := range charges {
		pct := decimal.Zero
		if base.IsPositive() {
			pct = c.Amount.Div(base).Mul(hundred).Round(2)
		}
		out[i] = models.ChargeLine{
			Name:    c.Name,
			Amount:  c.Amount,
			Percent: decimal.NewNullDecimal(pct),
		}
	}
	return out
}
