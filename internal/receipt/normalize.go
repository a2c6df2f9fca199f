// Package receipt reconciles extracted receipt numbers and normalizes items
// to unit quantities.
package receipt

import (
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/GeorgePPP/bill-splitter/internal/models"
)

// Normalize expands every item with quantity N > 1 into N unit-quantity items.
// The last unit absorbs the rounding remainder so each original item's total
// is preserved exactly. Malformed items degrade to a single unit item instead
// of failing the batch. The input slice is not modified.
func Normalize(items []models.ReceiptItem) []models.ReceiptItem {
	out := make([]models.ReceiptItem, 0, len(items))
	for i, item := range items {
		if item.Quantity < 1 || item.Quantity > models.MaxQuantity ||
			item.UnitPrice.IsNegative() || item.TotalPrice.IsNegative() {
			slog.Debug("Degrading malformed item to a single unit",
				"index", i,
				"name", item.Name,
				"quantity", item.Quantity,
			)
			out = append(out, singleUnit(item))
			continue
		}
		if item.Quantity == 1 {
			out = append(out, singleUnit(item))
			continue
		}
		out = append(out, expand(item)...)
	}
	return out
}

// singleUnit returns item as one unit, falling back to the unit price when
// the total is missing and clamping negative amounts to zero.
func singleUnit(item models.ReceiptItem) models.ReceiptItem {
	unit := decimal.Max(item.UnitPrice, decimal.Zero)
	total := decimal.Max(item.TotalPrice, decimal.Zero)
	if total.IsZero() {
		total = unit
	}
	return models.ReceiptItem{
		Name:       item.Name,
		Quantity:   1,
		UnitPrice:  unit,
		TotalPrice: total,
	}
}

func expand(item models.ReceiptItem) []models.ReceiptItem {
	n := int64(item.Quantity)

	var perUnit, total decimal.Decimal
	if item.TotalPrice.IsPositive() {
		total = item.TotalPrice
		perUnit = total.Div(decimal.NewFromInt(n)).Round(2)
	} else {
		perUnit = item.UnitPrice.Round(2)
		total = perUnit.Mul(decimal.NewFromInt(n))
	}

	units := make([]models.ReceiptItem, 0, n)
	for k := int64(0); k < n-1; k++ {
		units = append(units, models.ReceiptItem{
			Name:       item.Name,
			Quantity:   1,
			UnitPrice:  perUnit,
			TotalPrice: perUnit,
		})
	}

	last := total.Sub(perUnit.Mul(decimal.NewFromInt(n - 1))).Round(2)
	last = decimal.Max(last, decimal.Zero)
	units = append(units, models.ReceiptItem{
		Name:       item.Name,
		Quantity:   1,
		UnitPrice:  last,
		TotalPrice: last,
	})
	return units
}

// Sum returns the sum of the items' totals.
func Sum(items []models.ReceiptItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.TotalPrice)
	}
	return total
}
